// Package element provides read-only reference data for chemical elements and
// amino-acid residues: names, van der Waals radii, CPK colours and covalent
// radii used to estimate bond orders.
package element

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/molview/pkg/errors"
)

//go:embed elements.yaml
var defaultTable []byte

// Data describes one element.
type Data struct {
	Symbol string
	Name   string
	Number int
	// Radius is the van der Waals radius in pm.
	Radius float64
	// Color is 0xRRGGBB.
	Color uint32
	// Covalent radii in pm; zero means the element does not form that bond order.
	SingleBondRadius float64
	DoubleBondRadius float64
	TripleBondRadius float64
}

// CovalentRadius returns the covalent radius for bond order 1, 2 or 3.
func (d *Data) CovalentRadius(order int) float64 {
	switch order {
	case 1:
		return d.SingleBondRadius
	case 2:
		return d.DoubleBondRadius
	case 3:
		return d.TripleBondRadius
	}
	return 0
}

// Provider looks element data up by symbol. Lookups are case-insensitive.
type Provider interface {
	Lookup(symbol string) (*Data, bool)
}

// Table is an immutable Provider.
type Table struct {
	bySymbol map[string]*Data
}

type yamlElement struct {
	Symbol   string    `yaml:"symbol"`
	Name     string    `yaml:"name"`
	Number   int       `yaml:"number"`
	Radius   float64   `yaml:"radius"`
	Color    string    `yaml:"color"`
	Covalent []float64 `yaml:"covalent"`
}

type yamlTable struct {
	Elements []yamlElement `yaml:"elements"`
}

// NewTable loads the built-in element table.
func NewTable() (*Table, error) {
	return NewTableFromYAML(defaultTable)
}

// MustNewTable is NewTable for package initialisation paths.
func MustNewTable() *Table {
	t, err := NewTable()
	if err != nil {
		panic(err)
	}
	return t
}

// NewTableFromYAML parses an element table in the built-in format.
func NewTableFromYAML(raw []byte) (*Table, error) {
	var doc yamlTable
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeElementTableInvalid, "failed to decode element table")
	}
	if len(doc.Elements) == 0 {
		return nil, errors.New(errors.ErrCodeElementTableInvalid, "element table is empty")
	}

	t := &Table{bySymbol: make(map[string]*Data, len(doc.Elements))}
	for i, e := range doc.Elements {
		if e.Symbol == "" {
			return nil, errors.New(errors.ErrCodeElementTableInvalid, "element without symbol").
				WithDetail(fmt.Sprintf("entry %d", i))
		}
		color, err := strconv.ParseUint(e.Color, 16, 32)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeElementTableInvalid, "invalid element colour").
				WithDetail(e.Symbol)
		}
		d := &Data{
			Symbol: e.Symbol,
			Name:   e.Name,
			Number: e.Number,
			Radius: e.Radius,
			Color:  uint32(color),
		}
		for order, r := range e.Covalent {
			switch order {
			case 0:
				d.SingleBondRadius = r
			case 1:
				d.DoubleBondRadius = r
			case 2:
				d.TripleBondRadius = r
			}
		}
		key := strings.ToUpper(e.Symbol)
		if _, dup := t.bySymbol[key]; dup {
			return nil, errors.New(errors.ErrCodeElementTableInvalid, "duplicate element").WithDetail(e.Symbol)
		}
		t.bySymbol[key] = d
	}
	return t, nil
}

// Lookup implements Provider.
func (t *Table) Lookup(symbol string) (*Data, bool) {
	d, ok := t.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	return d, ok
}

// Len is the number of elements in the table.
func (t *Table) Len() int {
	return len(t.bySymbol)
}

//Personal.AI order the ending
