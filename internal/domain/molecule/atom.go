package molecule

import (
	"fmt"

	"github.com/turtacn/molview/internal/domain/element"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// reducedRadiusWeight is the share of an element's own radius in reduced mode;
// the remainder comes from hydrogen's radius.
const reducedRadiusWeight = 0.25

// defaultHydrogenRadius (pm) is used when the element table has no hydrogen.
const defaultHydrogenRadius = 120.0

// DefaultAtomColor is carbon grey, used for elements without a CPK colour.
const DefaultAtomColor uint32 = 0x909090

// AtomID is the file serial number of an atom.
type AtomID int

// String renders the object id used by COLOR records, e.g. "atom12".
func (id AtomID) String() string {
	return fmt.Sprintf("atom%d", int(id))
}

// AtomRecord is the field set of one ATOM/HETATM line.
type AtomRecord struct {
	Serial     int
	Element    string
	AltLoc     string
	ResName    string
	ChainID    string
	ResSeq     string
	ICode      string
	X, Y, Z    float64
	Occupancy  float64
	TempFactor float64
	SegID      string
	Element2   string
	Charge     int
}

// Atom is a vertex of the molecular graph.
type Atom struct {
	id     AtomID
	record AtomRecord
	data   *element.Data
	radius float64
	color  uint32

	frames map[int]Vec3
	bonds  []*Bond
}

func (a *Atom) ID() AtomID { return a.id }

func (a *Atom) Serial() int { return int(a.id) }

// Element is the symbol as written in the file, e.g. "C".
func (a *Atom) Element() string { return a.record.Element }

// Name is the element's full name, e.g. "Carbon".
func (a *Atom) Name() string { return a.data.Name }

func (a *Atom) Data() *element.Data { return a.data }

// Record returns the fields of the ATOM/HETATM line that created the atom.
func (a *Atom) Record() AtomRecord { return a.record }

// Radius is the display radius in pm.
func (a *Atom) Radius() float64 { return a.radius }

func (a *Atom) Color() uint32 { return a.color }

// SetColor overrides the display colour, as a COLOR record does.
func (a *Atom) SetColor(c uint32) { a.color = c }

// Position returns the atom's location in the given frame.
func (a *Atom) Position(frame int) (Vec3, bool) {
	p, ok := a.frames[frame]
	return p, ok
}

// At is Position without the presence flag; absent frames yield the origin.
func (a *Atom) At(frame int) Vec3 {
	return a.frames[frame]
}

// HasFrame reports whether the atom was placed in frame.
func (a *Atom) HasFrame(frame int) bool {
	_, ok := a.frames[frame]
	return ok
}

// Bonds returns the atom's bond list. Callers must not modify it.
func (a *Atom) Bonds() []*Bond { return a.bonds }

func (a *Atom) addBond(b *Bond) { a.bonds = append(a.bonds, b) }

func (a *Atom) translate(frame int, delta Vec3) {
	if p, ok := a.frames[frame]; ok {
		a.frames[frame] = p.Add(delta)
	}
}

func (a *Atom) applyRadius(mode mtypes.RadiusMode, scale, hRadius float64) {
	switch mode {
	case mtypes.RadiusAccurate:
		a.radius = scale * a.data.Radius
	case mtypes.RadiusReduced:
		a.radius = scale * (reducedRadiusWeight*a.data.Radius + (1-reducedRadiusWeight)*hRadius)
	default:
		a.radius = scale * hRadius
	}
}

func (a *Atom) applyColorMode(mode mtypes.ColorMode, residues element.AminoAcidProvider) {
	switch mode {
	case mtypes.ColorCPK:
		a.color = a.data.Color
		if a.color == 0 {
			a.color = DefaultAtomColor
		}
	case mtypes.ColorAminoAcid:
		a.color = element.FallbackResidueColor
		if residues != nil {
			if c, ok := residues.Lookup(a.record.ResName); ok {
				a.color = c
			}
		}
	}
}

//Personal.AI order the ending
