// Package pdb reads the fixed-column Protein Data Bank text format into a
// molecule graph. Only the records a viewer needs are interpreted: HEADER,
// TITLE, COMPND, ATOM, HETATM and the CONECT family, plus the non-standard
// COLOR record and the CONEC2/CONEC3 bond-order variants.
//
// Connectivity and colouring problems abort the parse. An atom whose element
// is unknown is skipped with a warning, since heterogeneous files commonly
// carry such records.
package pdb

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/molview/internal/domain/element"
	"github.com/turtacn/molview/internal/domain/molecule"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/pkg/errors"
)

// Record type prefixes, always six characters.
const (
	recHeader = "HEADER"
	recTitle  = "TITLE "
	recCompnd = "COMPND"
	recColor  = "COLOR "
	recAtom   = "ATOM  "
	recHetatm = "HETATM"
	recConect = "CONECT"
	recConec2 = "CONEC2"
	recConec3 = "CONEC3"
	recSeqres = "SEQRES"
	recEnd    = "END   "
	recTer    = "TER   "
	recModel  = "MODEL "
	recEndmdl = "ENDMDL"
)

// Skip reasons reported to Metrics.
const (
	SkipUnknownElement = "unknown_element"
	SkipBadSerial      = "bad_serial"
	SkipBadConect      = "bad_conect"
)

// Metrics receives parse outcomes. *prometheus.ViewerMetrics satisfies it.
type Metrics interface {
	RecordParse(status string, d time.Duration, atoms, bonds int)
	RecordSkipped(reason string)
}

type nopMetrics struct{}

func (nopMetrics) RecordParse(string, time.Duration, int, int) {}
func (nopMetrics) RecordSkipped(string)                        {}

// Stats summarises one parse.
type Stats struct {
	Lines          int
	Atoms          int
	Bonds          int
	SkippedAtoms   int
	DuplicateAtoms int
	Colored        int
	Models         int
}

// Parser turns PDB text into molecules. It holds no per-parse state, so one
// Parser may be shared by concurrent callers.
type Parser struct {
	elements element.Provider
	residues element.AminoAcidProvider
	molOpts  molecule.Options
	logger   logging.Logger
	metrics  Metrics
}

// Option configures a Parser.
type Option func(*Parser)

func WithLogger(l logging.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(p *Parser) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithMoleculeOptions sets the display options of the molecules produced.
func WithMoleculeOptions(o molecule.Options) Option {
	return func(p *Parser) { p.molOpts = o }
}

func WithAminoAcids(a element.AminoAcidProvider) Option {
	return func(p *Parser) { p.residues = a }
}

// NewParser builds a Parser resolving element symbols through elements.
func NewParser(elements element.Provider, opts ...Option) *Parser {
	p := &Parser{
		elements: elements,
		molOpts:  molecule.DefaultOptions(),
		logger:   logging.NewNopLogger(),
		metrics:  nopMetrics{},
	}
	for _, o := range opts {
		o(p)
	}
	p.logger = p.logger.Named("pdb")
	return p
}

// NewMolecule returns an empty molecule configured like the ones Parse
// produces, for use with ParseFrame.
func (p *Parser) NewMolecule() *molecule.Molecule {
	return molecule.New(p.molOpts, p.elements, p.residues)
}

// Parse reads text into a new molecule. The first MODEL block, or the whole
// text when there is none, becomes frame 0.
func (p *Parser) Parse(text string) (*molecule.Molecule, error) {
	mol, _, err := p.ParseWithStats(text)
	return mol, err
}

// ParseWithStats is Parse that also reports what was read.
func (p *Parser) ParseWithStats(text string) (*molecule.Molecule, Stats, error) {
	mol := p.NewMolecule()
	st, err := p.parseInto(mol, text, molecule.DefaultFrame)
	if err != nil {
		return nil, st, err
	}
	return mol, st, nil
}

// ParseFrame adds the atoms and bonds of text to mol as frame. Atoms already
// known to mol gain a position for the new frame. A text with several MODEL
// blocks fills frame, frame+1 and so on.
func (p *Parser) ParseFrame(mol *molecule.Molecule, text string, frame int) error {
	if mol == nil {
		return errors.New(errors.ErrCodeInvalidObject, "cannot parse into a nil molecule")
	}
	_, err := p.parseInto(mol, text, frame)
	return err
}

// ParseReader reads the whole stream and parses it. Gzip input is detected
// by its magic number and decompressed.
func (p *Parser) ParseReader(r io.Reader) (*molecule.Molecule, error) {
	text, err := ReadText(r)
	if err != nil {
		return nil, err
	}
	return p.Parse(text)
}

// ReadText drains r into a string, gunzipping when r starts with the gzip
// magic number.
func ReadText(r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodePDBUnreadable, "invalid gzip stream")
		}
		defer zr.Close()
		src = zr
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodePDBUnreadable, "failed to read structure")
	}
	return string(raw), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// record loop
// ─────────────────────────────────────────────────────────────────────────────

func (p *Parser) parseInto(mol *molecule.Molecule, text string, frame int) (st Stats, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		p.metrics.RecordParse(status, time.Since(start), mol.NumAtoms(), mol.NumBonds())
	}()

	// cur is the frame ATOM records land in. Every MODEL after the first
	// moves to the next one; bonds are estimated on the base frame.
	cur := frame
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		st.Lines++
		lineNo := i + 1

		switch recordType(line) {
		case recHeader:
			mol.Header = molecule.Header{
				Classification: column(line, 10, 50),
				DepDate:        column(line, 50, 59),
				IDCode:         column(line, 62, 66),
			}
		case recTitle:
			mol.Title = column(line, 10, 70)
		case recCompnd:
			mol.Compound = molecule.Compound{
				Continuation: column(line, 8, 10),
				Text:         column(line, 10, 70),
			}
		case recColor:
			if err := p.color(mol, line, lineNo); err != nil {
				return st, err
			}
			st.Colored++
		case recModel:
			if st.Models > 0 {
				cur++
			}
			st.Models++
		case recAtom, recHetatm:
			if err := p.atom(mol, line, lineNo, cur, &st); err != nil {
				return st, err
			}
		case recConect, recConec2, recConec3:
			if err := p.conect(mol, line, lineNo, frame, &st); err != nil {
				return st, err
			}
		case recSeqres, recEnd, recTer, recEndmdl:
		}
	}

	p.logger.Debug("parsed structure",
		logging.Int("frame", frame),
		logging.Int("models", st.Models),
		logging.Int("lines", st.Lines),
		logging.Int("atoms", st.Atoms),
		logging.Int("bonds", st.Bonds),
		logging.Int("skipped", st.SkippedAtoms))
	return st, nil
}

func (p *Parser) color(mol *molecule.Molecule, line string, lineNo int) error {
	id := strings.TrimSpace(column(line, 6, 30))
	hex := column(line, 30, 36)
	c, err := strconv.ParseUint(strings.TrimSpace(hex), 16, 32)
	if err != nil || c > 0xFFFFFF {
		return malformed(lineNo, line, "bad COLOR value")
	}
	if !mol.Recolor(id, uint32(c)) {
		return errors.New(errors.ErrCodePDBUnknownObject, "COLOR references an unknown object").
			WithDetail(fmt.Sprintf("line %d: %q", lineNo, id))
	}
	return nil
}

func (p *Parser) atom(mol *molecule.Molecule, line string, lineNo, frame int, st *Stats) error {
	serial, ok := leadingInt(column(line, 6, 11))
	if !ok {
		st.SkippedAtoms++
		p.metrics.RecordSkipped(SkipBadSerial)
		p.logger.Warn("bad ATOM serial", logging.Int("line", lineNo), logging.String("text", line))
		return nil
	}

	charge, _ := leadingInt(column(line, 80, 81))
	rec := molecule.AtomRecord{
		Serial:     serial,
		Element:    strings.TrimSpace(column(line, 12, 14)),
		AltLoc:     strings.TrimSpace(column(line, 16, 17)),
		ResName:    column(line, 17, 20),
		ChainID:    strings.TrimSpace(column(line, 21, 22)),
		ResSeq:     column(line, 22, 26),
		ICode:      column(line, 26, 27),
		X:          leadingFloat(column(line, 30, 38)),
		Y:          leadingFloat(column(line, 38, 46)),
		Z:          leadingFloat(column(line, 46, 54)),
		Occupancy:  leadingFloat(column(line, 60, 66)),
		TempFactor: leadingFloat(column(line, 72, 76)),
		SegID:      strings.TrimSpace(column(line, 76, 78)),
		Element2:   strings.TrimSpace(column(line, 78, 80)),
		Charge:     charge,
	}

	_, added, err := mol.AddAtom(rec, frame)
	switch {
	case errors.IsCode(err, errors.ErrCodeElementNotFound):
		st.SkippedAtoms++
		p.metrics.RecordSkipped(SkipUnknownElement)
		p.logger.Warn("bad ATOM symbol",
			logging.Int("line", lineNo),
			logging.Int("serial", serial),
			logging.String("element", rec.Element))
		return nil
	case err != nil:
		return err
	case !added:
		st.DuplicateAtoms++
		p.logger.Debug("duplicate ATOM serial ignored", logging.Int("line", lineNo), logging.Int("serial", serial))
		return nil
	}
	st.Atoms++
	return nil
}

// conectColumns are the four covalent-neighbour fields of a CONECT record.
var conectColumns = [4][2]int{{11, 16}, {16, 21}, {21, 26}, {26, 31}}

func (p *Parser) conect(mol *molecule.Molecule, line string, lineNo, frame int, st *Stats) error {
	centre, ok := leadingInt(column(line, 6, 11))
	if !ok {
		p.metrics.RecordSkipped(SkipBadConect)
		p.logger.Warn("unreadable CONECT centre", logging.Int("line", lineNo), logging.String("text", line))
		return nil
	}
	if centre == 0 {
		return malformed(lineNo, line, "CONECT centre atom is 0")
	}

	order := molecule.SingleBond
	switch column(line, 5, 6) {
	case "2":
		order = molecule.DoubleBond
	case "3":
		order = molecule.TripleBond
	}

	for _, cols := range conectColumns {
		n, ok := leadingInt(column(line, cols[0], cols[1]))
		// Symmetric entries list each pair twice; only the ascending one bonds.
		if !ok || n <= centre {
			continue
		}
		a1, ok1 := mol.Atom(centre)
		a2, ok2 := mol.Atom(n)
		if !ok1 || !ok2 {
			continue
		}
		_, added, err := mol.Connect(a1, a2, order, frame)
		if err != nil {
			return err
		}
		if added {
			st.Bonds++
		}
	}
	return nil
}

func malformed(lineNo int, line, msg string) error {
	return errors.New(errors.ErrCodePDBMalformedRecord, msg).
		WithDetail(fmt.Sprintf("error in line %d: %s", lineNo, line))
}

//Personal.AI order the ending
