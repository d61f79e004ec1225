package session

import (
	"fmt"
	"strings"

	"github.com/turtacn/molview/internal/domain/molecule"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// hexColor formats a packed 0xRRGGBB colour the way COLOR records write it.
func hexColor(c uint32) string {
	return fmt.Sprintf("%06X", c&0xFFFFFF)
}

// Summarize describes mol at frame. Atom and bond lists are included only
// when withObjects is set; they are limited to what frame places.
func Summarize(mol *molecule.Molecule, frame int, withObjects bool) mtypes.MoleculeSummary {
	if mol == nil {
		return mtypes.MoleculeSummary{Frames: []int{}}
	}
	s := mtypes.MoleculeSummary{
		IDCode:         strings.TrimSpace(mol.Header.IDCode),
		Classification: strings.TrimSpace(mol.Header.Classification),
		DepDate:        strings.TrimSpace(mol.Header.DepDate),
		Title:          strings.TrimSpace(mol.Title),
		Compound:       strings.TrimSpace(mol.Compound.Text),
		NumAtoms:       mol.NumAtoms(),
		NumBonds:       mol.NumBonds(),
		Frames:         mol.Frames(),
	}
	if !withObjects {
		return s
	}

	for _, a := range mol.Atoms() {
		p, ok := a.Position(frame)
		if !ok {
			continue
		}
		rec := a.Record()
		s.Atoms = append(s.Atoms, mtypes.AtomDTO{
			Serial:  a.Serial(),
			Element: a.Element(),
			Name:    a.Name(),
			ResName: strings.TrimSpace(rec.ResName),
			ChainID: rec.ChainID,
			ResSeq:  strings.TrimSpace(rec.ResSeq),
			X:       p.X,
			Y:       p.Y,
			Z:       p.Z,
			Radius:  a.Radius(),
			Color:   hexColor(a.Color()),
		})
	}
	for _, b := range mol.Bonds() {
		ends := b.Atoms()
		if !ends[0].HasFrame(frame) || !ends[1].HasFrame(frame) {
			continue
		}
		s.Bonds = append(s.Bonds, mtypes.BondDTO{
			Atom1:  ends[0].Serial(),
			Atom2:  ends[1].Serial(),
			Order:  int(b.Order()),
			Length: b.Length(frame),
			Color:  hexColor(b.Color()),
		})
	}
	return s
}

//Personal.AI order the ending
