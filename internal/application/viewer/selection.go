package viewer

import (
	"github.com/turtacn/molview/internal/domain/molecule"
	"github.com/turtacn/molview/pkg/errors"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// PickOutcome says what a pick did to the selection.
type PickOutcome string

const (
	OutcomeAdded     PickOutcome = "added"
	OutcomePrepended PickOutcome = "prepended"
	OutcomeRemoved   PickOutcome = "removed"
	OutcomeIgnored   PickOutcome = "ignored"
	OutcomeRejected  PickOutcome = "rejected"
	OutcomeCleared   PickOutcome = "cleared"
)

// Changed reports whether the selection was modified.
func (o PickOutcome) Changed() bool {
	return o == OutcomeAdded || o == OutcomePrepended || o == OutcomeRemoved || o == OutcomeCleared
}

// PickResult is the outcome of one pick. ClearedFirst is set when identify
// mode dropped the previous atom before adding the new one.
type PickResult struct {
	Outcome      PickOutcome
	ClearedFirst bool
}

// SelectionController holds the ordered list of picked atoms for one
// molecule and keeps the renderer's highlight state in step with it.
//
// Rules for a pick:
//   - Picking the first or last selected atom removes it together with the
//     highlight of the bond to its neighbour in the list. Picking a middle
//     atom does nothing.
//   - In identify mode a new pick replaces the current atom.
//   - A full selection rejects further picks.
//   - In rotation and torsion modes every pick after the first must be bonded
//     to one end of the list and extends the chain at that end.
type SelectionController struct {
	mol      *molecule.Molecule
	renderer Renderer
	mode     mtypes.SelectionMode
	selected []*molecule.Atom
}

// NewSelectionController starts with an empty selection. An unknown mode
// falls back to identify.
func NewSelectionController(mol *molecule.Molecule, renderer Renderer, mode mtypes.SelectionMode) *SelectionController {
	if !mode.IsValid() {
		mode = mtypes.SelectionIdentify
	}
	return &SelectionController{mol: mol, renderer: renderer, mode: mode}
}

func (c *SelectionController) Mode() mtypes.SelectionMode { return c.mode }

// SetMode switches mode and clears the selection.
func (c *SelectionController) SetMode(mode mtypes.SelectionMode) error {
	if !mode.IsValid() {
		return errors.New(errors.ErrCodeInvalidMode, "unknown selection mode").WithDetail(string(mode))
	}
	c.mode = mode
	c.Clear()
	return nil
}

// Selected returns a copy of the selection in chain order.
func (c *SelectionController) Selected() []*molecule.Atom {
	out := make([]*molecule.Atom, len(c.selected))
	copy(out, c.selected)
	return out
}

// Serials returns the serial numbers of the selected atoms in order.
func (c *SelectionController) Serials() []int {
	out := make([]int, len(c.selected))
	for i, a := range c.selected {
		out[i] = a.Serial()
	}
	return out
}

// Clear empties the selection and removes every highlight.
func (c *SelectionController) Clear() {
	c.renderer.DeselectAll()
	c.selected = nil
}

func (c *SelectionController) indexOf(a *molecule.Atom) int {
	for i, s := range c.selected {
		if s == a {
			return i
		}
	}
	return -1
}

// Toggle applies a pick of atom.
func (c *SelectionController) Toggle(atom *molecule.Atom) PickResult {
	if atom == nil {
		return PickResult{Outcome: OutcomeIgnored}
	}

	if idx := c.indexOf(atom); idx >= 0 {
		return PickResult{Outcome: c.remove(idx)}
	}

	var res PickResult
	if c.mode == mtypes.SelectionIdentify && len(c.selected) >= 1 {
		c.Clear()
		res.ClearedFirst = true
	}

	if len(c.selected) >= c.mode.MaxAtoms() {
		res.Outcome = OutcomeRejected
		return res
	}

	if c.mode.RequiresChain() && len(c.selected) > 0 {
		first, last := c.selected[0], c.selected[len(c.selected)-1]
		switch {
		case c.mol.IsNeighbor(atom, first):
			c.renderer.Select(molecule.AtomObject(atom))
			c.selectBond(atom, first)
			c.selected = append([]*molecule.Atom{atom}, c.selected...)
			res.Outcome = OutcomePrepended
		case c.mol.IsNeighbor(atom, last):
			c.renderer.Select(molecule.AtomObject(atom))
			c.selectBond(atom, last)
			c.selected = append(c.selected, atom)
			res.Outcome = OutcomeAdded
		default:
			res.Outcome = OutcomeRejected
		}
		return res
	}

	c.renderer.Select(molecule.AtomObject(atom))
	c.selected = append(c.selected, atom)
	res.Outcome = OutcomeAdded
	return res
}

func (c *SelectionController) remove(idx int) PickOutcome {
	n := len(c.selected)
	atom := c.selected[idx]
	switch idx {
	case 0:
		c.renderer.Deselect(molecule.AtomObject(atom))
		if n >= 2 {
			c.deselectBond(atom, c.selected[1])
		}
		c.selected = append([]*molecule.Atom(nil), c.selected[1:]...)
	case n - 1:
		c.renderer.Deselect(molecule.AtomObject(atom))
		if n >= 2 {
			c.deselectBond(atom, c.selected[n-2])
		}
		c.selected = append([]*molecule.Atom(nil), c.selected[:n-1]...)
	default:
		return OutcomeIgnored
	}
	return OutcomeRemoved
}

func (c *SelectionController) selectBond(a, b *molecule.Atom) {
	if bond, _ := c.mol.GetBondBetween(a, b); bond != nil {
		c.renderer.Select(molecule.BondObject(bond))
	}
}

func (c *SelectionController) deselectBond(a, b *molecule.Atom) {
	if bond, _ := c.mol.GetBondBetween(a, b); bond != nil {
		c.renderer.Deselect(molecule.BondObject(bond))
	}
}

// Reapply re-issues the highlights for the current selection, for use after
// the renderer was reset.
func (c *SelectionController) Reapply() {
	for i, a := range c.selected {
		c.renderer.Select(molecule.AtomObject(a))
		if i > 0 && c.mode.RequiresChain() {
			c.selectBond(c.selected[i-1], a)
		}
	}
}

// Measure evaluates the selection in frame. An incomplete selection is an
// InvalidState error.
func (c *SelectionController) Measure(frame int) (Measurement, error) {
	s := c.selected
	m := Measurement{Mode: c.mode}
	need := c.mode.MaxAtoms()
	if len(s) < need {
		return m, errors.InvalidState("selection incomplete")
	}
	for _, a := range s[:need] {
		m.Elements = append(m.Elements, a.Element())
	}

	var rad float64
	switch c.mode {
	case mtypes.SelectionIdentify:
		m.Name = s[0].Name()
		return m, nil
	case mtypes.SelectionDistance:
		m.Value = Distance(s[0], s[1], frame)
		return m, nil
	case mtypes.SelectionRotation:
		rad = RotationAngle(s[0], s[1], s[2], frame)
	case mtypes.SelectionTorsion:
		rad = TorsionAngle(s[0], s[1], s[2], s[3], frame)
	}
	m.Degenerate = rad == 0
	m.Value = RadiansToDegrees(rad)
	return m, nil
}

// Info is the text for the info display: the measurement when the selection
// is complete, the mode's prompt otherwise.
func (c *SelectionController) Info(frame int) string {
	m, err := c.Measure(frame)
	if err != nil {
		return Prompt(c.mode)
	}
	return m.Text()
}

//Personal.AI order the ending
