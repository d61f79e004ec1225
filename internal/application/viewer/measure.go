package viewer

import (
	"fmt"
	"math"
	"strings"

	"github.com/turtacn/molview/internal/domain/molecule"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// Prompts shown while a selection is incomplete.
const (
	PromptIdentify = "Select an atom to show properties."
	PromptDistance = "Select any two atoms to measure distance."
	PromptRotation = "Select three adjacent atoms to measure rotation angle."
	PromptTorsion  = "Select four adjacent atoms to measure torsion angle."

	invalidChainFormat = "Invalid atoms selected. Please select a chain of %d atoms."
)

const r2d = 180 / math.Pi

// RadiansToDegrees converts an angle.
func RadiansToDegrees(rad float64) float64 { return rad * r2d }

// Distance is the straight-line distance between two atoms in frame, in
// file units.
func Distance(a, b *molecule.Atom, frame int) float64 {
	return a.At(frame).DistanceTo(b.At(frame))
}

// RotationAngle is the angle at a1 in the chain a0-a1-a2, in radians.
func RotationAngle(a0, a1, a2 *molecule.Atom, frame int) float64 {
	p1 := a1.At(frame)
	return a0.At(frame).Sub(p1).AngleTo(a2.At(frame).Sub(p1))
}

// TorsionAngle is the unsigned dihedral of the chain a0-a1-a2-a3, in
// radians. Collinear bonds give 0.
func TorsionAngle(a0, a1, a2, a3 *molecule.Atom, frame int) float64 {
	p0, p1, p2, p3 := a0.At(frame), a1.At(frame), a2.At(frame), a3.At(frame)
	u := p1.Sub(p0)
	v := p2.Sub(p1)
	w := p3.Sub(p2)
	return u.Cross(v).AngleTo(v.Cross(w))
}

// Measurement is the result of measuring a complete selection.
type Measurement struct {
	Mode mtypes.SelectionMode
	// Value is the distance in file units or the angle in degrees. Identify
	// measurements carry no value.
	Value    float64
	Elements []string
	// Name is the element name of an identified atom.
	Name string
	// Degenerate marks an angle of exactly zero. Such a value cannot be told
	// apart from an invalid chain and is reported as invalid.
	Degenerate bool
}

// Text renders the measurement for the info display.
func (m Measurement) Text() string {
	switch m.Mode {
	case mtypes.SelectionIdentify:
		return fmt.Sprintf("%s (%s)", m.Name, m.Elements[0])
	case mtypes.SelectionDistance:
		return fmt.Sprintf("%.4f nm\n%s", m.Value, strings.Join(m.Elements, " - "))
	case mtypes.SelectionRotation, mtypes.SelectionTorsion:
		if m.Degenerate {
			return fmt.Sprintf(invalidChainFormat, m.Mode.MaxAtoms())
		}
		return fmt.Sprintf("%.4f degrees\n%s", m.Value, strings.Join(m.Elements, " - "))
	}
	return ""
}

// Prompt is the instruction shown for mode while its selection is incomplete.
func Prompt(mode mtypes.SelectionMode) string {
	switch mode {
	case mtypes.SelectionDistance:
		return PromptDistance
	case mtypes.SelectionRotation:
		return PromptRotation
	case mtypes.SelectionTorsion:
		return PromptTorsion
	default:
		return PromptIdentify
	}
}

//Personal.AI order the ending
