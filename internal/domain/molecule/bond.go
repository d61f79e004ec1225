package molecule

import (
	"fmt"
	"math"

	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// LengthScale converts Å distances to the displayed bond length (pm).
const LengthScale = 100.0

// BondOrder is 1, 2 or 3.
type BondOrder int

const (
	SingleBond BondOrder = 1
	DoubleBond BondOrder = 2
	TripleBond BondOrder = 3
)

// IsValid reports whether o is single, double or triple.
func (o BondOrder) IsValid() bool { return o >= SingleBond && o <= TripleBond }

var bondColors = [...]uint32{0x0000FF, 0x8822FF, 0x2299FF}

// BondKey identifies an unordered atom pair; Lo <= Hi.
type BondKey struct {
	Lo, Hi AtomID
}

// NewBondKey orders the pair.
func NewBondKey(a, b AtomID) BondKey {
	if a > b {
		a, b = b, a
	}
	return BondKey{Lo: a, Hi: b}
}

// Bond is an edge of the molecular graph.
type Bond struct {
	atoms [2]*Atom
	order BondOrder
	color uint32
}

func newBond(a1, a2 *Atom, order BondOrder) *Bond {
	b := &Bond{atoms: [2]*Atom{a1, a2}, order: order}
	b.applyColorMode(mtypes.ColorCPK)
	a1.addBond(b)
	a2.addBond(b)
	return b
}

// Atoms returns the two endpoints in creation order.
func (b *Bond) Atoms() [2]*Atom { return b.atoms }

func (b *Bond) Order() BondOrder { return b.order }

func (b *Bond) Key() BondKey { return NewBondKey(b.atoms[0].id, b.atoms[1].id) }

// ID renders the object id used by COLOR records, e.g. "atom1-atom2".
func (b *Bond) ID() string {
	k := b.Key()
	return fmt.Sprintf("%s-%s", k.Lo, k.Hi)
}

func (b *Bond) Color() uint32 { return b.color }

// SetColor overrides the display colour, as a COLOR record does.
func (b *Bond) SetColor(c uint32) { b.color = c }

// Other returns the endpoint that is not a, or nil if a is not an endpoint.
func (b *Bond) Other(a *Atom) *Atom {
	switch a {
	case b.atoms[0]:
		return b.atoms[1]
	case b.atoms[1]:
		return b.atoms[0]
	}
	return nil
}

// Has reports whether a is an endpoint.
func (b *Bond) Has(a *Atom) bool {
	return b.atoms[0] == a || b.atoms[1] == a
}

// Midpoint is derived from the endpoint positions so it always follows them.
func (b *Bond) Midpoint(frame int) Vec3 {
	return b.atoms[0].At(frame).Add(b.atoms[1].At(frame)).Scale(0.5)
}

// Length is the endpoint distance times LengthScale.
func (b *Bond) Length(frame int) float64 {
	return LengthScale * b.atoms[0].At(frame).DistanceTo(b.atoms[1].At(frame))
}

func (b *Bond) applyColorMode(mode mtypes.ColorMode) {
	// amino-acid mode has no bond colouring; bonds keep their order colour
	if mode == mtypes.ColorCPK && b.order.IsValid() {
		b.color = bondColors[b.order-1]
	}
}

// EstimateOrder picks the bond order whose summed covalent radii best match
// the measured length (pm). Orders for which either element lacks a radius are
// skipped; fallback is returned when none qualify.
func EstimateOrder(a1, a2 *Atom, length float64, fallback BondOrder) BondOrder {
	best := fallback
	bestDelta := math.Inf(1)
	for o := SingleBond; o <= TripleBond; o++ {
		r1 := a1.data.CovalentRadius(int(o))
		r2 := a2.data.CovalentRadius(int(o))
		if r1 == 0 || r2 == 0 {
			continue
		}
		if d := math.Abs(length - (r1 + r2)); d < bestDelta {
			best, bestDelta = o, d
		}
	}
	return best
}

//Personal.AI order the ending
