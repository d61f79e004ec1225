package molecule

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molview/internal/domain/element"
	"github.com/turtacn/molview/pkg/errors"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func newTestMolecule(t *testing.T, opts Options) *Molecule {
	t.Helper()
	return New(opts, element.MustNewTable(), nil)
}

func noEstimate() Options {
	o := DefaultOptions()
	o.EstimateBondOrders = false
	return o
}

func addAtom(t *testing.T, m *Molecule, serial int, sym string, x, y, z float64) *Atom {
	t.Helper()
	a, added, err := m.AddAtom(AtomRecord{Serial: serial, Element: sym, ResName: "ALA", X: x, Y: y, Z: z}, DefaultFrame)
	require.NoError(t, err)
	require.True(t, added)
	return a
}

type recordingSink struct {
	objs []Renderable
}

func (s *recordingSink) AddRenderableObject(obj Renderable) { s.objs = append(s.objs, obj) }

// ─────────────────────────────────────────────────────────────────────────────
// Atoms
// ─────────────────────────────────────────────────────────────────────────────

func TestAddAtom_FirstOccurrenceWins(t *testing.T) {
	m := newTestMolecule(t, DefaultOptions())
	a := addAtom(t, m, 1, "C", 1, 2, 3)

	dup, added, err := m.AddAtom(AtomRecord{Serial: 1, Element: "O", X: 9, Y: 9, Z: 9}, DefaultFrame)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Same(t, a, dup)
	assert.Equal(t, Vec3{1, 2, 3}, a.At(DefaultFrame))
	assert.Equal(t, "C", a.Element())
	assert.Equal(t, 1, m.NumAtoms())
}

func TestAddAtom_UnknownElement(t *testing.T) {
	m := newTestMolecule(t, DefaultOptions())
	_, _, err := m.AddAtom(AtomRecord{Serial: 1, Element: "Xx"}, DefaultFrame)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeElementNotFound))
	assert.Zero(t, m.NumAtoms())
}

func TestAddAtom_SecondFrameAddsPosition(t *testing.T) {
	m := newTestMolecule(t, DefaultOptions())
	a := addAtom(t, m, 5, "N", 0, 0, 0)

	same, added, err := m.AddAtom(AtomRecord{Serial: 5, Element: "N", X: 1, Y: 1, Z: 1}, 1)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Same(t, a, same)
	assert.Equal(t, 1, m.NumAtoms())
	assert.Equal(t, []int{0, 1}, m.Frames())
	assert.Equal(t, Vec3{1, 1, 1}, a.At(1))
	assert.Equal(t, Vec3{}, a.At(0))

	_, ok := a.Position(2)
	assert.False(t, ok)
}

func TestAtom_RadiusModes(t *testing.T) {
	cases := []struct {
		mode  mtypes.RadiusMode
		scale float64
		want  float64
	}{
		{mtypes.RadiusAccurate, 1, 170},
		{mtypes.RadiusReduced, 1, 0.25*170 + 0.75*120},
		{mtypes.RadiusUniform, 1, 120},
		{mtypes.RadiusAccurate, 2, 340},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			opts := DefaultOptions()
			opts.RadiusMode, opts.RadiusScale = tc.mode, tc.scale
			m := newTestMolecule(t, opts)
			a := addAtom(t, m, 1, "C", 0, 0, 0)
			assert.InDelta(t, tc.want, a.Radius(), 1e-9)
		})
	}
}

func TestSetRadiusMode_Recomputes(t *testing.T) {
	m := newTestMolecule(t, DefaultOptions())
	a := addAtom(t, m, 1, "O", 0, 0, 0)

	require.NoError(t, m.SetRadiusMode(mtypes.RadiusAccurate, 0.5))
	assert.InDelta(t, 76.0, a.Radius(), 1e-9)
	assert.Error(t, m.SetRadiusMode(mtypes.RadiusAccurate, 0))
	assert.Error(t, m.SetRadiusMode("huge", 1))
}

// ─────────────────────────────────────────────────────────────────────────────
// Bonds
// ─────────────────────────────────────────────────────────────────────────────

func TestConnect_OnePerPair(t *testing.T) {
	m := newTestMolecule(t, noEstimate())
	a := addAtom(t, m, 1, "C", 0, 0, 0)
	b := addAtom(t, m, 2, "C", 1.5, 0, 0)

	b1, added, err := m.Connect(a, b, SingleBond, DefaultFrame)
	require.NoError(t, err)
	assert.True(t, added)

	b2, added, err := m.Connect(b, a, DoubleBond, DefaultFrame)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Same(t, b1, b2)
	assert.Equal(t, 1, m.NumBonds())
	assert.Len(t, a.Bonds(), 1)
	assert.Len(t, b.Bonds(), 1)
	assert.Equal(t, "atom1-atom2", b1.ID())
}

func TestConnect_InvalidArguments(t *testing.T) {
	m := newTestMolecule(t, noEstimate())
	a := addAtom(t, m, 1, "C", 0, 0, 0)

	other := newTestMolecule(t, noEstimate())
	foreign := addAtom(t, other, 2, "C", 0, 0, 0)

	for name, pair := range map[string][2]*Atom{
		"nil":     {a, nil},
		"self":    {a, a},
		"foreign": {a, foreign},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := m.Connect(pair[0], pair[1], SingleBond, DefaultFrame)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidObject))
		})
	}
}

func TestConnect_KeepsDeclaredOrderWithoutEstimation(t *testing.T) {
	m := newTestMolecule(t, noEstimate())
	a := addAtom(t, m, 1, "C", 0, 0, 0)
	b := addAtom(t, m, 2, "O", 5, 0, 0)

	bond, _, err := m.Connect(a, b, DoubleBond, DefaultFrame)
	require.NoError(t, err)
	assert.Equal(t, DoubleBond, bond.Order())
	assert.Equal(t, uint32(0x8822FF), bond.Color())
}

func TestConnect_EstimatesOrderFromGeometry(t *testing.T) {
	cases := []struct {
		name   string
		length float64
		want   BondOrder
	}{
		{"ethane", 1.54, SingleBond},
		{"ethene", 1.34, DoubleBond},
		{"ethyne", 1.20, TripleBond},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestMolecule(t, DefaultOptions())
			a := addAtom(t, m, 1, "C", 0, 0, 0)
			b := addAtom(t, m, 2, "C", tc.length, 0, 0)
			bond, _, err := m.Connect(a, b, SingleBond, DefaultFrame)
			require.NoError(t, err)
			assert.Equal(t, tc.want, bond.Order())
		})
	}
}

func TestEstimateOrder_SkipsMissingRadii(t *testing.T) {
	m := newTestMolecule(t, noEstimate())
	h := addAtom(t, m, 1, "H", 0, 0, 0)
	c := addAtom(t, m, 2, "C", 0.5, 0, 0)
	// H has only a single-bond radius, so even a very short contact stays single.
	assert.Equal(t, SingleBond, EstimateOrder(h, c, 50, TripleBond))
}

func TestBond_DerivedGeometry(t *testing.T) {
	m := newTestMolecule(t, noEstimate())
	a := addAtom(t, m, 1, "C", 0, 0, 0)
	b := addAtom(t, m, 2, "C", 3, 4, 0)
	bond, _, err := m.Connect(a, b, SingleBond, DefaultFrame)
	require.NoError(t, err)

	assert.InDelta(t, 500.0, bond.Length(DefaultFrame), 1e-9)
	assert.Equal(t, Vec3{1.5, 2, 0}, bond.Midpoint(DefaultFrame))
	assert.Same(t, b, bond.Other(a))
	assert.Nil(t, bond.Other(nil))
	assert.Equal(t, uint32(0x0000FF), bond.Color())
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

func buildChain(t *testing.T) (*Molecule, []*Atom) {
	t.Helper()
	m := newTestMolecule(t, noEstimate())
	atoms := []*Atom{
		addAtom(t, m, 1, "C", 0, 0, 0),
		addAtom(t, m, 2, "C", 1.5, 0, 0),
		addAtom(t, m, 3, "O", 2, 1.4, 0),
		addAtom(t, m, 4, "H", 3, 1.6, 0.5),
	}
	for i := 0; i+1 < len(atoms); i++ {
		_, _, err := m.Connect(atoms[i], atoms[i+1], SingleBond, DefaultFrame)
		require.NoError(t, err)
	}
	return m, atoms
}

func TestGraphQueries(t *testing.T) {
	m, atoms := buildChain(t)

	bonds, err := m.GetBonds(atoms[1])
	require.NoError(t, err)
	assert.Len(t, bonds, 2)

	between, err := m.GetBondBetween(atoms[1], atoms[2])
	require.NoError(t, err)
	require.NotNil(t, between)
	assert.True(t, between.Has(atoms[1]) && between.Has(atoms[2]))

	none, err := m.GetBondBetween(atoms[0], atoms[3])
	require.NoError(t, err)
	assert.Nil(t, none)

	nbrs, err := m.GetNeighbors(AtomObject(atoms[1]))
	require.NoError(t, err)
	assert.ElementsMatch(t, []*Atom{atoms[0], atoms[2]}, nbrs)

	ends, err := m.GetNeighbors(BondObject(between))
	require.NoError(t, err)
	assert.Equal(t, []*Atom{atoms[1], atoms[2]}, ends)

	assert.True(t, m.IsNeighbor(atoms[2], atoms[3]))
	assert.False(t, m.IsNeighbor(atoms[0], atoms[2]))
}

func TestGraphQueries_NilArgumentsFail(t *testing.T) {
	m, atoms := buildChain(t)

	_, err := m.GetBonds(nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidObject))

	_, err = m.GetBondBetween(atoms[0], nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidObject))

	_, err = m.GetNeighbors(Renderable{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidObject))

	_, err = m.GetNeighbors(AtomObject(nil))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidObject))
}

func TestCollections_InsertionOrder(t *testing.T) {
	m, atoms := buildChain(t)

	assert.Equal(t, atoms, m.Atoms())
	assert.Equal(t, 4, m.NumAtoms())
	assert.Equal(t, 3, m.NumBonds())
	assert.Len(t, m.Objects(), 7)
	assert.Equal(t, KindAtom, m.Objects()[0].Kind)
	assert.Equal(t, KindBond, m.Objects()[6].Kind)
}

func TestObjectByID_AndRecolor(t *testing.T) {
	m, atoms := buildChain(t)

	obj, ok := m.ObjectByID("atom3")
	require.True(t, ok)
	assert.Same(t, atoms[2], obj.Atom)

	assert.True(t, m.Recolor("atom2-atom3", 0x123456))
	b, _ := m.GetBondBetween(atoms[1], atoms[2])
	assert.Equal(t, uint32(0x123456), b.Color())

	assert.False(t, m.Recolor("atom99", 0))
}

// ─────────────────────────────────────────────────────────────────────────────
// Geometry and display
// ─────────────────────────────────────────────────────────────────────────────

func centroid(m *Molecule) Vec3 {
	var sum Vec3
	for _, a := range m.Atoms() {
		sum = sum.Add(a.At(DefaultFrame))
	}
	return sum.Scale(1 / float64(m.NumAtoms()))
}

func TestCenter_IsNotIdempotent(t *testing.T) {
	m, atoms := buildChain(t)
	before := centroid(m)
	first := atoms[0].At(DefaultFrame)

	offset := m.Center()
	assert.InDelta(t, 0, centroid(m).Length(), 1e-9)
	assert.InDelta(t, -before.X, offset.X, 1e-9)

	m.Center()
	after := atoms[0].At(DefaultFrame)
	moved := after.Sub(first)
	assert.InDelta(t, 2*offset.X, moved.X, 1e-9)
	assert.InDelta(t, 2*offset.Y, moved.Y, 1e-9)
	assert.InDelta(t, 2*offset.Z, moved.Z, 1e-9)
	assert.Greater(t, centroid(m).Length(), 0.1, "second call displaces the molecule again")
}

func TestCenter_BondMidpointsFollow(t *testing.T) {
	m, atoms := buildChain(t)
	b, _ := m.GetBondBetween(atoms[0], atoms[1])
	before := b.Midpoint(DefaultFrame)
	offset := m.Center()
	after := b.Midpoint(DefaultFrame)
	assert.InDelta(t, before.Add(offset).X, after.X, 1e-9)
	assert.InDelta(t, 150.0, b.Length(DefaultFrame), 1e-9)
}

func TestCenter_EmptyMoleculeIsNoop(t *testing.T) {
	m := newTestMolecule(t, DefaultOptions())
	offset := m.Center()
	assert.Equal(t, Vec3{}, offset)
	assert.False(t, math.IsNaN(offset.X))
}

func TestCenterFrame_LeavesOtherFramesAlone(t *testing.T) {
	m := newTestMolecule(t, noEstimate())
	a := addAtom(t, m, 1, "C", 1, 1, 1)
	_, _, err := m.AddAtom(AtomRecord{Serial: 1, Element: "C", X: 2, Y: 0, Z: 0}, 1)
	require.NoError(t, err)
	_, _, err = m.AddAtom(AtomRecord{Serial: 2, Element: "C", X: 4, Y: 0, Z: 0}, 1)
	require.NoError(t, err)

	offset := m.CenterFrame(1)
	assert.Equal(t, Vec3{X: -3}, offset)
	assert.Equal(t, Vec3{X: -1}, a.At(1))
	assert.Equal(t, Vec3{X: 1, Y: 1, Z: 1}, a.At(DefaultFrame))
	assert.Equal(t, Vec3{}, m.CenterFrame(7))
}

func TestSetColorMode(t *testing.T) {
	m := newTestMolecule(t, noEstimate())
	a := addAtom(t, m, 1, "N", 0, 0, 0)
	w, _, err := m.AddAtom(AtomRecord{Serial: 2, Element: "O", ResName: "HOH", X: 1}, DefaultFrame)
	require.NoError(t, err)
	bond, _, err := m.Connect(a, w, DoubleBond, DefaultFrame)
	require.NoError(t, err)

	assert.Equal(t, uint32(0x3050F8), a.Color())

	require.NoError(t, m.SetColorMode(mtypes.ColorAminoAcid))
	assert.Equal(t, uint32(0x9d9d9d), a.Color())
	assert.Equal(t, uint32(0xCCCCCC), w.Color())
	assert.Equal(t, uint32(0x8822FF), bond.Color())

	require.NoError(t, m.SetColorMode(mtypes.ColorCPK))
	assert.Equal(t, uint32(0xFF0D0D), w.Color())

	assert.True(t, errors.IsCode(m.SetColorMode("rainbow"), errors.ErrCodeInvalidMode))
}

func TestRender_FiltersByMode(t *testing.T) {
	m, _ := buildChain(t)

	cases := []struct {
		mode         mtypes.RenderMode
		atoms, bonds int
	}{
		{mtypes.RenderBallAndStick, 4, 3},
		{mtypes.RenderSticks, 0, 3},
		{mtypes.RenderSpaceFill, 4, 0},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			require.NoError(t, m.SetRenderMode(tc.mode))
			sink := &recordingSink{}
			m.Render(sink)

			var na, nb int
			for _, o := range sink.objs {
				switch o.Kind {
				case KindAtom:
					na++
				case KindBond:
					nb++
				}
			}
			assert.Equal(t, tc.atoms, na)
			assert.Equal(t, tc.bonds, nb)
		})
	}
	assert.Error(t, m.SetRenderMode("wire"))
}

type countingVisitor struct{ atoms, bonds int }

func (v *countingVisitor) VisitAtom(*Atom) { v.atoms++ }
func (v *countingVisitor) VisitBond(*Bond) { v.bonds++ }

func TestRenderable_Visit(t *testing.T) {
	m, _ := buildChain(t)
	v := &countingVisitor{}
	for _, o := range m.Objects() {
		o.Visit(v)
	}
	Renderable{}.Visit(v)
	AtomObject(nil).Visit(v)

	assert.Equal(t, 4, v.atoms)
	assert.Equal(t, 3, v.bonds)
}

//Personal.AI order the ending
