// Package molecule holds the molecular graph: atoms, bonds, the aggregate that
// owns them, and the adjacency queries the selection logic is built on.
package molecule

import (
	"sort"

	"github.com/turtacn/molview/internal/domain/element"
	"github.com/turtacn/molview/pkg/errors"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// DefaultFrame is the frame used by single-model files.
const DefaultFrame = 0

// Header is the HEADER record.
type Header struct {
	Classification string
	DepDate        string
	IDCode         string
}

// Compound is the COMPND record.
type Compound struct {
	Continuation string
	Text         string
}

// ─────────────────────────────────────────────────────────────────────────────
// Molecule aggregate
// ─────────────────────────────────────────────────────────────────────────────

// Molecule owns every atom and bond parsed from one structure. Iteration
// order is insertion order. A Molecule is not safe for concurrent mutation.
type Molecule struct {
	Header   Header
	Title    string
	Compound Compound

	opts     Options
	elements element.Provider
	residues element.AminoAcidProvider
	hRadius  float64

	objects []Renderable
	byID    map[string]Renderable
	atoms   map[AtomID]*Atom
	bonds   map[BondKey]*Bond
	nAtoms  int
	nBonds  int
	frames  map[int]struct{}

	centroids map[int]Vec3
}

// New creates an empty molecule. residues may be nil, in which case the
// built-in amino-acid table is used.
func New(opts Options, elements element.Provider, residues element.AminoAcidProvider) *Molecule {
	if residues == nil {
		residues = element.NewAminoAcidTable()
	}
	m := &Molecule{
		opts:     opts,
		elements: elements,
		residues: residues,
		hRadius:  defaultHydrogenRadius,
		byID:     make(map[string]Renderable),
		atoms:    make(map[AtomID]*Atom),
		bonds:    make(map[BondKey]*Bond),
		frames:   make(map[int]struct{}),

		centroids: make(map[int]Vec3),
	}
	if elements != nil {
		if h, ok := elements.Lookup("H"); ok {
			m.hRadius = h.Radius
		}
	}
	return m
}

// Options returns the settings the molecule was built with.
func (m *Molecule) Options() Options { return m.opts }

// AddAtom places the atom described by rec in frame. The element must be
// known to the element provider. An atom already placed in frame is left
// untouched and returned with added=false; an atom known from another frame
// gains a position for this one.
func (m *Molecule) AddAtom(rec AtomRecord, frame int) (*Atom, bool, error) {
	id := AtomID(rec.Serial)
	pos := Vec3{rec.X, rec.Y, rec.Z}

	if a, ok := m.atoms[id]; ok {
		if a.HasFrame(frame) {
			return a, false, nil
		}
		a.frames[frame] = pos
		m.frames[frame] = struct{}{}
		delete(m.centroids, frame)
		return a, true, nil
	}

	if m.elements == nil {
		return nil, false, errors.New(errors.ErrCodeElementNotFound, "no element data available")
	}
	data, ok := m.elements.Lookup(rec.Element)
	if !ok {
		return nil, false, errors.New(errors.ErrCodeElementNotFound, "unknown element symbol").
			WithDetail(rec.Element)
	}

	a := &Atom{
		id:     id,
		record: rec,
		data:   data,
		frames: map[int]Vec3{frame: pos},
	}
	a.applyRadius(m.opts.RadiusMode, m.opts.RadiusScale, m.hRadius)
	a.applyColorMode(m.opts.ColorMode, m.residues)

	m.atoms[id] = a
	m.nAtoms++
	m.frames[frame] = struct{}{}
	delete(m.centroids, frame)
	obj := AtomObject(a)
	m.objects = append(m.objects, obj)
	m.byID[obj.ID()] = obj
	return a, true, nil
}

// Atom looks an atom up by serial number.
func (m *Molecule) Atom(serial int) (*Atom, bool) {
	a, ok := m.atoms[AtomID(serial)]
	return a, ok
}

// Connect bonds a1 and a2. Exactly one bond exists per unordered pair: a
// repeated call returns the existing bond with added=false. With bond-order
// estimation enabled the order is derived from the geometry in frame.
func (m *Molecule) Connect(a1, a2 *Atom, order BondOrder, frame int) (*Bond, bool, error) {
	if a1 == nil || a2 == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidObject, "cannot bond a nil atom")
	}
	if a1 == a2 {
		return nil, false, errors.New(errors.ErrCodeInvalidObject, "cannot bond an atom to itself").
			WithDetail(a1.ID().String())
	}
	if m.atoms[a1.id] != a1 || m.atoms[a2.id] != a2 {
		return nil, false, errors.New(errors.ErrCodeInvalidObject, "atom does not belong to this molecule")
	}
	if !order.IsValid() {
		order = SingleBond
	}

	key := NewBondKey(a1.id, a2.id)
	if b, ok := m.bonds[key]; ok {
		return b, false, nil
	}

	if m.opts.EstimateBondOrders && a1.HasFrame(frame) && a2.HasFrame(frame) {
		length := LengthScale * a1.At(frame).DistanceTo(a2.At(frame))
		order = EstimateOrder(a1, a2, length, order)
	}

	b := newBond(a1, a2, order)
	m.bonds[key] = b
	m.nBonds++
	obj := BondObject(b)
	m.objects = append(m.objects, obj)
	m.byID[obj.ID()] = obj
	return b, true, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Collections
// ─────────────────────────────────────────────────────────────────────────────

// Objects returns every atom and bond in insertion order.
func (m *Molecule) Objects() []Renderable {
	out := make([]Renderable, len(m.objects))
	copy(out, m.objects)
	return out
}

// Atoms returns the atoms in insertion order.
func (m *Molecule) Atoms() []*Atom {
	out := make([]*Atom, 0, m.nAtoms)
	for _, o := range m.objects {
		if o.Kind == KindAtom {
			out = append(out, o.Atom)
		}
	}
	return out
}

// Bonds returns the bonds in insertion order.
func (m *Molecule) Bonds() []*Bond {
	out := make([]*Bond, 0, m.nBonds)
	for _, o := range m.objects {
		if o.Kind == KindBond {
			out = append(out, o.Bond)
		}
	}
	return out
}

func (m *Molecule) NumAtoms() int { return m.nAtoms }

func (m *Molecule) NumBonds() int { return m.nBonds }

// ObjectByID resolves a COLOR-record address ("atom7", "atom1-atom2").
func (m *Molecule) ObjectByID(id string) (Renderable, bool) {
	r, ok := m.byID[id]
	return r, ok
}

// Recolor sets the colour of the object with the given id.
func (m *Molecule) Recolor(id string, color uint32) bool {
	r, ok := m.byID[id]
	if !ok {
		return false
	}
	r.setColor(color)
	return true
}

// Frames returns the sorted frame indices that hold atom positions.
func (m *Molecule) Frames() []int {
	out := make([]int, 0, len(m.frames))
	for f := range m.frames {
		out = append(out, f)
	}
	sort.Ints(out)
	return out
}

// HasFrame reports whether any atom was placed in frame.
func (m *Molecule) HasFrame(frame int) bool {
	_, ok := m.frames[frame]
	return ok
}

// ─────────────────────────────────────────────────────────────────────────────
// Graph queries
// ─────────────────────────────────────────────────────────────────────────────

// GetBonds returns the bonds attached to atom.
func (m *Molecule) GetBonds(atom *Atom) ([]*Bond, error) {
	if atom == nil {
		return nil, errors.New(errors.ErrCodeInvalidObject, "getBonds called with a nil atom")
	}
	return atom.Bonds(), nil
}

// GetBondBetween returns the bond joining a1 and a2, or nil when they are not
// bonded.
func (m *Molecule) GetBondBetween(a1, a2 *Atom) (*Bond, error) {
	if a1 == nil || a2 == nil {
		return nil, errors.New(errors.ErrCodeInvalidObject, "getBondBetween called with a nil atom")
	}
	for _, b := range a1.bonds {
		if b.Has(a2) && a1 != a2 {
			return b, nil
		}
	}
	return nil, nil
}

// GetNeighbors returns the far end of each bond for an atom, or both
// endpoints for a bond.
func (m *Molecule) GetNeighbors(obj Renderable) ([]*Atom, error) {
	if obj.IsZero() {
		return nil, errors.New(errors.ErrCodeInvalidObject, "getNeighbors called with no object")
	}
	switch obj.Kind {
	case KindAtom:
		out := make([]*Atom, 0, len(obj.Atom.bonds))
		for _, b := range obj.Atom.bonds {
			out = append(out, b.Other(obj.Atom))
		}
		return out, nil
	default:
		a := obj.Bond.atoms
		return []*Atom{a[0], a[1]}, nil
	}
}

// IsNeighbor reports whether a and b share a bond.
func (m *Molecule) IsNeighbor(a, b *Atom) bool {
	if a == nil || b == nil || a == b {
		return false
	}
	_, ok := m.bonds[NewBondKey(a.id, b.id)]
	return ok
}

// ─────────────────────────────────────────────────────────────────────────────
// Geometry and display
// ─────────────────────────────────────────────────────────────────────────────

// Center translates frame 0 so the mean atom position is the origin.
func (m *Molecule) Center() Vec3 {
	return m.CenterFrame(DefaultFrame)
}

// CenterFrame translates every atom placed in frame by the negative of the
// frame's centroid and returns the applied offset. Bond midpoints follow
// because they are derived. The centroid is fixed by the first call after the
// frame was last extended, so repeated calls keep shifting by the same offset.
// A frame without atoms is left as is.
func (m *Molecule) CenterFrame(frame int) Vec3 {
	offset, ok := m.centroids[frame]
	if !ok {
		var sum Vec3
		n := 0
		for _, o := range m.objects {
			if o.Kind != KindAtom {
				continue
			}
			if p, has := o.Atom.Position(frame); has {
				sum = sum.Add(p)
				n++
			}
		}
		if n == 0 {
			return Vec3{}
		}
		offset = sum.Scale(-1.0 / float64(n))
		m.centroids[frame] = offset
	}
	for _, o := range m.objects {
		if o.Kind == KindAtom {
			o.Atom.translate(frame, offset)
		}
	}
	return offset
}

// SetColorMode recolours every atom and bond.
func (m *Molecule) SetColorMode(mode mtypes.ColorMode) error {
	if !mode.IsValid() {
		return errors.New(errors.ErrCodeInvalidMode, "unknown color mode").WithDetail(string(mode))
	}
	m.opts.ColorMode = mode
	for _, o := range m.objects {
		switch o.Kind {
		case KindAtom:
			o.Atom.applyColorMode(mode, m.residues)
		case KindBond:
			o.Bond.applyColorMode(mode)
		}
	}
	return nil
}

// SetRadiusMode recomputes every atom's display radius.
func (m *Molecule) SetRadiusMode(mode mtypes.RadiusMode, scale float64) error {
	if !mode.IsValid() {
		return errors.New(errors.ErrCodeInvalidMode, "unknown radius mode").WithDetail(string(mode))
	}
	if scale <= 0 {
		return errors.InvalidParam("radius scale must be positive")
	}
	m.opts.RadiusMode, m.opts.RadiusScale = mode, scale
	for _, o := range m.objects {
		if o.Kind == KindAtom {
			o.Atom.applyRadius(mode, scale, m.hRadius)
		}
	}
	return nil
}

// SetRenderMode changes which object kinds Render emits.
func (m *Molecule) SetRenderMode(mode mtypes.RenderMode) error {
	if !mode.IsValid() {
		return errors.New(errors.ErrCodeInvalidMode, "unknown render mode").WithDetail(string(mode))
	}
	m.opts.RenderMode = mode
	return nil
}

func (m *Molecule) RenderMode() mtypes.RenderMode { return m.opts.RenderMode }

// Render hands every visible object to sink: sticks mode hides atoms and
// space-fill mode hides bonds.
func (m *Molecule) Render(sink RenderSink) {
	mode := m.opts.RenderMode
	for _, o := range m.objects {
		if o.Kind == KindAtom && !mode.ShowsAtoms() {
			continue
		}
		if o.Kind == KindBond && !mode.ShowsBonds() {
			continue
		}
		sink.AddRenderableObject(o)
	}
}

//Personal.AI order the ending
