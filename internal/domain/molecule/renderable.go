package molecule

// Kind tags the variant held by a Renderable.
type Kind int

const (
	KindNone Kind = iota
	KindAtom
	KindBond
)

func (k Kind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindBond:
		return "bond"
	}
	return "none"
}

// Renderable is either an atom or a bond. The zero value holds neither.
// Values are comparable and may be used as map keys.
type Renderable struct {
	Kind Kind
	Atom *Atom
	Bond *Bond
}

// AtomObject wraps a in a Renderable. A nil atom yields the zero value.
func AtomObject(a *Atom) Renderable {
	if a == nil {
		return Renderable{}
	}
	return Renderable{Kind: KindAtom, Atom: a}
}

// BondObject wraps b in a Renderable. A nil bond yields the zero value.
func BondObject(b *Bond) Renderable {
	if b == nil {
		return Renderable{}
	}
	return Renderable{Kind: KindBond, Bond: b}
}

// IsZero reports whether r holds nothing.
func (r Renderable) IsZero() bool {
	switch r.Kind {
	case KindAtom:
		return r.Atom == nil
	case KindBond:
		return r.Bond == nil
	}
	return true
}

// ID is the COLOR-record address of the object.
func (r Renderable) ID() string {
	switch r.Kind {
	case KindAtom:
		return r.Atom.ID().String()
	case KindBond:
		return r.Bond.ID()
	}
	return ""
}

// Position is the atom centre or the bond midpoint.
func (r Renderable) Position(frame int) Vec3 {
	switch r.Kind {
	case KindAtom:
		return r.Atom.At(frame)
	case KindBond:
		return r.Bond.Midpoint(frame)
	}
	return Vec3{}
}

func (r Renderable) Color() uint32 {
	switch r.Kind {
	case KindAtom:
		return r.Atom.Color()
	case KindBond:
		return r.Bond.Color()
	}
	return 0
}

func (r Renderable) setColor(c uint32) {
	switch r.Kind {
	case KindAtom:
		r.Atom.SetColor(c)
	case KindBond:
		r.Bond.SetColor(c)
	}
}

// Visitor handles each variant of a Renderable.
type Visitor interface {
	VisitAtom(a *Atom)
	VisitBond(b *Bond)
}

// Visit calls the visitor method matching r's kind. The zero value visits
// nothing.
func (r Renderable) Visit(v Visitor) {
	if r.IsZero() {
		return
	}
	switch r.Kind {
	case KindAtom:
		v.VisitAtom(r.Atom)
	case KindBond:
		v.VisitBond(r.Bond)
	}
}

// RenderSink receives the objects a molecule wants drawn.
type RenderSink interface {
	AddRenderableObject(obj Renderable)
}

//Personal.AI order the ending
