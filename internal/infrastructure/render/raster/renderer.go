// Package raster draws a molecule scene into a PNG with an orthographic
// projection onto the XY plane. Z decides draw order only.
package raster

import (
	"fmt"
	"image"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/domain/molecule"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/pkg/errors"
)

const (
	margin       = 24.0
	minAtomPx    = 2.0
	atomPxFactor = 0.5 // share of the display radius (Å) drawn
	bondWidthPx  = 3.0
	stickWidthPx = 6.0
	pickSlackPx  = 3.0
)

// Metrics receives render timings. *prometheus.ViewerMetrics satisfies it.
type Metrics interface {
	RecordRender(mode string, d time.Duration)
}

// Options sizes the canvas.
type Options struct {
	Width, Height int
	Background    string // "#RRGGBB"
	Highlight     string // "#RRGGBB"
	// Scale is pixels per coordinate unit. Zero fits the scene to the canvas.
	Scale float64
}

// Renderer implements viewer.Renderer and viewer.FrameSetter.
type Renderer struct {
	mu       sync.Mutex
	opts     Options
	objects  []molecule.Renderable
	selected map[molecule.Renderable]bool
	frame    int
	proj     projection
	img      image.Image
	metrics  Metrics
	logger   logging.Logger
}

var (
	_ viewer.Renderer    = (*Renderer)(nil)
	_ viewer.FrameSetter = (*Renderer)(nil)
)

// New validates opts and returns an empty renderer.
func New(opts Options, log logging.Logger, m Metrics) (*Renderer, error) {
	if opts.Width < 1 || opts.Height < 1 {
		return nil, errors.InvalidParam(fmt.Sprintf("canvas %dx%d must be positive", opts.Width, opts.Height))
	}
	if opts.Background == "" {
		opts.Background = "#000000"
	}
	if opts.Highlight == "" {
		opts.Highlight = "#FFD700"
	}
	for _, c := range []string{opts.Background, opts.Highlight} {
		if _, err := parseHex(c); err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Renderer{
		opts:     opts,
		selected: make(map[molecule.Renderable]bool),
		metrics:  m,
		logger:   log.Named("raster"),
	}, nil
}

// Factory validates opts once and returns a constructor for per-session
// renderers sharing them.
func Factory(opts Options, log logging.Logger, m Metrics) (func() viewer.Renderer, error) {
	if _, err := New(opts, log, m); err != nil {
		return nil, err
	}
	return func() viewer.Renderer {
		r, _ := New(opts, log, m)
		return r
	}, nil
}

func parseHex(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil || len(strings.TrimPrefix(s, "#")) != 6 {
		return 0, errors.InvalidParam(fmt.Sprintf("colour %q is not #RRGGBB", s))
	}
	return uint32(v), nil
}

func setColor(dc *gg.Context, c uint32) {
	dc.SetRGB255(int(c>>16&0xFF), int(c>>8&0xFF), int(c&0xFF))
}

func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects = nil
	r.selected = make(map[molecule.Renderable]bool)
	r.img = nil
}

func (r *Renderer) AddRenderableObject(obj molecule.Renderable) {
	if obj.IsZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects = append(r.objects, obj)
}

func (r *Renderer) Select(obj molecule.Renderable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected[obj] = true
}

func (r *Renderer) Deselect(obj molecule.Renderable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.selected, obj)
}

func (r *Renderer) DeselectAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = make(map[molecule.Renderable]bool)
}

// SetFrame picks the coordinate frame drawn by later Render calls.
func (r *Renderer) SetFrame(frame int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = frame
}

// IsSelected reports whether obj is highlighted.
func (r *Renderer) IsSelected(obj molecule.Renderable) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected[obj]
}

// Render rasterises the scene.
func (r *Renderer) Render() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.render()
}

func (r *Renderer) render() {
	start := time.Now()
	r.proj = fit(r.objects, r.frame, r.opts)

	dc := gg.NewContext(r.opts.Width, r.opts.Height)
	bg, _ := parseHex(r.opts.Background)
	hl, _ := parseHex(r.opts.Highlight)
	setColor(dc, bg)
	dc.Clear()

	p := &painter{dc: dc, proj: r.proj, frame: r.frame, highlight: hl, selected: r.selected, sticks: !hasAtoms(r.objects)}
	for _, obj := range r.drawOrder() {
		obj.Visit(p)
	}
	r.img = dc.Image()

	if r.metrics != nil {
		r.metrics.RecordRender(sceneMode(r.objects), time.Since(start))
	}
	r.logger.Debug("scene rendered", logging.Int("objects", len(r.objects)), logging.Int("frame", r.frame))
}

// drawOrder puts bonds under atoms and far objects under near ones.
func (r *Renderer) drawOrder() []molecule.Renderable {
	out := make([]molecule.Renderable, len(r.objects))
	copy(out, r.objects)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == molecule.KindBond
		}
		return out[i].Position(r.frame).Z < out[j].Position(r.frame).Z
	})
	return out
}

func hasAtoms(objs []molecule.Renderable) bool {
	for _, o := range objs {
		if o.Kind == molecule.KindAtom {
			return true
		}
	}
	return false
}

// sceneMode names the render mode the scene was filtered for. A molecule
// without bonds always reads as space_fill.
func sceneMode(objs []molecule.Renderable) string {
	var atoms, bonds bool
	for _, o := range objs {
		switch o.Kind {
		case molecule.KindAtom:
			atoms = true
		case molecule.KindBond:
			bonds = true
		}
	}
	switch {
	case atoms && bonds:
		return "ball_and_stick"
	case bonds:
		return "sticks"
	case atoms:
		return "space_fill"
	}
	return "empty"
}

// WritePNG encodes the last rendered image, rendering first when needed.
func (r *Renderer) WritePNG(w io.Writer) error {
	r.mu.Lock()
	if r.img == nil {
		r.render()
	}
	img := r.img
	r.mu.Unlock()

	dc := gg.NewContextForImage(img)
	if err := dc.EncodePNG(w); err != nil {
		return errors.Wrap(err, errors.ErrCodeRenderFailed, "encode png")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Hit testing
// ─────────────────────────────────────────────────────────────────────────────

// GetSelectedObject returns the nearest atom under the pointer, or failing
// that the bond under it.
func (r *Renderer) GetSelectedObject(ev viewer.PickEvent) (molecule.Renderable, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.img == nil {
		r.proj = fit(r.objects, r.frame, r.opts)
	}

	order := r.drawOrder()
	for i := len(order) - 1; i >= 0; i-- {
		obj := order[i]
		if obj.Kind != molecule.KindAtom {
			continue
		}
		x, y := r.proj.point(obj.Atom.At(r.frame))
		if math.Hypot(ev.X-x, ev.Y-y) <= r.proj.atomRadius(obj.Atom)+pickSlackPx {
			return obj, true
		}
	}

	width := bondWidthPx
	if !hasAtoms(r.objects) {
		width = stickWidthPx
	}
	for i := len(order) - 1; i >= 0; i-- {
		obj := order[i]
		if obj.Kind != molecule.KindBond {
			continue
		}
		ends := obj.Bond.Atoms()
		x1, y1 := r.proj.point(ends[0].At(r.frame))
		x2, y2 := r.proj.point(ends[1].At(r.frame))
		if segmentDistance(ev.X, ev.Y, x1, y1, x2, y2) <= width/2+pickSlackPx {
			return obj, true
		}
	}
	return molecule.Renderable{}, false
}

func segmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(px-x1, py-y1)
	}
	t := ((px-x1)*dx + (py-y1)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}

// ─────────────────────────────────────────────────────────────────────────────
// Projection
// ─────────────────────────────────────────────────────────────────────────────

type projection struct {
	scale      float64
	midX, midY float64
	cx, cy     float64
}

func (p projection) point(v molecule.Vec3) (float64, float64) {
	return p.cx + (v.X-p.midX)*p.scale, p.cy - (v.Y-p.midY)*p.scale
}

// atomRadius converts the display radius (pm) to pixels.
func (p projection) atomRadius(a *molecule.Atom) float64 {
	return math.Max(minAtomPx, a.Radius()/100*p.scale*atomPxFactor)
}

func fit(objs []molecule.Renderable, frame int, opts Options) projection {
	p := projection{cx: float64(opts.Width) / 2, cy: float64(opts.Height) / 2, scale: opts.Scale}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	extend := func(v molecule.Vec3) {
		minX, maxX = math.Min(minX, v.X), math.Max(maxX, v.X)
		minY, maxY = math.Min(minY, v.Y), math.Max(maxY, v.Y)
	}
	for _, o := range objs {
		switch o.Kind {
		case molecule.KindAtom:
			extend(o.Atom.At(frame))
		case molecule.KindBond:
			for _, a := range o.Bond.Atoms() {
				extend(a.At(frame))
			}
		}
	}
	if math.IsInf(minX, 1) {
		if p.scale == 0 {
			p.scale = 1
		}
		return p
	}
	p.midX, p.midY = (minX+maxX)/2, (minY+maxY)/2
	if p.scale > 0 {
		return p
	}
	rx, ry := math.Max(maxX-minX, 1), math.Max(maxY-minY, 1)
	p.scale = math.Min((float64(opts.Width)-2*margin)/rx, (float64(opts.Height)-2*margin)/ry)
	if p.scale <= 0 {
		p.scale = 1
	}
	return p
}

// ─────────────────────────────────────────────────────────────────────────────
// Painting
// ─────────────────────────────────────────────────────────────────────────────

type painter struct {
	dc        *gg.Context
	proj      projection
	frame     int
	highlight uint32
	selected  map[molecule.Renderable]bool
	sticks    bool
}

func (p *painter) VisitAtom(a *molecule.Atom) {
	x, y := p.proj.point(a.At(p.frame))
	rad := p.proj.atomRadius(a)
	if p.selected[molecule.AtomObject(a)] {
		setColor(p.dc, p.highlight)
		p.dc.DrawCircle(x, y, rad+2)
		p.dc.Fill()
	}
	setColor(p.dc, a.Color())
	p.dc.DrawCircle(x, y, rad)
	p.dc.Fill()
}

func (p *painter) VisitBond(b *molecule.Bond) {
	ends := b.Atoms()
	x1, y1 := p.proj.point(ends[0].At(p.frame))
	x2, y2 := p.proj.point(ends[1].At(p.frame))

	width := bondWidthPx
	if p.sticks {
		width = stickWidthPx
	}
	if p.selected[molecule.BondObject(b)] {
		setColor(p.dc, p.highlight)
		p.dc.SetLineWidth(width*float64(b.Order()) + 4)
		p.dc.DrawLine(x1, y1, x2, y2)
		p.dc.Stroke()
	}

	setColor(p.dc, b.Color())
	p.dc.SetLineWidth(width)
	rad := math.Atan2(y2-y1, x2-x1)
	dx, dy := math.Sin(rad)*width, -math.Cos(rad)*width
	switch b.Order() {
	case molecule.DoubleBond:
		p.dc.DrawLine(x1+dx/2, y1+dy/2, x2+dx/2, y2+dy/2)
		p.dc.DrawLine(x1-dx/2, y1-dy/2, x2-dx/2, y2-dy/2)
	case molecule.TripleBond:
		p.dc.DrawLine(x1, y1, x2, y2)
		p.dc.DrawLine(x1+dx, y1+dy, x2+dx, y2+dy)
		p.dc.DrawLine(x1-dx, y1-dy, x2-dx, y2-dy)
	default:
		p.dc.DrawLine(x1, y1, x2, y2)
	}
	p.dc.Stroke()
}

//Personal.AI order the ending
