package viewer

import (
	"context"
	"time"

	"github.com/turtacn/molview/internal/domain/molecule"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/pkg/errors"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// Options configures a Viewer.
type Options struct {
	SelectionMode mtypes.SelectionMode
	// Selectable disables picking when false.
	Selectable bool
	// AutoCenter moves the centroid of frame 0 to the origin on load.
	AutoCenter bool
}

// DefaultOptions mirrors the stock viewer settings.
func DefaultOptions() Options {
	return Options{
		SelectionMode: mtypes.SelectionIdentify,
		Selectable:    true,
		AutoCenter:    true,
	}
}

// Viewer owns one molecule, its selection and the renderer showing it. A
// Viewer handles one call at a time; callers serialise access.
type Viewer struct {
	opts     Options
	parser   Parser
	renderer Renderer
	logger   logging.Logger
	metrics  Metrics

	mol      *molecule.Molecule
	sel      *SelectionController
	frame    int
	info     string
	loadedAt time.Time
}

// New creates a viewer with nothing loaded. logger and metrics may be nil.
func New(opts Options, parser Parser, renderer Renderer, logger logging.Logger, metrics Metrics) *Viewer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if !opts.SelectionMode.IsValid() {
		opts.SelectionMode = mtypes.SelectionIdentify
	}
	return &Viewer{
		opts:     opts,
		parser:   parser,
		renderer: renderer,
		logger:   logger.Named("viewer"),
		metrics:  metrics,
		info:     Prompt(opts.SelectionMode),
	}
}

// LoadPDB parses text and shows the result, replacing any loaded molecule.
// On a parse error the previous molecule stays loaded.
func (v *Viewer) LoadPDB(text string) error {
	mol, err := v.parser.Parse(text)
	if err != nil {
		v.logger.Warn("failed to load structure", logging.Err(err))
		return err
	}
	v.show(mol)
	return nil
}

// LoadSource fetches the structure at uri through f and shows it.
func (v *Viewer) LoadSource(ctx context.Context, f Fetcher, uri string) error {
	rc, err := f.Open(ctx, uri)
	if err != nil {
		v.logger.Warn("failed to fetch structure", logging.String("uri", uri), logging.Err(err))
		return err
	}
	defer rc.Close()

	mol, err := v.parser.ParseReader(rc)
	if err != nil {
		v.logger.Warn("failed to load structure", logging.String("uri", uri), logging.Err(err))
		return err
	}
	v.show(mol)
	v.logger.Info("structure loaded", logging.String("uri", uri), logging.Int("atoms", mol.NumAtoms()))
	return nil
}

func (v *Viewer) show(mol *molecule.Molecule) {
	if v.opts.AutoCenter {
		for _, f := range mol.Frames() {
			mol.CenterFrame(f)
		}
	}
	v.mol = mol
	v.frame = molecule.DefaultFrame
	if fs, ok := v.renderer.(FrameSetter); ok {
		fs.SetFrame(v.frame)
	}
	v.renderer.Reset()
	mol.Render(v.renderer)
	v.sel = NewSelectionController(mol, v.renderer, v.opts.SelectionMode)
	v.sel.Clear()
	v.renderer.Render()
	v.loadedAt = time.Now()
	v.refreshInfo()
}

func (v *Viewer) refreshInfo() {
	if v.sel == nil {
		v.info = Prompt(v.opts.SelectionMode)
		return
	}
	v.info = v.sel.Info(v.frame)
}

func (v *Viewer) requireMolecule() error {
	if v.mol == nil {
		return errors.New(errors.ErrCodeNoMolecule, "no molecule loaded")
	}
	return nil
}

// HandlePick hit-tests ev and applies the pick when it lands on an atom.
func (v *Viewer) HandlePick(ev PickEvent) (PickResult, error) {
	if err := v.requireMolecule(); err != nil {
		return PickResult{}, err
	}
	if !v.opts.Selectable {
		return PickResult{Outcome: OutcomeIgnored}, nil
	}
	obj, ok := v.renderer.GetSelectedObject(ev)
	if !ok || obj.Kind != molecule.KindAtom {
		return PickResult{Outcome: OutcomeIgnored}, nil
	}
	return v.pick(obj.Atom), nil
}

// PickSerial applies a pick of the atom with the given serial number.
func (v *Viewer) PickSerial(serial int) (PickResult, error) {
	if err := v.requireMolecule(); err != nil {
		return PickResult{}, err
	}
	if !v.opts.Selectable {
		return PickResult{Outcome: OutcomeIgnored}, nil
	}
	a, ok := v.mol.Atom(serial)
	if !ok {
		return PickResult{}, errors.Newf(errors.CodeNotFound, "atom %d not found", serial)
	}
	return v.pick(a), nil
}

func (v *Viewer) pick(a *molecule.Atom) PickResult {
	res := v.sel.Toggle(a)
	v.metrics.RecordPick(string(v.sel.Mode()), string(res.Outcome))
	if res.Outcome.Changed() || res.ClearedFirst {
		v.renderer.Render()
	}
	v.refreshInfo()
	v.logger.Debug("pick",
		logging.Int("serial", a.Serial()),
		logging.String("outcome", string(res.Outcome)),
		logging.Int("selected", len(v.sel.selected)))
	return res
}

// ClearSelection drops every selected atom.
func (v *Viewer) ClearSelection() {
	if v.sel == nil {
		return
	}
	v.sel.Clear()
	v.renderer.Render()
	v.refreshInfo()
}

// SetSelectionMode switches the selection mode and clears the selection.
func (v *Viewer) SetSelectionMode(mode mtypes.SelectionMode) error {
	if !mode.IsValid() {
		return errors.New(errors.ErrCodeInvalidMode, "unknown selection mode").WithDetail(string(mode))
	}
	v.opts.SelectionMode = mode
	if v.sel != nil {
		if err := v.sel.SetMode(mode); err != nil {
			return err
		}
		v.renderer.Render()
	}
	v.refreshInfo()
	return nil
}

// SetRenderMode changes which objects are drawn and clears the selection.
func (v *Viewer) SetRenderMode(mode mtypes.RenderMode) error {
	if err := v.requireMolecule(); err != nil {
		return err
	}
	if err := v.mol.SetRenderMode(mode); err != nil {
		return err
	}
	v.sel.Clear()
	v.redraw()
	v.refreshInfo()
	return nil
}

// SetColorMode recolours the molecule, keeping the selection.
func (v *Viewer) SetColorMode(mode mtypes.ColorMode) error {
	if err := v.requireMolecule(); err != nil {
		return err
	}
	if err := v.mol.SetColorMode(mode); err != nil {
		return err
	}
	v.redraw()
	return nil
}

// SetFrame shows another frame of a multi-frame structure.
func (v *Viewer) SetFrame(frame int) error {
	if err := v.requireMolecule(); err != nil {
		return err
	}
	if !v.mol.HasFrame(frame) {
		return errors.Newf(errors.CodeInvalidParam, "frame %d does not exist", frame)
	}
	v.frame = frame
	if fs, ok := v.renderer.(FrameSetter); ok {
		fs.SetFrame(frame)
	}
	v.renderer.Render()
	v.refreshInfo()
	return nil
}

// redraw rebuilds the renderer's scene and restores the highlights.
func (v *Viewer) redraw() {
	v.renderer.Reset()
	v.mol.Render(v.renderer)
	v.sel.Reapply()
	v.renderer.Render()
}

// Info is the current info display text.
func (v *Viewer) Info() string { return v.info }

// Measure evaluates the current selection.
func (v *Viewer) Measure() (Measurement, error) {
	if err := v.requireMolecule(); err != nil {
		return Measurement{}, err
	}
	return v.sel.Measure(v.frame)
}

func (v *Viewer) Molecule() *molecule.Molecule { return v.mol }

func (v *Viewer) Frame() int { return v.frame }

func (v *Viewer) Options() Options { return v.opts }

// SetSelectable turns picking on or off.
func (v *Viewer) SetSelectable(on bool) { v.opts.Selectable = on }

// Selected returns the serials of the selected atoms in chain order.
func (v *Viewer) Selected() []int {
	if v.sel == nil {
		return []int{}
	}
	return v.sel.Serials()
}

// SelectionMode is the active selection mode.
func (v *Viewer) SelectionMode() mtypes.SelectionMode { return v.opts.SelectionMode }

// LoadedAt is when the current molecule was shown; zero before any load.
func (v *Viewer) LoadedAt() time.Time { return v.loadedAt }

//Personal.AI order the ending
