// Package session keeps the in-memory viewer sessions served by the HTTP
// API. Every session owns one Viewer and one render backend; the registry
// hands them out by id and serialises work on each session.
package session

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/common"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// ImageWriter is implemented by render backends that can export a picture.
type ImageWriter interface {
	WritePNG(w io.Writer) error
}

// RendererFactory builds a fresh render backend for a new session.
type RendererFactory func() viewer.Renderer

// Metrics receives session lifecycle and pick events.
// *prometheus.ViewerMetrics satisfies it.
type Metrics interface {
	viewer.Metrics
	SessionOpened()
	SessionClosed()
}

type nopMetrics struct{}

func (nopMetrics) RecordPick(string, string) {}
func (nopMetrics) SessionOpened()            {}
func (nopMetrics) SessionClosed()            {}

// Config bounds the registry.
type Config struct {
	// MaxSessions caps live sessions; 0 means unlimited.
	MaxSessions int
	// IdleTTL is how long an unused session survives EvictIdle; 0 disables eviction.
	IdleTTL time.Duration
	Viewer  viewer.Options
}

// Session is one live viewer.
type Session struct {
	ID        common.ID
	CreatedAt common.Timestamp

	mu       sync.Mutex
	viewer   *viewer.Viewer
	renderer viewer.Renderer
	lastUsed time.Time
}

// Registry is safe for concurrent use. Calls on the same session run one
// at a time; calls on different sessions run in parallel.
type Registry struct {
	cfg         Config
	parser      viewer.Parser
	fetcher     viewer.Fetcher
	newRenderer RendererFactory
	logger      logging.Logger
	metrics     Metrics
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[common.ID]*Session
}

// Option customises a Registry.
type Option func(*Registry)

// WithFetcher enables sessions created from a source URI.
func WithFetcher(f viewer.Fetcher) Option {
	return func(r *Registry) { r.fetcher = f }
}

func WithLogger(l logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config, parser viewer.Parser, newRenderer RendererFactory, opts ...Option) *Registry {
	r := &Registry{
		cfg:         cfg,
		parser:      parser,
		newRenderer: newRenderer,
		logger:      logging.NewNopLogger(),
		metrics:     nopMetrics{},
		now:         time.Now,
		sessions:    make(map[common.ID]*Session),
	}
	for _, o := range opts {
		o(r)
	}
	r.logger = r.logger.Named("session")
	return r
}

// Create opens a session and loads the requested structure into it.
func (r *Registry) Create(ctx context.Context, req mtypes.CreateSessionRequest) (mtypes.SessionDTO, error) {
	if err := req.Validate(); err != nil {
		return mtypes.SessionDTO{}, errors.InvalidParam(err.Error())
	}
	if req.Source != "" && r.fetcher == nil {
		return mtypes.SessionDTO{}, errors.New(errors.ErrCodeSourceUnsupported, "loading from a source is not enabled")
	}
	if r.cfg.MaxSessions > 0 && r.Len() >= r.cfg.MaxSessions {
		return mtypes.SessionDTO{}, errors.New(errors.ErrCodeServiceUnavailable, "session limit reached")
	}

	r.mu.RLock()
	opts := r.cfg.Viewer
	r.mu.RUnlock()
	if req.SelectionMode != "" {
		opts.SelectionMode = req.SelectionMode
	}
	id := common.NewID()
	rend := r.newRenderer()
	s := &Session{
		ID:        id,
		CreatedAt: common.NewTimestamp(),
		renderer:  rend,
		lastUsed:  r.now(),
	}
	s.viewer = viewer.New(opts, r.parser, rend, r.logger.With(logging.String("session_id", string(id))), r.metrics)

	var err error
	if req.PDB != "" {
		err = s.viewer.LoadPDB(req.PDB)
	} else {
		err = s.viewer.LoadSource(ctx, r.fetcher, req.Source)
	}
	if err != nil {
		return mtypes.SessionDTO{}, err
	}

	r.mu.Lock()
	if r.cfg.MaxSessions > 0 && len(r.sessions) >= r.cfg.MaxSessions {
		r.mu.Unlock()
		return mtypes.SessionDTO{}, errors.New(errors.ErrCodeServiceUnavailable, "session limit reached")
	}
	r.sessions[id] = s
	r.mu.Unlock()

	r.metrics.SessionOpened()
	r.logger.Info("session created",
		logging.String("session_id", string(id)),
		logging.Int("atoms", s.viewer.Molecule().NumAtoms()))
	return s.snapshot(true), nil
}

func (r *Registry) lookup(id common.ID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail(string(id))
	}
	return s, nil
}

// with runs fn on the session with its lock held.
func (r *Registry) with(id common.ID, fn func(s *Session) error) error {
	s, err := r.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = r.now()
	return fn(s)
}

// Get returns the state of a session including its atoms and bonds.
func (r *Registry) Get(id common.ID) (mtypes.SessionDTO, error) {
	var dto mtypes.SessionDTO
	err := r.with(id, func(s *Session) error {
		dto = s.snapshot(true)
		return nil
	})
	return dto, err
}

// List returns the ids of all live sessions, oldest first.
func (r *Registry) List() []common.ID {
	r.mu.RLock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Time().Before(all[j].CreatedAt.Time())
	})
	ids := make([]common.ID, len(all))
	for i, s := range all {
		ids[i] = s.ID
	}
	return ids
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Delete closes a session.
func (r *Registry) Delete(id common.ID) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail(string(id))
	}
	r.metrics.SessionClosed()
	r.logger.Info("session deleted", logging.String("session_id", string(id)))
	return nil
}

// UpdateModes applies the non-empty fields of req. Fields are applied in the
// order render, colour, selection, frame; the first failure stops the update.
func (r *Registry) UpdateModes(id common.ID, req mtypes.UpdateModeRequest) (mtypes.SessionDTO, error) {
	if err := req.Validate(); err != nil {
		return mtypes.SessionDTO{}, errors.InvalidParam(err.Error())
	}
	var dto mtypes.SessionDTO
	err := r.with(id, func(s *Session) error {
		v := s.viewer
		if req.RenderMode != "" {
			if err := v.SetRenderMode(req.RenderMode); err != nil {
				return err
			}
		}
		if req.ColorMode != "" {
			if err := v.SetColorMode(req.ColorMode); err != nil {
				return err
			}
		}
		if req.SelectionMode != "" {
			if err := v.SetSelectionMode(req.SelectionMode); err != nil {
				return err
			}
		}
		if req.Frame != nil {
			if err := v.SetFrame(*req.Frame); err != nil {
				return err
			}
		}
		dto = s.snapshot(false)
		return nil
	})
	return dto, err
}

// Pick applies a pick by serial or by screen coordinate.
func (r *Registry) Pick(id common.ID, req mtypes.PickRequest) (mtypes.PickResponse, error) {
	if err := req.Validate(); err != nil {
		return mtypes.PickResponse{}, errors.InvalidParam(err.Error())
	}
	var resp mtypes.PickResponse
	err := r.with(id, func(s *Session) error {
		var (
			res viewer.PickResult
			err error
		)
		if req.Serial != nil {
			res, err = s.viewer.PickSerial(*req.Serial)
		} else {
			res, err = s.viewer.HandlePick(viewer.PickEvent{X: *req.X, Y: *req.Y})
		}
		if err != nil {
			return err
		}
		resp = mtypes.PickResponse{
			Outcome:  string(res.Outcome),
			Selected: s.viewer.Selected(),
			Info:     s.viewer.Info(),
		}
		return nil
	})
	return resp, err
}

// ClearSelection empties the selection of a session.
func (r *Registry) ClearSelection(id common.ID) (mtypes.SessionDTO, error) {
	var dto mtypes.SessionDTO
	err := r.with(id, func(s *Session) error {
		s.viewer.ClearSelection()
		dto = s.snapshot(false)
		return nil
	})
	return dto, err
}

// Measure evaluates the selection of a session.
func (r *Registry) Measure(id common.ID) (viewer.Measurement, error) {
	var m viewer.Measurement
	err := r.with(id, func(s *Session) error {
		var err error
		m, err = s.viewer.Measure()
		return err
	})
	return m, err
}

// WriteImage renders the session's current scene as PNG into w.
func (r *Registry) WriteImage(id common.ID, w io.Writer) error {
	return r.with(id, func(s *Session) error {
		iw, ok := s.renderer.(ImageWriter)
		if !ok {
			return errors.New(errors.ErrCodeRenderFailed, "renderer cannot export images")
		}
		if err := iw.WritePNG(w); err != nil {
			return errors.Wrap(err, errors.ErrCodeRenderFailed, "encode image")
		}
		return nil
	})
}

// SetViewerDefaults changes the options later sessions start with. Live
// sessions keep theirs.
func (r *Registry) SetViewerDefaults(opts viewer.Options) {
	r.mu.Lock()
	r.cfg.Viewer = opts
	r.mu.Unlock()
}

// EvictIdle drops sessions unused for longer than the idle TTL and returns
// how many were removed. Session locks are never taken while the registry
// lock is held, so a long render does not stall other callers; a session
// that is busy when the removal happens is kept.
func (r *Registry) EvictIdle() int {
	if r.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.cfg.IdleTTL)

	r.mu.RLock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.RUnlock()

	var candidates []*Session
	for _, s := range all {
		if s.idleSince(cutoff) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return 0
	}

	var expired []common.ID
	r.mu.Lock()
	for _, s := range candidates {
		if r.sessions[s.ID] != s || !s.mu.TryLock() {
			continue
		}
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(r.sessions, s.ID)
			expired = append(expired, s.ID)
		}
	}
	r.mu.Unlock()

	for _, id := range expired {
		r.metrics.SessionClosed()
		r.logger.Info("session expired", logging.String("session_id", string(id)))
	}
	return len(expired)
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed.Before(cutoff)
}

// RunJanitor calls EvictIdle every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.cfg.IdleTTL <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.EvictIdle(); n > 0 {
				r.logger.Debug("janitor pass", logging.Int("evicted", n))
			}
		}
	}
}

// snapshot must be called with s.mu held.
func (s *Session) snapshot(withObjects bool) mtypes.SessionDTO {
	v := s.viewer
	mol := v.Molecule()
	dto := mtypes.SessionDTO{
		ID:            s.ID,
		CreatedAt:     s.CreatedAt,
		SelectionMode: v.SelectionMode(),
		Frame:         v.Frame(),
		Selected:      v.Selected(),
		Info:          v.Info(),
		Molecule:      Summarize(mol, v.Frame(), withObjects),
	}
	if mol != nil {
		dto.RenderMode = mol.RenderMode()
		dto.ColorMode = mol.Options().ColorMode
	}
	return dto
}

//Personal.AI order the ending
