package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/domain/element"
	"github.com/turtacn/molview/internal/domain/molecule"
	"github.com/turtacn/molview/internal/infrastructure/parser/pdb"
	"github.com/turtacn/molview/internal/testutil"
	"github.com/turtacn/molview/pkg/errors"
	"github.com/turtacn/molview/pkg/types/common"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func atomRec(serial int, name string, x, y, z float64) string {
	return fmt.Sprintf("ATOM  %5d %-4s ALA A   1    %8.3f%8.3f%8.3f  1.00  0.00", serial, name, x, y, z)
}

var triad = strings.Join([]string{
	"HEADER    TEST STRUCTURE                          15-OCT-26   9XYZ",
	"TITLE     TRIAD",
	atomRec(1, " N", 0, 0, 0),
	atomRec(2, " C", 3, 4, 0),
	atomRec(3, " O", 3, 4, 1),
	"CONECT    1    2",
	"CONECT    2    3",
	"END",
}, "\n")

type fakeMetrics struct {
	mu     sync.Mutex
	opened int
	closed int
	picks  []string
}

func (m *fakeMetrics) RecordPick(mode, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.picks = append(m.picks, mode+"/"+outcome)
}

func (m *fakeMetrics) SessionOpened() { m.mu.Lock(); m.opened++; m.mu.Unlock() }
func (m *fakeMetrics) SessionClosed() { m.mu.Lock(); m.closed++; m.mu.Unlock() }

type pngRenderer struct {
	*testutil.RecordingRenderer
}

func (p pngRenderer) WritePNG(w io.Writer) error {
	_, err := w.Write([]byte("\x89PNG"))
	return err
}

type stringFetcher map[string]string

func (f stringFetcher) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	text, ok := f[uri]
	if !ok {
		return nil, errors.New(errors.ErrCodeSourceUnavailable, "missing").WithDetail(uri)
	}
	return io.NopCloser(strings.NewReader(text)), nil
}

func testConfig() Config {
	opts := viewer.DefaultOptions()
	opts.AutoCenter = false
	return Config{Viewer: opts}
}

func newRegistry(t *testing.T, cfg Config, opts ...Option) (*Registry, *[]*testutil.RecordingRenderer) {
	t.Helper()
	var made []*testutil.RecordingRenderer
	factory := func() viewer.Renderer {
		r := testutil.NewRecordingRenderer()
		made = append(made, r)
		return r
	}
	return NewRegistry(cfg, pdb.NewParser(element.MustNewTable()), factory, opts...), &made
}

func create(t *testing.T, r *Registry, req mtypes.CreateSessionRequest) mtypes.SessionDTO {
	t.Helper()
	dto, err := r.Create(context.Background(), req)
	require.NoError(t, err)
	return dto
}

// ─────────────────────────────────────────────────────────────────────────────
// lifecycle
// ─────────────────────────────────────────────────────────────────────────────

func TestRegistry_CreateFromText(t *testing.T) {
	m := &fakeMetrics{}
	log := testutil.NewMockLogger()
	r, _ := newRegistry(t, testConfig(), WithMetrics(m), WithLogger(log))

	dto := create(t, r, mtypes.CreateSessionRequest{PDB: triad, SelectionMode: mtypes.SelectionDistance})

	assert.NoError(t, dto.ID.Validate())
	assert.Equal(t, mtypes.SelectionDistance, dto.SelectionMode)
	assert.Equal(t, mtypes.RenderBallAndStick, dto.RenderMode)
	assert.Equal(t, mtypes.ColorCPK, dto.ColorMode)
	assert.Equal(t, viewer.PromptDistance, dto.Info)
	assert.Equal(t, []int{}, dto.Selected)
	assert.Equal(t, "9XYZ", dto.Molecule.IDCode)
	assert.Equal(t, "TRIAD", dto.Molecule.Title)
	assert.Equal(t, 3, dto.Molecule.NumAtoms)
	assert.Equal(t, 2, dto.Molecule.NumBonds)
	assert.Len(t, dto.Molecule.Atoms, 3)
	assert.Len(t, dto.Molecule.Bonds, 2)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, m.opened)
	assert.True(t, log.HasMessage("info", "session created"))
}

func TestRegistry_CreateFromSource(t *testing.T) {
	r, _ := newRegistry(t, testConfig(), WithFetcher(stringFetcher{"s3://pdb/triad.pdb": triad}))

	dto := create(t, r, mtypes.CreateSessionRequest{Source: "s3://pdb/triad.pdb"})
	assert.Equal(t, 3, dto.Molecule.NumAtoms)

	_, err := r.Create(context.Background(), mtypes.CreateSessionRequest{Source: "s3://pdb/none.pdb"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSourceUnavailable))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_CreateErrors(t *testing.T) {
	r, _ := newRegistry(t, testConfig())

	_, err := r.Create(context.Background(), mtypes.CreateSessionRequest{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = r.Create(context.Background(), mtypes.CreateSessionRequest{Source: "file:///x.pdb"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSourceUnsupported))

	_, err = r.Create(context.Background(), mtypes.CreateSessionRequest{PDB: "CONECT    0    1"})
	assert.True(t, errors.IsCode(err, errors.ErrCodePDBMalformedRecord))
	assert.Zero(t, r.Len())
}

func TestRegistry_MaxSessions(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSessions = 1
	r, _ := newRegistry(t, cfg)

	create(t, r, mtypes.CreateSessionRequest{PDB: triad})
	_, err := r.Create(context.Background(), mtypes.CreateSessionRequest{PDB: triad})
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func TestRegistry_GetDeleteList(t *testing.T) {
	m := &fakeMetrics{}
	r, _ := newRegistry(t, testConfig(), WithMetrics(m))
	a := create(t, r, mtypes.CreateSessionRequest{PDB: triad})
	b := create(t, r, mtypes.CreateSessionRequest{PDB: triad})

	assert.ElementsMatch(t, []common.ID{a.ID, b.ID}, r.List())

	got, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	require.NoError(t, r.Delete(a.ID))
	_, err = r.Get(a.ID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSessionNotFound))
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsCode(r.Delete(a.ID), errors.ErrCodeSessionNotFound))
	assert.Equal(t, []common.ID{b.ID}, r.List())
	assert.Equal(t, 1, m.closed)
}

// ─────────────────────────────────────────────────────────────────────────────
// operations
// ─────────────────────────────────────────────────────────────────────────────

func TestRegistry_PickAndMeasure(t *testing.T) {
	m := &fakeMetrics{}
	r, made := newRegistry(t, testConfig(), WithMetrics(m))
	dto := create(t, r, mtypes.CreateSessionRequest{PDB: triad, SelectionMode: mtypes.SelectionDistance})
	rend := (*made)[0]

	one := 1
	resp, err := r.Pick(dto.ID, mtypes.PickRequest{Serial: &one})
	require.NoError(t, err)
	assert.Equal(t, "added", resp.Outcome)
	assert.Equal(t, []int{1}, resp.Selected)

	// pick atom 2 through a screen coordinate
	sess, err := r.lookup(dto.ID)
	require.NoError(t, err)
	a2, ok := sess.viewer.Molecule().Atom(2)
	require.True(t, ok)
	rend.SetPick(viewer.PickEvent{X: 40, Y: 30}, molecule.AtomObject(a2))
	x, y := 40.0, 30.0
	resp, err = r.Pick(dto.ID, mtypes.PickRequest{X: &x, Y: &y})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, resp.Selected)
	assert.Equal(t, "5.0000 nm\nN - C", resp.Info)

	meas, err := r.Measure(dto.ID)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, meas.Value, 1e-9)
	assert.Equal(t, []string{"distance/added", "distance/added"}, m.picks)

	_, err = r.Pick(dto.ID, mtypes.PickRequest{X: &x})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	missing := 77
	_, err = r.Pick(dto.ID, mtypes.PickRequest{Serial: &missing})
	assert.True(t, errors.IsNotFound(err))

	cleared, err := r.ClearSelection(dto.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Selected)
	assert.Equal(t, viewer.PromptDistance, cleared.Info)
}

func TestRegistry_UpdateModes(t *testing.T) {
	r, made := newRegistry(t, testConfig())
	dto := create(t, r, mtypes.CreateSessionRequest{PDB: triad})

	upd, err := r.UpdateModes(dto.ID, mtypes.UpdateModeRequest{
		RenderMode:    mtypes.RenderSticks,
		ColorMode:     mtypes.ColorAminoAcid,
		SelectionMode: mtypes.SelectionTorsion,
	})
	require.NoError(t, err)
	assert.Equal(t, mtypes.RenderSticks, upd.RenderMode)
	assert.Equal(t, mtypes.ColorAminoAcid, upd.ColorMode)
	assert.Equal(t, mtypes.SelectionTorsion, upd.SelectionMode)
	assert.Equal(t, viewer.PromptTorsion, upd.Info)
	assert.Len(t, (*made)[0].Objects(), 2)
	assert.Nil(t, upd.Molecule.Atoms)

	frame := 3
	_, err = r.UpdateModes(dto.ID, mtypes.UpdateModeRequest{Frame: &frame})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = r.UpdateModes(dto.ID, mtypes.UpdateModeRequest{RenderMode: "wire"})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = r.UpdateModes(common.NewID(), mtypes.UpdateModeRequest{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSessionNotFound))
}

func TestRegistry_WriteImage(t *testing.T) {
	r, _ := newRegistry(t, testConfig())
	dto := create(t, r, mtypes.CreateSessionRequest{PDB: triad})
	var buf bytes.Buffer
	assert.True(t, errors.IsCode(r.WriteImage(dto.ID, &buf), errors.ErrCodeRenderFailed))

	withPNG := NewRegistry(testConfig(), pdb.NewParser(element.MustNewTable()), func() viewer.Renderer {
		return pngRenderer{testutil.NewRecordingRenderer()}
	})
	dto = create(t, withPNG, mtypes.CreateSessionRequest{PDB: triad})
	require.NoError(t, withPNG.WriteImage(dto.ID, &buf))
	assert.Equal(t, "\x89PNG", buf.String())
}

func TestRegistry_EvictIdle(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cfg := testConfig()
	cfg.IdleTTL = time.Minute
	m := &fakeMetrics{}
	r, _ := newRegistry(t, cfg, WithClock(clock), WithMetrics(m))

	stale := create(t, r, mtypes.CreateSessionRequest{PDB: triad})
	now = now.Add(50 * time.Second)
	fresh := create(t, r, mtypes.CreateSessionRequest{PDB: triad})

	now = now.Add(20 * time.Second)
	assert.Equal(t, 1, r.EvictIdle())
	assert.Equal(t, []common.ID{fresh.ID}, r.List())
	_, err := r.Get(stale.ID)
	assert.Error(t, err)
	assert.Equal(t, 1, m.closed)

	// Get touched the fresh session
	_, err = r.Get(fresh.ID)
	require.NoError(t, err)
	now = now.Add(59 * time.Second)
	assert.Zero(t, r.EvictIdle())
}

func TestRegistry_EvictIdleDoesNotBlockOnBusySession(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	cfg := testConfig()
	cfg.IdleTTL = time.Minute
	r, _ := newRegistry(t, cfg, WithClock(func() time.Time { return now }))

	busy := create(t, r, mtypes.CreateSessionRequest{PDB: triad})
	create(t, r, mtypes.CreateSessionRequest{PDB: triad})
	now = now.Add(2 * time.Minute)

	r.mu.RLock()
	s := r.sessions[busy.ID]
	r.mu.RUnlock()
	s.mu.Lock()

	evicted := make(chan int, 1)
	go func() { evicted <- r.EvictIdle() }()

	listed := make(chan int, 1)
	go func() { listed <- len(r.List()) + r.Len() }()
	select {
	case n := <-listed:
		assert.GreaterOrEqual(t, n, 0)
	case <-time.After(2 * time.Second):
		t.Fatal("registry blocked behind a busy session")
	}

	s.mu.Unlock()
	select {
	case n := <-evicted:
		assert.Equal(t, 2, n)
	case <-time.After(2 * time.Second):
		t.Fatal("EvictIdle did not finish")
	}
	assert.Zero(t, r.Len())
}

func TestRegistry_EvictDisabled(t *testing.T) {
	r, _ := newRegistry(t, testConfig())
	create(t, r, mtypes.CreateSessionRequest{PDB: triad})
	assert.Zero(t, r.EvictIdle())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.RunJanitor(ctx, time.Millisecond)
}

func TestRegistry_SetViewerDefaults(t *testing.T) {
	r, _ := newRegistry(t, testConfig())
	before := create(t, r, mtypes.CreateSessionRequest{PDB: triad})

	opts := testConfig().Viewer
	opts.SelectionMode = mtypes.SelectionTorsion
	r.SetViewerDefaults(opts)

	after := create(t, r, mtypes.CreateSessionRequest{PDB: triad})
	assert.Equal(t, mtypes.SelectionTorsion, after.SelectionMode)

	got, err := r.Get(before.ID)
	require.NoError(t, err)
	assert.Equal(t, mtypes.SelectionIdentify, got.SelectionMode)
}

func TestRegistry_ConcurrentPicks(t *testing.T) {
	r, _ := newRegistry(t, testConfig())
	dto := create(t, r, mtypes.CreateSessionRequest{PDB: triad, SelectionMode: mtypes.SelectionDistance})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(serial int) {
			defer wg.Done()
			_, err := r.Pick(dto.ID, mtypes.PickRequest{Serial: &serial})
			assert.NoError(t, err)
			_, err = r.Get(dto.ID)
			assert.NoError(t, err)
		}(i%3 + 1)
	}
	wg.Wait()

	got, err := r.Get(dto.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got.Selected), 2)
}

func TestSummarize(t *testing.T) {
	mol, err := pdb.NewParser(element.MustNewTable()).Parse(triad)
	require.NoError(t, err)

	s := Summarize(mol, 0, true)
	assert.Equal(t, []int{0}, s.Frames)
	assert.Equal(t, "TEST STRUCTURE", s.Classification)
	assert.Equal(t, "15-OCT-26", s.DepDate)
	require.Len(t, s.Atoms, 3)
	assert.Equal(t, "Nitrogen", s.Atoms[0].Name)
	assert.Equal(t, "3050F8", s.Atoms[0].Color)
	assert.Equal(t, "ALA", s.Atoms[0].ResName)
	require.Len(t, s.Bonds, 2)
	assert.InDelta(t, 500.0, s.Bonds[0].Length, 1e-9)

	assert.Empty(t, Summarize(mol, 4, true).Atoms)
	assert.Equal(t, []int{}, Summarize(nil, 0, true).Frames)
}

//Personal.AI order the ending
