package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molview/internal/application/session"
	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/domain/element"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molview/internal/infrastructure/parser/pdb"
	"github.com/turtacn/molview/internal/infrastructure/render/raster"
	"github.com/turtacn/molview/internal/interfaces/http/handlers"
	"github.com/turtacn/molview/internal/interfaces/http/middleware"
)

func atomRec(serial int, name string, x, y, z float64) string {
	return fmt.Sprintf("ATOM  %5d %-4s ALA A   1    %8.3f%8.3f%8.3f  1.00  0.00", serial, name, x, y, z)
}

// On a 200x200 canvas at scale 10, N lands at (85,120) and C/O at (115,80).
var triad = strings.Join([]string{
	"HEADER    TEST STRUCTURE                          15-OCT-26   9XYZ",
	atomRec(1, " N", 0, 0, 0),
	atomRec(2, " C", 3, 4, 0),
	atomRec(3, " O", 3, 4, 1),
	"CONECT    1    2",
	"CONECT    2    3",
	"END",
}, "\n")

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

type apiServer struct {
	t        *testing.T
	h        http.Handler
	registry *session.Registry
}

func newAPI(t *testing.T) *apiServer {
	t.Helper()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "molview"}, nil)
	require.NoError(t, err)
	metrics := prometheus.NewViewerMetrics(collector)

	newRenderer, err := raster.Factory(raster.Options{Width: 200, Height: 200, Scale: 10}, nil, metrics)
	require.NoError(t, err)

	opts := viewer.DefaultOptions()
	opts.AutoCenter = false
	reg := session.NewRegistry(session.Config{MaxSessions: 4, Viewer: opts},
		pdb.NewParser(element.MustNewTable(), pdb.WithMetrics(metrics)), newRenderer,
		session.WithMetrics(metrics))

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = []string{"https://viewer.example.com"}

	h := NewRouter(RouterConfig{
		SessionHandler: handlers.NewSessionHandler(reg),
		HealthHandler:  handlers.NewHealthHandler("test", reg),
		Metrics:        metrics,
		MetricsHandler: collector.Handler(),
		CORS:           &cors,
		MaxBodySize:    1 << 16,
		Mode:           gin.TestMode,
	})
	return &apiServer{t: t, h: h, registry: reg}
}

func (a *apiServer) call(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.h.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") && w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

type sessionBody struct {
	ID            string `json:"id"`
	SelectionMode string `json:"selection_mode"`
	RenderMode    string `json:"render_mode"`
	Selected      []int  `json:"selected"`
	Info          string `json:"info"`
	Molecule      struct {
		IDCode   string `json:"id_code"`
		NumAtoms int    `json:"num_atoms"`
		NumBonds int    `json:"num_bonds"`
	} `json:"molecule"`
}

func (a *apiServer) create(mode string) sessionBody {
	a.t.Helper()
	w, env := a.call(http.MethodPost, "/api/v1/sessions", map[string]string{"pdb": triad, "selection_mode": mode})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var s sessionBody
	decodeData(a.t, env, &s)
	return s
}

func TestSessionLifecycle(t *testing.T) {
	api := newAPI(t)

	s := api.create("distance")
	assert.Equal(t, "9XYZ", s.Molecule.IDCode)
	assert.Equal(t, 3, s.Molecule.NumAtoms)
	assert.Equal(t, 2, s.Molecule.NumBonds)
	assert.Equal(t, "distance", s.SelectionMode)
	base := "/api/v1/sessions/" + s.ID

	w, env := api.call(http.MethodGet, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), s.ID)
	assert.NotEmpty(t, env.RequestID)

	// Pick N by screen position, then C by serial.
	w, env = api.call(http.MethodPost, base+"/picks", map[string]float64{"x": 85, "y": 120})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pick struct {
		Outcome  string `json:"outcome"`
		Selected []int  `json:"selected"`
		Info     string `json:"info"`
	}
	decodeData(t, env, &pick)
	assert.Equal(t, "added", pick.Outcome)
	assert.Equal(t, []int{1}, pick.Selected)

	_, env = api.call(http.MethodPost, base+"/picks", map[string]int{"serial": 2})
	decodeData(t, env, &pick)
	assert.Equal(t, "5.0000 nm\nN - C", pick.Info)

	w, env = api.call(http.MethodGet, base+"/measurement", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var m handlers.MeasurementResponse
	decodeData(t, env, &m)
	assert.InDelta(t, 5.0, m.Value, 1e-9)
	assert.Equal(t, []string{"N", "C"}, m.Elements)

	w, _ = api.call(http.MethodGet, base+"/image", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	w, env = api.call(http.MethodPut, base+"/mode", map[string]string{"render_mode": "sticks"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, env, &s)
	assert.Equal(t, "sticks", s.RenderMode)
	assert.Empty(t, s.Selected)

	api.call(http.MethodPost, base+"/picks", map[string]int{"serial": 3})
	w, env = api.call(http.MethodDelete, base+"/picks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, env, &s)
	assert.Empty(t, s.Selected)

	w, _ = api.call(http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, env = api.call(http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SES_001", env.Error.Code)
	assert.False(t, env.Success)
}

func TestSessionErrors(t *testing.T) {
	api := newAPI(t)

	w, env := api.call(http.MethodPost, "/api/v1/sessions", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "COMMON_002", env.Error.Code)

	w, _ = api.call(http.MethodPost, "/api/v1/sessions", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = api.call(http.MethodPost, "/api/v1/sessions", map[string]string{"source": "s3://b/k.pdb"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SRC_002", env.Error.Code)

	w, env = api.call(http.MethodPost, "/api/v1/sessions", map[string]string{"pdb": "CONECT    0    1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "PDB_001", env.Error.Code)

	w, env = api.call(http.MethodGet, "/api/v1/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SES_001", env.Error.Code)

	s := api.create("rotation")
	w, env = api.call(http.MethodGet, "/api/v1/sessions/"+s.ID+"/measurement", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "COMMON_006", env.Error.Code)

	w, _ = api.call(http.MethodPost, "/api/v1/sessions/"+s.ID+"/picks", map[string]float64{"x": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.call(http.MethodPut, "/api/v1/sessions/"+s.ID+"/mode", map[string]string{"render_mode": "cartoon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.call(http.MethodPost, "/api/v1/sessions", strings.Repeat(" ", 1<<17))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSessionLimit(t *testing.T) {
	api := newAPI(t)
	for i := 0; i < 4; i++ {
		api.create("identify")
	}
	w, env := api.call(http.MethodPost, "/api/v1/sessions", map[string]string{"pdb": triad})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "COMMON_008", env.Error.Code)
	assert.Equal(t, 4, api.registry.Len())
}

func TestProbesAndMetrics(t *testing.T) {
	api := newAPI(t)
	api.create("identify")

	w, _ := api.call(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var live handlers.LivenessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &live))
	assert.Equal(t, "alive", live.Status)
	assert.Equal(t, 1, live.Sessions)

	w, _ = api.call(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.call(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "molview_http_requests_total")
	assert.Contains(t, body, `path="/api/v1/sessions"`)
	assert.Contains(t, body, "molview_parse_total")
	assert.Contains(t, body, "molview_sessions_active 1")

	w, _ = api.call(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	api := newAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "https://viewer.example.com")
	w := httptest.NewRecorder()
	api.h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://viewer.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

//Personal.AI order the ending
