package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molview/internal/testutil"
)

func TestRequestID(t *testing.T) {
	h := engine(RequestID())

	w := do(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set(RequestIDHeader, "req-42")
	w = do(h, r)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestRequestLogging_Levels(t *testing.T) {
	log := testutil.NewMockLogger()
	h := engine(RequestID(), RequestLogging(log, DefaultLoggingConfig()))

	do(h, httptest.NewRequest(http.MethodGet, "/api/v1/sessions?x=1", nil))
	do(h, httptest.NewRequest(http.MethodGet, "/missing", nil))
	do(h, httptest.NewRequest(http.MethodGet, "/fail", nil))
	do(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.True(t, log.HasMessage("info", "HTTP request completed"))
	assert.True(t, log.HasMessage("warn", "HTTP request completed with client error"))
	assert.True(t, log.HasMessage("error", "HTTP request completed with server error"))
	assert.Len(t, log.GetMessages(), 3)
}

func TestRequestLogging_Slow(t *testing.T) {
	log := testutil.NewMockLogger()
	cfg := LoggingConfig{SlowThreshold: time.Nanosecond}
	e := engine(RequestLogging(log, cfg))
	e.GET("/slow", func(c *gin.Context) { time.Sleep(time.Millisecond); c.Status(http.StatusOK) })

	do(e, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.True(t, log.HasMessage("warn", "HTTP request completed (slow)"))
}

type httpRecord struct {
	method, path string
	code         int
}

type fakeHTTPMetrics struct {
	mu   sync.Mutex
	recs []httpRecord
}

func (f *fakeHTTPMetrics) RecordHTTPRequest(method, path string, code int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, httpRecord{method, path, code})
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	m := &fakeHTTPMetrics{}
	h := engine(Metrics(m))

	do(h, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc-123", nil))
	do(h, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, m.recs, 2)
	assert.Equal(t, httpRecord{"GET", "/api/v1/sessions/:id", 200}, m.recs[0])
	assert.Equal(t, httpRecord{"GET", "unmatched", 404}, m.recs[1])
}

func TestRecovery(t *testing.T) {
	log := testutil.NewMockLogger()
	h := engine(RequestID(), Recovery(log))

	w := do(h, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.True(t, log.HasMessage("error", "panic recovered"))
}

//Personal.AI order the ending
