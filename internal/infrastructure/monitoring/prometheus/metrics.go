package prometheus

import (
	"strconv"
	"time"
)

// ViewerMetrics holds every metric family MolView exports.
type ViewerMetrics struct {
	// Parser
	ParseTotal          CounterVec
	ParseDuration       HistogramVec
	ParseRecordsSkipped CounterVec
	MoleculeAtoms       HistogramVec
	MoleculeBonds       HistogramVec

	// Selection
	SelectionPicks CounterVec

	// Sessions
	SessionsActive GaugeVec

	// Sources
	SourceFetchTotal CounterVec
	SourceFetchBytes HistogramVec

	// Rendering
	RenderDuration SummaryVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
}

var (
	DefaultParseDurationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultSizeBuckets          = []float64{10, 100, 1000, 10000, 100000, 1000000}
)

// NewViewerMetrics registers the MolView metric families on collector.
func NewViewerMetrics(collector MetricsCollector) *ViewerMetrics {
	m := &ViewerMetrics{}

	m.ParseTotal = collector.RegisterCounter("parse_total", "PDB parses by outcome", "status")
	m.ParseDuration = collector.RegisterHistogram("parse_duration_seconds", "PDB parse duration", DefaultParseDurationBuckets)
	m.ParseRecordsSkipped = collector.RegisterCounter("parse_records_skipped_total", "Records skipped while parsing", "reason")
	m.MoleculeAtoms = collector.RegisterHistogram("molecule_atoms", "Atoms per parsed molecule", DefaultSizeBuckets)
	m.MoleculeBonds = collector.RegisterHistogram("molecule_bonds", "Bonds per parsed molecule", DefaultSizeBuckets)

	m.SelectionPicks = collector.RegisterCounter("selection_picks_total", "Atom picks by mode and outcome", "mode", "outcome")

	m.SessionsActive = collector.RegisterGauge("sessions_active", "Open viewer sessions")

	m.SourceFetchTotal = collector.RegisterCounter("source_fetch_total", "Structure fetches by scheme and outcome", "scheme", "status")
	m.SourceFetchBytes = collector.RegisterHistogram("source_fetch_bytes", "Bytes read per fetch", DefaultSizeBuckets, "scheme")

	m.RenderDuration = collector.RegisterSummary("render_duration_seconds", "Time to rasterise a frame", nil, "render_mode")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")

	return m
}

// The recorders below accept a nil receiver so callers can run without
// metrics.

// RecordParse counts one parse and, on success, the molecule size.
func (m *ViewerMetrics) RecordParse(status string, d time.Duration, atoms, bonds int) {
	if m == nil {
		return
	}
	m.ParseTotal.WithLabelValues(status).Inc()
	m.ParseDuration.WithLabelValues().Observe(d.Seconds())
	if status == "ok" {
		m.MoleculeAtoms.WithLabelValues().Observe(float64(atoms))
		m.MoleculeBonds.WithLabelValues().Observe(float64(bonds))
	}
}

func (m *ViewerMetrics) RecordSkipped(reason string) {
	if m == nil {
		return
	}
	m.ParseRecordsSkipped.WithLabelValues(reason).Inc()
}

func (m *ViewerMetrics) RecordPick(mode, outcome string) {
	if m == nil {
		return
	}
	m.SelectionPicks.WithLabelValues(mode, outcome).Inc()
}

func (m *ViewerMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.WithLabelValues().Inc()
}

func (m *ViewerMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.WithLabelValues().Dec()
}

func (m *ViewerMetrics) RecordFetch(scheme, status string, n int64) {
	if m == nil {
		return
	}
	m.SourceFetchTotal.WithLabelValues(scheme, status).Inc()
	if n > 0 {
		m.SourceFetchBytes.WithLabelValues(scheme).Observe(float64(n))
	}
}

func (m *ViewerMetrics) RecordRender(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.RenderDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *ViewerMetrics) RecordHTTPRequest(method, path string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

//Personal.AI order the ending
