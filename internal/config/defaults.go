package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultRenderMode      = "ball_and_stick"
	DefaultSelectionMode   = "identify"
	DefaultColorMode       = "cpk"
	DefaultAtomRadiusMode  = "reduced"
	DefaultAtomRadiusScale = 1.0

	DefaultRenderWidth     = 800
	DefaultRenderHeight    = 600
	DefaultRenderBg        = "#000000"
	DefaultRenderHighlight = "#FFD700"

	DefaultServerPort        = 8080
	DefaultServerMode        = "release"
	DefaultReadTimeout       = 15 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultMaxBodySize       = 32 << 20
	DefaultMaxSessions       = 256
	DefaultSessionTTL        = 30 * time.Minute
	DefaultRateLimitBurst    = 20
	DefaultSourceHTTPTimeout = 30 * time.Second
	DefaultSourceMaxBytes    = 64 << 20

	DefaultMinIORegion = "us-east-1"

	DefaultMetricsNamespace = "molview"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// NewDefaultConfig returns a Config with every field at its default,
// including the switches that default to on.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Viewer.EstimateBondOrders = true
	cfg.Viewer.AutoCenter = true
	cfg.Viewer.Selectable = true
	cfg.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-value field in cfg with its default.
// Fields already set are left unchanged so that explicit configuration
// always wins. Booleans cannot be told apart from an explicit false and are
// left alone; the loader registers their defaults with viper instead.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Viewer ────────────────────────────────────────────────────────────────
	if cfg.Viewer.RenderMode == "" {
		cfg.Viewer.RenderMode = DefaultRenderMode
	}
	if cfg.Viewer.SelectionMode == "" {
		cfg.Viewer.SelectionMode = DefaultSelectionMode
	}
	if cfg.Viewer.ColorMode == "" {
		cfg.Viewer.ColorMode = DefaultColorMode
	}
	if cfg.Viewer.AtomRadiusMode == "" {
		cfg.Viewer.AtomRadiusMode = DefaultAtomRadiusMode
	}
	if cfg.Viewer.AtomRadiusScale == 0 {
		cfg.Viewer.AtomRadiusScale = DefaultAtomRadiusScale
	}

	// ── Render ────────────────────────────────────────────────────────────────
	if cfg.Render.Width == 0 {
		cfg.Render.Width = DefaultRenderWidth
	}
	if cfg.Render.Height == 0 {
		cfg.Render.Height = DefaultRenderHeight
	}
	if cfg.Render.Background == "" {
		cfg.Render.Background = DefaultRenderBg
	}
	if cfg.Render.HighlightColor == "" {
		cfg.Render.HighlightColor = DefaultRenderHighlight
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.MaxSessions == 0 {
		cfg.Server.MaxSessions = DefaultMaxSessions
	}
	if cfg.Server.SessionTTL == 0 {
		cfg.Server.SessionTTL = DefaultSessionTTL
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultRateLimitBurst
	}

	// ── Storage / Source ──────────────────────────────────────────────────────
	if cfg.Storage.MinIO.Region == "" {
		cfg.Storage.MinIO.Region = DefaultMinIORegion
	}
	if cfg.Source.HTTPTimeout == 0 {
		cfg.Source.HTTPTimeout = DefaultSourceHTTPTimeout
	}
	if cfg.Source.MaxBytes == 0 {
		cfg.Source.MaxBytes = DefaultSourceMaxBytes
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stderr"}
	}
}

//Personal.AI order the ending
