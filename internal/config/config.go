// Package config defines the configuration structures for molview. No I/O
// lives in this file, only plain data types, validation and conversion into
// the option structs of the packages that consume them.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/molview/internal/application/session"
	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/domain/molecule"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molview/internal/infrastructure/render/raster"
	"github.com/turtacn/molview/internal/infrastructure/source"
	"github.com/turtacn/molview/internal/infrastructure/storage/minio"
	mtypes "github.com/turtacn/molview/pkg/types/molecule"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ViewerConfig holds the display and interaction settings applied to every
// loaded molecule.
type ViewerConfig struct {
	RenderMode         string  `mapstructure:"render_mode"`    // "ball_and_stick" | "space_fill" | "sticks"
	SelectionMode      string  `mapstructure:"selection_mode"` // "identify" | "distance" | "rotation" | "torsion"
	ColorMode          string  `mapstructure:"color_mode"`     // "cpk" | "amino_acid"
	AtomRadiusMode     string  `mapstructure:"atom_radius_mode"`
	AtomRadiusScale    float64 `mapstructure:"atom_radius_scale"`
	EstimateBondOrders bool    `mapstructure:"estimate_bond_orders"`
	AutoCenter         bool    `mapstructure:"auto_center"`
	Selectable         bool    `mapstructure:"selectable"`
}

// RenderConfig holds raster output settings.
type RenderConfig struct {
	Width          int     `mapstructure:"width"`
	Height         int     `mapstructure:"height"`
	Background     string  `mapstructure:"background"`      // "#RRGGBB"
	HighlightColor string  `mapstructure:"highlight_color"` // "#RRGGBB"
	Scale          float64 `mapstructure:"scale"`           // pixels per file unit; 0 fits the molecule
}

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxSessions     int           `mapstructure:"max_sessions"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	// CORSOrigins enables CORS for the listed origins; empty disables it.
	CORSOrigins []string `mapstructure:"cors_origins"`
	// RateLimitRPS is the per-client request rate on /api/v1; 0 disables limiting.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters used by
// the s3:// structure source.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// StorageConfig groups object-storage backends.
type StorageConfig struct {
	MinIO MinIOConfig `mapstructure:"minio"`
}

// SourceConfig limits remote structure downloads.
type SourceConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	MaxBytes    int64         `mapstructure:"max_bytes"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
	Path      string `mapstructure:"path"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Viewer  ViewerConfig  `mapstructure:"viewer"`
	Render  RenderConfig  `mapstructure:"render"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Source  SourceConfig  `mapstructure:"source"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Viewer
	if !mtypes.RenderMode(c.Viewer.RenderMode).IsValid() {
		return fmt.Errorf("config: viewer.render_mode %q is invalid; expected ball_and_stick|space_fill|sticks", c.Viewer.RenderMode)
	}
	if !mtypes.SelectionMode(c.Viewer.SelectionMode).IsValid() {
		return fmt.Errorf("config: viewer.selection_mode %q is invalid; expected identify|distance|rotation|torsion", c.Viewer.SelectionMode)
	}
	if !mtypes.ColorMode(c.Viewer.ColorMode).IsValid() {
		return fmt.Errorf("config: viewer.color_mode %q is invalid; expected cpk|amino_acid", c.Viewer.ColorMode)
	}
	if !mtypes.RadiusMode(c.Viewer.AtomRadiusMode).IsValid() {
		return fmt.Errorf("config: viewer.atom_radius_mode %q is invalid; expected accurate|reduced|uniform", c.Viewer.AtomRadiusMode)
	}
	if c.Viewer.AtomRadiusScale <= 0 {
		return fmt.Errorf("config: viewer.atom_radius_scale must be > 0, got %v", c.Viewer.AtomRadiusScale)
	}

	// Render
	if c.Render.Width < 1 || c.Render.Height < 1 {
		return fmt.Errorf("config: render size %dx%d must be positive", c.Render.Width, c.Render.Height)
	}
	if !isHexColor(c.Render.Background) {
		return fmt.Errorf("config: render.background %q is not #RRGGBB", c.Render.Background)
	}
	if !isHexColor(c.Render.HighlightColor) {
		return fmt.Errorf("config: render.highlight_color %q is not #RRGGBB", c.Render.HighlightColor)
	}
	if c.Render.Scale < 0 {
		return fmt.Errorf("config: render.scale must be >= 0, got %v", c.Render.Scale)
	}

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.MaxSessions < 0 {
		return fmt.Errorf("config: server.max_sessions must be >= 0, got %d", c.Server.MaxSessions)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must be >= 0, got %v", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("config: server.rate_limit_burst must be >= 1 when rate limiting is on, got %d", c.Server.RateLimitBurst)
	}

	// Source
	if c.Source.MaxBytes < 1 {
		return fmt.Errorf("config: source.max_bytes must be >= 1, got %d", c.Source.MaxBytes)
	}

	// MinIO is optional; a partial configuration is a mistake.
	if m := c.Storage.MinIO; m.Endpoint != "" && (m.AccessKey == "") != (m.SecretKey == "") {
		return fmt.Errorf("config: storage.minio.access_key and secret_key must be set together")
	}

	// Metrics
	if c.Metrics.Enabled {
		if c.Metrics.Namespace == "" {
			return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("config: metrics.path %q must start with /", c.Metrics.Path)
		}
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Conversions
// ─────────────────────────────────────────────────────────────────────────────

// MoleculeOptions returns the settings molecules are built with.
func (c *Config) MoleculeOptions() molecule.Options {
	return molecule.Options{
		RadiusMode:         mtypes.RadiusMode(c.Viewer.AtomRadiusMode),
		RadiusScale:        c.Viewer.AtomRadiusScale,
		ColorMode:          mtypes.ColorMode(c.Viewer.ColorMode),
		RenderMode:         mtypes.RenderMode(c.Viewer.RenderMode),
		EstimateBondOrders: c.Viewer.EstimateBondOrders,
	}
}

// ViewerOptions returns the interaction settings for a Viewer.
func (c *Config) ViewerOptions() viewer.Options {
	return viewer.Options{
		SelectionMode: mtypes.SelectionMode(c.Viewer.SelectionMode),
		Selectable:    c.Viewer.Selectable,
		AutoCenter:    c.Viewer.AutoCenter,
	}
}

// SessionConfig returns the bounds of the session registry.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		MaxSessions: c.Server.MaxSessions,
		IdleTTL:     c.Server.SessionTTL,
		Viewer:      c.ViewerOptions(),
	}
}

// RasterOptions returns the canvas settings for raster.New.
func (c *Config) RasterOptions() raster.Options {
	return raster.Options{
		Width:      c.Render.Width,
		Height:     c.Render.Height,
		Background: c.Render.Background,
		Highlight:  c.Render.HighlightColor,
		Scale:      c.Render.Scale,
	}
}

// SourceConfig returns the limits for source.NewRouter.
func (c *Config) SourceConfig() source.Config {
	return source.Config{HTTPTimeout: c.Source.HTTPTimeout, MaxBytes: c.Source.MaxBytes}
}

// ObjectStoreConfig returns the MinIO connection settings. ok is false when
// no endpoint is configured.
func (c *Config) ObjectStoreConfig() (cfg minio.Config, ok bool) {
	m := c.Storage.MinIO
	return minio.Config{
		Endpoint:  m.Endpoint,
		AccessKey: m.AccessKey,
		SecretKey: m.SecretKey,
		UseSSL:    m.UseSSL,
		Region:    m.Region,
		Bucket:    m.Bucket,
	}, m.Endpoint != ""
}

// LoggerConfig returns the settings for logging.NewLogger.
func (c *Config) LoggerConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:       c.Log.Level,
		Format:      c.Log.Format,
		OutputPaths: c.Log.OutputPaths,
	}
}

// CollectorConfig returns the settings for prometheus.NewMetricsCollector.
func (c *Config) CollectorConfig() prometheus.CollectorConfig {
	return prometheus.CollectorConfig{
		Namespace:       c.Metrics.Namespace,
		Subsystem:       c.Metrics.Subsystem,
		EnableGoMetrics: true,
	}
}

//Personal.AI order the ending
