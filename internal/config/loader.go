package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "MOLVIEW"

var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParse        = errors.New("config: parse error")
	ErrConfigValidation   = errors.New("config: validation failed")
)

// newViper builds a pre-configured Viper instance: YAML file type, MOLVIEW_
// env prefix, automatic env binding, and a key replacer that maps "." to "_"
// so that nested keys like "server.port" resolve to "MOLVIEW_SERVER_PORT".
// Every key is registered with its default so that AutomaticEnv can see it
// even when no file mentions it.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerDefaults(v, NewDefaultConfig())
	return v
}

func registerDefaults(v *viper.Viper, d *Config) {
	for key, val := range map[string]interface{}{
		"viewer.render_mode":          d.Viewer.RenderMode,
		"viewer.selection_mode":       d.Viewer.SelectionMode,
		"viewer.color_mode":           d.Viewer.ColorMode,
		"viewer.atom_radius_mode":     d.Viewer.AtomRadiusMode,
		"viewer.atom_radius_scale":    d.Viewer.AtomRadiusScale,
		"viewer.estimate_bond_orders": d.Viewer.EstimateBondOrders,
		"viewer.auto_center":          d.Viewer.AutoCenter,
		"viewer.selectable":           d.Viewer.Selectable,

		"render.width":           d.Render.Width,
		"render.height":          d.Render.Height,
		"render.background":      d.Render.Background,
		"render.highlight_color": d.Render.HighlightColor,
		"render.scale":           d.Render.Scale,

		"server.port":             d.Server.Port,
		"server.mode":             d.Server.Mode,
		"server.read_timeout":     d.Server.ReadTimeout,
		"server.write_timeout":    d.Server.WriteTimeout,
		"server.max_body_size":    d.Server.MaxBodySize,
		"server.shutdown_timeout": d.Server.ShutdownTimeout,
		"server.max_sessions":     d.Server.MaxSessions,
		"server.session_ttl":      d.Server.SessionTTL,
		"server.cors_origins":     d.Server.CORSOrigins,
		"server.rate_limit_rps":   d.Server.RateLimitRPS,
		"server.rate_limit_burst": d.Server.RateLimitBurst,

		"storage.minio.endpoint":   d.Storage.MinIO.Endpoint,
		"storage.minio.access_key": d.Storage.MinIO.AccessKey,
		"storage.minio.secret_key": d.Storage.MinIO.SecretKey,
		"storage.minio.bucket":     d.Storage.MinIO.Bucket,
		"storage.minio.region":     d.Storage.MinIO.Region,
		"storage.minio.use_ssl":    d.Storage.MinIO.UseSSL,

		"source.http_timeout": d.Source.HTTPTimeout,
		"source.max_bytes":    d.Source.MaxBytes,

		"metrics.enabled":   d.Metrics.Enabled,
		"metrics.namespace": d.Metrics.Namespace,
		"metrics.subsystem": d.Metrics.Subsystem,
		"metrics.path":      d.Metrics.Path,

		"log.level":        d.Log.Level,
		"log.format":       d.Log.Format,
		"log.output_paths": d.Log.OutputPaths,
	} {
		v.SetDefault(key, val)
	}
}

// Load reads the YAML file at configPath, merges any MOLVIEW_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(configPath); errors.Is(statErr, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from MOLVIEW_* environment variables and
// defaults, with no config file.
//
//	MOLVIEW_<SECTION>_<FIELD>   e.g.  MOLVIEW_SERVER_PORT, MOLVIEW_STORAGE_MINIO_ENDPOINT
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// LoadOrDefault loads configPath when it is non-empty and falls back to
// LoadFromEnv otherwise.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	return Load(configPath)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}

	return cfg, nil
}

// Watch reloads configPath whenever it changes on disk and passes the new
// Config to onChange. A change that fails to parse or validate goes to
// onError instead, when onError is non-nil, and the previous configuration
// stays in force. Watch returns after the initial read; the watching runs in
// a goroutine managed by viper for the life of the process.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	v.OnConfigChange(func(ev fsnotify.Event) {
		if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad is Load that panics on any error, for use in main().
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
