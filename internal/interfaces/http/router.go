// Package http exposes viewer sessions as a JSON API on gin.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/interfaces/http/handlers"
	"github.com/turtacn/molview/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware dependencies of the
// route tree. Nil members switch the matching feature off.
type RouterConfig struct {
	SessionHandler *handlers.SessionHandler
	HealthHandler  *handlers.HealthHandler

	Logger      logging.Logger
	Metrics     middleware.HTTPMetrics
	CORS        *middleware.CORSConfig
	RateLimiter middleware.RateLimiter

	// MetricsHandler is served at MetricsPath, "/metrics" when empty.
	MetricsHandler http.Handler
	MetricsPath    string

	// MaxBodySize caps request bodies; zero means no cap.
	MaxBodySize int64

	// Mode is the gin mode: debug, release or test.
	Mode string
}

// NewRouter builds the route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	log := cfg.Logger.Named("http")

	r := gin.New()

	// --- Global middleware ---
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.RequestLogging(log, middleware.DefaultLoggingConfig()))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// --- Probes and metrics ---
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsHandler))
	}

	// --- API v1 ---
	api := r.Group("/api/v1")
	if cfg.RateLimiter != nil {
		api.Use(middleware.RateLimit(cfg.RateLimiter, middleware.DefaultRateLimitConfig()))
	}
	if cfg.MaxBodySize > 0 {
		limit := cfg.MaxBodySize
		api.Use(func(c *gin.Context) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
			c.Next()
		})
	}
	if cfg.SessionHandler != nil {
		cfg.SessionHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "COMMON_005", "message": "route not found"})
	})

	return r
}

//Personal.AI order the ending
