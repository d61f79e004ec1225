package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/molview/internal/application/session"
	"github.com/turtacn/molview/internal/config"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molview/internal/infrastructure/render/raster"
	httpapi "github.com/turtacn/molview/internal/interfaces/http"
	"github.com/turtacn/molview/internal/interfaces/http/handlers"
	"github.com/turtacn/molview/internal/interfaces/http/middleware"
)

// serverStack is everything serve wires together.
type serverStack struct {
	handler  http.Handler
	registry *session.Registry
	limiter  *middleware.TokenBucketLimiter
}

// Close releases background resources.
func (s *serverStack) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func newServerStack(cmd *cobra.Command) (*serverStack, error) {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return nil, err
	}
	cfg := cc.Config

	// The interfaces stay nil when metrics are off.
	var (
		am          appMetrics
		rendMetrics raster.Metrics
		sessMetrics session.Metrics
		httpMetrics middleware.HTTPMetrics
		metricsH    http.Handler
	)
	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(cfg.CollectorConfig(), cc.Logger)
		if err != nil {
			return nil, err
		}
		vm := prometheus.NewViewerMetrics(collector)
		am = appMetrics{parse: vm, source: vm}
		rendMetrics, sessMetrics, httpMetrics = vm, vm, vm
		metricsH = collector.Handler()
	}

	a, err := newApp(cmd, am)
	if err != nil {
		return nil, err
	}
	newRenderer, err := raster.Factory(cfg.RasterOptions(), cc.Logger, rendMetrics)
	if err != nil {
		return nil, err
	}
	reg := session.NewRegistry(cfg.SessionConfig(), a.parser, newRenderer,
		session.WithFetcher(a.source),
		session.WithLogger(cc.Logger),
		session.WithMetrics(sessMetrics))

	var checkers []handlers.HealthChecker
	if a.store != nil {
		checkers = append(checkers, a.store)
	}

	stack := &serverStack{registry: reg}
	rc := httpapi.RouterConfig{
		SessionHandler: handlers.NewSessionHandler(reg),
		HealthHandler:  handlers.NewHealthHandler(Version, reg, checkers...),
		Logger:         cc.Logger,
		Metrics:        httpMetrics,
		MetricsHandler: metricsH,
		MetricsPath:    cfg.Metrics.Path,
		MaxBodySize:    cfg.Server.MaxBodySize,
		Mode:           cfg.Server.Mode,
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSOrigins
		rc.CORS = &cors
	}
	if cfg.Server.RateLimitRPS > 0 {
		stack.limiter = middleware.NewTokenBucketLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, time.Minute)
		rc.RateLimiter = stack.limiter
	}
	stack.handler = httpapi.NewRouter(rc)
	return stack, nil
}

// janitorInterval sweeps a few times per TTL, at most once a minute.
func janitorInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if iv := ttl / 4; iv < time.Minute {
		return iv
	}
	return time.Minute
}

// serveUntilDone runs start until it fails or ctx ends, then shuts srv
// down within timeout.
func serveUntilDone(ctx context.Context, srv *httpapi.Server, start func() error, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve viewer sessions over HTTP",
		Long: "Start the session API on /api/v1, with /healthz, /readyz and Prometheus\n" +
			"metrics. Changes to the config file's viewer section apply to sessions\n" +
			"created after the change.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cc.Config
			if port > 0 {
				cfg.Server.Port = port
			}

			stack, err := newServerStack(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go stack.registry.RunJanitor(ctx, janitorInterval(cfg.Server.SessionTTL))

			if cc.ConfigPath != "" {
				err := config.Watch(cc.ConfigPath,
					func(next *config.Config) {
						stack.registry.SetViewerDefaults(next.ViewerOptions())
						cc.Logger.Info("configuration reloaded", logging.String("path", cc.ConfigPath))
					},
					func(err error) {
						cc.Logger.Warn("configuration reload rejected", logging.String("path", cc.ConfigPath), logging.Err(err))
					})
				if err != nil {
					cc.Logger.Warn("config watch disabled", logging.Err(err))
				}
			}

			srv := httpapi.NewServer(httpapi.ServerConfig{
				Port:         cfg.Server.Port,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}, stack.handler, cc.Logger)
			if err := serveUntilDone(ctx, srv, srv.Start, cfg.Server.ShutdownTimeout); err != nil {
				return err
			}
			PrintSuccess(cmd, "server stopped")
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port; overrides server.port")
	return cmd
}

//Personal.AI order the ending
