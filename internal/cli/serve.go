package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"courtbook/internal/database"
	"courtbook/internal/metrics"
	"courtbook/internal/service"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sweeper, backups and health endpoints until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts.app)
		},
	}
}

func serve(ctx context.Context, app *App) error {
	cfg := app.Config
	logger := app.Logger

	sweeper := service.NewSweeper(service.SweeperConfig{
		Interval:   cfg.SweepInterval(),
		RunOnStart: true,
	}, app.Engine, &logger)
	if cfg.Sweeper.Enabled {
		go sweeper.Start(ctx)
	}

	backupLogger := logger.With().Str("component", "backup").Logger()
	backup := database.NewBackupService(app.DB, cfg.Backup, &backupLogger)
	go backup.Start(ctx)

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, healthHandler(app, sweeper, rate.NewLimiter(rate.Every(time.Minute), 1)), &logger)

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	logger.Info().Int("courts", len(cfg.Courts)).Msg("courtbook started")
	<-ctx.Done()
	sweeper.Stop()
	logger.Info().Msg("courtbook stopped")
	return nil
}

// healthHandler serves liveness and readiness probes plus a manual sweep
// trigger limited by sweepLimit.
func healthHandler(app *App, sweeper *service.Sweeper, sweepLimit *rate.Limiter) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctxPing, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := app.DB.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if app.Redis != nil {
			if err := app.Redis.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/sweep", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !sweepLimit.Allow() {
			app.Logger.Warn().Msg("manual sweep rate limit exceeded")
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		res, err := sweeper.RunNow(r.Context())
		if err != nil {
			http.Error(w, "sweep failed", http.StatusInternalServerError)
			return
		}
		_, _ = fmt.Fprintf(w, "completed %d\n", res.CompletedCount)
	})
	return mux
}

func startHealthServer(ctx context.Context, port int, handler http.Handler, logger *zerolog.Logger) {
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
