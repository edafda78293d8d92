// Package main runs the catalog HTTP API.
package main

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

	"github.com/bookshelf/catalog-service/internal/catalog"
	"github.com/bookshelf/catalog-service/internal/config"
	"github.com/bookshelf/catalog-service/internal/database"
	"github.com/bookshelf/catalog-service/internal/observability"
	"github.com/bookshelf/catalog-service/internal/repository"
	httpserver "github.com/bookshelf/catalog-service/internal/server/http"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// runnable is a server started in the background and stopped on shutdown.
type runnable struct {
	name     string
	start    func() error
	shutdown func(context.Context) error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.WithComponent(observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	}), "server")
	logger.Info().Str("version", version).Msg("starting catalog-service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.MigrationAutoRun {
		if err := migrate(db, cfg.Database.MigrationPath, logger); err != nil {
			return err
		}
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	store := repository.NewStore(db)
	svc := catalog.NewService(store.Categories(), store.Books(), store, logger, metrics)

	api := httpserver.NewServer(httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimitRPS:    cfg.Server.RateLimitRPS,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		Version:         version,
	}, svc, db, logger, metrics)

	servers := []runnable{{name: "api", start: api.Start, shutdown: api.Shutdown}}
	if cfg.Metrics.Enabled {
		servers = append(servers, metricsServer(cfg, logger))
	}

	return serve(ctx, servers, cfg.Server.ShutdownTimeout, logger)
}

// metricsServer exposes the Prometheus registry on its own port so scrapes
// never compete with API traffic.
func metricsServer(cfg *config.Config, logger zerolog.Logger) runnable {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	srv := &http.Server{
		Addr:         cfg.Server.MetricsAddress(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return runnable{
		name: "metrics",
		start: func() error {
			logger.Info().Str("address", srv.Addr).Str("path", cfg.Metrics.Path).Msg("metrics server starting")
			return srv.ListenAndServe()
		},
		shutdown: srv.Shutdown,
	}
}

// serve starts every server and blocks until ctx is cancelled or one of them
// fails, then shuts them all down within timeout.
func serve(ctx context.Context, servers []runnable, timeout time.Duration, logger zerolog.Logger) error {
	errCh := make(chan error, len(servers))
	for _, s := range servers {
		go func(s runnable) {
			if err := s.start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("%s server: %w", s.name, err)
			}
		}(s)
	}
	logger.Info().Int("servers", len(servers)).Msg("catalog-service is ready")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, s := range servers {
		if err := s.shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("server", s.name).Msg("shutdown error")
		}
	}

	logger.Info().Msg("catalog-service stopped")
	return runErr
}
