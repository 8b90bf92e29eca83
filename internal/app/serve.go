package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"lease-analyzer/api"
	"lease-analyzer/internal/config"
	"lease-analyzer/internal/logging"
)

// Serve builds the app, runs the HTTP API until ctx is cancelled, then
// shuts down gracefully within cfg.Server.ShutdownTimeout.
func Serve(ctx context.Context, cfg *config.Config, version string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := Build(ctx, cfg, WithRegistry(reg))
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      a.Handler(version, reg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info("lease analysis server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("version", version),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("start server: %w", err)
	case <-ctx.Done():
		logging.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logging.Info("server exited")
	return nil
}

// Handler exposes the app over HTTP. reg receives the API metrics and is
// served on /metrics.
func (a *App) Handler(version string, reg *prometheus.Registry) http.Handler {
	return api.NewServer(api.Deps{
		Analyzer: a.Engine,
		Analyses: a.Store,
		Valuator: a.Valuator,
		Taxes:    a.Taxes,
		Models:   a.Legacy,
		Version:  version,
		Registry: reg,
		Gatherer: reg,
	})
}
