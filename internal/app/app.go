// Package app wires configuration, the provider registry and the HTTP server
// together and runs them until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/modelcatalog/internal/provider"
	"github.com/florianilch/modelcatalog/internal/server"
)

// App orchestrates the lifecycle of the model catalog server.
type App struct {
	cfg      *Config
	registry *provider.Registry
	server   *server.Server
	health   *Health
}

// New creates an App from cfg. Provider credentials are resolved here, so a
// keyring failure surfaces before anything listens.
func New(cfg *Config, creds CredentialStore) (*App, error) {
	registry, err := cfg.NewRegistry(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider registry: %w", err)
	}

	health := NewHealth()

	observers := server.Observers{server.NewLogObserver(slog.Default())}
	opts := []server.Option{
		server.WithModelsPath(cfg.Server.ModelsPath),
		server.WithMaxRequestBytes(cfg.Server.MaxRequestBytes),
		server.WithReadHeaderTimeout(cfg.Server.ReadHeaderTimeout),
	}
	if cfg.Metrics.Enabled {
		metricsRegistry := server.NewMetricsRegistry()
		observers = append(observers, server.NewMetricsObserver(metricsRegistry))
		opts = append(opts, server.WithMetrics(cfg.Metrics.Path, server.MetricsHandler(metricsRegistry)))
	}
	opts = append(opts, server.WithObserver(observers))

	srv, err := server.New(registry, health, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &App{
		cfg:      cfg,
		registry: registry,
		server:   srv,
		health:   health,
	}, nil
}

// Start starts all services and blocks until ctx is canceled or a service fails.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting model catalog server",
		"providers", a.registry.Names(),
		"models_path", a.cfg.Server.ModelsPath,
	)
	serverErrCh, err := a.server.Start(gCtx, a.cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.server.Shutdown)

	// Runs first on shutdown so probes fail before the listener closes.
	a.health.MarkReady()
	shutdownFuncs = append(shutdownFuncs, func(context.Context) error {
		a.health.MarkDraining()
		return nil
	})

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()

	slog.InfoContext(ctx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.InfoContext(ctx, "application stopped")
	return nil
}
