// Package app owns the server runtime: wiring the job manager to the HTTP
// surface, readiness, and graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shemshallah/quantum-foam-rng/pkg/config"
	"github.com/shemshallah/quantum-foam-rng/pkg/jobs"
	"github.com/shemshallah/quantum-foam-rng/pkg/server/api"
	"github.com/shemshallah/quantum-foam-rng/pkg/server/httpx"
)

// App is the assembled server: one HTTP listener in front of one job
// manager.
type App struct {
	cfg     config.Config
	manager *jobs.Manager
	ready   *atomic.Bool
	server  *http.Server
	logger  zerolog.Logger
}

// New wires the app. The manager must not have been started yet; Run binds
// it to the run context.
func New(_ context.Context, cfg config.Config, manager *jobs.Manager) (*App, error) {
	if manager == nil {
		return nil, errors.New("job manager is required")
	}

	ready := &atomic.Bool{}
	deps := &api.Deps{
		Jobs:            manager,
		DefaultAngleDeg: cfg.Entropy.AngleDeg,
		Ready:           ready,
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Addr, strconv.Itoa(cfg.Server.Port)),
		Handler:      httpx.NewRouter(cfg.Server, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		cfg:     cfg,
		manager: manager,
		ready:   ready,
		server:  server,
		logger:  log.With().Str("component", "app").Logger(),
	}, nil
}

// Run serves until ctx ends, then drains connections within the configured
// shutdown timeout. In-flight jobs are canceled through the same context.
func (a *App) Run(ctx context.Context) error {
	a.manager.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().
			Str("addr", a.server.Addr).
			Msg("HTTP server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	a.ready.Store(true)

	select {
	case err := <-errCh:
		a.ready.Store(false)
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.ready.Store(false)
	a.logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
