// Package app provides the top-level application lifecycle for the arbitrage
// execution engine. It wires the engine, the in-process signal bus, the
// WebSocket hub, and the HTTP API server, and runs them until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openarb/arbengine/internal/bus"
	"github.com/openarb/arbengine/internal/config"
	"github.com/openarb/arbengine/internal/engine"
	"github.com/openarb/arbengine/internal/server"
	"github.com/openarb/arbengine/internal/server/handler"
	"github.com/openarb/arbengine/internal/server/ws"
)

// shutdownTimeout bounds graceful HTTP shutdown on exit.
const shutdownTimeout = 10 * time.Second

// App is the root application object.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies and blocks until the context is cancelled. The
// engine itself is passive — it executes on demand through the API — so the
// long-running goroutines are the HTTP server and the WebSocket hub.
func (a *App) Run(ctx context.Context) error {
	sigBus := bus.New()
	eng := engine.New(a.cfg, engine.SystemRand{}, sigBus, a.logger)

	if !a.cfg.Server.Enabled {
		a.logger.InfoContext(ctx, "server disabled, engine idle until shutdown")
		<-ctx.Done()
		return ctx.Err()
	}

	wsHub := ws.NewHub(sigBus, a.logger)

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(),
		Arb:      handler.NewArbHandler(eng, a.logger),
		Orders:   handler.NewOrderHandler(eng, a.logger),
		Stats:    handler.NewStatsHandler(eng),
		Slippage: handler.NewSlippageHandler(eng, a.logger),
	}
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, wsHub, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return wsHub.Run(ctx)
	})

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: server shutdown: %w", err)
		}
		return ctx.Err()
	})

	return g.Wait()
}
