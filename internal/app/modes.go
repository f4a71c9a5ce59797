package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avelory/steamflipper/internal/scanner"
	"github.com/avelory/steamflipper/internal/server"
	"github.com/avelory/steamflipper/internal/server/handler"
	"github.com/avelory/steamflipper/internal/server/ws"
)

// ScanMode runs the scan loop (and the export loop, when configured) without
// the HTTP API.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	g, ctx := errgroup.WithContext(ctx)

	sc := a.buildScanner(deps, nil)
	g.Go(func() error {
		return sc.Run(ctx)
	})

	a.startExporter(ctx, g, deps)

	return g.Wait()
}

// ServeMode runs only the HTTP API over an existing evaluation history; no
// scanning happens. Useful for a read replica or a dashboard backend.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	hub := ws.NewHub(a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	a.startHTTPServer(ctx, g, deps, hub, nil)

	return g.Wait()
}

// FullMode runs everything: the scan loop, the HTTP API with scan-on-add,
// the WebSocket event stream, and the export loop.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	hub := ws.NewHub(a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	sc := a.buildScanner(deps, hub)
	g.Go(func() error {
		return sc.Run(ctx)
	})

	a.startHTTPServer(ctx, g, deps, hub, sc)
	a.startExporter(ctx, g, deps)

	return g.Wait()
}

// buildScanner assembles the scanner from wired dependencies. pub may be nil.
func (a *App) buildScanner(deps *Dependencies, pub scanner.Publisher) *scanner.Scanner {
	gate := scanner.NewGate(deps.Cooldowns, a.cfg.Notify.Cooldown.Duration)

	var notifier scanner.Notifier
	if deps.Notifier != nil {
		notifier = deps.Notifier
	}

	return scanner.New(
		deps.Steam,
		deps.Opportunities,
		deps.Watchlist,
		gate,
		notifier,
		pub,
		scanner.Config{
			Interval:  a.cfg.Scan.Interval.Duration,
			ItemDelay: a.cfg.Scan.ItemDelay.Duration,
			Policy:    a.cfg.Policy.ToPolicy(),
		},
		a.logger,
	)
}

// startHTTPServer adds the API server plus its graceful-shutdown goroutine to
// the given errgroup. sc is optional; when non-nil, POST /api/watchlist scans
// the added item immediately.
func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	hub *ws.Hub,
	sc handler.ItemScanner,
) {
	watchlistH := handler.NewWatchlistHandler(deps.Watchlist, a.logger)
	if sc != nil {
		watchlistH = watchlistH.WithScanner(sc)
	}

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
		},
		server.Handlers{
			Health:        handler.NewHealthHandler(a.cfg.Mode, a.logger),
			Opportunities: handler.NewOpportunityHandler(deps.Opportunities, a.logger),
			Watchlist:     watchlistH,
		},
		hub,
		a.logger,
	)

	g.Go(func() error {
		if err := srv.Start(); err != nil {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// startExporter adds the export loop when an exporter was wired.
func (a *App) startExporter(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.Exporter == nil {
		return
	}
	a.logger.InfoContext(ctx, "starting history export loop",
		slog.Duration("interval", a.cfg.S3.ExportInterval.Duration),
	)
	g.Go(func() error {
		return deps.Exporter.Run(ctx)
	})
}
