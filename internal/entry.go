// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultsite/internal/api"
	"github.com/starford/vaultsite/internal/noteservice"
	"github.com/starford/vaultsite/internal/site"
	"github.com/starford/vaultsite/internal/sse"
)

// reloadThrottle bounds how often connected browsers are told to reload.
const reloadThrottle = 500 * time.Millisecond

// Run builds the site, serves it with the preview API and rebuilds on every
// vault change until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("output_dir", cfg.Site.OutputDir),
		slog.String("base", cfg.Site.Base),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	builder, _, err := app.builder(true)
	if err != nil {
		return err
	}

	db, err := app.openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := noteservice.NewService(&site.Current{}, db)
	broker := sse.NewBroker(reloadThrottle)
	defer broker.Close()

	rebuild := func(ctx context.Context) {
		started := time.Now()
		snap, err := builder.Build(ctx)
		if err == nil {
			err = svc.Publish(snap, started)
		}
		if err != nil {
			logger.Error("build failed", slog.String("error", err.Error()))
			broker.PublishBuildFailed(err)
			return
		}
		broker.PublishBuild(snap.ID, len(snap.Collection.Entries), len(snap.Dangling()))
	}

	// A failed first build leaves the API answering 503 until a later
	// rebuild succeeds.
	rebuild(ctx)

	base := builder.Base()
	r := newServeRouter(cfg, base, svc, broker)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Rebuild on vault changes.
	g.Go(func() error {
		if err := site.Watch(gCtx, cfg.Vault.Path, logger, rebuild); err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()), slog.String("base", base+"/"))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// newServeRouter mounts the preview API at {base}/api, the raw Markdown routes
// at {base}/raw and the built site under {base}/. Health endpoints stay at
// the root.
func newServeRouter(cfg *Config, base string, svc *noteservice.Service, events http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := svc.Build(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"building"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount(base+"/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, events))
	r.Mount(base+"/raw", api.NewRawRouter(svc))

	files := http.FileServer(http.Dir(cfg.Site.OutputDir))
	if base != "" {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, base+"/", http.StatusFound)
		})
		files = http.StripPrefix(base, files)
	}
	r.Handle(base+"/*", files)
	return r
}

// errShutdown cancels the errgroup so the watcher stops with the server.
var errShutdown = errors.New("shutdown")
