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
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/starford/subtaste/internal/api"
	"github.com/starford/subtaste/internal/genomeservice"
	"github.com/starford/subtaste/internal/genomestore"
	"github.com/starford/subtaste/internal/inbox"
	"github.com/starford/subtaste/internal/mcpserver"
	"github.com/starford/subtaste/internal/metrics"
	"github.com/starford/subtaste/internal/sse"
	"github.com/starford/subtaste/internal/storage"
)

var _ genomeservice.Publisher = (*sse.Broker)(nil)

// components are the pieces shared by the HTTP and MCP front ends.
type components struct {
	store    genomestore.Store
	svc      *genomeservice.Service
	inbox    *storage.FS
	recorder *metrics.Recorder
	gatherer prometheus.Gatherer
}

func (a *application) build(ctx context.Context, logger *slog.Logger, publisher genomeservice.Publisher) (*components, error) {
	cfg := a.config

	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	var gat prometheus.Gatherer = prometheus.DefaultGatherer
	if a.registry != nil {
		reg, gat = a.registry, a.registry
	}
	recorder, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	store, err := genomestore.Open(ctx, cfg.Store.Config)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	opts := []genomeservice.Option{
		genomeservice.WithTuning(cfg.Scoring),
		genomeservice.WithEvolution(cfg.Evolution),
		genomeservice.WithLogger(logger),
		genomeservice.WithMetrics(recorder),
	}
	if publisher != nil {
		opts = append(opts, genomeservice.WithPublisher(publisher))
	}

	c := &components{
		store:    store,
		svc:      genomeservice.New(store, opts...),
		recorder: recorder,
		gatherer: gat,
	}

	if cfg.Inbox.Enabled {
		if err := os.MkdirAll(cfg.Inbox.Path, 0o755); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("create inbox dir: %w", err)
		}
		fs, err := storage.NewFS(cfg.Inbox.Path)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init inbox: %w", err)
		}
		c.inbox = fs
	}
	return c, nil
}

// inboxProvider returns the inbox as a storage.Provider, or a nil interface
// when the inbox is disabled.
func (c *components) inboxProvider() storage.Provider {
	if c.inbox == nil {
		return nil
	}
	return c.inbox
}

func (c *components) processor(cfg *Config, logger *slog.Logger, cb inbox.EventCallback) *inbox.Processor {
	return inbox.New(c.inbox, c.svc, logger,
		inbox.WithMetrics(c.recorder),
		inbox.WithKeepProcessed(cfg.Inbox.KeepProcessed),
		inbox.WithRetryInterval(cfg.Inbox.RetryInterval),
		inbox.WithCallback(cb),
	)
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.Bool("inbox_enabled", cfg.Inbox.Enabled),
		slog.String("inbox_path", cfg.Inbox.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(cfg.SSE.DriftThrottle)
	defer broker.Close()

	c, err := app.build(ctx, logger, broker)
	if err != nil {
		return err
	}
	defer c.store.Close()

	var proc *inbox.Processor
	if c.inbox != nil {
		proc = c.processor(cfg, logger, broker.PublishInboxEvent)
		// Run initial sync.
		if err := proc.Sync(ctx); err != nil {
			logger.Warn("initial inbox sync failed", slog.String("error", err.Error()))
		}
	}

	apiRouter := api.NewRouter(c.svc, c.inboxProvider(), cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
		if _, _, err := c.store.List(req.Context(), 1, 0); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metrics.Handler(c.gatherer))
	}

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start inbox watcher.
	if proc != nil {
		g.Go(func() error {
			if err := proc.Watch(gCtx, c.inbox.Root()); err != nil {
				logger.Error("inbox watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

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

// errShutdown cancels the group so the inbox watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	c, err := app.build(ctx, logger, nil)
	if err != nil {
		return err
	}
	defer c.store.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.inbox != nil {
		proc := c.processor(cfg, logger, nil)
		if err := proc.Sync(ctx); err != nil {
			logger.Warn("initial inbox sync failed", slog.String("error", err.Error()))
		}
		go func() {
			if err := proc.Watch(ctx, c.inbox.Root()); err != nil {
				logger.Error("inbox watcher failed", slog.String("error", err.Error()))
			}
		}()
	}

	logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(c.svc, c.inboxProvider(), app.version).ServeStdio()
}
