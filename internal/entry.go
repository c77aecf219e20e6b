// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/starford/onebridge/internal/api"
	"github.com/starford/onebridge/internal/automation"
	"github.com/starford/onebridge/internal/catalog"
	"github.com/starford/onebridge/internal/mcpserver"
	"github.com/starford/onebridge/internal/notebookservice"
	"github.com/starford/onebridge/internal/onestore"
	"github.com/starford/onebridge/internal/sse"
)

// watchDebounce coalesces bursts of backup writes into one rebuild.
const watchDebounce = 2 * time.Second

// deps is everything a command needs after startup checks passed.
type deps struct {
	cfg     *Config
	logger  *slog.Logger
	builder *catalog.Builder
	svc     *notebookservice.Service
	version string
	out     io.Writer
}

// setup applies options, configures logging and verifies the backup root.
func setup(opts []Option) (*deps, error) {
	app := &application{version: "dev", out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// stdout carries the MCP stream and command output; logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("backup_dir", cfg.OneNote.BackupDir),
		slog.Any("decoder", cfg.Decoder.Command),
		slog.Bool("automation", cfg.Automation.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := catalog.CheckRoot(cfg.OneNote.BackupDir); err != nil {
		return nil, fmt.Errorf("backup folder: %w", err)
	}

	builder := catalog.NewBuilder(cfg.OneNote.BackupDir, logger)
	decoder := onestore.NewCommandDecoder(cfg.Decoder.Command, cfg.Decoder.Timeout)
	extractor := onestore.NewExtractor(decoder, logger)

	var gateway notebookservice.LiveGateway
	if cfg.Automation.Enabled {
		gateway = newGateway(cfg.Automation, logger)
	}

	return &deps{
		cfg:     cfg,
		logger:  logger,
		builder: builder,
		svc:     notebookservice.NewService(builder, extractor, gateway, logger),
		version: app.version,
		out:     app.out,
	}, nil
}

func newGateway(cfg AutomationConfig, logger *slog.Logger) *automation.Gateway {
	runner := &automation.PowerShell{Shell: cfg.Shell, Timeout: cfg.Timeout}
	opts := []automation.GatewayOption{automation.WithLogger(logger)}
	if cfg.SanitizeHTML {
		opts = append(opts, automation.WithSanitizer(bluemonday.UGCPolicy()))
	}
	return automation.NewGateway(automation.NewOpener(runner, logger), opts...)
}

// RunMCP serves the tool surface on stdin/stdout until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	rt.logger.Info("MCP server starting on stdio", slog.String("version", rt.version))
	if err := mcpserver.New(rt.svc, rt.version, rt.logger).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// RunCommand runs one text operation and prints its result.
func RunCommand(ctx context.Context, fn func(context.Context, *notebookservice.Text) string, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(rt.out, fn(ctx, notebookservice.NewText(rt.svc)))
	return err
}

// RunServe starts the HTTP API, the backup watcher and the SSE stream.
func RunServe(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	cfg, logger := rt.cfg, rt.logger

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := catalog.CheckRoot(rt.builder.Root()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"backup folder unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := catalog.Watch(gCtx, rt.builder, watchDebounce, logger, func(c catalog.Change) {
			broker.PublishSectionEvent(c.Kind, c.Notebook, c.Section)
		})
		if err != nil {
			logger.Error("backup watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")
