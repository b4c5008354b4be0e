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
	"golang.org/x/sync/errgroup"

	"github.com/starford/mdexport/internal/api"
	"github.com/starford/mdexport/internal/exporter"
	"github.com/starford/mdexport/internal/index"
	"github.com/starford/mdexport/internal/mcpserver"
	"github.com/starford/mdexport/internal/noteservice"
	"github.com/starford/mdexport/internal/resolve"
	"github.com/starford/mdexport/internal/rewrite"
	"github.com/starford/mdexport/internal/sse"
	"github.com/starford/mdexport/internal/storage"
)

// runtime holds the components every entry point shares.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	stdout io.Writer
	vault  *storage.FS
	out    *storage.FS
	db     *index.DB
	svc    *noteservice.Service
}

// newRuntime applies opts, opens the vault, output tree and index, syncs
// the index and wires the export service.
func newRuntime(opts []Option) (*runtime, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logOutput == nil {
		app.logOutput = os.Stdout
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("output_path", cfg.Export.Output),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	vault, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}
	out, err := storage.CreateFS(cfg.Export.Output)
	if err != nil {
		return nil, fmt.Errorf("init output: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(db, vault, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("initial sync: %w", err)
	}

	settings := cfg.Export.Settings
	settings.Output = out.Root()

	resolver := resolve.New(db, logger)
	exp := exporter.New(vault, out, rewrite.New(resolver, vault), logger)

	return &runtime{
		cfg:    cfg,
		logger: logger,
		stdout: app.stdout,
		vault:  vault,
		out:    out,
		db:     db,
		svc:    noteservice.NewService(vault, db, exp, resolver, settings, logger),
	}, nil
}

func (rt *runtime) Close() error {
	return rt.db.Close()
}

// Export exports root (a vault-relative note or folder, "" for the whole
// vault) and prints the report. The returned error joins every failed
// document's error.
func Export(ctx context.Context, root string, opts ...Option) error {
	rt, err := newRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.svc.Export(ctx, noteservice.ExportRequest{Root: root}, nil)
	if report != nil {
		printReport(rt.stdout, report)
	}
	if err != nil {
		return fmt.Errorf("export %q: %w", root, err)
	}
	return report.Err()
}

// Preview prints the exported form of the note at notePath without
// writing anything.
func Preview(ctx context.Context, notePath string, opts ...Option) error {
	rt, err := newRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	p, err := rt.svc.Preview(ctx, notePath)
	if err != nil {
		return err
	}
	_, err = io.WriteString(rt.stdout, p.Content)
	return err
}

// Watch exports the whole vault, then re-exports affected notes whenever
// the vault changes, until ctx is cancelled or a signal arrives.
func Watch(ctx context.Context, opts ...Option) error {
	rt, err := newRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := rt.svc.Export(ctx, noteservice.ExportRequest{}, nil)
	if err != nil {
		return fmt.Errorf("initial export: %w", err)
	}
	printReport(rt.stdout, report)

	return rt.watch(ctx, nil)
}

// watch runs the vault watcher, re-exporting what each change affects.
// Progress goes to broker when it is non-nil.
func (rt *runtime) watch(ctx context.Context, broker *sse.Broker) error {
	notify := api.BrokerNotify(broker)
	return index.Watch(ctx, rt.db, rt.vault, rt.vault.Root(), rt.logger, func(kind, path string) {
		report, err := rt.svc.Changed(ctx, kind, path, notify)
		if err != nil {
			rt.logger.Warn("watch: re-export failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return
		}
		if report != nil && broker != nil {
			broker.PublishFinished(report.ID, map[string]any{
				"run_id":   report.ID,
				"changed":  path,
				"exported": len(report.Exported),
				"failed":   len(report.Failed),
			})
		}
	})
}

// ServeMCP serves the MCP tools on stdin/stdout.
func ServeMCP(ctx context.Context, opts ...Option) error {
	rt, err := newRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.svc).ServeStdio()
}

// Run starts the HTTP API with the given options. The vault is watched and
// affected notes are re-exported while the server runs.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := newRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.cfg
	logger := rt.logger

	// SSE broker.
	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher; re-export progress goes to SSE clients.
	g.Go(func() error {
		return rt.watch(gCtx, broker)
	})

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

// errShutdown ends the run group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

func printReport(w io.Writer, r *exporter.Report) {
	for _, d := range r.Exported {
		status := "exported"
		if d.Skipped {
			status = "skipped"
		}
		fmt.Fprintf(w, "%-8s %s -> %s\n", status, d.Path, d.Output)
	}
	for _, f := range r.Failed {
		fmt.Fprintf(w, "%-8s %s: %s: %v\n", "failed", f.Path, f.Op, f.Err)
	}
	fmt.Fprintf(w, "run %s: %d exported, %d failed in %s\n",
		r.ID, len(r.Exported), len(r.Failed), r.Duration.Round(time.Millisecond))
}
