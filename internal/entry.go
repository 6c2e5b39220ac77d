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

	"github.com/starford/framelens/internal/api"
	"github.com/starford/framelens/internal/canvas"
	"github.com/starford/framelens/internal/credential"
	"github.com/starford/framelens/internal/enhance"
	"github.com/starford/framelens/internal/extractor"
	"github.com/starford/framelens/internal/locale"
	"github.com/starford/framelens/internal/mcpserver"
	"github.com/starford/framelens/internal/raster"
	"github.com/starford/framelens/internal/session"
	"github.com/starford/framelens/internal/sse"
	"github.com/starford/framelens/internal/storage"
	"github.com/starford/framelens/internal/store"
)

var errConfigRequired = errors.New("config is required")

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// newExtractor builds the heuristic extractor, with language detection
// when configured.
func newExtractor(cfg LocaleConfig, logger *slog.Logger) (*extractor.Extractor, error) {
	if !cfg.Detect {
		return extractor.New(), nil
	}
	det, err := locale.New(cfg.Languages, cfg.MinDistance)
	if err != nil {
		return nil, fmt.Errorf("init locale detector: %w", err)
	}
	logger.Info("Locale detection enabled", slog.Int("languages", len(cfg.Languages)))
	return extractor.New(extractor.WithLocaleDetector(det)), nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.Store.SQLitePath),
		slog.String("images_path", cfg.Store.ImagesPath),
		slog.String("document_path", cfg.Canvas.DocumentPath),
		slog.String("enhance_endpoint", cfg.Enhance.Endpoint),
		slog.String("enhance_model", cfg.Enhance.Model),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize image storage.
	images, err := storage.NewFS(cfg.Store.ImagesPath)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite store.
	db, err := store.Open(cfg.Store.SQLitePath)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// Drop images left behind by interrupted saves.
	if n, err := store.PruneImages(ctx, db, images, logger); err != nil {
		logger.Warn("image prune failed", slog.String("error", err.Error()))
	} else if n > 0 {
		logger.Info("Pruned orphan images", slog.Int("count", n))
	}

	ext, err := newExtractor(cfg.Locale, logger)
	if err != nil {
		return err
	}

	// Canvas document.
	source := canvas.NewSource()
	if cfg.Canvas.DocumentPath != "" {
		if err := source.LoadFile(cfg.Canvas.DocumentPath); err != nil {
			logger.Warn("initial document load failed", slog.String("error", err.Error()))
		}
	}

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	orch := session.New(session.Deps{
		Selection:   source,
		Emitter:     broker,
		Extractor:   ext,
		Rasterizer:  raster.NewPainter(cfg.Raster.Scale),
		Enhancer:    enhance.New(cfg.Enhance.Client(), enhance.WithLogger(logger)),
		Analyses:    db,
		Images:      images,
		Credentials: credential.NewCache(db.Credentials(store.DefaultCredentialSlot)),
		Logger:      logger,
	})
	defer orch.Close()
	orch.Start(ctx, cfg.Enhance.APIKey)

	apiRouter := api.NewRouter(api.Deps{
		Session:   orch,
		Documents: source,
		Analyses:  db,
		Images:    images,
		Events:    broker,
	}, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Mount("/health", api.HealthRouter(func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return db.Ping(pingCtx)
	}))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the document when the host rewrites it.
	if cfg.Canvas.DocumentPath != "" && cfg.Canvas.Watch {
		g.Go(func() error {
			err := source.Watch(gCtx, cfg.Canvas.DocumentPath, logger, func(path string) {
				logger.Info("Document reloaded", slog.String("document", path))
			})
			if err != nil {
				logger.Error("document watcher failed", slog.String("error", err.Error()))
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
		// SSE streams only end when the broker closes.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr so they
// do not corrupt the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)

	db, err := store.Open(cfg.Store.SQLitePath)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	ext, err := newExtractor(cfg.Locale, logger)
	if err != nil {
		return err
	}

	srv := mcpserver.New(ext, raster.NewPainter(cfg.Raster.Scale), db)
	logger.Info("MCP server starting on stdio", slog.String("sqlite_path", cfg.Store.SQLitePath))
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
