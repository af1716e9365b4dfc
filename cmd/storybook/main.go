// Package main is the entry point for the storybook server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storybook/internal/cache"
	"storybook/internal/catalog"
	"storybook/internal/config"
	"storybook/internal/database"
	"storybook/internal/generation"
	"storybook/internal/handlers"
	"storybook/internal/history"
	"storybook/internal/middleware"
	"storybook/internal/remote"
	"storybook/internal/router"
	"storybook/internal/storage"
	"storybook/internal/store"
	"storybook/internal/stories"
	"storybook/internal/websocket"
)

// artifactStore holds rendered storybooks and thumbnails: S3 when
// configured, Valkey otherwise.
type artifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, keys ...string) error
}

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON elsewhere.
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var logHandler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		logHandler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(logHandler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the built-in themes (no-op if themes already exist).
	if err := database.Seed(db, catalog.Builtin()); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (artifacts, drafts, generation tracking, progress).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Artifacts go to S3 when configured and to Valkey otherwise.
	var artifacts artifactStore = cache.NewBlobCache(valkeyClient, cfg.ArtifactTTL)
	var presigner handlers.Presigner
	if cfg.S3Configured() {
		storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		artifacts = storageClient
		presigner = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", storageClient.Bucket())
	} else {
		slog.Warn("s3 storage not configured, artifacts kept in valkey", "ttl", cfg.ArtifactTTL)
	}

	// Theme catalog: the database, falling back to the built-in set.
	themes := catalog.New(catalog.Fallback{
		Primary:   store.NewThemeStore(db),
		Secondary: catalog.StaticSource(catalog.Builtin()),
	})
	if err := themes.Refresh(ctx); err != nil {
		slog.Error("failed to load theme catalog", "error", err)
		os.Exit(1)
	}
	// Row changes arrive through Postgres; Publish signals and polling
	// cover edits made while the listener is reconnecting.
	notifier := catalog.Combine(
		catalog.SelectNotifier(ctx, valkeyClient, cfg.CatalogPollInterval),
		store.NewThemeListener(cfg.DSN()),
	)
	go func() {
		if err := themes.Run(ctx, notifier); err != nil && ctx.Err() == nil {
			slog.Error("theme catalog watcher stopped", "error", err)
		}
	}()

	library := stories.MustLoad()
	historySvc := history.NewService(store.NewHistoryStore(db), artifacts, cfg.HistoryLimit)
	bus := cache.NewProgressBus(valkeyClient)

	deps := generation.Deps{
		Themes:        themes,
		Stories:       library,
		History:       historySvc,
		Artifacts:     artifacts,
		Tracker:       cache.NewGenerationStore(valkeyClient, cache.DefaultGenerationTTL),
		Publisher:     bus,
		PublicBaseURL: cfg.PublicBaseURL,
	}
	if client := remote.NewClient(cfg.RemoteWebhookURL, cfg.RemoteTimeout); client.Configured() {
		deps.Remote = client
		slog.Info("remote generation enabled", "timeout", cfg.RemoteTimeout)
	} else {
		slog.Warn("remote webhook not configured, remote generation disabled")
	}
	orch := generation.New(deps)

	hub := websocket.NewHub(bus, cfg.CORSOrigins)
	limiter := middleware.NewRateLimiter(cfg.GenerateRateLimit, time.Minute)

	api := handlers.NewAPI(handlers.Deps{
		Themes:    themes,
		Stories:   library,
		Generator: orch,
		History:   historySvc,
		Drafts:    cache.NewDraftStore(valkeyClient, cache.DefaultDraftTTL),
		Artifacts: artifacts,
		Presigner: presigner,
	})

	// Set up the Chi router with all middleware and routes.
	r := router.New(api, router.Options{
		CORSOrigins:     cfg.CORSOrigins,
		SecureCookies:   !cfg.IsDev(),
		GenerateLimiter: limiter,
		WebSocket:       http.HandlerFunc(hub.HandleWebSocket),
	})

	// WriteTimeout must accommodate a local render of a full storybook.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := orch.Shutdown(shutdownCtx); err != nil {
		slog.Warn("remote generations cancelled", "error", err)
	}
	limiter.Stop()
	stop()

	slog.Info("server stopped gracefully")
}
