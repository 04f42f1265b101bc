// Package main is the entry point for the Sitecraft server.
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

	"sitecraft/internal/cache"
	"sitecraft/internal/config"
	"sitecraft/internal/database"
	"sitecraft/internal/engine"
	"sitecraft/internal/handlers"
	"sitecraft/internal/middleware"
	"sitecraft/internal/router"
	"sitecraft/internal/schema"
	"sitecraft/internal/session"
	"sitecraft/internal/sites"
	"sitecraft/internal/storage"
	"sitecraft/internal/store"
	"sitecraft/internal/workspace"
)

func main() {
	// Structured logger: JSON in production, text in development.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

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

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions, L2 page cache, autosave status mirror).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	websiteStore := store.NewWebsiteStore(db)
	documentStore := store.NewDocumentStore(db)
	mediaStore := store.NewMediaStore(db)
	cacheLogStore := store.NewCacheLogStore(db)

	// Connect to S3-compatible object storage (optional, uploads are
	// disabled without it).
	var objects handlers.ObjectStorage
	storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		objects = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, media uploads disabled")
	}

	registry := schema.Builtin()
	templates, err := sites.LoadTemplates(registry)
	if err != nil {
		slog.Error("failed to load starter templates", "error", err)
		os.Exit(1)
	}

	// Rendering engine with its L1 cache, and the L2 page cache in Valkey.
	eng := engine.New(registry)
	pageCache := cache.NewPageCache(valkeyClient, cfg.PageCacheTTL)
	statusMirror := cache.NewStatusMirror(valkeyClient)

	siteService := sites.NewService(websiteStore, documentStore, templates,
		sites.WithInvalidator(&cache.Invalidator{
			Local:  eng,
			Pages:  pageCache,
			Status: statusMirror,
			Log:    cacheLogStore,
		}),
	)

	workspaces := workspace.NewManager(siteService, registry, workspace.Config{
		Debounce:       cfg.AutosaveDebounce,
		PersistTimeout: cfg.PersistTimeout,
		IdleTimeout:    cfg.SessionIdleTimeout,
		HistoryLimit:   cfg.HistoryLimit,
	}, statusMirror)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go statusMirror.Run(bgCtx)
	go workspaces.Run(bgCtx)

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Set up the Chi router with all middleware and routes.
	r := router.New(router.Handlers{
		Auth:     handlers.NewAuth(sessionStore, userStore),
		Websites: handlers.NewWebsites(siteService, workspaces, cfg.PublicBaseURL),
		Editor:   handlers.NewEditor(workspaces, eng),
		Media:    handlers.NewMedia(mediaStore, objects),
		Schema:   handlers.NewSchema(registry),
		Admin:    handlers.NewAdmin(cacheLogStore, pageCache, eng, workspaces),
		Public:   handlers.NewPublic(siteService, eng, pageCache),
	}, router.Options{
		Sessions:     sessionStore,
		SecureCookie: secureCookies,
		LoginLimiter: loginLimiter,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Persist every open editing session before the stores go away.
	if err := workspaces.CloseAll(ctx); err != nil {
		slog.Error("flushing editing sessions failed", "error", err)
	}
	stopBackground()
	statusMirror.Close()

	slog.Info("server stopped gracefully")
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsDev() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
