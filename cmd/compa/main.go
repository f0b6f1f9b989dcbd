// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/compa-hq/compa-go/internal/cache"
	"github.com/compa-hq/compa-go/internal/config"
	"github.com/compa-hq/compa-go/internal/handler"
	"github.com/compa-hq/compa-go/internal/logging"
	"github.com/compa-hq/compa-go/internal/middleware"
	"github.com/compa-hq/compa-go/internal/service"
	"github.com/compa-hq/compa-go/internal/session"
	"github.com/compa-hq/compa-go/internal/store"
	"github.com/compa-hq/compa-go/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "compa - campus community event board\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COMPA_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COMPA_DB_PATH           SQLite database path (default: ./data/compa.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COMPA_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COMPA_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COMPA_UPLOADS_DIR       Poster uploads directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  COMPA_REDIS_URL         Redis URL for the shared feed cache (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("compa %s\n", version.Version)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(textHandler))

	// Ensure data and uploads directories exist
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also mirror WARN and ERROR logs into the activity log
	slog.SetDefault(slog.New(logging.NewActivityLogHandler(textHandler, db)))
	slog.Info("activity log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	feedCache := cache.New(cfg.RedisURL, cfg.CachePrefix, time.Duration(cfg.FeedCacheTTL)*time.Second)
	defer func() { _ = feedCache.Close() }()

	// Services
	activityService := service.NewActivityService(db, cfg.ActivityRetentionDays)
	mediaService := service.NewMediaService(db, cfg.UploadsDir)
	submissionService := service.NewSubmissionService(db, mediaService, service.NewSessionAuthGate(sessionManager))

	retentionCron := activityService.StartRetentionJob()
	defer retentionCron.Stop()

	// Handlers
	authHandler := handler.NewAuthHandler(db, sessionManager, activityService)
	eventHandler := handler.NewEventHandler(db, submissionService, activityService, feedCache, time.Duration(cfg.FeedCacheTTL)*time.Second)
	mediaHandler := handler.NewMediaHandler(mediaService, activityService)
	healthHandler := handler.NewHealthHandler(db)

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))

	// Rate limiters: tighter on auth, generous on reads
	authRateLimiter := middleware.NewGlobalRateLimiter(2, 5)
	apiRateLimiter := middleware.NewGlobalRateLimiter(50, 100)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(sessionManager.LoadAndSave)

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())

		// Public reads
		r.Get("/events", eventHandler.List)
		r.Get("/events/{id}", eventHandler.Get)

		// Auth endpoints, throttled hard against credential stuffing
		r.Group(func(r chi.Router) {
			r.Use(authRateLimiter.Middleware())
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/logout", authHandler.Logout)
		})

		// Authenticated writes
		r.Group(func(r chi.Router) {
			r.Use(csrfMiddleware)
			r.Use(middleware.RequireUser(sessionManager))
			r.Use(middleware.LoadUser(sessionManager, db))
			r.Get("/auth/me", authHandler.Me)
			r.Post("/events", eventHandler.Create)
			r.Post("/media", mediaHandler.Upload)
		})
	})

	// Serve uploaded poster files
	uploadsHandler := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
	r.Handle("/uploads/*", uploadsHandler)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for poster uploads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
