// Package main runs the worksuite API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	app "github.com/veltasoft/worksuite/internal/app"
	"github.com/veltasoft/worksuite/internal/app/httpapi"
	"github.com/veltasoft/worksuite/internal/app/metrics"
	"github.com/veltasoft/worksuite/internal/app/storage/postgres"
	"github.com/veltasoft/worksuite/internal/app/storage/redisstore"
	"github.com/veltasoft/worksuite/internal/config"
	"github.com/veltasoft/worksuite/internal/middleware"
	"github.com/veltasoft/worksuite/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	log := logger.New(logger.LoggingConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})

	var stores app.Stores
	var db *sqlx.DB
	if cfg.Store == "postgres" {
		db, err = openPostgres(cfg)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		pg := postgres.New(db)
		stores = app.Stores{
			Tenants:   pg,
			Documents: pg,
			Folders:   pg,
			Templates: pg,
			Sheets:    pg,
			Employees: pg,
			Scripts:   pg,
			Reports:   pg,
			Presence:  pg,
		}
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		defer redisClient.Close()
		stores.Presence = redisstore.NewPresenceStore(redisClient)
		log.WithField("addr", cfg.RedisAddr).Info("presence backed by redis")
	}

	application, err := app.New(stores, app.Options{
		PresenceTTL:    cfg.PresenceTTL,
		TrashRetention: cfg.TrashRetention,
		ScriptTimeout:  cfg.ScriptTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	apiHandler, err := httpapi.NewHandler(application, log, httpapi.Options{
		AuditFile: cfg.AuditFile,
		AuditSize: cfg.AuditSize,
		Modules: &httpapi.Modules{
			Collab:    cfg.Modules.Collab,
			Sheets:    cfg.Modules.Sheets,
			HR:        cfg.Modules.HR,
			Scripts:   cfg.Modules.Scripts,
			Analytics: cfg.Modules.Analytics,
			Reports:   cfg.Modules.Reports,
		},
	})
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}

	creds, err := loadCredentials(cfg.AuthUsersFile)
	if err != nil {
		return err
	}

	root := http.NewServeMux()
	root.Handle("/metrics", metrics.Handler())
	if len(creds) > 0 {
		root.Handle("/auth/token", tokenHandler([]byte(cfg.JWTSecret), creds, cfg.TokenTTL, log))
	}
	root.Handle("/", apiHandler)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	rateLimiter.StartCleanup(10 * time.Minute)
	auth := middleware.NewAuthMiddleware([]byte(cfg.JWTSecret), log, []string{"/healthz", "/metrics", "/auth/token"})
	cors := middleware.NewCORSMiddleware(cfg.AllowedOrigins)

	var handler http.Handler = metrics.InstrumentHandler(root)
	handler = rateLimiter.Handler(handler)
	handler = auth.Handler(handler)
	handler = cors.Handler(handler)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("services shutdown")
	}
	log.Info("stopped")
	return nil
}

func openPostgres(cfg config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := runMigrations(db, cfg.MigrateDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func runMigrations(db *sqlx.DB, dir string) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
