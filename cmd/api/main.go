// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the storefront HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire stores, services and HTTP handlers.
//  7. Start the optional session sweeper.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/storefront/internal/api"
	"github.com/taibuivan/storefront/internal/platform/config"
	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/middleware"
	"github.com/taibuivan/storefront/internal/platform/migration"
	pgstore "github.com/taibuivan/storefront/internal/platform/postgres"
	redisstore "github.com/taibuivan/storefront/internal/platform/redis"
	"github.com/taibuivan/storefront/internal/platform/sec"
	"github.com/taibuivan/storefront/internal/users/account"
	"github.com/taibuivan/storefront/internal/users/auth"
	"github.com/taibuivan/storefront/internal/users/notify"
	"github.com/taibuivan/storefront/internal/users/otp"
	"github.com/taibuivan/storefront/internal/users/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("otp_store", cfg.OTPStore),
		slog.Duration("session_window", cfg.SessionWindow),
		slog.Int("trusted_proxies", len(cfg.TrustedProxies)),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lifetime context for background goroutines (rate limiter janitors, sweeper).
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	users := account.NewPostgresStore(pool)
	activity := account.NewPostgresActivityLog(pool)

	sessions := session.NewManager(session.NewPostgresStore(pool), log, session.WithWindow(cfg.SessionWindow))

	cronTasks := []session.PurgeTask{
		{Name: "activity log", Purger: activity, Retention: cfg.ActivityLogRetention},
	}

	var codes otp.Store
	switch cfg.OTPStore {
	case config.OTPStoreRedis:
		codes = otp.NewRedisStore(rdb, otp.DefaultRedisGrace)
	default:
		pgCodes := otp.NewPostgresStore(pool)
		codes = pgCodes
		cronTasks = append(cronTasks, session.PurgeTask{
			Name: "reset code", Purger: pgCodes, Retention: constants.ResetCodeRetention,
		})
	}

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.SendGridAPIKey != "" {
		notifier = notify.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFromEmail)
	}

	if cfg.ExposeResetCode {
		log.Warn("reset_code_exposure_enabled")
	}

	authService := auth.NewService(users, activity, sessions, codes, notifier, jwtSvc, log,
		auth.WithCodeTTL(cfg.ResetCodeTTL),
		auth.WithExposedCode(cfg.ExposeResetCode),
	)

	recoveryLimiter := middleware.NewIPRateLimiter(appCtx,
		rate.Every(time.Minute/constants.RecoveryRateLimitPerMinute),
		constants.RecoveryRateLimitPerMinute,
	)

	// ── 7. Session Sweeper ────────────────────────────────────────────────
	sweeper := session.NewSweeper(sessions, cfg.SessionSweepInterval, log)
	if sweeper.Enabled() {
		go sweeper.Run(appCtx)
	}

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService, recoveryLimiter),
		Session:   session.NewHandler(sessions),
		Cron:      session.NewCronHandler(sessions, cfg.CronSecret, cronTasks...),
		Account:   account.NewHandler(account.NewService(users, activity, log)),
		Sessions:  sessions,
	}

	server := api.NewServer(appCtx, cfg, log, jwtSvc, handlers)

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	// Stop background workers before draining requests.
	appCancel()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("server_shutting_down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped")
}

// newLogger builds the JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
