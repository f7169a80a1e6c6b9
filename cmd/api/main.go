// Package main is the entry point for the sentinelle API server.
//
// It loads configuration, wires the domain services (adaptive weather cache,
// backup chain, daily budget, damage predictor, vigilance provider) onto the
// core chassis, and starts the HTTP server.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

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
	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"

	"sentinelle/internal/api/handlers"
	"sentinelle/internal/backup"
	"sentinelle/internal/budget"
	"sentinelle/internal/cache"
	"sentinelle/internal/config"
	"sentinelle/internal/core"
	"sentinelle/internal/db"
	"sentinelle/internal/external"
	"sentinelle/internal/observability"
	"sentinelle/internal/predict"
	"sentinelle/internal/risk"
	"sentinelle/internal/scheduler"
)

// usageCheckpointInterval is how often today's budget usage is persisted.
const usageCheckpointInterval = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("sentinelle API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"daily_quota", cfg.Upstream.DailyQuota,
	)

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	srv, err := core.NewServer(cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx := context.Background()

	// Persistence is optional: without DATABASE_URL the backup recent tier
	// and the budget counter live in memory only.
	var recentStore backup.RecentStore = db.NewMemoryBackupStore()
	var usageRepo *db.UsageRepo
	if cfg.Database.URL != "" {
		pool, err := db.NewPool(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		srv.OnShutdown(func(context.Context) error {
			pool.Close()
			return nil
		})
		srv.HealthProbes = append(srv.HealthProbes, core.ProbeFunc{
			ProbeName: "database",
			Fn:        pool.Ping,
		})
		recentStore = db.NewBackupRepo(pool)
		usageRepo = db.NewUsageRepo(pool)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		srv.OnShutdown(func(context.Context) error {
			return redisClient.Close()
		})
		srv.HealthProbes = append(srv.HealthProbes, core.ProbeFunc{
			ProbeName: "redis",
			Fn: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		})
	}

	dailyBudget := budget.New(cfg.Upstream.DailyQuota, clock)
	if usageRepo != nil {
		if used, err := usageRepo.Load(ctx, clock.Now()); err != nil {
			logger.Warn("failed to restore budget usage", "error", err)
		} else {
			dailyBudget.Restore(clock.Now(), used)
		}
		stopCheckpoints := startUsageCheckpoints(usageRepo, dailyBudget, clock, logger)
		srv.OnShutdown(stopCheckpoints)
	}

	userAgent := cfg.Service + "/1.0"
	weatherBase := external.NewBaseClient(
		&http.Client{Timeout: cfg.Upstream.Timeout},
		"openweather",
		external.DefaultRetryPolicy(),
		userAgent,
	)
	vigilanceBase := external.NewBaseClient(
		&http.Client{Timeout: cfg.Vigilance.Timeout},
		"vigilance",
		external.DefaultRetryPolicy(),
		userAgent,
	)

	weatherClient := external.NewOpenWeatherClient(weatherBase, cfg.Upstream.BaseURL, cfg.Upstream.APIKey)
	vigilanceClient := external.NewMeteoVigilanceClient(vigilanceBase, cfg.Vigilance.BaseURL)
	vigilanceProvider := external.NewVigilanceProvider(vigilanceClient, redisClient, cfg.Vigilance.CacheTTL)

	assessor := risk.NewAssessor(cfg.Cache.CutModerate, cfg.Cache.CutHigh, cfg.Cache.CutCritical)
	backupStore := backup.NewStore(recentStore, cfg.Backup.ValidityWindow, clock, logger)
	weatherCache := cache.New(weatherClient, backupStore, dailyBudget, assessor, cfg.Cache, clock, metrics, logger)

	predictor := predict.NewPredictor(
		predict.NewSaffirModel(),
		assessor,
		vigilanceProvider,
		cfg.Vigilance.Region,
		cfg.Vigilance.GreenClampFactor,
		metrics,
		logger,
	)

	weatherHandler := handlers.NewWeatherHandler(weatherCache, backupStore, dailyBudget, logger)
	predictHandler := handlers.NewPredictHandler(predictor, weatherCache, logger)
	vigilanceHandler := handlers.NewVigilanceHandler(vigilanceProvider, logger)
	locationsHandler := handlers.NewLocationsHandler()

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		func(r chi.Router) { weatherHandler.RegisterRoutes(r) },
		func(r chi.Router) { predictHandler.RegisterRoutes(r) },
		func(r chi.Router) { vigilanceHandler.RegisterRoutes(r) },
		func(r chi.Router) { locationsHandler.RegisterRoutes(r) },
	)

	srv.MountRoutes()

	if cfg.Prewarm.Enabled {
		prewarmer := scheduler.NewPrewarmer(weatherCache, cfg.Prewarm.Interval, clock, logger)
		prewarmCtx, stopPrewarm := context.WithCancel(context.Background())
		go prewarmer.Run(prewarmCtx)
		srv.OnShutdown(func(context.Context) error {
			stopPrewarm()
			return nil
		})
	}

	return runHTTPServer(srv, cfg, logger)
}

// startUsageCheckpoints persists today's budget usage periodically so a
// restart does not reset the quota accounting. The returned function flushes
// one final checkpoint and stops the loop.
func startUsageCheckpoints(repo *db.UsageRepo, b *budget.DailyBudget, clock clockwork.Clock, logger *slog.Logger) func(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(usageCheckpointInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := repo.Upsert(ctx, clock.Now(), b.Used()); err != nil {
					logger.Warn("budget usage checkpoint failed", "error", err)
				}
				cancel()
			}
		}
	}()

	return func(ctx context.Context) error {
		close(done)
		return repo.Upsert(ctx, clock.Now(), b.Used())
	}
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
