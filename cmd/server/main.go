package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/adapter/httpserver"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/adapter/memory"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/adapter/metrics"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/adapter/postgres"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/adapter/redis"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/app"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/platform/config"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/platform/logging"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/platform/retry"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/platform/version"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/sentiment"
	goredis "github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout       = 10 * time.Second
	cacheEvictionPeriod   = time.Minute
	dependencyDialTimeout = 5 * time.Second
	retentionLockKey      = "retention:lock"
	retentionLockTTL      = time.Minute
)

func runGracefulShutdown(srv *httpserver.Server, cleanups ...func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		for _, cleanup := range cleanups {
			cleanup()
		}

		close(done)
	}()

	return done
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func logRetry(dependency string) func(attempt int, err error, backoff time.Duration) {
	return func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Dependency not ready, retrying", "dependency", dependency, "attempt", attempt, "backoff", backoff, "error", err)
	}
}

func setupDB(cfg *config.Config, m *metrics.DBMetrics) *pgxpool.Pool {
	ctx := context.Background()

	pool, err := retry.Do(ctx, retry.StartupPolicy(logRetry("postgres")), retry.RetryUnlessCanceled,
		func(ctx context.Context) (*pgxpool.Pool, error) {
			ctx, cancel := context.WithTimeout(ctx, dependencyDialTimeout)
			defer cancel()
			return postgres.Connect(ctx, cfg.DatabaseURL, m)
		})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := postgres.RunMigrationsWithLock(migrateCtx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config, m *metrics.RedisMetrics) *goredis.Client {
	client, err := retry.Do(context.Background(), retry.StartupPolicy(logRetry("redis")), retry.RetryUnlessCanceled,
		func(ctx context.Context) (*goredis.Client, error) {
			ctx, cancel := context.WithTimeout(ctx, dependencyDialTimeout)
			defer cancel()
			return redis.NewClient(ctx, cfg.RedisURL, m)
		})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupTagger(cfg *config.Config) *sentiment.Tagger {
	lexicon := sentiment.DefaultLexicon()
	if cfg.LexiconPath != "" {
		var err error
		lexicon, err = sentiment.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			slog.Error("Failed to load lexicon", "path", cfg.LexiconPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Custom lexicon loaded", "path", cfg.LexiconPath)
	}

	tagger, err := sentiment.NewTagger(lexicon, sentiment.Thresholds{
		Positive: cfg.PositiveThreshold,
		Negative: cfg.NegativeThreshold,
	})
	if err != nil {
		slog.Error("Failed to create tagger", "error", err)
		os.Exit(1)
	}
	return tagger
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	build := version.Get()
	collectors := metrics.NewCollectors(metrics.BuildInfo{Version: build.Version, Commit: build.Commit, GoVersion: build.GoVersion})
	var cleanups []func()
	var healthChecks []httpserver.HealthCheck

	// Datasets live in Postgres when configured, otherwise in process memory
	var datasets domain.DatasetRepository
	if cfg.DatabaseURL != "" {
		pool := setupDB(cfg, collectors.DB)
		cleanups = append(cleanups, pool.Close)
		healthChecks = append(healthChecks, httpserver.HealthCheck{Name: "postgres", Check: pool.Ping})
		datasets = postgres.NewDatasetRepo(pool)
	} else {
		slog.Warn("DATABASE_URL not set, datasets are kept in memory only")
		datasets = memory.NewDatasetRepo()
	}

	// rdb stays a nil interface when Redis is not configured
	var rdb goredis.Cmdable
	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient = setupRedis(cfg, collectors.Redis)
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
		rdb = redisClient
	}
	cache := redis.NewAggregateCache(rdb, cfg.MemoryCacheTTL, cfg.AggregateCacheTTL, clock, collectors.Cache)
	stopEviction := cache.StartEvictionTimer(cacheEvictionPeriod)
	background := []func(){stopEviction}

	var retentionLock domain.JobLock
	if redisClient != nil {
		subCtx, stopSubscriber := context.WithCancel(context.Background())
		go redis.NewInvalidationSubscriber(redisClient, cache).Start(subCtx)
		background = append(background, stopSubscriber)
		retentionLock = redis.NewJobLock(redisClient, retentionLockKey, instanceID(), retentionLockTTL)
	}

	tagger := setupTagger(cfg)
	appSvc := app.NewService(datasets, cache, tagger, collectors.Import, clock, cfg.MaxRows)

	stopRetention, err := appSvc.StartRetention(cfg.RetentionSchedule, cfg.DatasetRetention, retentionLock)
	if err != nil {
		slog.Error("Failed to schedule dataset retention", "error", err)
		os.Exit(1)
	}

	srv, err := httpserver.NewServer(cfg, appSvc, collectors, healthChecks)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	// Stop background work before closing the stores it uses
	cleanups = append(append([]func(){stopRetention}, background...), cleanups...)
	done := runGracefulShutdown(srv, cleanups...)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
