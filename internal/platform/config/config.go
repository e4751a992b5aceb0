package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv        string `env:"APP_ENV" default:"development"`
	Port          string `env:"PORT" default:"8080"`
	SessionSecret string `env:"SESSION_SECRET"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisURL      string `env:"REDIS_URL"`
	LogLevel      string `env:"LOG_LEVEL" default:"info"`
	LogFormat     string `env:"LOG_FORMAT" default:"text"`

	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" default:"33554432"` // 32 MiB
	MaxRows        int    `env:"MAX_ROWS" default:"200000"`
	LexiconPath    string `env:"LEXICON_PATH"`

	PositiveThreshold float64 `env:"POSITIVE_THRESHOLD" default:"0.6"`
	NegativeThreshold float64 `env:"NEGATIVE_THRESHOLD" default:"0.4"`

	AggregateCacheTTL time.Duration `env:"AGGREGATE_CACHE_TTL" default:"10m"`
	MemoryCacheTTL    time.Duration `env:"MEMORY_CACHE_TTL" default:"30s"`
	DatasetRetention  time.Duration `env:"DATASET_RETENTION" default:"72h"`
	RetentionSchedule string        `env:"RETENTION_SCHEDULE" default:"@every 10m"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" default:"5"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" default:"20"`

	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}

	if cfg.NegativeThreshold < 0 || cfg.PositiveThreshold > 1 || cfg.NegativeThreshold >= cfg.PositiveThreshold {
		return fmt.Errorf("thresholds must satisfy 0 <= NEGATIVE_THRESHOLD < POSITIVE_THRESHOLD <= 1, got %v and %v",
			cfg.NegativeThreshold, cfg.PositiveThreshold)
	}

	if cfg.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.MaxRows <= 0 {
		return errors.New("MAX_ROWS must be positive")
	}
	if cfg.DatasetRetention < 0 {
		return errors.New("DATASET_RETENTION must not be negative")
	}
	if cfg.RateLimitPerSecond <= 0 || cfg.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}

	if cfg.IsProduction() && cfg.DatabaseURL != "" {
		if mode := sslMode(cfg.DatabaseURL); mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL must not use sslmode=%s in production", mode)
		}
	}

	return nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}
