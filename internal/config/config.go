// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL" default:"sqlite://chronicles.db"`
	CORSOrigin  string `env:"CORS_ORIGIN" default:"*"`
	AdminToken  string `env:"X_ADMIN_TOKEN"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	AnalyticsCacheTTL time.Duration `env:"ANALYTICS_CACHE_TTL" default:"30s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" default:"5s"`

	// Per-IP budget for post creation, signup and login.
	WriteRateLimit float64 `env:"WRITE_RATE_LIMIT" default:"0.5"`
	WriteRateBurst int     `env:"WRITE_RATE_BURST" default:"3"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading from environment")
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
	if !strings.HasPrefix(cfg.DatabaseURL, "postgres://") && !strings.HasPrefix(cfg.DatabaseURL, "sqlite://") {
		return fmt.Errorf("DATABASE_URL must start with 'postgres://' or 'sqlite://'")
	}
	if cfg.AnalyticsCacheTTL <= 0 {
		return fmt.Errorf("ANALYTICS_CACHE_TTL must be positive, got %s", cfg.AnalyticsCacheTTL)
	}
	if cfg.WriteRateLimit <= 0 || cfg.WriteRateBurst < 1 {
		return fmt.Errorf("WRITE_RATE_LIMIT and WRITE_RATE_BURST must be positive")
	}
	if cfg.AdminToken != "" && len(cfg.AdminToken) < 16 {
		return fmt.Errorf("X_ADMIN_TOKEN must be at least 16 characters")
	}
	return nil
}
