// Package config loads immutable service configuration from the
// environment at startup.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds everything the api binary needs.
type Config struct {
	Port     string `env:"PORT, default=8080"`
	Env      string `env:"ENV, default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// DatabaseURL is the Postgres DSN shared by the stores and directories.
	DatabaseURL string `env:"DATABASE_URL, required"`

	// JWTSecret verifies the identity provider's HS256 bearer tokens.
	JWTSecret string `env:"AUTH_JWT_SECRET, required"`

	// SessionTTL bounds role-session lifetime.
	SessionTTL time.Duration `env:"SESSION_TTL, default=24h"`

	// RateLimitRPS / RateLimitBurst shape the per-client request budget.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS, default=20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST, default=40"`

	// PurgeInterval drives the in-process fallback sweep of expired
	// sessions. Zero disables it (an external scheduler calls the purge
	// endpoint instead).
	PurgeInterval time.Duration `env:"SESSION_PURGE_INTERVAL, default=0"`
}

// Load reads configuration from environment variables. Required values must
// be non-blank; a variable exported as an empty string is as useless as an
// unset one.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("config: DATABASE_URL must not be empty")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("config: AUTH_JWT_SECRET must not be empty")
	}
	return &cfg, nil
}

// Pretty reports whether console-friendly log output should be used.
func (c *Config) Pretty() bool {
	return c.Env == "development"
}
