package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/authz")
	t.Setenv("AUTH_JWT_SECRET", "secret")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if cfg.PurgeInterval != 0 {
		t.Errorf("PurgeInterval = %v, want 0", cfg.PurgeInterval)
	}
	if !cfg.Pretty() {
		t.Error("development env should use pretty logging")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	// Set-but-empty must be rejected the same as unset.
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AUTH_JWT_SECRET", "secret")

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error for empty DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/authz")
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error for unset DATABASE_URL")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/authz")
	t.Setenv("AUTH_JWT_SECRET", "   ")

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error for blank AUTH_JWT_SECRET")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/authz")
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SESSION_PURGE_INTERVAL", "15m")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %v, want 2h", cfg.SessionTTL)
	}
	if cfg.PurgeInterval != 15*time.Minute {
		t.Errorf("PurgeInterval = %v, want 15m", cfg.PurgeInterval)
	}
	if cfg.Pretty() {
		t.Error("production env should not use pretty logging")
	}
}
