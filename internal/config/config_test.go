package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "support-desk" {
		t.Errorf("App.Name = %q", cfg.App.Name)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr = %q", cfg.App.Addr())
	}
	if cfg.Auth.AccessTokenTTLMinutes != 60 {
		t.Errorf("token ttl = %d", cfg.Auth.AccessTokenTTLMinutes)
	}
	if cfg.Advisor.Timeout() != 5*time.Second {
		t.Errorf("advisor timeout = %v", cfg.Advisor.Timeout())
	}
	if cfg.Directory.CacheTTL() != 30*time.Second {
		t.Errorf("directory ttl = %v", cfg.Directory.CacheTTL())
	}
	if cfg.Notification.QueueKey != "support-desk:notifications" {
		t.Errorf("queue key = %q", cfg.Notification.QueueKey)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("ADVISOR_URL", "http://advisor.internal/suggest")
	t.Setenv("ADVISOR_TIMEOUT_SECONDS", "2")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Addr() != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.App.Addr())
	}
	if cfg.Advisor.URL != "http://advisor.internal/suggest" {
		t.Errorf("advisor url = %q", cfg.Advisor.URL)
	}
	if cfg.Advisor.Timeout() != 2*time.Second {
		t.Errorf("advisor timeout = %v", cfg.Advisor.Timeout())
	}
	if cfg.Postgres.RunMigrations {
		t.Error("RunMigrations should be false")
	}
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.AccessTokenTTLMinutes != 60 {
		t.Errorf("ttl = %d, want default 60", cfg.Auth.AccessTokenTTLMinutes)
	}
}
