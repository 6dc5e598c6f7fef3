package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("MAX_BODY_BYTES", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.StoreDriver != StoreMongo {
		t.Fatalf("expected mongo driver, got %q", cfg.StoreDriver)
	}
	if cfg.Port != "3000" {
		t.Fatalf("expected port 3000, got %q", cfg.Port)
	}
	if cfg.MaxBodyBytes != 10<<20 {
		t.Fatalf("expected 10MiB body limit, got %d", cfg.MaxBodyBytes)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("READ_TIMEOUT", "5")
	t.Setenv("REQUEST_TIMEOUT", "2s")
	t.Setenv("CACHE_ENABLED", "yes")
	t.Setenv("REDIS_TTL", "not-a-duration")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.StoreDriver != StorePostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.StoreDriver)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Fatalf("unexpected read timeout %v", cfg.ReadTimeout)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Fatalf("unexpected request timeout %v", cfg.RequestTimeout)
	}
	if !cfg.CacheEnabled {
		t.Fatal("expected cache enabled")
	}
	if cfg.RedisTTL != 5*time.Minute {
		t.Fatalf("invalid duration should fall back to default, got %v", cfg.RedisTTL)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("unexpected rps %v", cfg.RateLimitRPS)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
