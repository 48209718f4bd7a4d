package config

import (
    "testing"
    "time"
)

func TestLoadDefaults(t *testing.T) {
    t.Setenv("JWT_SECRET", "s")
    t.Setenv("STORE_DRIVER", "")
    t.Setenv("SEAT_ROWS", "")

    cfg := Load()
    if cfg.StoreDriver != DriverMemory || cfg.Port != "8080" {
        t.Fatalf("unexpected defaults %+v", cfg)
    }
    if got := cfg.Layout().Size(); got != 80 {
        t.Fatalf("default layout has %d seats, want 80", got)
    }
    if cfg.MaxAttempts != 5 || cfg.RowRetries != 3 {
        t.Fatalf("retry bounds = %d/%d", cfg.MaxAttempts, cfg.RowRetries)
    }
}

func TestLoadOverrides(t *testing.T) {
    t.Setenv("JWT_SECRET", "s")
    t.Setenv("STORE_DRIVER", DriverMySQL)
    t.Setenv("DB_USER", "u")
    t.Setenv("DB_HOST", "h")
    t.Setenv("DB_PORT", "3306")
    t.Setenv("DB_NAME", "n")
    t.Setenv("SEAT_ROWS", "2")
    t.Setenv("SEAT_COLS", "5")
    t.Setenv("SEAT_LAST_ROW_COLS", "0")
    t.Setenv("QUEUE_ENABLED", "yes")

    cfg := Load()
    if cfg.DBHost != "h" || cfg.DBName != "n" {
        t.Fatalf("db settings not loaded: %+v", cfg)
    }
    if got := cfg.Layout().Size(); got != 10 {
        t.Fatalf("layout has %d seats, want 10", got)
    }
    if !cfg.QueueEnabled {
        t.Fatal("QUEUE_ENABLED=yes not honoured")
    }
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    t.Setenv("RATE_LIMIT_ENABLED", "off")

    cfg := LoadRateLimitConfig()
    if cfg.Enabled {
        t.Fatal("expected limiter disabled")
    }
    if cfg.Capacity != 1 {
        t.Fatalf("capacity = %d, want 1", cfg.Capacity)
    }
    if cfg.TTL != 10*time.Second {
        t.Fatalf("ttl = %v, want 10s", cfg.TTL)
    }
}

func TestLoadRedisConfig(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6380")
    t.Setenv("REDIS_HOST", "")
    t.Setenv("REDIS_DB", "2")
    t.Setenv("REDIS_TLS", "1")

    cfg := LoadRedisConfig()
    if cfg.Addr != "cache:6380" || cfg.DB != 2 || !cfg.TLS || cfg.KeyPrefix != "seats" {
        t.Fatalf("unexpected redis config %+v", cfg)
    }
}
