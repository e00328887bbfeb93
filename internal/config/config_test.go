package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "sqlite")
	}
	if cfg.Stats.DefaultTargetReviews != 10 {
		t.Errorf("Stats.DefaultTargetReviews = %d, expected 10", cfg.Stats.DefaultTargetReviews)
	}
	if cfg.Stats.MaxAttempts != 5 {
		t.Errorf("Stats.MaxAttempts = %d, expected 5", cfg.Stats.MaxAttempts)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "8080")
	}
	if GlobalConfig != cfg {
		t.Error("GlobalConfig should point at the loaded config")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  port: \"9090\"\nstats:\n  max_attempts: 8\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "9090")
	}
	if cfg.Stats.MaxAttempts != 8 {
		t.Errorf("Stats.MaxAttempts = %d, expected 8", cfg.Stats.MaxAttempts)
	}
	if cfg.Stats.DefaultTargetReviews != 10 {
		t.Errorf("Stats.DefaultTargetReviews = %d, expected 10", cfg.Stats.DefaultTargetReviews)
	}
	if cfg.Relay.Interval != "@every 5s" {
		t.Errorf("Relay.Interval = %q, expected %q", cfg.Relay.Interval, "@every 5s")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("STATS_MAX_ATTEMPTS", "3")
	t.Setenv("STATS_DEFAULT_TARGET", "12")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "postgres")
	}
	if cfg.Stats.MaxAttempts != 3 {
		t.Errorf("Stats.MaxAttempts = %d, expected 3", cfg.Stats.MaxAttempts)
	}
	if cfg.Stats.DefaultTargetReviews != 12 {
		t.Errorf("Stats.DefaultTargetReviews = %d, expected 12", cfg.Stats.DefaultTargetReviews)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, expected %q", cfg.Log.Level, "debug")
	}
}

func TestNormalize_ReplacesInvalidValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stats.MaxAttempts = 0
	cfg.Stats.RetryInitialMS = 50
	cfg.Stats.RetryMaxMS = 10
	cfg.Relay.BatchSize = -1
	cfg.normalize()

	if cfg.Stats.MaxAttempts != 5 {
		t.Errorf("Stats.MaxAttempts = %d, expected 5", cfg.Stats.MaxAttempts)
	}
	if cfg.Stats.RetryMaxMS != 50 {
		t.Errorf("Stats.RetryMaxMS = %d, expected 50", cfg.Stats.RetryMaxMS)
	}
	if cfg.Relay.BatchSize != 100 {
		t.Errorf("Relay.BatchSize = %d, expected 100", cfg.Relay.BatchSize)
	}
}

func TestParseRedisURL(t *testing.T) {
	testCases := []struct {
		url      string
		addr     string
		password string
		db       int
	}{
		{"redis://localhost:6379", "localhost:6379", "", 0},
		{"redis://:secret@cache:6380/2", "cache:6380", "secret", 2},
		{"redis://user:pw@redis.internal:6379/5", "redis.internal:6379", "pw", 5},
	}

	for _, tc := range testCases {
		cfg := DefaultConfig()
		cfg.parseRedisURL(tc.url)
		if cfg.Redis.Addr != tc.addr {
			t.Errorf("%s: Addr = %q, expected %q", tc.url, cfg.Redis.Addr, tc.addr)
		}
		if cfg.Redis.Password != tc.password {
			t.Errorf("%s: Password = %q, expected %q", tc.url, cfg.Redis.Password, tc.password)
		}
		if cfg.Redis.DB != tc.db {
			t.Errorf("%s: DB = %d, expected %d", tc.url, cfg.Redis.DB, tc.db)
		}
	}
}
