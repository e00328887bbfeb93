package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	Stats    StatsConfig    `yaml:"stats"`
	Relay    RelayConfig    `yaml:"relay"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
	// CORSOrigins restricts browser origins; empty allows any.
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
	// LogSQL enables gorm statement logging.
	LogSQL bool `yaml:"log_sql"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// RedisConfig enables the asynq-backed event bus. When disabled, change
// events are dispatched in-process.
type RedisConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	Concurrency int    `yaml:"concurrency"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// StatsConfig tunes the aggregate transaction coordinator.
type StatsConfig struct {
	MaxAttempts          int   `yaml:"max_attempts"`
	RetryInitialMS       int   `yaml:"retry_initial_ms"`
	RetryMaxMS           int   `yaml:"retry_max_ms"`
	DefaultTargetReviews int64 `yaml:"default_target_reviews"`
}

// RelayConfig controls the change-event outbox relay.
type RelayConfig struct {
	Interval      string `yaml:"interval"` // cron spec, e.g. "@every 5s"
	BatchSize     int    `yaml:"batch_size"`
	RetentionDays int    `yaml:"retention_days"`
	LeaseSeconds  int    `yaml:"lease_seconds"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		// Unmarshal over the defaults so a partial file keeps the rest.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.overrideFromEnv()
	cfg.normalize()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "evalstats.db",
		},
		JWT: JWTConfig{
			Secret:     "evalstats-secret-key-change-in-production",
			ExpireHour: 24,
		},
		Redis: RedisConfig{
			Enabled:     false,
			Addr:        "localhost:6379",
			DB:          0,
			Concurrency: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
		Stats: StatsConfig{
			MaxAttempts:          5,
			RetryInitialMS:       20,
			RetryMaxMS:           500,
			DefaultTargetReviews: 10,
		},
		Relay: RelayConfig{
			Interval:      "@every 5s",
			BatchSize:     100,
			RetentionDays: 7,
			LeaseSeconds:  30,
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if v := os.Getenv("STATS_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Stats.MaxAttempts = n
		}
	}
	if v := os.Getenv("STATS_DEFAULT_TARGET"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Stats.DefaultTargetReviews = n
		}
	}
	if v := os.Getenv("RELAY_INTERVAL"); v != "" {
		c.Relay.Interval = v
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// normalize replaces non-positive tuning values with their defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Stats.MaxAttempts <= 0 {
		c.Stats.MaxAttempts = def.Stats.MaxAttempts
	}
	if c.Stats.RetryInitialMS <= 0 {
		c.Stats.RetryInitialMS = def.Stats.RetryInitialMS
	}
	if c.Stats.RetryMaxMS < c.Stats.RetryInitialMS {
		c.Stats.RetryMaxMS = c.Stats.RetryInitialMS
	}
	if c.Stats.DefaultTargetReviews <= 0 {
		c.Stats.DefaultTargetReviews = def.Stats.DefaultTargetReviews
	}
	if strings.TrimSpace(c.Relay.Interval) == "" {
		c.Relay.Interval = def.Relay.Interval
	}
	if c.Relay.BatchSize <= 0 {
		c.Relay.BatchSize = def.Relay.BatchSize
	}
	if c.Relay.LeaseSeconds <= 0 {
		c.Relay.LeaseSeconds = def.Relay.LeaseSeconds
	}
	if c.Redis.Concurrency <= 0 {
		c.Redis.Concurrency = def.Redis.Concurrency
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// Password format: :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
