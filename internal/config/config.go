package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type ServiceEntry struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	BasePrice  int64  `yaml:"base_price"`  // cents
	AddOnPrice int64  `yaml:"addon_price"` // cents, 0 = no add-on offered
}

type Config struct {
	Server struct {
		Port        int    `yaml:"port"`
		AdminAPIKey string `yaml:"admin_api_key"`
		RateLimit   int    `yaml:"rate_limit"` // requests per second, 0 = unlimited
		RateBurst   int    `yaml:"rate_burst"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Availability struct {
		CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
	} `yaml:"availability"`

	Hold struct {
		TTLMinutes           int `yaml:"ttl_minutes"`
		SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
	} `yaml:"hold"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Backup BackupConfig `yaml:"backup"`

	Catalog []ServiceEntry `yaml:"catalog"`
}

// BackupConfig controls periodic copies of the database file.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	StoragePath   string `yaml:"storage_path"`
	IntervalHours int    `yaml:"interval_hours"`
	RetentionDays int    `yaml:"retention_days"`
}

// Interval is how often a backup is taken.
func (b BackupConfig) Interval() time.Duration {
	if b.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(b.IntervalHours) * time.Hour
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/arcana.db"
	}
	if cfg.Backup.StoragePath == "" {
		cfg.Backup.StoragePath = "data/backups"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// HoldTTL is the fixed hold lifetime. It is not extended by user activity.
func (c *Config) HoldTTL() time.Duration {
	if c.Hold.TTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Hold.TTLMinutes) * time.Minute
}

// SweepInterval is how often expired holds are evicted proactively.
func (c *Config) SweepInterval() time.Duration {
	if c.Hold.SweepIntervalSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Hold.SweepIntervalSeconds) * time.Second
}

// CacheTTL is the lifetime of cached availability entries.
func (c *Config) CacheTTL() time.Duration {
	if c.Availability.CacheTTLSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Availability.CacheTTLSeconds) * time.Second
}
