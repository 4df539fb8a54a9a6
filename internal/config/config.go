package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Store modes.
const (
	StoreLocal  = "local"
	StoreRemote = "remote"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Store struct {
		Mode string `yaml:"mode"` // local | remote
	} `yaml:"store"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Remote struct {
		BaseURL         string   `yaml:"base_url"`
		TokenURL        string   `yaml:"token_url"`
		ClientID        string   `yaml:"client_id"`
		ClientSecret    string   `yaml:"client_secret"`
		Scopes          []string `yaml:"scopes"`
		CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
		RatePerSecond   float64  `yaml:"rate_per_second"`
		Burst           int      `yaml:"burst"`
		FallbackLocal   bool     `yaml:"fallback_local"` // read from the sqlite mirror when unreachable
	} `yaml:"remote"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Workshop struct {
		StartHour   int      `yaml:"start_hour"`
		EndHour     int      `yaml:"end_hour"`
		SlotMinutes int      `yaml:"slot_minutes"`
		Mechanics   []string `yaml:"mechanics"` // seeded on first run in local mode
	} `yaml:"workshop"`

	// ServiceDurations overrides the built-in service type -> hours table.
	ServiceDurations map[string]float64 `yaml:"service_durations"`
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

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Store.Mode == "" {
		cfg.Store.Mode = StoreLocal
	}
	if cfg.Store.Mode != StoreLocal && cfg.Store.Mode != StoreRemote {
		return nil, fmt.Errorf("store.mode must be %q or %q, got %q", StoreLocal, StoreRemote, cfg.Store.Mode)
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/cc_pipeline.db"
	}
	if cfg.Workshop.StartHour == 0 && cfg.Workshop.EndHour == 0 {
		cfg.Workshop.StartHour = 8
		cfg.Workshop.EndHour = 18
	}
	if cfg.Workshop.SlotMinutes == 0 {
		cfg.Workshop.SlotMinutes = 30
	}

	if cfg.Store.Mode == StoreLocal || cfg.Remote.FallbackLocal {
		if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// RemoteCacheTTL returns the GET-cache TTL, zero disabling the cache.
func (c *Config) RemoteCacheTTL() time.Duration {
	if c.Remote.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Remote.CacheTTLSeconds) * time.Second
}

// RemoteRate returns the outbound rate limit settings.
func (c *Config) RemoteRate() (perSecond float64, burst int) {
	perSecond = c.Remote.RatePerSecond
	if perSecond <= 0 {
		perSecond = 10
	}
	burst = c.Remote.Burst
	if burst <= 0 {
		burst = 20
	}
	return perSecond, burst
}

// BackupInterval returns the backup period.
func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
