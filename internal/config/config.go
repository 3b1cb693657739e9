package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime settings for the rules engine. Everything has a
// sane default; DATABASE_URL is the only optional capability switch (empty
// selects the in-memory state store).
type Config struct {
	Env             string `mapstructure:"ENV"`
	DatasetPath     string `mapstructure:"DATASET_PATH"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	SyncMaxAttempts int    `mapstructure:"SYNC_MAX_ATTEMPTS"`
	SyncBackoffMS   int    `mapstructure:"SYNC_BACKOFF_MS"`
	CacheTTLHours   int    `mapstructure:"CACHE_TTL_HOURS"`
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("DATASET_PATH", "")
	v.SetDefault("SYNC_MAX_ATTEMPTS", 3)
	v.SetDefault("SYNC_BACKOFF_MS", 200)
	v.SetDefault("CACHE_TTL_HOURS", 24)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("DATASET_PATH")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("SYNC_MAX_ATTEMPTS")
	v.BindEnv("SYNC_BACKOFF_MS")
	v.BindEnv("CACHE_TTL_HOURS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.SyncMaxAttempts <= 0 {
		return nil, fmt.Errorf("SYNC_MAX_ATTEMPTS must be positive")
	}
	if cfg.CacheTTLHours <= 0 {
		return nil, fmt.Errorf("CACHE_TTL_HOURS must be positive")
	}
	return cfg, nil
}

// IsDev reports whether the development profile is active.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Backoff returns the base retry delay.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.SyncBackoffMS) * time.Millisecond
}

// CacheTTL returns the aggregate freshness window.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}
