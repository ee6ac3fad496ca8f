// Package config loads application configuration via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/AntObr/holiday-planner/holidays"
	"github.com/AntObr/holiday-planner/leave"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Holidays HolidaysConfig `mapstructure:"holidays"`
	Leave    LeaveConfig    `mapstructure:"leave"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig configures session persistence.
type StorageConfig struct {
	// Path is the SQLite database path; ":memory:" for ephemeral state.
	Path string `mapstructure:"path"`
}

// HolidaysConfig configures the bank-holiday source.
type HolidaysConfig struct {
	URL      string `mapstructure:"url"`
	CacheTTL string `mapstructure:"cache_ttl"`
}

// LeaveConfig configures planner defaults.
type LeaveConfig struct {
	DefaultAllowance int `mapstructure:"default_allowance"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CacheTTLDuration parses the configured TTL, defaulting to the
// source's 1 hour when unset.
func (c HolidaysConfig) CacheTTLDuration() (time.Duration, error) {
	if c.CacheTTL == "" {
		return holidays.DefaultTTL, nil
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid holidays.cache_ttl %q: %w", c.CacheTTL, err)
	}
	return d, nil
}

// Load reads configuration from the given file (optional) and from
// HOLIDAY_PLANNER_* environment variables, on top of defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("storage.path", "planner.db")
	v.SetDefault("holidays.url", holidays.DefaultURL)
	v.SetDefault("holidays.cache_ttl", "1h")
	v.SetDefault("leave.default_allowance", leave.DefaultAllowance)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("HOLIDAY_PLANNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
