// Package config handles loading the blockhour config.toml file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/amonks/blockhour/internal/paths"
)

// Defaults applied for keys absent from the config file.
const (
	DefaultTickIntervalSeconds = 1
	DefaultSnoozeMinutes       = 5
)

// Config represents the blockhour config.toml configuration file.
type Config struct {
	// TickIntervalSeconds is the cadence of the blocking evaluation loop.
	TickIntervalSeconds int `toml:"tick-interval-seconds"`

	// SnoozeMinutes is the snooze grant applied by the overlay snooze key.
	SnoozeMinutes int `toml:"snooze-minutes"`

	// StateDir overrides the default state directory.
	StateDir string `toml:"state-dir"`
}

// TickInterval returns the tick cadence as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

// Load loads the global config file, applying defaults for missing keys.
// Returns a default config if no config file exists.
func Load() (*Config, error) {
	path, err := paths.GlobalConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads configuration from the given path.
func LoadFile(path string) (*Config, error) {
	cfg, meta, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	if !meta.IsDefined("tick-interval-seconds") {
		cfg.TickIntervalSeconds = DefaultTickIntervalSeconds
	}
	if !meta.IsDefined("snooze-minutes") {
		cfg.SnoozeMinutes = DefaultSnoozeMinutes
	}
	if cfg.TickIntervalSeconds < 1 {
		return nil, fmt.Errorf("config %s: tick-interval-seconds must be at least 1", path)
	}
	if cfg.SnoozeMinutes < 1 {
		return nil, fmt.Errorf("config %s: snooze-minutes must be at least 1", path)
	}
	cfg.StateDir = expandHome(strings.TrimSpace(cfg.StateDir))

	return cfg, nil
}

// ResolveStateDir returns the configured state directory, falling back to
// the platform default.
func (c *Config) ResolveStateDir() (string, error) {
	if c.StateDir != "" {
		return c.StateDir, nil
	}
	return paths.DefaultStateDir()
}

func decodeFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return &cfg, meta, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
