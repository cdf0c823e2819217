// Package config provides configuration for the netview binaries.
//
// Config file locations (priority order):
//  1. $NETVIEW_CONFIG
//  2. ./netview.yaml
//
// Every option has a default; a missing config file is not an error.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "NETVIEW_CONFIG"

const defaultConfigPath = "./netview.yaml"

// Config is the root configuration structure.
type Config struct {
	// Server is the backend base URL the adapters and position store
	// client talk to.
	Server string `yaml:"server"`

	// WebsocketURL overrides the event-feed endpoint. Empty means
	// derive it from Server (http → ws, path /ws).
	WebsocketURL string `yaml:"websocket_url,omitempty"`

	Reconnect ReconnectConfig `yaml:"reconnect"`
	Refresh   *Duration      `yaml:"refresh_interval,omitempty"`
	Layout    LayoutConfig   `yaml:"layout"`
	Database  DatabaseConfig `yaml:"database"`
	Listen    string         `yaml:"listen,omitempty"`
}

// ReconnectConfig bounds the transport's reconnect backoff.
type ReconnectConfig struct {
	InitialDelay *Duration `yaml:"initial_delay,omitempty"`
	MaxDelay     *Duration `yaml:"max_delay,omitempty"`
}

// LayoutConfig bounds the layout canvas.
type LayoutConfig struct {
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
}

// DatabaseConfig holds the reference backend's database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Load finds and loads the config file, or returns defaults if none is
// found. The second return value is the path that was loaded, empty
// when defaults were used.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, path, nil
}

// FindConfigPath returns the config file path to use, or empty if none
// exists.
func FindConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// DefaultConfig returns the defaults for a local installation.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server == "" {
		c.Server = "http://127.0.0.1:8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./netview.db"
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
}

// RefreshInterval returns the periodic refresh interval.
func (c *Config) RefreshInterval() time.Duration {
	if c.Refresh != nil {
		return c.Refresh.Duration()
	}
	return 30 * time.Second
}

// InitialDelay returns the reconnect backoff floor.
func (c *Config) InitialDelay() time.Duration {
	if c.Reconnect.InitialDelay != nil {
		return c.Reconnect.InitialDelay.Duration()
	}
	return 1 * time.Second
}

// MaxDelay returns the reconnect backoff cap.
func (c *Config) MaxDelay() time.Duration {
	if c.Reconnect.MaxDelay != nil {
		return c.Reconnect.MaxDelay.Duration()
	}
	return 30 * time.Second
}

// Duration wraps time.Duration for YAML unmarshaling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
