// Package config handles configuration loading and validation for todod.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Storage backend names accepted in config.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Store StoreConfig `yaml:"store"`
}

// HTTPConfig holds settings for the request/response surface.
type HTTPConfig struct {
	// Listen is the address the API server binds to.
	Listen string `yaml:"listen"`
	// CORSOrigin is the allowed cross-origin value. "*" permits any origin.
	CORSOrigin string `yaml:"cors_origin"`
}

// StoreConfig selects and configures the storage backend.
type StoreConfig struct {
	// Backend is "file" or "postgres".
	Backend string `yaml:"backend"`
	// FilePath is the task collection file for the file backend.
	FilePath string `yaml:"file_path"`
	// DatabaseURL is the postgres DSN for the postgres backend.
	// Usually supplied via TODOD_DATABASE_URL rather than the config file.
	DatabaseURL string `yaml:"database_url"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Listen:     ":3001",
			CORSOrigin: "*",
		},
		Store: StoreConfig{
			Backend:  BackendFile,
			FilePath: "todod.json",
		},
	}
}

// Load reads the config file if it exists and applies defaults for any
// unset values. A missing file is not an error; the defaults apply.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = defaults.HTTP.Listen
	}
	if c.HTTP.CORSOrigin == "" {
		c.HTTP.CORSOrigin = defaults.HTTP.CORSOrigin
	}
	if c.Store.Backend == "" {
		c.Store.Backend = defaults.Store.Backend
	}
	if c.Store.FilePath == "" {
		c.Store.FilePath = defaults.Store.FilePath
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendPostgres:
	default:
		return fmt.Errorf("unknown store backend %q (expected %q or %q)",
			c.Store.Backend, BackendFile, BackendPostgres)
	}

	if c.Store.Backend == BackendPostgres && c.Store.DatabaseURL == "" {
		return fmt.Errorf("store backend %q requires a database URL", BackendPostgres)
	}

	return nil
}
