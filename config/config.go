// Package config provides configuration loading and management for the
// twin catalog.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete twin catalog configuration
type Config struct {
	Store StoreConfig `yaml:"store"`
	DTDL  DTDLConfig  `yaml:"dtdl"`
	NATS  NATSConfig  `yaml:"nats"`
}

// StoreConfig configures the SPARQL store connection
type StoreConfig struct {
	// URL is the triple store base URL (default: http://localhost:3030)
	URL string `yaml:"url"`
	// Dataset is the Fuseki dataset name
	Dataset string `yaml:"dataset"`
	// Username for basic auth (empty = no auth)
	Username string `yaml:"username"`
	// Password for basic auth
	Password string `yaml:"password"`
	// Timeout is the maximum time to wait for store responses
	Timeout time.Duration `yaml:"timeout"`
	// GraphBase is the base URI for tenant-scoped named graphs
	GraphBase string `yaml:"graphBase"`
	// DefaultTenant is the tenant used when none is given
	DefaultTenant string `yaml:"defaultTenant"`
}

// DTDLConfig configures the DTDL interface library
type DTDLConfig struct {
	// LibraryDir is the library directory (empty = embedded library)
	LibraryDir string `yaml:"libraryDir"`
	// Watch enables reloading the library when files change
	Watch bool `yaml:"watch"`
	// Debounce is how long to wait for more changes before reloading
	Debounce time.Duration `yaml:"debounce"`
}

// NATSConfig configures lifecycle event publishing
type NATSConfig struct {
	// URL is the NATS server URL (empty = publishing disabled)
	URL string `yaml:"url"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			URL:           "http://localhost:3030",
			Dataset:       "twins",
			Timeout:       30 * time.Second,
			GraphBase:     "http://twin.io/graphs",
			DefaultTenant: "default",
		},
		DTDL: DTDLConfig{
			LibraryDir: "", // Embedded library
			Watch:      false,
			Debounce:   500 * time.Millisecond,
		},
		NATS: NATSConfig{
			URL: "", // Publishing disabled
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Store.URL == "" {
		return fmt.Errorf("store.url is required")
	}
	if c.Store.Dataset == "" {
		return fmt.Errorf("store.dataset is required")
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive")
	}
	if c.Store.GraphBase == "" {
		return fmt.Errorf("store.graphBase is required")
	}
	if c.DTDL.Watch && c.DTDL.LibraryDir == "" {
		return fmt.Errorf("dtdl.watch requires dtdl.libraryDir")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Store
	if other.Store.URL != "" {
		c.Store.URL = other.Store.URL
	}
	if other.Store.Dataset != "" {
		c.Store.Dataset = other.Store.Dataset
	}
	if other.Store.Username != "" {
		c.Store.Username = other.Store.Username
	}
	if other.Store.Password != "" {
		c.Store.Password = other.Store.Password
	}
	if other.Store.Timeout != 0 {
		c.Store.Timeout = other.Store.Timeout
	}
	if other.Store.GraphBase != "" {
		c.Store.GraphBase = other.Store.GraphBase
	}
	if other.Store.DefaultTenant != "" {
		c.Store.DefaultTenant = other.Store.DefaultTenant
	}

	// DTDL
	if other.DTDL.LibraryDir != "" {
		c.DTDL.LibraryDir = other.DTDL.LibraryDir
	}
	if other.DTDL.Watch {
		c.DTDL.Watch = true
	}
	if other.DTDL.Debounce != 0 {
		c.DTDL.Debounce = other.DTDL.Debounce
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
}
