package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Store.URL != "http://localhost:3030" {
		t.Errorf("expected default store URL http://localhost:3030, got %s", cfg.Store.URL)
	}
	if cfg.Store.Dataset != "twins" {
		t.Errorf("expected default dataset twins, got %s", cfg.Store.Dataset)
	}
	if cfg.Store.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", cfg.Store.Timeout)
	}
	if cfg.Store.DefaultTenant != "default" {
		t.Errorf("expected default tenant, got %s", cfg.Store.DefaultTenant)
	}
	if cfg.DTDL.LibraryDir != "" {
		t.Error("expected embedded DTDL library by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing store url",
			modify:  func(c *Config) { c.Store.URL = "" },
			wantErr: true,
		},
		{
			name:    "missing dataset",
			modify:  func(c *Config) { c.Store.Dataset = "" },
			wantErr: true,
		},
		{
			name:    "non-positive timeout",
			modify:  func(c *Config) { c.Store.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "missing graph base",
			modify:  func(c *Config) { c.Store.GraphBase = "" },
			wantErr: true,
		},
		{
			name:    "watch without library dir",
			modify:  func(c *Config) { c.DTDL.Watch = true },
			wantErr: true,
		},
		{
			name: "watch with library dir",
			modify: func(c *Config) {
				c.DTDL.Watch = true
				c.DTDL.LibraryDir = "/var/lib/twincatalog/dtdl"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
store:
  url: "http://fuseki:3030"
  dataset: "production"
  username: "admin"
  password: "secret"
  timeout: 10s
  defaultTenant: "acme"
dtdl:
  libraryDir: "/srv/dtdl"
  watch: true
nats:
  url: "nats://test:4222"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Store.URL != "http://fuseki:3030" {
		t.Errorf("expected store URL http://fuseki:3030, got %s", cfg.Store.URL)
	}
	if cfg.Store.Dataset != "production" {
		t.Errorf("expected dataset production, got %s", cfg.Store.Dataset)
	}
	if cfg.Store.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Store.Timeout)
	}
	if cfg.Store.DefaultTenant != "acme" {
		t.Errorf("expected tenant acme, got %s", cfg.Store.DefaultTenant)
	}
	// Fields the file does not set keep their defaults.
	if cfg.Store.GraphBase != "http://twin.io/graphs" {
		t.Errorf("expected graph base to remain default, got %s", cfg.Store.GraphBase)
	}
	if !cfg.DTDL.Watch {
		t.Error("expected watch enabled")
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Store: StoreConfig{
			URL:     "http://override:3030",
			Dataset: "staging",
		},
		NATS: NATSConfig{
			URL: "nats://override:4222",
		},
	}

	base.Merge(override)

	if base.Store.URL != "http://override:3030" {
		t.Errorf("expected store URL http://override:3030, got %s", base.Store.URL)
	}
	if base.Store.Dataset != "staging" {
		t.Errorf("expected dataset staging, got %s", base.Store.Dataset)
	}
	// Timeout should remain from base since override didn't set it
	if base.Store.Timeout != 30*time.Second {
		t.Errorf("expected timeout to remain default, got %v", base.Store.Timeout)
	}
	if base.NATS.URL != "nats://override:4222" {
		t.Errorf("expected NATS URL nats://override:4222, got %s", base.NATS.URL)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Store.Dataset = "saved"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Store.Dataset != "saved" {
		t.Errorf("expected dataset saved, got %s", loaded.Store.Dataset)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TWINCATALOG_STORE_URL", "http://env:3030")
	t.Setenv("TWINCATALOG_TENANT", "env-tenant")
	t.Setenv("TWINCATALOG_STORE_TIMEOUT", "5s")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Store.URL != "http://env:3030" {
		t.Errorf("expected store URL from env, got %s", cfg.Store.URL)
	}
	if cfg.Store.DefaultTenant != "env-tenant" {
		t.Errorf("expected tenant from env, got %s", cfg.Store.DefaultTenant)
	}
	if cfg.Store.Timeout != 5*time.Second {
		t.Errorf("expected timeout from env, got %v", cfg.Store.Timeout)
	}
}
