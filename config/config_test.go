package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
webserver:
  port: "9090"
redis:
  address: "redis.internal:6379"
localstore:
  max_scan_events: 250
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	t.Run("File_values", func(t *testing.T) {
		if cfg.WebServer.Port != "9090" {
			t.Errorf("Port = %q, want 9090", cfg.WebServer.Port)
		}
		if cfg.Redis.Address != "redis.internal:6379" {
			t.Errorf("Address = %q", cfg.Redis.Address)
		}
		if cfg.LocalStore.MaxScanEvents != 250 {
			t.Errorf("MaxScanEvents = %d, want 250", cfg.LocalStore.MaxScanEvents)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		if cfg.Redis.OperationTimeout != 5 {
			t.Errorf("OperationTimeout = %d, want default 5", cfg.Redis.OperationTimeout)
		}
		if !cfg.Cache.Enabled {
			t.Error("Cache should default to enabled")
		}
		if !cfg.LocalStore.MigrateOnAccess {
			t.Error("MigrateOnAccess should default to true")
		}
		if cfg.LocalStore.Path != "uqrcode_cache.json" {
			t.Errorf("Path = %q", cfg.LocalStore.Path)
		}
	})
}
