package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}
	if cfg.Backend.Type != "file" || cfg.Retention.MaxBackups != 10 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `backend:
  type: sqlite
  path: /tmp/store.db
quota:
  capacity_bytes: 1048576
retention:
  max_backups: 5
compression:
  enabled: true
  algorithm: zstd
  level: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.Type != "sqlite" || cfg.Backend.Path != "/tmp/store.db" {
		t.Errorf("backend not loaded: %+v", cfg.Backend)
	}
	if cfg.Quota.CapacityBytes != 1048576 {
		t.Errorf("quota not loaded: %+v", cfg.Quota)
	}
	if cfg.Retention.MaxBackups != 5 || cfg.Retention.MaxMigrationBackups != 3 {
		t.Errorf("retention defaults not merged: %+v", cfg.Retention)
	}
	if cfg.Compression.Algorithm != "zstd" || cfg.Compression.Level != 5 {
		t.Errorf("compression not loaded: %+v", cfg.Compression)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend:\n  type: redis\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected an invalid backend type to be rejected")
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}
	if err := WriteDefault(path); err == nil {
		t.Error("WriteDefault must refuse to overwrite")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("written default does not load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written default is invalid: %v", err)
	}
}
