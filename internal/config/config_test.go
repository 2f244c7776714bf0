package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.MaxFileSize != 10*1024*1024 {
		t.Errorf("unexpected max file size %d", cfg.MaxFileSize)
	}
	if cfg.ChunkSize != 8*1024 {
		t.Errorf("unexpected chunk size %d", cfg.ChunkSize)
	}
	if cfg.CacheCapacityBytes != 100*1024*1024 {
		t.Errorf("unexpected cache capacity %d", cfg.CacheCapacityBytes)
	}
	if cfg.Concurrency != 100 {
		t.Errorf("unexpected concurrency %d", cfg.Concurrency)
	}
	if cfg.EvictionBatch != 100 || cfg.CacheMaxEntries != 10000 {
		t.Errorf("unexpected eviction tuning %d/%d", cfg.EvictionBatch, cfg.CacheMaxEntries)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Root != root {
		t.Errorf("expected root %q, got %q", root, cfg.Root)
	}
	if cfg.Concurrency != Default().Concurrency {
		t.Errorf("expected default concurrency, got %d", cfg.Concurrency)
	}
}

func TestLoadOverrides(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ConfigDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := `{"concurrency": 7, "maxFileSize": 123, "codeTier": "medium", "ignoreDirs": ["dist"]}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Concurrency != 7 {
		t.Errorf("expected concurrency 7, got %d", cfg.Concurrency)
	}
	if cfg.MaxFileSize != 123 {
		t.Errorf("expected max file size 123, got %d", cfg.MaxFileSize)
	}
	if cfg.CodeTier != "medium" {
		t.Errorf("expected code tier medium, got %q", cfg.CodeTier)
	}
	if len(cfg.IgnoreDirs) != 1 || cfg.IgnoreDirs[0] != "dist" {
		t.Errorf("expected ignoreDirs [dist], got %v", cfg.IgnoreDirs)
	}
	// Untouched keys keep their defaults.
	if cfg.ChunkSize != Default().ChunkSize {
		t.Errorf("expected default chunk size, got %d", cfg.ChunkSize)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ConfigDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(root); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Root = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := cfg
	bad.Root = filepath.Join(cfg.Root, "missing")
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing root")
	}

	bad = cfg
	bad.Concurrency = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero concurrency")
	}

	bad = cfg
	bad.CacheCapacityBytes = -1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative capacity")
	}
}
