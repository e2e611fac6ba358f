package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Store.Backend != "sqlite" {
		t.Errorf("store backend = %q, want sqlite", cfg.Store.Backend)
	}
	if cfg.Sync.PageSize != 100 {
		t.Errorf("page_size = %d, want 100", cfg.Sync.PageSize)
	}
	if cfg.Sync.StalenessMaxAge != 2*time.Hour {
		t.Errorf("staleness_max_age = %v, want 2h", cfg.Sync.StalenessMaxAge)
	}
	if cfg.Sync.FirstDeltaWindow != 24*time.Hour {
		t.Errorf("first_delta_window = %v, want 24h", cfg.Sync.FirstDeltaWindow)
	}
	if cfg.Sync.BackoffFactor != 2.0 {
		t.Errorf("backoff_factor = %v, want 2.0", cfg.Sync.BackoffFactor)
	}
	if !cfg.Cron.Enabled || cfg.Cron.Schedule == "" {
		t.Errorf("cron = %+v, want enabled with a schedule", cfg.Cron)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err != nil {
		t.Fatalf("a missing config file must fall back to defaults: %v", err)
	}
}

func TestLoadYAMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("sync:\n  page_size: 25\n  resource_pause: 5s\nstore:\n  backend: postgres\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sync.PageSize != 25 {
		t.Errorf("page_size = %d, want 25 from the file", cfg.Sync.PageSize)
	}
	if cfg.Sync.ResourcePause != 5*time.Second {
		t.Errorf("resource_pause = %v, want 5s", cfg.Sync.ResourcePause)
	}
	if cfg.Store.Backend != "postgres" {
		t.Errorf("store backend = %q, want postgres", cfg.Store.Backend)
	}
	if cfg.Sync.BatchSize != 500 {
		t.Errorf("batch_size = %d, unset keys must keep defaults", cfg.Sync.BatchSize)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FM_SYNC_MAX_RETRIES", "9")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sync.MaxRetries != 9 {
		t.Errorf("max_retries = %d, want the env override 9", cfg.Sync.MaxRetries)
	}
}
