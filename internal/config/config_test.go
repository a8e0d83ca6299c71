package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	def := Default()
	if cfg.ServerURL != def.ServerURL {
		t.Errorf("ServerURL = %q, want %q", cfg.ServerURL, def.ServerURL)
	}
	if cfg.PollInterval != def.PollInterval {
		t.Errorf("PollInterval = %v, want %v", cfg.PollInterval, def.PollInterval)
	}
	if cfg.PageSize != def.PageSize {
		t.Errorf("PageSize = %d, want %d", cfg.PageSize, def.PageSize)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `{"server_url": "https://circles.example.com", "page_size": 50}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ServerURL != "https://circles.example.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.PageSize)
	}
	// Unset fields keep defaults
	if cfg.PollInterval != Default().PollInterval {
		t.Errorf("PollInterval = %v, want default", cfg.PollInterval)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := `{"server_url": "https://from-file.example.com"}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CIRCLET_SERVER_URL", "https://from-env.example.com")
	t.Setenv("CIRCLET_POLL_INTERVAL", "45s")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ServerURL != "https://from-env.example.com" {
		t.Errorf("ServerURL = %q, env should win", cfg.ServerURL)
	}
	if cfg.PollInterval != 45*time.Second {
		t.Errorf("PollInterval = %v, want 45s", cfg.PollInterval)
	}
}

func TestNormalizeClampsBadValues(t *testing.T) {
	dir := t.TempDir()
	content := `{"page_size": 5000, "poll_interval": 1}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.PageSize != Default().PageSize {
		t.Errorf("PageSize = %d, want clamped default", cfg.PageSize)
	}
	if cfg.PollInterval != Default().PollInterval {
		t.Errorf("PollInterval = %v, want clamped default", cfg.PollInterval)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.ServerURL = "https://saved.example.com"
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.ServerURL != "https://saved.example.com" {
		t.Errorf("ServerURL = %q after round trip", loaded.ServerURL)
	}
}
