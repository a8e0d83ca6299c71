// Package config loads and persists the circlet configuration.
//
// Settings live in a JSON file under the data directory and can be
// overridden per-run through CIRCLET_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the persistent application configuration.
type Config struct {
	// ServerURL is the base URL of the circles backend.
	ServerURL string `json:"server_url" env:"CIRCLET_SERVER_URL"`

	// PollInterval is the badge-count poll cadence.
	PollInterval time.Duration `json:"poll_interval" env:"CIRCLET_POLL_INTERVAL"`

	// RequestTimeout applies to every individual HTTP request.
	RequestTimeout time.Duration `json:"request_timeout" env:"CIRCLET_REQUEST_TIMEOUT"`

	// PageSize is the notification/post page length.
	PageSize int `json:"page_size" env:"CIRCLET_PAGE_SIZE"`
}

// Default returns sensible defaults.
func Default() *Config {
	return &Config{
		ServerURL:      "http://localhost:8000",
		PollInterval:   30 * time.Second,
		RequestTimeout: 15 * time.Second,
		PageSize:       20,
	}
}

// DataDir returns the circlet data directory (~/.circlet), creating it if
// needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(home, ".circlet")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

// Load reads the config file from dataDir, fills in defaults for missing
// fields, then applies environment overrides.
func Load(dataDir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dataDir, "config.json")
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// Save writes the config file to dataDir.
func (c *Config) Save(dataDir string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dataDir, "config.json"), data, 0644)
}

// normalize clamps nonsense values back to defaults.
func (c *Config) normalize() {
	def := Default()
	if c.ServerURL == "" {
		c.ServerURL = def.ServerURL
	}
	if c.PollInterval < time.Second {
		c.PollInterval = def.PollInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		c.PageSize = def.PageSize
	}
}
