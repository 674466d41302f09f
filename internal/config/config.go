package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names for the storage adapter selection.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config represents the top-level tengebook.yaml configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Currency CurrencyConfig `yaml:"currency"`
	Log      LogConfig      `yaml:"log"`
}

// StorageConfig selects the persistence backend and its file locations.
type StorageConfig struct {
	Backend    string `yaml:"backend"` // "json" or "sqlite"
	JSONPath   string `yaml:"json_path"`
	SQLitePath string `yaml:"sqlite_path"`
}

// CurrencyConfig controls base-currency conversion and the rate feed.
type CurrencyConfig struct {
	Base         string        `yaml:"base"`
	RatesURL     string        `yaml:"rates_url,omitempty"`
	RatesCache   string        `yaml:"rates_cache,omitempty"`
	FetchTimeout time.Duration `yaml:"fetch_timeout,omitempty"`
}

// LogConfig controls structured log output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Load reads a tengebook.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks the backend selection and paths.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q (want %q or %q)",
			c.Storage.Backend, BackendJSON, BackendSQLite)
	}
	if c.Storage.Backend == BackendJSON && c.Storage.JSONPath == "" {
		return fmt.Errorf("storage.json_path must be set for the json backend")
	}
	if c.Storage.Backend == BackendSQLite && c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path must be set for the sqlite backend")
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
func Default(dir string) *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    BackendJSON,
			JSONPath:   filepath.Join(dir, "ledger.json"),
			SQLitePath: filepath.Join(dir, "ledger.db"),
		},
		Currency: CurrencyConfig{
			Base:         "KZT",
			RatesCache:   filepath.Join(dir, "rates_cache.json"),
			FetchTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
