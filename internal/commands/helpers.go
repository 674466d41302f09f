package commands

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tengebook-dev/tengebook/internal/config"
	"github.com/tengebook-dev/tengebook/internal/currency"
	"github.com/tengebook-dev/tengebook/internal/logging"
	"github.com/tengebook-dev/tengebook/internal/storage"
)

// loadConfig reads the config named by the root --config flag. A missing file
// yields the defaults anchored next to the config path, not an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := config.Default(filepath.Dir(path))
		logging.Init(cfg.Log.Level, cfg.Log.Format)
		return cfg, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

// openStore opens the configured storage backend.
func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.Backend == config.BackendSQLite {
		return storage.OpenSQLite(cfg.Storage.SQLitePath)
	}
	return storage.NewJSONStore(cfg.Storage.JSONPath), nil
}

// rateService builds a rate provider. With live set it polls the feed,
// falling back to the cache and then the built-in defaults; otherwise the
// cache or defaults are used without touching the network.
func rateService(cfg *config.Config, live bool) *currency.Service {
	fetcher := currency.NewFetcher(cfg.Currency.RatesCache)
	if cfg.Currency.RatesURL != "" {
		fetcher.URL = cfg.Currency.RatesURL
	}
	timeout := cfg.Currency.FetchTimeout
	if timeout <= 0 {
		timeout = currency.DefaultFetchTimeout
	}
	fetcher.Client = &http.Client{Timeout: timeout}

	if !live {
		return currency.NewService(nil)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return currency.NewService(fetcher.Rates(ctx))
}
