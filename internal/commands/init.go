package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tengebook-dev/tengebook/internal/config"
	"github.com/tengebook-dev/tengebook/internal/currency"
	"github.com/tengebook-dev/tengebook/internal/ledger"
	"github.com/tengebook-dev/tengebook/internal/logging"
)

func newInitCommand() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(absDir, backend)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", config.BackendJSON, "storage backend (json or sqlite)")

	return cmd
}

func runInit(dir, backend string) error {
	for _, d := range []string{"", "backups"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}

	cfg := config.Default(dir)
	cfg.Storage.Backend = backend
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)

	if err := config.Save(filepath.Join(dir, "tengebook.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := ledger.NewService(store, currency.NewService(nil))
	if err := svc.EnsureSystemWallet(); err != nil {
		return fmt.Errorf("bootstrapping system wallet: %w", err)
	}

	fmt.Printf("Initialized ledger at %s (backend: %s)\n", dir, backend)
	return nil
}
