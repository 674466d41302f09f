package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tengebook-dev/tengebook/internal/migrate"
)

func newMigrateCommand() *cobra.Command {
	var jsonPath string
	var sqlitePath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the JSON ledger into SQLite",
		Long: `Migrate copies the JSON dataset into a SQLite database as one
transaction. The written rows are verified against the source before commit;
any mismatch rolls everything back. A timestamped JSON backup is created
before any destructive step.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if jsonPath == "" {
				jsonPath = cfg.Storage.JSONPath
			}
			if sqlitePath == "" {
				sqlitePath = cfg.Storage.SQLitePath
			}

			summary, err := migrate.Run(migrate.Options{
				JSONPath:   jsonPath,
				SQLitePath: sqlitePath,
				DryRun:     dryRun,
			})
			if err != nil {
				return err
			}

			switch {
			case summary.DryRun:
				fmt.Printf("Dry run OK: %d wallets, %d records, %d transfers, %d mandatory expenses, net worth %s\n",
					summary.Wallets, summary.Records, summary.Transfers,
					summary.MandatoryExpenses, summary.NetWorth)
			case summary.NoOp:
				fmt.Printf("Destination already up to date (%d records, net worth %s)\n",
					summary.Records, summary.NetWorth)
			default:
				fmt.Printf("Migrated %d wallets, %d records, %d transfers, %d mandatory expenses (net worth %s)\n",
					summary.Wallets, summary.Records, summary.Transfers,
					summary.MandatoryExpenses, summary.NetWorth)
				fmt.Printf("Backup: %s\n", summary.BackupPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jsonPath, "json-path", "", "source JSON dataset (default from config)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite-path", "", "destination SQLite database (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the source without writing")

	return cmd
}
