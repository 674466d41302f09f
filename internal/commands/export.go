package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tengebook-dev/tengebook/internal/backup"
)

func newExportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full dataset as a JSON document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := backup.ExportToJSON(store, out); err != nil {
				return err
			}
			fmt.Printf("Exported dataset to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "ledger_export.json", "output file path")

	return cmd
}
