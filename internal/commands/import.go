package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tengebook-dev/tengebook/internal/backup"
	"github.com/tengebook-dev/tengebook/internal/importer"
	"github.com/tengebook-dev/tengebook/internal/model"
)

func newImportCommand() *cobra.Command {
	var policy string
	var bundle bool
	var mandatory bool
	var force bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import records from a CSV file or full-backup bundle",
		Long: `Import replaces the current record set with the file contents. This is
destructive: the previous records and transfers are gone after a successful
import. A timestamped backup of the JSON dataset is taken first when one
exists. Rows are validated independently; malformed rows are reported and
skipped without aborting the batch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !force {
				return fmt.Errorf("import fully replaces existing records; re-run with --force to confirm")
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := os.Stat(cfg.Storage.JSONPath); err == nil {
				path, err := backup.CreateBackup(cfg.Storage.JSONPath)
				if err != nil {
					return fmt.Errorf("creating pre-import backup: %w", err)
				}
				fmt.Printf("Backup: %s\n", path)
			}

			if bundle {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("reading bundle: %w", err)
				}
				var d model.Dataset
				if err := json.Unmarshal(data, &d); err != nil {
					return fmt.Errorf("parsing bundle: %w", err)
				}
				if err := importer.RestoreBundle(store, d); err != nil {
					return err
				}
				fmt.Printf("Restored %d wallets, %d records, %d transfers, %d mandatory expenses\n",
					len(d.Wallets), len(d.Records), len(d.Transfers), len(d.MandatoryExpenses))
				return nil
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()

			wallets, err := store.Wallets()
			if err != nil {
				return err
			}
			validWallets := make(map[int]bool, len(wallets))
			for _, w := range wallets {
				validWallets[w.ID] = true
			}

			if mandatory {
				res, err := importer.ImportMandatoryCSV(f, validWallets)
				if err != nil {
					return err
				}
				if err := importer.ApplyMandatory(store, res); err != nil {
					return err
				}
				fmt.Printf("Imported %d templates, skipped %d, errors %d\n",
					len(res.Expenses), res.Skipped, len(res.Errors))
				for _, e := range res.Errors {
					fmt.Printf("  %s\n", e.Error())
				}
				return nil
			}

			// Only the current-rate policy needs the live feed.
			live := importer.Policy(policy) == importer.PolicyCurrentRate
			res, err := importer.ImportCSV(f, importer.Policy(policy), rateService(cfg, live), validWallets)
			if err != nil {
				return err
			}
			if err := importer.Apply(store, res); err != nil {
				return err
			}

			fmt.Printf("Imported %d, skipped %d, errors %d\n", res.Imported(), res.Skipped, len(res.Errors))
			for _, e := range res.Errors {
				fmt.Printf("  %s\n", e.Error())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&policy, "policy", string(importer.PolicyFullBackup),
		"trust policy: full_backup, current_rate or legacy")
	cmd.Flags().BoolVar(&bundle, "bundle", false, "treat the file as a JSON full-backup bundle")
	cmd.Flags().BoolVar(&mandatory, "mandatory", false,
		"import mandatory-expense templates only, leaving records untouched")
	cmd.Flags().BoolVar(&force, "force", false, "confirm the destructive full replace")

	return cmd
}
