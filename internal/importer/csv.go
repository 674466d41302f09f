package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tengebook-dev/tengebook/internal/currency"
	"github.com/tengebook-dev/tengebook/internal/model"
	"github.com/tengebook-dev/tengebook/internal/storage"
)

// ImportCSV reads tabular rows from r and validates them under policy. A
// header row is detected by a non-numeric, non-date first cell and skipped.
func ImportCSV(r io.Reader, policy Policy, rates currency.Provider, validWallets map[int]bool) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("reading import CSV: %w", err)
	}
	if len(rows) > 0 && header(rows[0]) {
		rows = rows[1:]
	}
	return ImportRows(rows, policy, rates, validWallets), nil
}

func header(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "date" || first == "#"
}

// Apply replaces the store's records and transfers with the import result.
// This is a destructive full replace, not a merge; callers confirm first.
func Apply(store storage.Store, res Result) error {
	slog.Info("replacing dataset from import",
		"imported", res.Imported(), "skipped", res.Skipped, "errors", len(res.Errors))
	return store.ReplaceRecordsAndTransfers(res.Records, res.Transfers)
}

// RestoreBundle replaces the entire dataset from a full-backup bundle. The
// bundle is validated as a whole first; a bundle whose records reference
// missing wallets or transfers is rejected without touching the store.
func RestoreBundle(store storage.Store, d model.Dataset) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("validating backup bundle: %w", err)
	}
	slog.Info("restoring full backup",
		"wallets", len(d.Wallets), "records", len(d.Records),
		"transfers", len(d.Transfers), "mandatory_expenses", len(d.MandatoryExpenses))
	return store.ReplaceAll(d)
}
