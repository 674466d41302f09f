// Package migrate moves a JSON ledger into SQLite as one all-or-nothing
// transaction with an independent post-write verification.
package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tengebook-dev/tengebook/internal/backup"
	"github.com/tengebook-dev/tengebook/internal/model"
	"github.com/tengebook-dev/tengebook/internal/storage"
)

// Options configure one migration run.
type Options struct {
	JSONPath   string
	SQLitePath string
	// DryRun validates the source and reports without writing anything.
	DryRun bool
}

// Summary describes what a run did (or, for a dry run, would do).
type Summary struct {
	Wallets           int
	Records           int
	Transfers         int
	MandatoryExpenses int
	NetWorth          decimal.Decimal
	BackupPath        string
	DryRun            bool
	// NoOp is set when the destination already held an equivalent dataset.
	NoOp bool
}

// IntegrityError reports a post-write verification mismatch. It always means
// the transaction was rolled back and the destination is untouched.
type IntegrityError struct {
	Mismatches []string
}

func (e *IntegrityError) Error() string {
	return "migration verification failed, rolled back: " + strings.Join(e.Mismatches, "; ")
}

// verifyTolerance absorbs float round-tripping through SQLite REAL columns.
var verifyTolerance = decimal.New(1, -6)

// Run migrates the JSON dataset at Options.JSONPath into the SQLite database
// at Options.SQLitePath. Writes happen inside one transaction in dependency
// order (wallets, transfers, records, mandatory expenses); the written rows
// are re-read and checked against the source snapshot before commit, and any
// mismatch rolls the whole transaction back. Re-running against a destination
// that already holds an equivalent dataset is a no-op success.
func Run(opts Options) (Summary, error) {
	if _, err := os.Stat(opts.JSONPath); errors.Is(err, fs.ErrNotExist) {
		return Summary{}, fmt.Errorf("source dataset %s does not exist", opts.JSONPath)
	}

	source := storage.NewJSONStore(opts.JSONPath)
	src, err := source.Dataset()
	if err != nil {
		return Summary{}, err
	}
	if err := src.Validate(); err != nil {
		return Summary{}, fmt.Errorf("validating source dataset: %w", err)
	}

	summary := Summary{
		Wallets:           len(src.Wallets),
		Records:           len(src.Records),
		Transfers:         len(src.Transfers),
		MandatoryExpenses: len(src.MandatoryExpenses),
		NetWorth:          src.NetWorth(),
		DryRun:            opts.DryRun,
	}
	if opts.DryRun {
		slog.Info("dry run: source dataset is valid",
			"wallets", summary.Wallets, "records", summary.Records,
			"transfers", summary.Transfers, "net_worth", summary.NetWorth)
		return summary, nil
	}

	dest, err := storage.OpenSQLite(opts.SQLitePath)
	if err != nil {
		return Summary{}, err
	}
	defer dest.Close()

	existing, err := dest.Dataset()
	if err != nil {
		return Summary{}, err
	}
	if !empty(existing) {
		if equivalent(src, existing) {
			slog.Info("destination already holds an equivalent dataset, nothing to do",
				"sqlite_path", opts.SQLitePath)
			summary.NoOp = true
			return summary, nil
		}
		return Summary{}, fmt.Errorf("%w: %s holds a different dataset", storage.ErrNotEmpty, opts.SQLitePath)
	}

	backupPath, err := backup.CreateBackup(opts.JSONPath)
	if err != nil {
		return Summary{}, fmt.Errorf("creating pre-migration backup: %w", err)
	}
	summary.BackupPath = backupPath
	slog.Info("created pre-migration backup", "path", backupPath)

	prepared, remapped := remapIDs(src)
	if remapped {
		slog.Info("source ids not preservable, renumbering sequentially")
	}

	tx, err := dest.DB().Begin()
	if err != nil {
		return Summary{}, fmt.Errorf("starting migration transaction: %w", err)
	}
	defer tx.Rollback()

	if err := storage.WriteDatasetTx(tx, prepared); err != nil {
		return Summary{}, err
	}

	written, err := storage.ReadDatasetTx(tx)
	if err != nil {
		return Summary{}, fmt.Errorf("re-reading destination: %w", err)
	}
	if mismatches := verify(src, written); len(mismatches) > 0 {
		return Summary{}, &IntegrityError{Mismatches: mismatches}
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("committing migration: %w", err)
	}
	slog.Info("migration complete",
		"wallets", summary.Wallets, "records", summary.Records,
		"transfers", summary.Transfers, "mandatory_expenses", summary.MandatoryExpenses,
		"net_worth", summary.NetWorth)
	return summary, nil
}

func empty(d model.Dataset) bool {
	return len(d.Wallets) == 0 && len(d.Records) == 0 &&
		len(d.Transfers) == 0 && len(d.MandatoryExpenses) == 0
}

// equivalent decides the idempotent no-op case: same row counts and the same
// net worth within tolerance.
func equivalent(a, b model.Dataset) bool {
	if len(a.Wallets) != len(b.Wallets) || len(a.Records) != len(b.Records) ||
		len(a.Transfers) != len(b.Transfers) ||
		len(a.MandatoryExpenses) != len(b.MandatoryExpenses) {
		return false
	}
	return a.NetWorth().Sub(b.NetWorth()).Abs().LessThanOrEqual(verifyTolerance)
}

// verify recomputes row counts, per-wallet balances and net worth from the
// written rows and compares against the source snapshot. Balances are
// compared as sorted values so a renumbered migration still verifies.
func verify(src, written model.Dataset) []string {
	var mismatches []string
	counts := []struct {
		name      string
		want, got int
	}{
		{"wallets", len(src.Wallets), len(written.Wallets)},
		{"records", len(src.Records), len(written.Records)},
		{"transfers", len(src.Transfers), len(written.Transfers)},
		{"mandatory_expenses", len(src.MandatoryExpenses), len(written.MandatoryExpenses)},
	}
	for _, c := range counts {
		if c.want != c.got {
			mismatches = append(mismatches, fmt.Sprintf("%s count: source %d, destination %d", c.name, c.want, c.got))
		}
	}

	srcWorth, dstWorth := src.NetWorth(), written.NetWorth()
	if srcWorth.Sub(dstWorth).Abs().GreaterThan(verifyTolerance) {
		mismatches = append(mismatches, fmt.Sprintf("net worth: source %s, destination %s", srcWorth, dstWorth))
	}

	srcBalances := sortedBalances(src)
	dstBalances := sortedBalances(written)
	if len(srcBalances) == len(dstBalances) {
		for i := range srcBalances {
			if srcBalances[i].Sub(dstBalances[i]).Abs().GreaterThan(verifyTolerance) {
				mismatches = append(mismatches, fmt.Sprintf("wallet balance: source %s, destination %s", srcBalances[i], dstBalances[i]))
			}
		}
	}
	return mismatches
}

func sortedBalances(d model.Dataset) []decimal.Decimal {
	balances := make([]decimal.Decimal, 0, len(d.Wallets))
	for _, b := range d.WalletBalances() {
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].LessThan(balances[j]) })
	return balances
}

func preservable[T any](items []T, id func(T) int) bool {
	seen := make(map[int]bool, len(items))
	for _, item := range items {
		n := id(item)
		if n <= 0 || seen[n] {
			return false
		}
		seen[n] = true
	}
	return true
}

// remapIDs keeps source ids when every table's ids are positive and unique;
// otherwise it renumbers each table sequentially and rewrites all dependent
// references before anything is written.
func remapIDs(d model.Dataset) (model.Dataset, bool) {
	ok := preservable(d.Wallets, func(w model.Wallet) int { return w.ID }) &&
		preservable(d.Records, func(r model.Record) int { return r.ID }) &&
		preservable(d.Transfers, func(t model.Transfer) int { return t.ID }) &&
		preservable(d.MandatoryExpenses, func(m model.MandatoryExpense) int { return m.ID })
	if ok {
		return d, false
	}

	walletIDs := make(map[int]int, len(d.Wallets))
	transferIDs := make(map[int]int, len(d.Transfers))

	out := model.Dataset{
		Wallets:           make([]model.Wallet, len(d.Wallets)),
		Records:           make([]model.Record, len(d.Records)),
		Transfers:         make([]model.Transfer, len(d.Transfers)),
		MandatoryExpenses: make([]model.MandatoryExpense, len(d.MandatoryExpenses)),
	}
	for i, w := range d.Wallets {
		walletIDs[w.ID] = i + 1
		w.ID = i + 1
		out.Wallets[i] = w
	}
	for i, t := range d.Transfers {
		transferIDs[t.ID] = i + 1
		t.ID = i + 1
		t.FromWalletID = walletIDs[t.FromWalletID]
		t.ToWalletID = walletIDs[t.ToWalletID]
		out.Transfers[i] = t
	}
	for i, r := range d.Records {
		r.ID = i + 1
		r.WalletID = walletIDs[r.WalletID]
		if r.Linked() {
			r.TransferID = transferIDs[r.TransferID]
		}
		out.Records[i] = r
	}
	for i, m := range d.MandatoryExpenses {
		m.ID = i + 1
		m.WalletID = walletIDs[m.WalletID]
		out.MandatoryExpenses[i] = m
	}
	return out, true
}
