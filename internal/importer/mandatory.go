package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tengebook-dev/tengebook/internal/model"
	"github.com/tengebook-dev/tengebook/internal/storage"
)

// MandatoryResult is the outcome of a mandatory-expense template import.
type MandatoryResult struct {
	Expenses []model.MandatoryExpense
	Skipped  int
	Errors   []RowError
}

// ImportMandatoryRows parses recurring-expense templates from rows in the
// full record layout. The type column must read "mandatory_expense" or be
// blank, and the date may be empty: templates carry at most a reference date.
// Stored rates are trusted as-is.
func ImportMandatoryRows(rows [][]string, validWallets map[int]bool) MandatoryResult {
	var res MandatoryResult
	for i, row := range rows {
		rowNum := i + 1
		if blank(row) || sentinel(row) {
			res.Skipped++
			continue
		}
		exp, err := parseMandatoryRow(row, len(res.Expenses)+1, validWallets)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}
		res.Expenses = append(res.Expenses, exp)
	}
	return res
}

// ImportMandatoryCSV reads template rows from r, skipping a leading header.
func ImportMandatoryCSV(r io.Reader, validWallets map[int]bool) (MandatoryResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return MandatoryResult{}, fmt.Errorf("reading mandatory-expense CSV: %w", err)
	}
	if len(rows) > 0 && header(rows[0]) {
		rows = rows[1:]
	}
	return ImportMandatoryRows(rows, validWallets), nil
}

// ApplyMandatory replaces the store's templates with the import result.
// Records and transfers are untouched.
func ApplyMandatory(store storage.Store, res MandatoryResult) error {
	slog.Info("replacing mandatory-expense templates from import",
		"imported", len(res.Expenses), "skipped", res.Skipped, "errors", len(res.Errors))
	return store.ReplaceMandatoryExpenses(res.Expenses)
}

func parseMandatoryRow(row []string, id int, validWallets map[int]bool) (model.MandatoryExpense, error) {
	if len(row) < colAmountKZT+1 {
		return model.MandatoryExpense{}, fmt.Errorf("want at least %d fields, got %d", colAmountKZT+1, len(row))
	}
	if typ := strings.TrimSpace(row[colType]); typ != "" && model.RecordType(typ) != model.TypeMandatoryExpense {
		return model.MandatoryExpense{}, fmt.Errorf("unexpected type %q in mandatory-expense import", typ)
	}

	walletID, err := strconv.Atoi(strings.TrimSpace(row[colWalletID]))
	if err != nil {
		return model.MandatoryExpense{}, fmt.Errorf("parsing wallet_id %q: %w", row[colWalletID], err)
	}
	if !validWallets[walletID] {
		return model.MandatoryExpense{}, fmt.Errorf("%w: wallet_id=%d", model.ErrInvalidWalletRef, walletID)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(row[colAmountOriginal]))
	if err != nil {
		return model.MandatoryExpense{}, fmt.Errorf("parsing amount_original %q: %w", row[colAmountOriginal], err)
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(row[colRate]))
	if err != nil {
		return model.MandatoryExpense{}, fmt.Errorf("parsing rate_at_operation %q: %w", row[colRate], err)
	}
	amountKZT, err := decimal.NewFromString(strings.TrimSpace(row[colAmountKZT]))
	if err != nil {
		return model.MandatoryExpense{}, fmt.Errorf("parsing amount_kzt %q: %w", row[colAmountKZT], err)
	}

	var description string
	if len(row) > colDescription {
		description = strings.TrimSpace(row[colDescription])
	}
	period := model.PeriodMonthly
	if len(row) > colPeriod && strings.TrimSpace(row[colPeriod]) != "" {
		period = model.Period(strings.TrimSpace(row[colPeriod]))
	}

	return model.NewMandatoryExpense(id, strings.TrimSpace(row[colDate]), walletID,
		amount, strings.TrimSpace(row[colCurrency]), rate, amountKZT,
		row[colCategory], description, period)
}
