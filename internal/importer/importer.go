// Package importer turns external tabular rows into validated ledger records.
// Rows are processed independently: one malformed row lands in the error list
// and never aborts the batch.
package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tengebook-dev/tengebook/internal/currency"
	"github.com/tengebook-dev/tengebook/internal/model"
)

// Policy selects how much of each row is trusted.
type Policy string

const (
	// PolicyFullBackup takes every field, including rate and amount_kzt,
	// as authoritative from the row.
	PolicyFullBackup Policy = "full_backup"
	// PolicyCurrentRate keeps amount/currency/category/date from the row but
	// recomputes rate and amount_kzt at import time, discarding stored rates.
	PolicyCurrentRate Policy = "current_rate"
	// PolicyLegacy handles 4-column rows: date,type,category,amount. The
	// currency is the base currency at rate 1.
	PolicyLegacy Policy = "legacy"
)

// ValidPolicy reports whether p is a known import policy.
func ValidPolicy(p Policy) bool {
	switch p {
	case PolicyFullBackup, PolicyCurrentRate, PolicyLegacy:
		return true
	}
	return false
}

// Full row column layout. Legacy rows carry only the first four fields in the
// order date,type,category,amount.
const (
	colDate = iota
	colType
	colWalletID
	colCategory
	colAmountOriginal
	colCurrency
	colRate
	colAmountKZT
	colDescription
	colPeriod
	colTransferID
	colFromWalletID
	colToWalletID
	numFields

	legacyNumFields = 4
	legacyColDate   = 0
	legacyColType   = 1
	legacyColCat    = 2
	legacyColAmount = 3
)

// RowError names one rejected row and the reason.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Result is the tri-outcome of an import pass.
type Result struct {
	Records   []model.Record
	Transfers []model.Transfer
	// InitialBalance carries the value of an empty-date Initial Balance
	// marker row, when the export had one.
	InitialBalance decimal.Decimal
	Skipped        int
	Errors         []RowError
}

// Imported is the number of accepted records.
func (r Result) Imported() int { return len(r.Records) }

// sentinel reports whether a row is a report artifact rather than data:
// SUBTOTAL and FINAL BALANCE summary lines.
func sentinel(row []string) bool {
	for _, field := range row {
		switch strings.ToUpper(strings.TrimSpace(field)) {
		case "SUBTOTAL", "FINAL BALANCE":
			return true
		}
	}
	return false
}

// initialBalanceRow matches the empty-date Initial Balance marker some
// exports carry and extracts its value.
func initialBalanceRow(row []string) (decimal.Decimal, bool) {
	if len(row) <= colAmountOriginal ||
		strings.TrimSpace(row[colDate]) != "" ||
		!strings.EqualFold(strings.TrimSpace(row[colCategory]), "Initial Balance") {
		return decimal.Decimal{}, false
	}
	balance, err := decimal.NewFromString(strings.TrimSpace(row[colAmountOriginal]))
	if err != nil {
		return decimal.Decimal{}, true
	}
	return balance, true
}

func blank(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// transferLeg is one parsed row that referenced a transfer id, kept until the
// whole batch is read so the pair can be reassembled.
type transferLeg struct {
	row    int
	record model.Record
	from   int
	to     int
}

// ImportRows validates rows under the given policy. Sentinel and blank rows
// are skipped, malformed rows collect into Errors and count as skipped, and
// transfer legs are reassembled into Transfer aggregates; a leg with no
// matching partner is an error, not a silent orphan.
func ImportRows(rows [][]string, policy Policy, rates currency.Provider, validWallets map[int]bool) Result {
	if !ValidPolicy(policy) {
		return Result{Errors: []RowError{{Row: 0, Reason: fmt.Sprintf("unknown import policy %q", policy)}}}
	}

	var res Result
	legs := make(map[int][]transferLeg)
	var legOrder []int

	for i, row := range rows {
		rowNum := i + 1
		if blank(row) || sentinel(row) {
			res.Skipped++
			continue
		}
		if balance, ok := initialBalanceRow(row); ok {
			res.InitialBalance = balance
			res.Skipped++
			continue
		}
		rec, from, to, err := parseRow(row, policy, rates, validWallets)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}
		if rec.Linked() {
			if _, seen := legs[rec.TransferID]; !seen {
				legOrder = append(legOrder, rec.TransferID)
			}
			legs[rec.TransferID] = append(legs[rec.TransferID], transferLeg{
				row: rowNum, record: rec, from: from, to: to,
			})
			continue
		}
		res.Records = append(res.Records, rec)
	}

	for _, id := range legOrder {
		pair := legs[id]
		t, err := assembleTransfer(id, pair)
		if err != nil {
			for _, leg := range pair {
				res.Skipped++
				res.Errors = append(res.Errors, RowError{Row: leg.row, Reason: err.Error()})
			}
			continue
		}
		res.Transfers = append(res.Transfers, t)
		for _, leg := range pair {
			res.Records = append(res.Records, leg.record)
		}
	}
	return res
}

// assembleTransfer rebuilds the Transfer aggregate from its two legs.
func assembleTransfer(id int, pair []transferLeg) (model.Transfer, error) {
	if len(pair) != 2 {
		return model.Transfer{}, fmt.Errorf("transfer #%d has %d legs, want 2", id, len(pair))
	}
	var expense, income *transferLeg
	for i := range pair {
		switch pair[i].record.Type {
		case model.TypeExpense:
			expense = &pair[i]
		case model.TypeIncome:
			income = &pair[i]
		}
	}
	if expense == nil || income == nil {
		return model.Transfer{}, fmt.Errorf("transfer #%d legs must be one expense and one income", id)
	}
	if !expense.record.AmountKZT.Equal(income.record.AmountKZT) {
		return model.Transfer{}, fmt.Errorf("transfer #%d legs disagree on amount_kzt", id)
	}

	from := expense.from
	if from == 0 {
		from = expense.record.WalletID
	}
	to := expense.to
	if to == 0 {
		to = income.record.WalletID
	}
	r := expense.record
	return model.NewTransfer(id, from, to, r.Date, r.AmountOriginal, r.Currency,
		r.RateAtOperation, r.AmountKZT, r.Description)
}

func parseRow(row []string, policy Policy, rates currency.Provider, validWallets map[int]bool) (model.Record, int, int, error) {
	if policy == PolicyLegacy {
		rec, err := parseLegacyRow(row)
		return rec, 0, 0, err
	}
	if len(row) < colAmountKZT+1 {
		return model.Record{}, 0, 0, fmt.Errorf("want at least %d fields, got %d", colAmountKZT+1, len(row))
	}

	walletID, err := strconv.Atoi(strings.TrimSpace(row[colWalletID]))
	if err != nil {
		return model.Record{}, 0, 0, fmt.Errorf("parsing wallet_id %q: %w", row[colWalletID], err)
	}
	if !validWallets[walletID] {
		return model.Record{}, 0, 0, fmt.Errorf("%w: wallet_id=%d", model.ErrInvalidWalletRef, walletID)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(row[colAmountOriginal]))
	if err != nil {
		return model.Record{}, 0, 0, fmt.Errorf("parsing amount_original %q: %w", row[colAmountOriginal], err)
	}

	code := strings.ToUpper(strings.TrimSpace(row[colCurrency]))
	var rate, amountKZT decimal.Decimal
	switch policy {
	case PolicyFullBackup:
		rate, err = decimal.NewFromString(strings.TrimSpace(row[colRate]))
		if err != nil {
			return model.Record{}, 0, 0, fmt.Errorf("parsing rate_at_operation %q: %w", row[colRate], err)
		}
		amountKZT, err = decimal.NewFromString(strings.TrimSpace(row[colAmountKZT]))
		if err != nil {
			return model.Record{}, 0, 0, fmt.Errorf("parsing amount_kzt %q: %w", row[colAmountKZT], err)
		}
	case PolicyCurrentRate:
		if code == currency.BaseCurrency {
			rate = decimal.NewFromInt(1)
		} else {
			rate, err = rates.Rate(code)
			if err != nil {
				return model.Record{}, 0, 0, err
			}
		}
		amountKZT = amount.Mul(rate)
	}

	params := model.RecordParams{
		Type:           model.RecordType(strings.TrimSpace(row[colType])),
		Date:           strings.TrimSpace(row[colDate]),
		WalletID:       walletID,
		AmountOriginal: amount,
		Currency:       code,
		Rate:           rate,
		AmountKZT:      amountKZT,
		Category:       row[colCategory],
	}
	var from, to int
	if len(row) > colDescription {
		params.Description = strings.TrimSpace(row[colDescription])
	}
	if len(row) > colPeriod {
		params.Period = model.Period(strings.TrimSpace(row[colPeriod]))
	}
	if len(row) > colTransferID && strings.TrimSpace(row[colTransferID]) != "" {
		params.TransferID, err = strconv.Atoi(strings.TrimSpace(row[colTransferID]))
		if err != nil {
			return model.Record{}, 0, 0, fmt.Errorf("parsing transfer_id %q: %w", row[colTransferID], err)
		}
	}
	if len(row) > colFromWalletID && strings.TrimSpace(row[colFromWalletID]) != "" {
		from, err = strconv.Atoi(strings.TrimSpace(row[colFromWalletID]))
		if err != nil {
			return model.Record{}, 0, 0, fmt.Errorf("parsing from_wallet_id %q: %w", row[colFromWalletID], err)
		}
	}
	if len(row) > colToWalletID && strings.TrimSpace(row[colToWalletID]) != "" {
		to, err = strconv.Atoi(strings.TrimSpace(row[colToWalletID]))
		if err != nil {
			return model.Record{}, 0, 0, fmt.Errorf("parsing to_wallet_id %q: %w", row[colToWalletID], err)
		}
	}

	rec, err := model.NewRecord(params)
	if err != nil {
		return model.Record{}, 0, 0, err
	}
	return rec, from, to, nil
}

// parseLegacyRow handles the historic 4-column form. Amounts are in the base
// currency at rate 1; records land on the system wallet.
func parseLegacyRow(row []string) (model.Record, error) {
	if len(row) < legacyNumFields {
		return model.Record{}, fmt.Errorf("want %d fields, got %d", legacyNumFields, len(row))
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(row[legacyColAmount]))
	if err != nil {
		return model.Record{}, fmt.Errorf("parsing amount %q: %w", row[legacyColAmount], err)
	}
	return model.NewRecord(model.RecordParams{
		Type:           model.RecordType(strings.TrimSpace(row[legacyColType])),
		Date:           strings.TrimSpace(row[legacyColDate]),
		WalletID:       model.SystemWalletID,
		AmountOriginal: amount.Abs(),
		Currency:       currency.BaseCurrency,
		Rate:           decimal.NewFromInt(1),
		AmountKZT:      amount.Abs(),
		Category:       row[legacyColCat],
	})
}
