// Package report derives balances, groupings and FX valuations from a record
// snapshot. A Report never mutates its input and holds no storage handle; it
// is a pure function of the snapshot plus a rate provider.
package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tengebook-dev/tengebook/internal/currency"
	"github.com/tengebook-dev/tengebook/internal/model"
)

// AllWallets scopes a report over every wallet. Globally scoped reports
// exclude transfer legs from totals so money moving between own wallets is
// not double counted; wallet-scoped reports keep them, because each leg does
// change that wallet's balance.
const AllWallets = 0

// Report is a period- and wallet-scoped view over ledger records.
type Report struct {
	records        []model.Record
	initialBalance decimal.Decimal
	walletScope    int
	periodStart    string
	periodEnd      string
}

// New builds a report over a record snapshot. walletScope filters records to
// one wallet, or AllWallets for the whole ledger. initialBalance seeds the
// running balance (the wallet's or the ledger's combined initial balance).
func New(records []model.Record, initialBalance decimal.Decimal, walletScope int) *Report {
	scoped := make([]model.Record, 0, len(records))
	for _, r := range records {
		if walletScope == AllWallets || r.WalletID == walletScope {
			scoped = append(scoped, r)
		}
	}
	return &Report{
		records:        scoped,
		initialBalance: initialBalance,
		walletScope:    walletScope,
	}
}

// Records returns the scoped records in insertion order.
func (r *Report) Records() []model.Record {
	out := make([]model.Record, len(r.records))
	copy(out, r.records)
	return out
}

// InitialBalance is the balance the report starts from. After a period
// filter this is the opening balance at the period start.
func (r *Report) InitialBalance() decimal.Decimal { return r.initialBalance }

// PeriodStart returns the period lower bound, or "" for an unfiltered report.
func (r *Report) PeriodStart() string { return r.periodStart }

// PeriodEnd returns the period upper bound, or "" for an unfiltered report.
func (r *Report) PeriodEnd() string { return r.periodEnd }

// profitRecords are the records that take part in totals and net profit.
func (r *Report) profitRecords() []model.Record {
	if r.walletScope != AllWallets {
		return r.records
	}
	out := make([]model.Record, 0, len(r.records))
	for _, rec := range r.records {
		if !rec.Linked() {
			out = append(out, rec)
		}
	}
	return out
}

// TotalFixed is the closing balance by operation-time rates.
func (r *Report) TotalFixed() decimal.Decimal {
	total := r.initialBalance
	for _, rec := range r.profitRecords() {
		total = total.Add(rec.SignedAmountKZT())
	}
	return total
}

// Total is an alias for TotalFixed.
func (r *Report) Total() decimal.Decimal { return r.TotalFixed() }

// NetProfitFixed is the period's signed movement, excluding the balance the
// period started from.
func (r *Report) NetProfitFixed() decimal.Decimal {
	return r.TotalFixed().Sub(r.initialBalance)
}

// TotalCurrent revalues every original amount at today's rate. Stored
// rate_at_operation values are left untouched; this is a read-time
// projection.
func (r *Report) TotalCurrent(provider currency.Provider) (decimal.Decimal, error) {
	total := r.initialBalance
	for _, rec := range r.profitRecords() {
		rate, err := provider.Rate(rec.Currency)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("revaluing record #%d: %w", rec.ID, err)
		}
		converted := rec.AmountOriginal.Mul(rate).Abs()
		if rec.SignedAmountKZT().IsNegative() {
			converted = converted.Neg()
		}
		total = total.Add(converted)
	}
	return total, nil
}

// FXDifference is current valuation minus fixed valuation.
func (r *Report) FXDifference(provider currency.Provider) (decimal.Decimal, error) {
	current, err := r.TotalCurrent(provider)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return current.Sub(r.TotalFixed()), nil
}

// OpeningBalance is the balance immediately before start: the initial balance
// plus every countable record strictly before the boundary. It is computed
// per call because it moves with the chosen period boundary.
func (r *Report) OpeningBalance(start string) (decimal.Decimal, error) {
	boundary, err := model.ParseDate(start)
	if err != nil {
		return decimal.Decimal{}, err
	}
	total := r.initialBalance
	for _, rec := range r.profitRecords() {
		day, err := model.ParseDate(rec.Date)
		if err != nil {
			continue
		}
		if day.Before(boundary) {
			total = total.Add(rec.SignedAmountKZT())
		}
	}
	return total, nil
}

// FilterByPeriod keeps records inside the period named by an ISO date prefix
// ("2025", "2025-01", "2025-01-15"). The result's initial balance is the
// opening balance at the period start.
func (r *Report) FilterByPeriod(prefix string) (*Report, error) {
	start, err := PeriodStart(prefix)
	if err != nil {
		return nil, err
	}
	end, err := PeriodEnd(prefix)
	if err != nil {
		return nil, err
	}
	return r.filterRange(start, end)
}

// FilterByPeriodRange keeps records between two prefixes. An empty end clamps
// to today; an end before the start or after today is rejected.
func (r *Report) FilterByPeriodRange(startPrefix, endPrefix string) (*Report, error) {
	start, err := PeriodStart(startPrefix)
	if err != nil {
		return nil, err
	}
	end := model.Today()
	if endPrefix != "" {
		end, err = PeriodEnd(endPrefix)
		if err != nil {
			return nil, err
		}
		if err := model.EnsureNotFuture(end); err != nil {
			return nil, err
		}
	}
	if end < start {
		return nil, fmt.Errorf("period end %s is earlier than start %s", end, start)
	}
	return r.filterRange(start, end)
}

func (r *Report) filterRange(start, end string) (*Report, error) {
	opening, err := r.OpeningBalance(start)
	if err != nil {
		return nil, err
	}
	filtered := make([]model.Record, 0, len(r.records))
	for _, rec := range r.records {
		if rec.Date >= start && rec.Date <= end {
			filtered = append(filtered, rec)
		}
	}
	return &Report{
		records:        filtered,
		initialBalance: opening,
		walletScope:    r.walletScope,
		periodStart:    start,
		periodEnd:      end,
	}, nil
}

// FilterByCategory keeps records of one category. The wallet scope — and with
// it the transfer-exclusion behavior — carries over from the parent report.
func (r *Report) FilterByCategory(category string) *Report {
	filtered := make([]model.Record, 0, len(r.records))
	for _, rec := range r.records {
		if rec.Category == category {
			filtered = append(filtered, rec)
		}
	}
	return &Report{
		records:     filtered,
		walletScope: r.walletScope,
		periodStart: r.periodStart,
		periodEnd:   r.periodEnd,
	}
}

// CategoryGroup pairs a category with its sub-report.
type CategoryGroup struct {
	Category string
	Report   *Report
}

// GroupedByCategory splits the countable records into one sub-report per
// category, ordered by first occurrence.
func (r *Report) GroupedByCategory() []CategoryGroup {
	byCategory := make(map[string][]model.Record)
	var order []string
	for _, rec := range r.profitRecords() {
		if _, seen := byCategory[rec.Category]; !seen {
			order = append(order, rec.Category)
		}
		byCategory[rec.Category] = append(byCategory[rec.Category], rec)
	}
	groups := make([]CategoryGroup, 0, len(order))
	for _, category := range order {
		groups = append(groups, CategoryGroup{
			Category: category,
			Report:   &Report{records: byCategory[category], walletScope: r.walletScope},
		})
	}
	return groups
}

// SortedByDate returns a copy ordered by date; ties keep insertion order.
func (r *Report) SortedByDate(ascending bool) *Report {
	sorted := make([]model.Record, len(r.records))
	copy(sorted, r.records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Date > sorted[j].Date
	})
	return &Report{
		records:        sorted,
		initialBalance: r.initialBalance,
		walletScope:    r.walletScope,
		periodStart:    r.periodStart,
		periodEnd:      r.periodEnd,
	}
}
