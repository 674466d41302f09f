package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tengebook-dev/tengebook/internal/model"
)

// MonthlyRow is one month of income/expense aggregation. Amounts are always
// taken from the fixed amount_kzt values, whatever valuation mode a caller
// renders elsewhere.
type MonthlyRow struct {
	Month   string
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// MonthlyIncomeExpenseRows aggregates income and expense totals per month of
// one year, one row per month from January through upToMonth. Zero arguments
// pick the latest year present in the data and its latest populated month.
func (r *Report) MonthlyIncomeExpenseRows(year, upToMonth int) (int, []MonthlyRow) {
	records := r.profitRecords()
	now := time.Now()

	if year == 0 {
		for _, rec := range records {
			if y, _, ok := yearMonth(rec.Date); ok && y > year {
				year = y
			}
		}
		if year == 0 {
			year = now.Year()
		}
	}

	if upToMonth == 0 {
		for _, rec := range records {
			if y, m, ok := yearMonth(rec.Date); ok && y == year && int(m) > upToMonth {
				upToMonth = int(m)
			}
		}
		if upToMonth == 0 {
			if year == now.Year() {
				upToMonth = int(now.Month())
			} else {
				upToMonth = 12
			}
		}
	}
	if upToMonth < 1 {
		upToMonth = 1
	}
	if upToMonth > 12 {
		upToMonth = 12
	}

	income := make(map[int]decimal.Decimal)
	expense := make(map[int]decimal.Decimal)
	for _, rec := range records {
		y, m, ok := yearMonth(rec.Date)
		if !ok || y != year || int(m) > upToMonth {
			continue
		}
		if rec.Type == model.TypeIncome {
			income[int(m)] = income[int(m)].Add(rec.AmountKZT)
		} else {
			expense[int(m)] = expense[int(m)].Add(rec.AmountKZT.Abs())
		}
	}

	rows := make([]MonthlyRow, 0, upToMonth)
	for month := 1; month <= upToMonth; month++ {
		rows = append(rows, MonthlyRow{
			Month:   fmt.Sprintf("%04d-%02d", year, month),
			Income:  income[month],
			Expense: expense[month],
			Net:     income[month].Sub(expense[month]),
		})
	}
	return year, rows
}
