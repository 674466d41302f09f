package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tengebook-dev/tengebook/internal/currency"
	"github.com/tengebook-dev/tengebook/internal/model"
)

func rec(t *testing.T, id int, typ model.RecordType, date string, walletID, transferID int, amount int64, code string, rate int64, category string) model.Record {
	t.Helper()
	r, err := model.NewRecord(model.RecordParams{
		Type:           typ,
		Date:           date,
		WalletID:       walletID,
		TransferID:     transferID,
		AmountOriginal: decimal.NewFromInt(amount),
		Currency:       code,
		Rate:           decimal.NewFromInt(rate),
		Category:       category,
	})
	require.NoError(t, err)
	r.ID = id
	return r
}

// Transfer of 5000 KZT from wallet 1 to wallet 2 with a 200 KZT commission:
// both legs drop out of the global total, the commission stays.
func transferScenario(t *testing.T) []model.Record {
	t.Helper()
	return []model.Record{
		rec(t, 1, model.TypeExpense, "2025-02-01", 1, 1, 5000, "KZT", 1, "Transfer"),
		rec(t, 2, model.TypeIncome, "2025-02-01", 2, 1, 5000, "KZT", 1, "Transfer"),
		rec(t, 3, model.TypeExpense, "2025-02-01", 1, 0, 200, "KZT", 1, "Commission"),
	}
}

func TestGlobalTotalExcludesTransferLegs(t *testing.T) {
	r := New(transferScenario(t), decimal.Zero, AllWallets)

	assert.True(t, r.TotalFixed().Equal(decimal.NewFromInt(-200)), "got %s", r.TotalFixed())
	assert.True(t, r.Total().Equal(r.TotalFixed()))
}

func TestWalletScopedTotalsKeepTransferLegs(t *testing.T) {
	records := transferScenario(t)

	source := New(records, decimal.Zero, 1)
	assert.True(t, source.TotalFixed().Equal(decimal.NewFromInt(-5200)), "got %s", source.TotalFixed())

	dest := New(records, decimal.Zero, 2)
	assert.True(t, dest.TotalFixed().Equal(decimal.NewFromInt(5000)), "got %s", dest.TotalFixed())
}

func TestOpeningBalance(t *testing.T) {
	records := []model.Record{
		rec(t, 1, model.TypeIncome, "2025-01-10", 1, 0, 1000, "KZT", 1, "Salary"),
		rec(t, 2, model.TypeExpense, "2025-02-10", 1, 0, 300, "KZT", 1, "Food"),
	}
	r := New(records, decimal.NewFromInt(500), AllWallets)

	before, err := r.OpeningBalance("2025-01-01")
	require.NoError(t, err)
	assert.True(t, before.Equal(decimal.NewFromInt(500)), "got %s", before)

	mid, err := r.OpeningBalance("2025-02-01")
	require.NoError(t, err)
	assert.True(t, mid.Equal(decimal.NewFromInt(1500)), "got %s", mid)
}

func TestFilterByPeriodSetsOpeningBalance(t *testing.T) {
	records := []model.Record{
		rec(t, 1, model.TypeIncome, "2025-01-10", 1, 0, 1000, "KZT", 1, "Salary"),
		rec(t, 2, model.TypeExpense, "2025-02-10", 1, 0, 300, "KZT", 1, "Food"),
		rec(t, 3, model.TypeExpense, "2025-03-05", 1, 0, 100, "KZT", 1, "Food"),
	}
	r := New(records, decimal.Zero, AllWallets)

	feb, err := r.FilterByPeriod("2025-02")
	require.NoError(t, err)

	assert.Equal(t, "2025-02-01", feb.PeriodStart())
	assert.Equal(t, "2025-02-28", feb.PeriodEnd())
	assert.Len(t, feb.Records(), 1)
	assert.True(t, feb.InitialBalance().Equal(decimal.NewFromInt(1000)))
	assert.True(t, feb.TotalFixed().Equal(decimal.NewFromInt(700)), "got %s", feb.TotalFixed())
	assert.True(t, feb.NetProfitFixed().Equal(decimal.NewFromInt(-300)))
}

func TestFilterByPeriodRange(t *testing.T) {
	records := []model.Record{
		rec(t, 1, model.TypeIncome, "2025-01-10", 1, 0, 1000, "KZT", 1, "Salary"),
		rec(t, 2, model.TypeExpense, "2025-02-10", 1, 0, 300, "KZT", 1, "Food"),
	}
	r := New(records, decimal.Zero, AllWallets)

	got, err := r.FilterByPeriodRange("2025-01", "2025-02")
	require.NoError(t, err)
	assert.Len(t, got.Records(), 2)

	// Open end clamps to today.
	got, err = r.FilterByPeriodRange("2025-01", "")
	require.NoError(t, err)
	assert.Len(t, got.Records(), 2)

	_, err = r.FilterByPeriodRange("2025-02", "2025-01")
	assert.Error(t, err)

	_, err = r.FilterByPeriodRange("2025-01", "2099")
	assert.ErrorIs(t, err, model.ErrFutureDate)
}

func TestCurrentValuationAndFXDifference(t *testing.T) {
	records := []model.Record{
		rec(t, 1, model.TypeIncome, "2025-03-10", 1, 0, 100, "USD", 500, "Salary"),
		rec(t, 2, model.TypeExpense, "2025-03-12", 1, 0, 10000, "KZT", 1, "Food"),
	}
	r := New(records, decimal.Zero, AllWallets)
	provider := currency.NewService(map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(600),
	})

	fixed := r.TotalFixed()
	assert.True(t, fixed.Equal(decimal.NewFromInt(40000)), "got %s", fixed)

	current, err := r.TotalCurrent(provider)
	require.NoError(t, err)
	assert.True(t, current.Equal(decimal.NewFromInt(50000)), "got %s", current)

	diff, err := r.FXDifference(provider)
	require.NoError(t, err)
	assert.True(t, diff.Equal(current.Sub(fixed)))
}

func TestGroupedByCategoryKeepsFirstOccurrenceOrder(t *testing.T) {
	records := []model.Record{
		rec(t, 1, model.TypeExpense, "2025-01-01", 1, 0, 10, "KZT", 1, "Food"),
		rec(t, 2, model.TypeExpense, "2025-01-02", 1, 0, 20, "KZT", 1, "Transport"),
		rec(t, 3, model.TypeExpense, "2025-01-03", 1, 0, 30, "KZT", 1, "Food"),
	}
	r := New(records, decimal.Zero, AllWallets)

	groups := r.GroupedByCategory()
	require.Len(t, groups, 2)
	assert.Equal(t, "Food", groups[0].Category)
	assert.Equal(t, "Transport", groups[1].Category)
	assert.True(t, groups[0].Report.NetProfitFixed().Equal(decimal.NewFromInt(-40)))
}

func TestFilterByCategoryInheritsWalletScope(t *testing.T) {
	records := transferScenario(t)

	global := New(records, decimal.Zero, AllWallets).FilterByCategory("Transfer")
	// Globally scoped: transfer legs are still excluded from totals.
	assert.True(t, global.TotalFixed().IsZero(), "got %s", global.TotalFixed())

	scoped := New(records, decimal.Zero, 1).FilterByCategory("Transfer")
	assert.True(t, scoped.TotalFixed().Equal(decimal.NewFromInt(-5000)), "got %s", scoped.TotalFixed())
}

func TestSortedByDate(t *testing.T) {
	records := []model.Record{
		rec(t, 1, model.TypeExpense, "2025-03-01", 1, 0, 10, "KZT", 1, "Food"),
		rec(t, 2, model.TypeExpense, "2025-01-01", 1, 0, 20, "KZT", 1, "Food"),
		rec(t, 3, model.TypeExpense, "2025-01-01", 1, 0, 30, "KZT", 1, "Food"),
	}
	r := New(records, decimal.Zero, AllWallets)

	asc := r.SortedByDate(true).Records()
	assert.Equal(t, []int{2, 3, 1}, []int{asc[0].ID, asc[1].ID, asc[2].ID})

	desc := r.SortedByDate(false).Records()
	assert.Equal(t, 1, desc[0].ID)
	// Ties keep insertion order.
	assert.Equal(t, []int{2, 3}, []int{desc[1].ID, desc[2].ID})
}

func TestMonthlyIncomeExpenseRows(t *testing.T) {
	records := []model.Record{
		rec(t, 1, model.TypeIncome, "2025-01-10", 1, 0, 1000, "KZT", 1, "Salary"),
		rec(t, 2, model.TypeExpense, "2025-01-20", 1, 0, 400, "KZT", 1, "Food"),
		rec(t, 3, model.TypeIncome, "2025-03-10", 1, 0, 2000, "KZT", 1, "Salary"),
	}
	r := New(records, decimal.Zero, AllWallets)

	year, rows := r.MonthlyIncomeExpenseRows(0, 0)
	assert.Equal(t, 2025, year)
	require.Len(t, rows, 3)

	assert.Equal(t, "2025-01", rows[0].Month)
	assert.True(t, rows[0].Income.Equal(decimal.NewFromInt(1000)))
	assert.True(t, rows[0].Expense.Equal(decimal.NewFromInt(400)))
	assert.True(t, rows[0].Net.Equal(decimal.NewFromInt(600)))

	assert.True(t, rows[1].Income.IsZero())
	assert.True(t, rows[2].Income.Equal(decimal.NewFromInt(2000)))
}
