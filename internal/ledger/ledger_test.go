package ledger

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tengebook-dev/tengebook/internal/currency"
	"github.com/tengebook-dev/tengebook/internal/model"
	"github.com/tengebook-dev/tengebook/internal/report"
	"github.com/tengebook-dev/tengebook/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "ledger.json"))
	svc := NewService(store, currency.NewService(nil))
	require.NoError(t, svc.EnsureSystemWallet())
	return svc
}

func TestEnsureSystemWalletIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.EnsureSystemWallet())

	wallets, err := svc.store.Wallets()
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.True(t, wallets[0].System)
	assert.Equal(t, model.SystemWalletID, wallets[0].ID)
}

func TestCreateIncomeResolvesRate(t *testing.T) {
	svc := newTestService(t)

	r, err := svc.CreateIncome(RecordInput{
		Date:     "2025-03-10",
		WalletID: model.SystemWalletID,
		Amount:   decimal.NewFromInt(100),
		Currency: "USD",
		Category: "Salary",
	})
	require.NoError(t, err)

	// Default provider rates USD at 500.
	assert.True(t, r.RateAtOperation.Equal(decimal.NewFromInt(500)))
	assert.True(t, r.AmountKZT.Equal(decimal.NewFromInt(50000)), "got %s", r.AmountKZT)
}

func TestCreateExpenseRejectsInactiveWallet(t *testing.T) {
	svc := newTestService(t)
	w, err := svc.CreateWallet("Old wallet", "KZT", decimal.Zero, false)
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateWallet(w.ID))

	_, err = svc.CreateExpense(RecordInput{
		Date:     "2025-03-10",
		WalletID: w.ID,
		Amount:   decimal.NewFromInt(10),
		Currency: "KZT",
		Category: "Food",
	})
	assert.ErrorIs(t, err, model.ErrWalletInactive)
}

func TestDeactivateWalletProtectsSystemWallet(t *testing.T) {
	svc := newTestService(t)
	assert.ErrorIs(t, svc.DeactivateWallet(model.SystemWalletID), model.ErrSystemWallet)
}

func TestCreateTransferWithCommission(t *testing.T) {
	svc := newTestService(t)
	savings, err := svc.CreateWallet("Savings", "KZT", decimal.Zero, false)
	require.NoError(t, err)

	tr, err := svc.CreateTransfer(TransferInput{
		Date:         "2025-02-01",
		FromWalletID: model.SystemWalletID,
		ToWalletID:   savings.ID,
		Amount:       decimal.NewFromInt(5000),
		Currency:     "KZT",
		Commission:   decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	require.NotZero(t, tr.ID)

	records, err := svc.store.Records()
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Source wallet: one linked 5000 expense plus the unlinked 200 commission.
	sourceBalance, err := svc.WalletBalance(model.SystemWalletID)
	require.NoError(t, err)
	assert.True(t, sourceBalance.Equal(decimal.NewFromInt(-5200)), "got %s", sourceBalance)

	destBalance, err := svc.WalletBalance(savings.ID)
	require.NoError(t, err)
	assert.True(t, destBalance.Equal(decimal.NewFromInt(5000)))

	// Global report: transfer legs drop out, commission stays.
	rep, err := svc.BuildReport(report.AllWallets)
	require.NoError(t, err)
	assert.True(t, rep.TotalFixed().Equal(decimal.NewFromInt(-200)), "got %s", rep.TotalFixed())
}

func TestCreateTransferRejectsSameWallet(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateTransfer(TransferInput{
		Date:         "2025-02-01",
		FromWalletID: model.SystemWalletID,
		ToWalletID:   model.SystemWalletID,
		Amount:       decimal.NewFromInt(100),
		Currency:     "KZT",
	})
	assert.ErrorIs(t, err, model.ErrSelfTransfer)
}

func TestDeleteRecordCascadesToTransfer(t *testing.T) {
	svc := newTestService(t)
	savings, err := svc.CreateWallet("Savings", "KZT", decimal.Zero, false)
	require.NoError(t, err)

	_, err = svc.CreateTransfer(TransferInput{
		Date:         "2025-02-01",
		FromWalletID: model.SystemWalletID,
		ToWalletID:   savings.ID,
		Amount:       decimal.NewFromInt(5000),
		Currency:     "KZT",
	})
	require.NoError(t, err)

	records, err := svc.store.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Deleting one leg removes the transfer and both legs.
	require.NoError(t, svc.DeleteRecord(records[0].ID))

	records, err = svc.store.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
	transfers, err := svc.store.Transfers()
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestCorrectRecordAmountKZT(t *testing.T) {
	svc := newTestService(t)

	r, err := svc.CreateExpense(RecordInput{
		Date:     "2025-03-10",
		WalletID: model.SystemWalletID,
		Amount:   decimal.NewFromInt(100),
		Currency: "USD",
		Rate:     decimal.NewFromInt(500),
		Category: "Electronics",
	})
	require.NoError(t, err)

	updated, err := svc.CorrectRecordAmountKZT(r.ID, decimal.NewFromInt(60000))
	require.NoError(t, err)
	assert.True(t, updated.RateAtOperation.Equal(decimal.NewFromInt(600)))

	records, err := svc.store.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].AmountKZT.Equal(decimal.NewFromInt(60000)))
}

func TestMandatoryExpenseMaterialization(t *testing.T) {
	svc := newTestService(t)

	tmpl, err := model.NewMandatoryExpense(0, "", model.SystemWalletID,
		decimal.NewFromInt(150000), "KZT", decimal.NewFromInt(1), decimal.Zero,
		"Housing", "Rent", model.PeriodMonthly)
	require.NoError(t, err)

	saved, err := svc.AddMandatoryExpense(tmpl)
	require.NoError(t, err)

	r, err := svc.MaterializeMandatory(saved.ID, "2025-03-01", model.SystemWalletID)
	require.NoError(t, err)
	assert.Equal(t, model.TypeMandatoryExpense, r.Type)
	assert.Equal(t, "2025-03-01", r.Date)
	assert.Equal(t, model.PeriodMonthly, r.Period)
	assert.True(t, r.SignedAmountKZT().Equal(decimal.NewFromInt(-150000)))
}

func TestNetWorthCurrentRevaluesOriginals(t *testing.T) {
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "ledger.json"))
	rates := currency.NewService(map[string]decimal.Decimal{"USD": decimal.NewFromInt(600)})
	svc := NewService(store, rates)
	require.NoError(t, svc.EnsureSystemWallet())

	_, err := svc.CreateIncome(RecordInput{
		Date:     "2025-03-10",
		WalletID: model.SystemWalletID,
		Amount:   decimal.NewFromInt(100),
		Currency: "USD",
		Rate:     decimal.NewFromInt(500),
		Category: "Salary",
	})
	require.NoError(t, err)

	fixed, err := svc.NetWorthFixed()
	require.NoError(t, err)
	assert.True(t, fixed.Equal(decimal.NewFromInt(50000)))

	current, err := svc.NetWorthCurrent()
	require.NoError(t, err)
	assert.True(t, current.Equal(decimal.NewFromInt(60000)), "got %s", current)
}
