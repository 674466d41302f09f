package storage

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tengebook-dev/tengebook/internal/model"
)

func newJSONTestStore(t *testing.T) Store {
	t.Helper()
	return NewJSONStore(filepath.Join(t.TempDir(), "ledger.json"))
}

func newSQLiteTestStore(t *testing.T) Store {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// adapters runs a subtest against both storage backends.
func adapters(t *testing.T, run func(t *testing.T, store Store)) {
	t.Run("json", func(t *testing.T) { run(t, newJSONTestStore(t)) })
	t.Run("sqlite", func(t *testing.T) { run(t, newSQLiteTestStore(t)) })
}

func saveWallet(t *testing.T, store Store, name string) model.Wallet {
	t.Helper()
	w, err := store.SaveWallet(model.Wallet{
		Name: name, Currency: "KZT", IsActive: true,
	})
	require.NoError(t, err)
	return w
}

func testRecord(t *testing.T, walletID int, category string, amount int64) model.Record {
	t.Helper()
	r, err := model.NewRecord(model.RecordParams{
		Type:           model.TypeExpense,
		Date:           "2025-03-10",
		WalletID:       walletID,
		AmountOriginal: decimal.NewFromInt(amount),
		Currency:       "KZT",
		Rate:           decimal.NewFromInt(1),
		Category:       category,
	})
	require.NoError(t, err)
	return r
}

func TestWalletRoundTrip(t *testing.T) {
	adapters(t, func(t *testing.T, store Store) {
		w1 := saveWallet(t, store, "Main wallet")
		w2 := saveWallet(t, store, "Savings")
		assert.Equal(t, 1, w1.ID)
		assert.Equal(t, 2, w2.ID)

		w2.Name = "Deep savings"
		w2.IsActive = false
		_, err := store.SaveWallet(w2)
		require.NoError(t, err)

		wallets, err := store.Wallets()
		require.NoError(t, err)
		require.Len(t, wallets, 2)
		assert.Equal(t, "Main wallet", wallets[0].Name)
		assert.Equal(t, "Deep savings", wallets[1].Name)
		assert.False(t, wallets[1].IsActive)
	})
}

func TestRecordRoundTrip(t *testing.T) {
	adapters(t, func(t *testing.T, store Store) {
		w := saveWallet(t, store, "Main wallet")

		saved, err := store.SaveRecord(testRecord(t, w.ID, "Food", 1500))
		require.NoError(t, err)
		assert.Equal(t, 1, saved.ID)

		records, err := store.Records()
		require.NoError(t, err)
		require.Len(t, records, 1)
		got := records[0]
		assert.Equal(t, model.TypeExpense, got.Type)
		assert.Equal(t, "2025-03-10", got.Date)
		assert.Equal(t, "Food", got.Category)
		assert.True(t, got.AmountKZT.Equal(decimal.NewFromInt(1500)), "got %s", got.AmountKZT)
		assert.False(t, got.Linked())
	})
}

func TestReplaceRecord(t *testing.T) {
	adapters(t, func(t *testing.T, store Store) {
		w := saveWallet(t, store, "Main wallet")
		saved, err := store.SaveRecord(testRecord(t, w.ID, "Food", 1500))
		require.NoError(t, err)

		updated, err := saved.WithUpdatedAmountKZT(decimal.NewFromInt(1800))
		require.NoError(t, err)
		require.NoError(t, store.ReplaceRecord(updated))

		records, err := store.Records()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].AmountKZT.Equal(decimal.NewFromInt(1800)))

		missing := updated
		missing.ID = 99
		assert.ErrorIs(t, store.ReplaceRecord(missing), model.ErrRecordNotFound)
	})
}

func TestTransferBundle(t *testing.T) {
	adapters(t, func(t *testing.T, store Store) {
		from := saveWallet(t, store, "Main wallet")
		to := saveWallet(t, store, "Savings")

		tr, err := model.NewTransfer(0, from.ID, to.ID, "2025-02-01",
			decimal.NewFromInt(5000), "KZT", decimal.NewFromInt(1), decimal.Zero, "")
		require.NoError(t, err)

		commission := testRecord(t, from.ID, "Commission", 200)
		saved, err := store.SaveTransferBundle(tr, &commission)
		require.NoError(t, err)
		assert.Equal(t, 1, saved.ID)

		records, err := store.Records()
		require.NoError(t, err)
		require.Len(t, records, 3)

		var linked, unlinked int
		for _, r := range records {
			if r.Linked() {
				linked++
				assert.Equal(t, saved.ID, r.TransferID)
				assert.True(t, r.AmountKZT.Equal(decimal.NewFromInt(5000)))
			} else {
				unlinked++
				assert.Equal(t, "Commission", r.Category)
			}
		}
		assert.Equal(t, 2, linked)
		assert.Equal(t, 1, unlinked)
	})
}

func TestDeleteTransferBundleRemovesBothLegs(t *testing.T) {
	adapters(t, func(t *testing.T, store Store) {
		from := saveWallet(t, store, "Main wallet")
		to := saveWallet(t, store, "Savings")

		tr, err := model.NewTransfer(0, from.ID, to.ID, "2025-02-01",
			decimal.NewFromInt(5000), "KZT", decimal.NewFromInt(1), decimal.Zero, "")
		require.NoError(t, err)
		commission := testRecord(t, from.ID, "Commission", 200)
		saved, err := store.SaveTransferBundle(tr, &commission)
		require.NoError(t, err)

		require.NoError(t, store.DeleteTransferBundle(saved.ID))

		records, err := store.Records()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Commission", records[0].Category)

		transfers, err := store.Transfers()
		require.NoError(t, err)
		assert.Empty(t, transfers)

		assert.ErrorIs(t, store.DeleteTransferBundle(saved.ID), model.ErrTransferNotFound)
	})
}

func TestDeleteRecordRejectsTransferLegs(t *testing.T) {
	adapters(t, func(t *testing.T, store Store) {
		from := saveWallet(t, store, "Main wallet")
		to := saveWallet(t, store, "Savings")

		tr, err := model.NewTransfer(0, from.ID, to.ID, "2025-02-01",
			decimal.NewFromInt(5000), "KZT", decimal.NewFromInt(1), decimal.Zero, "")
		require.NoError(t, err)
		_, err = store.SaveTransferBundle(tr, nil)
		require.NoError(t, err)

		records, err := store.Records()
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.ErrorIs(t, store.DeleteRecord(records[0].ID), model.ErrTransferLinked)
		assert.ErrorIs(t, store.DeleteRecord(99), model.ErrRecordNotFound)
	})
}

func TestReplaceRecordsAndTransfersChecksPairs(t *testing.T) {
	adapters(t, func(t *testing.T, store Store) {
		saveWallet(t, store, "Main wallet")
		saveWallet(t, store, "Savings")

		tr, err := model.NewTransfer(1, 1, 2, "2025-02-01",
			decimal.NewFromInt(5000), "KZT", decimal.NewFromInt(1), decimal.Zero, "")
		require.NoError(t, err)
		expense, income, err := tr.Legs()
		require.NoError(t, err)
		expense.ID, income.ID = 1, 2

		// A lone leg is a broken pair.
		err = store.ReplaceRecordsAndTransfers([]model.Record{expense}, []model.Transfer{tr})
		assert.ErrorIs(t, err, model.ErrTransferPairBroken)

		err = store.ReplaceRecordsAndTransfers([]model.Record{expense, income}, []model.Transfer{tr})
		require.NoError(t, err)

		records, err := store.Records()
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestReplaceRecordsAndTransfersAllocatesIDs(t *testing.T) {
	adapters(t, func(t *testing.T, store Store) {
		w := saveWallet(t, store, "Main wallet")

		// Imported rows carry no record ids.
		batch := []model.Record{
			testRecord(t, w.ID, "Food", 1500),
			testRecord(t, w.ID, "Transport", 700),
		}
		require.NoError(t, store.ReplaceRecordsAndTransfers(batch, nil))

		records, err := store.Records()
		require.NoError(t, err)
		require.Len(t, records, 2)
		seen := make(map[int]bool)
		for _, r := range records {
			assert.Positive(t, r.ID)
			assert.False(t, seen[r.ID], "duplicate record id %d", r.ID)
			seen[r.ID] = true
		}

		// A later append must not collide with the allocated ids.
		saved, err := store.SaveRecord(testRecord(t, w.ID, "Health", 300))
		require.NoError(t, err)
		assert.False(t, seen[saved.ID], "duplicate record id %d", saved.ID)
	})
}

func TestMandatoryExpenses(t *testing.T) {
	adapters(t, func(t *testing.T, store Store) {
		w := saveWallet(t, store, "Main wallet")

		m, err := model.NewMandatoryExpense(0, "", w.ID,
			decimal.NewFromInt(150000), "KZT", decimal.NewFromInt(1), decimal.Zero,
			"Housing", "Rent", model.PeriodMonthly)
		require.NoError(t, err)

		saved, err := store.SaveMandatoryExpense(m)
		require.NoError(t, err)
		assert.Equal(t, 1, saved.ID)

		m2 := m
		m2.Description = "Utilities"
		m2.ID = 7
		batch := []model.MandatoryExpense{m, m2}
		require.NoError(t, store.ReplaceMandatoryExpenses(batch))
		// Renumbering happens on a copy, not the caller's slice.
		assert.Equal(t, 7, batch[1].ID)

		expenses, err := store.MandatoryExpenses()
		require.NoError(t, err)
		require.Len(t, expenses, 2)
		// Replace renumbers sequentially.
		assert.Equal(t, 1, expenses[0].ID)
		assert.Equal(t, 2, expenses[1].ID)

		require.NoError(t, store.DeleteMandatoryExpense(1))
		expenses, err = store.MandatoryExpenses()
		require.NoError(t, err)
		require.Len(t, expenses, 1)
		assert.Equal(t, "Utilities", expenses[0].Description)
	})
}

func TestReplaceAllAndDatasetRoundTrip(t *testing.T) {
	adapters(t, func(t *testing.T, store Store) {
		tr, err := model.NewTransfer(1, 1, 2, "2025-02-01",
			decimal.NewFromInt(5000), "KZT", decimal.NewFromInt(1), decimal.Zero, "")
		require.NoError(t, err)
		expense, income, err := tr.Legs()
		require.NoError(t, err)
		expense.ID, income.ID = 1, 2

		d := model.Dataset{
			Wallets: []model.Wallet{
				{ID: 1, Name: "Main wallet", Currency: "KZT", System: true, IsActive: true},
				{ID: 2, Name: "Savings", Currency: "KZT", InitialBalance: decimal.NewFromInt(1000), IsActive: true},
			},
			Records:   []model.Record{expense, income},
			Transfers: []model.Transfer{tr},
		}

		require.NoError(t, store.ReplaceAll(d))

		got, err := store.Dataset()
		require.NoError(t, err)
		assert.Len(t, got.Wallets, 2)
		assert.Len(t, got.Records, 2)
		assert.Len(t, got.Transfers, 1)
		assert.True(t, got.Wallets[1].InitialBalance.Equal(decimal.NewFromInt(1000)))
		assert.True(t, got.NetWorth().Equal(d.NetWorth()), "got %s want %s", got.NetWorth(), d.NetWorth())
	})
}
