// Package storage persists the ledger dataset. Two adapters implement the
// same contract: a single-document JSON file and a SQLite database. The
// ledger and report layers depend only on the Store interface; the backend is
// selected once at startup by configuration.
package storage

import (
	"errors"

	"github.com/tengebook-dev/tengebook/internal/model"
)

// ErrNotEmpty is returned when an operation requires an empty backend.
var ErrNotEmpty = errors.New("storage already contains data")

// Store is the persistence contract. Multi-step operations (transfer
// bundles, dataset replacement) are atomic in every adapter: a transaction in
// SQLite, a whole-document write-then-rename in JSON.
type Store interface {
	// Wallets returns all wallets ordered by id.
	Wallets() ([]model.Wallet, error)
	// SaveWallet inserts or updates a wallet, allocating an id when zero.
	SaveWallet(w model.Wallet) (model.Wallet, error)

	// Records returns all records ordered by id.
	Records() ([]model.Record, error)
	// SaveRecord appends a record, allocating an id when zero.
	SaveRecord(r model.Record) (model.Record, error)
	// ReplaceRecord substitutes the record with the same id as a whole.
	ReplaceRecord(r model.Record) error
	// DeleteRecord removes one unlinked record by id.
	DeleteRecord(id int) error

	// Transfers returns all transfers ordered by id.
	Transfers() ([]model.Transfer, error)
	// SaveTransferBundle persists a transfer, its two linked legs and an
	// optional unlinked commission expense as one atomic unit, allocating
	// all ids. It returns the stored transfer.
	SaveTransferBundle(t model.Transfer, commission *model.Record) (model.Transfer, error)
	// DeleteTransferBundle removes a transfer and both linked legs
	// atomically.
	DeleteTransferBundle(transferID int) error

	// MandatoryExpenses returns all templates ordered by id.
	MandatoryExpenses() ([]model.MandatoryExpense, error)
	// SaveMandatoryExpense appends a template, allocating an id when zero.
	SaveMandatoryExpense(m model.MandatoryExpense) (model.MandatoryExpense, error)
	// DeleteMandatoryExpense removes one template by id.
	DeleteMandatoryExpense(id int) error
	// ReplaceMandatoryExpenses swaps the whole template set.
	ReplaceMandatoryExpenses(expenses []model.MandatoryExpense) error

	// ReplaceRecordsAndTransfers swaps records and transfers in one atomic
	// step, after checking transfer-pair integrity. Import "full replace"
	// semantics build on this.
	ReplaceRecordsAndTransfers(records []model.Record, transfers []model.Transfer) error
	// ReplaceAll swaps the entire dataset atomically.
	ReplaceAll(d model.Dataset) error

	// Dataset loads the full contents.
	Dataset() (model.Dataset, error)

	Close() error
}

func maxWalletID(wallets []model.Wallet) int {
	max := 0
	for _, w := range wallets {
		if w.ID > max {
			max = w.ID
		}
	}
	return max
}

func maxRecordID(records []model.Record) int {
	max := 0
	for _, r := range records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max
}

func maxTransferID(transfers []model.Transfer) int {
	max := 0
	for _, t := range transfers {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}

func maxMandatoryID(expenses []model.MandatoryExpense) int {
	max := 0
	for _, m := range expenses {
		if m.ID > max {
			max = m.ID
		}
	}
	return max
}

func validatePairs(records []model.Record, transfers []model.Transfer) error {
	transferIDs := make(map[int]bool, len(transfers))
	for _, t := range transfers {
		transferIDs[t.ID] = true
	}
	linked := make(map[int][]model.Record)
	for _, r := range records {
		if !r.Linked() {
			continue
		}
		if !transferIDs[r.TransferID] {
			return model.ErrTransferPairBroken
		}
		linked[r.TransferID] = append(linked[r.TransferID], r)
	}
	for _, t := range transfers {
		legs := linked[t.ID]
		if len(legs) != 2 {
			return model.ErrTransferPairBroken
		}
		types := map[model.RecordType]bool{legs[0].Type: true, legs[1].Type: true}
		if !types[model.TypeIncome] || !types[model.TypeExpense] {
			return model.ErrTransferPairBroken
		}
	}
	return nil
}
