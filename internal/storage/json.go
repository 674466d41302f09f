package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tengebook-dev/tengebook/internal/model"
)

// JSONStore keeps the whole dataset in one JSON document. Every mutation
// rewrites the document through a temp file plus rename, so a crash mid-write
// never leaves a torn file behind.
type JSONStore struct {
	path string
}

// NewJSONStore creates a store over path. The file is created lazily on the
// first write; a missing file reads as an empty dataset.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file location.
func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) load() (model.Dataset, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Dataset{}, nil
	}
	if err != nil {
		return model.Dataset{}, fmt.Errorf("reading dataset %s: %w", s.path, err)
	}
	var d model.Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return model.Dataset{}, fmt.Errorf("parsing dataset %s: %w", s.path, err)
	}
	return d, nil
}

func (s *JSONStore) write(d model.Dataset) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling dataset: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating dataset dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp dataset: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp dataset: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing dataset %s: %w", s.path, err)
	}
	return nil
}

// Wallets returns all wallets.
func (s *JSONStore) Wallets() ([]model.Wallet, error) {
	d, err := s.load()
	if err != nil {
		return nil, err
	}
	return d.Wallets, nil
}

// SaveWallet inserts or updates a wallet.
func (s *JSONStore) SaveWallet(w model.Wallet) (model.Wallet, error) {
	d, err := s.load()
	if err != nil {
		return model.Wallet{}, err
	}
	if w.ID == 0 {
		w.ID = maxWalletID(d.Wallets) + 1
	}
	replaced := false
	for i, existing := range d.Wallets {
		if existing.ID == w.ID {
			d.Wallets[i] = w
			replaced = true
			break
		}
	}
	if !replaced {
		d.Wallets = append(d.Wallets, w)
	}
	if err := s.write(d); err != nil {
		return model.Wallet{}, err
	}
	return w, nil
}

// Records returns all records.
func (s *JSONStore) Records() ([]model.Record, error) {
	d, err := s.load()
	if err != nil {
		return nil, err
	}
	return d.Records, nil
}

// SaveRecord appends a record.
func (s *JSONStore) SaveRecord(r model.Record) (model.Record, error) {
	d, err := s.load()
	if err != nil {
		return model.Record{}, err
	}
	if r.ID == 0 {
		r.ID = maxRecordID(d.Records) + 1
	}
	d.Records = append(d.Records, r)
	if err := s.write(d); err != nil {
		return model.Record{}, err
	}
	return r, nil
}

// ReplaceRecord substitutes a record by id.
func (s *JSONStore) ReplaceRecord(r model.Record) error {
	d, err := s.load()
	if err != nil {
		return err
	}
	for i, existing := range d.Records {
		if existing.ID == r.ID {
			d.Records[i] = r
			return s.write(d)
		}
	}
	return fmt.Errorf("%w: #%d", model.ErrRecordNotFound, r.ID)
}

// DeleteRecord removes an unlinked record by id.
func (s *JSONStore) DeleteRecord(id int) error {
	d, err := s.load()
	if err != nil {
		return err
	}
	for i, r := range d.Records {
		if r.ID == id {
			if r.Linked() {
				return model.ErrTransferLinked
			}
			d.Records = append(d.Records[:i], d.Records[i+1:]...)
			return s.write(d)
		}
	}
	return fmt.Errorf("%w: #%d", model.ErrRecordNotFound, id)
}

// Transfers returns all transfers.
func (s *JSONStore) Transfers() ([]model.Transfer, error) {
	d, err := s.load()
	if err != nil {
		return nil, err
	}
	return d.Transfers, nil
}

// SaveTransferBundle persists the transfer, both legs and an optional
// commission in one document write.
func (s *JSONStore) SaveTransferBundle(t model.Transfer, commission *model.Record) (model.Transfer, error) {
	d, err := s.load()
	if err != nil {
		return model.Transfer{}, err
	}
	if t.ID == 0 {
		t.ID = maxTransferID(d.Transfers) + 1
	}
	expense, income, err := t.Legs()
	if err != nil {
		return model.Transfer{}, err
	}

	nextRecordID := maxRecordID(d.Records) + 1
	expense.ID = nextRecordID
	income.ID = nextRecordID + 1
	d.Transfers = append(d.Transfers, t)
	d.Records = append(d.Records, expense, income)
	if commission != nil {
		c := *commission
		c.ID = nextRecordID + 2
		d.Records = append(d.Records, c)
	}
	if err := s.write(d); err != nil {
		return model.Transfer{}, err
	}
	return t, nil
}

// DeleteTransferBundle removes the transfer and both linked legs in one
// document write.
func (s *JSONStore) DeleteTransferBundle(transferID int) error {
	d, err := s.load()
	if err != nil {
		return err
	}
	found := false
	transfers := d.Transfers[:0]
	for _, t := range d.Transfers {
		if t.ID == transferID {
			found = true
			continue
		}
		transfers = append(transfers, t)
	}
	if !found {
		return fmt.Errorf("%w: #%d", model.ErrTransferNotFound, transferID)
	}
	records := d.Records[:0]
	for _, r := range d.Records {
		if r.TransferID == transferID {
			continue
		}
		records = append(records, r)
	}
	d.Transfers = transfers
	d.Records = records
	return s.write(d)
}

// MandatoryExpenses returns all templates.
func (s *JSONStore) MandatoryExpenses() ([]model.MandatoryExpense, error) {
	d, err := s.load()
	if err != nil {
		return nil, err
	}
	return d.MandatoryExpenses, nil
}

// SaveMandatoryExpense appends a template.
func (s *JSONStore) SaveMandatoryExpense(m model.MandatoryExpense) (model.MandatoryExpense, error) {
	d, err := s.load()
	if err != nil {
		return model.MandatoryExpense{}, err
	}
	if m.ID == 0 {
		m.ID = maxMandatoryID(d.MandatoryExpenses) + 1
	}
	d.MandatoryExpenses = append(d.MandatoryExpenses, m)
	if err := s.write(d); err != nil {
		return model.MandatoryExpense{}, err
	}
	return m, nil
}

// DeleteMandatoryExpense removes one template by id.
func (s *JSONStore) DeleteMandatoryExpense(id int) error {
	d, err := s.load()
	if err != nil {
		return err
	}
	for i, m := range d.MandatoryExpenses {
		if m.ID == id {
			d.MandatoryExpenses = append(d.MandatoryExpenses[:i], d.MandatoryExpenses[i+1:]...)
			return s.write(d)
		}
	}
	return fmt.Errorf("mandatory expense not found: #%d", id)
}

// ReplaceMandatoryExpenses swaps the whole template set. Templates are
// renumbered sequentially on a copy; the caller's slice is left untouched.
func (s *JSONStore) ReplaceMandatoryExpenses(expenses []model.MandatoryExpense) error {
	d, err := s.load()
	if err != nil {
		return err
	}
	renumbered := append([]model.MandatoryExpense(nil), expenses...)
	for i := range renumbered {
		renumbered[i].ID = i + 1
	}
	d.MandatoryExpenses = renumbered
	return s.write(d)
}

// ReplaceRecordsAndTransfers swaps records and transfers after a pair
// integrity check. Records without an id are allocated one, on a copy, so
// every stored record keeps a distinct identity.
func (s *JSONStore) ReplaceRecordsAndTransfers(records []model.Record, transfers []model.Transfer) error {
	if err := validatePairs(records, transfers); err != nil {
		return err
	}
	d, err := s.load()
	if err != nil {
		return err
	}
	stored := append([]model.Record(nil), records...)
	next := maxRecordID(stored) + 1
	for i := range stored {
		if stored[i].ID == 0 {
			stored[i].ID = next
			next++
		}
	}
	d.Records = stored
	d.Transfers = transfers
	return s.write(d)
}

// ReplaceAll swaps the whole dataset.
func (s *JSONStore) ReplaceAll(d model.Dataset) error {
	if err := validatePairs(d.Records, d.Transfers); err != nil {
		return err
	}
	return s.write(d)
}

// Dataset loads the full contents.
func (s *JSONStore) Dataset() (model.Dataset, error) {
	return s.load()
}

// Close is a no-op; the file is not held open between operations.
func (s *JSONStore) Close() error { return nil }
