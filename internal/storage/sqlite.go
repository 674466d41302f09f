package storage

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/tengebook-dev/tengebook/internal/model"
)

// SQLiteStore is the relational adapter. Multi-step operations run inside
// explicit transactions so a crash mid-operation never leaves a dangling
// half-written transfer pair.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring sqlite: %w", err)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying handle for callers that manage their own
// transaction, like the migration orchestrator.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// Wallets returns all wallets ordered by id.
func (s *SQLiteStore) Wallets() ([]model.Wallet, error) {
	return scanWallets(s.db)
}

func scanWallets(q execer) ([]model.Wallet, error) {
	rows, err := q.Query(`
		SELECT id, name, currency, initial_balance, system, allow_negative, is_active
		FROM wallets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying wallets: %w", err)
	}
	defer rows.Close()

	var wallets []model.Wallet
	for rows.Next() {
		var w model.Wallet
		var balance float64
		if err := rows.Scan(&w.ID, &w.Name, &w.Currency, &balance, &w.System, &w.AllowNegative, &w.IsActive); err != nil {
			return nil, fmt.Errorf("scanning wallet: %w", err)
		}
		w.InitialBalance = dec(balance)
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// SaveWallet inserts or updates a wallet.
func (s *SQLiteStore) SaveWallet(w model.Wallet) (model.Wallet, error) {
	if w.ID == 0 {
		res, err := s.db.Exec(`
			INSERT INTO wallets (name, currency, initial_balance, system, allow_negative, is_active)
			VALUES (?, ?, ?, ?, ?, ?)`,
			w.Name, w.Currency, w.InitialBalance.InexactFloat64(), w.System, w.AllowNegative, w.IsActive)
		if err != nil {
			return model.Wallet{}, fmt.Errorf("inserting wallet: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return model.Wallet{}, fmt.Errorf("reading wallet id: %w", err)
		}
		w.ID = int(id)
		return w, nil
	}
	_, err := s.db.Exec(`
		INSERT INTO wallets (id, name, currency, initial_balance, system, allow_negative, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			currency = excluded.currency,
			initial_balance = excluded.initial_balance,
			system = excluded.system,
			allow_negative = excluded.allow_negative,
			is_active = excluded.is_active`,
		w.ID, w.Name, w.Currency, w.InitialBalance.InexactFloat64(), w.System, w.AllowNegative, w.IsActive)
	if err != nil {
		return model.Wallet{}, fmt.Errorf("saving wallet #%d: %w", w.ID, err)
	}
	return w, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
}

func scanRecords(q execer, query string, args ...any) ([]model.Record, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var r model.Record
		var transferID sql.NullInt64
		var period sql.NullString
		var amountOriginal, rate, amountKZT float64
		if err := rows.Scan(&r.ID, &r.Type, &r.Date, &r.WalletID, &transferID,
			&amountOriginal, &r.Currency, &rate, &amountKZT, &r.Category, &r.Description, &period); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if transferID.Valid {
			r.TransferID = int(transferID.Int64)
		}
		if period.Valid {
			r.Period = model.Period(period.String)
		}
		r.AmountOriginal = dec(amountOriginal)
		r.RateAtOperation = dec(rate)
		r.AmountKZT = dec(amountKZT)
		records = append(records, r)
	}
	return records, rows.Err()
}

const selectRecords = `
	SELECT id, type, date, wallet_id, transfer_id, amount_original, currency,
	       rate_at_operation, amount_kzt, category, description, period
	FROM records`

// Records returns all records ordered by id.
func (s *SQLiteStore) Records() ([]model.Record, error) {
	return scanRecords(s.db, selectRecords+" ORDER BY id")
}

func insertRecord(q execer, r model.Record) (model.Record, error) {
	var transferID any
	if r.Linked() {
		transferID = r.TransferID
	}
	var period any
	if r.Period != "" {
		period = string(r.Period)
	}
	if r.ID == 0 {
		res, err := q.Exec(`
			INSERT INTO records (type, date, wallet_id, transfer_id, amount_original,
				currency, rate_at_operation, amount_kzt, category, description, period)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Type, r.Date, r.WalletID, transferID, r.AmountOriginal.InexactFloat64(),
			r.Currency, r.RateAtOperation.InexactFloat64(), r.AmountKZT.InexactFloat64(),
			r.Category, r.Description, period)
		if err != nil {
			return model.Record{}, fmt.Errorf("inserting record: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return model.Record{}, fmt.Errorf("reading record id: %w", err)
		}
		r.ID = int(id)
		return r, nil
	}
	_, err := q.Exec(`
		INSERT INTO records (id, type, date, wallet_id, transfer_id, amount_original,
			currency, rate_at_operation, amount_kzt, category, description, period)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Type, r.Date, r.WalletID, transferID, r.AmountOriginal.InexactFloat64(),
		r.Currency, r.RateAtOperation.InexactFloat64(), r.AmountKZT.InexactFloat64(),
		r.Category, r.Description, period)
	if err != nil {
		return model.Record{}, fmt.Errorf("inserting record #%d: %w", r.ID, err)
	}
	return r, nil
}

// SaveRecord appends a record.
func (s *SQLiteStore) SaveRecord(r model.Record) (model.Record, error) {
	return insertRecord(s.db, r)
}

// ReplaceRecord substitutes the record with the same id as a whole.
func (s *SQLiteStore) ReplaceRecord(r model.Record) error {
	var transferID any
	if r.Linked() {
		transferID = r.TransferID
	}
	var period any
	if r.Period != "" {
		period = string(r.Period)
	}
	res, err := s.db.Exec(`
		UPDATE records SET type = ?, date = ?, wallet_id = ?, transfer_id = ?,
			amount_original = ?, currency = ?, rate_at_operation = ?, amount_kzt = ?,
			category = ?, description = ?, period = ?
		WHERE id = ?`,
		r.Type, r.Date, r.WalletID, transferID, r.AmountOriginal.InexactFloat64(),
		r.Currency, r.RateAtOperation.InexactFloat64(), r.AmountKZT.InexactFloat64(),
		r.Category, r.Description, period, r.ID)
	if err != nil {
		return fmt.Errorf("replacing record #%d: %w", r.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replacing record #%d: %w", r.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: #%d", model.ErrRecordNotFound, r.ID)
	}
	return nil
}

// DeleteRecord removes one unlinked record by id.
func (s *SQLiteStore) DeleteRecord(id int) error {
	var transferID sql.NullInt64
	err := s.db.QueryRow("SELECT transfer_id FROM records WHERE id = ?", id).Scan(&transferID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: #%d", model.ErrRecordNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("looking up record #%d: %w", id, err)
	}
	if transferID.Valid {
		return model.ErrTransferLinked
	}
	if _, err := s.db.Exec("DELETE FROM records WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting record #%d: %w", id, err)
	}
	return nil
}

// Transfers returns all transfers ordered by id.
func (s *SQLiteStore) Transfers() ([]model.Transfer, error) {
	return scanTransfers(s.db)
}

func scanTransfers(q execer) ([]model.Transfer, error) {
	rows, err := q.Query(`
		SELECT id, from_wallet_id, to_wallet_id, date, amount_original, currency,
		       rate_at_operation, amount_kzt, description
		FROM transfers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying transfers: %w", err)
	}
	defer rows.Close()

	var transfers []model.Transfer
	for rows.Next() {
		var t model.Transfer
		var amountOriginal, rate, amountKZT float64
		if err := rows.Scan(&t.ID, &t.FromWalletID, &t.ToWalletID, &t.Date,
			&amountOriginal, &t.Currency, &rate, &amountKZT, &t.Description); err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		t.AmountOriginal = dec(amountOriginal)
		t.RateAtOperation = dec(rate)
		t.AmountKZT = dec(amountKZT)
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

func insertTransfer(q execer, t model.Transfer) (model.Transfer, error) {
	if t.ID == 0 {
		res, err := q.Exec(`
			INSERT INTO transfers (from_wallet_id, to_wallet_id, date, amount_original,
				currency, rate_at_operation, amount_kzt, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.FromWalletID, t.ToWalletID, t.Date, t.AmountOriginal.InexactFloat64(),
			t.Currency, t.RateAtOperation.InexactFloat64(), t.AmountKZT.InexactFloat64(), t.Description)
		if err != nil {
			return model.Transfer{}, fmt.Errorf("inserting transfer: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return model.Transfer{}, fmt.Errorf("reading transfer id: %w", err)
		}
		t.ID = int(id)
		return t, nil
	}
	_, err := q.Exec(`
		INSERT INTO transfers (id, from_wallet_id, to_wallet_id, date, amount_original,
			currency, rate_at_operation, amount_kzt, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.FromWalletID, t.ToWalletID, t.Date, t.AmountOriginal.InexactFloat64(),
		t.Currency, t.RateAtOperation.InexactFloat64(), t.AmountKZT.InexactFloat64(), t.Description)
	if err != nil {
		return model.Transfer{}, fmt.Errorf("inserting transfer #%d: %w", t.ID, err)
	}
	return t, nil
}

// SaveTransferBundle persists transfer, legs and optional commission inside
// one transaction.
func (s *SQLiteStore) SaveTransferBundle(t model.Transfer, commission *model.Record) (model.Transfer, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return model.Transfer{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	t, err = insertTransfer(tx, t)
	if err != nil {
		return model.Transfer{}, err
	}
	expense, income, err := t.Legs()
	if err != nil {
		return model.Transfer{}, err
	}
	if _, err := insertRecord(tx, expense); err != nil {
		return model.Transfer{}, err
	}
	if _, err := insertRecord(tx, income); err != nil {
		return model.Transfer{}, err
	}
	if commission != nil {
		if _, err := insertRecord(tx, *commission); err != nil {
			return model.Transfer{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Transfer{}, fmt.Errorf("committing transfer: %w", err)
	}
	return t, nil
}

// DeleteTransferBundle removes the transfer and its legs inside one
// transaction; never only one side.
func (s *SQLiteStore) DeleteTransferBundle(transferID int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM records WHERE transfer_id = ?", transferID); err != nil {
		return fmt.Errorf("deleting transfer legs: %w", err)
	}
	res, err := tx.Exec("DELETE FROM transfers WHERE id = ?", transferID)
	if err != nil {
		return fmt.Errorf("deleting transfer #%d: %w", transferID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting transfer #%d: %w", transferID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: #%d", model.ErrTransferNotFound, transferID)
	}
	return tx.Commit()
}

// MandatoryExpenses returns all templates ordered by id.
func (s *SQLiteStore) MandatoryExpenses() ([]model.MandatoryExpense, error) {
	return scanMandatory(s.db)
}

func scanMandatory(q execer) ([]model.MandatoryExpense, error) {
	rows, err := q.Query(`
		SELECT id, date, wallet_id, amount_original, currency, rate_at_operation,
		       amount_kzt, category, description, period
		FROM mandatory_expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying mandatory expenses: %w", err)
	}
	defer rows.Close()

	var expenses []model.MandatoryExpense
	for rows.Next() {
		var m model.MandatoryExpense
		var amountOriginal, rate, amountKZT float64
		if err := rows.Scan(&m.ID, &m.Date, &m.WalletID, &amountOriginal, &m.Currency,
			&rate, &amountKZT, &m.Category, &m.Description, &m.Period); err != nil {
			return nil, fmt.Errorf("scanning mandatory expense: %w", err)
		}
		m.AmountOriginal = dec(amountOriginal)
		m.RateAtOperation = dec(rate)
		m.AmountKZT = dec(amountKZT)
		expenses = append(expenses, m)
	}
	return expenses, rows.Err()
}

func insertMandatory(q execer, m model.MandatoryExpense) (model.MandatoryExpense, error) {
	if m.ID == 0 {
		res, err := q.Exec(`
			INSERT INTO mandatory_expenses (date, wallet_id, amount_original, currency,
				rate_at_operation, amount_kzt, category, description, period)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Date, m.WalletID, m.AmountOriginal.InexactFloat64(), m.Currency,
			m.RateAtOperation.InexactFloat64(), m.AmountKZT.InexactFloat64(),
			m.Category, m.Description, m.Period)
		if err != nil {
			return model.MandatoryExpense{}, fmt.Errorf("inserting mandatory expense: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return model.MandatoryExpense{}, fmt.Errorf("reading mandatory expense id: %w", err)
		}
		m.ID = int(id)
		return m, nil
	}
	_, err := q.Exec(`
		INSERT INTO mandatory_expenses (id, date, wallet_id, amount_original, currency,
			rate_at_operation, amount_kzt, category, description, period)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Date, m.WalletID, m.AmountOriginal.InexactFloat64(), m.Currency,
		m.RateAtOperation.InexactFloat64(), m.AmountKZT.InexactFloat64(),
		m.Category, m.Description, m.Period)
	if err != nil {
		return model.MandatoryExpense{}, fmt.Errorf("inserting mandatory expense #%d: %w", m.ID, err)
	}
	return m, nil
}

// SaveMandatoryExpense appends a template.
func (s *SQLiteStore) SaveMandatoryExpense(m model.MandatoryExpense) (model.MandatoryExpense, error) {
	return insertMandatory(s.db, m)
}

// DeleteMandatoryExpense removes one template by id.
func (s *SQLiteStore) DeleteMandatoryExpense(id int) error {
	res, err := s.db.Exec("DELETE FROM mandatory_expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting mandatory expense #%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting mandatory expense #%d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("mandatory expense not found: #%d", id)
	}
	return nil
}

// ReplaceMandatoryExpenses swaps the whole template set in one transaction.
func (s *SQLiteStore) ReplaceMandatoryExpenses(expenses []model.MandatoryExpense) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM mandatory_expenses"); err != nil {
		return fmt.Errorf("clearing mandatory expenses: %w", err)
	}
	for i, m := range expenses {
		m.ID = i + 1
		if _, err := insertMandatory(tx, m); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ReplaceRecordsAndTransfers swaps records and transfers in one transaction,
// transfers first so the record foreign keys resolve.
func (s *SQLiteStore) ReplaceRecordsAndTransfers(records []model.Record, transfers []model.Transfer) error {
	if err := validatePairs(records, transfers); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM transfers"); err != nil {
		return fmt.Errorf("clearing transfers: %w", err)
	}
	for _, t := range transfers {
		if _, err := insertTransfer(tx, t); err != nil {
			return err
		}
	}
	for _, r := range records {
		if _, err := insertRecord(tx, r); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ReplaceAll swaps the entire dataset in one transaction, writing in
// dependency order wallets, transfers, records, mandatory expenses.
func (s *SQLiteStore) ReplaceAll(d model.Dataset) error {
	if err := validatePairs(d.Records, d.Transfers); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"records", "mandatory_expenses", "transfers", "wallets"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if err := WriteDatasetTx(tx, d); err != nil {
		return err
	}
	return tx.Commit()
}

// WriteDatasetTx inserts the dataset through tx in strict dependency order:
// wallets, transfers, records, mandatory expenses. Transfers come before
// records because records carry a transfer foreign key. The caller owns the
// transaction.
func WriteDatasetTx(tx *sql.Tx, d model.Dataset) error {
	for _, w := range d.Wallets {
		if _, err := tx.Exec(`
			INSERT INTO wallets (id, name, currency, initial_balance, system, allow_negative, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			w.ID, w.Name, w.Currency, w.InitialBalance.InexactFloat64(), w.System, w.AllowNegative, w.IsActive); err != nil {
			return fmt.Errorf("inserting wallet #%d: %w", w.ID, err)
		}
	}
	for _, t := range d.Transfers {
		if _, err := insertTransfer(tx, t); err != nil {
			return err
		}
	}
	for _, r := range d.Records {
		if _, err := insertRecord(tx, r); err != nil {
			return err
		}
	}
	for _, m := range d.MandatoryExpenses {
		if _, err := insertMandatory(tx, m); err != nil {
			return err
		}
	}
	return nil
}

// ReadDatasetTx loads the full contents through tx, so a migration can verify
// what it wrote before committing.
func ReadDatasetTx(tx *sql.Tx) (model.Dataset, error) {
	wallets, err := scanWallets(tx)
	if err != nil {
		return model.Dataset{}, err
	}
	records, err := scanRecords(tx, selectRecords+" ORDER BY id")
	if err != nil {
		return model.Dataset{}, err
	}
	transfers, err := scanTransfers(tx)
	if err != nil {
		return model.Dataset{}, err
	}
	expenses, err := scanMandatory(tx)
	if err != nil {
		return model.Dataset{}, err
	}
	return model.Dataset{
		Wallets:           wallets,
		Records:           records,
		Transfers:         transfers,
		MandatoryExpenses: expenses,
	}, nil
}

// Dataset loads the full contents.
func (s *SQLiteStore) Dataset() (model.Dataset, error) {
	wallets, err := s.Wallets()
	if err != nil {
		return model.Dataset{}, err
	}
	records, err := s.Records()
	if err != nil {
		return model.Dataset{}, err
	}
	transfers, err := s.Transfers()
	if err != nil {
		return model.Dataset{}, err
	}
	expenses, err := s.MandatoryExpenses()
	if err != nil {
		return model.Dataset{}, err
	}
	return model.Dataset{
		Wallets:           wallets,
		Records:           records,
		Transfers:         transfers,
		MandatoryExpenses: expenses,
	}, nil
}
