// Package ledger is the use-case layer. It validates operations against the
// wallet set, derives base-currency amounts, and drives the storage contract;
// it never mutates stored records in place.
package ledger

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tengebook-dev/tengebook/internal/currency"
	"github.com/tengebook-dev/tengebook/internal/model"
	"github.com/tengebook-dev/tengebook/internal/report"
	"github.com/tengebook-dev/tengebook/internal/storage"
)

// Service wires the storage backend to the domain rules.
type Service struct {
	store storage.Store
	rates currency.Provider
}

// NewService creates a ledger service over the given store and rate provider.
func NewService(store storage.Store, rates currency.Provider) *Service {
	return &Service{store: store, rates: rates}
}

// EnsureSystemWallet bootstraps the default wallet on an empty backend. It is
// a no-op once any wallet exists.
func (s *Service) EnsureSystemWallet() error {
	wallets, err := s.store.Wallets()
	if err != nil {
		return err
	}
	if len(wallets) > 0 {
		return nil
	}
	slog.Info("bootstrapping system wallet")
	_, err = s.store.SaveWallet(model.DefaultSystemWallet())
	return err
}

func (s *Service) wallet(id int) (model.Wallet, error) {
	wallets, err := s.store.Wallets()
	if err != nil {
		return model.Wallet{}, err
	}
	for _, w := range wallets {
		if w.ID == id {
			return w, nil
		}
	}
	return model.Wallet{}, fmt.Errorf("%w: #%d", model.ErrWalletNotFound, id)
}

func (s *Service) activeWallet(id int) (model.Wallet, error) {
	w, err := s.wallet(id)
	if err != nil {
		return model.Wallet{}, err
	}
	if !w.IsActive {
		return model.Wallet{}, fmt.Errorf("%w: #%d", model.ErrWalletInactive, id)
	}
	return w, nil
}

// CreateWallet adds a new active wallet.
func (s *Service) CreateWallet(name, currencyCode string, initialBalance decimal.Decimal, allowNegative bool) (model.Wallet, error) {
	w, err := model.NewWallet(1, name, currencyCode, initialBalance, false, allowNegative)
	if err != nil {
		return model.Wallet{}, err
	}
	w.ID = 0
	return s.store.SaveWallet(w)
}

// DeactivateWallet soft-deletes a wallet. The system wallet is protected;
// existing records keep their wallet reference.
func (s *Service) DeactivateWallet(id int) error {
	w, err := s.wallet(id)
	if err != nil {
		return err
	}
	if w.System {
		return model.ErrSystemWallet
	}
	w.IsActive = false
	_, err = s.store.SaveWallet(w)
	return err
}

// rateFor resolves the conversion rate for an operation. An explicit positive
// rate wins; otherwise the provider is asked for the current rate.
func (s *Service) rateFor(currencyCode string, rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsPositive() {
		return rate, nil
	}
	if currencyCode == currency.BaseCurrency {
		return decimal.NewFromInt(1), nil
	}
	return s.rates.Rate(currencyCode)
}

// RecordInput carries the caller-supplied fields for a new income or expense.
// A zero Rate is resolved through the rate provider at creation time.
type RecordInput struct {
	Date        string
	WalletID    int
	Amount      decimal.Decimal
	Currency    string
	Rate        decimal.Decimal
	Category    string
	Description string
}

func (s *Service) createRecord(typ model.RecordType, in RecordInput) (model.Record, error) {
	if _, err := s.activeWallet(in.WalletID); err != nil {
		return model.Record{}, err
	}
	rate, err := s.rateFor(in.Currency, in.Rate)
	if err != nil {
		return model.Record{}, err
	}
	r, err := model.NewRecord(model.RecordParams{
		Type:           typ,
		Date:           in.Date,
		WalletID:       in.WalletID,
		AmountOriginal: in.Amount,
		Currency:       in.Currency,
		Rate:           rate,
		Category:       in.Category,
		Description:    in.Description,
	})
	if err != nil {
		return model.Record{}, err
	}
	return s.store.SaveRecord(r)
}

// CreateIncome appends an income record.
func (s *Service) CreateIncome(in RecordInput) (model.Record, error) {
	return s.createRecord(model.TypeIncome, in)
}

// CreateExpense appends an expense record.
func (s *Service) CreateExpense(in RecordInput) (model.Record, error) {
	return s.createRecord(model.TypeExpense, in)
}

// TransferInput carries the caller-supplied fields for a new transfer. A
// positive Commission creates an extra unlinked expense on the source wallet.
type TransferInput struct {
	Date         string
	FromWalletID int
	ToWalletID   int
	Amount       decimal.Decimal
	Currency     string
	Rate         decimal.Decimal
	Commission   decimal.Decimal
	Description  string
}

// CreateTransfer moves money between two own wallets: one transfer row plus
// two linked legs, saved atomically. The commission, when present, is a plain
// expense on the source wallet and is not linked to the transfer.
func (s *Service) CreateTransfer(in TransferInput) (model.Transfer, error) {
	if _, err := s.activeWallet(in.FromWalletID); err != nil {
		return model.Transfer{}, err
	}
	if _, err := s.activeWallet(in.ToWalletID); err != nil {
		return model.Transfer{}, err
	}
	rate, err := s.rateFor(in.Currency, in.Rate)
	if err != nil {
		return model.Transfer{}, err
	}
	t, err := model.NewTransfer(0, in.FromWalletID, in.ToWalletID, in.Date,
		in.Amount, in.Currency, rate, decimal.Zero, in.Description)
	if err != nil {
		return model.Transfer{}, err
	}

	var commission *model.Record
	if in.Commission.IsPositive() {
		c, err := model.NewRecord(model.RecordParams{
			Type:           model.TypeExpense,
			Date:           in.Date,
			WalletID:       in.FromWalletID,
			AmountOriginal: in.Commission,
			Currency:       in.Currency,
			Rate:           rate,
			Category:       "Commission",
			Description:    in.Description,
		})
		if err != nil {
			return model.Transfer{}, fmt.Errorf("building commission: %w", err)
		}
		commission = &c
	}
	return s.store.SaveTransferBundle(t, commission)
}

// DeleteTransfer removes a transfer and both legs.
func (s *Service) DeleteTransfer(transferID int) error {
	return s.store.DeleteTransferBundle(transferID)
}

// DeleteRecord removes a record. Deleting one leg of a transfer removes the
// whole transfer, so a pair never survives half-deleted.
func (s *Service) DeleteRecord(id int) error {
	records, err := s.store.Records()
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.ID != id {
			continue
		}
		if r.Linked() {
			slog.Info("record is a transfer leg, removing whole transfer",
				"record_id", id, "transfer_id", r.TransferID)
			return s.store.DeleteTransferBundle(r.TransferID)
		}
		return s.store.DeleteRecord(id)
	}
	return fmt.Errorf("%w: #%d", model.ErrRecordNotFound, id)
}

// CorrectRecordAmountKZT replaces the base-currency amount of an unlinked
// record, re-deriving its stored rate.
func (s *Service) CorrectRecordAmountKZT(id int, amountKZT decimal.Decimal) (model.Record, error) {
	records, err := s.store.Records()
	if err != nil {
		return model.Record{}, err
	}
	for _, r := range records {
		if r.ID != id {
			continue
		}
		updated, err := r.WithUpdatedAmountKZT(amountKZT)
		if err != nil {
			return model.Record{}, err
		}
		if err := s.store.ReplaceRecord(updated); err != nil {
			return model.Record{}, err
		}
		return updated, nil
	}
	return model.Record{}, fmt.Errorf("%w: #%d", model.ErrRecordNotFound, id)
}

// AddMandatoryExpense stores a recurring-expense template.
func (s *Service) AddMandatoryExpense(m model.MandatoryExpense) (model.MandatoryExpense, error) {
	if _, err := s.activeWallet(m.WalletID); err != nil {
		return model.MandatoryExpense{}, err
	}
	return s.store.SaveMandatoryExpense(m)
}

// DeleteMandatoryExpense removes one template.
func (s *Service) DeleteMandatoryExpense(id int) error {
	return s.store.DeleteMandatoryExpense(id)
}

// MaterializeMandatory turns a template into a dated mandatory-expense record
// on the given wallet and appends it.
func (s *Service) MaterializeMandatory(templateID int, date string, walletID int) (model.Record, error) {
	if _, err := s.activeWallet(walletID); err != nil {
		return model.Record{}, err
	}
	templates, err := s.store.MandatoryExpenses()
	if err != nil {
		return model.Record{}, err
	}
	for _, m := range templates {
		if m.ID != templateID {
			continue
		}
		r, err := m.Materialize(date, walletID)
		if err != nil {
			return model.Record{}, err
		}
		return s.store.SaveRecord(r)
	}
	return model.Record{}, fmt.Errorf("mandatory expense not found: #%d", templateID)
}

// WalletBalance is the wallet's initial balance plus all signed record
// amounts, in the base currency.
func (s *Service) WalletBalance(walletID int) (decimal.Decimal, error) {
	w, err := s.wallet(walletID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	records, err := s.store.Records()
	if err != nil {
		return decimal.Decimal{}, err
	}
	balance := w.InitialBalance
	for _, r := range records {
		if r.WalletID == walletID {
			balance = balance.Add(r.SignedAmountKZT())
		}
	}
	return balance, nil
}

// NetWorthFixed sums all wallet balances at their stored operation rates.
func (s *Service) NetWorthFixed() (decimal.Decimal, error) {
	d, err := s.store.Dataset()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return d.NetWorth(), nil
}

// NetWorthCurrent re-values every record's original amount at the provider's
// current rate. Stored rate_at_operation values stay untouched.
func (s *Service) NetWorthCurrent() (decimal.Decimal, error) {
	d, err := s.store.Dataset()
	if err != nil {
		return decimal.Decimal{}, err
	}
	total := decimal.Zero
	for _, w := range d.Wallets {
		total = total.Add(w.InitialBalance)
	}
	for _, r := range d.Records {
		rate, err := s.rates.Rate(r.Currency)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("valuing record #%d: %w", r.ID, err)
		}
		value := r.AmountOriginal.Mul(rate)
		if r.Type != model.TypeIncome {
			value = value.Neg()
		}
		total = total.Add(value)
	}
	return total, nil
}

// BuildReport assembles a report over the whole ledger or one wallet.
// The scope decides the opening balance: one wallet's initial balance, or the
// sum of all of them.
func (s *Service) BuildReport(walletScope int) (*report.Report, error) {
	d, err := s.store.Dataset()
	if err != nil {
		return nil, err
	}
	initial := decimal.Zero
	if walletScope == report.AllWallets {
		for _, w := range d.Wallets {
			initial = initial.Add(w.InitialBalance)
		}
	} else {
		found := false
		for _, w := range d.Wallets {
			if w.ID == walletScope {
				initial = w.InitialBalance
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: #%d", model.ErrWalletNotFound, walletScope)
		}
	}
	return report.New(d.Records, initial, walletScope), nil
}
