package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Transfer moves money between two own wallets. It always owns exactly two
// linked records (one expense on the source, one income on the destination)
// with equal amount_kzt; the pair is created and deleted together.
type Transfer struct {
	ID              int             `json:"id"`
	FromWalletID    int             `json:"from_wallet_id"`
	ToWalletID      int             `json:"to_wallet_id"`
	Date            string          `json:"date"`
	AmountOriginal  decimal.Decimal `json:"amount_original"`
	Currency        string          `json:"currency"`
	RateAtOperation decimal.Decimal `json:"rate_at_operation"`
	AmountKZT       decimal.Decimal `json:"amount_kzt"`
	Description     string          `json:"description,omitempty"`
}

// NewTransfer validates and builds a Transfer aggregate. A zero id is
// allowed; the store allocates one on save.
func NewTransfer(id, fromWalletID, toWalletID int, date string, amountOriginal decimal.Decimal, currency string, rate, amountKZT decimal.Decimal, description string) (Transfer, error) {
	if id < 0 {
		return Transfer{}, fmt.Errorf("transfer id must not be negative, got %d", id)
	}
	if fromWalletID <= 0 || toWalletID <= 0 {
		return Transfer{}, fmt.Errorf("%w: from=%d to=%d", ErrInvalidWalletRef, fromWalletID, toWalletID)
	}
	if fromWalletID == toWalletID {
		return Transfer{}, ErrSelfTransfer
	}
	if err := EnsureNotFuture(date); err != nil {
		return Transfer{}, err
	}
	if !amountOriginal.IsPositive() {
		return Transfer{}, ErrZeroAmount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) < 3 {
		return Transfer{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if !rate.IsPositive() {
		return Transfer{}, ErrInvalidRate
	}
	if amountKZT.IsZero() {
		amountKZT = amountOriginal.Mul(rate)
	}
	if !amountKZT.IsPositive() {
		return Transfer{}, ErrZeroAmount
	}
	if amountKZT.Sub(amountOriginal.Mul(rate)).Abs().GreaterThan(amountTolerance) {
		return Transfer{}, ErrAmountKZTMismatch
	}
	return Transfer{
		ID:              id,
		FromWalletID:    fromWalletID,
		ToWalletID:      toWalletID,
		Date:            date,
		AmountOriginal:  amountOriginal,
		Currency:        currency,
		RateAtOperation: rate,
		AmountKZT:       amountKZT,
		Description:     description,
	}, nil
}

// Legs builds the two linked records a transfer deterministically produces.
// Both carry the transfer id and equal amount_kzt.
func (t Transfer) Legs() (expense, income Record, err error) {
	expense, err = NewRecord(RecordParams{
		Type:           TypeExpense,
		Date:           t.Date,
		WalletID:       t.FromWalletID,
		TransferID:     t.ID,
		AmountOriginal: t.AmountOriginal,
		Currency:       t.Currency,
		Rate:           t.RateAtOperation,
		AmountKZT:      t.AmountKZT,
		Category:       "Transfer",
		Description:    t.Description,
	})
	if err != nil {
		return Record{}, Record{}, fmt.Errorf("building transfer expense leg: %w", err)
	}
	income, err = NewRecord(RecordParams{
		Type:           TypeIncome,
		Date:           t.Date,
		WalletID:       t.ToWalletID,
		TransferID:     t.ID,
		AmountOriginal: t.AmountOriginal,
		Currency:       t.Currency,
		Rate:           t.RateAtOperation,
		AmountKZT:      t.AmountKZT,
		Category:       "Transfer",
		Description:    t.Description,
	})
	if err != nil {
		return Record{}, Record{}, fmt.Errorf("building transfer income leg: %w", err)
	}
	return expense, income, nil
}
