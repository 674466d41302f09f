package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MandatoryExpense is a recurring-expense template. It is not itself a ledger
// movement until materialized into a dated expense record.
type MandatoryExpense struct {
	ID              int             `json:"id"`
	Date            string          `json:"date,omitempty"`
	WalletID        int             `json:"wallet_id"`
	AmountOriginal  decimal.Decimal `json:"amount_original"`
	Currency        string          `json:"currency"`
	RateAtOperation decimal.Decimal `json:"rate_at_operation"`
	AmountKZT       decimal.Decimal `json:"amount_kzt"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	Period          Period          `json:"period"`
}

// NewMandatoryExpense validates and builds a template. Unlike records, the
// date is optional: templates carry at most a reference date.
func NewMandatoryExpense(id int, date string, walletID int, amountOriginal decimal.Decimal, currency string, rate, amountKZT decimal.Decimal, category, description string, period Period) (MandatoryExpense, error) {
	if walletID <= 0 {
		return MandatoryExpense{}, fmt.Errorf("%w: wallet_id=%d", ErrInvalidWalletRef, walletID)
	}
	if date != "" {
		if _, err := ParseDate(date); err != nil {
			return MandatoryExpense{}, err
		}
	}
	if amountOriginal.IsNegative() {
		return MandatoryExpense{}, ErrInvalidAmount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) < 3 {
		return MandatoryExpense{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if !rate.IsPositive() {
		return MandatoryExpense{}, ErrInvalidRate
	}
	if amountKZT.IsZero() {
		amountKZT = amountOriginal.Mul(rate)
	}
	if amountKZT.IsNegative() {
		return MandatoryExpense{}, ErrInvalidAmount
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return MandatoryExpense{}, ErrBlankCategory
	}
	if strings.TrimSpace(description) == "" {
		return MandatoryExpense{}, ErrBlankDescription
	}
	if !ValidPeriod(period) {
		return MandatoryExpense{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	return MandatoryExpense{
		ID:              id,
		Date:            date,
		WalletID:        walletID,
		AmountOriginal:  amountOriginal,
		Currency:        currency,
		RateAtOperation: rate,
		AmountKZT:       amountKZT,
		Category:        category,
		Description:     description,
		Period:          period,
	}, nil
}

// Materialize turns the template into a dated mandatory-expense record on the
// given wallet.
func (m MandatoryExpense) Materialize(date string, walletID int) (Record, error) {
	return NewRecord(RecordParams{
		Type:           TypeMandatoryExpense,
		Date:           date,
		WalletID:       walletID,
		AmountOriginal: m.AmountOriginal,
		Currency:       m.Currency,
		Rate:           m.RateAtOperation,
		AmountKZT:      m.AmountKZT,
		Category:       m.Category,
		Description:    m.Description,
		Period:         m.Period,
	})
}
