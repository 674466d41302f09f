package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RecordType classifies ledger records.
type RecordType string

const (
	TypeIncome           RecordType = "income"
	TypeExpense          RecordType = "expense"
	TypeMandatoryExpense RecordType = "mandatory_expense"
)

// Period is the recurrence interval of a mandatory expense.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// ValidPeriod reports whether p is one of the four recurrence intervals.
func ValidPeriod(p Period) bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// amountTolerance bounds the accepted drift between a stored amount_kzt and
// amount_original * rate_at_operation.
var amountTolerance = decimal.New(1, -6)

// Record is a single immutable ledger movement. A zero TransferID means the
// record is not linked to a transfer; linked records always come in pairs
// sharing the transfer id.
type Record struct {
	ID              int             `json:"id"`
	Type            RecordType      `json:"type"`
	Date            string          `json:"date"`
	WalletID        int             `json:"wallet_id"`
	TransferID      int             `json:"transfer_id,omitempty"`
	AmountOriginal  decimal.Decimal `json:"amount_original"`
	Currency        string          `json:"currency"`
	RateAtOperation decimal.Decimal `json:"rate_at_operation"`
	AmountKZT       decimal.Decimal `json:"amount_kzt"`
	Category        string          `json:"category"`
	Description     string          `json:"description,omitempty"`
	Period          Period          `json:"period,omitempty"`
}

// RecordParams carries the caller-supplied fields for NewRecord. A zero
// AmountKZT is derived as AmountOriginal * Rate; a non-zero one is checked
// against that product.
type RecordParams struct {
	Type           RecordType
	Date           string
	WalletID       int
	TransferID     int
	AmountOriginal decimal.Decimal
	Currency       string
	Rate           decimal.Decimal
	AmountKZT      decimal.Decimal
	Category       string
	Description    string
	Period         Period
}

// NewRecord validates and builds a Record. The record date may not lie in the
// future; import paths that accept historic backups parse rows themselves and
// reuse this constructor last.
func NewRecord(p RecordParams) (Record, error) {
	switch p.Type {
	case TypeIncome, TypeExpense, TypeMandatoryExpense:
	default:
		return Record{}, fmt.Errorf("unsupported record type %q", p.Type)
	}

	if err := EnsureNotFuture(p.Date); err != nil {
		return Record{}, err
	}
	if p.WalletID <= 0 {
		return Record{}, fmt.Errorf("%w: wallet_id=%d", ErrInvalidWalletRef, p.WalletID)
	}
	if p.AmountOriginal.IsNegative() {
		return Record{}, ErrInvalidAmount
	}
	if p.AmountOriginal.IsZero() && p.Type != TypeMandatoryExpense {
		return Record{}, ErrZeroAmount
	}
	if len(strings.TrimSpace(p.Currency)) < 3 {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, p.Currency)
	}
	if !p.Rate.IsPositive() {
		return Record{}, ErrInvalidRate
	}
	category := strings.TrimSpace(p.Category)
	if category == "" {
		return Record{}, ErrBlankCategory
	}

	amountKZT := p.AmountKZT
	if amountKZT.IsZero() {
		amountKZT = p.AmountOriginal.Mul(p.Rate)
	} else if amountKZT.Sub(p.AmountOriginal.Mul(p.Rate)).Abs().GreaterThan(amountTolerance) {
		return Record{}, ErrAmountKZTMismatch
	}
	if amountKZT.IsNegative() {
		return Record{}, ErrInvalidAmount
	}

	r := Record{
		Type:            p.Type,
		Date:            p.Date,
		WalletID:        p.WalletID,
		TransferID:      p.TransferID,
		AmountOriginal:  p.AmountOriginal,
		Currency:        strings.ToUpper(strings.TrimSpace(p.Currency)),
		RateAtOperation: p.Rate,
		AmountKZT:       amountKZT,
		Category:        category,
		Description:     p.Description,
	}

	if p.Type == TypeMandatoryExpense {
		if strings.TrimSpace(p.Description) == "" {
			return Record{}, ErrBlankDescription
		}
		if !ValidPeriod(p.Period) {
			return Record{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, p.Period)
		}
		r.Period = p.Period
	}

	return r, nil
}

// SignedAmountKZT is the record's contribution to a balance: positive for
// income, negative for expenses of either kind.
func (r Record) SignedAmountKZT() decimal.Decimal {
	if r.Type == TypeIncome {
		return r.AmountKZT
	}
	return r.AmountKZT.Abs().Neg()
}

// Linked reports whether the record is one leg of a transfer pair.
func (r Record) Linked() bool {
	return r.TransferID != 0
}

// WithUpdatedAmountKZT returns a copy of the record holding the corrected
// base-currency amount, with rate_at_operation re-derived so the invariant
// amount_kzt = amount_original * rate keeps holding. Transfer legs may only be
// changed through their transfer aggregate.
func (r Record) WithUpdatedAmountKZT(amountKZT decimal.Decimal) (Record, error) {
	if r.Linked() {
		return Record{}, ErrTransferLinked
	}
	if amountKZT.IsNegative() {
		return Record{}, ErrInvalidAmount
	}
	if r.AmountOriginal.IsZero() {
		return Record{}, fmt.Errorf("%w: cannot derive rate for zero amount_original", ErrInvalidRate)
	}

	updated := r
	updated.AmountKZT = amountKZT
	updated.RateAtOperation = amountKZT.Div(r.AmountOriginal)
	return updated, nil
}
