package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SystemWalletID is the id of the bootstrap default wallet.
const SystemWalletID = 1

// Wallet is a named money container. Exactly one wallet carries System=true;
// wallets are soft-deleted via IsActive and never removed while referenced.
type Wallet struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	System         bool            `json:"system"`
	AllowNegative  bool            `json:"allow_negative"`
	IsActive       bool            `json:"is_active"`
}

// NewWallet validates and builds an active wallet.
func NewWallet(id int, name, currency string, initialBalance decimal.Decimal, system, allowNegative bool) (Wallet, error) {
	if id <= 0 {
		return Wallet{}, fmt.Errorf("wallet id must be positive, got %d", id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Wallet{}, fmt.Errorf("wallet name must not be blank")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) < 3 {
		return Wallet{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if initialBalance.IsNegative() {
		return Wallet{}, fmt.Errorf("%w: initial balance %s", ErrInvalidAmount, initialBalance)
	}
	return Wallet{
		ID:             id,
		Name:           name,
		Currency:       currency,
		InitialBalance: initialBalance,
		System:         system,
		AllowNegative:  allowNegative,
		IsActive:       true,
	}, nil
}

// DefaultSystemWallet is the bootstrap wallet created on first run.
func DefaultSystemWallet() Wallet {
	return Wallet{
		ID:             SystemWalletID,
		Name:           "Main wallet",
		Currency:       "KZT",
		InitialBalance: decimal.Zero,
		System:         true,
		IsActive:       true,
	}
}
