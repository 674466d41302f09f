package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Dataset is the full ledger contents, in the shape both storage adapters and
// the backup bundle share.
type Dataset struct {
	Wallets           []Wallet           `json:"wallets"`
	Records           []Record           `json:"records"`
	Transfers         []Transfer         `json:"transfers"`
	MandatoryExpenses []MandatoryExpense `json:"mandatory_expenses"`
}

// Validate checks referential integrity across the dataset: every wallet and
// transfer reference must resolve, and every transfer must own exactly one
// income and one expense leg.
func (d Dataset) Validate() error {
	walletIDs := make(map[int]bool, len(d.Wallets))
	for _, w := range d.Wallets {
		if w.ID <= 0 {
			return fmt.Errorf("wallet id must be positive, got %d", w.ID)
		}
		walletIDs[w.ID] = true
	}
	if len(walletIDs) == 0 {
		return fmt.Errorf("dataset has no wallets")
	}

	transferIDs := make(map[int]bool, len(d.Transfers))
	for _, t := range d.Transfers {
		if t.ID <= 0 {
			return fmt.Errorf("transfer id must be positive, got %d", t.ID)
		}
		if !walletIDs[t.FromWalletID] || !walletIDs[t.ToWalletID] {
			return fmt.Errorf("transfer #%d has missing wallet links: from=%d to=%d",
				t.ID, t.FromWalletID, t.ToWalletID)
		}
		if t.FromWalletID == t.ToWalletID {
			return fmt.Errorf("transfer #%d: %w", t.ID, ErrSelfTransfer)
		}
		transferIDs[t.ID] = true
	}

	linked := make(map[int][]Record)
	for _, r := range d.Records {
		if !walletIDs[r.WalletID] {
			return fmt.Errorf("record #%d: %w (wallet_id=%d)", r.ID, ErrInvalidWalletRef, r.WalletID)
		}
		if r.Linked() {
			if !transferIDs[r.TransferID] {
				return fmt.Errorf("record #%d references missing transfer_id=%d", r.ID, r.TransferID)
			}
			linked[r.TransferID] = append(linked[r.TransferID], r)
		}
	}

	for _, t := range d.Transfers {
		legs := linked[t.ID]
		if len(legs) != 2 {
			return fmt.Errorf("transfer #%d: %w (%d linked records)", t.ID, ErrTransferPairBroken, len(legs))
		}
		types := map[RecordType]bool{legs[0].Type: true, legs[1].Type: true}
		if !types[TypeIncome] || !types[TypeExpense] {
			return fmt.Errorf("transfer #%d: %w (types %s, %s)", t.ID, ErrTransferPairBroken, legs[0].Type, legs[1].Type)
		}
	}

	for _, m := range d.MandatoryExpenses {
		if !walletIDs[m.WalletID] {
			return fmt.Errorf("mandatory expense #%d: %w (wallet_id=%d)", m.ID, ErrInvalidWalletRef, m.WalletID)
		}
	}
	return nil
}

// WalletBalances returns each wallet's fixed-valuation balance: the initial
// balance plus all signed record amounts on the wallet.
func (d Dataset) WalletBalances() map[int]decimal.Decimal {
	balances := make(map[int]decimal.Decimal, len(d.Wallets))
	for _, w := range d.Wallets {
		balances[w.ID] = w.InitialBalance
	}
	for _, r := range d.Records {
		balances[r.WalletID] = balances[r.WalletID].Add(r.SignedAmountKZT())
	}
	return balances
}

// NetWorth is the sum of all wallet balances at fixed valuation.
func (d Dataset) NetWorth() decimal.Decimal {
	total := decimal.Zero
	for _, balance := range d.WalletBalances() {
		total = total.Add(balance)
	}
	return total
}
