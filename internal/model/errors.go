package model

import "errors"

// Domain invariant violations. These are returned by the validating
// constructors and by ledger operations; callers test them with errors.Is.
var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrFutureDate         = errors.New("date cannot be in the future")
	ErrInvalidCurrency    = errors.New("currency code must be at least 3 letters")
	ErrInvalidAmount      = errors.New("amount must not be negative")
	ErrZeroAmount         = errors.New("amount must be positive")
	ErrInvalidRate        = errors.New("rate at operation must be positive")
	ErrInvalidPeriod      = errors.New("period must be daily, weekly, monthly or yearly")
	ErrBlankCategory      = errors.New("category must not be blank")
	ErrBlankDescription   = errors.New("description must not be blank")
	ErrInvalidWalletRef   = errors.New("wallet id must reference an existing wallet")
	ErrSelfTransfer       = errors.New("transfer source and destination wallets must differ")
	ErrTransferLinked     = errors.New("transfer-linked records cannot be edited individually")
	ErrSystemWallet       = errors.New("the system wallet cannot be deleted")
	ErrRecordNotFound     = errors.New("record not found")
	ErrTransferNotFound   = errors.New("transfer not found")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrWalletInactive     = errors.New("wallet is not active")
	ErrAmountKZTMismatch  = errors.New("amount_kzt does not match amount_original times rate")
	ErrTransferPairBroken = errors.New("transfer must link exactly one income and one expense record")
)
