package store

import "errors"

// Sentinel errors the ledger service maps onto its typed taxonomy.
var (
	// ErrNotFound means the wallet, transaction or request does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNotPending means a settlement touched a transaction that already
	// left the pending state.
	ErrNotPending = errors.New("transaction not pending")

	// ErrInsufficientBalance means a conditional balance deduction matched
	// no row, the wallet cannot cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
