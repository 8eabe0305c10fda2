package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ValidationError reports an input that failed a bounds or presence check.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s (%s): %s", e.Field, e.Value, e.Reason)
}

type InsufficientBalanceError struct {
	Balance  decimal.Decimal
	Required decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, need %s", e.Balance, e.Required)
}

// LimitExceededError reports a breached cap; Scope names which one
// (daily, per_bet, daily_bet).
type LimitExceededError struct {
	Scope string
	Limit decimal.Decimal
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s limit of %s exceeded", e.Scope, e.Limit)
}

type SelfExcludedError struct {
	Until time.Time
}

func (e *SelfExcludedError) Error() string {
	return fmt.Sprintf("betting disallowed: self-excluded until %s", e.Until.Format(time.RFC3339))
}

// AlreadyProcessedError guards idempotent settlement: the transaction has
// already left the pending state.
type AlreadyProcessedError struct {
	TransactionID int64
	Status        string
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("transaction %d already processed (status %s)", e.TransactionID, e.Status)
}

type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// ConcurrencyConflictError surfaces an atomic update that lost its race
// after retries; the caller may retry the operation.
type ConcurrencyConflictError struct {
	Op string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrent update conflict during %s", e.Op)
}
