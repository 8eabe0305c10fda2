package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal request approval states.
const (
	WithdrawalPending    = "pending"
	WithdrawalApproved   = "approved"
	WithdrawalRejected   = "rejected"
	WithdrawalProcessing = "processing"
	WithdrawalCompleted  = "completed"
)

// Destination is where an approved withdrawal pays out, a bank account or
// a mobile-money number.
type Destination struct {
	AccountType string `json:"account_type"`
	AccountNo   string `json:"account_no"`
	Name        string `json:"name"`
}

type WithdrawalRequest struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethodID string          `json:"payment_method_id"`
	Destination     Destination     `json:"destination"`
	// TransactionID links the pending gross transaction created with this
	// request.
	TransactionID int64          `json:"transaction_id"`
	Status        string         `json:"status"`
	ResolvedBy    sql.NullInt64  `json:"resolved_by"`
	Reason        sql.NullString `json:"reason"`
	CreatedAt     time.Time      `json:"created_at"`
	ResolvedAt    sql.NullTime   `json:"resolved_at"`
}
