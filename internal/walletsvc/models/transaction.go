package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TxDeposit    = "deposit"
	TxWithdrawal = "withdrawal"
	TxBet        = "bet"
	TxWin        = "win"
	TxRefund     = "refund"
	TxBonus      = "bonus"
	TxFee        = "fee"
)

// Transaction lifecycle statuses.
const (
	TxPending    = "pending"
	TxProcessing = "processing"
	TxCompleted  = "completed"
	TxFailed     = "failed"
	TxCancelled  = "cancelled"
)

// TxMetadata carries the fee breakdown recorded when a transaction is
// initiated. Amount on the transaction is always gross; OriginalAmount is
// the net the wallet is credited or the user receives.
type TxMetadata struct {
	Fee            decimal.Decimal `json:"fee"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	ExternalRef    string          `json:"external_ref,omitempty"`
}

// Transaction is one append-only balance-affecting record. Rows are only
// ever status-transitioned, never rewritten or deleted.
type Transaction struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	GameID          sql.NullInt64   `json:"game_id"`
	BetID           sql.NullInt64   `json:"bet_id"`
	PaymentMethodID sql.NullString  `json:"payment_method_id"`
	Metadata        TxMetadata      `json:"metadata"`
	CreatedAt       time.Time       `json:"created_at"`
	CompletedAt     sql.NullTime    `json:"completed_at"`
}
