package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WalletActive    = "active"
	WalletSuspended = "suspended"
	WalletFrozen    = "frozen"
)

// DefaultCurrency is the currency wallets are created in.
const DefaultCurrency = "ETB"

type Wallet struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
