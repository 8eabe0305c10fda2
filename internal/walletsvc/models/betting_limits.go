package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// BettingLimits is a per-user responsible-gaming record. A nil record or
// Active=false means no restrictions apply.
type BettingLimits struct {
	UserID            int64               `json:"user_id"`
	Active            bool                `json:"active"`
	MaxBetPerGame     decimal.NullDecimal `json:"max_bet_per_game"`
	DailyBetLimit     decimal.NullDecimal `json:"daily_bet_limit"`
	SelfExcludedUntil sql.NullTime        `json:"self_excluded_until"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// SelfExcluded reports whether the user is inside a self-exclusion window
// at the given instant.
func (b *BettingLimits) SelfExcluded(now time.Time) bool {
	return b != nil && b.Active && b.SelfExcludedUntil.Valid && now.Before(b.SelfExcludedUntil.Time)
}
