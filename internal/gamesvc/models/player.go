package models

import (
	"database/sql"
	"time"
)

const (
	PlayerPending   = "pending"
	PlayerWin       = "win"
	PlayerLoose     = "loose"
	PlayerCancelled = "cancelled"
)

type Player struct {
	ID        int64         `json:"id"`        // Primary key
	RoomID    int64         `json:"room_id"`   // FK to rooms(id)
	UserID    int64         `json:"user_id"`   // FK to users(user_id)
	CardID    string        `json:"card_id"`   // FK to cards(card_id)
	BetTxID   sql.NullInt64 `json:"bet_tx_id"` // Ledger transaction that paid the entry fee
	Status    string        `json:"status"`    // 'pending', 'win', 'loose', 'cancelled'
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
