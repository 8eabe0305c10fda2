package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoomWaiting   = "waiting"
	RoomPlaying   = "playing"
	RoomEnded     = "ended"
	RoomCancelled = "cancelled"
)

type Room struct {
	ID          int64           `json:"id"`        // Primary key
	RoomNo      int64           `json:"room_no"`   // Auto-incremented room number (sequence)
	Name        string          `json:"name"`      // Display name (e.g. Birr 10 Bingo)
	HostID      sql.NullInt64   `json:"host_id"`   // FK to users (creator), null for house rooms
	EntryFee    decimal.Decimal `json:"entry_fee"` // Stake deducted on join
	MaxPlayers  int             `json:"max_players"`
	PrizePool   decimal.Decimal `json:"prize_pool"`   // Sum of entry fees collected
	Status      string          `json:"status"`       // waiting | playing | ended | cancelled
	WinnerID    sql.NullInt64   `json:"winner_id"`    // Set once when a claim settles
	CurrentCall sql.NullInt64   `json:"current_call"` // Last number called
	CallHistory []int64         `json:"call_history"` // All calls in draw order
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
