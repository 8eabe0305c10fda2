package models

import "time"

// CardRecord is the persisted form of a generated card. Data holds the
// 25 cell numbers as comma separated values in row major order, the free
// center stored as 0.
type CardRecord struct {
	ID        int64     `json:"id"`      // Primary key
	CardID    string    `json:"card_id"` // Unique card identifier
	RoomID    int64     `json:"room_id"` // FK to rooms(id)
	UserID    int64     `json:"user_id"` // FK to users(user_id)
	Data      string    `json:"data"`    // Serialized cell numbers
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
