package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/zemenbingo/bingo-services/internal/db"
	"github.com/zemenbingo/bingo-services/internal/gamesvc/models"
)

const playerColumns = `id, room_id, user_id, card_id, bet_tx_id, status, created_at, updated_at`

type PlayerStore struct {
	db db.Pool
}

func NewPlayerStore(db db.Pool) *PlayerStore {
	return &PlayerStore{db: db}
}

func scanPlayer(row pgx.Row) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(
		&p.ID,
		&p.RoomID,
		&p.UserID,
		&p.CardID,
		&p.BetTxID,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PlayerStore) GetPlayersByRoomID(ctx context.Context, roomID int64) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE room_id = $1`

	rows, err := s.db.Query(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}

	return players, rows.Err()
}

// GetActiveRoomPlayer returns the player's seat in a room that is still
// waiting or playing, nil when the user has no live seat.
func (s *PlayerStore) GetActiveRoomPlayer(ctx context.Context, userID int64) (*models.Player, error) {
	query := `
		SELECT p.id, p.room_id, p.user_id, p.card_id, p.bet_tx_id, p.status, p.created_at, p.updated_at
		FROM players p
		JOIN rooms r ON r.id = p.room_id
		WHERE p.user_id = $1
		  AND p.status = 'pending'
		  AND r.status IN ('waiting', 'playing')
		ORDER BY p.created_at DESC
		LIMIT 1`
	p, err := scanPlayer(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active seat: %w", err)
	}
	return p, nil
}

func (s *PlayerStore) GetByRoomAndUser(ctx context.Context, roomID, userID int64) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE room_id = $1 AND user_id = $2`
	p, err := scanPlayer(s.db.QueryRow(ctx, query, roomID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// It fails with an error if:
// - The room is not waiting, does not exist, or is already full.
// - The user has already joined the room (unique_room_user constraint).
// - Any foreign key (room_id, user_id) is invalid.
// The card row and the seat commit together.
func (s *PlayerStore) CreateWithCard(ctx context.Context, roomID, userID int64, cardID, cardData string) (*models.Player, error) {
	if roomID <= 0 {
		return nil, fmt.Errorf("invalid room ID: %d", roomID)
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user ID: %d", userID)
	}
	if cardID == "" {
		return nil, fmt.Errorf("card ID cannot be empty")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// CTE locks the room row and enforces status='waiting' plus capacity
	const seatQuery = `
WITH locked_room AS (
  SELECT id, max_players
  FROM rooms
  WHERE id = $1
    AND status = 'waiting'
  FOR UPDATE
),
open_seat AS (
  SELECT lr.id
  FROM locked_room lr
  WHERE (SELECT COUNT(*) FROM players p WHERE p.room_id = lr.id) < lr.max_players
)
INSERT INTO players (room_id, user_id, card_id, status)
SELECT os.id, $2, $3, 'pending'
FROM open_seat os
RETURNING ` + playerColumns

	player, err := scanPlayer(tx.QueryRow(ctx, seatQuery, roomID, userID, cardID))
	if err != nil {
		// zero rows means the room isn't waiting, is full, or doesn't exist
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("cannot join room %d: not open for entry or full", roomID)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				if pgErr.ConstraintName == "unique_room_user" {
					return nil, fmt.Errorf("user %d has already joined room %d", userID, roomID)
				}
			case "23503":
				return nil, fmt.Errorf("invalid reference: %s", pgErr.Message)
			}
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO cards (card_id, room_id, user_id, data)
		VALUES ($1, $2, $3, $4)
	`, cardID, roomID, userID, cardData); err != nil {
		return nil, fmt.Errorf("failed to store card: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return player, nil
}

// ConfirmEntry links the seat to the ledger transaction that paid for
// it and grows the room's prize pool by the entry fee, in one
// transaction. The pool update tolerates the room being promoted to
// 'playing' between seating and confirmation, but not an ended or
// cancelled room.
func (s *PlayerStore) ConfirmEntry(ctx context.Context, playerID, roomID, betTxID int64, fee decimal.Decimal) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE players SET bet_tx_id = $1, updated_at = now() WHERE id = $2
	`, betTxID, playerID)
	if err != nil {
		return fmt.Errorf("failed to set bet tx: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("player %d not found", playerID)
	}

	tag, err = tx.Exec(ctx, `
		UPDATE rooms
		SET prize_pool = prize_pool + $1, updated_at = now()
		WHERE id = $2 AND status IN ('waiting', 'playing')
	`, fee, roomID)
	if err != nil {
		return fmt.Errorf("failed to grow prize pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("room %d is no longer live", roomID)
	}

	return tx.Commit(ctx)
}

// Remove releases a seat, used to compensate when the entry fee bet
// fails after the seat was taken.
func (s *PlayerStore) Remove(ctx context.Context, roomID, userID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM cards WHERE room_id = $1 AND user_id = $2
	`, roomID, userID); err != nil {
		return fmt.Errorf("failed to remove card: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM players WHERE room_id = $1 AND user_id = $2
	`, roomID, userID); err != nil {
		return fmt.Errorf("failed to remove player: %w", err)
	}

	return tx.Commit(ctx)
}

// MarkResults settles every seat in an ended room: the winner gets
// 'win', everyone else 'loose'.
func (s *PlayerStore) MarkResults(ctx context.Context, roomID, winnerID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE players SET status = 'win', updated_at = now()
		WHERE room_id = $1 AND user_id = $2
	`, roomID, winnerID); err != nil {
		return fmt.Errorf("failed to mark winner: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE players SET status = 'loose', updated_at = now()
		WHERE room_id = $1 AND user_id <> $2 AND status = 'pending'
	`, roomID, winnerID); err != nil {
		return fmt.Errorf("failed to mark losers: %w", err)
	}

	return tx.Commit(ctx)
}
