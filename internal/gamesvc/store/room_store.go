package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/zemenbingo/bingo-services/internal/db"
	"github.com/zemenbingo/bingo-services/internal/gamesvc/models"
)

const roomColumns = `id, room_no, name, host_id, entry_fee, max_players, prize_pool,
		status, winner_id, current_call, call_history, created_at, updated_at`

type RoomStore struct {
	db db.Pool
}

func NewRoomStore(db db.Pool) *RoomStore {
	return &RoomStore{db: db}
}

func scanRoom(row pgx.Row) (*models.Room, error) {
	r := &models.Room{}
	err := row.Scan(
		&r.ID,
		&r.RoomNo,
		&r.Name,
		&r.HostID,
		&r.EntryFee,
		&r.MaxPlayers,
		&r.PrizePool,
		&r.Status,
		&r.WinnerID,
		&r.CurrentCall,
		&r.CallHistory,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RoomStore) Create(ctx context.Context, room *models.Room) (*models.Room, error) {
	query := `
		INSERT INTO rooms (name, host_id, entry_fee, max_players, status)
		VALUES ($1, $2, $3, $4, 'waiting')
		RETURNING ` + roomColumns
	created, err := scanRoom(s.db.QueryRow(ctx, query,
		room.Name, room.HostID, room.EntryFee, room.MaxPlayers))
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return created, nil
}

func (s *RoomStore) GetByID(ctx context.Context, roomID int64) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	room, err := scanRoom(s.db.QueryRow(ctx, query, roomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room by ID: %w", err)
	}
	return room, nil
}

// GetOpenByEntryFee finds a waiting room charging the given fee, used by
// clients that pick a stake level rather than a specific room.
func (s *RoomStore) GetOpenByEntryFee(ctx context.Context, fee decimal.Decimal) (*models.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE entry_fee = $1 AND status = 'waiting'
		ORDER BY created_at
		LIMIT 1`
	room, err := scanRoom(s.db.QueryRow(ctx, query, fee))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open room: %w", err)
	}
	return room, nil
}

// RecordCall persists one drawn number: the current call and the append
// to the history, only while the room is playing.
func (s *RoomStore) RecordCall(ctx context.Context, roomID int64, number int) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE rooms
		SET current_call = $1,
		    call_history = array_append(call_history, $1),
		    updated_at = now()
		WHERE id = $2 AND status = 'playing'
	`, number, roomID)
	if err != nil {
		return fmt.Errorf("failed to record call: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("room %d is not playing", roomID)
	}
	return nil
}

// StartDue promotes waiting rooms older than the grace period that have
// enough players, and seeds a fresh waiting room for each promoted house
// room so the stake level never goes dark. SKIP LOCKED keeps concurrent
// controller instances from double starting a room.
func (s *RoomStore) StartDue(ctx context.Context, graceSeconds int, minPlayers int) ([]*models.Room, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT `+roomColumns+`
		FROM rooms
		WHERE status = 'waiting'
		  AND created_at < now() - make_interval(secs => $1)
		FOR UPDATE SKIP LOCKED
	`, graceSeconds)
	if err != nil {
		return nil, fmt.Errorf("select waiting rooms: %w", err)
	}

	var candidates []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan room row: %w", err)
		}
		candidates = append(candidates, room)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	var started []*models.Room
	for _, room := range candidates {
		var count int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM players WHERE room_id = $1
		`, room.ID).Scan(&count); err != nil {
			return nil, fmt.Errorf("count players for room %d: %w", room.ID, err)
		}
		if count < minPlayers {
			continue
		}

		if _, err := tx.Exec(ctx, `
			UPDATE rooms SET status = 'playing', updated_at = now() WHERE id = $1
		`, room.ID); err != nil {
			return nil, fmt.Errorf("promote room %d: %w", room.ID, err)
		}

		// house rooms regenerate so the next round can fill up
		if !room.HostID.Valid {
			if _, err := tx.Exec(ctx, `
				INSERT INTO rooms (name, entry_fee, max_players, status)
				VALUES ($1, $2, $3, 'waiting')
			`, room.Name, room.EntryFee, room.MaxPlayers); err != nil {
				return nil, fmt.Errorf("seed next room for %s: %w", room.Name, err)
			}
		}

		room.Status = models.RoomPlaying
		started = append(started, room)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return started, nil
}

// ConcludeWithWinner ends a playing room and records the winner. Zero
// rows affected means another claim settled first.
func (s *RoomStore) ConcludeWithWinner(ctx context.Context, roomID, winnerID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rooms
		SET status = 'ended', winner_id = $1, updated_at = now()
		WHERE id = $2 AND status = 'playing'
	`, winnerID, roomID)
	if err != nil {
		return false, fmt.Errorf("failed to conclude room: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ExpireIfUnended cancels a room that ran out of numbers with no winning
// claim. Ended rooms are left alone.
func (s *RoomStore) ExpireIfUnended(ctx context.Context, roomID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("query room status: %w", err)
	}

	if status != models.RoomEnded && status != models.RoomCancelled {
		if _, err = tx.Exec(ctx, `
			UPDATE rooms SET status = 'cancelled', updated_at = now() WHERE id = $1
		`, roomID); err != nil {
			return fmt.Errorf("cancel room: %w", err)
		}
	}

	return tx.Commit(ctx)
}
