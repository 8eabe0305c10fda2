package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zemenbingo/bingo-services/internal/db"
	"github.com/zemenbingo/bingo-services/internal/gamesvc/models"
)

const cardColumns = `id, card_id, room_id, user_id, data, created_at, updated_at`

type CardStore struct {
	db db.Pool
}

func NewCardStore(db db.Pool) *CardStore {
	return &CardStore{db: db}
}

func scanCard(row pgx.Row) (*models.CardRecord, error) {
	c := &models.CardRecord{}
	err := row.Scan(
		&c.ID,
		&c.CardID,
		&c.RoomID,
		&c.UserID,
		&c.Data,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CardStore) GetByCardID(ctx context.Context, cardID string) (*models.CardRecord, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE card_id = $1 LIMIT 1`
	card, err := scanCard(s.db.QueryRow(ctx, query, cardID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card by id: %w", err)
	}
	return card, nil
}

func (s *CardStore) GetByRoomAndUser(ctx context.Context, roomID, userID int64) (*models.CardRecord, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE room_id = $1 AND user_id = $2 LIMIT 1`
	card, err := scanCard(s.db.QueryRow(ctx, query, roomID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card for seat: %w", err)
	}
	return card, nil
}
