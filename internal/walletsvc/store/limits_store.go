package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zemenbingo/bingo-services/internal/db"
	"github.com/zemenbingo/bingo-services/internal/walletsvc/models"
)

type BettingLimitsStore struct {
	db db.Pool
}

func NewBettingLimitsStore(db db.Pool) *BettingLimitsStore {
	return &BettingLimitsStore{db: db}
}

// GetByUserID returns nil when the user has no limits record.
func (s *BettingLimitsStore) GetByUserID(ctx context.Context, userID int64) (*models.BettingLimits, error) {
	b := &models.BettingLimits{}
	err := s.db.QueryRow(ctx, `
		SELECT user_id, active, max_bet_per_game, daily_bet_limit,
		       self_excluded_until, updated_at
		FROM betting_limits
		WHERE user_id = $1
	`, userID).Scan(
		&b.UserID,
		&b.Active,
		&b.MaxBetPerGame,
		&b.DailyBetLimit,
		&b.SelfExcludedUntil,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get betting limits: %w", err)
	}
	return b, nil
}

// Upsert writes the user's limits record.
func (s *BettingLimitsStore) Upsert(ctx context.Context, b *models.BettingLimits) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO betting_limits
			(user_id, active, max_bet_per_game, daily_bet_limit, self_excluded_until, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO UPDATE SET
			active = EXCLUDED.active,
			max_bet_per_game = EXCLUDED.max_bet_per_game,
			daily_bet_limit = EXCLUDED.daily_bet_limit,
			self_excluded_until = EXCLUDED.self_excluded_until,
			updated_at = now()
	`, b.UserID, b.Active, b.MaxBetPerGame, b.DailyBetLimit, b.SelfExcludedUntil)
	if err != nil {
		return fmt.Errorf("upsert betting limits: %w", err)
	}
	return nil
}
