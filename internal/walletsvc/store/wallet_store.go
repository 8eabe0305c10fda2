package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/zemenbingo/bingo-services/internal/db"
	"github.com/zemenbingo/bingo-services/internal/walletsvc/models"
)

type WalletStore struct {
	db db.Pool
}

func NewWalletStore(db db.Pool) *WalletStore {
	return &WalletStore{db: db}
}

const walletColumns = `id, user_id, balance, currency, status, created_at, updated_at`

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	w := &models.Wallet{}
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.Balance,
		&w.Currency,
		&w.Status,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}

// GetOrCreate returns the user's wallet, creating it with zero balance on
// first access. The unique constraint on user_id makes concurrent first
// access produce exactly one row.
func (s *WalletStore) GetOrCreate(ctx context.Context, userID int64, currency string) (*models.Wallet, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO wallets (user_id, balance, currency, status, created_at, updated_at)
		VALUES ($1, 0, $2, $3, now(), now())
		ON CONFLICT (user_id) DO NOTHING
	`, userID, currency, models.WalletActive)
	if err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	return s.GetByUserID(ctx, userID)
}

func (s *WalletStore) GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE user_id = $1
	`, userID)
	return scanWallet(row)
}

// SetStatus transitions a wallet between active, suspended and frozen.
// Wallets are never deleted.
func (s *WalletStore) SetStatus(ctx context.Context, userID int64, status string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE wallets SET status = $1, updated_at = now() WHERE user_id = $2
	`, status, userID)
	if err != nil {
		return fmt.Errorf("update wallet status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
