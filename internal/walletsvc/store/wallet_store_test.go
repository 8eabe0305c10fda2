package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zemenbingo/bingo-services/internal/walletsvc/models"
)

func walletRow(mock pgxmock.PgxPoolIface, balance decimal.Decimal) *pgxmock.Rows {
	now := time.Now()
	return mock.NewRows([]string{
		"id", "user_id", "balance", "currency", "status", "created_at", "updated_at",
	}).AddRow(int64(1), int64(7), balance, "ETB", models.WalletActive, now, now)
}

func TestWalletGetOrCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWalletStore(mock)

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(int64(7), "ETB", models.WalletActive).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT (.+) FROM wallets").
		WithArgs(int64(7)).
		WillReturnRows(walletRow(mock, decimal.Zero))

	w, err := s.GetOrCreate(context.Background(), 7, "ETB")
	require.NoError(t, err)
	assert.Equal(t, int64(7), w.UserID)
	assert.True(t, w.Balance.IsZero())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletGetByUserIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWalletStore(mock)

	mock.ExpectQuery("SELECT (.+) FROM wallets").
		WithArgs(int64(9)).
		WillReturnRows(mock.NewRows([]string{
			"id", "user_id", "balance", "currency", "status", "created_at", "updated_at",
		}))

	_, err = s.GetByUserID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletSetStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWalletStore(mock)

	mock.ExpectExec("UPDATE wallets SET status").
		WithArgs(models.WalletFrozen, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.SetStatus(context.Background(), 7, models.WalletFrozen))

	mock.ExpectExec("UPDATE wallets SET status").
		WithArgs(models.WalletFrozen, int64(8)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, s.SetStatus(context.Background(), 8, models.WalletFrozen), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
