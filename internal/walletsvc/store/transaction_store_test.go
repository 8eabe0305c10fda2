package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zemenbingo/bingo-services/internal/walletsvc/models"
)

func dec(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func txRows(mock pgxmock.PgxPoolIface) *pgxmock.Rows {
	return mock.NewRows([]string{
		"id", "user_id", "type", "amount", "currency", "status", "reference",
		"game_id", "bet_id", "payment_method_id", "fee", "original_amount",
		"external_ref", "created_at", "completed_at",
	})
}

func TestSettleDepositCreditsNetAmount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewTransactionStore(mock)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status, original_amount").
		WithArgs(int64(3)).
		WillReturnRows(mock.NewRows([]string{"user_id", "status", "original_amount"}).
			AddRow(int64(7), models.TxPending, dec("1000")))
	mock.ExpectExec("UPDATE transactions").
		WithArgs(models.TxCompleted, "FT999", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE wallets").
		WithArgs(dec("1000"), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	ref := "FT999"
	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(int64(3)).
		WillReturnRows(txRows(mock).AddRow(
			int64(3), int64(7), models.TxDeposit, dec("1015"), "ETB",
			models.TxCompleted, "DEP-x", sql.NullInt64{}, sql.NullInt64{},
			sql.NullString{String: "telebirr", Valid: true},
			dec("15"), dec("1000"), &ref, now,
			sql.NullTime{Time: now, Valid: true},
		))

	tx, err := s.SettleDeposit(context.Background(), 3, "FT999")
	require.NoError(t, err)
	assert.Equal(t, models.TxCompleted, tx.Status)
	assert.Equal(t, "FT999", tx.Metadata.ExternalRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleDepositAlreadyProcessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewTransactionStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status, original_amount").
		WithArgs(int64(3)).
		WillReturnRows(mock.NewRows([]string{"user_id", "status", "original_amount"}).
			AddRow(int64(7), models.TxCompleted, dec("1000")))
	mock.ExpectRollback()

	_, err = s.SettleDeposit(context.Background(), 3, "FT999")
	assert.ErrorIs(t, err, ErrNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailDepositSkipsWalletUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewTransactionStore(mock)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status").
		WithArgs(int64(3)).
		WillReturnRows(mock.NewRows([]string{"status"}).AddRow(models.TxPending))
	mock.ExpectExec("UPDATE transactions").
		WithArgs(models.TxFailed, "FT999", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	ref := "FT999"
	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(int64(3)).
		WillReturnRows(txRows(mock).AddRow(
			int64(3), int64(7), models.TxDeposit, dec("1015"), "ETB",
			models.TxFailed, "DEP-x", sql.NullInt64{}, sql.NullInt64{},
			sql.NullString{String: "telebirr", Valid: true},
			dec("15"), dec("1000"), &ref, now,
			sql.NullTime{Time: now, Valid: true},
		))

	tx, err := s.FailDeposit(context.Background(), 3, "FT999")
	require.NoError(t, err)
	assert.Equal(t, models.TxFailed, tx.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailDepositAlreadyProcessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewTransactionStore(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status").
		WithArgs(int64(3)).
		WillReturnRows(mock.NewRows([]string{"status"}).AddRow(models.TxCompleted))
	mock.ExpectRollback()

	_, err = s.FailDeposit(context.Background(), 3, "FT999")
	assert.ErrorIs(t, err, ErrNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceBetConditionalDeduction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewTransactionStore(mock)
	bet := &models.Transaction{
		UserID:    7,
		Amount:    dec("50"),
		Currency:  "ETB",
		Reference: "BET-x",
		GameID:    sql.NullInt64{Int64: 12, Valid: true},
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets").
		WithArgs(dec("50"), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO transactions").
		WithArgs(int64(7), models.TxBet, dec("50"), "ETB", models.TxCompleted,
			"BET-x", sql.NullInt64{Int64: 12, Valid: true}).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(44)))
	mock.ExpectCommit()

	id, err := s.PlaceBet(context.Background(), bet)
	require.NoError(t, err)
	assert.Equal(t, int64(44), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceBetInsufficientBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewTransactionStore(mock)
	bet := &models.Transaction{UserID: 7, Amount: dec("50"), Currency: "ETB"}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets").
		WithArgs(dec("50"), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err = s.PlaceBet(context.Background(), bet)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}
