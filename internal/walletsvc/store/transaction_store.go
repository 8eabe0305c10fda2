package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/zemenbingo/bingo-services/internal/db"
	"github.com/zemenbingo/bingo-services/internal/walletsvc/models"
)

type TransactionStore struct {
	db db.Pool
}

func NewTransactionStore(db db.Pool) *TransactionStore {
	return &TransactionStore{db: db}
}

const txColumns = `id, user_id, type, amount, currency, status, reference,
	game_id, bet_id, payment_method_id, fee, original_amount, external_ref,
	created_at, completed_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	t := &models.Transaction{}
	var externalRef *string
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Type,
		&t.Amount,
		&t.Currency,
		&t.Status,
		&t.Reference,
		&t.GameID,
		&t.BetID,
		&t.PaymentMethodID,
		&t.Metadata.Fee,
		&t.Metadata.OriginalAmount,
		&externalRef,
		&t.CreatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	if externalRef != nil {
		t.Metadata.ExternalRef = *externalRef
	}
	return t, nil
}

// CreatePending appends a pending transaction without touching the wallet.
func (s *TransactionStore) CreatePending(ctx context.Context, t *models.Transaction) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO transactions
			(user_id, type, amount, currency, status, reference, game_id, bet_id,
			 payment_method_id, fee, original_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		RETURNING id
	`, t.UserID, t.Type, t.Amount, t.Currency, models.TxPending, t.Reference,
		t.GameID, t.BetID, t.PaymentMethodID, t.Metadata.Fee, t.Metadata.OriginalAmount,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (s *TransactionStore) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		WHERE id = $1
	`, id)
	return scanTransaction(row)
}

// SettleDeposit completes a pending deposit and credits the wallet with the
// recorded net original amount. Both updates commit together. Returns
// ErrNotPending when the transaction already left the pending state.
func (s *TransactionStore) SettleDeposit(ctx context.Context, txID int64, externalRef string) (*models.Transaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID int64
	var status string
	var net decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT user_id, status, original_amount
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, txID).Scan(&userID, &status, &net)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock transaction: %w", err)
	}
	if status != models.TxPending {
		return nil, ErrNotPending
	}

	_, err = tx.Exec(ctx, `
		UPDATE transactions
		SET status = $1, external_ref = $2, completed_at = now()
		WHERE id = $3
	`, models.TxCompleted, externalRef, txID)
	if err != nil {
		return nil, fmt.Errorf("complete transaction: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE wallets
		SET balance = balance + $1, updated_at = now()
		WHERE user_id = $2
	`, net, userID)
	if err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetByID(ctx, txID)
}

// FailDeposit moves a pending deposit to failed after the gateway reports
// an unsuccessful payment. The balance is never touched. Returns
// ErrNotPending when the transaction already left the pending state.
func (s *TransactionStore) FailDeposit(ctx context.Context, txID int64, externalRef string) (*models.Transaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `
		SELECT status
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, txID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock transaction: %w", err)
	}
	if status != models.TxPending {
		return nil, ErrNotPending
	}

	_, err = tx.Exec(ctx, `
		UPDATE transactions
		SET status = $1, external_ref = $2, completed_at = now()
		WHERE id = $3
	`, models.TxFailed, externalRef, txID)
	if err != nil {
		return nil, fmt.Errorf("fail transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return s.GetByID(ctx, txID)
}

// PlaceBet deducts the stake and appends a completed bet transaction as one
// atomic unit. The conditional update guarantees concurrent bets never
// drive the balance negative.
func (s *TransactionStore) PlaceBet(ctx context.Context, t *models.Transaction) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE wallets
		SET balance = balance - $1, updated_at = now()
		WHERE user_id = $2 AND balance >= $1
	`, t.Amount, t.UserID)
	if err != nil {
		return 0, fmt.Errorf("deduct stake: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrInsufficientBalance
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions
			(user_id, type, amount, currency, status, reference, game_id,
			 fee, original_amount, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $3, now(), now())
		RETURNING id
	`, t.UserID, models.TxBet, t.Amount, t.Currency, models.TxCompleted,
		t.Reference, t.GameID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert bet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return id, nil
}

// CreditWin credits the wallet and appends a completed win transaction
// linked to the originating bet, one atomic unit.
func (s *TransactionStore) CreditWin(ctx context.Context, t *models.Transaction) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE wallets
		SET balance = balance + $1, updated_at = now()
		WHERE user_id = $2
	`, t.Amount, t.UserID)
	if err != nil {
		return 0, fmt.Errorf("credit win: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNotFound
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions
			(user_id, type, amount, currency, status, reference, game_id, bet_id,
			 fee, original_amount, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $3, now(), now())
		RETURNING id
	`, t.UserID, models.TxWin, t.Amount, t.Currency, models.TxCompleted,
		t.Reference, t.GameID, t.BetID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert win: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return id, nil
}

// CreditRefund returns a stake to the wallet and appends a completed
// refund transaction linked to the originating bet, one atomic unit.
func (s *TransactionStore) CreditRefund(ctx context.Context, t *models.Transaction) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE wallets
		SET balance = balance + $1, updated_at = now()
		WHERE user_id = $2
	`, t.Amount, t.UserID)
	if err != nil {
		return 0, fmt.Errorf("credit refund: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNotFound
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions
			(user_id, type, amount, currency, status, reference, game_id, bet_id,
			 fee, original_amount, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $3, now(), now())
		RETURNING id
	`, t.UserID, models.TxRefund, t.Amount, t.Currency, models.TxCompleted,
		t.Reference, t.GameID, t.BetID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert refund: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return id, nil
}

// DailyTotal sums net original amounts for a transaction type and status
// set since the given instant, used for rolling daily limit checks.
func (s *TransactionStore) DailyTotal(ctx context.Context, userID int64, txType string, statuses []string, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(original_amount), 0)
		FROM transactions
		WHERE user_id = $1 AND type = $2 AND status = ANY($3) AND created_at >= $4
	`, userID, txType, statuses, since).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum daily total: %w", err)
	}
	return total, nil
}

// ListByUser returns the newest transactions first.
func (s *TransactionStore) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var list []*models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
