package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/zemenbingo/bingo-services/internal/db"
	"github.com/zemenbingo/bingo-services/internal/walletsvc/models"
)

type WithdrawalStore struct {
	db db.Pool
}

func NewWithdrawalStore(db db.Pool) *WithdrawalStore {
	return &WithdrawalStore{db: db}
}

const withdrawalColumns = `id, user_id, amount, payment_method_id,
	account_type, account_no, name, transaction_id, status,
	resolved_by, reason, created_at, resolved_at`

func scanWithdrawal(row pgx.Row) (*models.WithdrawalRequest, error) {
	r := &models.WithdrawalRequest{}
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Amount,
		&r.PaymentMethodID,
		&r.Destination.AccountType,
		&r.Destination.AccountNo,
		&r.Destination.Name,
		&r.TransactionID,
		&r.Status,
		&r.ResolvedBy,
		&r.Reason,
		&r.CreatedAt,
		&r.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan withdrawal request: %w", err)
	}
	return r, nil
}

// Create inserts the withdrawal request and its linked pending gross
// transaction in one unit. Balance is not touched here.
func (s *WithdrawalStore) Create(ctx context.Context, req *models.WithdrawalRequest, t *models.Transaction) (*models.WithdrawalRequest, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var txID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions
			(user_id, type, amount, currency, status, reference,
			 payment_method_id, fee, original_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING id
	`, t.UserID, models.TxWithdrawal, t.Amount, t.Currency, models.TxPending,
		t.Reference, t.PaymentMethodID, t.Metadata.Fee, t.Metadata.OriginalAmount,
	).Scan(&txID)
	if err != nil {
		return nil, fmt.Errorf("insert withdrawal transaction: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO withdrawal_requests
			(user_id, amount, payment_method_id, account_type, account_no, name,
			 transaction_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING `+withdrawalColumns+`
	`, req.UserID, req.Amount, req.PaymentMethodID,
		req.Destination.AccountType, req.Destination.AccountNo, req.Destination.Name,
		txID, models.WithdrawalPending,
	)
	created, err := scanWithdrawal(row)
	if err != nil {
		return nil, fmt.Errorf("insert withdrawal request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return created, nil
}

func (s *WithdrawalStore) GetByID(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawal_requests
		WHERE id = $1
	`, id)
	return scanWithdrawal(row)
}

// Resolve settles a pending request. Approval moves the linked transaction
// to processing and deducts the gross amount; rejection fails the
// transaction and leaves the balance alone. One atomic unit either way.
func (s *WithdrawalStore) Resolve(ctx context.Context, requestID int64, approved bool, actorID int64, reason string) (*models.Transaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var txID int64
	var status string
	err = tx.QueryRow(ctx, `
		SELECT transaction_id, status
		FROM withdrawal_requests
		WHERE id = $1
		FOR UPDATE
	`, requestID).Scan(&txID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock withdrawal request: %w", err)
	}
	if status != models.WithdrawalPending {
		return nil, ErrNotPending
	}

	var userID int64
	var txStatus string
	var gross decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT user_id, status, amount
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, txID).Scan(&userID, &txStatus, &gross)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock transaction: %w", err)
	}
	if txStatus != models.TxPending {
		return nil, ErrNotPending
	}

	if approved {
		tag, err := tx.Exec(ctx, `
			UPDATE wallets
			SET balance = balance - $1, updated_at = now()
			WHERE user_id = $2 AND balance >= $1
		`, gross, userID)
		if err != nil {
			return nil, fmt.Errorf("deduct withdrawal: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrInsufficientBalance
		}

		_, err = tx.Exec(ctx, `
			UPDATE transactions SET status = $1 WHERE id = $2
		`, models.TxProcessing, txID)
		if err != nil {
			return nil, fmt.Errorf("mark transaction processing: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE withdrawal_requests
			SET status = $1, resolved_by = $2, reason = NULLIF($3, ''), resolved_at = now()
			WHERE id = $4
		`, models.WithdrawalApproved, actorID, reason, requestID)
		if err != nil {
			return nil, fmt.Errorf("approve withdrawal request: %w", err)
		}
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE transactions SET status = $1 WHERE id = $2
		`, models.TxFailed, txID)
		if err != nil {
			return nil, fmt.Errorf("fail transaction: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE withdrawal_requests
			SET status = $1, resolved_by = $2, reason = NULLIF($3, ''), resolved_at = now()
			WHERE id = $4
		`, models.WithdrawalRejected, actorID, reason, requestID)
		if err != nil {
			return nil, fmt.Errorf("reject withdrawal request: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	row := s.db.QueryRow(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		WHERE id = $1
	`, txID)
	return scanTransaction(row)
}

// Complete finalizes an approved request after the payout executed.
func (s *WithdrawalStore) Complete(ctx context.Context, requestID int64, externalRef string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var txID int64
	var status string
	err = tx.QueryRow(ctx, `
		SELECT transaction_id, status
		FROM withdrawal_requests
		WHERE id = $1
		FOR UPDATE
	`, requestID).Scan(&txID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock withdrawal request: %w", err)
	}
	if status != models.WithdrawalApproved {
		return ErrNotPending
	}

	_, err = tx.Exec(ctx, `
		UPDATE transactions
		SET status = $1, external_ref = $2, completed_at = now()
		WHERE id = $3
	`, models.TxCompleted, externalRef, txID)
	if err != nil {
		return fmt.Errorf("complete transaction: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE withdrawal_requests SET status = $1 WHERE id = $2
	`, models.WithdrawalCompleted, requestID)
	if err != nil {
		return fmt.Errorf("complete withdrawal request: %w", err)
	}

	return tx.Commit(ctx)
}
