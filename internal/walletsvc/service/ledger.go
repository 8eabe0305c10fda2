package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/zemenbingo/bingo-services/internal/walletsvc/models"
	"github.com/zemenbingo/bingo-services/internal/walletsvc/store"
)

// Decision resolves a withdrawal request.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Store interfaces kept narrow so ledger tests run against in-memory
// fakes while production wires the pgx stores.

type WalletStore interface {
	GetOrCreate(ctx context.Context, userID int64, currency string) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error)
}

type TransactionStore interface {
	CreatePending(ctx context.Context, t *models.Transaction) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)
	SettleDeposit(ctx context.Context, txID int64, externalRef string) (*models.Transaction, error)
	FailDeposit(ctx context.Context, txID int64, externalRef string) (*models.Transaction, error)
	PlaceBet(ctx context.Context, t *models.Transaction) (int64, error)
	CreditWin(ctx context.Context, t *models.Transaction) (int64, error)
	CreditRefund(ctx context.Context, t *models.Transaction) (int64, error)
	DailyTotal(ctx context.Context, userID int64, txType string, statuses []string, since time.Time) (decimal.Decimal, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error)
}

type WithdrawalStore interface {
	Create(ctx context.Context, req *models.WithdrawalRequest, t *models.Transaction) (*models.WithdrawalRequest, error)
	GetByID(ctx context.Context, id int64) (*models.WithdrawalRequest, error)
	Resolve(ctx context.Context, requestID int64, approved bool, actorID int64, reason string) (*models.Transaction, error)
	Complete(ctx context.Context, requestID int64, externalRef string) error
}

type LimitsStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.BettingLimits, error)
}

// Ledger owns every balance mutation. All multi-record effects are atomic
// in the store layer; the ledger enforces fees, limits and ordering of
// validation errors.
type Ledger struct {
	wallets     WalletStore
	txs         TransactionStore
	withdrawals WithdrawalStore
	limits      LimitsStore
	methods     map[string]models.PaymentMethod
	watcher     *Watcher
	currency    string
}

func NewLedger(wallets WalletStore, txs TransactionStore, withdrawals WithdrawalStore, limits LimitsStore) *Ledger {
	return &Ledger{
		wallets:     wallets,
		txs:         txs,
		withdrawals: withdrawals,
		limits:      limits,
		methods:     models.PaymentMethods(),
		watcher:     NewWatcher(),
		currency:    models.DefaultCurrency,
	}
}

// GetOrCreateWallet lazily creates the wallet on first access.
func (l *Ledger) GetOrCreateWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	return l.wallets.GetOrCreate(ctx, userID, l.currency)
}

// SubscribeWallet registers a push subscription for the user's wallet. The
// current snapshot is delivered first, then one per change.
func (l *Ledger) SubscribeWallet(ctx context.Context, userID int64) (<-chan *models.Wallet, func(), error) {
	wallet, err := l.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := l.watcher.Subscribe(userID, wallet)
	return ch, cancel, nil
}

func (l *Ledger) method(id string) (models.PaymentMethod, error) {
	m, ok := l.methods[id]
	if !ok {
		return models.PaymentMethod{}, &ValidationError{
			Field:  "payment_method",
			Value:  id,
			Reason: "unknown payment method",
		}
	}
	return m, nil
}

func (l *Ledger) activeWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	wallet, err := l.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.Status != models.WalletActive {
		return nil, &ValidationError{
			Field:  "wallet_status",
			Value:  wallet.Status,
			Reason: "wallet is not active",
		}
	}
	return wallet, nil
}

// InitiateDeposit records a pending gross transaction. The balance only
// moves on settlement.
func (l *Ledger) InitiateDeposit(ctx context.Context, userID int64, amount decimal.Decimal, methodID string) (*models.Transaction, error) {
	method, err := l.method(methodID)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Value: amount.String(), Reason: "amount must be positive"}
	}
	if amount.LessThan(method.Limits.MinDeposit) {
		return nil, &ValidationError{
			Field:  "amount",
			Value:  amount.String(),
			Reason: fmt.Sprintf("minimum deposit is %s", method.Limits.MinDeposit),
		}
	}
	if amount.GreaterThan(method.Limits.MaxDeposit) {
		return nil, &ValidationError{
			Field:  "amount",
			Value:  amount.String(),
			Reason: fmt.Sprintf("maximum deposit is %s", method.Limits.MaxDeposit),
		}
	}

	wallet, err := l.activeWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	feeAmt := Fee(amount, method.Fees.Deposit)
	t := &models.Transaction{
		UserID:          userID,
		Type:            models.TxDeposit,
		Amount:          amount.Add(feeAmt),
		Currency:        wallet.Currency,
		Status:          models.TxPending,
		Reference:       newReference("DEP"),
		PaymentMethodID: sql.NullString{String: method.ID, Valid: true},
		Metadata: models.TxMetadata{
			Fee:            feeAmt,
			OriginalAmount: amount,
		},
	}

	id, err := l.txs.CreatePending(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("initiate deposit: %w", err)
	}
	t.ID = id
	return t, nil
}

// SettleDeposit is the consumer of the payment gateway's callback outcome.
// Re-settling a non-pending transaction fails with AlreadyProcessedError
// and the wallet is credited exactly once.
func (l *Ledger) SettleDeposit(ctx context.Context, txID int64, externalRef string) (*models.Transaction, error) {
	t, err := l.txs.SettleDeposit(ctx, txID, externalRef)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, &NotFoundError{Kind: "transaction", ID: txID}
		case errors.Is(err, store.ErrNotPending):
			status := ""
			if cur, gerr := l.txs.GetByID(ctx, txID); gerr == nil {
				status = cur.Status
			}
			return nil, &AlreadyProcessedError{TransactionID: txID, Status: status}
		}
		return nil, fmt.Errorf("settle deposit: %w", err)
	}

	l.notify(ctx, t.UserID)
	return t, nil
}

// FailDeposit consumes a gateway callback reporting an unsuccessful
// payment: the pending transaction moves to failed and the balance is
// never credited. Re-failing a non-pending transaction reports
// AlreadyProcessedError the same way settlement does.
func (l *Ledger) FailDeposit(ctx context.Context, txID int64, externalRef string) (*models.Transaction, error) {
	t, err := l.txs.FailDeposit(ctx, txID, externalRef)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, &NotFoundError{Kind: "transaction", ID: txID}
		case errors.Is(err, store.ErrNotPending):
			status := ""
			if cur, gerr := l.txs.GetByID(ctx, txID); gerr == nil {
				status = cur.Status
			}
			return nil, &AlreadyProcessedError{TransactionID: txID, Status: status}
		}
		return nil, fmt.Errorf("fail deposit: %w", err)
	}
	return t, nil
}

// InitiateWithdrawal validates, in order: balance covers the amount, the
// amount sits inside the method bounds, the fee-inclusive total still fits
// the balance, and the rolling daily withdrawal total stays under the
// method's daily limit. On success the request and its linked pending
// transaction are created atomically; the balance is untouched until
// approval.
func (l *Ledger) InitiateWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, methodID string, dest models.Destination) (*models.WithdrawalRequest, error) {
	method, err := l.method(methodID)
	if err != nil {
		return nil, err
	}
	if dest.AccountNo == "" {
		return nil, &ValidationError{Field: "account_no", Value: "", Reason: "destination account is required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Value: amount.String(), Reason: "amount must be positive"}
	}

	wallet, err := l.activeWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	if wallet.Balance.LessThan(amount) {
		return nil, &InsufficientBalanceError{Balance: wallet.Balance, Required: amount}
	}
	if amount.LessThan(method.Limits.MinWithdrawal) {
		return nil, &ValidationError{
			Field:  "amount",
			Value:  amount.String(),
			Reason: fmt.Sprintf("minimum withdrawal is %s", method.Limits.MinWithdrawal),
		}
	}
	if amount.GreaterThan(method.Limits.MaxWithdrawal) {
		return nil, &ValidationError{
			Field:  "amount",
			Value:  amount.String(),
			Reason: fmt.Sprintf("maximum withdrawal is %s", method.Limits.MaxWithdrawal),
		}
	}

	feeAmt := Fee(amount, method.Fees.Withdrawal)
	gross := amount.Add(feeAmt)
	if wallet.Balance.LessThan(gross) {
		return nil, &InsufficientBalanceError{Balance: wallet.Balance, Required: gross}
	}

	daily, err := l.txs.DailyTotal(ctx, userID, models.TxWithdrawal,
		[]string{models.TxCompleted, models.TxProcessing}, startOfDay(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("daily withdrawal total: %w", err)
	}
	if daily.Add(amount).GreaterThan(method.Limits.DailyLimit) {
		return nil, &LimitExceededError{Scope: "daily", Limit: method.Limits.DailyLimit}
	}

	req := &models.WithdrawalRequest{
		UserID:          userID,
		Amount:          amount,
		PaymentMethodID: method.ID,
		Destination:     dest,
		Status:          models.WithdrawalPending,
	}
	t := &models.Transaction{
		UserID:          userID,
		Type:            models.TxWithdrawal,
		Amount:          gross,
		Currency:        wallet.Currency,
		Reference:       newReference("WDR"),
		PaymentMethodID: sql.NullString{String: method.ID, Valid: true},
		Metadata: models.TxMetadata{
			Fee:            feeAmt,
			OriginalAmount: amount,
		},
	}

	created, err := l.withdrawals.Create(ctx, req, t)
	if err != nil {
		return nil, fmt.Errorf("initiate withdrawal: %w", err)
	}
	return created, nil
}

// ResolveWithdrawal settles a pending request. Approval deducts the gross
// amount and moves the transaction to processing in one atomic unit;
// rejection fails the transaction without touching the balance.
func (l *Ledger) ResolveWithdrawal(ctx context.Context, requestID int64, decision Decision, actorID int64, reason string) (*models.Transaction, error) {
	if decision != DecisionApproved && decision != DecisionRejected {
		return nil, &ValidationError{Field: "decision", Value: string(decision), Reason: "must be approved or rejected"}
	}

	t, err := l.withdrawals.Resolve(ctx, requestID, decision == DecisionApproved, actorID, reason)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, &NotFoundError{Kind: "withdrawal_request", ID: requestID}
		case errors.Is(err, store.ErrNotPending):
			return nil, &AlreadyProcessedError{TransactionID: requestID, Status: "resolved"}
		case errors.Is(err, store.ErrInsufficientBalance):
			return nil, &InsufficientBalanceError{}
		}
		return nil, fmt.Errorf("resolve withdrawal: %w", err)
	}

	if decision == DecisionApproved {
		l.notify(ctx, t.UserID)
	}
	return t, nil
}

// CompleteWithdrawal finalizes an approved request once the payout has
// executed.
func (l *Ledger) CompleteWithdrawal(ctx context.Context, requestID int64, externalRef string) error {
	err := l.withdrawals.Complete(ctx, requestID, externalRef)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{Kind: "withdrawal_request", ID: requestID}
	case errors.Is(err, store.ErrNotPending):
		return &AlreadyProcessedError{TransactionID: requestID, Status: "resolved"}
	}
	return err
}

// PlaceBet deducts the stake and records a completed bet transaction as a
// single atomic unit. Bets are synchronous and irreversible.
func (l *Ledger) PlaceBet(ctx context.Context, userID, gameID int64, amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, &ValidationError{Field: "amount", Value: amount.String(), Reason: "amount must be positive"}
	}

	wallet, err := l.activeWallet(ctx, userID)
	if err != nil {
		return 0, err
	}

	limits, err := l.limits.GetByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load betting limits: %w", err)
	}
	now := time.Now()
	if limits.SelfExcluded(now) {
		return 0, &SelfExcludedError{Until: limits.SelfExcludedUntil.Time}
	}
	if limits != nil && limits.Active {
		if limits.MaxBetPerGame.Valid && amount.GreaterThan(limits.MaxBetPerGame.Decimal) {
			return 0, &LimitExceededError{Scope: "per_bet", Limit: limits.MaxBetPerGame.Decimal}
		}
		if limits.DailyBetLimit.Valid {
			daily, err := l.txs.DailyTotal(ctx, userID, models.TxBet,
				[]string{models.TxCompleted}, startOfDay(now))
			if err != nil {
				return 0, fmt.Errorf("daily bet total: %w", err)
			}
			if daily.Add(amount).GreaterThan(limits.DailyBetLimit.Decimal) {
				return 0, &LimitExceededError{Scope: "daily_bet", Limit: limits.DailyBetLimit.Decimal}
			}
		}
	}

	if wallet.Balance.LessThan(amount) {
		return 0, &InsufficientBalanceError{Balance: wallet.Balance, Required: amount}
	}

	t := &models.Transaction{
		UserID:    userID,
		Type:      models.TxBet,
		Amount:    amount,
		Currency:  wallet.Currency,
		Reference: newReference("BET"),
		GameID:    sql.NullInt64{Int64: gameID, Valid: true},
	}
	id, err := l.txs.PlaceBet(ctx, t)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			// a concurrent bet won the race for the remaining balance
			return 0, &InsufficientBalanceError{Required: amount}
		}
		return 0, fmt.Errorf("place bet: %w", err)
	}

	l.notify(ctx, userID)
	return id, nil
}

// ProcessWin credits a payout linked to the originating bet. Wins are not
// limit-checked.
func (l *Ledger) ProcessWin(ctx context.Context, userID, gameID int64, amount decimal.Decimal, betTxID int64) (int64, error) {
	wallet, err := l.wallets.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, &NotFoundError{Kind: "wallet", ID: userID}
		}
		return 0, fmt.Errorf("load wallet: %w", err)
	}

	t := &models.Transaction{
		UserID:    userID,
		Type:      models.TxWin,
		Amount:    amount,
		Currency:  wallet.Currency,
		Reference: newReference("WIN"),
		GameID:    sql.NullInt64{Int64: gameID, Valid: true},
		BetID:     sql.NullInt64{Int64: betTxID, Valid: betTxID != 0},
	}
	id, err := l.txs.CreditWin(ctx, t)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, &NotFoundError{Kind: "wallet", ID: userID}
		}
		return 0, fmt.Errorf("process win: %w", err)
	}

	l.notify(ctx, userID)
	return id, nil
}

// RefundBet returns a collected stake, recording a completed refund
// transaction linked to the originating bet. Used when the seat a bet
// paid for cannot be confirmed.
func (l *Ledger) RefundBet(ctx context.Context, userID, gameID int64, amount decimal.Decimal, betTxID int64) (int64, error) {
	wallet, err := l.wallets.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, &NotFoundError{Kind: "wallet", ID: userID}
		}
		return 0, fmt.Errorf("load wallet: %w", err)
	}

	t := &models.Transaction{
		UserID:    userID,
		Type:      models.TxRefund,
		Amount:    amount,
		Currency:  wallet.Currency,
		Reference: newReference("RFD"),
		GameID:    sql.NullInt64{Int64: gameID, Valid: true},
		BetID:     sql.NullInt64{Int64: betTxID, Valid: betTxID != 0},
	}
	id, err := l.txs.CreditRefund(ctx, t)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, &NotFoundError{Kind: "wallet", ID: userID}
		}
		return 0, fmt.Errorf("refund bet: %w", err)
	}

	l.notify(ctx, userID)
	return id, nil
}

// ListTransactions returns the user's history, newest first.
func (l *Ledger) ListTransactions(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return l.txs.ListByUser(ctx, userID, limit)
}

// GetWithdrawal looks up one request.
func (l *Ledger) GetWithdrawal(ctx context.Context, requestID int64) (*models.WithdrawalRequest, error) {
	req, err := l.withdrawals.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Kind: "withdrawal_request", ID: requestID}
		}
		return nil, err
	}
	return req, nil
}

// PaymentMethod exposes the catalog entry for display and fee preview.
func (l *Ledger) PaymentMethod(id string) (models.PaymentMethod, error) {
	return l.method(id)
}

func (l *Ledger) notify(ctx context.Context, userID int64) {
	wallet, err := l.wallets.GetByUserID(ctx, userID)
	if err != nil {
		log.Errorf("wallet snapshot for user %d: %v", userID, err)
		return
	}
	l.watcher.Publish(wallet)
}

func newReference(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
