package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zemenbingo/bingo-services/internal/walletsvc/models"
	"github.com/zemenbingo/bingo-services/internal/walletsvc/store"
)

// memStore is an in-memory stand-in for the pgx stores. It honors the
// same atomic contracts: composite operations mutate under one lock and
// conditional deductions never drive a balance negative.
type memStore struct {
	mu          sync.Mutex
	wallets     map[int64]*models.Wallet
	txs         map[int64]*models.Transaction
	withdrawals map[int64]*models.WithdrawalRequest
	limits      map[int64]*models.BettingLimits
	nextTxID    int64
	nextWdID    int64
	nextWalID   int64
}

func newMemStore() *memStore {
	return &memStore{
		wallets:     make(map[int64]*models.Wallet),
		txs:         make(map[int64]*models.Transaction),
		withdrawals: make(map[int64]*models.WithdrawalRequest),
		limits:      make(map[int64]*models.BettingLimits),
	}
}

func (m *memStore) setBalance(userID int64, balance decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wallets[userID]; ok {
		w.Balance = balance
		return
	}
	m.nextWalID++
	m.wallets[userID] = &models.Wallet{
		ID:       m.nextWalID,
		UserID:   userID,
		Balance:  balance,
		Currency: models.DefaultCurrency,
		Status:   models.WalletActive,
	}
}

func copyWallet(w *models.Wallet) *models.Wallet {
	c := *w
	return &c
}

func copyTx(t *models.Transaction) *models.Transaction {
	c := *t
	return &c
}

// WalletStore

func (m *memStore) GetOrCreate(_ context.Context, userID int64, currency string) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wallets[userID]; ok {
		return copyWallet(w), nil
	}
	m.nextWalID++
	w := &models.Wallet{
		ID:        m.nextWalID,
		UserID:    userID,
		Balance:   decimal.Zero,
		Currency:  currency,
		Status:    models.WalletActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.wallets[userID] = w
	return copyWallet(w), nil
}

func (m *memStore) GetByUserID(_ context.Context, userID int64) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyWallet(w), nil
}

// TransactionStore

func (m *memStore) CreatePending(_ context.Context, t *models.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTxID++
	stored := copyTx(t)
	stored.ID = m.nextTxID
	stored.Status = models.TxPending
	stored.CreatedAt = time.Now()
	m.txs[stored.ID] = stored
	return stored.ID, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyTx(t), nil
}

func (m *memStore) SettleDeposit(_ context.Context, txID int64, externalRef string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[txID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if t.Status != models.TxPending {
		return nil, store.ErrNotPending
	}
	w, ok := m.wallets[t.UserID]
	if !ok {
		return nil, store.ErrNotFound
	}
	t.Status = models.TxCompleted
	t.Metadata.ExternalRef = externalRef
	t.CompletedAt.Time = time.Now()
	t.CompletedAt.Valid = true
	w.Balance = w.Balance.Add(t.Metadata.OriginalAmount)
	return copyTx(t), nil
}

func (m *memStore) FailDeposit(_ context.Context, txID int64, externalRef string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[txID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if t.Status != models.TxPending {
		return nil, store.ErrNotPending
	}
	t.Status = models.TxFailed
	t.Metadata.ExternalRef = externalRef
	t.CompletedAt.Time = time.Now()
	t.CompletedAt.Valid = true
	return copyTx(t), nil
}

func (m *memStore) PlaceBet(_ context.Context, t *models.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[t.UserID]
	if !ok || w.Balance.LessThan(t.Amount) {
		return 0, store.ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(t.Amount)

	m.nextTxID++
	stored := copyTx(t)
	stored.ID = m.nextTxID
	stored.Status = models.TxCompleted
	stored.CreatedAt = time.Now()
	stored.CompletedAt.Time = time.Now()
	stored.CompletedAt.Valid = true
	stored.Metadata.OriginalAmount = t.Amount
	m.txs[stored.ID] = stored
	return stored.ID, nil
}

func (m *memStore) CreditWin(_ context.Context, t *models.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[t.UserID]
	if !ok {
		return 0, store.ErrNotFound
	}
	w.Balance = w.Balance.Add(t.Amount)

	m.nextTxID++
	stored := copyTx(t)
	stored.ID = m.nextTxID
	stored.Status = models.TxCompleted
	stored.CreatedAt = time.Now()
	stored.CompletedAt.Time = time.Now()
	stored.CompletedAt.Valid = true
	stored.Metadata.OriginalAmount = t.Amount
	m.txs[stored.ID] = stored
	return stored.ID, nil
}

func (m *memStore) CreditRefund(_ context.Context, t *models.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[t.UserID]
	if !ok {
		return 0, store.ErrNotFound
	}
	w.Balance = w.Balance.Add(t.Amount)

	m.nextTxID++
	stored := copyTx(t)
	stored.ID = m.nextTxID
	stored.Status = models.TxCompleted
	stored.CreatedAt = time.Now()
	stored.CompletedAt.Time = time.Now()
	stored.CompletedAt.Valid = true
	stored.Metadata.OriginalAmount = t.Amount
	m.txs[stored.ID] = stored
	return stored.ID, nil
}

func (m *memStore) DailyTotal(_ context.Context, userID int64, txType string, statuses []string, since time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, t := range m.txs {
		if t.UserID != userID || t.Type != txType || t.CreatedAt.Before(since) {
			continue
		}
		for _, s := range statuses {
			if t.Status == s {
				total = total.Add(t.Metadata.OriginalAmount)
				break
			}
		}
	}
	return total, nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Transaction
	for id := m.nextTxID; id > 0 && len(list) < limit; id-- {
		if t, ok := m.txs[id]; ok && t.UserID == userID {
			list = append(list, copyTx(t))
		}
	}
	return list, nil
}

// WithdrawalStore

func (m *memStore) Create(_ context.Context, req *models.WithdrawalRequest, t *models.Transaction) (*models.WithdrawalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextTxID++
	storedTx := copyTx(t)
	storedTx.ID = m.nextTxID
	storedTx.Status = models.TxPending
	storedTx.CreatedAt = time.Now()
	m.txs[storedTx.ID] = storedTx

	m.nextWdID++
	stored := *req
	stored.ID = m.nextWdID
	stored.TransactionID = storedTx.ID
	stored.Status = models.WithdrawalPending
	stored.CreatedAt = time.Now()
	m.withdrawals[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (m *memStore) GetWithdrawalByID(_ context.Context, id int64) (*models.WithdrawalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.withdrawals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (m *memStore) Resolve(_ context.Context, requestID int64, approved bool, actorID int64, reason string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.withdrawals[requestID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if r.Status != models.WithdrawalPending {
		return nil, store.ErrNotPending
	}
	t, ok := m.txs[r.TransactionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if t.Status != models.TxPending {
		return nil, store.ErrNotPending
	}

	if approved {
		w, ok := m.wallets[t.UserID]
		if !ok || w.Balance.LessThan(t.Amount) {
			return nil, store.ErrInsufficientBalance
		}
		w.Balance = w.Balance.Sub(t.Amount)
		t.Status = models.TxProcessing
		r.Status = models.WithdrawalApproved
	} else {
		t.Status = models.TxFailed
		r.Status = models.WithdrawalRejected
	}
	r.ResolvedBy.Int64 = actorID
	r.ResolvedBy.Valid = true
	if reason != "" {
		r.Reason.String = reason
		r.Reason.Valid = true
	}
	r.ResolvedAt.Time = time.Now()
	r.ResolvedAt.Valid = true
	return copyTx(t), nil
}

func (m *memStore) Complete(_ context.Context, requestID int64, externalRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.withdrawals[requestID]
	if !ok {
		return store.ErrNotFound
	}
	if r.Status != models.WithdrawalApproved {
		return store.ErrNotPending
	}
	t := m.txs[r.TransactionID]
	t.Status = models.TxCompleted
	t.Metadata.ExternalRef = externalRef
	t.CompletedAt.Time = time.Now()
	t.CompletedAt.Valid = true
	r.Status = models.WithdrawalCompleted
	return nil
}

// LimitsStore

func (m *memStore) GetLimitsByUserID(_ context.Context, userID int64) (*models.BettingLimits, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.limits[userID]
	if !ok {
		return nil, nil
	}
	out := *b
	return &out, nil
}

// memWithdrawals and memLimits re-expose memStore methods under the names
// the ledger interfaces expect where signatures would otherwise collide.

type memWithdrawals struct{ *memStore }

func (m memWithdrawals) GetByID(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	return m.memStore.GetWithdrawalByID(ctx, id)
}

type memLimits struct{ *memStore }

func (m memLimits) GetByUserID(ctx context.Context, userID int64) (*models.BettingLimits, error) {
	return m.memStore.GetLimitsByUserID(ctx, userID)
}

func newTestLedger(m *memStore) *Ledger {
	return NewLedger(m, m, memWithdrawals{m}, memLimits{m})
}
