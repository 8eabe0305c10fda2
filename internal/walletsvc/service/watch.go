package service

import (
	"sync"

	"github.com/zemenbingo/bingo-services/internal/walletsvc/models"
)

// Watcher fans out wallet snapshots to subscribers. Every subscriber gets
// the current snapshot immediately on subscribe, then one snapshot per
// committed mutation. Cancel is synchronous: after it returns the channel
// is closed and nothing more is delivered.
type Watcher struct {
	mu     sync.Mutex
	nextID int
	subs   map[int64]map[int]chan *models.Wallet
}

func NewWatcher() *Watcher {
	return &Watcher{subs: make(map[int64]map[int]chan *models.Wallet)}
}

// Subscribe registers interest in one user's wallet. The returned cancel
// func is idempotent.
func (w *Watcher) Subscribe(userID int64, current *models.Wallet) (<-chan *models.Wallet, func()) {
	ch := make(chan *models.Wallet, 16)
	ch <- current

	w.mu.Lock()
	id := w.nextID
	w.nextID++
	if w.subs[userID] == nil {
		w.subs[userID] = make(map[int]chan *models.Wallet)
	}
	w.subs[userID][id] = ch
	w.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subs[userID], id)
			if len(w.subs[userID]) == 0 {
				delete(w.subs, userID)
			}
			w.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber of the wallet's user.
// A slow subscriber loses its oldest snapshot rather than blocking the
// ledger.
func (w *Watcher) Publish(wallet *models.Wallet) {
	if wallet == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs[wallet.UserID] {
		for {
			select {
			case ch <- wallet:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}
