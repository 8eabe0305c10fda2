package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zemenbingo/bingo-services/internal/gamesvc/models"
)

// memGame is an in-memory stand-in for the room, player and card
// stores. It honors the same contracts the pgx stores enforce: seats
// only in waiting rooms with capacity, entry confirmation only while
// the room is live, and a room concludes with a winner exactly once.
type memGame struct {
	mu           sync.Mutex
	rooms        map[int64]*models.Room
	players      map[int64]*models.Player
	cards        map[string]*models.CardRecord
	nextRoomID   int64
	nextPlayerID int64
	nextCardID   int64

	confirmEntryErr error // injected ConfirmEntry failure
	loseConclude    bool  // force ConcludeWithWinner to lose the race
}

func newMemGame() *memGame {
	return &memGame{
		rooms:   make(map[int64]*models.Room),
		players: make(map[int64]*models.Player),
		cards:   make(map[string]*models.CardRecord),
	}
}

func (m *memGame) addRoom(status string, entryFee, prizePool decimal.Decimal, history []int64) *models.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRoomID++
	r := &models.Room{
		ID:          m.nextRoomID,
		RoomNo:      m.nextRoomID,
		Name:        fmt.Sprintf("Birr %s Bingo", entryFee),
		EntryFee:    entryFee,
		MaxPlayers:  100,
		PrizePool:   prizePool,
		Status:      status,
		CallHistory: history,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.rooms[r.ID] = r
	return r
}

func (m *memGame) addSeat(roomID, userID int64, cardData string, betTxID int64) *models.Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextPlayerID++
	m.nextCardID++
	cardID := fmt.Sprintf("card-%d", m.nextCardID)
	p := &models.Player{
		ID:      m.nextPlayerID,
		RoomID:  roomID,
		UserID:  userID,
		CardID:  cardID,
		BetTxID: sql.NullInt64{Int64: betTxID, Valid: betTxID != 0},
		Status:  models.PlayerPending,
	}
	m.players[p.ID] = p
	m.cards[cardID] = &models.CardRecord{
		ID:     m.nextCardID,
		CardID: cardID,
		RoomID: roomID,
		UserID: userID,
		Data:   cardData,
	}
	return p
}

func copyRoom(r *models.Room) *models.Room {
	c := *r
	c.CallHistory = append([]int64(nil), r.CallHistory...)
	return &c
}

func copyPlayer(p *models.Player) *models.Player {
	c := *p
	return &c
}

// RoomStore

func (m *memGame) GetByID(_ context.Context, roomID int64) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return copyRoom(r), nil
}

func (m *memGame) GetOpenByEntryFee(_ context.Context, fee decimal.Decimal) (*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		if r.Status == models.RoomWaiting && r.EntryFee.Equal(fee) {
			return copyRoom(r), nil
		}
	}
	return nil, nil
}

func (m *memGame) RecordCall(_ context.Context, roomID int64, number int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok || r.Status != models.RoomPlaying {
		return fmt.Errorf("room %d is not playing", roomID)
	}
	r.CurrentCall = sql.NullInt64{Int64: int64(number), Valid: true}
	r.CallHistory = append(r.CallHistory, int64(number))
	return nil
}

func (m *memGame) StartDue(_ context.Context, _, minPlayers int) ([]*models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var started []*models.Room
	for _, r := range m.rooms {
		if r.Status != models.RoomWaiting {
			continue
		}
		seats := 0
		for _, p := range m.players {
			if p.RoomID == r.ID {
				seats++
			}
		}
		if seats >= minPlayers {
			r.Status = models.RoomPlaying
			started = append(started, copyRoom(r))
		}
	}
	return started, nil
}

func (m *memGame) ConcludeWithWinner(_ context.Context, roomID, winnerID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loseConclude {
		return false, nil
	}
	r, ok := m.rooms[roomID]
	if !ok || r.Status != models.RoomPlaying {
		return false, nil
	}
	r.Status = models.RoomEnded
	r.WinnerID = sql.NullInt64{Int64: winnerID, Valid: true}
	return true, nil
}

func (m *memGame) ExpireIfUnended(_ context.Context, roomID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil
	}
	if r.Status != models.RoomEnded && r.Status != models.RoomCancelled {
		r.Status = models.RoomCancelled
	}
	return nil
}

// PlayerStore

func (m *memGame) GetPlayersByRoomID(_ context.Context, roomID int64) ([]*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.Player
	for _, p := range m.players {
		if p.RoomID == roomID {
			list = append(list, copyPlayer(p))
		}
	}
	return list, nil
}

func (m *memGame) GetActiveRoomPlayer(_ context.Context, userID int64) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.UserID != userID || p.Status != models.PlayerPending {
			continue
		}
		r := m.rooms[p.RoomID]
		if r != nil && (r.Status == models.RoomWaiting || r.Status == models.RoomPlaying) {
			return copyPlayer(p), nil
		}
	}
	return nil, nil
}

func (m *memGame) GetByRoomAndUser(_ context.Context, roomID, userID int64) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.RoomID == roomID && p.UserID == userID {
			return copyPlayer(p), nil
		}
	}
	return nil, nil
}

func (m *memGame) CreateWithCard(_ context.Context, roomID, userID int64, cardID, cardData string) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok || r.Status != models.RoomWaiting {
		return nil, fmt.Errorf("cannot join room %d: not open for entry or full", roomID)
	}
	for _, p := range m.players {
		if p.RoomID == roomID && p.UserID == userID {
			return nil, fmt.Errorf("user %d has already joined room %d", userID, roomID)
		}
	}
	m.nextPlayerID++
	p := &models.Player{
		ID:        m.nextPlayerID,
		RoomID:    roomID,
		UserID:    userID,
		CardID:    cardID,
		Status:    models.PlayerPending,
		CreatedAt: time.Now(),
	}
	m.players[p.ID] = p
	m.nextCardID++
	m.cards[cardID] = &models.CardRecord{
		ID:     m.nextCardID,
		CardID: cardID,
		RoomID: roomID,
		UserID: userID,
		Data:   cardData,
	}
	return copyPlayer(p), nil
}

func (m *memGame) ConfirmEntry(_ context.Context, playerID, roomID, betTxID int64, fee decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.confirmEntryErr != nil {
		return m.confirmEntryErr
	}
	p, ok := m.players[playerID]
	if !ok {
		return fmt.Errorf("player %d not found", playerID)
	}
	r, ok := m.rooms[roomID]
	if !ok || (r.Status != models.RoomWaiting && r.Status != models.RoomPlaying) {
		return fmt.Errorf("room %d is no longer live", roomID)
	}
	p.BetTxID = sql.NullInt64{Int64: betTxID, Valid: true}
	r.PrizePool = r.PrizePool.Add(fee)
	return nil
}

func (m *memGame) Remove(_ context.Context, roomID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.players {
		if p.RoomID == roomID && p.UserID == userID {
			delete(m.cards, p.CardID)
			delete(m.players, id)
		}
	}
	return nil
}

func (m *memGame) MarkResults(_ context.Context, roomID, winnerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.RoomID != roomID {
			continue
		}
		if p.UserID == winnerID {
			p.Status = models.PlayerWin
		} else if p.Status == models.PlayerPending {
			p.Status = models.PlayerLoose
		}
	}
	return nil
}

// CardStore

func (m *memGame) GetByCardID(_ context.Context, cardID string) (*models.CardRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[cardID]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

// memLedger records the wallet calls the room service makes and lets a
// test fail the stake collection.

type ledgerCall struct {
	userID  int64
	gameID  int64
	amount  decimal.Decimal
	betTxID int64
}

type memLedger struct {
	mu          sync.Mutex
	nextTxID    int64
	placeBetErr error
	bets        []ledgerCall
	refunds     []ledgerCall
	wins        []ledgerCall
}

func (m *memLedger) PlaceBet(_ context.Context, userID, gameID int64, amount decimal.Decimal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.placeBetErr != nil {
		return 0, m.placeBetErr
	}
	m.nextTxID++
	m.bets = append(m.bets, ledgerCall{userID: userID, gameID: gameID, amount: amount, betTxID: m.nextTxID})
	return m.nextTxID, nil
}

func (m *memLedger) ProcessWin(_ context.Context, userID, gameID int64, amount decimal.Decimal, betTxID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTxID++
	m.wins = append(m.wins, ledgerCall{userID: userID, gameID: gameID, amount: amount, betTxID: betTxID})
	return m.nextTxID, nil
}

func (m *memLedger) RefundBet(_ context.Context, userID, gameID int64, amount decimal.Decimal, betTxID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTxID++
	m.refunds = append(m.refunds, ledgerCall{userID: userID, gameID: gameID, amount: amount, betTxID: betTxID})
	return m.nextTxID, nil
}
