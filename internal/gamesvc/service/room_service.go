package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/zemenbingo/bingo-services/internal/bingo"
	"github.com/zemenbingo/bingo-services/internal/gamesvc/models"
	walletsvc "github.com/zemenbingo/bingo-services/internal/walletsvc/service"
)

// Ledger is the slice of the wallet service the game side needs: stake
// collection on join, prize payout on a settled claim, and the refund
// that undoes a stake whose seat could not be confirmed.
type Ledger interface {
	PlaceBet(ctx context.Context, userID, gameID int64, amount decimal.Decimal) (int64, error)
	ProcessWin(ctx context.Context, userID, gameID int64, amount decimal.Decimal, betTxID int64) (int64, error)
	RefundBet(ctx context.Context, userID, gameID int64, amount decimal.Decimal, betTxID int64) (int64, error)
}

// RoomStore, PlayerStore and CardStore name the store operations the
// service drives.
type RoomStore interface {
	GetByID(ctx context.Context, roomID int64) (*models.Room, error)
	GetOpenByEntryFee(ctx context.Context, fee decimal.Decimal) (*models.Room, error)
	RecordCall(ctx context.Context, roomID int64, number int) error
	StartDue(ctx context.Context, graceSeconds, minPlayers int) ([]*models.Room, error)
	ConcludeWithWinner(ctx context.Context, roomID, winnerID int64) (bool, error)
	ExpireIfUnended(ctx context.Context, roomID int64) error
}

type PlayerStore interface {
	GetPlayersByRoomID(ctx context.Context, roomID int64) ([]*models.Player, error)
	GetActiveRoomPlayer(ctx context.Context, userID int64) (*models.Player, error)
	GetByRoomAndUser(ctx context.Context, roomID, userID int64) (*models.Player, error)
	CreateWithCard(ctx context.Context, roomID, userID int64, cardID, cardData string) (*models.Player, error)
	ConfirmEntry(ctx context.Context, playerID, roomID, betTxID int64, fee decimal.Decimal) error
	Remove(ctx context.Context, roomID, userID int64) error
	MarkResults(ctx context.Context, roomID, winnerID int64) error
}

type CardStore interface {
	GetByCardID(ctx context.Context, cardID string) (*models.CardRecord, error)
}

type RoomService struct {
	rooms   RoomStore
	players PlayerStore
	cards   CardStore
	ledger  Ledger
}

func NewRoomService(rooms RoomStore, players PlayerStore, cards CardStore, ledger Ledger) *RoomService {
	return &RoomService{
		rooms:   rooms,
		players: players,
		cards:   cards,
		ledger:  ledger,
	}
}

func (s *RoomService) GetRoomByID(ctx context.Context, roomID int64) (*models.Room, error) {
	return s.rooms.GetByID(ctx, roomID)
}

func (s *RoomService) GetOpenRoomByEntryFee(ctx context.Context, fee decimal.Decimal) (*models.Room, error) {
	return s.rooms.GetOpenByEntryFee(ctx, fee)
}

func (s *RoomService) GetRoomPlayers(ctx context.Context, roomID int64) ([]*models.Player, error) {
	return s.players.GetPlayersByRoomID(ctx, roomID)
}

func (s *RoomService) GetActiveRoomForUser(ctx context.Context, userID int64) (*models.Player, error) {
	return s.players.GetActiveRoomPlayer(ctx, userID)
}

// JoinRoom seats a user in a waiting room: a fresh card is generated
// and stored with the seat, then the entry fee is collected through the
// ledger and added to the prize pool. A seat whose bet fails is
// released again, and a collected stake whose seat cannot be confirmed
// is refunded, so the join either fully holds or leaves no trace.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID int64) (*models.Player, *models.CardRecord, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if room == nil {
		return nil, nil, fmt.Errorf("room %d not found", roomID)
	}
	if room.Status != models.RoomWaiting {
		return nil, nil, fmt.Errorf("room %d is not open for entry", roomID)
	}

	card := bingo.Generate(userID)
	player, err := s.players.CreateWithCard(ctx, roomID, userID, card.ID, card.Serialize())
	if err != nil {
		return nil, nil, err
	}

	if room.EntryFee.IsPositive() {
		betTxID, err := s.ledger.PlaceBet(ctx, userID, roomID, room.EntryFee)
		if err != nil {
			// release the seat, the stake was never collected
			if rmErr := s.players.Remove(ctx, roomID, userID); rmErr != nil {
				log.Errorf("failed to release seat for user %d in room %d: %s", userID, roomID, rmErr)
			}
			return nil, nil, err
		}
		if err := s.players.ConfirmEntry(ctx, player.ID, roomID, betTxID, room.EntryFee); err != nil {
			// stake collected but the seat could not be confirmed:
			// give the money back and release the seat
			if _, rfErr := s.ledger.RefundBet(ctx, userID, roomID, room.EntryFee, betTxID); rfErr != nil {
				log.Errorf("failed to refund bet %d for user %d: %s", betTxID, userID, rfErr)
			}
			if rmErr := s.players.Remove(ctx, roomID, userID); rmErr != nil {
				log.Errorf("failed to release seat for user %d in room %d: %s", userID, roomID, rmErr)
			}
			return nil, nil, fmt.Errorf("failed to confirm entry for user %d in room %d: %w", userID, roomID, err)
		}
	}

	record, err := s.cards.GetByCardID(ctx, card.ID)
	if err != nil {
		return nil, nil, err
	}
	return player, record, nil
}

// RecordCall persists one drawn number for a playing room.
func (s *RoomService) RecordCall(ctx context.Context, roomID int64, number int) error {
	return s.rooms.RecordCall(ctx, roomID, number)
}

// StartDueRooms promotes waiting rooms past the grace period with enough
// players and returns the rooms that went live.
func (s *RoomService) StartDueRooms(ctx context.Context, graceSeconds, minPlayers int) ([]*models.Room, error) {
	return s.rooms.StartDue(ctx, graceSeconds, minPlayers)
}

// SettleClaim verifies a bingo claim against the player's stored card
// and the room's call history. The first valid claim ends the room,
// every later one is rejected, so exactly one winner is paid.
func (s *RoomService) SettleClaim(ctx context.Context, roomID, userID int64, marks []int) (*models.Room, decimal.Decimal, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if room == nil {
		return nil, decimal.Zero, fmt.Errorf("room %d not found", roomID)
	}
	if room.Status != models.RoomPlaying {
		return nil, decimal.Zero, fmt.Errorf("room %d is not playing", roomID)
	}

	player, err := s.players.GetByRoomAndUser(ctx, roomID, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if player == nil {
		return nil, decimal.Zero, fmt.Errorf("user %d holds no seat in room %d", userID, roomID)
	}

	card, err := s.cards.GetByCardID(ctx, player.CardID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if card == nil {
		return nil, decimal.Zero, fmt.Errorf("card %s not found", player.CardID)
	}

	numbers, err := bingo.ParseNumbers(card.Data)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("corrupt card %s: %w", player.CardID, err)
	}

	history := make([]int, len(room.CallHistory))
	for i, n := range room.CallHistory {
		history[i] = int(n)
	}

	if !bingo.ValidateClaim(numbers, history, marks) {
		return nil, decimal.Zero, fmt.Errorf("claim by user %d in room %d does not hold", userID, roomID)
	}

	won, err := s.rooms.ConcludeWithWinner(ctx, roomID, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if !won {
		// another claim concluded the room first
		return nil, decimal.Zero, &walletsvc.ConcurrencyConflictError{Op: fmt.Sprintf("settle claim for room %d", roomID)}
	}

	prize := room.PrizePool
	if prize.IsPositive() {
		var betTxID int64
		if player.BetTxID.Valid {
			betTxID = player.BetTxID.Int64
		}
		if _, err := s.ledger.ProcessWin(ctx, userID, roomID, prize, betTxID); err != nil {
			// room is concluded, payout must be retried by ops
			log.Errorf("prize payout failed for user %d in room %d: %s", userID, roomID, err)
			return nil, decimal.Zero, err
		}
	}

	if err := s.players.MarkResults(ctx, roomID, userID); err != nil {
		log.Errorf("failed to mark results for room %d: %s", roomID, err)
	}

	room.Status = models.RoomEnded
	return room, prize, nil
}

// ExpireRoomIfUnended cancels a room whose draw pool ran dry without a
// winning claim.
func (s *RoomService) ExpireRoomIfUnended(ctx context.Context, roomID int64) error {
	return s.rooms.ExpireIfUnended(ctx, roomID)
}
