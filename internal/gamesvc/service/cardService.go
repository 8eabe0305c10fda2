package service

import (
	"context"

	"github.com/zemenbingo/bingo-services/internal/gamesvc/models"
	"github.com/zemenbingo/bingo-services/internal/gamesvc/store"
)

type CardService struct {
	store *store.CardStore
}

func NewCardService(store *store.CardStore) *CardService {
	return &CardService{store: store}
}

func (s *CardService) GetCardByID(ctx context.Context, cardID string) (*models.CardRecord, error) {
	return s.store.GetByCardID(ctx, cardID)
}

func (s *CardService) GetCardForSeat(ctx context.Context, roomID, userID int64) (*models.CardRecord, error) {
	return s.store.GetByRoomAndUser(ctx, roomID, userID)
}
