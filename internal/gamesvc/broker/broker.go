package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/zemenbingo/bingo-services/internal/comm"
	"github.com/zemenbingo/bingo-services/internal/gamesvc/models"
	"github.com/zemenbingo/bingo-services/internal/gamesvc/service"
	walletsvc "github.com/zemenbingo/bingo-services/internal/walletsvc/service"
)

type Broker struct {
	Conn        *nats.Conn
	UserService *service.UserService
	RoomService *service.RoomService
	CardService *service.CardService
	Ledger      *walletsvc.Ledger
}

func NewBroker(nc *nats.Conn, userService *service.UserService,
	roomService *service.RoomService, cardService *service.CardService,
	ledger *walletsvc.Ledger) *Broker {
	return &Broker{
		Conn:        nc,
		UserService: userService,
		RoomService: roomService,
		CardService: cardService,
		Ledger:      ledger,
	}
}

// handles message coming from socket
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	//unmarshal nats message
	msg := &comm.WSMessage{}
	err := json.Unmarshal(msgNat.Data, &msg)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	switch msg.Type {
	case "init":
		// unmarshal socket message
		userInfo := models.User{}
		err := json.Unmarshal(msg.Data, &userInfo)
		if err != nil {
			log.Errorf("Error %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		user, err := b.UserService.GetOrCreateUser(ctx, userInfo)
		if err != nil {
			log.Errorf("Error [UserService.GetOrCreateUser] %s", err)
			return
		}

		wallet, err := b.Ledger.GetOrCreateWallet(ctx, user.UserId)
		if err != nil {
			log.Errorf("Error [Ledger.GetOrCreateWallet] %s", err)
			return
		}

		playerData := comm.PlayerData{
			Name:    user.Name,
			Balance: wallet.Balance.StringFixed(2),
			UserId:  user.UserId,
		}

		b.PublishInitResponse(playerData, msg.SocketId)
	case "get-balance":
		var request struct {
			UserID int64 `json:"userId"`
		}
		err := json.Unmarshal(msg.Data, &request)
		if err != nil {
			log.Errorf("Error %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		wallet, err := b.Ledger.GetOrCreateWallet(ctx, request.UserID)
		if err != nil {
			log.Errorf("Error getBalance %s", err)
			return
		}

		playerData := comm.PlayerData{
			Balance: wallet.Balance.StringFixed(2),
		}

		b.PublishBalance(playerData, msg.SocketId)
	case "check-active-room":
		var request struct {
			UserId int64 `json:"user_id"`
		}

		err := json.Unmarshal(msg.Data, &request)
		if err != nil {
			log.Errorf("Error decoding request: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		seat, err := b.RoomService.GetActiveRoomForUser(ctx, request.UserId)
		if err != nil {
			log.Errorf("Error checking active room for user %d: %s", request.UserId, err)
			return
		}
		if seat == nil {
			return
		}

		room, err := b.RoomService.GetRoomByID(ctx, seat.RoomID)
		if err != nil {
			log.Errorf("Error retrieving room: %s", err)
			return
		}

		players, err := b.RoomService.GetRoomPlayers(ctx, seat.RoomID)
		if err != nil {
			log.Errorf("Error retrieving players: %s", err)
			return
		}

		record, err := b.CardService.GetCardByID(ctx, seat.CardID)
		if err != nil || record == nil {
			log.Errorf("Error retrieving card %s: %v", seat.CardID, err)
			return
		}

		roomData := comm.RoomData{
			Room:    room,
			Players: players,
			Card: &comm.GameCard{
				CardID: record.CardID,
				Data:   record.Data,
			},
		}

		b.PublishActiveRoomResponse(roomData, msg.SocketId)
	case "join-room":
		var request comm.JoinRequest
		err := json.Unmarshal(msg.Data, &request)
		if err != nil {
			log.Errorf("Error unmarshalling join-room: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		player, record, err := b.RoomService.JoinRoom(ctx, request.RoomID, request.UserID)
		if err != nil {
			var insufficient *walletsvc.InsufficientBalanceError
			if errors.As(err, &insufficient) {
				resp := comm.BalanceStatus{
					Status:    false,
					Timestamp: time.Now().UnixMilli(),
				}
				b.PublishInsufficientBalance(resp, msg.SocketId)
				return
			}
			log.Errorf("Error [RoomService.JoinRoom]: %s", err)
			b.PublishJoinResponse(comm.JoinResponse{
				Status:  "error",
				Message: err.Error(),
				RoomID:  request.RoomID,
			}, msg.SocketId)
			return
		}

		b.PublishJoinResponse(comm.JoinResponse{
			Status:   "ok",
			RoomID:   player.RoomID,
			CardID:   record.CardID,
			CardData: record.Data,
		}, msg.SocketId)

		// broadcast the refreshed roster to everyone in the lobby
		room, err := b.RoomService.GetRoomByID(ctx, request.RoomID)
		if err != nil {
			log.Errorf("Error [RoomService.GetRoomByID]: %s", err)
			return
		}
		players, err := b.RoomService.GetRoomPlayers(ctx, request.RoomID)
		if err != nil {
			log.Errorf("Error [RoomService.GetRoomPlayers]: %s", err)
			return
		}
		b.PublishRoomRosterToAll(comm.RoomData{Room: room, Players: players}, msg.SocketId)
	case "claim-bingo":
		var request comm.ClaimMessage
		err := json.Unmarshal(msg.Data, &request)
		if err != nil {
			log.Errorf("Error unmarshalling claim-bingo: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		room, prize, err := b.RoomService.SettleClaim(ctx, request.RoomID, request.UserID, request.Marks)
		if err != nil {
			log.Infof("claim rejected for user %d in room %d: %s", request.UserID, request.RoomID, err)
			return
		}

		win := comm.WinData{
			RoomID:   room.ID,
			PlayerId: request.UserID,
			Prize:    prize.StringFixed(2),
		}
		b.PublishWinner(win)
		b.PublishGameEnded(comm.GameEnded{RoomID: room.ID})
	default:
		log.Error("Unknown message")
		return
	}
}

func (b *Broker) publishWS(msgType string, v interface{}, socketId string) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("[%s] unable to marshal payload: %s", msgType, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: socketId,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	topic := "game.service"
	b.Publish(topic, payload)
}

func (b *Broker) PublishBalance(p comm.PlayerData, socketId string) {
	b.publishWS("balance-resp", p, socketId)
}

func (b *Broker) PublishInitResponse(p comm.PlayerData, socketId string) {
	b.publishWS("init-response", p, socketId)
}

func (b *Broker) PublishInsufficientBalance(p comm.BalanceStatus, socketId string) {
	b.publishWS("insufficient-balance-response", p, socketId)
}

func (b *Broker) PublishJoinResponse(p comm.JoinResponse, socketId string) {
	b.publishWS("join-room-response", p, socketId)
}

func (b *Broker) PublishActiveRoomResponse(p comm.RoomData, socketId string) {
	b.publishWS("check-active-room-response", p, socketId)
}

func (b *Broker) PublishRoomRosterToAll(p comm.RoomData, socketId string) {
	b.publishWS("room-roster-broadcast", p, socketId)
}

func (b *Broker) PublishWinner(p comm.WinData) {
	b.publishWS("bingo-winner", p, "")
}

func (b *Broker) PublishGameEnded(p comm.GameEnded) {
	b.publishWS("game-ended", p, "")
}

// consume message from socket service
func (b *Broker) SubscribSocketService(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessage)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
