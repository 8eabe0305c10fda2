package comm

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/zemenbingo/bingo-services/internal/gamesvc/models"
)

// WSMessage is the envelope every service publishes on the bus. Type
// selects the handler, Data carries the payload, SocketId routes replies
// back to the originating client connection.
type WSMessage struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

type PlayerData struct {
	Name    string `json:"name"`
	UserId  int64  `json:"user_id"`
	Balance string `json:"balance"`
}

// GameStarted is published by the lifecycle controller when a waiting
// room is promoted; the caller service starts its autocaller on it.
type GameStarted struct {
	RoomID   int64           `json:"room_id"`
	EntryFee decimal.Decimal `json:"entry_fee"`
}

// CallMessage announces one drawn number together with the full history
// so late joiners can catch up.
type CallMessage struct {
	RoomID  int64 `json:"room_id"`
	Number  int   `json:"number"`
	History []int `json:"history"`
}

type GameEnded struct {
	RoomID int64 `json:"room_id"`
}

type JoinRequest struct {
	RoomID int64 `json:"room_id"`
	UserID int64 `json:"user_id"`
}

type JoinResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	RoomID   int64  `json:"room_id"`
	CardID   string `json:"card_id,omitempty"`
	CardData string `json:"card_data,omitempty"`
}

type GameCard struct {
	CardID string `json:"card_id"`
	Data   string `json:"data"`
}

type RoomData struct {
	Room    *models.Room     `json:"room"`
	Players []*models.Player `json:"players"`
	Card    *GameCard        `json:"card,omitempty"`
}

type ClaimMessage struct {
	RoomID int64 `json:"room_id"`
	UserID int64 `json:"user_id"`
	Marks  []int `json:"marks"`
}

type WinData struct {
	RoomID   int64  `json:"room_id"`
	PlayerId int64  `json:"player_id"`
	Prize    string `json:"prize"`
}

type DepositRequest struct {
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
}

type DepositResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	TransactionID int64  `json:"transaction_id,omitempty"`
	Fee           string `json:"fee,omitempty"`
	Total         string `json:"total,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// SettlementNotice reports a payment gateway callback outcome for a
// pending deposit, forwarded by the gateway-facing edge.
type SettlementNotice struct {
	TransactionID int64  `json:"transaction_id"`
	Reference     string `json:"reference"`
	Success       bool   `json:"success"`
}

type WithdrawalRequestMsg struct {
	UserID        int64           `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	AccountType   string          `json:"account_type"`
	AccountNo     string          `json:"account_no"`
	Name          string          `json:"name"`
}

type WithdrawalResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	WithdrawalID int64  `json:"withdrawal_id,omitempty"`
	Amount       string `json:"amount,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

type WithdrawalDecision struct {
	RequestID int64  `json:"request_id"`
	Decision  string `json:"decision"`
	ActorID   int64  `json:"actor_id"`
	Reason    string `json:"reason,omitempty"`
}

type BalanceStatus struct {
	Status    bool  `json:"status"`
	Timestamp int64 `json:"timestamp"`
}
