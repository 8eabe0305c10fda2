package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	config "github.com/zemenbingo/bingo-services/configs"
	"github.com/zemenbingo/bingo-services/internal/comm"
	"github.com/zemenbingo/bingo-services/internal/db"
	natscli "github.com/zemenbingo/bingo-services/internal/nats"
	"github.com/zemenbingo/bingo-services/internal/walletsvc/models"
	walletsvc "github.com/zemenbingo/bingo-services/internal/walletsvc/service"
	"github.com/zemenbingo/bingo-services/internal/walletsvc/store"
)

const SERVICE_NAME = "wallet"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

// TelegramNotifier handles sending notifications to multiple ops chats
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
}

func NewTelegramNotifier(botToken string, chatIDs []int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &TelegramNotifier{
		bot:     bot,
		chatIDs: chatIDs,
	}, nil
}

// SendNotification sends a message to all configured chat IDs
func (tn *TelegramNotifier) SendNotification(message string) {
	if tn == nil || tn.bot == nil {
		return
	}

	for _, chatID := range tn.chatIDs {
		go func(cid int64) {
			msg := tgbotapi.NewMessage(cid, message)
			msg.ParseMode = "Markdown"
			if _, err := tn.bot.Send(msg); err != nil {
				log.Errorf("Failed to send telegram message to chat %d: %v", cid, err)
			}
		}(chatID)
	}
}

func initTelegramNotifier() *TelegramNotifier {
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN not set, notifications disabled")
		return nil
	}

	var chatIDs []int64
	for i := 1; i <= 3; i++ {
		chatIDStr := os.Getenv(fmt.Sprintf("TELEGRAM_CHAT_ID_%d", i))
		if chatIDStr != "" {
			if chatID, err := strconv.ParseInt(chatIDStr, 10, 64); err == nil {
				chatIDs = append(chatIDs, chatID)
			} else {
				log.Errorf("Invalid TELEGRAM_CHAT_ID_%d format: %v", i, err)
			}
		}
	}

	if len(chatIDs) == 0 {
		log.Warn("No valid telegram chat IDs found, notifications disabled")
		return nil
	}

	notifier, err := NewTelegramNotifier(botToken, chatIDs)
	if err != nil {
		log.Errorf("Failed to initialize Telegram notifier: %v", err)
		return nil
	}

	log.Infof("Telegram notifier initialized with %d chat IDs", len(chatIDs))
	return notifier
}

var telegramNotifier *TelegramNotifier

func main() {
	// Initialize Telegram notifier
	telegramNotifier = initTelegramNotifier()

	// pg connection
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	ledger := walletsvc.NewLedger(
		store.NewWalletStore(dbpool),
		store.NewTransactionStore(dbpool),
		store.NewWithdrawalStore(dbpool),
		store.NewBettingLimitsStore(dbpool),
	)

	// Connect to NATS
	nc, err := natscli.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Conn.Close()
	log.Infof("NATS connected at %s", nc.Url)

	// Subscribe to payment service
	_, err = nc.Conn.Subscribe("payment.service", func(m *nats.Msg) {
		handlePaymentService(nc, ledger, m)
	})
	if err != nil {
		log.Fatalf("Subscribe payment.service error: %v", err)
	}

	select {}
}

func handlePaymentService(nc *natscli.Nats, ledger *walletsvc.Ledger, msg *nats.Msg) {
	// Decode wrapper
	var ws comm.WSMessage
	if err := json.Unmarshal(msg.Data, &ws); err != nil {
		log.Errorf("invalid WSMessage: %v", err)
		return
	}

	switch ws.Type {
	case "deposit-initiate":
		handleDepositInitiate(nc, ledger, ws)
	case "deposit-settle":
		handleDepositSettle(nc, ledger, ws)
	case "withdrawal-request":
		handleWithdrawalRequest(nc, ledger, ws)
	case "withdrawal-resolve":
		handleWithdrawalResolve(nc, ledger, ws)
	default:
		log.Warnf("unknown message type: %s", ws.Type)
	}
}

func handleDepositInitiate(nc *natscli.Nats, ledger *walletsvc.Ledger, ws comm.WSMessage) {
	var req comm.DepositRequest
	if err := json.Unmarshal(ws.Data, &req); err != nil {
		log.Errorf("invalid DepositRequest: %v", err)
		PublishDepositRes(nc, comm.DepositResponse{
			Status:    "invalid-request",
			Message:   "Invalid request format",
			Timestamp: time.Now().Unix(),
		}, ws.SocketId)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := ledger.InitiateDeposit(ctx, req.UserID, req.Amount, req.PaymentMethod)
	if err != nil {
		PublishDepositRes(nc, comm.DepositResponse{
			Status:    statusForError(err),
			Message:   err.Error(),
			Timestamp: time.Now().Unix(),
		}, ws.SocketId)
		return
	}

	method, _ := ledger.PaymentMethod(req.PaymentMethod)
	fee := walletsvc.Fee(req.Amount, method.Fees.Deposit)

	PublishDepositRes(nc, comm.DepositResponse{
		Status:        "pending",
		TransactionID: tx.ID,
		Fee:           fee.StringFixed(2),
		Total:         tx.Amount.StringFixed(2),
		Timestamp:     time.Now().Unix(),
	}, ws.SocketId)
}

func handleDepositSettle(nc *natscli.Nats, ledger *walletsvc.Ledger, ws comm.WSMessage) {
	var notice comm.SettlementNotice
	if err := json.Unmarshal(ws.Data, &notice); err != nil {
		log.Errorf("invalid SettlementNotice: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// the gateway reported a failed payment: the transaction fails and
	// nothing is credited
	if !notice.Success {
		tx, err := ledger.FailDeposit(ctx, notice.TransactionID, notice.Reference)
		if err != nil {
			var dup *walletsvc.AlreadyProcessedError
			if errors.As(err, &dup) {
				PublishDepositRes(nc, comm.DepositResponse{
					Status:        "duplicate",
					Message:       "This deposit has already been settled",
					TransactionID: notice.TransactionID,
					Timestamp:     time.Now().Unix(),
				}, ws.SocketId)
				return
			}
			log.Errorf("FailDeposit tx %d: %v", notice.TransactionID, err)
			return
		}
		PublishDepositRes(nc, comm.DepositResponse{
			Status:        "failed",
			Message:       "Payment was not completed",
			TransactionID: tx.ID,
			Timestamp:     time.Now().Unix(),
		}, ws.SocketId)
		return
	}

	tx, err := ledger.SettleDeposit(ctx, notice.TransactionID, notice.Reference)
	if err != nil {
		var dup *walletsvc.AlreadyProcessedError
		if errors.As(err, &dup) {
			PublishDepositRes(nc, comm.DepositResponse{
				Status:        "duplicate",
				Message:       "This deposit has already been settled",
				TransactionID: notice.TransactionID,
				Timestamp:     time.Now().Unix(),
			}, ws.SocketId)
			return
		}
		log.Errorf("SettleDeposit tx %d: %v", notice.TransactionID, err)
		PublishDepositRes(nc, comm.DepositResponse{
			Status:    "server-error",
			Message:   "Settlement failed. Please contact support",
			Timestamp: time.Now().Unix(),
		}, ws.SocketId)
		return
	}

	PublishDepositRes(nc, comm.DepositResponse{
		Status:        "completed",
		TransactionID: tx.ID,
		Total:         tx.Metadata.OriginalAmount.StringFixed(2),
		Timestamp:     time.Now().Unix(),
	}, ws.SocketId)

	telegramNotifier.SendNotification(fmt.Sprintf(
		"💰 *Deposit settled*\nUser: `%d`\nAmount: `%s %s`\nRef: `%s`",
		tx.UserID, tx.Metadata.OriginalAmount.StringFixed(2), tx.Currency, notice.Reference))
}

func handleWithdrawalRequest(nc *natscli.Nats, ledger *walletsvc.Ledger, ws comm.WSMessage) {
	var req comm.WithdrawalRequestMsg
	if err := json.Unmarshal(ws.Data, &req); err != nil {
		log.Errorf("invalid WithdrawalRequestMsg: %v", err)
		PublishWithdrawalRes(nc, comm.WithdrawalResponse{
			Status:    "invalid-request",
			Message:   "Invalid request format",
			Timestamp: time.Now().Unix(),
		}, ws.SocketId)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	wr, err := ledger.InitiateWithdrawal(ctx, req.UserID, req.Amount, req.PaymentMethod, models.Destination{
		AccountType: req.AccountType,
		AccountNo:   req.AccountNo,
		Name:        req.Name,
	})
	if err != nil {
		PublishWithdrawalRes(nc, comm.WithdrawalResponse{
			Status:    statusForError(err),
			Message:   err.Error(),
			Timestamp: time.Now().Unix(),
		}, ws.SocketId)
		return
	}

	PublishWithdrawalRes(nc, comm.WithdrawalResponse{
		Status:       "pending",
		WithdrawalID: wr.ID,
		Amount:       wr.Amount.StringFixed(2),
		Timestamp:    time.Now().Unix(),
	}, ws.SocketId)

	telegramNotifier.SendNotification(fmt.Sprintf(
		"🏧 *Withdrawal requested*\nRequest: `%d`\nUser: `%d`\nAmount: `%s`\nTo: `%s %s (%s)`",
		wr.ID, wr.UserID, wr.Amount.StringFixed(2),
		req.AccountType, req.AccountNo, req.Name))
}

func handleWithdrawalResolve(nc *natscli.Nats, ledger *walletsvc.Ledger, ws comm.WSMessage) {
	var req comm.WithdrawalDecision
	if err := json.Unmarshal(ws.Data, &req); err != nil {
		log.Errorf("invalid WithdrawalDecision: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := ledger.ResolveWithdrawal(ctx, req.RequestID, walletsvc.Decision(req.Decision), req.ActorID, req.Reason)
	if err != nil {
		log.Errorf("ResolveWithdrawal request %d: %v", req.RequestID, err)
		PublishWithdrawalRes(nc, comm.WithdrawalResponse{
			Status:       statusForError(err),
			Message:      err.Error(),
			WithdrawalID: req.RequestID,
			Timestamp:    time.Now().Unix(),
		}, ws.SocketId)
		return
	}

	PublishWithdrawalRes(nc, comm.WithdrawalResponse{
		Status:       string(req.Decision),
		WithdrawalID: req.RequestID,
		Amount:       tx.Amount.StringFixed(2),
		Timestamp:    time.Now().Unix(),
	}, ws.SocketId)

	telegramNotifier.SendNotification(fmt.Sprintf(
		"🏧 *Withdrawal %s*\nRequest: `%d`\nUser: `%d`\nAmount: `%s`\nBy: `%d`",
		req.Decision, req.RequestID, tx.UserID, tx.Amount.StringFixed(2), req.ActorID))
}

// statusForError maps ledger error types onto wire statuses the clients
// understand.
func statusForError(err error) string {
	var (
		validation   *walletsvc.ValidationError
		insufficient *walletsvc.InsufficientBalanceError
		limit        *walletsvc.LimitExceededError
		excluded     *walletsvc.SelfExcludedError
		processed    *walletsvc.AlreadyProcessedError
		notFound     *walletsvc.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return "invalid-request"
	case errors.As(err, &insufficient):
		return "insufficient-balance"
	case errors.As(err, &limit):
		return "limit-exceeded"
	case errors.As(err, &excluded):
		return "self-excluded"
	case errors.As(err, &processed):
		return "duplicate"
	case errors.As(err, &notFound):
		return "not-found"
	default:
		return "server-error"
	}
}

func PublishDepositRes(nc *natscli.Nats, res comm.DepositResponse, socketId string) {
	publishWS(nc, "deposit-response", res, socketId)
}

func PublishWithdrawalRes(nc *natscli.Nats, res comm.WithdrawalResponse, socketId string) {
	publishWS(nc, "withdrawal-response", res, socketId)
}

func publishWS(nc *natscli.Nats, msgType string, v interface{}, socketId string) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("[%s] unable to marshal payload: %v", msgType, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: socketId,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("[%s] unable to marshal WSMessage: %v", msgType, err)
		return
	}

	if err := nc.Conn.Publish("game.service", payload); err != nil {
		log.Errorf("error publishing %s: %v", msgType, err)
	}
}
