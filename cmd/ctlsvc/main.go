package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	config "github.com/zemenbingo/bingo-services/configs"
	"github.com/zemenbingo/bingo-services/internal/comm"
	"github.com/zemenbingo/bingo-services/internal/db"
	"github.com/zemenbingo/bingo-services/internal/gamesvc/models"
	"github.com/zemenbingo/bingo-services/internal/gamesvc/store"
	natscli "github.com/zemenbingo/bingo-services/internal/nats"
)

const SERVICE_NAME = "ctl"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	// pg connection
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	// Connect to NATS
	n, err := natscli.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(1)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	roomStore := store.NewRoomStore(dbpool)

	graceSeconds := intEnv("ROOM_GRACE_SECONDS", 30)
	minPlayers := intEnv("ROOM_MIN_PLAYERS", 2)

	ctx := context.Background()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		started, err := roomStore.StartDue(ctx, graceSeconds, minPlayers)
		if err != nil {
			log.Printf("StartDue error: %v", err)
			continue
		}

		for _, room := range started {
			PublishGameStarted(n, room)
		}
	}
}

func PublishGameStarted(n *natscli.Nats, room *models.Room) {
	gs := comm.GameStarted{
		RoomID:   room.ID,
		EntryFee: room.EntryFee,
	}
	data, err := json.Marshal(gs)
	if err != nil {
		log.Errorf("error [PublishGameStarted] marshaling room %d: %v", room.ID, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     "game-started",
		Data:     data,
		SocketId: "",
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("error [PublishGameStarted] marshaling WSMessage: %v", err)
		return
	}

	topic := "game.service"
	if err := n.Conn.Publish(topic, payload); err != nil {
		log.Errorf("error publishing game-started for room %d: %v", room.ID, err)
	}
}

func intEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
		log.Warnf("invalid %s value %q, using default", key, v)
	}
	return def
}
