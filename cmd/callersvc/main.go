package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	config "github.com/zemenbingo/bingo-services/configs"
	"github.com/zemenbingo/bingo-services/internal/bingo"
	"github.com/zemenbingo/bingo-services/internal/comm"
	"github.com/zemenbingo/bingo-services/internal/db"
	"github.com/zemenbingo/bingo-services/internal/gamesvc/store"
	natscli "github.com/zemenbingo/bingo-services/internal/nats"
)

const SERVICE_NAME = "caller"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

// one autocaller per live room
type callerRegistry struct {
	mu      sync.Mutex
	callers map[int64]*bingo.AutoCaller
}

func (r *callerRegistry) add(roomID int64, c *bingo.AutoCaller) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.callers[roomID]; ok {
		return false
	}
	r.callers[roomID] = c
	return true
}

func (r *callerRegistry) remove(roomID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.callers, roomID)
}

func (r *callerRegistry) stop(roomID int64) {
	r.mu.Lock()
	c := r.callers[roomID]
	r.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}

func main() {
	// pg connection
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	roomStore := store.NewRoomStore(dbpool)

	// connect to NATS
	n, err := natscli.Connect()
	if err != nil {
		log.Fatalf("unable to connect to NATS: %v", err)
	}
	defer n.Conn.Close()
	log.Infof("NATS connected at %s", n.Url)

	registry := &callerRegistry{callers: make(map[int64]*bingo.AutoCaller)}

	countdown := durationEnv("CALL_COUNTDOWN_SECONDS", 5)
	interval := durationEnv("CALL_INTERVAL_SECONDS", 5)

	// subscribe to room lifecycle events
	_, err = n.Conn.Subscribe("game.service", func(msg *nats.Msg) {
		var ws comm.WSMessage
		if err := json.Unmarshal(msg.Data, &ws); err != nil {
			log.Errorf("invalid WSMessage: %v", err)
			return
		}
		switch ws.Type {
		case "game-started":
			var gs comm.GameStarted
			if err := json.Unmarshal(ws.Data, &gs); err != nil {
				log.Errorf("invalid GameStarted payload: %v", err)
				return
			}
			startCaller(n, roomStore, registry, gs.RoomID, countdown, interval)
		case "game-ended":
			var ge comm.GameEnded
			if err := json.Unmarshal(ws.Data, &ge); err != nil {
				log.Errorf("invalid GameEnded payload: %v", err)
				return
			}
			registry.stop(ge.RoomID)
		}
	})
	if err != nil {
		log.Fatalf("subscribe error: %v", err)
	}

	select {} // block forever
}

func startCaller(n *natscli.Nats, rooms *store.RoomStore, registry *callerRegistry, roomID int64, countdown, interval time.Duration) {
	pool := bingo.NewDrawPool()

	caller := bingo.NewAutoCaller(pool, countdown, interval, func(num int, history []int) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := rooms.RecordCall(ctx, roomID, num); err != nil {
			// room concluded or cancelled, halt the caller
			return err
		}

		PublishBingoCall(n, comm.CallMessage{
			RoomID:  roomID,
			Number:  num,
			History: history,
		})
		return nil
	})

	if !registry.add(roomID, caller) {
		log.Warnf("caller already running for room %d", roomID)
		return
	}

	if err := caller.Start(); err != nil {
		log.Errorf("caller start for room %d: %v", roomID, err)
		registry.remove(roomID)
		return
	}
	log.Infof("caller started for room %d", roomID)

	go func() {
		<-caller.Done()
		registry.remove(roomID)
		log.Infof("caller done for room %d", roomID)

		// grace period for a final claim racing the last call
		time.Sleep(5 * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rooms.ExpireIfUnended(ctx, roomID); err != nil {
			log.Errorf("ExpireIfUnended room %d: %v", roomID, err)
		}
	}()
}

func PublishBingoCall(n *natscli.Nats, c comm.CallMessage) {
	data, err := json.Marshal(c)
	if err != nil {
		log.Errorf("error [PublishBingoCall] marshaling call: %v", err)
		return
	}

	msg := &comm.WSMessage{
		Type:     "bingo-call",
		Data:     data,
		SocketId: "",
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("error [PublishBingoCall] marshaling WSMessage: %v", err)
		return
	}

	if err := n.Conn.Publish("game.service", payload); err != nil {
		log.Errorf("error publishing bingo-call for room %d: %v", c.RoomID, err)
	}
}

func durationEnv(key string, defSeconds int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		log.Warnf("invalid %s value %q, using default", key, v)
	}
	return time.Duration(defSeconds) * time.Second
}
