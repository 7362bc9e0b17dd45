package ws

import (
	"context"
	"log"

	"github.com/pongarena/backend/internal/events"
	"github.com/pongarena/backend/internal/game"
	"github.com/redis/go-redis/v9"
)

// StartEventSubscriber relays game events published by any instance to the local
// clients of the session they concern.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, events.Channel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", events.Channel)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ev, err := events.Decode(msg.Payload)
				if err != nil {
					log.Printf("[WS] %v", err)
					continue
				}
				relayEvent(hub, ev)
			}
		}
	}()
}

func relayEvent(hub *Hub, ev game.Event) {
	switch ev.Type {
	case game.EventGameOver:
		if hub.RoomSize(ev.SessionID) == 0 {
			return
		}
		log.Printf("[WS] Broadcasting game_over for session %s (winner %s)", ev.SessionID, ev.Winner)
		hub.BroadcastToSession(ev.SessionID, Message{Type: ev.Type, Data: ev})
	default:
		log.Printf("[WS] Unknown event type: %s", ev.Type)
	}
}
