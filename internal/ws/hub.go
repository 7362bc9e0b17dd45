package ws

import (
	"context"
	"log"
	"sync"

	"github.com/pongarena/backend/internal/game"
)

type outbound struct {
	frameType int
	data      []byte
}

// Hub tracks the clients watching each session and fans frames out to them.
type Hub struct {
	rooms      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, room := range h.rooms {
				for c := range room {
					close(c.send)
				}
				delete(h.rooms, id)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[c.sessionID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[c.sessionID] = room
			}
			room[c] = struct{}{}
			size := len(room)
			h.mu.Unlock()
			log.Printf("[WS] Player %d joined session %s (room_size=%d, format=%s)", c.playerID, c.sessionID, size, c.format)

		case c := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[c.sessionID]; ok {
				if _, member := room[c]; member {
					delete(room, c)
					close(c.send)
					if len(room) == 0 {
						delete(h.rooms, c.sessionID)
					}
					log.Printf("[WS] Player %d left session %s", c.playerID, c.sessionID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client to its session room. It returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// RoomSize reports how many clients watch a session.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// BroadcastToSession sends a message to every client in a session, encoding it once
// per wire format. Slow clients drop frames instead of blocking the runner.
func (h *Hub) BroadcastToSession(sessionID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	encoded := make(map[Format][]byte, 2)
	for c := range room {
		data, ok := encoded[c.format]
		if !ok {
			var err error
			data, err = c.format.Encode(msg)
			if err != nil {
				log.Printf("[WS] Failed to encode %s for session %s: %v", msg.Type, sessionID, err)
				return
			}
			encoded[c.format] = data
		}
		select {
		case c.send <- outbound{frameType: c.format.frameType(), data: data}:
		default:
			log.Printf("[WS] Send buffer full for player %d in session %s, dropping %s", c.playerID, sessionID, msg.Type)
		}
	}
}

// SendTo delivers a message to one client if it is still registered.
func (h *Hub) SendTo(c *Client, msg Message) {
	data, err := c.format.Encode(msg)
	if err != nil {
		log.Printf("[WS] Failed to encode %s for player %d: %v", msg.Type, c.playerID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.rooms[c.sessionID][c]; !ok {
		return
	}
	select {
	case c.send <- outbound{frameType: c.format.frameType(), data: data}:
	default:
		log.Printf("[WS] Send buffer full for player %d, dropping %s", c.playerID, msg.Type)
	}
}

// PushSnapshot streams a runner frame. It satisfies game.SnapshotSink.
func (h *Hub) PushSnapshot(sessionID string, snap game.Snapshot) {
	h.BroadcastToSession(sessionID, Message{Type: "snapshot", Data: snap})
}
