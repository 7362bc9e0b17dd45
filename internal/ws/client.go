package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pongarena/backend/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

// Client is one websocket attached to a hosted session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessions  Sessions
	session   *game.Session
	sessionID string
	playerID  int
	format    Format
	send      chan outbound
}

// writePump writes queued frames and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msg.frameType, msg.data); err != nil {
				log.Printf("[WS] Write error for player %d: %v", c.playerID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for player %d: %v", c.playerID, err)
				return
			}
		}
	}
}

// readPump decodes client requests until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		frameType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Unexpected close for player %d: %v", c.playerID, err)
			}
			return
		}
		if frameType != websocket.TextMessage {
			c.sendError("requests must be JSON text frames")
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg WSMessage) {
	s := c.session
	now := s.Clock().Now()

	switch msg.Type {
	case "intent", "pause", "resume", "restart":
		if !s.AllowedFor(c.playerID) {
			c.sendError("only the session owner can control it")
			return
		}
	}

	switch msg.Type {
	case "intent":
		var data IntentData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid intent data")
			return
		}
		dir, err := game.ParseDirection(data.Direction)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		if err := s.SetIntent(data.Control, dir, data.Held); err != nil {
			c.sendError(err.Error())
		}

	case "pause":
		if err := s.Pause(now); err != nil {
			c.sendError(err.Error())
			return
		}
		c.hub.PushSnapshot(c.sessionID, s.Snapshot(now))

	case "resume":
		if err := s.Resume(now); err != nil {
			c.sendError(err.Error())
			return
		}
		c.hub.PushSnapshot(c.sessionID, s.Snapshot(now))

	case "restart":
		if s.Tournament() != nil {
			c.sendError("tournament matches cannot be restarted")
			return
		}
		s.Restart(now)
		if err := c.sessions.StartSession(c.sessionID, c.hub); err != nil {
			c.sendError(err.Error())
			return
		}
		c.hub.PushSnapshot(c.sessionID, s.Snapshot(now))

	case "get_state":
		c.hub.SendTo(c, Message{Type: "snapshot", Data: s.Snapshot(now)})

	default:
		c.sendError("unknown message type")
	}
}

func (c *Client) sendError(message string) {
	c.hub.SendTo(c, Message{Type: "error", Message: message})
}
