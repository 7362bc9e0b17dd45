package ws

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pongarena/backend/internal/game"
	"github.com/pongarena/backend/internal/middleware"
)

// Origins are checked by middleware.WebSocketCORSCheck before the upgrade.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Sessions is the part of game.Manager the websocket needs.
type Sessions interface {
	GetSession(id string) (*game.Session, error)
	StartSession(id string, sink game.SnapshotSink) error
}

// HandleSession upgrades GET /sessions/:id/ws, joins the session room and, for the
// session's owner, starts the runner if it is not already going. Other players watch.
func HandleSession(hub *Hub, sessions Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		playerID, _ := middleware.PlayerID(c)

		format, err := ParseFormat(c.Query("format"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		s, err := sessions.GetSession(id)
		if err != nil {
			if errors.Is(err, game.ErrSessionNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			hub:       hub,
			conn:      conn,
			sessions:  sessions,
			session:   s,
			sessionID: id,
			playerID:  playerID,
			format:    format,
			send:      make(chan outbound, sendBuffer),
		}
		// queued before registering so the first frame is always the current state
		if data, err := format.Encode(Message{Type: "snapshot", Data: s.Snapshot(s.Clock().Now())}); err == nil {
			client.send <- outbound{frameType: format.frameType(), data: data}
		}
		if !hub.Register(client) {
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()

		if !s.AllowedFor(playerID) {
			log.Printf("[WS] Player %d watching session %s", playerID, id)
			return
		}
		if err := sessions.StartSession(id, hub); err != nil {
			log.Printf("[WS] Failed to start session %s: %v", id, err)
			client.sendError(err.Error())
		}
	}
}
