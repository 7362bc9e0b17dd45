package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pongarena/backend/internal/game"
	"github.com/pongarena/backend/internal/middleware"
)

type createSessionRequest struct {
	Mode         string   `json:"mode" binding:"required"`
	Difficulty   string   `json:"difficulty"`
	WinningScore int      `json:"winning_score"`
	Names        []string `json:"names"`
}

func sessionBody(s *game.Session) gin.H {
	return gin.H{
		"session_id": s.ID,
		"mode":       s.Mode(),
		"names":      s.Names(),
		"controls":   s.Controls(),
		"snapshot":   s.Snapshot(s.Clock().Now()),
	}
}

// CreateSession opens a new hosted match. Play starts when a websocket joins.
func CreateSession(games GameService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode is required"})
			return
		}
		mode, err := game.ParseMode(req.Mode)
		if err != nil || mode == game.ModeTournament {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be pvp, ai or 4player"})
			return
		}
		var difficulty game.Difficulty
		if req.Difficulty != "" {
			if difficulty, err = game.ParseDifficulty(req.Difficulty); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		if req.WinningScore < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": game.ErrInvalidWinningScore.Error()})
			return
		}

		playerID, _ := middleware.PlayerID(c)
		s, err := games.CreateSession(game.SessionRequest{
			Mode:         mode,
			Difficulty:   difficulty,
			Names:        req.Names,
			UserID:       playerID,
			WinningScore: req.WinningScore,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, sessionBody(s))
	}
}

func GetSession(games GameService) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := games.GetSession(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sessionBody(s))
	}
}

// DeleteSession ends a session. Only its owner may do so.
func DeleteSession(games GameService) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := games.GetSession(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		playerID, _ := middleware.PlayerID(c)
		if !s.AllowedFor(playerID) {
			respondError(c, game.ErrNotOwner)
			return
		}
		if err := games.EndSession(s.ID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
