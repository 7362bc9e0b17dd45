package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pongarena/backend/internal/game"
	"github.com/pongarena/backend/internal/history"
)

// respondError maps domain errors onto status codes. Anything unrecognised is logged
// and reported as a 500.
func respondError(c *gin.Context, err error) {
	var verr *game.ValidationError
	switch {
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Error(), "reason": verr.Reason}
		if verr.Name != "" {
			body["name"] = verr.Name
		}
		if verr.Count != 0 {
			body["count"] = verr.Count
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrTournamentNotFound),
		errors.Is(err, history.ErrPlayerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrMatchOutOfOrder), errors.Is(err, game.ErrTournamentNotRunning),
		errors.Is(err, game.ErrNotPlaying), errors.Is(err, game.ErrNotPaused):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrWrongPlayerCount), errors.Is(err, game.ErrNotAParticipant),
		errors.Is(err, game.ErrInvalidWinningScore), errors.Is(err, game.ErrInvalidBoard),
		errors.Is(err, history.ErrInvalidRecord):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
