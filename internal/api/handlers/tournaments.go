package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pongarena/backend/internal/middleware"
)

// CreateTournament validates the roster and builds a shuffled bracket.
func CreateTournament(games GameService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Names []string `json:"names"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "names required"})
			return
		}

		playerID, _ := middleware.PlayerID(c)
		id, snap, err := games.CreateTournament(c.Request.Context(), req.Names, playerID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"tournament_id": id, "bracket": snap})
	}
}

func GetTournament(games GameService) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := games.GetTournament(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tournament_id": c.Param("id"), "bracket": snap})
	}
}

// RecordTournamentResult reports the winner of the current match by hand.
func RecordTournamentResult(games GameService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			MatchIndex *int   `json:"match_index" binding:"required"`
			Winner     string `json:"winner" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "match_index and winner required"})
			return
		}

		playerID, _ := middleware.PlayerID(c)
		if err := games.AuthorizeTournament(c.Request.Context(), c.Param("id"), playerID); err != nil {
			respondError(c, err)
			return
		}
		snap, err := games.RecordTournamentResult(c.Request.Context(), c.Param("id"), *req.MatchIndex, req.Winner)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tournament_id": c.Param("id"), "bracket": snap})
	}
}

// PlayTournamentMatch opens (or returns) the session for the bracket's current match.
func PlayTournamentMatch(games GameService) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, _ := middleware.PlayerID(c)
		if err := games.AuthorizeTournament(c.Request.Context(), c.Param("id"), playerID); err != nil {
			respondError(c, err)
			return
		}
		s, err := games.StartTournamentMatch(c.Request.Context(), c.Param("id"), playerID)
		if err != nil {
			respondError(c, err)
			return
		}
		body := sessionBody(s)
		body["tournament"] = s.Tournament()
		c.JSON(http.StatusOK, body)
	}
}
