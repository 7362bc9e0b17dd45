package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pongarena/backend/internal/middleware"
	"github.com/pongarena/backend/internal/models"
)

// RecordMatch stores a match played outside a hosted session. The user id always
// comes from the token.
func RecordMatch(matches HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rec models.MatchRecord
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match record"})
			return
		}
		playerID, _ := middleware.PlayerID(c)
		rec.ID = 0
		rec.UserID = playerID
		if rec.PlayedAt.IsZero() {
			rec.PlayedAt = time.Now().UTC()
		}

		if err := matches.RecordMatch(c.Request.Context(), rec); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"recorded": true})
	}
}

func ListMyMatches(matches HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, _ := middleware.PlayerID(c)
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

		records, err := matches.ListForUser(c.Request.Context(), playerID, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"matches": records, "count": len(records)})
	}
}

func GetPlayerStats(matches HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
			return
		}
		stats, err := matches.StatsForUser(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func GetLeaderboard(matches HistoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		entries, err := matches.Leaderboard(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
	}
}
