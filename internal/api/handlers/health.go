package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status
func HealthCheck(games GameService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":             "ok",
			"service":            "pongarena-api",
			"version":            version,
			"uptime":             time.Since(startTime).String(),
			"active_sessions":    games.ActiveSessionCount(),
			"active_tournaments": games.ActiveTournamentCount(),
		})
	}
}
