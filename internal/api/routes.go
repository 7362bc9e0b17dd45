package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/pongarena/backend/internal/api/handlers"
	"github.com/pongarena/backend/internal/config"
	"github.com/pongarena/backend/internal/middleware"
	"github.com/pongarena/backend/internal/ws"
)

// GameBackend is what the manager provides to both the REST and websocket routes.
type GameBackend interface {
	handlers.GameService
	ws.Sessions
}

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Config  *config.Config
	Games   GameBackend
	History handlers.HistoryService
	Players handlers.PlayerDirectory
	Hub     *ws.Hub
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	cfg := d.Config
	router.Use(middleware.CORSMiddleware(cfg))

	if !cfg.IsProduction() {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(d.Games))
		v1.POST("/auth/login", handlers.Login(d.Players, cfg))

		authed := v1.Group("", middleware.AuthMiddleware(cfg.JWTSecret))

		sessions := authed.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(d.Games))
			sessions.GET("/:id", handlers.GetSession(d.Games))
			sessions.DELETE("/:id", handlers.DeleteSession(d.Games))
			sessions.GET("/:id/ws", middleware.WebSocketCORSCheck(cfg), ws.HandleSession(d.Hub, d.Games))
		}

		tournaments := authed.Group("/tournaments")
		{
			tournaments.POST("", handlers.CreateTournament(d.Games))
			tournaments.GET("/:id", handlers.GetTournament(d.Games))
			tournaments.POST("/:id/results", handlers.RecordTournamentResult(d.Games))
			tournaments.POST("/:id/play", handlers.PlayTournamentMatch(d.Games))
		}

		authed.POST("/matches", handlers.RecordMatch(d.History))
		authed.GET("/matches/me", handlers.ListMyMatches(d.History))
		authed.GET("/players/:id/stats", handlers.GetPlayerStats(d.History))
		authed.GET("/leaderboard", handlers.GetLeaderboard(d.History))
	}
}
