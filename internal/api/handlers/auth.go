package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pongarena/backend/internal/auth"
	"github.com/pongarena/backend/internal/config"
	"github.com/pongarena/backend/internal/history"
)

// Login checks a username and password and issues a JWT.
func Login(players PlayerDirectory, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
			return
		}

		ctx := c.Request.Context()
		player, err := players.GetPlayerByUsername(ctx, strings.TrimSpace(req.Username))
		if err != nil {
			if !errors.Is(err, history.ErrPlayerNotFound) {
				log.Printf("[AUTH] Player lookup failed for %s: %v", req.Username, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
			return
		}
		if err := auth.CheckPassword(player.PasswordHash, req.Password); err != nil {
			log.Printf("[AUTH] Failed login for %s", player.Username)
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		token, exp, err := auth.IssueToken(cfg.JWTSecret, player.ID, cfg.TokenTTL())
		if err != nil {
			log.Printf("[AUTH] %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if err := players.TouchPlayer(ctx, player.ID); err != nil {
			log.Printf("[AUTH] Failed to update last_active for player %d: %v", player.ID, err)
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_at": exp.UTC(),
			"player":     player,
		})
	}
}
