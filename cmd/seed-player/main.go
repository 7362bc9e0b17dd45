package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/pongarena/backend/internal/auth"
	"github.com/pongarena/backend/internal/config"
	"github.com/pongarena/backend/internal/database"
	"github.com/pongarena/backend/internal/history"
)

func main() {
	username := flag.String("username", envOr("SEED_USERNAME", "player1"), "login name")
	displayName := flag.String("name", envOr("SEED_DISPLAY_NAME", "Player One"), "display name")
	password := flag.String("password", os.Getenv("SEED_PASSWORD"), "password (SEED_PASSWORD)")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	if *password == "" {
		*password = "change-me"
		log.Printf("WARNING: Using default password. Set SEED_PASSWORD or -password outside development!")
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("%v", err)
	}

	store := history.NewStore(db, nil)
	player, err := store.CreatePlayer(ctx, *username, *displayName, hash)
	if err != nil {
		log.Fatalf("Failed to create player: %v", err)
	}

	token, exp, err := auth.IssueToken(cfg.JWTSecret, player.ID, cfg.TokenTTL())
	if err != nil {
		log.Fatalf("%v", err)
	}

	log.Printf("Player created/updated successfully")
	log.Printf("  ID: %d", player.ID)
	log.Printf("  Username: %s", player.Username)
	log.Printf("  Display Name: %s", player.DisplayName)
	log.Printf("  Token (expires %s): %s", exp.Format("2006-01-02 15:04"), token)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
