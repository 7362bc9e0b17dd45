package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pongarena/backend/internal/api"
	"github.com/pongarena/backend/internal/config"
	"github.com/pongarena/backend/internal/database"
	"github.com/pongarena/backend/internal/events"
	"github.com/pongarena/backend/internal/game"
	"github.com/pongarena/backend/internal/history"
	"github.com/pongarena/backend/internal/migrations"
	"github.com/pongarena/backend/internal/redis"
	"github.com/pongarena/backend/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tuning, err := config.LoadTuning(cfg.GameTuningFile)
	if err != nil {
		log.Fatalf("Failed to load game tuning: %v", err)
	}
	tuning = tuning.Apply(cfg)

	// Initialize database
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		log.Println("[MIGRATE] Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL, migrations.Dir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Redis is optional: without it the leaderboard falls back to SQL and brackets live
	// only in this process.
	rdb, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Println("[REDIS] REDIS_URL not set; running without cache and pub/sub")
	}

	store := history.NewStore(db, rdb)
	publisher := events.NewPublisher(rdb)
	brackets := events.NewBracketCache(rdb, cfg.BracketCacheExpiry)

	manager := game.NewManager(ctx, game.Settings{
		Tuning:     tuning.TwoPlayer,
		FourPlayer: tuning.FourPlayer,
		AI:         tuning.AI,
		Countdown:  cfg.Countdown,
		TickRate:   cfg.TickRate,
	}, store, publisher, brackets)

	manager.StartReaper(ctx, cfg.ReaperInterval, cfg.SessionIdleTimeout)

	hub := ws.NewHub()
	go hub.Run(ctx)
	ws.StartEventSubscriber(ctx, rdb, hub)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		Config:  cfg,
		Games:   manager,
		History: store,
		Players: store,
		Hub:     hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Starting Pong Arena server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
