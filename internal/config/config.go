package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL           string
	BracketCacheExpiry time.Duration

	// Server
	Port        string
	FrontendURL string

	// Game Settings
	TickRate       int
	AIRefresh      time.Duration
	Countdown      time.Duration
	GameTuningFile string

	// Security
	JWTSecret         string
	SessionTimeoutMin int

	// Idle sessions
	SessionIdleTimeout time.Duration
	ReaperInterval     time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/pongarena?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		// Redis
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		BracketCacheExpiry: getEnvDuration("BRACKET_CACHE_MINUTES", time.Minute, 120*time.Minute),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Game Settings
		TickRate:       getEnvInt("TICK_RATE_HZ", 60),
		AIRefresh:      getEnvDuration("AI_REFRESH_MS", time.Millisecond, 0),
		Countdown:      getEnvDuration("COUNTDOWN_SECONDS", time.Second, 3*time.Second),
		GameTuningFile: getEnv("GAME_TUNING_FILE", ""),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),

		// Idle sessions
		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_MINUTES", time.Minute, 15*time.Minute),
		ReaperInterval:     getEnvDuration("REAPER_INTERVAL_SECONDS", time.Second, time.Minute),
	}
}

// TokenTTL is how long an issued player token stays valid.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.SessionTimeoutMin) * time.Minute
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration reads an integer count of unit.
func getEnvDuration(key string, unit, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			return time.Duration(n) * unit
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
