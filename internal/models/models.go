package models

import (
	"database/sql"
	"time"
)

// Player represents a registered user
type Player struct {
	ID           int          `db:"id" json:"id"`
	Username     string       `db:"username" json:"username"`
	DisplayName  string       `db:"display_name" json:"display_name"`
	PasswordHash string       `db:"password_hash" json:"-"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	LastActive   sql.NullTime `db:"last_active" json:"last_active,omitempty"`
}

// MatchRecord is the result of one finished match from the user's point of view.
// Tournament fields are only set for tournament matches.
type MatchRecord struct {
	ID              int64     `db:"id" json:"id,omitempty"`
	UserID          int       `db:"user_id" json:"user_id"`
	Opponent        string    `db:"opponent" json:"opponent"`
	UserScore       int       `db:"user_score" json:"user_score"`
	OpponentScore   int       `db:"opponent_score" json:"opponent_score"`
	Won             bool      `db:"won" json:"won"`
	GameMode        string    `db:"game_mode" json:"game_mode"`
	TournamentRound *int      `db:"tournament_round" json:"tournament_round,omitempty"`
	TournamentSize  *int      `db:"tournament_size" json:"tournament_size,omitempty"`
	Eliminated      *bool     `db:"eliminated" json:"eliminated,omitempty"`
	PlayedAt        time.Time `db:"played_at" json:"played_at"`
}

// PlayerStats aggregates a player's match history
type PlayerStats struct {
	UserID        int     `db:"user_id" json:"user_id"`
	DisplayName   string  `db:"-" json:"display_name,omitempty"`
	GamesPlayed   int     `db:"games_played" json:"games_played"`
	GamesWon      int     `db:"games_won" json:"games_won"`
	PointsFor     int     `db:"points_for" json:"points_for"`
	PointsAgainst int     `db:"points_against" json:"points_against"`
	WinRate       float64 `db:"-" json:"win_rate"`
}

// LeaderboardEntry is one row of the wins leaderboard
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID int    `json:"user_id"`
	Wins   int    `json:"wins"`
	Name   string `json:"name,omitempty"`
}
