package handlers

import (
	"context"

	"github.com/pongarena/backend/internal/game"
	"github.com/pongarena/backend/internal/models"
)

// GameService is the slice of game.Manager the HTTP layer drives.
type GameService interface {
	CreateSession(req game.SessionRequest) (*game.Session, error)
	GetSession(id string) (*game.Session, error)
	EndSession(id string) error
	CreateTournament(ctx context.Context, names []string, ownerID int) (string, game.TournamentSnapshot, error)
	GetTournament(ctx context.Context, id string) (game.TournamentSnapshot, error)
	RecordTournamentResult(ctx context.Context, id string, matchIndex int, winner string) (game.TournamentSnapshot, error)
	StartTournamentMatch(ctx context.Context, id string, userID int) (*game.Session, error)
	AuthorizeTournament(ctx context.Context, id string, userID int) error
	ActiveSessionCount() int
	ActiveTournamentCount() int
}

// HistoryService reads and writes finished matches.
type HistoryService interface {
	RecordMatch(ctx context.Context, rec models.MatchRecord) error
	ListForUser(ctx context.Context, userID, limit int) ([]models.MatchRecord, error)
	StatsForUser(ctx context.Context, userID int) (models.PlayerStats, error)
	Leaderboard(ctx context.Context, n int) ([]models.LeaderboardEntry, error)
}

// PlayerDirectory looks players up for login.
type PlayerDirectory interface {
	GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error)
	TouchPlayer(ctx context.Context, id int) error
}
