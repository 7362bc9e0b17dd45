package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pongarena/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// LeaderboardKey is the sorted set of wins per user id.
const LeaderboardKey = "leaderboard:wins"

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidRecord  = errors.New("invalid match record")
)

// Store persists match results and players in Postgres. The optional Redis client keeps
// the wins leaderboard; without it the leaderboard is computed in SQL.
type Store struct {
	db    *sqlx.DB
	board winBoard
}

func NewStore(db *sqlx.DB, rdb *redis.Client) *Store {
	s := &Store{db: db}
	if rdb != nil {
		s.board = redisBoard{rdb: rdb}
	}
	return s
}

// winBoard is the cached copy of wins per user.
type winBoard interface {
	Top(ctx context.Context, n int) ([]redis.Z, error)
	Bump(ctx context.Context, userID int) error
	Replace(ctx context.Context, wins map[int]int) error
}

type redisBoard struct {
	rdb *redis.Client
}

func (b redisBoard) Top(ctx context.Context, n int) ([]redis.Z, error) {
	return b.rdb.ZRevRangeWithScores(ctx, LeaderboardKey, 0, int64(n-1)).Result()
}

func (b redisBoard) Bump(ctx context.Context, userID int) error {
	return b.rdb.ZIncrBy(ctx, LeaderboardKey, 1, strconv.Itoa(userID)).Err()
}

func (b redisBoard) Replace(ctx context.Context, wins map[int]int) error {
	members := make([]redis.Z, 0, len(wins))
	for id, w := range wins {
		members = append(members, redis.Z{Score: float64(w), Member: strconv.Itoa(id)})
	}
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, LeaderboardKey)
		if len(members) > 0 {
			pipe.ZAdd(ctx, LeaderboardKey, members...)
		}
		return nil
	})
	return err
}

// idRows is the part of a result set returnedID reads.
type idRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// returnedID reads the single id an INSERT ... RETURNING id produced.
func returnedID(rows idRows) (int64, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errors.New("no id returned")
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, err
	}
	return id, rows.Err()
}

// RecordMatch inserts a finished match. It satisfies game.Recorder.
func (s *Store) RecordMatch(ctx context.Context, rec models.MatchRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	query := `
		INSERT INTO match_results (user_id, opponent, user_score, opponent_score, won, game_mode,
			tournament_round, tournament_size, eliminated, played_at)
		VALUES (:user_id, :opponent, :user_score, :opponent_score, :won, :game_mode,
			:tournament_round, :tournament_size, :eliminated, :played_at)
		RETURNING id`
	rows, err := s.db.NamedQueryContext(ctx, query, rec)
	if err != nil {
		return fmt.Errorf("failed to insert match result: %w", err)
	}
	defer rows.Close()
	id, err := returnedID(rows)
	if err != nil {
		return fmt.Errorf("failed to read match result id: %w", err)
	}

	if rec.Won && s.board != nil {
		if err := s.board.Bump(ctx, rec.UserID); err != nil {
			log.Printf("[HISTORY] Failed to bump leaderboard for user %d: %v", rec.UserID, err)
		}
	}

	log.Printf("[HISTORY] Recorded match %d for user %d (%s, won=%v)", id, rec.UserID, rec.GameMode, rec.Won)
	return nil
}

func validateRecord(rec models.MatchRecord) error {
	switch {
	case rec.Opponent == "":
		return fmt.Errorf("%w: missing opponent", ErrInvalidRecord)
	case rec.UserScore < 0 || rec.OpponentScore < 0:
		return fmt.Errorf("%w: negative score", ErrInvalidRecord)
	case rec.PlayedAt.IsZero():
		return fmt.Errorf("%w: missing played_at", ErrInvalidRecord)
	}
	switch rec.GameMode {
	case "pvp", "ai", "tournament", "4player":
	default:
		return fmt.Errorf("%w: unknown game mode %q", ErrInvalidRecord, rec.GameMode)
	}
	return nil
}

// ListForUser returns a user's most recent matches, newest first.
func (s *Store) ListForUser(ctx context.Context, userID, limit int) ([]models.MatchRecord, error) {
	records := []models.MatchRecord{}
	query := `
		SELECT id, user_id, opponent, user_score, opponent_score, won, game_mode,
			tournament_round, tournament_size, eliminated, played_at
		FROM match_results
		WHERE user_id = $1
		ORDER BY played_at DESC
		LIMIT $2`
	if err := s.db.SelectContext(ctx, &records, query, userID, clampLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to list matches for user %d: %w", userID, err)
	}
	return records, nil
}

func (s *Store) StatsForUser(ctx context.Context, userID int) (models.PlayerStats, error) {
	stats := models.PlayerStats{UserID: userID}
	query := `
		SELECT COUNT(*) AS games_played,
			COUNT(*) FILTER (WHERE won) AS games_won,
			COALESCE(SUM(user_score), 0) AS points_for,
			COALESCE(SUM(opponent_score), 0) AS points_against
		FROM match_results
		WHERE user_id = $1`
	if err := s.db.GetContext(ctx, &stats, query, userID); err != nil {
		return models.PlayerStats{}, fmt.Errorf("failed to load stats for user %d: %w", userID, err)
	}
	stats.UserID = userID
	stats.WinRate = winRate(stats.GamesWon, stats.GamesPlayed)

	// results can outlive their player row, so a missing player only matters with no history
	p, err := s.GetPlayerByID(ctx, userID)
	switch {
	case err == nil:
		stats.DisplayName = p.DisplayName
	case errors.Is(err, ErrPlayerNotFound) && stats.GamesPlayed == 0:
		return models.PlayerStats{}, err
	case !errors.Is(err, ErrPlayerNotFound):
		return models.PlayerStats{}, err
	}
	return stats, nil
}

// Leaderboard returns the top n players by wins.
func (s *Store) Leaderboard(ctx context.Context, n int) ([]models.LeaderboardEntry, error) {
	entries, err := leaderboard(ctx, s.board, s.winTotals, clampLimit(n))
	if err != nil {
		return nil, err
	}
	if err := s.attachNames(ctx, entries); err != nil {
		log.Printf("[HISTORY] Failed to resolve leaderboard names: %v", err)
	}
	return entries, nil
}

// leaderboard reads the cached board and falls back to the database totals when the
// cache is down or empty. An empty cache is refilled from those totals.
func leaderboard(ctx context.Context, board winBoard, totals func(context.Context) (map[int]int, error), n int) ([]models.LeaderboardEntry, error) {
	refill := false
	if board != nil {
		scores, err := board.Top(ctx, n)
		switch {
		case err != nil:
			log.Printf("[HISTORY] Leaderboard cache unavailable, using database: %v", err)
		case len(scores) > 0:
			return entriesFromScores(scores), nil
		default:
			refill = true
		}
	}

	wins, err := totals(ctx)
	if err != nil {
		return nil, err
	}
	if refill && len(wins) > 0 {
		if err := board.Replace(ctx, wins); err != nil {
			log.Printf("[HISTORY] Failed to rebuild leaderboard cache: %v", err)
		} else {
			log.Printf("[HISTORY] Rebuilt leaderboard cache with %d players", len(wins))
		}
	}
	return rankWins(wins, n), nil
}

// winTotals counts every user's wins.
func (s *Store) winTotals(ctx context.Context) (map[int]int, error) {
	var rows []struct {
		UserID int `db:"user_id"`
		Wins   int `db:"wins"`
	}
	query := `
		SELECT user_id, COUNT(*) AS wins
		FROM match_results
		WHERE won
		GROUP BY user_id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to compute leaderboard: %w", err)
	}
	wins := make(map[int]int, len(rows))
	for _, r := range rows {
		wins[r.UserID] = r.Wins
	}
	return wins, nil
}

// rankWins orders users by wins, ties by id, and keeps the first n.
func rankWins(wins map[int]int, n int) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(wins))
	for id, w := range wins {
		entries = append(entries, models.LeaderboardEntry{UserID: id, Wins: w})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func (s *Store) attachNames(ctx context.Context, entries []models.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = int64(e.UserID)
	}
	var players []models.Player
	if err := s.db.SelectContext(ctx, &players, `SELECT id, username, display_name, password_hash, created_at, last_active FROM players WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return err
	}
	names := make(map[int]string, len(players))
	for _, p := range players {
		names[p.ID] = p.DisplayName
	}
	for i := range entries {
		entries[i].Name = names[entries[i].UserID]
	}
	return nil
}

// CreatePlayer inserts a player or updates the display name and password of an existing one.
func (s *Store) CreatePlayer(ctx context.Context, username, displayName, passwordHash string) (*models.Player, error) {
	var p models.Player
	err := s.db.GetContext(ctx, &p, `
		INSERT INTO players (username, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (username) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			password_hash = EXCLUDED.password_hash
		RETURNING id, username, display_name, password_hash, created_at, last_active`,
		username, displayName, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to save player %s: %w", username, err)
	}
	return &p, nil
}

func (s *Store) GetPlayerByUsername(ctx context.Context, username string) (*models.Player, error) {
	return s.getPlayer(ctx, `SELECT id, username, display_name, password_hash, created_at, last_active FROM players WHERE username = $1`, username)
}

func (s *Store) GetPlayerByID(ctx context.Context, id int) (*models.Player, error) {
	return s.getPlayer(ctx, `SELECT id, username, display_name, password_hash, created_at, last_active FROM players WHERE id = $1`, id)
}

func (s *Store) getPlayer(ctx context.Context, query string, arg interface{}) (*models.Player, error) {
	var p models.Player
	if err := s.db.GetContext(ctx, &p, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	return &p, nil
}

// TouchPlayer marks a player as recently active.
func (s *Store) TouchPlayer(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE players SET last_active = NOW() WHERE id = $1`, id)
	return err
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func winRate(won, played int) float64 {
	if played == 0 {
		return 0
	}
	return float64(won) / float64(played)
}

func entriesFromScores(scores []redis.Z) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(scores))
	for _, z := range scores {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.Atoi(member)
		if err != nil {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{Rank: len(entries) + 1, UserID: id, Wins: int(z.Score)})
	}
	return entries
}
