package game

import (
	"strings"
	"time"

	"github.com/pongarena/backend/internal/models"
)

// twoPlayerRecord reports a finished two-player match from the Player1 seat.
func twoPlayerRecord(opts SessionOptions, st TwoPlayerState, at time.Time) models.MatchRecord {
	rec := models.MatchRecord{
		UserID:        opts.UserID,
		Opponent:      opts.Names[1],
		UserScore:     st.P1Score,
		OpponentScore: st.P2Score,
		Won:           st.Winner == Player1,
		GameMode:      string(opts.Mode),
		PlayedAt:      at,
	}
	if tm := opts.Tournament; tm != nil {
		round, size, eliminated := tm.Round, tm.Size, !rec.Won
		rec.TournamentRound = &round
		rec.TournamentSize = &size
		rec.Eliminated = &eliminated
	}
	return rec
}

// fourPlayerRecord reports a finished four-player match from the top seat. Scores are
// remaining lives: the user's against the best surviving opponent's.
func fourPlayerRecord(opts SessionOptions, st FourPlayerState, at time.Time) models.MatchRecord {
	user := st.Players[SideTop]
	opponents := make([]string, 0, len(Sides)-1)
	best := 0
	for _, side := range Sides[1:] {
		slot := st.Players[side]
		opponents = append(opponents, slot.Name)
		if slot.Lives > best {
			best = slot.Lives
		}
	}
	eliminated := user.IsEliminated
	return models.MatchRecord{
		UserID:        opts.UserID,
		Opponent:      strings.Join(opponents, ", "),
		UserScore:     user.Lives,
		OpponentScore: best,
		Won:           st.Winner == SideTop,
		GameMode:      string(ModeFourPlayer),
		Eliminated:    &eliminated,
		PlayedAt:      at,
	}
}
