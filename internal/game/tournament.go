package game

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// TBD marks a bracket slot whose player is not decided yet.
const TBD = "TBD"

// TournamentPhase is the coordinator's lifecycle stage.
type TournamentPhase string

const (
	PhaseSetup           TournamentPhase = "SETUP"
	PhaseRoundInProgress TournamentPhase = "ROUND_IN_PROGRESS"
	PhaseChampion        TournamentPhase = "CHAMPION"
)

// Match is one bracket node. Winner is empty until the match is played.
type Match struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
	Winner  string `json:"winner,omitempty"`
}

func (m Match) has(name string) (string, bool) {
	switch {
	case strings.EqualFold(m.Player1, name):
		return m.Player1, true
	case strings.EqualFold(m.Player2, name):
		return m.Player2, true
	}
	return "", false
}

// TournamentSnapshot is the complete coordinator state, used for reads and for
// restoring a coordinator from a cache.
type TournamentSnapshot struct {
	Phase        TournamentPhase `json:"phase"`
	Players      []string        `json:"players"`
	Rounds       [][]Match       `json:"rounds"`
	Round        int             `json:"round"`
	CurrentMatch int             `json:"current_match"`
	Champion     string          `json:"champion,omitempty"`
	OwnerID      int             `json:"owner_id,omitempty"`
}

// Tournament runs a single-elimination bracket of 4 or 8 players, one match at a time.
// It is not safe for concurrent use.
type Tournament struct {
	rng *rand.Rand

	phase        TournamentPhase
	players      []string
	rounds       [][]Match
	round        int // index into rounds
	currentMatch int
	champion     string
}

func NewTournament(rng *rand.Rand) *Tournament {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Tournament{rng: rng, phase: PhaseSetup}
}

// RestoreTournament rebuilds a coordinator from a snapshot.
func RestoreTournament(snap TournamentSnapshot, rng *rand.Rand) (*Tournament, error) {
	t := NewTournament(rng)
	switch snap.Phase {
	case PhaseSetup:
		return t, nil
	case PhaseRoundInProgress, PhaseChampion:
	default:
		return nil, fmt.Errorf("unknown tournament phase %q", snap.Phase)
	}
	if len(snap.Rounds) == 0 || snap.Round < 0 || snap.Round >= len(snap.Rounds) ||
		snap.CurrentMatch < 0 || snap.CurrentMatch > len(snap.Rounds[snap.Round]) {
		return nil, fmt.Errorf("inconsistent tournament snapshot (round %d, match %d)", snap.Round, snap.CurrentMatch)
	}
	if snap.Phase == PhaseRoundInProgress && snap.CurrentMatch == len(snap.Rounds[snap.Round]) {
		return nil, fmt.Errorf("inconsistent tournament snapshot (round %d has no match %d)", snap.Round, snap.CurrentMatch)
	}
	t.phase = snap.Phase
	t.players = append([]string(nil), snap.Players...)
	t.rounds = copyRounds(snap.Rounds)
	t.round = snap.Round
	t.currentMatch = snap.CurrentMatch
	t.champion = snap.Champion
	return t, nil
}

// StartTournament validates the roster, shuffles it and lays out the full bracket.
// On a *ValidationError the previous tournament, if any, is left as it was.
func (t *Tournament) StartTournament(names []string) error {
	players := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return &ValidationError{Reason: ReasonEmptyName}
		}
		key := strings.ToLower(n)
		if seen[key] {
			return &ValidationError{Reason: ReasonDuplicateName, Name: n}
		}
		seen[key] = true
		players = append(players, n)
	}
	if len(players) != 4 && len(players) != 8 {
		return &ValidationError{Reason: ReasonInvalidSize, Count: len(players)}
	}

	// Fisher-Yates
	for i := len(players) - 1; i > 0; i-- {
		j := t.rng.Intn(i + 1)
		players[i], players[j] = players[j], players[i]
	}

	rounds := make([][]Match, 0, 3)
	first := make([]Match, len(players)/2)
	for i := range first {
		first[i] = Match{Player1: players[2*i], Player2: players[2*i+1]}
	}
	rounds = append(rounds, first)
	for n := len(first) / 2; n >= 1; n /= 2 {
		next := make([]Match, n)
		for i := range next {
			next[i] = Match{Player1: TBD, Player2: TBD}
		}
		rounds = append(rounds, next)
	}

	t.players = players
	t.rounds = rounds
	t.round = 0
	t.currentMatch = 0
	t.champion = ""
	t.phase = PhaseRoundInProgress
	return nil
}

// NextRoundSlot maps a match index to the next-round node it feeds and the seat its
// winner takes there: even indexes fill Player1, odd ones Player2.
func NextRoundSlot(matchIndex int) (int, PlayerID) {
	if matchIndex%2 == 0 {
		return matchIndex / 2, Player1
	}
	return matchIndex / 2, Player2
}

// RecordMatchResult stores the winner of the current match and advances the bracket.
func (t *Tournament) RecordMatchResult(matchIndex int, winner string) error {
	if t.phase != PhaseRoundInProgress {
		return ErrTournamentNotRunning
	}
	if matchIndex != t.currentMatch {
		return fmt.Errorf("%w: got %d, current is %d", ErrMatchOutOfOrder, matchIndex, t.currentMatch)
	}
	round := t.rounds[t.round]
	name, ok := round[matchIndex].has(strings.TrimSpace(winner))
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotAParticipant, winner)
	}
	round[matchIndex].Winner = name

	if t.round+1 < len(t.rounds) {
		node, slot := NextRoundSlot(matchIndex)
		if slot == Player1 {
			t.rounds[t.round+1][node].Player1 = name
		} else {
			t.rounds[t.round+1][node].Player2 = name
		}
	}

	t.currentMatch++
	if t.currentMatch < len(round) {
		return nil
	}

	if len(round) == 1 {
		t.champion = name
		t.phase = PhaseChampion
		return nil
	}

	winners := make([]string, len(round))
	for i, m := range round {
		winners[i] = m.Winner
	}
	t.round++
	t.currentMatch = 0
	next := t.rounds[t.round]
	for i := range next {
		next[i].Player1 = winners[2*i]
		next[i].Player2 = winners[2*i+1]
	}
	return nil
}

func (t *Tournament) Phase() TournamentPhase {
	return t.phase
}

// Round is the 1-based number of the round being played, or 0 before the start.
func (t *Tournament) Round() int {
	if t.phase == PhaseSetup {
		return 0
	}
	return t.round + 1
}

func (t *Tournament) CurrentMatchIndex() int {
	return t.currentMatch
}

// CurrentMatch returns the match waiting to be played.
func (t *Tournament) CurrentMatch() (Match, bool) {
	if t.phase != PhaseRoundInProgress {
		return Match{}, false
	}
	return t.rounds[t.round][t.currentMatch], true
}

func (t *Tournament) Champion() (string, bool) {
	return t.champion, t.phase == PhaseChampion
}

// Size is the number of registered players.
func (t *Tournament) Size() int {
	return len(t.players)
}

// Bracket returns a copy of every round, first round first.
func (t *Tournament) Bracket() [][]Match {
	return copyRounds(t.rounds)
}

func (t *Tournament) Snapshot() TournamentSnapshot {
	return TournamentSnapshot{
		Phase:        t.phase,
		Players:      append([]string(nil), t.players...),
		Rounds:       copyRounds(t.rounds),
		Round:        t.round,
		CurrentMatch: t.currentMatch,
		Champion:     t.champion,
	}
}

func copyRounds(rounds [][]Match) [][]Match {
	out := make([][]Match, len(rounds))
	for i, r := range rounds {
		out[i] = append([]Match(nil), r...)
	}
	return out
}
