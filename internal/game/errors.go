package game

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPlayer        = errors.New("invalid player")
	ErrInvalidSide          = errors.New("invalid side")
	ErrInvalidDirection     = errors.New("invalid direction")
	ErrNeedFourPlayers      = errors.New("four-player mode needs exactly four named players")
	ErrInvalidWinningScore  = errors.New("winning score must be positive")
	ErrInvalidBoard         = errors.New("board dimensions must be positive")
	ErrTournamentNotRunning = errors.New("tournament is not running")
	ErrMatchOutOfOrder      = errors.New("match result is not for the current match")
	ErrNotAParticipant      = errors.New("winner did not play in this match")

	ErrSessionNotFound    = errors.New("session not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrWrongPlayerCount   = errors.New("wrong number of players for mode")
	ErrControlNotAllowed  = errors.New("control is not available in this session")
	ErrNotPlaying         = errors.New("session is not in play")
	ErrNotPaused          = errors.New("session is not paused")
	ErrNotOwner           = errors.New("belongs to another player")
)

// ValidationReason classifies a rejected tournament roster.
type ValidationReason string

const (
	ReasonEmptyName     ValidationReason = "empty_name"
	ReasonDuplicateName ValidationReason = "duplicate_name"
	ReasonInvalidSize   ValidationReason = "invalid_size"
)

// ValidationError is returned when a tournament roster is rejected. State is left untouched.
type ValidationError struct {
	Reason ValidationReason `json:"reason"`
	Name   string           `json:"name,omitempty"`
	Count  int              `json:"count,omitempty"`
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmptyName:
		return "player names must not be empty"
	case ReasonDuplicateName:
		return fmt.Sprintf("duplicate player name %q", e.Name)
	case ReasonInvalidSize:
		return fmt.Sprintf("tournament needs 4 or 8 players, got %d", e.Count)
	}
	return "invalid tournament roster"
}
