package game

import (
	"fmt"
	"strings"
)

// Difficulty selects how the opponent AI aims
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Mode is the kind of match a session hosts. The string form is what match records carry.
type Mode string

const (
	ModePvP        Mode = "pvp"
	ModePvAI       Mode = "ai"
	ModeTournament Mode = "tournament"
	ModeFourPlayer Mode = "4player"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePvP, ModePvAI, ModeTournament, ModeFourPlayer:
		return m, nil
	}
	return "", fmt.Errorf("unknown game mode %q", s)
}

// PlayerCount is the number of named seats a mode needs.
func (m Mode) PlayerCount() int {
	switch m {
	case ModePvP, ModePvAI, ModeTournament:
		return 2
	case ModeFourPlayer:
		return 4
	}
	return 0
}

// PlayerID identifies a paddle in the two-player engine.
type PlayerID int

const (
	NoPlayer PlayerID = 0
	Player1  PlayerID = 1
	Player2  PlayerID = 2
)

func (p PlayerID) Valid() bool {
	return p == Player1 || p == Player2
}

// Side identifies a board edge in the four-player engine.
type Side string

const (
	SideNone   Side = ""
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// Sides lists the edges in seating order.
var Sides = [4]Side{SideTop, SideBottom, SideLeft, SideRight}

// Horizontal reports whether paddles on this edge slide along x.
func (s Side) Horizontal() bool {
	return s == SideTop || s == SideBottom
}

// Direction is a single movement intent.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirUp, DirDown, DirLeft, DirRight:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// sign returns -1 for up/left and +1 for down/right.
func (d Direction) sign() float64 {
	switch d {
	case DirUp, DirLeft:
		return -1
	case DirDown, DirRight:
		return 1
	}
	return 0
}

func (d Direction) vertical() bool {
	return d == DirUp || d == DirDown
}
