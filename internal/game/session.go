package game

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/pongarena/backend/internal/models"
)

// Recorder persists finished matches.
type Recorder interface {
	RecordMatch(ctx context.Context, rec models.MatchRecord) error
}

// EventPublisher fans session events out to other processes.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

const EventGameOver = "game_over"

// Event is a session-level notification.
type Event struct {
	Type         string              `json:"type"`
	SessionID    string              `json:"session_id"`
	Mode         Mode                `json:"mode"`
	Winner       string              `json:"winner,omitempty"`
	TournamentID string              `json:"tournament_id,omitempty"`
	Record       *models.MatchRecord `json:"record,omitempty"`
	At           time.Time           `json:"at"`
}

// SessionPhase is where a hosted match is in its lifecycle.
type SessionPhase string

const (
	SessionWaiting   SessionPhase = "WAITING"
	SessionCountdown SessionPhase = "COUNTDOWN"
	SessionPlaying   SessionPhase = "PLAYING"
	SessionPaused    SessionPhase = "PAUSED"
	SessionFinished  SessionPhase = "FINISHED"
)

// Clock supplies monotonic timestamps as offsets from an arbitrary origin.
type Clock interface {
	Now() time.Duration
}

type monotonicClock struct {
	start time.Time
}

func (c monotonicClock) Now() time.Duration {
	return time.Since(c.start)
}

// NewMonotonicClock returns a clock starting at zero now.
func NewMonotonicClock() Clock {
	return monotonicClock{start: time.Now()}
}

// TournamentMatch ties a session to a bracket node.
type TournamentMatch struct {
	ID         string `json:"id"`
	MatchIndex int    `json:"match_index"`
	Round      int    `json:"round"`
	Size       int    `json:"size"`
}

type SessionOptions struct {
	Mode       Mode
	Difficulty Difficulty
	Names      []string
	UserID     int
	Tuning     Tuning
	FourPlayer FourPlayerTuning
	AI         AIConfig
	Countdown  time.Duration
	Tournament *TournamentMatch
	Rand       *rand.Rand
	Clock      Clock
	Recorder   Recorder
	Publisher  EventPublisher
	OnFinish   func(Result)
}

// Result describes how a session ended.
type Result struct {
	SessionID  string
	Mode       Mode
	Winner     string
	Record     models.MatchRecord
	Tournament *TournamentMatch
}

// Snapshot is the read-only view handed to renderers.
type Snapshot struct {
	SessionID  string           `json:"session_id"`
	Mode       Mode             `json:"mode"`
	Phase      SessionPhase     `json:"phase"`
	Countdown  float64          `json:"countdown"`
	Names      []string         `json:"names"`
	Difficulty Difficulty       `json:"difficulty,omitempty"`
	Board      *Board           `json:"board,omitempty"`
	TwoPlayer  *TwoPlayerState  `json:"two_player,omitempty"`
	FourPlayer *FourPlayerState `json:"four_player,omitempty"`
	Winner     string           `json:"winner,omitempty"`
}

const recordTimeout = 10 * time.Second

// Session hosts one match: an engine, the optional AI, the countdown and held-key input.
// Transport goroutines feed it, so every method locks.
type Session struct {
	ID string

	opts SessionOptions
	mu   sync.Mutex

	two  *TwoPlayerEngine
	four *FourPlayerEngine
	ai   *OpponentAI

	phase          SessionPhase
	countdownStart time.Duration
	pausedAt       time.Duration
	resumeTo       SessionPhase
	held           map[string]map[Direction]bool
	result         *Result
	lastActive     time.Time
}

func NewSession(id string, opts SessionOptions) (*Session, error) {
	if opts.Mode.PlayerCount() == 0 {
		return nil, fmt.Errorf("unknown game mode %q", opts.Mode)
	}
	if len(opts.Names) != opts.Mode.PlayerCount() {
		return nil, fmt.Errorf("%w: %s needs %d, got %d", ErrWrongPlayerCount, opts.Mode, opts.Mode.PlayerCount(), len(opts.Names))
	}
	names := make([]string, len(opts.Names))
	for i, n := range opts.Names {
		names[i] = strings.TrimSpace(n)
		if names[i] == "" {
			return nil, fmt.Errorf("%w: seat %d has no name", ErrWrongPlayerCount, i+1)
		}
	}
	opts.Names = names
	if opts.Tuning == (Tuning{}) {
		opts.Tuning = DefaultTuning()
	}
	if opts.FourPlayer == (FourPlayerTuning{}) {
		opts.FourPlayer = DefaultFourPlayerTuning()
	}
	if opts.AI == (AIConfig{}) {
		opts.AI = DefaultAIConfig()
	}
	if opts.Difficulty == "" {
		opts.Difficulty = DifficultyMedium
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Clock == nil {
		opts.Clock = NewMonotonicClock()
	}

	s := &Session{ID: id, opts: opts, phase: SessionWaiting, held: make(map[string]map[Direction]bool), lastActive: time.Now()}

	var err error
	switch opts.Mode {
	case ModePvP, ModeTournament:
		s.two, err = NewTwoPlayerEngine(opts.Tuning)
	case ModePvAI:
		s.two, err = NewTwoPlayerEngine(opts.Tuning)
		if err == nil {
			s.ai = NewOpponentAI(s.two, opts.Difficulty, opts.AI, opts.Rand)
		}
	case ModeFourPlayer:
		s.four, err = NewFourPlayerEngine(names, opts.FourPlayer, opts.Rand)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Mode() Mode {
	return s.opts.Mode
}

func (s *Session) Names() []string {
	return append([]string(nil), s.opts.Names...)
}

func (s *Session) Clock() Clock {
	return s.opts.Clock
}

func (s *Session) Tournament() *TournamentMatch {
	return s.opts.Tournament
}

// Owner is the player who opened the session, 0 when nobody did.
func (s *Session) Owner() int {
	return s.opts.UserID
}

// AllowedFor reports whether userID may control the session.
func (s *Session) AllowedFor(userID int) bool {
	return s.opts.UserID == 0 || s.opts.UserID == userID
}

// Start begins the countdown, or play directly when there is none.
func (s *Session) Start(now time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != SessionWaiting {
		return
	}
	s.lastActive = time.Now()
	s.countdownStart = now
	s.phase = SessionCountdown
	if s.opts.Countdown <= 0 {
		s.phase = SessionPlaying
	}
}

// Controls lists the input names a client may send intents for.
func (s *Session) Controls() []string {
	switch s.opts.Mode {
	case ModePvAI:
		return []string{"p1"}
	case ModePvP, ModeTournament:
		return []string{"p1", "p2"}
	case ModeFourPlayer:
		return []string{string(SideTop), string(SideBottom), string(SideLeft), string(SideRight)}
	}
	return nil
}

// SetIntent records whether a direction key is held for a control.
func (s *Session) SetIntent(control string, dir Direction, held bool) error {
	control = strings.ToLower(strings.TrimSpace(control))
	allowed := false
	for _, c := range s.Controls() {
		if c == control {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %q", ErrControlNotAllowed, control)
	}
	if s.four != nil {
		if Side(control).Horizontal() == dir.vertical() {
			return fmt.Errorf("%w: %q for the %s paddle", ErrInvalidDirection, dir, control)
		}
	} else if !dir.vertical() {
		return fmt.Errorf("%w: %q for a side paddle", ErrInvalidDirection, dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.held[control]
	if !ok {
		keys = make(map[Direction]bool)
		s.held[control] = keys
	}
	keys[dir] = held
	s.lastActive = time.Now()
	return nil
}

var directionOrder = [...]Direction{DirUp, DirDown, DirLeft, DirRight}

func (s *Session) processInput() {
	for _, control := range s.Controls() {
		keys := s.held[control]
		for _, dir := range directionOrder {
			if !keys[dir] {
				continue
			}
			var err error
			if s.four != nil {
				err = s.four.MovePaddle(Side(control), dir)
			} else if control == "p1" {
				err = s.two.MovePaddle(Player1, dir)
			} else {
				err = s.two.MovePaddle(Player2, dir)
			}
			if err != nil {
				log.Printf("[GAME] Session %s dropped intent %s/%s: %v", s.ID, control, dir, err)
			}
		}
	}
}

// Step runs one frame: input, physics, AI, then the snapshot. dt is in seconds.
func (s *Session) Step(now time.Duration, dt float64) Snapshot {
	s.mu.Lock()
	var finished *Result
	switch s.phase {
	case SessionCountdown:
		if now-s.countdownStart >= s.opts.Countdown {
			s.phase = SessionPlaying
		}
	case SessionPlaying:
		s.processInput()
		if s.four != nil {
			s.four.Update(dt)
		} else {
			s.two.Update(dt)
			if s.ai != nil {
				if err := s.ai.Update(now, Player2); err != nil {
					log.Printf("[GAME] Session %s AI update failed: %v", s.ID, err)
				}
			}
		}
		finished = s.checkFinished()
	}
	snap := s.snapshotLocked(now)
	s.mu.Unlock()

	if finished != nil {
		s.dispatch(*finished)
	}
	return snap
}

func (s *Session) checkFinished() *Result {
	var (
		winner string
		rec    models.MatchRecord
		at     = time.Now().UTC()
	)
	if s.four != nil {
		st := s.four.State()
		if st.Winner == SideNone {
			return nil
		}
		winner = st.Players[st.Winner].Name
		rec = fourPlayerRecord(s.opts, st, at)
	} else {
		st := s.two.State()
		switch st.Winner {
		case Player1:
			winner = s.opts.Names[0]
		case Player2:
			winner = s.opts.Names[1]
		default:
			return nil
		}
		rec = twoPlayerRecord(s.opts, st, at)
	}

	s.phase = SessionFinished
	s.lastActive = at
	s.result = &Result{SessionID: s.ID, Mode: s.opts.Mode, Winner: winner, Record: rec, Tournament: s.opts.Tournament}
	return s.result
}

// dispatch hands a result to the collaborators. Recording and publishing run in the
// background; their failures are logged and never reach the simulation.
func (s *Session) dispatch(res Result) {
	log.Printf("[GAME] Session %s finished (%s): winner %s", s.ID, res.Mode, res.Winner)

	if rec := s.opts.Recorder; rec != nil {
		go func(record models.MatchRecord) {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := rec.RecordMatch(ctx, record); err != nil {
				log.Printf("[GAME] Failed to record match for session %s: %v", s.ID, err)
			}
		}(res.Record)
	}

	if pub := s.opts.Publisher; pub != nil {
		ev := Event{Type: EventGameOver, SessionID: s.ID, Mode: res.Mode, Winner: res.Winner, At: time.Now().UTC()}
		record := res.Record
		ev.Record = &record
		if res.Tournament != nil {
			ev.TournamentID = res.Tournament.ID
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := pub.Publish(ctx, ev); err != nil {
				log.Printf("[GAME] Failed to publish game_over for session %s: %v", s.ID, err)
			}
		}()
	}

	if s.opts.OnFinish != nil {
		s.opts.OnFinish(res)
	}
}

// Pause freezes play. The countdown and AI refresh clock resume where they left off.
func (s *Session) Pause(now time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != SessionPlaying && s.phase != SessionCountdown {
		return ErrNotPlaying
	}
	s.resumeTo = s.phase
	s.pausedAt = now
	s.lastActive = time.Now()
	s.phase = SessionPaused
	return nil
}

func (s *Session) Resume(now time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != SessionPaused {
		return ErrNotPaused
	}
	paused := now - s.pausedAt
	s.countdownStart += paused
	if s.ai != nil {
		s.ai.AdjustForPause(paused)
	}
	s.phase = s.resumeTo
	s.lastActive = time.Now()
	return nil
}

// Restart resets the engine for a rematch and runs the countdown again.
func (s *Session) Restart(now time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.four != nil {
		s.four.Restart()
	} else {
		s.two.Restart()
	}
	if s.ai != nil {
		s.ai.Reset()
	}
	s.held = make(map[string]map[Direction]bool)
	s.result = nil
	s.lastActive = time.Now()
	s.countdownStart = now
	s.phase = SessionCountdown
	if s.opts.Countdown <= 0 {
		s.phase = SessionPlaying
	}
}

// LastActivity is the wall time of the last input, phase change or finish.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) Phase() SessionPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Result returns the outcome once the session has finished.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

func (s *Session) Snapshot(now time.Duration) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(now)
}

func (s *Session) snapshotLocked(now time.Duration) Snapshot {
	snap := Snapshot{
		SessionID: s.ID,
		Mode:      s.opts.Mode,
		Phase:     s.phase,
		Names:     append([]string(nil), s.opts.Names...),
	}
	if s.ai != nil {
		snap.Difficulty = s.opts.Difficulty
	}

	var remaining time.Duration
	switch s.phase {
	case SessionWaiting:
		remaining = s.opts.Countdown
	case SessionCountdown:
		remaining = s.opts.Countdown - (now - s.countdownStart)
	case SessionPaused:
		if s.resumeTo == SessionCountdown {
			remaining = s.opts.Countdown - (s.pausedAt - s.countdownStart)
		}
	}
	if remaining > 0 {
		snap.Countdown = remaining.Seconds()
	}

	if s.four != nil {
		st := s.four.State()
		snap.FourPlayer = &st
	} else {
		st := s.two.State()
		b := s.two.Board()
		snap.TwoPlayer = &st
		snap.Board = &b
	}
	if s.result != nil {
		snap.Winner = s.result.Winner
	}
	return snap
}
