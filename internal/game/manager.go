package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BracketStore keeps tournament snapshots outside the process.
type BracketStore interface {
	SaveBracket(ctx context.Context, id string, snap TournamentSnapshot) error
	LoadBracket(ctx context.Context, id string) (*TournamentSnapshot, error)
}

// ErrBracketNotCached is returned by a BracketStore that has nothing under an id.
var ErrBracketNotCached = errors.New("bracket not cached")

// Settings are the defaults every hosted session starts from.
type Settings struct {
	Tuning     Tuning
	FourPlayer FourPlayerTuning
	AI         AIConfig
	Countdown  time.Duration
	TickRate   int
	NewRand    func() *rand.Rand
}

// SessionRequest is what a client asks for when opening a match.
type SessionRequest struct {
	Mode         Mode
	Difficulty   Difficulty
	Names        []string
	UserID       int
	WinningScore int
}

type runner struct {
	cancel context.CancelFunc
}

// runnerSink frees the runner's slot before the final frame goes out, so a sink that
// restarts the session can start a fresh runner straight away.
type runnerSink struct {
	m    *Manager
	id   string
	r    *runner
	next SnapshotSink
}

func (rs runnerSink) PushSnapshot(sessionID string, snap Snapshot) {
	if snap.Phase == SessionFinished {
		rs.m.releaseRunner(rs.id, rs.r)
	}
	if rs.next != nil {
		rs.next.PushSnapshot(sessionID, snap)
	}
}

type tournamentEntry struct {
	mu        sync.Mutex
	coord     *Tournament
	ownerID   int
	sessionID string
}

func (e *tournamentEntry) snapshot() TournamentSnapshot {
	snap := e.coord.Snapshot()
	snap.OwnerID = e.ownerID
	return snap
}

// Manager owns every hosted session and tournament in the process.
type Manager struct {
	ctx         context.Context
	sessions    map[string]*Session
	runners     map[string]*runner
	tournaments map[string]*tournamentEntry
	settings    Settings
	recorder    Recorder
	publisher   EventPublisher
	brackets    BracketStore
	mu          sync.RWMutex
}

// NewManager creates a manager. Runners it starts stop when ctx is cancelled.
// recorder, publisher and brackets may be nil.
func NewManager(ctx context.Context, settings Settings, recorder Recorder, publisher EventPublisher, brackets BracketStore) *Manager {
	if settings.Tuning == (Tuning{}) {
		settings.Tuning = DefaultTuning()
	}
	if settings.FourPlayer == (FourPlayerTuning{}) {
		settings.FourPlayer = DefaultFourPlayerTuning()
	}
	if settings.AI == (AIConfig{}) {
		settings.AI = DefaultAIConfig()
	}
	if settings.TickRate <= 0 {
		settings.TickRate = DefaultTickRate
	}
	if settings.NewRand == nil {
		settings.NewRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	return &Manager{
		ctx:         ctx,
		sessions:    make(map[string]*Session),
		runners:     make(map[string]*runner),
		tournaments: make(map[string]*tournamentEntry),
		settings:    settings,
		recorder:    recorder,
		publisher:   publisher,
		brackets:    brackets,
	}
}

func (m *Manager) Settings() Settings {
	return m.settings
}

// CreateSession validates a request and registers a new session in the waiting phase.
func (m *Manager) CreateSession(req SessionRequest) (*Session, error) {
	names := append([]string(nil), req.Names...)
	if req.Mode == ModePvAI && len(names) == 1 {
		names = append(names, "AI")
	}
	tuning := m.settings.Tuning
	if req.WinningScore != 0 {
		tuning.WinningScore = req.WinningScore
	}
	return m.createSession(SessionOptions{
		Mode:       req.Mode,
		Difficulty: req.Difficulty,
		Names:      names,
		UserID:     req.UserID,
		Tuning:     tuning,
	})
}

func (m *Manager) createSession(opts SessionOptions) (*Session, error) {
	opts.FourPlayer = m.settings.FourPlayer
	opts.AI = m.settings.AI
	opts.Countdown = m.settings.Countdown
	opts.Rand = m.settings.NewRand()
	opts.Recorder = m.recorder
	opts.Publisher = m.publisher
	if opts.Tuning == (Tuning{}) {
		opts.Tuning = m.settings.Tuning
	}

	s, err := NewSession(uuid.NewString(), opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Printf("[GAME] Created session %s (%s) for user %d", s.ID, s.Mode(), opts.UserID)
	return s, nil
}

// StartSession launches the frame loop for a session, pushing snapshots to sink.
// Starting a session that already runs is a no-op. A finished session's runner exits, so
// a restarted session has to be started again.
func (m *Manager) StartSession(id string, sink SnapshotSink) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	if _, running := m.runners[id]; running {
		m.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(m.ctx)
	r := &runner{cancel: cancel}
	m.runners[id] = r
	m.mu.Unlock()

	go func() {
		RunSession(ctx, s, runnerSink{m: m, id: id, r: r, next: sink}, m.settings.TickRate)
		cancel()
		m.releaseRunner(id, r)
	}()
	return nil
}

// releaseRunner forgets r if it is still the session's runner.
func (m *Manager) releaseRunner(id string, r *runner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runners[id] == r {
		delete(m.runners, id)
	}
}

// Running reports whether a session currently has a frame loop.
func (m *Manager) Running(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.runners[id]
	return ok
}

func (m *Manager) GetSession(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// EndSession stops a session's runner and forgets it.
func (m *Manager) EndSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	if r, ok := m.runners[id]; ok {
		r.cancel()
		delete(m.runners, id)
	}
	delete(m.sessions, id)
	return nil
}

func (m *Manager) ActiveSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) ActiveTournamentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tournaments)
}

// CreateTournament registers a new bracket. Roster problems come back as *ValidationError.
func (m *Manager) CreateTournament(ctx context.Context, names []string, ownerID int) (string, TournamentSnapshot, error) {
	coord := NewTournament(m.settings.NewRand())
	if err := coord.StartTournament(names); err != nil {
		return "", TournamentSnapshot{}, err
	}
	id := uuid.NewString()
	entry := &tournamentEntry{coord: coord, ownerID: ownerID}
	snap := entry.snapshot()

	m.mu.Lock()
	m.tournaments[id] = entry
	m.mu.Unlock()

	m.saveBracket(ctx, id, snap)
	log.Printf("[TOURNAMENT] Created tournament %s with %d players for user %d", id, coord.Size(), ownerID)
	return id, snap, nil
}

// tournament finds a tournament in memory, falling back to the bracket store.
func (m *Manager) tournament(ctx context.Context, id string) (*tournamentEntry, error) {
	m.mu.RLock()
	entry, ok := m.tournaments[id]
	m.mu.RUnlock()
	if ok {
		return entry, nil
	}
	if m.brackets == nil {
		return nil, ErrTournamentNotFound
	}

	snap, err := m.brackets.LoadBracket(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrBracketNotCached) {
			log.Printf("[TOURNAMENT] Failed to load bracket %s: %v", id, err)
		}
		return nil, ErrTournamentNotFound
	}
	coord, err := RestoreTournament(*snap, m.settings.NewRand())
	if err != nil {
		return nil, fmt.Errorf("restore tournament %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.tournaments[id]; ok {
		return existing, nil
	}
	entry = &tournamentEntry{coord: coord, ownerID: snap.OwnerID}
	m.tournaments[id] = entry
	log.Printf("[TOURNAMENT] Restored tournament %s from cache", id)
	return entry, nil
}

func (m *Manager) GetTournament(ctx context.Context, id string) (TournamentSnapshot, error) {
	entry, err := m.tournament(ctx, id)
	if err != nil {
		return TournamentSnapshot{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.snapshot(), nil
}

// AuthorizeTournament reports ErrNotOwner unless userID created the tournament.
func (m *Manager) AuthorizeTournament(ctx context.Context, id string, userID int) error {
	entry, err := m.tournament(ctx, id)
	if err != nil {
		return err
	}
	if entry.ownerID != 0 && entry.ownerID != userID {
		return ErrNotOwner
	}
	return nil
}

// RecordTournamentResult reports the winner of a bracket match.
func (m *Manager) RecordTournamentResult(ctx context.Context, id string, matchIndex int, winner string) (TournamentSnapshot, error) {
	entry, err := m.tournament(ctx, id)
	if err != nil {
		return TournamentSnapshot{}, err
	}

	entry.mu.Lock()
	if err := entry.coord.RecordMatchResult(matchIndex, winner); err != nil {
		entry.mu.Unlock()
		return TournamentSnapshot{}, err
	}
	entry.sessionID = ""
	snap := entry.snapshot()
	entry.mu.Unlock()

	m.saveBracket(ctx, id, snap)
	if snap.Phase == PhaseChampion {
		log.Printf("[TOURNAMENT] Tournament %s won by %s", id, snap.Champion)
	}
	return snap, nil
}

// StartTournamentMatch opens a session for the bracket's current match, or returns the
// one already open for it. A finished session is still returned until its result has
// been recorded.
func (m *Manager) StartTournamentMatch(ctx context.Context, id string, userID int) (*Session, error) {
	entry, err := m.tournament(ctx, id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	match, ok := entry.coord.CurrentMatch()
	if !ok {
		return nil, ErrTournamentNotRunning
	}
	if entry.sessionID != "" {
		if s, err := m.GetSession(entry.sessionID); err == nil {
			return s, nil
		}
	}

	tm := &TournamentMatch{
		ID:         id,
		MatchIndex: entry.coord.CurrentMatchIndex(),
		Round:      entry.coord.Round(),
		Size:       entry.coord.Size(),
	}
	s, err := m.createSession(SessionOptions{
		Mode:       ModeTournament,
		Names:      []string{match.Player1, match.Player2},
		UserID:     userID,
		Tournament: tm,
		OnFinish:   m.tournamentMatchFinished,
	})
	if err != nil {
		return nil, err
	}
	entry.sessionID = s.ID
	return s, nil
}

func (m *Manager) tournamentMatchFinished(res Result) {
	if res.Tournament == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if _, err := m.RecordTournamentResult(ctx, res.Tournament.ID, res.Tournament.MatchIndex, res.Winner); err != nil {
		log.Printf("[TOURNAMENT] Failed to advance tournament %s after session %s: %v", res.Tournament.ID, res.SessionID, err)
	}
}

func (m *Manager) saveBracket(ctx context.Context, id string, snap TournamentSnapshot) {
	if m.brackets == nil {
		return
	}
	if err := m.brackets.SaveBracket(ctx, id, snap); err != nil {
		log.Printf("[TOURNAMENT] Failed to cache bracket %s: %v", id, err)
	}
}
