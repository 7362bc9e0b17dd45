package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBrackets struct {
	mu    sync.Mutex
	saved map[string]TournamentSnapshot
	saves int
}

func newMemoryBrackets() *memoryBrackets {
	return &memoryBrackets{saved: make(map[string]TournamentSnapshot)}
}

func (b *memoryBrackets) SaveBracket(_ context.Context, id string, snap TournamentSnapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saved[id] = snap
	b.saves++
	return nil
}

func (b *memoryBrackets) LoadBracket(_ context.Context, id string) (*TournamentSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap, ok := b.saved[id]
	if !ok {
		return nil, ErrBracketNotCached
	}
	return &snap, nil
}

type collectingSink struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (c *collectingSink) PushSnapshot(_ string, snap Snapshot) {
	c.mu.Lock()
	c.snaps = append(c.snaps, snap)
	c.mu.Unlock()
}

func (c *collectingSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snaps)
}

func testSettings(winningScore int) Settings {
	tuning := DefaultTuning()
	tuning.WinningScore = winningScore
	seed := int64(0)
	return Settings{
		Tuning:   tuning,
		TickRate: 200,
		NewRand: func() *rand.Rand {
			seed++
			return rand.New(rand.NewSource(seed))
		},
	}
}

func TestCreateSessionFillsAIOpponent(t *testing.T) {
	m := NewManager(context.Background(), testSettings(5), nil, nil, nil)

	s, err := m.CreateSession(SessionRequest{Mode: ModePvAI, Difficulty: DifficultyEasy, Names: []string{"Ann"}, UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann", "AI"}, s.Names())
	assert.Equal(t, SessionWaiting, s.Phase())
	assert.Equal(t, DifficultyEasy, s.Snapshot(0).Difficulty)

	got, err := m.GetSession(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.ActiveSessionCount())
}

func TestCreateSessionRejectsWrongSeats(t *testing.T) {
	m := NewManager(context.Background(), testSettings(5), nil, nil, nil)

	_, err := m.CreateSession(SessionRequest{Mode: ModePvP, Names: []string{"Ann"}})
	assert.ErrorIs(t, err, ErrWrongPlayerCount)

	_, err = m.CreateSession(SessionRequest{Mode: ModeFourPlayer, Names: []string{"a", "b"}})
	assert.ErrorIs(t, err, ErrWrongPlayerCount)
	assert.Zero(t, m.ActiveSessionCount())
}

func TestCreateSessionWinningScoreOverride(t *testing.T) {
	m := NewManager(context.Background(), testSettings(5), nil, nil, nil)
	s, err := m.CreateSession(SessionRequest{Mode: ModePvP, Names: []string{"Ann", "Bo"}, WinningScore: LongGame})
	require.NoError(t, err)
	assert.Equal(t, LongGame, s.two.Tuning().WinningScore)

	_, err = m.CreateSession(SessionRequest{Mode: ModePvP, Names: []string{"Ann", "Bo"}, WinningScore: -1})
	assert.ErrorIs(t, err, ErrInvalidWinningScore)
}

func TestEndSession(t *testing.T) {
	m := NewManager(context.Background(), testSettings(5), nil, nil, nil)
	s, err := m.CreateSession(SessionRequest{Mode: ModePvP, Names: []string{"Ann", "Bo"}})
	require.NoError(t, err)
	require.NoError(t, m.StartSession(s.ID, nil))
	assert.True(t, m.Running(s.ID))

	require.NoError(t, m.EndSession(s.ID))
	assert.False(t, m.Running(s.ID))
	_, err = m.GetSession(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.EndSession(s.ID), ErrSessionNotFound)
	assert.ErrorIs(t, m.StartSession(s.ID, nil), ErrSessionNotFound)
}

func TestStartSessionPushesSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewManager(ctx, testSettings(5), nil, nil, nil)
	s, err := m.CreateSession(SessionRequest{Mode: ModePvP, Names: []string{"Ann", "Bo"}})
	require.NoError(t, err)

	sink := &collectingSink{}
	require.NoError(t, m.StartSession(s.ID, sink))
	require.NoError(t, m.StartSession(s.ID, sink))

	assert.Eventually(t, func() bool { return sink.count() >= 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, SessionPlaying, s.Phase())

	cancel()
	assert.Eventually(t, func() bool { return !m.Running(s.ID) }, 2*time.Second, 10*time.Millisecond)
}

func TestCreateTournamentValidation(t *testing.T) {
	m := NewManager(context.Background(), testSettings(5), nil, nil, nil)

	_, _, err := m.CreateTournament(context.Background(), []string{"a", "b", "c"}, 1)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ReasonInvalidSize, verr.Reason)
	assert.Zero(t, m.ActiveTournamentCount())
}

func TestTournamentMatchSessionIsReused(t *testing.T) {
	brackets := newMemoryBrackets()
	m := NewManager(context.Background(), testSettings(5), nil, nil, brackets)
	ctx := context.Background()

	id, snap, err := m.CreateTournament(ctx, []string{"Ann", "Bo", "Cy", "Dee"}, 1)
	require.NoError(t, err)
	assert.Equal(t, PhaseRoundInProgress, snap.Phase)
	assert.Equal(t, 1, brackets.saves)

	first, err := m.StartTournamentMatch(ctx, id, 1)
	require.NoError(t, err)
	again, err := m.StartTournamentMatch(ctx, id, 1)
	require.NoError(t, err)
	assert.Same(t, first, again)

	match := snap.Rounds[0][0]
	assert.Equal(t, []string{match.Player1, match.Player2}, first.Names())
	require.NotNil(t, first.Tournament())
	assert.Equal(t, 1, first.Tournament().Round)
	assert.Equal(t, 4, first.Tournament().Size)
}

func TestFinishedTournamentSessionAdvancesBracket(t *testing.T) {
	brackets := newMemoryBrackets()
	m := NewManager(context.Background(), testSettings(1), nil, nil, brackets)
	ctx := context.Background()

	id, snap, err := m.CreateTournament(ctx, []string{"Ann", "Bo", "Cy", "Dee"}, 1)
	require.NoError(t, err)

	s, err := m.StartTournamentMatch(ctx, id, 1)
	require.NoError(t, err)
	s.Start(0)
	sendPastRight(s)
	s.Step(time.Millisecond, frame)

	after, err := m.GetTournament(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, snap.Rounds[0][0].Player1, after.Rounds[0][0].Winner)
	assert.Equal(t, 1, after.CurrentMatch)
	assert.Equal(t, snap.Rounds[0][0].Player1, after.Rounds[1][0].Player1)
	assert.Equal(t, 2, brackets.saves)

	next, err := m.StartTournamentMatch(ctx, id, 1)
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, next.ID)
	assert.Equal(t, 1, next.Tournament().MatchIndex)
}

func TestTournamentRestoredFromBracketStore(t *testing.T) {
	brackets := newMemoryBrackets()
	ctx := context.Background()
	first := NewManager(ctx, testSettings(5), nil, nil, brackets)
	id, snap, err := first.CreateTournament(ctx, []string{"Ann", "Bo", "Cy", "Dee"}, 1)
	require.NoError(t, err)

	second := NewManager(ctx, testSettings(5), nil, nil, brackets)
	got, err := second.GetTournament(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	winner := snap.Rounds[0][0].Player2
	after, err := second.RecordTournamentResult(ctx, id, 0, winner)
	require.NoError(t, err)
	assert.Equal(t, winner, after.Rounds[0][0].Winner)

	_, err = second.RecordTournamentResult(ctx, id, 0, winner)
	assert.ErrorIs(t, err, ErrMatchOutOfOrder)

	_, err = second.GetTournament(ctx, "missing")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestReapIdleEndsStaleSessions(t *testing.T) {
	m := NewManager(context.Background(), testSettings(5), nil, nil, nil)
	stale, err := m.CreateSession(SessionRequest{Mode: ModePvP, Names: []string{"Ann", "Bo"}})
	require.NoError(t, err)
	fresh, err := m.CreateSession(SessionRequest{Mode: ModePvP, Names: []string{"Cy", "Dee"}})
	require.NoError(t, err)

	later := time.Now().Add(20 * time.Minute)
	fresh.mu.Lock()
	fresh.lastActive = later.Add(-time.Minute)
	fresh.mu.Unlock()

	assert.Equal(t, 1, m.reapIdle(later, 15*time.Minute))
	_, err = m.GetSession(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.GetSession(fresh.ID)
	assert.NoError(t, err)
}

func TestIntentRefreshesActivity(t *testing.T) {
	s := newTestSession(t, SessionOptions{Mode: ModePvP, Names: []string{"Ann", "Bo"}})
	before := s.LastActivity()
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, s.SetIntent("p2", DirDown, true))
	assert.True(t, s.LastActivity().After(before))
}

// restartingSink asks for a rematch as soon as it sees the final frame.
type restartingSink struct {
	m *Manager
	s *Session

	mu           sync.Mutex
	restarted    bool
	startErr     error
	runningAfter bool
	framesAfter  int
}

func (r *restartingSink) PushSnapshot(id string, snap Snapshot) {
	r.mu.Lock()
	if r.restarted {
		r.framesAfter++
		r.mu.Unlock()
		return
	}
	if snap.Phase != SessionFinished {
		r.mu.Unlock()
		return
	}
	r.restarted = true
	r.mu.Unlock()

	r.s.Restart(r.s.Clock().Now())
	err := r.m.StartSession(id, r)
	running := r.m.Running(id)

	r.mu.Lock()
	r.startErr = err
	r.runningAfter = running
	r.mu.Unlock()
}

func (r *restartingSink) frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.framesAfter
}

func TestRestartFromFinalFrameGetsNewRunner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewManager(ctx, testSettings(1), nil, nil, nil)
	s, err := m.CreateSession(SessionRequest{Mode: ModePvP, Names: []string{"Ann", "Bo"}})
	require.NoError(t, err)
	sendPastRight(s)

	sink := &restartingSink{m: m, s: s}
	require.NoError(t, m.StartSession(s.ID, sink))

	require.Eventually(t, func() bool { return sink.frames() >= 3 }, 2*time.Second, 10*time.Millisecond,
		"restarted session produced no frames")
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.NoError(t, sink.startErr)
	assert.True(t, sink.runningAfter)
}

func TestFinishedTournamentSessionKeptUntilResultRecorded(t *testing.T) {
	ctx := context.Background()
	m := NewManager(ctx, testSettings(1), nil, nil, nil)
	id, _, err := m.CreateTournament(ctx, []string{"Ann", "Bo", "Cy", "Dee"}, 1)
	require.NoError(t, err)

	s, err := m.StartTournamentMatch(ctx, id, 1)
	require.NoError(t, err)

	// finished but the bracket has not moved yet
	s.mu.Lock()
	s.phase = SessionFinished
	s.mu.Unlock()

	again, err := m.StartTournamentMatch(ctx, id, 1)
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, 1, m.ActiveSessionCount())

	_, err = m.RecordTournamentResult(ctx, id, 0, s.Names()[0])
	require.NoError(t, err)

	next, err := m.StartTournamentMatch(ctx, id, 1)
	require.NoError(t, err)
	assert.NotSame(t, s, next)
	assert.Equal(t, 1, next.Tournament().MatchIndex)
}

func TestAuthorizeTournament(t *testing.T) {
	brackets := newMemoryBrackets()
	ctx := context.Background()
	m := NewManager(ctx, testSettings(5), nil, nil, brackets)
	id, snap, err := m.CreateTournament(ctx, []string{"Ann", "Bo", "Cy", "Dee"}, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.OwnerID)

	assert.NoError(t, m.AuthorizeTournament(ctx, id, 4))
	assert.ErrorIs(t, m.AuthorizeTournament(ctx, id, 5), ErrNotOwner)
	assert.ErrorIs(t, m.AuthorizeTournament(ctx, "missing", 4), ErrTournamentNotFound)

	restored := NewManager(ctx, testSettings(5), nil, nil, brackets)
	assert.ErrorIs(t, restored.AuthorizeTournament(ctx, id, 5), ErrNotOwner)
	assert.NoError(t, restored.AuthorizeTournament(ctx, id, 4))
}

func TestSessionAllowedFor(t *testing.T) {
	m := NewManager(context.Background(), testSettings(5), nil, nil, nil)
	owned, err := m.CreateSession(SessionRequest{Mode: ModePvP, Names: []string{"Ann", "Bo"}, UserID: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, owned.Owner())
	assert.True(t, owned.AllowedFor(3))
	assert.False(t, owned.AllowedFor(4))

	open, err := m.CreateSession(SessionRequest{Mode: ModePvP, Names: []string{"Ann", "Bo"}})
	require.NoError(t, err)
	assert.True(t, open.AllowedFor(4))
}
