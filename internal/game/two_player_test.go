package game

import (
	"errors"
	"math"
	"testing"
)

const frame = 1.0 / 60

func newTestTwoPlayer(t *testing.T, winningScore int) *TwoPlayerEngine {
	t.Helper()
	tuning := DefaultTuning()
	tuning.WinningScore = winningScore
	e, err := NewTwoPlayerEngine(tuning)
	if err != nil {
		t.Fatalf("NewTwoPlayerEngine: %v", err)
	}
	return e
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewTwoPlayerEngineRejectsNonPositiveScore(t *testing.T) {
	for _, score := range []int{0, -3} {
		tuning := DefaultTuning()
		tuning.WinningScore = score
		if _, err := NewTwoPlayerEngine(tuning); !errors.Is(err, ErrInvalidWinningScore) {
			t.Errorf("winning score %d: got err %v, want ErrInvalidWinningScore", score, err)
		}
	}
}

func TestRestartCentersBallSymmetrically(t *testing.T) {
	e := newTestTwoPlayer(t, StandardGame)
	st := e.State()
	tuning := e.Tuning()

	if !approx(st.Ball.X, (tuning.BoardWidth-tuning.BallSize)/2) || !approx(st.Ball.Y, (tuning.BoardHeight-tuning.BallSize)/2) {
		t.Errorf("ball not centered: %+v", st.Ball)
	}
	if st.P1.Y != st.P2.Y {
		t.Errorf("paddles not level: p1=%v p2=%v", st.P1.Y, st.P2.Y)
	}
	if !approx(st.BallVelocity.Magnitude(), tuning.ServeSpeed) {
		t.Errorf("serve speed = %v, want %v", st.BallVelocity.Magnitude(), tuning.ServeSpeed)
	}
	if st.Winner != NoPlayer || st.P1Score != 0 || st.P2Score != 0 {
		t.Errorf("restart left score/winner: %+v", st)
	}
}

func TestDeadCenterHitBouncesStraightBack(t *testing.T) {
	e := newTestTwoPlayer(t, StandardGame)
	tuning := e.Tuning()
	p1 := e.state.P1
	e.state.Ball = Point{X: p1.X + tuning.PaddleWidth + 1, Y: p1.Y + tuning.PaddleHeight/2 - tuning.BallSize/2}
	e.state.BallVelocity = Point{X: -5, Y: 0}

	e.Update(frame)

	v := e.State().BallVelocity
	if !approx(v.Y, 0) {
		t.Errorf("vy = %v, want 0", v.Y)
	}
	if !approx(v.X, 5*tuning.SpeedUp) {
		t.Errorf("vx = %v, want %v", v.X, 5*tuning.SpeedUp)
	}
	if e.LastPaddleHit() != Player1 {
		t.Errorf("last paddle hit = %v, want Player1", e.LastPaddleHit())
	}
	if got := e.State().Ball.X; got < p1.X+tuning.PaddleWidth {
		t.Errorf("ball left inside paddle at x=%v", got)
	}
}

func TestSamePaddleHitDoesNotAccelerateTwice(t *testing.T) {
	e := newTestTwoPlayer(t, StandardGame)
	tuning := e.Tuning()
	p1 := e.state.P1
	y := p1.Y + tuning.PaddleHeight/2 - tuning.BallSize/2

	e.state.Ball = Point{X: p1.X + tuning.PaddleWidth + 1, Y: y}
	e.state.BallVelocity = Point{X: -5}
	e.Update(frame)
	first := e.State().BallVelocity.Magnitude()

	e.state.Ball = Point{X: p1.X + tuning.PaddleWidth + 1, Y: y}
	e.state.BallVelocity = Point{X: -first}
	e.Update(frame)

	if got := e.State().BallVelocity.Magnitude(); !approx(got, first) {
		t.Errorf("speed after repeat hit = %v, want %v", got, first)
	}
}

func TestHitSpeedIsCapped(t *testing.T) {
	e := newTestTwoPlayer(t, StandardGame)
	tuning := e.Tuning()
	p1 := e.state.P1
	e.state.Ball = Point{X: p1.X + tuning.PaddleWidth + 5, Y: p1.Y + tuning.PaddleHeight/2 - tuning.BallSize/2}
	e.state.BallVelocity = Point{X: -14.9}

	e.Update(frame)

	if got := e.State().BallVelocity.Magnitude(); !approx(got, tuning.MaxSpeed) {
		t.Errorf("speed = %v, want cap %v", got, tuning.MaxSpeed)
	}
}

func TestEdgeHitUsesMaxAngle(t *testing.T) {
	e := newTestTwoPlayer(t, StandardGame)
	tuning := e.Tuning()
	p2 := e.state.P2
	// ball center at the paddle's top end
	e.state.Ball = Point{X: p2.X - tuning.BallSize - 1, Y: p2.Y - tuning.BallSize/2}
	e.state.BallVelocity = Point{X: 5}

	e.Update(frame)

	v := e.State().BallVelocity
	if v.X >= 0 || v.Y >= 0 {
		t.Fatalf("expected ball to leave up and to the left, got %+v", v)
	}
	if !approx(math.Abs(v.X), math.Abs(v.Y)) {
		t.Errorf("expected a 45 degree exit, got %+v", v)
	}
}

func TestBallStaysWithinVerticalBounds(t *testing.T) {
	e := newTestTwoPlayer(t, 1000)
	tuning := e.Tuning()
	maxY := tuning.BoardHeight - tuning.BallSize

	for i := 0; i < 5000; i++ {
		e.Update(frame * float64(1+i%3))
		y := e.State().Ball.Y
		if y < 0 || y > maxY {
			t.Fatalf("step %d: ball y=%v outside [0, %v]", i, y, maxY)
		}
	}
}

func TestWallBounceFlipsVerticalVelocity(t *testing.T) {
	e := newTestTwoPlayer(t, StandardGame)
	e.state.Ball = Point{X: 400, Y: 2}
	e.state.BallVelocity = Point{X: 5, Y: -5}

	e.Update(frame)

	st := e.State()
	if st.Ball.Y != 1 {
		t.Errorf("ball y = %v, want push-off to 1", st.Ball.Y)
	}
	if st.BallVelocity.Y != 5 {
		t.Errorf("vy = %v, want 5", st.BallVelocity.Y)
	}
}

func TestPaddleStaysWithinBounds(t *testing.T) {
	e := newTestTwoPlayer(t, StandardGame)
	tuning := e.Tuning()
	maxY := tuning.BoardHeight - tuning.PaddleHeight

	moves := []Direction{DirUp, DirUp, DirDown}
	for i := 0; i < 300; i++ {
		dir := moves[i%len(moves)]
		if i > 150 {
			dir = DirDown
		}
		for _, id := range []PlayerID{Player1, Player2} {
			if err := e.MovePaddle(id, dir); err != nil {
				t.Fatalf("MovePaddle: %v", err)
			}
		}
		st := e.State()
		for _, y := range []float64{st.P1.Y, st.P2.Y} {
			if y < 0 || y > maxY {
				t.Fatalf("move %d: paddle y=%v outside [0, %v]", i, y, maxY)
			}
		}
	}
	if got := e.State().P1.Y; got != maxY {
		t.Errorf("paddle should rest at the bottom, got %v", got)
	}
}

func TestMovePaddleRejectsBadInput(t *testing.T) {
	e := newTestTwoPlayer(t, StandardGame)
	if err := e.MovePaddle(PlayerID(3), DirUp); !errors.Is(err, ErrInvalidPlayer) {
		t.Errorf("unknown player: got %v", err)
	}
	if err := e.MovePaddle(Player1, DirLeft); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("horizontal move: got %v", err)
	}
}

func TestGoalScoresAndServesTowardConceder(t *testing.T) {
	e := newTestTwoPlayer(t, StandardGame)
	e.state.Ball = Point{X: -8, Y: 10}
	e.state.BallVelocity = Point{X: -5}

	e.Update(frame)

	st := e.State()
	if st.P2Score != 1 || st.P1Score != 0 {
		t.Fatalf("score = %d-%d, want 0-1", st.P1Score, st.P2Score)
	}
	if st.BallVelocity.X >= 0 {
		t.Errorf("serve should head to player 1, vx=%v", st.BallVelocity.X)
	}
	if e.LastPaddleHit() != NoPlayer {
		t.Errorf("serve should clear last paddle hit")
	}
}

func TestUpdateAfterWinnerIsNoop(t *testing.T) {
	e := newTestTwoPlayer(t, StandardGame)
	e.state.P1Score = StandardGame - 1
	e.state.Ball = Point{X: e.Tuning().BoardWidth + 1, Y: 100}
	e.state.BallVelocity = Point{X: 5}

	e.Update(frame)
	won := e.State()
	if won.Winner != Player1 || won.P1Score != StandardGame {
		t.Fatalf("expected player 1 to win, got %+v", won)
	}

	for _, dt := range []float64{frame, 0.5, 3, 1e-6} {
		e.Update(dt)
		if e.State() != won {
			t.Fatalf("state changed after winner with dt=%v", dt)
		}
	}

	e.Restart()
	if e.State().Winner != NoPlayer {
		t.Errorf("restart should clear the winner")
	}
}
