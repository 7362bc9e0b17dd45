package game

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

var fourNames = []string{"Ana", "Ben", "Cy", "Dee"}

func newTestFourPlayer(t *testing.T, seed int64) *FourPlayerEngine {
	t.Helper()
	e, err := NewFourPlayerEngine(fourNames, DefaultFourPlayerTuning(), rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewFourPlayerEngine: %v", err)
	}
	return e
}

func eliminate(e *FourPlayerEngine, side Side) {
	for e.state.Players[side].Lives > 0 {
		e.handleLifeLoss(side)
	}
}

func TestNewFourPlayerEngineNeedsFourNames(t *testing.T) {
	tuning := DefaultFourPlayerTuning()
	cases := [][]string{
		{"a", "b", "c"},
		{"a", "b", "c", "d", "e"},
		{"a", "", "c", "d"},
		nil,
	}
	for _, names := range cases {
		if _, err := NewFourPlayerEngine(names, tuning, nil); !errors.Is(err, ErrNeedFourPlayers) {
			t.Errorf("names %q: got %v, want ErrNeedFourPlayers", names, err)
		}
	}
}

func TestFourPlayerStartsWithFullLives(t *testing.T) {
	e := newTestFourPlayer(t, 1)
	st := e.State()
	if len(st.Active) != 4 {
		t.Fatalf("active = %v, want all four sides", st.Active)
	}
	for i, side := range Sides {
		slot := st.Players[side]
		if slot.Name != fourNames[i] || slot.Lives != 3 || slot.IsEliminated {
			t.Errorf("%s slot = %+v", side, slot)
		}
	}
}

// servedSide returns the side the ball is heading for and the angle off that side's normal.
func servedSide(v Point) (Side, float64) {
	best, bestDot := SideNone, math.Inf(-1)
	for _, side := range Sides {
		if d := v.Normalize().Dot(outward(side)); d > bestDot {
			best, bestDot = side, d
		}
	}
	return best, math.Acos(clamp(bestDot, -1, 1))
}

func TestServeTargetsActiveSideAtAnAngle(t *testing.T) {
	e := newTestFourPlayer(t, 7)
	eliminate(e, SideTop)
	eliminate(e, SideLeft)

	for i := 0; i < 200; i++ {
		e.serve()
		side, angle := servedSide(e.state.BallVelocity)
		if side == SideTop || side == SideLeft {
			t.Fatalf("serve %d aimed at eliminated side %s", i, side)
		}
		if angle < 0.3-1e-9 || angle > 0.7+1e-9 {
			t.Fatalf("serve %d angle %v outside [0.3, 0.7]", i, angle)
		}
	}
}

func TestTopPaddleHitReflectsAndSpeedsUp(t *testing.T) {
	e := newTestFourPlayer(t, 1)
	tuning := e.Tuning()
	top := e.state.Players[SideTop].Position
	e.state.Ball = Point{X: top.X + tuning.PaddleLength/2 - tuning.BallSize/2, Y: tuning.PaddleThickness + 2}
	e.state.BallVelocity = Point{Y: -5}

	e.Update(frame)

	v := e.State().BallVelocity
	if !approx(v.X, 0) || !approx(v.Y, 5*tuning.SpeedUp) {
		t.Errorf("velocity = %+v, want (0, %v)", v, 5*tuning.SpeedUp)
	}
	if e.LastPaddleHit() != SideTop {
		t.Errorf("last paddle hit = %q", e.LastPaddleHit())
	}
}

func TestEliminatedSideBouncesInsteadOfLosingLife(t *testing.T) {
	e := newTestFourPlayer(t, 3)
	eliminate(e, SideTop)
	before := e.State()

	e.state.Ball = Point{X: 40, Y: 2}
	e.state.BallVelocity = Point{X: 1, Y: -5}
	e.Update(frame)

	st := e.State()
	if st.BallVelocity.Y != 5 {
		t.Errorf("vy = %v, want sign flip to 5", st.BallVelocity.Y)
	}
	if st.Ball.Y < 0 {
		t.Errorf("ball y = %v, should be reflected inside the board", st.Ball.Y)
	}
	if st.Players[SideTop].Lives != 0 || len(st.Active) != len(before.Active) {
		t.Errorf("eliminated side lost another life: %+v", st.Players[SideTop])
	}
}

func TestMissCostsExactlyOneLife(t *testing.T) {
	e := newTestFourPlayer(t, 5)
	e.state.Ball = Point{X: 20, Y: e.Tuning().BoardSize - 2}
	e.state.BallVelocity = Point{Y: 5}

	e.Update(frame)

	st := e.State()
	if got := st.Players[SideBottom].Lives; got != 2 {
		t.Errorf("bottom lives = %d, want 2", got)
	}
	for _, side := range []Side{SideTop, SideLeft, SideRight} {
		if st.Players[side].Lives != 3 {
			t.Errorf("%s lives changed to %d", side, st.Players[side].Lives)
		}
	}
	center := (e.Tuning().BoardSize - e.Tuning().BallSize) / 2
	if st.Ball != (Point{X: center, Y: center}) {
		t.Errorf("ball not re-served from center: %+v", st.Ball)
	}
}

func TestEliminationOrderAndWinner(t *testing.T) {
	e := newTestFourPlayer(t, 9)
	prevActive := len(e.State().Active)
	prevLives := map[Side]int{}
	for _, side := range Sides {
		prevLives[side] = 3
	}

	order := []Side{SideTop, SideLeft, SideBottom}
	for _, side := range order {
		for i := 0; i < 3; i++ {
			e.handleLifeLoss(side)
			st := e.State()

			if len(st.Active) > prevActive {
				t.Fatalf("active sides grew from %d to %d", prevActive, len(st.Active))
			}
			prevActive = len(st.Active)
			if (st.Winner != SideNone) != (len(st.Active) == 1) {
				t.Fatalf("winner=%q with %d active sides", st.Winner, len(st.Active))
			}
			for s, slot := range st.Players {
				if slot.Lives > prevLives[s] {
					t.Fatalf("%s lives went up", s)
				}
				prevLives[s] = slot.Lives
			}
		}
	}

	st := e.State()
	if st.Winner != SideRight {
		t.Fatalf("winner = %q, want right", st.Winner)
	}
	for i, side := range order {
		slot := st.Players[side]
		if !slot.IsEliminated || slot.EliminationOrder != i+1 {
			t.Errorf("%s slot = %+v, want elimination order %d", side, slot, i+1)
		}
	}

	frozen := e.State()
	e.Update(frame)
	if e.State().Ball != frozen.Ball || e.State().Winner != SideRight {
		t.Errorf("update after winner changed state")
	}
}

func TestFourPlayerMovePaddleAxes(t *testing.T) {
	e := newTestFourPlayer(t, 1)
	if err := e.MovePaddle(SideTop, DirUp); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("top/up: got %v", err)
	}
	if err := e.MovePaddle(SideLeft, DirRight); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("left/right: got %v", err)
	}
	if err := e.MovePaddle(Side("middle"), DirUp); !errors.Is(err, ErrInvalidSide) {
		t.Errorf("unknown side: got %v", err)
	}

	limit := e.Tuning().BoardSize - e.Tuning().PaddleLength
	for i := 0; i < 100; i++ {
		if err := e.MovePaddle(SideTop, DirRight); err != nil {
			t.Fatal(err)
		}
		if err := e.MovePaddle(SideLeft, DirUp); err != nil {
			t.Fatal(err)
		}
	}
	st := e.State()
	if st.Players[SideTop].Position.X != limit {
		t.Errorf("top paddle x = %v, want %v", st.Players[SideTop].Position.X, limit)
	}
	if st.Players[SideLeft].Position.Y != 0 {
		t.Errorf("left paddle y = %v, want 0", st.Players[SideLeft].Position.Y)
	}
}

func TestEliminatedPaddleIgnoresMoves(t *testing.T) {
	e := newTestFourPlayer(t, 1)
	eliminate(e, SideRight)
	before := e.State().Players[SideRight].Position
	if err := e.MovePaddle(SideRight, DirDown); err != nil {
		t.Fatal(err)
	}
	if e.State().Players[SideRight].Position != before {
		t.Errorf("eliminated paddle moved")
	}
}

func TestFourPlayerStateIsACopy(t *testing.T) {
	e := newTestFourPlayer(t, 1)
	st := e.State()
	st.Players[SideTop] = PlayerSlot{Name: "mutated"}
	st.Active[0] = SideNone
	if e.State().Players[SideTop].Name != "Ana" || e.State().Active[0] != SideTop {
		t.Errorf("snapshot shares memory with the engine")
	}
}
