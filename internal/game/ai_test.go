package game

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

type fakeTable struct {
	state TwoPlayerState
	board Board
	moves []Direction
}

func (f *fakeTable) State() TwoPlayerState { return f.state }
func (f *fakeTable) Board() Board          { return f.board }

func (f *fakeTable) MovePaddle(id PlayerID, dir Direction) error {
	f.moves = append(f.moves, dir)
	p := &f.state.P2
	if id == Player1 {
		p = &f.state.P1
	}
	p.Y = clamp(p.Y+dir.sign()*f.board.PaddleSpeed, 0, f.board.Height-f.board.PaddleHeight)
	return nil
}

// newFakeTable puts the ball mid-board heading for the right paddle.
func newFakeTable() *fakeTable {
	return &fakeTable{
		board: Board{Width: 800, Height: 400, PaddleWidth: 10, PaddleHeight: 80, PaddleSpeed: 6, BallSize: 10},
		state: TwoPlayerState{
			P1:           Point{X: 10, Y: 160},
			P2:           Point{X: 780, Y: 160},
			Ball:         Point{X: 400, Y: 195},
			BallVelocity: Point{X: 5, Y: 0},
		},
	}
}

func TestPredictBallYFoldsWallBounces(t *testing.T) {
	const height = 400
	tests := []struct {
		name      string
		distanceX float64
		want      float64
	}{
		{"no bounce", 10, 0},
		{"one bounce", 30, 20},
		{"two bounces", 500, 310},
		{"three bounces", 1000, 190},
	}
	for _, tt := range tests {
		got := PredictBallY(10, -5, tt.distanceX, 5, height)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: PredictBallY = %v, want %v", tt.name, got, tt.want)
		}
		if got < 0 || got > height {
			t.Errorf("%s: %v outside [0, %d]", tt.name, got, height)
		}
	}
}

func TestPredictBallYMatchesStepwiseReflection(t *testing.T) {
	const height = 300
	y, vy, vx := 120.0, 7.0, 3.0
	for _, distance := range []float64{50, 333, 900, 2500} {
		// walk the ball one frame at a time
		py, pvy := y, vy
		for frames := distance / vx; frames > 0; frames-- {
			step := math.Min(frames, 1)
			py += pvy * step
			if py < 0 {
				py, pvy = -py, -pvy
			} else if py > height {
				py, pvy = 2*height-py, -pvy
			}
		}
		if got := PredictBallY(y, vy, distance, vx, height); math.Abs(got-py) > 1e-6 {
			t.Errorf("distance %v: PredictBallY = %v, stepwise = %v", distance, got, py)
		}
	}
}

func TestPredictBallYDegenerateInputs(t *testing.T) {
	if got := PredictBallY(50, 3, 100, 0, 400); got != 50 {
		t.Errorf("vx=0: got %v, want 50", got)
	}
	if got := PredictBallY(50, 3, -20, 5, 400); got != 50 {
		t.Errorf("ball past paddle: got %v, want 50", got)
	}
}

func TestAIRefreshIsThrottled(t *testing.T) {
	table := newFakeTable()
	ai := NewOpponentAI(table, DifficultyMedium, DefaultAIConfig(), rand.New(rand.NewSource(1)))

	table.state.BallVelocity = Point{X: 5, Y: 1}
	if err := ai.Update(500*time.Millisecond, Player2); err != nil {
		t.Fatal(err)
	}
	if ai.TargetY() != 200 {
		t.Fatalf("target refreshed before the interval: %v", ai.TargetY())
	}

	if err := ai.Update(1001*time.Millisecond, Player2); err != nil {
		t.Fatal(err)
	}
	first := ai.TargetY()
	if first == 200 {
		t.Fatalf("target not refreshed after the interval")
	}

	table.state.BallVelocity = Point{X: 5, Y: -1}
	ai.Update(1900*time.Millisecond, Player2)
	if ai.TargetY() != first {
		t.Errorf("target changed inside the refresh window")
	}

	ai.Update(2002*time.Millisecond, Player2)
	if ai.TargetY() == first {
		t.Errorf("target not refreshed on the next interval")
	}
}

func TestAIAimsAtCenterWhenBallMovesAway(t *testing.T) {
	table := newFakeTable()
	table.state.P2.Y = 0
	table.state.BallVelocity = Point{X: -5, Y: 3}
	ai := NewOpponentAI(table, DifficultyHard, DefaultAIConfig(), nil)

	ai.Update(2*time.Second, Player2)

	if ai.TargetY() != table.board.Height/2 {
		t.Errorf("target = %v, want board center", ai.TargetY())
	}
	if len(table.moves) != 1 || table.moves[0] != DirDown {
		t.Errorf("expected one step down toward center, got %v", table.moves)
	}
}

func TestAIDeadZoneAvoidsJitter(t *testing.T) {
	table := newFakeTable()
	table.state.P2.Y = 165 // center 205, within 10px of 200
	ai := NewOpponentAI(table, DifficultyMedium, DefaultAIConfig(), nil)

	for i := 1; i <= 10; i++ {
		ai.Update(time.Duration(i)*100*time.Millisecond, Player2)
	}
	if len(table.moves) != 0 {
		t.Errorf("paddle moved inside the dead zone: %v", table.moves)
	}
}

func TestAIAdjustForPauseDelaysRefresh(t *testing.T) {
	table := newFakeTable()
	ai := NewOpponentAI(table, DifficultyMedium, DefaultAIConfig(), nil)

	ai.Update(1100*time.Millisecond, Player2)
	target := ai.TargetY()

	ai.AdjustForPause(5 * time.Second)
	table.state.BallVelocity = Point{X: 5, Y: 3}
	ai.Update(6500*time.Millisecond, Player2)
	if ai.TargetY() != target {
		t.Errorf("AI re-aimed right after resuming")
	}

	ai.Update(7200*time.Millisecond, Player2)
	if ai.TargetY() == target {
		t.Errorf("AI did not re-aim once the shifted interval passed")
	}
}

func TestAIEasyErrorIsBounded(t *testing.T) {
	cfg := DefaultAIConfig()
	for seed := int64(0); seed < 50; seed++ {
		table := newFakeTable()
		ai := NewOpponentAI(table, DifficultyEasy, cfg, rand.New(rand.NewSource(seed)))
		ai.Update(2*time.Second, Player2)
		if diff := math.Abs(ai.TargetY() - 200); diff > cfg.EasyError {
			t.Fatalf("seed %d: error %v exceeds %v", seed, diff, cfg.EasyError)
		}
	}
}

func TestAIHardCornerBias(t *testing.T) {
	cfg := DefaultAIConfig()
	shift := cfg.CornerBias * 80

	tests := []struct {
		name    string
		humanY  float64
		aiY     float64
		wantDev float64
	}{
		{"human camps top", 0, 160, -shift},
		{"human camps bottom", 320, 160, shift},
		{"mirrored corners", 0, 320, 0},
		{"human centered", 160, 160, 0},
	}
	for _, tt := range tests {
		table := newFakeTable()
		table.state.P1.Y = tt.humanY
		table.state.P2.Y = tt.aiY
		ai := NewOpponentAI(table, DifficultyHard, cfg, nil)
		ai.Update(2*time.Second, Player2)
		if got := ai.TargetY() - 200; math.Abs(got-tt.wantDev) > 1e-9 {
			t.Errorf("%s: target offset = %v, want %v", tt.name, got, tt.wantDev)
		}
	}
}

func TestAIRejectsInvalidSide(t *testing.T) {
	ai := NewOpponentAI(newFakeTable(), DifficultyMedium, DefaultAIConfig(), nil)
	if err := ai.Update(0, NoPlayer); err == nil {
		t.Errorf("expected an error for an invalid side")
	}
}
