package game

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// PaddleController is the view of a two-player engine the AI needs.
type PaddleController interface {
	State() TwoPlayerState
	Board() Board
	MovePaddle(id PlayerID, dir Direction) error
}

// OpponentAI steers one paddle of a two-player engine. It re-aims at most once per
// refresh interval and nudges its paddle toward the last aim point on every call.
type OpponentAI struct {
	engine     PaddleController
	difficulty Difficulty
	cfg        AIConfig
	rng        *rand.Rand

	targetY    float64
	lastUpdate time.Duration
}

func NewOpponentAI(engine PaddleController, difficulty Difficulty, cfg AIConfig, rng *rand.Rand) *OpponentAI {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	ai := &OpponentAI{engine: engine, difficulty: difficulty, cfg: cfg, rng: rng}
	ai.Reset()
	return ai
}

// Reset drops any prediction and aims at the board center.
func (a *OpponentAI) Reset() {
	a.targetY = a.engine.Board().Height / 2
	a.lastUpdate = 0
}

// Update is called once per frame with a monotonic timestamp.
func (a *OpponentAI) Update(now time.Duration, side PlayerID) error {
	if !side.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPlayer, side)
	}
	if now-a.lastUpdate > a.cfg.RefreshInterval {
		a.targetY = a.computeTarget(side)
		a.lastUpdate = now
	}
	return a.movePaddle(side)
}

// AdjustForPause shifts the refresh clock so a resumed game does not re-aim immediately.
func (a *OpponentAI) AdjustForPause(paused time.Duration) {
	a.lastUpdate += paused
}

// TargetY is the paddle-center y the AI is steering toward.
func (a *OpponentAI) TargetY() float64 {
	return a.targetY
}

func (a *OpponentAI) Difficulty() Difficulty {
	return a.difficulty
}

func (a *OpponentAI) movePaddle(side PlayerID) error {
	st := a.engine.State()
	b := a.engine.Board()
	paddle := st.P2
	if side == Player1 {
		paddle = st.P1
	}
	gap := a.targetY - (paddle.Y + b.PaddleHeight/2)
	if math.Abs(gap) <= a.cfg.DeadZone {
		return nil
	}
	if gap < 0 {
		return a.engine.MovePaddle(side, DirUp)
	}
	return a.engine.MovePaddle(side, DirDown)
}

func (a *OpponentAI) computeTarget(side PlayerID) float64 {
	st := a.engine.State()
	b := a.engine.Board()
	center := b.Height / 2

	var (
		own, human Point
		distanceX  float64
		approach   bool
	)
	if side == Player2 {
		own, human = st.P2, st.P1
		approach = st.BallVelocity.X > 0
		distanceX = own.X - (st.Ball.X + b.BallSize)
	} else {
		own, human = st.P1, st.P2
		approach = st.BallVelocity.X < 0
		distanceX = st.Ball.X - (own.X + b.PaddleWidth)
	}
	if !approach {
		return center
	}

	predicted := PredictBallY(st.Ball.Y+b.BallSize/2, st.BallVelocity.Y, distanceX, st.BallVelocity.X, b.Height)

	switch a.difficulty {
	case DifficultyEasy:
		predicted += (a.rng.Float64()*2 - 1) * a.cfg.EasyError
	case DifficultyMedium:
	case DifficultyHard:
		predicted += a.cornerBias(own, human, b)
	}

	half := b.PaddleHeight / 2
	return clamp(predicted, half, b.Height-half)
}

// cornerBias shades the aim when the human camps in a corner zone, unless the AI is
// already parked in the opposite one.
func (a *OpponentAI) cornerBias(own, human Point, b Board) float64 {
	zone := b.Height * a.cfg.CornerZone
	humanCenter := human.Y + b.PaddleHeight/2
	ownCenter := own.Y + b.PaddleHeight/2
	shift := a.cfg.CornerBias * b.PaddleHeight

	switch {
	case humanCenter < zone && ownCenter <= b.Height-zone:
		return -shift
	case humanCenter > b.Height-zone && ownCenter >= zone:
		return shift
	}
	return 0
}

// PredictBallY extrapolates the ball's y once it has travelled distanceX horizontally,
// folding the result back into [0, height] once per wall bounce.
func PredictBallY(y, vy, distanceX, vx, height float64) float64 {
	if height <= 0 {
		return 0
	}
	if vx == 0 || distanceX <= 0 {
		return clamp(y, 0, height)
	}
	p := y + vy*(distanceX/math.Abs(vx))
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return height / 2
	}
	// a long flight folds many times; reduce by whole round trips first
	period := 2 * height
	if math.Abs(p) > period {
		p = math.Mod(p, period)
	}
	for p < 0 || p > height {
		if p < 0 {
			p = -p
		}
		if p > height {
			p = period - p
		}
	}
	return p
}
