package game

import (
	"fmt"
	"math"
)

// TwoPlayerState is a snapshot of a two-paddle rally. Paddle points are top-left corners.
type TwoPlayerState struct {
	P1Score      int      `json:"p1_score"`
	P2Score      int      `json:"p2_score"`
	Ball         Point    `json:"ball"`
	BallVelocity Point    `json:"ball_velocity"`
	P1           Point    `json:"p1"`
	P2           Point    `json:"p2"`
	Winner       PlayerID `json:"winner"`
}

// Board describes the two-player playfield to consumers that only read state.
type Board struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	PaddleWidth  float64 `json:"paddle_width"`
	PaddleHeight float64 `json:"paddle_height"`
	PaddleSpeed  float64 `json:"paddle_speed"`
	BallSize     float64 `json:"ball_size"`
}

// TwoPlayerEngine simulates one ball between a left paddle (Player1) and a right
// paddle (Player2). It is not safe for concurrent use.
type TwoPlayerEngine struct {
	tuning        Tuning
	state         TwoPlayerState
	lastPaddleHit PlayerID
}

func NewTwoPlayerEngine(t Tuning) (*TwoPlayerEngine, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	e := &TwoPlayerEngine{tuning: t}
	e.Restart()
	return e, nil
}

// Restart discards the current rally and scores and serves a fresh ball toward Player2.
func (e *TwoPlayerEngine) Restart() {
	t := e.tuning
	paddleY := (t.BoardHeight - t.PaddleHeight) / 2
	e.state = TwoPlayerState{
		P1: Point{X: t.PaddleMargin, Y: paddleY},
		P2: Point{X: t.BoardWidth - t.PaddleMargin - t.PaddleWidth, Y: paddleY},
	}
	e.serve(1)
}

// serve centers the ball and launches it horizontally in dir (-1 left, +1 right).
// The vertical component alternates with each point played.
func (e *TwoPlayerEngine) serve(dir float64) {
	t := e.tuning
	e.state.Ball = Point{X: (t.BoardWidth - t.BallSize) / 2, Y: (t.BoardHeight - t.BallSize) / 2}
	sin, cos := math.Sincos(t.ServeAngle * math.Pi / 180)
	vy := t.ServeSpeed * sin
	if (e.state.P1Score+e.state.P2Score)%2 == 1 {
		vy = -vy
	}
	e.state.BallVelocity = Point{X: dir * t.ServeSpeed * cos, Y: vy}
	e.lastPaddleHit = NoPlayer
}

// Update advances the simulation by dt seconds. Velocities are expressed per 1/60s frame.
// Once a winner exists Update does nothing until Restart.
func (e *TwoPlayerEngine) Update(dt float64) {
	if e.state.Winner != NoPlayer || dt <= 0 {
		return
	}
	s := &e.state
	prev := s.Ball
	s.Ball = s.Ball.Plus(s.BallVelocity.Times(dt * 60))

	if !e.checkPaddle(Player1, prev) {
		e.checkPaddle(Player2, prev)
	}
	e.bounceWalls()
	e.checkGoal()
}

func (e *TwoPlayerEngine) bounceWalls() {
	s := &e.state
	maxY := e.tuning.BoardHeight - e.tuning.BallSize
	if s.Ball.Y <= 0 {
		s.Ball.Y = 1
		s.BallVelocity.Y = math.Abs(s.BallVelocity.Y)
	} else if s.Ball.Y >= maxY {
		s.Ball.Y = maxY - 1
		s.BallVelocity.Y = -math.Abs(s.BallVelocity.Y)
	}
}

// checkPaddle resolves a hit on id's paddle. The ball counts as hitting when its leading
// edge crossed the paddle face during this step or when it overlaps the paddle box while
// still in front of it.
func (e *TwoPlayerEngine) checkPaddle(id PlayerID, prev Point) bool {
	t := e.tuning
	s := &e.state

	var (
		paddle  Point
		normal  Point
		face    float64
		lead    float64 // ball x offset of the edge facing the paddle
		heading float64
	)
	switch id {
	case Player1:
		paddle, normal, face, lead, heading = s.P1, Point{X: 1}, s.P1.X+t.PaddleWidth, 0, -1
	case Player2:
		paddle, normal, face, lead, heading = s.P2, Point{X: -1}, s.P2.X, t.BallSize, 1
	default:
		return false
	}
	if s.BallVelocity.X*heading <= 0 {
		return false
	}

	yAt := s.Ball.Y
	frac, crossed := crossing(prev.X+lead, s.Ball.X+lead, face, heading)
	hit := false
	if crossed {
		yAt = lerp(prev.Y, s.Ball.Y, frac)
		hit = spanOverlap(yAt, t.BallSize, paddle.Y, t.PaddleHeight)
	}
	if !hit {
		ball := rect{x: s.Ball.X, y: s.Ball.Y, w: t.BallSize, h: t.BallSize}
		box := rect{x: paddle.X, y: paddle.Y, w: t.PaddleWidth, h: t.PaddleHeight}
		inFront := (prev.X+lead-face)*heading <= 0
		if !ball.overlaps(box) || !inFront {
			return false
		}
		yAt = s.Ball.Y
	}

	impact := impactFactor(yAt+t.BallSize/2, paddle.Y+t.PaddleHeight/2, t.PaddleHeight)
	s.BallVelocity = deflect(s.BallVelocity, impact, normal, Point{Y: 1}, e.lastPaddleHit == id, t.hit())
	s.Ball.Y = yAt
	if id == Player1 {
		s.Ball.X = face + t.PushOut
	} else {
		s.Ball.X = face - t.BallSize - t.PushOut
	}
	e.lastPaddleHit = id
	return true
}

func (e *TwoPlayerEngine) checkGoal() {
	s := &e.state
	switch {
	case s.Ball.X+e.tuning.BallSize < 0:
		s.P2Score++
		e.pointTo(Player2)
	case s.Ball.X > e.tuning.BoardWidth:
		s.P1Score++
		e.pointTo(Player1)
	}
}

func (e *TwoPlayerEngine) pointTo(scorer PlayerID) {
	s := &e.state
	score := s.P1Score
	if scorer == Player2 {
		score = s.P2Score
	}
	if score >= e.tuning.WinningScore {
		s.Winner = scorer
		s.Ball = Point{X: (e.tuning.BoardWidth - e.tuning.BallSize) / 2, Y: (e.tuning.BoardHeight - e.tuning.BallSize) / 2}
		s.BallVelocity = Point{}
		e.lastPaddleHit = NoPlayer
		return
	}
	// serve toward the side that conceded
	if scorer == Player2 {
		e.serve(-1)
	} else {
		e.serve(1)
	}
}

// MovePaddle moves one paddle a single step up or down, clamped to the board.
func (e *TwoPlayerEngine) MovePaddle(id PlayerID, dir Direction) error {
	if !dir.vertical() {
		return fmt.Errorf("%w: %q for a side paddle", ErrInvalidDirection, dir)
	}
	var p *Point
	switch id {
	case Player1:
		p = &e.state.P1
	case Player2:
		p = &e.state.P2
	default:
		return fmt.Errorf("%w: %d", ErrInvalidPlayer, id)
	}
	p.Y = clamp(p.Y+dir.sign()*e.tuning.PaddleSpeed, 0, e.tuning.BoardHeight-e.tuning.PaddleHeight)
	return nil
}

// State returns a copy of the current state.
func (e *TwoPlayerEngine) State() TwoPlayerState {
	return e.state
}

func (e *TwoPlayerEngine) Board() Board {
	t := e.tuning
	return Board{
		Width:        t.BoardWidth,
		Height:       t.BoardHeight,
		PaddleWidth:  t.PaddleWidth,
		PaddleHeight: t.PaddleHeight,
		PaddleSpeed:  t.PaddleSpeed,
		BallSize:     t.BallSize,
	}
}

func (e *TwoPlayerEngine) Tuning() Tuning {
	return e.tuning
}

// LastPaddleHit reports which paddle touched the ball most recently in this rally.
func (e *TwoPlayerEngine) LastPaddleHit() PlayerID {
	return e.lastPaddleHit
}
