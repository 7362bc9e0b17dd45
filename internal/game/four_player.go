package game

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// PlayerSlot is one seat of a four-player game. Position is the paddle's top-left corner.
type PlayerSlot struct {
	Name             string `json:"name"`
	Position         Point  `json:"position"`
	IsEliminated     bool   `json:"is_eliminated"`
	EliminationOrder int    `json:"elimination_order"`
	Lives            int    `json:"lives"`
}

// FourPlayerState is a snapshot of a four-player game. Active lists the sides still in
// play in seating order.
type FourPlayerState struct {
	Players      map[Side]PlayerSlot `json:"players"`
	Ball         Point               `json:"ball"`
	BallVelocity Point               `json:"ball_velocity"`
	Winner       Side                `json:"winner"`
	Active       []Side              `json:"active"`
}

func (s FourPlayerState) clone() FourPlayerState {
	players := make(map[Side]PlayerSlot, len(s.Players))
	for side, slot := range s.Players {
		players[side] = slot
	}
	s.Players = players
	s.Active = append([]Side(nil), s.Active...)
	return s
}

// FourPlayerEngine simulates a free-for-all on a square board with one paddle per edge.
// A side that misses loses a life; at zero lives its edge becomes a solid wall. It is
// not safe for concurrent use.
type FourPlayerEngine struct {
	tuning        FourPlayerTuning
	names         [4]string
	rng           *rand.Rand
	state         FourPlayerState
	lastPaddleHit Side
}

func NewFourPlayerEngine(names []string, t FourPlayerTuning, rng *rand.Rand) (*FourPlayerEngine, error) {
	if len(names) != len(Sides) {
		return nil, fmt.Errorf("%w: got %d", ErrNeedFourPlayers, len(names))
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	e := &FourPlayerEngine{tuning: t, rng: rng}
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: seat %d has no name", ErrNeedFourPlayers, i+1)
		}
		e.names[i] = name
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.Restart()
	return e, nil
}

// Restart gives every seat full lives and serves a new ball.
func (e *FourPlayerEngine) Restart() {
	t := e.tuning
	mid := (t.BoardSize - t.PaddleLength) / 2
	far := t.BoardSize - t.PaddleThickness

	e.state = FourPlayerState{
		Players: make(map[Side]PlayerSlot, len(Sides)),
		Active:  make([]Side, 0, len(Sides)),
	}
	for i, side := range Sides {
		var pos Point
		switch side {
		case SideTop:
			pos = Point{X: mid, Y: 0}
		case SideBottom:
			pos = Point{X: mid, Y: far}
		case SideLeft:
			pos = Point{X: 0, Y: mid}
		case SideRight:
			pos = Point{X: far, Y: mid}
		}
		e.state.Players[side] = PlayerSlot{Name: e.names[i], Position: pos, Lives: t.Lives}
		e.state.Active = append(e.state.Active, side)
	}
	e.serve()
}

// serve centers the ball and aims it at a random active side, offset by 0.3 to 0.7
// radians either way so it never runs straight down a paddle's normal.
func (e *FourPlayerEngine) serve() {
	t := e.tuning
	s := &e.state
	center := (t.BoardSize - t.BallSize) / 2
	s.Ball = Point{X: center, Y: center}
	e.lastPaddleHit = SideNone
	if len(s.Active) == 0 {
		s.BallVelocity = Point{}
		return
	}

	target := s.Active[e.rng.Intn(len(s.Active))]
	angle := 0.3 + e.rng.Float64()*0.4
	if e.rng.Intn(2) == 0 {
		angle = -angle
	}
	s.BallVelocity = outward(target).Rotate(angle).Times(t.ServeSpeed)
}

// outward is the unit vector from the board center toward side.
func outward(side Side) Point {
	switch side {
	case SideTop:
		return Point{Y: -1}
	case SideBottom:
		return Point{Y: 1}
	case SideLeft:
		return Point{X: -1}
	case SideRight:
		return Point{X: 1}
	}
	return Point{}
}

// edge describes one side of the board along the axis the ball must travel to reach it.
type edge struct {
	alongX  bool
	heading float64 // -1 toward the 0 boundary, +1 toward BoardSize
	wall    float64
	face    float64 // paddle surface facing the board
	lead    float64 // offset from the ball's corner to its edge facing this side
	normal  Point
	tangent Point
}

func (e *FourPlayerEngine) edgeFor(side Side) edge {
	t := e.tuning
	switch side {
	case SideTop:
		return edge{heading: -1, wall: 0, face: t.PaddleThickness, normal: Point{Y: 1}, tangent: Point{X: 1}}
	case SideBottom:
		return edge{heading: 1, wall: t.BoardSize, face: t.BoardSize - t.PaddleThickness, lead: t.BallSize, normal: Point{Y: -1}, tangent: Point{X: 1}}
	case SideLeft:
		return edge{alongX: true, heading: -1, wall: 0, face: t.PaddleThickness, normal: Point{X: 1}, tangent: Point{Y: 1}}
	default:
		return edge{alongX: true, heading: 1, wall: t.BoardSize, face: t.BoardSize - t.PaddleThickness, lead: t.BallSize, normal: Point{X: -1}, tangent: Point{Y: 1}}
	}
}

// split returns the coordinate of p along the edge's axis and across it.
func (ed edge) split(p Point) (along, across float64) {
	if ed.alongX {
		return p.X, p.Y
	}
	return p.Y, p.X
}

func (ed edge) join(along, across float64) Point {
	if ed.alongX {
		return Point{X: along, Y: across}
	}
	return Point{X: across, Y: along}
}

// Update advances the simulation by dt seconds. Once a winner exists it does nothing.
func (e *FourPlayerEngine) Update(dt float64) {
	s := &e.state
	if s.Winner != SideNone || dt <= 0 {
		return
	}
	prev := s.Ball
	s.Ball = s.Ball.Plus(s.BallVelocity.Times(dt * 60))

	for _, side := range Sides {
		ed := e.edgeFor(side)
		vAlong, _ := ed.split(s.BallVelocity)
		if vAlong*ed.heading <= 0 {
			continue
		}
		if s.Players[side].IsEliminated {
			e.bounceWall(ed)
			continue
		}
		if e.checkPaddle(side, ed, prev) {
			continue
		}
		along, _ := ed.split(s.Ball)
		trailing := along + e.tuning.BallSize - ed.lead
		if (trailing-ed.wall)*ed.heading > 0 {
			e.handleLifeLoss(side)
			return
		}
	}
}

// bounceWall reflects the ball elastically off an empty edge.
func (e *FourPlayerEngine) bounceWall(ed edge) {
	s := &e.state
	along, across := ed.split(s.Ball)
	limit := ed.wall - ed.lead
	if (along-limit)*ed.heading < 0 {
		return
	}
	s.Ball = ed.join(2*limit-along, across)
	vAlong, vAcross := ed.split(s.BallVelocity)
	s.BallVelocity = ed.join(-vAlong, vAcross)
}

func (e *FourPlayerEngine) checkPaddle(side Side, ed edge, prev Point) bool {
	t := e.tuning
	s := &e.state
	slot := s.Players[side]

	prevAlong, prevAcross := ed.split(prev)
	curAlong, curAcross := ed.split(s.Ball)
	_, paddleStart := ed.split(slot.Position)

	acrossAt := curAcross
	frac, crossed := crossing(prevAlong+ed.lead, curAlong+ed.lead, ed.face, ed.heading)
	hit := false
	if crossed {
		acrossAt = lerp(prevAcross, curAcross, frac)
		hit = spanOverlap(acrossAt, t.BallSize, paddleStart, t.PaddleLength)
	}
	if !hit {
		w, h := t.PaddleLength, t.PaddleThickness
		if !side.Horizontal() {
			w, h = h, w
		}
		ball := rect{x: s.Ball.X, y: s.Ball.Y, w: t.BallSize, h: t.BallSize}
		box := rect{x: slot.Position.X, y: slot.Position.Y, w: w, h: h}
		inFront := (prevAlong+ed.lead-ed.face)*ed.heading <= 0
		if !ball.overlaps(box) || !inFront {
			return false
		}
		acrossAt = curAcross
	}

	impact := impactFactor(acrossAt+t.BallSize/2, paddleStart+t.PaddleLength/2, t.PaddleLength)
	s.BallVelocity = deflect(s.BallVelocity, impact, ed.normal, ed.tangent, e.lastPaddleHit == side, t.hit())
	s.Ball = ed.join(ed.face-ed.lead-ed.heading*t.PushOut, acrossAt)
	e.lastPaddleHit = side
	return true
}

// handleLifeLoss takes a life from side. At zero lives the side is eliminated; when a
// single side is left it becomes the winner, otherwise the ball is served again.
func (e *FourPlayerEngine) handleLifeLoss(side Side) {
	s := &e.state
	slot, ok := s.Players[side]
	if !ok || slot.IsEliminated {
		return
	}
	slot.Lives--
	if slot.Lives <= 0 {
		slot.Lives = 0
		slot.IsEliminated = true
		slot.EliminationOrder = len(Sides) - len(s.Active) + 1
		active := s.Active[:0]
		for _, a := range s.Active {
			if a != side {
				active = append(active, a)
			}
		}
		s.Active = active
	}
	s.Players[side] = slot

	if len(s.Active) == 1 {
		s.Winner = s.Active[0]
		center := (e.tuning.BoardSize - e.tuning.BallSize) / 2
		s.Ball = Point{X: center, Y: center}
		s.BallVelocity = Point{}
		e.lastPaddleHit = SideNone
		return
	}
	e.serve()
}

// MovePaddle slides a paddle one step along its edge. Top and bottom paddles take left
// and right; side paddles take up and down. Eliminated paddles stay put.
func (e *FourPlayerEngine) MovePaddle(side Side, dir Direction) error {
	slot, ok := e.state.Players[side]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	if side.Horizontal() == dir.vertical() || dir.sign() == 0 {
		return fmt.Errorf("%w: %q for the %s paddle", ErrInvalidDirection, dir, side)
	}
	if slot.IsEliminated {
		return nil
	}
	t := e.tuning
	step := dir.sign() * t.PaddleSpeed
	limit := t.BoardSize - t.PaddleLength
	if side.Horizontal() {
		slot.Position.X = clamp(slot.Position.X+step, 0, limit)
	} else {
		slot.Position.Y = clamp(slot.Position.Y+step, 0, limit)
	}
	e.state.Players[side] = slot
	return nil
}

// State returns a deep copy of the current state.
func (e *FourPlayerEngine) State() FourPlayerState {
	return e.state.clone()
}

func (e *FourPlayerEngine) Tuning() FourPlayerTuning {
	return e.tuning
}

// Names returns the seat names in Top, Bottom, Left, Right order.
func (e *FourPlayerEngine) Names() []string {
	return append([]string(nil), e.names[:]...)
}

func (e *FourPlayerEngine) LastPaddleHit() Side {
	return e.lastPaddleHit
}
