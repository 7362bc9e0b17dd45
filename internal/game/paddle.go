package game

import "math"

type hitParams struct {
	speedUp  float64
	maxSpeed float64
	maxAngle float64 // radians
}

// impactFactor is the normalized offset of the ball center from the paddle center,
// -1 at one end of the paddle and +1 at the other.
func impactFactor(ballCenter, paddleCenter, paddleLength float64) float64 {
	return clamp((ballCenter-paddleCenter)/(paddleLength/2), -1, 1)
}

// deflect computes the ball velocity after a paddle hit. normal points away from the
// paddle into the board, tangent runs along the paddle in the direction of a positive
// impact factor. The speed is only multiplied when repeat is false.
func deflect(velocity Point, impact float64, normal, tangent Point, repeat bool, p hitParams) Point {
	speed := velocity.Magnitude()
	if !repeat {
		speed = math.Min(speed*p.speedUp, p.maxSpeed)
	}
	angle := impact * p.maxAngle
	return normal.Times(speed * math.Cos(angle)).Plus(tangent.Times(speed * math.Sin(angle)))
}
