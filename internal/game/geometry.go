package game

import "math"

// Point is a 2D position or velocity.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Plus(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Point) Times(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

func (p Point) Dot(o Point) float64 {
	return p.X*o.X + p.Y*o.Y
}

func (p Point) Magnitude() float64 {
	return math.Hypot(p.X, p.Y)
}

func (p Point) Normalize() Point {
	m := p.Magnitude()
	if m == 0 {
		return Point{}
	}
	return p.Times(1 / m)
}

// Rotate turns the vector by rad radians.
func (p Point) Rotate(rad float64) Point {
	sin, cos := math.Sincos(rad)
	return Point{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
}

// rect is an axis-aligned box anchored at its top-left corner.
type rect struct {
	x, y, w, h float64
}

func (r rect) overlaps(o rect) bool {
	return r.x < o.x+o.w && r.x+r.w > o.x && r.y < o.y+o.h && r.y+r.h > o.y
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// spanOverlap reports whether [a, a+aw] and [b, b+bw] intersect.
func spanOverlap(a, aw, b, bw float64) bool {
	return a <= b+bw && a+aw >= b
}

// crossing returns the fraction of a step at which a coordinate moving from prev to cur
// passes the line at face, and whether it crossed moving in the given sign.
func crossing(prev, cur, face float64, sign float64) (float64, bool) {
	if sign < 0 {
		if prev < face || cur >= face {
			return 0, false
		}
	} else {
		if prev > face || cur <= face {
			return 0, false
		}
	}
	if prev == cur {
		return 0, true
	}
	return (prev - face) / (prev - cur), true
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
