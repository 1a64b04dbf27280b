package svgpath

import "math"

// Matrix2D represents the affine transform
//
//	x' = A*x + C*y + E
//	y' = B*x + D*y + F
type Matrix2D struct {
	A, B, C, D, E, F float64
}

// Identity is the Identity matrix
var Identity = Matrix2D{1, 0, 0, 1, 0, 0}

// Apply transforms the point p.
func (a Matrix2D) Apply(p Point) Point {
	return Point{
		X: a.A*p.X + a.C*p.Y + a.E,
		Y: a.B*p.X + a.D*p.Y + a.F,
	}
}

// Mult returns a*b : b is applied first.
func (a Matrix2D) Mult(b Matrix2D) Matrix2D {
	return Matrix2D{
		A: a.A*b.A + a.C*b.B,
		B: a.B*b.A + a.D*b.B,
		C: a.A*b.C + a.C*b.D,
		D: a.B*b.C + a.D*b.D,
		E: a.A*b.E + a.C*b.F + a.E,
		F: a.B*b.E + a.D*b.F + a.F,
	}
}

// Translate returns a matrix translating by (x, y) before a.
func (a Matrix2D) Translate(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{1, 0, 0, 1, x, y})
}

// Scale returns a matrix scaling by (x, y) before a.
func (a Matrix2D) Scale(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{x, 0, 0, y, 0, 0})
}

// Rotate returns a matrix rotating by theta radians before a.
func (a Matrix2D) Rotate(theta float64) Matrix2D {
	s, c := math.Sincos(theta)
	return a.Mult(Matrix2D{c, s, -s, c, 0, 0})
}

// decompose splits a shear-free matrix into
// translate, rotate (degrees) and scale components.
func (a Matrix2D) decompose() Affine2D {
	sx := math.Hypot(a.A, a.B)
	if sx == 0 {
		return Affine2D{TX: a.E, TY: a.F}
	}
	theta := math.Atan2(a.B, a.A)
	sy := (a.A*a.D - a.B*a.C) / sx
	return Affine2D{TX: a.E, TY: a.F, SX: sx, SY: sy, Rotate: theta * 180 / math.Pi}
}
