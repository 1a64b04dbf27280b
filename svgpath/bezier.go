package svgpath

import "math"

// exact extents of path segments, used when the hull of the
// control points is not tight enough

type bezier interface {
	// compute the t zeroing the derivative
	criticalPoints() (tX, tY []float64)
	// compute the point a time t
	evaluateCurve(t float64) Point
}

type quadBezier [3]Point

// quadratic polinomial
// x = At^2 + Bt + C
// where
// A = p0 + p2 - 2p1
// B = 2(p1 - p0)
// C = p0
func bezierQuad(p0, p1, p2, t float64) float64 {
	return (p0+p2-2*p1)*t*t + 2*(p1-p0)*t + p0
}

// derivative as at + b where a,b :
func quadraticDerivative(p0, p1, p2 float64) (a, b float64) {
	return 2 * (p2 - p1 - (p1 - p0)), 2 * (p1 - p0)
}

// handle the case where a = 0
func linearRoots(a, b float64) []float64 {
	if a == 0 {
		return nil
	}
	return []float64{-b / a}
}

func (cu quadBezier) criticalPoints() (tX, tY []float64) {
	aX, bX := quadraticDerivative(cu[0].X, cu[1].X, cu[2].X)
	aY, bY := quadraticDerivative(cu[0].Y, cu[1].Y, cu[2].Y)
	return linearRoots(aX, bX), linearRoots(aY, bY)
}

func (cu quadBezier) evaluateCurve(t float64) Point {
	return Point{bezierQuad(cu[0].X, cu[1].X, cu[2].X, t), bezierQuad(cu[0].Y, cu[1].Y, cu[2].Y, t)}
}

type cubicBezier [4]Point

// cubic polinomial
// x = At^3 + Bt^2 + Ct + D
// where A,B,C,D:
// A = p3 -3 * p2 + 3 * p1 - p0
// B = 3 * p2 - 6 * p1 +3 * p0
// C = 3 * p1 - 3 * p0
// D = p0
func bezierSpline(p0, p1, p2, p3, t float64) float64 {
	return (p3-3*p2+3*p1-p0)*t*t*t +
		(3*p2-6*p1+3*p0)*t*t +
		(3*p1-3*p0)*t +
		(p0)
}

// X' = (3*p3-9*p2+9*p1-3*p0)t^2 + (6*p2-12*p1+6*p0)t + (3*p1-3*p0)
func cubicDerivative(p0, p1, p2, p3 float64) (a, b, c float64) {
	return 3*p3 - 9*p2 + 9*p1 - 3*p0, 6*p2 - 12*p1 + 6*p0, 3*p1 - 3*p0
}

func quadraticRoots(a, b, c float64) []float64 {
	if a == 0 {
		return linearRoots(b, c)
	}
	d := b*b - 4*a*c
	if d < 0 {
		return nil
	}
	if d == 0 {
		return []float64{-b / (2 * a)}
	}
	sq := math.Sqrt(d)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}

func (cu cubicBezier) criticalPoints() (tX, tY []float64) {
	aX, bX, cX := cubicDerivative(cu[0].X, cu[1].X, cu[2].X, cu[3].X)
	aY, bY, cY := cubicDerivative(cu[0].Y, cu[1].Y, cu[2].Y, cu[3].Y)
	return quadraticRoots(aX, bX, cX), quadraticRoots(aY, bY, cY)
}

func (cu cubicBezier) evaluateCurve(t float64) Point {
	return Point{
		bezierSpline(cu[0].X, cu[1].X, cu[2].X, cu[3].X, t),
		bezierSpline(cu[0].Y, cu[1].Y, cu[2].Y, cu[3].Y, t),
	}
}

func boundingPoints(curve bezier) []Point {
	resX, resY := curve.criticalPoints()
	var out []Point
	// add begin and end point
	for _, t := range append(append(resX, 0, 1), resY...) {
		// filter invalid value
		if !(0 <= t && t <= 1) {
			continue
		}
		out = append(out, curve.evaluateCurve(t))
	}
	return out
}

// QuadExtremes returns the points of the quadratic curve p0, p1, p2
// reaching its extent, end points included.
func QuadExtremes(p0, p1, p2 Point) []Point {
	return boundingPoints(quadBezier{p0, p1, p2})
}

// CubicExtremes is the cubic counterpart of QuadExtremes.
func CubicExtremes(p0, p1, p2, p3 Point) []Point {
	return boundingPoints(cubicBezier{p0, p1, p2, p3})
}
