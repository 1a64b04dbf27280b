package svgpath

import (
	"fmt"
	"math"
	"strings"
)

// Affine2D is a transform restricted to translate, rotate and scale,
// applied as p' = rotate(scale(p)) + translate.
// Rotate is in degrees.
type Affine2D struct {
	TX, TY float64
	SX, SY float64
	Rotate float64
}

// IdentityAffine leaves points unchanged.
var IdentityAffine = Affine2D{SX: 1, SY: 1}

// Apply maps p through the transform.
func (a Affine2D) Apply(p Point) Point {
	x, y := p.X*a.SX, p.Y*a.SY
	if a.Rotate != 0 {
		s, c := sincosDeg(a.Rotate)
		x, y = x*c-y*s, x*s+y*c
	}
	return Point{x + a.TX, y + a.TY}
}

// Matrix returns the equivalent matrix.
func (a Affine2D) Matrix() Matrix2D {
	s, c := sincosDeg(a.Rotate)
	return Identity.Translate(a.TX, a.TY).
		Mult(Matrix2D{c, s, -s, c, 0, 0}).
		Scale(a.SX, a.SY)
}

// RightAngle returns a copy whose rotation is rounded
// to the closest multiple of 90 degrees.
func (a Affine2D) RightAngle() Affine2D {
	a.Rotate = math.Round(a.Rotate/90) * 90
	return a
}

// sincosDeg is exact for multiples of 90 degrees.
func sincosDeg(deg float64) (s, c float64) {
	q := math.Mod(deg, 360)
	if q < 0 {
		q += 360
	}
	switch q {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(deg * math.Pi / 180)
}

// transformFolder accumulates transform functions, read left to right.
// Components are kept as long as the composition stays of the form
// translate.rotate.scale; the full matrix is used otherwise.
type transformFolder struct {
	a       Affine2D
	m       Matrix2D
	general bool
}

func (f *transformFolder) translate(x, y float64) {
	d := Affine2D{SX: f.a.SX, SY: f.a.SY, Rotate: f.a.Rotate}.Apply(Point{x, y})
	f.a.TX += d.X
	f.a.TY += d.Y
	f.m = f.m.Translate(x, y)
}

func (f *transformFolder) rotate(deg float64) {
	if f.a.SX != f.a.SY {
		f.general = true
	}
	f.a.Rotate += deg
	s, c := sincosDeg(deg)
	f.m = f.m.Mult(Matrix2D{c, s, -s, c, 0, 0})
}

func (f *transformFolder) scale(x, y float64) {
	f.a.SX *= x
	f.a.SY *= y
	f.m = f.m.Scale(x, y)
}

func (f *transformFolder) result() Affine2D {
	if f.general {
		return f.m.decompose()
	}
	return f.a
}

func (f *transformFolder) apply(name string, args []float64) error {
	switch name {
	case "translate":
		switch len(args) {
		case 1:
			f.translate(args[0], 0)
		case 2:
			f.translate(args[0], args[1])
		default:
			return errParamMismatch
		}
	case "scale":
		switch len(args) {
		case 1:
			f.scale(args[0], args[0])
		case 2:
			f.scale(args[0], args[1])
		default:
			return errParamMismatch
		}
	case "rotate":
		switch len(args) {
		case 1:
			f.rotate(args[0])
		case 3:
			f.translate(args[1], args[2])
			f.rotate(args[0])
			f.translate(-args[1], -args[2])
		default:
			return errParamMismatch
		}
	case "matrix":
		if len(args) != 6 {
			return errParamMismatch
		}
		m := Matrix2D{args[0], args[1], args[2], args[3], args[4], args[5]}
		if math.Abs(m.A*m.C+m.B*m.D) > 1e-9 {
			return fmt.Errorf("sheared matrix not supported")
		}
		f.m = f.m.Mult(m)
		f.general = true
	default:
		return fmt.Errorf("unsupported transform %q", name)
	}
	return nil
}

// ParseTransform reads a "transform" attribute made of translate,
// scale, rotate (and shear-free matrix) functions. Missing components
// default to the identity. A malformed string gives IdentityAffine and an error.
func ParseTransform(v string) (Affine2D, error) {
	f := transformFolder{a: IdentityAffine, m: Identity}
	for _, t := range strings.Split(v, ")") {
		t = strings.TrimSpace(t)
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(strings.TrimSpace(d[1])) < 1 {
			return IdentityAffine, fmt.Errorf("invalid transform %q: %w", v, errParamMismatch) // badly formed transformation
		}
		args, err := splitNumbers(d[1])
		if err != nil {
			return IdentityAffine, fmt.Errorf("invalid transform %q: %w", v, err)
		}
		name := strings.ToLower(strings.Trim(strings.TrimSpace(d[0]), ","))
		if err = f.apply(name, args); err != nil {
			return IdentityAffine, fmt.Errorf("invalid transform %q: %w", v, err)
		}
	}
	return f.result(), nil
}
