package svgpath

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/fixed"
)

func TestParsePath(t *testing.T) {
	for _, test := range []struct {
		d    string
		want Path
	}{
		{"", nil},
		{"M0 0L10 10Z", Path{
			{Op: 'M', Args: []float64{0, 0}},
			{Op: 'L', Args: []float64{10, 10}},
			{Op: 'Z'},
		}},
		{"M10-20L-5.5,3", Path{
			{Op: 'M', Args: []float64{10, -20}},
			{Op: 'L', Args: []float64{-5.5, 3}},
		}},
		{"M 1 2 Q 3 4 5 6 z", Path{
			{Op: 'M', Args: []float64{1, 2}},
			{Op: 'Q', Args: []float64{3, 4, 5, 6}},
			{Op: 'z'},
		}},
		{"M0.5.5", Path{{Op: 'M', Args: []float64{0.5, 0.5}}}},
		{"M 0 0\nL 1\t1", Path{
			{Op: 'M', Args: []float64{0, 0}},
			{Op: 'L', Args: []float64{1, 1}},
		}},
	} {
		got, err := ParsePath(test.d)
		require.NoError(t, err, test.d)
		if diff := cmp.Diff(test.want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("ParsePath(%q) mismatch (-want +got):\n%s", test.d, diff)
		}
	}
}

func TestParsePathMalformed(t *testing.T) {
	for _, d := range []string{"10 10 L 0 0", "M 1+2 3"} {
		got, err := ParsePath(d)
		assert.Error(t, err, d)
		assert.Empty(t, got, d)
	}
}

func TestPathRoundTrip(t *testing.T) {
	var p Path
	p.Rect(1, 2, 3.5, 4)
	p.QuadTo(0, -1, 2, -3)
	s := p.ToSVGPath()
	assert.Equal(t, "M 1 2 L 4.5 2 L 4.5 6 L 1 6 Z Q 0 -1 2 -3", s)

	back, err := ParsePath(s)
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

func TestParseTransform(t *testing.T) {
	a, err := ParseTransform("translate(10 20)rotate(-90)scale(0.05 -0.05)")
	require.NoError(t, err)
	assert.Equal(t, Affine2D{TX: 10, TY: 20, SX: 0.05, SY: -0.05, Rotate: -90}, a)

	a, err = ParseTransform("translate(10-20)")
	require.NoError(t, err)
	assert.Equal(t, Affine2D{TX: 10, TY: -20, SX: 1, SY: 1}, a)

	a, err = ParseTransform("scale(2)")
	require.NoError(t, err)
	assert.Equal(t, Affine2D{SX: 2, SY: 2}, a)

	a, err = ParseTransform("")
	require.NoError(t, err)
	assert.Equal(t, IdentityAffine, a)

	// scale then translate: the translation is scaled
	a, err = ParseTransform("scale(2, 3) translate(1, 1)")
	require.NoError(t, err)
	assert.Equal(t, Affine2D{TX: 2, TY: 3, SX: 2, SY: 3}, a)
}

func TestParseTransformMalformed(t *testing.T) {
	for _, v := range []string{"translate(", "skewX(10)", "translate(1 2 3)", "scale(a)"} {
		a, err := ParseTransform(v)
		assert.Error(t, err, v)
		assert.Equal(t, IdentityAffine, a, v)
	}
}

func TestApplyAffine(t *testing.T) {
	a := Affine2D{TX: 10, TY: 20, SX: 0.05, SY: -0.05, Rotate: -90}
	got := a.Apply(Point{100, 200})
	// scale: (5, -10); rotate -90: (x,y) -> (y, -x) = (-10, -5)
	assert.Equal(t, Point{0, 15}, got)

	assert.Equal(t, Point{3, 4}, IdentityAffine.Apply(Point{3, 4}))
}

func TestRightAngle(t *testing.T) {
	assert.Equal(t, -90., Affine2D{Rotate: -89.7}.RightAngle().Rotate)
	assert.Equal(t, 0., Affine2D{Rotate: 12}.RightAngle().Rotate)
}

func TestMatrixMatchesAffine(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("Matrix().Apply == Apply", prop.ForAll(
		func(tx, ty, sx, sy, rot, x, y float64) bool {
			a := Affine2D{TX: tx, TY: ty, SX: sx, SY: sy, Rotate: rot}
			p1 := a.Apply(Point{x, y})
			p2 := a.Matrix().Apply(Point{x, y})
			return math.Abs(p1.X-p2.X) < 1e-6 && math.Abs(p1.Y-p2.Y) < 1e-6
		},
		gen.Float64Range(-100, 100),
		gen.Float64Range(-100, 100),
		gen.Float64Range(-5, 5),
		gen.Float64Range(-5, 5),
		gen.Float64Range(-360, 360),
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
	))
	properties.TestingRun(t)
}

func TestMatrixDecompose(t *testing.T) {
	a, err := ParseTransform("matrix(0 -2 2 0 5 6)")
	require.NoError(t, err)
	want := Affine2D{TX: 5, TY: 6, SX: 2, SY: 2, Rotate: -90}
	if diff := cmp.Diff(want, a, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("decompose mismatch (-want +got):\n%s", diff)
	}
}

func TestQuadExtremes(t *testing.T) {
	pts := QuadExtremes(Point{0, 0}, Point{5, 10}, Point{10, 0})
	maxY := math.Inf(-1)
	for _, p := range pts {
		maxY = math.Max(maxY, p.Y)
	}
	// the curve reaches half the height of its control point
	assert.InDelta(t, 5, maxY, 1e-9)

	pts = CubicExtremes(Point{0, 0}, Point{0, 10}, Point{10, 10}, Point{10, 0})
	maxY = math.Inf(-1)
	for _, p := range pts {
		maxY = math.Max(maxY, p.Y)
	}
	assert.InDelta(t, 7.5, maxY, 1e-9)
}

type recorder struct{ ops []string }

func (r *recorder) Start(a fixed.Point26_6)            { r.ops = append(r.ops, "S") }
func (r *recorder) Line(b fixed.Point26_6)             { r.ops = append(r.ops, "L") }
func (r *recorder) QuadBezier(b, c fixed.Point26_6)    { r.ops = append(r.ops, "Q") }
func (r *recorder) CubeBezier(b, c, d fixed.Point26_6) { r.ops = append(r.ops, "C") }
func (r *recorder) Stop(closeLoop bool) {
	if closeLoop {
		r.ops = append(r.ops, "Z")
	}
}

func TestAddTo(t *testing.T) {
	p, err := ParsePath("M0 0 1 1 Q 2 2 3 3 H 4 Z")
	require.NoError(t, err)

	var r recorder
	err = p.AddTo(&r, Identity.Scale(2, 2))
	assert.Error(t, err)
	assert.Equal(t, []string{"S", "L", "Q", "Z"}, r.ops)
}
