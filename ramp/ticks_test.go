package ramp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rampAt builds a linear ramp whose anchors are the given values.
func rampAt(anchors ...float64) *ColorRamp {
	r := &ColorRamp{Kind: Linear, Anchors: anchors}
	for _, a := range anchors {
		r.Boundaries = append(r.Boundaries, ColorBoundary{Value: a, Label: FormatNumber(a, 0)})
	}
	return r
}

func indexes(ts []Tick) []int {
	out := make([]int, len(ts))
	for i, t := range ts {
		out[i] = t.Index
	}
	return out
}

func TestSelectTicksStride(t *testing.T) {
	r := rampAt(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	ts, err := SelectTicks(r, TickConfig{Step: 3})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6, 9}, indexes(ts.All))
	assert.Equal(t, ts.All, ts.Primary)
	assert.Empty(t, ts.Secondary)
}

func TestSelectTicksOffset(t *testing.T) {
	r := rampAt(0, 1, 2, 3, 4, 5, 6)
	ts, err := SelectTicks(r, TickConfig{Step: 3, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, indexes(ts.All))

	// the offset is ignored outside linear ramps
	r.Kind = Discrete
	ts, err = SelectTicks(r, TickConfig{Step: 3, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, indexes(ts.All))

	// no multiple of 2 once shifted by half a step: fall back to both ends
	r.Kind = Linear
	ts, err = SelectTicks(r, TickConfig{Step: 2, Offset: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 6}, indexes(ts.All))
}

func TestSelectTicksLastBoundary(t *testing.T) {
	// the last interval is wider than the previous one
	r := rampAt(0, 1, 2, 3, 4, 10)
	ts, err := SelectTicks(r, TickConfig{Step: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4, 5}, indexes(ts.All))

	// regular spacing: the last boundary stays unlabelled
	r = rampAt(0, 1, 2, 3, 4, 5)
	ts, err = SelectTicks(r, TickConfig{Step: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, indexes(ts.All))

	ts, err = SelectTicks(r, TickConfig{Step: 2, End: EndReplace})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 5}, indexes(ts.All))

	ts, err = SelectTicks(r, TickConfig{Step: 2, End: EndAppend})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4, 5}, indexes(ts.All))
}

func TestSelectTicksAuto(t *testing.T) {
	r := rampAt(0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)
	ts, err := SelectTicks(r, TickConfig{Step: AutoFive})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6, 9, 11}, indexes(ts.All))

	ts, err = SelectTicks(r, TickConfig{Step: AutoThree})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 6, 11}, indexes(ts.All))

	ts, err = SelectTicks(r, TickConfig{Step: AutoStride})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4, 8}, indexes(ts.All))

	short := rampAt(0, 1, 2, 3, 4, 5, 6)
	ts, err = SelectTicks(short, TickConfig{Step: AutoFive})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, indexes(ts.All))

	two := rampAt(0, 1)
	ts, err = SelectTicks(two, TickConfig{Step: AutoThree})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, indexes(ts.All))
}

func TestSelectTicksPlacement(t *testing.T) {
	r := rampAt(0, 1, 2, 3, 4)
	ts, err := SelectTicks(r, TickConfig{Step: 1, Placement: Alternate})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, indexes(ts.Primary))
	assert.Equal(t, []int{1, 3}, indexes(ts.Secondary))

	ts, err = SelectTicks(r, TickConfig{Step: 1, Placement: BothSides})
	require.NoError(t, err)
	assert.Equal(t, ts.All, ts.Primary)
	assert.Equal(t, ts.All, ts.Secondary)
}

func TestTickConfigValidate(t *testing.T) {
	for _, c := range []TickConfig{{Step: 0}, {Step: -2}, {Step: 1, Offset: 101}} {
		_, err := SelectTicks(rampAt(0, 1), c)
		assert.Error(t, err, c)
	}
}

func TestParseEnums(t *testing.T) {
	p, err := ParsePlacement("Alternate")
	require.NoError(t, err)
	assert.Equal(t, Alternate, p)
	_, err = ParsePlacement("left")
	assert.Error(t, err)

	e, err := ParseEndMode("replace")
	require.NoError(t, err)
	assert.Equal(t, EndReplace, e)
	_, err = ParseEndMode("x")
	assert.Error(t, err)

	k, err := ParseRampKind("interpolated")
	require.NoError(t, err)
	assert.Equal(t, Linear, k)
	_, err = ParseClassification("0")
	assert.Error(t, err)
}
