// Package ramp reads the colour ramp of a single band raster style and
// normalizes it into boundaries, colours and positions ready to be
// drawn as a scale bar.
package ramp

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// RampKind is the interpolation of the colour ramp shader.
type RampKind uint8

const (
	Discrete RampKind = iota
	Linear
	Exact
	Paletted
)

func (k RampKind) String() string {
	switch k {
	case Discrete:
		return "Discrete"
	case Linear:
		return "Linear"
	case Exact:
		return "Exact"
	case Paletted:
		return "Paletted"
	default:
		return fmt.Sprintf("<unknown RampKind %d>", uint8(k))
	}
}

// ParseRampKind reads the colorRampType attribute of a shader.
func ParseRampKind(s string) (RampKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DISCRETE":
		return Discrete, nil
	case "INTERPOLATED", "LINEAR":
		return Linear, nil
	case "EXACT":
		return Exact, nil
	case "PALETTED":
		return Paletted, nil
	}
	return 0, fmt.Errorf("unknown colour ramp type %q", s)
}

// ClassificationKind is the way the shader classes were computed.
type ClassificationKind uint8

const (
	NotApplicable ClassificationKind = iota // paletted renderers
	Continuous
	EqualInterval
	Quantile
)

func (c ClassificationKind) String() string {
	switch c {
	case NotApplicable:
		return "Not applicable"
	case Continuous:
		return "Continuous"
	case EqualInterval:
		return "Equal Interval"
	case Quantile:
		return "Quantile"
	default:
		return fmt.Sprintf("<unknown ClassificationKind %d>", uint8(c))
	}
}

// ParseClassification reads the classificationMode attribute of a shader.
func ParseClassification(s string) (ClassificationKind, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || i < int(Continuous) || i > int(Quantile) {
		return 0, fmt.Errorf("unknown classification mode %q", s)
	}
	return ClassificationKind(i), nil
}

// ColorBoundary is one class limit of the ramp.
// For discrete ramps the colour is the one of the box ending at Value.
type ColorBoundary struct {
	Value float64
	Label string
	Color color.NRGBA
}

// ColorRamp is the normalized form of a raster style.
//
// Positions are the box edges in draw space, with
// len(Positions) == len(Colors)+1, strictly increasing.
// Anchors gives, for each boundary, the position of its tick.
type ColorRamp struct {
	Source         string
	Kind           RampKind
	Classification ClassificationKind
	Boundaries     []ColorBoundary
	Positions      []float64
	Colors         []color.NRGBA
	Anchors        []float64

	// Uniform is true when the boundary values were not strictly
	// increasing and positions fall back to class indices.
	Uniform  bool
	Reversed bool
}

// NumColors returns the number of colours of the style
// (not the number of samples of a linear ramp).
func (r *ColorRamp) NumColors() int {
	if r.Kind == Discrete {
		return len(r.Boundaries) - 1
	}
	return len(r.Boundaries)
}

// Normalize maps a draw space position to [0, 1].
func (r *ColorRamp) Normalize(p float64) float64 {
	lo, hi := r.Positions[0], r.Positions[len(r.Positions)-1]
	if hi == lo {
		return 0
	}
	return (p - lo) / (hi - lo)
}

// Reverse returns a copy with the colour order flipped. Positions are
// mirrored so that they stay increasing.
func (r *ColorRamp) Reverse() *ColorRamp {
	out := *r
	lo, hi := r.Positions[0], r.Positions[len(r.Positions)-1]
	mirror := func(ps []float64) []float64 {
		res := make([]float64, len(ps))
		for i, p := range ps {
			res[len(ps)-1-i] = lo + hi - p
		}
		return res
	}
	out.Positions = mirror(r.Positions)
	out.Anchors = mirror(r.Anchors)

	out.Boundaries = make([]ColorBoundary, len(r.Boundaries))
	for i, b := range r.Boundaries {
		out.Boundaries[len(r.Boundaries)-1-i] = b
	}
	out.Colors = make([]color.NRGBA, len(r.Colors))
	for i, c := range r.Colors {
		out.Colors[len(r.Colors)-1-i] = c
	}
	out.Reversed = !r.Reversed
	return &out
}

// Title returns the default description of the ramp.
func (r *ColorRamp) Title(name string) string {
	return fmt.Sprintf("%s - Ramp type: %s, Classification mode: %s, Number colours: %d",
		name, r.Kind, r.Classification, r.NumColors())
}

// Hex returns the #rrggbb form of c.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex reads a #rrggbb or #rrggbbaa colour.
func ParseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	if len(s) == 6 {
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	l := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.NRGBA{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: l(a.A, b.A)}
}
