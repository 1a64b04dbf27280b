package svgdraw

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/geoproc/bccbar/svgpath"
	"github.com/geoproc/bccbar/svgtrim"
	"golang.org/x/image/colornames"
	"golang.org/x/image/math/fixed"
)

var errParamMismatch = errors.New("param mismatch")

type DashOptions struct {
	Dash       []float64 // values for the dash pattern (nil or an empty slice for no dashes)
	DashOffset float64   // starting offset into the dash array
}

// JoinMode type to specify how segments join.
type JoinMode uint8

const (
	Miter JoinMode = iota
	Round
	Bevel
)

func (s JoinMode) String() string {
	switch s {
	case Round:
		return "Round"
	case Bevel:
		return "Bevel"
	case Miter:
		return "Miter"
	default:
		return "<unknown JoinMode>"
	}
}

// CapMode defines how to draw caps on the ends of lines
type CapMode uint8

const (
	ButtCap CapMode = iota
	SquareCap
	RoundCap
)

func (c CapMode) String() string {
	switch c {
	case ButtCap:
		return "ButtCap"
	case SquareCap:
		return "SquareCap"
	case RoundCap:
		return "RoundCap"
	default:
		return "<unknown CapMode>"
	}
}

type JoinOptions struct {
	MiterLimit fixed.Int26_6 // the miter cutoff value for the miter join mode
	LineJoin   JoinMode
	LineCap    CapMode
}

type StrokeOptions struct {
	LineWidth fixed.Int26_6 // width of the line, in device space
	Join      JoinOptions
	Dash      DashOptions
}

// PathStyle holds the state of the SVG style.
// A nil color disables filling or stroking.
type PathStyle struct {
	Fill, Stroke             *color.NRGBA
	FillOpacity, LineOpacity float64
	LineWidth                float64
	UseNonZeroWinding        bool

	Join JoinOptions
	Dash DashOptions
}

// DefaultStyle fills black with the non zero winding rule,
// full opacity, no stroke, butt line ends and miter joins.
var DefaultStyle = PathStyle{
	Fill:              &color.NRGBA{0, 0, 0, 0xff},
	FillOpacity:       1,
	LineOpacity:       1,
	LineWidth:         1,
	UseNonZeroWinding: true,
	Join:              JoinOptions{MiterLimit: fixed.I(4), LineJoin: Miter, LineCap: ButtCap},
}

// ParseColor reads an SVG color: a name, #rgb, #rrggbb or rgb(r, g, b).
// "none" returns nil. Paint servers (url(...)) are drawn black.
func ParseColor(v string) (*color.NRGBA, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case v == "none":
		return nil, nil
	case strings.HasPrefix(v, "url("):
		return &color.NRGBA{0, 0, 0, 0xff}, nil
	case strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")"):
		vals := strings.Split(v[4:len(v)-1], ",")
		if len(vals) != 3 {
			return nil, errParamMismatch
		}
		var c [3]uint8
		for i, s := range vals {
			s = strings.TrimSpace(s)
			d := 1.
			if strings.HasSuffix(s, "%") {
				s, d = strings.TrimSuffix(s, "%"), 100/255.
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, err
			}
			c[i] = uint8(math.Max(0, math.Min(255, math.Round(f/d))))
		}
		return &color.NRGBA{c[0], c[1], c[2], 0xff}, nil
	case strings.HasPrefix(v, "#"):
		h := v[1:]
		if len(h) == 3 {
			h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
		}
		if len(h) != 6 {
			return nil, fmt.Errorf("invalid color %q", v)
		}
		n, err := strconv.ParseUint(h, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid color %q", v)
		}
		return &color.NRGBA{uint8(n >> 16), uint8(n >> 8), uint8(n), 0xff}, nil
	}
	if c, ok := colornames.Map[v]; ok {
		return &color.NRGBA{c.R, c.G, c.B, c.A}, nil
	}
	return nil, fmt.Errorf("invalid color %q", v)
}

// Update returns a copy of s modified by the presentation attributes
// and the style attribute of n. The style attribute has precedence.
// Unknown properties are ignored.
func (s PathStyle) Update(n *svgtrim.Node) (PathStyle, error) {
	var pairs [][2]string
	var style string
	for _, a := range n.Attrs {
		if a.Name == "style" {
			style = a.Value
			continue
		}
		pairs = append(pairs, [2]string{a.Name, a.Value})
	}
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok {
			pairs = append(pairs, [2]string{strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v)})
		}
	}
	var firstErr error
	for _, kv := range pairs {
		if err := s.set(kv[0], kv[1]); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", kv[0], err)
		}
	}
	return s, firstErr
}

func (s *PathStyle) set(k, v string) error {
	switch k {
	case "fill":
		c, err := ParseColor(v)
		if err != nil {
			return err
		}
		s.Fill = c
	case "stroke":
		c, err := ParseColor(v)
		if err != nil {
			return err
		}
		s.Stroke = c
	case "fill-rule":
		s.UseNonZeroWinding = v != "evenodd"
	case "stroke-linecap":
		switch v {
		case "butt":
			s.Join.LineCap = ButtCap
		case "round":
			s.Join.LineCap = RoundCap
		case "square":
			s.Join.LineCap = SquareCap
		}
	case "stroke-linejoin":
		switch v {
		case "miter", "miter-clip":
			s.Join.LineJoin = Miter
		case "round", "arc":
			s.Join.LineJoin = Round
		case "bevel":
			s.Join.LineJoin = Bevel
		}
	case "stroke-miterlimit":
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		s.Join.MiterLimit = fixed.Int26_6(f * 64)
	case "stroke-width":
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
		if err != nil {
			return err
		}
		s.LineWidth = f
	case "stroke-dashoffset":
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		s.Dash.DashOffset = f
	case "stroke-dasharray":
		if v == "none" {
			s.Dash.Dash = nil
			break
		}
		var dl []float64
		for _, d := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			f, err := strconv.ParseFloat(d, 64)
			if err != nil {
				return err
			}
			dl = append(dl, f)
		}
		s.Dash.Dash = dl
	case "opacity", "stroke-opacity", "fill-opacity":
		op, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		if k != "stroke-opacity" {
			s.FillOpacity *= op
		}
		if k != "fill-opacity" {
			s.LineOpacity *= op
		}
	}
	return nil
}

// strokeOptions returns the stroke settings in device space.
func (s PathStyle) strokeOptions(m svgpath.Matrix2D) StrokeOptions {
	k := math.Sqrt(math.Abs(m.A*m.D - m.B*m.C))
	dash := DashOptions{DashOffset: s.Dash.DashOffset * k}
	for _, d := range s.Dash.Dash {
		dash.Dash = append(dash.Dash, d*k)
	}
	return StrokeOptions{
		LineWidth: fixed.Int26_6(s.LineWidth * k * 64),
		Join:      s.Join,
		Dash:      dash,
	}
}
