// Package plot draws a normalized colour ramp as a scale bar, written as
// an SVG page following the element ids of a matplotlib figure
// (figure_1, axes_1, patch_N, text_N, ...), with glyph outlines
// stored as path definitions.
package plot

import (
	"fmt"
	"image/color"
	"strings"
)

// Orientation of the bar.
type Orientation uint8

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("<unknown Orientation %d>", uint8(o))
	}
}

func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal", "h":
		return Horizontal, nil
	case "vertical", "v":
		return Vertical, nil
	}
	return 0, fmt.Errorf("unknown orientation %q", s)
}

// Spacing decides how the boxes share the bar length.
type Spacing uint8

const (
	// Proportional boxes are as long as their value range.
	Proportional Spacing = iota
	// Uniform boxes all have the same length.
	Uniform
)

func (s Spacing) String() string {
	switch s {
	case Proportional:
		return "proportional"
	case Uniform:
		return "uniform"
	default:
		return fmt.Sprintf("<unknown Spacing %d>", uint8(s))
	}
}

func ParseSpacing(s string) (Spacing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "proportional":
		return Proportional, nil
	case "uniform":
		return Uniform, nil
	}
	return 0, fmt.Errorf("unknown spacing %q", s)
}

// Align positions a title along the bar.
type Align uint8

const (
	Center Align = iota
	Left
	Right
)

func (a Align) String() string {
	switch a {
	case Center:
		return "center"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("<unknown Align %d>", uint8(a))
	}
}

func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "center", "centre":
		return Center, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown alignment %q", s)
}

// FontProps selects a face and its size, in points.
// Empty fields mean "normal".
type FontProps struct {
	Family  string // "sans-serif", "monospace", ...
	Style   string // normal, italic, oblique
	Variant string // normal, small-caps
	Stretch string // accepted but not honoured: no condensed face is available
	Weight  string // normal, bold, 100..900, ...
	Size    float64
}

// Display holds the appearance of the scale bar.
// Lengths are in points.
type Display struct {
	Orientation Orientation
	Spacing     Spacing
	Length      float64 // along the ramp
	Breadth     float64

	// Flip moves the primary labels above (horizontal) or
	// to the right (vertical) of the bar.
	Flip bool

	TickLength float64
	TickWidth  float64
	TickColor  color.NRGBA
	TickFont   FontProps

	BorderWidth float64 // 0 for no frame
	BorderColor color.NRGBA
	DrawEdges   bool // dividers between colour boxes
	EdgeWidth   float64
	EdgeColor   color.NRGBA

	Title      string
	TitleFont  FontProps
	TitleColor color.NRGBA
	TitleAlign Align

	Units      string
	UnitsFont  FontProps
	UnitsColor color.NRGBA
	UnitsAlign Align
}

var (
	black = color.NRGBA{A: 0xff}
	grey  = color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
)

// DefaultDisplay is a horizontal bar twenty times longer than thick,
// with grey ticks and a bold title.
func DefaultDisplay() Display {
	return Display{
		Orientation: Horizontal,
		Spacing:     Proportional,
		Length:      432,
		Breadth:     21.6,
		TickLength:  8,
		TickWidth:   0.8,
		TickColor:   grey,
		TickFont:    FontProps{Family: "sans-serif", Size: 14},
		BorderWidth: 0.8,
		BorderColor: black,
		EdgeWidth:   0.8,
		EdgeColor:   black,
		TitleFont:   FontProps{Family: "sans-serif", Weight: "bold", Size: 28},
		TitleColor:  black,
		UnitsFont:   FontProps{Family: "sans-serif", Weight: "medium", Size: 14},
		UnitsColor:  black,
	}
}

// Validate checks the lengths and the fonts.
func (d Display) Validate() error {
	if d.Length <= 0 || d.Breadth <= 0 {
		return fmt.Errorf("bar size must be positive, got %gx%g", d.Length, d.Breadth)
	}
	if d.TickLength < 0 || d.TickWidth < 0 || d.BorderWidth < 0 || d.EdgeWidth < 0 {
		return fmt.Errorf("negative line length or width")
	}
	for _, f := range []FontProps{d.TickFont, d.TitleFont, d.UnitsFont} {
		if f.Size <= 0 {
			return fmt.Errorf("font size must be positive, got %g", f.Size)
		}
		if _, err := faceName(f); err != nil {
			return err
		}
	}
	return nil
}
