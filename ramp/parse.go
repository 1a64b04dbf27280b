package ramp

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/geoproc/bccbar/diag"
)

// ParseOptions tunes the normalization of a ramp.
type ParseOptions struct {
	Decimals      int  // decimals of numeric labels; negative means DefaultDecimals
	Reverse       bool // flip the colour order
	LinearSamples int  // minimum number of colour samples of a linear ramp
}

// DefaultParseOptions returns the options used when none are given.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Decimals: DefaultDecimals, LinearSamples: 256}
}

// Parse reads and normalizes the style of src.
func Parse(src StyleSource, opts ParseOptions) (*ColorRamp, error) {
	if src == nil {
		return nil, diag.New(diag.NotStyled, "no style source")
	}
	rec, err := src.record()
	if err != nil {
		return nil, err
	}
	if rec.Name == "" {
		rec.Name = src.Name()
	}
	return FromRecord(rec, opts)
}

// item is a colour entry once its attributes are decoded.
type item struct {
	value float64 // +-Inf until resolved
	label string
	color color.NRGBA
}

// FromRecord normalizes an already extracted style.
func FromRecord(rec *StyleRecord, opts ParseOptions) (*ColorRamp, error) {
	if opts.Decimals < 0 {
		opts.Decimals = DefaultDecimals
	}
	out := &ColorRamp{Source: rec.Name}

	renderer := strings.ToLower(strings.TrimSpace(rec.RendererType))
	switch {
	case renderer == "" || rec.Band < 1:
		return nil, diag.New(diag.NotStyled, "raster has no single band renderer")
	case rec.Band > 1 || renderer == "multibandcolor":
		return nil, diag.New(diag.MultiBandUnsupported, "renderer %q uses band %d", rec.RendererType, rec.Band)
	case renderer == "paletted":
		out.Kind, out.Classification = Paletted, NotApplicable
	case renderer == "singlebandpseudocolor":
		var err error
		if out.Kind, err = ParseRampKind(rec.RampType); err != nil || out.Kind == Paletted {
			return nil, diag.New(diag.UnsupportedFormat, "colour ramp type %q", rec.RampType)
		}
		if out.Classification, err = ParseClassification(rec.ClassificationMode); err != nil {
			return nil, diag.Wrap(diag.UnsupportedFormat, err, "colour ramp shader")
		}
	default:
		return nil, diag.New(diag.NotStyled, "renderer %q has no colour ramp", rec.RendererType)
	}

	if len(rec.Items) < 2 {
		return nil, diag.New(diag.TooFewColors, "%d colour entries", len(rec.Items))
	}
	items, err := decodeItems(rec.Items)
	if err != nil {
		return nil, err
	}
	if err = resolveInfinities(items, rec.ClassificationMin, rec.ClassificationMax, opts.Decimals); err != nil {
		return nil, err
	}

	bounds := make([]ColorBoundary, 0, len(items)+1)
	if out.Kind == Discrete {
		first := rec.ClassificationMin
		if math.IsNaN(first) || math.IsInf(first, 0) || first > items[0].value {
			first = 2*items[0].value - items[1].value - 0.5
		}
		bounds = append(bounds, ColorBoundary{Value: first, Label: FormatNumber(first, opts.Decimals), Color: items[0].color})
	}
	for _, it := range items {
		bounds = append(bounds, ColorBoundary{Value: it.value, Label: it.label, Color: it.color})
	}

	if out.Classification == Quantile {
		bounds = removeDuplicates(bounds)
	}
	if (out.Kind == Discrete || out.Kind == Linear) && len(bounds) == 3 && bounds[0].Value == bounds[1].Value {
		mid := (bounds[0].Value + bounds[2].Value) / 2
		bounds[1].Value, bounds[1].Label = mid, FormatNumber(mid, opts.Decimals)
	}
	minBounds := 2 // one box, or one gradient segment
	if out.Kind == Exact || out.Kind == Paletted {
		minBounds = 1
	}
	if len(bounds) < minBounds {
		return nil, diag.New(diag.TooFewColors, "%d colour entries left once duplicates are removed", len(bounds))
	}

	for i := range bounds {
		bounds[i].Label = FormatLabel(bounds[i].Label, opts.Decimals)
	}
	out.Boundaries = bounds
	out.layout(opts.LinearSamples)

	if opts.Reverse {
		out = out.Reverse()
	}
	return out, nil
}

func decodeItems(raw []ColorItem) ([]item, error) {
	items := make([]item, len(raw))
	for i, it := range raw {
		if strings.TrimSpace(it.Color) == "" {
			return nil, diag.New(diag.BadColorItem, "entry %d: missing color", i)
		}
		c, err := ParseHex(it.Color)
		if err != nil {
			return nil, diag.Wrap(diag.BadColorItem, err, "entry "+strconv.Itoa(i))
		}
		if a := strings.TrimSpace(it.Alpha); a != "" {
			alpha, err := strconv.Atoi(a)
			if err != nil || alpha < 0 || alpha > 255 {
				return nil, diag.New(diag.BadColorItem, "entry %d: invalid alpha %q", i, it.Alpha)
			}
			c.A = uint8(alpha)
		}
		if strings.TrimSpace(it.Value) == "" {
			return nil, diag.New(diag.BadColorItem, "entry %d: missing value", i)
		}
		v, ok := ParseNumber(it.Value)
		if !ok {
			return nil, diag.New(diag.BadColorItem, "entry %d: invalid value %q", i, it.Value)
		}
		label := it.Label
		if strings.TrimSpace(label) == "" {
			label = it.Value
		}
		items[i] = item{value: v, label: label, color: c}
	}
	return items, nil
}

// resolveInfinities replaces +-inf values by the classification bounds,
// or by extrapolating the two neighbouring values.
func resolveInfinities(items []item, min, max float64, decimals int) error {
	known := func(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
	for i := range items {
		if !math.IsInf(items[i].value, 1) {
			continue
		}
		switch {
		case known(max) && (i == 0 || max > items[i-1].value):
			items[i].value = max
		case i >= 2 && known(items[i-1].value) && known(items[i-2].value):
			items[i].value = 2*items[i-1].value - items[i-2].value
		default:
			return diag.New(diag.BadColorItem, "entry %d: cannot resolve infinite value", i)
		}
		items[i].label = FormatNumber(items[i].value, decimals)
	}
	for i := len(items) - 1; i >= 0; i-- {
		if !math.IsInf(items[i].value, -1) {
			continue
		}
		n := len(items)
		switch {
		case known(min) && (i == n-1 || min < items[i+1].value):
			items[i].value = min
		case i+2 < n && known(items[i+1].value) && known(items[i+2].value):
			items[i].value = 2*items[i+1].value - items[i+2].value
		default:
			return diag.New(diag.BadColorItem, "entry %d: cannot resolve infinite value", i)
		}
		items[i].label = FormatNumber(items[i].value, decimals)
	}
	return nil
}

// removeDuplicates deletes every boundary equal to its predecessor,
// with its label and colour. Indices are collected first, then removed.
func removeDuplicates(bounds []ColorBoundary) []ColorBoundary {
	var dups []int
	for i := 1; i < len(bounds); i++ {
		if bounds[i].Value == bounds[i-1].Value {
			dups = append(dups, i)
		}
	}
	if len(dups) == 0 {
		return bounds
	}
	out := make([]ColorBoundary, 0, len(bounds)-len(dups))
	next := 0
	for i, b := range bounds {
		if next < len(dups) && dups[next] == i {
			next++
			continue
		}
		out = append(out, b)
	}
	return out
}

func strictlyIncreasing(vs []float64) bool {
	for i := 1; i < len(vs); i++ {
		if !(vs[i] > vs[i-1]) {
			return false
		}
	}
	return true
}

func indices(n int, offset float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) + offset
	}
	return out
}

// layout computes positions, colours and anchors from the boundaries.
func (r *ColorRamp) layout(linearSamples int) {
	n := len(r.Boundaries)
	values := make([]float64, n)
	for i, b := range r.Boundaries {
		values[i] = b.Value
	}
	switch r.Kind {
	case Discrete:
		if strictlyIncreasing(values) {
			r.Positions = values
		} else {
			r.Uniform = true
			r.Positions = indices(n, 0)
		}
		r.Anchors = append([]float64(nil), r.Positions...)
		r.Colors = make([]color.NRGBA, n-1)
		for i := range r.Colors {
			r.Colors[i] = r.Boundaries[i+1].Color
		}
	case Linear:
		anchors := values
		if !strictlyIncreasing(values) {
			r.Uniform = true
			anchors = indices(n, 0)
		}
		r.Anchors = anchors
		samples := linearSamples
		if samples < n-1 {
			samples = n - 1
		}
		if samples < 1 {
			samples = 1
		}
		lo, hi := anchors[0], anchors[n-1]
		r.Positions = make([]float64, samples+1)
		for i := range r.Positions {
			r.Positions[i] = lo + (hi-lo)*float64(i)/float64(samples)
		}
		r.Positions[samples] = hi
		r.Colors = make([]color.NRGBA, samples)
		for i := range r.Colors {
			r.Colors[i] = r.colorAt((r.Positions[i] + r.Positions[i+1]) / 2)
		}
	default: // Exact, Paletted: one index per colour
		r.Positions = indices(n+1, 0)
		r.Anchors = indices(n, 0.5)
		r.Colors = make([]color.NRGBA, n)
		for i, b := range r.Boundaries {
			r.Colors[i] = b.Color
		}
	}
}

// colorAt interpolates the boundary colours of a linear ramp.
func (r *ColorRamp) colorAt(p float64) color.NRGBA {
	a := r.Anchors
	if p <= a[0] {
		return r.Boundaries[0].Color
	}
	for i := 1; i < len(a); i++ {
		if p <= a[i] {
			t := (p - a[i-1]) / (a[i] - a[i-1])
			return lerpColor(r.Boundaries[i-1].Color, r.Boundaries[i].Color, t)
		}
	}
	return r.Boundaries[len(a)-1].Color
}
