package config

import (
	"fmt"
	"testing"

	"github.com/geoproc/bccbar/plot"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExtras(t *testing.T) {
	e, err := ParseExtras(`{ title_align : 'Left', units_align:"right",
		mathfont_set: STIX,
		ticks_font_properties: {family: monospace, weight: extra bold, size: 9.5},
		title_font_properties: {style: oblique, variant: small-caps, stretch: condensed, size: x-small},
		units_font_properties: {},
	}`)
	require.NoError(t, err)
	require.NotNil(t, e.TitleAlign)
	require.NotNil(t, e.UnitsAlign)
	assert.Equal(t, plot.Left, *e.TitleAlign)
	assert.Equal(t, plot.Right, *e.UnitsAlign)
	assert.Equal(t, "stix", e.MathFontSet)
	assert.Equal(t, &FontSpec{Family: "monospace", Weight: "extra bold", Size: 9.5}, e.TicksFont)
	assert.Equal(t, &FontSpec{Style: "oblique", Variant: "small-caps", Stretch: "condensed", Scale: 0.694}, e.TitleFont)
	assert.Equal(t, &FontSpec{}, e.UnitsFont)

	d := plot.DefaultDisplay()
	e.Apply(&d)
	assert.Equal(t, plot.FontProps{Family: "monospace", Weight: "extra bold", Size: 9.5}, d.TickFont)
	assert.Equal(t, "bold", d.TitleFont.Weight)
	assert.InDelta(t, 28*0.694, d.TitleFont.Size, 1e-9)
	assert.Equal(t, plot.DefaultDisplay().UnitsFont, d.UnitsFont)
}

func TestParseExtrasEmpty(t *testing.T) {
	for _, s := range []string{"", "  ", "{}"} {
		e, err := ParseExtras(s)
		require.NoError(t, err, s)
		assert.Equal(t, Extras{}, e)
	}
}

func TestParseExtrasErrors(t *testing.T) {
	for _, s := range []string{
		"title_align: left",
		"{title_align: left",
		"{title_align left}",
		"{title_align: left} trailing",
		"{title_align: top}",
		"{colour: red}",
		"{mathfont_set: comic}",
		"{title_align: {a: b}}",
		"{ticks_font_properties: bold}",
		"{ticks_font_properties: {colour: red}}",
		"{ticks_font_properties: {size: 200}}",
		"{ticks_font_properties: {size: huge}}",
		"{ticks_font_properties: {weight: 1000}}",
		"{ticks_font_properties: {weight: fat}}",
		"{ticks_font_properties: {style: slanted}}",
		"{ticks_font_properties: {size: {a: b}}}",
		"{title_align: left, title_align: right}",
		"{title_align: 'left}",
		"{: left}",
	} {
		_, err := ParseExtras(s)
		assert.Error(t, err, s)
	}
}

func TestParseExtrasProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	aligns := []plot.Align{plot.Center, plot.Left, plot.Right}
	weights := []string{"normal", "bold", "medium", "300", "heavy"}
	properties.Property("generated extras read back", prop.ForAll(
		func(ta, ua, w int, size float64, quote bool) bool {
			q := ""
			if quote {
				q = "'"
			}
			s := fmt.Sprintf("{title_align: %[1]s%[2]s%[1]s, units_align:%[3]s, ticks_font_properties: {weight: %[4]s, size: %[5]g}}",
				q, aligns[ta], aligns[ua], weights[w], size)
			e, err := ParseExtras(s)
			if err != nil {
				return false
			}
			return *e.TitleAlign == aligns[ta] && *e.UnitsAlign == aligns[ua] &&
				e.TicksFont.Weight == weights[w] && e.TicksFont.Size == size
		},
		gen.IntRange(0, 2), gen.IntRange(0, 2), gen.IntRange(0, len(weights)-1),
		gen.Float64Range(0.5, 99), gen.Bool(),
	))
	properties.TestingRun(t)
}
