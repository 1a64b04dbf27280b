package plot

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/geoproc/bccbar/diag"
	"github.com/geoproc/bccbar/ramp"
	"github.com/geoproc/bccbar/svgtrim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const discreteQML = `<qgis version="3.28.4-Firenze">
  <pipe>
    <rasterrenderer type="singlebandpseudocolor" band="1" classificationMin="0" classificationMax="30">
      <rastershader>
        <colorrampshader colorRampType="DISCRETE" classificationMode="1">
          <item alpha="255" value="10" label="10" color="#440154"/>
          <item alpha="255" value="20" label="20" color="#21918c"/>
          <item alpha="128" value="30" label="30" color="#fde725"/>
        </colorrampshader>
      </rastershader>
    </rasterrenderer>
  </pipe>
</qgis>`

func testRamp(t *testing.T) (*ramp.ColorRamp, ramp.TickSet) {
	t.Helper()
	r, err := ramp.Parse(ramp.QMLBytes{Label: "test", Data: []byte(discreteQML)}, ramp.DefaultParseOptions())
	require.NoError(t, err)
	ts, err := ramp.SelectTicks(r, ramp.TickConfig{Step: 1, Placement: ramp.Alternate})
	require.NoError(t, err)
	return r, ts
}

func render(t *testing.T, r *ramp.ColorRamp, ts ramp.TickSet, d Display) *svgtrim.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(nil).Render(&buf, r, ts, d))
	doc, err := svgtrim.Parse(&buf)
	require.NoError(t, err, buf.String())
	return doc
}

func TestRenderStructure(t *testing.T) {
	r, ts := testRamp(t)
	d := DefaultDisplay()
	d.Title = "Rainfall"
	d.Units = "mm"
	doc := render(t, r, ts, d)

	for _, id := range []string{"figure_1", "patch_1", "axes_1", "matplotlib.axis_1", "matplotlib.axis_2", "xtick_1", "line2d_1", "text_1"} {
		assert.NotNil(t, doc.Root.Find(id), id)
	}
	assert.Nil(t, doc.Root.Find("axes_2"))

	var clipped int
	doc.Root.Walk(func(n *svgtrim.Node) bool {
		if _, ok := n.Attr("clip-path"); ok {
			clipped++
		}
		return true
	})
	assert.Equal(t, len(r.Colors), clipped)
	assert.Len(t, doc.Root.FindAll("clipPath"), 1)

	// every use resolves, glyphs are drawn with the Go fonts
	defs := doc.Defs()
	var glyphs int
	for _, u := range doc.Root.FindAll("use") {
		def, ok := defs[u.Href()]
		require.True(t, ok, u.Href())
		if strings.HasPrefix(u.Href(), "Go") {
			glyphs++
			tr, _ := def.Attr("transform")
			assert.Equal(t, "scale(0.048828125)", tr)
		}
	}
	assert.Positive(t, glyphs)
	assert.Contains(t, defs, "GoBold-52") // "R" of the title
}

func TestRenderBounds(t *testing.T) {
	r, ts := testRamp(t)
	d := DefaultDisplay()
	d.Title = "Rainfall"
	doc := render(t, r, ts, d)
	doc.Prune()
	assert.Nil(t, doc.Root.Find("patch_1"))

	b, diags := svgtrim.ComputeBounds(doc, svgtrim.Options{})
	assert.Zero(t, diags.Len(), diags.List())
	require.False(t, b.Empty())
	assert.GreaterOrEqual(t, b.Width(), d.Length)
	assert.Greater(t, b.Height(), d.Breadth+2*d.TickLength)
}

func TestRenderVertical(t *testing.T) {
	r, ts := testRamp(t)
	d := DefaultDisplay()
	d.Orientation = Vertical
	d.Title = "Rainfall"
	doc := render(t, r, ts, d)

	assert.NotNil(t, doc.Root.Find("ytick_1"))
	var rotated int
	doc.Root.Walk(func(n *svgtrim.Node) bool {
		if tr, _ := n.Attr("transform"); strings.Contains(tr, "rotate(-90)") {
			rotated++
		}
		return true
	})
	assert.Equal(t, 1, rotated)

	doc.Prune()
	b, diags := svgtrim.ComputeBounds(doc, svgtrim.Options{})
	assert.Zero(t, diags.Len())
	assert.GreaterOrEqual(t, b.Height(), d.Length)
	assert.Less(t, b.Width(), b.Height())
}

func TestRenderEdges(t *testing.T) {
	r, ts := testRamp(t)
	d := DefaultDisplay()
	d.DrawEdges = true
	d.BorderWidth = 0
	doc := render(t, r, ts, d)
	edges := doc.Root.Find("LineCollection_1")
	require.NotNil(t, edges)
	p := edges.Children[0]
	v, _ := p.Attr("d")
	assert.Equal(t, len(r.Colors)-1, strings.Count(v, "M"))
}

func TestWarp(t *testing.T) {
	r := &ramp.ColorRamp{
		Kind:      ramp.Discrete,
		Anchors:   []float64{0, 1, 10},
		Positions: []float64{0, 1, 10},
	}
	w := warpOf(r, Uniform)
	assert.InDelta(t, 0, w(0), 1e-12)
	assert.InDelta(t, 1, w(1), 1e-12)
	assert.InDelta(t, 1.5, w(5.5), 1e-12)
	assert.InDelta(t, 2, w(10), 1e-12)

	assert.Equal(t, 5.5, warpOf(r, Proportional)(5.5))
	r.Kind = ramp.Exact
	assert.Equal(t, 5.5, warpOf(r, Uniform)(5.5))
}

func TestFaceName(t *testing.T) {
	for _, test := range []struct {
		props FontProps
		want  string
	}{
		{FontProps{}, "GoRegular"},
		{FontProps{Weight: "bold"}, "GoBold"},
		{FontProps{Weight: "700", Style: "italic"}, "GoBoldItalic"},
		{FontProps{Weight: "medium"}, "GoMedium"},
		{FontProps{Style: "oblique"}, "GoItalic"},
		{FontProps{Family: "monospace", Weight: "bold"}, "GoMonoBold"},
		{FontProps{Variant: "small-caps", Style: "italic"}, "GoSmallcapsItalic"},
		{FontProps{Stretch: "condensed"}, "GoRegular"},
	} {
		got, err := faceName(test.props)
		require.NoError(t, err)
		assert.Equal(t, test.want, got, test.props)
	}

	for _, bad := range []FontProps{{Weight: "fat"}, {Style: "slanted"}, {Variant: "tiny"}, {Stretch: "wide"}} {
		_, err := faceName(bad)
		assert.Error(t, err, bad)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderErrors(t *testing.T) {
	r, ts := testRamp(t)
	rd := NewRenderer(nil)

	err := rd.Render(&bytes.Buffer{}, nil, ts, DefaultDisplay())
	assert.ErrorIs(t, err, diag.ErrTooFewColors)

	d := DefaultDisplay()
	d.Length = 0
	assert.Error(t, rd.Render(&bytes.Buffer{}, r, ts, d))

	d = DefaultDisplay()
	d.TickFont.Weight = "fat"
	assert.Error(t, rd.Render(&bytes.Buffer{}, r, ts, d))

	err = rd.Render(failingWriter{}, r, ts, DefaultDisplay())
	assert.ErrorIs(t, err, diag.ErrSaveFailed)
}
