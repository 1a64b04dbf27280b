package svgtrim

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/geoproc/bccbar/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseString(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

const figure = `<?xml version="1.0" encoding="utf-8" standalone="no"?>
<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="460.8pt" height="345.6pt" viewBox="0 0 460.8 345.6">
 <metadata><title>old</title></metadata>
 <defs><style type="text/css">*{stroke-linecap:butt}</style></defs>
 <g id="figure_1">
  <g id="patch_1"><path d="M0 345.6L460.8 345.6L460.8 0L0 0z" style="fill:#ffffff"/></g>
  <g id="axes_1">
   <g id="patch_2"><path clip-path="url(#p1)" d="M10 20L30 20L30 40L10 40z" style="fill:#ff0000"/></g>
   <g id="matplotlib.axis_1">
    <g id="xtick_1">
     <g id="line2d_1">
      <defs><path id="m1" d="M0 0L0 3.5" style="stroke:#000000"/></defs>
      <g><use xlink:href="#m1" x="30" y="40" style="stroke:#000000"/></g>
     </g>
     <g id="text_1">
      <g transform="translate(50 60)scale(0.1 -0.1)">
       <defs><path id="DejaVuSans-30" d="M0 0L100 0L100 100Z" transform="scale(0.5)"/></defs>
       <use xlink:href="#DejaVuSans-30"/>
       <use xlink:href="#DejaVuSans-30" x="60"/>
      </g>
     </g>
    </g>
   </g>
  </g>
  <g id="axes_2"><g id="patch_9"><path d="M-500 -500L-400 -400"/></g></g>
 </g>
 <defs><clipPath id="p1"><rect x="10" y="20" width="20" height="20"/></clipPath></defs>
</svg>`

func TestParse(t *testing.T) {
	doc := parseString(t, figure)
	assert.Equal(t, "svg", doc.Root.Name)
	fig := doc.Root.Find("figure_1")
	require.NotNil(t, fig)
	use := doc.Root.FindAll("use")[0]
	assert.Equal(t, "m1", use.Href())
	assert.True(t, use.Within("g"))

	defs := doc.Defs()
	assert.Contains(t, defs, "m1")
	assert.Contains(t, defs, "DejaVuSans-30")
	assert.NotContains(t, defs, "p1")
}

func TestParseFailure(t *testing.T) {
	for _, s := range []string{
		"",
		"<svg><g></svg>",
		"<svg><g>",
		"<html></html>",
		"<svg/><svg/>",
	} {
		_, err := Parse(strings.NewReader(s))
		assert.ErrorIs(t, err, diag.ErrParseFailure, s)
	}
}

func TestPrune(t *testing.T) {
	doc := parseString(t, figure)
	doc.Prune()
	for _, id := range []string{"patch_1", "axes_1", "axes_2", "matplotlib.axis_1", "patch_9"} {
		assert.Nil(t, doc.Root.Find(id), id)
	}
	fig := doc.Root.Find("figure_1")
	require.NotNil(t, fig)
	assert.Equal(t, "patch_2", fig.Children[0].ID())
	assert.Equal(t, "xtick_1", fig.Children[1].ID())
	assert.Same(t, fig, fig.Children[1].Parent)
}

func TestPruneDummyAxes(t *testing.T) {
	doc := parseString(t, `<svg><g id="figure_1">
	<g id="axes_1"><path d="M0 0L1 1"/></g>
	<g id="axes_2"><path d="M2 2L3 3"/></g>
	<g id="axes_3"><path d="M4 4L5 5"/></g>
	</g></svg>`)
	doc.Prune()
	fig := doc.Root.Find("figure_1")
	assert.Len(t, fig.Children, 2)
	assert.Nil(t, doc.Root.Find("axes_3"))
	for _, c := range fig.Children {
		assert.Equal(t, "path", c.Name)
	}
}

func TestBoundsSinglePath(t *testing.T) {
	doc := parseString(t, `<svg><path d="M0 0L10 10Z"/></svg>`)
	b, diags := ComputeBounds(doc, Options{})
	assert.Equal(t, Bounds{0, 0, 10, 10}, b)
	assert.Zero(t, diags.Len())
	assert.Equal(t, 10., b.Width())
}

func TestBoundsFigure(t *testing.T) {
	doc := parseString(t, figure)
	doc.Prune()
	b, diags := ComputeBounds(doc, Options{})
	assert.Zero(t, diags.Len(), diags.List())
	// glyph outlines are halved by their definition, then scaled by
	// the run; the second glyph is 60 units to the right
	assert.InDelta(t, 10, b.XMin, 1e-9)
	assert.InDelta(t, 20, b.YMin, 1e-9)
	assert.InDelta(t, 61, b.XMax, 1e-9)
	assert.InDelta(t, 60, b.YMax, 1e-9)
}

func TestBoundsRotatedText(t *testing.T) {
	doc := parseString(t, `<svg xmlns:xlink="http://www.w3.org/1999/xlink">
	<defs><path id="g" d="M0 0L10 0L10 20Z" transform="scale(0.5)"/></defs>
	<g id="text_3"><g transform="translate(100 200)rotate(-89.9)scale(1 -1)">
	<use xlink:href="#g" transform="translate(4 0)"/>
	</g></g></svg>`)
	b, diags := ComputeBounds(doc, Options{})
	assert.Zero(t, diags.Len())
	// the glyph spans [4,9]x[0,10] in the run, which reads upwards
	assert.InDelta(t, 90, b.XMin, 1e-9)
	assert.InDelta(t, 100, b.XMax, 1e-9)
	assert.InDelta(t, 191, b.YMin, 1e-9)
	assert.InDelta(t, 196, b.YMax, 1e-9)
}

func TestBoundsMissingGlyph(t *testing.T) {
	doc := parseString(t, `<svg xmlns:xlink="http://www.w3.org/1999/xlink">
	<path d="M0 0L5 5"/>
	<g id="text_1"><g transform="translate(1 1)"><use xlink:href="#nope"/></g></g>
	<path d="M1 1A2 2 0 0 1 3 3"/>
	</svg>`)
	b, diags := ComputeBounds(doc, Options{Mode: diag.WarnErrorMode})
	assert.Equal(t, Bounds{0, 0, 5, 5}, b)
	require.Equal(t, 2, diags.Len())
	assert.Equal(t, "text_1", diags.List()[0].Where)
	assert.Contains(t, diags.List()[0].Msg, "nope")
	assert.Contains(t, diags.List()[1].Msg, "A")
}

func TestBoundsTextWithoutTransform(t *testing.T) {
	doc := parseString(t, `<svg>
	<defs><path id="g" d="M0 0L10 10"/></defs>
	<path d="M0 0L1 1"/>
	<g id="text_1"><use href="#g" x="50"/></g>
	<g id="text_2"><g><use href="#g" x="80"/></g></g>
	</svg>`)
	b, diags := ComputeBounds(doc, Options{})
	assert.Zero(t, diags.Len(), diags.List())
	assert.Equal(t, Bounds{0, 0, 90, 10}, b)
}

func TestBoundsExactCurves(t *testing.T) {
	doc := parseString(t, `<svg><path d="M0 0Q5 10 10 0"/></svg>`)
	b, _ := ComputeBounds(doc, Options{})
	assert.Equal(t, 10., b.YMax)

	b, _ = ComputeBounds(doc, Options{ExactCurves: true})
	assert.InDelta(t, 5, b.YMax, 1e-9)
	assert.Equal(t, 10., b.XMax)
}

func TestBoundsEmpty(t *testing.T) {
	doc := parseString(t, `<svg><g id="figure_1"/></svg>`)
	b, _ := ComputeBounds(doc, Options{})
	assert.True(t, b.Empty())
	err := Write(new(bytes.Buffer), doc, b, Meta{})
	assert.ErrorIs(t, err, diag.ErrParseFailure)
}

func TestWrite(t *testing.T) {
	doc := parseString(t, `<svg xmlns:xlink="http://www.w3.org/1999/xlink"><g id="figure_1">
	<g id="patch_2"><path clip-path="url(#p0)" d="M5 5L105 55"/></g>
	<g id="text_1"><g transform="translate(5 5)"><defs>
	  <path d="M0 0" id="Go-10"/><path d="M0 0" id="Go-9"/><path style="x" clip-path="url(#p0)" d="M0 0" id="Go-b"/>
	</defs><use xlink:href="#Go-9"/></g></g>
	</g><defs><clipPath id="p0"><rect x="0" y="0" width="1" height="1"/></clipPath></defs></svg>`)
	var buf bytes.Buffer
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	err := Write(&buf, doc, Bounds{5, 5, 105, 55}, Meta{Title: "a & b", Date: date})
	require.NoError(t, err)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="utf-8" standalone="no"?>`))
	assert.Contains(t, out, `height="50pt" width="100pt" viewBox="0 0 100 50"`)
	assert.Contains(t, out, `<g id="bcCBar" transform="translate(-5 -5)">`)
	assert.Contains(t, out, `<dc:date>2024-03-01</dc:date>`)
	assert.Contains(t, out, `<dc:title>a &amp; b</dc:title>`)
	assert.NotContains(t, out, "clip-path")
	assert.NotContains(t, out, "clipPath")
	assert.Equal(t, 1, strings.Count(out, "<defs>"))

	i9 := strings.Index(out, `<path id="Go-9" d="M0 0"/>`)
	i10 := strings.Index(out, `<path id="Go-10" d="M0 0"/>`)
	ib := strings.Index(out, `<path id="Go-b" style="x" d="M0 0"/>`)
	require.True(t, i9 > 0 && i10 > 0 && ib > 0, out)
	assert.Less(t, i9, i10)
	assert.Less(t, i10, ib)

	assert.Contains(t, out, "\n      <g id=\"patch_2\">\n        <path d=\"M5 5L105 55\"/>\n")
	assert.True(t, strings.HasSuffix(out, "  </g>\n</svg>\n"))

	// the result is itself a valid document with the same ink
	again, err := Parse(strings.NewReader(out))
	require.NoError(t, err)
	g := again.Root.Find("bcCBar")
	require.NotNil(t, g)
	b, _ := ComputeBounds(again, Options{})
	assert.InDelta(t, 0, b.XMin, 1e-9)
	assert.InDelta(t, 100, b.XMax, 1e-9)
}

func TestNaturalCompare(t *testing.T) {
	assert.Negative(t, naturalCompare("a2", "a10"))
	assert.Positive(t, naturalCompare("DejaVu-41", "dejavu-5a"))
	assert.Negative(t, naturalCompare("DejaVu-41", "dejavu-41a"))
	assert.Positive(t, naturalCompare("m10", "m9"))
	assert.Zero(t, naturalCompare("x007", "x7"))
	assert.Negative(t, naturalCompare("p", "p1"))
	assert.Negative(t, naturalCompare("1", "a"))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	doc := parseString(t, `<svg><path d="M0 0L10 10Z"/></svg>`)
	path := filepath.Join(dir, "out.svg")
	require.NoError(t, WriteFile(path, doc, Bounds{0, 0, 10, 10}, Meta{Title: "t"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `viewBox="0 0 10 10"`)

	err = WriteFile(filepath.Join(dir, "missing", "out.svg"), doc, Bounds{0, 0, 10, 10}, Meta{})
	assert.ErrorIs(t, err, diag.ErrSaveFailed)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func TestWriteSaveFailed(t *testing.T) {
	doc := parseString(t, `<svg><path d="M0 0L10 10Z"/></svg>`)
	err := Write(failingWriter{}, doc, Bounds{0, 0, 10, 10}, Meta{})
	assert.ErrorIs(t, err, diag.ErrSaveFailed)
	assert.ErrorIs(t, err, os.ErrClosed)
}
