package plot

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"

	svg "github.com/ajstarks/svgo"
	"github.com/geoproc/bccbar/diag"
	"github.com/geoproc/bccbar/ramp"
	"github.com/geoproc/bccbar/svgpath"
)

// Size of the page holding the bar, in points. The page grows when the
// bar and its labels do not fit.
const (
	PageWidth  = 460.8
	PageHeight = 345.6
)

const (
	margin   = 10
	labelPad = 3.5 // between a tick and its label
	titlePad = 6
)

// Renderer writes scale bars as SVG pages.
type Renderer struct {
	Logger *slog.Logger // nil means slog.Default()
}

func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{Logger: logger}
}

func (rd *Renderer) logger() *slog.Logger {
	if rd.Logger == nil {
		return slog.Default()
	}
	return rd.Logger
}

type side uint8

const (
	bottom side = iota
	top
	left
	right
)

// sides returns where the primary and the secondary labels go.
func (d Display) sides() (primary, secondary side) {
	if d.Orientation == Horizontal {
		if d.Flip {
			return top, bottom
		}
		return bottom, top
	}
	if d.Flip {
		return right, left
	}
	return left, right
}

type box struct{ x0, y0, x1, y1 float64 }

func (b *box) add(o box) {
	b.x0, b.y0 = math.Min(b.x0, o.x0), math.Min(b.y0, o.y0)
	b.x1, b.y1 = math.Max(b.x1, o.x1), math.Max(b.y1, o.y1)
}

// label is a run of text placed by its baseline origin. Rotated
// labels read upward.
type label struct {
	line   line
	x, y   float64
	rotate bool
	fill   color.NRGBA
}

func (t *label) extent() box {
	a, d, _ := t.line.Metrics()
	w := t.line.Width()
	if t.rotate {
		return box{t.x - a, t.y - w, t.x + d, t.y}
	}
	return box{t.x, t.y - a, t.x + w, t.y + d}
}

type mark struct {
	x, y  float64 // where the tick meets the bar
	label *label  // nil for an empty label
}

type axis struct {
	side  side
	marks []mark
}

// scene is the layout of the bar, in bar space: the bar spans
// [0, w] x [0, h], y down.
type scene struct {
	d            Display
	r            *ramp.ColorRamp
	w, h         float64
	warp         func(float64) float64
	axes         []axis
	title, units *label
	ext          box
}

// warpOf maps positions to class indices when a proportional
// ramp is drawn with uniform spacing.
func warpOf(r *ramp.ColorRamp, sp Spacing) func(float64) float64 {
	a := r.Anchors
	if sp != Uniform || r.Uniform || len(a) < 2 || (r.Kind != ramp.Discrete && r.Kind != ramp.Linear) {
		return func(p float64) float64 { return p }
	}
	return func(p float64) float64 {
		j := sort.SearchFloat64s(a, p) - 1
		j = max(0, min(j, len(a)-2))
		return float64(j) + (p-a[j])/(a[j+1]-a[j])
	}
}

// along returns the coordinate of p along the bar. Vertical bars
// increase upward.
func (s *scene) along(p float64) float64 {
	ps := s.r.Positions
	lo, hi := s.warp(ps[0]), s.warp(ps[len(ps)-1])
	var f float64
	if hi != lo {
		f = (s.warp(p) - lo) / (hi - lo)
	}
	if s.d.Orientation == Horizontal {
		return f * s.w
	}
	return s.h * (1 - f)
}

// start returns where a run of width w begins along the bar.
func (s *scene) start(a Align, w float64) float64 {
	if s.d.Orientation == Horizontal {
		switch a {
		case Left:
			return 0
		case Right:
			return s.w - w
		}
		return (s.w - w) / 2
	}
	switch a {
	case Left:
		return s.h
	case Right:
		return w
	}
	return (s.h + w) / 2
}

func newScene(r *ramp.ColorRamp, ts ramp.TickSet, d Display) (*scene, error) {
	s := &scene{d: d, r: r, w: d.Length, h: d.Breadth, warp: warpOf(r, d.Spacing)}
	if d.Orientation == Vertical {
		s.w, s.h = d.Breadth, d.Length
	}
	s.ext = box{0, 0, s.w, s.h}

	tickFace, err := loadFace(d.TickFont)
	if err != nil {
		return nil, err
	}
	primary, secondary := d.sides()
	for i, ticks := range [][]ramp.Tick{ts.Primary, ts.Secondary} {
		if len(ticks) == 0 {
			continue
		}
		ax := axis{side: primary}
		if i == 1 {
			ax.side = secondary
		}
		for _, t := range ticks {
			m, err := s.mark(ax.side, t, tickFace)
			if err != nil {
				return nil, err
			}
			ax.marks = append(ax.marks, m)
		}
		s.axes = append(s.axes, ax)
	}

	// the title goes above (or left of) everything, the units below (or right)
	if d.Title != "" {
		if s.title, err = s.heading(d.Title, d.TitleFont, d.TitleColor, d.TitleAlign, true); err != nil {
			return nil, err
		}
	}
	if d.Units != "" {
		if s.units, err = s.heading(d.Units, d.UnitsFont, d.UnitsColor, d.UnitsAlign, false); err != nil {
			return nil, err
		}
	}
	if s.title != nil {
		s.ext.add(s.title.extent())
	}
	if s.units != nil {
		s.ext.add(s.units.extent())
	}
	return s, nil
}

func (s *scene) mark(sd side, t ramp.Tick, f *face) (mark, error) {
	a := s.along(t.Position)
	tl := s.d.TickLength
	var m mark
	switch sd {
	case bottom:
		m.x, m.y = a, s.h
		s.ext.add(box{a, s.h, a, s.h + tl})
	case top:
		m.x, m.y = a, 0
		s.ext.add(box{a, -tl, a, 0})
	case left:
		m.x, m.y = 0, a
		s.ext.add(box{-tl, a, 0, a})
	case right:
		m.x, m.y = s.w, a
		s.ext.add(box{s.w, a, s.w + tl, a})
	}
	if t.Label == "" {
		return m, nil
	}
	l, err := f.layout(t.Label, s.d.TickFont.Size)
	if err != nil {
		return mark{}, err
	}
	asc, desc, capHeight := l.Metrics()
	w := l.Width()
	lb := &label{line: l, fill: s.d.TickColor}
	switch sd {
	case bottom:
		lb.x, lb.y = m.x-w/2, s.h+tl+labelPad+asc
	case top:
		lb.x, lb.y = m.x-w/2, -tl-labelPad-desc
	case left:
		lb.x, lb.y = -tl-labelPad-w, m.y+capHeight/2
	case right:
		lb.x, lb.y = s.w+tl+labelPad, m.y+capHeight/2
	}
	m.label = lb
	s.ext.add(lb.extent())
	return m, nil
}

// heading lays out the title (before is true) or the units line,
// outside of the tick labels.
func (s *scene) heading(text string, fp FontProps, c color.NRGBA, a Align, before bool) (*label, error) {
	f, err := loadFace(fp)
	if err != nil {
		return nil, err
	}
	l, err := f.layout(text, fp.Size)
	if err != nil {
		return nil, err
	}
	asc, desc, _ := l.Metrics()
	t := &label{line: l, fill: c, rotate: s.d.Orientation == Vertical}
	if !t.rotate {
		t.x = s.start(a, l.Width())
		if before {
			t.y = s.ext.y0 - titlePad - desc
		} else {
			t.y = s.ext.y1 + titlePad + asc
		}
		return t, nil
	}
	t.y = s.start(a, l.Width())
	if before {
		t.x = s.ext.x0 - titlePad - desc
	} else {
		t.x = s.ext.x1 + titlePad + asc
	}
	return t, nil
}

// num formats a page coordinate.
func num(v float64) string {
	v = math.Round(v*1e6) / 1e6
	if v == 0 {
		v = 0 // no "-0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// exact formats glyph scales and offsets, which are short binary fractions.
func exact(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func attr(name, value string) string {
	return name + `="` + value + `"`
}

func fillStyle(c color.NRGBA) string {
	s := "fill:" + ramp.Hex(c)
	if c.A != 0xff {
		s += ";fill-opacity:" + num(float64(c.A)/255)
	}
	return s
}

func strokeStyle(c color.NRGBA, width float64) string {
	s := "fill:none;stroke:" + ramp.Hex(c) + ";stroke-width:" + num(width)
	if c.A != 0xff {
		s += ";stroke-opacity:" + num(float64(c.A)/255)
	}
	return s
}

// errWriter keeps the first write error, as svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

type emitter struct {
	canvas  *svg.SVG
	ox, oy  float64
	ids     map[string]int
	defined map[string]bool
}

func (e *emitter) next(prefix string) string {
	e.ids[prefix]++
	return prefix + "_" + strconv.Itoa(e.ids[prefix])
}

func (e *emitter) rect(x0, y0, x1, y1 float64) string {
	var p svgpath.Path
	x0, y0, x1, y1 = x0+e.ox, y0+e.oy, x1+e.ox, y1+e.oy
	p.MoveTo(x0, y0)
	p.LineTo(x1, y0)
	p.LineTo(x1, y1)
	p.LineTo(x0, y1)
	p.Close()
	return e.path(p)
}

func (e *emitter) path(p svgpath.Path) string {
	for _, pc := range p {
		for i, a := range pc.Args {
			pc.Args[i], _ = strconv.ParseFloat(num(a), 64)
		}
	}
	return p.ToSVGPath()
}

// Render writes the scale bar of r as an SVG page, with the ticks of ts
// and the appearance d.
func (rd *Renderer) Render(w io.Writer, r *ramp.ColorRamp, ts ramp.TickSet, d Display) error {
	if r == nil || len(r.Colors) == 0 || len(r.Positions) != len(r.Colors)+1 {
		return diag.New(diag.TooFewColors, "nothing to draw")
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid display: %w", err)
	}
	s, err := newScene(r, ts, d)
	if err != nil {
		return fmt.Errorf("laying out scale bar: %w", err)
	}

	pw := math.Max(PageWidth, s.ext.x1-s.ext.x0+2*margin)
	ph := math.Max(PageHeight, s.ext.y1-s.ext.y0+2*margin)
	ew := &errWriter{w: w}
	e := &emitter{
		canvas:  svg.New(ew),
		ox:      (pw-(s.ext.x1-s.ext.x0))/2 - s.ext.x0,
		oy:      (ph-(s.ext.y1-s.ext.y0))/2 - s.ext.y0,
		ids:     make(map[string]int),
		defined: make(map[string]bool),
	}
	// svgo only writes integer sizes
	fmt.Fprintf(e.canvas.Writer, header, num(pw), num(ph))
	clip := e.page(s, pw, ph)
	e.canvas.Def()
	e.canvas.ClipPath(attr("id", clip))
	e.canvas.Path(e.rect(0, 0, s.w, s.h))
	e.canvas.ClipEnd()
	e.canvas.DefEnd()
	e.canvas.End()
	if ew.err != nil {
		return diag.Wrap(diag.SaveFailed, ew.err, "writing svg")
	}

	rd.logger().Debug("rendered scale bar",
		slog.Int("boxes", len(r.Colors)),
		slog.Int("labels", len(ts.Primary)+len(ts.Secondary)),
		slog.String("page", num(pw)+"x"+num(ph)))
	return nil
}

const header = `<?xml version="1.0" encoding="utf-8" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN"
  "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">
<svg xmlns:xlink="http://www.w3.org/1999/xlink" width="%[1]spt" height="%[2]spt" viewBox="0 0 %[1]s %[2]s" xmlns="http://www.w3.org/2000/svg" version="1.1">
`

// page writes figure_1 and returns the id of the clip path
// of the colour boxes.
func (e *emitter) page(s *scene, pw, ph float64) string {
	c := e.canvas
	h := fnv.New32a()
	fmt.Fprintf(h, "%v %v %v %v", s.w, s.h, s.r.Positions, s.r.Colors)
	clip := fmt.Sprintf("p%08x", h.Sum32())

	c.Gid("figure_1")
	c.Gid(e.next("patch"))
	c.Path(e.rect(-e.ox, -e.oy, pw-e.ox, ph-e.oy), attr("style", "fill:none"))
	c.Gend()
	c.Gid("axes_1")

	for i, col := range s.r.Colors {
		a0, a1 := s.along(s.r.Positions[i]), s.along(s.r.Positions[i+1])
		var d string
		if s.d.Orientation == Horizontal {
			d = e.rect(a0, 0, a1, s.h)
		} else {
			d = e.rect(0, a1, s.w, a0)
		}
		c.Gid(e.next("patch"))
		c.Path(d, attr("clip-path", "url(#"+clip+")"), attr("style", fillStyle(col)))
		c.Gend()
	}
	if s.d.DrawEdges && s.d.EdgeWidth > 0 {
		e.edges(s)
	}
	for i, ax := range s.axes {
		e.axis(s, i+1, ax)
	}
	if s.d.BorderWidth > 0 {
		c.Gid(e.next("patch"))
		c.Path(e.rect(0, 0, s.w, s.h), attr("style",
			strokeStyle(s.d.BorderColor, s.d.BorderWidth)+";stroke-linejoin:miter;stroke-linecap:square"))
		c.Gend()
	}
	for _, t := range []*label{s.title, s.units} {
		if t != nil {
			e.text(t)
		}
	}
	c.Gend()
	c.Gend()
	return clip
}

// edges draws the dividers between colour classes.
func (e *emitter) edges(s *scene) {
	cuts := s.r.Positions
	if s.r.Kind == ramp.Linear {
		cuts = s.r.Anchors
	}
	if len(cuts) <= 2 {
		return
	}
	var p svgpath.Path
	for _, pos := range cuts[1 : len(cuts)-1] {
		a := s.along(pos)
		if s.d.Orientation == Horizontal {
			p.MoveTo(a+e.ox, e.oy)
			p.LineTo(a+e.ox, s.h+e.oy)
		} else {
			p.MoveTo(e.ox, a+e.oy)
			p.LineTo(s.w+e.ox, a+e.oy)
		}
	}
	e.canvas.Gid(e.next("LineCollection"))
	e.canvas.Path(e.path(p), attr("style", strokeStyle(s.d.EdgeColor, s.d.EdgeWidth)))
	e.canvas.Gend()
}

func markerPath(sd side, length float64) string {
	l := num(length)
	switch sd {
	case top:
		return "M 0 0 L 0 -" + l
	case left:
		return "M 0 0 L -" + l + " 0"
	case right:
		return "M 0 0 L " + l + " 0"
	}
	return "M 0 0 L 0 " + l
}

func (e *emitter) axis(s *scene, n int, ax axis) {
	c := e.canvas
	prefix := "xtick"
	if s.d.Orientation == Vertical {
		prefix = "ytick"
	}
	style := strokeStyle(s.d.TickColor, s.d.TickWidth)
	d := markerPath(ax.side, s.d.TickLength)
	h := fnv.New32a()
	fmt.Fprintf(h, "%s %s", d, style)
	marker := fmt.Sprintf("m%08x", h.Sum32())

	c.Gid(fmt.Sprintf("matplotlib.axis_%d", n))
	for _, m := range ax.marks {
		c.Gid(e.next(prefix))
		c.Gid(e.next("line2d"))
		if s.d.TickLength > 0 {
			if !e.defined[marker] {
				e.defined[marker] = true
				c.Def()
				c.Path(d, attr("id", marker), attr("style", style))
				c.DefEnd()
			}
			c.Group()
			c.Use(0, 0, "#"+marker,
				attr("transform", "translate("+num(m.x+e.ox)+" "+num(m.y+e.oy)+")"),
				attr("style", style))
			c.Gend()
		}
		c.Gend()
		if m.label != nil {
			e.text(m.label)
		}
		c.Gend()
	}
	c.Gend()
}

// text writes a label as uses of glyph outlines. The outlines are
// defined once per document, in em/100 units.
func (e *emitter) text(t *label) {
	c := e.canvas
	k := exact(t.line.size / 100)
	tr := "translate(" + num(t.x+e.ox) + " " + num(t.y+e.oy) + ")"
	if t.rotate {
		tr += " rotate(-90)"
	}
	tr += " scale(" + k + " -" + k + ")"
	em := 100 / t.line.face.unitsPerEm()

	c.Gid(e.next("text"))
	c.Group(attr("style", fillStyle(t.fill)), attr("transform", tr))
	var fresh []*glyph
	for _, g := range t.line.glyphs {
		if len(g.path) > 0 && !e.defined[g.id] {
			e.defined[g.id] = true
			fresh = append(fresh, g)
		}
	}
	if len(fresh) > 0 {
		c.Def()
		for _, g := range fresh {
			c.Path(g.path.ToSVGPath(), attr("id", g.id), attr("transform", "scale("+exact(em)+")"))
		}
		c.DefEnd()
	}
	for i, g := range t.line.glyphs {
		if len(g.path) == 0 {
			continue
		}
		c.Use(0, 0, "#"+g.id, attr("transform", "translate("+exact(t.line.xs[i]*em)+" 0)"))
	}
	c.Gend()
	c.Gend()
}
