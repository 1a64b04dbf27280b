package svgtrim

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/geoproc/bccbar/diag"
	"github.com/geoproc/bccbar/svgpath"
)

// Bounds is an axis aligned box in document coordinates.
type Bounds struct {
	XMin, YMin, XMax, YMax float64
}

// EmptyBounds contains nothing; adding a point to it gives
// a degenerate box.
var EmptyBounds = Bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}

// Empty is true if no point was added.
func (b Bounds) Empty() bool { return b.XMin > b.XMax || b.YMin > b.YMax }

func (b Bounds) Width() float64  { return b.XMax - b.XMin }
func (b Bounds) Height() float64 { return b.YMax - b.YMin }

func (b *Bounds) add(p svgpath.Point) {
	b.XMin = math.Min(b.XMin, p.X)
	b.YMin = math.Min(b.YMin, p.Y)
	b.XMax = math.Max(b.XMax, p.X)
	b.YMax = math.Max(b.YMax, p.Y)
}

// Options tunes ComputeBounds.
type Options struct {
	// ExactCurves bounds curves by their extrema instead of
	// their control points.
	ExactCurves bool
	Mode        diag.ErrorMode
	Logger      *slog.Logger
}

type boxer struct {
	opts  Options
	defs  map[string]*Node
	box   Bounds
	diags *diag.Diagnostics
}

// ComputeBounds returns the tightest box enclosing the shapes and the
// glyph outlines of doc. Problems met on the way (unknown path
// commands, missing glyphs, bad transforms) are skipped and reported.
// Stroke widths are not taken into account.
func ComputeBounds(doc *Document, opts Options) (Bounds, *diag.Diagnostics) {
	b := boxer{
		opts:  opts,
		defs:  doc.Defs(),
		box:   EmptyBounds,
		diags: &diag.Diagnostics{Mode: opts.Mode, Logger: opts.Logger},
	}
	scope := doc.Root.Find("figure_1")
	if scope == nil {
		scope = doc.Root
	}
	m := svgpath.Identity
	for p := scope.Parent; p != nil; p = p.Parent {
		if _, ok := p.Attr("transform"); ok {
			m = b.transformOf(p).Matrix().Mult(m)
		}
	}
	b.walk(scope, m)
	return b.box, b.diags
}

func isTextGroup(n *Node) bool {
	id := n.ID()
	if n.Name != "g" || !strings.HasPrefix(id, "text_") {
		return false
	}
	_, err := strconv.Atoi(id[len("text_"):])
	return err == nil
}

// where names n for diagnostics
func where(n *Node) string {
	for ; n != nil; n = n.Parent {
		if id := n.ID(); id != "" {
			return id
		}
	}
	return ""
}

func (b *boxer) transformOf(n *Node) svgpath.Affine2D {
	v, ok := n.Attr("transform")
	if !ok {
		return svgpath.IdentityAffine
	}
	t, err := svgpath.ParseTransform(v)
	if err != nil {
		b.diags.Addf(where(n), "%s", err)
	}
	return t
}

func (b *boxer) length(n *Node, name string) float64 {
	v, ok := n.Attr(name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		b.diags.Addf(where(n), "invalid %s %q", name, v)
	}
	return f
}

func (b *boxer) walk(n *Node, m svgpath.Matrix2D) {
	switch n.Name {
	case "", "defs", "clipPath", "metadata", "title", "desc", "style":
		return
	}
	if _, ok := n.Attr("transform"); ok {
		m = m.Mult(b.transformOf(n).Matrix())
	}
	switch n.Name {
	case "g":
		if isTextGroup(n) {
			b.text(n, m)
			return
		}
	case "path":
		b.path(n, m)
	case "rect":
		x, y := b.length(n, "x"), b.length(n, "y")
		w, h := b.length(n, "width"), b.length(n, "height")
		for _, p := range []svgpath.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}} {
			b.box.add(m.Apply(p))
		}
	case "use":
		b.use(n, m.Translate(b.length(n, "x"), b.length(n, "y")), where(n))
	}
	for _, c := range n.Children {
		b.walk(c, m)
	}
}

// use adds the definition referenced by n, m being the
// transform of the use element.
func (b *boxer) use(n *Node, m svgpath.Matrix2D, at string) {
	id := n.Href()
	def, ok := b.defs[id]
	if !ok {
		b.diags.Addf(at, "definition %q not found", id)
		return
	}
	if def.Name != "path" {
		b.diags.Addf(at, "unsupported definition <%s> for %q", def.Name, id)
		return
	}
	b.path(def, m.Mult(b.transformOf(def).Matrix()))
}

func (b *boxer) path(n *Node, m svgpath.Matrix2D) {
	d, _ := n.Attr("d")
	p, err := svgpath.ParsePath(d)
	if err != nil {
		b.diags.Addf(where(n), "%s", err)
		return
	}
	var cur, start svgpath.Point
	for _, pc := range p {
		pts := pc.Points()
		for i := range pts {
			pts[i] = m.Apply(pts[i])
		}
		switch pc.Op {
		case 'M', 'L':
			for i, pt := range pts {
				b.box.add(pt)
				if pc.Op == 'M' && i == 0 {
					start = pt
				}
				cur = pt
			}
		case 'Q':
			for i := 0; i+1 < len(pts); i += 2 {
				if b.opts.ExactCurves {
					for _, e := range svgpath.QuadExtremes(cur, pts[i], pts[i+1]) {
						b.box.add(e)
					}
				} else {
					b.box.add(pts[i])
					b.box.add(pts[i+1])
				}
				cur = pts[i+1]
			}
		case 'C':
			for i := 0; i+2 < len(pts); i += 3 {
				if b.opts.ExactCurves {
					for _, e := range svgpath.CubicExtremes(cur, pts[i], pts[i+1], pts[i+2]) {
						b.box.add(e)
					}
				} else {
					b.box.add(pts[i])
					b.box.add(pts[i+1])
					b.box.add(pts[i+2])
				}
				cur = pts[i+2]
			}
		case 'Z', 'z':
			cur = start
		default:
			b.diags.Addf(where(n), "unsupported path command %q", string(pc.Op))
		}
	}
}

// text adds the glyphs of a text group. Each inner group carries the
// placement of a text run, the identity when it has no transform;
// its rotation is rounded to a right angle. Glyph uses are offset by
// their own transform and x, y attributes, and each glyph definition
// carries its own scale. Uses directly under the group are placed by
// the group alone.
func (b *boxer) text(group *Node, m svgpath.Matrix2D) {
	at := where(group)
	for _, c := range group.Children {
		if c.Name != "g" {
			b.glyph(c, m, at)
			continue
		}
		gm := m
		if _, ok := c.Attr("transform"); ok {
			gm = m.Mult(b.transformOf(c).RightAngle().Matrix())
		}
		b.run(c, gm, at)
	}
}

func (b *boxer) run(g *Node, m svgpath.Matrix2D, at string) {
	for _, c := range g.Children {
		b.glyph(c, m, at)
	}
}

func (b *boxer) glyph(c *Node, m svgpath.Matrix2D, at string) {
	switch c.Name {
	case "use":
		um := m.Mult(b.transformOf(c).Matrix()).Translate(b.length(c, "x"), b.length(c, "y"))
		id := c.Href()
		if def, ok := b.defs[id]; !ok || def.Name != "path" {
			b.diags.Addf(at, "glyph %q not found", id)
			return
		}
		b.use(c, um, at)
	case "path":
		b.path(c, m)
	case "g":
		cm := m
		if _, ok := c.Attr("transform"); ok {
			cm = m.Mult(b.transformOf(c).Matrix())
		}
		b.run(c, cm, at)
	}
}
