// Given a cropped scalebar document, implements how to
// draw it on a page or a bitmap.
// This requires a driver implementing the actual draw operations,
// such as a rasterizer to output .png images or a pdf writer.
package svgdraw

import (
	"fmt"
	"image/color"
	"log/slog"
	"strconv"
	"strings"

	"github.com/geoproc/bccbar/diag"
	"github.com/geoproc/bccbar/svgpath"
	"github.com/geoproc/bccbar/svgtrim"
)

// Drawer knows how to do the actual draw operations
// but doesn't need any SVG knowledge.
// In particular, transformation matrices are already applied to the points
// before sending them to the Drawer.
type Drawer interface {
	svgpath.Adder

	// Clear must reset the internal state (used before starting a new path painting)
	Clear()

	// SetColor sets the color for the current path
	SetColor(c color.NRGBA, opacity float64)

	// Draw fills or strokes the accumulated path using the current settings
	Draw()
}

type Filler interface {
	Drawer

	// Decide to use or not the NonZeroWinding rule for the current path
	SetWinding(useNonZeroWinding bool)
}

type Stroker interface {
	Drawer

	// Parametrize the stroking style for the current path
	SetStrokeOptions(options StrokeOptions)
}

type Driver interface {
	// SetupDrawers returns the backend painters, and
	// will be called at the beginning of every path.
	// If the `willXXX` boolean is false, the returned drawer should be nil.
	// When both booleans are true, the exact same draw operations
	// will be performed on the Filler first and then on the Stroker.
	SetupDrawers(willFill, willStroke bool) (Filler, Stroker)
}

// Box is a viewport, in user units.
type Box struct{ X, Y, W, H float64 }

// Viewport returns the viewBox of doc, falling back on its
// width and height attributes.
func Viewport(doc *svgtrim.Document) (Box, error) {
	if v, ok := doc.Root.Attr("viewBox"); ok {
		f := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
		if len(f) != 4 {
			return Box{}, diag.New(diag.ParseFailure, "invalid viewBox %q", v)
		}
		var b [4]float64
		for i, s := range f {
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return Box{}, diag.Wrap(diag.ParseFailure, err, "invalid viewBox")
			}
			b[i] = n
		}
		return Box{b[0], b[1], b[2], b[3]}, nil
	}
	w, errW := parseLength(doc.Root, "width")
	h, errH := parseLength(doc.Root, "height")
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return Box{}, diag.New(diag.ParseFailure, "document has no usable size")
	}
	return Box{W: w, H: h}, nil
}

func parseLength(n *svgtrim.Node, name string) (float64, error) {
	v, _ := n.Attr(name)
	v = strings.TrimSpace(v)
	for _, unit := range []string{"pt", "px"} {
		v = strings.TrimSuffix(v, unit)
	}
	return strconv.ParseFloat(v, 64)
}

// Target returns the transform drawing the content of vb
// within the rectangle x, y, w, h.
func Target(vb Box, x, y, w, h float64) svgpath.Matrix2D {
	return svgpath.Identity.Translate(x, y).Scale(w/vb.W, h/vb.H).Translate(-vb.X, -vb.Y)
}

// Options tunes Draw.
type Options struct {
	Transform svgpath.Matrix2D // user space to device space, zero means identity
	Opacity   float64          // global opacity, 0 means 1
	Mode      diag.ErrorMode
	Logger    *slog.Logger
}

type painter struct {
	driver  Driver
	opts    Options
	defs    map[string]*svgtrim.Node
	opacity float64
}

// Draw paints the paths, rectangles and <use> references of doc
// into the driver. Clip paths are ignored.
// Elements which cannot be drawn are skipped, logged, or
// reported as an error according to opts.Mode.
func Draw(doc *svgtrim.Document, d Driver, opts Options) error {
	p := painter{driver: d, opts: opts, defs: doc.Defs(), opacity: opts.Opacity}
	if p.opacity == 0 {
		p.opacity = 1
	}
	m := opts.Transform
	if m == (svgpath.Matrix2D{}) {
		m = svgpath.Identity
	}
	return p.node(doc.Root, DefaultStyle, m)
}

func (p *painter) unsupported(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	switch p.opts.Mode {
	case diag.StrictErrorMode:
		return diag.New(diag.ParseFailure, "%s", msg)
	case diag.WarnErrorMode:
		logger := p.opts.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn(msg)
	}
	return nil
}

func (p *painter) node(n *svgtrim.Node, parent PathStyle, m svgpath.Matrix2D) error {
	switch n.Name {
	case "", "defs", "clipPath", "metadata", "title", "desc", "style":
		return nil
	}
	style, err := parent.Update(n)
	if err != nil {
		if err := p.unsupported("<%s id=%q>: %s", n.Name, n.ID(), err); err != nil {
			return err
		}
	}
	if v, ok := n.Attr("transform"); ok {
		t, err := svgpath.ParseTransform(v)
		if err != nil {
			if err := p.unsupported("%s", err); err != nil {
				return err
			}
		}
		m = m.Mult(t.Matrix())
	}

	switch n.Name {
	case "svg", "g":
		for _, c := range n.Children {
			if err := p.node(c, style, m); err != nil {
				return err
			}
		}
	case "path":
		d, _ := n.Attr("d")
		path, err := svgpath.ParsePath(d)
		if err != nil {
			return p.unsupported("%s", err)
		}
		return p.draw(path, style, m)
	case "rect":
		x, _ := parseLength(n, "x")
		y, _ := parseLength(n, "y")
		w, _ := parseLength(n, "width")
		h, _ := parseLength(n, "height")
		var path svgpath.Path
		path.Rect(x, y, w, h)
		return p.draw(path, style, m)
	case "use":
		def, ok := p.defs[n.Href()]
		if !ok {
			return p.unsupported("definition %q not found", n.Href())
		}
		x, _ := parseLength(n, "x")
		y, _ := parseLength(n, "y")
		return p.node(def, style, m.Translate(x, y))
	default:
		return p.unsupported("cannot process svg element %s", n.Name)
	}
	return nil
}

// draw paints one path, filled first, then stroked.
// Colors and stroke options are set before the path is started.
func (p *painter) draw(path svgpath.Path, style PathStyle, m svgpath.Matrix2D) error {
	filler, stroker := p.driver.SetupDrawers(style.Fill != nil, style.Stroke != nil)
	if filler != nil {
		filler.Clear()
		filler.SetWinding(style.UseNonZeroWinding)
		filler.SetColor(*style.Fill, style.FillOpacity*p.opacity)
		if err := path.AddTo(filler, m); err != nil {
			if err := p.unsupported("%s", err); err != nil {
				return err
			}
		}
		filler.Draw()
		filler.SetWinding(true)
	}
	if stroker != nil {
		stroker.Clear()
		stroker.SetStrokeOptions(style.strokeOptions(m))
		stroker.SetColor(*style.Stroke, style.LineOpacity*p.opacity)
		if err := path.AddTo(stroker, m); err != nil && filler == nil {
			if err := p.unsupported("%s", err); err != nil {
				return err
			}
		}
		stroker.Draw()
	}
	return nil
}
