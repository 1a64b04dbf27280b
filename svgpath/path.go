// Implements an abstract representation of
// svg paths, as found in the "d" attribute, and of
// the simple transforms applied to them.
package svgpath

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/math/fixed"
)

// Point is a position in user space.
type Point struct{ X, Y float64 }

// Fixed converts the point to 26.6 fixed point coordinates.
func (p Point) Fixed() fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(p.X * 64), Y: fixed.Int26_6(p.Y * 64)}
}

// FromFixed converts back a fixed point.
func FromFixed(a fixed.Point26_6) Point {
	return Point{X: float64(a.X) / 64, Y: float64(a.Y) / 64}
}

// PathCommand is one command letter and its numeric arguments,
// as read from a path.
type PathCommand struct {
	Op   byte
	Args []float64
}

// Points returns the arguments grouped as coordinate pairs.
// A trailing odd argument is dropped.
func (pc PathCommand) Points() []Point {
	out := make([]Point, 0, len(pc.Args)/2)
	for i := 0; i+1 < len(pc.Args); i += 2 {
		out = append(out, Point{pc.Args[i], pc.Args[i+1]})
	}
	return out
}

// Supported reports whether the command is one of the
// absolute commands M, L, Q, C or the close command.
func (pc PathCommand) Supported() bool {
	switch pc.Op {
	case 'M', 'L', 'Q', 'C', 'Z', 'z':
		return true
	}
	return false
}

// Path describes a sequence of basic SVG operations.
type Path []PathCommand

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToSVGPath returns a string representation of the path,
// suitable for the "d" attribute.
func (p Path) ToSVGPath() string {
	chunks := make([]string, 0, len(p))
	for _, pc := range p {
		var b strings.Builder
		b.WriteByte(pc.Op)
		for _, a := range pc.Args {
			b.WriteByte(' ')
			b.WriteString(formatFloat(a))
		}
		chunks = append(chunks, b.String())
	}
	return strings.Join(chunks, " ")
}

// String returns a readable representation of a Path.
func (p Path) String() string {
	return p.ToSVGPath()
}

// MoveTo starts a new sub-path.
func (p *Path) MoveTo(x, y float64) { *p = append(*p, PathCommand{Op: 'M', Args: []float64{x, y}}) }

// LineTo adds a line segment.
func (p *Path) LineTo(x, y float64) { *p = append(*p, PathCommand{Op: 'L', Args: []float64{x, y}}) }

// QuadTo adds a quadratic segment.
func (p *Path) QuadTo(cx, cy, x, y float64) {
	*p = append(*p, PathCommand{Op: 'Q', Args: []float64{cx, cy, x, y}})
}

// Close closes the current sub-path.
func (p *Path) Close() { *p = append(*p, PathCommand{Op: 'Z'}) }

// Rect appends a closed axis aligned rectangle.
func (p *Path) Rect(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// Adder interface for types that can accumulate path commands,
// already expressed in device space.
type Adder interface {
	// Start starts a new curve at the given point.
	Start(a fixed.Point26_6)
	// Line adds a line segment to the path
	Line(b fixed.Point26_6)
	// QuadBezier adds a quadratic bezier curve to the path
	QuadBezier(b, c fixed.Point26_6)
	// CubeBezier adds a cubic bezier curve to the path
	CubeBezier(b, c, d fixed.Point26_6)
	// Closes the path to the start point if closeLoop is true
	Stop(closeLoop bool)
}

// AddTo adds the Path p to q, after applying m to every point.
// Unsupported commands are skipped and reported in the returned error,
// the rest of the path is still added.
func (p Path) AddTo(q Adder, m Matrix2D) error {
	var unknown []string
	tr := func(pt Point) fixed.Point26_6 { return m.Apply(pt).Fixed() }
	for _, pc := range p {
		pts := pc.Points()
		switch pc.Op {
		case 'M':
			if len(pts) == 0 {
				continue
			}
			q.Stop(false) // implicit close if currently in path.
			q.Start(tr(pts[0]))
			for _, pt := range pts[1:] {
				q.Line(tr(pt))
			}
		case 'L':
			for _, pt := range pts {
				q.Line(tr(pt))
			}
		case 'Q':
			for i := 0; i+1 < len(pts); i += 2 {
				q.QuadBezier(tr(pts[i]), tr(pts[i+1]))
			}
		case 'C':
			for i := 0; i+2 < len(pts); i += 3 {
				q.CubeBezier(tr(pts[i]), tr(pts[i+1]), tr(pts[i+2]))
			}
		case 'Z', 'z':
			q.Stop(true)
		default:
			unknown = append(unknown, string(pc.Op))
		}
	}
	q.Stop(false)
	if len(unknown) != 0 {
		return fmt.Errorf("unsupported path commands: %s", strings.Join(unknown, ", "))
	}
	return nil
}
