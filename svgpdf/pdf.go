// Implements a PDF backend to render the scalebar,
// by wrapping github.com/jung-kurt/gofpdf.
package svgpdf

import (
	"image/color"
	"io"

	"github.com/geoproc/bccbar/diag"
	"github.com/geoproc/bccbar/svgdraw"
	"github.com/geoproc/bccbar/svgtrim"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/math/fixed"
)

// assert interface conformance
var (
	_ svgdraw.Driver  = Renderer{}
	_ svgdraw.Filler  = (*filler)(nil)
	_ svgdraw.Stroker = stroker{}
)

type Renderer struct {
	pdf *gofpdf.Fpdf
}

// implements the common path commands,
// shared by the filler and the stroker
type pather struct {
	pdf *gofpdf.Fpdf
}

// implements the filling operation
type filler struct {
	pather
	useNonZeroWinding bool
}

// implements the stroking operation, while
// also writing the path
type stroker struct {
	pather
}

// NewRenderer return a renderer which will
// write to the given `pdf`.
func NewRenderer(pdf *gofpdf.Fpdf) Renderer {
	return Renderer{pdf: pdf}
}

func (r Renderer) SetupDrawers(willFill, willStroke bool) (f svgdraw.Filler, s svgdraw.Stroker) {
	if willFill {
		f = &filler{pather: pather{r.pdf}, useNonZeroWinding: true}
	}
	if willStroke {
		s = stroker{pather{r.pdf}}
	}
	return f, s
}

func fixedTof(a fixed.Point26_6) (float64, float64) {
	return float64(a.X) / 64, float64(a.Y) / 64
}

func (p pather) Clear() {}

func (p pather) Start(a fixed.Point26_6) {
	p.pdf.MoveTo(fixedTof(a))
}

func (p pather) Line(b fixed.Point26_6) {
	p.pdf.LineTo(fixedTof(b))
}

func (p pather) QuadBezier(b fixed.Point26_6, c fixed.Point26_6) {
	cx, cy := fixedTof(b)
	x, y := fixedTof(c)
	p.pdf.CurveTo(cx, cy, x, y)
}

func (p pather) CubeBezier(b fixed.Point26_6, c fixed.Point26_6, d fixed.Point26_6) {
	cx0, cy0 := fixedTof(b)
	cx1, cy1 := fixedTof(c)
	x, y := fixedTof(d)
	p.pdf.CurveBezierCubicTo(cx0, cy0, cx1, cy1, x, y)
}

func (p pather) Stop(closeLoop bool) {
	if closeLoop {
		p.pdf.ClosePath()
	}
}

func (f *filler) SetColor(c color.NRGBA, opacity float64) {
	f.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	f.pdf.SetAlpha(opacity*float64(c.A)/255, "Normal")
}

func (f *filler) Draw() {
	styleStr := "f*"
	if f.useNonZeroWinding {
		styleStr = "f"
	}
	f.pdf.DrawPath(styleStr)
}

func (f *filler) SetWinding(useNonZeroWinding bool) {
	f.useNonZeroWinding = useNonZeroWinding
}

func (s stroker) SetColor(c color.NRGBA, opacity float64) {
	s.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	s.pdf.SetAlpha(opacity*float64(c.A)/255, "Normal")
}

func (s stroker) Draw() {
	s.pdf.DrawPath("D")
}

var (
	capStyles  = [...]string{svgdraw.ButtCap: "butt", svgdraw.RoundCap: "round", svgdraw.SquareCap: "square"}
	joinStyles = [...]string{svgdraw.Miter: "miter", svgdraw.Round: "round", svgdraw.Bevel: "bevel"}
)

func (s stroker) SetStrokeOptions(options svgdraw.StrokeOptions) {
	s.pdf.SetLineWidth(float64(options.LineWidth) / 64)
	s.pdf.SetLineCapStyle(capStyles[options.Join.LineCap])
	s.pdf.SetLineJoinStyle(joinStyles[options.Join.LineJoin])
	s.pdf.SetDashPattern(options.Dash.Dash, options.Dash.DashOffset)
}

// Render draws doc on a single page of the size of its viewport,
// one user unit being one point.
func Render(doc *svgtrim.Document, title string, opts svgdraw.Options) (*gofpdf.Fpdf, error) {
	vb, err := svgdraw.Viewport(doc)
	if err != nil {
		return nil, err
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: vb.W, Ht: vb.H},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("bccbar", false)
	pdf.AddPage()
	opts.Transform = svgdraw.Target(vb, 0, 0, vb.W, vb.H)
	if err := svgdraw.Draw(doc, NewRenderer(pdf), opts); err != nil {
		return nil, err
	}
	if err := pdf.Error(); err != nil {
		return nil, diag.Wrap(diag.ParseFailure, err, "drawing pdf")
	}
	return pdf, nil
}

// Write renders doc and writes the PDF to w.
func Write(w io.Writer, doc *svgtrim.Document, title string, opts svgdraw.Options) error {
	pdf, err := Render(doc, title, opts)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return diag.Wrap(diag.SaveFailed, err, "writing pdf")
	}
	return nil
}

// WriteFile renders doc and saves the PDF to path.
func WriteFile(path string, doc *svgtrim.Document, title string, opts svgdraw.Options) error {
	pdf, err := Render(doc, title, opts)
	if err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return diag.Wrap(diag.SaveFailed, err, "saving "+path)
	}
	return nil
}
