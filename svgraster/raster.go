// Implements a raster backend to render the scalebar,
// by wrapping rasterx.
package svgraster

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/geoproc/bccbar/diag"
	"github.com/geoproc/bccbar/svgdraw"
	"github.com/geoproc/bccbar/svgtrim"
	"github.com/srwiley/rasterx"
)

var _ svgdraw.Driver = (*Renderer)(nil) // assert interface conformance

// DefaultDPI is the resolution of the PNG companion file.
const DefaultDPI = 150

type Renderer struct {
	dasher *rasterx.Dasher // to avoid shared state
	filler *rasterx.Filler // we use separated instance
}

// NewRenderer returns a renderer with default values.
// If scanner is nil, a default scanner rasterx.ScannerGV is used
// on a new image of the given size.
func NewRenderer(width, height int, scanner rasterx.Scanner) *Renderer {
	if scanner == nil {
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		scanner = rasterx.NewScannerGV(width, height, img, img.Bounds())
	}
	return &Renderer{dasher: rasterx.NewDasher(width, height, scanner), filler: rasterx.NewFiller(width, height, scanner)}
}

type filler struct{ *rasterx.Filler }

type stroker struct{ *rasterx.Dasher }

func (rd *Renderer) SetupDrawers(willFill, willStroke bool) (f svgdraw.Filler, s svgdraw.Stroker) {
	if willFill {
		f = filler{rd.filler}
	}
	if willStroke {
		s = stroker{rd.dasher}
	}
	return f, s
}

func (f filler) SetColor(c color.NRGBA, opacity float64) {
	f.Filler.SetColor(rasterx.ApplyOpacity(c, opacity))
}

func (s stroker) SetColor(c color.NRGBA, opacity float64) {
	s.Dasher.SetColor(rasterx.ApplyOpacity(c, opacity))
}

var (
	joinToJoin = [...]rasterx.JoinMode{
		svgdraw.Round: rasterx.Round,
		svgdraw.Bevel: rasterx.Bevel,
		svgdraw.Miter: rasterx.Miter,
	}

	capToFunc = [...]rasterx.CapFunc{
		svgdraw.ButtCap:   rasterx.ButtCap,
		svgdraw.SquareCap: rasterx.SquareCap,
		svgdraw.RoundCap:  rasterx.RoundCap,
	}
)

func (s stroker) SetStrokeOptions(options svgdraw.StrokeOptions) {
	capF := capToFunc[options.Join.LineCap]
	s.SetStroke(
		options.LineWidth, options.Join.MiterLimit, capF, capF, rasterx.FlatGap,
		joinToJoin[options.Join.LineJoin], options.Dash.Dash, options.Dash.DashOffset,
	)
}

// Rasterize draws doc on a transparent image, one user unit
// (a point) spanning dpi/72 pixels.
func Rasterize(doc *svgtrim.Document, dpi float64, opts svgdraw.Options) (*image.RGBA, error) {
	vb, err := svgdraw.Viewport(doc)
	if err != nil {
		return nil, err
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	k := dpi / 72
	w, h := int(math.Ceil(vb.W*k)), int(math.Ceil(vb.H*k))
	if w <= 0 || h <= 0 {
		return nil, diag.New(diag.ParseFailure, "empty viewport %v", vb)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	renderer := NewRenderer(w, h, scanner)
	opts.Transform = svgdraw.Target(vb, 0, 0, vb.W*k, vb.H*k)
	if err := svgdraw.Draw(doc, renderer, opts); err != nil {
		return nil, err
	}
	return img, nil
}

// RasterSVGToImage parses the document read from r and rasterizes it.
func RasterSVGToImage(r io.Reader, dpi float64) (*image.RGBA, error) {
	doc, err := svgtrim.Parse(r)
	if err != nil {
		return nil, err
	}
	return Rasterize(doc, dpi, svgdraw.Options{Mode: diag.IgnoreErrorMode})
}

// TrimTransparent crops img to the smallest rectangle holding
// all its non transparent pixels.
func TrimTransparent(img image.Image) *image.NRGBA {
	b := img.Bounds()
	ink := image.Rectangle{Min: b.Max, Max: b.Min}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
				continue
			}
			ink.Min.X, ink.Min.Y = min(ink.Min.X, x), min(ink.Min.Y, y)
			ink.Max.X, ink.Max.Y = max(ink.Max.X, x+1), max(ink.Max.Y, y+1)
		}
	}
	if ink.Empty() {
		return imaging.New(0, 0, color.Transparent)
	}
	return imaging.Crop(img, ink)
}

// SavePNG writes img to path.
func SavePNG(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return diag.Wrap(diag.SaveFailed, err, "saving "+path)
	}
	return nil
}
