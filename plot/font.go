package plot

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/geoproc/bccbar/svgpath"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/gofont/gosmallcapsitalic"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

var ttfs = map[string][]byte{
	"GoRegular":         goregular.TTF,
	"GoBold":            gobold.TTF,
	"GoItalic":          goitalic.TTF,
	"GoBoldItalic":      gobolditalic.TTF,
	"GoMedium":          gomedium.TTF,
	"GoMediumItalic":    gomediumitalic.TTF,
	"GoMono":            gomono.TTF,
	"GoMonoBold":        gomonobold.TTF,
	"GoMonoItalic":      gomonoitalic.TTF,
	"GoMonoBoldItalic":  gomonobolditalic.TTF,
	"GoSmallcaps":       gosmallcaps.TTF,
	"GoSmallcapsItalic": gosmallcapsitalic.TTF,
}

var stretches = map[string]bool{
	"": true, "normal": true, "ultra-condensed": true, "extra-condensed": true, "condensed": true,
	"semi-condensed": true, "semi-expanded": true, "expanded": true, "extra-expanded": true,
	"ultra-expanded": true,
}

// weight returns the numeric weight of a css-like weight name.
func weight(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal", "regular", "book", "roman":
		return 400, nil
	case "ultralight", "extra light":
		return 200, nil
	case "light":
		return 300, nil
	case "medium":
		return 500, nil
	case "semibold", "demibold", "demi":
		return 600, nil
	case "bold":
		return 700, nil
	case "heavy", "extra bold", "black":
		return 900, nil
	}
	w, err := strconv.Atoi(s)
	if err != nil || w < 100 || w > 1000 {
		return 0, fmt.Errorf("invalid font weight %q", s)
	}
	return w, nil
}

// faceName picks the Go font closest to p.
func faceName(p FontProps) (string, error) {
	w, err := weight(p.Weight)
	if err != nil {
		return "", err
	}
	var italic bool
	switch strings.ToLower(p.Style) {
	case "", "normal":
	case "italic", "oblique":
		italic = true
	default:
		return "", fmt.Errorf("invalid font style %q", p.Style)
	}
	var smallCaps bool
	switch strings.ToLower(p.Variant) {
	case "", "normal":
	case "small-caps":
		smallCaps = true
	default:
		return "", fmt.Errorf("invalid font variant %q", p.Variant)
	}
	if !stretches[strings.ToLower(p.Stretch)] {
		if _, err := strconv.Atoi(p.Stretch); err != nil {
			return "", fmt.Errorf("invalid font stretch %q", p.Stretch)
		}
	}

	name := "Go"
	switch {
	case smallCaps:
		name += "Smallcaps"
	case isMonospace(p.Family):
		name += "Mono"
		if w >= 600 {
			name += "Bold"
		}
	case w >= 600:
		name += "Bold"
	case w >= 500:
		name += "Medium"
	}
	if italic {
		name += "Italic"
	}
	if name == "Go" {
		name = "GoRegular"
	}
	return name, nil
}

func isMonospace(family string) bool {
	switch strings.ToLower(strings.TrimSpace(family)) {
	case "monospace", "mono", "go mono", "courier", "courier new":
		return true
	}
	return false
}

// glyph is the outline of a rune, in font units, y up.
type glyph struct {
	id      string
	path    svgpath.Path
	advance fixed.Int26_6
}

// face wraps a parsed font. The sfnt buffer is not safe for concurrent
// use, so every method locks.
type face struct {
	name string
	font *sfnt.Font
	ppem fixed.Int26_6

	mu     sync.Mutex
	buf    sfnt.Buffer
	glyphs map[rune]*glyph
}

var faces = struct {
	sync.Mutex
	m map[string]*face
}{m: make(map[string]*face)}

func loadFace(p FontProps) (*face, error) {
	name, err := faceName(p)
	if err != nil {
		return nil, err
	}
	faces.Lock()
	defer faces.Unlock()
	if f, ok := faces.m[name]; ok {
		return f, nil
	}
	fnt, err := sfnt.Parse(ttfs[name])
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", name, err)
	}
	f := &face{
		name:   name,
		font:   fnt,
		ppem:   fixed.I(int(fnt.UnitsPerEm())),
		glyphs: make(map[rune]*glyph),
	}
	faces.m[name] = f
	return f, nil
}

func (f *face) unitsPerEm() float64 { return float64(f.font.UnitsPerEm()) }

// glyph returns the outline of r, the .notdef box for missing runes.
func (f *face) glyph(r rune) (*glyph, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.glyphs[r]; ok {
		return g, nil
	}
	idx, err := f.font.GlyphIndex(&f.buf, r)
	if err != nil {
		return nil, err
	}
	segments, err := f.font.LoadGlyph(&f.buf, idx, f.ppem, nil)
	if err != nil {
		return nil, fmt.Errorf("glyph %q of %s: %w", r, f.name, err)
	}
	adv, err := f.font.GlyphAdvance(&f.buf, idx, f.ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("advance of %q in %s: %w", r, f.name, err)
	}
	g := &glyph{id: fmt.Sprintf("%s-%x", f.name, r), advance: adv}

	// segments are y down
	pt := func(p fixed.Point26_6) (float64, float64) {
		return float64(p.X) / 64, -float64(p.Y) / 64
	}
	for i, s := range segments {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if i > 0 {
				g.path.Close()
			}
			g.path.MoveTo(pt(s.Args[0]))
		case sfnt.SegmentOpLineTo:
			g.path.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			cx, cy := pt(s.Args[0])
			x, y := pt(s.Args[1])
			g.path.QuadTo(cx, cy, x, y)
		case sfnt.SegmentOpCubeTo:
			// TrueType outlines only hold quadratic segments
			x, y := pt(s.Args[2])
			g.path.LineTo(x, y)
		}
	}
	if len(segments) > 0 {
		g.path.Close()
	}
	f.glyphs[r] = g
	return g, nil
}

func (f *face) kern(a, b rune) fixed.Int26_6 {
	f.mu.Lock()
	defer f.mu.Unlock()
	ia, err := f.font.GlyphIndex(&f.buf, a)
	if err != nil {
		return 0
	}
	ib, err := f.font.GlyphIndex(&f.buf, b)
	if err != nil {
		return 0
	}
	k, err := f.font.Kern(&f.buf, ia, ib, f.ppem, font.HintingNone)
	if err != nil {
		return 0 // no kern table
	}
	return k
}

// metrics returns the ascent, descent and cap height, in font units,
// all positive.
func (f *face) metrics() (ascent, descent, capHeight float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	upem := f.unitsPerEm()
	m, err := f.font.Metrics(&f.buf, f.ppem, font.HintingNone)
	if err != nil {
		return 0.9 * upem, 0.2 * upem, 0.7 * upem
	}
	ascent, descent = float64(m.Ascent)/64, float64(m.Descent)/64
	capHeight = float64(m.CapHeight) / 64
	if capHeight <= 0 {
		capHeight = 0.7 * upem
	}
	return ascent, descent, capHeight
}

// line is a laid out run of text.
type line struct {
	face   *face
	size   float64
	glyphs []*glyph
	xs     []float64 // glyph origins, font units
	width  float64   // font units
}

func (f *face) layout(s string, size float64) (line, error) {
	l := line{face: f, size: size}
	var x fixed.Int26_6
	prev := rune(-1)
	for _, r := range s {
		g, err := f.glyph(r)
		if err != nil {
			return line{}, err
		}
		if prev >= 0 {
			x += f.kern(prev, r)
		}
		l.glyphs = append(l.glyphs, g)
		l.xs = append(l.xs, float64(x)/64)
		x += g.advance
		prev = r
	}
	l.width = float64(x) / 64
	return l, nil
}

// scale converts font units to points.
func (l line) scale() float64 { return l.size / l.face.unitsPerEm() }

// Width returns the advance of the run, in points.
func (l line) Width() float64 { return l.width * l.scale() }

// Metrics returns the ascent, descent and cap height of the run, in points.
func (l line) Metrics() (ascent, descent, capHeight float64) {
	a, d, c := l.face.metrics()
	k := l.scale()
	return a * k, d * k, c * k
}
