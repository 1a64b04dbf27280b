package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/geoproc/bccbar/plot"
)

// MathFontSets are the accepted values of mathfont_set.
var MathFontSets = []string{"dejavusans", "dejavuserif", "cm", "stix", "stixsans"}

// sizeNames are the relative font sizes, scaling the size
// the font would have otherwise.
var sizeNames = map[string]float64{
	"xx-small": 0.579, "x-small": 0.694, "small": 0.833, "medium": 1,
	"large": 1.2, "x-large": 1.44, "xx-large": 1.728,
}

// FontSpec holds the font properties given in an extras string.
// Empty fields are left unchanged when applied.
type FontSpec struct {
	Family  string
	Style   string
	Variant string
	Stretch string
	Weight  string
	Size    float64 // points, 0 if not given
	Scale   float64 // relative size keyword, 0 if not given
}

// Extras are the optional appearance tweaks of the display,
// written as a dict-like string such as
//
//	{title_align: left, ticks_font_properties: {weight: bold, size: 10}}
type Extras struct {
	TitleAlign  *plot.Align
	UnitsAlign  *plot.Align
	MathFontSet string

	TicksFont *FontSpec
	TitleFont *FontSpec
	UnitsFont *FontSpec
}

func (f FontSpec) apply(p plot.FontProps) plot.FontProps {
	for _, kv := range []struct {
		dst *string
		v   string
	}{{&p.Family, f.Family}, {&p.Style, f.Style}, {&p.Variant, f.Variant}, {&p.Stretch, f.Stretch}, {&p.Weight, f.Weight}} {
		if kv.v != "" {
			*kv.dst = kv.v
		}
	}
	switch {
	case f.Size > 0:
		p.Size = f.Size
	case f.Scale > 0:
		p.Size *= f.Scale
	}
	return p
}

// Apply updates d with the tweaks.
func (e Extras) Apply(d *plot.Display) {
	if e.TitleAlign != nil {
		d.TitleAlign = *e.TitleAlign
	}
	if e.UnitsAlign != nil {
		d.UnitsAlign = *e.UnitsAlign
	}
	if e.TicksFont != nil {
		d.TickFont = e.TicksFont.apply(d.TickFont)
	}
	if e.TitleFont != nil {
		d.TitleFont = e.TitleFont.apply(d.TitleFont)
	}
	if e.UnitsFont != nil {
		d.UnitsFont = e.UnitsFont.apply(d.UnitsFont)
	}
}

// value is a node of a parsed dict-like string: either a
// scalar or a nested dict.
type value struct {
	scalar string
	dict   []entry
	isDict bool
}

type entry struct {
	key string
	val value
}

// parser is a recursive descent parser for
//
//	dict   = "{" [ entry { "," entry } [ "," ] ] "}"
//	entry  = scalar ":" value
//	value  = dict | scalar
//	scalar = quoted string | bare word (may hold inner spaces)
type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("extras at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) expect(c byte) error {
	if got := p.peek(); got != c {
		if got == 0 {
			return p.errorf("expected %q, got end of input", c)
		}
		return p.errorf("expected %q, got %q", c, got)
	}
	p.pos++
	return nil
}

func (p *parser) dict() ([]entry, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	var out []entry
	for {
		if p.peek() == '}' {
			p.pos++
			return out, nil
		}
		key, err := p.scalar()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		for _, e := range out {
			if e.key == key {
				return nil, p.errorf("duplicate key %q", key)
			}
		}
		out = append(out, entry{key: key, val: v})

		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}' after %q", key)
		}
	}
}

func (p *parser) value() (value, error) {
	if p.peek() == '{' {
		d, err := p.dict()
		return value{dict: d, isDict: true}, err
	}
	s, err := p.scalar()
	return value{scalar: s}, err
}

func (p *parser) scalar() (string, error) {
	switch q := p.peek(); q {
	case 0:
		return "", p.errorf("unexpected end of input")
	case '"', '\'':
		end := strings.IndexByte(p.src[p.pos+1:], q)
		if end < 0 {
			return "", p.errorf("unterminated string")
		}
		s := p.src[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
		return s, nil
	}
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("{}:,\"'", rune(p.src[p.pos])) {
		p.pos++
	}
	s := strings.TrimSpace(p.src[start:p.pos])
	if s == "" {
		return "", p.errorf("empty key or value")
	}
	return s, nil
}

// ParseExtras reads a dict-like extras string. An empty string gives
// no tweak. Unknown keys and invalid values are errors.
func ParseExtras(s string) (Extras, error) {
	var out Extras
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	p := &parser{src: s}
	entries, err := p.dict()
	if err != nil {
		return out, err
	}
	if p.peek() != 0 {
		return out, p.errorf("trailing characters")
	}
	for _, e := range entries {
		switch e.key {
		case "title_align", "units_align":
			if e.val.isDict {
				return out, fmt.Errorf("%s: expected a word", e.key)
			}
			a, err := plot.ParseAlign(e.val.scalar)
			if err != nil {
				return out, fmt.Errorf("%s: %w", e.key, err)
			}
			if e.key == "title_align" {
				out.TitleAlign = &a
			} else {
				out.UnitsAlign = &a
			}
		case "mathfont_set":
			v := strings.ToLower(e.val.scalar)
			if e.val.isDict || !slices.Contains(MathFontSets, v) {
				return out, fmt.Errorf("mathfont_set: %q is not one of %v", e.val.scalar, MathFontSets)
			}
			out.MathFontSet = v
		case "ticks_font_properties", "title_font_properties", "units_font_properties":
			if !e.val.isDict {
				return out, fmt.Errorf("%s: expected {key: value, ...}", e.key)
			}
			f, err := fontSpec(e.val.dict)
			if err != nil {
				return out, fmt.Errorf("%s: %w", e.key, err)
			}
			switch e.key {
			case "ticks_font_properties":
				out.TicksFont = &f
			case "title_font_properties":
				out.TitleFont = &f
			default:
				out.UnitsFont = &f
			}
		default:
			return out, fmt.Errorf("unknown extras key %q", e.key)
		}
	}
	return out, nil
}

func fontSpec(entries []entry) (FontSpec, error) {
	var f FontSpec
	for _, e := range entries {
		if e.val.isDict {
			return f, fmt.Errorf("%s: nested properties", e.key)
		}
		v := strings.ToLower(e.val.scalar)
		switch e.key {
		case "family":
			f.Family = e.val.scalar
		case "style":
			f.Style = v
		case "variant":
			f.Variant = v
		case "stretch":
			if n, err := strconv.ParseFloat(v, 64); err == nil && (n <= 0 || n >= 1000) {
				return f, fmt.Errorf("stretch %g out of (0, 1000)", n)
			}
			f.Stretch = v
		case "weight":
			if n, err := strconv.ParseFloat(v, 64); err == nil && (n <= 0 || n >= 1000) {
				return f, fmt.Errorf("weight %g out of (0, 1000)", n)
			}
			f.Weight = v
		case "size":
			if scale, ok := sizeNames[v]; ok {
				f.Scale = scale
				continue
			}
			n, err := strconv.ParseFloat(v, 64)
			if err != nil || n <= 0 || n >= 100 {
				return f, fmt.Errorf("invalid size %q", e.val.scalar)
			}
			f.Size = n
		default:
			return f, fmt.Errorf("unknown font property %q", e.key)
		}
	}
	// style, variant, stretch and weight names are checked against
	// the available faces
	sample := f.apply(plot.FontProps{Size: 1})
	if err := (plot.Display{
		Length: 1, Breadth: 1,
		TickFont: sample, TitleFont: sample, UnitsFont: sample,
	}).Validate(); err != nil {
		return f, err
	}
	return f, nil
}
