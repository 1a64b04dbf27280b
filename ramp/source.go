package ramp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/geoproc/bccbar/diag"
	"gopkg.in/yaml.v3"
)

// ColorItem is one colour entry as stored by the style,
// before any interpretation. Empty strings mean absent.
type ColorItem struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
	Color string `yaml:"color"`
	Alpha string `yaml:"alpha"`
}

// StyleRecord is the raw content of a raster style, common to
// every StyleSource.
type StyleRecord struct {
	Name               string
	RendererType       string
	Band               int // 0 when not given
	ClassificationMin  float64
	ClassificationMax  float64 // NaN when not given
	RampType           string
	ClassificationMode string
	Items              []ColorItem
}

func newRecord(name string) *StyleRecord {
	return &StyleRecord{Name: name, ClassificationMin: math.NaN(), ClassificationMax: math.NaN()}
}

// StyleSource is one of QMLDocument or LiveSymbology.
type StyleSource interface {
	// Name identifies the style, typically the raster name.
	Name() string
	record() (*StyleRecord, error)
}

var (
	_ StyleSource = QMLDocument{}
	_ StyleSource = LiveSymbology{}
)

// QMLDocument is a style saved as a QGIS .qml file.
type QMLDocument struct {
	Path string
}

// Name returns the file name without extension.
func (q QMLDocument) Name() string {
	return strings.TrimSuffix(filepath.Base(q.Path), filepath.Ext(q.Path))
}

func (q QMLDocument) record() (*StyleRecord, error) {
	f, err := os.Open(q.Path)
	if err != nil {
		return nil, diag.Wrap(diag.UnsupportedFormat, err, "opening style")
	}
	defer f.Close()
	return readQML(f, q.Name())
}

// QMLBytes is a QML style already in memory.
type QMLBytes struct {
	Label string
	Data  []byte
}

var _ StyleSource = QMLBytes{}

func (q QMLBytes) Name() string { return q.Label }

func (q QMLBytes) record() (*StyleRecord, error) {
	return readQML(bytes.NewReader(q.Data), q.Label)
}

// Symbology gives access to the current style of a layer
// in a running GIS session.
type Symbology interface {
	LayerName() string
	RendererType() string
	Band() int
	// ClassificationRange returns ok = false when the bounds are unknown.
	ClassificationRange() (min, max float64, ok bool)
	ColorRampType() string
	ClassificationMode() int
	Items() []ColorItem
}

// LiveSymbology reads the style from a Symbology handle.
type LiveSymbology struct {
	handle Symbology
}

// NewLiveSymbology returns an error if h is nil.
func NewLiveSymbology(h Symbology) (LiveSymbology, error) {
	if h == nil {
		return LiveSymbology{}, errors.New("nil symbology handle")
	}
	return LiveSymbology{handle: h}, nil
}

func (l LiveSymbology) Name() string {
	if l.handle == nil {
		return ""
	}
	return l.handle.LayerName()
}

func (l LiveSymbology) record() (*StyleRecord, error) {
	if l.handle == nil {
		return nil, diag.New(diag.NotStyled, "no symbology handle")
	}
	h := l.handle
	rec := newRecord(h.LayerName())
	rec.RendererType = h.RendererType()
	rec.Band = h.Band()
	if min, max, ok := h.ClassificationRange(); ok {
		rec.ClassificationMin, rec.ClassificationMax = min, max
	}
	rec.RampType = h.ColorRampType()
	if m := h.ClassificationMode(); m != 0 {
		rec.ClassificationMode = strconv.Itoa(m)
	}
	for _, it := range h.Items() {
		if strings.TrimSpace(it.Value) == "" {
			it.Value = legendValue(it.Label)
		}
		rec.Items = append(rec.Items, it)
	}
	return rec, nil
}

// legendValue extracts the upper class bound from a legend label
// such as "<= 10", "10 - 20" or "> 30".
func legendValue(label string) string {
	s := strings.TrimSpace(label)
	switch {
	case strings.HasPrefix(s, "<="), strings.HasPrefix(s, ">="):
		s = s[2:]
	case strings.HasPrefix(s, "<"):
		s = s[1:]
	case strings.HasPrefix(s, ">"):
		return "inf"
	}
	if i := strings.LastIndex(s, " - "); i >= 0 {
		s = s[i+3:]
	}
	return strings.TrimSpace(s)
}

// SymbologySnapshot is a Symbology saved as YAML, for use outside
// of the GIS session.
type SymbologySnapshot struct {
	Layer    string      `yaml:"layer"`
	Renderer string      `yaml:"renderer"`
	BandNum  int         `yaml:"band"`
	Min      *float64    `yaml:"classification_min"`
	Max      *float64    `yaml:"classification_max"`
	RampType string      `yaml:"color_ramp_type"`
	Mode     int         `yaml:"classification_mode"`
	Entries  []ColorItem `yaml:"items"`
}

var _ Symbology = (*SymbologySnapshot)(nil)

// ReadSnapshot decodes a YAML symbology snapshot.
func ReadSnapshot(r io.Reader) (*SymbologySnapshot, error) {
	var s SymbologySnapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, diag.Wrap(diag.UnsupportedFormat, err, "decoding symbology snapshot")
	}
	return &s, nil
}

// LoadSnapshot reads a YAML snapshot file. An empty layer name
// defaults to the file name.
func LoadSnapshot(path string) (*SymbologySnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, diag.Wrap(diag.UnsupportedFormat, err, "opening symbology snapshot")
	}
	defer f.Close()
	s, err := ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Layer == "" {
		s.Layer = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

func (s *SymbologySnapshot) LayerName() string     { return s.Layer }
func (s *SymbologySnapshot) RendererType() string  { return s.Renderer }
func (s *SymbologySnapshot) Band() int             { return s.BandNum }
func (s *SymbologySnapshot) ColorRampType() string { return s.RampType }
func (s *SymbologySnapshot) ClassificationMode() int {
	return s.Mode
}
func (s *SymbologySnapshot) Items() []ColorItem { return s.Entries }

func (s *SymbologySnapshot) ClassificationRange() (min, max float64, ok bool) {
	if s.Min == nil || s.Max == nil {
		return 0, 0, false
	}
	return *s.Min, *s.Max, true
}
