// Package config loads the settings of bccbar from defaults, an optional
// YAML file, BCCBAR_ environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/geoproc/bccbar/diag"
	"github.com/geoproc/bccbar/plot"
	"github.com/geoproc/bccbar/ramp"
	"github.com/geoproc/bccbar/svgdraw"
)

// Config is the complete configuration of the export.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose"`

	Ramp    RampConfig    `mapstructure:"ramp" yaml:"ramp"`
	Ticks   TicksConfig   `mapstructure:"ticks" yaml:"ticks"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
}

// RampConfig tunes the normalization of the colour ramp.
type RampConfig struct {
	Decimals      int  `mapstructure:"decimals" yaml:"decimals"`
	Reverse       bool `mapstructure:"reverse" yaml:"reverse"`
	LinearSamples int  `mapstructure:"linear_samples" yaml:"linear_samples"`
}

// TicksConfig selects the labelled boundaries.
type TicksConfig struct {
	Step      int     `mapstructure:"step" yaml:"step"`
	Offset    float64 `mapstructure:"offset" yaml:"offset"`
	Placement string  `mapstructure:"placement" yaml:"placement"`
	EndMode   string  `mapstructure:"end_mode" yaml:"end_mode"`
}

// DisplayConfig is the appearance of the bar. Lengths are in points,
// colours are SVG colours (#rrggbb, rgb(), names).
type DisplayConfig struct {
	Orientation string  `mapstructure:"orientation" yaml:"orientation"`
	Spacing     string  `mapstructure:"spacing" yaml:"spacing"`
	Length      float64 `mapstructure:"length" yaml:"length"`
	Breadth     float64 `mapstructure:"breadth" yaml:"breadth"`
	Flip        bool    `mapstructure:"flip" yaml:"flip"`

	TickLength float64 `mapstructure:"tick_length" yaml:"tick_length"`
	TickWidth  float64 `mapstructure:"tick_width" yaml:"tick_width"`
	TickColor  string  `mapstructure:"tick_color" yaml:"tick_color"`
	TickSize   float64 `mapstructure:"tick_size" yaml:"tick_size"`

	BorderWidth  float64 `mapstructure:"border_width" yaml:"border_width"`
	BorderColor  string  `mapstructure:"border_color" yaml:"border_color"`
	DrawEdges    bool    `mapstructure:"draw_edges" yaml:"draw_edges"`
	DividerWidth float64 `mapstructure:"divider_width" yaml:"divider_width"`
	DividerColor string  `mapstructure:"divider_color" yaml:"divider_color"`

	Title      string  `mapstructure:"title" yaml:"title"`
	TitleSize  float64 `mapstructure:"title_size" yaml:"title_size"`
	TitleColor string  `mapstructure:"title_color" yaml:"title_color"`
	Units      string  `mapstructure:"units" yaml:"units"`
	UnitsSize  float64 `mapstructure:"units_size" yaml:"units_size"`
	UnitsColor string  `mapstructure:"units_color" yaml:"units_color"`

	// Extras is a dict-like string, see ParseExtras.
	Extras string `mapstructure:"extras" yaml:"extras"`
}

// OutputConfig controls the written files.
type OutputConfig struct {
	Dir         string  `mapstructure:"dir" yaml:"dir"`
	Title       string  `mapstructure:"title" yaml:"title"`
	PNG         bool    `mapstructure:"png" yaml:"png"`
	PDF         bool    `mapstructure:"pdf" yaml:"pdf"`
	DPI         float64 `mapstructure:"dpi" yaml:"dpi"`
	Workers     int     `mapstructure:"workers" yaml:"workers"`
	ExactCurves bool    `mapstructure:"exact_curves" yaml:"exact_curves"`
	ErrorMode   string  `mapstructure:"error_mode" yaml:"error_mode"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	d := plot.DefaultDisplay()
	return Config{
		LogLevel: "info",
		Ramp: RampConfig{
			Decimals:      ramp.DefaultDecimals,
			LinearSamples: ramp.DefaultParseOptions().LinearSamples,
		},
		Ticks: TicksConfig{
			Step:      ramp.AutoFive,
			Placement: ramp.Single.String(),
			EndMode:   ramp.EndAuto.String(),
		},
		Display: DisplayConfig{
			Orientation:  d.Orientation.String(),
			Spacing:      d.Spacing.String(),
			Length:       d.Length,
			Breadth:      d.Breadth,
			TickLength:   d.TickLength,
			TickWidth:    d.TickWidth,
			TickColor:    ramp.Hex(d.TickColor),
			TickSize:     d.TickFont.Size,
			BorderWidth:  d.BorderWidth,
			BorderColor:  ramp.Hex(d.BorderColor),
			DividerWidth: d.EdgeWidth,
			DividerColor: ramp.Hex(d.EdgeColor),
			TitleSize:    d.TitleFont.Size,
			TitleColor:   ramp.Hex(d.TitleColor),
			UnitsSize:    d.UnitsFont.Size,
			UnitsColor:   ramp.Hex(d.UnitsColor),
		},
		Output: OutputConfig{
			Dir:       ".",
			DPI:       150,
			Workers:   4,
			ErrorMode: "warn",
		},
	}
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks every section. Out of range values are errors,
// never clamped.
func (c *Config) Validate() error {
	var errs []error
	if !validLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level must be one of %v, got %q", logLevels, c.LogLevel))
	}
	if c.Ramp.Decimals < 0 || c.Ramp.Decimals > 12 {
		errs = append(errs, fmt.Errorf("ramp.decimals %d out of [0, 12]", c.Ramp.Decimals))
	}
	if c.Ramp.LinearSamples < 0 {
		errs = append(errs, fmt.Errorf("ramp.linear_samples must not be negative"))
	}
	if _, err := c.TickConfig(); err != nil {
		errs = append(errs, fmt.Errorf("ticks: %w", err))
	}
	if _, err := c.PlotDisplay(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}
	if c.Output.DPI <= 0 {
		errs = append(errs, fmt.Errorf("output.dpi must be positive, got %g", c.Output.DPI))
	}
	if c.Output.Workers < 1 {
		errs = append(errs, fmt.Errorf("output.workers must be at least 1, got %d", c.Output.Workers))
	}
	if _, err := ParseErrorMode(c.Output.ErrorMode); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}
	return errors.Join(errs...)
}

func validLevel(l string) bool {
	for _, v := range logLevels {
		if strings.EqualFold(v, l) {
			return true
		}
	}
	return false
}

// ParseErrorMode reads ignore, warn or strict.
func ParseErrorMode(s string) (diag.ErrorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore":
		return diag.IgnoreErrorMode, nil
	case "", "warn":
		return diag.WarnErrorMode, nil
	case "strict":
		return diag.StrictErrorMode, nil
	}
	return 0, fmt.Errorf("unknown error mode %q", s)
}

// ParseOptions returns the ramp normalization options.
func (c *Config) ParseOptions() ramp.ParseOptions {
	return ramp.ParseOptions{
		Decimals:      c.Ramp.Decimals,
		Reverse:       c.Ramp.Reverse,
		LinearSamples: c.Ramp.LinearSamples,
	}
}

// TickConfig returns the tick selection.
func (c *Config) TickConfig() (ramp.TickConfig, error) {
	p, err := ramp.ParsePlacement(c.Ticks.Placement)
	if err != nil {
		return ramp.TickConfig{}, err
	}
	e, err := ramp.ParseEndMode(c.Ticks.EndMode)
	if err != nil {
		return ramp.TickConfig{}, err
	}
	tc := ramp.TickConfig{Step: c.Ticks.Step, Offset: c.Ticks.Offset, Placement: p, End: e}
	return tc, tc.Validate()
}

func parseColor(name, v string) (color.NRGBA, error) {
	c, err := svgdraw.ParseColor(v)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%s: %w", name, err)
	}
	if c == nil {
		return color.NRGBA{}, nil // "none"
	}
	return *c, nil
}

// PlotDisplay returns the appearance of the bar, extras applied.
func (c *Config) PlotDisplay() (plot.Display, error) {
	dc := c.Display
	d := plot.DefaultDisplay()
	var err error
	if d.Orientation, err = plot.ParseOrientation(dc.Orientation); err != nil {
		return d, err
	}
	if d.Spacing, err = plot.ParseSpacing(dc.Spacing); err != nil {
		return d, err
	}
	d.Length, d.Breadth, d.Flip = dc.Length, dc.Breadth, dc.Flip
	d.TickLength, d.TickWidth = dc.TickLength, dc.TickWidth
	d.TickFont.Size = dc.TickSize
	d.BorderWidth, d.DrawEdges, d.EdgeWidth = dc.BorderWidth, dc.DrawEdges, dc.DividerWidth
	d.Title, d.TitleFont.Size = strings.TrimSpace(dc.Title), dc.TitleSize
	d.Units, d.UnitsFont.Size = strings.TrimSpace(dc.Units), dc.UnitsSize

	for _, col := range []struct {
		name string
		v    string
		dst  *color.NRGBA
	}{
		{"tick_color", dc.TickColor, &d.TickColor},
		{"border_color", dc.BorderColor, &d.BorderColor},
		{"divider_color", dc.DividerColor, &d.EdgeColor},
		{"title_color", dc.TitleColor, &d.TitleColor},
		{"units_color", dc.UnitsColor, &d.UnitsColor},
	} {
		if *col.dst, err = parseColor(col.name, col.v); err != nil {
			return d, err
		}
	}

	extras, err := ParseExtras(dc.Extras)
	if err != nil {
		return d, err
	}
	extras.Apply(&d)
	return d, d.Validate()
}

// ErrorModeValue returns the parsed output.error_mode.
func (c *Config) ErrorModeValue() diag.ErrorMode {
	m, err := ParseErrorMode(c.Output.ErrorMode)
	if err != nil {
		return diag.WarnErrorMode
	}
	return m
}
