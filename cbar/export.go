// Package cbar chains the steps of a scale bar export: the style is
// normalized, ticks are selected, the bar is rendered, then the drawing
// is cropped to its ink and saved, with optional PNG and PDF copies.
package cbar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/geoproc/bccbar/config"
	"github.com/geoproc/bccbar/diag"
	"github.com/geoproc/bccbar/plot"
	"github.com/geoproc/bccbar/ramp"
	"github.com/geoproc/bccbar/svgdraw"
	"github.com/geoproc/bccbar/svgpdf"
	"github.com/geoproc/bccbar/svgraster"
	"github.com/geoproc/bccbar/svgtrim"
	"golang.org/x/sync/errgroup"
)

// Renderer draws a normalized ramp as an uncropped SVG page
// using the matplotlib element ids (figure_1, axes_1, text_N...).
type Renderer interface {
	Render(w io.Writer, r *ramp.ColorRamp, ts ramp.TickSet, d plot.Display) error
}

var _ Renderer = (*plot.Renderer)(nil)

// Options are the settings of an export.
type Options struct {
	Parse   ramp.ParseOptions
	Ticks   ramp.TickConfig
	Display plot.Display

	// Title of the document metadata. Empty means the description
	// of the ramp.
	Title string

	PNG, PDF    bool
	DPI         float64
	ExactCurves bool
	Mode        diag.ErrorMode
	Workers     int
}

// DefaultOptions labels every boundary of a default horizontal bar.
func DefaultOptions() Options {
	return Options{
		Parse:   ramp.DefaultParseOptions(),
		Ticks:   ramp.DefaultTickConfig(),
		Display: plot.DefaultDisplay(),
		DPI:     svgraster.DefaultDPI,
		Mode:    diag.WarnErrorMode,
		Workers: 1,
	}
}

// OptionsFromConfig converts a validated configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	ticks, err := cfg.TickConfig()
	if err != nil {
		return Options{}, fmt.Errorf("ticks: %w", err)
	}
	d, err := cfg.PlotDisplay()
	if err != nil {
		return Options{}, fmt.Errorf("display: %w", err)
	}
	return Options{
		Parse:       cfg.ParseOptions(),
		Ticks:       ticks,
		Display:     d,
		Title:       cfg.Output.Title,
		PNG:         cfg.Output.PNG,
		PDF:         cfg.Output.PDF,
		DPI:         cfg.Output.DPI,
		ExactCurves: cfg.Output.ExactCurves,
		Mode:        cfg.ErrorModeValue(),
		Workers:     cfg.Output.Workers,
	}, nil
}

// Result describes an exported scale bar.
type Result struct {
	Source      string
	SVG         string
	PNG         string // empty when not written
	PDF         string
	Title       string
	Ramp        *ramp.ColorRamp
	Ticks       ramp.TickSet
	Bounds      svgtrim.Bounds
	Diagnostics []diag.Diagnostic
}

// Exporter runs exports with a given renderer and options.
// It is safe for concurrent use.
type Exporter struct {
	renderer Renderer
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// NewExporter returns an exporter drawing with r. A nil logger
// means slog.Default().
func NewExporter(r Renderer, opts Options, logger *slog.Logger) (*Exporter, error) {
	if r == nil {
		return nil, errors.New("cbar: nil renderer")
	}
	if err := opts.Ticks.Validate(); err != nil {
		return nil, fmt.Errorf("cbar: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Exporter{renderer: r, opts: opts, logger: logger, now: time.Now}, nil
}

// OutputPath returns the SVG path of src in dir.
func OutputPath(dir string, src ramp.StyleSource) string {
	return filepath.Join(dir, src.Name()+".svg")
}

// Inspect normalizes the style of src and selects its ticks.
func (e *Exporter) Inspect(src ramp.StyleSource) (*ramp.ColorRamp, ramp.TickSet, error) {
	r, err := ramp.Parse(src, e.opts.Parse)
	if err != nil {
		return nil, ramp.TickSet{}, err
	}
	ts, err := ramp.SelectTicks(r, e.opts.Ticks)
	if err != nil {
		return nil, ramp.TickSet{}, err
	}
	log := e.logger.With(slog.String("source", r.Source))
	log.Debug("ramp normalized",
		slog.String("kind", r.Kind.String()),
		slog.String("classification", r.Classification.String()),
		slog.Int("colours", r.NumColors()),
		slog.Bool("uniform", r.Uniform),
		slog.Bool("reversed", r.Reversed))
	for i, b := range r.Boundaries {
		log.Debug("boundary", slog.Int("index", i), slog.Float64("value", b.Value),
			slog.String("label", b.Label), slog.String("colour", ramp.Hex(b.Color)))
	}
	indices := make([]int, len(ts.All))
	for i, t := range ts.All {
		indices[i] = t.Index
	}
	log.Debug("ticks selected", slog.Any("indices", indices),
		slog.Int("primary", len(ts.Primary)), slog.Int("secondary", len(ts.Secondary)))
	return r, ts, nil
}

// Export writes the cropped scale bar of src to out, an SVG path,
// and its companions next to it.
func (e *Exporter) Export(ctx context.Context, src ramp.StyleSource, out string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, ts, err := e.Inspect(src)
	if err != nil {
		return nil, err
	}
	res := &Result{Source: r.Source, SVG: out, Ramp: r, Ticks: ts, Title: e.opts.Title}
	if res.Title == "" {
		res.Title = r.Title(src.Name())
	}
	log := e.logger.With(slog.String("source", r.Source))

	var buf bytes.Buffer
	if err := e.renderer.Render(&buf, r, ts, e.opts.Display); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", r.Source, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := svgtrim.Parse(&buf)
	if err != nil {
		return nil, fmt.Errorf("reading rendered %s: %w", r.Source, err)
	}
	doc.Prune()
	b, diags := svgtrim.ComputeBounds(doc, svgtrim.Options{
		ExactCurves: e.opts.ExactCurves,
		Mode:        e.opts.Mode,
		Logger:      log,
	})
	res.Bounds, res.Diagnostics = b, diags.List()
	log.Debug("bounds computed",
		slog.Float64("xmin", b.XMin), slog.Float64("ymin", b.YMin),
		slog.Float64("width", b.Width()), slog.Float64("height", b.Height()),
		slog.Int("diagnostics", diags.Len()))

	if err := svgtrim.WriteFile(out, doc, b, svgtrim.Meta{Title: res.Title, Date: e.now()}); err != nil {
		return nil, err
	}
	log.Info("scale bar saved", slog.String("path", out))

	if e.opts.PNG || e.opts.PDF {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.companions(res, log); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// companions renders the saved SVG as PNG and PDF.
func (e *Exporter) companions(res *Result, log *slog.Logger) error {
	f, err := os.Open(res.SVG)
	if err != nil {
		return diag.Wrap(diag.SaveFailed, err, "reopening "+res.SVG)
	}
	defer f.Close()
	doc, err := svgtrim.Parse(f)
	if err != nil {
		return err
	}
	opts := svgdraw.Options{Mode: e.opts.Mode, Logger: log}
	stem := strings.TrimSuffix(res.SVG, filepath.Ext(res.SVG))

	if e.opts.PNG {
		img, err := svgraster.Rasterize(doc, e.opts.DPI, opts)
		if err != nil {
			return fmt.Errorf("rasterizing %s: %w", res.SVG, err)
		}
		res.PNG = stem + ".png"
		if err := svgraster.SavePNG(svgraster.TrimTransparent(img), res.PNG); err != nil {
			return err
		}
		log.Info("bitmap saved", slog.String("path", res.PNG))
	}
	if e.opts.PDF {
		res.PDF = stem + ".pdf"
		if err := svgpdf.WriteFile(res.PDF, doc, res.Title, opts); err != nil {
			return err
		}
		log.Info("pdf saved", slog.String("path", res.PDF))
	}
	return nil
}

// Job is one export of a batch.
type Job struct {
	Source ramp.StyleSource
	Out    string
}

// ExportAll runs the jobs on at most Options.Workers goroutines.
// The first failure cancels the jobs not yet started and is returned;
// results are in job order.
func (e *Exporter) ExportAll(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res, err := e.Export(ctx, job.Source, job.Out)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Source.Name(), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
