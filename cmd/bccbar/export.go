package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/geoproc/bccbar/cbar"
	"github.com/geoproc/bccbar/plot"
	"github.com/spf13/cobra"
)

func (a *app) exportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <style.qml|snapshot.yaml|dir>...",
		Short: "Write the cropped scale bar of each style",
		Long: `Write one SVG scale bar per style, named after the style, in the output
directory. Directories stand for the .qml files they contain.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, err := sources(args)
			if err != nil {
				return err
			}
			if out != "" && len(srcs) != 1 {
				return errors.New("--out needs exactly one style")
			}
			opts, err := cbar.OptionsFromConfig(a.cfg)
			if err != nil {
				return err
			}
			e, err := cbar.NewExporter(plot.NewRenderer(a.logger), opts, a.logger)
			if err != nil {
				return err
			}

			jobs := make([]cbar.Job, len(srcs))
			for i, src := range srcs {
				jobs[i] = cbar.Job{Source: src, Out: cbar.OutputPath(a.cfg.Output.Dir, src)}
			}
			if out != "" {
				jobs[0].Out = out
			} else if err := os.MkdirAll(a.cfg.Output.Dir, 0o755); err != nil {
				return err
			}

			if err := checkOutputs(jobs); err != nil {
				return err
			}
			results, err := e.ExportAll(cmd.Context(), jobs)
			for _, res := range results {
				if res == nil {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%gx%g", res.SVG, res.Bounds.Width(), res.Bounds.Height())
				for _, p := range []string{res.PNG, res.PDF} {
					if p != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "\t%s", p)
					}
				}
				fmt.Fprintln(cmd.OutOrStdout())
				for _, d := range res.Diagnostics {
					a.logger.Debug("diagnostic", slog.String("source", res.Source), slog.String("detail", d.String()))
				}
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "", "output SVG path, single style only")
	f.String("dir", ".", "output directory")
	f.String("doc-title", "", "title of the SVG metadata (default: built from the ramp)")
	f.Bool("png", false, "also write an alpha-trimmed PNG")
	f.Bool("pdf", false, "also write a PDF")
	f.Float64("dpi", 150, "PNG resolution")
	f.Int("workers", 4, "styles exported at once")
	f.Bool("exact-curves", false, "bound curves by their extrema instead of their control points")
	f.String("error-mode", "warn", "soft problems handling: ignore, warn (log them), strict (log them, unsupported drawing elements fail the PNG and PDF)")
	a.bind(f, map[string]string{
		"output.dir":          "dir",
		"output.title":        "doc-title",
		"output.png":          "png",
		"output.pdf":          "pdf",
		"output.dpi":          "dpi",
		"output.workers":      "workers",
		"output.exact_curves": "exact-curves",
		"output.error_mode":   "error-mode",
	})
	return cmd
}

// checkOutputs rejects jobs writing to the same file, such as styles
// of the same name in different directories.
func checkOutputs(jobs []cbar.Job) error {
	seen := make(map[string]string, len(jobs))
	for _, j := range jobs {
		out := filepath.Clean(j.Out)
		if prev, ok := seen[out]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, j.Source.Name(), out)
		}
		seen[out] = j.Source.Name()
	}
	return nil
}
