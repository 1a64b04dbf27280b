package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/geoproc/bccbar/cbar"
	"github.com/geoproc/bccbar/plot"
	"github.com/geoproc/bccbar/ramp"
	"github.com/spf13/cobra"
)

func (a *app) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <style.qml|snapshot.yaml>",
		Short: "Print the normalized colour ramp and its ticks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := source(args[0])
			if err != nil {
				return err
			}
			opts, err := cbar.OptionsFromConfig(a.cfg)
			if err != nil {
				return err
			}
			e, err := cbar.NewExporter(plot.NewRenderer(a.logger), opts, a.logger)
			if err != nil {
				return err
			}
			r, ts, err := e.Inspect(src)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, r.Title(src.Name()))
			if r.Uniform {
				fmt.Fprintln(w, "values are not increasing, classes are evenly spaced")
			}
			side := make(map[int]string, len(ts.All))
			for _, t := range ts.Primary {
				side[t.Index] = "primary"
			}
			for _, t := range ts.Secondary {
				if side[t.Index] != "" {
					side[t.Index] = "both"
				} else {
					side[t.Index] = "secondary"
				}
			}

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tVALUE\tLABEL\tCOLOUR\tPOSITION\tTICK")
			for i, b := range r.Boundaries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i,
					ramp.FormatNumber(b.Value, opts.Parse.Decimals), b.Label, ramp.Hex(b.Color),
					ramp.FormatNumber(r.Anchors[i], 4), side[i])
			}
			return tw.Flush()
		},
	}
}
