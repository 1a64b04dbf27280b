package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/geoproc/bccbar/config"
	"github.com/geoproc/bccbar/ramp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app holds what the subcommands share once the root command ran.
type app struct {
	cfgFile string
	json    bool
	loader  *config.Loader
	cfg     *config.Config
	logger  *slog.Logger
}

// newRootCommand builds the command tree over v, the global viper
// instance if nil.
func newRootCommand(v *viper.Viper) *cobra.Command {
	a := &app{loader: config.NewLoader(v)}

	root := &cobra.Command{
		Use:   "bccbar",
		Short: "Colour scale bars for single band rasters",
		Long: `bccbar reads the colour ramp of a single band raster style, a QGIS .qml file
or a YAML symbology snapshot, and writes the matching colour scale bar as an SVG
file cropped to its content, optionally with PNG and PDF copies.

Examples:
  bccbar export dem.qml
  bccbar export styles/ --png --workers 8
  bccbar export rain.qml -o legend.svg --orientation vertical --step -5
  bccbar inspect rain.qml`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is bccbar.yaml in ., $HOME, $XDG_CONFIG_HOME/bccbar)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&a.json, "log-json", false, "log as JSON lines")

	pf.Int("decimals", ramp.DefaultDecimals, "decimals of the labels")
	pf.Bool("reverse", false, "reverse the colour ramp")
	pf.Int("step", ramp.AutoFive, "tick stride, or -1 (auto), -3 (three ticks), -5 (five ticks)")
	pf.Float64("offset", 0, "tick offset, linear ramps only")
	pf.String("placement", "single", "tick labels placement (single, alternate, both)")
	pf.String("end-mode", "auto", "last tick handling (auto, replace, append)")

	pf.String("orientation", "horizontal", "bar orientation (horizontal, vertical)")
	pf.String("spacing", "proportional", "box sizes (proportional, uniform)")
	pf.Bool("flip", false, "labels on the top or right side")
	pf.Bool("edges", false, "draw the dividers between colours")
	pf.String("title", "", "title drawn above the bar")
	pf.String("units", "", "units drawn after the bar")
	pf.String("extras", "", "appearance extras, as {key: value, ...}")

	a.bind(pf, map[string]string{
		"verbose":             "verbose",
		"log_level":           "log-level",
		"ramp.decimals":       "decimals",
		"ramp.reverse":        "reverse",
		"ticks.step":          "step",
		"ticks.offset":        "offset",
		"ticks.placement":     "placement",
		"ticks.end_mode":      "end-mode",
		"display.orientation": "orientation",
		"display.spacing":     "spacing",
		"display.flip":        "flip",
		"display.draw_edges":  "edges",
		"display.title":       "title",
		"display.units":       "units",
		"display.extras":      "extras",
	})

	root.AddCommand(a.exportCommand(), a.inspectCommand())
	return root
}

// bind maps configuration keys to flag names.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	v := a.loader.Viper()
	for key, name := range keys {
		_ = v.BindPFlag(key, fs.Lookup(name))
	}
}

// init loads the configuration and installs the logger.
func (a *app) init(stderr io.Writer) error {
	var err error
	if a.cfg, err = a.loader.LoadWithFile(a.cfgFile); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	level := slog.LevelInfo
	if a.cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch strings.ToLower(a.cfg.LogLevel) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if a.json {
		a.logger = slog.New(slog.NewJSONHandler(stderr, opts))
	} else {
		a.logger = slog.New(slog.NewTextHandler(stderr, opts))
	}
	slog.SetDefault(a.logger)
	if f := a.loader.ConfigFileUsed(); f != "" {
		a.logger.Debug("configuration loaded", slog.String("file", f))
	}
	return nil
}

// sources expands the arguments into style sources: .qml files,
// .yaml snapshots, and the .qml files of directories.
func sources(args []string) ([]ramp.StyleSource, error) {
	var out []ramp.StyleSource
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if fi.IsDir() {
			matches, err := filepath.Glob(filepath.Join(arg, "*.qml"))
			if err != nil {
				return nil, err
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("%s: no .qml file", arg)
			}
			for _, m := range matches {
				out = append(out, ramp.QMLDocument{Path: m})
			}
			continue
		}
		src, err := source(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func source(path string) (ramp.StyleSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		snap, err := ramp.LoadSnapshot(path)
		if err != nil {
			return nil, err
		}
		live, err := ramp.NewLiveSymbology(snap)
		if err != nil {
			return nil, err
		}
		return live, nil
	default:
		return ramp.QMLDocument{Path: path}, nil
	}
}
