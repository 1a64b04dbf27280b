package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name of configuration files (without extension).
	ConfigFileName = "bccbar"

	// EnvPrefix is the prefix of environment variables.
	EnvPrefix = "BCCBAR"
)

// Loader reads the configuration from files, environment variables
// and the flags bound to its viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a loader over v, the global viper instance if nil
// (the one cobra flags are bound to).
func NewLoader(v *viper.Viper) *Loader {
	if v == nil {
		v = viper.GetViper()
	}
	return &Loader{v: v}
}

// Viper returns the underlying instance, to bind flags.
func (l *Loader) Viper() *viper.Viper { return l.v }

// Load reads bccbar.yaml from the search paths if present,
// then validates the result.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	for _, p := range SearchPaths() {
		l.v.AddConfigPath(p)
	}
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile reads the given file instead of searching for one.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configFile, err)
	}
	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the file read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// SearchPaths returns where bccbar.yaml is looked for, in order.
func SearchPaths() []string {
	paths := []string{"."}
	home, err := os.UserHomeDir()
	if err == nil {
		paths = append(paths, home)
	}
	if dir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		paths = append(paths, filepath.Join(dir, "bccbar"))
	} else if err == nil {
		paths = append(paths, filepath.Join(home, ".config", "bccbar"))
	}
	return paths
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// display.tick_length is read from BCCBAR_DISPLAY_TICK_LENGTH
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("ramp.decimals", d.Ramp.Decimals)
	l.v.SetDefault("ramp.reverse", d.Ramp.Reverse)
	l.v.SetDefault("ramp.linear_samples", d.Ramp.LinearSamples)

	l.v.SetDefault("ticks.step", d.Ticks.Step)
	l.v.SetDefault("ticks.offset", d.Ticks.Offset)
	l.v.SetDefault("ticks.placement", d.Ticks.Placement)
	l.v.SetDefault("ticks.end_mode", d.Ticks.EndMode)

	l.v.SetDefault("display.orientation", d.Display.Orientation)
	l.v.SetDefault("display.spacing", d.Display.Spacing)
	l.v.SetDefault("display.length", d.Display.Length)
	l.v.SetDefault("display.breadth", d.Display.Breadth)
	l.v.SetDefault("display.flip", d.Display.Flip)
	l.v.SetDefault("display.tick_length", d.Display.TickLength)
	l.v.SetDefault("display.tick_width", d.Display.TickWidth)
	l.v.SetDefault("display.tick_color", d.Display.TickColor)
	l.v.SetDefault("display.tick_size", d.Display.TickSize)
	l.v.SetDefault("display.border_width", d.Display.BorderWidth)
	l.v.SetDefault("display.border_color", d.Display.BorderColor)
	l.v.SetDefault("display.draw_edges", d.Display.DrawEdges)
	l.v.SetDefault("display.divider_width", d.Display.DividerWidth)
	l.v.SetDefault("display.divider_color", d.Display.DividerColor)
	l.v.SetDefault("display.title", d.Display.Title)
	l.v.SetDefault("display.title_size", d.Display.TitleSize)
	l.v.SetDefault("display.title_color", d.Display.TitleColor)
	l.v.SetDefault("display.units", d.Display.Units)
	l.v.SetDefault("display.units_size", d.Display.UnitsSize)
	l.v.SetDefault("display.units_color", d.Display.UnitsColor)
	l.v.SetDefault("display.extras", d.Display.Extras)

	l.v.SetDefault("output.dir", d.Output.Dir)
	l.v.SetDefault("output.title", d.Output.Title)
	l.v.SetDefault("output.png", d.Output.PNG)
	l.v.SetDefault("output.pdf", d.Output.PDF)
	l.v.SetDefault("output.dpi", d.Output.DPI)
	l.v.SetDefault("output.workers", d.Output.Workers)
	l.v.SetDefault("output.exact_curves", d.Output.ExactCurves)
	l.v.SetDefault("output.error_mode", d.Output.ErrorMode)
}
