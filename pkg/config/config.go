// Package config holds the typed pairquant configuration and loads it
// through viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ChrisMcGann/PairQuant/pkg/colorize"
	"github.com/ChrisMcGann/PairQuant/pkg/core"
	"github.com/ChrisMcGann/PairQuant/pkg/results"
)

// ErrInvalid is returned for configurations that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config is the pairquant configuration.
type Config struct {
	Labels            []LabelConfig  `mapstructure:"labels" yaml:"labels"`
	MinMatches        int            `mapstructure:"min_matches" yaml:"min_matches"`
	MinScore          float64        `mapstructure:"min_score" yaml:"min_score"`
	RTBorderTolerance float64        `mapstructure:"rt_border_tolerance" yaml:"rt_border_tolerance"`
	Codec             CodecConfig    `mapstructure:"codec" yaml:"codec"`
	Ratio             RatioConfig    `mapstructure:"ratio" yaml:"ratio"`
	Gradient          []GradientStop `mapstructure:"gradient" yaml:"gradient"`
	ModificationsCSV  string         `mapstructure:"modifications_csv" yaml:"modifications_csv"`
}

// LabelConfig defines a label. Composition uses the notation of
// core.ParseComposition, e.g. "C(15)13C(5)H(32)N(7)15N(1)O(5)".
type LabelConfig struct {
	Name        string  `mapstructure:"name" yaml:"name"`
	Mass        float64 `mapstructure:"mass" yaml:"mass"`
	Composition string  `mapstructure:"composition" yaml:"composition"`
}

// CodecConfig configures molecule string decoding.
type CodecConfig struct {
	// PrefixOffset shifts the end of the sequence prefix relative to the
	// modification marker.
	PrefixOffset int `mapstructure:"prefix_offset" yaml:"prefix_offset"`
}

// RatioConfig selects the ratio field and direction. Empty label names
// default to the configured labels in order.
type RatioConfig struct {
	Field       string `mapstructure:"field" yaml:"field"`
	Numerator   string `mapstructure:"numerator" yaml:"numerator"`
	Denominator string `mapstructure:"denominator" yaml:"denominator"`
}

// GradientStop is a ratio threshold with an [r, g, b] color.
type GradientStop struct {
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`
	Color     []int   `mapstructure:"color" yaml:"color"`
}

// Defaults
const (
	DefaultMinMatches        = 3
	DefaultRTBorderTolerance = 1.0
	DefaultRatioField        = results.FieldAUC
)

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{
		MinMatches:        DefaultMinMatches,
		RTBorderTolerance: DefaultRTBorderTolerance,
		Ratio:             RatioConfig{Field: DefaultRatioField},
	}
	for _, l := range core.DefaultLabels() {
		cfg.Labels = append(cfg.Labels, LabelConfig{
			Name:        l.Name,
			Mass:        l.Mass,
			Composition: l.Composition.HillNotation(),
		})
	}
	for _, s := range colorize.Default() {
		cfg.Gradient = append(cfg.Gradient, GradientStop{
			Threshold: s.Threshold,
			Color:     []int{s.Color.R, s.Color.G, s.Color.B},
		})
	}
	return cfg
}

// SetDefaults registers the scalar defaults with v so that environment
// variables can override them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("min_matches", DefaultMinMatches)
	v.SetDefault("min_score", 0.0)
	v.SetDefault("rt_border_tolerance", DefaultRTBorderTolerance)
	v.SetDefault("codec.prefix_offset", 0)
	v.SetDefault("ratio.field", DefaultRatioField)
	v.SetDefault("ratio.numerator", "")
	v.SetDefault("ratio.denominator", "")
	v.SetDefault("modifications_csv", "")
}

// Load decodes the configuration held by v over the defaults and
// validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	// lists replace the defaults instead of merging into them
	if v.IsSet("labels") {
		cfg.Labels = nil
	}
	if v.IsSet("gradient") {
		cfg.Gradient = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if len(cfg.Labels) == 2 {
		if cfg.Ratio.Numerator == "" {
			cfg.Ratio.Numerator = cfg.Labels[0].Name
		}
		if cfg.Ratio.Denominator == "" {
			cfg.Ratio.Denominator = cfg.Labels[1].Name
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if len(c.Labels) != 2 {
		return fmt.Errorf("%w: exactly two labels are required, got %d", ErrInvalid, len(c.Labels))
	}
	if c.Labels[0].Name == "" || c.Labels[1].Name == "" {
		return fmt.Errorf("%w: label names must not be empty", ErrInvalid)
	}
	if c.Labels[0].Name == c.Labels[1].Name {
		return fmt.Errorf("%w: duplicate label %q", ErrInvalid, c.Labels[0].Name)
	}
	// labels are found by substring search in molecule strings
	for _, p := range [][2]string{{c.Labels[0].Name, c.Labels[1].Name}, {c.Labels[1].Name, c.Labels[0].Name}} {
		if strings.Contains(p[1], p[0]) {
			return fmt.Errorf("%w: label %q is contained in label %q", ErrInvalid, p[0], p[1])
		}
	}
	if _, err := c.CoreLabels(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.MinMatches < 0 {
		return fmt.Errorf("%w: min_matches must be non-negative", ErrInvalid)
	}
	if c.RTBorderTolerance < 0 {
		return fmt.Errorf("%w: rt_border_tolerance must be non-negative", ErrInvalid)
	}
	if c.Ratio.Field == "" {
		return fmt.Errorf("%w: ratio.field must be set", ErrInvalid)
	}
	for _, name := range []string{c.Ratio.Numerator, c.Ratio.Denominator} {
		if name != c.Labels[0].Name && name != c.Labels[1].Name {
			return fmt.Errorf("%w: ratio label %q is not a configured label", ErrInvalid, name)
		}
	}
	g, err := c.ColorGradient()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// LabelNames returns the configured label names in order.
func (c *Config) LabelNames() []string {
	names := make([]string, len(c.Labels))
	for i, l := range c.Labels {
		names[i] = l.Name
	}
	return names
}

// CoreLabels parses the configured labels.
func (c *Config) CoreLabels() ([]core.Label, error) {
	labels := make([]core.Label, 0, len(c.Labels))
	for _, l := range c.Labels {
		comp, err := core.ParseComposition(l.Composition)
		if err != nil {
			return nil, fmt.Errorf("label %s: %w", l.Name, err)
		}
		labels = append(labels, core.Label{Name: l.Name, Mass: l.Mass, Composition: comp})
	}
	return labels, nil
}

// ColorGradient converts the configured gradient.
func (c *Config) ColorGradient() (colorize.Gradient, error) {
	g := make(colorize.Gradient, 0, len(c.Gradient))
	for i, s := range c.Gradient {
		if len(s.Color) != 3 {
			return nil, fmt.Errorf("gradient stop %d: color needs 3 channels, got %d", i, len(s.Color))
		}
		g = append(g, colorize.Stop{
			Threshold: s.Threshold,
			Color:     colorize.RGB{R: s.Color[0], G: s.Color[1], B: s.Color[2]},
		})
	}
	return g, nil
}
