// Package config loads brushline defaults from a TOML or YAML file.
// Values set by a placement script override the configured defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/chazu/brushline/pkg/distribute"
	"github.com/chazu/brushline/pkg/geom"
	"github.com/chazu/brushline/pkg/path"
	"github.com/chazu/brushline/pkg/placement"
	"github.com/chazu/brushline/pkg/surface"
)

type SamplingConfig struct {
	Resolution int `toml:"resolution" yaml:"resolution"` // samples per curve span
}

type SpacingConfig struct {
	Mode    string  `toml:"mode" yaml:"mode"` // "bounds" | "constant"
	Gap     float64 `toml:"gap" yaml:"gap"`
	Spacing float64 `toml:"spacing" yaml:"spacing"`
}

type PlacementConfig struct {
	Mode          string  `toml:"mode" yaml:"mode"`   // "free" | "project" | "on-surface"
	Along         string  `toml:"along" yaml:"along"` // "x" | "z"
	Perpendicular bool    `toml:"perpendicular" yaml:"perpendicular"`
	Embed         bool    `toml:"embed" yaml:"embed"`
	EmbedMaxProbe float64 `toml:"embed_max_probe" yaml:"embed_max_probe"`
	ProbeHeight   float64 `toml:"probe_height" yaml:"probe_height"`
	Offset        float64 `toml:"offset" yaml:"offset"`
	Scale         float64 `toml:"scale" yaml:"scale"`
	MaxDistance   float64 `toml:"max_distance" yaml:"max_distance"`

	Filters surface.Filters `toml:"filters" yaml:"filters"`
}

type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"` // "debug" | "info" | "warn" | "error"
	File  string `toml:"file" yaml:"file"`   // rotating log file; empty logs to stderr only
}

// Config is the full configuration.
type Config struct {
	Sampling  SamplingConfig  `toml:"sampling" yaml:"sampling"`
	Spacing   SpacingConfig   `toml:"spacing" yaml:"spacing"`
	Placement PlacementConfig `toml:"placement" yaml:"placement"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	opts := placement.DefaultOptions()
	return Config{
		Sampling: SamplingConfig{Resolution: path.DefaultResolution},
		Spacing:  SpacingConfig{Mode: distribute.Bounds.String()},
		Placement: PlacementConfig{
			Mode:          opts.Mode.String(),
			Along:         opts.Along.String(),
			EmbedMaxProbe: opts.EmbedMaxProbe,
			ProbeHeight:   opts.ProbeHeight,
			Scale:         opts.Scale,
			MaxDistance:   surface.DefaultMaxDistance,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Env var names used as overrides.
const (
	EnvLogLevel = "BRUSHLINE_LOG_LEVEL"
	EnvLogFile  = "BRUSHLINE_LOG_FILE"
)

// Format is a configuration file syntax.
type Format int

const (
	TOML Format = iota
	YAML
)

// FormatFor picks the syntax from a file extension.
func FormatFor(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("config %s: unsupported extension, expected .toml, .yaml or .yml", name)
}

// Load reads the file at name over the defaults, then applies environment
// overrides. An empty name returns the defaults with overrides applied.
func Load(name string) (Config, error) {
	if name == "" {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, nil
	}
	format, err := FormatFor(name)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", name, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Parse decodes data over the defaults and validates the result. Keys
// missing from data keep their default values.
func Parse(data []byte, format Format) (Config, error) {
	cfg := Defaults()
	switch format {
	case TOML:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, err
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unknown config format %d", format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// Validate checks that every enumerated value parses.
func (c Config) Validate() error {
	if c.Sampling.Resolution <= 0 {
		return fmt.Errorf("sampling.resolution must be positive, got %d", c.Sampling.Resolution)
	}
	if _, err := c.SpacingPolicy(); err != nil {
		return err
	}
	if _, err := c.PlacementOptions(); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q, expected debug, info, warn or error", c.Logging.Level)
	}
	return nil
}

// SpacingPolicy converts the spacing section.
func (c Config) SpacingPolicy() (distribute.SpacingPolicy, error) {
	mode, err := distribute.ParseMode(c.Spacing.Mode)
	if err != nil {
		return distribute.SpacingPolicy{}, fmt.Errorf("spacing.mode: %w", err)
	}
	return distribute.SpacingPolicy{Mode: mode, Gap: c.Spacing.Gap, Spacing: c.Spacing.Spacing}, nil
}

// PlacementOptions converts the placement section.
func (c Config) PlacementOptions() (placement.Options, error) {
	p := c.Placement
	mode, err := placement.ParseMode(p.Mode)
	if err != nil {
		return placement.Options{}, fmt.Errorf("placement.mode: %w", err)
	}
	along, err := geom.ParseAxis(p.Along)
	if err != nil {
		return placement.Options{}, fmt.Errorf("placement.along: %w", err)
	}
	if along == geom.AxisY {
		return placement.Options{}, fmt.Errorf("placement.along: items follow the path along x or z, not y")
	}
	return placement.Options{
		Mode:          mode,
		Filters:       p.Filters,
		ProbeHeight:   p.ProbeHeight,
		Along:         along,
		Perpendicular: p.Perpendicular,
		Embed:         p.Embed,
		EmbedMaxProbe: p.EmbedMaxProbe,
		Offset:        p.Offset,
		Scale:         p.Scale,
	}, nil
}
