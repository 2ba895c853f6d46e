// Package config handles Hairball configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dbokser/hairball/pkg/engine"
	"github.com/dbokser/hairball/pkg/hair"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all Hairball settings.
type Config struct {
	Grow    GrowConfig    `yaml:"grow" toml:"grow"`
	Groom   GroomConfig   `yaml:"groom" toml:"groom"`
	Random  RandomConfig  `yaml:"random" toml:"random"`
	Script  ScriptConfig  `yaml:"script" toml:"script"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
}

// GrowConfig holds the strand growing parameters.
type GrowConfig struct {
	Density float64 `yaml:"density" toml:"density"`
	Layers  int     `yaml:"layers" toml:"layers"`
	Twist   float64 `yaml:"twist" toml:"twist"`
}

// GroomConfig holds the grooming operator parameters.
type GroomConfig struct {
	MinTrimFraction  float64   `yaml:"min_trim_fraction" toml:"min_trim_fraction"`
	TrimPercent      float64   `yaml:"trim_percent" toml:"trim_percent"`
	RandomizeProfile []float64 `yaml:"randomize_profile" toml:"randomize_profile"`
	SnapFalloffs     []float64 `yaml:"snap_falloffs" toml:"snap_falloffs"`
	PushMultiplier   float64   `yaml:"push_multiplier" toml:"push_multiplier"`
	ShortestRootTrim float64   `yaml:"shortest_root_trim" toml:"shortest_root_trim"`
}

// RandomConfig holds the generator seed. Zero draws a fresh seed per run.
type RandomConfig struct {
	Seed uint64 `yaml:"seed" toml:"seed"`
}

// ScriptConfig holds groom script evaluation settings.
type ScriptConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// OutputConfig holds where curve JSON is written. Empty means stdout.
type OutputConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Default returns a Config with the stock parameters.
func Default() *Config {
	return &Config{
		Grow: GrowConfig{
			Density: 0.4,
			Layers:  5,
			Twist:   0,
		},
		Groom: GroomConfig{
			MinTrimFraction:  0.3,
			TrimPercent:      0.5,
			RandomizeProfile: []float64{0.1, 0.4, 0.6},
			SnapFalloffs:     []float64{0.7, 0.4, 0.1},
			PushMultiplier:   1.5,
			ShortestRootTrim: 0.2,
		},
		Script: ScriptConfig{
			TimeoutSeconds: int(engine.EvalTimeout / time.Second),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks every parameter against its allowed range.
func (c *Config) Validate() error {
	if err := c.GrowOptions().Validate(); err != nil {
		return fmt.Errorf("grow: %w: %w", ErrInvalid, err)
	}
	g := c.Groom
	if !(g.MinTrimFraction > 0 && g.MinTrimFraction <= 1) {
		return fmt.Errorf("groom.min_trim_fraction %g not in (0,1]: %w", g.MinTrimFraction, ErrInvalid)
	}
	if !(g.TrimPercent > 0 && g.TrimPercent <= 1) {
		return fmt.Errorf("groom.trim_percent %g not in (0,1]: %w", g.TrimPercent, ErrInvalid)
	}
	if len(g.RandomizeProfile) < 2 {
		return fmt.Errorf("groom.randomize_profile needs at least 2 values: %w", ErrInvalid)
	}
	if !(g.ShortestRootTrim >= 0 && g.ShortestRootTrim < 1) {
		return fmt.Errorf("groom.shortest_root_trim %g not in [0,1): %w", g.ShortestRootTrim, ErrInvalid)
	}
	if c.Script.TimeoutSeconds < 1 {
		return fmt.Errorf("script.timeout_seconds %d must be at least 1: %w", c.Script.TimeoutSeconds, ErrInvalid)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q: %w", c.Logging.Level, ErrInvalid)
	}
	return nil
}

// GrowOptions returns the grow parameters.
func (c *Config) GrowOptions() hair.GrowOptions {
	return hair.GrowOptions{Density: c.Grow.Density, Layers: c.Grow.Layers, Twist: c.Grow.Twist}
}

// EngineSettings returns the script engine fallbacks for this config.
func (c *Config) EngineSettings() engine.Settings {
	return engine.Settings{
		Grow:             c.GrowOptions(),
		MinTrimFraction:  c.Groom.MinTrimFraction,
		TrimPercent:      c.Groom.TrimPercent,
		Profile:          c.Groom.RandomizeProfile,
		Falloffs:         c.Groom.SnapFalloffs,
		PushMultiplier:   c.Groom.PushMultiplier,
		ShortestRootTrim: c.Groom.ShortestRootTrim,
		Seed:             c.Random.Seed,
		Timeout:          time.Duration(c.Script.TimeoutSeconds) * time.Second,
	}
}
