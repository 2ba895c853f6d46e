package config

import "flag"

// Flags are the command-line overrides shared by every subcommand.
type Flags struct {
	Config  *string
	Debug   *bool
	Seed    *uint64
	Density *float64
	Layers  *int
	Twist   *float64
	Output  *string
	LogFile *string
}

// RegisterFlags defines the config flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Config:  fs.String("config", "", "Path to config file (.yaml or .toml)"),
		Debug:   fs.Bool("debug", false, "Enable debug logging"),
		Seed:    fs.Uint64("seed", 0, "Random seed (0 = config value)"),
		Density: fs.Float64("density", 0, "Strand spacing along the widest hull"),
		Layers:  fs.Int("layers", 0, "Number of nested strand layers"),
		Twist:   fs.Float64("twist", 0, "Twist in revolutions across the mesh"),
		Output:  fs.String("o", "", "Write curves JSON to this file"),
		LogFile: fs.String("log-file", "", "Also log to this rotating file"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.Config
}

// applyFlags applies CLI flag overrides to the config. Zero values leave
// the config untouched, except twist, which is applied when set explicitly.
func applyFlags(cfg *Config, f *Flags, set map[string]bool) {
	if f == nil {
		return
	}
	if *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if *f.Seed != 0 {
		cfg.Random.Seed = *f.Seed
	}
	if *f.Density > 0 {
		cfg.Grow.Density = *f.Density
	}
	if *f.Layers > 0 {
		cfg.Grow.Layers = *f.Layers
	}
	if set["twist"] {
		cfg.Grow.Twist = *f.Twist
	}
	if *f.Output != "" {
		cfg.Output.Path = *f.Output
	}
	if *f.LogFile != "" {
		cfg.Logging.LogFile = *f.LogFile
	}
}
