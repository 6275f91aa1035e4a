// Package config loads viewer settings from a TOML file.
//
// A configuration file looks like:
//
//	deviation  = 0.8
//	decay      = 0.55
//	brightness = -0.1
//	fractal    = "firewater"
//	scale_type = "fill"
//	seed       = 42
//	max_cells  = 16777216
//
// Every key is optional. Missing keys keep their defaults, and numeric values
// outside their range are clamped rather than rejected so a hand-edited file
// never prevents the viewer from starting.
package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/plasmafractal/pkg/display"
	"github.com/matzehuels/plasmafractal/pkg/errors"
	"github.com/matzehuels/plasmafractal/pkg/heightfield"
	"github.com/matzehuels/plasmafractal/pkg/pipeline"
	"github.com/matzehuels/plasmafractal/pkg/tone"
)

// appName names the directory under the user's config home.
const appName = "plasma"

// FileName is the configuration file looked up in the config directory.
const FileName = "config.toml"

// Config holds the tunable generation and display settings.
type Config struct {
	Deviation  float32 `toml:"deviation"`
	Decay      float32 `toml:"decay"`
	Brightness float32 `toml:"brightness"`
	Fractal    string  `toml:"fractal"`
	ScaleType  string  `toml:"scale_type"`
	Seed       uint64  `toml:"seed"`
	MaxCells   int     `toml:"max_cells"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Deviation:  pipeline.DefaultDeviation,
		Decay:      pipeline.DefaultDecay,
		Brightness: 0,
		Fractal:    tone.DefaultName,
		ScaleType:  display.ScaleCenter.String(),
		MaxCells:   heightfield.DefaultMaxCells,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/plasma/config.toml, falling back to
// ~/.config/plasma/config.toml.
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, FileName), nil
}

// Load reads the file at path on top of the defaults. An empty path loads
// DefaultPath and treats a missing file there as empty; a missing file at an
// explicit path is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}
	if err := errors.ValidateConfigPath(path); err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			if explicit {
				return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
			}
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	if err := Decode(data, &cfg); err != nil {
		return Default(), errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	return cfg, nil
}

// Decode parses TOML data into cfg, leaving absent keys untouched, and then
// sanitizes the result. Unknown keys and invalid names are errors.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown key %q", undecoded[0].String())
	}
	return cfg.Sanitize()
}

// Sanitize clamps numeric settings into range and validates names.
// Deviation and decay are clamped to [0, 1], brightness to [-1, 1]. A
// non-positive MaxCells selects the default budget.
func (c *Config) Sanitize() error {
	c.Deviation = clamp(c.Deviation, 0, 1)
	c.Decay = clamp(c.Decay, 0, 1)
	c.Brightness = clamp(c.Brightness, -1, 1)
	if c.MaxCells <= 0 {
		c.MaxCells = heightfield.DefaultMaxCells
	}

	if c.Fractal == "" {
		c.Fractal = tone.DefaultName
	}
	if err := errors.ValidateMapperName(c.Fractal); err != nil {
		return err
	}
	if _, err := display.ParseScaleType(c.ScaleType); err != nil {
		return err
	}
	return nil
}

// Mapper looks up the configured tone mapper.
func (c Config) Mapper() (tone.Mapper, error) {
	return tone.Lookup(c.Fractal)
}

// Scale returns the configured scale type. Invalid names fall back to
// ScaleCenter.
func (c Config) Scale() display.ScaleType {
	st, _ := display.ParseScaleType(c.ScaleType)
	return st
}

// Budget returns the allocation budget for the pipeline.
func (c Config) Budget() heightfield.Budget {
	return heightfield.Budget{MaxCells: c.MaxCells}
}

// Request builds a pipeline request for exponent n from the settings.
func (c Config) Request(n int) (pipeline.Request, error) {
	m, err := c.Mapper()
	if err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{
		Exponent:  n,
		Deviation: c.Deviation,
		Decay:     c.Decay,
		Seed:      c.Seed,
		Mapper:    m,
	}, nil
}

func clamp(v, lo, hi float32) float32 {
	if v != v {
		return lo
	}
	return max(lo, min(hi, v))
}
