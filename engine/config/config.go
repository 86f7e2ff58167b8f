// Package config loads the demo settings from TOML.
package config

import (
	"bytes"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/voxel/engine/core"
	"github.com/spaghettifunk/voxel/engine/platform"
)

// Duration is a time.Duration written as a string such as "10ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type Config struct {
	Window   Window   `toml:"window"`
	Renderer Renderer `toml:"renderer"`
	Log      Log      `toml:"log"`
}

type Window struct {
	Title string `toml:"title"`
	// X and Y are optional; without them the window system picks a place.
	X         *int32 `toml:"x,omitempty"`
	Y         *int32 `toml:"y,omitempty"`
	Width     uint32 `toml:"width"`
	Height    uint32 `toml:"height"`
	Resizable bool   `toml:"resizable"`
	Hidden    bool   `toml:"hidden"`
}

type Renderer struct {
	Backend string `toml:"backend"`
	// Debug enables validation layers where the backend has them.
	Debug        bool     `toml:"debug"`
	FenceTimeout Duration `toml:"fence_timeout"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Window: Window{
			Title:  "Voxel",
			Width:  1280,
			Height: 720,
		},
		Renderer: Renderer{
			Backend:      "vulkan",
			FenceTimeout: Duration{10 * time.Millisecond},
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate checks the values decoding cannot. Failures wrap
// core.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return errors.Wrapf(core.ErrInvalidConfig, "window size %dx%d is empty", c.Window.Width, c.Window.Height)
	}
	if (c.Window.X == nil) != (c.Window.Y == nil) {
		return errors.Wrap(core.ErrInvalidConfig, "window x and y must be set together")
	}
	if c.Renderer.Backend == "" {
		return errors.Wrap(core.ErrInvalidConfig, "renderer backend is not set")
	}
	if c.Renderer.FenceTimeout.Duration < 0 {
		return errors.Wrapf(core.ErrInvalidConfig, "negative fence timeout %s", c.Renderer.FenceTimeout)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(core.ErrInvalidConfig, "log level: %s", err)
	}
	return nil
}

// Position returns nil when the file leaves placement to the window system.
func (w Window) Position() *platform.Position {
	if w.X == nil || w.Y == nil {
		return nil
	}
	return &platform.Position{X: *w.X, Y: *w.Y}
}

func (w Window) Size() platform.Size {
	return platform.Size{Width: w.Width, Height: w.Height}
}

func (w Window) Flags() platform.Flags {
	var f platform.Flags
	if w.Resizable {
		f |= platform.FlagResizable
	}
	if w.Hidden {
		f |= platform.FlagHidden
	}
	return f
}
