// Package config loads the demo settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/taigrr/diorama/pkg/bounds"
	"github.com/taigrr/diorama/pkg/math3d"
)

// Config is the full set of settings. Zero values are never meaningful;
// start from Default.
type Config struct {
	FPS     int    `toml:"fps"`
	Model   string `toml:"model"`   // optional .glb shown in the scene
	Texture string `toml:"texture"` // optional image for textured shapes

	Display Display `toml:"display"`
	Camera  Camera  `toml:"camera"`
	Fog     Fog     `toml:"fog"`
	World   World   `toml:"world"`
	Log     Log     `toml:"log"`
}

type Display struct {
	Background [3]int `toml:"background"` // 0-255 RGB
}

type Camera struct {
	FOV        float64 `toml:"fov"` // degrees
	Near       float64 `toml:"near"`
	Far        float64 `toml:"far"`
	Distance   float64 `toml:"distance"`
	OrbitSpeed float64 `toml:"orbit_speed"` // radians per second
}

type Fog struct {
	Enabled bool    `toml:"enabled"`
	Near    float64 `toml:"near"`
	Far     float64 `toml:"far"`
}

type World struct {
	HalfExtent float64 `toml:"half_extent"`
	Depth      int     `toml:"depth"`
}

type Log struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		FPS: 30,
		Display: Display{
			Background: [3]int{30, 30, 40},
		},
		Camera: Camera{
			FOV:        90,
			Near:       0.1,
			Far:        100,
			Distance:   6,
			OrbitSpeed: 0.5,
		},
		Fog: Fog{
			Enabled: true,
			Near:    4,
			Far:     16,
		},
		World: World{
			HalfExtent: 64,
			Depth:      6,
		},
		Log: Log{
			File:  "diorama.log",
			Level: "info",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r over the defaults and validates the result.
// Unknown keys are errors.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.FPS <= 0 || c.FPS > 240 {
		errs = append(errs, fmt.Errorf("fps %d out of range (1-240)", c.FPS))
	}
	for i, v := range c.Display.Background {
		if v < 0 || v > 255 {
			errs = append(errs, fmt.Errorf("display.background[%d] %d out of range (0-255)", i, v))
		}
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("camera.fov %g out of range (0-180)", c.Camera.FOV))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera clip planes %g..%g: need 0 < near < far", c.Camera.Near, c.Camera.Far))
	}
	if c.Camera.Distance <= 0 {
		errs = append(errs, fmt.Errorf("camera.distance %g must be positive", c.Camera.Distance))
	}
	if c.Fog.Enabled && (c.Fog.Near < 0 || c.Fog.Far <= c.Fog.Near) {
		errs = append(errs, fmt.Errorf("fog range %g..%g: need 0 <= near < far", c.Fog.Near, c.Fog.Far))
	}
	if c.World.HalfExtent <= 0 {
		errs = append(errs, fmt.Errorf("world.half_extent %g must be positive", c.World.HalfExtent))
	}
	if c.World.Depth < 0 || c.World.Depth > 16 {
		errs = append(errs, fmt.Errorf("world.depth %d out of range (0-16)", c.World.Depth))
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() slog.Level {
	l, _ := c.Log.level()
	return l
}

func (l Log) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// BackgroundColor returns the background as an opaque color.
func (c Config) BackgroundColor() math3d.Vec4 {
	bg := c.Display.Background
	return math3d.V4(float64(bg[0])/255, float64(bg[1])/255, float64(bg[2])/255, 1)
}

// Projection returns the camera projection for the given aspect ratio.
func (c Config) Projection(aspect float64) bounds.Projection {
	return bounds.Projection{
		FOV:    c.Camera.FOV * math.Pi / 180,
		Aspect: aspect,
		Near:   c.Camera.Near,
		Far:    c.Camera.Far,
	}
}

// WorldBounds returns the region the spatial indices subdivide.
func (c Config) WorldBounds() bounds.AABB {
	h := c.World.HalfExtent
	return bounds.NewAABB(math3d.V3(-h, -h, -h), math3d.V3(h, h, h))
}
