package config

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/diorama/pkg/math3d"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDecodeOverridesDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
fps = 60
model = "duck.glb"

[display]
background = [255, 0, 51]

[fog]
enabled = false

[log]
level = "debug"
`))
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.FPS)
	assert.Equal(t, "duck.glb", cfg.Model)
	assert.False(t, cfg.Fog.Enabled)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, math3d.V4(1, 0, 0.2, 1), cfg.BackgroundColor())

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Camera, cfg.Camera)
	assert.Equal(t, Default().World, cfg.World)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("[camera]\nzoom = 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zoom")
}

func TestDecodeSyntaxError(t *testing.T) {
	_, err := Decode(strings.NewReader("fps = = 3"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"fps", func(c *Config) { c.FPS = 0 }, "fps"},
		{"background", func(c *Config) { c.Display.Background[1] = 300 }, "display.background[1]"},
		{"fov", func(c *Config) { c.Camera.FOV = 180 }, "camera.fov"},
		{"clip planes", func(c *Config) { c.Camera.Far = c.Camera.Near }, "clip planes"},
		{"distance", func(c *Config) { c.Camera.Distance = -1 }, "camera.distance"},
		{"fog range", func(c *Config) { c.Fog.Far = 1; c.Fog.Near = 2 }, "fog range"},
		{"world", func(c *Config) { c.World.HalfExtent = 0 }, "world.half_extent"},
		{"depth", func(c *Config) { c.World.Depth = 40 }, "world.depth"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDisabledFogSkipsRangeCheck(t *testing.T) {
	cfg := Default()
	cfg.Fog = Fog{Enabled: false, Near: 5, Far: 1}
	assert.NoError(t, cfg.Validate())
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.FPS = -1
	cfg.World.Depth = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fps")
	assert.Contains(t, err.Error(), "world.depth")
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "diorama.toml")
	require.NoError(t, os.WriteFile(path, []byte("[camera]\nfov = 60\n"), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/3, cfg.Projection(1).FOV, 1e-12)

	require.NoError(t, os.WriteFile(path, []byte("fps = 1000\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "fps")
}

func TestWorldBounds(t *testing.T) {
	cfg := Default()
	cfg.World.HalfExtent = 8
	b := cfg.WorldBounds()
	assert.Equal(t, math3d.V3(-8, -8, -8), b.Min)
	assert.Equal(t, math3d.V3(8, 8, 8), b.Max)
}
