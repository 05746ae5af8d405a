package scene

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/diorama/pkg/math3d"
	"github.com/taigrr/diorama/pkg/raster"
)

// TestRenderWithSoftwareBackend draws a frame end to end through the
// raster backend.
func TestRenderWithSoftwareBackend(t *testing.T) {
	var frame *image.RGBA
	b, err := raster.New(32, 32, raster.PresenterFunc(func(fb *raster.Framebuffer) error {
		frame = fb.ToImage()
		return nil
	}))
	require.NoError(t, err)

	d, err := New(b, 32, 32)
	require.NoError(t, err)
	d.SetBackground(math3d.V4(0, 0, 0, 1))
	m, err := d.CreateModel(square, squareFans)
	require.NoError(t, err)

	red := math3d.V4(1, 0, 0, 1)
	_, err = d.MakeShapeSolid(m, math3d.Translate(math3d.V3(0, 0, -2)), red, Flags{Camera: true})
	require.NoError(t, err)

	_, err = d.Update()
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, frame.RGBAAt(16, 16))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, frame.RGBAAt(0, 0))

	// An overlay lands on top regardless of depth.
	_, err = d.MakeShapeSolid(m, math3d.ScaleUniform(0.25), math3d.V4(0, 1, 0, 1), Flags{})
	require.NoError(t, err)
	_, err = d.Update()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, frame.RGBAAt(16, 16))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, frame.RGBAAt(11, 11))

	// Moving the camera away from the red square leaves only the overlay.
	d.SetCamera(math3d.Zero3(), math3d.V3(0, 3, 0))
	_, err = d.Update()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, frame.RGBAAt(11, 11))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, frame.RGBAAt(16, 16))
}
