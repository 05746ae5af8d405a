// Package raster is a software implementation of gpu.Backend. It fills a
// framebuffer with triangle fans and presents it as an image or as
// half-block cells in a terminal.
package raster

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/taigrr/diorama/pkg/math3d"
)

// Framebuffer is a 2D array of pixels with a matching depth buffer.
// For terminal output the height is twice the number of rows, since each
// cell shows two pixels with a half-block character.
type Framebuffer struct {
	Width  int          // Width in pixels
	Height int          // Height in pixels
	Pixels []color.RGBA // Row-major pixel data
	depth  []float64
}

// NewFramebuffer creates a framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{}
	fb.Resize(width, height)
	return fb
}

// Resize reallocates the buffers. Contents are lost.
func (fb *Framebuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	fb.Width = width
	fb.Height = height
	fb.Pixels = make([]color.RGBA, width*height)
	fb.depth = make([]float64, width*height)
	fb.ClearDepth()
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// ClearDepth resets every depth sample to the far value.
func (fb *Framebuffer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(fb.depth)
	if n == 0 {
		return
	}
	fb.depth[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(fb.depth[i:], fb.depth[:i])
	}
}

// SetPixel sets a pixel at (x, y). Out of range writes are ignored.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y), or transparent black when out of
// range.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// Depth returns the depth sample at (x, y).
func (fb *Framebuffer) Depth(x, y int) float64 {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return math.MaxFloat64
	}
	return fb.depth[y*fb.Width+x]
}

func (fb *Framebuffer) setDepth(x, y int, z float64) {
	fb.depth[y*fb.Width+x] = z
}

// Blend composites src over the pixel at (x, y) using src's alpha.
func (fb *Framebuffer) Blend(x, y int, src math3d.Vec4) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	a := clamp01(src.W)
	dst := toVec4(fb.Pixels[y*fb.Width+x])
	out := dst.Lerp(src, a)
	out.W = a + dst.W*(1-a)
	fb.Pixels[y*fb.Width+x] = toRGBA(out)
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, fb.ToImage())
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// toVec4 converts a color to normalized RGBA components.
func toVec4(c color.RGBA) math3d.Vec4 {
	return math3d.V4(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
}

func toRGBA(v math3d.Vec4) color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(v.X)*255 + 0.5),
		G: uint8(clamp01(v.Y)*255 + 0.5),
		B: uint8(clamp01(v.Z)*255 + 0.5),
		A: uint8(clamp01(v.W)*255 + 0.5),
	}
}
