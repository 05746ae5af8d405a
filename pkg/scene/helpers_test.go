package scene

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taigrr/diorama/pkg/gpu"
	"github.com/taigrr/diorama/pkg/math3d"
)

// square is a 2x2 quad in the z=0 plane drawn as one fan.
var square = []float32{
	-1, -1, 0, 1,
	1, -1, 0, 1,
	1, 1, 0, 1,
	-1, 1, 0, 1,
}

var squareFans = [][2]int{{0, 4}}

type fixture struct {
	d   *Display
	rec *gpu.Recorder

	model     ModelID
	gradient  GradientID
	texcoords TexCoordsID
	texture   TextureID
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	rec := gpu.NewRecorder()
	d, err := New(rec, 64, 48, opts...)
	require.NoError(t, err)

	f := &fixture{d: d, rec: rec}
	f.model, err = d.CreateModel(square, squareFans)
	require.NoError(t, err)
	f.gradient, err = d.CreateGradient([]float32{
		1, 0, 0, 1,
		0, 1, 0, 1,
		0, 0, 1, 1,
		1, 1, 1, 1,
	})
	require.NoError(t, err)
	f.texcoords, err = d.CreateTexCoords([]float32{
		0, 0, 0, 0,
		1, 0, 0, 0,
		1, 1, 0, 0,
		0, 1, 0, 0,
	})
	require.NoError(t, err)
	f.texture = d.CreateTexture(solidImage(2, 2, color.RGBA{R: 255, A: 255}))
	rec.Reset()
	return f
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// shape creates a shape of the given style at transform.
func (f *fixture) shape(t *testing.T, style StyleID, transform math3d.Mat4, flags Flags) *Handle {
	t.Helper()
	var (
		h   *Handle
		err error
	)
	white := math3d.V4(1, 1, 1, 1)
	switch style {
	case StyleGradient:
		h, err = f.d.MakeShapeGradient(f.model, transform, f.gradient, flags)
	case StyleTexture:
		h, err = f.d.MakeShapeTexture(f.model, transform, f.texture, f.texcoords, flags)
	case StyleFaded:
		h, err = f.d.MakeShapeFaded(f.model, transform, f.texture, f.texcoords, 0.5, flags)
	case StyleTinted:
		h, err = f.d.MakeShapeTinted(f.model, transform, f.texture, f.texcoords, white, flags)
	case StyleSolid:
		h, err = f.d.MakeShapeSolid(f.model, transform, white, flags)
	case StyleComplex:
		h, err = f.d.MakeShapeComplex(f.model, transform, f.texture, f.texcoords, f.gradient, flags)
	default:
		t.Fatalf("unknown style %d", style)
	}
	require.NoError(t, err)
	return h
}

var (
	world   = Flags{Camera: true}
	blended = Flags{Camera: true, Blending: true}
	overlay = Flags{}
)

// panicErr runs fn and returns the error it panicked with.
func panicErr(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		e, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		err = e
	}()
	fn()
	return errors.New("unreachable")
}

var colorGreen = color.RGBA{G: 255, A: 255}
