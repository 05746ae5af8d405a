package scene

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/diorama/pkg/bounds"
	"github.com/taigrr/diorama/pkg/gpu"
	"github.com/taigrr/diorama/pkg/math3d"
)

func TestWorldBoxFollowsTransform(t *testing.T) {
	f := newFixture(t)
	local := bounds.NewAABB(math3d.V3(-1, -1, 0), math3d.V3(1, 1, 0))

	transforms := []struct {
		name string
		m    math3d.Mat4
	}{
		{"identity", math3d.Identity()},
		{"translate", math3d.Translate(math3d.V3(3, 0, -5))},
		{"scale", math3d.ScaleUniform(2.5)},
		{"rotate", math3d.RotateY(math.Pi / 3).Mul(math3d.RotateX(0.4))},
		{"far away", math3d.Translate(math3d.V3(-5000, 12, 3))},
	}

	for _, flags := range []Flags{world, blended, overlay} {
		h := f.shape(t, StyleSolid, math3d.Identity(), flags)
		for _, tt := range transforms {
			t.Run(h.Pass().String()+"/"+tt.name, func(t *testing.T) {
				f.d.SetTransform(h, tt.m)
				want := local.Transform(tt.m)
				got := f.d.Shapes().Box(h)
				assert.True(t, got.ApproxEqual(want, 1e-9), "box %v, want %v", got, want)
				assert.True(t, f.d.Shapes().Transform(h).ApproxEqual(tt.m, 1e-12))
			})
		}
	}
}

func TestCreateBoxMatchesTransform(t *testing.T) {
	f := newFixture(t)
	m := math3d.Translate(math3d.V3(3, 0, -5))
	h := f.shape(t, StyleGradient, m, world)

	want := bounds.NewAABB(math3d.V3(2, -1, -5), math3d.V3(4, 1, -5))
	assert.True(t, f.d.Shapes().Box(h).ApproxEqual(want, 1e-9))
}

func TestSetTransformRekeysAcrossBuckets(t *testing.T) {
	f := newFixture(t)
	h := f.shape(t, StyleSolid, math3d.Translate(math3d.V3(1, 0, -5)), world)
	old := h.key
	reg := f.d.Shapes()

	f.d.SetTransform(h, math3d.Translate(math3d.V3(-500, 0, -5)))
	assert.NotEqual(t, old, h.key)
	assert.False(t, reg.opaque.Contains(old), "stale key must be dead")
	assert.True(t, reg.opaque.Contains(h.key))
	assert.Equal(t, 1, reg.Len(PassOpaque))
}

func TestMismatchedAttributeCount(t *testing.T) {
	f := newFixture(t)
	short, err := f.d.CreateTexCoords(make([]float32, 3*4))
	require.NoError(t, err)
	shortColors, err := f.d.CreateGradient(make([]float32, 5*4))
	require.NoError(t, err)
	f.rec.Reset()

	t.Run("texcoords", func(t *testing.T) {
		_, err := f.d.MakeShapeTexture(f.model, math3d.Identity(), f.texture, short, world)
		require.ErrorIs(t, err, ErrMismatchedAttributeCount)
		var ace *AttributeCountError
		require.ErrorAs(t, err, &ace)
		assert.Equal(t, AttributeCountError{Attribute: "texcoords", Got: 3, Want: 4}, *ace)
	})
	t.Run("gradient", func(t *testing.T) {
		_, err := f.d.MakeShapeComplex(f.model, math3d.Identity(), f.texture, f.texcoords, shortColors, blended)
		require.ErrorIs(t, err, ErrMismatchedAttributeCount)
	})

	assert.Empty(t, f.rec.Calls, "a rejected shape must not touch the backend")
	for _, p := range []Pass{PassOpaque, PassAlpha, PassOverlay} {
		assert.Zero(t, f.d.Shapes().Len(p), p.String())
	}
}

func TestUnknownResources(t *testing.T) {
	f := newFixture(t)
	white := math3d.V4(1, 1, 1, 1)

	_, err := f.d.MakeShapeSolid(99, math3d.Identity(), white, world)
	assert.ErrorIs(t, err, ErrUnknownResource)
	_, err = f.d.MakeShapeSolid(0, math3d.Identity(), white, world)
	assert.ErrorIs(t, err, ErrUnknownResource)
	_, err = f.d.MakeShapeGradient(f.model, math3d.Identity(), 7, world)
	assert.ErrorIs(t, err, ErrUnknownResource)
	_, err = f.d.MakeShapeTexture(f.model, math3d.Identity(), 3, f.texcoords, world)
	assert.ErrorIs(t, err, ErrUnknownResource)
	assert.Empty(t, f.rec.Calls)
}

func TestInvalidGeometry(t *testing.T) {
	f := newFixture(t)
	_, err := f.d.CreateModel(square[:7], nil)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	_, err = f.d.CreateModel(square, [][2]int{{0, 5}})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	_, err = f.d.CreateModel(square, [][2]int{{1, 3}})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	_, err = f.d.CreateGradient(make([]float32, 6))
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	assert.Empty(t, f.rec.Calls)
}

func TestRouting(t *testing.T) {
	tests := []struct {
		name  string
		style StyleID
		flags Flags
		want  Pass
	}{
		{"camera", StyleSolid, Flags{Camera: true}, PassOpaque},
		{"fog only", StyleSolid, Flags{Fog: true}, PassOpaque},
		{"blended", StyleGradient, Flags{Camera: true, Blending: true}, PassAlpha},
		{"blended fog", StyleTexture, Flags{Fog: true, Blending: true}, PassAlpha},
		{"overlay", StyleSolid, Flags{}, PassOverlay},
		{"blended overlay", StyleTinted, Flags{Blending: true}, PassOverlay},
		{"faded", StyleFaded, Flags{Camera: true}, PassAlpha},
		{"faded overlay", StyleFaded, Flags{}, PassOverlay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			h := f.shape(t, tt.style, math3d.Identity(), tt.flags)
			assert.Equal(t, tt.want, h.Pass())
			assert.Equal(t, 1, f.d.Shapes().Len(tt.want))
		})
	}
}

func TestCreateIssuesNoBackendCalls(t *testing.T) {
	f := newFixture(t)
	for style := StyleGradient; style <= StyleComplex; style++ {
		f.shape(t, style, math3d.Identity(), world)
	}
	assert.Empty(t, f.rec.Calls)
}

func TestDestroy(t *testing.T) {
	f := newFixture(t)
	reg := f.d.Shapes()
	h := f.shape(t, StyleSolid, math3d.Identity(), world)

	require.NoError(t, f.d.Destroy(h))
	assert.Zero(t, reg.Len(PassOpaque))
	assert.ErrorIs(t, f.d.Destroy(h), ErrHandleDestroyed)

	err := panicErr(t, func() { f.d.SetTransform(h, math3d.Identity()) })
	assert.ErrorIs(t, err, ErrInvalidHandle)
	err = panicErr(t, func() { _ = f.d.SetAlpha(h, 1) })
	assert.ErrorIs(t, err, ErrInvalidHandle)
	err = panicErr(t, func() { reg.Box(h) })
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestForeignAndNilHandlesPanic(t *testing.T) {
	a, b := newFixture(t), newFixture(t)
	h := a.shape(t, StyleSolid, math3d.Identity(), world)

	err := panicErr(t, func() { b.d.SetTransform(h, math3d.Identity()) })
	assert.ErrorIs(t, err, ErrInvalidHandle)
	err = panicErr(t, func() { _ = b.d.Destroy(h) })
	assert.ErrorIs(t, err, ErrInvalidHandle)
	err = panicErr(t, func() { a.d.SetTransform(nil, math3d.Identity()) })
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestDestroyOverlayKeepsOrder(t *testing.T) {
	f := newFixture(t)
	var hs []*Handle
	for i := range 4 {
		hs = append(hs, f.shape(t, StyleSolid, math3d.Translate(math3d.V3(float64(i), 0, 0)), overlay))
	}
	require.NoError(t, f.d.Destroy(hs[1]))
	f.d.SetTransform(hs[3], math3d.Translate(math3d.V3(-10, 0, 0)))
	assert.Equal(t, 3, f.d.Shapes().Len(PassOverlay))

	fr := f.d.Compose()
	var xs []float64
	for _, rec := range fr.overlay {
		xs = append(xs, rec.transform.Translation().X)
	}
	assert.Equal(t, []float64{0, 2, -10}, xs)
}

func TestSetAlphaAndTint(t *testing.T) {
	f := newFixture(t)
	faded := f.shape(t, StyleFaded, math3d.Translate(math3d.V3(0, 0, -3)), world)
	solid := f.shape(t, StyleSolid, math3d.Translate(math3d.V3(0, 0, -3)), world)
	tinted := f.shape(t, StyleTinted, math3d.Identity(), overlay)
	reg := f.d.Shapes()

	require.NoError(t, f.d.SetAlpha(faded, 0.25))
	assert.InDelta(t, 0.25, reg.get(faded).alpha, 0)
	assert.ErrorIs(t, f.d.SetTint(faded, math3d.V4(1, 0, 0, 1)), ErrNoSuchField)

	red := math3d.V4(1, 0, 0, 1)
	require.NoError(t, f.d.SetTint(solid, red))
	assert.Equal(t, red, reg.get(solid).color)
	assert.ErrorIs(t, f.d.SetAlpha(solid, 0.5), ErrNoSuchField)

	require.NoError(t, f.d.SetTint(tinted, red))
	assert.Equal(t, red, reg.get(tinted).color)

	// In-place updates keep the key.
	key := faded.key
	require.NoError(t, f.d.SetAlpha(faded, 0.75))
	assert.Equal(t, key, faded.key)
	assert.Empty(t, f.rec.Calls)
}

func TestUpdateTexture(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.d.UpdateTexture(f.texture, solidImage(2, 2, colorGreen)))
	calls := f.rec.Filter("UpdateTexture")
	require.Len(t, calls, 1)
	assert.Equal(t, gpu.TextureID(1), calls[0].Args[0])

	assert.Error(t, f.d.UpdateTexture(f.texture, solidImage(3, 2, colorGreen)))
	assert.ErrorIs(t, f.d.UpdateTexture(42, solidImage(2, 2, colorGreen)), ErrUnknownResource)
}

func BenchmarkSetTransform(b *testing.B) {
	rec := gpu.NewRecorder()
	d, err := New(rec, 64, 64)
	require.NoError(b, err)
	m, err := d.CreateModel(square, squareFans)
	require.NoError(b, err)

	hs := make([]*Handle, 256)
	for i := range hs {
		hs[i], err = d.MakeShapeSolid(m, math3d.Translate(math3d.V3(float64(i), 0, -5)), math3d.V4(1, 1, 1, 1), world)
		require.NoError(b, err)
	}

	i := 0
	for b.Loop() {
		h := hs[i%len(hs)]
		d.SetTransform(h, math3d.Translate(math3d.V3(float64(i%97), float64(i%13), -5)))
		i++
	}
}
