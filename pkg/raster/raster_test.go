package raster

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/taigrr/diorama/pkg/gpu"
	"github.com/taigrr/diorama/pkg/math3d"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
)

// quad returns a square of half-size half at depth z, wound
// counter-clockwise when seen from +Z unless cw is set.
func quad(z, half float64, cw bool) []float32 {
	h, zz := float32(half), float32(z)
	v := []float32{
		-h, -h, zz, 1,
		h, -h, zz, 1,
		h, h, zz, 1,
		-h, h, zz, 1,
	}
	if cw {
		v = []float32{
			-h, -h, zz, 1,
			-h, h, zz, 1,
			h, h, zz, 1,
			h, -h, zz, 1,
		}
	}
	return v
}

func newTestBackend(t *testing.T, size int) *Backend {
	t.Helper()
	b, err := New(size, size, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b.SetClearColor(mgl32.Vec4{0, 0, 0, 1})
	b.Framebuffer().Clear(black)
	return b
}

// solidProgram binds a flat-color program and returns it.
func solidProgram(t *testing.T, b *Backend, c color.RGBA) gpu.ProgramID {
	t.Helper()
	id, err := b.NewProgram(gpu.ProgramDesc{
		Name:       "solid",
		Attributes: []gpu.Attribute{gpu.AttribPosition},
		Uniforms: []gpu.Uniform{
			gpu.UniformModel, gpu.UniformCamera, gpu.UniformHasCamera,
			gpu.UniformHasFog, gpu.UniformFog, gpu.UniformFogRange, gpu.UniformColor,
		},
	})
	if err != nil {
		t.Fatalf("NewProgram() error = %v", err)
	}
	b.BindProgram(id)
	b.SetUniformVec4(gpu.UniformColor, toVec4(c).Float32())
	return id
}

func drawQuad(b *Backend, z, half float64, cw bool) {
	buf := b.NewBuffer(quad(z, half, cw))
	b.SetVertexAttribute(gpu.AttribPosition, buf)
	b.DrawTriangleFan(0, 4)
}

func perspective() mgl32.Mat4 {
	return math3d.Perspective(math.Pi/2, 1, 0.1, 100).Float32()
}

func TestBarycentric(t *testing.T) {
	tests := []struct {
		name     string
		px, py   float64
		expected math3d.Vec3
	}{
		{"vertex 0", 0, 0, math3d.V3(1, 0, 0)},
		{"vertex 1", 1, 0, math3d.V3(0, 1, 0)},
		{"vertex 2", 0, 1, math3d.V3(0, 0, 1)},
		{"centroid", 1.0 / 3, 1.0 / 3, math3d.V3(1.0/3, 1.0/3, 1.0/3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bc := barycentric(0, 0, 1, 0, 0, 1, tc.px, tc.py)
			if !bc.ApproxEqual(tc.expected, 0.001) {
				t.Errorf("barycentric(%v, %v) = %v, want %v", tc.px, tc.py, bc, tc.expected)
			}
		})
	}

	t.Run("outside triangle", func(t *testing.T) {
		bc := barycentric(0, 0, 1, 0, 0, 1, -1, -1)
		if bc.X >= 0 && bc.Y >= 0 && bc.Z >= 0 {
			t.Error("point outside triangle should have negative barycentric coordinate")
		}
	})
}

func TestNewRejectsEmptyTarget(t *testing.T) {
	_, err := New(0, 10, nil)
	if !errors.Is(err, gpu.ErrUnsupportedTarget) {
		t.Errorf("New(0, 10) error = %v, want ErrUnsupportedTarget", err)
	}
}

func TestNewProgramRequiresPosition(t *testing.T) {
	b := newTestBackend(t, 4)
	_, err := b.NewProgram(gpu.ProgramDesc{Name: "broken", Attributes: []gpu.Attribute{gpu.AttribColor}})
	if !errors.Is(err, gpu.ErrUnsupportedTarget) {
		t.Errorf("NewProgram() error = %v, want ErrUnsupportedTarget", err)
	}
}

func TestOverlayQuadFillsTarget(t *testing.T) {
	b := newTestBackend(t, 8)
	solidProgram(t, b, red)
	drawQuad(b, 0, 1, false)

	fb := b.Framebuffer()
	for y := range fb.Height {
		for x := range fb.Width {
			if got := fb.GetPixel(x, y); got != red {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, red)
			}
		}
	}
	if b.Stats.Fans != 1 || b.Stats.Triangles != 2 {
		t.Errorf("stats = %+v, want 1 fan and 2 triangles", b.Stats)
	}
}

func TestBackfaceCulling(t *testing.T) {
	b := newTestBackend(t, 8)
	solidProgram(t, b, red)
	drawQuad(b, 0, 1, true)

	if got := b.Framebuffer().GetPixel(4, 4); got != black {
		t.Errorf("clockwise quad drew %v, want nothing", got)
	}
	if b.Stats.Culled != 2 {
		t.Errorf("Culled = %d, want 2", b.Stats.Culled)
	}

	b.DisableBackfaceCulling = true
	drawQuad(b, 0, 1, true)
	if got := b.Framebuffer().GetPixel(4, 4); got != red {
		t.Errorf("with culling disabled got %v, want %v", got, red)
	}
}

func TestDepthTest(t *testing.T) {
	tests := []struct {
		name      string
		depthTest bool
		want      color.RGBA
	}{
		{"nearest wins with depth test", true, green},
		{"last wins without depth test", false, red},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBackend(t, 8)
			b.SetDepthTest(tc.depthTest)

			solidProgram(t, b, green)
			b.SetUniformMat4(gpu.UniformCamera, perspective())
			b.SetUniformScalar(gpu.UniformHasCamera, 1)
			drawQuad(b, -2, 1, false)

			solidProgram(t, b, red)
			b.SetUniformMat4(gpu.UniformCamera, perspective())
			b.SetUniformScalar(gpu.UniformHasCamera, 1)
			drawQuad(b, -5, 10, false)

			if got := b.Framebuffer().GetPixel(4, 4); got != tc.want {
				t.Errorf("center = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAlphaBlend(t *testing.T) {
	b := newTestBackend(t, 8)
	id, err := b.NewProgram(gpu.ProgramDesc{
		Name:       "faded",
		Attributes: []gpu.Attribute{gpu.AttribPosition},
		Uniforms:   []gpu.Uniform{gpu.UniformModel, gpu.UniformAlpha, gpu.UniformColor},
	})
	if err != nil {
		t.Fatal(err)
	}
	b.BindProgram(id)
	b.SetUniformVec4(gpu.UniformColor, mgl32.Vec4{1, 1, 1, 1})
	b.SetUniformScalar(gpu.UniformAlpha, 0.5)
	drawQuad(b, 0, 1, false)

	got := b.Framebuffer().GetPixel(6, 6)
	if got.R < 126 || got.R > 129 || got.R != got.G || got.G != got.B {
		t.Errorf("half white over black = %v, want mid gray", got)
	}
}

func TestFog(t *testing.T) {
	b := newTestBackend(t, 8)
	solidProgram(t, b, red)
	b.SetUniformMat4(gpu.UniformCamera, perspective())
	b.SetUniformScalar(gpu.UniformHasCamera, 1)
	b.SetUniformScalar(gpu.UniformHasFog, 1)
	b.SetUniformVec4(gpu.UniformFog, mgl32.Vec4{0, 0, 1, 1})
	b.SetUniformVec2(gpu.UniformFogRange, mgl32.Vec2{0, 10})
	drawQuad(b, -50, 60, false)

	if got := b.Framebuffer().GetPixel(4, 4); got != blue {
		t.Errorf("fully fogged pixel = %v, want %v", got, blue)
	}

	// An inverted range disables fog.
	b.SetUniformVec2(gpu.UniformFogRange, mgl32.Vec2{math.MaxFloat32, 0})
	b.Framebuffer().ClearDepth()
	drawQuad(b, -50, 60, false)
	if got := b.Framebuffer().GetPixel(4, 4); got != red {
		t.Errorf("unfogged pixel = %v, want %v", got, red)
	}
}

func TestNearClipping(t *testing.T) {
	b := newTestBackend(t, 8)
	b.SetDepthTest(true)
	solidProgram(t, b, green)
	b.SetUniformMat4(gpu.UniformCamera, perspective())
	b.SetUniformScalar(gpu.UniformHasCamera, 1)

	// A floor that passes under and behind the eye.
	buf := b.NewBuffer([]float32{
		-5, -1, 5, 1,
		5, -1, 5, 1,
		5, -1, -20, 1,
		-5, -1, -20, 1,
	})
	b.SetVertexAttribute(gpu.AttribPosition, buf)
	b.DrawTriangleFan(0, 4)

	fb := b.Framebuffer()
	if got := fb.GetPixel(4, fb.Height-1); got != green {
		t.Errorf("bottom row = %v, want floor color", got)
	}
	if got := fb.GetPixel(4, 0); got != black {
		t.Errorf("top row = %v, want background", got)
	}
}

func TestTexturedFan(t *testing.T) {
	b := newTestBackend(t, 8)
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, red)
	img.SetRGBA(1, 0, blue)
	tex := b.NewTexture(img)

	id, err := b.NewProgram(gpu.ProgramDesc{
		Name:       "texture",
		Attributes: []gpu.Attribute{gpu.AttribPosition, gpu.AttribTexCoord},
		Uniforms:   []gpu.Uniform{gpu.UniformModel},
		Textured:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	b.BindProgram(id)
	b.BindTexture(tex)
	b.SetVertexAttribute(gpu.AttribTexCoord, b.NewBuffer([]float32{
		0, 0, 0, 0,
		1, 0, 0, 0,
		1, 1, 0, 0,
		0, 1, 0, 0,
	}))
	drawQuad(b, 0, 1, false)

	fb := b.Framebuffer()
	if got := fb.GetPixel(1, 6); got != red {
		t.Errorf("left = %v, want %v", got, red)
	}
	if got := fb.GetPixel(6, 6); got != blue {
		t.Errorf("right = %v, want %v", got, blue)
	}

	img.SetRGBA(0, 0, green)
	b.UpdateTexture(tex, img)
	drawQuad(b, 0, 1, false)
	if got := fb.GetPixel(1, 6); got != green {
		t.Errorf("after update left = %v, want %v", got, green)
	}
}

func TestPresent(t *testing.T) {
	var frames int
	var seen color.RGBA
	b, err := New(4, 4, PresenterFunc(func(fb *Framebuffer) error {
		frames++
		seen = fb.GetPixel(0, 0)
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	b.SetClearColor(mgl32.Vec4{0, 0, 1, 1})
	solidProgram(t, b, red)
	drawQuad(b, 0, 1, false)

	if err := b.Present(); err != nil {
		t.Fatal(err)
	}
	if frames != 1 || seen != red {
		t.Errorf("presented %d frames starting with %v, want 1 frame of %v", frames, seen, red)
	}
	if got := b.Framebuffer().GetPixel(0, 0); got != blue {
		t.Errorf("after present = %v, want clear color %v", got, blue)
	}

	b.SetViewport(6, 2)
	if fb := b.Framebuffer(); fb.Width != 6 || fb.Height != 2 {
		t.Errorf("viewport = %dx%d, want 6x2", fb.Width, fb.Height)
	}
}

func TestTextureSampleWrap(t *testing.T) {
	tex := TextureFromImage(CheckerImage(4, 4, 2, red, green))
	tests := []struct {
		name string
		u, v float64
		want color.RGBA
	}{
		{"bottom left", 0.1, 0.1, green},
		{"top left", 0.1, 0.9, red},
		{"wrapped", 1.1, 0.9, red},
		{"negative wrap", -0.1, 0.9, green},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := toRGBA(tex.Sample(tc.u, tc.v)); got != tc.want {
				t.Errorf("Sample(%v, %v) = %v, want %v", tc.u, tc.v, got, tc.want)
			}
		})
	}
}

func BenchmarkDrawTriangleFan(b *testing.B) {
	be, err := New(160, 96, nil)
	if err != nil {
		b.Fatal(err)
	}
	id, _ := be.NewProgram(gpu.ProgramDesc{
		Name:       "solid",
		Attributes: []gpu.Attribute{gpu.AttribPosition},
		Uniforms:   []gpu.Uniform{gpu.UniformModel, gpu.UniformColor},
	})
	be.BindProgram(id)
	be.SetUniformVec4(gpu.UniformColor, mgl32.Vec4{1, 0, 0, 1})
	be.SetVertexAttribute(gpu.AttribPosition, be.NewBuffer(quad(0, 0.8, false)))

	for b.Loop() {
		be.DrawTriangleFan(0, 4)
	}
}
