package raster

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/taigrr/diorama/pkg/gpu"
	"github.com/taigrr/diorama/pkg/math3d"
)

// Presenter receives each finished frame.
type Presenter interface {
	Present(fb *Framebuffer) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(fb *Framebuffer) error

// Present calls f(fb).
func (f PresenterFunc) Present(fb *Framebuffer) error {
	return f(fb)
}

// program holds the uniform and attribute state of one program. Values
// survive across BindProgram calls, as they do on a GPU.
type program struct {
	desc     gpu.ProgramDesc
	uniforms map[gpu.Uniform]bool
	attribs  map[gpu.Attribute]gpu.BufferID
	scalars  map[gpu.Uniform]float64
	vec2s    map[gpu.Uniform]math3d.Vec2
	vec4s    map[gpu.Uniform]math3d.Vec4
	mat4s    map[gpu.Uniform]math3d.Mat4
}

// Backend rasterizes triangle fans into a Framebuffer.
type Backend struct {
	fb        *Framebuffer
	presenter Presenter

	buffers  [][]float32 // index = BufferID-1
	textures []*Texture  // index = TextureID-1
	programs []*program  // index = ProgramID-1

	bound     *program
	texture   *Texture
	depthTest bool
	clear     color.RGBA

	// DisableBackfaceCulling draws clockwise fans too.
	DisableBackfaceCulling bool

	// Stats counts the work done since the last Present.
	Stats Stats
}

// Stats counts rasterizer work per frame.
type Stats struct {
	Fans      int
	Triangles int
	Culled    int // back-facing or fully clipped triangles
	Pixels    int
}

// New creates a backend with a width x height framebuffer. A nil presenter
// makes Present only reset the frame.
func New(width, height int, presenter Presenter) (*Backend, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: %dx%d framebuffer: %w", width, height, gpu.ErrUnsupportedTarget)
	}
	b := &Backend{
		fb:        NewFramebuffer(width, height),
		presenter: presenter,
		clear:     color.RGBA{A: 255},
	}
	b.fb.Clear(b.clear)
	return b, nil
}

// Framebuffer returns the render target.
func (b *Backend) Framebuffer() *Framebuffer {
	return b.fb
}

// Texture returns the texture stored under id, or nil.
func (b *Backend) Texture(id gpu.TextureID) *Texture {
	if id == 0 || int(id) > len(b.textures) {
		return nil
	}
	return b.textures[id-1]
}

func (b *Backend) NewBuffer(data []float32) gpu.BufferID {
	b.buffers = append(b.buffers, append([]float32(nil), data...))
	return gpu.BufferID(len(b.buffers))
}

func (b *Backend) NewTexture(img image.Image) gpu.TextureID {
	b.textures = append(b.textures, TextureFromImage(img))
	return gpu.TextureID(len(b.textures))
}

func (b *Backend) UpdateTexture(id gpu.TextureID, img image.Image) {
	if t := b.Texture(id); t != nil {
		t.Replace(img)
	}
}

func (b *Backend) NewProgram(desc gpu.ProgramDesc) (gpu.ProgramID, error) {
	if len(desc.Attributes) == 0 || desc.Attributes[0] != gpu.AttribPosition {
		return 0, fmt.Errorf("raster: program %q has no position attribute: %w", desc.Name, gpu.ErrUnsupportedTarget)
	}
	p := &program{
		desc:     desc,
		uniforms: make(map[gpu.Uniform]bool, len(desc.Uniforms)),
		attribs:  make(map[gpu.Attribute]gpu.BufferID, len(desc.Attributes)),
		scalars:  make(map[gpu.Uniform]float64),
		vec2s:    make(map[gpu.Uniform]math3d.Vec2),
		vec4s:    make(map[gpu.Uniform]math3d.Vec4),
		mat4s:    map[gpu.Uniform]math3d.Mat4{gpu.UniformModel: math3d.Identity(), gpu.UniformCamera: math3d.Identity()},
	}
	for _, u := range desc.Uniforms {
		p.uniforms[u] = true
	}
	b.programs = append(b.programs, p)
	return gpu.ProgramID(len(b.programs)), nil
}

func (b *Backend) BindProgram(id gpu.ProgramID) {
	if id == 0 || int(id) > len(b.programs) {
		b.bound = nil
		return
	}
	b.bound = b.programs[id-1]
}

func (b *Backend) SetUniformScalar(u gpu.Uniform, v float32) {
	if b.bound != nil {
		b.bound.scalars[u] = float64(v)
	}
}

func (b *Backend) SetUniformVec2(u gpu.Uniform, v mgl32.Vec2) {
	if b.bound != nil {
		b.bound.vec2s[u] = math3d.V2(float64(v[0]), float64(v[1]))
	}
}

func (b *Backend) SetUniformVec4(u gpu.Uniform, v mgl32.Vec4) {
	if b.bound != nil {
		b.bound.vec4s[u] = math3d.V4(float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3]))
	}
}

func (b *Backend) SetUniformMat4(u gpu.Uniform, m mgl32.Mat4) {
	if b.bound != nil {
		b.bound.mat4s[u] = math3d.FromFloat32(m)
	}
}

func (b *Backend) SetVertexAttribute(a gpu.Attribute, buf gpu.BufferID) {
	if b.bound != nil {
		b.bound.attribs[a] = buf
	}
}

func (b *Backend) BindTexture(id gpu.TextureID) {
	b.texture = b.Texture(id)
}

func (b *Backend) SetDepthTest(on bool) {
	b.depthTest = on
}

func (b *Backend) SetClearColor(c mgl32.Vec4) {
	b.clear = toRGBA(math3d.V4(float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])))
}

// SetViewport resizes the framebuffer and clears it.
func (b *Backend) SetViewport(width, height int) {
	if width == b.fb.Width && height == b.fb.Height {
		return
	}
	b.fb.Resize(width, height)
	b.fb.Clear(b.clear)
}

// Present hands the frame to the presenter, then clears color and depth
// for the next frame.
func (b *Backend) Present() error {
	var err error
	if b.presenter != nil {
		err = b.presenter.Present(b.fb)
	}
	b.fb.Clear(b.clear)
	b.fb.ClearDepth()
	b.Stats = Stats{}
	if err != nil {
		return fmt.Errorf("raster: present: %w", err)
	}
	return nil
}

func (b *Backend) buffer(id gpu.BufferID) []float32 {
	if id == 0 || int(id) > len(b.buffers) {
		return nil
	}
	return b.buffers[id-1]
}

var _ gpu.Backend = (*Backend)(nil)
