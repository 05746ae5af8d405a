// Package gpu defines the abstract backend the scene core draws through.
//
// A backend owns buffers, textures and programs; the core only ever holds
// their ids. Uniform and attribute calls apply to the currently bound
// program, the way a GL context does.
package gpu

import (
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrBackendUnavailable reports that no rendering target could be
	// acquired at all.
	ErrBackendUnavailable = errors.New("gpu: backend unavailable")

	// ErrUnsupportedTarget reports that a target exists but cannot run the
	// requested programs or formats.
	ErrUnsupportedTarget = errors.New("gpu: unsupported target")
)

// BufferID names a vertex buffer. Zero means none.
type BufferID uint32

// TextureID names a texture. Zero means none.
type TextureID uint32

// ProgramID names a compiled program. Zero means none.
type ProgramID uint32

// Attribute is a per-vertex input slot.
type Attribute int

const (
	AttribPosition Attribute = iota // xyzw
	AttribTexCoord                  // uv plus two unused components
	AttribColor                     // rgba
)

func (a Attribute) String() string {
	switch a {
	case AttribPosition:
		return "position"
	case AttribTexCoord:
		return "texpos"
	case AttribColor:
		return "acolor"
	default:
		return "attribute(?)"
	}
}

// Uniform is a per-program value slot.
type Uniform int

const (
	UniformModel     Uniform = iota // mat4 model transform
	UniformCamera                   // mat4 projection * view
	UniformHasCamera                // scalar, 1 when the camera applies
	UniformHasFog                   // scalar, 1 when fog applies
	UniformFog                      // vec4 fog color
	UniformFogRange                 // vec2 near, far
	UniformAlpha                    // scalar opacity
	UniformColor                    // vec4 flat color
)

var uniformNames = [...]string{
	UniformModel:     "models_tfm",
	UniformCamera:    "cam",
	UniformHasCamera: "has_camera",
	UniformHasFog:    "has_fog",
	UniformFog:       "fog",
	UniformFogRange:  "range",
	UniformAlpha:     "alpha",
	UniformColor:     "color",
}

func (u Uniform) String() string {
	if u < 0 || int(u) >= len(uniformNames) {
		return "uniform(?)"
	}
	return uniformNames[u]
}

// ProgramDesc describes the inputs a program consumes.
type ProgramDesc struct {
	Name       string
	Attributes []Attribute
	Uniforms   []Uniform
	Textured   bool
}

// Backend is the set of abstract operations the scene core needs.
type Backend interface {
	// NewBuffer uploads vertex data, four floats per vertex.
	NewBuffer(data []float32) BufferID

	// NewTexture uploads an image.
	NewTexture(img image.Image) TextureID

	// UpdateTexture replaces a texture's pixels. Every draw that samples
	// the texture afterwards sees the new contents.
	UpdateTexture(id TextureID, img image.Image)

	// NewProgram prepares a program. Failures are construction faults.
	NewProgram(desc ProgramDesc) (ProgramID, error)

	// BindProgram makes id the target of later uniform, attribute and draw
	// calls.
	BindProgram(id ProgramID)

	SetUniformScalar(u Uniform, v float32)
	SetUniformVec2(u Uniform, v mgl32.Vec2)
	SetUniformVec4(u Uniform, v mgl32.Vec4)
	SetUniformMat4(u Uniform, m mgl32.Mat4)

	// SetVertexAttribute binds buf as the source of attribute a.
	SetVertexAttribute(a Attribute, buf BufferID)

	// BindTexture selects the texture sampled by later draws.
	BindTexture(id TextureID)

	// DrawTriangleFan draws vertices [start, end) as one triangle fan.
	DrawTriangleFan(start, end int)

	// SetDepthTest turns depth testing and depth writes on or off.
	SetDepthTest(on bool)

	// SetClearColor sets the color the next frame starts from.
	SetClearColor(c mgl32.Vec4)

	// SetViewport resizes the render target.
	SetViewport(width, height int)

	// Present shows the finished frame and starts the next one.
	Present() error
}
