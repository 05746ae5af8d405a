package gpu

import (
	"errors"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderIDs(t *testing.T) {
	r := NewRecorder()

	b1 := r.NewBuffer([]float32{0, 0, 0, 1})
	b2 := r.NewBuffer([]float32{1, 1, 1, 1})
	tex := r.NewTexture(image.NewRGBA(image.Rect(0, 0, 4, 2)))
	prog, err := r.NewProgram(ProgramDesc{Name: "solid"})
	require.NoError(t, err)

	assert.Equal(t, BufferID(1), b1)
	assert.Equal(t, BufferID(2), b2)
	assert.Equal(t, TextureID(1), tex)
	assert.Equal(t, ProgramID(1), prog)
	assert.Equal(t, []float32{1, 1, 1, 1}, r.Buffer(b2))
}

func TestRecorderCalls(t *testing.T) {
	r := NewRecorder()
	r.BindProgram(3)
	r.SetUniformMat4(UniformModel, mgl32.Ident4())
	r.SetUniformScalar(UniformAlpha, 0.5)
	r.SetVertexAttribute(AttribPosition, 7)
	r.DrawTriangleFan(0, 4)
	require.NoError(t, r.Present())

	assert.Equal(t, []string{
		"BindProgram", "SetUniformMat4", "SetUniformScalar",
		"SetVertexAttribute", "DrawTriangleFan", "Present",
	}, r.Ops())

	fans := r.Filter("DrawTriangleFan")
	require.Len(t, fans, 1)
	assert.Equal(t, []any{0, 4}, fans[0].Args)
	assert.Equal(t, "SetUniformScalar(alpha, 0.5)", r.Calls[2].String())

	r.Reset()
	assert.Empty(t, r.Calls)
}

func TestRecorderProgramErr(t *testing.T) {
	r := NewRecorder()
	r.ProgramErr = ErrUnsupportedTarget

	_, err := r.NewProgram(ProgramDesc{Name: "texture"})
	assert.True(t, errors.Is(err, ErrUnsupportedTarget))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "texpos", AttribTexCoord.String())
	assert.Equal(t, "has_camera", UniformHasCamera.String())
	assert.Equal(t, "uniform(?)", Uniform(99).String())
}
