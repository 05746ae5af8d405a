package gpu

import (
	"fmt"
	"image"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Call is one recorded backend invocation.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprint(a)
	}
	return c.Op + "(" + strings.Join(args, ", ") + ")"
}

// Recorder is a Backend that draws nothing and records every call. Ids are
// handed out sequentially starting at 1.
type Recorder struct {
	Calls []Call

	// ProgramErr, when set, is returned by every NewProgram call.
	ProgramErr error

	nextBuffer  BufferID
	nextTexture TextureID
	nextProgram ProgramID

	buffers map[BufferID][]float32
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{buffers: make(map[BufferID][]float32)}
}

// Reset forgets recorded calls. Ids keep counting.
func (r *Recorder) Reset() {
	r.Calls = r.Calls[:0]
}

// Ops returns the operation names of the recorded calls in order.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Filter returns the recorded calls with the given operation name.
func (r *Recorder) Filter(op string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Buffer returns the data uploaded under id.
func (r *Recorder) Buffer(id BufferID) []float32 {
	return r.buffers[id]
}

func (r *Recorder) record(op string, args ...any) {
	r.Calls = append(r.Calls, Call{Op: op, Args: args})
}

func (r *Recorder) NewBuffer(data []float32) BufferID {
	r.nextBuffer++
	r.buffers[r.nextBuffer] = append([]float32(nil), data...)
	r.record("NewBuffer", len(data))
	return r.nextBuffer
}

func (r *Recorder) NewTexture(img image.Image) TextureID {
	r.nextTexture++
	r.record("NewTexture", img.Bounds().Size())
	return r.nextTexture
}

func (r *Recorder) UpdateTexture(id TextureID, img image.Image) {
	r.record("UpdateTexture", id, img.Bounds().Size())
}

func (r *Recorder) NewProgram(desc ProgramDesc) (ProgramID, error) {
	r.record("NewProgram", desc.Name)
	if r.ProgramErr != nil {
		return 0, r.ProgramErr
	}
	r.nextProgram++
	return r.nextProgram, nil
}

func (r *Recorder) BindProgram(id ProgramID) {
	r.record("BindProgram", id)
}

func (r *Recorder) SetUniformScalar(u Uniform, v float32) {
	r.record("SetUniformScalar", u, v)
}

func (r *Recorder) SetUniformVec2(u Uniform, v mgl32.Vec2) {
	r.record("SetUniformVec2", u, v)
}

func (r *Recorder) SetUniformVec4(u Uniform, v mgl32.Vec4) {
	r.record("SetUniformVec4", u, v)
}

func (r *Recorder) SetUniformMat4(u Uniform, m mgl32.Mat4) {
	r.record("SetUniformMat4", u, m)
}

func (r *Recorder) SetVertexAttribute(a Attribute, buf BufferID) {
	r.record("SetVertexAttribute", a, buf)
}

func (r *Recorder) BindTexture(id TextureID) {
	r.record("BindTexture", id)
}

func (r *Recorder) DrawTriangleFan(start, end int) {
	r.record("DrawTriangleFan", start, end)
}

func (r *Recorder) SetDepthTest(on bool) {
	r.record("SetDepthTest", on)
}

func (r *Recorder) SetClearColor(c mgl32.Vec4) {
	r.record("SetClearColor", c)
}

func (r *Recorder) SetViewport(width, height int) {
	r.record("SetViewport", width, height)
}

func (r *Recorder) Present() error {
	r.record("Present")
	return nil
}

var _ Backend = (*Recorder)(nil)
