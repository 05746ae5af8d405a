package scene

import (
	"github.com/taigrr/diorama/pkg/gpu"
)

// binder binds one optional resource of a shape.
type binder struct {
	res  Resource
	bind func(b gpu.Backend, rec *record)
}

// binders lists every optional resource in binding order. A record's
// resources select which entries run; style identity never does.
var binders = []binder{
	{ResTexCoords, func(b gpu.Backend, rec *record) {
		b.SetVertexAttribute(gpu.AttribTexCoord, rec.texcoords)
	}},
	{ResTexture, func(b gpu.Backend, rec *record) {
		b.BindTexture(rec.texture)
	}},
	{ResVertexColors, func(b gpu.Backend, rec *record) {
		b.SetVertexAttribute(gpu.AttribColor, rec.colors)
	}},
	{ResAlpha, func(b gpu.Backend, rec *record) {
		b.SetUniformScalar(gpu.UniformAlpha, float32(rec.alpha))
	}},
	{ResColor, func(b gpu.Backend, rec *record) {
		b.SetUniformVec4(gpu.UniformColor, rec.color.Float32())
	}},
	{ResFog, func(b gpu.Backend, rec *record) {
		b.SetUniformScalar(gpu.UniformHasFog, boolUniform(rec.fog))
	}},
}

// executor issues the backend calls that draw one shape.
type executor struct {
	backend gpu.Backend
}

// draw binds the shape's program and declared resources, then draws each
// of its fans.
func (e executor) draw(rec *record) {
	b := e.backend
	b.BindProgram(rec.style.Program)
	for _, bd := range binders {
		if rec.resources.Has(bd.res) {
			bd.bind(b, rec)
		}
	}
	b.SetUniformMat4(gpu.UniformModel, rec.transform.Float32())
	b.SetVertexAttribute(gpu.AttribPosition, rec.vertices)
	for _, f := range rec.fans {
		b.DrawTriangleFan(f[0], f[1])
	}
}
