package raster

import (
	"math"
	"slices"

	"github.com/taigrr/diorama/pkg/gpu"
	"github.com/taigrr/diorama/pkg/math3d"
)

// vertex is one fan vertex after the model and camera transforms.
type vertex struct {
	clip  math3d.Vec4
	color math3d.Vec4
	uv    math3d.Vec2
}

func (v vertex) lerp(o vertex, t float64) vertex {
	return vertex{
		clip:  v.clip.Lerp(o.clip, t),
		color: v.color.Lerp(o.color, t),
		uv:    math3d.V2(v.uv.X+(o.uv.X-v.uv.X)*t, v.uv.Y+(o.uv.Y-v.uv.Y)*t),
	}
}

// shading is the fragment state of the bound program for one draw.
type shading struct {
	vertexColor bool
	texture     *Texture
	color       math3d.Vec4
	flatColor   bool
	alpha       float64
	faded       bool

	fog      bool
	fogColor math3d.Vec4
	fogNear  float64
	fogFar   float64
}

func (s *shading) fragment(c math3d.Vec4, uv math3d.Vec2, depth float64) math3d.Vec4 {
	out := math3d.V4(1, 1, 1, 1)
	if s.vertexColor {
		out = out.Mul(c)
	}
	if s.texture != nil {
		out = out.Mul(s.texture.Sample(uv.X, uv.Y))
	}
	if s.flatColor {
		out = out.Mul(s.color)
	}
	if s.faded {
		out.W *= s.alpha
	}
	if s.fog {
		f := clamp01((depth - s.fogNear) / (s.fogFar - s.fogNear))
		a := out.W
		out = out.Lerp(s.fogColor, f)
		out.W = a
	}
	return out
}

func (p *program) hasAttrib(a gpu.Attribute) bool {
	return slices.Contains(p.desc.Attributes, a)
}

func (b *Backend) shading(p *program, camera bool) *shading {
	s := &shading{
		vertexColor: p.hasAttrib(gpu.AttribColor),
		flatColor:   p.uniforms[gpu.UniformColor],
		color:       p.vec4s[gpu.UniformColor],
		faded:       p.uniforms[gpu.UniformAlpha],
		alpha:       p.scalars[gpu.UniformAlpha],
	}
	if p.desc.Textured && p.hasAttrib(gpu.AttribTexCoord) {
		s.texture = b.texture
	}
	if camera && p.uniforms[gpu.UniformHasFog] && p.scalars[gpu.UniformHasFog] >= 0.5 {
		r := p.vec2s[gpu.UniformFogRange]
		if r.X < r.Y {
			s.fog = true
			s.fogColor = p.vec4s[gpu.UniformFog]
			s.fogNear, s.fogFar = r.X, r.Y
		}
	}
	return s
}

// DrawTriangleFan draws vertices [start, end) of the bound attributes as a
// fan around vertex start. Vertices are transformed by the model matrix,
// then by the camera matrix when the has-camera uniform is set.
func (b *Backend) DrawTriangleFan(start, end int) {
	p := b.bound
	if p == nil {
		return
	}
	pos := b.buffer(p.attribs[gpu.AttribPosition])
	end = min(end, len(pos)/4)
	if start < 0 || end-start < 3 {
		return
	}
	b.Stats.Fans++

	var uvs, colors []float32
	if p.hasAttrib(gpu.AttribTexCoord) {
		uvs = b.buffer(p.attribs[gpu.AttribTexCoord])
	}
	if p.hasAttrib(gpu.AttribColor) {
		colors = b.buffer(p.attribs[gpu.AttribColor])
	}

	camera := p.scalars[gpu.UniformHasCamera] >= 0.5
	mvp := p.mat4s[gpu.UniformModel]
	if camera {
		mvp = p.mat4s[gpu.UniformCamera].Mul(mvp)
	}
	shade := b.shading(p, camera)

	load := func(i int) vertex {
		v := vertex{
			clip:  mvp.MulVec4(vec4At(pos, i, 1)),
			color: math3d.V4(1, 1, 1, 1),
		}
		if 4*i+3 < len(uvs) {
			v.uv = math3d.V2(float64(uvs[4*i]), float64(uvs[4*i+1]))
		}
		if 4*i+3 < len(colors) {
			v.color = vec4At(colors, i, 1)
		}
		return v
	}

	first, prev := load(start), load(start+1)
	for i := start + 2; i < end; i++ {
		cur := load(i)
		b.drawTriangle([3]vertex{first, prev, cur}, shade)
		prev = cur
	}
}

func vec4At(data []float32, i int, w float64) math3d.Vec4 {
	o := 4 * i
	v := math3d.V4(float64(data[o]), float64(data[o+1]), float64(data[o+2]), w)
	if o+3 < len(data) {
		v.W = float64(data[o+3])
	}
	return v
}

// clipNear clips a triangle against the near plane z >= -w, returning a
// convex polygon of zero to four vertices.
func clipNear(tri [3]vertex) []vertex {
	dist := func(v vertex) float64 {
		return v.clip.Z + v.clip.W
	}
	out := make([]vertex, 0, 4)
	for i := range 3 {
		a, c := tri[i], tri[(i+1)%3]
		da, dc := dist(a), dist(c)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (dc >= 0) {
			out = append(out, a.lerp(c, da/(da-dc)))
		}
	}
	return out
}

func (b *Backend) drawTriangle(tri [3]vertex, shade *shading) {
	b.Stats.Triangles++
	poly := clipNear(tri)
	if len(poly) < 3 || poly[0].clip.W <= 0 {
		b.Stats.Culled++
		return
	}
	for i := 1; i+1 < len(poly); i++ {
		b.rasterize(poly[0], poly[i], poly[i+1], shade)
	}
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y float64 // Screen coordinates
	Z    float64 // NDC depth
	InvW float64 // 1/w for perspective-correct interpolation
	v    vertex
}

func (b *Backend) rasterize(v0, v1, v2 vertex, shade *shading) {
	fb := b.fb
	var sv [3]screenVertex
	for i, v := range [3]vertex{v0, v1, v2} {
		ndc := v.clip.PerspectiveDivide()
		sv[i] = screenVertex{
			X:    (ndc.X + 1) * 0.5 * float64(fb.Width),
			Y:    (1 - ndc.Y) * 0.5 * float64(fb.Height), // Y flipped
			Z:    ndc.Z,
			InvW: 1 / v.clip.W,
			v:    v,
		}
	}

	// Counter-clockwise in NDC is front-facing. Screen Y is flipped, so
	// front faces have a negative screen-space cross product.
	cross := (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[1].Y-sv[0].Y)*(sv[2].X-sv[0].X)
	if cross == 0 || (cross > 0 && !b.DisableBackfaceCulling) {
		b.Stats.Culled++
		return
	}

	minX := int(math.Max(0, math.Floor(min(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(fb.Width-1), math.Ceil(max(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(fb.Height-1), math.Ceil(max(sv[0].Y, sv[1].Y, sv[2].Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			bc := barycentric(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y, sv[2].X, sv[2].Y, px, py)
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}

			z := bc.X*sv[0].Z + bc.Y*sv[1].Z + bc.Z*sv[2].Z
			if b.depthTest && (z > 1 || z >= fb.Depth(x, y)) {
				continue
			}

			// Interpolate attribute/w and 1/w, then divide.
			w0, w1, w2 := bc.X*sv[0].InvW, bc.Y*sv[1].InvW, bc.Z*sv[2].InvW
			oneOverW := w0 + w1 + w2
			if oneOverW == 0 {
				continue
			}
			k0, k1, k2 := w0/oneOverW, w1/oneOverW, w2/oneOverW

			c := sv[0].v.color.Scale(k0).Add(sv[1].v.color.Scale(k1)).Add(sv[2].v.color.Scale(k2))
			uv := sv[0].v.uv.Scale(k0).Add(sv[1].v.uv.Scale(k1)).Add(sv[2].v.uv.Scale(k2))

			frag := shade.fragment(c, uv, 1/oneOverW)
			if b.depthTest {
				fb.setDepth(x, y, z)
			}
			fb.Blend(x, y, frag)
			b.Stats.Pixels++
		}
	}
}

// barycentric calculates barycentric coordinates for point (px, py) in triangle.
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) math3d.Vec3 {
	v0x, v0y := x2-x0, y2-y0
	v1x, v1y := x1-x0, y1-y0
	v2x, v2y := px-x0, py-y0

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	invDenom := 1.0 / (dot00*dot11 - dot01*dot01)
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return math3d.V3(1-u-v, v, u)
}
