package models

import (
	"image"

	"github.com/taigrr/diorama/pkg/bounds"
	"github.com/taigrr/diorama/pkg/math3d"
)

// Geometry is vertex data ready for upload: four floats per vertex in every
// array, and fan ranges [start, end) into the vertices.
type Geometry struct {
	Name      string
	Vertices  []float32 // x, y, z, w
	TexCoords []float32 // u, v, 0, 0
	Colors    []float32 // r, g, b, a
	Fans      [][2]int

	// Texture is the first embedded image of an imported model, or nil.
	Texture image.Image
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Vertices) / 4
}

// Position returns vertex i.
func (g *Geometry) Position(i int) math3d.Vec3 {
	o := 4 * i
	return math3d.V3(float64(g.Vertices[o]), float64(g.Vertices[o+1]), float64(g.Vertices[o+2]))
}

// Bounds returns the local bounding box.
func (g *Geometry) Bounds() bounds.AABB {
	box := bounds.Empty()
	for i := range g.VertexCount() {
		box = box.Extend(g.Position(i))
	}
	return box
}

// Gradient returns a per-vertex color array built by calling fn for every
// vertex position.
func (g *Geometry) Gradient(fn func(i int, p math3d.Vec3) [4]float32) []float32 {
	out := make([]float32, 0, len(g.Vertices))
	for i := range g.VertexCount() {
		c := fn(i, g.Position(i))
		out = append(out, c[:]...)
	}
	return out
}

// Quad returns a square of half-size half in the XY plane, facing +Z.
func Quad(half float64) *Geometry {
	g := &Geometry{Name: "quad"}
	g.face(math3d.Zero3(), math3d.V3(half, 0, 0), math3d.V3(0, half, 0))
	return g
}

// Cube returns an axis-aligned cube of half-size half centered on the
// origin: six four-vertex fans, each counter-clockwise seen from outside.
func Cube(half float64) *Geometry {
	g := &Geometry{Name: "cube"}
	x := math3d.V3(half, 0, 0)
	y := math3d.V3(0, half, 0)
	z := math3d.V3(0, 0, half)
	g.face(x, z.Negate(), y)
	g.face(x.Negate(), z, y)
	g.face(y, x, z.Negate())
	g.face(y.Negate(), x, z)
	g.face(z, x, y)
	g.face(z.Negate(), x.Negate(), y)
	return g
}

// face appends a four-vertex fan centered on c spanning ±u and ±v. The fan
// is counter-clockwise seen from the u×v side.
func (g *Geometry) face(c, u, v math3d.Vec3) {
	start := g.VertexCount()
	corners := [4]struct {
		p    math3d.Vec3
		s, t float32
	}{
		{c.Sub(u).Sub(v), 0, 0},
		{c.Add(u).Sub(v), 1, 0},
		{c.Add(u).Add(v), 1, 1},
		{c.Sub(u).Add(v), 0, 1},
	}
	for _, k := range corners {
		g.Vertices = append(g.Vertices, float32(k.p.X), float32(k.p.Y), float32(k.p.Z), 1)
		g.TexCoords = append(g.TexCoords, k.s, k.t, 0, 0)
		g.Colors = append(g.Colors, 1, 1, 1, 1)
	}
	g.Fans = append(g.Fans, [2]int{start, start + 4})
}
