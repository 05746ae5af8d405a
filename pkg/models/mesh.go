// Package models loads and generates geometry laid out for triangle-fan
// drawing.
package models

import (
	"github.com/taigrr/diorama/pkg/bounds"
	"github.com/taigrr/diorama/pkg/math3d"
)

// Mesh is an indexed triangle mesh as read from a model file.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material

	// Bounds is the local bounding box (calculated on load).
	Bounds bounds.AABB
}

// MeshVertex holds the attributes the fan geometry needs.
type MeshVertex struct {
	Position math3d.Vec3
	UV       math3d.Vec2
}

// Face is a triangle with vertex indices and a material reference.
type Face struct {
	V        [3]int // Indices into Mesh.Vertices
	Material int    // Index into Mesh.Materials (-1 for no material)
}

// Material is the part of a glTF material that survives import: the base
// color, which becomes a per-vertex color.
type Material struct {
	Name      string
	BaseColor [4]float64 // RGBA in 0-1 range
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:   name,
		Bounds: bounds.Empty(),
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	m.Bounds = bounds.Empty()
	for _, v := range m.Vertices {
		m.Bounds = m.Bounds.Extend(v.Position)
	}
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Transform applies a transformation matrix to all vertices.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulVec3(m.Vertices[i].Position)
	}
	m.CalculateBounds()
}

// Normalize centers the mesh on the origin and scales it so its largest
// dimension equals size.
func (m *Mesh) Normalize(size float64) {
	if m.Bounds.IsEmpty() {
		return
	}
	dims := m.Bounds.Size()
	maxDim := max(dims.X, dims.Y, dims.Z)
	if maxDim <= 0 {
		return
	}
	scale := size / maxDim
	m.Transform(math3d.ScaleUniform(scale).Mul(math3d.Translate(m.Bounds.Center().Negate())))
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Vertices:  make([]MeshVertex, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		Materials: make([]Material, len(m.Materials)),
		Bounds:    m.Bounds,
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	copy(clone.Materials, m.Materials)
	return clone
}

// GetMaterial returns the material at index i.
// Returns nil if index is out of bounds or -1.
func (m *Mesh) GetMaterial(i int) *Material {
	if i < 0 || i >= len(m.Materials) {
		return nil
	}
	return &m.Materials[i]
}

// Geometry converts the mesh to fan geometry: every face becomes its own
// three-vertex fan, with UVs and the face material color per vertex.
func (m *Mesh) Geometry() *Geometry {
	n := 3 * len(m.Faces)
	g := &Geometry{
		Name:      m.Name,
		Vertices:  make([]float32, 0, 4*n),
		TexCoords: make([]float32, 0, 4*n),
		Colors:    make([]float32, 0, 4*n),
		Fans:      make([][2]int, 0, len(m.Faces)),
	}
	for i, f := range m.Faces {
		c := [4]float64{1, 1, 1, 1}
		if mat := m.GetMaterial(f.Material); mat != nil {
			c = mat.BaseColor
		}
		for _, vi := range f.V {
			v := m.Vertices[vi]
			g.Vertices = append(g.Vertices,
				float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z), 1)
			g.TexCoords = append(g.TexCoords, float32(v.UV.X), float32(v.UV.Y), 0, 0)
			g.Colors = append(g.Colors, float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3]))
		}
		g.Fans = append(g.Fans, [2]int{3 * i, 3*i + 3})
	}
	return g
}
