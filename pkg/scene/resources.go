package scene

import (
	"fmt"
	"image"

	"github.com/taigrr/diorama/pkg/bounds"
	"github.com/taigrr/diorama/pkg/gpu"
	"github.com/taigrr/diorama/pkg/math3d"
)

// ModelID names a model created by CreateModel. Zero is never valid.
type ModelID int

// GradientID names a per-vertex color buffer. Zero is never valid.
type GradientID int

// TexCoordsID names a per-vertex texture coordinate buffer. Zero is never
// valid.
type TexCoordsID int

// TextureID names a texture. Zero is never valid.
type TextureID int

// model is immutable geometry shared by every shape created from it.
type model struct {
	buffer   gpu.BufferID
	count    int
	local    bounds.AABB
	centroid math3d.Vec3
	fans     [][2]int
}

// attribBuffer is an auxiliary per-vertex buffer.
type attribBuffer struct {
	buffer gpu.BufferID
	count  int
}

type texture struct {
	id     gpu.TextureID
	width  int
	height int
}

// resources holds the append-only tables shapes refer into.
type resources struct {
	backend   gpu.Backend
	models    []model
	gradients []attribBuffer
	texcoords []attribBuffer
	textures  []texture
}

func vertexCount(name string, data []float32) (int, error) {
	if len(data)%4 != 0 {
		return 0, fmt.Errorf("%w: %s length %d is not a multiple of 4", ErrInvalidGeometry, name, len(data))
	}
	return len(data) / 4, nil
}

func (r *resources) createModel(vertices []float32, fans [][2]int) (ModelID, error) {
	n, err := vertexCount("vertices", vertices)
	if err != nil {
		return 0, err
	}
	for _, f := range fans {
		if f[0] < 0 || f[1] > n || f[1]-f[0] < 3 {
			return 0, fmt.Errorf("%w: fan [%d,%d) with %d vertices", ErrInvalidGeometry, f[0], f[1], n)
		}
	}

	points := make([]math3d.Vec3, n)
	var sum math3d.Vec3
	for i := range points {
		o := 4 * i
		points[i] = math3d.V3(float64(vertices[o]), float64(vertices[o+1]), float64(vertices[o+2]))
		sum = sum.Add(points[i])
	}
	m := model{
		count: n,
		local: bounds.FromPoints(points, math3d.Identity()),
		fans:  append([][2]int(nil), fans...),
	}
	if n > 0 {
		m.centroid = sum.Scale(1 / float64(n))
	}
	m.buffer = r.backend.NewBuffer(vertices)
	r.models = append(r.models, m)
	return ModelID(len(r.models)), nil
}

func (r *resources) model(id ModelID) (*model, error) {
	if id <= 0 || int(id) > len(r.models) {
		return nil, fmt.Errorf("%w: model %d", ErrUnknownResource, id)
	}
	return &r.models[id-1], nil
}

func (r *resources) createGradient(colors []float32) (GradientID, error) {
	n, err := vertexCount("gradient", colors)
	if err != nil {
		return 0, err
	}
	r.gradients = append(r.gradients, attribBuffer{buffer: r.backend.NewBuffer(colors), count: n})
	return GradientID(len(r.gradients)), nil
}

func (r *resources) gradient(id GradientID) (attribBuffer, error) {
	if id <= 0 || int(id) > len(r.gradients) {
		return attribBuffer{}, fmt.Errorf("%w: gradient %d", ErrUnknownResource, id)
	}
	return r.gradients[id-1], nil
}

func (r *resources) createTexCoords(coords []float32) (TexCoordsID, error) {
	n, err := vertexCount("texcoords", coords)
	if err != nil {
		return 0, err
	}
	r.texcoords = append(r.texcoords, attribBuffer{buffer: r.backend.NewBuffer(coords), count: n})
	return TexCoordsID(len(r.texcoords)), nil
}

func (r *resources) texCoords(id TexCoordsID) (attribBuffer, error) {
	if id <= 0 || int(id) > len(r.texcoords) {
		return attribBuffer{}, fmt.Errorf("%w: texcoords %d", ErrUnknownResource, id)
	}
	return r.texcoords[id-1], nil
}

func (r *resources) createTexture(img image.Image) TextureID {
	size := img.Bounds().Size()
	r.textures = append(r.textures, texture{
		id:     r.backend.NewTexture(img),
		width:  size.X,
		height: size.Y,
	})
	return TextureID(len(r.textures))
}

func (r *resources) texture(id TextureID) (texture, error) {
	if id <= 0 || int(id) > len(r.textures) {
		return texture{}, fmt.Errorf("%w: texture %d", ErrUnknownResource, id)
	}
	return r.textures[id-1], nil
}

// updateTexture replaces the pixels of a texture in place. The new image
// must have the texture's size.
func (r *resources) updateTexture(id TextureID, img image.Image) error {
	t, err := r.texture(id)
	if err != nil {
		return err
	}
	size := img.Bounds().Size()
	if size.X != t.width || size.Y != t.height {
		return fmt.Errorf("scene: texture %d is %dx%d, update is %dx%d", id, t.width, t.height, size.X, size.Y)
	}
	r.backend.UpdateTexture(t.id, img)
	return nil
}
