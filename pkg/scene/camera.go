package scene

import (
	"math"

	"github.com/taigrr/diorama/pkg/bounds"
	"github.com/taigrr/diorama/pkg/math3d"
)

// DefaultProjection is the projection a Display starts with.
func DefaultProjection(aspect float64) bounds.Projection {
	return bounds.Projection{
		FOV:    math.Pi / 2,
		Aspect: aspect,
		Near:   0.1,
		Far:    100,
	}
}

// Camera is a position, an orientation and a projection.
type Camera struct {
	// Position in world space
	Position math3d.Vec3

	// Rotation holds pitch (X), yaw (Y) and roll (Z) in radians.
	Rotation math3d.Vec3

	Projection bounds.Projection
}

// NewCamera creates a camera at the origin looking down -Z.
func NewCamera(proj bounds.Projection) *Camera {
	return &Camera{Projection: proj}
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.Projection.Aspect = aspect
}

// Forward returns the forward direction vector.
func (c *Camera) Forward() math3d.Vec3 {
	return math3d.Euler(c.Rotation).MulVec3Dir(math3d.Forward())
}

// Right returns the right direction vector.
func (c *Camera) Right() math3d.Vec3 {
	return math3d.Euler(c.Rotation).MulVec3Dir(math3d.V3(1, 0, 0))
}

// View returns the world-to-camera matrix.
func (c *Camera) View() math3d.Mat4 {
	return bounds.View(c.Position, c.Rotation)
}

// Matrix returns projection * view.
func (c *Camera) Matrix() math3d.Mat4 {
	return c.Projection.Matrix().Mul(c.View())
}

// Frustum returns the visible volume for the current pose.
func (c *Camera) Frustum() bounds.Frustum {
	return c.Projection.Frustum(c.Position, c.Rotation)
}

// LookAt points the camera at target and clears roll.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position).Normalize()
	if dir.LenSq() == 0 {
		return
	}
	c.Rotation = math3d.V3(
		math.Asin(max(-1, min(1, dir.Y))),
		math.Atan2(-dir.X, -dir.Z),
		0,
	)
}
