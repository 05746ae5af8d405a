package bounds

import (
	"math"

	"github.com/taigrr/diorama/pkg/math3d"
)

// Projection holds the base frustum parameters. It only changes on resize or
// when the field of view is reconfigured; per-frame frustums are derived from
// it by applying the camera pose.
type Projection struct {
	FOV    float64 // vertical field of view in radians
	Aspect float64 // width / height
	Near   float64
	Far    float64
}

// Matrix returns the perspective projection matrix.
func (p Projection) Matrix() math3d.Mat4 {
	return math3d.Perspective(p.FOV, p.Aspect, p.Near, p.Far)
}

// HalfAngle returns the horizontal half-angle of the view cone.
func (p Projection) HalfAngle() float64 {
	return math.Atan(math.Tan(p.FOV/2) * p.Aspect)
}

// View returns the world-to-camera matrix for a camera at eye with the given
// pitch (X), yaw (Y) and roll (Z).
func View(eye, rotation math3d.Vec3) math3d.Mat4 {
	rot := math3d.RotateZ(-rotation.Z).
		Mul(math3d.RotateX(-rotation.X)).
		Mul(math3d.RotateY(-rotation.Y))
	return rot.Mul(math3d.Translate(eye.Negate()))
}

// Frustum places the base frustum at eye with the given rotation.
func (p Projection) Frustum(eye, rotation math3d.Vec3) Frustum {
	viewProj := p.Matrix().Mul(View(eye, rotation))

	forward := math3d.Euler(rotation).MulVec3Dir(math3d.Forward())
	halfDepth := (p.Far - p.Near) / 2
	center := eye.Add(forward.Scale(p.Near + halfDepth))

	farHalfH := p.Far * math.Tan(p.FOV/2)
	farHalfW := farHalfH * p.Aspect
	radius := math.Sqrt(farHalfW*farHalfW + farHalfH*farHalfH + halfDepth*halfDepth)

	return Frustum{
		Planes:    PlanesFromMatrix(viewProj),
		Eye:       eye,
		Center:    center,
		Radius:    radius,
		FOV:       p.FOV,
		HalfAngle: p.HalfAngle(),
		Yaw:       rotation.Y,
		Pitch:     rotation.X,
	}
}
