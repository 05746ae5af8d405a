package bounds

import (
	"math"

	"github.com/taigrr/diorama/pkg/math3d"
)

// Plane represents a plane in 3D space using the equation Ax + By + Cz + D = 0
// where (A, B, C) is the normal.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize normalizes the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = in front (same side as normal), negative = behind.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Plane indices within Frustum.Planes.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// Frustum is the camera's visible volume. Planes point inward. Eye is the
// reference point shapes are ordered by; Center and Radius describe a sphere
// enclosing the whole volume, used as a cheap first rejection.
type Frustum struct {
	Planes [6]Plane

	Eye    math3d.Vec3
	Center math3d.Vec3
	Radius float64

	FOV       float64 // vertical field of view, radians
	HalfAngle float64 // horizontal half-angle derived from the aspect ratio
	Yaw       float64
	Pitch     float64
}

// PlanesFromMatrix extracts inward-facing, normalized frustum planes from a
// column-major view-projection matrix (Gribb/Hartmann).
func PlanesFromMatrix(m math3d.Mat4) [6]Plane {
	var planes [6]Plane

	// Row i element j lives at m[i + j*4].
	planes[FrustumLeft] = Plane{
		Normal: math3d.V3(m[3]+m[0], m[7]+m[4], m[11]+m[8]),
		D:      m[15] + m[12],
	}
	planes[FrustumRight] = Plane{
		Normal: math3d.V3(m[3]-m[0], m[7]-m[4], m[11]-m[8]),
		D:      m[15] - m[12],
	}
	planes[FrustumBottom] = Plane{
		Normal: math3d.V3(m[3]+m[1], m[7]+m[5], m[11]+m[9]),
		D:      m[15] + m[13],
	}
	planes[FrustumTop] = Plane{
		Normal: math3d.V3(m[3]-m[1], m[7]-m[5], m[11]-m[9]),
		D:      m[15] - m[13],
	}
	planes[FrustumNear] = Plane{
		Normal: math3d.V3(m[3]+m[2], m[7]+m[6], m[11]+m[10]),
		D:      m[15] + m[14],
	}
	planes[FrustumFar] = Plane{
		Normal: math3d.V3(m[3]-m[2], m[7]-m[6], m[11]-m[10]),
		D:      m[15] - m[14],
	}

	for i := range planes {
		planes[i].Normalize()
	}
	return planes
}

// FrustumFromMatrix builds a frustum from a view-projection matrix alone. The
// reference point is the given eye; without projection parameters the
// bounding sphere is unbounded.
func FrustumFromMatrix(m math3d.Mat4, eye math3d.Vec3) Frustum {
	return Frustum{
		Planes: PlanesFromMatrix(m),
		Eye:    eye,
		Center: eye,
		Radius: math.Inf(1),
	}
}

// IntersectAABB tests if the AABB intersects or is inside the frustum.
// Uses the "positive vertex" test per plane after a sphere rejection.
func (f Frustum) IntersectAABB(box AABB) bool {
	if box.IsEmpty() {
		return false
	}
	if box.DistanceSqToPoint(f.Center) > f.Radius*f.Radius {
		return false
	}
	for i := range f.Planes {
		plane := f.Planes[i]

		// Corner furthest along the normal: if it is outside, the whole box is.
		pVertex := math3d.V3(
			selectComponent(plane.Normal.X >= 0, box.Max.X, box.Min.X),
			selectComponent(plane.Normal.Y >= 0, box.Max.Y, box.Min.Y),
			selectComponent(plane.Normal.Z >= 0, box.Max.Z, box.Min.Z),
		)
		if plane.DistanceToPoint(pVertex) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint tests if a point is inside the frustum.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// Distance returns the distance from the frustum reference point to the
// center of box. Shapes are ordered by this value.
func (f Frustum) Distance(box AABB) float64 {
	return f.Eye.Distance(box.Center())
}

func selectComponent(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
