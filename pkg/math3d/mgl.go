package math3d

import "github.com/go-gl/mathgl/mgl32"

// Float32 narrows the matrix to the float32 layout backends upload as a
// uniform. Both layouts are column-major so no transposition happens.
func (m Mat4) Float32() mgl32.Mat4 {
	var out mgl32.Mat4
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// FromFloat32 widens a backend matrix back to float64.
func FromFloat32(m mgl32.Mat4) Mat4 {
	var out Mat4
	for i, v := range m {
		out[i] = float64(v)
	}
	return out
}

// Float32 narrows the vector for uniform upload.
func (v Vec4) Float32() mgl32.Vec4 {
	return mgl32.Vec4{float32(v.X), float32(v.Y), float32(v.Z), float32(v.W)}
}

// Float32 narrows the vector for uniform upload.
func (a Vec2) Float32() mgl32.Vec2 {
	return mgl32.Vec2{float32(a.X), float32(a.Y)}
}
