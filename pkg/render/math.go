package render

import (
	"math"

	"github.com/ludock/ludock/pkg/datamodel"
)

// Vec3 is a 3-component vector in world or camera space.
type Vec3 struct{ X, Y, Z float64 }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector, or the zero vector for degenerate input.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

func fromValueVec3(v datamodel.Vector3) Vec3 { return Vec3{v.X, v.Y, v.Z} }

// Vec4 is a homogeneous coordinate.
type Vec4 struct{ X, Y, Z, W float64 }

// Mat4 is a 4x4 transform in column-major order: m[col*4+row].
type Mat4 [16]float64

// Identity4 returns the identity transform.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * o[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// TransformPoint applies m to a point (w = 1) and returns the homogeneous
// result without perspective division.
func (m Mat4) TransformPoint(v Vec3) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12],
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13],
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14],
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15],
	}
}

// TransformDirection applies only the rotational part of m (w = 0).
func (m Mat4) TransformDirection(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}
}

// FromCFrame converts a CFrame value to a world transform. The CFrame
// rotation matrix is row-major R[row][col]; columns of the transform are the
// rotated basis vectors.
func FromCFrame(cf datamodel.CFrame) Mat4 {
	r := cf.Rotation
	return Mat4{
		r[0], r[3], r[6], 0,
		r[1], r[4], r[7], 0,
		r[2], r[5], r[8], 0,
		cf.Position.X, cf.Position.Y, cf.Position.Z, 1,
	}
}

// LookAt builds a right-handed view matrix with the camera at eye looking
// toward target, -Z forward in camera space.
func LookAt(eye, target, up Vec3) Mat4 {
	f := target.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	if s.Length() == 0 {
		// Forward parallel to up; pick any stable perpendicular.
		s = f.Cross(Vec3{1, 0, 0}).Normalize()
		if s.Length() == 0 {
			s = f.Cross(Vec3{0, 0, 1}).Normalize()
		}
	}
	u := s.Cross(f)
	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// Perspective builds a standard OpenGL-style projection. fovY is vertical
// field of view in radians.
func Perspective(fovY, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovY/2)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) / (near - far), -1,
		0, 0, 2 * far * near / (near - far), 0,
	}
}

// ndcToScreen maps normalized device coordinates to pixel coordinates with
// the origin at the top-left and pixel centers at half-integer offsets.
func ndcToScreen(x, y float64, width, height int) (float64, float64) {
	sx := (x + 1) / 2 * float64(width)
	sy := (1 - y) / 2 * float64(height)
	return sx, sy
}
