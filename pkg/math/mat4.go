package math

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix in column-major order.
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

// UniformScale returns a matrix scaling all three axes by s.
func UniformScale(s float32) Mat4 {
	return Scale(s, s, s)
}

// RotateAxis creates a rotation matrix around an arbitrary axis.
// axis should be normalized, angle is in radians.
func RotateAxis(axis Vec3, angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	t := 1 - c

	x, y, z := axis.X, axis.Y, axis.Z

	return Mat4{
		t*x*x + c, t*x*y + s*z, t*x*z - s*y, 0,
		t*x*y - s*z, t*y*y + c, t*y*z + s*x, 0,
		t*x*z + s*y, t*y*z - s*x, t*z*z + c, 0,
		0, 0, 0, 1,
	}
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[col*4+row] =
				m[0*4+row]*other[col*4+0] +
					m[1*4+row]*other[col*4+1] +
					m[2*4+row]*other[col*4+2] +
					m[3*4+row]*other[col*4+3]
		}
	}
	return result
}

// TransformVec3 transforms a point by this matrix (assumes w=1).
func (m Mat4) TransformVec3(p Vec3) Vec3 {
	x := m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12]
	y := m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13]
	z := m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14]
	w := m[3]*p.X + m[7]*p.Y + m[11]*p.Z + m[15]
	if w != 0 && w != 1 {
		return Vec3{x / w, y / w, z / w}
	}
	return Vec3{x, y, z}
}

// TransformDirection transforms a direction vector (ignores translation).
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return Vec3{
		m[0]*d.X + m[4]*d.Y + m[8]*d.Z,
		m[1]*d.X + m[5]*d.Y + m[9]*d.Z,
		m[2]*d.X + m[6]*d.Y + m[10]*d.Z,
	}
}

// Column returns the first three components of column i.
func (m Mat4) Column(i int) Vec3 {
	return Vec3{m[i*4], m[i*4+1], m[i*4+2]}
}

// ScaleFactors returns the length of each basis column.
func (m Mat4) ScaleFactors() Vec3 {
	return Vec3{m.Column(0).Length(), m.Column(1).Length(), m.Column(2).Length()}
}

// Inverse returns the inverse of an affine matrix: a 3x3 basis plus a
// translation, the shape of an armature world matrix. The bottom row is
// ignored. A singular basis returns identity.
func (m Mat4) Inverse() Mat4 {
	c0, c1, c2 := m.Column(0), m.Column(1), m.Column(2)
	r0, r1, r2 := c1.Cross(c2), c2.Cross(c0), c0.Cross(c1)
	det := c0.Dot(r0)
	if det == 0 {
		return Identity()
	}
	r0, r1, r2 = r0.Div(det), r1.Div(det), r2.Div(det)

	inv := Mat4{
		r0.X, r1.X, r2.X, 0,
		r0.Y, r1.Y, r2.Y, 0,
		r0.Z, r1.Z, r2.Z, 0,
		0, 0, 0, 1,
	}
	t := inv.TransformDirection(m.Column(3)).Scale(-1)
	inv[12], inv[13], inv[14] = t.X, t.Y, t.Z
	return inv
}

// Thresholds used when the bone direction is close to -Y.
const (
	boneSafeThreshold = 6.1e-3
	boneAltThreshold  = 2.5e-4
)

// BoneMatrix returns the rest orientation of a bone pointing from head to
// tail and rolled around its own axis. The Y column is the bone direction.
// Translation is the head.
func BoneMatrix(head, tail Vec3, roll float32) Mat4 {
	nor := tail.Sub(head).Normalize()
	x, y, z := nor.X, nor.Y, nor.Z

	var b Mat4
	theta := 1 + y
	thetaAlt := x*x + z*z
	if theta > boneSafeThreshold || thetaAlt > boneAltThreshold {
		if theta <= boneSafeThreshold {
			theta = thetaAlt*0.5 + thetaAlt*thetaAlt*0.125
		}
		b = Mat4{
			1 - x*x/theta, -x, -x * z / theta, 0,
			x, y, z, 0,
			-x * z / theta, -z, 1 - z*z/theta, 0,
			0, 0, 0, 1,
		}
	} else {
		// pointing straight down -Y
		b = Mat4{
			-1, 0, 0, 0,
			0, -1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		}
	}

	m := RotateAxis(nor, roll).Mul(b)
	m[12], m[13], m[14] = head.X, head.Y, head.Z
	return m
}

// AlignRoll returns the roll that turns the Z axis of the bone head->tail as
// close as possible to up. ok is false when up is parallel to the bone.
func AlignRoll(head, tail, up Vec3) (roll float32, ok bool) {
	nor := tail.Sub(head).Normalize()
	proj := up.Sub(nor.Scale(up.Dot(nor)))
	if proj.Length() < Epsilon {
		return 0, false
	}
	rest := BoneMatrix(head, tail, 0)
	return math32.Atan2(proj.Dot(rest.Column(0)), proj.Dot(rest.Column(2))), true
}
