// Package math provides the float32 vector, matrix and quaternion types used
// for bone placement.
package math

import "github.com/chewxy/math32"

// Epsilon is the tolerance used by the approximate comparisons in this package.
const Epsilon = 1e-5

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

// Vec3Zero is the origin.
var Vec3Zero = Vec3{}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Div returns v / scalar. Dividing by zero returns the zero vector.
func (v Vec3) Div(s float32) Vec3 {
	if s == 0 {
		return Vec3{}
	}
	return Vec3{v.X / s, v.Y / s, v.Z / s}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns a unit vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// Distance returns the distance to another point.
func (v Vec3) Distance(other Vec3) float32 {
	return v.Sub(other).Length()
}

// Component returns X, Y or Z for index 0, 1 or 2.
func (v Vec3) Component(i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	return 0
}

// WithComponent returns a copy of v with component i replaced.
func (v Vec3) WithComponent(i int, value float32) Vec3 {
	switch i {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	case 2:
		v.Z = value
	}
	return v
}

// ApproxEqual reports whether every component differs by less than Epsilon.
func (v Vec3) ApproxEqual(other Vec3) bool {
	return math32.Abs(v.X-other.X) < Epsilon &&
		math32.Abs(v.Y-other.Y) < Epsilon &&
		math32.Abs(v.Z-other.Z) < Epsilon
}

// Array returns the vector as [x, y, z].
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// Vec3FromArray builds a vector from [x, y, z].
func Vec3FromArray(a [3]float32) Vec3 {
	return Vec3{a[0], a[1], a[2]}
}
