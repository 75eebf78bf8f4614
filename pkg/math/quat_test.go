package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

// axisAngle is the unit quaternion for a rotation of angle around axis.
func axisAngle(axis Vec3, angle float32) Quat {
	s, c := float32(math.Sin(float64(angle/2))), float32(math.Cos(float64(angle/2)))
	return Quat{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: c}
}

func TestQuatFromMat4(t *testing.T) {
	tests := []struct {
		name  string
		axis  Vec3
		angle float32
	}{
		{"identity", Vec3{0, 1, 0}, 0},
		{"y quarter", Vec3{0, 1, 0}, float32(math.Pi / 2)},
		{"x third", Vec3{1, 0, 0}, float32(2 * math.Pi / 3)},
		{"z near half", Vec3{0, 0, 1}, 3.1},
		{"oblique", Vec3{1, 1, 0}.Normalize(), 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := axisAngle(tt.axis, tt.angle)
			got := QuatFromMat4(RotateAxis(tt.axis, tt.angle))
			// q and -q are the same rotation
			if d := got.Dot(want); math.Abs(float64(d)) < 0.999 {
				t.Errorf("QuatFromMat4: got %+v, want %+v", got, want)
			}
		})
	}
}

func TestQuatTwistY(t *testing.T) {
	tests := []struct {
		name  string
		angle float32
	}{
		{"zero", 0},
		{"positive", 0.7},
		{"negative", -1.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuatFromMat4(RotateAxis(Vec3{0, 1, 0}, tt.angle))
			if got := q.TwistY(); abs(got-tt.angle) > 0.0001 {
				t.Errorf("TwistY() = %v, want %v", got, tt.angle)
			}
		})
	}

	half := Quat{X: 0, Y: 1, Z: 0, W: 0}
	if got := half.TwistY(); abs(got-float32(math.Pi)) > 0.0001 {
		t.Errorf("TwistY() of half turn = %v, want pi", got)
	}
}
