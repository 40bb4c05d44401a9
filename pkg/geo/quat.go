package geo

import (
	"encoding/json"
	"fmt"
	"math"
)

// Quat is a rotation quaternion. It serializes as [x, y, z, w].
type Quat struct {
	X, Y, Z, W float64
}

// IdentityQuat is the zero rotation.
var IdentityQuat = Quat{W: 1}

// YawQuat returns the rotation of angle radians around the Y axis.
func YawQuat(angle float64) Quat {
	return Quat{Y: math.Sin(angle / 2), W: math.Cos(angle / 2)}
}

// Mul returns the Hamilton product q * r.
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}
}

// Conjugate returns the inverse of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Normalize returns q scaled to unit length. The zero quaternion maps to identity.
func (q Quat) Normalize() Quat {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n < 1e-12 {
		return IdentityQuat
	}
	return Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

// Rotate applies q to the vector v.
func (q Quat) Rotate(v Point3) Point3 {
	r := q.Mul(Quat{X: v.X, Y: v.Y, Z: v.Z}).Mul(q.Conjugate())
	return Point3{X: r.X, Y: r.Y, Z: r.Z}
}

// Yaw returns the heading angle of a yaw-only rotation.
func (q Quat) Yaw() float64 {
	return 2 * math.Atan2(q.Y, q.W)
}

// Array returns the components as [x, y, z, w].
func (q Quat) Array() [4]float64 {
	return [4]float64{q.X, q.Y, q.Z, q.W}
}

// MarshalJSON encodes q as [x, y, z, w].
func (q Quat) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Array())
}

// UnmarshalJSON decodes a [x, y, z, w] array.
func (q *Quat) UnmarshalJSON(data []byte) error {
	var a [4]float64
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decoding quaternion: %w", err)
	}
	*q = Quat{X: a[0], Y: a[1], Z: a[2], W: a[3]}
	return nil
}
