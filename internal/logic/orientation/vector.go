package orientation

import "math"

// Vector3 is a Cartesian 3D vector. All methods are pure and return
// new values; Vector3 is meant to be passed by value.
type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vector3) Neg() Vector3 {
	return Vector3{-v.X, -v.Y, -v.Z}
}

func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the vector product v × o.
func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vector3) NormSquared() float64 {
	return v.Dot(v)
}

func (v Vector3) Norm() float64 {
	return math.Sqrt(v.NormSquared())
}

// Normalized returns the unit vector with the same direction as v.
// The norm must be non-zero; normalizing the zero vector yields NaN
// components, the caller must guard.
func (v Vector3) Normalized() Vector3 {
	return v.Scale(1.0 / v.Norm())
}

// Spherical is the spherical view of a Cartesian vector: Theta is the
// azimuthal angle in (-pi, pi], Phi the polar angle from the Z axis in
// [0, pi].
type Spherical struct {
	R     float64
	Theta float64
	Phi   float64
}

// Spherical converts v to spherical coordinates. The polar ratio is
// clamped to [-1, 1] so rounding on near-pole vectors cannot push
// Acos out of its domain.
func (v Vector3) Spherical() Spherical {
	r := v.Norm()
	c := v.Z / r
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return Spherical{
		R:     r,
		Theta: math.Atan2(v.Y, v.X),
		Phi:   math.Acos(c),
	}
}
