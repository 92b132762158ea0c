package orientation

import (
	"errors"
	"math"
)

// referenceAxis is the forward direction used to reduce an orientation
// to a point on the unit sphere (orthodromic distance, angular velocity).
var referenceAxis = Vector3{X: 1}

// ErrZeroNorm is returned when an operation requires a non-zero norm
// (normalizing a zero quaternion, building a rotation from a zero axis).
var ErrZeroNorm = errors.New("orientation: zero norm")

// ErrZeroDeltaT is returned by AverageAngularVelocity when the two
// orientation samples carry the same timestamp.
var ErrZeroDeltaT = errors.New("orientation: zero deltaT")

// Quaternion is a general quaternion w + x·i + y·j + z·k with scalar
// part W and vector part V. All methods are pure and return new values.
// For rotations, use UnitQuaternion, which guarantees normalization by
// construction.
type Quaternion struct {
	W float64
	V Vector3
}

// New builds a quaternion from its scalar and vector parts.
func New(w float64, v Vector3) Quaternion {
	return Quaternion{W: w, V: v}
}

// NewComponents builds a quaternion from its four components.
func NewComponents(w, x, y, z float64) Quaternion {
	return Quaternion{W: w, V: Vector3{X: x, Y: y, Z: z}}
}

// FromScalar builds a pure-real quaternion (w, 0, 0, 0).
func FromScalar(w float64) Quaternion {
	return Quaternion{W: w}
}

// FromVector builds a pure-imaginary quaternion (0, v); pure
// quaternions represent 3D directions.
func FromVector(v Vector3) Quaternion {
	return Quaternion{V: v}
}

func (q Quaternion) Add(o Quaternion) Quaternion {
	return Quaternion{W: q.W + o.W, V: q.V.Add(o.V)}
}

func (q Quaternion) Sub(o Quaternion) Quaternion {
	return Quaternion{W: q.W - o.W, V: q.V.Sub(o.V)}
}

func (q Quaternion) Neg() Quaternion {
	return Quaternion{W: -q.W, V: q.V.Neg()}
}

// Mul is the Hamilton product q·o.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		W: q.W*o.W - q.V.Dot(o.V),
		V: o.V.Scale(q.W).Add(q.V.Scale(o.W)).Add(q.V.Cross(o.V)),
	}
}

// MulVec multiplies q by v treated as a pure quaternion.
func (q Quaternion) MulVec(v Vector3) Quaternion {
	return q.Mul(FromVector(v))
}

func (q Quaternion) Scale(s float64) Quaternion {
	return Quaternion{W: q.W * s, V: q.V.Scale(s)}
}

func (q Quaternion) Div(s float64) Quaternion {
	return Quaternion{W: q.W / s, V: q.V.Scale(1.0 / s)}
}

func (q Quaternion) Dot(o Quaternion) float64 {
	return q.W*o.W + q.V.Dot(o.V)
}

func (q Quaternion) NormSquared() float64 {
	return q.Dot(q)
}

func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.NormSquared())
}

// IsPure reports whether q has no real part (represents a direction).
func (q Quaternion) IsPure() bool {
	return q.W == 0
}

// Conj returns the conjugate (w, -v).
func (q Quaternion) Conj() Quaternion {
	return Quaternion{W: q.W, V: q.V.Neg()}
}

// Inv returns the multiplicative inverse conj(q)/‖q‖². For unit
// quaternions UnitQuaternion.Inv avoids the division.
func (q Quaternion) Inv() Quaternion {
	return q.Conj().Div(q.NormSquared())
}

// Rotation applies q as a rotation to v using the norm-corrected path
// q·v·conj(q) / ‖q‖², valid for any non-zero quaternion.
func (q Quaternion) Rotation(v Vector3) Vector3 {
	return q.MulVec(v).Mul(q.Conj()).Div(q.NormSquared()).V
}

// Normalized returns q scaled to unit norm as a UnitQuaternion.
// Returns ErrZeroNorm for the zero quaternion.
func (q Quaternion) Normalized() (UnitQuaternion, error) {
	n := q.Norm()
	if n == 0 {
		return UnitQuaternion{}, ErrZeroNorm
	}
	return UnitQuaternion{q: q.Div(n)}, nil
}

// Exp is the quaternion exponential. When the vector part is zero it is
// passed through unchanged, so Exp stays total.
func Exp(q Quaternion) Quaternion {
	vn := q.V.Norm()
	v := q.V
	if vn != 0 {
		v = q.V.Scale(math.Sin(vn) / vn)
	}
	return Quaternion{W: math.Cos(vn) * math.Exp(q.W), V: v}
}

// Log is the quaternion logarithm. When the vector part (or the whole
// quaternion) has zero norm, the vector part is passed through
// unchanged rather than failing.
func Log(q Quaternion) Quaternion {
	n := q.Norm()
	vn := q.V.Norm()
	v := q.V
	if vn != 0 && n != 0 {
		v = q.V.Scale(math.Acos(q.W/n) / vn)
	}
	return Quaternion{W: math.Log(n), V: v}
}

// Pow raises q to the fractional power k via Exp(Log(q)·k).
func Pow(q Quaternion, k float64) Quaternion {
	return Exp(Log(q).Scale(k))
}

// Distance is the Euclidean norm of q2 - q1 in quaternion space.
func Distance(q1, q2 Quaternion) float64 {
	return q2.Sub(q1).Norm()
}

// UnitQuaternion is a quaternion of norm 1, the only kind usable as a
// rotation. Normalization is guaranteed by construction; rotation
// always takes the fast q·v·conj(q) path. The zero value is not a
// valid rotation, use Identity or one of the constructors.
type UnitQuaternion struct {
	q Quaternion
}

// Identity returns the identity rotation (1, 0, 0, 0).
func Identity() UnitQuaternion {
	return UnitQuaternion{q: FromScalar(1)}
}

// FromEuler builds the unit quaternion for the given Euler angles in
// radians (yaw about Z, pitch about Y, roll about X) from half-angle
// products, then normalizes.
func FromEuler(yaw, pitch, roll float64) UnitQuaternion {
	t0 := math.Cos(yaw * 0.5)
	t1 := math.Sin(yaw * 0.5)
	t2 := math.Cos(roll * 0.5)
	t3 := math.Sin(roll * 0.5)
	t4 := math.Cos(pitch * 0.5)
	t5 := math.Sin(pitch * 0.5)

	q := NewComponents(
		t0*t2*t4+t1*t3*t5,
		t0*t3*t4-t1*t2*t5,
		t0*t2*t5+t1*t3*t4,
		t1*t2*t4-t0*t3*t5,
	)
	u, _ := q.Normalized() // norm is 1 up to rounding, never zero
	return u
}

// FromAngleAxis builds the rotation of theta radians around axis. The
// axis is normalized internally; a zero axis returns ErrZeroNorm.
func FromAngleAxis(theta float64, axis Vector3) (UnitQuaternion, error) {
	if axis.NormSquared() == 0 {
		return UnitQuaternion{}, ErrZeroNorm
	}
	u := axis.Normalized()
	return UnitQuaternion{q: New(math.Cos(theta/2), u.Scale(math.Sin(theta/2)))}, nil
}

// Quaternion returns u as a general quaternion.
func (u UnitQuaternion) Quaternion() Quaternion { return u.q }

// W returns the scalar part.
func (u UnitQuaternion) W() float64 { return u.q.W }

// V returns the vector part.
func (u UnitQuaternion) V() Vector3 { return u.q.V }

// Mul composes two rotations; the product of unit quaternions is unit.
func (u UnitQuaternion) Mul(o UnitQuaternion) UnitQuaternion {
	return UnitQuaternion{q: u.q.Mul(o.q)}
}

// Conj returns the conjugate, which for a unit quaternion is also the
// inverse rotation.
func (u UnitQuaternion) Conj() UnitQuaternion {
	return UnitQuaternion{q: u.q.Conj()}
}

// Inv returns the inverse rotation (the conjugate, since ‖u‖ = 1).
func (u UnitQuaternion) Inv() UnitQuaternion {
	return u.Conj()
}

// Neg returns -u, which represents the same rotation (double cover).
func (u UnitQuaternion) Neg() UnitQuaternion {
	return UnitQuaternion{q: u.q.Neg()}
}

func (u UnitQuaternion) Dot(o UnitQuaternion) float64 {
	return u.q.Dot(o.q)
}

// Rotation rotates v by u using the unit fast path u·v·conj(u).
func (u UnitQuaternion) Rotation(v Vector3) Vector3 {
	return u.q.MulVec(v).Mul(u.q.Conj()).V
}

// ToEuler decomposes u into Euler angles (roll, pitch, yaw) in radians
// using the standard atan2/asin form. At the gimbal-lock boundary,
// where rounding can push the pitch sine outside [-1, 1], the pitch is
// clamped to ±pi/2 with the sign preserved instead of failing.
func (u UnitQuaternion) ToEuler() (roll, pitch, yaw float64) {
	w, v := u.q.W, u.q.V

	sinr := 2.0 * (w*v.X + v.Y*v.Z)
	cosr := 1.0 - 2.0*(v.X*v.X+v.Y*v.Y)
	roll = math.Atan2(sinr, cosr)

	sinp := 2.0 * (w*v.Y - v.Z*v.X)
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	siny := 2.0 * (w*v.Z + v.X*v.Y)
	cosy := 1.0 - 2.0*(v.Y*v.Y+v.Z*v.Z)
	yaw = math.Atan2(siny, cosy)

	return roll, pitch, yaw
}

// SLERP interpolates from q1 (k=0) to q2 (k=1) along the shortest arc
// of the 4D unit hypersphere. When q1·q2 < 0, q2 is negated first so
// the interpolation does not take the long way around.
func SLERP(q1, q2 UnitQuaternion, k float64) UnitQuaternion {
	b := q2.q
	if q1.q.Dot(b) < 0 {
		b = b.Neg()
	}
	return UnitQuaternion{q: q1.q.Mul(Pow(q1.q.Conj().Mul(b), k))}
}

// OrthodromicDistance is the angular distance in radians between the
// directions obtained by rotating the reference axis by q1 and q2.
// The atan2 form is robust near both 0 and pi.
func OrthodromicDistance(q1, q2 UnitQuaternion) float64 {
	p1 := FromVector(q1.Rotation(referenceAxis))
	p2 := FromVector(q2.Rotation(referenceAxis))
	// p1 and p2 are pure, so -p.W is their dot product and p.V their
	// cross product.
	p := p1.Mul(p2)
	return math.Atan2(p.V.Norm(), -p.W)
}

// AverageAngularVelocity estimates the angular velocity vector (rad/s)
// between two orientation samples deltaT seconds apart. Non-pure
// inputs are normalized if needed and projected to directions through
// the reference axis; q2 is negated first when q1·q2 < 0 to undo the
// quaternion double cover. deltaT must be non-zero.
func AverageAngularVelocity(q1, q2 Quaternion, deltaT float64) (Vector3, error) {
	if deltaT == 0 {
		return Vector3{}, ErrZeroDeltaT
	}
	if q1.Dot(q2) < 0 {
		q2 = q2.Neg()
	}
	var err error
	if q1, err = toDirection(q1); err != nil {
		return Vector3{}, err
	}
	if q2, err = toDirection(q2); err != nil {
		return Vector3{}, err
	}
	deltaQ := q2.Sub(q1)
	w := deltaQ.Scale(2.0 / deltaT).Mul(q1.Inv())
	return w.V, nil
}

// toDirection reduces an orientation to the pure quaternion of the
// direction it maps the reference axis to. Pure inputs pass through.
func toDirection(q Quaternion) (Quaternion, error) {
	if q.IsPure() {
		return q, nil
	}
	u, err := q.Normalized()
	if err != nil {
		return Quaternion{}, err
	}
	return FromVector(u.Rotation(referenceAxis)), nil
}
