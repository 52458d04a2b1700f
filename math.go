package rocketsim

import (
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	deg2rad = math.Pi / 180
)

// Norm returns the Euclidean norm of a given vector.
func Norm(v []float64) float64 {
	return floats.Norm(v, 2)
}

// Unit returns the unit vector of a given vector, or the zero vector if its norm is zero.
func Unit(a []float64) (b []float64) {
	b = make([]float64, len(a))
	n := Norm(a)
	if floats.EqualWithinAbs(n, 0, 1e-12) {
		return
	}
	for i, val := range a {
		b[i] = val / n
	}
	return
}

// cross performs the cross product.
func cross(a, b []float64) []float64 {
	return []float64{a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0]}
}

// scale returns s*v as a new slice.
func scale(s float64, v []float64) []float64 {
	o := make([]float64, len(v))
	for i, x := range v {
		o[i] = s * x
	}
	return o
}

// add returns the element-wise sum of the provided vectors.
func add(vs ...[]float64) []float64 {
	o := make([]float64, len(vs[0]))
	for _, v := range vs {
		floats.Add(o, v)
	}
	return o
}

// sub returns a-b.
func sub(a, b []float64) []float64 {
	o := make([]float64, len(a))
	floats.SubTo(o, a, b)
	return o
}

// finite returns whether none of the values is NaN or infinite.
func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Skew3 returns the 3x3 cross-product matrix of v, such that Skew3(v)*u = v x u.
func Skew3(v []float64) *mat64.Dense {
	return mat64.NewDense(3, 3, []float64{
		0, -v[2], v[1],
		v[2], 0, -v[0],
		-v[1], v[0], 0})
}

// Skew4 returns the 4x4 quaternion rate matrix of the angular velocity v, such that
// 0.5*Skew4(ω)*q is the time derivative of a scalar-last quaternion q whose
// angular velocity ω is expressed in the body frame.
func Skew4(v []float64) *mat64.Dense {
	return mat64.NewDense(4, 4, []float64{
		0, v[2], -v[1], v[0],
		-v[2], 0, v[0], v[1],
		v[1], -v[0], 0, v[2],
		-v[0], -v[1], -v[2], 0})
}

// Vec2Mat returns the diagonal matrix whose diagonal is v.
func Vec2Mat(v []float64) *mat64.Dense {
	m := mat64.NewDense(len(v), len(v), nil)
	for i, val := range v {
		m.Set(i, i, val)
	}
	return m
}

// MxV multiplies a square matrix with a vector of the same dimension.
func MxV(m mat64.Matrix, v []float64) []float64 {
	var rVec mat64.Vector
	rVec.MulVec(m, mat64.NewVector(len(v), v))
	o := make([]float64, len(v))
	for i := range o {
		o[i] = rVec.At(i, 0)
	}
	return o
}

// Hamilton returns the quaternion product left ⊗ right, where quaternions are
// stored scalar last as [q1, q2, q3, q4]. The right quaternion is the first
// rotation applied.
func Hamilton(l, r []float64) []float64 {
	return []float64{
		l[3]*r[0] - l[2]*r[1] + l[1]*r[2] + l[0]*r[3],
		l[2]*r[0] + l[3]*r[1] - l[0]*r[2] + l[1]*r[3],
		-l[1]*r[0] + l[0]*r[1] + l[3]*r[2] + l[2]*r[3],
		-l[0]*r[0] - l[1]*r[1] - l[2]*r[2] + l[3]*r[3]}
}

// QConjugate returns the conjugate of q.
func QConjugate(q []float64) []float64 {
	return []float64{-q[0], -q[1], -q[2], q[3]}
}

// QRot rotates the vector v by the quaternion q.
// The forward rotation (inverse=false) computes q*⊗v⊗q, i.e. it expresses a
// reference (ENU) frame vector in the body frame. The inverse rotation computes
// q⊗v⊗q* and brings a body frame vector back to the reference frame.
func QRot(v, q []float64, inverse bool) []float64 {
	vq := []float64{v[0], v[1], v[2], 0}
	var o []float64
	if inverse {
		o = Hamilton(Hamilton(q, vq), QConjugate(q))
	} else {
		o = Hamilton(Hamilton(QConjugate(q), vq), q)
	}
	return o[:3]
}

// QNormalize returns the unit quaternion of q and false if q has a zero norm.
func QNormalize(q []float64) ([]float64, bool) {
	n := Norm(q)
	if n == 0 || math.IsNaN(n) {
		return q, false
	}
	return scale(1/n, q), true
}

// AttitudeFromLaunch returns the initial ENU to body quaternion of a rocket on a
// launcher with the provided elevation above the horizon and compass azimuth
// (clockwise from North), both in degrees. The body x axis points along the rail.
func AttitudeFromLaunch(elevation, azimuth float64) []float64 {
	yaw := Deg2rad(90 - azimuth) // counter-clockwise from East
	pitch := elevation * deg2rad
	sy, cy := math.Sincos(yaw / 2)
	sp, cp := math.Sincos(-pitch / 2)
	qYaw := []float64{0, 0, sy, cy}
	qPitch := []float64{0, sp, 0, cp}
	return Hamilton(qYaw, qPitch)
}

// QuatToEuler returns the ZYX yaw, pitch and roll angles in degrees of the body
// attitude q. Yaw is counter-clockwise from East and pitch is positive nose up.
func QuatToEuler(q []float64) (yaw, pitch, roll float64) {
	x, y, z, w := q[0], q[1], q[2], q[3]
	r11 := 1 - 2*(y*y+z*z)
	r21 := 2 * (x*y + z*w)
	r31 := 2 * (x*z - y*w)
	r32 := 2 * (y*z + x*w)
	r33 := 1 - 2*(x*x+y*y)
	yaw = math.Atan2(r21, r11) / deg2rad
	θ := -math.Asin(math.Max(-1, math.Min(1, r31)))
	pitch = -θ / deg2rad
	roll = math.Atan2(r32, r33) / deg2rad
	return
}

// AngleOfAttack returns the angle of attack in degrees of a body frame velocity.
// The angle is measured in the body x-z plane and is zero for a zero velocity.
func AngleOfAttack(vBody []float64) float64 {
	if floats.EqualWithinAbs(Norm(vBody), 0, 1e-12) {
		return 0
	}
	return -math.Atan2(vBody[2], math.Abs(vBody[0])) / deg2rad
}

// Deg2rad converts an angle in degrees to radians within [0, 2π).
func Deg2rad(a float64) float64 {
	if a = math.Mod(a, 360); a < 0 {
		a += 360
	}
	return a * deg2rad
}

// Rad2deg converts an angle in radians to degrees within [0, 360).
func Rad2deg(a float64) float64 {
	if a = math.Mod(a, 2*math.Pi); a < 0 {
		a += 2 * math.Pi
	}
	return a / deg2rad
}
