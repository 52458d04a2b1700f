package rocketsim

// StateSize is the number of elements of a packed state vector.
const StateSize = 14

// StateVector is the integrated state of the rocket.
type StateVector struct {
	Position        []float64 // ENU, m
	Velocity        []float64 // ENU, m/s
	Attitude        []float64 // ENU to body quaternion, scalar last
	AngularVelocity []float64 // body, rad/s
	Mass            float64   // kg
}

// NewStateVector unpacks a state vector. The slices do not alias x.
func NewStateVector(x []float64) StateVector {
	c := make([]float64, StateSize)
	copy(c, x)
	return StateVector{Position: c[0:3:3], Velocity: c[3:6:6], Attitude: c[6:10:10], AngularVelocity: c[10:13:13], Mass: c[13]}
}

// Vector packs the state as [r(3), v(3), q(4), ω(3), m].
func (s StateVector) Vector() []float64 {
	x := make([]float64, 0, StateSize)
	x = append(x, s.Position...)
	x = append(x, s.Velocity...)
	x = append(x, s.Attitude...)
	x = append(x, s.AngularVelocity...)
	return append(x, s.Mass)
}

// Kinematics are the quantities derived from a state before its loads are evaluated.
type Kinematics struct {
	Platform         Geodetic
	Yaw, Pitch, Roll float64   // degrees
	VelocityBody     []float64 // m/s
	AoA              float64   // degrees
	PositionECEF     []float64
	PositionECI      []float64
	VelocityECI      []float64
	Geodetic         Geodetic
	Altitude         float64 // above the platform, m
	Range            float64 // horizontal distance from the platform, m
	GMST             float64 // radians
}

// NewKinematics derives the kinematics of the state s for a platform at c and a
// Greenwich sidereal angle gmst in radians.
func NewKinematics(s StateVector, c Geodetic, gmst float64) Kinematics {
	k := Kinematics{Platform: c, GMST: gmst}
	k.Yaw, k.Pitch, k.Roll = QuatToEuler(s.Attitude)
	k.VelocityBody = QRot(s.Velocity, s.Attitude, false)
	k.AoA = AngleOfAttack(k.VelocityBody)
	k.PositionECEF = ENUPosition2ECEF(c, s.Position)
	k.PositionECI = ECEF2ECI(k.PositionECEF, gmst)
	k.VelocityECI = ECEF2ECIVelocity(ENU2ECEF(c, s.Velocity), k.PositionECEF, gmst)
	k.Geodetic = ECEF2GEO(k.PositionECEF)
	k.Altitude = s.Position[2]
	k.Range = GroundRange(s.Position)
	return k
}
