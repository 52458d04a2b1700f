package rocketsim

import (
	"fmt"
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	// GravityAcceleration is the magnitude of the gravity acceleration in m/s^2.
	GravityAcceleration = 9.81
)

// MassProperties are the center of mass and the principal moments of inertia of the rocket.
type MassProperties struct {
	CoM     []float64 // from the nose tip along the body x axis, in m
	Inertia []float64 // diagonal of the inertia tensor about the CoM, in kg.m^2
}

func (m MassProperties) validate(name string) error {
	if len(m.CoM) != 3 {
		return &ConfigError{Field: name + ".com", Reason: fmt.Sprintf("need 3 components, got %d", len(m.CoM))}
	}
	if len(m.Inertia) != 3 {
		return &ConfigError{Field: name + ".inertia", Reason: fmt.Sprintf("need 3 components, got %d", len(m.Inertia))}
	}
	for _, I := range m.Inertia {
		if !(I > 0) {
			return &ConfigError{Field: name + ".inertia", Reason: fmt.Sprintf("moments must be positive, got %v", m.Inertia)}
		}
	}
	if !finite(m.CoM) {
		return &ConfigError{Field: name + ".com", Reason: "not finite"}
	}
	return nil
}

// RocketConfig is the immutable description of a rocket.
type RocketConfig struct {
	Name        string
	Geometry    Geometry
	InitialMass float64 // kg, with the full propellant load
	BeforeBurn  MassProperties
	AfterBurn   MassProperties
}

// Validate returns an error if the rocket cannot be flown.
func (c RocketConfig) Validate() error {
	if err := c.Geometry.Validate(); err != nil {
		return err
	}
	if !(c.InitialMass > 0) {
		return &ConfigError{Field: "rocket.initial_mass", Reason: "must be positive"}
	}
	if err := c.BeforeBurn.validate("rocket.before"); err != nil {
		return err
	}
	return c.AfterBurn.validate("rocket.after")
}

// Rocket is a configured rocket with its motor.
type Rocket struct {
	Config RocketConfig
	Aero   *Aerodynamics
	Engine ThrustSource
}

// NewRocket returns a Rocket after validating its configuration.
func NewRocket(cfg RocketConfig, engine ThrustSource) (*Rocket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, &ConfigError{Field: "engine", Reason: "missing"}
	}
	if engine.PropellantMass() >= cfg.InitialMass {
		return nil, &ConfigError{Field: "engine.propellant_mass", Reason: fmt.Sprintf("%g kg propellant exceeds the %g kg rocket", engine.PropellantMass(), cfg.InitialMass)}
	}
	return &Rocket{Config: cfg, Aero: NewAerodynamics(cfg.Geometry), Engine: engine}, nil
}

// Mass returns the mass of the rocket t seconds after ignition.
func (r *Rocket) Mass(t float64) float64 {
	return r.Config.InitialMass - r.Engine.Consumed(t)
}

// MassProperties returns the center of mass and inertia t seconds after ignition.
// They move from their before to after burn values with a cubic ease on the
// burn fraction, and are frozen once the motor burnt out.
func (r *Rocket) MassProperties(t float64) MassProperties {
	x := 1.0
	if tb := r.Engine.BurnTime(); tb > 0 {
		x = smoothstep(t / tb)
	}
	b, a := r.Config.BeforeBurn, r.Config.AfterBurn
	m := MassProperties{CoM: make([]float64, 3), Inertia: make([]float64, 3)}
	for i := 0; i < 3; i++ {
		m.CoM[i] = b.CoM[i] + x*(a.CoM[i]-b.CoM[i])
		m.Inertia[i] = b.Inertia[i] + x*(a.Inertia[i]-b.Inertia[i])
	}
	return m
}

// Loads are the forces and torques acting on the rocket during one step. They
// are computed once from the state at the start of the step.
type Loads struct {
	Atmosphere     AtmosphereConditions
	Mach           float64
	Reynolds       float64
	DynPressure    float64
	Aero           AeroCoefficients
	Engine         EngineOutput
	MassProperties MassProperties
	Drag, Lift     float64
	AeroForce      []float64 // body
	AeroTorque     []float64 // body
	EngineForce    []float64 // body
	ForceBody      []float64 // aerodynamic and engine forces
	ForceENU       []float64
	TorqueBody     []float64
	GravityENU     []float64 // acceleration
	GravityBody    []float64 // acceleration
}

// Loads evaluates the atmosphere, aerodynamics, engine and gravity for the
// state x at t, whose derived kinematics are k.
func (r *Rocket) Loads(t float64, x StateVector, k Kinematics, atm Atmosphere) Loads {
	var l Loads
	// Air
	l.Atmosphere = atm.At(k.Geodetic.Altitude)
	V := Norm(k.VelocityBody)
	l.Mach = V / l.Atmosphere.SpeedOfSound
	l.Reynolds = ReynoldsNumber(l.Atmosphere, V, r.Config.Geometry.Length())
	l.DynPressure = 0.5 * l.Atmosphere.Density * V * V
	l.Aero = r.Aero.Coefficients(Flow{Mach: l.Mach, AoA: k.AoA, Reynolds: l.Reynolds})
	// Engine
	l.Engine = r.Engine.Evaluate(t, l.Atmosphere.Pressure)
	l.MassProperties = r.MassProperties(t)
	// Aerodynamic force and moment about the center of mass
	S := r.Aero.ReferenceArea()
	l.Drag = l.DynPressure * S * l.Aero.Cd
	l.Lift = l.DynPressure * S * l.Aero.Cl
	if floats.EqualWithinAbs(V, 0, 1e-9) {
		l.Drag, l.Lift = 0, 0
	}
	l.AeroForce = []float64{-sign(k.VelocityBody[0]) * l.Drag, 0, l.Lift}
	cm2cp := sub(l.MassProperties.CoM, []float64{l.Aero.Xcp, 0, 0})
	l.AeroTorque = cross(cm2cp, l.AeroForce)
	l.EngineForce = []float64{l.Engine.Thrust, 0, 0}
	// Sums
	l.ForceBody = add(l.AeroForce, l.EngineForce)
	l.TorqueBody = l.AeroTorque
	l.ForceENU = QRot(l.ForceBody, x.Attitude, true)
	// Gravity, towards the center of the Earth
	up := ECEF2ENU(k.Platform, Unit(k.PositionECEF))
	l.GravityENU = scale(-GravityAcceleration, up)
	l.GravityBody = QRot(l.GravityENU, x.Attitude, false)
	return l
}

// OnPad returns whether the rocket is held on its launcher: the magnitude of the
// body forces does not exceed the one of the gravity acceleration and the rocket
// is not moving yet.
func (l Loads) OnPad(vENU []float64) bool {
	return Norm(l.ForceBody) <= Norm(l.GravityBody) && Norm(vENU) < 1
}

// sign returns the sign of a given number.
func sign(v float64) float64 {
	if floats.EqualWithinAbs(v, 0, 1e-12) {
		return 1
	}
	return v / math.Abs(v)
}

// inertiaMatrices returns the inertia tensor and its inverse.
func inertiaMatrices(m MassProperties) (J, Jinv *mat64.Dense, err error) {
	J = Vec2Mat(m.Inertia)
	Jinv = mat64.NewDense(3, 3, nil)
	if err = Jinv.Inverse(J); err != nil {
		return nil, nil, fmt.Errorf("inertia %v: %w", m.Inertia, err)
	}
	return J, Jinv, nil
}

// Derivatives returns the time derivative of the packed state x under the
// loads l, which are held constant over the step.
func Derivatives(x []float64, l Loads, J, Jinv mat64.Matrix) []float64 {
	d := make([]float64, StateSize)
	d[13] = -l.Engine.MassFlux
	v := x[3:6]
	if l.OnPad(v) {
		return d
	}
	m := x[13]
	for i := 0; i < 3; i++ {
		d[i] = v[i]
		d[3+i] = l.ForceENU[i]/m + l.GravityENU[i]
	}
	q := x[6:10]
	ω := x[10:13]
	qDot := MxV(Skew4(ω), q)
	for i := 0; i < 4; i++ {
		d[6+i] = 0.5 * qDot[i]
	}
	// Euler's rotation equations
	ωDot := MxV33(Jinv, sub(l.TorqueBody, cross(ω, MxV33(J, ω))))
	copy(d[10:13], ωDot)
	return d
}
