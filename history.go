package rocketsim

import (
	"time"
)

// StateSnapshot is the state of the rocket at one instant of the flight, with
// the quantities derived from it.
type StateSnapshot struct {
	Time            float64 // since ignition, s
	Epoch           time.Time
	GMST            float64 // radians
	Position        []float64
	Velocity        []float64
	Attitude        []float64
	AngularVelocity []float64
	Mass            float64

	Yaw, Pitch, Roll float64
	VelocityBody     []float64
	AoA              float64
	Geodetic         Geodetic
	PositionECI      []float64
	Range            float64

	Density, Pressure, SpeedOfSound float64
	Mach, Reynolds                  float64
	Cd, Cl                          float64
	Drag, Lift                      float64
	Thrust, MassFlux                float64
	CoP, CoM                        []float64
	Inertia                         []float64
	AeroForce, AeroTorque           []float64
}

// Altitude returns the height above the platform.
func (s StateSnapshot) Altitude() float64 {
	return s.Position[2]
}

// Speed returns the norm of the ENU velocity.
func (s StateSnapshot) Speed() float64 {
	return Norm(s.Velocity)
}

func newSnapshot(t float64, epoch time.Time, x StateVector, k Kinematics, l Loads) StateSnapshot {
	return StateSnapshot{
		Time:            t,
		Epoch:           epoch.Add(time.Duration(t * float64(time.Second))),
		GMST:            k.GMST,
		Position:        x.Position,
		Velocity:        x.Velocity,
		Attitude:        x.Attitude,
		AngularVelocity: x.AngularVelocity,
		Mass:            x.Mass,
		Yaw:             k.Yaw,
		Pitch:           k.Pitch,
		Roll:            k.Roll,
		VelocityBody:    k.VelocityBody,
		AoA:             l.Aero.AoA,
		Geodetic:        k.Geodetic,
		PositionECI:     k.PositionECI,
		Range:           k.Range,
		Density:         l.Atmosphere.Density,
		Pressure:        l.Atmosphere.Pressure,
		SpeedOfSound:    l.Atmosphere.SpeedOfSound,
		Mach:            l.Mach,
		Reynolds:        l.Reynolds,
		Cd:              l.Aero.Cd,
		Cl:              l.Aero.Cl,
		Drag:            l.Drag,
		Lift:            l.Lift,
		Thrust:          l.Engine.Thrust,
		MassFlux:        l.Engine.MassFlux,
		CoP:             []float64{l.Aero.Xcp, 0, 0},
		CoM:             l.MassProperties.CoM,
		Inertia:         l.MassProperties.Inertia,
		AeroForce:       l.AeroForce,
		AeroTorque:      l.AeroTorque,
	}
}

// History is the ordered sequence of snapshots of a flight, one per step.
type History []StateSnapshot

// Last returns the final snapshot.
func (h History) Last() StateSnapshot {
	return h[len(h)-1]
}

// Apogee returns the snapshot of highest altitude.
func (h History) Apogee() StateSnapshot {
	best := h[0]
	for _, s := range h[1:] {
		if s.Altitude() > best.Altitude() {
			best = s
		}
	}
	return best
}

// MaxMach returns the snapshot of highest Mach number.
func (h History) MaxMach() StateSnapshot {
	best := h[0]
	for _, s := range h[1:] {
		if s.Mach > best.Mach {
			best = s
		}
	}
	return best
}

// LaunchRailExit returns the first snapshot at which the rocket moved the
// provided distance away from its initial position, and false if it never did.
func (h History) LaunchRailExit(railLength float64) (StateSnapshot, bool) {
	for _, s := range h {
		if Norm(sub(s.Position, h[0].Position)) >= railLength {
			return s, true
		}
	}
	return StateSnapshot{}, false
}
