package rocketsim

import (
	"fmt"
	"math"
	"sort"

	"github.com/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/interp"
)

const (
	// kgf2N converts kilogram-force to Newtons.
	kgf2N = 9.80665
	// kgfThreshold is the peak value under which a thrust table is assumed to be in kgf.
	kgfThreshold = 1000.0
	// ignitionRamp is the duration of the ignition and shutdown transients of a MomentumThrust.
	ignitionRamp = 0.1
	shapeSamples = 2000
	// maxImpulseDeviation is the relative difference between the impulse of a thrust
	// curve and the one expected from its propellant above which the curve is suspicious.
	maxImpulseDeviation = 0.2
)

// EngineOutput is the performance of an engine at an instant.
type EngineOutput struct {
	Thrust       float64 // N
	MassFlux     float64 // kg/s
	ExitVelocity float64 // m/s
	ExitPressure float64 // Pa
}

// ThrustSource is a solid rocket motor model. Its output depends only on the time
// since ignition and the ambient pressure, and is zero outside [0, BurnTime()].
type ThrustSource interface {
	Evaluate(t, pAmb float64) EngineOutput
	BurnTime() float64
	PropellantMass() float64
	Consumed(t float64) float64 // propellant mass burnt since ignition
	MaxThrust() float64
}

// MomentumThrust is a motor of constant nominal mass flux, with linear ignition and
// shutdown transients, whose thrust includes the nozzle pressure term.
type MomentumThrust struct {
	burnTime, massFlux, gasSpeed, exitPressure, exitArea float64
}

// NewMomentumThrust returns a MomentumThrust. The exit diameter is in meters.
func NewMomentumThrust(burnTime, massFlux, gasSpeed, exitPressure, exitDiameter float64) (*MomentumThrust, error) {
	switch {
	case burnTime < 2*ignitionRamp:
		return nil, &ConfigError{Field: "engine.burn_time", Reason: fmt.Sprintf("must be at least %g s", 2*ignitionRamp)}
	case !(massFlux > 0):
		return nil, &ConfigError{Field: "engine.mass_flux", Reason: "must be positive"}
	case !(gasSpeed > 0):
		return nil, &ConfigError{Field: "engine.gas_speed", Reason: "must be positive"}
	case exitPressure < 0 || exitDiameter < 0:
		return nil, &ConfigError{Field: "engine.exit_pressure", Reason: "nozzle exit must not be negative"}
	}
	return &MomentumThrust{burnTime, massFlux, gasSpeed, exitPressure, math.Pi * exitDiameter * exitDiameter / 4}, nil
}

// ramp returns the throttle of the motor at t.
func (e *MomentumThrust) ramp(t float64) float64 {
	return math.Min(1, math.Min(t, e.burnTime-t)/ignitionRamp)
}

// Evaluate implements the ThrustSource interface.
func (e *MomentumThrust) Evaluate(t, pAmb float64) EngineOutput {
	if t <= 0 || t >= e.burnTime {
		return EngineOutput{}
	}
	ṁ := e.massFlux * e.ramp(t)
	thrust := math.Max(0, ṁ*e.gasSpeed+(e.exitPressure-pAmb)*e.exitArea)
	return EngineOutput{Thrust: thrust, MassFlux: ṁ, ExitVelocity: e.gasSpeed, ExitPressure: e.exitPressure}
}

// BurnTime implements the ThrustSource interface.
func (e *MomentumThrust) BurnTime() float64 { return e.burnTime }

// PropellantMass implements the ThrustSource interface.
func (e *MomentumThrust) PropellantMass() float64 {
	return e.massFlux * (e.burnTime - ignitionRamp)
}

// MaxThrust implements the ThrustSource interface, at vacuum.
func (e *MomentumThrust) MaxThrust() float64 {
	return e.massFlux*e.gasSpeed + e.exitPressure*e.exitArea
}

// Consumed implements the ThrustSource interface.
func (e *MomentumThrust) Consumed(t float64) float64 {
	τ, tb := ignitionRamp, e.burnTime
	switch {
	case t <= 0:
		return 0
	case t < τ:
		return e.massFlux * t * t / (2 * τ)
	case t <= tb-τ:
		return e.massFlux * (t - τ/2)
	case t < tb:
		return e.PropellantMass() - e.massFlux*(tb-t)*(tb-t)/(2*τ)
	}
	return e.PropellantMass()
}

// smoothstep is the cubic ease 3x²-2x³ clamped on [0, 1].
func smoothstep(x float64) float64 {
	x = math.Max(0, math.Min(1, x))
	return x * x * (3 - 2*x)
}

// thrustShape is the normalized thrust profile of a solid motor over the
// normalized burn time x in [0, 1].
func thrustShape(x float64) float64 {
	switch {
	case x < 0 || x > 1:
		return 0
	case x < 0.05: // ignition
		return smoothstep(x / 0.05)
	case x < 0.85: // sustain, regressive with combustion oscillations
		y := (x - 0.05) / 0.8
		return (1 - 0.1*y) * (1 + 0.02*math.Sin(16*math.Pi*y))
	case x < 0.95: // burnout of the web
		return 0.9 - 0.6*smoothstep((x-0.85)/0.1)
	default: // tail-off
		y := (x - 0.95) / 0.05
		return 0.3 * (1 - y) * (1 - y)
	}
}

// AnalyticalThrust is a motor following a smooth thrust profile scaled to a mean thrust.
type AnalyticalThrust struct {
	burnTime, propellant, meanThrust, exitPressure float64
	k                                              float64 // thrust per unit of shape
	maxShape                                       float64
	consumed                                       interp.PiecewiseLinear // normalized integral of the shape
}

// NewAnalyticalThrust returns an AnalyticalThrust whose average thrust over the burn is
// meanThrust. If meanThrust is zero, it is derived from the specific impulse.
func NewAnalyticalThrust(burnTime, propellantMass, isp, meanThrust, exitPressure float64) (*AnalyticalThrust, error) {
	switch {
	case !(burnTime > 0):
		return nil, &ConfigError{Field: "engine.burn_time", Reason: "must be positive"}
	case !(propellantMass > 0):
		return nil, &ConfigError{Field: "engine.propellant_mass", Reason: "must be positive"}
	case meanThrust < 0:
		return nil, &ConfigError{Field: "engine.mean_thrust", Reason: "must not be negative"}
	case meanThrust == 0 && !(isp > 0):
		return nil, &ConfigError{Field: "engine.isp", Reason: "required without a mean thrust"}
	}
	if meanThrust == 0 {
		meanThrust = isp * kgf2N * propellantMass / burnTime
	}
	e := &AnalyticalThrust{burnTime: burnTime, propellant: propellantMass, meanThrust: meanThrust, exitPressure: exitPressure}
	xs := make([]float64, shapeSamples+1)
	shape := make([]float64, shapeSamples+1)
	for i := range xs {
		xs[i] = float64(i) / shapeSamples
		shape[i] = thrustShape(xs[i])
	}
	e.maxShape = floats.Max(shape)
	cumulative := make([]float64, len(xs))
	for i := 1; i < len(xs); i++ {
		cumulative[i] = cumulative[i-1] + integrate.Trapezoidal(xs[i-1:i+1], shape[i-1:i+1])
	}
	area := cumulative[shapeSamples]
	floats.Scale(1/area, cumulative)
	if err := e.consumed.Fit(xs, cumulative); err != nil {
		return nil, fmt.Errorf("rocketsim: thrust shape: %w", err)
	}
	e.k = meanThrust / area
	return e, nil
}

// Evaluate implements the ThrustSource interface. The thrust is the delivered
// thrust and does not depend on the ambient pressure.
func (e *AnalyticalThrust) Evaluate(t, pAmb float64) EngineOutput {
	if t < 0 || t > e.burnTime {
		return EngineOutput{}
	}
	thrust := e.k * thrustShape(t/e.burnTime)
	ve := e.meanThrust * e.burnTime / e.propellant
	return EngineOutput{Thrust: thrust, MassFlux: thrust / ve, ExitVelocity: ve, ExitPressure: e.exitPressure}
}

// BurnTime implements the ThrustSource interface.
func (e *AnalyticalThrust) BurnTime() float64 { return e.burnTime }

// PropellantMass implements the ThrustSource interface.
func (e *AnalyticalThrust) PropellantMass() float64 { return e.propellant }

// MeanThrust returns the average thrust over the burn.
func (e *AnalyticalThrust) MeanThrust() float64 { return e.meanThrust }

// MaxThrust implements the ThrustSource interface.
func (e *AnalyticalThrust) MaxThrust() float64 { return e.k * e.maxShape }

// Consumed implements the ThrustSource interface.
func (e *AnalyticalThrust) Consumed(t float64) float64 {
	x := t / e.burnTime
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return e.propellant
	}
	return e.propellant * e.consumed.Predict(x)
}

// ExperimentalThrust is a motor whose thrust is interpolated from a measured curve.
type ExperimentalThrust struct {
	time, thrust, impulse []float64
	curve                 interp.PiecewiseLinear
	propellant            float64
	isp                   float64 // expected specific impulse, zero if unknown
}

// NewExperimentalThrust returns an ExperimentalThrust from a thrust curve. The
// times are shifted so that the curve starts at zero, and a curve peaking below
// 1000 is assumed to be in kilogram-force.
func NewExperimentalThrust(times, thrusts []float64, propellantMass float64) (*ExperimentalThrust, error) {
	if len(times) != len(thrusts) {
		return nil, &ConfigError{Field: "engine.thrust_curve", Reason: fmt.Sprintf("%d times for %d thrust values", len(times), len(thrusts))}
	}
	if len(times) < 2 {
		return nil, &ConfigError{Field: "engine.thrust_curve", Reason: "needs at least two points"}
	}
	if !(propellantMass > 0) {
		return nil, &ConfigError{Field: "engine.propellant_mass", Reason: "must be positive"}
	}
	e := &ExperimentalThrust{time: make([]float64, len(times)), thrust: make([]float64, len(times)), impulse: make([]float64, len(times)), propellant: propellantMass}
	var peak float64
	for _, T := range thrusts {
		peak = math.Max(peak, math.Abs(T))
	}
	unit := 1.0
	if peak < kgfThreshold {
		unit = kgf2N
	}
	for i := range times {
		e.time[i] = times[i] - times[0]
		if i > 0 && !(e.time[i] > e.time[i-1]) {
			return nil, &ConfigError{Field: "engine.thrust_curve", Reason: fmt.Sprintf("times must be increasing (row %d)", i)}
		}
		e.thrust[i] = math.Max(0, thrusts[i]*unit)
		if i > 0 {
			e.impulse[i] = e.impulse[i-1] + integrate.Trapezoidal(e.time[i-1:i+1], e.thrust[i-1:i+1])
		}
	}
	if e.TotalImpulse() == 0 {
		return nil, &ConfigError{Field: "engine.thrust_curve", Reason: "zero total impulse"}
	}
	if err := e.curve.Fit(e.time, e.thrust); err != nil {
		return nil, &ConfigError{Field: "engine.thrust_curve", Reason: err.Error()}
	}
	return e, nil
}

// TotalImpulse returns the integral of the thrust curve in N.s.
func (e *ExperimentalThrust) TotalImpulse() float64 {
	return e.impulse[len(e.impulse)-1]
}

// ImpulseDeviation returns the relative difference between the total impulse of
// the curve and the one expected from the propellant mass and specific impulse.
func (e *ExperimentalThrust) ImpulseDeviation(isp float64) float64 {
	exp := e.propellant * isp * kgf2N
	return math.Abs(e.TotalImpulse()-exp) / exp
}

// Evaluate implements the ThrustSource interface.
func (e *ExperimentalThrust) Evaluate(t, pAmb float64) EngineOutput {
	if t < 0 || t > e.BurnTime() {
		return EngineOutput{}
	}
	thrust := e.curve.Predict(t)
	ve := e.TotalImpulse() / e.propellant
	return EngineOutput{Thrust: thrust, MassFlux: thrust / ve, ExitVelocity: ve, ExitPressure: pAmb}
}

// BurnTime implements the ThrustSource interface.
func (e *ExperimentalThrust) BurnTime() float64 { return e.time[len(e.time)-1] }

// PropellantMass implements the ThrustSource interface.
func (e *ExperimentalThrust) PropellantMass() float64 { return e.propellant }

// MaxThrust implements the ThrustSource interface.
func (e *ExperimentalThrust) MaxThrust() float64 {
	return floats.Max(e.thrust)
}

// Consumed implements the ThrustSource interface.
func (e *ExperimentalThrust) Consumed(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= e.BurnTime():
		return e.propellant
	}
	// time[i-1] < t <= time[i]
	i := sort.SearchFloat64s(e.time, t)
	I := e.impulse[i-1] + integrate.Trapezoidal([]float64{e.time[i-1], t}, []float64{e.thrust[i-1], e.curve.Predict(t)})
	return e.propellant * I / e.TotalImpulse()
}
