package rocketsim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"
)

// Environment is the launch site and the conditions of the day.
type Environment struct {
	Platform           Geodetic // degrees and meters
	SurfaceTemperature float64  // measured at the platform, °C
	Epoch              time.Time
	Elevation          float64 // launcher elevation above the horizon, degrees
	Azimuth            float64 // launcher compass azimuth, degrees
}

// Validate returns an error if the environment is not usable.
func (e Environment) Validate() error {
	switch {
	case math.Abs(e.Platform.Latitude) > 90:
		return &ConfigError{Field: "environment.latitude", Reason: fmt.Sprintf("%g outside [-90, 90]", e.Platform.Latitude)}
	case math.Abs(e.Platform.Longitude) > 180:
		return &ConfigError{Field: "environment.longitude", Reason: fmt.Sprintf("%g outside [-180, 180]", e.Platform.Longitude)}
	case e.Elevation < 0 || e.Elevation > 90:
		return &ConfigError{Field: "environment.elevation", Reason: fmt.Sprintf("%g outside [0, 90]", e.Elevation)}
	case e.SurfaceTemperature <= -273.15:
		return &ConfigError{Field: "environment.temperature", Reason: "below absolute zero"}
	case e.Epoch.IsZero():
		return &ConfigError{Field: "environment.epoch", Reason: "missing"}
	}
	return nil
}

// Scenario is everything needed to fly a rocket once.
type Scenario struct {
	Rocket      RocketConfig
	Engine      ThrustSource
	Environment Environment
	Simulation  SimulationConfig
}

// Result is the outcome of a flight.
type Result struct {
	History History
	Outcome Outcome
	Steps   uint64
	Err     error // numerical failure or cancellation, nil otherwise
}

// Flight integrates the trajectory of a rocket. It implements ode.Integrable.
// A Flight is not safe for concurrent use, but independent flights share no state.
type Flight struct {
	ctx    context.Context
	rocket *Rocket
	env    Environment
	cfg    SimulationConfig
	atm    Atmosphere
	planet *Planet
	logger kitlog.Logger

	t            float64
	steps        uint64
	state        StateVector
	kin          Kinematics
	loads        Loads
	J, Jinv      *mat64.Dense
	history      History
	outcome      Outcome
	err          error
	prevAltitude float64
	burnedOut    bool
}

// NewFlight validates a scenario and returns the Flight on its launcher.
func NewFlight(ctx context.Context, s Scenario, logger kitlog.Logger) (*Flight, error) {
	if err := s.Environment.Validate(); err != nil {
		return nil, err
	}
	if err := s.Simulation.Validate(); err != nil {
		return nil, err
	}
	r, err := NewRocket(s.Rocket, s.Engine)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	f := &Flight{
		ctx:    ctx,
		rocket: r,
		env:    s.Environment,
		cfg:    s.Simulation,
		atm:    NewAtmosphere(s.Environment.SurfaceTemperature),
		planet: NewPlanetAt(JulianDayFromTime(s.Environment.Epoch)),
		logger: kitlog.With(logger, "rocket", s.Rocket.Name),
	}
	if x, ok := s.Engine.(*ExperimentalThrust); ok && x.isp > 0 {
		if dev := x.ImpulseDeviation(x.isp); dev > maxImpulseDeviation {
			f.logger.Log("level", "warning", "subsys", "prop", "status", "thrust curve impulse mismatch", "impulse(N.s)", x.TotalImpulse(), "deviation(%)", 100*dev)
		}
	}
	f.state = StateVector{
		Position:        []float64{0, 0, s.Simulation.LaunchHeight},
		Velocity:        []float64{0, 0, 0},
		Attitude:        AttitudeFromLaunch(s.Environment.Elevation, s.Environment.Azimuth),
		AngularVelocity: []float64{0, 0, 0},
		Mass:            r.Mass(0),
	}
	f.prevAltitude = f.state.Position[2]
	f.history = make(History, 0, min(s.Simulation.steps()+1, 1<<16))
	if err := f.prepare(); err != nil {
		return nil, err
	}
	return f, nil
}

// Run flies the rocket until a termination condition, a numerical failure or
// the cancellation of the context.
func (f *Flight) Run() Result {
	f.logger.Log("level", "info", "subsys", "flight", "status", "ignition", "epoch", f.env.Epoch, "elevation", f.env.Elevation, "azimuth", f.env.Azimuth, "gmst(deg)", Rad2deg(f.planet.GMST()), "mass(kg)", f.state.Mass)
	if f.outcome == Flying {
		ode.NewRK4(0, f.cfg.Step, f).Solve() // Blocking.
	}
	apogee := f.history.Apogee()
	lvl := "notice"
	if f.err != nil {
		lvl = "critical"
	}
	f.logger.Log("level", lvl, "subsys", "flight", "status", "finished", "outcome", f.outcome, "t(s)", f.t, "steps", f.steps, "apogee(m)", apogee.Altitude(), "range(m)", f.kin.Range, "err", f.err)
	return Result{History: f.history, Outcome: f.outcome, Steps: f.steps, Err: f.err}
}

// Simulate flies a scenario. Configuration errors are returned before any step
// is taken, and numerical failures are returned alongside the partial result.
func Simulate(ctx context.Context, s Scenario, logger kitlog.Logger) (Result, error) {
	f, err := NewFlight(ctx, s, logger)
	if err != nil {
		return Result{}, err
	}
	res := f.Run()
	return res, res.Err
}

// Outcome returns the current outcome of the flight.
func (f *Flight) Outcome() Outcome {
	return f.outcome
}

// History returns the snapshots recorded so far.
func (f *Flight) History() History {
	return f.history
}

// abort stops the flight on a numerical failure.
func (f *Flight) abort(quantity string, value []float64, err error) error {
	f.err = &FlightError{Time: f.t, Quantity: quantity, Value: value, Wrapped: err}
	f.outcome = Aborted
	f.logger.Log("level", "critical", "subsys", "flight", "t(s)", f.t, "err", f.err)
	return f.err
}

// prepare derives the kinematics and loads of the current state, which are then
// held constant over the next step, and records its snapshot.
func (f *Flight) prepare() error {
	f.kin = NewKinematics(f.state, f.env.Platform, f.planet.GMST())
	f.loads = f.rocket.Loads(f.t, f.state, f.kin, f.atm)
	l := f.loads
	if !finite(l.ForceENU) || !finite(l.TorqueBody) || !finite(l.GravityENU) {
		return f.abort("force", l.ForceENU, ErrNonFinite)
	}
	if Norm(l.ForceBody) > f.cfg.MaxForce {
		return f.abort("force", l.ForceBody, ErrForceCeiling)
	}
	var err error
	if f.J, f.Jinv, err = inertiaMatrices(l.MassProperties); err != nil {
		return f.abort("inertia", l.MassProperties.Inertia, err)
	}
	f.history = append(f.history, newSnapshot(f.t, f.env.Epoch, f.state, f.kin, l))
	return nil
}

// GetState returns the packed state for the integrator.
func (f *Flight) GetState() []float64 {
	return f.state.Vector()
}

// SetState sets the state propagated by one step.
func (f *Flight) SetState(t float64, s []float64) {
	if f.outcome != Flying {
		return
	}
	f.steps++
	f.t = float64(f.steps) * f.cfg.Step
	if !finite(s) {
		f.abort("state", s, ErrNonFinite)
		return
	}
	q, ok := QNormalize(s[6:10])
	if !ok {
		f.abort("attitude", s[6:10], ErrZeroQuaternion)
		return
	}
	x := NewStateVector(s)
	x.Attitude = q
	x.Mass = f.rocket.Mass(f.t)
	f.state = x
	if !f.burnedOut && f.t >= f.rocket.Engine.BurnTime() {
		f.burnedOut = true
		f.logger.Log("level", "info", "subsys", "prop", "status", "burnout", "t(s)", f.t, "mass(kg)", x.Mass, "speed(m/s)", Norm(x.Velocity), "altitude(m)", x.Position[2])
	}
	f.planet.Update(f.cfg.Step)
	if f.prepare() != nil {
		return
	}
	altitude := f.kin.Altitude
	f.outcome = f.cfg.termination(f.t, altitude, f.prevAltitude, f.kin.Range)
	if f.outcome == Flying && f.steps >= f.cfg.steps() {
		f.outcome = TimeLimit
	}
	f.prevAltitude = altitude
}

// Stop returns whether the integration must stop.
func (f *Flight) Stop(t float64) bool {
	if f.outcome != Flying {
		return true
	}
	if err := f.ctx.Err(); err != nil {
		f.outcome = Canceled
		f.err = err
		f.logger.Log("level", "warning", "subsys", "flight", "status", "canceled", "t(s)", f.t)
		return true
	}
	return false
}

// Func returns the derivative of the state under the loads of the current step.
func (f *Flight) Func(t float64, x []float64) []float64 {
	return Derivatives(x, f.loads, f.J, f.Jinv)
}
