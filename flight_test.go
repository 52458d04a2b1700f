package rocketsim

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/floats"
)

// inertMotor never ignites.
type inertMotor struct{}

func (inertMotor) Evaluate(t, pAmb float64) EngineOutput { return EngineOutput{} }
func (inertMotor) BurnTime() float64                     { return 1 }
func (inertMotor) PropellantMass() float64               { return 0 }
func (inertMotor) Consumed(t float64) float64            { return 0 }
func (inertMotor) MaxThrust() float64                    { return 0 }

func chaffScenario(t *testing.T) Scenario {
	cfg := DefaultSimulationConfig()
	cfg.MaxTime = 6
	return Scenario{
		Rocket: chaffRocket(),
		Engine: chaffMotor(t),
		Environment: Environment{
			Platform:           Geodetic{Latitude: -33.4489, Longitude: -70.6693, Altitude: 520},
			SurfaceTemperature: 22,
			Epoch:              time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC),
			Elevation:          85,
			Azimuth:            45,
		},
		Simulation: cfg,
	}
}

// hopScenario flies a short hop on a weak motor.
func hopScenario(t *testing.T) Scenario {
	s := chaffScenario(t)
	e, err := NewMomentumThrust(0.5, 1, 1000, SeaLevelPressure, 0.02)
	if err != nil {
		t.Fatal(err)
	}
	s.Engine = e
	s.Environment.Elevation = 80
	s.Simulation.MaxTime = 30
	return s
}

func TestFlightPadHold(t *testing.T) {
	s := chaffScenario(t)
	s.Engine = inertMotor{}
	s.Environment.Elevation = 90
	s.Simulation.Step = 0.01
	s.Simulation.MaxTime = 0.01
	s.Simulation.LaunchHeight = 1
	res, err := Simulate(context.Background(), s, kitlog.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != TimeLimit || res.Steps != 1 || len(res.History) != 2 {
		t.Fatalf("outcome=%s steps=%d snapshots=%d", res.Outcome, res.Steps, len(res.History))
	}
	last := res.History.Last()
	if last.Position[2] != 1 || last.Velocity[2] != 0 {
		t.Fatalf("rocket moved on the pad: r=%v v=%v", last.Position, last.Velocity)
	}
	if !floats.EqualWithinAbs(last.Time, 0.01, 1e-15) {
		t.Fatalf("time %f", last.Time)
	}
}

func TestFlightInvariants(t *testing.T) {
	s := chaffScenario(t)
	res, err := Simulate(context.Background(), s, kitlog.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != TimeLimit {
		t.Fatalf("outcome %s", res.Outcome)
	}
	if exp := uint64(6000); res.Steps != exp || len(res.History) != int(exp)+1 {
		t.Fatalf("steps=%d snapshots=%d", res.Steps, len(res.History))
	}
	burn := s.Engine.BurnTime()
	dryMass := s.Rocket.InitialMass - s.Engine.PropellantMass()
	prev := res.History[0]
	for i, snap := range res.History {
		if n := Norm(snap.Attitude); !floats.EqualWithinAbs(n, 1, 1e-9) {
			t.Fatalf("#%d: |q|=%.12f", i, n)
		}
		for _, v := range [][]float64{snap.Position, snap.Velocity, snap.Attitude, snap.AngularVelocity} {
			if !finite(v) {
				t.Fatalf("#%d: non finite state %+v", i, snap)
			}
		}
		if i == 0 {
			continue
		}
		if snap.Mass > prev.Mass {
			t.Fatalf("#%d: mass increased from %f to %f", i, prev.Mass, snap.Mass)
		}
		if snap.Time > burn && snap.Mass != dryMass {
			t.Fatalf("#%d: mass %f after burnout", i, snap.Mass)
		}
		if !floats.EqualWithinAbs(snap.Time-prev.Time, s.Simulation.Step, 1e-9) {
			t.Fatalf("#%d: time went from %f to %f", i, prev.Time, snap.Time)
		}
		if !snap.Epoch.After(prev.Epoch) {
			t.Fatalf("#%d: epoch did not advance", i)
		}
		prev = snap
	}
	last := res.History.Last()
	if last.Altitude() < 100 || last.Speed() < 50 {
		t.Fatalf("rocket did not fly: alt=%f m speed=%f m/s", last.Altitude(), last.Speed())
	}
	if last.Geodetic.Altitude <= s.Environment.Platform.Altitude {
		t.Fatalf("geodetic altitude %f", last.Geodetic.Altitude)
	}
	if mm := res.History.MaxMach(); mm.Mach <= 0 || mm.Time <= 0 {
		t.Fatalf("max Mach %+v", mm)
	}
	if exp := 6 * EarthSiderealRate; !floats.EqualWithinAbs(math.Mod(last.GMST-res.History[0].GMST+2*math.Pi, 2*math.Pi), exp, 1e-9) {
		t.Fatalf("GMST advanced by %g rad", last.GMST-res.History[0].GMST)
	}
	if exit, ok := res.History.LaunchRailExit(3); !ok || exit.Time <= 0 || exit.Time > burn {
		t.Fatalf("rail exit %+v (%v)", exit.Time, ok)
	}
}

func TestFlightTermination(t *testing.T) {
	for _, tc := range []struct {
		name    string
		tweak   func(*Scenario)
		outcome Outcome
	}{
		{"impact", func(s *Scenario) {}, Impact},
		{"ceiling", func(s *Scenario) { s.Simulation.MaxAltitude = 15 }, Ceiling},
		{"range", func(s *Scenario) { s.Simulation.MaxRange = 2 }, OutOfRange},
		{"detonation", func(s *Scenario) { s.Simulation.Detonation = true; s.Simulation.DetonationAltitude = 20 }, Detonation},
		{"time", func(s *Scenario) { s.Simulation.MaxTime = 1.5 }, TimeLimit},
	} {
		s := hopScenario(t)
		tc.tweak(&s)
		res, err := Simulate(context.Background(), s, kitlog.NewNopLogger())
		if err != nil {
			t.Fatalf("%s: %s", tc.name, err)
		}
		if res.Outcome != tc.outcome {
			t.Fatalf("%s: outcome %s after %fs", tc.name, res.Outcome, res.History.Last().Time)
		}
		last := res.History.Last()
		switch tc.outcome {
		case Impact:
			if last.Altitude() > 0 || res.History.Apogee().Altitude() < 20 {
				t.Fatalf("impact at %f m after an apogee of %f m", last.Altitude(), res.History.Apogee().Altitude())
			}
		case Ceiling:
			if last.Altitude() < 15 || res.History[len(res.History)-2].Altitude() >= 15 {
				t.Fatalf("ceiling crossed at %f m", last.Altitude())
			}
		case Detonation:
			if last.Time < 1 || last.Altitude() >= 20 || last.Velocity[2] >= 0 {
				t.Fatalf("detonation at %f m at %fs", last.Altitude(), last.Time)
			}
		case TimeLimit:
			if !floats.EqualWithinAbs(last.Time, 1.5, 1e-9) {
				t.Fatalf("time limit at %fs", last.Time)
			}
		}
	}
}

func TestFlightAbort(t *testing.T) {
	s := chaffScenario(t)
	s.Simulation.MaxForce = 100
	res, err := Simulate(context.Background(), s, kitlog.NewNopLogger())
	if !errors.Is(err, ErrForceCeiling) {
		t.Fatalf("expected a force ceiling failure, got %v", err)
	}
	var flightErr *FlightError
	if !errors.As(err, &flightErr) || flightErr.Time <= 0 || Norm(flightErr.Value) <= 100 {
		t.Fatalf("failure should report time and value: %#v", flightErr)
	}
	if res.Outcome != Aborted {
		t.Fatalf("outcome %s", res.Outcome)
	}
	// The offending state is never recorded.
	if last := res.History.Last(); last.Time >= flightErr.Time || last.Thrust > 100 {
		t.Fatalf("last snapshot %+v", last)
	}
}

// flameoutMotor delivers a non finite thrust after its ignition.
type flameoutMotor struct{ inertMotor }

func (flameoutMotor) Evaluate(t, pAmb float64) EngineOutput {
	if t > 0.05 {
		return EngineOutput{Thrust: math.NaN()}
	}
	return EngineOutput{}
}

func TestFlightNumericalFailures(t *testing.T) {
	for _, tc := range []struct {
		name     string
		corrupt  func([]float64)
		quantity string
		exp      error
	}{
		{"nan position", func(x []float64) { x[2] = math.NaN() }, "state", ErrNonFinite},
		{"infinite rate", func(x []float64) { x[11] = math.Inf(1) }, "state", ErrNonFinite},
		{"zero quaternion", func(x []float64) { copy(x[6:10], []float64{0, 0, 0, 0}) }, "attitude", ErrZeroQuaternion},
	} {
		s := chaffScenario(t)
		f, err := NewFlight(context.Background(), s, kitlog.NewNopLogger())
		if err != nil {
			t.Fatal(err)
		}
		x := f.GetState()
		tc.corrupt(x)
		f.SetState(s.Simulation.Step, x)
		var flightErr *FlightError
		if !errors.As(f.err, &flightErr) || !errors.Is(f.err, tc.exp) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.exp, f.err)
		}
		if flightErr.Quantity != tc.quantity || flightErr.Time != s.Simulation.Step || len(flightErr.Value) == 0 {
			t.Fatalf("%s: failure should report time and value: %#v", tc.name, flightErr)
		}
		if f.Outcome() != Aborted || !f.Stop(f.t) {
			t.Fatalf("%s: outcome %s", tc.name, f.Outcome())
		}
		if len(f.History()) != 1 {
			t.Fatalf("%s: %d snapshots recorded", tc.name, len(f.History()))
		}
	}

	// Through the integrator.
	s := chaffScenario(t)
	s.Engine = flameoutMotor{}
	res, err := Simulate(context.Background(), s, kitlog.NewNopLogger())
	if !errors.Is(err, ErrNonFinite) || res.Outcome != Aborted {
		t.Fatalf("expected a non finite failure, got %s (%v)", res.Outcome, err)
	}
	var flightErr *FlightError
	if !errors.As(err, &flightErr) || flightErr.Time <= 0.05 {
		t.Fatalf("failure time %#v", flightErr)
	}
	for i, snap := range res.History {
		if math.IsNaN(snap.Thrust) || !finite(snap.Position) {
			t.Fatalf("#%d: non finite snapshot recorded", i)
		}
	}
}

func TestFlightImpulseMismatch(t *testing.T) {
	// 2755 N.s of total impulse for 4 kg of propellant.
	curve := EngineConfig{Mode: ExperimentalMode, PropellantMass: 4, Times: []float64{0, 0.1, 1.9, 2}, Thrusts: []float64{0, 1500, 1400, 0}}
	for _, tc := range []struct {
		isp  float64
		warn bool
	}{
		{0, false},
		{180, true},
		{2755 / (4 * 9.80665), false},
	} {
		curve.Isp = tc.isp
		e, err := NewThrustSource(curve)
		if err != nil {
			t.Fatal(err)
		}
		s := chaffScenario(t)
		s.Engine = e
		var buf bytes.Buffer
		if _, err := NewFlight(context.Background(), s, kitlog.NewLogfmtLogger(&buf)); err != nil {
			t.Fatal(err)
		}
		if warned := strings.Contains(buf.String(), "impulse mismatch"); warned != tc.warn {
			t.Fatalf("isp=%f: warning=%v\n%s", tc.isp, warned, buf.String())
		}
	}
}

func TestFlightCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Simulate(ctx, chaffScenario(t), kitlog.NewNopLogger())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if res.Outcome != Canceled || res.Steps != 0 || len(res.History) != 1 {
		t.Fatalf("outcome=%s steps=%d", res.Outcome, res.Steps)
	}
}

func TestFlightConfigErrors(t *testing.T) {
	for name, tweak := range map[string]func(*Scenario){
		"latitude":  func(s *Scenario) { s.Environment.Platform.Latitude = 91 },
		"elevation": func(s *Scenario) { s.Environment.Elevation = -5 },
		"epoch":     func(s *Scenario) { s.Environment.Epoch = time.Time{} },
		"step":      func(s *Scenario) { s.Simulation.Step = 0 },
		"height":    func(s *Scenario) { s.Simulation.LaunchHeight = 0 },
		"geometry":  func(s *Scenario) { s.Rocket.Geometry.FinCount = 0 },
	} {
		s := chaffScenario(t)
		tweak(&s)
		if _, err := Simulate(context.Background(), s, nil); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected a configuration error, got %v", name, err)
		}
	}
}

func TestFlightDeterminism(t *testing.T) {
	const runs = 4
	results := make([]Result, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := chaffScenario(t)
			s.Simulation.MaxTime = 2
			results[i], _ = Simulate(context.Background(), s, kitlog.NewNopLogger())
		}(i)
	}
	wg.Wait()
	exp := results[0].History.Last()
	for i, res := range results[1:] {
		last := res.History.Last()
		if res.Steps != results[0].Steps || !floats.Equal(last.Position, exp.Position) || !floats.Equal(last.Attitude, exp.Attitude) || !floats.Equal(last.AngularVelocity, exp.AngularVelocity) {
			t.Fatalf("run #%d differs: %v != %v", i+1, last.Position, exp.Position)
		}
	}
}

func TestTerminationPolicy(t *testing.T) {
	c := DefaultSimulationConfig()
	c.Detonation = true
	for _, tc := range []struct {
		t, alt, prev, rng float64
		exp               Outcome
	}{
		{0.5, 0, 0.1, 0, Impact},
		{3, -1, 5, 10, Impact},
		{3, c.MaxAltitude, 5, 10, Ceiling},
		{3, 500, 400, c.MaxRange, OutOfRange},
		{3, 500, 600, 100, Detonation},
		{0.9, 500, 600, 100, Flying}, // too early
		{3, 500, 400, 100, Flying},   // climbing
		{3, 1000, 1100, 100, Flying}, // above the detonation altitude
	} {
		if got := c.termination(tc.t, tc.alt, tc.prev, tc.rng); got != tc.exp {
			t.Fatalf("%+v: got %s", tc, got)
		}
	}
	c.Detonation = false
	if got := c.termination(3, 500, 600, 100); got != Flying {
		t.Fatalf("detonation disabled: %s", got)
	}
}
