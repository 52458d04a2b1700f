package rocketsim

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/gonum/floats"
)

const baseScenario = `
[environment]
latitude = 28.5
longitude = -80.6
temperature = 30
epoch = %s
elevation = 80
azimuth = 90

[rocket]
name = "probe"
initial_mass = 12

[rocket.geometry]
nose_shape = "%s"
nose_length = 0.2
nose_diameter = 0.103
body_length = 0.93
body_diameter = 0.103
fin_count = 4
fin_station = 1.0
fin_root_chord = 0.13
fin_tip_chord = 0.04392
fin_mid_chord = 0.08696
fin_span = 0.139119
fin_thickness = 0.003
fin_body_diameter = 0.103
rear_station = 1.13

[rocket.before]
com = %s
inertia = [0.02, 1.5, 1.5]

[rocket.after]
com = [0.62, 0.0, 0.0]
inertia = [0.015, 1.2, 1.2]
`

// scenarioTOML fills the epoch, nose shape and initial CoM of baseScenario.
func scenarioTOML(epoch, shape, com, engine string) string {
	s := baseScenario
	for _, v := range []string{epoch, shape, com} {
		s = strings.Replace(s, "%s", v, 1)
	}
	return s + engine
}

const analyticalEngine = `
[engine]
mode = "analytical"
burn_time = 3.2
propellant_mass = 4
isp = 180
exit_pressure = 101325
`

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/chaff.toml")
	if err != nil {
		t.Fatal(err)
	}
	if s.Rocket.Name != "chaff" || s.Rocket.Geometry != chaffGeometry() {
		t.Fatalf("rocket %+v", s.Rocket)
	}
	if !floats.Equal(s.Rocket.AfterBurn.CoM, []float64{0.62, 0, 0}) || !floats.Equal(s.Rocket.BeforeBurn.Inertia, []float64{0.02, 1.5, 1.5}) {
		t.Fatalf("mass properties %+v -> %+v", s.Rocket.BeforeBurn, s.Rocket.AfterBurn)
	}
	env := s.Environment
	if env.Platform != (Geodetic{-33.4489, -70.6693, 520}) || env.SurfaceTemperature != 22 || env.Elevation != 85 || env.Azimuth != 45 {
		t.Fatalf("environment %+v", env)
	}
	if exp := time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC); !env.Epoch.Equal(exp) {
		t.Fatalf("epoch %s != %s", env.Epoch, exp)
	}
	// The curve is in kgf and starts at 0.5 s.
	e, ok := s.Engine.(*ExperimentalThrust)
	if !ok {
		t.Fatalf("engine %T", s.Engine)
	}
	if !floats.EqualWithinAbs(e.BurnTime(), 3.2, 1e-12) || !floats.EqualWithinAbs(e.MaxThrust(), 165*9.80665, 1e-9) {
		t.Fatalf("burn %f s, max thrust %f N", e.BurnTime(), e.MaxThrust())
	}
	sim := s.Simulation
	if !sim.Detonation || sim.DetonationAltitude != 900 || sim.MaxTime != 120 {
		t.Fatalf("simulation %+v", sim)
	}
	// Defaults
	if d := DefaultSimulationConfig(); sim.LaunchHeight != d.LaunchHeight || sim.MaxForce != d.MaxForce {
		t.Fatalf("simulation defaults %+v", sim)
	}
}

func TestReadScenarioEngines(t *testing.T) {
	for _, tc := range []struct {
		engine string
		check  func(ThrustSource) bool
	}{
		{analyticalEngine, func(e ThrustSource) bool {
			a, ok := e.(*AnalyticalThrust)
			return ok && floats.EqualWithinAbs(a.MeanThrust(), 180*9.80665*4/3.2, 1e-9)
		}},
		{`
[engine]
mode = "Momentum"
burn_time = 2
mass_flux = 1
gas_speed = 2000
exit_pressure = 101325
exit_diameter = 0.03
`, func(e ThrustSource) bool {
			m, ok := e.(*MomentumThrust)
			return ok && floats.EqualWithinAbs(m.Evaluate(1, SeaLevelPressure).Thrust, 2000, 1e-9)
		}},
		{`
[engine]
mode = "experimental"
propellant_mass = 1.5
times = [0, 0.1, 1.9, 2.0]
thrusts = [0, 1500, 1400, 0]
`, func(e ThrustSource) bool {
			x, ok := e.(*ExperimentalThrust)
			return ok && x.BurnTime() == 2 && x.MaxThrust() == 1500
		}},
	} {
		s, err := ReadScenario(strings.NewReader(scenarioTOML("2024-01-02T03:04:05Z", "conical", "[0.75, 0, 0]", tc.engine)), ".")
		if err != nil {
			t.Fatalf("%s: %s", tc.engine, err)
		}
		if !tc.check(s.Engine) {
			t.Fatalf("wrong engine %T %+v", s.Engine, s.Engine)
		}
		if s.Rocket.Geometry.NoseShape != Conical || s.Rocket.Geometry.RearLength != 0 {
			t.Fatalf("geometry %+v", s.Rocket.Geometry)
		}
		if s.Simulation != DefaultSimulationConfig() {
			t.Fatalf("simulation %+v", s.Simulation)
		}
	}
}

func TestReadScenarioJulianEpoch(t *testing.T) {
	s, err := ReadScenario(strings.NewReader(scenarioTOML("2451545.0", "ogive", "[0.75, 0, 0]", analyticalEngine)), ".")
	if err != nil {
		t.Fatal(err)
	}
	exp := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	if Δ := s.Environment.Epoch.Sub(exp); math.Abs(Δ.Seconds()) > 1e-3 {
		t.Fatalf("epoch %s", s.Environment.Epoch)
	}
}

func TestReadScenarioErrors(t *testing.T) {
	good := scenarioTOML("2024-01-02T03:04:05Z", "ogive", "[0.75, 0, 0]", analyticalEngine)
	for _, tc := range []struct {
		toml, field string
	}{
		{strings.Replace(good, "latitude = 28.5", "", 1), "environment.latitude"},
		{strings.Replace(good, `mode = "analytical"`, `mode = "hybrid"`, 1), "engine.mode"},
		{strings.Replace(good, "burn_time = 3.2", "burn_time = -1", 1), "engine.burn_time"},
		{strings.Replace(good, "initial_mass = 12", "initial_mass = 3", 1), "engine.propellant_mass"},
		{strings.Replace(good, "fin_count = 4", "fin_count = 2", 1), "geometry.fin_count"},
		{strings.Replace(good, "elevation = 80", "elevation = 95", 1), "environment.elevation"},
		{scenarioTOML("2024-01-02T03:04:05Z", "ogive", "[0.75, 0]", analyticalEngine), "rocket.before.com"},
		{scenarioTOML("2024-01-02T03:04:05Z", "ogival", "[0.75, 0, 0]", analyticalEngine), "rocket.geometry.nose_shape"},
		{good + "\n[simulation]\nstep = 0\n", "simulation.step"},
	} {
		_, err := ReadScenario(strings.NewReader(tc.toml), ".")
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected a configuration error, got %v", tc.field, err)
		}
		if cfgErr.Field != tc.field {
			t.Fatalf("error on %s instead of %s: %s", cfgErr.Field, tc.field, err)
		}
	}
	if _, err := LoadScenario("testdata/missing.toml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
