package rocketsim

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// EngineMode selects the thrust model of a motor.
type EngineMode string

// Engine modes of a scenario file.
const (
	AnalyticalMode   EngineMode = "analytical"
	ExperimentalMode EngineMode = "experimental"
	MomentumMode     EngineMode = "momentum"
)

// EngineConfig describes a motor. Only the fields relevant to its mode are read.
type EngineConfig struct {
	Mode           EngineMode
	BurnTime       float64 // s
	PropellantMass float64 // kg
	Isp            float64 // s
	MeanThrust     float64 // N, derived from the Isp if zero
	ExitPressure   float64 // Pa
	ExitDiameter   float64 // m
	MassFlux       float64 // kg/s
	GasSpeed       float64 // m/s
	Times, Thrusts []float64
}

// NewThrustSource returns the motor described by c.
func NewThrustSource(c EngineConfig) (ThrustSource, error) {
	switch c.Mode {
	case AnalyticalMode:
		return NewAnalyticalThrust(c.BurnTime, c.PropellantMass, c.Isp, c.MeanThrust, c.ExitPressure)
	case ExperimentalMode:
		e, err := NewExperimentalThrust(c.Times, c.Thrusts, c.PropellantMass)
		if err != nil {
			return nil, err
		}
		e.isp = c.Isp
		return e, nil
	case MomentumMode:
		return NewMomentumThrust(c.BurnTime, c.MassFlux, c.GasSpeed, c.ExitPressure, c.ExitDiameter)
	}
	return nil, &ConfigError{Field: "engine.mode", Reason: fmt.Sprintf("unknown mode `%s`", c.Mode)}
}

// LoadScenario reads a TOML scenario file. A thrust curve path is relative to
// the directory of the scenario.
func LoadScenario(path string) (Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return scenarioFromViper(v, filepath.Dir(path))
}

// ReadScenario reads a TOML scenario. A thrust curve path is relative to dir.
func ReadScenario(r io.Reader, dir string) (Scenario, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(r); err != nil {
		return Scenario{}, err
	}
	return scenarioFromViper(v, dir)
}

// confReader accumulates the first missing or malformed key.
type confReader struct {
	v   *viper.Viper
	err error
}

func (c *confReader) fail(key, reason string) {
	if c.err == nil {
		c.err = &ConfigError{Field: key, Reason: reason}
	}
}

func (c *confReader) float(key string) float64 {
	if !c.v.IsSet(key) {
		c.fail(key, "missing")
		return 0
	}
	f, err := cast.ToFloat64E(c.v.Get(key))
	if err != nil {
		c.fail(key, err.Error())
	}
	return f
}

func (c *confReader) optFloat(key string) float64 {
	if !c.v.IsSet(key) {
		return 0
	}
	return c.float(key)
}

func (c *confReader) floats(key string, n int) []float64 {
	raw, err := cast.ToSliceE(c.v.Get(key))
	if err != nil || !c.v.IsSet(key) {
		c.fail(key, "missing array")
		return nil
	}
	if n > 0 && len(raw) != n {
		c.fail(key, fmt.Sprintf("need %d components, got %d", n, len(raw)))
		return nil
	}
	out := make([]float64, len(raw))
	for i, r := range raw {
		if out[i], err = cast.ToFloat64E(r); err != nil {
			c.fail(key, err.Error())
		}
	}
	return out
}

// epoch reads either a Julian day or a date.
func (c *confReader) epoch(key string) time.Time {
	if !c.v.IsSet(key) {
		c.fail(key, "missing")
		return time.Time{}
	}
	if jde := c.v.GetFloat64(key); jde != 0 {
		return julian.JDToTime(jde)
	}
	dt, err := cast.ToTimeE(c.v.Get(key))
	if err != nil {
		c.fail(key, err.Error())
	}
	return dt.UTC()
}

func (c *confReader) massProperties(key string) MassProperties {
	return MassProperties{CoM: c.floats(key+".com", 3), Inertia: c.floats(key+".inertia", 3)}
}

func setDefaults(v *viper.Viper) {
	d := DefaultSimulationConfig()
	v.SetDefault("simulation.step", d.Step)
	v.SetDefault("simulation.max_time", d.MaxTime)
	v.SetDefault("simulation.max_altitude", d.MaxAltitude)
	v.SetDefault("simulation.max_range", d.MaxRange)
	v.SetDefault("simulation.detonation", d.Detonation)
	v.SetDefault("simulation.detonation_altitude", d.DetonationAltitude)
	v.SetDefault("simulation.launch_height", d.LaunchHeight)
	v.SetDefault("simulation.max_force", d.MaxForce)
	v.SetDefault("environment.temperature", SeaLevelTemperature-273.15)
	v.SetDefault("rocket.geometry.nose_shape", Ogive.String())
	v.SetDefault("engine.mode", string(AnalyticalMode))
	v.SetDefault("engine.separator", ",")
}

func scenarioFromViper(v *viper.Viper, dir string) (Scenario, error) {
	setDefaults(v)
	c := &confReader{v: v}
	var s Scenario

	s.Environment = Environment{
		Platform: Geodetic{
			Latitude:  c.float("environment.latitude"),
			Longitude: c.float("environment.longitude"),
			Altitude:  c.optFloat("environment.altitude"),
		},
		SurfaceTemperature: c.float("environment.temperature"),
		Epoch:              c.epoch("environment.epoch"),
		Elevation:          c.float("environment.elevation"),
		Azimuth:            c.float("environment.azimuth"),
	}

	shape, err := ParseNoseShape(v.GetString("rocket.geometry.nose_shape"))
	if err != nil {
		return s, &ConfigError{Field: "rocket.geometry.nose_shape", Reason: err.Error()}
	}
	g := "rocket.geometry."
	s.Rocket = RocketConfig{
		Name: v.GetString("rocket.name"),
		Geometry: Geometry{
			NoseLength:       c.float(g + "nose_length"),
			NoseDiameter:     c.float(g + "nose_diameter"),
			NoseShape:        shape,
			BodyLength:       c.float(g + "body_length"),
			BodyDiameter:     c.float(g + "body_diameter"),
			BodyLift:         v.GetBool(g + "body_lift"),
			FinCount:         v.GetInt(g + "fin_count"),
			FinStation:       c.float(g + "fin_station"),
			FinRootChord:     c.float(g + "fin_root_chord"),
			FinTipChord:      c.optFloat(g + "fin_tip_chord"),
			FinMidChord:      c.float(g + "fin_mid_chord"),
			FinSpan:          c.float(g + "fin_span"),
			FinThickness:     c.optFloat(g + "fin_thickness"),
			FinBodyDiameter:  c.float(g + "fin_body_diameter"),
			RearStation:      c.float(g + "rear_station"),
			RearLength:       c.optFloat(g + "rear_length"),
			RearForeDiameter: c.optFloat(g + "rear_fore_diameter"),
			RearAftDiameter:  c.optFloat(g + "rear_aft_diameter"),
		},
		InitialMass: c.float("rocket.initial_mass"),
		BeforeBurn:  c.massProperties("rocket.before"),
		AfterBurn:   c.massProperties("rocket.after"),
	}

	e := EngineConfig{Mode: EngineMode(strings.ToLower(v.GetString("engine.mode")))}
	switch e.Mode {
	case AnalyticalMode:
		e.BurnTime = c.float("engine.burn_time")
		e.PropellantMass = c.float("engine.propellant_mass")
		e.Isp = c.optFloat("engine.isp")
		e.MeanThrust = c.optFloat("engine.mean_thrust")
		e.ExitPressure = c.optFloat("engine.exit_pressure")
	case ExperimentalMode:
		e.PropellantMass = c.float("engine.propellant_mass")
		if v.IsSet("engine.curve") {
			path := v.GetString("engine.curve")
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			sep := []rune(v.GetString("engine.separator"))
			if len(sep) != 1 {
				c.fail("engine.separator", "must be a single character")
				break
			}
			if e.Times, e.Thrusts, err = LoadThrustCurve(path, sep[0]); err != nil {
				return s, fmt.Errorf("engine.curve: %w", err)
			}
		} else {
			e.Times = c.floats("engine.times", 0)
			e.Thrusts = c.floats("engine.thrusts", 0)
		}
	case MomentumMode:
		e.BurnTime = c.float("engine.burn_time")
		e.MassFlux = c.float("engine.mass_flux")
		e.GasSpeed = c.float("engine.gas_speed")
		e.ExitPressure = c.optFloat("engine.exit_pressure")
		e.ExitDiameter = c.optFloat("engine.exit_diameter")
	}

	s.Simulation = SimulationConfig{
		Step:               c.float("simulation.step"),
		MaxTime:            c.float("simulation.max_time"),
		MaxAltitude:        c.float("simulation.max_altitude"),
		MaxRange:           c.float("simulation.max_range"),
		Detonation:         v.GetBool("simulation.detonation"),
		DetonationAltitude: c.float("simulation.detonation_altitude"),
		LaunchHeight:       c.float("simulation.launch_height"),
		MaxForce:           c.float("simulation.max_force"),
	}
	if c.err != nil {
		return s, c.err
	}
	if s.Engine, err = NewThrustSource(e); err != nil {
		return s, err
	}
	if _, err = NewRocket(s.Rocket, s.Engine); err != nil {
		return s, err
	}
	if err = s.Environment.Validate(); err != nil {
		return s, err
	}
	return s, s.Simulation.Validate()
}
