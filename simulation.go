package rocketsim

import (
	"fmt"
	"math"
)

// Outcome is the reason a flight ended.
type Outcome uint8

const (
	// Flying is the outcome of a flight which has not ended.
	Flying Outcome = iota
	// Impact on the ground.
	Impact
	// Ceiling is reached when the altitude exceeds the configured maximum.
	Ceiling
	// OutOfRange is reached when the ground range exceeds the configured maximum.
	OutOfRange
	// Detonation is triggered while descending below the detonation altitude.
	Detonation
	// TimeLimit is reached when the flight lasts longer than the configured maximum.
	TimeLimit
	// Aborted flights hit a numerical failure.
	Aborted
	// Canceled flights were stopped by their context.
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Flying:
		return "flying"
	case Impact:
		return "impact"
	case Ceiling:
		return "ceiling"
	case OutOfRange:
		return "out of range"
	case Detonation:
		return "detonation"
	case TimeLimit:
		return "time limit"
	case Aborted:
		return "aborted"
	case Canceled:
		return "canceled"
	}
	panic("unknown outcome")
}

// SimulationConfig drives the time stepping and the termination of a flight.
type SimulationConfig struct {
	Step               float64 // s
	MaxTime            float64 // s
	MaxAltitude        float64 // m above the platform
	MaxRange           float64 // m
	Detonation         bool
	DetonationAltitude float64 // m above the platform
	LaunchHeight       float64 // initial height of the rocket above the platform, m
	MaxForce           float64 // sanity ceiling on the aerodynamic and engine forces, N
}

// DefaultSimulationConfig returns the default simulation parameters.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Step:               0.001,
		MaxTime:            80,
		MaxAltitude:        10000,
		MaxRange:           12500,
		Detonation:         false,
		DetonationAltitude: 900,
		LaunchHeight:       0.1,
		MaxForce:           1e5,
	}
}

// Validate returns an error if the simulation cannot be run.
func (c SimulationConfig) Validate() error {
	switch {
	case !(c.Step > 0):
		return &ConfigError{Field: "simulation.step", Reason: fmt.Sprintf("must be positive, got %g", c.Step)}
	case !(c.MaxTime >= c.Step):
		return &ConfigError{Field: "simulation.max_time", Reason: "shorter than one step"}
	case !(c.MaxAltitude > c.LaunchHeight):
		return &ConfigError{Field: "simulation.max_altitude", Reason: "must exceed the launch height"}
	case !(c.MaxRange > 0):
		return &ConfigError{Field: "simulation.max_range", Reason: "must be positive"}
	case !(c.LaunchHeight > 0):
		return &ConfigError{Field: "simulation.launch_height", Reason: "the rocket must start above the ground"}
	case !(c.MaxForce > 0):
		return &ConfigError{Field: "simulation.max_force", Reason: "must be positive"}
	case c.Detonation && !(c.DetonationAltitude > 0):
		return &ConfigError{Field: "simulation.detonation_altitude", Reason: "must be positive"}
	}
	return nil
}

// steps returns the number of steps after which the time limit is reached.
func (c SimulationConfig) steps() uint64 {
	return uint64(math.Ceil(c.MaxTime/c.Step - 1e-9))
}

// termination returns the outcome of a flight at time t whose altitude went
// from prevAltitude to altitude, or Flying if it continues.
func (c SimulationConfig) termination(t, altitude, prevAltitude, groundRange float64) Outcome {
	switch {
	case altitude <= 0:
		return Impact
	case altitude >= c.MaxAltitude:
		return Ceiling
	case groundRange >= c.MaxRange:
		return OutOfRange
	case t >= 1 && c.Detonation && altitude < prevAltitude && altitude < c.DetonationAltitude:
		return Detonation
	}
	return Flying
}
