package rocketsim

import (
	"errors"
	"fmt"
)

// Numerical failures which abort a flight.
var (
	// ErrZeroQuaternion indicates the attitude quaternion collapsed to a zero norm.
	ErrZeroQuaternion = errors.New("rocketsim: zero norm attitude quaternion")
	// ErrNonFinite indicates a NaN or infinite value in the state.
	ErrNonFinite = errors.New("rocketsim: non finite state")
	// ErrForceCeiling indicates a force beyond the configured sanity ceiling.
	ErrForceCeiling = errors.New("rocketsim: force above sanity ceiling")
	// ErrInvalidConfig is wrapped by every ConfigError.
	ErrInvalidConfig = errors.New("rocketsim: invalid configuration")
)

// ConfigError is a missing or invalid configuration parameter, detected before a flight starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rocketsim: invalid %s: %s", e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidConfig).
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// FlightError wraps a numerical failure with the time and value at which it occurred.
type FlightError struct {
	Time     float64 // seconds since ignition
	Quantity string
	Value    []float64
	Wrapped  error
}

func (e *FlightError) Error() string {
	return fmt.Sprintf("%s: %s=%v at t=%.4fs", e.Wrapped, e.Quantity, e.Value, e.Time)
}

func (e *FlightError) Unwrap() error {
	return e.Wrapped
}
