package rocketsim

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// J2000 is the Julian Day of the 2000 January 1.5 epoch.
	J2000         = 2451545.0
	julianCentury = 36525.0
	secondsPerDay = 86400.0
)

// AngleUnit selects the unit of a returned angle.
type AngleUnit uint8

const (
	// Degrees is the default angle unit.
	Degrees AngleUnit = iota
	// Radians angle unit.
	Radians
)

// JulianDay returns the Julian Day of a UTC calendar date with the algorithm
// from Vallado, valid between the years 1900 and 2100.
func JulianDay(year, month, day, hour, minute, second float64) float64 {
	jd := 367*year - math.Trunc(7*(year+math.Trunc((month+9)/12))/4) + math.Trunc(275*month/9) + day + 1721013.5
	return jd + ((second/60+minute)/60+hour)/24
}

// JulianDayFromTime returns the Julian Day of the provided instant.
func JulianDayFromTime(t time.Time) float64 {
	t = t.UTC()
	sec := float64(t.Second()) + float64(t.Nanosecond())/1e9
	return JulianDay(float64(t.Year()), float64(t.Month()), float64(t.Day()), float64(t.Hour()), float64(t.Minute()), sec)
}

// TimeFromJulianDay returns the UTC instant of the provided Julian Day.
func TimeFromJulianDay(jd float64) time.Time {
	return julian.JDToTime(jd).UTC()
}

// GMST returns the Greenwich mean sidereal time of the provided Julian Day with
// the IAU-82 polynomial, in the requested unit and within [0, 360) degrees.
func GMST(jd float64, unit AngleUnit) float64 {
	T := (jd - J2000) / julianCentury
	θ := 67310.54841 + (876600*3600+8640184.812866)*T + 0.093104*T*T - 6.2e-6*T*T*T
	θ = math.Mod(θ, secondsPerDay) / 240
	if θ < 0 {
		θ += 360
	}
	if unit == Radians {
		return θ * deg2rad
	}
	return θ
}
