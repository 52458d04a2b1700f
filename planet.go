package rocketsim

import "math"

const (
	// EarthSiderealRate is the rate in radians per second at which the Greenwich
	// sidereal angle advances during a flight.
	EarthSiderealRate = 7.2722e-5
)

// Planet tracks the rotation of the Earth during a flight.
type Planet struct {
	gmst float64 // radians
}

// NewPlanet returns a Planet whose Greenwich sidereal angle is gmst0 in radians.
func NewPlanet(gmst0 float64) *Planet {
	return &Planet{gmst: math.Mod(gmst0, 2*math.Pi)}
}

// NewPlanetAt returns a Planet initialized from the GMST at the provided Julian Day.
func NewPlanetAt(jd float64) *Planet {
	return NewPlanet(GMST(jd, Radians))
}

// Update advances the sidereal angle by dt seconds.
func (p *Planet) Update(dt float64) {
	p.gmst = math.Mod(p.gmst+EarthSiderealRate*dt, 2*math.Pi)
	if p.gmst < 0 {
		p.gmst += 2 * math.Pi
	}
}

// GMST returns the current Greenwich sidereal angle in radians.
func (p *Planet) GMST() float64 {
	return p.gmst
}
