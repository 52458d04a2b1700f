package rocketsim

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestPlanetAccumulator(t *testing.T) {
	p := NewPlanet(0)
	for _, N := range []int{1, 10, 1000, 86400, 200000} {
		p = NewPlanet(0)
		for i := 0; i < N; i++ {
			p.Update(1)
		}
		exp := math.Mod(EarthSiderealRate*float64(N), 2*math.Pi)
		if !floats.EqualWithinAbs(p.GMST(), exp, 1e-9) {
			t.Fatalf("after %d steps: %.12f != %.12f", N, p.GMST(), exp)
		}
	}
	// Independent of the step size.
	a, b := NewPlanet(1), NewPlanet(1)
	for i := 0; i < 1000; i++ {
		a.Update(0.001)
	}
	b.Update(1)
	if !floats.EqualWithinAbs(a.GMST(), b.GMST(), 1e-12) {
		t.Fatalf("%f != %f", a.GMST(), b.GMST())
	}
	if g := NewPlanet(3 * math.Pi).GMST(); !floats.EqualWithinAbs(g, math.Pi, 1e-12) {
		t.Fatalf("initial angle not wrapped: %f", g)
	}
}

func TestPlanetAt(t *testing.T) {
	jd := JulianDay(2000, 1, 1, 12, 0, 0)
	if p := NewPlanetAt(jd); !floats.EqualWithinAbs(p.GMST(), GMST(jd, Radians), 1e-15) {
		t.Fatal("planet not initialized from the GMST")
	}
}
