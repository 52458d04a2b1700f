package rocketsim

import (
	"math"
)

const (
	// MaxAngleOfAttack is the largest angle of attack in degrees for which the
	// normal force model is valid. Larger angles saturate.
	MaxAngleOfAttack = 10.0
	noseCnα          = 2.0
	minReynolds      = 1e4
	minDragCoeff     = 0.1
	maxDragCoeff     = 2.0
)

// Flow is the free stream seen by the rocket.
type Flow struct {
	Mach     float64
	AoA      float64 // degrees
	Reynolds float64 // based on the total length
}

// ReynoldsNumber returns the Reynolds number of a flow of speed V over a length L.
func ReynoldsNumber(cond AtmosphereConditions, V, L float64) float64 {
	return cond.Density * V * L / cond.Viscosity
}

// DragBreakdown holds the contributions to the zero-lift drag coefficient.
type DragBreakdown struct {
	Friction     float64
	NosePressure float64
	Base         float64
	Interference float64
	Wave         float64
}

// Total returns the sum of all the contributions.
func (d DragBreakdown) Total() float64 {
	return d.Friction + d.NosePressure + d.Base + d.Interference + d.Wave
}

// AeroCoefficients are the aerodynamic coefficients at a flight condition.
type AeroCoefficients struct {
	Cd      float64
	Cl      float64
	Cn      float64
	CnAlpha float64 // per radian
	Xcp     float64 // center of pressure from the nose tip, in meters
	AoA     float64 // clamped angle of attack, in degrees
	Drag    DragBreakdown
}

type component struct {
	cnα, xcp float64
}

// Aerodynamics estimates the coefficients of a finned rocket with the Barrowman
// method and a component drag buildup.
type Aerodynamics struct {
	geo              Geometry
	sref             float64
	nose, fins, rear component
	body             component // scaled by |α| at each evaluation
}

// NewAerodynamics returns the aerodynamic model of a geometry.
func NewAerodynamics(g Geometry) *Aerodynamics {
	a := &Aerodynamics{geo: g, sref: g.ReferenceArea()}
	dn := g.NoseDiameter
	a.nose = component{noseCnα, g.NoseShape.cpFactor() * g.NoseLength}
	if g.BodyLift {
		// Planform over reference area; multiplied by |α| in Coefficients.
		a.body = component{g.BodyLength / (math.Pi * 0.25 * g.BodyDiameter), g.NoseLength + 0.5*g.BodyLength}
	}
	cr, ct, lm, s := g.FinRootChord, g.FinTipChord, g.FinMidChord, g.FinSpan
	Kfb := 1 + (0.5*g.FinBodyDiameter)/(s+0.5*g.FinBodyDiameter)
	a.fins.cnα = Kfb * 4 * float64(g.FinCount) * (s / dn) * (s / dn) / (1 + math.Sqrt(1+math.Pow(2*lm/(cr+ct), 2)))
	a.fins.xcp = g.FinStation + lm/3*(cr+2*ct)/(cr+ct) + (cr+ct-cr*ct/(cr+ct))/6
	if g.RearLength > 0 {
		du, dd := g.RearForeDiameter, g.RearAftDiameter
		a.rear.cnα = 2 * ((dd/dn)*(dd/dn) - (du/dn)*(du/dn))
		a.rear.xcp = g.RearStation + g.RearLength/3*(1+1/(1+du/dn))
	}
	return a
}

// ReferenceArea returns the area on which the coefficients are based.
func (a *Aerodynamics) ReferenceArea() float64 {
	return a.sref
}

// clampAoA saturates the angle of attack at MaxAngleOfAttack.
func clampAoA(α float64) float64 {
	return math.Max(-MaxAngleOfAttack, math.Min(MaxAngleOfAttack, α))
}

// prandtlGlauert returns the compressibility divisor of the lift coefficient.
// It is frozen at its Mach 0.8 value through the transonic regime.
func prandtlGlauert(M float64) float64 {
	switch {
	case M < 0.8:
		return math.Sqrt(1 - M*M)
	case M <= 1.2:
		return math.Sqrt(1 - 0.8*0.8)
	default:
		return math.Sqrt(M*M - 1)
	}
}

// normalForce returns the total Cnα and center of pressure at the angle of attack α in radians.
func (a *Aerodynamics) normalForce(α float64) (cnα, xcp float64) {
	body := component{a.body.cnα * math.Abs(α), a.body.xcp}
	var moment float64
	for _, c := range []component{a.nose, body, a.fins, a.rear} {
		cnα += c.cnα
		moment += c.cnα * c.xcp
	}
	if cnα == 0 {
		return 0, 0
	}
	return cnα, moment / cnα
}

// drag returns the zero-lift drag buildup.
func (a *Aerodynamics) drag(M, Re float64) (d DragBreakdown) {
	g := a.geo
	Re = math.Max(Re, minReynolds)
	// Turbulent flat plate with the Prandtl-Schlichting correlation.
	Cf := 0.455 / math.Pow(math.Log10(Re), 2.58)
	Cf /= math.Pow(1+0.15*M*M, 0.58)
	fB := g.Length() / g.BodyDiameter
	wetBody, wetFins := a.geo.wettedArea()
	var tc float64
	if cm := 0.5 * (g.FinRootChord + g.FinTipChord); cm > 0 {
		tc = g.FinThickness / cm
	}
	finFriction := Cf * (1 + 2*tc) * wetFins / a.sref
	d.Friction = Cf*(1+1/(2*fB))*wetBody/a.sref + finFriction
	d.Interference = 0.1 * finFriction

	sφ := math.Sin(math.Atan(g.NoseDiameter / (2 * g.NoseLength)))
	d.NosePressure = g.NoseShape.pressureFactor() * 0.8 * sφ * sφ

	db := g.baseDiameter() / g.BodyDiameter
	if M < 1 {
		d.Base = (0.12 + 0.13*M*M) * db * db
	} else {
		d.Base = 0.25 / M * db * db
	}

	// Drag rise over the transonic regime, decaying once fully supersonic.
	peak := g.NoseShape.pressureFactor()*2.1*sφ*sφ + 0.2 + 4*tc*tc*float64(g.FinCount)*g.finPlanformArea()/a.sref
	switch {
	case M <= 0.8:
	case M <= 1.2:
		x := (M - 0.8) / 0.4
		d.Wave = peak * (3*x*x - 2*x*x*x)
	default:
		d.Wave = peak * math.Sqrt((1.2*1.2-1)/(M*M-1))
	}
	return
}

// Coefficients returns the aerodynamic coefficients of the rocket in the provided flow.
// The angle of attack saturates at ±MaxAngleOfAttack.
func (a *Aerodynamics) Coefficients(f Flow) AeroCoefficients {
	M := math.Max(f.Mach, 0)
	αDeg := clampAoA(f.AoA)
	α := αDeg * deg2rad
	c := AeroCoefficients{AoA: αDeg}
	c.CnAlpha, c.Xcp = a.normalForce(α)
	c.Cn = c.CnAlpha * α
	c.Cl = c.Cn * math.Cos(α) / prandtlGlauert(M)
	c.Drag = a.drag(M, f.Reynolds)
	c.Cd = c.Drag.Total() * (1 + 0.5*α*α)
	c.Cd = math.Max(minDragCoeff, math.Min(maxDragCoeff, c.Cd))
	return c
}
