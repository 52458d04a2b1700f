package rocketsim

import (
	"fmt"
	"math"
	"strings"
)

// NoseShape is the profile of the nose cone.
type NoseShape uint8

const (
	// Ogive is a tangent ogive nose.
	Ogive NoseShape = iota
	// Conical nose.
	Conical
	// Parabolic nose.
	Parabolic
	// Elliptical nose.
	Elliptical
)

func (s NoseShape) String() string {
	switch s {
	case Ogive:
		return "ogive"
	case Conical:
		return "conical"
	case Parabolic:
		return "parabolic"
	case Elliptical:
		return "elliptical"
	}
	panic("unknown nose shape")
}

// ParseNoseShape returns the NoseShape from its name.
func ParseNoseShape(name string) (NoseShape, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ogive":
		return Ogive, nil
	case "conical", "cone":
		return Conical, nil
	case "parabolic":
		return Parabolic, nil
	case "elliptical":
		return Elliptical, nil
	}
	return Ogive, fmt.Errorf("unknown nose shape %q", name)
}

// cpFactor is the fraction of the nose length at which the nose normal force acts.
func (s NoseShape) cpFactor() float64 {
	switch s {
	case Conical:
		return 0.666
	case Parabolic:
		return 0.5
	case Elliptical:
		return 0.333
	}
	return 0.466
}

// pressureFactor scales the subsonic pressure drag of a cone of equal fineness.
func (s NoseShape) pressureFactor() float64 {
	switch s {
	case Conical:
		return 1
	case Parabolic:
		return 0.35
	case Elliptical:
		return 0.2
	}
	return 0.5
}

// Geometry is the external shape of the rocket. All stations are measured from
// the nose tip and all dimensions are in meters.
type Geometry struct {
	NoseLength   float64
	NoseDiameter float64 // at the nose base
	NoseShape    NoseShape

	BodyLength   float64 // body tube, excluding the rear section
	BodyDiameter float64
	BodyLift     bool // include the body tube normal force

	FinCount        int
	FinStation      float64 // leading edge of the fin root
	FinRootChord    float64
	FinTipChord     float64
	FinMidChord     float64 // length of the mid-chord line
	FinSpan         float64
	FinThickness    float64
	FinBodyDiameter float64 // body diameter at the fins

	RearStation      float64
	RearLength       float64
	RearForeDiameter float64
	RearAftDiameter  float64
}

// Length returns the total length of the rocket.
func (g Geometry) Length() float64 {
	return g.RearStation + g.RearLength
}

// ReferenceArea returns the cross section area of the body tube.
func (g Geometry) ReferenceArea() float64 {
	return math.Pi * g.BodyDiameter * g.BodyDiameter / 4
}

// Validate returns an error if the geometry is incomplete or inconsistent.
func (g Geometry) Validate() error {
	for _, p := range []struct {
		name string
		val  float64
	}{
		{"nose_length", g.NoseLength},
		{"nose_diameter", g.NoseDiameter},
		{"body_length", g.BodyLength},
		{"body_diameter", g.BodyDiameter},
		{"fin_station", g.FinStation},
		{"fin_root_chord", g.FinRootChord},
		{"fin_mid_chord", g.FinMidChord},
		{"fin_span", g.FinSpan},
		{"fin_body_diameter", g.FinBodyDiameter},
		{"rear_station", g.RearStation},
	} {
		if !(p.val > 0) {
			return &ConfigError{Field: "geometry." + p.name, Reason: fmt.Sprintf("must be positive, got %g", p.val)}
		}
	}
	for _, p := range []struct {
		name string
		val  float64
	}{
		{"fin_tip_chord", g.FinTipChord},
		{"fin_thickness", g.FinThickness},
		{"rear_length", g.RearLength},
		{"rear_fore_diameter", g.RearForeDiameter},
		{"rear_aft_diameter", g.RearAftDiameter},
	} {
		if p.val < 0 {
			return &ConfigError{Field: "geometry." + p.name, Reason: fmt.Sprintf("must not be negative, got %g", p.val)}
		}
	}
	switch {
	case g.FinCount < 3:
		return &ConfigError{Field: "geometry.fin_count", Reason: fmt.Sprintf("need at least three fins, got %d", g.FinCount)}
	case g.NoseLength > g.Length():
		return &ConfigError{Field: "geometry.nose_length", Reason: "longer than the rocket"}
	case g.FinTipChord > g.FinRootChord:
		return &ConfigError{Field: "geometry.fin_tip_chord", Reason: "larger than the root chord"}
	case g.FinSpan > 2*g.BodyDiameter:
		return &ConfigError{Field: "geometry.fin_span", Reason: "larger than twice the body diameter"}
	case g.FinStation+g.FinRootChord > g.Length():
		return &ConfigError{Field: "geometry.fin_station", Reason: "fins extend past the tail"}
	case g.RearLength > 0 && (g.RearForeDiameter == 0 || g.RearAftDiameter == 0):
		return &ConfigError{Field: "geometry.rear_fore_diameter", Reason: "rear section requires both diameters"}
	}
	return nil
}

// baseDiameter returns the diameter of the base of the rocket.
func (g Geometry) baseDiameter() float64 {
	if g.RearLength > 0 {
		return g.RearAftDiameter
	}
	return g.BodyDiameter
}

// finPlanformArea returns the planform area of a single fin.
func (g Geometry) finPlanformArea() float64 {
	return 0.5 * (g.FinRootChord + g.FinTipChord) * g.FinSpan
}

// wettedArea returns the wetted areas of the body (nose, tube and rear) and of all the fins.
func (g Geometry) wettedArea() (body, fins float64) {
	rn := g.NoseDiameter / 2
	body = math.Pi * rn * math.Hypot(g.NoseLength, rn)
	body += math.Pi * g.BodyDiameter * g.BodyLength
	if g.RearLength > 0 {
		dr := (g.RearForeDiameter - g.RearAftDiameter) / 2
		body += math.Pi * (g.RearForeDiameter + g.RearAftDiameter) / 2 * math.Hypot(g.RearLength, dr)
	}
	fins = 2 * float64(g.FinCount) * g.finPlanformArea()
	return
}
