package rocketsim

import (
	"testing"

	"github.com/gonum/floats"
)

func TestStateVectorPacking(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 0, 0, 0, 1, 0.1, 0.2, 0.3, 12}
	s := NewStateVector(x)
	if !floats.Equal(s.Vector(), x) {
		t.Fatalf("%v != %v", s.Vector(), x)
	}
	x[0] = 42
	if s.Position[0] != 1 {
		t.Fatal("state aliases the packed vector")
	}
	// Appending to a component must not overwrite the next one.
	_ = append(s.Position, 7)
	if s.Velocity[0] != 4 {
		t.Fatal("components share capacity")
	}
}

func TestKinematicsOnPad(t *testing.T) {
	site := Geodetic{Latitude: 45, Longitude: 10, Altitude: 100}
	s := StateVector{
		Position:        []float64{0, 0, 2},
		Velocity:        []float64{0, 0, 0},
		Attitude:        AttitudeFromLaunch(60, 90),
		AngularVelocity: []float64{0, 0, 0},
		Mass:            10,
	}
	k := NewKinematics(s, site, 1.2)
	if !floats.EqualWithinAbs(k.Pitch, 60, 1e-9) || !floats.EqualWithinAbs(k.Yaw, 0, 1e-9) || !floats.EqualWithinAbs(k.Roll, 0, 1e-9) {
		t.Fatalf("yaw=%f pitch=%f roll=%f", k.Yaw, k.Pitch, k.Roll)
	}
	if k.AoA != 0 || k.Range != 0 || k.Altitude != 2 {
		t.Fatalf("%+v", k)
	}
	if !floats.EqualWithinAbs(k.Geodetic.Altitude, 102, distanceε) || !floats.EqualWithinAbs(k.Geodetic.Latitude, 45, 1e-6) {
		t.Fatalf("geodetic %+v", k.Geodetic)
	}
	// The platform rotates with the Earth.
	if !vectorsEqual(k.PositionECI, ECEF2ECI(k.PositionECEF, 1.2)) || Norm(k.VelocityECI) < EarthRotationRate*4e6 {
		t.Fatalf("r_eci=%v v_eci=%v", k.PositionECI, k.VelocityECI)
	}
}
