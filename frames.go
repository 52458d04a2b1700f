package rocketsim

import (
	"math"

	"github.com/gonum/matrix/mat64"
	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/unit"
)

// WGS84 ellipsoid parameters.
const (
	WGS84SemiMajorAxis = 6378137.0         // a, in meters
	WGS84SemiMinorAxis = 6356752.314245179 // b, in meters
	WGS84Flattening    = 1 / 298.257223563 // f
	wgs84E2            = 2*WGS84Flattening - WGS84Flattening*WGS84Flattening
	wgs84EP2           = (WGS84SemiMajorAxis*WGS84SemiMajorAxis - WGS84SemiMinorAxis*WGS84SemiMinorAxis) / (WGS84SemiMinorAxis * WGS84SemiMinorAxis)
)

const (
	// EarthRotationRate is the Earth angular velocity in radians per second used
	// to correct velocities between the rotating and inertial frames.
	EarthRotationRate = 7.2119e-5
)

// Geodetic holds a latitude and longitude in degrees and an altitude in meters
// above the WGS84 ellipsoid.
type Geodetic struct {
	Latitude, Longitude, Altitude float64
}

// primeVerticalRadius returns the WGS84 radius of curvature in the prime vertical.
func primeVerticalRadius(sLat float64) float64 {
	return WGS84SemiMajorAxis / math.Sqrt(1-wgs84E2*sLat*sLat)
}

// wgs84 is the WGS84 ellipsoid, with its equatorial radius in kilometers.
var wgs84 = globe.Ellipsoid{Er: WGS84SemiMajorAxis / 1000, Fl: WGS84Flattening}

// GEO2ECEF converts the provided geodetic coordinates to the ECEF vector in meters.
func GEO2ECEF(c Geodetic) []float64 {
	ρsφ, ρcφ := wgs84.ParallaxConstants(unit.AngleFromDeg(c.Latitude), c.Altitude)
	sLong, cLong := math.Sincos(c.Longitude * deg2rad)
	a := WGS84SemiMajorAxis
	return []float64{a * ρcφ * cLong, a * ρcφ * sLong, a * ρsφ}
}

// ECEF2GEO converts the provided ECEF vector in meters to geodetic coordinates
// with the closed form of Bowring as presented by Seemkooei, followed by one
// fixed point iteration on the latitude which keeps the round trip error under
// a millimeter up to at least 1000 km.
func ECEF2GEO(r []float64) Geodetic {
	a, b := WGS84SemiMajorAxis, WGS84SemiMinorAxis
	p := math.Hypot(r[0], r[1])
	θ := math.Atan2(a*r[2], b*p)
	sθ, cθ := math.Sincos(θ)
	lat := math.Atan2(r[2]+b*wgs84EP2*sθ*sθ*sθ, p-a*wgs84E2*cθ*cθ*cθ)
	alt := ellipsoidHeight(p, r[2], lat)
	N := primeVerticalRadius(math.Sin(lat))
	lat = math.Atan2(r[2], p*(1-wgs84E2*N/(N+alt)))
	alt = ellipsoidHeight(p, r[2], lat)
	return Geodetic{Latitude: lat / deg2rad, Longitude: math.Atan2(r[1], r[0]) / deg2rad, Altitude: alt}
}

// ellipsoidHeight returns the height above the ellipsoid of the point at the
// distance p from the polar axis and z from the equator, at the latitude lat in
// radians. It holds along the polar axis.
func ellipsoidHeight(p, z, lat float64) float64 {
	sLat, cLat := math.Sincos(lat)
	return p*cLat + z*sLat - WGS84SemiMajorAxis*WGS84SemiMajorAxis/primeVerticalRadius(sLat)
}

// ENU2ECEFDCM returns the rotation matrix from the local East-North-Up frame to
// the ECEF frame at the provided latitude and longitude in degrees. It is the
// transpose of R1(π/2-φ)·R3(π/2+λ).
func ENU2ECEFDCM(latitude, longitude float64) *mat64.Dense {
	var dcm mat64.Dense
	dcm.Mul(R3(-math.Pi/2-longitude*deg2rad), R1(latitude*deg2rad-math.Pi/2))
	return &dcm
}

// ENU2ECEF rotates an ENU vector to the ECEF frame. No translation is applied.
func ENU2ECEF(c Geodetic, v []float64) []float64 {
	return MxV33(ENU2ECEFDCM(c.Latitude, c.Longitude), v)
}

// ECEF2ENU rotates an ECEF vector to the ENU frame at c. No translation is applied.
func ECEF2ENU(c Geodetic, v []float64) []float64 {
	return MxV33(ENU2ECEFDCM(c.Latitude, c.Longitude).T(), v)
}

// ENUPosition2ECEF returns the ECEF position of a point given in the ENU frame
// centered at the platform c.
func ENUPosition2ECEF(c Geodetic, rENU []float64) []float64 {
	return add(GEO2ECEF(c), ENU2ECEF(c, rENU))
}

// ECI2ECEF converts the provided ECI vector to ECEF for the θgst given in radians.
func ECI2ECEF(R []float64, θgst float64) []float64 {
	return MxV33(R3(θgst), R)
}

// ECEF2ECI converts the provided ECEF vector to ECI for the θgst given in radians.
func ECEF2ECI(R []float64, θgst float64) []float64 {
	return ECI2ECEF(R, -θgst)
}

// ECEF2ECIVelocity converts an ECEF velocity at the ECEF position r to the ECI
// frame, accounting for the rotation of the Earth.
func ECEF2ECIVelocity(v, r []float64, θgst float64) []float64 {
	R := R3(-θgst)
	var RΩ mat64.Dense
	RΩ.Mul(R, Skew3([]float64{0, 0, EarthRotationRate}))
	return add(MxV33(R, v), MxV33(&RΩ, r))
}

// ECI2ECEFVelocity converts an ECI velocity at the ECI position r to the ECEF
// frame, accounting for the rotation of the Earth.
func ECI2ECEFVelocity(v, r []float64, θgst float64) []float64 {
	Rt := R3(θgst)
	var RtΩ mat64.Dense
	RtΩ.Mul(Rt, Skew3([]float64{0, 0, EarthRotationRate}))
	return sub(MxV33(Rt, v), MxV33(&RtΩ, r))
}

// GroundRange returns the horizontal distance of an ENU position from the platform.
func GroundRange(rENU []float64) float64 {
	return math.Hypot(rENU[0], rENU[1])
}
