package rocketsim

import "math"

const (
	// SeaLevelTemperature is the standard sea level temperature in Kelvin.
	SeaLevelTemperature = 288.15
	// SeaLevelPressure is the standard sea level pressure in Pascal.
	SeaLevelPressure = 101325.0
	gasConstantAir   = 287.058 // J/(kg.K)
	heatCapacityRate = 1.4
	standardGravity  = 9.80665
	earthRadiusUSSA  = 6356766.0 // m, geopotential reference radius
	sutherlandβ      = 1.458e-6
	sutherlandS      = 110.4
)

type atmosphereLayer struct {
	H, T, L, P float64 // base geopotential altitude, temperature, lapse rate and pressure
}

// U.S. Standard Atmosphere 1976, up to 84.852 km geopotential.
var ussa76 = [...]atmosphereLayer{
	{0, 288.15, -6.5e-3, 101325},
	{11000, 216.65, 0, 22632.06},
	{20000, 216.65, 1e-3, 5474.889},
	{32000, 228.65, 2.8e-3, 868.0187},
	{47000, 270.65, 0, 110.9063},
	{51000, 270.65, -2.8e-3, 66.93887},
	{71000, 214.65, -2e-3, 3.956420},
	{84852, 186.946, 0, 0.3733836},
}

// AtmosphereConditions are the properties of the air at an altitude.
type AtmosphereConditions struct {
	Temperature  float64 // K
	Pressure     float64 // Pa
	Density      float64 // kg/m^3
	SpeedOfSound float64 // m/s
	Viscosity    float64 // Pa.s
}

// Atmosphere is the U.S. Standard Atmosphere 1976 shifted by the deviation of
// a measured surface temperature from the standard one.
type Atmosphere struct {
	offset float64 // K
}

// NewAtmosphere returns an Atmosphere from the surface temperature measured at
// the launch site, in Celsius.
func NewAtmosphere(surfaceTempC float64) Atmosphere {
	return Atmosphere{offset: surfaceTempC + 273.15 - SeaLevelTemperature}
}

// Offset returns the temperature offset in Kelvin applied at every altitude.
func (a Atmosphere) Offset() float64 {
	return a.offset
}

// At returns the air properties at the provided geometric altitude in meters.
// Altitudes below sea level or above 86 km are extrapolated from the nearest layer.
func (a Atmosphere) At(altitude float64) AtmosphereConditions {
	H := earthRadiusUSSA * altitude / (earthRadiusUSSA + altitude)
	layer := ussa76[0]
	for _, l := range ussa76[1:] {
		if H < l.H {
			break
		}
		layer = l
	}
	dH := H - layer.H
	Tstd := layer.T + layer.L*dH
	var P float64
	if layer.L == 0 {
		P = layer.P * math.Exp(-standardGravity*dH/(gasConstantAir*layer.T))
	} else {
		P = layer.P * math.Pow(layer.T/Tstd, standardGravity/(gasConstantAir*layer.L))
	}
	T := Tstd + a.offset
	return AtmosphereConditions{
		Temperature:  T,
		Pressure:     P,
		Density:      P / (gasConstantAir * T),
		SpeedOfSound: math.Sqrt(heatCapacityRate * gasConstantAir * T),
		Viscosity:    sutherlandβ * math.Pow(T, 1.5) / (T + sutherlandS),
	}
}
