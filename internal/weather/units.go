package weather

import (
	"math"
	"strings"
)

const (
	knotsPerMeterPerSecond = 1.94384
	knotsPerMilePerHour    = 0.868976
)

// MetersPerSecondToKnots converts a speed in m/s to knots.
func MetersPerSecondToKnots(v float64) float64 {
	return v * knotsPerMeterPerSecond
}

// MilesPerHourToKnots converts a speed in mph to knots.
func MilesPerHourToKnots(v float64) float64 {
	return v * knotsPerMilePerHour
}

// NormalizeDegrees folds any bearing into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	// math.Mod(-0.0000001, 360) + 360 rounds to 360.
	if d >= 360 {
		d = 0
	}
	return d
}

// FlipDirection turns a bearing around by 180 degrees. Used for sources that
// report the bearing relative to south, or the direction the wind blows toward.
func FlipDirection(deg float64) float64 {
	return NormalizeDegrees(deg + 180)
}

var cardinalDegrees = map[string]float64{
	"N": 0, "NNE": 22.5, "NE": 45, "ENE": 67.5,
	"E": 90, "ESE": 112.5, "SE": 135, "SSE": 157.5,
	"S": 180, "SSW": 202.5, "SW": 225, "WSW": 247.5,
	"W": 270, "WNW": 292.5, "NW": 315, "NNW": 337.5,
}

// CardinalToDegrees maps a 16-point compass abbreviation to degrees.
// Unrecognized input yields UnknownDirection.
func CardinalToDegrees(s string) float64 {
	if deg, ok := cardinalDegrees[strings.TrimSpace(s)]; ok {
		return deg
	}
	return UnknownDirection
}
