package geo

import (
	"math"
	"time"
)

const earthRadiusM = 6371000.0

// metValues maps activity types to their Metabolic Equivalent of Task,
// used for calorie estimation. Unknown activities fall back to 5.0.
var metValues = map[string]float64{
	"running":  8.0,
	"cycling":  6.0,
	"swimming": 7.0,
	"walking":  3.5,
	"hiking":   5.0,
	"other":    5.0,
}

// HaversineKm returns the great-circle distance in kilometers between two
// WGS84 coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c / 1000
}

// DistanceM returns the great-circle distance in meters.
func DistanceM(lat1, lng1, lat2, lng2 float64) float64 {
	return HaversineKm(lat1, lng1, lat2, lng2) * 1000
}

// Distance3DM combines the great-circle distance with the elevation delta.
// Callers without elevation data should use DistanceM instead.
func Distance3DM(lat1, lng1, elev1, lat2, lng2, elev2 float64) float64 {
	flat := DistanceM(lat1, lng1, lat2, lng2)
	dElev := elev2 - elev1
	return math.Sqrt(flat*flat + dElev*dElev)
}

// SpeedKmh converts a distance covered in the given number of seconds to
// km/h. Non-positive durations yield 0, never Inf or NaN.
func SpeedKmh(distanceM, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return distanceM / seconds * 3.6
}

// ElevationGainM sums the positive deltas of consecutive elevation samples.
// Sequences shorter than two samples gain nothing. Missing samples must be
// filtered out by the caller before this sees them.
func ElevationGainM(elevations []float64) float64 {
	if len(elevations) < 2 {
		return 0
	}
	gain := 0.0
	for i := 1; i < len(elevations); i++ {
		if d := elevations[i] - elevations[i-1]; d > 0 {
			gain += d
		}
	}
	return gain
}

// EstimateCalories estimates kcal burned as MET * weight * hours, truncated.
// The weight must be supplied by the caller; there is no implicit fallback
// here so the upload boundary stays in charge of defaulting.
func EstimateCalories(activityType string, weightKg float64, duration time.Duration) int {
	met, ok := metValues[activityType]
	if !ok {
		met = 5.0
	}
	return int(met * weightKg * duration.Hours())
}
