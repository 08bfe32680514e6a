package training

import (
	"time"

	"github.com/JuanmaOrdPer/AthCyl/internal/activityfile"
	"github.com/JuanmaOrdPer/AthCyl/internal/shared/geo"
)

// applyDerivedStats fills every summary field of the session the parser did
// not supply, from the parsed points and the user's weight. It is a pure
// transform over its inputs: no storage access, deterministic, safe to run
// twice. weightKg nil means no calorie estimate is made, ever — the caller
// owns any fallback.
func applyDerivedStats(s *Session, parsed *activityfile.ParsedActivity, weightKg *float64) {
	summary := parsed.Summary
	points := parsed.Points

	if summary.ActivityType != nil {
		s.ActivityType = *summary.ActivityType
	}
	if s.ActivityType == "" {
		s.ActivityType = "running"
	}

	start := summary.StartTime
	if start == nil && len(points) > 0 {
		start = &points[0].Time
	}
	if start != nil {
		t := start.UTC()
		s.StartTime = &t
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		s.Date = &day
	}

	s.DurationSec = summary.DurationSec
	if s.DurationSec == nil && len(points) >= 2 {
		secs := int64(points[len(points)-1].Time.Sub(points[0].Time).Seconds())
		if secs > 0 {
			s.DurationSec = &secs
		}
	}

	s.DistanceKm = summary.DistanceKm
	if s.DistanceKm == nil && len(points) >= 2 {
		meters := 0.0
		for i := 1; i < len(points); i++ {
			prev, cur := points[i-1], points[i]
			if prev.ElevationM != nil && cur.ElevationM != nil {
				meters += geo.Distance3DM(prev.Lat, prev.Lng, *prev.ElevationM, cur.Lat, cur.Lng, *cur.ElevationM)
			} else {
				meters += geo.DistanceM(prev.Lat, prev.Lng, cur.Lat, cur.Lng)
			}
		}
		km := meters / 1000
		s.DistanceKm = &km
	}

	var speeds, heartRates, cadences, temperatures, elevations []float64
	for _, p := range points {
		if p.SpeedKmh != nil {
			speeds = append(speeds, *p.SpeedKmh)
		}
		if p.HeartRate != nil {
			heartRates = append(heartRates, float64(*p.HeartRate))
		}
		if p.Cadence != nil {
			cadences = append(cadences, float64(*p.Cadence))
		}
		if p.Temperature != nil {
			temperatures = append(temperatures, *p.Temperature)
		}
		if p.ElevationM != nil {
			elevations = append(elevations, *p.ElevationM)
		}
	}

	s.AvgSpeedKmh = summary.AvgSpeedKmh
	if s.AvgSpeedKmh == nil {
		if len(speeds) > 0 {
			s.AvgSpeedKmh = floatPtr(mean(speeds))
		} else if s.DistanceKm != nil && s.DurationSec != nil && *s.DurationSec > 0 {
			hours := float64(*s.DurationSec) / 3600
			s.AvgSpeedKmh = floatPtr(*s.DistanceKm / hours)
		}
	}
	s.MaxSpeedKmh = summary.MaxSpeedKmh
	if s.MaxSpeedKmh == nil && len(speeds) > 0 {
		s.MaxSpeedKmh = floatPtr(maxOf(speeds))
	}

	s.AvgHeartRate = summary.AvgHeartRate
	if s.AvgHeartRate == nil && len(heartRates) > 0 {
		s.AvgHeartRate = floatPtr(mean(heartRates))
	}
	s.MaxHeartRate = summary.MaxHeartRate
	if s.MaxHeartRate == nil && len(heartRates) > 0 {
		s.MaxHeartRate = floatPtr(maxOf(heartRates))
	}

	if len(cadences) > 0 {
		s.AvgCadence = floatPtr(mean(cadences))
		s.MaxCadence = floatPtr(maxOf(cadences))
	}
	if len(temperatures) > 0 {
		s.AvgTemperature = floatPtr(mean(temperatures))
		s.MinTemperature = floatPtr(minOf(temperatures))
		s.MaxTemperature = floatPtr(maxOf(temperatures))
	}

	s.ElevationGainM = summary.ElevationGainM
	if s.ElevationGainM == nil && len(elevations) >= 2 {
		s.ElevationGainM = floatPtr(geo.ElevationGainM(elevations))
	}

	s.Calories = summary.Calories
	if s.Calories == nil && weightKg != nil && s.DurationSec != nil {
		kcal := geo.EstimateCalories(s.ActivityType, *weightKg, time.Duration(*s.DurationSec)*time.Second)
		s.Calories = &kcal
	}
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func floatPtr(v float64) *float64 { return &v }
