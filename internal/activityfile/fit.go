package activityfile

import (
	"bytes"
	"fmt"

	"github.com/tormoder/fit"
)

// degrees = semicircles * 180 / 2^31
const semicirclesToDeg = 180.0 / 2147483648.0

// FIT invalid-value sentinels, per the FIT profile.
const (
	fitInvalidUint8  = 0xFF
	fitInvalidUint16 = 0xFFFF
	fitInvalidUint32 = 0xFFFFFFFF
	fitInvalidInt8   = 0x7F
)

// ParseFIT decodes a Garmin FIT activity. The session message is the
// authority for summary fields; record messages supply the per-point
// samples. Scalings follow the FIT profile: timer/elapsed ms, distance cm,
// speed mm/s, altitude in 1/5 m offset by 500.
func ParseFIT(data []byte) (*ParsedActivity, error) {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("%w: not an activity file: %v", ErrMalformedContainer, err)
	}

	parsed := &ParsedActivity{}

	if len(activity.Sessions) > 0 {
		s := activity.Sessions[0]

		if !s.StartTime.IsZero() {
			start := s.StartTime.UTC()
			parsed.Summary.StartTime = &start
		}
		if s.TotalElapsedTime != fitInvalidUint32 && s.TotalElapsedTime > 0 {
			secs := int64(s.TotalElapsedTime / 1000)
			parsed.Summary.DurationSec = &secs
		}
		if s.TotalDistance != fitInvalidUint32 && s.TotalDistance > 0 {
			parsed.Summary.DistanceKm = floatPtr(float64(s.TotalDistance) / 100 / 1000)
		}
		if s.TotalCalories != fitInvalidUint16 && s.TotalCalories > 0 {
			parsed.Summary.Calories = intPtr(int(s.TotalCalories))
		}
		if s.AvgSpeed != fitInvalidUint16 && s.AvgSpeed > 0 {
			parsed.Summary.AvgSpeedKmh = floatPtr(float64(s.AvgSpeed) / 1000 * 3.6)
		}
		if s.MaxSpeed != fitInvalidUint16 && s.MaxSpeed > 0 {
			parsed.Summary.MaxSpeedKmh = floatPtr(float64(s.MaxSpeed) / 1000 * 3.6)
		}
		if s.AvgHeartRate != fitInvalidUint8 && s.AvgHeartRate > 0 {
			parsed.Summary.AvgHeartRate = floatPtr(float64(s.AvgHeartRate))
		}
		if s.MaxHeartRate != fitInvalidUint8 && s.MaxHeartRate > 0 {
			parsed.Summary.MaxHeartRate = floatPtr(float64(s.MaxHeartRate))
		}
		if s.TotalAscent != fitInvalidUint16 && s.TotalAscent > 0 {
			parsed.Summary.ElevationGainM = floatPtr(float64(s.TotalAscent))
		}
		kind := normalizeActivityType(s.Sport.String())
		parsed.Summary.ActivityType = &kind
	}

	for _, rec := range activity.Records {
		if rec.Timestamp.IsZero() {
			continue
		}
		latSemi := rec.PositionLat.Semicircles()
		lngSemi := rec.PositionLong.Semicircles()
		if latSemi == 0 && lngSemi == 0 {
			continue
		}
		lat := float64(latSemi) * semicirclesToDeg
		lng := float64(lngSemi) * semicirclesToDeg
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			continue
		}

		point := RawPoint{
			Lat:  lat,
			Lng:  lng,
			Time: rec.Timestamp.UTC(),
		}
		if rec.Altitude != fitInvalidUint16 && rec.Altitude > 0 {
			point.ElevationM = floatPtr(float64(rec.Altitude)/5 - 500)
		}
		if rec.Speed != fitInvalidUint16 && rec.Speed > 0 {
			point.SpeedKmh = floatPtr(float64(rec.Speed) / 1000 * 3.6)
		}
		if rec.HeartRate != fitInvalidUint8 && rec.HeartRate > 0 {
			point.HeartRate = intPtr(int(rec.HeartRate))
		}
		if rec.Cadence != fitInvalidUint8 && rec.Cadence > 0 {
			point.Cadence = intPtr(int(rec.Cadence))
		}
		if rec.Temperature != fitInvalidInt8 {
			point.Temperature = floatPtr(float64(rec.Temperature))
		}

		parsed.Points = append(parsed.Points, point)
	}

	if len(parsed.Points) == 0 && len(activity.Sessions) == 0 {
		return nil, ErrNoDataPoints
	}
	return parsed, nil
}
