package activityfile

import (
	"encoding/xml"
	"strings"
)

type tcxFile struct {
	XMLName    xml.Name      `xml:"TrainingCenterDatabase"`
	Activities []tcxActivity `xml:"Activities>Activity"`
}

type tcxActivity struct {
	Sport string   `xml:"Sport,attr"`
	ID    string   `xml:"Id"`
	Laps  []tcxLap `xml:"Lap"`
}

type tcxLap struct {
	StartTime        string          `xml:"StartTime,attr"`
	TotalTimeSeconds float64         `xml:"TotalTimeSeconds"`
	DistanceMeters   float64         `xml:"DistanceMeters"`
	MaximumSpeed     *float64        `xml:"MaximumSpeed"`
	Calories         int             `xml:"Calories"`
	AvgHeartRate     *tcxHeartRate   `xml:"AverageHeartRateBpm"`
	MaxHeartRate     *tcxHeartRate   `xml:"MaximumHeartRateBpm"`
	Points           []tcxTrackpoint `xml:"Track>Trackpoint"`
}

// Per-point numeric fields are decoded as strings so one unparsable value
// drops that point (or that field) instead of failing the whole document.
type tcxHeartRate struct {
	Value string `xml:"Value"`
}

type tcxPosition struct {
	Lat string `xml:"LatitudeDegrees"`
	Lng string `xml:"LongitudeDegrees"`
}

type tcxTrackpoint struct {
	Time       string        `xml:"Time"`
	Position   *tcxPosition  `xml:"Position"`
	Altitude   string        `xml:"AltitudeMeters"`
	HeartRate  *tcxHeartRate `xml:"HeartRateBpm"`
	Cadence    string        `xml:"Cadence"`
	Extensions xmlAnyElement `xml:"Extensions"`
}

func heartRateValue(hr *tcxHeartRate) (float64, bool) {
	if hr == nil {
		return 0, false
	}
	return parseFloatSafe(hr.Value)
}

// tcxSpeedTags locates the m/s speed hidden in the activity extension
// (ns3:TPX>Speed on Garmin exports).
var tcxSpeedTags = []string{"speed"}

var activityTypeMap = map[string]string{
	"running":  "running",
	"biking":   "cycling",
	"cycling":  "cycling",
	"swimming": "swimming",
	"walking":  "walking",
	"hiking":   "hiking",
}

func normalizeActivityType(sport string) string {
	if mapped, ok := activityTypeMap[strings.ToLower(strings.TrimSpace(sport))]; ok {
		return mapped
	}
	return "other"
}

// ParseTCX reads one Activity with its Lap summary blocks and nested
// trackpoints. Lap summaries survive even when no trackpoint is usable, so a
// summary-only file still produces a valid session. Trackpoints lacking a
// parseable time or a position are skipped.
func ParseTCX(data []byte) (*ParsedActivity, error) {
	var doc tcxFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, classifyXMLError(err)
	}
	if len(doc.Activities) == 0 {
		return nil, ErrMalformedContainer
	}

	activity := doc.Activities[0]
	parsed := &ParsedActivity{}

	if activity.Sport != "" {
		kind := normalizeActivityType(activity.Sport)
		parsed.Summary.ActivityType = &kind
	}

	// The activity Id is a timestamp on Garmin exports; the first lap's
	// StartTime is the fallback. First valid one wins.
	if ts := parseTimeSafe(activity.ID); !ts.IsZero() {
		parsed.Summary.StartTime = &ts
	} else if len(activity.Laps) > 0 {
		if ts := parseTimeSafe(activity.Laps[0].StartTime); !ts.IsZero() {
			parsed.Summary.StartTime = &ts
		}
	}

	var (
		totalSeconds float64
		totalMeters  float64
		totalKcal    int
		maxSpeedMs   float64
		hasMaxSpeed  bool
		avgHRs       []float64
		maxHR        float64
	)

	for _, lap := range activity.Laps {
		totalSeconds += lap.TotalTimeSeconds
		totalMeters += lap.DistanceMeters
		totalKcal += lap.Calories
		if lap.MaximumSpeed != nil && *lap.MaximumSpeed > maxSpeedMs {
			maxSpeedMs = *lap.MaximumSpeed
			hasMaxSpeed = true
		}
		if hr, ok := heartRateValue(lap.AvgHeartRate); ok && hr > 0 {
			avgHRs = append(avgHRs, hr)
		}
		if hr, ok := heartRateValue(lap.MaxHeartRate); ok && hr > maxHR {
			maxHR = hr
		}

		for _, tp := range lap.Points {
			ts := parseTimeSafe(tp.Time)
			if ts.IsZero() || tp.Position == nil {
				continue
			}
			lat, latOK := parseFloatSafe(tp.Position.Lat)
			lng, lngOK := parseFloatSafe(tp.Position.Lng)
			if !latOK || !lngOK {
				continue
			}

			point := RawPoint{
				Lat:  lat,
				Lng:  lng,
				Time: ts,
			}
			if elev, ok := parseFloatSafe(tp.Altitude); ok {
				point.ElevationM = floatPtr(elev)
			}
			if cad, ok := parseFloatSafe(tp.Cadence); ok {
				point.Cadence = intPtr(int(cad))
			}
			if hr, ok := heartRateValue(tp.HeartRate); ok && hr > 0 {
				point.HeartRate = intPtr(int(hr))
			}
			if v, ok := findByLocalName(tp.Extensions.Children, tcxSpeedTags); ok {
				if speedMs, ok := parseFloatSafe(v); ok {
					point.SpeedKmh = floatPtr(speedMs * 3.6)
				}
			}

			parsed.Points = append(parsed.Points, point)
		}
	}

	if totalSeconds > 0 {
		secs := int64(totalSeconds)
		parsed.Summary.DurationSec = &secs
	}
	if totalMeters > 0 {
		parsed.Summary.DistanceKm = floatPtr(totalMeters / 1000)
	}
	if totalKcal > 0 {
		parsed.Summary.Calories = &totalKcal
	}
	if hasMaxSpeed {
		parsed.Summary.MaxSpeedKmh = floatPtr(maxSpeedMs * 3.6)
	}
	if len(avgHRs) > 0 {
		sum := 0.0
		for _, hr := range avgHRs {
			sum += hr
		}
		parsed.Summary.AvgHeartRate = floatPtr(sum / float64(len(avgHRs)))
	}
	if maxHR > 0 {
		parsed.Summary.MaxHeartRate = &maxHR
	}

	if len(parsed.Points) == 0 && len(activity.Laps) == 0 {
		return nil, ErrNoDataPoints
	}
	return parsed, nil
}
