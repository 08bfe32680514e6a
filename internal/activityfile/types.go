package activityfile

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

// RawPoint is one GPS fix as read from an uploaded file, before persistence.
type RawPoint struct {
	Lat         float64
	Lng         float64
	ElevationM  *float64
	Time        time.Time
	HeartRate   *int
	SpeedKmh    *float64
	Cadence     *int
	Temperature *float64
}

// Summary holds the session-level fields a format supplied directly.
// Nil fields are filled in later by metric derivation, or left unset.
type Summary struct {
	ActivityType   *string
	StartTime      *time.Time
	DurationSec    *int64
	DistanceKm     *float64
	AvgSpeedKmh    *float64
	MaxSpeedKmh    *float64
	AvgHeartRate   *float64
	MaxHeartRate   *float64
	ElevationGainM *float64
	Calories       *int
}

// ParsedActivity is the common output of all three format parsers.
type ParsedActivity struct {
	Title   string
	Summary Summary
	Points  []RawPoint
}

// xmlAnyElement captures extension subtrees whose namespace prefix varies by
// exporting device. Fields are located afterwards by local tag name.
type xmlAnyElement struct {
	XMLName  xml.Name
	Value    string          `xml:",chardata"`
	Children []xmlAnyElement `xml:",any"`
}

// findByLocalName walks the element tree and returns the text of the first
// element whose local name matches any of the candidates, tried in order.
func findByLocalName(elements []xmlAnyElement, candidates []string) (string, bool) {
	for _, want := range candidates {
		if v, ok := findOne(elements, want); ok {
			return v, true
		}
	}
	return "", false
}

func findOne(elements []xmlAnyElement, name string) (string, bool) {
	for _, el := range elements {
		if strings.EqualFold(el.XMLName.Local, name) && strings.TrimSpace(el.Value) != "" {
			return strings.TrimSpace(el.Value), true
		}
		if v, ok := findOne(el.Children, name); ok {
			return v, true
		}
	}
	return "", false
}

// xml timestamps come in a few flavors depending on the exporter.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
}

func parseTimeSafe(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

// parseFloatSafe is the per-point numeric decoder: a value that fails to
// parse is reported as absent, never as a document error.
func parseFloatSafe(value string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
