package activityfile

import (
	"encoding/xml"

	"github.com/JuanmaOrdPer/AthCyl/internal/shared/geo"
)

type gpxFile struct {
	XMLName xml.Name   `xml:"gpx"`
	Tracks  []gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Name     string       `xml:"name"`
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

// Numeric point fields are decoded as strings so one unparsable value
// drops that point instead of failing the whole document.
type gpxPoint struct {
	Lat        string        `xml:"lat,attr"`
	Lon        string        `xml:"lon,attr"`
	Elevation  string        `xml:"ele"`
	Time       string        `xml:"time"`
	Extensions xmlAnyElement `xml:"extensions"`
}

// Candidate extension tag spellings per field, tried in order. Garmin writes
// gpxtpx:hr / gpxtpx:cad / gpxtpx:atemp inside TrackPointExtension, other
// exporters spell the fields out; matching is on local name only so the
// namespace prefix does not matter.
var (
	gpxHeartRateTags = []string{"hr", "heartrate"}
	gpxCadenceTags   = []string{"cad", "cadence"}
	gpxTempTags      = []string{"atemp", "temp"}
)

// ParseGPX reads a GPX 1.1 track/segment/point hierarchy. Points without a
// parseable timestamp or coordinate pair are dropped; per-point speed is
// derived from the distance and time delta to the previous kept point.
func ParseGPX(data []byte) (*ParsedActivity, error) {
	var doc gpxFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, classifyXMLError(err)
	}

	parsed := &ParsedActivity{}
	for _, track := range doc.Tracks {
		if track.Name != "" && parsed.Title == "" {
			parsed.Title = track.Name
		}

		for _, segment := range track.Segments {
			var prev *RawPoint
			for _, pt := range segment.Points {
				ts := parseTimeSafe(pt.Time)
				if ts.IsZero() {
					continue
				}
				lat, latOK := parseFloatSafe(pt.Lat)
				lng, lngOK := parseFloatSafe(pt.Lon)
				if !latOK || !lngOK {
					continue
				}

				point := RawPoint{
					Lat:  lat,
					Lng:  lng,
					Time: ts,
				}
				if elev, ok := parseFloatSafe(pt.Elevation); ok {
					point.ElevationM = floatPtr(elev)
				}

				if v, ok := findByLocalName(pt.Extensions.Children, gpxHeartRateTags); ok {
					if hr, ok := parseFloatSafe(v); ok {
						point.HeartRate = intPtr(int(hr))
					}
				}
				if v, ok := findByLocalName(pt.Extensions.Children, gpxCadenceTags); ok {
					if cad, ok := parseFloatSafe(v); ok {
						point.Cadence = intPtr(int(cad))
					}
				}
				if v, ok := findByLocalName(pt.Extensions.Children, gpxTempTags); ok {
					if temp, ok := parseFloatSafe(v); ok {
						point.Temperature = floatPtr(temp)
					}
				}

				if prev != nil {
					distM := geo.DistanceM(prev.Lat, prev.Lng, point.Lat, point.Lng)
					seconds := point.Time.Sub(prev.Time).Seconds()
					if seconds > 0 {
						point.SpeedKmh = floatPtr(geo.SpeedKmh(distM, seconds))
					}
				}

				parsed.Points = append(parsed.Points, point)
				prev = &parsed.Points[len(parsed.Points)-1]
			}
		}
	}

	if len(parsed.Points) == 0 {
		return nil, ErrNoDataPoints
	}
	return parsed, nil
}
