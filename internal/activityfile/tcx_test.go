package activityfile

import (
	"errors"
	"math"
	"testing"
	"time"
)

const tcxSummaryOnly = `<?xml version="1.0" encoding="UTF-8"?>
<TrainingCenterDatabase xmlns="http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2">
  <Activities>
    <Activity Sport="Biking">
      <Id>2025-05-10T08:00:00Z</Id>
      <Lap StartTime="2025-05-10T08:00:00Z">
        <TotalTimeSeconds>1800</TotalTimeSeconds>
        <DistanceMeters>5000</DistanceMeters>
        <Calories>310</Calories>
      </Lap>
    </Activity>
  </Activities>
</TrainingCenterDatabase>`

func TestParseTCXSummaryOnly(t *testing.T) {
	parsed, err := ParseTCX([]byte(tcxSummaryOnly))
	if err != nil {
		t.Fatalf("parse tcx: %v", err)
	}
	if len(parsed.Points) != 0 {
		t.Fatalf("expected no points, got %d", len(parsed.Points))
	}
	if parsed.Summary.DurationSec == nil || *parsed.Summary.DurationSec != 1800 {
		t.Fatalf("expected duration 1800s")
	}
	if parsed.Summary.DistanceKm == nil || *parsed.Summary.DistanceKm != 5.0 {
		t.Fatalf("expected distance 5.0 km")
	}
	if parsed.Summary.Calories == nil || *parsed.Summary.Calories != 310 {
		t.Fatalf("expected calories 310")
	}
	if parsed.Summary.ActivityType == nil || *parsed.Summary.ActivityType != "cycling" {
		t.Fatalf("expected Biking to map to cycling")
	}
	want := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	if parsed.Summary.StartTime == nil || !parsed.Summary.StartTime.Equal(want) {
		t.Fatalf("expected start time from activity id")
	}
}

func TestParseTCXTrackpoints(t *testing.T) {
	tcx := `<?xml version="1.0"?>
<TrainingCenterDatabase>
  <Activities>
    <Activity Sport="Running">
      <Id>not-a-timestamp</Id>
      <Lap StartTime="2025-05-10T08:00:00Z">
        <TotalTimeSeconds>120</TotalTimeSeconds>
        <DistanceMeters>400</DistanceMeters>
        <MaximumSpeed>4.2</MaximumSpeed>
        <AverageHeartRateBpm><Value>140</Value></AverageHeartRateBpm>
        <MaximumHeartRateBpm><Value>161</Value></MaximumHeartRateBpm>
        <Track>
          <Trackpoint>
            <Time>2025-05-10T08:00:00Z</Time>
            <Position><LatitudeDegrees>41.65</LatitudeDegrees><LongitudeDegrees>-4.72</LongitudeDegrees></Position>
            <AltitudeMeters>700</AltitudeMeters>
            <HeartRateBpm><Value>139</Value></HeartRateBpm>
            <Extensions><TPX><Speed>3.5</Speed></TPX></Extensions>
          </Trackpoint>
          <Trackpoint>
            <Time>2025-05-10T08:00:30Z</Time>
          </Trackpoint>
          <Trackpoint>
            <Time>bad-time</Time>
            <Position><LatitudeDegrees>41.66</LatitudeDegrees><LongitudeDegrees>-4.72</LongitudeDegrees></Position>
          </Trackpoint>
        </Track>
      </Lap>
    </Activity>
  </Activities>
</TrainingCenterDatabase>`
	parsed, err := ParseTCX([]byte(tcx))
	if err != nil {
		t.Fatalf("parse tcx: %v", err)
	}
	// Pointless and timeless trackpoints are skipped, not fatal.
	if len(parsed.Points) != 1 {
		t.Fatalf("expected 1 usable point, got %d", len(parsed.Points))
	}
	p := parsed.Points[0]
	if p.HeartRate == nil || *p.HeartRate != 139 {
		t.Fatalf("hr not extracted")
	}
	if p.SpeedKmh == nil || math.Abs(*p.SpeedKmh-12.6) > 1e-9 {
		t.Fatalf("speed extension not converted to km/h")
	}
	// Lap start time is the fallback when the activity id isn't a timestamp.
	want := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	if parsed.Summary.StartTime == nil || !parsed.Summary.StartTime.Equal(want) {
		t.Fatalf("expected start time from lap")
	}
	if parsed.Summary.MaxSpeedKmh == nil || math.Abs(*parsed.Summary.MaxSpeedKmh-15.12) > 1e-9 {
		t.Fatalf("lap max speed not converted")
	}
	if parsed.Summary.AvgHeartRate == nil || *parsed.Summary.AvgHeartRate != 140 {
		t.Fatalf("lap avg hr missing")
	}
	if parsed.Summary.MaxHeartRate == nil || *parsed.Summary.MaxHeartRate != 161 {
		t.Fatalf("lap max hr missing")
	}
}

func TestParseTCXSkipsMalformedPoints(t *testing.T) {
	tcx := `<TrainingCenterDatabase>
  <Activities><Activity Sport="Running"><Id>2025-05-10T08:00:00Z</Id>
    <Lap StartTime="2025-05-10T08:00:00Z">
      <TotalTimeSeconds>600</TotalTimeSeconds>
      <Track>
        <Trackpoint>
          <Time>2025-05-10T08:00:00Z</Time>
          <Position><LatitudeDegrees>41.65</LatitudeDegrees><LongitudeDegrees>-4.72</LongitudeDegrees></Position>
        </Trackpoint>
        <Trackpoint>
          <Time>2025-05-10T08:01:00Z</Time>
          <Position><LatitudeDegrees>oops</LatitudeDegrees><LongitudeDegrees>-4.72</LongitudeDegrees></Position>
        </Trackpoint>
        <Trackpoint>
          <Time>2025-05-10T08:02:00Z</Time>
          <Position><LatitudeDegrees>41.66</LatitudeDegrees><LongitudeDegrees>-4.72</LongitudeDegrees></Position>
          <AltitudeMeters>bad</AltitudeMeters>
          <HeartRateBpm><Value>high</Value></HeartRateBpm>
        </Trackpoint>
      </Track>
    </Lap>
  </Activity></Activities>
</TrainingCenterDatabase>`
	parsed, err := ParseTCX([]byte(tcx))
	if err != nil {
		t.Fatalf("one bad trackpoint must not fail the file: %v", err)
	}
	if len(parsed.Points) != 2 {
		t.Fatalf("expected the bad coordinate dropped, got %d points", len(parsed.Points))
	}
	// Unparsable altitude and heart rate drop the field, not the point.
	if parsed.Points[1].ElevationM != nil || parsed.Points[1].HeartRate != nil {
		t.Fatalf("bad optional fields must be absent: %+v", parsed.Points[1])
	}
}

func TestParseTCXNoActivities(t *testing.T) {
	_, err := ParseTCX([]byte(`<TrainingCenterDatabase></TrainingCenterDatabase>`))
	if !errors.Is(err, ErrMalformedContainer) {
		t.Fatalf("expected ErrMalformedContainer, got %v", err)
	}
}

func TestParseTCXNoData(t *testing.T) {
	tcx := `<TrainingCenterDatabase><Activities><Activity Sport="Running"><Id>x</Id></Activity></Activities></TrainingCenterDatabase>`
	_, err := ParseTCX([]byte(tcx))
	if !errors.Is(err, ErrNoDataPoints) {
		t.Fatalf("expected ErrNoDataPoints, got %v", err)
	}
}
