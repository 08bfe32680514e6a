package training

import "time"

// maxTitleLen matches the title column width; track names longer than this
// are truncated when they seed the title.
const maxTitleLen = 100

var validActivityTypes = map[string]bool{
	"running":  true,
	"cycling":  true,
	"swimming": true,
	"walking":  true,
	"hiking":   true,
	"other":    true,
}

// Session is one recorded workout, created either from an uploaded activity
// file or by manual entry. Optional metrics are pointers; nil means the
// value is unknown, not zero.
type Session struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	ActivityType    string     `json:"activity_type"`
	Filename        string     `json:"filename,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	DurationSec     *int64     `json:"duration_sec,omitempty"`
	DistanceKm      *float64   `json:"distance_km,omitempty"`
	AvgSpeedKmh     *float64   `json:"avg_speed_kmh,omitempty"`
	MaxSpeedKmh     *float64   `json:"max_speed_kmh,omitempty"`
	AvgHeartRate    *float64   `json:"avg_heart_rate,omitempty"`
	MaxHeartRate    *float64   `json:"max_heart_rate,omitempty"`
	ElevationGainM  *float64   `json:"elevation_gain_m,omitempty"`
	Calories        *int       `json:"calories,omitempty"`
	AvgCadence      *float64   `json:"avg_cadence,omitempty"`
	MaxCadence      *float64   `json:"max_cadence,omitempty"`
	AvgTemperature  *float64   `json:"avg_temperature,omitempty"`
	MinTemperature  *float64   `json:"min_temperature,omitempty"`
	MaxTemperature  *float64   `json:"max_temperature,omitempty"`
	FileProcessed   bool       `json:"file_processed"`
	ProcessingError *string    `json:"processing_error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TrackPoint is one timestamped GPS sample belonging to a session. Points
// are written once per ingestion, in bulk, and removed by cascade when the
// session is deleted.
type TrackPoint struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	ElevationM  *float64  `json:"elevation_m,omitempty"`
	Time        time.Time `json:"time"`
	HeartRate   *int      `json:"heart_rate,omitempty"`
	SpeedKmh    *float64  `json:"speed_kmh,omitempty"`
	Cadence     *int      `json:"cadence,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}
