package stats

import "time"

// UserStats is the one-row-per-user lifetime aggregate. Every field is
// recomputed from the full session set on each change; nothing here is
// incrementally patched.
type UserStats struct {
	UserID             string     `json:"user_id"`
	TotalSessions      int        `json:"total_sessions"`
	TotalDistanceKm    float64    `json:"total_distance_km"`
	TotalDurationSec   int64      `json:"total_duration_sec"`
	TotalCalories      int        `json:"total_calories"`
	TotalElevationGain float64    `json:"total_elevation_gain_m"`
	AvgDistanceKm      float64    `json:"avg_distance_km"`
	AvgDurationSec     float64    `json:"avg_duration_sec"`
	AvgSpeedKmh        float64    `json:"avg_speed_kmh"`
	AvgHeartRate       float64    `json:"avg_heart_rate"`
	LongestDistanceKm  float64    `json:"longest_distance_km"`
	LongestDurationSec int64      `json:"longest_duration_sec"`
	MaxSpeedKmh        float64    `json:"max_speed_kmh"`
	MaxElevationGainM  float64    `json:"max_elevation_gain_m"`
	FirstSessionDate   *time.Time `json:"first_session_date,omitempty"`
	LastSessionDate    *time.Time `json:"last_session_date,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ActivitySummary is one period bucket. period_key encodes the bucket
// identity within its period type ("2025-06-01", "2025-W23", "2025-06",
// "2025"); buckets for one user and period type are disjoint by date range.
type ActivitySummary struct {
	UserID           string    `json:"user_id"`
	PeriodType       string    `json:"period_type"`
	PeriodKey        string    `json:"period_key"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	TotalSessions    int       `json:"total_sessions"`
	TotalDistanceKm  float64   `json:"total_distance_km"`
	TotalDurationSec int64     `json:"total_duration_sec"`
	TotalCalories    int       `json:"total_calories"`
	AvgSpeedKmh      float64   `json:"avg_speed_kmh"`
	MaxSpeedKmh      float64   `json:"max_speed_kmh"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Overview is the dashboard read model: the last 30 days of activity plus
// the lifetime distribution of activity types.
type Overview struct {
	Last30DaysSessions    int            `json:"last_30_days_sessions"`
	Last30DaysDistanceKm  float64        `json:"last_30_days_distance_km"`
	Last30DaysDurationSec int64          `json:"last_30_days_duration_sec"`
	Last30DaysCalories    int            `json:"last_30_days_calories"`
	TypeDistribution      map[string]int `json:"type_distribution"`
}

// PeriodTypes are the supported bucket granularities, in rebucket order.
var PeriodTypes = []string{"daily", "weekly", "monthly", "yearly"}

func validPeriodType(pt string) bool {
	for _, p := range PeriodTypes {
		if p == pt {
			return true
		}
	}
	return false
}
