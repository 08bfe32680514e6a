package goal

import "time"

var validMetricTypes = map[string]bool{
	"distance":  true,
	"duration":  true,
	"frequency": true,
	"speed":     true,
}

var validPeriodTypes = map[string]bool{
	"daily":   true,
	"weekly":  true,
	"monthly": true,
	"yearly":  true,
	"custom":  true,
}

// Goal is a user target over a recurring or custom window. Progress is
// never stored; it is derived from the sessions at read time. Units by
// metric type: distance km, duration minutes, frequency session count,
// speed km/h (averaged).
type Goal struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	MetricType  string     `json:"metric_type"`
	TargetValue float64    `json:"target_value"`
	PeriodType  string     `json:"period_type"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	IsActive    bool       `json:"is_active"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Progress is the read-time evaluation of a goal against its current
// window. Percent is capped at 100.
type Progress struct {
	GoalID       string    `json:"goal_id"`
	MetricType   string    `json:"metric_type"`
	CurrentValue float64   `json:"current_value"`
	TargetValue  float64   `json:"target_value"`
	Percent      float64   `json:"percent"`
	Completed    bool      `json:"completed"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
}
