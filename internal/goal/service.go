package goal

import (
	"context"
	"fmt"
	"time"

	"github.com/JuanmaOrdPer/AthCyl/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db    db.Querier
	nowFn func() time.Time
}

func NewService(q db.Querier) *Service {
	return &Service{db: q, nowFn: time.Now}
}

const goalColumns = `id, user_id, title, metric_type, target_value, period_type,
	start_date, end_date, is_active, is_completed, created_at, updated_at`

func (s *Service) CreateGoal(ctx context.Context, goal Goal) (Goal, error) {
	if !validMetricTypes[goal.MetricType] {
		return Goal{}, fmt.Errorf("invalid metric type: %s", goal.MetricType)
	}
	if !validPeriodTypes[goal.PeriodType] {
		return Goal{}, fmt.Errorf("invalid period type: %s", goal.PeriodType)
	}
	if goal.TargetValue <= 0 {
		return Goal{}, fmt.Errorf("target value must be positive")
	}
	if goal.PeriodType == "custom" && (goal.StartDate == nil || goal.EndDate == nil) {
		return Goal{}, fmt.Errorf("custom goals need start_date and end_date")
	}

	goal.ID = uuid.NewString()
	goal.IsActive = true
	goal.IsCompleted = false

	row := s.db.QueryRow(ctx, `
		INSERT INTO goals (id, user_id, title, metric_type, target_value, period_type, start_date, end_date, is_active, is_completed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at
	`, goal.ID, goal.UserID, goal.Title, goal.MetricType, goal.TargetValue, goal.PeriodType,
		goal.StartDate, goal.EndDate, goal.IsActive, goal.IsCompleted)
	if err := row.Scan(&goal.CreatedAt, &goal.UpdatedAt); err != nil {
		return Goal{}, err
	}
	return goal, nil
}

func (s *Service) GetGoal(ctx context.Context, id string) (Goal, error) {
	row := s.db.QueryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE id=$1`, id)
	return scanGoal(row)
}

func (s *Service) Goals(ctx context.Context, userID string) ([]Goal, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+goalColumns+` FROM goals WHERE user_id=$1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

// UpdateGoal patches the user-editable fields. The completion flag is not
// touched here; only a progress read sets it.
func (s *Service) UpdateGoal(ctx context.Context, id string, patch Goal) (Goal, error) {
	goal, err := s.GetGoal(ctx, id)
	if err != nil {
		return Goal{}, err
	}

	if patch.Title != "" {
		goal.Title = patch.Title
	}
	if patch.MetricType != "" {
		if !validMetricTypes[patch.MetricType] {
			return Goal{}, fmt.Errorf("invalid metric type: %s", patch.MetricType)
		}
		goal.MetricType = patch.MetricType
	}
	if patch.PeriodType != "" {
		if !validPeriodTypes[patch.PeriodType] {
			return Goal{}, fmt.Errorf("invalid period type: %s", patch.PeriodType)
		}
		goal.PeriodType = patch.PeriodType
	}
	if patch.TargetValue != 0 {
		if patch.TargetValue < 0 {
			return Goal{}, fmt.Errorf("target value must be positive")
		}
		goal.TargetValue = patch.TargetValue
	}
	if patch.StartDate != nil {
		goal.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		goal.EndDate = patch.EndDate
	}
	if goal.PeriodType == "custom" && (goal.StartDate == nil || goal.EndDate == nil) {
		return Goal{}, fmt.Errorf("custom goals need start_date and end_date")
	}

	_, err = s.db.Exec(ctx, `
		UPDATE goals
		SET title=$2, metric_type=$3, target_value=$4, period_type=$5, start_date=$6, end_date=$7, updated_at=now()
		WHERE id=$1
	`, goal.ID, goal.Title, goal.MetricType, goal.TargetValue, goal.PeriodType, goal.StartDate, goal.EndDate)
	if err != nil {
		return Goal{}, err
	}
	return goal, nil
}

func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM goals WHERE id=$1`, id)
	return err
}

// SetActive pauses or resumes a goal without touching its progress state.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	_, err := s.db.Exec(ctx, `UPDATE goals SET is_active=$2, updated_at=now() WHERE id=$1`, id, active)
	return err
}

// Progress evaluates the goal against its current window. Reaching the
// target marks the goal completed as a side effect of the read; the flag
// is written once and never cleared by a later short window.
func (s *Service) Progress(ctx context.Context, goalID string) (Progress, error) {
	goal, err := s.GetGoal(ctx, goalID)
	if err != nil {
		return Progress{}, err
	}

	start, end := s.window(goal)
	current, err := s.reduce(ctx, goal, start, end)
	if err != nil {
		return Progress{}, err
	}

	progress := Progress{
		GoalID:       goal.ID,
		MetricType:   goal.MetricType,
		CurrentValue: current,
		TargetValue:  goal.TargetValue,
		Completed:    goal.IsCompleted,
		WindowStart:  start,
		WindowEnd:    end,
	}
	if goal.TargetValue > 0 {
		progress.Percent = current / goal.TargetValue * 100
		if progress.Percent > 100 {
			progress.Percent = 100
		}
	}

	if current >= goal.TargetValue && !goal.IsCompleted {
		if _, err := s.db.Exec(ctx, `
			UPDATE goals SET is_completed=true, updated_at=now() WHERE id=$1
		`, goal.ID); err != nil {
			return Progress{}, err
		}
		progress.Completed = true
	}
	return progress, nil
}

// window returns the half-open [start, end) date range the goal is
// currently measured over. Weeks run Monday to Sunday; months and years
// are calendar-aligned; custom goals carry their own range.
func (s *Service) window(goal Goal) (time.Time, time.Time) {
	now := s.nowFn().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch goal.PeriodType {
	case "daily":
		return today, today.AddDate(0, 0, 1)
	case "weekly":
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case "monthly":
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	case "yearly":
		start := time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0)
	case "custom":
		return *goal.StartDate, goal.EndDate.AddDate(0, 0, 1)
	}
	return today, today.AddDate(0, 0, 1)
}

// reduce folds the window's sessions by the goal's metric type.
func (s *Service) reduce(ctx context.Context, goal Goal, start, end time.Time) (float64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT distance_km, duration_sec, avg_speed_kmh
		FROM trainings
		WHERE user_id=$1 AND date >= $2 AND date < $3
	`, goal.UserID, start, end)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var current, speedSum, speedN float64
	for rows.Next() {
		var distance *float64
		var duration *int64
		var avgSpeed *float64
		if err := rows.Scan(&distance, &duration, &avgSpeed); err != nil {
			return 0, err
		}

		switch goal.MetricType {
		case "distance":
			if distance != nil {
				current += *distance
			}
		case "duration":
			if duration != nil {
				current += float64(*duration) / 60
			}
		case "frequency":
			current++
		case "speed":
			if avgSpeed != nil {
				speedSum += *avgSpeed
				speedN++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if goal.MetricType == "speed" && speedN > 0 {
		current = speedSum / speedN
	}
	return current, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (Goal, error) {
	var g Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.MetricType, &g.TargetValue, &g.PeriodType,
		&g.StartDate, &g.EndDate, &g.IsActive, &g.IsCompleted, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return Goal{}, err
	}
	return g, nil
}
