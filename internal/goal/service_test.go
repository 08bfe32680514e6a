package goal

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

func floatPtr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64     { return &v }

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func goalColumnNames() []string {
	return []string{"id", "user_id", "title", "metric_type", "target_value", "period_type",
		"start_date", "end_date", "is_active", "is_completed", "created_at", "updated_at"}
}

func goalRow(id, metricType string, target float64, periodType string, completed bool) []any {
	return []any{id, "user-1", "Weekly distance", metricType, target, periodType,
		nil, nil, true, completed, time.Now(), time.Now()}
}

func fixedNow() time.Time {
	// A Wednesday; the containing week runs Mon 2025-06-02 to Sun 2025-06-08.
	return time.Date(2025, 6, 4, 15, 0, 0, 0, time.UTC)
}

func TestCreateGoalValidation(t *testing.T) {
	svc := NewService(nil)

	cases := []Goal{
		{MetricType: "steps", TargetValue: 10, PeriodType: "weekly"},
		{MetricType: "distance", TargetValue: 10, PeriodType: "hourly"},
		{MetricType: "distance", TargetValue: 0, PeriodType: "weekly"},
		{MetricType: "distance", TargetValue: 10, PeriodType: "custom"},
	}
	for _, g := range cases {
		if _, err := svc.CreateGoal(context.Background(), g); err == nil {
			t.Fatalf("expected validation error for %+v", g)
		}
	}
}

func TestCreateGoal(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO goals`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Weekly distance", "distance", 40.0, "weekly",
			pgxmock.AnyArg(), pgxmock.AnyArg(), true, false).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	svc := NewService(mock)
	goal, err := svc.CreateGoal(context.Background(), Goal{
		UserID:      "user-1",
		Title:       "Weekly distance",
		MetricType:  "distance",
		TargetValue: 40,
		PeriodType:  "weekly",
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if !goal.IsActive || goal.IsCompleted {
		t.Fatalf("new goal flags: %+v", goal)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateGoal(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, title, metric_type`).
		WithArgs("goal-1").
		WillReturnRows(pgxmock.NewRows(goalColumnNames()).AddRow(goalRow("goal-1", "distance", 40.0, "weekly", false)...))
	mock.ExpectExec(`UPDATE goals`).
		WithArgs("goal-1", "Bigger week", "distance", 60.0, "weekly", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock)
	updated, err := svc.UpdateGoal(context.Background(), "goal-1", Goal{Title: "Bigger week", TargetValue: 60})
	if err != nil {
		t.Fatalf("update goal: %v", err)
	}
	if updated.Title != "Bigger week" || updated.TargetValue != 60 {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.MetricType != "distance" || updated.PeriodType != "weekly" {
		t.Fatalf("untouched fields must survive: %+v", updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateGoalRejectsInvalidPatch(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, title, metric_type`).
		WillReturnRows(pgxmock.NewRows(goalColumnNames()).AddRow(goalRow("goal-1", "distance", 40.0, "weekly", false)...))

	svc := NewService(mock)
	if _, err := svc.UpdateGoal(context.Background(), "goal-1", Goal{MetricType: "steps"}); err == nil {
		t.Fatalf("expected invalid metric type error")
	}
}

func TestProgressWeeklyDistance(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	weekStart := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, user_id, title, metric_type`).
		WithArgs("goal-1").
		WillReturnRows(pgxmock.NewRows(goalColumnNames()).AddRow(goalRow("goal-1", "distance", 40.0, "weekly", false)...))
	mock.ExpectQuery(`SELECT distance_km, duration_sec, avg_speed_kmh`).
		WithArgs("user-1", weekStart, weekStart.AddDate(0, 0, 7)).
		WillReturnRows(pgxmock.NewRows([]string{"distance_km", "duration_sec", "avg_speed_kmh"}).
			AddRow(floatPtr(10), int64Ptr(3600), nil).
			AddRow(floatPtr(15), int64Ptr(5400), nil))

	svc := NewService(mock)
	svc.nowFn = fixedNow

	progress, err := svc.Progress(context.Background(), "goal-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.CurrentValue != 25 || progress.TargetValue != 40 {
		t.Fatalf("values: %+v", progress)
	}
	if progress.Percent != 62.5 {
		t.Fatalf("percent: %v", progress.Percent)
	}
	if progress.Completed {
		t.Fatalf("unfinished goal marked completed")
	}
	if !progress.WindowStart.Equal(weekStart) {
		t.Fatalf("weekly window must start on Monday: %v", progress.WindowStart)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProgressReachingTargetMarksCompleted(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, title, metric_type`).
		WithArgs("goal-1").
		WillReturnRows(pgxmock.NewRows(goalColumnNames()).AddRow(goalRow("goal-1", "distance", 20.0, "weekly", false)...))
	mock.ExpectQuery(`SELECT distance_km, duration_sec, avg_speed_kmh`).
		WithArgs(anyArgs(3)...).
		WillReturnRows(pgxmock.NewRows([]string{"distance_km", "duration_sec", "avg_speed_kmh"}).
			AddRow(floatPtr(25), nil, nil))
	mock.ExpectExec(`UPDATE goals SET is_completed=true`).
		WithArgs("goal-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock)
	svc.nowFn = fixedNow

	progress, err := svc.Progress(context.Background(), "goal-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !progress.Completed {
		t.Fatalf("target reached but not completed")
	}
	if progress.Percent != 100 {
		t.Fatalf("percent must cap at 100: %v", progress.Percent)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProgressAlreadyCompletedDoesNotRewrite(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, title, metric_type`).
		WithArgs("goal-1").
		WillReturnRows(pgxmock.NewRows(goalColumnNames()).AddRow(goalRow("goal-1", "distance", 20.0, "weekly", true)...))
	mock.ExpectQuery(`SELECT distance_km, duration_sec, avg_speed_kmh`).
		WithArgs(anyArgs(3)...).
		WillReturnRows(pgxmock.NewRows([]string{"distance_km", "duration_sec", "avg_speed_kmh"}).
			AddRow(floatPtr(25), nil, nil))

	svc := NewService(mock)
	svc.nowFn = fixedNow

	progress, err := svc.Progress(context.Background(), "goal-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !progress.Completed {
		t.Fatalf("completed flag lost")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("completed goal must not be rewritten: %v", err)
	}
}

func TestProgressMetricReductions(t *testing.T) {
	cases := []struct {
		metric string
		want   float64
	}{
		{"duration", 150}, // 3600s + 5400s in minutes
		{"frequency", 2},
		{"speed", 12}, // mean of 10 and 14
	}

	for _, tc := range cases {
		mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
		if err != nil {
			t.Fatalf("mock pool: %v", err)
		}

		mock.ExpectQuery(`SELECT id, user_id, title, metric_type`).
			WithArgs(anyArgs(1)...).
			WillReturnRows(pgxmock.NewRows(goalColumnNames()).AddRow(goalRow("goal-1", tc.metric, 1000.0, "monthly", false)...))
		mock.ExpectQuery(`SELECT distance_km, duration_sec, avg_speed_kmh`).
			WithArgs(anyArgs(3)...).
			WillReturnRows(pgxmock.NewRows([]string{"distance_km", "duration_sec", "avg_speed_kmh"}).
				AddRow(floatPtr(10), int64Ptr(3600), floatPtr(10)).
				AddRow(floatPtr(15), int64Ptr(5400), floatPtr(14)))

		svc := NewService(mock)
		svc.nowFn = fixedNow

		progress, err := svc.Progress(context.Background(), "goal-1")
		if err != nil {
			t.Fatalf("%s progress: %v", tc.metric, err)
		}
		if progress.CurrentValue != tc.want {
			t.Fatalf("%s reduction: got %v, want %v", tc.metric, progress.CurrentValue, tc.want)
		}
		mock.Close()
	}
}

func TestProgressCustomWindow(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	row := goalRow("goal-1", "frequency", 10.0, "custom", false)
	row[6] = &start
	row[7] = &end

	mock.ExpectQuery(`SELECT id, user_id, title, metric_type`).
		WithArgs(anyArgs(1)...).
		WillReturnRows(pgxmock.NewRows(goalColumnNames()).AddRow(row...))
	mock.ExpectQuery(`SELECT distance_km, duration_sec, avg_speed_kmh`).
		WithArgs("user-1", start, end.AddDate(0, 0, 1)).
		WillReturnRows(pgxmock.NewRows([]string{"distance_km", "duration_sec", "avg_speed_kmh"}))

	svc := NewService(mock)
	svc.nowFn = fixedNow

	progress, err := svc.Progress(context.Background(), "goal-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	// The custom end date is inclusive, so the window extends one day past it.
	if !progress.WindowEnd.Equal(end.AddDate(0, 0, 1)) {
		t.Fatalf("custom window end: %v", progress.WindowEnd)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
