package stats

import (
	"fmt"
	"time"
)

// periodWindow returns the bucket key and the half-open [start, end) date
// range containing date for the given period type. Weeks run Monday to
// Sunday (ISO 8601); months and years are calendar-aligned. All math is in
// UTC, matching how session dates are stored.
func periodWindow(periodType string, date time.Time) (key string, start, end time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	switch periodType {
	case "daily":
		return day.Format("2006-01-02"), day, day.AddDate(0, 0, 1)
	case "weekly":
		offset := (int(day.Weekday()) + 6) % 7 // days since Monday
		start = day.AddDate(0, 0, -offset)
		isoYear, isoWeek := day.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", isoYear, isoWeek), start, start.AddDate(0, 0, 7)
	case "monthly":
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01"), start, start.AddDate(0, 1, 0)
	case "yearly":
		start = time.Date(day.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return start.Format("2006"), start, start.AddDate(1, 0, 0)
	}
	return "", time.Time{}, time.Time{}
}

func inWindow(date, start, end time.Time) bool {
	return !date.Before(start) && date.Before(end)
}
