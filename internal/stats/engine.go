package stats

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/JuanmaOrdPer/AthCyl/internal/db"

	"github.com/redis/go-redis/v9"
)

const (
	userStatsKeyPrefix = "user_stats:"
	userStatsCacheTTL  = 5 * time.Minute
)

// Engine maintains the derived aggregates: the lifetime UserStats row and
// the ActivitySummary period buckets. Recomputes for the same user are
// serialized with a per-user mutex; different users recompute in parallel.
type Engine struct {
	db    db.Querier
	cache *redis.Client
	nowFn func() time.Time

	mu     sync.Mutex
	userMu map[string]*sync.Mutex
}

func NewEngine(q db.Querier, cache *redis.Client) *Engine {
	return &Engine{
		db:     q,
		cache:  cache,
		nowFn:  time.Now,
		userMu: make(map[string]*sync.Mutex),
	}
}

func (e *Engine) lockUser(userID string) func() {
	e.mu.Lock()
	m, ok := e.userMu[userID]
	if !ok {
		m = &sync.Mutex{}
		e.userMu[userID] = m
	}
	e.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// sessionMetrics is the slice of a session the aggregates are built from.
type sessionMetrics struct {
	Date           time.Time
	ActivityType   string
	DistanceKm     *float64
	DurationSec    *int64
	Calories       *int
	ElevationGainM *float64
	AvgSpeedKmh    *float64
	MaxSpeedKmh    *float64
	AvgHeartRate   *float64
}

func (e *Engine) loadDatedSessions(ctx context.Context, userID string) ([]sessionMetrics, error) {
	rows, err := e.db.Query(ctx, `
		SELECT date, activity_type, distance_km, duration_sec, calories,
		       elevation_gain_m, avg_speed_kmh, max_speed_kmh, avg_heart_rate
		FROM trainings
		WHERE user_id=$1 AND date IS NOT NULL
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []sessionMetrics
	for rows.Next() {
		var m sessionMetrics
		if err := rows.Scan(&m.Date, &m.ActivityType, &m.DistanceKm, &m.DurationSec, &m.Calories,
			&m.ElevationGainM, &m.AvgSpeedKmh, &m.MaxSpeedKmh, &m.AvgHeartRate); err != nil {
			return nil, err
		}
		sessions = append(sessions, m)
	}
	return sessions, rows.Err()
}

// OnSessionSaved recomputes the user's lifetime stats and the period
// buckets containing each affected date. Implements training.StatsUpdater.
// A failed recompute is logged, never swallowed; it is safe to retry since
// the whole operation is a pure recompute.
func (e *Engine) OnSessionSaved(ctx context.Context, userID string, dates ...time.Time) {
	if err := e.recompute(ctx, userID, dates); err != nil {
		log.Printf("stats recompute failed for user %s: %v", userID, err)
	}
}

// OnSessionDeleted is the same full recompute; a vanished session shrinks
// its old buckets exactly like an edit does.
func (e *Engine) OnSessionDeleted(ctx context.Context, userID string, dates ...time.Time) {
	if err := e.recompute(ctx, userID, dates); err != nil {
		log.Printf("stats recompute failed for user %s: %v", userID, err)
	}
}

func (e *Engine) recompute(ctx context.Context, userID string, dates []time.Time) error {
	unlock := e.lockUser(userID)
	defer unlock()

	sessions, err := e.loadDatedSessions(ctx, userID)
	if err != nil {
		return err
	}

	if err := e.storeUserStats(ctx, computeUserStats(userID, sessions)); err != nil {
		return err
	}
	for _, date := range dates {
		for _, pt := range PeriodTypes {
			if err := e.upsertBucket(ctx, userID, pt, date, sessions); err != nil {
				return err
			}
		}
	}
	e.invalidate(ctx, userID)
	return nil
}

// computeUserStats folds the full session set into one stats row. Averages
// are over sessions that carry the field, never over the whole count.
func computeUserStats(userID string, sessions []sessionMetrics) UserStats {
	stats := UserStats{UserID: userID, TotalSessions: len(sessions)}

	var speedSum, speedN, hrSum, hrN, distSum, distN, durSum, durN float64
	for _, s := range sessions {
		if stats.FirstSessionDate == nil || s.Date.Before(*stats.FirstSessionDate) {
			d := s.Date
			stats.FirstSessionDate = &d
		}
		if stats.LastSessionDate == nil || s.Date.After(*stats.LastSessionDate) {
			d := s.Date
			stats.LastSessionDate = &d
		}
		if s.DistanceKm != nil {
			stats.TotalDistanceKm += *s.DistanceKm
			distSum += *s.DistanceKm
			distN++
			if *s.DistanceKm > stats.LongestDistanceKm {
				stats.LongestDistanceKm = *s.DistanceKm
			}
		}
		if s.DurationSec != nil {
			stats.TotalDurationSec += *s.DurationSec
			durSum += float64(*s.DurationSec)
			durN++
			if *s.DurationSec > stats.LongestDurationSec {
				stats.LongestDurationSec = *s.DurationSec
			}
		}
		if s.Calories != nil {
			stats.TotalCalories += *s.Calories
		}
		if s.ElevationGainM != nil {
			stats.TotalElevationGain += *s.ElevationGainM
			if *s.ElevationGainM > stats.MaxElevationGainM {
				stats.MaxElevationGainM = *s.ElevationGainM
			}
		}
		if s.AvgSpeedKmh != nil {
			speedSum += *s.AvgSpeedKmh
			speedN++
		}
		if s.MaxSpeedKmh != nil && *s.MaxSpeedKmh > stats.MaxSpeedKmh {
			stats.MaxSpeedKmh = *s.MaxSpeedKmh
		}
		if s.AvgHeartRate != nil {
			hrSum += *s.AvgHeartRate
			hrN++
		}
	}

	if distN > 0 {
		stats.AvgDistanceKm = distSum / distN
	}
	if durN > 0 {
		stats.AvgDurationSec = durSum / durN
	}
	if speedN > 0 {
		stats.AvgSpeedKmh = speedSum / speedN
	}
	if hrN > 0 {
		stats.AvgHeartRate = hrSum / hrN
	}
	return stats
}

func (e *Engine) storeUserStats(ctx context.Context, stats UserStats) error {
	_, err := e.db.Exec(ctx, `
		INSERT INTO user_stats (user_id, total_sessions, total_distance_km, total_duration_sec, total_calories,
			total_elevation_gain_m, avg_distance_km, avg_duration_sec, avg_speed_kmh, avg_heart_rate,
			longest_distance_km, longest_duration_sec, max_speed_kmh, max_elevation_gain_m,
			first_session_date, last_session_date, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now())
		ON CONFLICT (user_id) DO UPDATE SET
			total_sessions=EXCLUDED.total_sessions, total_distance_km=EXCLUDED.total_distance_km,
			total_duration_sec=EXCLUDED.total_duration_sec, total_calories=EXCLUDED.total_calories,
			total_elevation_gain_m=EXCLUDED.total_elevation_gain_m, avg_distance_km=EXCLUDED.avg_distance_km,
			avg_duration_sec=EXCLUDED.avg_duration_sec, avg_speed_kmh=EXCLUDED.avg_speed_kmh,
			avg_heart_rate=EXCLUDED.avg_heart_rate, longest_distance_km=EXCLUDED.longest_distance_km,
			longest_duration_sec=EXCLUDED.longest_duration_sec, max_speed_kmh=EXCLUDED.max_speed_kmh,
			max_elevation_gain_m=EXCLUDED.max_elevation_gain_m, first_session_date=EXCLUDED.first_session_date,
			last_session_date=EXCLUDED.last_session_date, updated_at=now()
	`, stats.UserID, stats.TotalSessions, stats.TotalDistanceKm, stats.TotalDurationSec, stats.TotalCalories,
		stats.TotalElevationGain, stats.AvgDistanceKm, stats.AvgDurationSec, stats.AvgSpeedKmh, stats.AvgHeartRate,
		stats.LongestDistanceKm, stats.LongestDurationSec, stats.MaxSpeedKmh, stats.MaxElevationGainM,
		stats.FirstSessionDate, stats.LastSessionDate)
	return err
}

// upsertBucket rebuilds the single bucket containing date from the member
// sessions. An emptied bucket is deleted, so buckets always cover exactly
// the dated sessions.
func (e *Engine) upsertBucket(ctx context.Context, userID, periodType string, date time.Time, sessions []sessionMetrics) error {
	key, start, end := periodWindow(periodType, date)
	summary := computeSummary(userID, periodType, key, start, end, sessions)

	if summary.TotalSessions == 0 {
		_, err := e.db.Exec(ctx, `
			DELETE FROM activity_summaries WHERE user_id=$1 AND period_type=$2 AND period_key=$3
		`, userID, periodType, key)
		return err
	}

	_, err := e.db.Exec(ctx, `
		INSERT INTO activity_summaries (user_id, period_type, period_key, start_date, end_date,
			total_sessions, total_distance_km, total_duration_sec, total_calories, avg_speed_kmh, max_speed_kmh, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
		ON CONFLICT (user_id, period_type, period_key) DO UPDATE SET
			start_date=EXCLUDED.start_date, end_date=EXCLUDED.end_date,
			total_sessions=EXCLUDED.total_sessions, total_distance_km=EXCLUDED.total_distance_km,
			total_duration_sec=EXCLUDED.total_duration_sec, total_calories=EXCLUDED.total_calories,
			avg_speed_kmh=EXCLUDED.avg_speed_kmh, max_speed_kmh=EXCLUDED.max_speed_kmh, updated_at=now()
	`, summary.UserID, summary.PeriodType, summary.PeriodKey, summary.StartDate, summary.EndDate,
		summary.TotalSessions, summary.TotalDistanceKm, summary.TotalDurationSec, summary.TotalCalories,
		summary.AvgSpeedKmh, summary.MaxSpeedKmh)
	return err
}

func computeSummary(userID, periodType, key string, start, end time.Time, sessions []sessionMetrics) ActivitySummary {
	summary := ActivitySummary{UserID: userID, PeriodType: periodType, PeriodKey: key, StartDate: start, EndDate: end}

	var speedSum, speedN float64
	for _, s := range sessions {
		if !inWindow(s.Date, start, end) {
			continue
		}
		summary.TotalSessions++
		if s.DistanceKm != nil {
			summary.TotalDistanceKm += *s.DistanceKm
		}
		if s.DurationSec != nil {
			summary.TotalDurationSec += *s.DurationSec
		}
		if s.Calories != nil {
			summary.TotalCalories += *s.Calories
		}
		if s.AvgSpeedKmh != nil {
			speedSum += *s.AvgSpeedKmh
			speedN++
		}
		if s.MaxSpeedKmh != nil && *s.MaxSpeedKmh > summary.MaxSpeedKmh {
			summary.MaxSpeedKmh = *s.MaxSpeedKmh
		}
	}
	if speedN > 0 {
		summary.AvgSpeedKmh = speedSum / speedN
	}
	return summary
}

// Rebucket walks every distinct period key present in the user's dated
// sessions and rebuilds each bucket. Buckets are cheap to recompute at the
// expected volumes, so force is accepted but membership tracking is not
// attempted; every touched key is always recomputed.
func (e *Engine) Rebucket(ctx context.Context, userID string, periodTypes []string, force bool) error {
	if len(periodTypes) == 0 {
		periodTypes = PeriodTypes
	}

	unlock := e.lockUser(userID)
	defer unlock()

	sessions, err := e.loadDatedSessions(ctx, userID)
	if err != nil {
		return err
	}

	for _, pt := range periodTypes {
		if !validPeriodType(pt) {
			continue
		}
		seen := map[string]bool{}
		for _, s := range sessions {
			key, _, _ := periodWindow(pt, s.Date)
			if seen[key] {
				continue
			}
			seen[key] = true
			if err := e.upsertBucket(ctx, userID, pt, s.Date, sessions); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetUserStats reads the lifetime stats row, through the cache when one is
// configured. A user with no recorded sessions gets a zero-valued row, not
// an error.
func (e *Engine) GetUserStats(ctx context.Context, userID string) (UserStats, error) {
	if e.cache != nil {
		if raw, err := e.cache.Get(ctx, userStatsKeyPrefix+userID).Result(); err == nil {
			var stats UserStats
			if err := json.Unmarshal([]byte(raw), &stats); err == nil {
				return stats, nil
			}
		}
	}

	var stats UserStats
	row := e.db.QueryRow(ctx, `
		SELECT user_id, total_sessions, total_distance_km, total_duration_sec, total_calories,
		       total_elevation_gain_m, avg_distance_km, avg_duration_sec, avg_speed_kmh, avg_heart_rate,
		       longest_distance_km, longest_duration_sec, max_speed_kmh, max_elevation_gain_m,
		       first_session_date, last_session_date, updated_at
		FROM user_stats WHERE user_id=$1
	`, userID)
	err := row.Scan(&stats.UserID, &stats.TotalSessions, &stats.TotalDistanceKm, &stats.TotalDurationSec, &stats.TotalCalories,
		&stats.TotalElevationGain, &stats.AvgDistanceKm, &stats.AvgDurationSec, &stats.AvgSpeedKmh, &stats.AvgHeartRate,
		&stats.LongestDistanceKm, &stats.LongestDurationSec, &stats.MaxSpeedKmh, &stats.MaxElevationGainM,
		&stats.FirstSessionDate, &stats.LastSessionDate, &stats.UpdatedAt)
	if err != nil {
		stats = UserStats{UserID: userID}
	}

	if e.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			e.cache.Set(ctx, userStatsKeyPrefix+userID, raw, userStatsCacheTTL)
		}
	}
	return stats, nil
}

func (e *Engine) invalidate(ctx context.Context, userID string) {
	if e.cache != nil {
		e.cache.Del(ctx, userStatsKeyPrefix+userID)
	}
}

// GetSummaries lists the user's buckets for one period type, newest first.
func (e *Engine) GetSummaries(ctx context.Context, userID, periodType string) ([]ActivitySummary, error) {
	rows, err := e.db.Query(ctx, `
		SELECT user_id, period_type, period_key, start_date, end_date,
		       total_sessions, total_distance_km, total_duration_sec, total_calories, avg_speed_kmh, max_speed_kmh, updated_at
		FROM activity_summaries
		WHERE user_id=$1 AND period_type=$2
		ORDER BY start_date DESC
	`, userID, periodType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []ActivitySummary
	for rows.Next() {
		var s ActivitySummary
		if err := rows.Scan(&s.UserID, &s.PeriodType, &s.PeriodKey, &s.StartDate, &s.EndDate,
			&s.TotalSessions, &s.TotalDistanceKm, &s.TotalDurationSec, &s.TotalCalories,
			&s.AvgSpeedKmh, &s.MaxSpeedKmh, &s.UpdatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetOverview builds the dashboard read model straight from the sessions.
func (e *Engine) GetOverview(ctx context.Context, userID string) (Overview, error) {
	overview := Overview{TypeDistribution: map[string]int{}}
	cutoff := e.nowFn().UTC().AddDate(0, 0, -30)

	rows, err := e.db.Query(ctx, `
		SELECT date, activity_type, distance_km, duration_sec, calories
		FROM trainings
		WHERE user_id=$1 AND date IS NOT NULL
	`, userID)
	if err != nil {
		return Overview{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var date time.Time
		var activityType string
		var distance *float64
		var duration *int64
		var calories *int
		if err := rows.Scan(&date, &activityType, &distance, &duration, &calories); err != nil {
			return Overview{}, err
		}

		overview.TypeDistribution[activityType]++
		if date.Before(cutoff) {
			continue
		}
		overview.Last30DaysSessions++
		if distance != nil {
			overview.Last30DaysDistanceKm += *distance
		}
		if duration != nil {
			overview.Last30DaysDurationSec += *duration
		}
		if calories != nil {
			overview.Last30DaysCalories += *calories
		}
	}
	return overview, rows.Err()
}
