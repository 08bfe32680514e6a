package training

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JuanmaOrdPer/AthCyl/internal/db"

	"github.com/google/uuid"
)

// StatsUpdater receives session change events so lifetime stats and period
// buckets stay consistent. Implemented by the stats engine.
type StatsUpdater interface {
	OnSessionSaved(ctx context.Context, userID string, dates ...time.Time)
	OnSessionDeleted(ctx context.Context, userID string, dates ...time.Time)
}

type Service struct {
	db    db.Querier
	stats StatsUpdater
}

func NewService(db db.Querier, stats StatsUpdater) *Service {
	return &Service{db: db, stats: stats}
}

const sessionColumns = `id, user_id, title, COALESCE(description,''), activity_type, COALESCE(filename,''),
	date, start_time, duration_sec, distance_km, avg_speed_kmh, max_speed_kmh,
	avg_heart_rate, max_heart_rate, elevation_gain_m, calories,
	avg_cadence, max_cadence, avg_temperature, min_temperature, max_temperature,
	file_processed, processing_error, created_at, updated_at`

// CreateManual persists a session entered without a file. Date, start time
// and activity type are required, but an incomplete entry is still persisted
// with a descriptive processing_error instead of being rejected.
func (s *Service) CreateManual(ctx context.Context, input Session) (Session, error) {
	input.ID = uuid.NewString()
	input.Filename = ""

	var missing []string
	if input.Date == nil {
		missing = append(missing, "date")
	}
	if input.StartTime == nil {
		missing = append(missing, "start_time")
	}
	if input.ActivityType == "" {
		missing = append(missing, "activity_type")
	}
	if len(missing) == 0 {
		input.FileProcessed = true
	} else {
		msg := "missing required fields: " + strings.Join(missing, ", ")
		input.ProcessingError = &msg
	}

	if err := s.insertSession(ctx, &input); err != nil {
		return Session{}, err
	}

	if s.stats != nil && input.Date != nil {
		s.stats.OnSessionSaved(ctx, input.UserID, *input.Date)
	}
	return input, nil
}

func (s *Service) insertSession(ctx context.Context, session *Session) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO trainings (id, user_id, title, description, activity_type, filename,
			date, start_time, duration_sec, distance_km, avg_speed_kmh, max_speed_kmh,
			avg_heart_rate, max_heart_rate, elevation_gain_m, calories,
			avg_cadence, max_cadence, avg_temperature, min_temperature, max_temperature,
			file_processed, processing_error)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		RETURNING created_at, updated_at
	`, session.ID, session.UserID, session.Title, session.Description, session.ActivityType, session.Filename,
		session.Date, session.StartTime, session.DurationSec, session.DistanceKm, session.AvgSpeedKmh, session.MaxSpeedKmh,
		session.AvgHeartRate, session.MaxHeartRate, session.ElevationGainM, session.Calories,
		session.AvgCadence, session.MaxCadence, session.AvgTemperature, session.MinTemperature, session.MaxTemperature,
		session.FileProcessed, session.ProcessingError)
	return row.Scan(&session.CreatedAt, &session.UpdatedAt)
}

func (s *Service) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM trainings WHERE id=$1`, id)
	return scanSession(row)
}

func (s *Service) Sessions(ctx context.Context, userID string) ([]Session, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+sessionColumns+` FROM trainings
		WHERE user_id=$1
		ORDER BY date DESC NULLS LAST, start_time DESC NULLS LAST
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// UpdateSession patches the user-editable fields and triggers aggregate
// recomputation for both the old and the new date bucket.
func (s *Service) UpdateSession(ctx context.Context, id string, patch Session) (Session, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	oldDate := session.Date

	if patch.Title != "" {
		session.Title = patch.Title
	}
	if patch.Description != "" {
		session.Description = patch.Description
	}
	if patch.ActivityType != "" {
		if !validActivityTypes[patch.ActivityType] {
			return Session{}, fmt.Errorf("invalid activity type: %s", patch.ActivityType)
		}
		session.ActivityType = patch.ActivityType
	}
	if patch.Date != nil {
		session.Date = patch.Date
	}
	if patch.StartTime != nil {
		session.StartTime = patch.StartTime
	}
	if patch.DurationSec != nil {
		session.DurationSec = patch.DurationSec
	}
	if patch.DistanceKm != nil {
		session.DistanceKm = patch.DistanceKm
	}
	if patch.Calories != nil {
		session.Calories = patch.Calories
	}

	_, err = s.db.Exec(ctx, `
		UPDATE trainings
		SET title=$2, description=$3, activity_type=$4, date=$5, start_time=$6,
		    duration_sec=$7, distance_km=$8, calories=$9, updated_at=now()
		WHERE id=$1
	`, session.ID, session.Title, session.Description, session.ActivityType, session.Date, session.StartTime,
		session.DurationSec, session.DistanceKm, session.Calories)
	if err != nil {
		return Session{}, err
	}

	if s.stats != nil {
		dates := affectedDates(oldDate, session.Date)
		s.stats.OnSessionSaved(ctx, session.UserID, dates...)
	}
	return session, nil
}

// DeleteSession removes a session; its track points go with it via cascade.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	var userID string
	var date *time.Time
	row := s.db.QueryRow(ctx, `SELECT user_id, date FROM trainings WHERE id=$1`, id)
	if err := row.Scan(&userID, &date); err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM trainings WHERE id=$1`, id); err != nil {
		return err
	}

	if s.stats != nil {
		if date != nil {
			s.stats.OnSessionDeleted(ctx, userID, *date)
		} else {
			s.stats.OnSessionDeleted(ctx, userID)
		}
	}
	return nil
}

// Points returns a session's track points in time order, for map display.
func (s *Service) Points(ctx context.Context, sessionID string) ([]TrackPoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, latitude, longitude, elevation_m, time, heart_rate, speed_kmh, cadence, temperature
		FROM track_points WHERE session_id=$1
		ORDER BY time
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []TrackPoint
	for rows.Next() {
		var p TrackPoint
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Lat, &p.Lng, &p.ElevationM, &p.Time, &p.HeartRate, &p.SpeedKmh, &p.Cadence, &p.Temperature); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.ActivityType, &s.Filename,
		&s.Date, &s.StartTime, &s.DurationSec, &s.DistanceKm, &s.AvgSpeedKmh, &s.MaxSpeedKmh,
		&s.AvgHeartRate, &s.MaxHeartRate, &s.ElevationGainM, &s.Calories,
		&s.AvgCadence, &s.MaxCadence, &s.AvgTemperature, &s.MinTemperature, &s.MaxTemperature,
		&s.FileProcessed, &s.ProcessingError, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

func affectedDates(dates ...*time.Time) []time.Time {
	var out []time.Time
	seen := map[time.Time]bool{}
	for _, d := range dates {
		if d == nil || seen[*d] {
			continue
		}
		seen[*d] = true
		out = append(out, *d)
	}
	return out
}
