package training

import (
	"context"

	"github.com/JuanmaOrdPer/AthCyl/internal/activityfile"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Ingest runs the upload pipeline: the session row is created before any
// parsing so the upload is never lost, then the file is dispatched to a
// parser, the missing summary fields are derived, and the track points are
// written in one bulk operation. Both outcomes are terminal states with
// file_processed set; only processing_error distinguishes failure.
//
// weightKg is the calorie-estimation weight; nil skips the estimate. Any
// fallback (profile weight missing) is the caller's decision.
func (s *Service) Ingest(ctx context.Context, userID string, weightKg *float64, filename string, data []byte) (Session, error) {
	session := Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		ActivityType: "running",
		Filename:     filename,
	}
	if err := s.insertSession(ctx, &session); err != nil {
		return Session{}, err
	}

	parsed, err := activityfile.Parse(filename, data)
	if err != nil {
		return s.finishIngest(ctx, session, err.Error())
	}

	if session.Title == "" && parsed.Title != "" {
		title := parsed.Title
		if len(title) > maxTitleLen {
			title = title[:maxTitleLen]
		}
		session.Title = title
	}

	applyDerivedStats(&session, parsed, weightKg)

	if len(parsed.Points) > 0 {
		if err := s.insertPoints(ctx, session.ID, parsed.Points); err != nil {
			return Session{}, err
		}
	}

	session.FileProcessed = true
	if err := s.updateIngested(ctx, &session); err != nil {
		return Session{}, err
	}

	if s.stats != nil && session.Date != nil {
		s.stats.OnSessionSaved(ctx, session.UserID, *session.Date)
	}
	return session, nil
}

// finishIngest records a parse failure on the session row. The row survives
// for inspection and manual reprocessing; no track points are written.
func (s *Service) finishIngest(ctx context.Context, session Session, errMsg string) (Session, error) {
	session.FileProcessed = true
	session.ProcessingError = &errMsg

	_, err := s.db.Exec(ctx, `
		UPDATE trainings SET file_processed=true, processing_error=$2, updated_at=now()
		WHERE id=$1
	`, session.ID, errMsg)
	if err != nil {
		return Session{}, err
	}
	return session, nil
}

func (s *Service) updateIngested(ctx context.Context, session *Session) error {
	_, err := s.db.Exec(ctx, `
		UPDATE trainings
		SET title=$2, activity_type=$3, date=$4, start_time=$5, duration_sec=$6,
		    distance_km=$7, avg_speed_kmh=$8, max_speed_kmh=$9,
		    avg_heart_rate=$10, max_heart_rate=$11, elevation_gain_m=$12, calories=$13,
		    avg_cadence=$14, max_cadence=$15, avg_temperature=$16, min_temperature=$17, max_temperature=$18,
		    file_processed=true, processing_error=NULL, updated_at=now()
		WHERE id=$1
	`, session.ID, session.Title, session.ActivityType, session.Date, session.StartTime, session.DurationSec,
		session.DistanceKm, session.AvgSpeedKmh, session.MaxSpeedKmh,
		session.AvgHeartRate, session.MaxHeartRate, session.ElevationGainM, session.Calories,
		session.AvgCadence, session.MaxCadence, session.AvgTemperature, session.MinTemperature, session.MaxTemperature)
	return err
}

// insertPoints writes the whole batch through the COPY protocol; files with
// thousands of points must not cost one round trip each.
func (s *Service) insertPoints(ctx context.Context, sessionID string, points []activityfile.RawPoint) error {
	rows := make([][]any, 0, len(points))
	for _, p := range points {
		rows = append(rows, []any{
			sessionID, p.Lat, p.Lng, p.ElevationM, p.Time, p.HeartRate, p.SpeedKmh, p.Cadence, p.Temperature,
		})
	}

	_, err := s.db.CopyFrom(ctx,
		pgx.Identifier{"track_points"},
		[]string{"session_id", "latitude", "longitude", "elevation_m", "time", "heart_rate", "speed_kmh", "cadence", "temperature"},
		pgx.CopyFromRows(rows))
	return err
}
