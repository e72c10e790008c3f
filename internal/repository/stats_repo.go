package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"toex-backend/internal/models"
	"toex-backend/internal/streak"
)

type StatsRepo struct {
	pool *pgxpool.Pool
}

type StreakCandidate struct {
	UserID        uuid.UUID
	Streak        int
	LastStudyDate *time.Time
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) Get(ctx context.Context, userID uuid.UUID) (*models.StudyStats, error) {
	s := &models.StudyStats{}
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, total_study_time, streak, streak_start_date, last_study_date, completed_tests, updated_at
		FROM user_study_stats WHERE user_id = $1`,
		userID,
	).Scan(
		&s.UserID, &s.TotalStudyTime, &s.Streak, &s.StreakStartDate,
		&s.LastStudyDate, &s.CompletedTests, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// RecordSession applies one synced session: total study time grows by the
// session minutes, the streak advances per the calendar-day rules, and a row
// is appended to the session log. The stats row is locked for the duration
// of the transaction so concurrent syncs for the same user serialize instead
// of losing updates.
func (r *StatsRepo) RecordSession(ctx context.Context, userID uuid.UUID, minutes int, clientTimestamp string, now time.Time, loc *time.Location) (*models.StudyStats, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	s := &models.StudyStats{}
	err = tx.QueryRow(ctx, `
		SELECT user_id, total_study_time, streak, streak_start_date, last_study_date, completed_tests
		FROM user_study_stats WHERE user_id = $1
		FOR UPDATE`,
		userID,
	).Scan(&s.UserID, &s.TotalStudyTime, &s.Streak, &s.StreakStartDate, &s.LastStudyDate, &s.CompletedTests)
	if err != nil {
		return nil, err
	}

	today := streak.DayOf(now, loc)
	newStreak, newStart := streak.Advance(s.Streak, s.StreakStartDate, s.LastStudyDate, today)

	err = tx.QueryRow(ctx, `
		UPDATE user_study_stats
		SET total_study_time = total_study_time + $2,
			streak = $3,
			streak_start_date = $4,
			last_study_date = $5,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING total_study_time, updated_at`,
		userID, minutes, newStreak, newStart, today,
	).Scan(&s.TotalStudyTime, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO study_sessions (id, user_id, studied_at, duration_minutes, client_timestamp)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), userID, now, minutes, clientTimestamp,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.Streak = newStreak
	s.StreakStartDate = newStart
	s.LastStudyDate = &today
	return s, nil
}

// AddStudyResult folds a finished practice test into the stats. Finishing a
// test is studying, so the streak advances under the same calendar-day rules
// as a session sync; only the session log stays untouched. Same FOR UPDATE
// locking so concurrent mutations for one user serialize.
func (r *StatsRepo) AddStudyResult(ctx context.Context, userID uuid.UUID, minutes int, testCompleted bool, now time.Time, loc *time.Location) (*models.StudyStats, error) {
	completed := 0
	if testCompleted {
		completed = 1
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	s := &models.StudyStats{}
	err = tx.QueryRow(ctx, `
		SELECT user_id, total_study_time, streak, streak_start_date, last_study_date, completed_tests
		FROM user_study_stats WHERE user_id = $1
		FOR UPDATE`,
		userID,
	).Scan(&s.UserID, &s.TotalStudyTime, &s.Streak, &s.StreakStartDate, &s.LastStudyDate, &s.CompletedTests)
	if err != nil {
		return nil, err
	}

	today := streak.DayOf(now, loc)
	newStreak, newStart := streak.Advance(s.Streak, s.StreakStartDate, s.LastStudyDate, today)

	err = tx.QueryRow(ctx, `
		UPDATE user_study_stats
		SET total_study_time = total_study_time + $2,
			completed_tests = completed_tests + $3,
			streak = $4,
			streak_start_date = $5,
			last_study_date = $6,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING total_study_time, completed_tests, updated_at`,
		userID, minutes, completed, newStreak, newStart, today,
	).Scan(&s.TotalStudyTime, &s.CompletedTests, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.Streak = newStreak
	s.StreakStartDate = newStart
	s.LastStudyDate = &today
	return s, nil
}

// ListStreakHolders returns every user whose streak is still positive, for
// the maintenance sweep. Staleness is evaluated by the caller so the
// day-boundary policy lives in one place.
func (r *StatsRepo) ListStreakHolders(ctx context.Context) ([]StreakCandidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, streak, last_study_date
		FROM user_study_stats WHERE streak > 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]StreakCandidate, 0)
	for rows.Next() {
		var c StreakCandidate
		if scanErr := rows.Scan(&c.UserID, &c.Streak, &c.LastStudyDate); scanErr != nil {
			return nil, scanErr
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// ClearStreak zeroes a lapsed streak. last_study_date is kept as history.
func (r *StatsRepo) ClearStreak(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_study_stats
		SET streak = 0, streak_start_date = NULL, updated_at = NOW()
		WHERE user_id = $1 AND streak > 0`,
		userID)
	return err
}

func (r *StatsRepo) RecentSessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, studied_at, duration_minutes, client_timestamp
		FROM study_sessions
		WHERE user_id = $1
		ORDER BY studied_at DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.SessionLogEntry, 0)
	for rows.Next() {
		var e models.SessionLogEntry
		if scanErr := rows.Scan(&e.ID, &e.UserID, &e.StudiedAt, &e.DurationMinutes, &e.ClientTimestamp); scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, e)
	}
	return sessions, rows.Err()
}
