package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"toex-backend/internal/models"
	"toex-backend/internal/repository"
	"toex-backend/internal/streak"
)

// StatsStore is the persistence surface the stats service mutates. It is
// satisfied by *repository.StatsRepo.
type StatsStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.StudyStats, error)
	RecordSession(ctx context.Context, userID uuid.UUID, minutes int, clientTimestamp string, now time.Time, loc *time.Location) (*models.StudyStats, error)
	AddStudyResult(ctx context.Context, userID uuid.UUID, minutes int, testCompleted bool, now time.Time, loc *time.Location) (*models.StudyStats, error)
	ListStreakHolders(ctx context.Context) ([]repository.StreakCandidate, error)
	ClearStreak(ctx context.Context, userID uuid.UUID) error
	RecentSessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionLogEntry, error)
}

// StatsService owns the study-time and streak accounting. All day-boundary
// decisions go through the configured location so the calendar policy lives
// in one place.
type StatsService struct {
	statsRepo StatsStore
	redis     *redis.Client
	loc       *time.Location
	now       func() time.Time
}

func NewStatsService(statsRepo StatsStore, redisClient *redis.Client, loc *time.Location) *StatsService {
	return &StatsService{
		statsRepo: statsRepo,
		redis:     redisClient,
		loc:       loc,
		now:       time.Now,
	}
}

// RecordSession applies one synced study session to the user's stats.
// Sessions under one minute are rejected; the client is expected to hold
// them back, so a rejection here means a misbehaving caller.
func (s *StatsService) RecordSession(ctx context.Context, userID uuid.UUID, req models.SessionSyncRequest) (*models.StudyStats, error) {
	if req.SessionTimeMinutes < 1 {
		return nil, &InvalidSessionError{Message: "session_time_minutes must be at least 1"}
	}
	if req.SessionTimeMinutes > 24*60 {
		return nil, &InvalidSessionError{Message: "session_time_minutes exceeds one day"}
	}
	if req.ClientTimestamp != "" {
		if _, err := time.Parse(time.RFC3339, req.ClientTimestamp); err != nil {
			return nil, &InvalidSessionError{Message: "client_timestamp must be RFC 3339"}
		}
	}

	stats, err := s.statsRepo.RecordSession(ctx, userID, req.SessionTimeMinutes, req.ClientTimestamp, s.now(), s.loc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "User stats not found"}
		}
		return nil, &StorageError{Err: err}
	}

	s.publishStats(ctx, userID, stats)
	return stats, nil
}

// AddStudyResult folds a finished practice test into the stats. It shares
// the session-sync error taxonomy and the streak rules: finishing a test
// counts as studying that day.
func (s *StatsService) AddStudyResult(ctx context.Context, userID uuid.UUID, req models.StudyStatsUpdateRequest) (*models.StudyStats, error) {
	if req.StudyTimeMinutes < 1 {
		return nil, &InvalidSessionError{Message: "study_time_minutes must be at least 1"}
	}
	if req.StudyTimeMinutes > 24*60 {
		return nil, &InvalidSessionError{Message: "study_time_minutes exceeds one day"}
	}

	stats, err := s.statsRepo.AddStudyResult(ctx, userID, req.StudyTimeMinutes, req.TestCompleted, s.now(), s.loc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "User stats not found"}
		}
		return nil, &StorageError{Err: err}
	}

	s.publishStats(ctx, userID, stats)
	return stats, nil
}

func (s *StatsService) GetStats(ctx context.Context, userID uuid.UUID) (*models.StudyStats, error) {
	stats, err := s.statsRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "User stats not found"}
		}
		return nil, &StorageError{Err: err}
	}
	return stats, nil
}

// StreakAtRisk reports whether the streak lapses unless the user studies
// before the next day boundary: a positive streak whose last study day is
// already behind today. A missing last-study date with a positive streak is
// inconsistent state and reads as at risk until the sweep clears it.
func (s *StatsService) StreakAtRisk(stats *models.StudyStats) bool {
	if stats == nil || stats.Streak == 0 {
		return false
	}
	if stats.LastStudyDate == nil {
		return true
	}
	today := streak.DayOf(s.now(), s.loc)
	return streak.DayOf(*stats.LastStudyDate, s.loc).Before(today)
}

func (s *StatsService) RecentSessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionLogEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	sessions, err := s.statsRepo.RecentSessions(ctx, userID, limit)
	if err != nil {
		return nil, &StorageError{Err: err}
	}
	return sessions, nil
}

// SweepResult reports one maintenance run over all streak holders.
type SweepResult struct {
	Checked int `json:"checked"`
	Reset   int `json:"reset"`
	Failed  int `json:"failed"`
}

// ResetStaleStreaks zeroes every streak whose last study day is more than
// one calendar day behind. Each user is handled independently so one
// failure does not abort the sweep.
func (s *StatsService) ResetStaleStreaks(ctx context.Context) (*SweepResult, error) {
	candidates, err := s.statsRepo.ListStreakHolders(ctx)
	if err != nil {
		return nil, &StorageError{Err: err}
	}

	today := streak.DayOf(s.now(), s.loc)
	result := &SweepResult{Checked: len(candidates)}

	for _, c := range candidates {
		// A positive streak without a study date is inconsistent state,
		// reset it along with the genuinely lapsed ones.
		if c.LastStudyDate != nil && !streak.Stale(*c.LastStudyDate, today) {
			continue
		}
		if err := s.statsRepo.ClearStreak(ctx, c.UserID); err != nil {
			log.Printf("streak sweep: failed to reset user %s: %v", c.UserID, err)
			result.Failed++
			continue
		}
		result.Reset++
	}

	return result, nil
}

// publishStats pushes the updated counters to the user's live connections.
// Best effort; a dead Redis must not fail the sync.
func (s *StatsService) publishStats(ctx context.Context, userID uuid.UUID, stats *models.StudyStats) {
	if s.redis == nil {
		return
	}

	msg := models.WSMessage{
		Type: "stats_update",
		Payload: models.StatsUpdate{
			TotalStudyTime:  stats.TotalStudyTime,
			Streak:          stats.Streak,
			StreakStartDate: stats.StreakStartDate,
			CompletedTests:  stats.CompletedTests,
		},
	}
	data, _ := json.Marshal(msg)
	if err := s.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", userID.String()), string(data)).Err(); err != nil {
		log.Printf("stats publish: failed for user %s: %v", userID, err)
	}
}
