package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"toex-backend/internal/models"
	"toex-backend/internal/repository"
)

// fakeStatsStore satisfies StatsStore in memory so service behavior can be
// tested without Postgres.
type fakeStatsStore struct {
	holders      []repository.StreakCandidate
	holdersErr   error
	clearErrFor  map[uuid.UUID]error
	cleared      []uuid.UUID
	lastNow      time.Time
	lastLoc      *time.Location
	resultReturn *models.StudyStats
}

func (f *fakeStatsStore) Get(ctx context.Context, userID uuid.UUID) (*models.StudyStats, error) {
	return f.resultReturn, nil
}

func (f *fakeStatsStore) RecordSession(ctx context.Context, userID uuid.UUID, minutes int, clientTimestamp string, now time.Time, loc *time.Location) (*models.StudyStats, error) {
	f.lastNow, f.lastLoc = now, loc
	return f.resultReturn, nil
}

func (f *fakeStatsStore) AddStudyResult(ctx context.Context, userID uuid.UUID, minutes int, testCompleted bool, now time.Time, loc *time.Location) (*models.StudyStats, error) {
	f.lastNow, f.lastLoc = now, loc
	return f.resultReturn, nil
}

func (f *fakeStatsStore) ListStreakHolders(ctx context.Context) ([]repository.StreakCandidate, error) {
	return f.holders, f.holdersErr
}

func (f *fakeStatsStore) ClearStreak(ctx context.Context, userID uuid.UUID) error {
	if err := f.clearErrFor[userID]; err != nil {
		return err
	}
	f.cleared = append(f.cleared, userID)
	return nil
}

func (f *fakeStatsStore) RecentSessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.SessionLogEntry, error) {
	return nil, nil
}

func newTestStatsService(store StatsStore, now time.Time) *StatsService {
	svc := NewStatsService(store, nil, time.UTC)
	svc.now = func() time.Time { return now }
	return svc
}

func TestRecordSession_RejectsInvalidInput(t *testing.T) {
	svc := NewStatsService(nil, nil, time.UTC)

	tests := []struct {
		name string
		req  models.SessionSyncRequest
	}{
		{"zero minutes", models.SessionSyncRequest{SessionTimeMinutes: 0}},
		{"negative minutes", models.SessionSyncRequest{SessionTimeMinutes: -3}},
		{"over a day", models.SessionSyncRequest{SessionTimeMinutes: 24*60 + 1}},
		{"bad timestamp", models.SessionSyncRequest{SessionTimeMinutes: 5, ClientTimestamp: "last tuesday"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordSession(context.Background(), uuid.New(), tc.req)
			if err == nil {
				t.Fatal("expected an error")
			}
			if _, ok := err.(*InvalidSessionError); !ok {
				t.Fatalf("expected InvalidSessionError, got %T", err)
			}
		})
	}
}

func TestAddStudyResult_RejectsInvalidMinutes(t *testing.T) {
	svc := NewStatsService(nil, nil, time.UTC)

	tests := []struct {
		name    string
		minutes int
	}{
		{"zero minutes", 0},
		{"negative minutes", -10},
		{"over a day", 24*60 + 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddStudyResult(context.Background(), uuid.New(), models.StudyStatsUpdateRequest{
				StudyTimeMinutes: tc.minutes,
			})
			if err == nil {
				t.Fatal("expected an error")
			}
			if _, ok := err.(*InvalidSessionError); !ok {
				t.Fatalf("expected InvalidSessionError, got %T", err)
			}
		})
	}
}

func TestAddStudyResult_AdvancesClockThroughStore(t *testing.T) {
	// Finishing a test runs the same locked day-boundary path as a session
	// sync: the store receives the service clock and zone, and the returned
	// snapshot carries the advanced streak.
	now := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	lastStudy := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	store := &fakeStatsStore{resultReturn: &models.StudyStats{
		Streak:        4,
		LastStudyDate: &lastStudy,
	}}
	svc := newTestStatsService(store, now)

	stats, err := svc.AddStudyResult(context.Background(), uuid.New(), models.StudyStatsUpdateRequest{
		StudyTimeMinutes: 45,
		TestCompleted:    true,
	})
	if err != nil {
		t.Fatalf("AddStudyResult failed: %v", err)
	}
	if !store.lastNow.Equal(now) {
		t.Errorf("Expected store to receive service clock %v, got %v", now, store.lastNow)
	}
	if store.lastLoc != time.UTC {
		t.Errorf("Expected store to receive the configured zone, got %v", store.lastLoc)
	}
	if stats.Streak != 4 || stats.LastStudyDate == nil {
		t.Errorf("Expected streak-bearing snapshot back, got %+v", stats)
	}
}

func TestResetStaleStreaks_EmptySweep(t *testing.T) {
	svc := newTestStatsService(&fakeStatsStore{}, time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC))

	result, err := svc.ResetStaleStreaks(context.Background())
	if err != nil {
		t.Fatalf("ResetStaleStreaks failed: %v", err)
	}
	if result.Checked != 0 || result.Reset != 0 || result.Failed != 0 {
		t.Errorf("Expected zero counts on empty sweep, got %+v", result)
	}
}

func TestResetStaleStreaks_ResetsOnlyStale(t *testing.T) {
	now := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)
	today := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	threeDaysAgo := today.AddDate(0, 0, -3)

	freshUser := uuid.New()
	staleUser := uuid.New()
	brokenUser := uuid.New() // streak > 0 but no study date

	store := &fakeStatsStore{holders: []repository.StreakCandidate{
		{UserID: freshUser, Streak: 3, LastStudyDate: &yesterday},
		{UserID: staleUser, Streak: 7, LastStudyDate: &threeDaysAgo},
		{UserID: brokenUser, Streak: 2, LastStudyDate: nil},
	}}
	svc := newTestStatsService(store, now)

	result, err := svc.ResetStaleStreaks(context.Background())
	if err != nil {
		t.Fatalf("ResetStaleStreaks failed: %v", err)
	}
	if result.Checked != 3 || result.Reset != 2 || result.Failed != 0 {
		t.Errorf("Expected checked=3 reset=2 failed=0, got %+v", result)
	}
	for _, id := range store.cleared {
		if id == freshUser {
			t.Errorf("Expected fresh streak to survive the sweep")
		}
	}
}

func TestResetStaleStreaks_ToleratesPerUserFailure(t *testing.T) {
	now := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)
	old := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)

	failing := uuid.New()
	ok := uuid.New()

	store := &fakeStatsStore{
		holders: []repository.StreakCandidate{
			{UserID: failing, Streak: 4, LastStudyDate: &old},
			{UserID: ok, Streak: 9, LastStudyDate: &old},
		},
		clearErrFor: map[uuid.UUID]error{failing: errors.New("connection reset")},
	}
	svc := newTestStatsService(store, now)

	result, err := svc.ResetStaleStreaks(context.Background())
	if err != nil {
		t.Fatalf("ResetStaleStreaks failed: %v", err)
	}
	if result.Checked != 2 || result.Reset != 1 || result.Failed != 1 {
		t.Errorf("Expected checked=2 reset=1 failed=1, got %+v", result)
	}
	if len(store.cleared) != 1 || store.cleared[0] != ok {
		t.Errorf("Expected the healthy user to still be reset, got %v", store.cleared)
	}
}

func TestStreakAtRisk(t *testing.T) {
	now := time.Date(2025, 2, 10, 21, 0, 0, 0, time.UTC)
	today := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	svc := newTestStatsService(&fakeStatsStore{}, now)

	tests := []struct {
		name     string
		stats    *models.StudyStats
		expected bool
	}{
		{"no streak", &models.StudyStats{Streak: 0}, false},
		{"studied today", &models.StudyStats{Streak: 5, LastStudyDate: &today}, false},
		{"studied yesterday", &models.StudyStats{Streak: 5, LastStudyDate: &yesterday}, true},
		{"streak without study date", &models.StudyStats{Streak: 2}, true},
		{"nil stats", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := svc.StreakAtRisk(tc.stats); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}
