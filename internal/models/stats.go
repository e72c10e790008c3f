package models

import (
	"time"

	"github.com/google/uuid"
)

// StudyStats is the per-user accounting record behind the streak and
// study-time features. total_study_time only grows; streak counts
// consecutive calendar days with at least one qualifying (>= 1 minute)
// session. StreakStartDate is nil exactly when Streak is zero.
type StudyStats struct {
	UserID          uuid.UUID  `json:"user_id"`
	TotalStudyTime  int        `json:"total_study_time"` // minutes
	Streak          int        `json:"streak"`           // days
	StreakStartDate *time.Time `json:"streak_start_date"`
	LastStudyDate   *time.Time `json:"last_study_date"`
	CompletedTests  int        `json:"completed_tests"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SessionLogEntry is one row of the append-only session history. The log is
// a historical record only; streak and totals are never recomputed from it.
type SessionLogEntry struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	StudiedAt       time.Time `json:"studied_at"`
	DurationMinutes int       `json:"duration_minutes"`
	ClientTimestamp string    `json:"client_timestamp"`
}

type SessionSyncRequest struct {
	SessionTimeMinutes int    `json:"session_time_minutes"`
	ClientTimestamp    string `json:"client_timestamp"`
}

type SessionSyncResponse struct {
	TotalStudyTime     int `json:"total_study_time"`
	Streak             int `json:"streak"`
	SessionTimeMinutes int `json:"session_time_minutes"`
}

type StudyStatsUpdateRequest struct {
	StudyTimeMinutes int  `json:"study_time_minutes"`
	TestCompleted    bool `json:"test_completed"`
}

// TestResult is one graded practice run (a reading part or a full mock test).
type TestResult struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	TestType       string    `json:"test_type"` // "part5" | "part6" | "part7" | "full-test"
	Part           string    `json:"part"`
	TestSet        *int      `json:"test_set,omitempty"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalQuestions int       `json:"total_questions"`
	TimeSpent      int       `json:"time_spent"` // minutes
	CompletedAt    time.Time `json:"completed_at"`
}

type SubmitResultRequest struct {
	TestType       string `json:"test_type"`
	Part           string `json:"part"`
	TestSet        *int   `json:"test_set,omitempty"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correct_answers"`
	TotalQuestions int    `json:"total_questions"`
	TimeSpent      int    `json:"time_spent"`
}

// PartAggregate is the running per-part summary maintained as results come in.
type PartAggregate struct {
	Part         string  `json:"part"`
	Tests        int     `json:"tests"`
	Questions    int     `json:"questions"`
	Correct      int     `json:"correct"`
	TimeSpent    int     `json:"time_spent"`
	AverageScore float64 `json:"average_score"`
	BestScore    int     `json:"best_score"`
}
