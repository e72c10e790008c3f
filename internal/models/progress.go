package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TestProgress is a saved in-flight practice test, one row per
// (user, test type, part, test set). Answers are kept as a JSON map of
// question index to chosen answer index.
type TestProgress struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	TestType         string          `json:"test_type"` // "reading" | "listening"
	Part             int             `json:"part"`
	TestSet          int             `json:"test_set"`
	CurrentQuestion  int             `json:"current_question"`
	TotalQuestions   int             `json:"total_questions"`
	AnswersJSON      json.RawMessage `json:"selected_answers"`
	TimeSpentSeconds int             `json:"time_spent_seconds"`
	Completed        bool            `json:"completed"`
	StartedAt        time.Time       `json:"started_at"`
	LastSavedAt      time.Time       `json:"last_saved_at"`
}

type SaveProgressRequest struct {
	TestType         string          `json:"test_type"`
	Part             int             `json:"part"`
	TestSet          int             `json:"test_set"`
	CurrentQuestion  int             `json:"current_question"`
	TotalQuestions   int             `json:"total_questions"`
	AnswersJSON      json.RawMessage `json:"selected_answers"`
	TimeSpentSeconds int             `json:"time_spent_seconds"`
	Completed        bool            `json:"completed"`
}
