package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Job struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         string          `json:"type"` // "question-import"
	ConfigJSON   json.RawMessage `json:"config"`
	Status       string          `json:"status"` // "pending" | "processing" | "completed" | "failed"
	RetryCount   int             `json:"retry_count"`
	ErrorMessage *string         `json:"error_message"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// WebSocket message types

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StatsUpdate is pushed to a user's live connections after each successful
// session sync so dashboards refresh without polling.
type StatsUpdate struct {
	TotalStudyTime  int        `json:"total_study_time"`
	Streak          int        `json:"streak"`
	StreakStartDate *time.Time `json:"streak_start_date"`
	CompletedTests  int        `json:"completed_tests"`
}

type ImportProgress struct {
	JobID    uuid.UUID `json:"job_id"`
	Part     int       `json:"part"`
	Inserted int       `json:"inserted"`
	Total    int       `json:"total"`
}

type ImportCompleted struct {
	JobID    uuid.UUID `json:"job_id"`
	Part     int       `json:"part"`
	Inserted int       `json:"inserted"`
}

type ErrorEvent struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
