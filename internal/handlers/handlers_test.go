package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"toex-backend/internal/models"
	"toex-backend/internal/services"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp
}

// ─── Session Sync Tests ───

func TestSessionSync_RejectsShortSession(t *testing.T) {
	statsService := services.NewStatsService(nil, nil, time.UTC)
	h := NewSessionHandler(statsService)

	body, _ := json.Marshal(map[string]interface{}{
		"session_time_minutes": 0,
		"client_timestamp":     time.Now().UTC().Format(time.RFC3339),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/sync", bytes.NewReader(body))
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()

	h.Sync(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}

	resp := decodeError(t, rr)
	if resp.Error.Code != "INVALID_SESSION" {
		t.Errorf("Expected code INVALID_SESSION, got %q", resp.Error.Code)
	}
	if resp.Error.RequestID != "req-123" {
		t.Errorf("Expected request ID echoed back, got %q", resp.Error.RequestID)
	}
}

func TestSessionSync_RejectsBadTimestamp(t *testing.T) {
	statsService := services.NewStatsService(nil, nil, time.UTC)
	h := NewSessionHandler(statsService)

	body, _ := json.Marshal(map[string]interface{}{
		"session_time_minutes": 5,
		"client_timestamp":     "yesterday afternoon",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/sync", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.Sync(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != "INVALID_SESSION" {
		t.Errorf("Expected code INVALID_SESSION, got %q", resp.Error.Code)
	}
}

func TestSessionSync_RejectsInvalidBody(t *testing.T) {
	statsService := services.NewStatsService(nil, nil, time.UTC)
	h := NewSessionHandler(statsService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/sync", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()

	h.Sync(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
}

// ─── Question Handler Tests ───

func TestQuestionList_InvalidPart(t *testing.T) {
	h := NewQuestionHandler(nil, nil)

	tests := []struct {
		name string
		url  string
	}{
		{"missing part", "/api/v1/questions"},
		{"part 4", "/api/v1/questions?part=4"},
		{"part 8", "/api/v1/questions?part=8"},
		{"non-numeric", "/api/v1/questions?part=five"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rr := httptest.NewRecorder()

			h.List(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestQuestionList_InvalidTestSet(t *testing.T) {
	h := NewQuestionHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/questions?part=5&test_set=0", nil)
	rr := httptest.NewRecorder()

	h.List(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
}

// ─── Progress Handler Tests ───

func TestProgressSave_Validation(t *testing.T) {
	h := NewProgressHandler(nil)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing test type", map[string]interface{}{"part": 5, "test_set": 1}},
		{"part out of range", map[string]interface{}{"test_type": "reading", "part": 4, "test_set": 1}},
		{"zero test set", map[string]interface{}{"test_type": "reading", "part": 5, "test_set": 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			jsonBody, _ := json.Marshal(tc.body)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/progress", bytes.NewReader(jsonBody))
			rr := httptest.NewRecorder()

			h.Save(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rr.Code)
			}
			if resp := decodeError(t, rr); resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("Expected code VALIDATION_ERROR, got %q", resp.Error.Code)
			}
		})
	}
}

// ─── Result Handler Tests ───

func TestResultSubmit_Validation(t *testing.T) {
	h := NewResultHandler(nil)

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{
			"missing test type",
			map[string]interface{}{"part": "part5", "score": 80, "correct_answers": 24, "total_questions": 30},
			"test_type",
		},
		{
			"correct over total",
			map[string]interface{}{"test_type": "part5", "part": "part5", "score": 80, "correct_answers": 31, "total_questions": 30},
			"correct_answers",
		},
		{
			"score over 100",
			map[string]interface{}{"test_type": "part5", "part": "part5", "score": 120, "correct_answers": 24, "total_questions": 30},
			"score",
		},
		{
			"zero questions",
			map[string]interface{}{"test_type": "part5", "part": "part5", "score": 0, "correct_answers": 0, "total_questions": 0},
			"total_questions",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			jsonBody, _ := json.Marshal(tc.body)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/results", bytes.NewReader(jsonBody))
			rr := httptest.NewRecorder()

			h.Submit(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rr.Code)
			}

			resp := decodeError(t, rr)
			if _, ok := resp.Error.Fields[tc.field]; !ok {
				t.Errorf("Expected field error for %q, got %v", tc.field, resp.Error.Fields)
			}
		})
	}
}

// ─── Error Mapping Tests ───

func TestHandleServiceError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"email": "bad"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid session", &services.InvalidSessionError{Message: "too short"}, http.StatusBadRequest, "INVALID_SESSION"},
		{"conflict", &services.ConflictError{Message: "taken"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "missing"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "nope"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "no"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "slow down"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"storage", &services.StorageError{Err: errors.New("conn refused")}, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if resp := decodeError(t, rr); resp.Error.Code != tc.wantCode {
				t.Errorf("Expected code %q, got %q", tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"message": "ok"})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["message"] != "ok" {
		t.Errorf("Expected message 'ok', got %q", body["message"])
	}
}
