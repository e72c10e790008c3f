package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"toex-backend/internal/middleware"
	"toex-backend/internal/models"
	"toex-backend/internal/repository"
)

type ResultHandler struct {
	resultRepo *repository.ResultRepo
}

func NewResultHandler(resultRepo *repository.ResultRepo) *ResultHandler {
	return &ResultHandler{resultRepo: resultRepo}
}

func (h *ResultHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.SubmitResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fieldErrors := make(map[string]string)
	if req.TestType == "" {
		fieldErrors["test_type"] = "Test type is required"
	}
	if req.Part == "" {
		fieldErrors["part"] = "Part is required"
	}
	if req.TotalQuestions <= 0 {
		fieldErrors["total_questions"] = "Total questions must be positive"
	}
	if req.CorrectAnswers < 0 || req.CorrectAnswers > req.TotalQuestions {
		fieldErrors["correct_answers"] = "Correct answers out of range"
	}
	if req.Score < 0 || req.Score > 100 {
		fieldErrors["score"] = "Score must be between 0 and 100"
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	result := &models.TestResult{
		UserID:         userID,
		TestType:       req.TestType,
		Part:           req.Part,
		TestSet:        req.TestSet,
		Score:          req.Score,
		CorrectAnswers: req.CorrectAnswers,
		TotalQuestions: req.TotalQuestions,
		TimeSpent:      req.TimeSpent,
	}

	if err := h.resultRepo.Create(r.Context(), result); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *ResultHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	results, err := h.resultRepo.ListRecent(r.Context(), userID, limit)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *ResultHandler) Aggregates(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	aggregates, err := h.resultRepo.Aggregates(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"parts": aggregates})
}
