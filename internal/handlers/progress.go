package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"

	"toex-backend/internal/middleware"
	"toex-backend/internal/models"
	"toex-backend/internal/repository"
)

type ProgressHandler struct {
	progressRepo *repository.ProgressRepo
}

func NewProgressHandler(progressRepo *repository.ProgressRepo) *ProgressHandler {
	return &ProgressHandler{progressRepo: progressRepo}
}

func (h *ProgressHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.SaveProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fieldErrors := make(map[string]string)
	if req.TestType == "" {
		fieldErrors["test_type"] = "Test type is required"
	}
	if req.Part < 5 || req.Part > 7 {
		fieldErrors["part"] = "Part must be 5, 6 or 7"
	}
	if req.TestSet < 1 {
		fieldErrors["test_set"] = "Test set must be a positive integer"
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	progress, err := h.progressRepo.Save(r.Context(), userID, &req)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	entries, err := h.progressRepo.List(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"progress": entries})
}

func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	testType, part, testSet, ok := progressKey(w, r)
	if !ok {
		return
	}

	progress, err := h.progressRepo.Get(r.Context(), userID, testType, part, testSet)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No saved progress", r))
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

func (h *ProgressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	testType, part, testSet, ok := progressKey(w, r)
	if !ok {
		return
	}

	if err := h.progressRepo.Delete(r.Context(), userID, testType, part, testSet); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Progress deleted"})
}

func progressKey(w http.ResponseWriter, r *http.Request) (string, int, int, bool) {
	testType := r.URL.Query().Get("test_type")
	part, errPart := strconv.Atoi(r.URL.Query().Get("part"))
	testSet, errSet := strconv.Atoi(r.URL.Query().Get("test_set"))

	if testType == "" || errPart != nil || errSet != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "test_type, part and test_set are required", r))
		return "", 0, 0, false
	}
	return testType, part, testSet, true
}
