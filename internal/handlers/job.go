package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"toex-backend/internal/middleware"
	"toex-backend/internal/models"
	"toex-backend/internal/repository"
)

type JobHandler struct {
	jobRepo *repository.JobRepo
	redis   *redis.Client
}

func NewJobHandler(jobRepo *repository.JobRepo, redisClient *redis.Client) *JobHandler {
	return &JobHandler{jobRepo: jobRepo, redis: redisClient}
}

// ImportQuestions accepts a batch of questions for one part and queues a
// background job to validate and insert them. Admin only.
func (h *JobHandler) ImportQuestions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.QuestionImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fieldErrors := make(map[string]string)
	if req.Part != 5 && req.Part != 6 && req.Part != 7 {
		fieldErrors["part"] = "Part must be 5, 6 or 7"
	}
	if len(req.Questions) == 0 {
		fieldErrors["questions"] = "At least one question is required"
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	configBytes, _ := json.Marshal(req)
	job := &models.Job{
		UserID:     userID,
		Type:       "question-import",
		ConfigJSON: configBytes,
	}

	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.redis.LPush(r.Context(), "queue:question-import", string(jobBytes)).Err(); err != nil {
		h.jobRepo.UpdateStatus(r.Context(), job.ID, "failed")
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Job queue is unavailable", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (h *JobHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}
