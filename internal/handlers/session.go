package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"toex-backend/internal/middleware"
	"toex-backend/internal/models"
	"toex-backend/internal/services"
)

type SessionHandler struct {
	statsService *services.StatsService
}

func NewSessionHandler(statsService *services.StatsService) *SessionHandler {
	return &SessionHandler{statsService: statsService}
}

// Sync records one study session against the caller's stats and returns
// the updated totals.
func (h *SessionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.SessionSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	stats, err := h.statsService.RecordSession(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SessionSyncResponse{
		TotalStudyTime:     stats.TotalStudyTime,
		Streak:             stats.Streak,
		SessionTimeMinutes: req.SessionTimeMinutes,
	})
}

func (h *SessionHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := h.statsService.RecentSessions(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// SweepStreaks runs the maintenance pass that zeroes lapsed streaks.
// Admin only; the scheduler calls the same service method on its own timer.
func (h *SessionHandler) SweepStreaks(w http.ResponseWriter, r *http.Request) {
	result, err := h.statsService.ResetStaleStreaks(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
