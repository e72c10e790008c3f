package handlers

import (
	"net/http"

	"toex-backend/internal/middleware"
	"toex-backend/internal/repository"
	"toex-backend/internal/services"
)

type DashboardHandler struct {
	statsService   *services.StatsService
	resultRepo     *repository.ResultRepo
	progressRepo   *repository.ProgressRepo
	refreshSeconds int
}

func NewDashboardHandler(statsService *services.StatsService, resultRepo *repository.ResultRepo, progressRepo *repository.ProgressRepo, refreshSeconds int) *DashboardHandler {
	return &DashboardHandler{
		statsService:   statsService,
		resultRepo:     resultRepo,
		progressRepo:   progressRepo,
		refreshSeconds: refreshSeconds,
	}
}

// Overview bundles everything the dashboard screen renders in one call:
// study stats, per-part aggregates, recent results and unfinished tests.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	ctx := r.Context()

	stats, err := h.statsService.GetStats(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	aggregates, err := h.resultRepo.Aggregates(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	recentResults, err := h.resultRepo.ListRecent(ctx, userID, 10)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	inProgress, err := h.progressRepo.List(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	sessions, err := h.statsService.RecentSessions(ctx, userID, 14)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":           stats,
		"streak_at_risk":  h.statsService.StreakAtRisk(stats),
		"parts":           aggregates,
		"recent_results":  recentResults,
		"in_progress":     inProgress,
		"recent_sessions": sessions,
		"refresh_seconds": h.refreshSeconds,
	})
}
