package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"toex-backend/internal/database"
	"toex-backend/internal/repository"
)

// AdminHandler serves the database inspection endpoints used during
// development and operations. All routes sit behind the admin role.
type AdminHandler struct {
	pool      *pgxpool.Pool
	adminRepo *repository.AdminRepo
}

func NewAdminHandler(pool *pgxpool.Pool, adminRepo *repository.AdminRepo) *AdminHandler {
	return &AdminHandler{pool: pool, adminRepo: adminRepo}
}

// Health pings the database and reports server version and user count.
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	info, err := database.CheckHealth(r.Context(), h.pool)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Database connection failed", r))
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// Tables lists all public tables with their row counts.
func (h *AdminHandler) Tables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.adminRepo.ListTables(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tables": tables})
}

// TableData returns up to ?limit rows (default 20, max 100) of one table.
func (h *AdminHandler) TableData(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := h.adminRepo.SampleRows(r.Context(), table, limit)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Unknown table", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"table": table,
		"rows":  rows,
	})
}
