package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"toex-backend/internal/repository"
)

type VocabHandler struct {
	vocabRepo *repository.VocabRepo
}

func NewVocabHandler(vocabRepo *repository.VocabRepo) *VocabHandler {
	return &VocabHandler{vocabRepo: vocabRepo}
}

func (h *VocabHandler) ListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.vocabRepo.ListSets(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sets": sets})
}

func (h *VocabHandler) GetSet(w http.ResponseWriter, r *http.Request) {
	setID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	set, err := h.vocabRepo.GetSet(r.Context(), setID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Vocabulary set not found", r))
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	cards, err := h.vocabRepo.ListCards(r.Context(), setID)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"set":   set,
		"cards": cards,
	})
}
