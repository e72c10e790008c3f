package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"

	"toex-backend/internal/models"
	"toex-backend/internal/repository"
)

type QuestionHandler struct {
	questionRepo *repository.QuestionRepo
	vocabRepo    *repository.VocabRepo
}

func NewQuestionHandler(questionRepo *repository.QuestionRepo, vocabRepo *repository.VocabRepo) *QuestionHandler {
	return &QuestionHandler{questionRepo: questionRepo, vocabRepo: vocabRepo}
}

// List serves the question bank. ?part=5|6|7 selects the reading part,
// ?test_set=N selects one set within it, ?type=vocabulary lists vocab sets.
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("type") == "vocabulary" {
		sets, err := h.vocabRepo.ListSets(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"vocabulary_sets": sets})
		return
	}

	part, err := strconv.Atoi(r.URL.Query().Get("part"))
	if err != nil || (part != 5 && part != 6 && part != 7) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "part must be 5, 6 or 7", r))
		return
	}

	var questions []models.Question
	testSetStr := r.URL.Query().Get("test_set")
	if testSetStr == "" {
		questions, err = h.questionRepo.ListByPart(r.Context(), part)
	} else {
		testSet, convErr := strconv.Atoi(testSetStr)
		if convErr != nil || testSet < 1 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "test_set must be a positive integer", r))
			return
		}
		questions, err = h.questionRepo.ListByTestSet(r.Context(), part, testSet)
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"part":      part,
		"questions": questions,
		"per_set":   models.QuestionsPerSet(part),
	})
}

// Counts reports how many questions and complete test sets each part has.
func (h *QuestionHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]interface{}, 3)
	for _, part := range []int{5, 6, 7} {
		total, err := h.questionRepo.CountByPart(r.Context(), part)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResp("STORAGE_UNAVAILABLE", "Storage is temporarily unavailable", r))
			return
		}
		perSet := models.QuestionsPerSet(part)
		counts["part"+strconv.Itoa(part)] = map[string]int{
			"questions": total,
			"test_sets": total / perSet,
			"per_set":   perSet,
		}
	}

	writeJSON(w, http.StatusOK, counts)
}
