package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"toex-backend/internal/models"
)

type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

// Save upserts the saved position for one (test type, part, test set) slot.
// A re-save replaces the previous snapshot in place.
func (r *ProgressRepo) Save(ctx context.Context, userID uuid.UUID, req *models.SaveProgressRequest) (*models.TestProgress, error) {
	if len(req.AnswersJSON) == 0 {
		req.AnswersJSON = json.RawMessage("{}")
	}

	p := &models.TestProgress{
		UserID:           userID,
		TestType:         req.TestType,
		Part:             req.Part,
		TestSet:          req.TestSet,
		CurrentQuestion:  req.CurrentQuestion,
		TotalQuestions:   req.TotalQuestions,
		AnswersJSON:      req.AnswersJSON,
		TimeSpentSeconds: req.TimeSpentSeconds,
		Completed:        req.Completed,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO test_progress (id, user_id, test_type, part, test_set, current_question, total_questions, answers_json, time_spent_seconds, completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, test_type, part, test_set) DO UPDATE
		SET current_question = $6,
			total_questions = $7,
			answers_json = $8,
			time_spent_seconds = $9,
			completed = $10,
			last_saved_at = NOW()
		RETURNING id, started_at, last_saved_at`,
		uuid.New(), userID, req.TestType, req.Part, req.TestSet,
		req.CurrentQuestion, req.TotalQuestions, req.AnswersJSON,
		req.TimeSpentSeconds, req.Completed,
	).Scan(&p.ID, &p.StartedAt, &p.LastSavedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProgressRepo) Get(ctx context.Context, userID uuid.UUID, testType string, part, testSet int) (*models.TestProgress, error) {
	p := &models.TestProgress{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, test_type, part, test_set, current_question, total_questions, answers_json, time_spent_seconds, completed, started_at, last_saved_at
		FROM test_progress
		WHERE user_id = $1 AND test_type = $2 AND part = $3 AND test_set = $4`,
		userID, testType, part, testSet,
	).Scan(
		&p.ID, &p.UserID, &p.TestType, &p.Part, &p.TestSet,
		&p.CurrentQuestion, &p.TotalQuestions, &p.AnswersJSON,
		&p.TimeSpentSeconds, &p.Completed, &p.StartedAt, &p.LastSavedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProgressRepo) List(ctx context.Context, userID uuid.UUID) ([]models.TestProgress, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, test_type, part, test_set, current_question, total_questions, answers_json, time_spent_seconds, completed, started_at, last_saved_at
		FROM test_progress
		WHERE user_id = $1 AND completed = FALSE
		ORDER BY last_saved_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.TestProgress, 0)
	for rows.Next() {
		var p models.TestProgress
		if scanErr := rows.Scan(
			&p.ID, &p.UserID, &p.TestType, &p.Part, &p.TestSet,
			&p.CurrentQuestion, &p.TotalQuestions, &p.AnswersJSON,
			&p.TimeSpentSeconds, &p.Completed, &p.StartedAt, &p.LastSavedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, p)
	}
	return entries, rows.Err()
}

func (r *ProgressRepo) Delete(ctx context.Context, userID uuid.UUID, testType string, part, testSet int) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM test_progress
		WHERE user_id = $1 AND test_type = $2 AND part = $3 AND test_set = $4`,
		userID, testType, part, testSet)
	return err
}
