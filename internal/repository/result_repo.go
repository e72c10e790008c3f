package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"toex-backend/internal/models"
)

type ResultRepo struct {
	pool *pgxpool.Pool
}

func NewResultRepo(pool *pgxpool.Pool) *ResultRepo {
	return &ResultRepo{pool: pool}
}

// Create stores the graded result and folds it into the per-part running
// aggregate in the same transaction.
func (r *ResultRepo) Create(ctx context.Context, res *models.TestResult) error {
	res.ID = uuid.New()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO test_results (id, user_id, test_type, part, test_set, score, correct_answers, total_questions, time_spent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING completed_at`,
		res.ID, res.UserID, res.TestType, res.Part, res.TestSet,
		res.Score, res.CorrectAnswers, res.TotalQuestions, res.TimeSpent,
	).Scan(&res.CompletedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO part_aggregates (user_id, part, tests, questions, correct, time_spent, best_score)
		VALUES ($1, $2, 1, $3, $4, $5, $6)
		ON CONFLICT (user_id, part) DO UPDATE
		SET tests = part_aggregates.tests + 1,
			questions = part_aggregates.questions + $3,
			correct = part_aggregates.correct + $4,
			time_spent = part_aggregates.time_spent + $5,
			best_score = GREATEST(part_aggregates.best_score, $6)`,
		res.UserID, res.Part, res.TotalQuestions, res.CorrectAnswers, res.TimeSpent, res.Score,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ResultRepo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.TestResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, test_type, part, test_set, score, correct_answers, total_questions, time_spent, completed_at
		FROM test_results
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]models.TestResult, 0)
	for rows.Next() {
		var res models.TestResult
		if scanErr := rows.Scan(
			&res.ID, &res.UserID, &res.TestType, &res.Part, &res.TestSet,
			&res.Score, &res.CorrectAnswers, &res.TotalQuestions, &res.TimeSpent, &res.CompletedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// Aggregates returns the per-part running summaries. Average score is
// derived here rather than stored so it always matches the counters.
func (r *ResultRepo) Aggregates(ctx context.Context, userID uuid.UUID) ([]models.PartAggregate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT part, tests, questions, correct, time_spent, best_score,
			CASE WHEN questions > 0 THEN correct::float8 / questions * 100 ELSE 0 END AS average_score
		FROM part_aggregates
		WHERE user_id = $1
		ORDER BY part`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aggregates := make([]models.PartAggregate, 0)
	for rows.Next() {
		var a models.PartAggregate
		if scanErr := rows.Scan(&a.Part, &a.Tests, &a.Questions, &a.Correct, &a.TimeSpent, &a.BestScore, &a.AverageScore); scanErr != nil {
			return nil, scanErr
		}
		aggregates = append(aggregates, a)
	}
	return aggregates, rows.Err()
}
