package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"toex-backend/internal/models"
)

type QuestionRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionRepo(pool *pgxpool.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

const questionColumns = `id, part, position, question, choices_json, correct_index, explanation, grammar_point, difficulty, passage_id, passage_title, passage, created_at`

// ListByTestSet returns the questions for one test set of a part, ordered by
// position. Test sets are 1-based windows of the part's question bank.
func (r *QuestionRepo) ListByTestSet(ctx context.Context, part, testSet int) ([]models.Question, error) {
	perSet := models.QuestionsPerSet(part)
	offset := (testSet - 1) * perSet

	rows, err := r.pool.Query(ctx,
		"SELECT "+questionColumns+` FROM questions
		WHERE part = $1
		ORDER BY position
		LIMIT $2 OFFSET $3`,
		part, perSet, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func (r *QuestionRepo) ListByPart(ctx context.Context, part int) ([]models.Question, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+questionColumns+" FROM questions WHERE part = $1 ORDER BY position", part)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func scanQuestions(rows pgx.Rows) ([]models.Question, error) {
	questions := make([]models.Question, 0)
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(
			&q.ID, &q.Part, &q.Position, &q.Question, &q.ChoicesJSON, &q.CorrectIndex,
			&q.Explanation, &q.GrammarPoint, &q.Difficulty,
			&q.PassageID, &q.PassageTitle, &q.Passage, &q.CreatedAt,
		); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *QuestionRepo) CountByPart(ctx context.Context, part int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM questions WHERE part = $1", part).Scan(&count)
	return count, err
}

// InsertBatch appends questions for a part, assigning positions after the
// current maximum so imports never collide with existing sets.
func (r *QuestionRepo) InsertBatch(ctx context.Context, part int, questions []models.Question) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var nextPos int
	if err := tx.QueryRow(ctx,
		"SELECT COALESCE(MAX(position), 0) + 1 FROM questions WHERE part = $1", part,
	).Scan(&nextPos); err != nil {
		return 0, err
	}

	batch := &pgx.Batch{}
	for i := range questions {
		q := &questions[i]
		q.ID = uuid.New()
		q.Part = part
		q.Position = nextPos + i
		batch.Queue(`
			INSERT INTO questions (id, part, position, question, choices_json, correct_index, explanation, grammar_point, difficulty, passage_id, passage_title, passage)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			q.ID, q.Part, q.Position, q.Question, q.ChoicesJSON, q.CorrectIndex,
			q.Explanation, q.GrammarPoint, q.Difficulty, q.PassageID, q.PassageTitle, q.Passage,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range questions {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, err
		}
	}
	if err := results.Close(); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(questions), nil
}
