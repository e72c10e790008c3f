package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"toex-backend/internal/models"
)

type VocabRepo struct {
	pool *pgxpool.Pool
}

func NewVocabRepo(pool *pgxpool.Pool) *VocabRepo {
	return &VocabRepo{pool: pool}
}

func (r *VocabRepo) ListSets(ctx context.Context) ([]models.VocabSet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.title, s.topic, COUNT(c.id) AS card_count, s.created_at
		FROM vocab_sets s
		LEFT JOIN vocab_cards c ON c.set_id = s.id
		GROUP BY s.id
		ORDER BY s.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sets := make([]models.VocabSet, 0)
	for rows.Next() {
		var s models.VocabSet
		if scanErr := rows.Scan(&s.ID, &s.Title, &s.Topic, &s.CardCount, &s.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

func (r *VocabRepo) GetSet(ctx context.Context, setID uuid.UUID) (*models.VocabSet, error) {
	s := &models.VocabSet{}
	err := r.pool.QueryRow(ctx, `
		SELECT s.id, s.title, s.topic, COUNT(c.id) AS card_count, s.created_at
		FROM vocab_sets s
		LEFT JOIN vocab_cards c ON c.set_id = s.id
		WHERE s.id = $1
		GROUP BY s.id`,
		setID,
	).Scan(&s.ID, &s.Title, &s.Topic, &s.CardCount, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *VocabRepo) ListCards(ctx context.Context, setID uuid.UUID) ([]models.VocabCard, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, set_id, word, meaning, example, phonetic, position
		FROM vocab_cards
		WHERE set_id = $1
		ORDER BY position`,
		setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := make([]models.VocabCard, 0)
	for rows.Next() {
		var c models.VocabCard
		if scanErr := rows.Scan(&c.ID, &c.SetID, &c.Word, &c.Meaning, &c.Example, &c.Phonetic, &c.Position); scanErr != nil {
			return nil, scanErr
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}
