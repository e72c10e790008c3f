package models

import (
	"time"

	"github.com/google/uuid"
)

type VocabSet struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Topic     *string   `json:"topic"`
	CardCount int       `json:"card_count"`
	CreatedAt time.Time `json:"created_at"`
}

type VocabCard struct {
	ID       uuid.UUID `json:"id"`
	SetID    uuid.UUID `json:"set_id"`
	Word     string    `json:"word"`
	Meaning  string    `json:"meaning"`
	Example  *string   `json:"example"`
	Phonetic *string   `json:"phonetic"`
	Position int       `json:"position"`
}
