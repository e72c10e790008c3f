package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Question is one reading question. Parts 6 and 7 share a passage across a
// group of questions; the passage fields are empty for part 5.
type Question struct {
	ID           uuid.UUID       `json:"id"`
	Part         int             `json:"part"` // 5 | 6 | 7
	Position     int             `json:"position"`
	Question     string          `json:"question"`
	ChoicesJSON  json.RawMessage `json:"choices"`
	CorrectIndex int             `json:"correct_index"`
	Explanation  *string         `json:"explanation"`
	GrammarPoint *string         `json:"grammar_point"`
	Difficulty   string          `json:"difficulty"` // "easy" | "medium" | "hard"
	PassageID    *string         `json:"passage_id,omitempty"`
	PassageTitle *string         `json:"passage_title,omitempty"`
	Passage      *string         `json:"passage,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// QuestionsPerSet maps a reading part to its test-set size.
func QuestionsPerSet(part int) int {
	switch part {
	case 5:
		return 30
	case 6:
		return 16
	default:
		return 54
	}
}

type QuestionImportRequest struct {
	Part      int               `json:"part"`
	Questions []json.RawMessage `json:"questions"`
}
