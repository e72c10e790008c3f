package worker

import (
	"encoding/json"
	"testing"
)

func TestParseQuestion(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			"valid question",
			`{"question": "The report ___ submitted yesterday.", "choices": ["was", "is", "are", "be"], "correct_index": 0, "difficulty": "easy"}`,
			false,
		},
		{
			"defaults difficulty to medium",
			`{"question": "Choose the best word.", "choices": ["quick", "quickly"], "correct_index": 1}`,
			false,
		},
		{
			"missing question text",
			`{"choices": ["a", "b"], "correct_index": 0}`,
			true,
		},
		{
			"single choice",
			`{"question": "Q?", "choices": ["only"], "correct_index": 0}`,
			true,
		},
		{
			"correct index out of range",
			`{"question": "Q?", "choices": ["a", "b"], "correct_index": 2}`,
			true,
		},
		{
			"negative correct index",
			`{"question": "Q?", "choices": ["a", "b"], "correct_index": -1}`,
			true,
		},
		{
			"unknown difficulty",
			`{"question": "Q?", "choices": ["a", "b"], "correct_index": 0, "difficulty": "brutal"}`,
			true,
		},
		{
			"not an object",
			`[1, 2, 3]`,
			true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := parseQuestion(json.RawMessage(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Difficulty == "" {
				t.Error("expected difficulty to be set")
			}
		})
	}
}

func TestParseQuestion_PassageFields(t *testing.T) {
	raw := `{
		"question": "What is implied in the notice?",
		"choices": ["a", "b", "c", "d"],
		"correct_index": 2,
		"passage_id": "p7-001",
		"passage_title": "Office Closure Notice",
		"passage": "The office will be closed for maintenance on Friday."
	}`

	q, err := parseQuestion(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.PassageID == nil || *q.PassageID != "p7-001" {
		t.Error("expected passage_id to be carried through")
	}
	if q.Passage == nil || *q.Passage == "" {
		t.Error("expected passage text to be carried through")
	}
}
