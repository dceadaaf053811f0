// internal/models/question.go
package models

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Option is one answer choice presented for a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a row from the question catalogue. CorrectOptionID is compared
// against the option id a participant selects.
type Question struct {
	ID              uuid.UUID `json:"id"`
	Text            string    `json:"text"`
	Options         []Option  `json:"options"`
	CorrectOptionID string    `json:"correct_option_id"`
	Topic           string    `json:"topic,omitempty"`
	Difficulty      string    `json:"difficulty,omitempty"`
}

// DecodeOptions normalizes the two historical shapes of the options column:
// a JSON array of {id,text} objects, or a keyed {"A": "text", ...} object.
// All reads go through this one decoder; call sites never inspect the raw
// shape themselves.
func DecodeOptions(raw json.RawMessage) ([]Option, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("options column is empty")
	}

	var asList []Option
	if err := json.Unmarshal(raw, &asList); err == nil {
		return asList, nil
	}

	var asMap map[string]string
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, fmt.Errorf("options column has unsupported shape: %w", err)
	}

	opts := make([]Option, 0, len(asMap))
	for id, text := range asMap {
		opts = append(opts, Option{ID: id, Text: text})
	}
	// Keyed objects have no inherent order; sort by id so every client renders
	// the same sequence.
	sort.Slice(opts, func(i, j int) bool { return opts[i].ID < opts[j].ID })
	return opts, nil
}
