// internal/database/question.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lexprep/arena/internal/engine"
	"github.com/lexprep/arena/internal/models"
)

// FetchEligible returns ids of questions matching the filter. Empty topic or
// difficulty means no constraint on that column.
func (s *Store) FetchEligible(ctx context.Context, filter engine.QuestionFilter) ([]uuid.UUID, error) {
	q := `
	SELECT id FROM questions
	WHERE ($1 = '' OR topic = $1)
	  AND ($2 = '' OR difficulty = $2)
	LIMIT $3`
	rows, err := s.pool.Query(ctx, q, filter.Topic, filter.Difficulty, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch eligible questions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FetchQuestion loads one question, normalizing whichever options shape the
// row carries.
func (s *Store) FetchQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q := `
	SELECT id, question_text, options, correct_answer, topic, difficulty
	FROM questions WHERE id = $1`

	var (
		question models.Question
		rawOpts  []byte
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&question.ID,
		&question.Text,
		&rawOpts,
		&question.CorrectOptionID,
		&question.Topic,
		&question.Difficulty,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch question %s: %w", id, err)
	}
	opts, err := models.DecodeOptions(rawOpts)
	if err != nil {
		return nil, fmt.Errorf("decode options for question %s: %w", id, err)
	}
	question.Options = opts
	return &question, nil
}
