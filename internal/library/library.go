// Package library persists generated quizzes in the SQLite store.
package library

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/quizforge/internal/quizgen"
	"github.com/abhisek/quizforge/internal/store"
)

// Summary is the listing view of a saved quiz.
type Summary struct {
	ID            string             `json:"id"`
	Topic         string             `json:"topic"`
	Difficulty    quizgen.Difficulty `json:"difficulty"`
	QuestionCount int                `json:"question_count"`
	IsPartial     bool               `json:"is_partial"`
	Attempts      int                `json:"generation_attempts"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Library maps quizzes to store records.
type Library struct {
	repo store.QuizRepo
}

// New returns a Library over repo.
func New(repo store.QuizRepo) *Library {
	return &Library{repo: repo}
}

// Save stores the full quiz under its id.
func (l *Library) Save(ctx context.Context, q *quizgen.Quiz) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode quiz %s: %w", q.ID, err)
	}
	return l.repo.Save(ctx, store.QuizRecord{
		ID:            q.ID,
		CreatedAt:     q.CreatedAt,
		Topic:         q.Topic,
		Difficulty:    string(q.Difficulty),
		QuestionCount: len(q.Questions),
		IsPartial:     q.IsPartial,
		Attempts:      q.GenerationAttempts,
		Data:          data,
	})
}

// Get loads a saved quiz. A missing id yields an error wrapping
// store.ErrNotFound.
func (l *Library) Get(ctx context.Context, id string) (*quizgen.Quiz, error) {
	rec, err := l.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var q quizgen.Quiz
	if err := json.Unmarshal(rec.Data, &q); err != nil {
		return nil, fmt.Errorf("decode quiz %s: %w", id, err)
	}
	return &q, nil
}

// List returns saved quizzes newest first.
func (l *Library) List(ctx context.Context, opts store.QuizListOpts) ([]Summary, error) {
	recs, err := l.repo.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(recs))
	for _, r := range recs {
		out = append(out, Summary{
			ID:            r.ID,
			Topic:         r.Topic,
			Difficulty:    quizgen.Difficulty(r.Difficulty),
			QuestionCount: r.QuestionCount,
			IsPartial:     r.IsPartial,
			Attempts:      r.Attempts,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out, nil
}

// Delete removes a saved quiz.
func (l *Library) Delete(ctx context.Context, id string) error {
	return l.repo.Delete(ctx, id)
}
