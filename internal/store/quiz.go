package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type quizRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var quizSummaryFields = []string{
	"id", "sequence", "created_at", "topic", "difficulty",
	"question_count", "is_partial", "attempts",
}

func (r *quizRepo) Save(ctx context.Context, rec QuizRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("save quiz: empty id")
	}
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(quizzesTable).
		Columns(append(quizSummaryFields, "data")...).
		Values(
			rec.ID,
			seqNum,
			rec.CreatedAt.UTC(),
			rec.Topic,
			rec.Difficulty,
			rec.QuestionCount,
			rec.IsPartial,
			rec.Attempts,
			string(rec.Data),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save quiz %s: %w", rec.ID, err)
	}
	return nil
}

func (r *quizRepo) Get(ctx context.Context, id string) (*QuizRecord, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(append(quizSummaryFields, "data")...).
		From(entsql.Table(quizzesTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		rec  QuizRecord
		data string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&rec.ID, &rec.Sequence, &rec.CreatedAt, &rec.Topic, &rec.Difficulty,
		&rec.QuestionCount, &rec.IsPartial, &rec.Attempts, &data,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("quiz %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz %s: %w", id, err)
	}
	rec.Data = []byte(data)
	return &rec, nil
}

func (r *quizRepo) List(ctx context.Context, opts QuizListOpts) ([]QuizRecord, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(quizSummaryFields...).
		From(entsql.Table(quizzesTable))
	if opts.Topic != "" {
		sel.Where(entsql.EQ("topic", opts.Topic))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []QuizRecord
	for rows.Next() {
		var rec QuizRecord
		if err := rows.Scan(
			&rec.ID, &rec.Sequence, &rec.CreatedAt, &rec.Topic, &rec.Difficulty,
			&rec.QuestionCount, &rec.IsPartial, &rec.Attempts,
		); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *quizRepo) Delete(ctx context.Context, id string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(quizzesTable).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete quiz %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quiz %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("quiz %s: %w", id, ErrNotFound)
	}
	return nil
}
