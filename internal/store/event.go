package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const sequenceTable = "global_sequence"

// sequenceCounter hands out the global sequence numbers stamped on quizzes
// and LLM events. Both tables draw from one counter so `llm list` and
// `quizzes list` order consistently even when timestamps collide.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// sequenceTableSchema is the single-row table holding the next value.
func sequenceTableSchema() *schema.Table {
	id := &schema.Column{Name: "id", Type: field.TypeInt}
	next := &schema.Column{Name: "next_val", Type: field.TypeInt64, Default: 1}
	return &schema.Table{
		Name:       sequenceTable,
		Columns:    []*schema.Column{id, next},
		PrimaryKey: []*schema.Column{id},
	}
}

// newSequenceCounter seeds the counter row. The table itself is created
// by migrate.
func newSequenceCounter(ctx context.Context, db *sql.DB) (*sequenceCounter, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(sequenceTable).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.DoNothing()).
		Query()
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequenceCounter{db: db}, nil
}

// Next returns the next sequence number. The increment and read share a
// transaction, so the value is unique across processes using the same file.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	tx, err := sc.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	defer tx.Rollback()

	b := entsql.Dialect(dialect.SQLite)
	update, args := b.Update(sequenceTable).
		Add("next_val", 1).
		Where(entsql.EQ("id", 1)).
		Query()
	if _, err := tx.ExecContext(ctx, update, args...); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}

	read, args := b.Select("next_val").
		From(entsql.Table(sequenceTable)).
		Where(entsql.EQ("id", 1)).
		Query()
	var next int64
	if err := tx.QueryRowContext(ctx, read, args...).Scan(&next); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return next - 1, nil
}
