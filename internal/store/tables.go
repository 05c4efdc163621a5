package store

import (
	"fmt"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/abhisek/quizforge/ent/schema"
)

// Table names shared by the repositories.
const (
	llmEventsTable = "llm_request_events"
	quizzesTable   = "quizzes"
)

// buildTables derives the migration tables from the ent schema definitions.
func buildTables() ([]*schema.Table, error) {
	llmEvents, err := tableFor(llmEventsTable, "llmrequestevent", entschema.LLMRequestEvent{})
	if err != nil {
		return nil, err
	}
	quizzes, err := tableFor(quizzesTable, "quiz", entschema.Quiz{})
	if err != nil {
		return nil, err
	}
	return []*schema.Table{llmEvents, quizzes}, nil
}

// tableFor converts an ent schema, mixins included, into a table. Schemas
// without an explicit "id" field get an auto-increment integer key.
func tableFor(name, label string, s ent.Interface) (*schema.Table, error) {
	var (
		fields  []ent.Field
		indexes []ent.Index
	)
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, s.Fields()...)
	indexes = append(indexes, s.Indexes()...)

	t := &schema.Table{Name: name}
	byName := make(map[string]*schema.Column)
	for _, f := range fields {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("table %s: field %s: %w", name, d.Name, d.Err)
		}
		col := &schema.Column{
			Name:     d.Name,
			Type:     d.Info.Type,
			Unique:   d.Unique,
			Nullable: d.Optional || d.Nillable,
			Size:     int64(d.Size),
		}
		switch v := d.Default.(type) {
		case string, bool, int, int64, float64:
			col.Default = v
		}
		t.Columns = append(t.Columns, col)
		byName[col.Name] = col
	}

	if id, ok := byName["id"]; ok {
		t.PrimaryKey = []*schema.Column{id}
	} else {
		id := &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
		t.Columns = append([]*schema.Column{id}, t.Columns...)
		t.PrimaryKey = []*schema.Column{id}
	}

	for _, idx := range indexes {
		d := idx.Descriptor()
		cols := make([]*schema.Column, 0, len(d.Fields))
		for _, f := range d.Fields {
			col, ok := byName[f]
			if !ok {
				return nil, fmt.Errorf("table %s: index on unknown column %q", name, f)
			}
			cols = append(cols, col)
		}
		t.Indexes = append(t.Indexes, &schema.Index{
			Name:    label + "_" + strings.Join(d.Fields, "_"),
			Unique:  d.Unique,
			Columns: cols,
		})
	}
	return t, nil
}
