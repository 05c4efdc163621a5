package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Quiz is a saved quiz. The full document lives in data; the remaining
// columns back listing and filtering.
type Quiz struct {
	ent.Schema
}

func (Quiz) Mixin() []ent.Mixin {
	return []ent.Mixin{SequenceMixin{}}
}

func (Quiz) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable().
			Comment("ULID assigned at assembly"),
		field.Time("created_at").
			Immutable(),
		field.String("topic"),
		field.String("difficulty").
			Comment("EASY, MEDIUM or HARD"),
		field.Int("question_count"),
		field.Bool("is_partial").
			Default(false),
		field.Int("attempts").
			Default(0).
			Comment("Backend calls spent on generation"),
		field.Text("data").
			Comment("JSON-encoded quiz"),
	}
}

func (Quiz) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("created_at"),
		index.Fields("topic"),
	}
}
