package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/mixin"
)

// SequenceMixin stamps a row with a number from the store's global
// sequence. Quizzes and LLM events share the counter, so their rows can be
// merged into one timeline.
type SequenceMixin struct {
	mixin.Schema
}

func (SequenceMixin) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("sequence").
			Unique().
			Immutable().
			Comment("Global sequence number taken at insert"),
	}
}
