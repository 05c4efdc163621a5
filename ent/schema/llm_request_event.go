package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LLMRequestEvent is one call to a generation backend, successful or not.
// `quizforge llm stats` aggregates these rows into token and cost totals.
type LLMRequestEvent struct {
	ent.Schema
}

func (LLMRequestEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{SequenceMixin{}}
}

func (LLMRequestEvent) Fields() []ent.Field {
	return []ent.Field{
		field.Time("timestamp").
			Default(time.Now).
			Immutable().
			Comment("UTC time the call finished"),
		field.String("provider").
			Comment("Configured backend: anthropic, openai, gemini, openrouter, ollama"),
		field.String("model").
			Comment("Model that served the call, as reported by the backend"),
		field.String("purpose").
			Comment("Caller label, quiz-gen for the generation pipeline"),
		field.String("request_id").
			Default("").
			Comment("HTTP request id when the call came through the API server"),
		field.Int("input_tokens").
			Default(0),
		field.Int("output_tokens").
			Default(0),
		field.Int64("latency_ms").
			Default(0),
		field.Bool("success"),
		field.String("error_message").
			Default(""),
		field.Text("request_body").
			Default("").
			Comment("Rendered prompt, kept only with body capture on"),
		field.Text("response_body").
			Default("").
			Comment("Raw backend reply, kept only with body capture on"),
	}
}

func (LLMRequestEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("timestamp"),
		index.Fields("purpose"),
		index.Fields("request_id"),
	}
}
