package quizgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/quizforge/internal/llm"
)

// optionItem accepts either a bare option string or {"text", "correct"}.
var optionItem = map[string]any{
	"anyOf": []any{
		map[string]any{"type": "string"},
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":    map[string]any{"type": "string"},
				"correct": map[string]any{"type": "boolean"},
			},
			"required": []any{"text"},
		},
	},
}

// BatchSchema is sent to providers with native structured output. It only
// pins the envelope: entries are checked one by one by the parser so a
// single bad entry cannot sink the batch.
var BatchSchema = &llm.Schema{
	Name:        "quiz-batch",
	Description: "A batch of quiz questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type":        "string",
							"description": "One of MULTIPLE_CHOICE, TRUE_FALSE, SHORT_ANSWER, ESSAY, FILL_IN_BLANK",
						},
						"prompt": map[string]any{
							"type":        "string",
							"description": "The question text shown to the learner",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       optionItem,
							"description": "Answer options; empty for open question types",
						},
						"correct_answer": map[string]any{
							"type":        "string",
							"description": "The correct answer text",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Why the answer is correct",
						},
					},
				},
			},
		},
		"required": []any{"questions"},
	},
}

// entrySchema constrains the option structure of a single entry. Field
// presence is checked in code so that aliases stay cheap to support.
var entrySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"options": map[string]any{"type": "array", "items": optionItem},
		"choices": map[string]any{"type": "array", "items": optionItem},
	},
}

var compileEntrySchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	// Round-trip through JSON so the compiler sees plain decoded values.
	raw, err := json.Marshal(entrySchema)
	if err != nil {
		return nil, fmt.Errorf("marshal entry schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse entry schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	const url = "schema://quiz-entry.json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile(url)
})
