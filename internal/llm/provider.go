package llm

import (
	"context"
	"encoding/json"
)

// Provider sends a single request to a generative backend.
//
// Implementations map their SDK failures onto the error types in errors.go
// so callers can tell rate limits, timeouts and unusable output apart
// without knowing which backend is configured.
type Provider interface {
	// Generate runs one completion. When req.Schema is set the backend is
	// asked for JSON matching it and the reply is validated locally; a
	// reply that fails validation comes back as *ErrInvalidResponse with
	// the raw content attached.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the resolved model identifier.
	ModelID() string
}

// Request is one prompt for the backend.
type Request struct {
	System   string
	Messages []Message

	// Schema constrains the reply. Nil means free text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the backend default.
	Temperature float64
}

// Message is one conversation turn. Quiz generation sends a single user
// turn; assistant turns exist for providers that replay history.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema for structured output.
type Schema struct {
	// Name is sent as the OpenAI schema name and keys the compiled
	// validator cache. Kebab-case, e.g. "quiz-batch".
	Name        string
	Description string
	Definition  map[string]any

	// Strict asks providers that support it to enforce the schema exactly.
	// Lenient schemas that leave item fields optional must keep this off.
	Strict bool
}

// Stop reasons reported on a Response. Truncated output is surfaced as
// *ErrMaxTokensExceeded, so a successful Response normally says StopEnd.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Response is a completed generation.
type Response struct {
	// Content is the raw reply. With a Schema it is validated JSON.
	Content json.RawMessage
	Usage   Usage

	// Model is the model that served the call, which may be a dated
	// version of ModelID.
	Model      string
	StopReason string
}

// Usage is token consumption for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
