package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/quizforge/internal/llm"
)

// GenerationClient sends one prompt to a generative backend and returns its
// raw output. Transient failures are reported as *BackendError; caller
// cancellation is reported as the context error.
type GenerationClient interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// Purpose tags quiz generation calls in the LLM event log.
const Purpose = "quiz-gen"

// LLMClientOptions tunes the requests an LLMClient sends.
type LLMClientOptions struct {
	// CallTimeout bounds a single call. Zero disables the bound.
	CallTimeout time.Duration
	MaxTokens   int
	Temperature float64
}

// LLMClient is a GenerationClient backed by an llm.Provider.
type LLMClient struct {
	provider llm.Provider
	opts     LLMClientOptions
}

// NewLLMClient returns a client that sends quiz prompts through p.
func NewLLMClient(p llm.Provider, opts LLMClientOptions) *LLMClient {
	return &LLMClient{provider: p, opts: opts}
}

// ModelID reports the model behind the client.
func (c *LLMClient) ModelID() string { return c.provider.ModelID() }

func (c *LLMClient) Send(ctx context.Context, prompt string) (string, error) {
	ctx = llm.WithPurpose(ctx, Purpose)

	callCtx := ctx
	if c.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.opts.CallTimeout)
		defer cancel()
	}

	resp, err := c.provider.Generate(callCtx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Schema:      BatchSchema,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err == nil {
		return contentText(resp.Content), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	return c.mapError(callCtx, err)
}

// mapError translates provider errors into backend errors. Content that
// failed the provider's schema check is handed back as output so the
// tolerant parser can salvage what it can.
func (c *LLMClient) mapError(callCtx context.Context, err error) (string, error) {
	var invalid *llm.ErrInvalidResponse
	if errors.As(err, &invalid) && len(invalid.Content) > 0 {
		return contentText(invalid.Content), nil
	}
	var truncated *llm.ErrMaxTokensExceeded
	if errors.As(err, &truncated) && len(truncated.Content) > 0 {
		return contentText(truncated.Content), nil
	}

	var (
		rl      *llm.ErrRateLimit
		timeout *llm.ErrTimeout
	)
	switch {
	case errors.As(err, &rl):
		return "", &BackendError{Kind: BackendRateLimited, RetryAfter: rl.RetryAfter, Err: err}
	case errors.As(err, &timeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return "", &BackendError{Kind: BackendTimeout, Err: err}
	}
	return "", &BackendError{Kind: BackendServiceUnavailable, Err: fmt.Errorf("%s: %w", c.provider.ModelID(), err)}
}

// contentText unwraps content that a provider returned as a JSON string.
func contentText(content json.RawMessage) string {
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}
	return string(content)
}
