package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizforge/internal/llm"
)

func TestLLMClient_Send(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"questions":[]}`)})
	c := NewLLMClient(mock, LLMClientOptions{MaxTokens: 2048, Temperature: 0.4})

	out, err := c.Send(context.Background(), "Topic: Cells")
	require.NoError(t, err)
	assert.Equal(t, `{"questions":[]}`, out)

	req, ok := mock.LastRequest()
	require.True(t, ok)
	assert.Equal(t, systemPrompt, req.System)
	assert.Same(t, BatchSchema, req.Schema)
	assert.Equal(t, 2048, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, llm.RoleUser, req.Messages[0].Role)
	assert.Equal(t, "Topic: Cells", req.Messages[0].Content)
}

func TestLLMClient_UnwrapsStringContent(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`"Type: Essay\nQuestion: Why?"`)})
	c := NewLLMClient(mock, LLMClientOptions{})

	out, err := c.Send(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "Type: Essay\nQuestion: Why?", out)
}

func TestLLMClient_MapsErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		kind       BackendKind
		retryAfter time.Duration
	}{
		{"rate limit", &llm.ErrRateLimit{RetryAfter: 3 * time.Second}, BackendRateLimited, 3 * time.Second},
		{"timeout", &llm.ErrTimeout{Err: errors.New("slow")}, BackendTimeout, 0},
		{"unavailable", &llm.ErrProviderUnavailable{Err: errors.New("503")}, BackendServiceUnavailable, 0},
		{"unknown", errors.New("connection reset"), BackendServiceUnavailable, 0},
		{"truncated without content", &llm.ErrMaxTokensExceeded{}, BackendServiceUnavailable, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLLMClient(llm.NewMockProvider(llm.MockResponse{Err: tt.err}), LLMClientOptions{})

			_, err := c.Send(context.Background(), "p")
			var be *BackendError
			require.True(t, errors.As(err, &be), "got %v", err)
			assert.Equal(t, tt.kind, be.Kind)
			assert.Equal(t, tt.retryAfter, be.RetryAfter)
		})
	}
}

func TestLLMClient_SalvagesInvalidContent(t *testing.T) {
	raw := json.RawMessage(`[{"type":"ESSAY","prompt":"Explain osmosis."}]`)
	c := NewLLMClient(llm.NewMockProvider(llm.MockResponse{
		Err: &llm.ErrInvalidResponse{Content: raw, Err: errors.New("schema mismatch")},
	}), LLMClientOptions{})

	out, err := c.Send(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, string(raw), out)
}

func TestLLMClient_CallTimeout(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{}`), Delay: time.Second})
	c := NewLLMClient(mock, LLMClientOptions{CallTimeout: 10 * time.Millisecond})

	_, err := c.Send(context.Background(), "p")
	var be *BackendError
	require.True(t, errors.As(err, &be), "got %v", err)
	assert.Equal(t, BackendTimeout, be.Kind)
}

func TestLLMClient_CallerCancel(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{}`), Delay: time.Second})
	c := NewLLMClient(mock, LLMClientOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Send(ctx, "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var be *BackendError
	assert.False(t, errors.As(err, &be))
}
