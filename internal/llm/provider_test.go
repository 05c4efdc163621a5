package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_ReplaysScript(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"questions":[{"prompt":"What is 2+2?"}]}`), Usage: Usage{InputTokens: 10, OutputTokens: 5}},
		MockResponse{Err: &ErrRateLimit{}},
		MockResponse{Content: json.RawMessage(`{"questions":[]}`)},
	)
	ctx := context.Background()

	first, err := mock.Generate(ctx, Request{Messages: []Message{{Role: RoleUser, Content: "arithmetic"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Usage.TotalTokens != 15 {
		t.Errorf("total tokens = %d, want 15", first.Usage.TotalTokens)
	}
	if first.StopReason != StopEnd || first.Model != "mock" {
		t.Errorf("stop/model = %q/%q", first.StopReason, first.Model)
	}

	var rl *ErrRateLimit
	if _, err := mock.Generate(ctx, Request{}); !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got %T (%v)", err, err)
	}

	third, err := mock.Generate(ctx, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(third.Content) != `{"questions":[]}` {
		t.Errorf("content = %s", third.Content)
	}

	var unavail *ErrProviderUnavailable
	if _, err := mock.Generate(ctx, Request{}); !errors.As(err, &unavail) {
		t.Fatalf("exhausted script should report unavailable, got %T", err)
	}
	if mock.CallCount() != 4 {
		t.Errorf("calls = %d, want 4", mock.CallCount())
	}
}

func TestMockProvider_Responder(t *testing.T) {
	mock := NewMockProvider()
	mock.Responder = func(req Request) MockResponse {
		return MockResponse{Content: json.RawMessage(`"` + req.Messages[0].Content + `"`)}
	}

	resp, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "echo"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `"echo"` {
		t.Errorf("content = %s", resp.Content)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 || reqs[0].Messages[0].Content != "echo" {
		t.Errorf("requests = %+v", reqs)
	}
	last, ok := mock.LastRequest()
	if !ok || last.Messages[0].Content != "echo" {
		t.Errorf("last request = %+v, %v", last, ok)
	}
}

func TestMockProvider_DelayHonoursCancel(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`), Delay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := mock.Generate(ctx, Request{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "quiz-gen")
	if p := PurposeFrom(ctx); p != "quiz-gen" {
		t.Fatalf("expected 'quiz-gen', got %q", p)
	}

	if p := PurposeFrom(WithPurpose(ctx, "")); p != UnknownPurpose {
		t.Fatalf("empty purpose should read as unknown, got %q", p)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if id := RequestIDFrom(ctx); id != "" {
		t.Fatalf("expected no request id, got %q", id)
	}

	ctx = WithPurpose(WithRequestID(ctx, "req-7"), "quiz-gen")
	if id := RequestIDFrom(ctx); id != "req-7" {
		t.Fatalf("expected 'req-7', got %q", id)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "anthropic without key",
			cfg:     Config{Provider: "anthropic"},
			wantErr: true,
		},
		{
			name:    "anthropic with key",
			cfg:     Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "openai without key",
			cfg:     Config{Provider: "openai"},
			wantErr: true,
		},
		{
			name:    "openai with key",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "ollama with model",
			cfg:     Config{Provider: "ollama", Ollama: OllamaConfig{Model: "qwen3:0.6b"}},
			wantErr: false,
		},
		{
			name:    "ollama without model",
			cfg:     Config{Provider: "ollama"},
			wantErr: true,
		},
		{
			name:    "negative rate limit",
			cfg:     Config{Provider: "mock", RateLimit: RateLimitConfig{RequestsPerSecond: -1}},
			wantErr: true,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Provider: "mock"},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
