package llm

import (
	"context"
	"testing"

	"golang.org/x/time/rate"

	"github.com/abhisek/quizforge/internal/store"
)

func TestNewProvider_MockSharesMiddleware(t *testing.T) {
	repo := openEventRepo(t)
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, Options{
		EventRepo: repo,
		Limiter:   rate.NewLimiter(rate.Inf, 1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rl, ok := p.(*RateLimitProvider)
	if !ok {
		t.Fatalf("expected *RateLimitProvider, got %T", p)
	}
	lp, ok := rl.inner.(*LoggingProvider)
	if !ok {
		t.Fatalf("expected logging inside rate limit, got %T", rl.inner)
	}
	if _, ok := lp.inner.(*MockProvider); !ok {
		t.Fatalf("expected *MockProvider at the base, got %T", lp.inner)
	}

	// An unscripted mock reports the backend unavailable; the call is
	// still recorded like any other provider's.
	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error from unscripted mock")
	}
	events, err := repo.QueryLLMEvents(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(events) != 1 || events[0].Provider != "mock" || events[0].Success {
		t.Fatalf("events = %+v, want one failed mock call", events)
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}, Options{}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Provider: "openai"}, Options{}); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestNewProvider_WrapsMiddleware(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"
	cfg.OpenAI.APIKey = "sk-test"

	p, err := NewProvider(context.Background(), cfg, Options{Limiter: rate.NewLimiter(1, 1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rl, ok := p.(*RateLimitProvider)
	if !ok {
		t.Fatalf("expected *RateLimitProvider, got %T", p)
	}
	if _, ok := rl.inner.(*LoggingProvider); !ok {
		t.Fatalf("expected logging inside rate limit, got %T", rl.inner)
	}
	if p.ModelID() != "gpt-4o-mini" {
		t.Fatalf("model = %q", p.ModelID())
	}
}

func TestNewProvider_RateLimitDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "ollama"
	cfg.RateLimit = RateLimitConfig{}

	p, err := NewProvider(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lp, ok := p.(*LoggingProvider)
	if !ok {
		t.Fatalf("expected *LoggingProvider, got %T", p)
	}
	if lp.provider != "ollama" {
		t.Fatalf("events should be labelled with the configured backend, got %q", lp.provider)
	}
	if p.ModelID() != "qwen3:0.6b" {
		t.Fatalf("model = %q", p.ModelID())
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no config without keys")
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-oai")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-oai" {
		t.Fatalf("discover = %+v, %v", cfg, ok)
	}
}
