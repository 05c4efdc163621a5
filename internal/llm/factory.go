package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/abhisek/quizforge/internal/store"
)

// Options carries the process-wide collaborators the factory wires around
// the base provider. Every field is optional.
type Options struct {
	EventRepo store.EventRepo
	Logger    *zap.Logger
	Logging   LoggingOptions

	// Limiter is shared across every provider built in the process. When
	// nil, one is built from Config.RateLimit.
	Limiter *rate.Limiter
}

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with rate limiting and logging middleware.
func NewProvider(ctx context.Context, cfg Config, opts Options) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "ollama":
		base, err = NewOllamaProvider(cfg.Ollama)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewLimiter(cfg.RateLimit)
	}

	logOpts := opts.Logging
	if logOpts.Provider == "" {
		logOpts.Provider = cfg.Provider
	}

	// caller → rate limit → logging → base
	logged := WithLogging(base, opts.EventRepo, opts.Logger, logOpts)
	return WithRateLimit(logged, limiter), nil
}
