package quizgen

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Result is delivered by GenerateAsync. Exactly one of Quiz and Err is set.
type Result struct {
	Quiz *Quiz
	Err  error
}

// Service is the entry point for quiz generation. It is safe for
// concurrent use.
type Service struct {
	coordinator *Coordinator
	debounce    *debouncer
	logger      *zap.Logger
}

// Option configures a Service.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	now       func() time.Time
	validator *Validator
	jitter    func() float64
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides the clock used for timestamps and the debounce window.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithValidator replaces the default validator.
func WithValidator(v *Validator) Option {
	return func(o *options) { o.validator = v }
}

// withJitter pins backoff jitter, for tests. 0.5 means no jitter.
func withJitter(f func() float64) Option {
	return func(o *options) { o.jitter = f }
}

// New returns a Service that generates through client.
func New(client GenerationClient, cfg Config, opts ...Option) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("quizgen: nil client")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("quizgen: %w", err)
	}

	o := options{logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := NewCoordinator(client, cfg, o.logger)
	c.now = o.now
	c.jitter = o.jitter
	if o.validator != nil {
		c.validator = o.validator
	}

	return &Service{
		coordinator: c,
		debounce:    newDebouncer(cfg.DebounceWindow, o.now),
		logger:      o.logger,
	}, nil
}

// Generate produces a quiz for req, blocking until it is ready, it fails or
// ctx is done. Identical requests submitted within the debounce window
// share one generation; each caller gets its own copy of the result.
func (s *Service) Generate(ctx context.Context, req GenerationRequest) (*Quiz, error) {
	if !req.Valid() {
		return nil, newError(ErrInvalidRequest, "request was not built with BuildRequest", nil)
	}

	quiz, err, shared := s.debounce.do(ctx, req.Key(), func(ctx context.Context) (*Quiz, error) {
		return s.coordinator.Run(ctx, req)
	})
	if shared {
		s.logger.Debug("debounced duplicate request", zap.String("topic", req.Topic()))
	}
	return quiz, err
}

// GenerateFromInput builds the request from raw input and generates it.
// Invalid input fails before any backend call.
func (s *Service) GenerateFromInput(ctx context.Context, in RequestInput) (*Quiz, error) {
	req, err := BuildRequest(in)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, req)
}

// GenerateAsync starts a generation and returns a channel that receives
// exactly one Result. Cancel ctx to abandon it.
func (s *Service) GenerateAsync(ctx context.Context, req GenerationRequest) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		quiz, err := s.Generate(ctx, req)
		ch <- Result{Quiz: quiz, Err: err}
		close(ch)
	}()
	return ch
}
