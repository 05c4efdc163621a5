package quizgen

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Outcome summarizes how one attempt ended.
type Outcome string

const (
	OutcomeComplete     Outcome = "complete"
	OutcomeShortfall    Outcome = "shortfall"
	OutcomeBackendError Outcome = "backend_error"
	OutcomeParseError   Outcome = "parse_error"
)

// Attempt is the immutable record of one backend call.
type Attempt struct {
	Number    int     `json:"number"`
	Requested int     `json:"requested"`
	Outcome   Outcome `json:"outcome"`

	// BackendKind is set when Outcome is OutcomeBackendError.
	BackendKind BackendKind `json:"backend_kind,omitempty"`

	// Parsed is the number of drafts the parser produced and Dropped the
	// number of entries it rejected.
	Parsed  int `json:"parsed"`
	Dropped int `json:"dropped"`

	Accepted  int           `json:"accepted"`
	Discarded DiscardCounts `json:"discarded,omitempty"`

	// Backoff is the wait scheduled after this attempt, if any.
	Backoff  time.Duration `json:"backoff,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Coordinator drives one generation through the state machine: it calls
// the client until enough valid questions are collected or attempts run
// out, then assembles the quiz.
type Coordinator struct {
	client    GenerationClient
	validator *Validator
	cfg       Config
	logger    *zap.Logger

	now    func() time.Time
	jitter func() float64
}

// NewCoordinator returns a Coordinator using the default validator.
func NewCoordinator(client GenerationClient, cfg Config, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		client:    client,
		validator: NewValidator(),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Run generates a quiz for req. Cancelling ctx aborts the pending call or
// backoff and returns the context error.
func (c *Coordinator) Run(ctx context.Context, req GenerationRequest) (*Quiz, error) {
	m := newMachine()
	m.to(StateBuilding)
	if !req.Valid() {
		return nil, c.fail(m, newError(ErrInvalidRequest, "request was not built with BuildRequest", nil), nil)
	}

	var (
		target        = req.QuestionCount()
		accepted      []Question
		attempts      []Attempt
		seen          = map[string]struct{}{}
		parseFailures int
		lastFailure   *GenerationError
	)

	for n := 1; ; n++ {
		m.to(StateRequesting)
		started := time.Now()
		a := Attempt{Number: n, Requested: target - len(accepted), Discarded: DiscardCounts{}}

		raw, err := c.client.Send(ctx, BuildPrompt(req, a.Requested, c.avoidList(accepted)))
		if ctxErr := ctx.Err(); ctxErr != nil {
			m.to(StateFailed)
			return nil, ctxErr
		}

		var (
			retryAfter time.Duration
			terminate  bool
		)
		switch {
		case err != nil:
			be := asBackendError(err)
			a.Outcome = OutcomeBackendError
			a.BackendKind = be.Kind
			retryAfter = be.RetryAfter
			lastFailure = &GenerationError{
				Kind:    ErrBackend,
				Backend: be.Kind,
				Message: fmt.Sprintf("backend failed after %d attempts", n),
				Err:     err,
			}
			m.to(StateRetrying)

		default:
			m.to(StateParsing)
			parsed, perr := ParseResponse(raw)
			a.Parsed = len(parsed.Drafts)
			a.Dropped = parsed.Dropped.Total()
			a.Discarded.add(parsed.Dropped)
			if perr != nil {
				parseFailures++
				a.Outcome = OutcomeParseError
				terminate = parseFailures > 1
				lastFailure = nil
				if terminate {
					lastFailure = newError(ErrParse, perr.Error(), perr)
				}
				m.to(StateRetrying)
				break
			}

			m.to(StateValidating)
			res := c.validator.Validate(req, parsed.Drafts, seen)
			a.Discarded.add(res.Discarded)
			a.Accepted = len(res.Accepted)
			accepted = append(accepted, res.Accepted...)
			lastFailure = nil

			if len(accepted) >= target {
				a.Outcome = OutcomeComplete
				a.Duration = time.Since(started)
				attempts = append(attempts, a)
				c.logAttempt(a)
				m.to(StateAssembling)
				return c.assemble(req, accepted, attempts, m), nil
			}
			a.Outcome = OutcomeShortfall
			m.to(StateRetrying)
		}

		a.Duration = time.Since(started)
		if terminate || n >= c.cfg.MaxAttempts {
			attempts = append(attempts, a)
			c.logAttempt(a)
			break
		}

		a.Backoff = c.cfg.backoff(n-1, retryAfter, c.jitter)
		attempts = append(attempts, a)
		c.logAttempt(a)
		if err := sleep(ctx, a.Backoff); err != nil {
			m.to(StateFailed)
			return nil, err
		}
	}

	if len(accepted) > 0 {
		m.to(StateAssembling)
		return c.assemble(req, accepted, attempts, m), nil
	}
	if lastFailure == nil {
		lastFailure = newError(ErrGenerationFailed,
			fmt.Sprintf("no valid questions after %d attempts", len(attempts)), nil)
	}
	return nil, c.fail(m, lastFailure, attempts)
}

func (c *Coordinator) assemble(req GenerationRequest, questions []Question, attempts []Attempt, m *machine) *Quiz {
	m.to(StateDone)
	q := Assemble(req, questions, attempts, m.states(), c.now())
	c.logger.Info("quiz assembled",
		zap.String("quiz_id", q.ID),
		zap.Int("questions", len(q.Questions)),
		zap.Int("requested", q.Metadata.Requested),
		zap.Bool("partial", q.IsPartial),
		zap.Int("attempts", q.GenerationAttempts),
		zap.Int("discarded", q.Metadata.Discards.Total()),
	)
	return q
}

func (c *Coordinator) fail(m *machine, gerr *GenerationError, attempts []Attempt) error {
	m.to(StateFailed)
	gerr.Attempts = attempts
	gerr.States = m.states()
	c.logger.Warn("quiz generation failed",
		zap.String("kind", string(gerr.Kind)),
		zap.String("backend", string(gerr.Backend)),
		zap.Int("attempts", len(attempts)),
	)
	return gerr
}

// avoidList returns the most recent accepted prompts, bounded by
// MaxAvoidPrompts.
func (c *Coordinator) avoidList(accepted []Question) []string {
	if len(accepted) == 0 {
		return nil
	}
	start := 0
	if lim := c.cfg.MaxAvoidPrompts; lim > 0 && len(accepted) > lim {
		start = len(accepted) - lim
	}
	prompts := make([]string, 0, len(accepted)-start)
	for _, q := range accepted[start:] {
		prompts = append(prompts, q.Prompt)
	}
	return prompts
}

// logAttempt records counts only; raw backend output is never logged.
func (c *Coordinator) logAttempt(a Attempt) {
	c.logger.Debug("generation attempt",
		zap.Int("attempt", a.Number),
		zap.Int("requested", a.Requested),
		zap.String("outcome", string(a.Outcome)),
		zap.String("backend_kind", string(a.BackendKind)),
		zap.Int("parsed", a.Parsed),
		zap.Int("accepted", a.Accepted),
		zap.Int("discarded", a.Discarded.Total()),
		zap.Duration("backoff", a.Backoff),
		zap.Duration("duration", a.Duration),
	)
}
