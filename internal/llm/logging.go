package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/quizforge/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner         Provider
	eventRepo     store.EventRepo
	logger        *zap.Logger
	provider      string
	captureBodies bool
}

// LoggingOptions configures the LoggingProvider.
type LoggingOptions struct {
	// CaptureBodies stores the full prompt and response text with each
	// event. Off by default: raw payloads can be large and may contain
	// course material.
	CaptureBodies bool

	// Provider names the backend on recorded events. Defaults to the
	// wrapped provider's model id.
	Provider string
}

// WithLogging wraps a Provider with event logging. A nil repo disables
// event recording; the zap logger still reports failed calls.
func WithLogging(p Provider, repo store.EventRepo, logger *zap.Logger, opts LoggingOptions) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	name := opts.Provider
	if name == "" {
		name = p.ModelID()
	}
	return &LoggingProvider{
		inner:         p,
		eventRepo:     repo,
		logger:        logger,
		provider:      name,
		captureBodies: opts.CaptureBodies,
	}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latency := time.Since(start)

	data := store.LLMRequestEventData{
		Provider:  l.provider,
		Model:     l.inner.ModelID(),
		Purpose:   purpose,
		RequestID: RequestIDFrom(ctx),
		LatencyMs: latency.Milliseconds(),
		Success:   err == nil,
	}
	if l.captureBodies {
		data.RequestBody = serializeRequest(req)
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		if l.captureBodies {
			data.ResponseBody = string(resp.Content)
		}
	}

	fields := []zap.Field{
		zap.String("provider", data.Provider),
		zap.String("model", data.Model),
		zap.String("purpose", purpose),
		zap.Duration("latency", latency),
	}
	if data.RequestID != "" {
		fields = append(fields, zap.String("request_id", data.RequestID))
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		l.logger.Warn("llm request failed", append(fields, zap.Error(err))...)
	} else {
		l.logger.Debug("llm request completed", append(fields,
			zap.Int("input_tokens", data.InputTokens),
			zap.Int("output_tokens", data.OutputTokens),
		)...)
	}

	if l.eventRepo != nil {
		// A failed event write never fails the request.
		if logErr := l.eventRepo.AppendLLMRequest(ctx, data); logErr != nil {
			l.logger.Warn("failed to record llm request event", zap.Error(logErr))
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.Write(schemaDef)
			b.WriteString("\n")
		}
	}

	return b.String()
}
