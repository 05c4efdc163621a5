package llm

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MockResponse is one scripted reply.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error

	// Delay holds the reply back. Cancelling the context ends the wait
	// with the context error.
	Delay time.Duration
}

// MockProvider replays scripted replies in order and records every
// request. Once the script runs out it asks Responder, if set, and
// otherwise reports the backend as unavailable.
type MockProvider struct {
	// Responder builds replies after the script is exhausted.
	Responder func(Request) MockResponse

	mu       sync.Mutex
	script   []MockResponse
	requests []Request
}

// NewMockProvider returns a provider that replays script.
func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	reply, ok := m.next(req)
	if !ok {
		return nil, &ErrProviderUnavailable{}
	}

	if reply.Delay > 0 {
		timer := time.NewTimer(reply.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if reply.Err != nil {
		return nil, reply.Err
	}

	usage := reply.Usage
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return &Response{
		Content:    reply.Content,
		Usage:      usage,
		Model:      "mock",
		StopReason: StopEnd,
	}, nil
}

func (m *MockProvider) next(req Request) (MockResponse, bool) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	if len(m.script) > 0 {
		reply := m.script[0]
		m.script = m.script[1:]
		m.mu.Unlock()
		return reply, true
	}
	respond := m.Responder
	m.mu.Unlock()

	if respond == nil {
		return MockResponse{}, false
	}
	return respond(req), true
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// LastRequest returns the most recent request, or false if none was made.
func (m *MockProvider) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return Request{}, false
	}
	return m.requests[len(m.requests)-1], true
}
