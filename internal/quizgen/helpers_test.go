package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// reply is one scripted backend answer. When wait is set the reply is held
// until the channel closes or the caller cancels.
type reply struct {
	raw  string
	err  error
	wait <-chan struct{}
}

type scriptedClient struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
}

func newScriptedClient(replies ...reply) *scriptedClient {
	return &scriptedClient{replies: replies}
}

func (c *scriptedClient) Send(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	if len(c.replies) == 0 {
		c.mu.Unlock()
		return "", &BackendError{Kind: BackendServiceUnavailable}
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	c.mu.Unlock()

	if r.wait != nil {
		select {
		case <-r.wait:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return r.raw, r.err
}

func (c *scriptedClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

func (c *scriptedClient) prompt(i int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompts[i]
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialWait = time.Millisecond
	cfg.MaxWait = 2 * time.Millisecond
	cfg.DebounceWindow = 0
	return cfg
}

func newTestService(t *testing.T, client GenerationClient, cfg Config) *Service {
	t.Helper()
	s, err := New(client, cfg, WithLogger(zaptest.NewLogger(t)), withJitter(func() float64 { return 0.5 }))
	require.NoError(t, err)
	return s
}

func mustRequest(t *testing.T, in RequestInput) GenerationRequest {
	t.Helper()
	req, err := BuildRequest(in)
	require.NoError(t, err)
	return req
}

func mcqEntry(prompt string) map[string]any {
	return map[string]any{
		"type":           "MULTIPLE_CHOICE",
		"prompt":         prompt,
		"options":        []any{"Chlorophyll", "Keratin", "Insulin", "Collagen"},
		"correct_answer": "Chlorophyll",
		"explanation":    "Chlorophyll absorbs light.",
	}
}

// mcqEntries returns n valid entries with distinct prompts.
func mcqEntries(prefix string, n int) []any {
	out := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, mcqEntry(fmt.Sprintf("%s question %d?", prefix, i)))
	}
	return out
}

func batch(entries ...any) string {
	raw, err := json.Marshal(map[string]any{"questions": entries})
	if err != nil {
		panic(err)
	}
	return string(raw)
}
