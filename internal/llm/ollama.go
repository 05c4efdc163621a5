package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultOllamaServerURL = "http://localhost:11434"

// OllamaProvider implements Provider against a local Ollama server through
// langchaingo. Ollama has no native schema support beyond JSON mode, so the
// schema is only used to validate the reply.
type OllamaProvider struct {
	client *ollama.LLM
	model  string
}

// NewOllamaProvider creates a provider for the configured Ollama server.
func NewOllamaProvider(cfg OllamaConfig) (*OllamaProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	serverURL := cfg.ServerURL
	if serverURL == "" {
		serverURL = defaultOllamaServerURL
	}

	client, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(cfg.Model),
		ollama.WithHTTPClient(http.DefaultClient),
	)
	if err != nil {
		return nil, fmt.Errorf("create Ollama client: %w", err)
	}

	return &OllamaProvider{client: client, model: cfg.Model}, nil
}

func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	messages := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, m := range req.Messages {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Schema != nil {
		opts = append(opts, llms.WithJSONMode())
	}

	result, err := p.client.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, mapOllamaError(err)
	}
	if len(result.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("no choices in Ollama response")}
	}

	choice := result.Choices[0]
	content := json.RawMessage(choice.Content)
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}

	return &Response{
		Content:    content,
		Usage:      mapOllamaUsage(choice.GenerationInfo),
		Model:      p.model,
		StopReason: StopEnd,
	}, nil
}

func (p *OllamaProvider) ModelID() string {
	return p.model
}

// ollamaStatusRe matches the "503 Service Unavailable" prefix langchaingo
// leaves on errors for non-2xx replies; the status code itself is not exported.
var ollamaStatusRe = regexp.MustCompile(`^([1-5]\d{2}) `)

func mapOllamaError(err error) error {
	status := 0
	if m := ollamaStatusRe.FindStringSubmatch(err.Error()); m != nil {
		status, _ = strconv.Atoi(m[1])
	}
	return classifyStatus(status, err)
}

// mapOllamaUsage reads token counts from langchaingo's generation info.
func mapOllamaUsage(info map[string]any) Usage {
	in := intFromInfo(info, "PromptTokens")
	out := intFromInfo(info, "CompletionTokens")
	return Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}
}

func intFromInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
