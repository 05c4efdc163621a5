package llm

import (
	"regexp"
	"strings"
)

// ModelCost is list pricing in USD per million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of one call or an aggregate of calls.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns pricing for a model id as recorded on LLM events, or
// nil when the model is not in the table. Backends report ids in several
// shapes, so the lookup also tries the id without an OpenRouter vendor
// prefix and without a trailing release date. Ollama tags (name:size) run
// locally and cost nothing.
func LookupCost(modelID string) *ModelCost {
	for _, id := range costCandidates(modelID) {
		if c, ok := modelCosts[id]; ok {
			return &c
		}
	}
	if strings.Contains(modelID, ":") && !strings.Contains(modelID, "/") {
		return &ModelCost{}
	}
	return nil
}

// EstimateCost prices token totals for a model. ok is false when the model
// is unknown.
func EstimateCost(modelID string, inputTokens, outputTokens int) (usd float64, ok bool) {
	c := LookupCost(modelID)
	if c == nil {
		return 0, false
	}
	return c.Cost(inputTokens, outputTokens), true
}

var releaseSuffix = regexp.MustCompile(`-(\d{8}|\d{4}-\d{2}-\d{2}|latest)$`)

func costCandidates(modelID string) []string {
	id := strings.ToLower(strings.TrimSpace(modelID))
	out := []string{id}
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
		out = append(out, id)
	}
	if trimmed := releaseSuffix.ReplaceAllString(id, ""); trimmed != id {
		out = append(out, trimmed)
	}
	return out
}

// modelCosts covers the models the friendly names resolve to plus the
// common OpenRouter picks. Prices from models.dev, 2026-02.
var modelCosts = map[string]ModelCost{
	// Anthropic
	"claude-3-5-haiku":  {0.8, 4},
	"claude-3-haiku":    {0.25, 1.25},
	"claude-haiku-4-5":  {1, 5},
	"claude-sonnet-4":   {3, 15},
	"claude-sonnet-4-5": {3, 15},
	"claude-opus-4-1":   {15, 75},
	"claude-opus-4-5":   {5, 25},

	// OpenAI
	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1":      {2, 8},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-4.1-nano": {0.1, 0.4},
	"gpt-5":        {1.25, 10},
	"gpt-5-mini":   {0.25, 2},
	"gpt-5-nano":   {0.05, 0.4},
	"o4-mini":      {1.1, 4.4},

	// Google
	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.0-flash-exp":  {0, 0},
	"gemini-2.5-flash":      {0.3, 2.5},
	"gemini-2.5-flash-lite": {0.1, 0.4},
	"gemini-2.5-pro":        {1.25, 10},

	// Open-weight models commonly routed through OpenRouter
	"llama-3.1-8b-instruct":  {0.02, 0.03},
	"llama-3.3-70b-instruct": {0.13, 0.4},
	"qwen-2.5-72b-instruct":  {0.12, 0.39},
}
