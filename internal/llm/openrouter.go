package llm

import (
	"fmt"
	"net/http"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider targets the OpenRouter API. OpenRouter speaks the
// OpenAI wire protocol, so the OpenAI adapter does the work; this type only
// adds OpenRouter's app attribution headers.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
// Model ids use OpenRouter's vendor/model form and are not aliased.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openrouter model is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	var hc *http.Client
	if headers := attributionHeaders(cfg); len(headers) > 0 {
		hc = &http.Client{Transport: &headerTransport{headers: headers, next: http.DefaultTransport}}
	}

	inner := newOpenAICompatible(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
	}, hc)
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

func attributionHeaders(cfg OpenRouterConfig) http.Header {
	h := http.Header{}
	if cfg.AppName != "" {
		h.Set("X-Title", cfg.AppName)
	}
	if cfg.SiteURL != "" {
		h.Set("HTTP-Referer", cfg.SiteURL)
	}
	return h
}

// headerTransport adds fixed headers to every outgoing request.
type headerTransport struct {
	headers http.Header
	next    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	return t.next.RoundTrip(req)
}
