package llm

import (
	"fmt"
	"net/http"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// openrouterModels maps the friendly names used by the other providers to
// OpenRouter's vendor-prefixed IDs, so SIGNIZ_OPENROUTER_MODEL=gemini-flash
// behaves like SIGNIZ_GEMINI_MODEL=gemini-flash.
var openrouterModels = map[string]string{
	"gemini-flash":  "google/gemini-2.5-flash",
	"gemini-pro":    "google/gemini-2.5-pro",
	"claude-sonnet": "anthropic/claude-sonnet-4",
	"claude-haiku":  "anthropic/claude-haiku-4.5",
	"gpt-4o":        "openai/gpt-4o",
	"gpt-4o-mini":   "openai/gpt-4o-mini",
}

// openrouterHeaders identify the app on OpenRouter's usage dashboards.
var openrouterHeaders = map[string]string{
	"HTTP-Referer": "https://github.com/abhisek/signiz",
	"X-Title":      "Signiz",
}

// OpenRouterProvider is an OpenAIProvider pointed at OpenRouter's
// OpenAI-compatible endpoint.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	inner, err := newOpenAIProviderRaw(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   resolveModel(cfg.Model, openrouterModels),
		BaseURL: baseURL,
		Headers: openrouterHeaders,
	})
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
