// Package llm provides language-model clients for the OpenAI-compatible chat
// API, the Anthropic messages API and Gemini behind one small interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

const (
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta"

	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-3-5-sonnet-latest"
	defaultGeminiModel    = "gemini-2.0-flash"

	defaultMaxTokens = 4096
	defaultTimeout   = 180 * time.Second

	// DefaultSystemPrompt is sent when Config.SystemPrompt is empty.
	DefaultSystemPrompt = "You are a careful, professional financial analyst. Follow the requested report structure exactly."
)

// ErrEmptyResponse is returned when the reply carries no choice or candidate
// at all. A choice with empty text is returned as "" without error.
var ErrEmptyResponse = errors.New("ai response has no choices")

// Config selects and configures a provider.
type Config struct {
	// Provider is one of ProviderOpenAI, ProviderAnthropic, ProviderGemini or
	// empty for detection from Model and BaseURL.
	Provider     string
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	MaxRetries   int
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client generates text for a prompt.
type Client interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Provider() string
	Model() string
}

// New builds the client for cfg.
func New(cfg Config) (Client, error) {
	provider, err := DetectProvider(cfg.Provider, cfg.BaseURL, cfg.Model)
	if err != nil {
		return nil, err
	}
	cfg = withDefaults(cfg)

	switch provider {
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	case ProviderGemini:
		return newGeminiClient(cfg)
	default:
		return newOpenAIClient(cfg)
	}
}

// DetectProvider resolves the provider name. An explicit name wins; otherwise
// gemini models or Google endpoints select Gemini, claude models or Anthropic
// endpoints select Anthropic, and everything else is treated as
// OpenAI-compatible.
func DetectProvider(explicit, baseURL, model string) (string, error) {
	switch name := strings.ToLower(strings.TrimSpace(explicit)); name {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return name, nil
	case "":
	default:
		return "", fmt.Errorf("unsupported ai provider: %s", explicit)
	}

	modelLower := strings.ToLower(strings.TrimSpace(model))
	endpointLower := strings.ToLower(strings.TrimSpace(baseURL))
	switch {
	case strings.HasPrefix(modelLower, "gemini"),
		strings.Contains(endpointLower, "generativelanguage.googleapis.com"),
		strings.Contains(endpointLower, "/gemini"):
		return ProviderGemini, nil
	case strings.HasPrefix(modelLower, "claude"),
		strings.Contains(endpointLower, "anthropic.com"):
		return ProviderAnthropic, nil
	default:
		return ProviderOpenAI, nil
	}
}

func withDefaults(cfg Config) Config {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = 0
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	return cfg
}

// NormalizeBaseURL cleans a user supplied endpoint: the scheme defaults to
// https, trailing slashes and known operation suffixes are removed and only
// http(s) URLs with a host are accepted. An empty value yields fallback.
func NormalizeBaseURL(raw, fallback string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = fallback
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	trimmed = strings.TrimRight(trimmed, "/")

	lower := strings.ToLower(trimmed)
	for _, suffix := range []string{"/chat/completions", "/responses", "/messages"} {
		if strings.HasSuffix(lower, suffix) {
			trimmed = trimmed[:len(trimmed)-len(suffix)]
			break
		}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("invalid base_url scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid base_url host")
	}
	return trimmed, nil
}

func httpClientFor(cfg Config) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	return &http.Client{Timeout: cfg.Timeout}
}

func logPromptDebug(logger *slog.Logger, provider, model, systemPrompt, prompt string) {
	logger.Debug("ai request prompt",
		"provider", provider,
		"model", model,
		"system_prompt", systemPrompt,
		"user_prompt", prompt,
	)
}

func logResponseDebug(logger *slog.Logger, provider, model, content string, elapsed time.Duration) {
	if content == "" {
		logger.Warn("ai response content is empty",
			"provider", provider,
			"model", model,
			"elapsed", elapsed,
		)
		return
	}
	logger.Debug("ai response",
		"provider", provider,
		"model", model,
		"content_chars", len(content),
		"elapsed", elapsed,
	)
}
