package llm

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"google.golang.org/genai"
)

type geminiClient struct {
	cfg        Config
	baseURL    string
	apiVersion string
}

func newGeminiClient(cfg Config) (*geminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	endpoint := strings.TrimSpace(cfg.BaseURL)
	if shouldFallbackToGeminiDefaultBaseURL(endpoint) {
		if endpoint != "" {
			cfg.Logger.Warn("gemini request uses openai default base url; fallback to gemini base url",
				"configured_endpoint", endpoint,
				"fallback_base_url", defaultGeminiBaseURL,
			)
		}
		endpoint = defaultGeminiBaseURL
	}
	baseURL, apiVersion, err := parseGeminiBaseURLAndVersion(endpoint)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	cfg.BaseURL = endpoint
	return &geminiClient{cfg: cfg, baseURL: baseURL, apiVersion: apiVersion}, nil
}

func (c *geminiClient) Provider() string { return ProviderGemini }

func (c *geminiClient) Model() string { return c.cfg.Model }

func (c *geminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	logPromptDebug(c.cfg.Logger, ProviderGemini, c.cfg.Model, c.cfg.SystemPrompt, prompt)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     c.cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClientFor(c.cfg),
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.baseURL,
			APIVersion: c.apiVersion,
		},
	})
	if err != nil {
		return "", fmt.Errorf("create gemini client failed: %w", err)
	}

	requestConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: c.cfg.SystemPrompt}},
		},
		Temperature:     genai.Ptr(float32(c.cfg.Temperature)),
		MaxOutputTokens: int32(c.cfg.MaxTokens),
	}

	start := time.Now()
	response, err := client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), requestConfig)
	if err != nil {
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}
	if len(response.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(response.Text())
	model := strings.TrimSpace(response.ModelVersion)
	if model == "" {
		model = c.cfg.Model
	}
	logResponseDebug(c.cfg.Logger, ProviderGemini, model, content, time.Since(start))
	return content, nil
}

func shouldFallbackToGeminiDefaultBaseURL(endpoint string) bool {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return true
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), "api.openai.com")
}

// parseGeminiBaseURLAndVersion splits an endpoint such as
// "https://proxy.example.com/google/v1beta" into the SDK base URL
// ("https://proxy.example.com/google/") and API version ("v1beta").
func parseGeminiBaseURLAndVersion(endpoint string) (string, string, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = defaultGeminiBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", "", fmt.Errorf("invalid gemini endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", "", fmt.Errorf("invalid gemini endpoint scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", "", fmt.Errorf("invalid gemini endpoint host")
	}

	var segments []string
	if path := strings.Trim(parsed.Path, "/"); path != "" {
		segments = strings.Split(path, "/")
	}

	apiVersion := "v1beta"
	prefix := segments
	for idx, segment := range segments {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(segment)), "v1") {
			apiVersion = segment
			prefix = segments[:idx]
			break
		}
	}

	baseURL := fmt.Sprintf("%s://%s/", parsed.Scheme, parsed.Host)
	if basePath := strings.Trim(strings.Join(prefix, "/"), "/"); basePath != "" {
		baseURL += basePath + "/"
	}
	return baseURL, apiVersion, nil
}
