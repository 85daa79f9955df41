package mobile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"portfolioai/pkg/portfolioai"
)

// Core wraps the portfolio analysis core for gomobile bindings. Every
// structured value crosses the boundary as a JSON string.
type Core struct {
	core *portfolioai.Core

	mu     sync.RWMutex
	apiKey string
}

// Open initializes the core with a database path.
func Open(dbPath string) (*Core, error) {
	return openWithOptions(portfolioai.Options{DBPath: dbPath})
}

func openWithOptions(opts portfolioai.Options) (*Core, error) {
	core, err := portfolioai.OpenWithOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Core{core: core}, nil
}

// Close releases resources.
func (c *Core) Close() error {
	if c == nil || c.core == nil {
		return nil
	}
	return c.core.Close()
}

// SetAPIKey keeps the model API key in memory for later analyses. It is
// never written to the database.
func (c *Core) SetAPIKey(apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = apiKey
}

// GetAISettingsJSON returns the stored AI settings as JSON.
func (c *Core) GetAISettingsJSON() (string, error) {
	settings, err := c.core.GetAISettings(context.Background())
	if err != nil {
		return "", err
	}
	return marshalJSON(settings)
}

// SetAISettingsJSON replaces the stored AI settings and returns the
// normalized result.
func (c *Core) SetAISettingsJSON(settingsJSON string) (string, error) {
	var settings portfolioai.AISettings
	if err := json.Unmarshal([]byte(settingsJSON), &settings); err != nil {
		return "", fmt.Errorf("invalid settings: %w", err)
	}
	saved, err := c.core.SetAISettings(context.Background(), settings)
	if err != nil {
		return "", err
	}
	return marshalJSON(saved)
}

// BuildPrompt renders the prompt for an analysis request without calling a model.
func (c *Core) BuildPrompt(requestJSON string) (string, error) {
	req, err := decodeRequest(requestJSON)
	if err != nil {
		return "", err
	}
	if err := portfolioai.ValidateRequest(req); err != nil {
		return "", err
	}
	return portfolioai.BuildPrompt(req), nil
}

// AnalyzeJSON runs an analysis and returns the run envelope as JSON. The
// payload is an analysis request with optional provider, model, base_url and
// temperature overrides.
func (c *Core) AnalyzeJSON(payloadJSON string) (string, error) {
	var payload analysisPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return "", portfolioai.WrapError(portfolioai.ErrCodeInvalidInput, "invalid analysis request", err)
	}

	c.mu.RLock()
	apiKey := c.apiKey
	c.mu.RUnlock()

	run, err := c.core.Analyze(context.Background(), portfolioai.AnalyzeOptions{
		Request:     payload.AnalysisRequest,
		Provider:    payload.Provider,
		BaseURL:     payload.BaseURL,
		APIKey:      apiKey,
		Model:       payload.Model,
		Temperature: payload.Temperature,
		MaxTokens:   payload.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return marshalJSON(run)
}

// ParseResponseJSON parses a model reply obtained elsewhere against the
// request it answered.
func (c *Core) ParseResponseJSON(responseText, requestJSON string) (string, error) {
	req, err := decodeRequest(requestJSON)
	if err != nil {
		return "", err
	}
	return marshalJSON(portfolioai.Parse(responseText, req))
}

type analysisPayload struct {
	portfolioai.AnalysisRequest

	Provider    string   `json:"provider"`
	BaseURL     string   `json:"base_url"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
}

func decodeRequest(requestJSON string) (portfolioai.AnalysisRequest, error) {
	var req portfolioai.AnalysisRequest
	if err := json.Unmarshal([]byte(requestJSON), &req); err != nil {
		return portfolioai.AnalysisRequest{}, portfolioai.WrapError(portfolioai.ErrCodeInvalidInput, "invalid analysis request", err)
	}
	return req, nil
}

func marshalJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
