package api

import "portfolioai/pkg/portfolioai"

type aiSettingsPayload struct {
	Provider    *string  `json:"provider"`
	BaseURL     *string  `json:"base_url"`
	Model       *string  `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

// analysisPayload is an analysis request plus optional per-call model
// overrides. The API key is never stored.
type analysisPayload struct {
	portfolioai.AnalysisRequest

	Provider    string   `json:"provider"`
	BaseURL     string   `json:"base_url"`
	APIKey      string   `json:"api_key"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
}

func (p analysisPayload) options() portfolioai.AnalyzeOptions {
	return portfolioai.AnalyzeOptions{
		Request:     p.AnalysisRequest,
		Provider:    p.Provider,
		BaseURL:     p.BaseURL,
		APIKey:      p.APIKey,
		Model:       p.Model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}
}

type promptResponse struct {
	Prompt  string   `json:"prompt"`
	Symbols []string `json:"symbols"`
}

type progressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type streamErrorEvent struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code,omitempty"`
}
