package portfolioai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolioai/pkg/llm"
)

const defaultAnalysisTimeout = 180 * time.Second

// AnalyzeOptions describes one analysis call. Empty provider fields fall back
// to the stored settings and then to the Core defaults.
type AnalyzeOptions struct {
	Request     AnalysisRequest
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature *float64
	MaxTokens   int
	OnStage     func(Stage)
}

// AnalysisRun wraps a result with the metadata of the run that produced it.
type AnalysisRun struct {
	ID          string           `json:"id"`
	GeneratedAt string           `json:"generated_at"`
	Provider    string           `json:"provider"`
	Model       string           `json:"model"`
	Result      AIAnalysisResult `json:"result"`
}

var nowFunc = time.Now

// ValidateRequest rejects requests without quotes, quotes without a symbol and
// duplicate symbols (compared case-insensitively).
func ValidateRequest(req AnalysisRequest) error {
	if len(req.StockQuotes) == 0 {
		return NewError(ErrCodeInvalidInput, "at least one stock quote is required")
	}
	seen := make(map[string]struct{}, len(req.StockQuotes))
	for i, quote := range req.StockQuotes {
		symbol := strings.ToUpper(strings.TrimSpace(quote.Symbol))
		if symbol == "" {
			return NewError(ErrCodeInvalidInput, fmt.Sprintf("stock_quotes[%d].symbol is required", i))
		}
		if _, dup := seen[symbol]; dup {
			return NewError(ErrCodeInvalidInput, "duplicate stock quote symbol: "+quote.Symbol)
		}
		seen[symbol] = struct{}{}
	}
	return nil
}

// ResolveLLMConfig merges per-call overrides, stored settings and Core defaults,
// in that order of precedence.
func (c *Core) ResolveLLMConfig(ctx context.Context, opts AnalyzeOptions) (llm.Config, error) {
	settings, err := c.GetAISettings(ctx)
	if err != nil {
		return llm.Config{}, err
	}

	cfg := llm.Config{
		Provider:    firstNonEmpty(opts.Provider, settings.Provider, c.defaults.Provider),
		BaseURL:     firstNonEmpty(opts.BaseURL, settings.BaseURL, c.defaults.BaseURL),
		APIKey:      firstNonEmpty(opts.APIKey, c.defaults.APIKey),
		Model:       firstNonEmpty(opts.Model, settings.Model, c.defaults.Model),
		Temperature: settings.Temperature,
		MaxTokens:   defaultInt(opts.MaxTokens, defaultInt(settings.MaxTokens, c.defaults.MaxTokens)),
		MaxRetries:  c.defaults.MaxRetries,
		Timeout:     defaultDuration(c.defaults.Timeout, defaultAnalysisTimeout),
		Logger:      c.logger,
	}
	if opts.Temperature != nil {
		override, err := NormalizeAISettings(AISettings{Temperature: *opts.Temperature})
		if err != nil {
			return llm.Config{}, err
		}
		cfg.Temperature = override.Temperature
	}
	return cfg, nil
}

// Analyze validates the request, builds the configured provider and runs the
// pipeline. Nothing is persisted.
func (c *Core) Analyze(ctx context.Context, opts AnalyzeOptions) (*AnalysisRun, error) {
	if err := ValidateRequest(opts.Request); err != nil {
		return nil, err
	}

	cfg, err := c.ResolveLLMConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	client, err := c.newProvider(cfg)
	if err != nil {
		return nil, WrapError(ErrCodeProviderConfig, "failed to configure ai provider", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	c.logger.Info("analysis started",
		"provider", client.Provider(),
		"model", client.Model(),
		"quotes", len(opts.Request.StockQuotes),
	)
	analyzer := NewAnalyzer(client, WithLogger(c.logger), WithTracer(c.tracer))
	result, err := analyzer.GenerateAnalysisWithProgress(ctx, opts.Request, opts.OnStage)
	if err != nil {
		return nil, err
	}

	run := &AnalysisRun{
		ID:          uuid.NewString(),
		GeneratedAt: nowFunc().UTC().Format(time.RFC3339),
		Provider:    client.Provider(),
		Model:       client.Model(),
		Result:      *result,
	}
	c.logger.Info("analysis finished", "id", run.ID, "recommendations", len(result.Recommendations))
	return run, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
