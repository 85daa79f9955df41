package portfolioai

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"portfolioai/pkg/llm"
)

const (
	defaultAISettingsTemperature = 0.2
	defaultAISettingsMaxTokens   = 4096
	maxAISettingsTemperature     = 2.0
)

// AISettings are the persisted model preferences. The API key is never stored.
type AISettings struct {
	Provider    string  `json:"provider"`
	BaseURL     string  `json:"base_url"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

var validAIProviders = map[string]struct{}{
	"":                    {},
	llm.ProviderOpenAI:    {},
	llm.ProviderAnthropic: {},
	llm.ProviderGemini:    {},
}

func defaultAISettings() AISettings {
	return AISettings{
		Temperature: defaultAISettingsTemperature,
		MaxTokens:   defaultAISettingsMaxTokens,
	}
}

// initialAISettings seeds the settings with the configured defaults until a
// user saves their own.
func (c *Core) initialAISettings() AISettings {
	settings := defaultAISettings()
	settings.Provider = c.defaults.Provider
	settings.BaseURL = c.defaults.BaseURL
	settings.Model = c.defaults.Model
	if c.defaults.Temperature > 0 {
		settings.Temperature = c.defaults.Temperature
	}
	settings.MaxTokens = defaultInt(c.defaults.MaxTokens, settings.MaxTokens)
	if normalized, err := NormalizeAISettings(settings); err == nil {
		return normalized
	}
	return defaultAISettings()
}

// NormalizeAISettings trims strings, lowercases the provider, clamps the
// temperature to [0,2] and defaults a non-positive max token count.
func NormalizeAISettings(settings AISettings) (AISettings, error) {
	normalized := settings
	normalized.Provider = strings.ToLower(strings.TrimSpace(normalized.Provider))
	normalized.BaseURL = strings.TrimRight(strings.TrimSpace(normalized.BaseURL), "/")
	normalized.Model = strings.TrimSpace(normalized.Model)

	if _, ok := validAIProviders[normalized.Provider]; !ok {
		return AISettings{}, NewError(ErrCodeInvalidInput, "unsupported provider: "+settings.Provider)
	}
	if normalized.BaseURL != "" {
		if _, err := llm.NormalizeBaseURL(normalized.BaseURL, ""); err != nil {
			return AISettings{}, WrapError(ErrCodeInvalidInput, "invalid base_url", err)
		}
	}

	switch {
	case math.IsNaN(normalized.Temperature) || normalized.Temperature < 0:
		normalized.Temperature = 0
	case normalized.Temperature > maxAISettingsTemperature:
		normalized.Temperature = maxAISettingsTemperature
	}
	normalized.MaxTokens = defaultInt(normalized.MaxTokens, defaultAISettingsMaxTokens)
	return normalized, nil
}

// GetAISettings returns persisted AI settings, or the configured defaults
// when none were saved.
func (c *Core) GetAISettings(ctx context.Context) (AISettings, error) {
	var settings AISettings
	err := c.db.QueryRowContext(ctx, `
		SELECT provider, base_url, model, temperature, max_tokens
		FROM ai_settings
		WHERE id = 1
	`).Scan(
		&settings.Provider,
		&settings.BaseURL,
		&settings.Model,
		&settings.Temperature,
		&settings.MaxTokens,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return c.initialAISettings(), nil
	}
	if err != nil {
		return AISettings{}, WrapError(ErrCodeDatabase, "failed to load ai settings", err)
	}
	normalized, err := NormalizeAISettings(settings)
	if err != nil {
		c.logger.Warn("stored ai settings are invalid; using defaults", "err", err)
		return c.initialAISettings(), nil
	}
	return normalized, nil
}

// SetAISettings validates and persists AI settings.
func (c *Core) SetAISettings(ctx context.Context, settings AISettings) (AISettings, error) {
	normalized, err := NormalizeAISettings(settings)
	if err != nil {
		return AISettings{}, err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO ai_settings (id, provider, base_url, model, temperature, max_tokens, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			base_url = excluded.base_url,
			model = excluded.model,
			temperature = excluded.temperature,
			max_tokens = excluded.max_tokens,
			updated_at = CURRENT_TIMESTAMP
	`, normalized.Provider, normalized.BaseURL, normalized.Model, normalized.Temperature, normalized.MaxTokens)
	if err != nil {
		return AISettings{}, WrapError(ErrCodeDatabase, "failed to save ai settings", err)
	}
	return normalized, nil
}
