package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicMaxTemperature is the upper bound accepted by the messages API.
const anthropicMaxTemperature = 1.0

type anthropicClient struct {
	client anthropic.Client
	cfg    Config
}

func newAnthropicClient(cfg Config) (*anthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	baseURL, err := NormalizeBaseURL(cfg.BaseURL, defaultAnthropicBaseURL)
	if err != nil {
		return nil, err
	}
	// The SDK appends "v1/messages" itself.
	if strings.HasSuffix(strings.ToLower(baseURL), "/v1") {
		baseURL = baseURL[:len(baseURL)-len("/v1")]
	}
	if cfg.Model == "" {
		cfg.Model = defaultAnthropicModel
	}
	if cfg.Temperature > anthropicMaxTemperature {
		cfg.Temperature = anthropicMaxTemperature
	}
	cfg.BaseURL = baseURL

	client := anthropic.NewClient(
		anthropicoption.WithAPIKey(cfg.APIKey),
		anthropicoption.WithBaseURL(baseURL+"/"),
		anthropicoption.WithMaxRetries(cfg.MaxRetries),
		anthropicoption.WithHTTPClient(httpClientFor(cfg)),
	)
	return &anthropicClient{client: client, cfg: cfg}, nil
}

func (c *anthropicClient) Provider() string { return ProviderAnthropic }

func (c *anthropicClient) Model() string { return c.cfg.Model }

func (c *anthropicClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	logPromptDebug(c.cfg.Logger, ProviderAnthropic, c.cfg.Model, c.cfg.SystemPrompt, prompt)

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.cfg.Model),
		MaxTokens:   int64(c.cfg.MaxTokens),
		Temperature: anthropic.Float(c.cfg.Temperature),
		System:      []anthropic.TextBlockParam{{Text: c.cfg.SystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	logResponseDebug(c.cfg.Logger, ProviderAnthropic, string(msg.Model), content, time.Since(start))
	return content, nil
}
