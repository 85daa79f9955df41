package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
)

type openAIClient struct {
	client openai.Client
	cfg    Config
}

func newOpenAIClient(cfg Config) (*openAIClient, error) {
	baseURL, err := openAIBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	cfg.BaseURL = baseURL

	opts := []openaioption.RequestOption{
		openaioption.WithBaseURL(baseURL + "/"),
		openaioption.WithMaxRetries(cfg.MaxRetries),
		openaioption.WithHTTPClient(httpClientFor(cfg)),
	}
	if cfg.APIKey != "" {
		opts = append(opts, openaioption.WithAPIKey(cfg.APIKey))
	}

	return &openAIClient{client: openai.NewClient(opts...), cfg: cfg}, nil
}

func (c *openAIClient) Provider() string { return ProviderOpenAI }

func (c *openAIClient) Model() string { return c.cfg.Model }

func (c *openAIClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	logPromptDebug(c.cfg.Logger, ProviderOpenAI, c.cfg.Model, c.cfg.SystemPrompt, prompt)

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.cfg.SystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.cfg.Temperature),
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	logResponseDebug(c.cfg.Logger, ProviderOpenAI, resp.Model, content, time.Since(start))
	return content, nil
}

// openAIBaseURL normalizes raw and appends "/v1" unless the path already
// ends with it.
func openAIBaseURL(raw string) (string, error) {
	baseURL, err := NormalizeBaseURL(raw, defaultOpenAIBaseURL)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(strings.ToLower(baseURL), "/v1") {
		baseURL += "/v1"
	}
	return baseURL, nil
}
