package mobile

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"portfolioai/pkg/llm"
	"portfolioai/pkg/portfolioai"
)

const requestJSON = `{
	"portfolio": {"name": "Core", "currency": "USD", "total_value": 50000},
	"stock_quotes": [{"symbol": "AAPL", "price": 200}]
}`

const replyText = `INDIVIDUAL STOCK RECOMMENDATIONS:
AAPL: Hold - confidence 55% - low risk - long term - reason: fairly valued after the rally.

RISK ASSESSMENT:
Overall risk: low.
`

type recordingClient struct {
	cfg llm.Config
}

func (r *recordingClient) GenerateContent(context.Context, string) (string, error) {
	return replyText, nil
}

func (r *recordingClient) Provider() string { return "recording" }

func (r *recordingClient) Model() string { return r.cfg.Model }

func setupMobileCore(t *testing.T, got *llm.Config) *Core {
	t.Helper()
	core, err := openWithOptions(portfolioai.Options{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		NewProvider: func(cfg llm.Config) (llm.Client, error) {
			if got != nil {
				*got = cfg
			}
			return &recordingClient{cfg: cfg}, nil
		},
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })
	return core
}

func TestOpenAndCloseNil(t *testing.T) {
	var c *Core
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil core: %v", err)
	}
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty db path")
	}
}

func TestMobileSettingsJSON(t *testing.T) {
	core := setupMobileCore(t, nil)

	saved, err := core.SetAISettingsJSON(`{"provider":"gemini","model":"gemini-2.0-flash","temperature":0.4}`)
	if err != nil {
		t.Fatalf("SetAISettingsJSON: %v", err)
	}
	loaded, err := core.GetAISettingsJSON()
	if err != nil {
		t.Fatalf("GetAISettingsJSON: %v", err)
	}
	if saved != loaded {
		t.Fatalf("saved %s, loaded %s", saved, loaded)
	}
	var settings portfolioai.AISettings
	if err := json.Unmarshal([]byte(loaded), &settings); err != nil {
		t.Fatalf("unmarshal settings: %v", err)
	}
	if settings.Provider != "gemini" || settings.MaxTokens != 4096 {
		t.Fatalf("unexpected settings: %+v", settings)
	}

	if _, err := core.SetAISettingsJSON(`{"provider":"bard"}`); !portfolioai.IsErrorCode(err, portfolioai.ErrCodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := core.SetAISettingsJSON(`not json`); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestMobileAnalyzeJSON(t *testing.T) {
	var got llm.Config
	core := setupMobileCore(t, &got)
	core.SetAPIKey("sk-mobile")

	payload := strings.Replace(requestJSON, `"portfolio"`, `"model": "gpt-4.1-mini", "portfolio"`, 1)
	resp, err := core.AnalyzeJSON(payload)
	if err != nil {
		t.Fatalf("AnalyzeJSON: %v", err)
	}
	if got.APIKey != "sk-mobile" || got.Model != "gpt-4.1-mini" {
		t.Fatalf("unexpected provider config: %+v", got)
	}

	var run portfolioai.AnalysisRun
	if err := json.Unmarshal([]byte(resp), &run); err != nil {
		t.Fatalf("unmarshal run: %v", err)
	}
	if len(run.Result.Recommendations) != 1 || run.Result.Recommendations[0].Action != portfolioai.ActionHold {
		t.Fatalf("unexpected recommendations: %+v", run.Result.Recommendations)
	}
	if run.Result.RiskAssessment.OverallRisk != portfolioai.LevelLow {
		t.Fatalf("unexpected risk: %+v", run.Result.RiskAssessment)
	}

	if _, err := core.AnalyzeJSON(`{"stock_quotes": []}`); !portfolioai.IsErrorCode(err, portfolioai.ErrCodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := core.AnalyzeJSON(`{`); !portfolioai.IsErrorCode(err, portfolioai.ErrCodeInvalidInput) {
		t.Fatalf("expected invalid input for malformed json, got %v", err)
	}
}

func TestMobileBuildPromptAndParse(t *testing.T) {
	core := setupMobileCore(t, nil)

	prompt, err := core.BuildPrompt(requestJSON)
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	if !strings.Contains(prompt, "STOCKS TO ANALYZE: AAPL") {
		t.Fatalf("unexpected prompt: %s", prompt)
	}
	if _, err := core.BuildPrompt(`{}`); err == nil {
		t.Fatalf("expected validation error")
	}

	parsed, err := core.ParseResponseJSON(replyText, requestJSON)
	if err != nil {
		t.Fatalf("ParseResponseJSON: %v", err)
	}
	var result portfolioai.AIAnalysisResult
	if err := json.Unmarshal([]byte(parsed), &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0].TargetPrice.String() != "210" {
		t.Fatalf("unexpected parse result: %+v", result.Recommendations)
	}
	if result.Summary != portfolioai.DefaultSummary {
		t.Fatalf("expected default summary, got %q", result.Summary)
	}
}
