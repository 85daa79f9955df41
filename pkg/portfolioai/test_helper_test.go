package portfolioai

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"portfolioai/pkg/llm"
)

// setupTestDB creates a temporary database for testing and returns a Core instance.
// The caller should defer cleanup() to remove the temp file.
func setupTestDB(t *testing.T, opts Options) (*Core, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "portfolioai-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	opts.DBPath = filepath.Join(tmpDir, "test.db")
	core, err := OpenWithOptions(opts)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open test db: %v", err)
	}

	cleanup := func() {
		core.Close()
		os.RemoveAll(tmpDir)
	}

	return core, cleanup
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// assertContains checks if the string contains the substring.
func assertContains(t *testing.T, s, substr, msg string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%s: string %q does not contain %q", msg, s, substr)
	}
}

type fakeClient struct {
	provider string
	model    string
	generate func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return f.generate(ctx, prompt)
}

func (f *fakeClient) Provider() string { return f.provider }

func (f *fakeClient) Model() string { return f.model }

// staticFactory returns a ProviderFactory that records the resolved config and
// always replies with reply.
func staticFactory(reply string, got *llm.Config) ProviderFactory {
	return func(cfg llm.Config) (llm.Client, error) {
		if got != nil {
			*got = cfg
		}
		return &fakeClient{
			provider: "fake",
			model:    cfg.Model,
			generate: func(context.Context, string) (string, error) {
				return reply, nil
			},
		}, nil
	}
}

func sampleRequest() AnalysisRequest {
	return AnalysisRequest{
		Portfolio: PortfolioSnapshot{
			Name:                 "Growth",
			Currency:             "USD",
			TotalValue:           100000,
			TotalCost:            80000,
			TotalGainLoss:        20000,
			TotalGainLossPercent: 25,
			CashBalance:          5000,
			Holdings: []Holding{
				{Symbol: "AAPL", CompanyName: "Apple Inc.", Shares: 100, AverageCost: 150, CurrentPrice: 190, MarketValue: 19000, GainLoss: 4000, GainLossPercent: 26.67},
				{Symbol: "MSFT", CompanyName: "Microsoft", Shares: 50, AverageCost: 300, CurrentPrice: 420, MarketValue: 21000, GainLoss: 6000, GainLossPercent: 40},
			},
		},
		User: UserProfile{
			Name:            "Dana",
			Role:            "investor",
			RiskTolerance:   "moderate",
			InvestmentGoals: []string{"retirement", "income"},
		},
		StockQuotes: []StockQuote{
			{Symbol: "AAPL", CompanyName: "Apple Inc.", Price: 190, High52Week: 200, Low52Week: 120, PERatio: 28.5},
			{Symbol: "MSFT", CompanyName: "Microsoft", Price: 420, High52Week: 430, Low52Week: 310, PERatio: 35},
		},
		TechnicalIndicators: []TechnicalIndicator{
			{Symbol: "AAPL", RSI: 75, MACD: MACD{MACD: 1.2, Signal: 0.8, Histogram: 0.4}, SMA20: 185, SMA50: 180, SMA200: 170, EMA12: 188, EMA26: 184, Volume: 1500, AverageVolume: 1000, PriceChange24h: 1.5},
			{Symbol: "MSFT", RSI: 25, Volume: 900, PriceChange24h: -0.7},
		},
	}
}

type section struct {
	header string
	body   string
}

func wellFormedSections() []section {
	return []section{
		{HeaderExecutiveSummary, "The portfolio is well positioned."},
		{HeaderDetailedAnalysis, "Technology exposure dominates."},
		{HeaderStockRecommendations, "AAPL: Buy - confidence 82% - medium risk - long term - allocation 20% - reason: services growth remains strong.\n" +
			"MSFT: Sell - confidence 64% - high risk - short term - allocation 5% - reason: valuation is stretched."},
		{HeaderRiskAssessment, "Overall risk: high. Diversification risk: 70. Concentration risk: 80. Market risk: 55.\n" +
			"- Reduce single-stock exposure below 25%\n" +
			"- Add defensive sectors such as utilities"},
		{HeaderMarketConditions, "The market is bullish with high volatility and an upward trend. Sentiment: investors remain optimistic about earnings."},
		{HeaderPerformanceAnalysis, "Returns of 12.5% beat expectations. The portfolio outperformed its benchmark by 3%. Risk-adjusted returns are solid with a Sharpe ratio of 1.4."},
	}
}

func renderSections(sections []section) string {
	var sb strings.Builder
	for _, s := range sections {
		sb.WriteString(s.header)
		sb.WriteString("\n")
		sb.WriteString(s.body)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func wellFormedReply() string {
	return renderSections(wellFormedSections())
}
