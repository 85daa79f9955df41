package portfolioai

import (
	"reflect"
	"testing"
)

func TestExtractRiskAssessment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		section string
		want    RiskAssessment
	}{
		{
			name:    "empty section",
			section: "   ",
			want:    DefaultRiskAssessment(),
		},
		{
			name:    "explicit overall risk",
			section: "Overall risk level is low. Diversification: 20/100, concentration 15, market risk 35.",
			want: RiskAssessment{
				OverallRisk:         LevelLow,
				DiversificationRisk: 20,
				ConcentrationRisk:   15,
				MarketRisk:          35,
				Recommendations:     DefaultRiskRecommendations(),
			},
		},
		{
			name: "scores far from their keyword",
			section: "Overall risk is high.\n" +
				"Diversification across the book is weak, with technology names dominating and a score of 72.\n" +
				"Concentration in the two largest positions is the main concern, which we would put at 81.\n" +
				"Market risk remains elevated given rate uncertainty and stretched valuations, around 58.",
			want: RiskAssessment{
				OverallRisk:         LevelHigh,
				DiversificationRisk: 72,
				ConcentrationRisk:   81,
				MarketRisk:          58,
				Recommendations:     DefaultRiskRecommendations(),
			},
		},
		{
			name: "fallback overall and recommend lines",
			section: "The book carries moderate risk.\n" +
				"We recommend trimming the largest position\n" +
				"• Hedge currency exposure with forwards\n" +
				"- ok\n" +
				"Plain prose line without markers",
			want: RiskAssessment{
				OverallRisk:         LevelMedium,
				DiversificationRisk: DefaultDiversificationRisk,
				ConcentrationRisk:   DefaultConcentrationRisk,
				MarketRisk:          DefaultMarketRisk,
				Recommendations: []string{
					"We recommend trimming the largest position",
					"Hedge currency exposure with forwards",
				},
			},
		},
		{
			name:    "short bullets fall back",
			section: "- trim\n* hedge\nHigh risk overall",
			want: RiskAssessment{
				OverallRisk:         LevelHigh,
				DiversificationRisk: DefaultDiversificationRisk,
				ConcentrationRisk:   DefaultConcentrationRisk,
				MarketRisk:          DefaultMarketRisk,
				Recommendations:     DefaultRiskRecommendations(),
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := ExtractRiskAssessment(tc.section); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestDefaultRiskRecommendationsAreNotShared(t *testing.T) {
	t.Parallel()

	first := DefaultRiskAssessment()
	first.Recommendations[0] = "mutated"
	if DefaultRiskAssessment().Recommendations[0] == "mutated" {
		t.Fatal("default recommendations share a backing array")
	}
}

func TestExtractMarketConditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		section string
		want    MarketConditionsResult
	}{
		{
			name:    "empty",
			section: "",
			want:    DefaultMarketConditions(),
		},
		{
			name:    "bearish low volatility downward",
			section: "Markets look bearish. Volatility is low while prices drift in a downward channel. Sentiment: fearful but orderly.",
			want: MarketConditionsResult{
				Overall:    OutlookBearish,
				Volatility: LevelLow,
				Trend:      TrendDownward,
				Sentiment:  "fearful but orderly",
			},
		},
		{
			name:    "highly volatile sideways without sentiment",
			section: "A highly volatile, sideways tape.",
			want: MarketConditionsResult{
				Overall:    OutlookNeutral,
				Volatility: LevelHigh,
				Trend:      TrendSideways,
				Sentiment:  DefaultSentiment,
			},
		},
		{
			name:    "no keywords",
			section: "Nothing notable happened.",
			want:    DefaultMarketConditions(),
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := ExtractMarketConditions(tc.section); got != tc.want {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestExtractPerformanceAnalysis(t *testing.T) {
	t.Parallel()

	if got := ExtractPerformanceAnalysis(""); got != DefaultPerformanceAnalysis() {
		t.Fatalf("expected defaults, got %+v", got)
	}

	got := ExtractPerformanceAnalysis("- Risk-adjusted returns trail peers.\nThe S&P 500 benchmark rose 10%! Absolute return was 8.2% this year.")
	want := PerformanceAnalysis{
		ReturnAnalysis:      "Absolute return was 8.2% this year.",
		BenchmarkComparison: "The S&P 500 benchmark rose 10%!",
		RiskAdjustedReturns: "Risk-adjusted returns trail peers.",
	}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}

	partial := ExtractPerformanceAnalysis("Sharpe ratio near 1.")
	if partial.RiskAdjustedReturns != "Sharpe ratio near 1." {
		t.Fatalf("risk adjusted = %q", partial.RiskAdjustedReturns)
	}
	if partial.ReturnAnalysis != DefaultReturnAnalysis || partial.BenchmarkComparison != DefaultBenchmarkComparison {
		t.Fatalf("expected defaults for missing subsections, got %+v", partial)
	}
}

func TestSplitSentences(t *testing.T) {
	t.Parallel()

	got := SplitSentences("First one. Value 12.5% held!\n* Bullet line\n\nLast?")
	want := []string{"First one.", "Value 12.5% held!", "Bullet line", "Last?"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
	if SplitSentences("") != nil {
		t.Fatal("expected nil for empty text")
	}
}
