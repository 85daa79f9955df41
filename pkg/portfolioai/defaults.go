package portfolioai

// Fallback values used whenever the model reply does not provide a field.
const (
	DefaultSummary             = "Analysis summary not available"
	DefaultDetailedAnalysis    = "Detailed analysis not available"
	DefaultReasoning           = "Based on current market conditions and technical analysis"
	DefaultConfidence          = 75
	DefaultDiversificationRisk = 60
	DefaultConcentrationRisk   = 40
	DefaultMarketRisk          = 50
	DefaultSentiment           = "Mixed market sentiment with cautious optimism"
	DefaultReturnAnalysis      = "Portfolio returns are broadly in line with recent market performance"
	DefaultBenchmarkComparison = "Benchmark comparison requires additional historical data"
	DefaultRiskAdjustedReturns = "Risk-adjusted returns appear reasonable for the current risk profile"
)

// DefaultRiskRecommendations returns the canned risk advice. A fresh slice is
// returned on every call so results never share backing arrays.
func DefaultRiskRecommendations() []string {
	return []string{
		"Consider diversifying across sectors",
		"Monitor position sizes",
	}
}

// DefaultRiskAssessment is the assessment used when the reply has no usable risk section.
func DefaultRiskAssessment() RiskAssessment {
	return RiskAssessment{
		OverallRisk:         LevelMedium,
		DiversificationRisk: DefaultDiversificationRisk,
		ConcentrationRisk:   DefaultConcentrationRisk,
		MarketRisk:          DefaultMarketRisk,
		Recommendations:     DefaultRiskRecommendations(),
	}
}

// DefaultMarketConditions is the neutral market reading.
func DefaultMarketConditions() MarketConditionsResult {
	return MarketConditionsResult{
		Overall:    OutlookNeutral,
		Volatility: LevelMedium,
		Trend:      TrendSideways,
		Sentiment:  DefaultSentiment,
	}
}

// DefaultPerformanceAnalysis holds the canned performance prose.
func DefaultPerformanceAnalysis() PerformanceAnalysis {
	return PerformanceAnalysis{
		ReturnAnalysis:      DefaultReturnAnalysis,
		BenchmarkComparison: DefaultBenchmarkComparison,
		RiskAdjustedReturns: DefaultRiskAdjustedReturns,
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
