package portfolioai

// Holding is one position of the analysed portfolio.
type Holding struct {
	Symbol          string  `json:"symbol"`
	CompanyName     string  `json:"company_name,omitempty"`
	Shares          float64 `json:"shares"`
	AverageCost     float64 `json:"average_cost"`
	CurrentPrice    float64 `json:"current_price"`
	MarketValue     float64 `json:"market_value"`
	GainLoss        float64 `json:"gain_loss"`
	GainLossPercent float64 `json:"gain_loss_percent"`
}

// PortfolioSnapshot is the portfolio state at analysis time.
type PortfolioSnapshot struct {
	Name                 string    `json:"name"`
	Currency             string    `json:"currency,omitempty"`
	TotalValue           float64   `json:"total_value"`
	TotalCost            float64   `json:"total_cost"`
	TotalGainLoss        float64   `json:"total_gain_loss"`
	TotalGainLossPercent float64   `json:"total_gain_loss_percent"`
	CashBalance          float64   `json:"cash_balance"`
	Holdings             []Holding `json:"holdings"`
}

// UserProfile describes the investor the report is written for.
type UserProfile struct {
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	RiskTolerance   string   `json:"risk_tolerance"`
	InvestmentGoals []string `json:"investment_goals"`
}

// StockQuote is the latest market quote of a symbol under analysis.
type StockQuote struct {
	Symbol        string  `json:"symbol"`
	CompanyName   string  `json:"company_name,omitempty"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	High52Week    float64 `json:"high_52_week"`
	Low52Week     float64 `json:"low_52_week"`
	PERatio       float64 `json:"pe_ratio"`
	MarketCap     float64 `json:"market_cap"`
	Volume        float64 `json:"volume"`
}

// MACD holds the MACD line, its signal line and the histogram.
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// TechnicalIndicator carries precomputed indicators for one symbol.
type TechnicalIndicator struct {
	Symbol         string  `json:"symbol"`
	RSI            float64 `json:"rsi"`
	MACD           MACD    `json:"macd"`
	SMA20          float64 `json:"sma20"`
	SMA50          float64 `json:"sma50"`
	SMA200         float64 `json:"sma200"`
	EMA12          float64 `json:"ema12"`
	EMA26          float64 `json:"ema26"`
	Volume         float64 `json:"volume"`
	AverageVolume  float64 `json:"average_volume"`
	PriceChange24h float64 `json:"price_change_24h"`
}

// MarketConditionsInput is the caller's view of the market, if any.
type MarketConditionsInput struct {
	Overall    string `json:"overall"`
	Volatility string `json:"volatility"`
	Trend      string `json:"trend"`
}

// AnalysisRequest is the immutable input of one analysis.
type AnalysisRequest struct {
	Portfolio           PortfolioSnapshot      `json:"portfolio"`
	User                UserProfile            `json:"user"`
	StockQuotes         []StockQuote           `json:"stock_quotes"`
	TechnicalIndicators []TechnicalIndicator   `json:"technical_indicators"`
	MarketConditions    *MarketConditionsInput `json:"market_conditions,omitempty"`
}

// Action values.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
	ActionHold = "hold"
)

// Level values shared by risk level, overall risk and volatility.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Time horizon values.
const (
	HorizonShort  = "short"
	HorizonMedium = "medium"
	HorizonLong   = "long"
)

// Market outlook values.
const (
	OutlookBullish = "bullish"
	OutlookBearish = "bearish"
	OutlookNeutral = "neutral"
)

// Trend values.
const (
	TrendUpward   = "upward"
	TrendDownward = "downward"
	TrendSideways = "sideways"
)

// Recommendation is the model's advice for one requested symbol.
type Recommendation struct {
	Symbol               string   `json:"symbol"`
	CompanyName          string   `json:"company_name"`
	Action               string   `json:"action"`
	Confidence           int      `json:"confidence"`
	TargetPrice          Amount   `json:"target_price"`
	CurrentPrice         Amount   `json:"current_price"`
	Reasoning            string   `json:"reasoning"`
	RiskLevel            string   `json:"risk_level"`
	TimeHorizon          string   `json:"time_horizon"`
	AllocationPercentage *float64 `json:"allocation_percentage,omitempty"`
}

// RiskAssessment scores the portfolio's risk on a 0-100 scale.
type RiskAssessment struct {
	OverallRisk         string   `json:"overall_risk"`
	DiversificationRisk int      `json:"diversification_risk"`
	ConcentrationRisk   int      `json:"concentration_risk"`
	MarketRisk          int      `json:"market_risk"`
	Recommendations     []string `json:"recommendations"`
}

// MarketConditionsResult is the model's reading of the market.
type MarketConditionsResult struct {
	Overall    string `json:"overall"`
	Volatility string `json:"volatility"`
	Trend      string `json:"trend"`
	Sentiment  string `json:"sentiment"`
}

// PerformanceAnalysis summarises returns in prose.
type PerformanceAnalysis struct {
	ReturnAnalysis      string `json:"return_analysis"`
	BenchmarkComparison string `json:"benchmark_comparison"`
	RiskAdjustedReturns string `json:"risk_adjusted_returns"`
}

// AIAnalysisResult is the fully populated output of the pipeline.
type AIAnalysisResult struct {
	Summary             string                 `json:"summary"`
	DetailedAnalysis    string                 `json:"detailed_analysis"`
	Recommendations     []Recommendation       `json:"recommendations"`
	RiskAssessment      RiskAssessment         `json:"risk_assessment"`
	MarketConditions    MarketConditionsResult `json:"market_conditions"`
	PerformanceAnalysis PerformanceAnalysis    `json:"performance_analysis"`
}
