package portfolioai

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	defaultCurrency = "USD"
	notProvided     = "Not provided"
)

// Anchor headers the model must reproduce verbatim. The parser segments the
// reply on these tokens.
const (
	HeaderExecutiveSummary     = "EXECUTIVE SUMMARY:"
	HeaderDetailedAnalysis     = "DETAILED ANALYSIS:"
	HeaderStockRecommendations = "INDIVIDUAL STOCK RECOMMENDATIONS:"
	HeaderRiskAssessment       = "RISK ASSESSMENT:"
	HeaderMarketConditions     = "MARKET CONDITIONS ANALYSIS:"
	HeaderPerformanceAnalysis  = "PERFORMANCE ANALYSIS:"
)

// AnchorHeaders lists every anchor header in prompt order.
var AnchorHeaders = []string{
	HeaderExecutiveSummary,
	HeaderDetailedAnalysis,
	HeaderStockRecommendations,
	HeaderRiskAssessment,
	HeaderMarketConditions,
	HeaderPerformanceAnalysis,
}

const analysisInstructions = `INSTRUCTIONS:
Write a professional portfolio analysis for the user above. Structure the reply with the
following section headers, written exactly as shown (uppercase, followed by a colon):

EXECUTIVE SUMMARY:
A short overview of the portfolio's state and the most important actions.

DETAILED ANALYSIS:
Holdings, allocation, technical picture and fundamentals in more depth.

INDIVIDUAL STOCK RECOMMENDATIONS:
One line per stock to analyze, starting with the symbol, in this form:
<SYMBOL>: <Buy|Sell|Hold> - confidence <0-100>% - <low|medium|high> risk - <short|medium|long> term - allocation <percent>% - reason: <one sentence>.

RISK ASSESSMENT:
Overall risk: <low|medium|high>. Diversification risk: <0-100>. Concentration risk: <0-100>. Market risk: <0-100>.
Then risk recommendations as bullet points starting with "- ".

MARKET CONDITIONS ANALYSIS:
State whether the market is bullish, bearish or neutral, whether volatility is low, medium or high,
and whether the trend is upward, downward or sideways. Finish with "Sentiment: <one sentence>."

PERFORMANCE ANALYSIS:
One sentence on returns, one sentence comparing against a benchmark, and one sentence on risk-adjusted returns.

Do not rename, translate or merge the headers. Keep numbers as plain digits.`

// BuildPrompt renders the analysis request into a single prompt. It never
// fails; missing optional data is rendered as "Not provided".
func BuildPrompt(req AnalysisRequest) string {
	var sb strings.Builder
	sb.WriteString("You are an expert financial analyst. Analyze the portfolio below and produce a structured report.\n\n")

	writeUserProfile(&sb, req.User)
	sb.WriteString("\n")
	writePortfolioSummary(&sb, req.Portfolio, req.StockQuotes)
	sb.WriteString("\n")
	writeTechnicalSummary(&sb, req.TechnicalIndicators)
	sb.WriteString("\n")
	writeMarketConditions(&sb, req.MarketConditions)
	sb.WriteString("\n")

	symbols := make([]string, 0, len(req.StockQuotes))
	for _, quote := range req.StockQuotes {
		symbols = append(symbols, quote.Symbol)
	}
	sb.WriteString("STOCKS TO ANALYZE: ")
	sb.WriteString(orNotProvided(strings.Join(symbols, ", ")))
	sb.WriteString("\n\n")

	sb.WriteString(analysisInstructions)
	sb.WriteString("\n")
	return sb.String()
}

func writeUserProfile(sb *strings.Builder, user UserProfile) {
	goals := make([]string, 0, len(user.InvestmentGoals))
	for _, goal := range user.InvestmentGoals {
		if trimmed := strings.TrimSpace(goal); trimmed != "" {
			goals = append(goals, trimmed)
		}
	}

	sb.WriteString("USER PROFILE:\n")
	fmt.Fprintf(sb, "- Name: %s\n", orNotProvided(user.Name))
	fmt.Fprintf(sb, "- Role: %s\n", orNotProvided(user.Role))
	fmt.Fprintf(sb, "- Risk Tolerance: %s\n", orNotProvided(user.RiskTolerance))
	fmt.Fprintf(sb, "- Investment Goals: %s\n", orNotProvided(strings.Join(goals, ", ")))
}

func writePortfolioSummary(sb *strings.Builder, p PortfolioSnapshot, quotes []StockQuote) {
	currency := p.Currency
	sb.WriteString("PORTFOLIO SUMMARY:\n")
	fmt.Fprintf(sb, "- Portfolio Name: %s\n", orNotProvided(p.Name))
	fmt.Fprintf(sb, "- Total Value: %s\n", formatMoney(p.TotalValue, currency))
	fmt.Fprintf(sb, "- Total Cost: %s\n", formatMoney(p.TotalCost, currency))
	fmt.Fprintf(sb, "- Total Gain/Loss: %s (%.2f%%)\n", formatMoney(p.TotalGainLoss, currency), p.TotalGainLossPercent)
	fmt.Fprintf(sb, "- Cash Balance: %s\n", formatMoney(p.CashBalance, currency))
	fmt.Fprintf(sb, "- Number of Holdings: %d\n", len(p.Holdings))

	sb.WriteString("\nHOLDINGS:\n")
	if len(p.Holdings) == 0 {
		sb.WriteString("- No holdings\n")
		return
	}

	quoteBySymbol := make(map[string]StockQuote, len(quotes))
	for _, quote := range quotes {
		quoteBySymbol[strings.ToUpper(strings.TrimSpace(quote.Symbol))] = quote
	}

	for _, h := range p.Holdings {
		name := h.Symbol
		if h.CompanyName != "" {
			name = fmt.Sprintf("%s (%s)", h.Symbol, h.CompanyName)
		}
		fmt.Fprintf(sb, "- %s: %s shares @ avg %s, current %s, value %s, gain/loss %.2f%%, weight %.2f%%",
			name,
			formatQuantity(h.Shares),
			formatMoney(h.AverageCost, currency),
			formatMoney(h.CurrentPrice, currency),
			formatMoney(h.MarketValue, currency),
			h.GainLossPercent,
			portfolioWeight(h.MarketValue, p.TotalValue),
		)
		if quote, ok := quoteBySymbol[strings.ToUpper(strings.TrimSpace(h.Symbol))]; ok {
			fmt.Fprintf(sb, " | 52W range %s - %s, P/E %.2f",
				formatMoney(quote.Low52Week, currency),
				formatMoney(quote.High52Week, currency),
				quote.PERatio,
			)
		}
		sb.WriteString("\n")
	}
}

func writeTechnicalSummary(sb *strings.Builder, indicators []TechnicalIndicator) {
	sb.WriteString("TECHNICAL ANALYSIS:\n")
	if len(indicators) == 0 {
		sb.WriteString("- " + notProvided + "\n")
		return
	}
	for _, ind := range indicators {
		fmt.Fprintf(sb, "- %s: RSI %.2f %s, MACD %.2f / signal %.2f / histogram %.2f, SMA20 %.2f, SMA50 %.2f, SMA200 %.2f, EMA12 %.2f, EMA26 %.2f, volume %s of average, 24h change %.2f%%\n",
			ind.Symbol,
			ind.RSI,
			RSISignal(ind.RSI),
			ind.MACD.MACD,
			ind.MACD.Signal,
			ind.MACD.Histogram,
			ind.SMA20,
			ind.SMA50,
			ind.SMA200,
			ind.EMA12,
			ind.EMA26,
			volumeRatio(ind.Volume, ind.AverageVolume),
			ind.PriceChange24h,
		)
	}
}

func writeMarketConditions(sb *strings.Builder, mc *MarketConditionsInput) {
	if mc == nil {
		sb.WriteString("MARKET CONDITIONS: " + notProvided + "\n")
		return
	}
	sb.WriteString("MARKET CONDITIONS:\n")
	fmt.Fprintf(sb, "- Overall: %s\n", orNotProvided(mc.Overall))
	fmt.Fprintf(sb, "- Volatility: %s\n", orNotProvided(mc.Volatility))
	fmt.Fprintf(sb, "- Trend: %s\n", orNotProvided(mc.Trend))
}

// RSISignal labels an RSI reading.
func RSISignal(rsi float64) string {
	switch {
	case rsi > 70:
		return "(Overbought)"
	case rsi < 30:
		return "(Oversold)"
	default:
		return "(Neutral)"
	}
}

func portfolioWeight(marketValue, totalValue float64) float64 {
	if totalValue == 0 {
		return 0
	}
	return marketValue / totalValue * 100
}

func volumeRatio(volume, average float64) string {
	if average == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", volume/average*100)
}

func formatQuantity(q float64) string {
	if !isFinite(q) {
		return "n/a"
	}
	return decimal.NewFromFloat(q).String()
}

// formatMoney renders an amount in the portfolio currency. Unknown currency
// codes fall back to "<amount> <CODE>".
func formatMoney(amount float64, currency string) string {
	if !isFinite(amount) {
		return "n/a"
	}
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = defaultCurrency
	}
	cur := money.GetCurrency(code)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, code)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), code).Display()
}

func orNotProvided(value string) string {
	if strings.TrimSpace(value) == "" {
		return notProvided
	}
	return strings.TrimSpace(value)
}
