package portfolioai

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	buyPattern  = regexp.MustCompile(`(?i)\b(?:buy|purchase|acquire)\b`)
	sellPattern = regexp.MustCompile(`(?i)\b(?:sell|dispose|exit)\b`)
	holdPattern = regexp.MustCompile(`(?i)\b(?:hold|maintain|keep)\b`)

	confidencePattern = regexp.MustCompile(`(?i)\bconfidence\b[^0-9]*?(\d+)`)
	reasoningPattern  = regexp.MustCompile(`(?i)\b(?:reasoning|reason|rationale|because)\b[\s:\-]*([^.]+)`)
	allocationPattern = regexp.MustCompile(`(?i)\ballocation\b[^0-9\n]{0,30}?(\d+(?:\.\d+)?)\s*%`)

	riskBeforePattern    = regexp.MustCompile(`(?i)\b(low|medium|moderate|high)[\s-]+risk\b`)
	riskAfterPattern     = regexp.MustCompile(`(?i)\brisk(?:\s+level)?\s*[:\-]\s*(low|medium|moderate|high)\b`)
	horizonBeforePattern = regexp.MustCompile(`(?i)\b(short|mid|medium|long)[\s-]*term\b`)
	horizonAfterPattern  = regexp.MustCompile(`(?i)\btime\s+horizon\s*[:\-]?\s*(short|mid|medium|long)\b`)
)

// ExtractRecommendations builds one recommendation per quote, in quote order.
// Each symbol is looked up in the stock recommendations section first and in
// the whole reply when the section does not mention it.
func ExtractRecommendations(text string, sections Sections, quotes []StockQuote) []Recommendation {
	matchers := make([]*symbolMatcher, 0, len(quotes))
	for _, q := range quotes {
		matchers = append(matchers, newSymbolMatcher(q.Symbol))
	}

	recs := make([]Recommendation, 0, len(quotes))
	for i, quote := range quotes {
		region := text
		if matchers[i].locate(sections.StockRecommendations, 0) != nil {
			region = sections.StockRecommendations
		}
		span := symbolSpan(region, matchers[i], matchers)
		recs = append(recs, ExtractRecommendation(span, quote))
	}
	return recs
}

// SymbolSpan returns the text that follows the first case-insensitive token
// mention of symbol, up to the next anchor header, the next mention of another
// symbol or the end of text. It returns "" when symbol is not mentioned.
//
// A mention must not be glued to letters or digits, so "F" does not match
// inside "confidence". A trailing dot is allowed, which means "RELIANCE" still
// matches the mention "RELIANCE.NSE"; callers must not rely on such symbols
// being told apart.
func SymbolSpan(text, symbol string, symbols []string) string {
	matchers := make([]*symbolMatcher, 0, len(symbols))
	for _, s := range symbols {
		matchers = append(matchers, newSymbolMatcher(s))
	}
	return symbolSpan(text, newSymbolMatcher(symbol), matchers)
}

func symbolSpan(text string, target *symbolMatcher, others []*symbolMatcher) string {
	loc := target.locate(text, 0)
	if loc == nil {
		return ""
	}
	start := loc[1]

	end := len(text)
	for _, m := range findHeaders(text) {
		if m.start >= start && m.start < end {
			end = m.start
			break
		}
	}
	for _, other := range others {
		if other == nil || strings.EqualFold(other.symbol, target.symbol) {
			continue
		}
		if next := other.locate(text, start); next != nil && next[0] < end {
			end = next[0]
		}
	}
	return text[start:end]
}

// ExtractRecommendation reads a single recommendation out of the span of
// text attached to quote's symbol. Every field falls back to its default.
func ExtractRecommendation(span string, quote StockQuote) Recommendation {
	action := ExtractAction(span)
	current := NewAmount(quote.Price)

	companyName := strings.TrimSpace(quote.CompanyName)
	if companyName == "" {
		companyName = quote.Symbol
	}

	return Recommendation{
		Symbol:               quote.Symbol,
		CompanyName:          companyName,
		Action:               action,
		Confidence:           ExtractConfidence(span),
		TargetPrice:          TargetPrice(current, action),
		CurrentPrice:         current,
		Reasoning:            ExtractReasoning(span),
		RiskLevel:            ExtractRiskLevel(span),
		TimeHorizon:          ExtractTimeHorizon(span),
		AllocationPercentage: ExtractAllocation(span),
	}
}

// ExtractAction checks buy, sell and hold vocabularies in that order.
func ExtractAction(text string) string {
	switch {
	case buyPattern.MatchString(text):
		return ActionBuy
	case sellPattern.MatchString(text):
		return ActionSell
	case holdPattern.MatchString(text):
		return ActionHold
	default:
		return ActionHold
	}
}

// ExtractConfidence returns the first integer after "confidence", clamped to [0,100].
func ExtractConfidence(text string) int {
	m := confidencePattern.FindStringSubmatch(text)
	if m == nil {
		return DefaultConfidence
	}
	return parseScore(m[1])
}

// ExtractReasoning returns the text after "reason", "rationale" or "because"
// up to the next period.
func ExtractReasoning(text string) string {
	m := reasoningPattern.FindStringSubmatch(text)
	if m == nil {
		return DefaultReasoning
	}
	return orDefault(collapseSpaces(strings.Trim(m[1], " \t\r\n-*")), DefaultReasoning)
}

func ExtractRiskLevel(text string) string {
	return earliestLevel(text, LevelMedium, riskBeforePattern, riskAfterPattern)
}

func ExtractTimeHorizon(text string) string {
	level := earliestLevel(text, HorizonMedium, horizonBeforePattern, horizonAfterPattern)
	if level == "mid" {
		return HorizonMedium
	}
	return level
}

// ExtractAllocation returns the percentage following "allocation", or nil.
func ExtractAllocation(text string) *float64 {
	m := allocationPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	v = clampPercent(v)
	return &v
}

// earliestLevel returns the lowercased first capture group of whichever
// pattern matches earliest in text.
func earliestLevel(text, fallback string, patterns ...*regexp.Regexp) string {
	best := -1
	level := fallback
	for _, p := range patterns {
		loc := p.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if best < 0 || loc[0] < best {
			best = loc[0]
			level = normalizeLevel(text[loc[2]:loc[3]])
		}
	}
	return level
}

func normalizeLevel(word string) string {
	word = strings.ToLower(word)
	if word == "moderate" {
		return LevelMedium
	}
	return word
}

// parseScore converts digits to a score in [0,100]. Values too large for an
// int saturate at 100.
func parseScore(digits string) int {
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 100
	}
	return clampScore(v)
}

// symbolMatcher finds token mentions of one symbol.
type symbolMatcher struct {
	symbol  string
	pattern *regexp.Regexp
}

// newSymbolMatcher returns nil for a blank symbol.
func newSymbolMatcher(symbol string) *symbolMatcher {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil
	}
	return &symbolMatcher{
		symbol:  symbol,
		pattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(symbol)),
	}
}

// locate returns the [start, end) indices of the first token mention at or
// after byte offset from, or nil.
func (m *symbolMatcher) locate(text string, from int) []int {
	if m == nil || from > len(text) {
		return nil
	}
	for _, loc := range m.pattern.FindAllStringIndex(text[from:], -1) {
		start, end := from+loc[0], from+loc[1]
		if start > 0 && isSymbolByte(text[start-1], true) {
			continue
		}
		if end < len(text) && isSymbolByte(text[end], false) {
			continue
		}
		return []int{start, end}
	}
	return nil
}

// isSymbolByte reports whether c would glue onto a symbol mention. A dot is
// only glue in front of the symbol.
func isSymbolByte(c byte, leading bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.':
		return leading
	default:
		return false
	}
}
