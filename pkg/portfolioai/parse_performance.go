package portfolioai

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	returnPattern       = regexp.MustCompile(`(?i)\breturns?\b`)
	benchmarkPattern    = regexp.MustCompile(`(?i)\bbenchmark`)
	riskAdjustedPattern = regexp.MustCompile(`(?i)\brisk[\s-]+adjusted\b|\bsharpe\b`)
)

// ExtractPerformanceAnalysis picks the first sentence of the PERFORMANCE
// ANALYSIS section for each of returns, benchmark and risk-adjusted returns.
// A sentence about risk-adjusted returns is never used as the return analysis.
func ExtractPerformanceAnalysis(section string) PerformanceAnalysis {
	pa := DefaultPerformanceAnalysis()
	var haveReturn, haveBenchmark, haveRiskAdjusted bool

	for _, sentence := range SplitSentences(section) {
		riskAdjusted := riskAdjustedPattern.MatchString(sentence)
		if !haveRiskAdjusted && riskAdjusted {
			pa.RiskAdjustedReturns = sentence
			haveRiskAdjusted = true
		}
		if !haveBenchmark && benchmarkPattern.MatchString(sentence) {
			pa.BenchmarkComparison = sentence
			haveBenchmark = true
		}
		if !haveReturn && !riskAdjusted && returnPattern.MatchString(sentence) {
			pa.ReturnAnalysis = sentence
			haveReturn = true
		}
	}
	return pa
}

// SplitSentences breaks text on newlines and on '.', '!' or '?' followed by
// whitespace or end of text, so decimals such as "12.5%" stay intact.
// Leading bullet markers are removed and empty sentences dropped.
func SplitSentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	flush := func() {
		s := collapseSpaces(stripBullet(current.String()))
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()
	return sentences
}
