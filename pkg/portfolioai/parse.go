package portfolioai

import (
	"regexp"
	"sort"
	"strings"
)

// Sections holds the trimmed text captured under each anchor header. A
// missing header leaves its field empty.
type Sections struct {
	ExecutiveSummary     string
	DetailedAnalysis     string
	StockRecommendations string
	RiskAssessment       string
	MarketConditions     string
	PerformanceAnalysis  string
}

type headerMatch struct {
	header     string
	start, end int
}

var headerPatterns = compileHeaderPatterns(AnchorHeaders)

func compileHeaderPatterns(headers []string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(headers))
	for _, h := range headers {
		patterns[h] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(h))
	}
	return patterns
}

// Parse turns a free-form model reply into a fully populated result. It never
// fails: every field missing from text is filled with its documented default,
// and exactly one recommendation is produced per requested quote, in order.
func Parse(text string, req AnalysisRequest) AIAnalysisResult {
	sections := ExtractSections(text)
	return AIAnalysisResult{
		Summary:             orDefault(sections.ExecutiveSummary, DefaultSummary),
		DetailedAnalysis:    orDefault(sections.DetailedAnalysis, DefaultDetailedAnalysis),
		Recommendations:     ExtractRecommendations(text, sections, req.StockQuotes),
		RiskAssessment:      ExtractRiskAssessment(sections.RiskAssessment),
		MarketConditions:    ExtractMarketConditions(sections.MarketConditions),
		PerformanceAnalysis: ExtractPerformanceAnalysis(sections.PerformanceAnalysis),
	}
}

// ExtractSections splits text on the anchor headers. Matching is
// case-insensitive, header order is irrelevant and the first occurrence of a
// duplicated header wins. Each section runs until the next header of any kind.
func ExtractSections(text string) Sections {
	matches := findHeaders(text)
	captured := make(map[string]string, len(AnchorHeaders))
	for i, m := range matches {
		if _, seen := captured[m.header]; seen {
			continue
		}
		end := len(text)
		for _, next := range matches[i+1:] {
			if next.start >= m.end {
				end = next.start
				break
			}
		}
		captured[m.header] = cleanSection(text[m.end:end])
	}

	return Sections{
		ExecutiveSummary:     captured[HeaderExecutiveSummary],
		DetailedAnalysis:     captured[HeaderDetailedAnalysis],
		StockRecommendations: captured[HeaderStockRecommendations],
		RiskAssessment:       captured[HeaderRiskAssessment],
		MarketConditions:     captured[HeaderMarketConditions],
		PerformanceAnalysis:  captured[HeaderPerformanceAnalysis],
	}
}

// findHeaders returns every header occurrence ordered by position.
func findHeaders(text string) []headerMatch {
	var matches []headerMatch
	for _, h := range AnchorHeaders {
		for _, loc := range headerPatterns[h].FindAllStringIndex(text, -1) {
			matches = append(matches, headerMatch{header: h, start: loc[0], end: loc[1]})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].start < matches[j].start
	})
	return matches
}

// cleanSection trims whitespace plus markdown emphasis or heading marks left
// around a header, e.g. "**EXECUTIVE SUMMARY:**" or "## RISK ASSESSMENT:".
func cleanSection(content string) string {
	content = strings.TrimRight(content, " \t\r\n#*")
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "**") {
		content = strings.TrimSpace(strings.TrimLeft(content, "*"))
	}
	return content
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// collapseSpaces joins whitespace runs into single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
