package portfolioai

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	overallRiskPattern     = regexp.MustCompile(`(?i)\boverall\s+risk(?:\s+level)?(?:\s+is)?\s*[:\-]?\s*(low|medium|moderate|high)\b`)
	diversificationPattern = regexp.MustCompile(`(?i)\bdiversification\b[^0-9]*?(\d+)`)
	concentrationPattern   = regexp.MustCompile(`(?i)\bconcentration\b[^0-9]*?(\d+)`)
	marketRiskPattern      = regexp.MustCompile(`(?i)\bmarket\s+risk\b[^0-9]*?(\d+)`)
)

// minRiskRecommendationLen is the rune count a bullet must exceed to be kept.
const minRiskRecommendationLen = 10

// ExtractRiskAssessment reads the RISK ASSESSMENT section. An empty section
// yields DefaultRiskAssessment.
func ExtractRiskAssessment(section string) RiskAssessment {
	ra := DefaultRiskAssessment()
	if strings.TrimSpace(section) == "" {
		return ra
	}

	ra.OverallRisk = extractOverallRisk(section)
	ra.DiversificationRisk = firstScore(section, diversificationPattern, DefaultDiversificationRisk)
	ra.ConcentrationRisk = firstScore(section, concentrationPattern, DefaultConcentrationRisk)
	ra.MarketRisk = firstScore(section, marketRiskPattern, DefaultMarketRisk)
	if recs := ExtractRiskRecommendations(section); len(recs) > 0 {
		ra.Recommendations = recs
	}
	return ra
}

func extractOverallRisk(section string) string {
	if m := overallRiskPattern.FindStringSubmatch(section); m != nil {
		return normalizeLevel(m[1])
	}
	return earliestLevel(section, LevelMedium, riskBeforePattern, riskAfterPattern)
}

func firstScore(text string, pattern *regexp.Regexp, fallback int) int {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	return parseScore(m[1])
}

// ExtractRiskRecommendations returns bulleted lines and lines mentioning
// "recommend", stripped of their bullet marker. Lines of ten runes or fewer
// are dropped. The result is nil when nothing qualifies.
func ExtractRiskRecommendations(section string) []string {
	var recs []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		bulleted := hasBullet(line)
		if !bulleted && !strings.Contains(strings.ToLower(line), "recommend") {
			continue
		}
		content := collapseSpaces(stripBullet(line))
		if utf8.RuneCountInString(content) > minRiskRecommendationLen {
			recs = append(recs, content)
		}
	}
	return recs
}

func hasBullet(line string) bool {
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") || strings.HasPrefix(line, "*")
}

func stripBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "-•* \t"))
}
