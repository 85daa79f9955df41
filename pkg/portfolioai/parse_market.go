package portfolioai

import (
	"regexp"
	"strings"
)

var (
	bullishPattern = regexp.MustCompile(`(?i)\bbullish\b`)
	bearishPattern = regexp.MustCompile(`(?i)\bbearish\b`)

	highVolatilityPattern = regexp.MustCompile(`(?i)\b(?:high|highly|elevated)\s+volatil|\bvolatility\b[^.\n]{0,20}?\b(?:high|elevated)\b`)
	lowVolatilityPattern  = regexp.MustCompile(`(?i)\blow\s+volatil|\bvolatility\b[^.\n]{0,20}?\blow\b`)

	upwardPattern   = regexp.MustCompile(`(?i)\b(?:upward|uptrend)\b`)
	downwardPattern = regexp.MustCompile(`(?i)\b(?:downward|downtrend)\b`)
	sidewaysPattern = regexp.MustCompile(`(?i)\bsideways\b`)

	sentimentPattern = regexp.MustCompile(`(?i)\bsentiment\s*:\s*([^.!?\n]+)`)
)

// ExtractMarketConditions reads the MARKET CONDITIONS ANALYSIS section. Each
// field is matched on its own keyword set and falls back independently.
func ExtractMarketConditions(section string) MarketConditionsResult {
	mc := DefaultMarketConditions()
	if strings.TrimSpace(section) == "" {
		return mc
	}

	switch {
	case bullishPattern.MatchString(section):
		mc.Overall = OutlookBullish
	case bearishPattern.MatchString(section):
		mc.Overall = OutlookBearish
	}

	switch {
	case highVolatilityPattern.MatchString(section):
		mc.Volatility = LevelHigh
	case lowVolatilityPattern.MatchString(section):
		mc.Volatility = LevelLow
	}

	switch {
	case upwardPattern.MatchString(section):
		mc.Trend = TrendUpward
	case downwardPattern.MatchString(section):
		mc.Trend = TrendDownward
	case sidewaysPattern.MatchString(section):
		mc.Trend = TrendSideways
	}

	if m := sentimentPattern.FindStringSubmatch(section); m != nil {
		mc.Sentiment = orDefault(collapseSpaces(m[1]), DefaultSentiment)
	}
	return mc
}
