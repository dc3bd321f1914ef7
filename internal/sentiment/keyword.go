package sentiment

import (
	"context"
	"math"
	"strings"

	"news-impact/internal/types"
)

// KeywordAnalyzer is the deterministic rule-based provider used when no model
// is reachable. Each keyword contributes once if it appears anywhere in the
// lowercased text.
type KeywordAnalyzer struct {
	positiveWords []string
	negativeWords []string
}

// NewKeywordAnalyzer creates the fallback analyzer with the default word lists
func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{
		positiveWords: loadPositiveWords(),
		negativeWords: loadNegativeWords(),
	}
}

// Analyze never fails. Ties and empty text are neutral at 0.5.
func (ka *KeywordAnalyzer) Analyze(_ context.Context, text string) (types.SentimentResult, error) {
	return ka.Classify(text), nil
}

// Classify counts keyword hits and maps the winning side to a confidence band
func (ka *KeywordAnalyzer) Classify(text string) types.SentimentResult {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return types.SentimentResult{Label: types.Neutral, Confidence: 0.5}
	}

	pos := countHits(text, ka.positiveWords)
	neg := countHits(text, ka.negativeWords)

	switch {
	case pos > neg:
		return types.SentimentResult{Label: types.Positive, Confidence: band(pos)}
	case neg > pos:
		return types.SentimentResult{Label: types.Negative, Confidence: band(neg)}
	default:
		return types.SentimentResult{Label: types.Neutral, Confidence: 0.5}
	}
}

func countHits(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

// band is 0.6 plus 0.05 per hit, capped at 0.9
func band(hits int) float64 {
	v := 0.6 + float64(hits)*0.05
	// round away float noise so 0.6+3*0.05 reads as 0.75
	v = math.Round(v*1e6) / 1e6
	return math.Min(v, 0.9)
}

func loadPositiveWords() []string {
	return []string{"gain", "profit", "surge", "growth", "rise", "up", "high", "strong", "boost"}
}

func loadNegativeWords() []string {
	return []string{"loss", "fall", "drop", "decline", "down", "low", "weak", "crash", "plunge"}
}
