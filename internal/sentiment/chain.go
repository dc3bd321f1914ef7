// Package sentiment provides sentiment providers: a remote model client, a
// keyword fallback and a chain that always yields a result.
package sentiment

import (
	"context"

	"news-impact/internal/interfaces"
	"news-impact/internal/logger"
	"news-impact/internal/types"
)

// Chain tries Primary and falls back to a keyword analyzer on any error, so
// callers never see a failure.
type Chain struct {
	Primary  interfaces.SentimentProvider
	Fallback *KeywordAnalyzer
}

// NewChain builds a chain. A nil primary means the fallback is always used.
func NewChain(primary interfaces.SentimentProvider) *Chain {
	return &Chain{Primary: primary, Fallback: NewKeywordAnalyzer()}
}

// Analyze returns the primary result when available, otherwise the fallback's
func (c *Chain) Analyze(ctx context.Context, text string) (types.SentimentResult, error) {
	if c.Fallback == nil {
		c.Fallback = NewKeywordAnalyzer()
	}
	if c.Primary == nil {
		return c.Fallback.Classify(text), nil
	}

	res, err := c.Primary.Analyze(ctx, text)
	if err != nil {
		logger.Debug(ctx, "Sentiment model failed, using keyword fallback", "error", err)
		return c.Fallback.Classify(text), nil
	}
	return res, nil
}

var _ interfaces.SentimentProvider = (*Chain)(nil)
var _ interfaces.SentimentProvider = (*KeywordAnalyzer)(nil)
var _ interfaces.SentimentProvider = (*ModelClient)(nil)
