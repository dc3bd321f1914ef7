package sentimentobs

import (
	"context"

	"news-impact/internal/interfaces"
	"news-impact/internal/logger"
	"news-impact/internal/trace"
	"news-impact/internal/types"
)

// observableProvider wraps a SentimentProvider with observability (logging & tracing)
type observableProvider struct {
	provider interfaces.SentimentProvider
}

// Compile-time interface check
var _ interfaces.SentimentProvider = (*observableProvider)(nil)

// Wrap wraps a sentiment provider with observability middleware
func Wrap(provider interfaces.SentimentProvider) interfaces.SentimentProvider {
	return &observableProvider{provider: provider}
}

// Analyze classifies text with observability
func (o *observableProvider) Analyze(ctx context.Context, text string) (types.SentimentResult, error) {
	ctx, span := trace.StartSpan(ctx, "sentiment.Analyze")
	defer span.End()

	res, err := o.provider.Analyze(ctx, text)
	if err != nil {
		trace.Fail(span, err)
		logger.ErrorWithErr(ctx, "Sentiment analysis failed", err, "text_len", len(text))
		return types.SentimentResult{}, err
	}

	if logger.IsDebugEnabled() {
		logger.Debug(ctx, "Sentiment classified",
			"label", res.Label,
			"confidence", res.Confidence,
		)
	}
	return res, nil
}
