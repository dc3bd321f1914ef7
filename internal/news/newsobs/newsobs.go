package newsobs

import (
	"context"

	"news-impact/internal/interfaces"
	"news-impact/internal/logger"
	"news-impact/internal/trace"
	"news-impact/internal/types"
)

// observableSource wraps a NewsSource with logging and tracing
type observableSource struct {
	source interfaces.NewsSource
	name   string
}

var _ interfaces.NewsSource = (*observableSource)(nil)

// Wrap wraps a news source with observability middleware
func Wrap(source interfaces.NewsSource, name string) interfaces.NewsSource {
	return &observableSource{source: source, name: name}
}

// Fetch fetches articles with observability
func (o *observableSource) Fetch(ctx context.Context, q types.NewsQuery) ([]types.NewsArticle, error) {
	ctx, span := trace.StartSpan(ctx, "news.Fetch")
	defer span.End()

	timer := logger.StartOperation(ctx, "news.fetch",
		"source", o.name,
		"company", q.Company,
		"start", q.Start.Format("20060102"),
		"end", q.End.Format("20060102"),
	)

	articles, err := o.source.Fetch(timer.GetContext(), q)
	if err != nil {
		trace.Fail(span, err)
		timer.EndWithError(err)
		return nil, err
	}

	trace.SetInt(span, "articles", len(articles))
	timer.End("articles", len(articles))
	return articles, nil
}
