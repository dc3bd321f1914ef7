package interfaces

import (
	"context"

	"news-impact/internal/types"
)

// NewsSource returns raw articles for a query. A malformed or empty upstream
// response yields an empty slice, not an error.
type NewsSource interface {
	Fetch(ctx context.Context, q types.NewsQuery) ([]types.NewsArticle, error)
}

// PriceSource returns a UTC-normalized bar series for a ticker
type PriceSource interface {
	Fetch(ctx context.Context, q types.PriceQuery) (types.PriceSeries, error)
}
