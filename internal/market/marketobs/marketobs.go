package marketobs

import (
	"context"

	"news-impact/internal/interfaces"
	"news-impact/internal/logger"
	"news-impact/internal/trace"
	"news-impact/internal/types"
)

// observableSource wraps a PriceSource with logging and tracing
type observableSource struct {
	source interfaces.PriceSource
	name   string
}

var _ interfaces.PriceSource = (*observableSource)(nil)

// Wrap wraps a price source with observability middleware
func Wrap(source interfaces.PriceSource, name string) interfaces.PriceSource {
	return &observableSource{source: source, name: name}
}

// Fetch fetches a price series with observability
func (o *observableSource) Fetch(ctx context.Context, q types.PriceQuery) (types.PriceSeries, error) {
	ctx, span := trace.StartSpan(ctx, "market.Fetch")
	defer span.End()

	timer := logger.StartOperation(ctx, "market.fetch", "source", o.name, "ticker", q.Ticker)

	series, err := o.source.Fetch(timer.GetContext(), q)
	if err != nil {
		trace.Fail(span, err)
		timer.EndWithError(err)
		return types.PriceSeries{}, err
	}

	trace.SetInt(span, "bars", len(series.Points))
	timer.End("bars", len(series.Points))
	return series, nil
}
