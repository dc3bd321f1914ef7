// Package market loads daily price series for the event windows, from the
// Yahoo Finance chart API or from Zerodha Kite historical candles.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"news-impact/internal/api"
	"news-impact/internal/interfaces"
	"news-impact/internal/logger"
	"news-impact/internal/types"
)

// DefaultYahooURL is the chart API host
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// ErrTickerNotFound is returned when the provider knows nothing about a ticker
var ErrTickerNotFound = errors.New("ticker not found")

// StatusError is a non-2xx response from a price endpoint
type StatusError = api.StatusError

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// YahooConfig configures the Yahoo source
type YahooConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Yahoo reads daily bars from the Yahoo Finance chart API
type Yahoo struct {
	baseURL string
	client  *api.Client
}

var _ interfaces.PriceSource = (*Yahoo)(nil)

// NewYahoo creates a Yahoo price source
func NewYahoo(cfg YahooConfig) *Yahoo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultYahooURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Yahoo{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: api.NewClient(
			api.WithSource("yahoo"),
			api.WithTimeout(cfg.Timeout),
			api.WithRateLimit(cfg.RequestsPerSecond),
			api.WithHeaders(api.YahooFinanceHeaders()),
			api.WithLogging(true),
		),
	}
}

// Fetch returns bars for q.Ticker between q.Start and the end of q.End's day
func (y *Yahoo) Fetch(ctx context.Context, q types.PriceQuery) (types.PriceSeries, error) {
	interval := q.Interval
	if interval == "" {
		interval = "1d"
	}
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=%s",
		y.baseURL,
		url.PathEscape(q.Ticker),
		q.Start.UTC().Unix(),
		q.End.UTC().Add(24*time.Hour).Unix(),
		interval,
	)

	resp, err := y.client.GET(ctx, reqURL)
	var se *StatusError
	switch {
	// Yahoo answers unknown symbols with 404 and a chart.error body
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		return types.PriceSeries{}, fmt.Errorf("%w: %s %s", ErrTickerNotFound, q.Ticker, chartError([]byte(se.Body)))
	case err != nil:
		return types.PriceSeries{}, fmt.Errorf("yahoo chart %s: %w", q.Ticker, err)
	}

	var chart yfChartResponse
	if err := resp.ParseJSON(&chart); err != nil {
		return types.PriceSeries{}, fmt.Errorf("parse yahoo chart: %w", err)
	}
	if chart.Chart.Error != nil {
		return types.PriceSeries{}, fmt.Errorf("%w: %s %s", ErrTickerNotFound, q.Ticker, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return types.PriceSeries{}, fmt.Errorf("%w: %s", ErrTickerNotFound, q.Ticker)
	}

	points := parseChart(chart.Chart.Result[0])
	logger.Debug(ctx, "Yahoo bars parsed", "ticker", q.Ticker, "bars", len(points))
	return types.NewPriceSeries(q.Ticker, points), nil
}

func chartError(body []byte) string {
	var chart yfChartResponse
	if json.Unmarshal(body, &chart) != nil || chart.Chart.Error == nil {
		return ""
	}
	return chart.Chart.Error.Description
}

// parseChart drops bars without a close; missing volume reads as zero
func parseChart(result yfChartResult) []types.PricePoint {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	q := result.Indicators.Quote[0]

	points := make([]types.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		p := types.PricePoint{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			p.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			p.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			p.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			p.Volume = float64(*q.Volume[i])
		}
		points = append(points, p)
	}
	return points
}
