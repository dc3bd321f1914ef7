// Package enrich turns fetched articles into enriched articles by combining
// window alignment, impact scoring and entity extraction.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"news-impact/internal/entities"
	"news-impact/internal/events"
	"news-impact/internal/impact"
	"news-impact/internal/interfaces"
	"news-impact/internal/logger"
	"news-impact/internal/types"
)

// ErrBadTimestamp marks an article whose seen_at cannot be aligned
var ErrBadTimestamp = errors.New("article timestamp is unusable")

// Config tunes the enricher
type Config struct {
	Window  events.Window
	Divisor float64
}

// DefaultConfig returns the one day / three day window and divisor 10
func DefaultConfig() Config {
	return Config{Window: events.DefaultWindow, Divisor: impact.DefaultDivisor}
}

// Enricher is safe for reuse across articles; it holds no per-call state.
type Enricher struct {
	window    events.Window
	scorer    impact.Scorer
	extractor interfaces.EntityExtractor
}

// NewEnricher creates an enricher. A nil extractor yields empty entity sets.
func NewEnricher(cfg Config, extractor interfaces.EntityExtractor) *Enricher {
	if cfg.Window.Pre <= 0 {
		cfg.Window.Pre = events.DefaultWindow.Pre
	}
	if cfg.Window.Post <= 0 {
		cfg.Window.Post = events.DefaultWindow.Post
	}
	return &Enricher{
		window:    cfg.Window,
		scorer:    impact.NewScorer(cfg.Divisor),
		extractor: extractor,
	}
}

// Enrich never fails: missing prices, a missing timestamp or an unavailable
// extractor all degrade to null metrics, zero impact or no entities.
func (e *Enricher) Enrich(ctx context.Context, article types.NewsArticle, series *types.PriceSeries, s types.SentimentResult) types.EnrichedArticle {
	out, err := e.enrich(ctx, article, series, s)
	if err != nil {
		logger.Warn(ctx, "Partial enrichment", "url", article.URL, "error", err)
	}
	return out
}

func (e *Enricher) enrich(ctx context.Context, article types.NewsArticle, series *types.PriceSeries, s types.SentimentResult) (types.EnrichedArticle, error) {
	out := types.EnrichedArticle{
		NewsArticle:     article,
		Sentiment:       s,
		RelatedEntities: e.relatedEntities(ctx, article),
	}

	if article.SeenAt == nil || series.Empty() {
		return out, nil
	}
	if err := checkTimestamp(*article.SeenAt); err != nil {
		return out, err
	}

	out.Metrics = events.Align(*series, *article.SeenAt, e.window)
	out.ImpactScore = e.scorer.Score(s.Signed(), out.Metrics)
	return out, nil
}

// EnrichBatch enriches articles one by one; sentiments[i] belongs to
// articles[i]. A failure on one article never stops the rest.
func (e *Enricher) EnrichBatch(ctx context.Context, articles []types.NewsArticle, series *types.PriceSeries, sentiments []types.SentimentResult) []types.EnrichedArticle {
	out := make([]types.EnrichedArticle, 0, len(articles))
	degraded := 0
	for i, a := range articles {
		s := types.SentimentResult{Label: types.Neutral, Confidence: 0.5}
		if i < len(sentiments) {
			s = sentiments[i]
		}
		enriched, err := e.enrich(ctx, a, series, s)
		if err != nil {
			degraded++
			logger.Warn(ctx, "Partial enrichment", "url", a.URL, "error", err)
		}
		out = append(out, enriched)
	}
	if degraded > 0 {
		logger.Info(ctx, "Batch enrichment finished with degraded articles", "total", len(articles), "degraded", degraded)
	}
	return out
}

func (e *Enricher) relatedEntities(ctx context.Context, article types.NewsArticle) []string {
	if e.extractor == nil {
		return []string{}
	}
	title := entities.Prefix(entities.CleanText(article.Title))
	if title == "" {
		return []string{}
	}
	found, err := e.extractor.Extract(ctx, title)
	if err != nil {
		logger.Debug(ctx, "Entity extraction unavailable", "url", article.URL, "error", err)
		return []string{}
	}
	return withoutCompany(found, article.Company)
}

// withoutCompany drops the article's own company from its related entities
func withoutCompany(found []string, company string) []string {
	company = strings.ToLower(strings.TrimSpace(company))
	out := make([]string, 0, len(found))
	for _, name := range found {
		if company != "" && strings.ToLower(strings.TrimSpace(name)) == company {
			continue
		}
		out = append(out, name)
	}
	return out
}

// checkTimestamp rejects zero and far-future instants that cannot be aligned
func checkTimestamp(ts time.Time) error {
	if ts.IsZero() {
		return fmt.Errorf("%w: zero time", ErrBadTimestamp)
	}
	if ts.Year() < 1970 || ts.After(time.Now().Add(48*time.Hour)) {
		return fmt.Errorf("%w: %s", ErrBadTimestamp, ts.Format(time.RFC3339))
	}
	return nil
}
