// Package news fetches company news from GDELT with a Google News RSS
// fallback, optionally filling summaries from article page meta tags.
package news

import (
	"context"
	"errors"

	"news-impact/internal/interfaces"
	"news-impact/internal/logger"
	"news-impact/internal/types"
)

// NamedSource is a news source that identifies itself in logs
type NamedSource interface {
	interfaces.NewsSource
	Name() string
}

// ServiceConfig configures the combined news source
type ServiceConfig struct {
	// MetaLimit caps how many articles per fetch get their page visited for
	// summary and keywords. Zero disables page visits.
	MetaLimit int
}

// Service queries the primary source and falls back when it has nothing
type Service struct {
	primary  NamedSource
	fallback NamedSource
	meta     *MetaFetcher
	cfg      ServiceConfig
}

// NewService creates a news service. fallback and meta may be nil.
func NewService(primary, fallback NamedSource, meta *MetaFetcher, cfg ServiceConfig) *Service {
	return &Service{primary: primary, fallback: fallback, meta: meta, cfg: cfg}
}

var _ interfaces.NewsSource = (*Service)(nil)

// Fetch returns the primary source's articles, or the fallback's when the
// primary returns none. A primary error is returned as-is when the fallback
// cannot make up for it, so callers can still retry transient failures.
func (s *Service) Fetch(ctx context.Context, q types.NewsQuery) ([]types.NewsArticle, error) {
	articles, err := s.primary.Fetch(ctx, q)
	if err == nil && len(articles) > 0 {
		return s.enrich(ctx, articles), nil
	}

	if s.fallback == nil {
		if err != nil {
			return nil, err
		}
		return articles, nil
	}

	if err != nil {
		logger.Warn(ctx, "Primary news source failed, trying fallback",
			"primary", s.primary.Name(), "fallback", s.fallback.Name(), "company", q.Company, "error", err.Error())
	} else {
		logger.Info(ctx, "No articles from primary source, trying fallback",
			"primary", s.primary.Name(), "fallback", s.fallback.Name(), "company", q.Company)
	}

	fallbackArticles, fbErr := s.fallback.Fetch(ctx, q)
	if fbErr != nil {
		logger.ErrorWithErr(ctx, "Fallback news source failed", fbErr, "fallback", s.fallback.Name(), "company", q.Company)
		if err != nil {
			return nil, errors.Join(err, fbErr)
		}
		return []types.NewsArticle{}, nil
	}
	if len(fallbackArticles) == 0 && err != nil {
		return nil, err
	}

	return s.enrich(ctx, fallbackArticles), nil
}

// enrich fills empty summaries and keywords from page meta tags
func (s *Service) enrich(ctx context.Context, articles []types.NewsArticle) []types.NewsArticle {
	if s.meta == nil || s.cfg.MetaLimit <= 0 {
		return articles
	}

	visited := 0
	for i := range articles {
		if visited >= s.cfg.MetaLimit {
			break
		}
		a := &articles[i]
		if a.URL == "" || (a.Summary != "" && len(a.Keywords) > 0) {
			continue
		}
		visited++

		meta, err := s.meta.Fetch(ctx, a.URL)
		if err != nil {
			logger.Debug(ctx, "Skipping page meta", "url", a.URL, "error", err.Error())
			continue
		}
		if a.Summary == "" {
			a.Summary = meta.Summary
		}
		if len(a.Keywords) == 0 {
			a.Keywords = meta.Keywords
		}
	}
	logger.Debug(ctx, "Page meta enrichment done", "visited", visited)
	return articles
}
