package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"news-impact/internal/logger"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageMeta is what an article page says about itself
type PageMeta struct {
	Summary  string
	Keywords []string
}

// MetaFetcher reads description and keyword meta tags from article pages
type MetaFetcher struct {
	timeout time.Duration
}

// NewMetaFetcher creates a fetcher with a per-page timeout
func NewMetaFetcher(timeout time.Duration) *MetaFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &MetaFetcher{timeout: timeout}
}

// Fetch visits pageURL once and collects its meta description and keywords
func (m *MetaFetcher) Fetch(ctx context.Context, pageURL string) (PageMeta, error) {
	if err := ctx.Err(); err != nil {
		return PageMeta{}, err
	}

	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(m.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
	})

	var meta PageMeta
	var ogDescription string

	c.OnHTML(`meta[name="description"]`, func(e *colly.HTMLElement) {
		if meta.Summary == "" {
			meta.Summary = cleanHTML(e.Attr("content"))
		}
	})
	c.OnHTML(`meta[property="og:description"]`, func(e *colly.HTMLElement) {
		if ogDescription == "" {
			ogDescription = cleanHTML(e.Attr("content"))
		}
	})
	c.OnHTML(`meta[name="keywords"], meta[name="news_keywords"]`, func(e *colly.HTMLElement) {
		for _, kw := range strings.Split(e.Attr("content"), ",") {
			kw = strings.TrimSpace(kw)
			if kw != "" && !contains(meta.Keywords, kw) {
				meta.Keywords = append(meta.Keywords, kw)
			}
		}
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = err
		logger.Debug(ctx, "Article page fetch failed", "url", pageURL, "status", r.StatusCode, "error", err.Error())
	})

	if err := c.Visit(pageURL); err != nil {
		return PageMeta{}, fmt.Errorf("failed to visit %s: %w", pageURL, err)
	}
	c.Wait()

	if visitErr != nil {
		return PageMeta{}, fmt.Errorf("failed to fetch %s: %w", pageURL, visitErr)
	}
	if meta.Summary == "" {
		meta.Summary = ogDescription
	}
	return meta, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
