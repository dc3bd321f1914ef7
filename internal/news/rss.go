package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"news-impact/internal/logger"
	"news-impact/internal/types"
)

// DefaultGoogleNewsURL is the Google News RSS search feed
const DefaultGoogleNewsURL = "https://news.google.com/rss/search"

// GoogleRSS searches Google News through its RSS feed. It is used when the
// primary source has nothing for a company.
type GoogleRSS struct {
	baseURL string
	parser  *gofeed.Parser
	now     func() time.Time
}

// NewGoogleRSS creates the RSS source. An empty baseURL uses Google News.
func NewGoogleRSS(baseURL string, timeout time.Duration) *GoogleRSS {
	if baseURL == "" {
		baseURL = DefaultGoogleNewsURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &GoogleRSS{baseURL: baseURL, parser: parser, now: time.Now}
}

// Name identifies the source in logs
func (g *GoogleRSS) Name() string { return "google-rss" }

// Fetch returns feed items published inside the query's date range
func (g *GoogleRSS) Fetch(ctx context.Context, q types.NewsQuery) ([]types.NewsArticle, error) {
	feed, err := g.parser.ParseURLWithContext(g.buildURL(q), ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &StatusError{Source: "google-rss", Code: httpErr.StatusCode}
		}
		return nil, fmt.Errorf("failed to parse news feed: %w", err)
	}

	company := q.Company
	if company == "" {
		company = q.Query
	}

	start := q.Start.UTC().Truncate(24 * time.Hour)
	end := q.End.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	fetchedAt := g.now().UTC()

	articles := []types.NewsArticle{}
	for _, item := range feed.Items {
		if q.MaxRecords > 0 && len(articles) >= q.MaxRecords {
			break
		}

		a := types.NewsArticle{
			Title:     strings.TrimSpace(item.Title),
			URL:       item.Link,
			Company:   company,
			Domain:    hostname(item.Link),
			Language:  feed.Language,
			Summary:   cleanHTML(item.Description),
			FetchedAt: fetchedAt,
		}
		if item.PublishedParsed != nil {
			seen := item.PublishedParsed.UTC()
			if seen.Before(start) || !seen.Before(end) {
				continue
			}
			a.SeenAt = &seen
		}
		if len(item.Categories) > 0 {
			a.Keywords = item.Categories
		}
		articles = append(articles, a)
	}

	logger.Debug(ctx, "RSS articles parsed", "query", q.Query, "items", len(feed.Items), "kept", len(articles))
	return articles, nil
}

func (g *GoogleRSS) buildURL(q types.NewsQuery) string {
	search := fmt.Sprintf("%s after:%s before:%s",
		quote(q.Query),
		q.Start.UTC().Format("2006-01-02"),
		q.End.UTC().AddDate(0, 0, 1).Format("2006-01-02"))

	params := url.Values{}
	params.Set("q", search)
	params.Set("hl", "en-IN")
	params.Set("gl", "IN")
	params.Set("ceid", "IN:en")
	return g.baseURL + "?" + params.Encode()
}

// cleanHTML strips markup from feed and meta descriptions
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
