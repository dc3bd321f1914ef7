package news

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"news-impact/internal/api"
	"news-impact/internal/logger"
	"news-impact/internal/types"
)

const (
	// DefaultGDELTURL is the GDELT DOC 2.0 article search endpoint
	DefaultGDELTURL = "https://api.gdeltproject.org/api/v2/doc/doc"

	// MaxRecords is the largest page GDELT will return
	MaxRecords = 250

	seenDateLayout = "20060102T150405Z"
)

// StatusError is a non-2xx response from a news endpoint
type StatusError = api.StatusError

// GDELTConfig configures the GDELT client
type GDELTConfig struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond throttles calls against the shared endpoint
	RequestsPerSecond float64
}

// GDELT fetches article lists from the GDELT DOC API
type GDELT struct {
	baseURL string
	client  *api.Client
	now     func() time.Time
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	SeenDate      string `json:"seendate"`
	Domain        string `json:"domain"`
	Language      string `json:"language"`
	SourceCountry string `json:"sourcecountry"`
}

// NewGDELT creates a GDELT client
func NewGDELT(cfg GDELTConfig) *GDELT {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGDELTURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GDELT{
		baseURL: cfg.BaseURL,
		client: api.NewClient(
			api.WithSource("gdelt"),
			api.WithTimeout(cfg.Timeout),
			api.WithRateLimit(cfg.RequestsPerSecond),
			api.WithHeaders(api.BrowserHeaders()),
			api.WithLogging(true),
		),
		now: time.Now,
	}
}

// Name identifies the source in logs
func (g *GDELT) Name() string { return "gdelt" }

// Fetch returns the articles GDELT has for q. An empty or non-JSON body is
// treated as no articles.
func (g *GDELT) Fetch(ctx context.Context, q types.NewsQuery) ([]types.NewsArticle, error) {
	resp, err := g.client.GET(ctx, g.buildURL(q))
	if err != nil {
		return nil, err
	}
	return g.parse(ctx, q, resp.Body), nil
}

func (g *GDELT) buildURL(q types.NewsQuery) string {
	maxRecords := q.MaxRecords
	if maxRecords <= 0 || maxRecords > MaxRecords {
		maxRecords = MaxRecords
	}

	params := url.Values{}
	params.Set("query", quote(q.Query))
	params.Set("mode", "artlist")
	params.Set("maxrecords", strconv.Itoa(maxRecords))
	params.Set("startdatetime", q.Start.UTC().Format("20060102")+"000000")
	params.Set("enddatetime", q.End.UTC().Format("20060102")+"235959")
	params.Set("format", "json")

	return g.baseURL + "?" + params.Encode()
}

func (g *GDELT) parse(ctx context.Context, q types.NewsQuery, body []byte) []types.NewsArticle {
	articles := []types.NewsArticle{}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return articles
	}

	var data gdeltResponse
	if err := json.Unmarshal(body, &data); err != nil {
		// GDELT answers malformed queries with a plain-text message
		logger.Warn(ctx, "GDELT returned a non-JSON body", "query", q.Query, "body", truncate(string(body), 200))
		return articles
	}

	company := q.Company
	if company == "" {
		company = q.Query
	}
	fetchedAt := g.now().UTC()
	for _, a := range data.Articles {
		article := types.NewsArticle{
			Title:         strings.TrimSpace(a.Title),
			URL:           a.URL,
			Company:       company,
			SourceCountry: a.SourceCountry,
			Domain:        a.Domain,
			Language:      a.Language,
			FetchedAt:     fetchedAt,
		}
		if seen, err := time.Parse(seenDateLayout, a.SeenDate); err == nil {
			article.SeenAt = &seen
		} else if a.SeenDate != "" {
			logger.Debug(ctx, "Unparseable GDELT seendate", "seendate", a.SeenDate, "url", a.URL)
		}
		articles = append(articles, article)
	}

	logger.Debug(ctx, "GDELT articles parsed", "query", q.Query, "count", len(articles))
	return articles
}

func quote(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) > 1 {
		return s
	}
	return `"` + s + `"`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
