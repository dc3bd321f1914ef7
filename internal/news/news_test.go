package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"news-impact/internal/types"
)

func testQuery() types.NewsQuery {
	return types.NewsQuery{
		Query:      "Acme Corp",
		Company:    "Acme Corp",
		Start:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		MaxRecords: 100,
	}
}

func TestGDELTFetch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		fmt.Fprint(w, `{"articles":[
			{"url":"https://a.example/1","title":" Acme beats ","seendate":"20250110T120000Z","domain":"a.example","language":"English","sourcecountry":"India"},
			{"url":"https://a.example/2","title":"Acme misses","seendate":"garbage","domain":"a.example"}
		]}`)
	}))
	defer srv.Close()

	g := NewGDELT(GDELTConfig{BaseURL: srv.URL})
	articles, err := g.Fetch(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if gotQuery["query"] != `"Acme Corp"` {
		t.Errorf("Expected quoted query, got %q", gotQuery["query"])
	}
	if gotQuery["startdatetime"] != "20250101000000" || gotQuery["enddatetime"] != "20250131235959" {
		t.Errorf("Unexpected date range %s..%s", gotQuery["startdatetime"], gotQuery["enddatetime"])
	}
	if gotQuery["mode"] != "artlist" || gotQuery["format"] != "json" || gotQuery["maxrecords"] != "100" {
		t.Errorf("Unexpected params %v", gotQuery)
	}

	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}
	first := articles[0]
	if first.Title != "Acme beats" || first.Company != "Acme Corp" || first.SourceCountry != "India" {
		t.Errorf("Unexpected first article %+v", first)
	}
	if first.SeenAt == nil || !first.SeenAt.Equal(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected seen_at 2025-01-10T12:00Z, got %v", first.SeenAt)
	}
	if first.FetchedAt.IsZero() {
		t.Error("Expected fetched_at to be set")
	}
	if articles[1].SeenAt != nil {
		t.Errorf("Expected nil seen_at for bad seendate, got %v", articles[1].SeenAt)
	}
}

func TestGDELTClampsMaxRecords(t *testing.T) {
	g := NewGDELT(GDELTConfig{BaseURL: "http://gdelt.test"})
	q := testQuery()
	q.MaxRecords = 1000
	if u := g.buildURL(q); !strings.Contains(u, "maxrecords=250") {
		t.Errorf("Expected maxrecords clamped to 250, got %s", u)
	}
}

func TestGDELTEmptyAndNonJSONBodies(t *testing.T) {
	for name, body := range map[string]string{
		"empty":      "",
		"whitespace": "  \n",
		"text":       "The specified phrase is too short.",
		"no field":   `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))
			defer srv.Close()

			articles, err := NewGDELT(GDELTConfig{BaseURL: srv.URL}).Fetch(context.Background(), testQuery())
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if articles == nil || len(articles) != 0 {
				t.Errorf("Expected empty list, got %v", articles)
			}
		})
	}
}

func TestGDELTStatusErrors(t *testing.T) {
	cases := []struct {
		code      int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.code)
		}))

		_, err := NewGDELT(GDELTConfig{BaseURL: srv.URL}).Fetch(context.Background(), testQuery())
		srv.Close()

		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("Expected StatusError for %d, got %v", tc.code, err)
		}
		if se.Retryable() != tc.retryable {
			t.Errorf("Expected retryable=%v for %d", tc.retryable, tc.code)
		}
	}
}

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Acme</title><language>en-IN</language>
<item><title>Acme surges</title><link>https://b.example/x</link>
<description>&lt;a href="https://b.example/x"&gt;Acme surges&lt;/a&gt;&amp;nbsp; on results</description>
<pubDate>Fri, 10 Jan 2025 08:00:00 GMT</pubDate></item>
<item><title>Old Acme story</title><link>https://b.example/old</link>
<pubDate>Mon, 02 Dec 2024 08:00:00 GMT</pubDate></item>
</channel></rss>`

func TestGoogleRSSFetch(t *testing.T) {
	var gotQ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFeed)
	}))
	defer srv.Close()

	articles, err := NewGoogleRSS(srv.URL, time.Second).Fetch(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(gotQ, "after:2025-01-01") || !strings.Contains(gotQ, "before:2025-02-01") {
		t.Errorf("Unexpected search %q", gotQ)
	}
	if len(articles) != 1 {
		t.Fatalf("Expected 1 in-range article, got %d", len(articles))
	}
	a := articles[0]
	if a.Domain != "b.example" || a.Company != "Acme Corp" {
		t.Errorf("Unexpected article %+v", a)
	}
	if strings.Contains(a.Summary, "<a") {
		t.Errorf("Expected markup stripped, got %q", a.Summary)
	}
}

func TestGoogleRSSStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewGoogleRSS(srv.URL, time.Second).Fetch(context.Background(), testQuery())
	var se *StatusError
	if !errors.As(err, &se) || !se.Retryable() {
		t.Errorf("Expected retryable StatusError, got %v", err)
	}
}

func TestMetaFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head>
			<meta property="og:description" content="OG text">
			<meta name="description" content="Acme posts   record profit">
			<meta name="keywords" content="acme, earnings, Acme">
		</head><body></body></html>`)
	}))
	defer srv.Close()

	meta, err := NewMetaFetcher(time.Second).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if meta.Summary != "Acme posts record profit" {
		t.Errorf("Expected description, got %q", meta.Summary)
	}
	if len(meta.Keywords) != 2 || meta.Keywords[0] != "acme" || meta.Keywords[1] != "earnings" {
		t.Errorf("Expected [acme earnings], got %v", meta.Keywords)
	}
}

type stubSource struct {
	name     string
	articles []types.NewsArticle
	err      error
	calls    int
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Fetch(context.Context, types.NewsQuery) ([]types.NewsArticle, error) {
	s.calls++
	return s.articles, s.err
}

func TestServiceFallsBackOnEmpty(t *testing.T) {
	primary := &stubSource{name: "p", articles: []types.NewsArticle{}}
	fallback := &stubSource{name: "f", articles: []types.NewsArticle{{Title: "from rss"}}}

	got, err := NewService(primary, fallback, nil, ServiceConfig{}).Fetch(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "from rss" {
		t.Errorf("Expected fallback article, got %v", got)
	}
}

func TestServiceSkipsFallbackWhenPrimaryHasData(t *testing.T) {
	primary := &stubSource{name: "p", articles: []types.NewsArticle{{Title: "gdelt"}}}
	fallback := &stubSource{name: "f"}

	if _, err := NewService(primary, fallback, nil, ServiceConfig{}).Fetch(context.Background(), testQuery()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fallback.calls != 0 {
		t.Errorf("Expected fallback unused, got %d calls", fallback.calls)
	}
}

func TestServiceKeepsPrimaryErrorWhenFallbackEmpty(t *testing.T) {
	primaryErr := &StatusError{Source: "gdelt", Code: 503}
	primary := &stubSource{name: "p", err: primaryErr}
	fallback := &stubSource{name: "f", articles: []types.NewsArticle{}}

	_, err := NewService(primary, fallback, nil, ServiceConfig{}).Fetch(context.Background(), testQuery())
	if !errors.Is(err, primaryErr) {
		t.Errorf("Expected primary error, got %v", err)
	}
}

func TestServiceFillsSummaryFromMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta name="description" content="Page summary"></head></html>`)
	}))
	defer srv.Close()

	primary := &stubSource{name: "p", articles: []types.NewsArticle{
		{Title: "a", URL: srv.URL + "/a"},
		{Title: "b", URL: srv.URL + "/b"},
	}}
	svc := NewService(primary, nil, NewMetaFetcher(time.Second), ServiceConfig{MetaLimit: 1})

	got, err := svc.Fetch(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got[0].Summary != "Page summary" {
		t.Errorf("Expected summary from meta, got %q", got[0].Summary)
	}
	if got[1].Summary != "" {
		t.Errorf("Expected meta limit to stop second visit, got %q", got[1].Summary)
	}
}
