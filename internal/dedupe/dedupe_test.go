package dedupe

import (
	"testing"

	"news-impact/internal/types"
)

func TestArticlesFirstSeenWins(t *testing.T) {
	in := []types.NewsArticle{
		{Title: "A", URL: "u1"},
		{Title: "B", URL: "u2"},
		{Title: "C", URL: "u1"},
	}

	got := Articles(in)
	if len(got) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(got))
	}
	if got[0].Title != "A" || got[1].Title != "B" {
		t.Errorf("Expected [A B], got [%s %s]", got[0].Title, got[1].Title)
	}
}

func TestEnrichedKeepsEmptyURLs(t *testing.T) {
	in := []types.EnrichedArticle{
		{NewsArticle: types.NewsArticle{Title: "x"}},
		{NewsArticle: types.NewsArticle{Title: "y"}},
		{NewsArticle: types.NewsArticle{Title: "z", URL: "u"}, ImpactScore: 1},
		{NewsArticle: types.NewsArticle{Title: "z2", URL: "u"}, ImpactScore: 2},
	}

	got := Enriched(in)
	if len(got) != 3 {
		t.Fatalf("Expected 3 articles, got %d", len(got))
	}
	if got[2].ImpactScore != 1 {
		t.Errorf("Expected first duplicate to win, got impact %v", got[2].ImpactScore)
	}
}

func TestByURLEmpty(t *testing.T) {
	got := ByURL([]string(nil), func(s string) string { return s })
	if got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", got)
	}
}
