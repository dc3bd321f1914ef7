package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-impact/internal/types"
)

const testCollection = "stock_news"

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.EnsureCollection(context.Background(), testCollection))
	return s
}

func sampleDoc(id, url string) types.Document {
	seen := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	return types.Document{
		DocID:           id,
		Title:           "Acme Corp beats estimates",
		URL:             url,
		Company:         "Acme Corp",
		SeenAt:          &seen,
		FetchedAt:       time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
		SentimentLabel:  types.Positive,
		SentimentScore:  0.7,
		Keywords:        []string{"earnings"},
		RelatedEntities: []string{"Acme Corp"},
		PriceBefore:     types.Float(100),
		PriceChangePct:  types.Float(10),
		ImpactScore:     0.7,
	}
}

func TestEnsureCollectionIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, s.EnsureCollection(ctx, testCollection))

	fresh, err := New(":memory:")
	require.NoError(t, err)
	defer fresh.Close()
	assert.NoError(t, fresh.EnsureCollection(ctx, "other_news"))
	assert.NoError(t, fresh.EnsureCollection(ctx, "other_news"))

	assert.ErrorIs(t, s.EnsureCollection(ctx, "bad-name; DROP"), ErrInvalidCollection)
}

func TestValidCollection(t *testing.T) {
	for name, want := range map[string]bool{
		"stock_news":       true,
		"_scratch":         true,
		"stock_event_news": true,
		"stock-news":       false,
		"news.v2":          false,
		"1news":            false,
		"":                 false,
	} {
		assert.Equal(t, want, ValidCollection(name), name)
	}
}

func TestUpsertReplacesByDocID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := sampleDoc("d1", "https://news.example/a")
	_, err := s.Upsert(ctx, testCollection, first)
	require.NoError(t, err)

	second := first
	second.SentimentLabel = types.Negative
	second.ImpactScore = 0.2
	second.PriceAfter = types.Float(90)
	_, err = s.Upsert(ctx, testCollection, second)
	require.NoError(t, err)

	n, err := s.Count(ctx, testCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get(ctx, testCollection, "d1")
	require.NoError(t, err)
	assert.Equal(t, types.Negative, got.SentimentLabel)
	assert.Equal(t, 0.2, got.ImpactScore)
	require.NotNil(t, got.PriceAfter)
	assert.Equal(t, 90.0, *got.PriceAfter)
	assert.Nil(t, got.VolumeBefore)
	assert.Equal(t, []string{"Acme Corp"}, got.RelatedEntities)
	require.NotNil(t, got.SeenAt)
	assert.True(t, got.SeenAt.Equal(*first.SeenAt))
}

func TestUpsertAssignsIDForEmptyURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := sampleDoc("", "")
	id1, err := s.Upsert(ctx, testCollection, doc)
	require.NoError(t, err)
	id2, err := s.Upsert(ctx, testCollection, doc)
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)
}

func TestBulkUpsertReportsPerItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs := []types.Document{
		sampleDoc("d1", "https://news.example/1"),
		sampleDoc("d2", "https://news.example/2"),
		sampleDoc("d3", "https://news.example/3"),
	}
	docs[1].FetchedAt = time.Time{}
	docs[2].SentimentLabel = "bullish"

	outcomes, err := s.BulkUpsert(ctx, testCollection, docs)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, ErrRejected)
	assert.ErrorIs(t, outcomes[2].Err, ErrRejected)
	assert.Equal(t, "d2", outcomes[1].DocID)

	n, err := s.Count(ctx, testCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdateField(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, testCollection, sampleDoc("d1", "https://news.example/1"))
	require.NoError(t, err)

	require.NoError(t, s.UpdateField(ctx, testCollection, "d1", "summary", "Updated summary"))
	require.NoError(t, s.UpdateField(ctx, testCollection, "d1", "keywords", []string{"a", "b"}))
	require.NoError(t, s.UpdateField(ctx, testCollection, "d1", "price_change_pct", nil))

	got, err := s.Get(ctx, testCollection, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Updated summary", got.Summary)
	assert.Equal(t, []string{"a", "b"}, got.Keywords)
	assert.Nil(t, got.PriceChangePct)

	assert.ErrorIs(t, s.UpdateField(ctx, testCollection, "d1", "doc_id", "x"), ErrUnknownField)
	assert.ErrorIs(t, s.UpdateField(ctx, testCollection, "missing", "summary", "x"), ErrNotFound)
	assert.Error(t, s.UpdateField(ctx, testCollection, "d1", "sentiment_label", "bullish"))
}

func TestFindByCompanyNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := sampleDoc("d1", "https://news.example/1")
	newer := sampleDoc("d2", "https://news.example/2")
	later := newer.SeenAt.Add(24 * time.Hour)
	newer.SeenAt = &later
	other := sampleDoc("d3", "https://news.example/3")
	other.Company = "Globex"

	for _, d := range []types.Document{older, newer, other} {
		_, err := s.Upsert(ctx, testCollection, d)
		require.NoError(t, err)
	}

	docs, err := s.FindByCompany(ctx, testCollection, "Acme Corp", 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d2", docs[0].DocID)
	assert.Equal(t, "d1", docs[1].DocID)

	limited, err := s.FindByCompany(ctx, testCollection, "Acme Corp", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), testCollection, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
