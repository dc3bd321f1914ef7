package persist

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-impact/internal/docstore"
	"news-impact/internal/types"
)

const collection = "stock_news"

// flakyStore accepts everything except the doc ids listed in reject
type flakyStore struct {
	reject    map[string]bool
	failBulk  bool
	ensured   int
	bulkCalls int
	stored    map[string]types.Document
}

func newFlakyStore() *flakyStore {
	return &flakyStore{reject: map[string]bool{}, stored: map[string]types.Document{}}
}

func (f *flakyStore) Ping(context.Context) error { return nil }
func (f *flakyStore) EnsureCollection(context.Context, string) error {
	f.ensured++
	return nil
}
func (f *flakyStore) Upsert(_ context.Context, _ string, d types.Document) (string, error) {
	f.stored[d.DocID] = d
	return d.DocID, nil
}
func (f *flakyStore) BulkUpsert(_ context.Context, _ string, docs []types.Document) ([]types.ItemOutcome, error) {
	f.bulkCalls++
	if f.failBulk {
		return nil, errors.New("connection reset")
	}
	out := make([]types.ItemOutcome, len(docs))
	for i, d := range docs {
		out[i] = types.ItemOutcome{DocID: d.DocID, URL: d.URL}
		if f.reject[d.DocID] {
			out[i].Err = fmt.Errorf("mapper_parsing_exception")
			continue
		}
		f.stored[d.DocID] = d
	}
	return out, nil
}
func (f *flakyStore) UpdateField(context.Context, string, string, string, any) error { return nil }
func (f *flakyStore) Get(_ context.Context, _ string, id string) (types.Document, error) {
	return f.stored[id], nil
}
func (f *flakyStore) FindByCompany(context.Context, string, string, int) ([]types.Document, error) {
	return nil, nil
}
func (f *flakyStore) Count(context.Context, string) (int, error) { return len(f.stored), nil }
func (f *flakyStore) Close() error                               { return nil }

func articles(n int) []types.EnrichedArticle {
	seen := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	out := make([]types.EnrichedArticle, n)
	for i := range out {
		out[i] = types.EnrichedArticle{
			NewsArticle: types.NewsArticle{
				Title:     fmt.Sprintf("story %d", i),
				URL:       fmt.Sprintf("https://news.example/%d", i),
				Company:   "Acme Corp",
				SeenAt:    &seen,
				FetchedAt: seen.Add(time.Hour),
			},
			Sentiment: types.SentimentResult{Label: types.Neutral, Confidence: 0.5},
		}
	}
	return out
}

func TestDocIDIsStable(t *testing.T) {
	assert.Equal(t, DocID("https://a.example/x"), DocID("https://a.example/x"))
	assert.NotEqual(t, DocID("https://a.example/x"), DocID("https://a.example/y"))
	assert.Len(t, DocID("https://a.example/x"), 32)
	// md5("") is never used as an id
	assert.Empty(t, DocID(""))
}

func TestPersistTwiceIsIdempotent(t *testing.T) {
	store, err := docstore.New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	p := NewPersister(store, Config{})
	ctx := context.Background()
	docs := articles(5)

	first, err := p.Persist(ctx, collection, docs)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Success)

	second, err := p.Persist(ctx, collection, docs)
	require.NoError(t, err)
	assert.Equal(t, 5, second.Success)
	assert.Equal(t, 0, second.Failed)

	n, err := store.Count(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestPersistLastWriteWins(t *testing.T) {
	store, err := docstore.New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	p := NewPersister(store, Config{})
	ctx := context.Background()

	docs := articles(3)
	_, err = p.Persist(ctx, collection, docs)
	require.NoError(t, err)

	docs[1].Title = "story 1 (updated)"
	docs[1].Sentiment = types.SentimentResult{Label: types.Negative, Confidence: 0.9}
	docs[1].ImpactScore = 1.8
	docs[1].Metrics.PriceChangePct = types.Float(-20)
	_, err = p.Persist(ctx, collection, docs)
	require.NoError(t, err)

	n, err := store.Count(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := store.Get(ctx, collection, DocID(docs[1].URL))
	require.NoError(t, err)
	assert.Equal(t, "story 1 (updated)", got.Title)
	assert.Equal(t, types.Negative, got.SentimentLabel)
	assert.InDelta(t, 0.9, got.SentimentScore, 1e-9)
	assert.InDelta(t, 1.8, got.ImpactScore, 1e-9)
	require.NotNil(t, got.PriceChangePct)
	assert.InDelta(t, -20.0, *got.PriceChangePct, 1e-9)

	untouched, err := store.Get(ctx, collection, DocID(docs[0].URL))
	require.NoError(t, err)
	assert.Equal(t, types.Neutral, untouched.SentimentLabel)
}

func TestPersistPartialFailure(t *testing.T) {
	store := newFlakyStore()
	docs := articles(10)
	store.reject[DocID(docs[3].URL)] = true
	store.reject[DocID(docs[7].URL)] = true

	p := NewPersister(store, Config{BatchSize: 4})
	res, err := p.Persist(context.Background(), collection, docs)
	require.NoError(t, err)

	assert.Equal(t, 8, res.Success)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, docs[3].URL, res.Errors[0].URL)
	assert.Equal(t, "mapper_parsing_exception", res.Errors[0].Reason)
	assert.Equal(t, 3, store.bulkCalls)
}

func TestPersistBatchErrorFailsWholeBatch(t *testing.T) {
	store := newFlakyStore()
	store.failBulk = true

	p := NewPersister(store, Config{BatchSize: 2})
	res, err := p.Persist(context.Background(), collection, articles(3))
	require.NoError(t, err)

	assert.Equal(t, 0, res.Success)
	assert.Equal(t, 3, res.Failed)
	for _, e := range res.Errors {
		assert.Contains(t, e.Reason, "connection reset")
	}
}

func TestPersistEnsuresCollectionOnce(t *testing.T) {
	store := newFlakyStore()
	p := NewPersister(store, Config{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := p.Persist(ctx, collection, articles(1))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.ensured)

	res, err := p.Persist(ctx, collection, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Success+res.Failed)
	assert.NotNil(t, res.Errors)
}
