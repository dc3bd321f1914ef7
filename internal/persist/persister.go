// Package persist writes enriched articles to a document store exactly once
// per URL, batching the writes and tallying per-document outcomes.
package persist

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"news-impact/internal/interfaces"
	"news-impact/internal/logger"
	"news-impact/internal/types"
)

// DefaultBatchSize matches the bulk size used against the document store
const DefaultBatchSize = 500

// ItemError describes one document the store did not accept
type ItemError struct {
	DocID  string `json:"doc_id"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Result is the tally of a Persist call
type Result struct {
	Success int         `json:"success"`
	Failed  int         `json:"failed"`
	Errors  []ItemError `json:"errors"`
}

// Add folds another result into r
func (r *Result) Add(o Result) {
	r.Success += o.Success
	r.Failed += o.Failed
	r.Errors = append(r.Errors, o.Errors...)
}

// Config controls batching
type Config struct {
	BatchSize   int
	Concurrency int
}

// Persister assigns stable ids and upserts documents batch by batch
type Persister struct {
	store       interfaces.DocumentStore
	batchSize   int
	concurrency int

	mu      sync.Mutex
	ensured map[string]bool
}

// NewPersister creates a persister over store
func NewPersister(store interfaces.DocumentStore, cfg Config) *Persister {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Persister{
		store:       store,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		ensured:     map[string]bool{},
	}
}

// DocID is the hex md5 of the URL. An empty URL has no stable id.
func DocID(url string) string {
	if url == "" {
		return ""
	}
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Persist writes docs to collection. Batches are independent: a failed batch
// marks its own documents failed and the others still go through. The error
// is non-nil only when the collection cannot be prepared.
func (p *Persister) Persist(ctx context.Context, collection string, docs []types.EnrichedArticle) (Result, error) {
	if err := p.ensure(ctx, collection); err != nil {
		return Result{}, err
	}
	if len(docs) == 0 {
		return Result{Errors: []ItemError{}}, nil
	}

	prepared := make([]types.Document, len(docs))
	for i, d := range docs {
		prepared[i] = d.ToDocument(DocID(d.URL))
	}

	batches := chunk(prepared, p.batchSize)
	results := make([]Result, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			results[i] = p.writeBatch(gctx, collection, i, batch)
			return nil
		})
	}
	_ = g.Wait() // batch errors are folded into results, never returned

	total := Result{Errors: []ItemError{}}
	for _, r := range results {
		total.Add(r)
	}
	logger.Persisted(ctx, collection, total.Success, total.Failed, "batches", len(batches))
	return total, nil
}

func (p *Persister) ensure(ctx context.Context, collection string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ensured[collection] {
		return nil
	}
	if err := p.store.EnsureCollection(ctx, collection); err != nil {
		return fmt.Errorf("failed to ensure collection %s: %w", collection, err)
	}
	p.ensured[collection] = true
	return nil
}

func (p *Persister) writeBatch(ctx context.Context, collection string, index int, batch []types.Document) Result {
	var res Result

	outcomes, err := p.store.BulkUpsert(ctx, collection, batch)
	if err != nil {
		logger.ErrorWithErr(ctx, "Bulk write failed", err, "collection", collection, "batch", index, "size", len(batch))
		for _, d := range batch {
			res.Failed++
			res.Errors = append(res.Errors, ItemError{DocID: d.DocID, URL: d.URL, Reason: err.Error()})
		}
		return res
	}

	for i, d := range batch {
		if i >= len(outcomes) {
			res.Failed++
			res.Errors = append(res.Errors, ItemError{DocID: d.DocID, URL: d.URL, Reason: "no outcome reported by store"})
			continue
		}
		if o := outcomes[i]; o.Err != nil {
			res.Failed++
			res.Errors = append(res.Errors, ItemError{DocID: o.DocID, URL: d.URL, Reason: o.Err.Error()})
			continue
		}
		res.Success++
	}
	return res
}

func chunk(docs []types.Document, size int) [][]types.Document {
	var out [][]types.Document
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		out = append(out, docs[start:end])
	}
	return out
}
