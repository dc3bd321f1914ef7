package interfaces

import (
	"context"

	"news-impact/internal/types"
)

// DocumentStore persists enriched news documents keyed by doc_id
type DocumentStore interface {
	// Ping checks that the store is reachable
	Ping(ctx context.Context) error

	// EnsureCollection creates the collection if it does not exist yet
	EnsureCollection(ctx context.Context, collection string) error

	// Upsert inserts or replaces a single document and returns its id
	Upsert(ctx context.Context, collection string, doc types.Document) (string, error)

	// BulkUpsert writes docs and reports one outcome per document, in order.
	// A non-nil error means the batch as a whole could not be submitted.
	BulkUpsert(ctx context.Context, collection string, docs []types.Document) ([]types.ItemOutcome, error)

	// UpdateField sets one schema field on an existing document
	UpdateField(ctx context.Context, collection, docID, field string, value any) error

	// Get loads a document by id
	Get(ctx context.Context, collection, docID string) (types.Document, error)

	// FindByCompany returns a company's documents, newest seen_at first
	FindByCompany(ctx context.Context, collection, company string, limit int) ([]types.Document, error)

	// Count returns the number of documents in a collection
	Count(ctx context.Context, collection string) (int, error)

	Close() error
}
