package docstoreobs

import (
	"context"

	"news-impact/internal/interfaces"
	"news-impact/internal/logger"
	"news-impact/internal/trace"
	"news-impact/internal/types"
)

// observableStore wraps a DocumentStore with logging and tracing on the
// write and lookup paths. Ping, Count and Close pass straight through.
type observableStore struct {
	interfaces.DocumentStore
}

var _ interfaces.DocumentStore = (*observableStore)(nil)

// Wrap wraps a document store with observability middleware
func Wrap(store interfaces.DocumentStore) interfaces.DocumentStore {
	return &observableStore{DocumentStore: store}
}

func (o *observableStore) EnsureCollection(ctx context.Context, collection string) error {
	ctx, span := trace.StartSpan(ctx, "docstore.EnsureCollection")
	defer span.End()

	if err := o.DocumentStore.EnsureCollection(ctx, collection); err != nil {
		trace.Fail(span, err)
		logger.ErrorWithErr(ctx, "Failed to ensure collection", err, "collection", collection)
		return err
	}
	return nil
}

func (o *observableStore) BulkUpsert(ctx context.Context, collection string, docs []types.Document) ([]types.ItemOutcome, error) {
	ctx, span := trace.StartSpan(ctx, "docstore.BulkUpsert")
	defer span.End()

	timer := logger.StartOperation(ctx, "docstore.bulk_upsert",
		"collection", collection,
		"size", len(docs),
	)

	outcomes, err := o.DocumentStore.BulkUpsert(timer.GetContext(), collection, docs)
	if err != nil {
		trace.Fail(span, err)
		timer.EndWithError(err)
		return nil, err
	}

	failed := 0
	for _, oc := range outcomes {
		if oc.Err != nil {
			failed++
		}
	}
	trace.SetInt(span, "failed", failed)
	timer.End("failed", failed)
	return outcomes, nil
}

func (o *observableStore) FindByCompany(ctx context.Context, collection, company string, limit int) ([]types.Document, error) {
	ctx, span := trace.StartSpan(ctx, "docstore.FindByCompany")
	defer span.End()

	docs, err := o.DocumentStore.FindByCompany(ctx, collection, company, limit)
	if err != nil {
		trace.Fail(span, err)
		logger.ErrorWithErr(ctx, "Document lookup failed", err, "collection", collection, "company", company)
		return nil, err
	}
	trace.SetInt(span, "documents", len(docs))
	return docs, nil
}
