package interfaces

import (
	"context"
	"time"

	"news-impact/internal/types"
)

// EventCache is a TTL keyed store for pre-computed event lists
type EventCache interface {
	SetEvents(ctx context.Context, company string, events []types.EnrichedArticle, ttl time.Duration) error
	GetEvents(ctx context.Context, company string) ([]types.EnrichedArticle, bool, error)
	SetEvent(ctx context.Context, company string, event types.EnrichedArticle, ttl time.Duration) error
	GetEvent(ctx context.Context, company string, ts int64) (types.EnrichedArticle, bool, error)

	// Invalidate drops a company's list and per-event keys; an empty
	// company clears every company
	Invalidate(ctx context.Context, company string) (int, error)

	Stats(ctx context.Context) (types.CacheStats, error)
}
