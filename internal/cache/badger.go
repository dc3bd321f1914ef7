// Package cache keeps pre-computed event lists in badger with a TTL so that
// readers can skip the document store for recently processed companies.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"news-impact/internal/logger"
	"news-impact/internal/types"
)

// DefaultTTL applies when a caller passes a zero ttl
const DefaultTTL = time.Hour

const (
	listPrefix  = "events:"
	eventPrefix = "event:"
)

// Badger is an EventCache backed by a badger database. The database may be
// shared with other stores; only keys under the cache prefixes are touched.
type Badger struct {
	db  *badger.DB
	ttl time.Duration
}

// New creates a cache over db. A non-positive ttl falls back to DefaultTTL.
func New(db *badger.DB, ttl time.Duration) *Badger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Badger{db: db, ttl: ttl}
}

// TTL returns the default expiry
func (c *Badger) TTL() time.Duration { return c.ttl }

func listKey(company string) []byte {
	return []byte(listPrefix + company)
}

func eventKey(company string, ts int64) []byte {
	return []byte(eventPrefix + company + ":" + strconv.FormatInt(ts, 10))
}

// EventTimestamp is the unix second an event is keyed under
func EventTimestamp(e types.EnrichedArticle) int64 {
	if e.SeenAt == nil {
		return 0
	}
	return e.SeenAt.Unix()
}

func (c *Badger) expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return c.ttl
	}
	return ttl
}

// SetEvents stores the full list for company
func (c *Badger) SetEvents(ctx context.Context, company string, events []types.EnrichedArticle, ttl time.Duration) error {
	if events == nil {
		events = []types.EnrichedArticle{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(listKey(company), data).WithTTL(c.expiry(ttl)))
	})
	if err != nil {
		return fmt.Errorf("failed to cache events for %s: %w", company, err)
	}
	logger.Debug(ctx, "Cached events", "company", company, "count", len(events))
	return nil
}

// GetEvents returns the cached list. found is false on a miss or expiry.
func (c *Badger) GetEvents(ctx context.Context, company string) ([]types.EnrichedArticle, bool, error) {
	var events []types.EnrichedArticle
	found, err := c.get(listKey(company), &events)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read events for %s: %w", company, err)
	}
	return events, found, nil
}

// SetEvent stores one event under its seen_at second
func (c *Badger) SetEvent(ctx context.Context, company string, event types.EnrichedArticle, ttl time.Duration) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	key := eventKey(company, EventTimestamp(event))
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, data).WithTTL(c.expiry(ttl)))
	})
	if err != nil {
		return fmt.Errorf("failed to cache event %s: %w", key, err)
	}
	return nil
}

// GetEvent reads a single event
func (c *Badger) GetEvent(ctx context.Context, company string, ts int64) (types.EnrichedArticle, bool, error) {
	var event types.EnrichedArticle
	found, err := c.get(eventKey(company, ts), &event)
	if err != nil {
		return types.EnrichedArticle{}, false, fmt.Errorf("failed to read event: %w", err)
	}
	return event, found, nil
}

func (c *Badger) get(key []byte, out any) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Invalidate removes cached data for company, or every cache key when
// company is empty. It returns the number of keys removed.
func (c *Badger) Invalidate(ctx context.Context, company string) (int, error) {
	var prefixes []string
	if company == "" {
		prefixes = []string{listPrefix, eventPrefix}
	} else {
		prefixes = []string{listPrefix + company, eventPrefix + company + ":"}
	}

	var keys [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		for _, p := range prefixes {
			found, err := scanKeys(txn, []byte(p))
			if err != nil {
				return err
			}
			for _, k := range found {
				// "events:Acme" must not match "events:Acme Corp"
				if company != "" && p == listPrefix+company && string(k) != p {
					continue
				}
				keys = append(keys, k)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush cache deletes: %w", err)
	}

	logger.Info(ctx, "Cache invalidated", "company", company, "keys", len(keys))
	return len(keys), nil
}

// Stats counts live cache keys by kind
func (c *Badger) Stats(ctx context.Context) (types.CacheStats, error) {
	var stats types.CacheStats
	err := c.db.View(func(txn *badger.Txn) error {
		lists, err := scanKeys(txn, []byte(listPrefix))
		if err != nil {
			return err
		}
		events, err := scanKeys(txn, []byte(eventPrefix))
		if err != nil {
			return err
		}
		stats.ListKeys = len(lists)
		stats.EventKeys = len(events)
		stats.TotalKeys = stats.ListKeys + stats.EventKeys
		return nil
	})
	if err != nil {
		return types.CacheStats{}, fmt.Errorf("failed to collect cache stats: %w", err)
	}
	return stats, nil
}

func scanKeys(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}
