// Package history records pipeline runs in badgerhold so past runs can be
// listed from the CLI.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"news-impact/internal/logger"
)

// ErrNotFound is returned when a run id is unknown
var ErrNotFound = errors.New("run not found")

// CompanyRecord is the stored outcome for one company in a run
type CompanyRecord struct {
	Company  string
	State    string
	Articles int
	Written  int
	Failed   int
	Error    string
}

// RunRecord is one pipeline run
type RunRecord struct {
	ID                 string
	StartedAt          time.Time
	Elapsed            time.Duration
	Collection         string
	StartDate          string
	EndDate            string
	CompaniesAttempted int
	CompaniesWithData  int
	DocsWritten        int
	DocsFailed         int
	Companies          []CompanyRecord
}

// Store wraps a badgerhold store
type Store struct {
	store *badgerhold.Store
}

// Open opens (or creates) the history database under dir. An empty dir opens
// an in-memory database.
func Open(dir string) (*Store, error) {
	options := badgerhold.DefaultOptions
	options.Logger = nil
	if dir == "" {
		options.Dir = ""
		options.ValueDir = ""
		options.InMemory = true
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
		options.Dir = dir
		options.ValueDir = dir
	}

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return &Store{store: store}, nil
}

// Badger exposes the underlying database so the event cache can share it
func (s *Store) Badger() *badger.DB {
	return s.store.Badger()
}

// Record saves or replaces a run
func (s *Store) Record(ctx context.Context, r RunRecord) error {
	if r.ID == "" {
		return errors.New("run record has no id")
	}
	if err := s.store.Upsert(r.ID, r); err != nil {
		return fmt.Errorf("failed to save run %s: %w", r.ID, err)
	}
	logger.Debug(ctx, "Run recorded", "run_id", r.ID, "written", r.DocsWritten)
	return nil
}

// Get loads a single run
func (s *Store) Get(ctx context.Context, id string) (RunRecord, error) {
	var r RunRecord
	err := s.store.Get(id, &r)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return RunRecord{}, ErrNotFound
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return r, nil
}

// List returns the most recent runs first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]RunRecord, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []RunRecord
	if err := s.store.Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
