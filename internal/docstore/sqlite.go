// Package docstore provides the SQLite-backed document store for enriched news.
// Each collection is a table keyed by doc_id; writes are upserts.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"news-impact/internal/types"
)

var (
	// ErrNotFound is returned when a document id does not exist
	ErrNotFound = errors.New("document not found")
	// ErrInvalidCollection is returned for names that are not plain identifiers
	ErrInvalidCollection = errors.New("invalid collection name")
	// ErrRejected wraps per-document validation failures
	ErrRejected = errors.New("document rejected")
	// ErrUnknownField is returned by UpdateField for non-schema fields
	ErrUnknownField = errors.New("unknown document field")
)

var collectionRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// columns in insert/select order
var columns = []string{
	"doc_id", "title", "url", "company", "seen_at", "source_country", "domain",
	"language", "fetched_at", "sentiment_label", "sentiment_score", "summary",
	"keywords", "related_entities", "price_before", "price_after",
	"price_change_pct", "volume_before", "volume_after", "volatility_change",
	"impact_score",
}

// updatable maps field names accepted by UpdateField to their column kind
var updatable = map[string]string{
	"title": "text", "company": "text", "source_country": "text", "domain": "text",
	"language": "text", "summary": "text", "sentiment_label": "label",
	"seen_at": "time", "fetched_at": "time",
	"keywords": "list", "related_entities": "list",
	"sentiment_score": "real", "price_before": "real", "price_after": "real",
	"price_change_pct": "real", "volume_before": "real", "volume_after": "real",
	"volatility_change": "real", "impact_score": "real",
}

// SQLite stores documents in a single SQLite database
type SQLite struct {
	db    *sql.DB
	mu    sync.Mutex
	ready map[string]bool
}

// New opens or creates the database at path. ":memory:" keeps it in memory.
func New(path string) (*SQLite, error) {
	if path == "" {
		path = filepath.Join("data", "news.db")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; also keeps :memory: on one connection
	if path != ":memory:" {
		if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set WAL mode: %w", err)
		}
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &SQLite{db: db, ready: map[string]bool{}}, nil
}

// Close closes the underlying database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping verifies the database is usable
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("document store unreachable: %w", err)
	}
	return nil
}

// EnsureCollection creates the collection table and its indexes if absent
func (s *SQLite) EnsureCollection(ctx context.Context, collection string) error {
	if !ValidCollection(collection) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready[collection] {
		return nil
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			doc_id            TEXT PRIMARY KEY,
			title             TEXT,
			url               TEXT NOT NULL,
			company           TEXT,
			seen_at           INTEGER,
			source_country    TEXT,
			domain            TEXT,
			language          TEXT,
			fetched_at        INTEGER NOT NULL,
			sentiment_label   TEXT CHECK (sentiment_label IN ('positive', 'negative', 'neutral')),
			sentiment_score   REAL,
			summary           TEXT,
			keywords          TEXT NOT NULL DEFAULT '[]',
			related_entities  TEXT NOT NULL DEFAULT '[]',
			price_before      REAL,
			price_after       REAL,
			price_change_pct  REAL,
			volume_before     REAL,
			volume_after      REAL,
			volatility_change REAL,
			impact_score      REAL NOT NULL DEFAULT 0
		)`, collection),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_company_seen ON %s(company, seen_at DESC)`, collection, collection),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_impact ON %s(impact_score DESC)`, collection, collection),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", collection, err)
		}
	}
	s.ready[collection] = true
	return nil
}

// ValidCollection reports whether name can be used as a collection: a
// letter or underscore followed by up to 62 letters, digits or underscores.
func ValidCollection(name string) bool {
	return collectionRe.MatchString(name)
}

func (s *SQLite) checkCollection(collection string) error {
	if !ValidCollection(collection) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	return nil
}

func upsertSQL(collection string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	sets := make([]string, 0, len(columns)-1)
	for _, c := range columns[1:] {
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
		ON CONFLICT(doc_id) DO UPDATE SET %s`,
		collection, strings.Join(columns, ", "), placeholders, strings.Join(sets, ", "))
}

// validate rejects documents that violate the schema's not-null and enum rules.
// An empty url is allowed; such documents simply carry a generated id.
func validate(doc types.Document) error {
	if doc.FetchedAt.IsZero() {
		return fmt.Errorf("%w: fetched_at is required", ErrRejected)
	}
	if doc.SentimentLabel != "" && !doc.SentimentLabel.Valid() {
		return fmt.Errorf("%w: invalid sentiment_label %q", ErrRejected, doc.SentimentLabel)
	}
	return nil
}

func args(doc types.Document) ([]any, error) {
	keywords, err := encodeList(doc.Keywords)
	if err != nil {
		return nil, err
	}
	ents, err := encodeList(doc.RelatedEntities)
	if err != nil {
		return nil, err
	}
	var label any
	if doc.SentimentLabel != "" {
		label = string(doc.SentimentLabel)
	}
	return []any{
		doc.DocID, doc.Title, doc.URL, doc.Company, nullTime(doc.SeenAt),
		doc.SourceCountry, doc.Domain, doc.Language, doc.FetchedAt.UTC().UnixNano(),
		label, doc.SentimentScore, doc.Summary, keywords, ents,
		nullFloat(doc.PriceBefore), nullFloat(doc.PriceAfter), nullFloat(doc.PriceChangePct),
		nullFloat(doc.VolumeBefore), nullFloat(doc.VolumeAfter), nullFloat(doc.VolatilityChange),
		doc.ImpactScore,
	}, nil
}

// Upsert inserts or replaces one document. An empty DocID gets a generated id.
func (s *SQLite) Upsert(ctx context.Context, collection string, doc types.Document) (string, error) {
	if err := s.checkCollection(collection); err != nil {
		return "", err
	}
	if err := validate(doc); err != nil {
		return "", err
	}
	if doc.DocID == "" {
		doc.DocID = uuid.NewString()
	}
	a, err := args(doc)
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx, upsertSQL(collection), a...); err != nil {
		return "", fmt.Errorf("failed to upsert document %s: %w", doc.DocID, err)
	}
	return doc.DocID, nil
}

// BulkUpsert writes docs in one transaction. Invalid documents and documents
// the database refuses are reported individually; the rest are committed.
func (s *SQLite) BulkUpsert(ctx context.Context, collection string, docs []types.Document) ([]types.ItemOutcome, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	outcomes := make([]types.ItemOutcome, len(docs))
	for i, doc := range docs {
		if doc.DocID == "" {
			doc.DocID = uuid.NewString()
		}
		outcomes[i] = types.ItemOutcome{DocID: doc.DocID, URL: doc.URL}

		if err := validate(doc); err != nil {
			outcomes[i].Err = err
			continue
		}
		a, err := args(doc)
		if err != nil {
			outcomes[i].Err = fmt.Errorf("%w: %v", ErrRejected, err)
			continue
		}
		if _, err := stmt.ExecContext(ctx, a...); err != nil {
			outcomes[i].Err = fmt.Errorf("%w: %v", ErrRejected, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return outcomes, nil
}

// UpdateField sets a single schema field on an existing document
func (s *SQLite) UpdateField(ctx context.Context, collection, docID, field string, value any) error {
	if err := s.checkCollection(collection); err != nil {
		return err
	}
	kind, ok := updatable[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	v, err := convertValue(kind, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", field, err)
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET %s = ? WHERE doc_id = ?`, collection, field), v, docID)
	if err != nil {
		return fmt.Errorf("failed to update %s on %s: %w", field, docID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, docID)
	}
	return nil
}

func convertValue(kind string, value any) (any, error) {
	if value == nil {
		if kind == "real" || kind == "time" || kind == "text" {
			return nil, nil
		}
		return nil, errors.New("value cannot be nil")
	}
	switch kind {
	case "text":
		v, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return v, nil
	case "label":
		var l types.Label
		switch v := value.(type) {
		case string:
			l = types.Label(v)
		case types.Label:
			l = v
		default:
			return nil, fmt.Errorf("expected label, got %T", value)
		}
		if !l.Valid() {
			return nil, fmt.Errorf("invalid sentiment label %q", l)
		}
		return string(l), nil
	case "real":
		switch v := value.(type) {
		case float64:
			return v, nil
		case *float64:
			return nullFloat(v), nil
		case int:
			return float64(v), nil
		default:
			return nil, fmt.Errorf("expected number, got %T", value)
		}
	case "time":
		switch v := value.(type) {
		case time.Time:
			return v.UTC().UnixNano(), nil
		case *time.Time:
			return nullTime(v), nil
		default:
			return nil, fmt.Errorf("expected time, got %T", value)
		}
	case "list":
		v, ok := value.([]string)
		if !ok {
			return nil, fmt.Errorf("expected []string, got %T", value)
		}
		return encodeList(v)
	}
	return nil, fmt.Errorf("unsupported kind %s", kind)
}

const selectColumns = `doc_id, title, url, company, seen_at, source_country, domain,
	language, fetched_at, sentiment_label, sentiment_score, summary, keywords,
	related_entities, price_before, price_after, price_change_pct, volume_before,
	volume_after, volatility_change, impact_score`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (types.Document, error) {
	var (
		doc                                   types.Document
		title, company, country, domain, lang sql.NullString
		label, summary                        sql.NullString
		keywords, ents                        string
		seenAt                                sql.NullInt64
		fetchedAt                             int64
		score                                 sql.NullFloat64
		pb, pa, pct, vb, va, vol              sql.NullFloat64
	)
	if err := row.Scan(&doc.DocID, &title, &doc.URL, &company, &seenAt, &country, &domain,
		&lang, &fetchedAt, &label, &score, &summary, &keywords, &ents,
		&pb, &pa, &pct, &vb, &va, &vol, &doc.ImpactScore); err != nil {
		return types.Document{}, err
	}

	doc.Title = title.String
	doc.Company = company.String
	doc.SourceCountry = country.String
	doc.Domain = domain.String
	doc.Language = lang.String
	doc.Summary = summary.String
	doc.SentimentLabel = types.Label(label.String)
	doc.SentimentScore = score.Float64
	if seenAt.Valid {
		t := time.Unix(0, seenAt.Int64).UTC()
		doc.SeenAt = &t
	}
	doc.FetchedAt = time.Unix(0, fetchedAt).UTC()
	doc.PriceBefore = floatPtr(pb)
	doc.PriceAfter = floatPtr(pa)
	doc.PriceChangePct = floatPtr(pct)
	doc.VolumeBefore = floatPtr(vb)
	doc.VolumeAfter = floatPtr(va)
	doc.VolatilityChange = floatPtr(vol)

	var err error
	if doc.Keywords, err = decodeList(keywords); err != nil {
		return types.Document{}, err
	}
	if doc.RelatedEntities, err = decodeList(ents); err != nil {
		return types.Document{}, err
	}
	return doc, nil
}

// Get loads one document by id
func (s *SQLite) Get(ctx context.Context, collection, docID string) (types.Document, error) {
	if err := s.checkCollection(collection); err != nil {
		return types.Document{}, err
	}
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE doc_id = ?`, selectColumns, collection), docID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Document{}, fmt.Errorf("%w: %s", ErrNotFound, docID)
	}
	if err != nil {
		return types.Document{}, fmt.Errorf("failed to load document %s: %w", docID, err)
	}
	return doc, nil
}

// FindByCompany returns up to limit documents for company, newest first.
// A non-positive limit returns all of them.
func (s *SQLite) FindByCompany(ctx context.Context, collection, company string, limit int) ([]types.Document, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE company = ? ORDER BY seen_at DESC, doc_id LIMIT ?`, selectColumns, collection),
		company, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count returns the number of documents in collection
func (s *SQLite) Count(ctx context.Context, collection string) (int, error) {
	if err := s.checkCollection(collection); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, collection)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().UnixNano()
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(s string) ([]string, error) {
	out := []string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("failed to decode list column: %w", err)
	}
	return out, nil
}
