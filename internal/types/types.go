package types

import (
	"sort"
	"time"
)

// PricePoint is a single OHLCV bar
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// PriceSeries is an ordered, timestamp-unique run of bars for one ticker.
// An empty series means no data is available.
type PriceSeries struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// NewPriceSeries normalizes points to UTC, sorts them by time and drops
// later bars that repeat an earlier timestamp.
func NewPriceSeries(ticker string, points []PricePoint) PriceSeries {
	out := make([]PricePoint, 0, len(points))
	for _, p := range points {
		p.Timestamp = p.Timestamp.UTC()
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	uniq := out[:0]
	for i, p := range out {
		if i > 0 && p.Timestamp.Equal(uniq[len(uniq)-1].Timestamp) {
			continue
		}
		uniq = append(uniq, p)
	}
	return PriceSeries{Ticker: ticker, Points: uniq}
}

// Empty reports whether the series carries no bars
func (s *PriceSeries) Empty() bool {
	return s == nil || len(s.Points) == 0
}

// NewsArticle is an article as returned by a news source. URL is its identity.
type NewsArticle struct {
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Company       string     `json:"company"`
	SourceCountry string     `json:"source_country"`
	Domain        string     `json:"domain"`
	Language      string     `json:"language"`
	SeenAt        *time.Time `json:"seen_at,omitempty"`
	FetchedAt     time.Time  `json:"fetched_at"`
	Summary       string     `json:"summary,omitempty"`
	Keywords      []string   `json:"keywords,omitempty"`
}

// Label is a sentiment class
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Valid reports whether l is one of the three known labels
func (l Label) Valid() bool {
	switch l {
	case Positive, Negative, Neutral:
		return true
	}
	return false
}

// SentimentResult is the output of a sentiment provider
type SentimentResult struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Signed returns the confidence with a direction: +conf, -conf or 0.
func (s SentimentResult) Signed() float64 {
	switch s.Label {
	case Positive:
		return s.Confidence
	case Negative:
		return -s.Confidence
	default:
		return 0
	}
}

// EventWindowMetrics holds before/after statistics around an event.
// A nil field means the value could not be computed.
type EventWindowMetrics struct {
	PriceBefore      *float64 `json:"price_before"`
	PriceAfter       *float64 `json:"price_after"`
	PriceChangePct   *float64 `json:"price_change_pct"`
	VolumeBefore     *float64 `json:"volume_before"`
	VolumeAfter      *float64 `json:"volume_after"`
	VolatilityChange *float64 `json:"volatility_change"`
}

// AllNull reports whether no metric was computed
func (m EventWindowMetrics) AllNull() bool {
	return m.PriceBefore == nil && m.PriceAfter == nil && m.PriceChangePct == nil &&
		m.VolumeBefore == nil && m.VolumeAfter == nil && m.VolatilityChange == nil
}

// EnrichedArticle is a NewsArticle with sentiment, window metrics and impact
type EnrichedArticle struct {
	NewsArticle
	Sentiment       SentimentResult    `json:"sentiment"`
	Metrics         EventWindowMetrics `json:"metrics"`
	ImpactScore     float64            `json:"impact_score"`
	RelatedEntities []string           `json:"related_entities"`
}

// Document is the logical schema written to the document store
type Document struct {
	DocID            string     `json:"doc_id"`
	Title            string     `json:"title"`
	URL              string     `json:"url"`
	Company          string     `json:"company"`
	SeenAt           *time.Time `json:"seen_at"`
	SourceCountry    string     `json:"source_country"`
	Domain           string     `json:"domain"`
	Language         string     `json:"language"`
	FetchedAt        time.Time  `json:"fetched_at"`
	SentimentLabel   Label      `json:"sentiment_label"`
	SentimentScore   float64    `json:"sentiment_score"`
	Summary          string     `json:"summary"`
	Keywords         []string   `json:"keywords"`
	RelatedEntities  []string   `json:"related_entities"`
	PriceBefore      *float64   `json:"price_before"`
	PriceAfter       *float64   `json:"price_after"`
	PriceChangePct   *float64   `json:"price_change_pct"`
	VolumeBefore     *float64   `json:"volume_before"`
	VolumeAfter      *float64   `json:"volume_after"`
	VolatilityChange *float64   `json:"volatility_change"`
	ImpactScore      float64    `json:"impact_score"`
}

// ToDocument flattens an enriched article into the stored schema
func (e EnrichedArticle) ToDocument(docID string) Document {
	return Document{
		DocID:            docID,
		Title:            e.Title,
		URL:              e.URL,
		Company:          e.Company,
		SeenAt:           e.SeenAt,
		SourceCountry:    e.SourceCountry,
		Domain:           e.Domain,
		Language:         e.Language,
		FetchedAt:        e.FetchedAt,
		SentimentLabel:   e.Sentiment.Label,
		SentimentScore:   e.Sentiment.Confidence,
		Summary:          e.Summary,
		Keywords:         e.Keywords,
		RelatedEntities:  e.RelatedEntities,
		PriceBefore:      e.Metrics.PriceBefore,
		PriceAfter:       e.Metrics.PriceAfter,
		PriceChangePct:   e.Metrics.PriceChangePct,
		VolumeBefore:     e.Metrics.VolumeBefore,
		VolumeAfter:      e.Metrics.VolumeAfter,
		VolatilityChange: e.Metrics.VolatilityChange,
		ImpactScore:      e.ImpactScore,
	}
}

// Enriched rebuilds an enriched article from a stored document
func (d Document) Enriched() EnrichedArticle {
	return EnrichedArticle{
		NewsArticle: NewsArticle{
			Title:         d.Title,
			URL:           d.URL,
			Company:       d.Company,
			SourceCountry: d.SourceCountry,
			Domain:        d.Domain,
			Language:      d.Language,
			SeenAt:        d.SeenAt,
			FetchedAt:     d.FetchedAt,
			Summary:       d.Summary,
			Keywords:      d.Keywords,
		},
		Sentiment: SentimentResult{Label: d.SentimentLabel, Confidence: d.SentimentScore},
		Metrics: EventWindowMetrics{
			PriceBefore:      d.PriceBefore,
			PriceAfter:       d.PriceAfter,
			PriceChangePct:   d.PriceChangePct,
			VolumeBefore:     d.VolumeBefore,
			VolumeAfter:      d.VolumeAfter,
			VolatilityChange: d.VolatilityChange,
		},
		ImpactScore:     d.ImpactScore,
		RelatedEntities: d.RelatedEntities,
	}
}

// CacheEntry is a company's cached event list
type CacheEntry struct {
	Company   string            `json:"company"`
	Events    []EnrichedArticle `json:"events"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// DailyAggregate summarizes one UTC day of articles for a company
type DailyAggregate struct {
	Date         string   `json:"date"`
	AvgSentiment float64  `json:"avg_sentiment"`
	SentimentStd *float64 `json:"sentiment_std"`
	NewsCount    int      `json:"news_count"`
	AvgImpact    float64  `json:"avg_impact"`
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// NewsQuery is a request to a news source
type NewsQuery struct {
	Query      string
	Company    string
	Start      time.Time
	End        time.Time
	MaxRecords int
}

// PriceQuery is a request to a price source
type PriceQuery struct {
	Ticker   string
	Start    time.Time
	End      time.Time
	Interval string
}

// ItemOutcome is the store's verdict on one document in a bulk write.
// Err is nil on success.
type ItemOutcome struct {
	DocID string
	URL   string
	Err   error
}

// CacheStats describes the keys currently held by the event cache
type CacheStats struct {
	TotalKeys int `json:"total_keys"`
	ListKeys  int `json:"list_keys"`
	EventKeys int `json:"event_keys"`
}
