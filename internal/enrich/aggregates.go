package enrich

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"news-impact/internal/types"
)

// DailyAggregates groups articles by the UTC date of seen_at. Articles
// without a timestamp are ignored. Days are returned in ascending order.
func DailyAggregates(articles []types.EnrichedArticle) []types.DailyAggregate {
	type bucket struct {
		sentiments []float64
		impactSum  float64
	}
	buckets := map[string]*bucket{}

	for _, a := range articles {
		if a.SeenAt == nil {
			continue
		}
		day := a.SeenAt.UTC().Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.sentiments = append(b.sentiments, a.Sentiment.Signed())
		b.impactSum += a.ImpactScore
	}

	days := make([]string, 0, len(buckets))
	for d := range buckets {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]types.DailyAggregate, 0, len(days))
	for _, d := range days {
		b := buckets[d]
		n := float64(len(b.sentiments))
		avg := stat.Mean(b.sentiments, nil)

		var std *float64
		if len(b.sentiments) > 1 {
			std = types.Float(stat.StdDev(b.sentiments, nil))
		}

		out = append(out, types.DailyAggregate{
			Date:         d,
			AvgSentiment: avg,
			SentimentStd: std,
			NewsCount:    len(b.sentiments),
			AvgImpact:    b.impactSum / n,
		})
	}
	return out
}
