// Package dedupe collapses article batches to one entry per URL.
package dedupe

import "news-impact/internal/types"

// ByURL keeps the first occurrence of each key and preserves order. Items
// with an empty key have no identity and are always kept.
func ByURL[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if k != "" {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, it)
	}
	return out
}

// Articles dedupes raw articles by URL
func Articles(articles []types.NewsArticle) []types.NewsArticle {
	return ByURL(articles, func(a types.NewsArticle) string { return a.URL })
}

// Enriched dedupes enriched articles by URL
func Enriched(articles []types.EnrichedArticle) []types.EnrichedArticle {
	return ByURL(articles, func(a types.EnrichedArticle) string { return a.URL })
}
