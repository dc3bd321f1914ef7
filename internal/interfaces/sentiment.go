package interfaces

import (
	"context"

	"news-impact/internal/types"
)

// SentimentProvider classifies text into positive, negative or neutral
type SentimentProvider interface {
	Analyze(ctx context.Context, text string) (types.SentimentResult, error)
}

// EntityExtractor pulls named entities out of a short text
type EntityExtractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
}
