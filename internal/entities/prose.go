package entities

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"news-impact/internal/interfaces"
)

// entityLabels are the named entity types kept from the tagger
var entityLabels = map[string]bool{"ORG": true, "PERSON": true, "GPE": true}

// ProseExtractor runs the prose named entity recognizer and keeps
// organisations, people and places. When the document cannot be built the
// Fallback extractor is used instead.
type ProseExtractor struct {
	Fallback interfaces.EntityExtractor
}

// NewProseExtractor returns a prose extractor backed by the capitalized-run
// extractor.
func NewProseExtractor() ProseExtractor {
	return ProseExtractor{Fallback: CapitalizedExtractor{}}
}

var _ interfaces.EntityExtractor = ProseExtractor{}

func (e ProseExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	text = Prefix(CleanText(text))
	if text == "" {
		return []string{}, nil
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		if e.Fallback != nil {
			return e.Fallback.Extract(ctx, text)
		}
		return nil, fmt.Errorf("entity tagging failed: %w", err)
	}

	seen := map[string]bool{}
	out := []string{}
	for _, ent := range doc.Entities() {
		if !entityLabels[ent.Label] {
			continue
		}
		name := strings.TrimSpace(ent.Text)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out, nil
}
