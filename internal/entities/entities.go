// Package entities cleans article text and pulls out candidate entity names.
package entities

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxInputChars bounds the prefix of text handed to an extractor
const MaxInputChars = 500

var (
	namedEntityRe   = regexp.MustCompile(`&[a-z]+;`)
	numericEntityRe = regexp.MustCompile(`&#\d+;`)
	urlRe           = regexp.MustCompile(`https?://\S+|www\.\S+`)
	spaceRe         = regexp.MustCompile(`\s+`)
)

// CleanText strips HTML entities and URLs and collapses whitespace
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = namedEntityRe.ReplaceAllString(text, " ")
	text = numericEntityRe.ReplaceAllString(text, " ")
	text = urlRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Prefix returns at most MaxInputChars characters of text
func Prefix(text string) string {
	if utf8.RuneCountInString(text) <= MaxInputChars {
		return text
	}
	return string([]rune(text)[:MaxInputChars])
}

// Noop is the extractor used when no entity capability is configured
type Noop struct{}

func (Noop) Extract(context.Context, string) ([]string, error) { return []string{}, nil }

// CapitalizedExtractor treats runs of capitalized words as entity candidates.
// It knows no entity types and serves as the fallback for ProseExtractor.
// Sentence-initial stopwords and the Exclude names are dropped.
type CapitalizedExtractor struct {
	// Exclude lists names, compared case-insensitively, never to report
	Exclude []string
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "by": true,
	"with": true, "from": true, "as": true, "is": true, "are": true,
	"why": true, "how": true, "what": true, "this": true, "after": true,
	"new": true, "says": true, "report": true,
}

// orgSuffixes join onto the preceding capitalized run even when lowercase
var orgSuffixes = map[string]bool{"&": true, "of": true}

// Extract returns unique capitalized phrases in order of first appearance
func (e CapitalizedExtractor) Extract(_ context.Context, text string) ([]string, error) {
	text = Prefix(CleanText(text))
	words := strings.Fields(text)

	exclude := map[string]bool{}
	for _, x := range e.Exclude {
		exclude[strings.ToLower(strings.TrimSpace(x))] = true
	}

	seen := map[string]bool{}
	out := []string{}
	var run []string

	flush := func() {
		// trailing joiners never end a phrase
		for len(run) > 0 && orgSuffixes[strings.ToLower(run[len(run)-1])] {
			run = run[:len(run)-1]
		}
		for len(run) > 0 && stopwords[strings.ToLower(run[0])] {
			run = run[1:]
		}
		if len(run) > 0 {
			phrase := strings.Join(run, " ")
			key := strings.ToLower(phrase)
			if !seen[key] && !exclude[key] && utf8.RuneCountInString(phrase) > 1 {
				seen[key] = true
				out = append(out, phrase)
			}
		}
		run = run[:0]
	}

	for _, raw := range words {
		w := strings.TrimFunc(raw, func(r rune) bool {
			return unicode.IsPunct(r) && r != '&' && r != '\''
		})
		if w == "" {
			flush()
			continue
		}
		switch {
		case isCapitalized(w):
			run = append(run, w)
		case len(run) > 0 && orgSuffixes[strings.ToLower(w)]:
			run = append(run, w)
		default:
			flush()
		}
		if endsClause(raw) {
			flush()
		}
	}
	flush()

	return out, nil
}

func isCapitalized(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return unicode.IsUpper(r) || (unicode.IsDigit(r) && strings.IndexFunc(w, unicode.IsUpper) >= 0)
}

func endsClause(raw string) bool {
	if raw == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(raw)
	return strings.ContainsRune(",.;:!?|-", last)
}
