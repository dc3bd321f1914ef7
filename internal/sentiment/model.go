package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"news-impact/internal/api"
	"news-impact/internal/types"
)

// maxModelRunes bounds the text sent to the model, matching its token window
const maxModelRunes = 512

// ErrModelUnavailable is returned when no model endpoint is configured
var ErrModelUnavailable = errors.New("sentiment model unavailable")

// ModelClient calls a remote classification service (e.g. FinBERT behind HTTP).
//
// The service receives {"text": "..."} and may answer either with a single
// {"label": "...", "score": 0.9} object or with a list of label scores, in
// which case the highest scoring label wins.
type ModelClient struct {
	url    string
	client *api.Client
}

// NewModelClient creates a client for the given endpoint
func NewModelClient(url string, timeout time.Duration) *ModelClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ModelClient{
		url:    strings.TrimSpace(url),
		client: api.NewClient(api.WithSource("sentiment-model"), api.WithTimeout(timeout)),
	}
}

type modelRequest struct {
	Text string `json:"text"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Analyze classifies text with the remote model
func (c *ModelClient) Analyze(ctx context.Context, text string) (types.SentimentResult, error) {
	if c == nil || c.url == "" {
		return types.SentimentResult{}, ErrModelUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return types.SentimentResult{Label: types.Neutral, Confidence: 0.5}, nil
	}

	resp, err := c.client.POST(ctx, c.url, modelRequest{Text: truncateRunes(text, maxModelRunes)})
	if err != nil {
		return types.SentimentResult{}, err
	}

	return parseModelResponse(resp.Body)
}

func parseModelResponse(raw []byte) (types.SentimentResult, error) {
	raw = bytes.TrimSpace(raw)

	var scores []labelScore
	switch {
	case len(raw) > 0 && raw[0] == '{':
		var single labelScore
		if err := json.Unmarshal(raw, &single); err != nil {
			return types.SentimentResult{}, fmt.Errorf("failed to decode model response: %w", err)
		}
		scores = []labelScore{single}
	case len(raw) > 1 && raw[0] == '[' && bytes.HasPrefix(bytes.TrimSpace(raw[1:]), []byte("[")):
		var nested [][]labelScore
		if err := json.Unmarshal(raw, &nested); err != nil {
			return types.SentimentResult{}, fmt.Errorf("failed to decode model response: %w", err)
		}
		if len(nested) > 0 {
			scores = nested[0]
		}
	default:
		if err := json.Unmarshal(raw, &scores); err != nil {
			return types.SentimentResult{}, fmt.Errorf("failed to decode model response: %w", err)
		}
	}

	if len(scores) == 0 {
		return types.SentimentResult{}, errors.New("model response carried no labels")
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}

	label := types.Label(strings.ToLower(best.Label))
	if !label.Valid() {
		return types.SentimentResult{}, fmt.Errorf("unknown sentiment label %q", best.Label)
	}
	conf := best.Score
	if conf < 0 || conf > 1 {
		return types.SentimentResult{}, fmt.Errorf("confidence %v out of range", conf)
	}
	return types.SentimentResult{Label: label, Confidence: conf}, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
