// Package eod writes per-day sentiment and impact summaries as CSV files.
package eod

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"news-impact/internal/types"
)

type aggRow struct {
	Company      string `csv:"company"`
	Date         string `csv:"date"`
	NewsCount    int    `csv:"news_count"`
	AvgSentiment string `csv:"avg_sentiment"`
	SentimentStd string `csv:"sentiment_std"`
	AvgImpact    string `csv:"avg_impact"`
}

// WriteCSV writes one row per day followed by a TOTAL row carrying the
// article count and the article-weighted means
func WriteCSV(w io.Writer, company string, aggs []types.DailyAggregate) error {
	rows := make([]aggRow, 0, len(aggs)+1)
	var total int
	var sentSum, impactSum float64
	for _, d := range aggs {
		std := ""
		if d.SentimentStd != nil {
			std = fmt.Sprintf("%.4f", *d.SentimentStd)
		}
		rows = append(rows, aggRow{
			Company:      company,
			Date:         d.Date,
			NewsCount:    d.NewsCount,
			AvgSentiment: fmt.Sprintf("%.4f", d.AvgSentiment),
			SentimentStd: std,
			AvgImpact:    fmt.Sprintf("%.4f", d.AvgImpact),
		})
		total += d.NewsCount
		sentSum += d.AvgSentiment * float64(d.NewsCount)
		impactSum += d.AvgImpact * float64(d.NewsCount)
	}

	if total > 0 {
		rows = append(rows, aggRow{
			Company:      company,
			Date:         "TOTAL",
			NewsCount:    total,
			AvgSentiment: fmt.Sprintf("%.4f", sentSum/float64(total)),
			AvgImpact:    fmt.Sprintf("%.4f", impactSum/float64(total)),
		})
	}

	return gocsv.Marshal(&rows, w)
}

// SaveCSV writes the summary to dir/eod/<company>.csv and returns the path
func SaveCSV(dir, company string, aggs []types.DailyAggregate) (string, error) {
	if len(aggs) == 0 {
		return "", nil
	}
	outPath := filepath.Join(dir, "eod", fileName(company)+".csv")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := WriteCSV(out, company, aggs); err != nil {
		return "", err
	}
	return outPath, nil
}

func fileName(company string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, strings.TrimSpace(company))
	if name == "" {
		return "unknown"
	}
	return name
}
