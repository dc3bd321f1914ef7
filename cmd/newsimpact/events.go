package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"news-impact/internal/enrich"
	"news-impact/internal/eod"
	"news-impact/internal/logger"
	"news-impact/internal/types"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print a company's scored events as JSON",
	RunE:  runEvents,
}

var aggregatesCmd = &cobra.Command{
	Use:   "aggregates",
	Short: "Print daily sentiment and impact aggregates for a company",
	RunE:  runAggregates,
}

var (
	eventsCompany string
	eventsIndex   string
	eventsLimit   int
	csvDir        string
)

func init() {
	for _, c := range []*cobra.Command{eventsCmd, aggregatesCmd} {
		c.Flags().StringVar(&eventsCompany, "company", "", "Company name or ticker")
		c.Flags().StringVar(&eventsIndex, "index", "", "Collection to read (default from config)")
		c.Flags().IntVar(&eventsLimit, "limit", 500, "Max documents to load from the store")
		_ = c.MarkFlagRequired("company")
	}
	aggregatesCmd.Flags().StringVar(&csvDir, "csv", "", "Also write the aggregates to <dir>/eod/<company>.csv")
}

func runEvents(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		evts, err := loadEvents(ctx, a)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(evts)
	})
}

func runAggregates(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		evts, err := loadEvents(ctx, a)
		if err != nil {
			return err
		}
		company := a.registry.Name(eventsCompany)
		aggs := enrich.DailyAggregates(evts)
		printAggregates(company, aggs)

		if csvDir == "" {
			return nil
		}
		path, err := eod.SaveCSV(csvDir, company, aggs)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to write aggregates CSV", err, "dir", csvDir)
			return err
		}
		if path != "" {
			fmt.Println("📄 Aggregates saved to:", path)
		}
		return nil
	})
}

// loadEvents serves from the cache when possible, otherwise reads the store
// and repopulates the cache
func loadEvents(ctx context.Context, a *app) ([]types.EnrichedArticle, error) {
	company := a.registry.Name(eventsCompany)
	collection := eventsIndex
	if collection == "" {
		collection = a.cfg.DocStore.Collection
	}

	evts, found, err := a.cache.GetEvents(ctx, company)
	if err != nil {
		logger.Warn(ctx, "Cache read failed, reading store", "company", company, "error", err.Error())
	}
	if found {
		logger.Debug(ctx, "Events served from cache", "company", company, "events", len(evts))
		return evts, nil
	}

	docs, err := a.docs.FindByCompany(ctx, collection, company, eventsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for %s: %w", company, err)
	}

	evts = make([]types.EnrichedArticle, 0, len(docs))
	for _, d := range docs {
		evts = append(evts, d.Enriched())
	}
	if err := a.cache.SetEvents(ctx, company, evts, a.cfg.Cache.TTL); err != nil {
		logger.Warn(ctx, "Failed to cache events", "company", company, "error", err.Error())
	}
	return evts, nil
}
