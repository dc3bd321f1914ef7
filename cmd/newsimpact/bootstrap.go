package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"news-impact/internal/cache"
	"news-impact/internal/companies"
	"news-impact/internal/docstore"
	"news-impact/internal/docstore/docstoreobs"
	"news-impact/internal/enrich"
	"news-impact/internal/entities"
	"news-impact/internal/events"
	"news-impact/internal/history"
	"news-impact/internal/interfaces"
	"news-impact/internal/logger"
	"news-impact/internal/market"
	"news-impact/internal/market/marketobs"
	"news-impact/internal/news"
	"news-impact/internal/news/newsobs"
	"news-impact/internal/persist"
	"news-impact/internal/pipeline"
	"news-impact/internal/pipeline/pipelineobs"
	"news-impact/internal/sentiment"
	"news-impact/internal/sentiment/sentimentobs"
	"news-impact/internal/store"
	"news-impact/internal/trace"

	"github.com/joho/godotenv"
)

// app holds the long lived resources shared by every command
type app struct {
	cfg      *store.Config
	docs     interfaces.DocumentStore
	history  *history.Store
	cache    *cache.Badger
	registry *companies.Registry
}

// initializeSystem loads .env and brings up the logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// openApp opens the document store, the run history and the event cache.
// The cache shares the history's badger database.
func openApp(ctx context.Context, cfg *store.Config) (*app, error) {
	sqlite, err := docstore.New(cfg.DocStore.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	hist, err := history.Open(cfg.Cache.Dir)
	if err != nil {
		_ = sqlite.Close()
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}

	registry := companies.Default()
	if err := registry.LoadFile(cfg.CompaniesFile); err != nil {
		logger.Warn(ctx, "Ignoring companies file, using built-in preset", "path", cfg.CompaniesFile, "error", err)
	}

	logger.Info(ctx, "Storage ready",
		"docstore", cfg.DocStore.Path,
		"cache_dir", cfg.Cache.Dir,
		"cache_ttl", cfg.Cache.TTL.String(),
	)

	return &app{
		cfg:      cfg,
		docs:     docstoreobs.Wrap(sqlite),
		history:  hist,
		cache:    cache.New(hist.Badger(), cfg.Cache.TTL),
		registry: registry,
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.docs.Close(), a.history.Close())
}

// initializeNews builds GDELT with the Google News RSS fallback and page
// metadata enrichment
func initializeNews(ctx context.Context, cfg *store.Config) interfaces.NewsSource {
	gdelt := news.NewGDELT(news.GDELTConfig{
		BaseURL:           cfg.GDELT.BaseURL,
		Timeout:           cfg.GDELT.Timeout,
		RequestsPerSecond: cfg.GDELT.RequestsPerSecond,
	})

	var fallback news.NamedSource
	if cfg.GDELT.NoRSSFallback {
		logger.Info(ctx, "RSS fallback disabled")
	} else {
		fallback = news.NewGoogleRSS(cfg.GDELT.RSSURL, cfg.GDELT.Timeout)
	}

	var meta *news.MetaFetcher
	if cfg.GDELT.MetaLimit > 0 {
		meta = news.NewMetaFetcher(cfg.GDELT.Timeout)
	}

	svc := news.NewService(gdelt, fallback, meta, news.ServiceConfig{MetaLimit: cfg.GDELT.MetaLimit})
	return newsobs.Wrap(svc, "gdelt")
}

// initializePrices picks the configured price provider. Kite without
// credentials falls back to Yahoo.
func initializePrices(ctx context.Context, cfg *store.Config, registry *companies.Registry) interfaces.PriceSource {
	if cfg.Prices.Provider == "kite" {
		kite, err := market.NewKite(market.KiteParams{
			APIKey:      cfg.Prices.KiteAPIKey,
			AccessToken: cfg.Prices.KiteAccessToken,
			Timeout:     cfg.Prices.Timeout,
			Tokens:      companies.KiteTokens(),
		})
		if err == nil {
			logger.Info(ctx, "Using Kite Connect historical data")
			return marketobs.Wrap(kite, "kite")
		}
		logger.Warn(ctx, "Kite unavailable - falling back to Yahoo Finance", "error", err)
	}

	yahoo := market.NewYahoo(market.YahooConfig{
		BaseURL: cfg.Prices.BaseURL,
		Timeout: cfg.Prices.Timeout,
	})
	return marketobs.Wrap(yahoo, "yahoo")
}

// initializeSentiment returns the model client behind the keyword fallback.
// No model URL means keywords only.
func initializeSentiment(ctx context.Context, cfg *store.Config) interfaces.SentimentProvider {
	var primary interfaces.SentimentProvider
	if cfg.Sentiment.ModelURL != "" {
		primary = sentimentobs.Wrap(sentiment.NewModelClient(cfg.Sentiment.ModelURL, cfg.Sentiment.Timeout))
	} else {
		logger.Warn(ctx, "No sentiment model configured - using keyword classifier")
	}
	return sentiment.NewChain(primary)
}

// initializeEntities picks the entity extractor for related entities
func initializeEntities(ctx context.Context, cfg *store.Config) interfaces.EntityExtractor {
	switch cfg.Enrichment.Entities {
	case "capitalized":
		return entities.CapitalizedExtractor{}
	case "none":
		logger.Info(ctx, "Entity extraction disabled")
		return entities.Noop{}
	default:
		return entities.NewProseExtractor()
	}
}

// initializeRunner wires the orchestrator with observability
func initializeRunner(ctx context.Context, a *app) pipeline.Runner {
	cfg := a.cfg
	window := events.Window{Pre: cfg.Enrichment.WindowPre, Post: cfg.Enrichment.WindowPost}

	orch := pipeline.NewOrchestrator(pipeline.Deps{
		News:      initializeNews(ctx, cfg),
		Prices:    initializePrices(ctx, cfg, a.registry),
		Sentiment: initializeSentiment(ctx, cfg),
		Enricher: enrich.NewEnricher(enrich.Config{
			Window:  window,
			Divisor: cfg.Enrichment.ImpactDivisor,
		}, initializeEntities(ctx, cfg)),
		Persister: persist.NewPersister(a.docs, persist.Config{
			BatchSize:   cfg.Persist.BatchSize,
			Concurrency: cfg.Persist.Concurrency,
		}),
		Store:   a.docs,
		Cache:   a.cache,
		History: a.history,
		Tickers: a.registry,
	}, pipeline.Config{
		RetryCount:    cfg.Pipeline.RetryCount,
		Backoff:       cfg.Pipeline.Backoff,
		CompanyDelay:  cfg.Pipeline.CompanyDelay,
		FetchTimeout:  cfg.Pipeline.FetchTimeout,
		PriceWindow:   window,
		PriceInterval: cfg.Prices.Interval,
		CacheTTL:      cfg.Cache.TTL,
	})

	return pipelineobs.Wrap(orch)
}
