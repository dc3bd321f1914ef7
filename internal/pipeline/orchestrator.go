// Package pipeline runs the per-company fetch, enrich and persist stages
// with retries for transient source failures and a summary of the run.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"news-impact/internal/dedupe"
	"news-impact/internal/enrich"
	"news-impact/internal/events"
	"news-impact/internal/history"
	"news-impact/internal/interfaces"
	"news-impact/internal/logger"
	"news-impact/internal/persist"
	"news-impact/internal/types"
)

// Company states
const (
	StateFetching   = "FETCHING"
	StateEnriching  = "ENRICHING"
	StatePersisting = "PERSISTING"
	StateDone       = "DONE"
	StateSkipped    = "SKIPPED"
	StateFailed     = "FAILED"
)

// Runner is what the CLI drives
type Runner interface {
	Run(ctx context.Context, req Request) (Summary, error)
}

// TickerResolver converts a company name to a price ticker
type TickerResolver interface {
	Ticker(name string) string
}

// RunRecorder stores finished runs
type RunRecorder interface {
	Record(ctx context.Context, r history.RunRecord) error
}

// Config tunes retries and pacing
type Config struct {
	RetryCount   int
	Backoff      time.Duration
	CompanyDelay time.Duration
	FetchTimeout time.Duration

	// PriceWindow widens the price request so events near the range edges
	// still get full windows
	PriceWindow   events.Window
	PriceInterval string
	CacheTTL      time.Duration
}

// DefaultConfig returns 3 attempts, 2s linear backoff, 1s between companies
// and a 30s fetch timeout
func DefaultConfig() Config {
	return Config{
		RetryCount:    3,
		Backoff:       2 * time.Second,
		CompanyDelay:  time.Second,
		FetchTimeout:  30 * time.Second,
		PriceWindow:   events.DefaultWindow,
		PriceInterval: "1d",
	}
}

// Deps are the collaborators of a run. Prices, Cache, History and Tickers
// are optional.
type Deps struct {
	News      interfaces.NewsSource
	Prices    interfaces.PriceSource
	Sentiment interfaces.SentimentProvider
	Enricher  *enrich.Enricher
	Persister *persist.Persister
	Store     interfaces.DocumentStore
	Cache     interfaces.EventCache
	History   RunRecorder
	Tickers   TickerResolver
}

// CompanyOutcome is the result for one company
type CompanyOutcome struct {
	Company  string                  `json:"company"`
	Ticker   string                  `json:"ticker,omitempty"`
	State    string                  `json:"state"`
	Articles int                     `json:"articles"`
	Written  int                     `json:"written"`
	Failed   int                     `json:"failed"`
	Errors   []persist.ItemError     `json:"errors,omitempty"`
	Err      string                  `json:"error,omitempty"`
	Events   []types.EnrichedArticle `json:"-"`
}

// Summary describes a finished run
type Summary struct {
	RunID              string           `json:"run_id"`
	StartedAt          time.Time        `json:"started_at"`
	CompaniesAttempted int              `json:"companies_attempted"`
	CompaniesWithData  int              `json:"companies_with_data"`
	DocsWritten        int              `json:"docs_written"`
	DocsFailed         int              `json:"docs_failed"`
	Elapsed            time.Duration    `json:"elapsed"`
	Outcomes           []CompanyOutcome `json:"outcomes"`
}

// Orchestrator runs companies one after another
type Orchestrator struct {
	deps Deps
	cfg  Config
}

var _ Runner = (*Orchestrator)(nil)

// NewOrchestrator wires an orchestrator. Zero config fields take the defaults.
func NewOrchestrator(deps Deps, cfg Config) *Orchestrator {
	def := DefaultConfig()
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = def.RetryCount
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.PriceInterval == "" {
		cfg.PriceInterval = def.PriceInterval
	}
	return &Orchestrator{deps: deps, cfg: cfg}
}

// Run validates req, checks the store and processes every company. Per
// company failures never abort the run; the summary is returned whenever
// validation and the store check pass.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Summary, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return Summary{}, err
	}
	start, end, _ := req.Range()

	if err := o.deps.Store.Ping(ctx); err != nil {
		return Summary{}, fmt.Errorf("document store unreachable: %w", err)
	}

	summary := Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]CompanyOutcome, 0, len(req.Companies)),
	}
	timer := logger.StartOperation(ctx, "pipeline.run",
		"run_id", summary.RunID,
		"companies", len(req.Companies),
		"start", req.StartDate,
		"end", req.EndDate,
		"collection", req.Collection,
		"with_prices", req.WithPrices,
	)
	ctx = timer.GetContext()

	var runErr error
	for i, company := range req.Companies {
		// fixed gap after every company, however long it took
		if i > 0 {
			if err := sleep(ctx, o.cfg.CompanyDelay); err != nil {
				runErr = err
				break
			}
		} else if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		outcome := o.processCompany(ctx, req, company, start, end)
		summary.CompaniesAttempted++
		if outcome.State == StateDone {
			summary.CompaniesWithData++
		}
		summary.DocsWritten += outcome.Written
		summary.DocsFailed += outcome.Failed
		summary.Outcomes = append(summary.Outcomes, outcome)
	}
	if runErr == nil {
		runErr = ctx.Err()
	}

	summary.Elapsed = timer.Elapsed()
	if runErr != nil {
		timer.EndWithError(runErr, "companies_attempted", summary.CompaniesAttempted)
	} else {
		timer.End(
			"companies_with_data", summary.CompaniesWithData,
			"docs_written", summary.DocsWritten,
			"docs_failed", summary.DocsFailed,
		)
	}

	o.record(context.WithoutCancel(ctx), req, summary)
	return summary, runErr
}

func (o *Orchestrator) processCompany(ctx context.Context, req Request, company string, start, end time.Time) CompanyOutcome {
	out := CompanyOutcome{Company: company, State: StateFetching}
	logger.Stage(ctx, company, StateFetching)

	articles, err := o.fetchNews(ctx, req, company, start, end)
	if err != nil {
		out.State = StateSkipped
		out.Err = err.Error()
		logger.Stage(ctx, company, StateSkipped, "reason", "news fetch failed", "error", err.Error())
		return out
	}
	articles = dedupe.Articles(articles)
	if len(articles) == 0 {
		out.State = StateSkipped
		logger.Stage(ctx, company, StateSkipped, "reason", "no articles")
		return out
	}
	out.Articles = len(articles)

	var series *types.PriceSeries
	if req.WithPrices && o.deps.Prices != nil {
		out.Ticker = o.ticker(company)
		series = o.fetchPrices(ctx, out.Ticker, start, end)
	}

	out.State = StateEnriching
	logger.Stage(ctx, company, StateEnriching, "articles", len(articles), "with_prices", !series.Empty())

	sentiments := make([]types.SentimentResult, len(articles))
	for i, a := range articles {
		sentiments[i] = o.analyze(ctx, a)
	}
	enriched := dedupe.Enriched(o.deps.Enricher.EnrichBatch(ctx, articles, series, sentiments))

	out.State = StatePersisting
	logger.Stage(ctx, company, StatePersisting, "documents", len(enriched))

	res, err := o.deps.Persister.Persist(ctx, req.Collection, enriched)
	if err != nil {
		out.State = StateFailed
		out.Err = err.Error()
		logger.Stage(ctx, company, StateFailed, "error", err.Error())
		return out
	}
	out.Written = res.Success
	out.Failed = res.Failed
	out.Errors = res.Errors
	out.Events = enriched

	o.refreshCache(ctx, company, enriched)

	out.State = StateDone
	logger.Stage(ctx, company, StateDone, "written", res.Success, "failed", res.Failed)
	return out
}

func (o *Orchestrator) fetchNews(ctx context.Context, req Request, company string, start, end time.Time) ([]types.NewsArticle, error) {
	q := types.NewsQuery{
		Query:      company,
		Company:    company,
		Start:      start,
		End:        end,
		MaxRecords: req.MaxRecords,
	}

	var articles []types.NewsArticle
	err := retry(ctx, "news.fetch", o.cfg.RetryCount, o.cfg.Backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
		defer cancel()

		var err error
		articles, err = o.deps.News.Fetch(callCtx, q)
		return err
	})
	return articles, err
}

// fetchPrices returns nil when no prices could be loaded; enrichment then
// proceeds with null metrics
func (o *Orchestrator) fetchPrices(ctx context.Context, ticker string, start, end time.Time) *types.PriceSeries {
	q := types.PriceQuery{
		Ticker:   ticker,
		Start:    start.Add(-o.cfg.PriceWindow.Pre).Truncate(24 * time.Hour),
		End:      end.Add(o.cfg.PriceWindow.Post),
		Interval: o.cfg.PriceInterval,
	}

	var series types.PriceSeries
	err := retry(ctx, "prices.fetch", o.cfg.RetryCount, o.cfg.Backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
		defer cancel()

		var err error
		series, err = o.deps.Prices.Fetch(callCtx, q)
		return err
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "No price data, continuing without metrics", err, "ticker", ticker)
		return nil
	}
	if series.Empty() {
		logger.Warn(ctx, "Price source returned no bars", "ticker", ticker)
		return nil
	}
	return &series
}

func (o *Orchestrator) analyze(ctx context.Context, a types.NewsArticle) types.SentimentResult {
	neutral := types.SentimentResult{Label: types.Neutral, Confidence: 0.5}
	if o.deps.Sentiment == nil {
		return neutral
	}

	text := strings.TrimSpace(a.Title + " " + a.Summary)
	res, err := o.deps.Sentiment.Analyze(ctx, text)
	if err != nil {
		logger.Debug(ctx, "Sentiment unavailable, using neutral", "url", a.URL, "error", err.Error())
		return neutral
	}
	return res
}

func (o *Orchestrator) ticker(company string) string {
	if o.deps.Tickers == nil {
		return company
	}
	return o.deps.Tickers.Ticker(company)
}

// refreshCache drops the company's cached list, which no longer matches the
// store after a write, and refreshes the point keys of the events just
// written. Readers rebuild the list from the store on their next miss.
func (o *Orchestrator) refreshCache(ctx context.Context, company string, enriched []types.EnrichedArticle) {
	if o.deps.Cache == nil {
		return
	}
	if _, err := o.deps.Cache.Invalidate(ctx, company); err != nil {
		logger.Warn(ctx, "Failed to invalidate cached events", "company", company, "error", err.Error())
		return
	}
	for _, e := range enriched {
		if e.SeenAt == nil {
			continue
		}
		if err := o.deps.Cache.SetEvent(ctx, company, e, o.cfg.CacheTTL); err != nil {
			logger.Warn(ctx, "Failed to cache event", "company", company, "url", e.URL, "error", err.Error())
			return
		}
	}
}

func (o *Orchestrator) record(ctx context.Context, req Request, s Summary) {
	if o.deps.History == nil {
		return
	}
	rec := history.RunRecord{
		ID:                 s.RunID,
		StartedAt:          s.StartedAt,
		Elapsed:            s.Elapsed,
		Collection:         req.Collection,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		CompaniesAttempted: s.CompaniesAttempted,
		CompaniesWithData:  s.CompaniesWithData,
		DocsWritten:        s.DocsWritten,
		DocsFailed:         s.DocsFailed,
	}
	for _, oc := range s.Outcomes {
		rec.Companies = append(rec.Companies, history.CompanyRecord{
			Company:  oc.Company,
			State:    oc.State,
			Articles: oc.Articles,
			Written:  oc.Written,
			Failed:   oc.Failed,
			Error:    oc.Err,
		})
	}
	if err := o.deps.History.Record(ctx, rec); err != nil {
		logger.ErrorWithErr(ctx, "Failed to record run", err, "run_id", s.RunID)
	}
}
