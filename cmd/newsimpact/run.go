package main

import (
	"context"
	"errors"

	"news-impact/internal/logger"
	"news-impact/internal/pipeline"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the news ingestion pipeline",
	Example: `  newsimpact run --companies "Reliance Industries" --start_date 20251001 --end_date 20251007
  newsimpact run --companies RELIANCE.NS,TCS.NS,INFY.NS --start_date 20251001 --end_date 20251007
  newsimpact run --companies nifty50 --start_date 20251001 --end_date 20251007 --with-prices
  newsimpact run --companies nifty50 --start_date 20251101 --end_date 20251107 --index stock_event_news`,
	RunE: runPipeline,
}

func init() {
	f := runCmd.Flags()
	f.String("companies", "", "Comma-separated company names/tickers or 'nifty50'")
	f.String("start_date", "", "Start date in YYYYMMDD format")
	f.String("end_date", "", "End date in YYYYMMDD format")
	f.String("index", "", "Collection to write to (default from config or ES_INDEX_NAME)")
	f.Bool("with-prices", false, "Fetch stock prices and compute event metrics")
	f.Int("max-records", 0, "Max records per company (default from config or GDELT_MAXRECORDS)")
	_ = runCmd.MarkFlagRequired("companies")
	_ = runCmd.MarkFlagRequired("start_date")
	_ = runCmd.MarkFlagRequired("end_date")

	_ = v.BindPFlag("run.companies", f.Lookup("companies"))
	_ = v.BindPFlag("run.start_date", f.Lookup("start_date"))
	_ = v.BindPFlag("run.end_date", f.Lookup("end_date"))
	_ = v.BindPFlag("run.index", f.Lookup("index"))
	_ = v.BindPFlag("run.with_prices", f.Lookup("with-prices"))
	_ = v.BindPFlag("run.max_records", f.Lookup("max-records"))
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		// config values already carry the env overrides; flags win when set
		v.SetDefault("run.index", a.cfg.DocStore.Collection)
		v.SetDefault("run.max_records", a.cfg.GDELT.MaxRecords)

		req := pipeline.Request{
			Companies:  a.registry.Resolve(v.GetString("run.companies")),
			StartDate:  v.GetString("run.start_date"),
			EndDate:    v.GetString("run.end_date"),
			WithPrices: v.GetBool("run.with_prices"),
			Collection: v.GetString("run.index"),
			MaxRecords: v.GetInt("run.max_records"),
		}

		printBanner(req)

		runner := initializeRunner(ctx, a)
		summary, err := runner.Run(ctx, req)
		if errors.Is(err, pipeline.ErrInvalidRequest) {
			logger.ErrorWithErr(ctx, "Invalid arguments", err)
			return err
		}
		if summary.RunID != "" {
			printSummary(summary)
		}
		return err
	})
}
