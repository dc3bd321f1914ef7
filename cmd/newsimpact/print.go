package main

import (
	"fmt"
	"strings"

	"news-impact/internal/history"
	"news-impact/internal/pipeline"
	"news-impact/internal/types"
)

const rule = "═══════════════════════════════════════════════════════════════"

func printBanner(req pipeline.Request) {
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║          News Impact Pipeline - GDELT Event Scoring          ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Companies:    %d\n", len(req.Companies))
	fmt.Printf("Date range:   %s → %s\n", req.StartDate, req.EndDate)
	fmt.Printf("Collection:   %s\n", req.Collection)
	fmt.Printf("Max records:  %d\n", req.MaxRecords)
	fmt.Printf("With prices:  %t\n", req.WithPrices)
	fmt.Println()
}

func printSummary(s pipeline.Summary) {
	fmt.Println()
	fmt.Println(rule)
	fmt.Println("                 PIPELINE EXECUTION SUMMARY")
	fmt.Println(rule)
	fmt.Printf("Run ID:              %s\n", s.RunID)
	fmt.Printf("Companies processed: %d/%d\n", s.CompaniesWithData, s.CompaniesAttempted)
	fmt.Printf("Documents indexed:   %d\n", s.DocsWritten)
	fmt.Printf("Documents failed:    %d\n", s.DocsFailed)
	fmt.Printf("Time taken:          %.2f seconds\n", s.Elapsed.Seconds())
	fmt.Println(rule)

	for _, oc := range s.Outcomes {
		mark := "✓"
		switch oc.State {
		case pipeline.StateSkipped:
			mark = "⚠️"
		case pipeline.StateFailed:
			mark = "❌"
		}
		line := fmt.Sprintf("%s %-32s %-8s articles=%d written=%d failed=%d",
			mark, oc.Company, oc.State, oc.Articles, oc.Written, oc.Failed)
		if oc.Err != "" {
			line += "  (" + oc.Err + ")"
		}
		fmt.Println(line)
		for _, e := range oc.Errors {
			fmt.Printf("    • %s: %s\n", e.URL, e.Reason)
		}
	}
	fmt.Println()
}

func printAggregates(company string, aggs []types.DailyAggregate) {
	fmt.Println(rule)
	fmt.Printf("              DAILY AGGREGATES: %s\n", company)
	fmt.Println(rule)
	if len(aggs) == 0 {
		fmt.Println("⚠️  No events stored for this company")
		return
	}
	fmt.Printf("%-12s %8s %14s %12s %10s\n", "Date", "News", "Avg sentiment", "Sent. std", "Avg impact")
	fmt.Println(strings.Repeat("─", 60))
	for _, d := range aggs {
		std := "-"
		if d.SentimentStd != nil {
			std = fmt.Sprintf("%.3f", *d.SentimentStd)
		}
		fmt.Printf("%-12s %8d %14.3f %12s %10.3f\n", d.Date, d.NewsCount, d.AvgSentiment, std, d.AvgImpact)
	}
}

func printRuns(runs []history.RunRecord) {
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		return
	}
	fmt.Printf("%-36s  %-19s  %-17s  %9s  %7s  %6s\n", "Run ID", "Started", "Range", "Companies", "Written", "Failed")
	fmt.Println(strings.Repeat("─", 102))
	for _, r := range runs {
		fmt.Printf("%-36s  %-19s  %-17s  %4d/%-4d  %7d  %6d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.StartDate+"-"+r.EndDate,
			r.CompaniesWithData, r.CompaniesAttempted, r.DocsWritten, r.DocsFailed)
	}
}

func printRun(r history.RunRecord) {
	fmt.Println(rule)
	fmt.Printf("Run %s\n", r.ID)
	fmt.Println(rule)
	fmt.Printf("Started:     %s (%.2fs)\n", r.StartedAt.Format("2006-01-02 15:04:05"), r.Elapsed.Seconds())
	fmt.Printf("Collection:  %s\n", r.Collection)
	fmt.Printf("Range:       %s → %s\n", r.StartDate, r.EndDate)
	fmt.Printf("Documents:   %d written, %d failed\n", r.DocsWritten, r.DocsFailed)
	fmt.Println()
	for _, c := range r.Companies {
		fmt.Printf("  %-32s %-10s articles=%d written=%d failed=%d %s\n",
			c.Company, c.State, c.Articles, c.Written, c.Failed, c.Error)
	}
}
