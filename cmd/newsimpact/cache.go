package main

import (
	"context"
	"fmt"

	"news-impact/internal/logger"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the event cache",
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop cached events for one company, or for all companies",
	RunE:  runCacheInvalidate,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache key counts",
	RunE:  runCacheStats,
}

var invalidateCompany string

func init() {
	cacheInvalidateCmd.Flags().StringVar(&invalidateCompany, "company", "", "Company to clear (all companies when empty)")
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}

func runCacheInvalidate(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		company := invalidateCompany
		if company != "" {
			company = a.registry.Name(company)
		}
		n, err := a.cache.Invalidate(ctx, company)
		if err != nil {
			logger.ErrorWithErr(ctx, "Cache invalidation failed", err, "company", company)
			return err
		}
		if company == "" {
			fmt.Printf("Removed %d cache keys\n", n)
		} else {
			fmt.Printf("Removed %d cache keys for %s\n", n, company)
		}
		return nil
	})
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		st, err := a.cache.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Total keys:   %d\n", st.TotalKeys)
		fmt.Printf("Event lists:  %d\n", st.ListKeys)
		fmt.Printf("Event keys:   %d\n", st.EventKeys)
		fmt.Printf("TTL:          %s\n", a.cache.TTL())
		return nil
	})
}
