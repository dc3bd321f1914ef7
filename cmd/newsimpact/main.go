package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"news-impact/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configPath string

	// v resolves flag > env > config for every command
	v = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "newsimpact",
	Short: "Fetch company news, score its market impact and store it",
	Long: `newsimpact collects news articles for listed companies, aligns them with
daily prices, scores their impact and upserts them into a local document store.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Configuration file path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(aggregatesCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
}

func main() {
	if err := initializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	_ = logger.Shutdown(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

// withApp loads config, opens storage and closes it after fn returns
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open storage", err)
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.ErrorWithErr(ctx, "Failed to close storage", err)
		}
	}()

	return fn(ctx, a)
}
