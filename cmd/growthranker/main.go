package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"GrowthRanker/internal/app"
	"GrowthRanker/internal/config"
	"GrowthRanker/internal/logging"
)

var (
	configPath  string
	logLevel    string
	concurrency int
)

// rootCmd ranks companies when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "growthranker",
	Short: "Rank AI-factory companies by moat, margin and growth",
	Long: `growthranker scores each company with margin, moat (LLM), composite and
report stages, then prints the top rankings and a sector breakdown.

Examples:
  growthranker --limit 10
  growthranker rank --export --concurrency 4
  growthranker schedule --config config.yaml`,
	SilenceUsage: true,
	RunE:         runRank,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("GROWTH_RANKER_CONFIG"), "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "Records scored in parallel (0 uses config)")
	addRankFlags(rootCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func buildApplication(ctx context.Context) (*app.Application, config.Config, error) {
	cfg := config.LoadFile(configPath)
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger, app.Options{Concurrency: concurrency})
	if err != nil {
		logger.Error("application setup failed", "error", err)
		return nil, cfg, err
	}
	return application, cfg, nil
}
