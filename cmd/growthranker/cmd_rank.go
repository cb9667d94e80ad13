package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"GrowthRanker/internal/usecase"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Run one ranking over the configured sources",
	RunE:  runRank,
}

var (
	rankLimit  int
	rankExport bool
)

func init() {
	rootCmd.AddCommand(rankCmd)
	addRankFlags(rankCmd)
}

func addRankFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&rankLimit, "limit", 0, "Number of top companies to keep, <= 0 keeps all (defaults to batch.limit)")
	cmd.Flags().BoolVar(&rankExport, "export", false, "Write the rankings to CSV")
}

func runRank(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	application, cfg, err := buildApplication(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	limit := resolveLimit(cmd, rankLimit, cfg.Batch.Limit)
	report, err := application.Rank(ctx, usecase.JobOptions{Limit: limit, Export: rankExport})
	if report.Result.NoInput {
		fmt.Fprintln(cmd.OutOrStdout(), "No company data found")
		return err
	}
	if err != nil && report.Result.RunID == "" {
		return err
	}

	if rerr := usecase.RenderRankings(cmd.OutOrStdout(), report.Result); rerr != nil {
		return rerr
	}
	if report.ExportPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nExported to %s\n", report.ExportPath)
	}
	if err != nil {
		// side effects failed, the ranking above is still valid
		application.Logger().Warn("ranking finished with errors", "error", err)
	}
	return nil
}

// resolveLimit prefers an explicit --limit over the configured batch.limit.
func resolveLimit(cmd *cobra.Command, flagValue, configured int) int {
	if f := cmd.Flags().Lookup("limit"); f != nil && f.Changed {
		return flagValue
	}
	return configured
}
