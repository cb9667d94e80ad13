package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <company>",
	Short: "Show stored scores for a company (requires database.dsn)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	application, _, err := buildApplication(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	snapshots, err := application.History(ctx, args[0], historyLimit)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No history for %s\n", args[0])
		return nil
	}

	out := cmd.OutOrStdout()
	for _, s := range snapshots {
		fmt.Fprintf(out, "%s  %-8s %8.2f  moat=%d margin=%d  run=%s",
			s.AnalyzedAt.Format("2006-01-02 15:04"), s.Status, s.FinalScore, s.MoatScore, s.MarginScore, s.RunID)
		if s.Error != "" {
			fmt.Fprintf(out, "  error=%s", s.Error)
		}
		fmt.Fprintln(out)
	}
	return nil
}
