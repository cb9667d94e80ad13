package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"GrowthRanker/internal/usecase"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Rank on a fixed interval and serve Prometheus metrics",
	Long: `schedule runs the ranking job immediately and then every scheduler.interval
until interrupted. Metrics are served on metrics.addr at /metrics.`,
	RunE: runSchedule,
}

var (
	scheduleLimit  int
	scheduleExport bool
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().IntVar(&scheduleLimit, "limit", 0, "Number of top companies to keep, <= 0 keeps all (defaults to batch.limit)")
	scheduleCmd.Flags().BoolVar(&scheduleExport, "export", true, "Write the rankings to CSV after each run")
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	application, cfg, err := buildApplication(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", application.Metrics().Handler())
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			application.Logger().Error("metrics server stopped", "addr", cfg.Metrics.Addr, "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return application.Schedule(ctx, usecase.JobOptions{
		Limit:  resolveLimit(cmd, scheduleLimit, cfg.Batch.Limit),
		Export: scheduleExport,
	})
}
