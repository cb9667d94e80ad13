package usecase

import (
	"context"
	"log/slog"
	"time"

	"GrowthRanker/internal/ports"
)

// Scheduler wires the ticker driver with the ranking job.
type Scheduler struct {
	driver ports.Scheduler
	job    *RankingJob
	opts   JobOptions
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, job *RankingJob, opts JobOptions, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, job: job, opts: opts, logger: logger}
}

// Start registers the ranking job with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.job == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report, err := s.job.Run(ctx, s.opts)
		if s.logger == nil {
			return
		}
		if err != nil {
			s.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
			return
		}
		s.logger.Info("scheduled run done", "trigger", trigger,
			"run_id", report.Result.RunID, "ranked", len(report.Result.Ranked))
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
