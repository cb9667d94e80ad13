package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/ports"
)

// JobDeps wires all driven adapters into the ranking job. Only Source and
// Engine are required.
type JobDeps struct {
	Source     ports.CompanySource
	Engine     *Engine
	Repository ports.ResultRepository
	Exporter   ports.Exporter
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// JobOptions are the per-run switches of the command line.
type JobOptions struct {
	Limit  int
	Export bool
}

// JobReport is what one run produced.
type JobReport struct {
	Result     domain.BatchResult
	ExportPath string
}

// RankingJob implements load -> score -> persist -> export -> notify.
type RankingJob struct {
	source     ports.CompanySource
	engine     *Engine
	repository ports.ResultRepository
	exporter   ports.Exporter
	notifier   ports.Notifier
	logger     *slog.Logger
}

// NewRankingJob constructs the orchestration component.
func NewRankingJob(deps JobDeps) *RankingJob {
	return &RankingJob{
		source:     deps.Source,
		engine:     deps.Engine,
		repository: deps.Repository,
		exporter:   deps.Exporter,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
	}
}

// Run executes one ranking. Loader failures abort; side-effect failures
// (persist, export, notify) are joined into the returned error while the
// report still carries the full batch result.
func (j *RankingJob) Run(ctx context.Context, opts JobOptions) (JobReport, error) {
	if j.source == nil || j.engine == nil {
		return JobReport{}, fmt.Errorf("ranking job is not wired")
	}

	companies, err := j.source.LoadCompanies(ctx, opts.Limit)
	if err != nil {
		return JobReport{}, fmt.Errorf("load companies: %w", err)
	}

	result, err := j.engine.Run(ctx, companies, opts.Limit)
	if err != nil {
		return JobReport{}, fmt.Errorf("run batch: %w", err)
	}

	report := JobReport{Result: result}
	if result.NoInput {
		return report, nil
	}

	var errs []error

	if j.repository != nil {
		if err := j.repository.SaveBatch(ctx, result); err != nil {
			errs = append(errs, fmt.Errorf("persist run %s: %w", result.RunID, err))
		}
	}

	if opts.Export && j.exporter != nil {
		path, err := j.exporter.Export(ctx, result.Ranked, ExportName(opts.Limit))
		if err != nil {
			errs = append(errs, fmt.Errorf("export rankings: %w", err))
		} else {
			report.ExportPath = path
			j.info("rankings exported", "path", path)
		}
	}

	if j.notifier != nil {
		if digest := BuildDigest(result); digest != "" {
			if err := j.notifier.PublishDigest(ctx, digest); err != nil {
				errs = append(errs, fmt.Errorf("publish digest: %w", err))
			}
		}
	}

	return report, errors.Join(errs...)
}

// ExportName is the CSV file name for a run truncated to limit.
func ExportName(limit int) string {
	if limit <= 0 {
		return "all_rankings.csv"
	}
	return fmt.Sprintf("top_%d_rankings.csv", limit)
}

func (j *RankingJob) info(msg string, args ...any) {
	if j.logger != nil {
		j.logger.Info(msg, args...)
	}
}
