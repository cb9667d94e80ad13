package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/metrics"
)

// ErrBatchRunning is returned when Run is called while a batch is in flight.
var ErrBatchRunning = errors.New("batch already running")

// State of the batch engine: Idle -> Running -> Done. Done may start a new run.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// PipelineRunner scores one company; stage.Runner is the production implementation.
type PipelineRunner interface {
	Run(ctx context.Context, company domain.Company) (domain.Record, error)
}

// EngineOptions tunes pacing of outbound scorer calls.
type EngineOptions struct {
	// Delay is the minimum spacing between two record starts. Zero disables pacing.
	Delay time.Duration
	// Concurrency bounds in-flight records; values <= 1 run sequentially.
	Concurrency int
	Metrics     *metrics.Collector
	Logger      *slog.Logger
}

// Engine runs the pipeline over a batch, isolates per-record failures and
// aggregates the outcome.
type Engine struct {
	runner      PipelineRunner
	limiter     *rate.Limiter
	concurrency int
	metrics     *metrics.Collector
	logger      *slog.Logger
	state       atomic.Int32
	now         func() time.Time
	newRunID    func() string
}

// NewEngine constructs the batch engine.
func NewEngine(runner PipelineRunner, opts EngineOptions) *Engine {
	e := &Engine{
		runner:      runner,
		concurrency: opts.Concurrency,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		now:         time.Now,
		newRunID:    uuid.NewString,
	}
	if e.concurrency < 1 {
		e.concurrency = 1
	}
	if opts.Delay > 0 {
		e.limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}
	return e
}

// State reports the current engine state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Run scores every company, then ranks the successful ones and truncates to
// limit (limit <= 0 keeps all). An empty batch yields NoInput, not an error.
func (e *Engine) Run(ctx context.Context, companies []domain.Company, limit int) (domain.BatchResult, error) {
	if !e.begin() {
		return domain.BatchResult{}, ErrBatchRunning
	}
	defer e.state.Store(int32(StateDone))

	result := domain.BatchResult{
		RunID:          e.newRunID(),
		StartedAt:      e.now(),
		Sectors:        map[string]domain.SectorStats{},
		FailedBySector: map[string]int{},
	}

	if len(companies) == 0 {
		e.warn("batch has no input", "run_id", result.RunID, "error", domain.ErrNoInput)
		result.NoInput = true
		result.FinishedAt = e.now()
		return result, nil
	}

	e.info("batch started", "run_id", result.RunID, "records", len(companies), "concurrency", e.concurrency)

	result.Results = e.analyze(ctx, companies)
	result.Ranked = TopRankings(result.Results, limit)
	result.Sectors = SectorAnalysis(result.Ranked)
	result.Failures = Failures(result.Results)
	for _, f := range result.Failures {
		result.FailedBySector[f.SectorKey()]++
	}
	result.FinishedAt = e.now()

	e.metrics.BatchDone(len(result.Ranked))
	e.info("batch finished", "run_id", result.RunID,
		"ranked", len(result.Ranked), "failed", len(result.Failures),
		"elapsed", result.FinishedAt.Sub(result.StartedAt))

	return result, nil
}

func (e *Engine) begin() bool {
	for {
		cur := e.state.Load()
		if State(cur) == StateRunning {
			return false
		}
		if e.state.CompareAndSwap(cur, int32(StateRunning)) {
			return true
		}
	}
}

// analyze returns one record per company, in input order.
func (e *Engine) analyze(ctx context.Context, companies []domain.Company) []domain.Record {
	results := make([]domain.Record, len(companies))

	if e.concurrency == 1 {
		for i, company := range companies {
			results[i] = e.analyzeOne(ctx, i, len(companies), company)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, company := range companies {
		g.Go(func() error {
			results[i] = e.analyzeOne(ctx, i, len(companies), company)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// analyzeOne never fails: errors and panics become failed records.
func (e *Engine) analyzeOne(ctx context.Context, idx, total int, company domain.Company) (rec domain.Record) {
	defer func() {
		if r := recover(); r != nil {
			rec = e.failed(company, fmt.Errorf("panic: %v", r))
		}
	}()

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return e.failed(company, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	e.debug("analyzing", "index", idx+1, "total", total, "company", company.Name)

	rec, err := e.runner.Run(ctx, company)
	if err != nil {
		return e.failed(company, err)
	}

	e.metrics.RecordResult(domain.StatusScored)
	return rec
}

func (e *Engine) failed(company domain.Company, err error) domain.Record {
	e.warn("record failed", "company", company.Name, "error", err)
	e.metrics.RecordResult(domain.StatusFailed)

	rec := domain.FailedRecord(company, err)
	rec.AnalyzedAt = e.now()
	return rec
}

func (e *Engine) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e *Engine) info(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

func (e *Engine) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
