package stage

import (
	"context"
	"fmt"
	"time"

	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/metrics"
)

// Runner executes margin -> moat -> composite -> report on one company.
type Runner struct {
	stages  []Stage
	metrics *metrics.Collector
	now     func() time.Time
}

// NewRunner builds the fixed four-stage chain around the given moat stage.
func NewRunner(moat Stage, m *metrics.Collector) *Runner {
	return &Runner{
		stages:  []Stage{MarginStage{}, moat, CompositeStage{}, ReportStage{}},
		metrics: m,
		now:     time.Now,
	}
}

// Stages lists stage names in execution order.
func (r *Runner) Stages() []string {
	names := make([]string, 0, len(r.stages))
	for _, st := range r.stages {
		names = append(names, st.Name())
	}
	return names
}

// Run threads a fresh record through every stage. The first stage error
// stops the chain and is returned with the partially filled record.
func (r *Runner) Run(ctx context.Context, company domain.Company) (domain.Record, error) {
	rec := domain.NewRecord(company)

	for _, st := range r.stages {
		started := r.now()
		update, err := st.Apply(ctx, rec)
		r.metrics.ObserveStage(st.Name(), r.now().Sub(started), err)
		if err != nil {
			return rec, fmt.Errorf("stage %s: %w", st.Name(), err)
		}
		rec.Merge(update)
	}

	rec.AnalyzedAt = r.now()
	return rec, nil
}
