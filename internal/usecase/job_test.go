package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrowthRanker/internal/domain"
)

type staticSource struct {
	companies []domain.Company
	err       error
	limit     int
}

func (s *staticSource) LoadCompanies(_ context.Context, limit int) ([]domain.Company, error) {
	s.limit = limit
	return s.companies, s.err
}

type memoryRepo struct {
	saved []domain.BatchResult
	err   error
}

func (m *memoryRepo) SaveBatch(_ context.Context, r domain.BatchResult) error {
	m.saved = append(m.saved, r)
	return m.err
}

func (m *memoryRepo) History(context.Context, string, int) ([]domain.ScoreSnapshot, error) {
	return nil, nil
}

type recordingExporter struct {
	name   string
	ranked int
}

func (r *recordingExporter) Export(_ context.Context, ranked []domain.Record, name string) (string, error) {
	r.name = name
	r.ranked = len(ranked)
	return "/out/" + name, nil
}

type recordingNotifier struct {
	digests []string
	err     error
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.digests = append(n.digests, digest)
	return n.err
}

func TestRankingJobRun(t *testing.T) {
	t.Parallel()

	c := &scriptedCompleter{answers: map[string]string{"NVIDIA": moat(5, "dominant"), "AMD": moat(3, "gpu")}}
	src := &staticSource{companies: []domain.Company{
		company("NVIDIA", "Compute", 0.6, 1.8),
		company("AMD", "Compute", 0.22, 1.5),
	}}
	repo := &memoryRepo{}
	exp := &recordingExporter{}
	notifier := &recordingNotifier{}

	job := NewRankingJob(JobDeps{
		Source:     src,
		Engine:     newTestEngine(c, EngineOptions{}),
		Repository: repo,
		Exporter:   exp,
		Notifier:   notifier,
	})

	report, err := job.Run(context.Background(), JobOptions{Limit: 20, Export: true})
	require.NoError(t, err)
	assert.Equal(t, 20, src.limit)
	assert.Len(t, report.Result.Ranked, 2)
	assert.Equal(t, "/out/top_20_rankings.csv", report.ExportPath)
	assert.Equal(t, 2, exp.ranked)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, report.Result.RunID, repo.saved[0].RunID)
	require.Len(t, notifier.digests, 1)
	assert.Contains(t, notifier.digests[0], "1. NVIDIA")
}

func TestRankingJobExportNameWithoutLimit(t *testing.T) {
	t.Parallel()

	exp := &recordingExporter{}
	job := NewRankingJob(JobDeps{
		Source:   &staticSource{companies: []domain.Company{company("NVIDIA", "Compute", 0.6, 1.8)}},
		Engine:   newTestEngine(&scriptedCompleter{answers: map[string]string{"NVIDIA": moat(5, "d")}}, EngineOptions{}),
		Exporter: exp,
	})

	report, err := job.Run(context.Background(), JobOptions{Limit: 0, Export: true})
	require.NoError(t, err)
	assert.Equal(t, "all_rankings.csv", exp.name)
	assert.Equal(t, "/out/all_rankings.csv", report.ExportPath)

	assert.Equal(t, "top_3_rankings.csv", ExportName(3))
	assert.Equal(t, "all_rankings.csv", ExportName(-1))
}

func TestRankingJobNoInputSkipsSideEffects(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{}
	job := NewRankingJob(JobDeps{
		Source:     &staticSource{},
		Engine:     newTestEngine(&scriptedCompleter{}, EngineOptions{}),
		Repository: repo,
	})

	report, err := job.Run(context.Background(), JobOptions{Limit: 5, Export: true})
	require.NoError(t, err)
	assert.True(t, report.Result.NoInput)
	assert.Empty(t, repo.saved)
}

func TestRankingJobJoinsSideEffectErrors(t *testing.T) {
	t.Parallel()

	persistErr := errors.New("db down")
	notifyErr := errors.New("telegram down")

	job := NewRankingJob(JobDeps{
		Source:     &staticSource{companies: []domain.Company{company("NVIDIA", "Compute", 0.6, 1.8)}},
		Engine:     newTestEngine(&scriptedCompleter{answers: map[string]string{"NVIDIA": moat(5, "d")}}, EngineOptions{}),
		Repository: &memoryRepo{err: persistErr},
		Notifier:   &recordingNotifier{err: notifyErr},
	})

	report, err := job.Run(context.Background(), JobOptions{Limit: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, persistErr)
	assert.ErrorIs(t, err, notifyErr)
	assert.Len(t, report.Result.Ranked, 1, "results survive side-effect failures")
}

func TestRankingJobLoaderError(t *testing.T) {
	t.Parallel()

	job := NewRankingJob(JobDeps{
		Source: &staticSource{err: errors.New("missing file")},
		Engine: newTestEngine(&scriptedCompleter{}, EngineOptions{}),
	})
	_, err := job.Run(context.Background(), JobOptions{})
	assert.ErrorContains(t, err, "load companies")

	_, err = NewRankingJob(JobDeps{}).Run(context.Background(), JobOptions{})
	assert.Error(t, err)
}

type manualDriver struct {
	job     func(time.Time)
	stopped atomic.Bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped.Store(true)
	return nil
}

func TestSchedulerRunsJob(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{}
	job := NewRankingJob(JobDeps{
		Source:     &staticSource{companies: []domain.Company{company("NVIDIA", "Compute", 0.6, 1.8)}},
		Engine:     newTestEngine(&scriptedCompleter{answers: map[string]string{"NVIDIA": moat(5, "d")}}, EngineOptions{}),
		Repository: repo,
	})

	driver := &manualDriver{}
	s := NewScheduler(driver, job, JobOptions{Limit: 10}, nil)
	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(time.Now())
	driver.job(time.Now())
	assert.Len(t, repo.saved, 2)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.stopped.Load())
}
