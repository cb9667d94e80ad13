package stage

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/metrics"
)

type fakeCompleter struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

type blockingCompleter struct{}

func (blockingCompleter) Complete(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestMarginScoreThresholds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		margin float64
		want   int
	}{
		{-0.5, 1},
		{0, 1},
		{0.10, 1},
		{0.10001, 2},
		{0.20, 2},
		{0.20001, 3},
		{0.30, 3},
		{0.30001, 4},
		{0.40, 4},
		{0.40001, 5},
		{0.60, 5},
		{3, 5},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.want, MarginScore(tc.margin), "margin %v", tc.margin)
	}
}

func TestMarginScoreMonotonic(t *testing.T) {
	t.Parallel()

	prev := MarginScore(-1)
	for m := -1.0; m <= 1.0; m += 0.001 {
		got := MarginScore(m)
		require.GreaterOrEqual(t, got, prev, "margin %v", m)
		require.True(t, got >= 1 && got <= 5)
		prev = got
	}
	assert.Equal(t, 1, MarginScore(math.NaN()))
}

func TestMarginStageRequiresMargin(t *testing.T) {
	t.Parallel()

	_, err := MarginStage{}.Apply(context.Background(), domain.Record{CompanyName: "X"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingField)

	var mfe *MissingFieldError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, "operating_margin", mfe.Field)
}

func TestParseMoatResponse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		raw       string
		score     int
		narrative string
		outcome   ParseOutcome
	}{
		{"raw", `{"moat_score": 5, "narrative": "dominant"}`, 5, "dominant", ParsedRaw},
		{"raw with whitespace", "\n  {\"moat_score\": 2, \"narrative\": \"thin\"}\n", 2, "thin", ParsedRaw},
		{"json fence", "```json\n{\"moat_score\": 4, \"narrative\": \"sticky\"}\n```", 4, "sticky", ParsedFenced},
		{"bare fence", "```\n{\"moat_score\": 3, \"narrative\": \"ok\"}\n```", 3, "ok", ParsedFenced},
		{"upper tag", "```JSON {\"moat_score\": 1, \"narrative\": \"weak\"} ```", 1, "weak", ParsedFenced},
		{"zero score", `{"moat_score": 0, "narrative": "none"}`, 0, "none", ParsedRaw},
		{"prose", "Sorry, I can't help.", 0, FallbackNarrative, ParseFailed},
		{"empty", "", 0, FallbackNarrative, ParseFailed},
		{"fenced prose", "```json\nnot json\n```", 0, FallbackNarrative, ParseFailed},
		{"missing narrative", `{"moat_score": 3}`, 0, FallbackNarrative, ParseFailed},
		{"extra field", `{"moat_score": 3, "narrative": "x", "confidence": 1}`, 0, FallbackNarrative, ParseFailed},
		{"float score", `{"moat_score": 3.5, "narrative": "x"}`, 0, FallbackNarrative, ParseFailed},
		{"string score", `{"moat_score": "3", "narrative": "x"}`, 0, FallbackNarrative, ParseFailed},
		{"out of range", `{"moat_score": 7, "narrative": "x"}`, 0, FallbackNarrative, ParseFailed},
		{"negative", `{"moat_score": -1, "narrative": "x"}`, 0, FallbackNarrative, ParseFailed},
		{"trailing text", `{"moat_score": 3, "narrative": "x"} thanks`, 0, FallbackNarrative, ParseFailed},
		{"array", `[{"moat_score": 3, "narrative": "x"}]`, 0, FallbackNarrative, ParseFailed},
		{"case-folded keys", `{"MOAT_SCORE": 5, "Narrative": "x"}`, 0, FallbackNarrative, ParseFailed},
		{"duplicate score", `{"moat_score": 1, "moat_score": 5, "narrative": "x"}`, 0, FallbackNarrative, ParseFailed},
		{"duplicate narrative", `{"moat_score": 1, "narrative": "a", "narrative": "b"}`, 0, FallbackNarrative, ParseFailed},
		{"null score", `{"moat_score": null, "narrative": "x"}`, 0, FallbackNarrative, ParseFailed},
		{"null narrative", `{"moat_score": 2, "narrative": null}`, 0, FallbackNarrative, ParseFailed},
		{"two objects", `{"moat_score": 2, "narrative": "x"}{"moat_score": 3, "narrative": "y"}`, 0, FallbackNarrative, ParseFailed},
		{"reordered keys", `{"narrative": "x", "moat_score": 4}`, 4, "x", ParsedRaw},
		{"fenced duplicate", "```json\n{\"moat_score\": 1, \"moat_score\": 5, \"narrative\": \"x\"}\n```", 0, FallbackNarrative, ParseFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ParseMoatResponse(tc.raw)
			assert.Equal(t, tc.score, got.Score)
			assert.Equal(t, tc.narrative, got.Narrative)
			assert.Equal(t, tc.outcome, got.Outcome)
			assert.Equal(t, tc.outcome != ParseFailed, got.OK())
		})
	}
}

func TestMoatStagePromptAndMerge(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{answer: `{"moat_score": 5, "narrative": "dominant"}`}
	st := NewMoatStage(fake, time.Second, nil, nil)

	update, err := st.Apply(context.Background(), domain.Record{CompanyName: "NVIDIA", Sector: "Compute"})
	require.NoError(t, err)
	require.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "Company: NVIDIA")
	assert.Contains(t, fake.prompts[0], "Sector: Compute")
	assert.Contains(t, fake.prompts[0], "Architectural lock-in")

	require.NotNil(t, update.MoatScore)
	assert.Equal(t, 5, *update.MoatScore)
	assert.Equal(t, "dominant", *update.ReportSummary)
	assert.Nil(t, update.MarginScore)
	assert.Nil(t, update.FinalScore)
}

func TestMoatStageFallbackCountsMetric(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	st := NewMoatStage(&fakeCompleter{answer: "Sorry, I can't help."}, time.Second, m, nil)

	update, err := st.Apply(context.Background(), domain.Record{CompanyName: "NVIDIA"})
	require.NoError(t, err)
	assert.Equal(t, 0, *update.MoatScore)
	assert.Equal(t, FallbackNarrative, *update.ReportSummary)

	expected := `
# HELP growthranker_moat_parse_total Moat response parse outcomes
# TYPE growthranker_moat_parse_total counter
growthranker_moat_parse_total{outcome="fallback"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "growthranker_moat_parse_total"))
}

func TestMoatStageTransportError(t *testing.T) {
	t.Parallel()

	st := NewMoatStage(&fakeCompleter{err: errors.New("503")}, time.Second, nil, nil)
	_, err := st.Apply(context.Background(), domain.Record{CompanyName: "AMD"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrScorerTimeout)
	assert.Contains(t, err.Error(), "503")
}

func TestMoatStageTimeout(t *testing.T) {
	t.Parallel()

	st := NewMoatStage(blockingCompleter{}, 20*time.Millisecond, nil, nil)
	_, err := st.Apply(context.Background(), domain.Record{CompanyName: "AMD"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrScorerTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCompositeStage(t *testing.T) {
	t.Parallel()

	rec := domain.Record{
		MoatScore:      domain.Ptr(3),
		MarginScore:    domain.Ptr(4),
		GrowthForecast: domain.Ptr(1.25),
	}
	update, err := CompositeStage{}.Apply(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, float64(3*4)*1.25, *update.FinalScore)

	rec.GrowthForecast = nil
	_, err = CompositeStage{}.Apply(context.Background(), rec)
	assert.ErrorIs(t, err, domain.ErrMissingField)
	assert.Contains(t, err.Error(), "growth_forecast")
}

func TestCompositeZeroMoat(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, CompositeScore(0, 5, 2.5))
}

func TestReportStage(t *testing.T) {
	t.Parallel()

	rec := domain.Record{
		CompanyName:   "NVIDIA",
		FinalScore:    domain.Ptr(45.0),
		ReportSummary: domain.Ptr("dominant"),
	}
	update, err := ReportStage{}.Apply(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "Ranked Profile for NVIDIA: Score 45.00. Moat Summary: dominant", *update.Report)

	_, err = ReportStage{}.Apply(context.Background(), domain.Record{CompanyName: "NVIDIA"})
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestRunnerEndToEnd(t *testing.T) {
	t.Parallel()

	company := domain.Company{
		Name:            "NVIDIA",
		Sector:          "Compute",
		OperatingMargin: domain.Ptr(0.60),
		GrowthForecast:  domain.Ptr(1.80),
	}

	r := NewRunner(NewMoatStage(&fakeCompleter{answer: `{"moat_score": 5, "narrative": "dominant"}`}, time.Second, nil, nil), metrics.New())
	assert.Equal(t, []string{NameMargin, NameMoat, NameComposite, NameReport}, r.Stages())

	rec, err := r.Run(context.Background(), company)
	require.NoError(t, err)
	assert.Equal(t, 5, *rec.MarginScore)
	assert.Equal(t, 5, *rec.MoatScore)
	assert.InDelta(t, 45.0, *rec.FinalScore, 1e-9)
	assert.Equal(t, float64(*rec.MoatScore**rec.MarginScore)**rec.GrowthForecast, *rec.FinalScore)
	assert.True(t, strings.HasPrefix(*rec.Report, "Ranked Profile for NVIDIA: Score 45.00"))
	assert.False(t, rec.AnalyzedAt.IsZero())
	assert.False(t, rec.Failed())
}

func TestRunnerUnparseableMoatZeroesScore(t *testing.T) {
	t.Parallel()

	company := domain.Company{
		Name:            "NVIDIA",
		Sector:          "Compute",
		OperatingMargin: domain.Ptr(0.60),
		GrowthForecast:  domain.Ptr(1.80),
	}

	r := NewRunner(NewMoatStage(&fakeCompleter{answer: "Sorry, I can't help."}, time.Second, nil, nil), nil)
	rec, err := r.Run(context.Background(), company)
	require.NoError(t, err)
	assert.Equal(t, 0, *rec.MoatScore)
	assert.Equal(t, 0.0, *rec.FinalScore)
	assert.Equal(t, FallbackNarrative, rec.Summary())
}

func TestRunnerPropagatesStageError(t *testing.T) {
	t.Parallel()

	company := domain.Company{Name: "Broadcom", Sector: "Networking", OperatingMargin: domain.Ptr(0.35)}
	fake := &fakeCompleter{answer: `{"moat_score": 4, "narrative": "custom silicon"}`}

	rec, err := NewRunner(NewMoatStage(fake, time.Second, nil, nil), nil).Run(context.Background(), company)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingField)
	assert.Contains(t, err.Error(), "stage composite")
	assert.Equal(t, 4, *rec.MarginScore)
	assert.Nil(t, rec.FinalScore)
	assert.Len(t, fake.prompts, 1)
}
