package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrowthRanker/internal/domain"
)

func TestRenderRankings(t *testing.T) {
	t.Parallel()

	nvidia := scored("NVIDIA", "Compute", 45)
	nvidia.ReportSummary = domain.Ptr(strings.Repeat("x", 150))
	ranked := []domain.Record{nvidia, scored("Vertiv", "Power", 9)}

	res := domain.BatchResult{
		Ranked:   ranked,
		Sectors:  SectorAnalysis(ranked),
		Failures: []domain.Record{domain.FailedRecord(domain.Company{Name: "Broadcom"}, assert.AnError)},
	}

	var b strings.Builder
	require.NoError(t, RenderRankings(&b, res))
	out := b.String()

	assert.Contains(t, out, "TOP 2 AI FACTORY COMPANIES")
	assert.Contains(t, out, " 1. NVIDIA                    Score:   45.00 Sector: Compute")
	assert.Contains(t, out, "    "+strings.Repeat("x", 100)+"...\n")
	assert.Contains(t, out, "Compute                   Companies:  1 Avg Score:  45.00")
	assert.Contains(t, out, "Broadcom: "+assert.AnError.Error())
	assert.Less(t, strings.Index(out, "Compute   "), strings.Index(out, "Power   "))
}

func TestBuildDigest(t *testing.T) {
	t.Parallel()

	assert.Empty(t, BuildDigest(domain.BatchResult{}))

	digest := BuildDigest(domain.BatchResult{Ranked: []domain.Record{scored("NVIDIA", "Compute", 45)}})
	assert.Contains(t, digest, "1. NVIDIA (Compute) 45.00")
}
