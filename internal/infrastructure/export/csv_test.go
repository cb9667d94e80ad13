package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrowthRanker/internal/domain"
)

func TestCSVExporterWritesRankedRows(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "output")
	ranked := []domain.Record{
		{
			CompanyName:     "NVIDIA",
			Sector:          "Compute",
			OperatingMargin: domain.Ptr(0.6),
			GrowthForecast:  domain.Ptr(1.8),
			MarginScore:     domain.Ptr(5),
			MoatScore:       domain.Ptr(5),
			FinalScore:      domain.Ptr(45.0),
			ReportSummary:   domain.Ptr("dominant, \"CUDA\""),
			AnalyzedAt:      time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		},
		{CompanyName: "Vertiv", FinalScore: domain.Ptr(12.5)},
	}

	path, err := NewCSVExporter(dir).Export(context.Background(), ranked, "top_2_rankings.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "top_2_rankings.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"1", "NVIDIA", "Compute", "0.6", "1.8", "5", "5", "45.00", "dominant, \"CUDA\"", "", "2026-10-18T09:00:00Z"}, rows[1])
	assert.Equal(t, "Unknown", rows[2][2])
	assert.Equal(t, "12.50", rows[2][7])
}

func TestCSVExporterCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCSVExporter(t.TempDir()).Export(ctx, nil, "x.csv")
	assert.ErrorIs(t, err, context.Canceled)
}
