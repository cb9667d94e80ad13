package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/ports"
)

var header = []string{
	"rank", "company_name", "sector", "operating_margin", "growth_forecast",
	"margin_score", "moat_score", "final_score", "report_summary", "report", "analyzed_at",
}

// CSVExporter writes ranked records under a fixed directory.
type CSVExporter struct {
	dir string
}

var _ ports.Exporter = (*CSVExporter)(nil)

func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{dir: dir}
}

// Export writes ranked to <dir>/<name> and returns the file path.
func (e *CSVExporter) Export(ctx context.Context, ranked []domain.Record, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(e.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write header: %w", err)
	}
	for i, rec := range ranked {
		if err := w.Write(row(i+1, rec)); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write %s: %w", rec.CompanyName, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("flush csv: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func row(rank int, rec domain.Record) []string {
	analyzed := ""
	if !rec.AnalyzedAt.IsZero() {
		analyzed = rec.AnalyzedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		strconv.Itoa(rank),
		rec.CompanyName,
		rec.SectorKey(),
		formatFloat(rec.OperatingMargin),
		formatFloat(rec.GrowthForecast),
		formatInt(rec.MarginScore),
		formatInt(rec.MoatScore),
		strconv.FormatFloat(rec.Score(), 'f', 2, 64),
		rec.Summary(),
		deref(rec.Report),
		analyzed,
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
