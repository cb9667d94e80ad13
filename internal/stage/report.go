package stage

import (
	"context"
	"fmt"

	"GrowthRanker/internal/domain"
)

// FormatReport renders the investor-facing one-liner.
func FormatReport(company string, score float64, summary string) string {
	return fmt.Sprintf("Ranked Profile for %s: Score %.2f. Moat Summary: %s", company, score, summary)
}

// ReportStage renders the report field from the scored record.
type ReportStage struct{}

func (ReportStage) Name() string { return NameReport }

func (ReportStage) Apply(_ context.Context, rec domain.Record) (domain.Update, error) {
	if rec.FinalScore == nil {
		return domain.Update{}, missing(NameReport, "final_score")
	}
	if rec.ReportSummary == nil {
		return domain.Update{}, missing(NameReport, "report_summary")
	}

	report := FormatReport(rec.CompanyName, *rec.FinalScore, *rec.ReportSummary)
	return domain.Update{Report: &report}, nil
}
