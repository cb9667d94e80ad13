package usecase

import (
	"fmt"
	"io"
	"strings"

	"GrowthRanker/internal/domain"
)

const summaryPreview = 100

// RenderRankings prints the ranking table, sector table and failures.
func RenderRankings(w io.Writer, res domain.BatchResult) error {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintf(&b, "\nTOP %d AI FACTORY COMPANIES\n%s\n", len(res.Ranked), rule)
	for i, rec := range res.Ranked {
		fmt.Fprintf(&b, "%2d. %-25s Score: %7.2f Sector: %s\n", i+1, rec.CompanyName, rec.Score(), rec.SectorKey())
		if summary := rec.Summary(); summary != "" {
			fmt.Fprintf(&b, "    %s\n", preview(summary, summaryPreview))
		}
		b.WriteString(strings.Repeat("-", 60) + "\n")
	}

	fmt.Fprintf(&b, "\nSECTOR ANALYSIS\n%s\n", strings.Repeat("=", 40))
	for _, sector := range SectorOrder(res.Ranked) {
		s := res.Sectors[sector]
		fmt.Fprintf(&b, "%-25s Companies: %2d Avg Score: %6.2f\n", sector, s.Count, s.AvgScore)
	}

	if len(res.Failures) > 0 {
		fmt.Fprintf(&b, "\nFAILED (%d)\n", len(res.Failures))
		for _, rec := range res.Failures {
			fmt.Fprintf(&b, "  %s: %s\n", rec.CompanyName, rec.Error)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// BuildDigest renders a compact ranking for chat notifications.
func BuildDigest(res domain.BatchResult) string {
	if len(res.Ranked) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "AI Factory growth ranking (%d ranked, %d failed)\n", len(res.Ranked), len(res.Failures))
	for i, rec := range res.Ranked {
		fmt.Fprintf(&b, "%d. %s (%s) %.2f\n", i+1, rec.CompanyName, rec.SectorKey(), rec.Score())
	}
	return b.String()
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
