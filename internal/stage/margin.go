package stage

import (
	"context"

	"GrowthRanker/internal/domain"
)

// MarginScore maps an operating margin to a 1..5 score. Thresholds are
// exclusive, so a margin of exactly 0.30 scores 3.
func MarginScore(margin float64) int {
	switch {
	case margin > 0.40:
		return 5
	case margin > 0.30:
		return 4
	case margin > 0.20:
		return 3
	case margin > 0.10:
		return 2
	default:
		return 1
	}
}

// MarginStage derives margin_score from operating_margin.
type MarginStage struct{}

func (MarginStage) Name() string { return NameMargin }

func (MarginStage) Apply(_ context.Context, rec domain.Record) (domain.Update, error) {
	if rec.OperatingMargin == nil {
		return domain.Update{}, missing(NameMargin, "operating_margin")
	}
	return domain.Update{MarginScore: domain.Ptr(MarginScore(*rec.OperatingMargin))}, nil
}
