package stage

import (
	"context"

	"GrowthRanker/internal/domain"
)

// CompositeScore is the TAFGS: moat * margin * growth. A zero moat zeroes it.
func CompositeScore(moat, margin int, growth float64) float64 {
	return float64(moat*margin) * growth
}

// CompositeStage multiplies the sub-scores into final_score.
type CompositeStage struct{}

func (CompositeStage) Name() string { return NameComposite }

func (CompositeStage) Apply(_ context.Context, rec domain.Record) (domain.Update, error) {
	switch {
	case rec.MoatScore == nil:
		return domain.Update{}, missing(NameComposite, "moat_score")
	case rec.MarginScore == nil:
		return domain.Update{}, missing(NameComposite, "margin_score")
	case rec.GrowthForecast == nil:
		return domain.Update{}, missing(NameComposite, "growth_forecast")
	}

	score := CompositeScore(*rec.MoatScore, *rec.MarginScore, *rec.GrowthForecast)
	return domain.Update{FinalScore: &score}, nil
}
