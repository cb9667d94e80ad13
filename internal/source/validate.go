package source

import (
	"fmt"
	"math"
	"strings"

	"GrowthRanker/internal/domain"
)

// Validate rejects rows the pipeline must never see. Absent numeric inputs
// are allowed; the stages report them as missing fields.
func Validate(c domain.Company) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("company_name is empty")
	}
	if g := c.GrowthForecast; g != nil && (!(*g > 0) || math.IsInf(*g, 1)) {
		return fmt.Errorf("%s: growth_forecast must be a positive finite number, got %v", c.Name, *g)
	}
	if m := c.OperatingMargin; m != nil && (math.IsNaN(*m) || math.IsInf(*m, 0)) {
		return fmt.Errorf("%s: operating_margin must be finite, got %v", c.Name, *m)
	}
	return nil
}
