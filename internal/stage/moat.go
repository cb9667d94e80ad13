package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/metrics"
	"GrowthRanker/internal/ports"
)

// DefaultMoatTimeout bounds a single collaborator call.
const DefaultMoatTimeout = 30 * time.Second

const moatPromptTemplate = `You are a Senior Equity Research Analyst. Your task is to score the 'Moat' of a company
contributing to the AI Factory Capital Stack.

Company: %s
Sector: %s

Criteria for Moat Score (0-5):
1. Architectural lock-in (e.g., proprietary standards like CUDA)
2. Ecosystem dominance (design wins, reference architectures)
3. Switching costs / standard-setting influence
4. Scarcity or bottleneck position in the supply chain

Analysis Task:
- Briefly describe the company's differentiation in the AI Factory ecosystem.
- Assign a Moat Score from 0 to 5 based on the criteria above.

Return ONLY a JSON object in this format:
{
  "moat_score": integer,
  "narrative": "string summary"
}
`

// MoatPrompt renders the fixed moat prompt for one company.
func MoatPrompt(company, sector string) string {
	if sector == "" {
		sector = domain.UnknownSector
	}
	return fmt.Sprintf(moatPromptTemplate, company, sector)
}

// MoatStage asks the language model for a defensibility score and narrative.
type MoatStage struct {
	completer ports.Completer
	timeout   time.Duration
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// NewMoatStage wires the collaborator; timeout <= 0 falls back to DefaultMoatTimeout.
func NewMoatStage(completer ports.Completer, timeout time.Duration, m *metrics.Collector, logger *slog.Logger) *MoatStage {
	if timeout <= 0 {
		timeout = DefaultMoatTimeout
	}
	return &MoatStage{
		completer: completer,
		timeout:   timeout,
		metrics:   m,
		logger:    logger,
	}
}

func (s *MoatStage) Name() string { return NameMoat }

// Apply performs exactly one collaborator call. Malformed answers degrade to
// a zero score; transport errors and timeouts are returned.
func (s *MoatStage) Apply(ctx context.Context, rec domain.Record) (domain.Update, error) {
	if rec.CompanyName == "" {
		return domain.Update{}, missing(NameMoat, "company_name")
	}
	if s.completer == nil {
		return domain.Update{}, errors.New("moat stage: no scorer configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.completer.Complete(callCtx, MoatPrompt(rec.CompanyName, rec.Sector))
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return domain.Update{}, fmt.Errorf("%w after %s: %w", domain.ErrScorerTimeout, s.timeout, err)
		}
		return domain.Update{}, fmt.Errorf("moat scorer: %w", err)
	}

	parsed := ParseMoatResponse(raw)
	s.metrics.MoatParse(parsed.Outcome.String())
	if !parsed.OK() {
		s.warn("moat response is not valid JSON", "company", rec.CompanyName, "bytes", len(raw))
	}

	return domain.Update{
		MoatScore:     domain.Ptr(parsed.Score),
		ReportSummary: domain.Ptr(parsed.Narrative),
	}, nil
}

func (s *MoatStage) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
