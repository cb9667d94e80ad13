package parser

import (
	"context"
	"fmt"
	"log/slog"

	"GrowthRanker/internal/config"
	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/ports"
	"GrowthRanker/internal/source"
)

// StrategySource implements CompanySource via registered loaders.
type StrategySource struct {
	registry *source.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.CompanySource = (*StrategySource)(nil)

// NewStrategySource wires the loader registry with config-defined sources.
func NewStrategySource(reg *source.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// LoadCompanies reads every configured source in order, drops invalid rows
// and truncates to limit (limit <= 0 keeps everything).
func (s *StrategySource) LoadCompanies(ctx context.Context, limit int) ([]domain.Company, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("loader registry is not configured")
	}

	s.debug("load companies", "sources", len(s.sources), "limit", limit)

	var aggregated []domain.Company
	for _, src := range s.sources {
		loader, err := s.registry.Resolve(src.Loader)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		req := source.Request{
			SourceName: src.Name,
			Path:       src.Path,
			URL:        src.URL,
			Options:    src.Options,
		}

		results, err := loader.Load(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("load source %s: %w", src.Name, err)
		}

		accepted := 0
		for _, company := range results {
			if err := source.Validate(company); err != nil {
				s.warn("reject company", "source", src.Name, "error", err)
				continue
			}
			aggregated = append(aggregated, company)
			accepted++
		}
		s.debug("source produced companies", "source", src.Name, "count", accepted)

		if limit > 0 && len(aggregated) >= limit {
			break
		}
	}

	if limit > 0 && len(aggregated) > limit {
		aggregated = aggregated[:limit]
	}

	s.debug("strategy source done", "total_companies", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
