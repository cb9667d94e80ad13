package ports

import (
	"context"
	"time"

	"GrowthRanker/internal/domain"
)

// Completer sends a prompt to a language model and returns its raw text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompanySource loads the ordered list of companies to rank.
type CompanySource interface {
	LoadCompanies(ctx context.Context, limit int) ([]domain.Company, error)
}

// ResultRepository persists batch results for history.
type ResultRepository interface {
	SaveBatch(ctx context.Context, result domain.BatchResult) error
	History(ctx context.Context, company string, limit int) ([]domain.ScoreSnapshot, error)
}

// Exporter writes ranked records to an external format and returns its location.
type Exporter interface {
	Export(ctx context.Context, ranked []domain.Record, name string) (string, error)
}

// Notifier streams ranking digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when ranking runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
