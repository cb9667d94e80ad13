package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"GrowthRanker/internal/config"
	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/infrastructure/export"
	"GrowthRanker/internal/infrastructure/llm"
	"GrowthRanker/internal/infrastructure/ml"
	"GrowthRanker/internal/infrastructure/parser"
	"GrowthRanker/internal/infrastructure/scheduler"
	"GrowthRanker/internal/infrastructure/storage"
	"GrowthRanker/internal/infrastructure/telegram"
	"GrowthRanker/internal/logging"
	"GrowthRanker/internal/metrics"
	"GrowthRanker/internal/ports"
	"GrowthRanker/internal/source"
	"GrowthRanker/internal/stage"
	"GrowthRanker/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	metrics    *metrics.Collector
	job        *usecase.RankingJob
	repository ports.ResultRepository
	db         *sql.DB
}

// Options override pieces of the wiring, mostly for tests and CLI flags.
type Options struct {
	// Completer replaces the provider-selected moat collaborator.
	Completer ports.Completer
	// Concurrency overrides batch.concurrency when > 0.
	Concurrency int
}

// New builds the application from config. Persistence and notifications are
// enabled only when configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	collector := metrics.New()

	completer := opts.Completer
	if completer == nil {
		var err error
		completer, err = newCompleter(ctx, cfg.LLM)
		if err != nil {
			return nil, err
		}
	}
	if cfg.LLM.Breaker.Enabled {
		completer = llm.NewBreaker("moat-"+cfg.LLM.Provider, completer, cfg.LLM.Breaker)
	}

	moat := stage.NewMoatStage(completer, cfg.LLM.Timeout, collector, baseLogger.With("component", "stage.moat"))
	runner := stage.NewRunner(moat, collector)

	concurrency := cfg.Batch.Concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}
	engine := usecase.NewEngine(runner, usecase.EngineOptions{
		Delay:       cfg.Batch.Delay,
		Concurrency: concurrency,
		Metrics:     collector,
		Logger:      baseLogger.With("component", "batch"),
	})

	registry := source.NewRegistry(
		parser.NewJSONLoader(nil),
		parser.NewCSVLoader(nil),
		parser.NewHTMLLoader(nil),
	)
	src := parser.NewStrategySource(registry, cfg.Sources, baseLogger.With("component", "source"))

	a := &Application{cfg: cfg, logger: baseLogger, metrics: collector}

	deps := usecase.JobDeps{
		Source:   src,
		Engine:   engine,
		Exporter: export.NewCSVExporter(cfg.Export.Dir),
		Logger:   baseLogger.With("component", "job"),
	}

	if cfg.Database.DSN != "" {
		db, err := storage.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.db = db
		a.repository = repo
		deps.Repository = repo
	}

	if notifier := telegram.NewNotifier(cfg.Notifications.Telegram); notifier.Enabled() {
		deps.Notifier = notifier
	}

	a.job = usecase.NewRankingJob(deps)
	return a, nil
}

func newCompleter(ctx context.Context, cfg config.LLMConfig) (ports.Completer, error) {
	switch cfg.Provider {
	case config.ProviderGemini, "":
		return llm.NewGeminiClient(ctx, cfg)
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("openai provider requires OPENAI_API_KEY")
		}
		return llm.NewChatGPTClient(cfg), nil
	case config.ProviderInference:
		return ml.NewClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// Logger returns the base application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Metrics exposes the collector for the /metrics endpoint.
func (a *Application) Metrics() *metrics.Collector {
	return a.metrics
}

// Rank performs a single ranking run.
func (a *Application) Rank(ctx context.Context, opts usecase.JobOptions) (usecase.JobReport, error) {
	return a.job.Run(ctx, opts)
}

// History returns stored snapshots for one company. Requires a database.
func (a *Application) History(ctx context.Context, company string, limit int) ([]domain.ScoreSnapshot, error) {
	if a.repository == nil {
		return nil, errors.New("history requires database.dsn")
	}
	return a.repository.History(ctx, company, limit)
}

// Schedule runs the ranking job every scheduler.interval until ctx is done.
func (a *Application) Schedule(ctx context.Context, opts usecase.JobOptions) error {
	driver := scheduler.NewTickerScheduler(a.cfg.Scheduler.Interval, a.cfg.Scheduler.Location())
	s := usecase.NewScheduler(driver, a.job, opts, a.logger.With("component", "scheduler"))

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.LLM.Timeout+a.cfg.Batch.Delay)
	defer cancel()
	return s.Stop(stopCtx)
}

// Close releases the database handle, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
