package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/ports"
)

const resultsTable = "ranking_results"

const schema = `CREATE TABLE IF NOT EXISTS ranking_results (
    id             BIGSERIAL PRIMARY KEY,
    run_id         UUID        NOT NULL,
    company_name   TEXT        NOT NULL,
    sector         TEXT        NOT NULL,
    status         TEXT        NOT NULL,
    rank           INT,
    final_score    DOUBLE PRECISION NOT NULL,
    moat_score     INT,
    margin_score   INT,
    report_summary TEXT,
    error          TEXT,
    analyzed_at    TIMESTAMPTZ NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists ranked and failed records of each run.
type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.ResultRepository = (*PostgresRepository)(nil)

// Open connects to Postgres through lib/pq.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// EnsureSchema creates the results table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveBatch inserts the ranked records (with their rank) and the failures of one run.
func (r *PostgresRepository) SaveBatch(ctx context.Context, result domain.BatchResult) error {
	if r.db == nil || len(result.Ranked)+len(result.Failures) == 0 {
		return nil
	}

	insert := psql.Insert(resultsTable).Columns(
		"run_id", "company_name", "sector", "status", "rank", "final_score",
		"moat_score", "margin_score", "report_summary", "error", "analyzed_at",
	)

	for i, rec := range result.Ranked {
		insert = insert.Values(
			result.RunID, rec.CompanyName, rec.SectorKey(), domain.StatusScored, i+1, rec.Score(),
			nullInt(rec.MoatScore), nullInt(rec.MarginScore), nullString(rec.ReportSummary), nil,
			r.analyzedAt(rec),
		)
	}
	for _, rec := range result.Failures {
		insert = insert.Values(
			result.RunID, rec.CompanyName, rec.SectorKey(), domain.StatusFailed, nil, rec.Score(),
			nullInt(rec.MoatScore), nullInt(rec.MarginScore), nullString(rec.ReportSummary), rec.Error,
			r.analyzedAt(rec),
		)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert results: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}

	return nil
}

// History returns the most recent scores of a company, newest first.
func (r *PostgresRepository) History(ctx context.Context, company string, limit int) ([]domain.ScoreSnapshot, error) {
	if r.db == nil {
		return nil, nil
	}

	q := psql.Select(
		"run_id", "company_name", "sector", "status", "final_score",
		"COALESCE(moat_score, 0)", "COALESCE(margin_score, 0)", "COALESCE(error, '')", "analyzed_at",
	).From(resultsTable).
		Where(sq.Eq{"company_name": company}).
		OrderBy("analyzed_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	var snapshots []domain.ScoreSnapshot
	for rows.Next() {
		var s domain.ScoreSnapshot
		var status string
		if err := rows.Scan(&s.RunID, &s.CompanyName, &s.Sector, &status, &s.FinalScore,
			&s.MoatScore, &s.MarginScore, &s.Error, &s.AnalyzedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Status = domain.ResultStatus(status)
		snapshots = append(snapshots, s)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return snapshots, nil
}

func (r *PostgresRepository) analyzedAt(rec domain.Record) time.Time {
	if rec.AnalyzedAt.IsZero() {
		return r.now()
	}
	return rec.AnalyzedAt
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
