package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadfinder/internal/model"
)

// Pool is the part of pgxpool.Pool the ledger needs. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps the ledger in a shared Postgres database so several
// hosts can report runs to one place.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig tunes the connection pool. Zero values keep 4 max and 1 min.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	pgInsertRun = `INSERT INTO lead_runs (id, keywords, status, started_at) VALUES ($1, $2, $3, $4)`
	pgFinishRun = `UPDATE lead_runs SET status = $1, summary = $2, finished_at = $3 WHERE id = $4`
	pgGetRun    = `SELECT ` + ledgerColumns + ` FROM lead_runs WHERE id = $1`
)

// NewPostgres connects to dsn and verifies the connection.
func NewPostgres(ctx context.Context, dsn string, poolCfg *PoolConfig) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse dsn")
	}
	cfg.MaxConns, cfg.MinConns = 4, 1
	if poolCfg != nil && poolCfg.MaxConns > 0 {
		cfg.MaxConns = poolCfg.MaxConns
	}
	if poolCfg != nil && poolCfg.MinConns > 0 {
		cfg.MinConns = min(poolCfg.MinConns, cfg.MaxConns)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range map[string]string{
			"insert_run": pgInsertRun,
			"finish_run": pgFinishRun,
			"get_run":    pgGetRun,
		} {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS lead_runs (
	id          TEXT PRIMARY KEY,
	keywords    JSONB NOT NULL DEFAULT '[]'::jsonb,
	status      TEXT NOT NULL DEFAULT 'running',
	summary     JSONB,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS lead_runs_status_idx ON lead_runs(status);
CREATE INDEX IF NOT EXISTS lead_runs_started_idx ON lead_runs(started_at DESC);
`

// Migrate implements Store.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// CreateRun implements Store.
func (s *PostgresStore) CreateRun(ctx context.Context, keywords []string) (*model.Run, error) {
	run, encoded, err := newRun(keywords)
	if err != nil {
		return nil, err
	}
	if _, err := s.pool.Exec(ctx, pgInsertRun, run.ID, encoded, string(run.Status), run.StartedAt); err != nil {
		return nil, eris.Wrap(err, "postgres: record run")
	}
	return run, nil
}

// FinishRun implements Store.
func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error {
	summary, err := encodeSummary(result)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, pgFinishRun, string(status), summary, time.Now().UTC(), runID)
	if err != nil {
		return eris.Wrapf(err, "postgres: close out run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRunNotFound, "postgres: close out run %s", runID)
	}
	return nil
}

// GetRun implements Store.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	run, err := scanLedgerRow(s.pool.QueryRow(ctx, pgGetRun, runID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, eris.Wrapf(ErrRunNotFound, "postgres: load run %s", runID)
	case err != nil:
		return nil, eris.Wrapf(err, "postgres: load run %s", runID)
	}
	return run, nil
}

// ListRuns implements Store.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	var (
		q    strings.Builder
		args []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	q.WriteString(`SELECT ` + ledgerColumns + ` FROM lead_runs`)
	if filter.Status != "" {
		q.WriteString(` WHERE status = ` + bind(string(filter.Status)))
	}
	q.WriteString(` ORDER BY started_at DESC LIMIT ` + bind(listLimit(filter.Limit)))
	if filter.Offset > 0 {
		q.WriteString(` OFFSET ` + bind(filter.Offset))
	}

	rows, err := s.pool.Query(ctx, q.String(), args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanLedgerRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list runs")
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	return runs, nil
}
