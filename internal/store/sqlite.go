package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadfinder/internal/model"
)

// SQLiteStore is the single-file ledger used by default.
type SQLiteStore struct {
	db *sql.DB
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// NewSQLite opens the ledger file at path in WAL mode.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: open %s", path)
	}
	// Pragmas hold per connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range sqlitePragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS lead_runs (
	id          TEXT PRIMARY KEY,
	keywords    TEXT NOT NULL DEFAULT '[]',
	status      TEXT NOT NULL DEFAULT 'running',
	summary     TEXT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);
CREATE INDEX IF NOT EXISTS lead_runs_status_idx ON lead_runs(status);
CREATE INDEX IF NOT EXISTS lead_runs_started_idx ON lead_runs(started_at);
`

// Migrate implements Store.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun implements Store.
func (s *SQLiteStore) CreateRun(ctx context.Context, keywords []string) (*model.Run, error) {
	run, encoded, err := newRun(keywords)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO lead_runs (id, keywords, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, string(encoded), string(run.Status), run.StartedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: record run")
	}
	return run, nil
}

// FinishRun implements Store.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error {
	summary, err := encodeSummary(result)
	if err != nil {
		return err
	}
	var summaryText sql.NullString
	if summary != nil {
		summaryText = sql.NullString{String: string(summary), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE lead_runs SET status = ?, summary = ?, finished_at = ? WHERE id = ?`,
		string(status), summaryText, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: close out run %s", runID)
	}
	if n, err := res.RowsAffected(); err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	} else if n == 0 {
		return eris.Wrapf(ErrRunNotFound, "sqlite: close out run %s", runID)
	}
	return nil
}

// GetRun implements Store.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	run, err := scanLedgerRow(s.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM lead_runs WHERE id = ?`, runID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, eris.Wrapf(ErrRunNotFound, "sqlite: load run %s", runID)
	case err != nil:
		return nil, eris.Wrapf(err, "sqlite: load run %s", runID)
	}
	return run, nil
}

// ListRuns implements Store. SQLite needs a LIMIT before OFFSET, so both are
// always bound.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM lead_runs
		 WHERE (? = '' OR status = ?)
		 ORDER BY started_at DESC LIMIT ? OFFSET ?`,
		string(filter.Status), string(filter.Status), listLimit(filter.Limit), max(filter.Offset, 0),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		run, err := scanLedgerRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: list runs")
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	return runs, nil
}
