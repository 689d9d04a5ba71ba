// Package store is the run ledger: one row per pipeline invocation.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadfinder/internal/model"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = eris.New("store: run not found")

// RunFilter narrows ListRuns. A zero Limit means 100.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store records pipeline runs.
type Store interface {
	CreateRun(ctx context.Context, keywords []string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open returns a migrated store for driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch strings.ToLower(driver) {
	case "", "sqlite":
		st, err = NewSQLite(dsn)
	case "postgres", "postgresql":
		st, err = NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// ledgerColumns is the select list both backends scan with scanLedgerRow.
const ledgerColumns = `id, keywords, status, summary, started_at, finished_at`

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}

// newRun builds the ledger entry for a run that starts now.
func newRun(keywords []string) (*model.Run, []byte, error) {
	if keywords == nil {
		keywords = []string{}
	}
	encoded, err := json.Marshal(keywords)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: encode keywords")
	}
	return &model.Run{
		ID:        uuid.NewString(),
		Keywords:  keywords,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}, encoded, nil
}

// encodeSummary returns nil for a nil result so the column stays NULL.
func encodeSummary(result *model.RunResult) ([]byte, error) {
	if result == nil {
		return nil, nil
	}
	data, err := json.Marshal(result)
	return data, eris.Wrap(err, "store: encode summary")
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanLedgerRow reads one ledger row. The driver's no-rows error is returned
// as is so each backend can map it to ErrRunNotFound.
func scanLedgerRow(row rowScanner) (*model.Run, error) {
	var (
		r        model.Run
		status   string
		keywords []byte
		summary  []byte
	)
	if err := row.Scan(&r.ID, &keywords, &status, &summary, &r.StartedAt, &r.FinishedAt); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)

	if err := json.Unmarshal(keywords, &r.Keywords); err != nil {
		return nil, eris.Wrapf(err, "store: decode keywords of run %s", r.ID)
	}
	if len(summary) > 0 {
		r.Summary = &model.RunResult{}
		if err := json.Unmarshal(summary, r.Summary); err != nil {
			return nil, eris.Wrapf(err, "store: decode summary of run %s", r.ID)
		}
	}
	return &r, nil
}
