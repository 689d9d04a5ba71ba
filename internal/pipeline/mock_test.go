package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadfinder/internal/domaincheck"
	"github.com/sells-group/leadfinder/internal/model"
)

// --- Domain checker mock ---

type mockDomainChecker struct {
	mock.Mock
}

func (m *mockDomainChecker) CheckAll(ctx context.Context, names []string) ([]domaincheck.Result, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domaincheck.Result), args.Error(1)
}

// --- Publisher mock ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, t *Table) (Outcome, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(Outcome), args.Error(1)
}

// staticDomains answers every name with the same statuses.
type staticDomains struct {
	pl, com model.DomainStatus
}

func (s staticDomains) CheckAll(_ context.Context, names []string) ([]domaincheck.Result, error) {
	out := make([]domaincheck.Result, len(names))
	for i := range out {
		out[i] = domaincheck.Result{PL: s.pl, COM: s.com}
	}
	return out, nil
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
