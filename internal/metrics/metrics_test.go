package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddLeads("loaded", 3)
		m.ObserveLookup("pl", "available", time.Second)
		m.IncMemoHit()
		m.IncSourceError()
		m.ObserveRun("complete", time.Minute)
		require.NoError(t, m.WriteTextfile("/nonexistent/x.prom"))
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.AddLeads("loaded", 5)
	m.AddLeads("loaded", 2)
	m.ObserveLookup("pl", "registered", 10*time.Millisecond)
	m.ObserveLookup("pl", "registered", 10*time.Millisecond)
	m.IncMemoHit()
	m.IncSourceError()
	m.ObserveRun("empty", time.Second)

	assert.InDelta(t, 7, testutil.ToFloat64(m.LeadsTotal.WithLabelValues("loaded")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.DomainLookups.WithLabelValues("pl", "registered")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DomainMemoHits), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SourceErrorsTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunsTotal.WithLabelValues("empty")), 0)
}

func TestHandler(t *testing.T) {
	m := New()
	m.AddLeads("published", 4)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `leadfinder_leads_total{stage="published"} 4`)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRun("complete", 3*time.Second)

	path := filepath.Join(t.TempDir(), "leadfinder.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `leadfinder_runs_total{status="complete"} 1`)
}
