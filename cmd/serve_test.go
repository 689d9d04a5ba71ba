//go:build !integration

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadfinder/internal/domaincheck"
	"github.com/sells-group/leadfinder/internal/metrics"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/templates"
)

type fakeDomains struct {
	err   error
	names []string
}

func (f *fakeDomains) CheckAll(_ context.Context, names []string) ([]domaincheck.Result, error) {
	f.names = names
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domaincheck.Result, len(names))
	for i, n := range names {
		out[i] = domaincheck.Result{
			Candidate: domaincheck.DeriveCandidate(n),
			PL:        model.DomainAvailable,
			COM:       model.DomainRegistered,
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, domains *fakeDomains) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newRouter(templates.NewMatcher(nil), domains, metrics.New()))
	t.Cleanup(srv.Close)
	return srv
}

func TestServe_Health(t *testing.T) {
	srv := newTestServer(t, &fakeDomains{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestServe_Match(t *testing.T) {
	srv := newTestServer(t, &fakeDomains{})

	resp, err := http.Post(srv.URL+"/v1/match", "application/json",
		strings.NewReader(`{"name":"Auto Serwis Kowalski","keyword":"warsztat samochodowy","city":"Kraków","phone":"123"}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body matchResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "warsztat-pro", body.Slug)
	assert.Equal(t, templates.DefaultBaseURL+"/templates/warsztat-pro?name=Auto+Serwis+Kowalski&city=Krak%C3%B3w&phone=123", body.Link)
}

func TestServe_MatchBadRequest(t *testing.T) {
	srv := newTestServer(t, &fakeDomains{})

	for _, payload := range []string{`not json`, `{}`} {
		resp, err := http.Post(srv.URL+"/v1/match", "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		resp.Body.Close() //nolint:errcheck
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, payload)
	}
}

func TestServe_Domain(t *testing.T) {
	domains := &fakeDomains{}
	srv := newTestServer(t, domains)

	resp, err := http.Post(srv.URL+"/v1/domain", "application/json",
		strings.NewReader(`{"names":["Złota Rączka"]}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body []domainResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []domainResult{{Name: "Złota Rączka", Candidate: "zlotaraczka", PL: "Available", COM: "Registered"}}, body)
	assert.Equal(t, []string{"Złota Rączka"}, domains.names)
}

func TestServe_DomainErrors(t *testing.T) {
	srv := newTestServer(t, &fakeDomains{err: eris.New("whois down")})

	resp, err := http.Post(srv.URL+"/v1/domain", "application/json", strings.NewReader(`{"names":[]}`))
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/v1/domain", "application/json", strings.NewReader(`{"names":["A"]}`))
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServe_Metrics(t *testing.T) {
	srv := newTestServer(t, &fakeDomains{})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServe_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, &fakeDomains{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/match", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://katalog.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
