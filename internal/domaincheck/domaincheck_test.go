package domaincheck

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadfinder/internal/metrics"
	"github.com/sells-group/leadfinder/internal/model"
)

type fakeLookup struct {
	fn    func(ctx context.Context, fqdn string) (Registration, error)
	calls atomic.Int32

	mu   sync.Mutex
	seen []string
}

func (f *fakeLookup) Lookup(ctx context.Context, fqdn string) (Registration, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, fqdn)
	f.mu.Unlock()
	return f.fn(ctx, fqdn)
}

func registered(fqdn string) Registration {
	return Registration{Domain: fqdn, Registrar: "NASK"}
}

func TestDeriveCandidate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"polish letters", "Żółta Łódź", "zoltalodz"},
		{"all polish diacritics", "ąćęłńóśźż ĄĆĘŁŃÓŚŹŻ", "acelnoszzacelnoszz"},
		{"other diacritics", "Crème Brûlée", "cremebrulee"},
		{"digits kept", "Auto-Serwis 24h!", "autoserwis24h"},
		{"punctuation only", "!!! ---", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveCandidate(tt.in))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "lodz", Fold("Łódź"))
	// Accents outside the Polish set are stripped as combining marks.
	assert.Equal(t, "cafe", Fold("Café"))
	assert.Equal(t, "naive senor", Fold("Naïve Señor"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		reg  Registration
		err  error
		want model.DomainStatus
	}{
		{"no data", Registration{}, nil, model.DomainAvailable},
		{"registration data", registered("a.pl"), nil, model.DomainRegistered},
		{"not found", Registration{}, ErrNotFound, model.DomainAvailable},
		{"wrapped not found", Registration{}, eris.Wrap(ErrNotFound, "lookup"), model.DomainAvailable},
		{"other failure", Registration{}, errors.New("connection refused"), model.DomainManualCheck},
		{"deadline", Registration{}, context.DeadlineExceeded, model.DomainManualCheck},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.reg, tt.err))
		})
	}
}

func TestParseWhois_NotFound(t *testing.T) {
	replies := []string{
		"No match for domain \"WOLNADOMENA.PL\".\n",
		"No entries found for the selected source(s).\n",
	}
	for _, text := range replies {
		reg, err := parseWhois("wolnadomena.pl", text)
		require.Error(t, err, text)
		assert.True(t, eris.Is(err, ErrNotFound), text)
		assert.Equal(t, model.DomainAvailable, Classify(reg, err))
	}
}

func TestLooksNotFound(t *testing.T) {
	assert.True(t, looksNotFound("NOT FOUND"))
	assert.True(t, looksNotFound("No entries found for the selected source(s)."))
	assert.False(t, looksNotFound("Domain Name: example.com"))
}

func TestWhoisLookup_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWhoisLookup(time.Second).Lookup(ctx, "example.pl")
	require.Error(t, err)
	assert.Equal(t, model.DomainManualCheck, Classify(Registration{}, err))
}

func TestChecker_Check(t *testing.T) {
	lookup := &fakeLookup{fn: func(_ context.Context, fqdn string) (Registration, error) {
		switch fqdn {
		case "kowalski.pl":
			return registered(fqdn), nil
		case "kowalski.com":
			return Registration{}, ErrNotFound
		}
		return Registration{}, errors.New("unexpected")
	}}
	c := NewChecker(lookup, Options{})

	res := c.CheckName(context.Background(), "Kowalski")
	assert.Equal(t, "kowalski", res.Candidate)
	assert.Equal(t, model.DomainRegistered, res.PL)
	assert.Equal(t, model.DomainAvailable, res.COM)
	assert.Equal(t, int32(2), lookup.calls.Load())
}

func TestChecker_EmptyCandidateSkipsLookup(t *testing.T) {
	lookup := &fakeLookup{fn: func(context.Context, string) (Registration, error) {
		return Registration{}, nil
	}}
	c := NewChecker(lookup, Options{})

	res := c.CheckName(context.Background(), "!!!")
	assert.Equal(t, model.DomainNotApplicable, res.PL)
	assert.Equal(t, model.DomainNotApplicable, res.COM)
	assert.Zero(t, lookup.calls.Load())
}

func TestChecker_TimeoutIsManualCheck(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	// Ignores its context entirely.
	lookup := &fakeLookup{fn: func(context.Context, string) (Registration, error) {
		<-block
		return Registration{}, nil
	}}
	c := NewChecker(lookup, Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	res := c.Check(context.Background(), "wolny")
	assert.Equal(t, model.DomainManualCheck, res.PL)
	assert.Equal(t, model.DomainManualCheck, res.COM)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestChecker_CheckAllAlignedAndMemoized(t *testing.T) {
	lookup := &fakeLookup{fn: func(_ context.Context, fqdn string) (Registration, error) {
		switch fqdn {
		case "alfa.pl", "alfa.com":
			return registered(fqdn), nil
		case "beta.pl":
			return Registration{}, ErrNotFound
		}
		return Registration{}, errors.New("whois: connection reset")
	}}
	m := metrics.New()
	c := NewChecker(lookup, Options{Concurrency: 3, Metrics: m})

	names := []string{"Alfa", "Beta", "", "ALFA", "alfa!"}
	results, err := c.CheckAll(context.Background(), names)
	require.NoError(t, err)
	require.Len(t, results, len(names))

	assert.Equal(t, Result{Candidate: "alfa", PL: model.DomainRegistered, COM: model.DomainRegistered}, results[0])
	assert.Equal(t, Result{Candidate: "beta", PL: model.DomainAvailable, COM: model.DomainManualCheck}, results[1])
	assert.Equal(t, Result{PL: model.DomainNotApplicable, COM: model.DomainNotApplicable}, results[2])
	assert.Equal(t, results[0], results[3])
	assert.Equal(t, results[0], results[4])

	// alfa.pl, alfa.com, beta.pl, beta.com: each exactly once.
	assert.Equal(t, int32(4), lookup.calls.Load())
	assert.ElementsMatch(t, []string{"alfa.pl", "alfa.com", "beta.pl", "beta.com"}, lookup.seen)
	assert.InDelta(t, 2, testutil.ToFloat64(m.DomainLookups.WithLabelValues("pl", "registered"))+
		testutil.ToFloat64(m.DomainLookups.WithLabelValues("com", "registered")), 0)
}

func TestChecker_Pacing(t *testing.T) {
	lookup := &fakeLookup{fn: func(context.Context, string) (Registration, error) {
		return Registration{}, ErrNotFound
	}}
	c := NewChecker(lookup, Options{Pacing: 30 * time.Millisecond, Concurrency: 4})

	start := time.Now()
	_, err := c.CheckAll(context.Background(), []string{"jeden", "dwa"})
	require.NoError(t, err)

	// Four lookups, the first immediate, the rest spaced by the pacing interval.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Equal(t, int32(4), lookup.calls.Load())
}

func TestChecker_CheckAllCanceled(t *testing.T) {
	lookup := &fakeLookup{fn: func(context.Context, string) (Registration, error) {
		return Registration{}, nil
	}}
	c := NewChecker(lookup, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := c.CheckAll(ctx, []string{"a", "b"})
	require.Error(t, err)
	assert.Len(t, results, 2)
}

func TestDisabled(t *testing.T) {
	results, err := Disabled{}.CheckAll(context.Background(), []string{"a", "b", ""})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, model.DomainNotApplicable, r.PL)
		assert.Equal(t, model.DomainNotApplicable, r.COM)
	}
}

func TestChecker_BreakerStopsHammeringFailedRegistry(t *testing.T) {
	lookup := &fakeLookup{fn: func(_ context.Context, fqdn string) (Registration, error) {
		if fqdn[len(fqdn)-3:] == ".pl" {
			return Registration{}, errors.New("whois: connection refused")
		}
		return Registration{}, ErrNotFound
	}}
	c := NewChecker(lookup, Options{Concurrency: 1, BreakerThreshold: 2, BreakerReset: time.Hour})

	results, err := c.CheckAll(context.Background(), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, model.DomainManualCheck, r.PL)
		assert.Equal(t, model.DomainAvailable, r.COM)
	}

	// Two .pl failures open the breaker; the .com lookups all go through.
	assert.Equal(t, int32(2+4), lookup.calls.Load())
}

func TestChecker_ManualCheckIsRetriedNextTime(t *testing.T) {
	var failures atomic.Int32
	lookup := &fakeLookup{fn: func(_ context.Context, fqdn string) (Registration, error) {
		if failures.Add(1) <= 2 {
			return Registration{}, errors.New("whois: connection reset")
		}
		return registered(fqdn), nil
	}}
	c := NewChecker(lookup, Options{})
	ctx := context.Background()

	first, err := c.CheckAll(ctx, []string{"Kowalski"})
	require.NoError(t, err)
	assert.Equal(t, Result{Candidate: "kowalski", PL: model.DomainManualCheck, COM: model.DomainManualCheck}, first[0])

	second, err := c.CheckAll(ctx, []string{"Kowalski"})
	require.NoError(t, err)
	assert.Equal(t, Result{Candidate: "kowalski", PL: model.DomainRegistered, COM: model.DomainRegistered}, second[0])
	assert.Equal(t, int32(4), lookup.calls.Load())

	// Definitive answers are reused.
	_, err = c.CheckAll(ctx, []string{"Kowalski"})
	require.NoError(t, err)
	assert.Equal(t, int32(4), lookup.calls.Load())
}

func TestChecker_MemoExpires(t *testing.T) {
	lookup := &fakeLookup{fn: func(_ context.Context, fqdn string) (Registration, error) {
		return registered(fqdn), nil
	}}
	c := NewChecker(lookup, Options{MemoTTL: 30 * time.Millisecond})
	ctx := context.Background()

	c.Check(ctx, "kowalski")
	c.Check(ctx, "kowalski")
	assert.Equal(t, int32(2), lookup.calls.Load())

	time.Sleep(80 * time.Millisecond)
	res := c.Check(ctx, "kowalski")
	assert.Equal(t, model.DomainRegistered, res.PL)
	assert.Equal(t, int32(4), lookup.calls.Load())
}

func TestChecker_CanceledCallerDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{})
	var first atomic.Bool
	lookup := &fakeLookup{fn: func(ctx context.Context, fqdn string) (Registration, error) {
		if first.CompareAndSwap(false, true) {
			close(started)
			<-ctx.Done()
			return Registration{}, ctx.Err()
		}
		return registered(fqdn), nil
	}}
	c := NewChecker(lookup, Options{Timeout: 5 * time.Second})

	ctxA, cancelA := context.WithCancel(context.Background())
	doneA := make(chan Result, 1)
	go func() { doneA <- c.Check(ctxA, "kowalski") }()
	<-started

	doneB := make(chan Result, 1)
	go func() { doneB <- c.Check(context.Background(), "kowalski") }()
	time.Sleep(20 * time.Millisecond)
	cancelA()

	a := <-doneA
	assert.Equal(t, model.DomainManualCheck, a.PL)

	select {
	case b := <-doneB:
		assert.Equal(t, Result{Candidate: "kowalski", PL: model.DomainRegistered, COM: model.DomainRegistered}, b)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not finish")
	}
}
