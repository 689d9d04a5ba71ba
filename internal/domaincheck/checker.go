package domaincheck

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadfinder/internal/metrics"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/resilience"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultConcurrency = 2
	defaultMemoSize    = 4096
)

// Result holds the statuses for one candidate.
type Result struct {
	Candidate string
	PL        model.DomainStatus
	COM       model.DomainStatus
}

// notApplicable is the result for a name that yields no candidate.
func notApplicable() Result {
	return Result{PL: model.DomainNotApplicable, COM: model.DomainNotApplicable}
}

// Options tunes a Checker. Zero values select defaults, except Pacing where
// zero disables pacing.
type Options struct {
	Pacing      time.Duration
	Timeout     time.Duration
	Concurrency int
	MemoSize    int
	// MemoTTL bounds how long a definitive answer is reused. Zero keeps it
	// for the life of the Checker.
	MemoTTL time.Duration
	Metrics *metrics.Metrics

	// BreakerThreshold consecutive failures against one TLD stop further
	// lookups there for BreakerReset. Zero disables the breaker.
	BreakerThreshold int
	BreakerReset     time.Duration
}

// Checker classifies domain candidates against a Lookup. Consecutive
// external lookups share one rate limiter. Available and Registered answers
// are memoized for MemoTTL; Manual Check never is, so a failed lookup is
// retried on the next request.
type Checker struct {
	lookup      Lookup
	limiter     *rate.Limiter
	timeout     time.Duration
	concurrency int
	memo        *expirable.LRU[string, model.DomainStatus]
	group       singleflight.Group
	breakers    *resilience.ServiceBreakers
	metrics     *metrics.Metrics
}

// NewChecker creates a Checker.
func NewChecker(lookup Lookup, opts Options) *Checker {
	limit := rate.Inf
	if opts.Pacing > 0 {
		limit = rate.Every(opts.Pacing)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.MemoSize <= 0 {
		opts.MemoSize = defaultMemoSize
	}

	c := &Checker{
		lookup:      lookup,
		limiter:     rate.NewLimiter(limit, 1),
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		memo:        expirable.NewLRU[string, model.DomainStatus](opts.MemoSize, nil, opts.MemoTTL),
		metrics:     opts.Metrics,
	}
	if opts.BreakerThreshold > 0 {
		c.breakers = resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{
			FailureThreshold: opts.BreakerThreshold,
			ResetTimeout:     opts.BreakerReset,
			ShouldTrip:       tripsBreaker,
		})
	}
	return c
}

// CheckName derives the candidate for name and checks it.
func (c *Checker) CheckName(ctx context.Context, name string) Result {
	return c.Check(ctx, DeriveCandidate(name))
}

// Check classifies candidate under every TLD. An empty candidate is
// NotApplicable without any lookup.
func (c *Checker) Check(ctx context.Context, candidate string) Result {
	if candidate == "" {
		return notApplicable()
	}
	return Result{
		Candidate: candidate,
		PL:        c.status(ctx, candidate, TLDs[0]),
		COM:       c.status(ctx, candidate, TLDs[1]),
	}
}

// CheckAll checks every name with bounded concurrency. Results are index
// aligned with names. Lookup failures never fail the batch; only context
// cancellation does.
func (c *Checker) CheckAll(ctx context.Context, names []string) ([]Result, error) {
	results := make([]Result, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, name := range names {
		g.Go(func() error {
			results[i] = c.CheckName(gctx, name)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, eris.Wrap(err, "domaincheck: check all")
	}
	return results, nil
}

// errLeaderCanceled marks a shared lookup whose leader gave up. Callers that
// are still live run their own lookup instead of inheriting the failure.
var errLeaderCanceled = eris.New("domaincheck: shared lookup canceled")

func (c *Checker) status(ctx context.Context, candidate, tld string) model.DomainStatus {
	fqdn := candidate + "." + tld
	if st, ok := c.memo.Get(fqdn); ok {
		c.metrics.IncMemoHit()
		return st
	}

	for {
		v, err, _ := c.group.Do(fqdn, func() (any, error) {
			if st, ok := c.memo.Get(fqdn); ok {
				return st, nil
			}
			st := c.lookupOnce(ctx, fqdn, tld)
			if ctx.Err() != nil {
				return st, errLeaderCanceled
			}
			if st != model.DomainManualCheck {
				c.memo.Add(fqdn, st)
			}
			return st, nil
		})
		if err == nil || ctx.Err() != nil {
			return v.(model.DomainStatus)
		}
	}
}

type lookupResult struct {
	reg Registration
	err error
}

// lookupOnce runs one paced, bounded and circuit-guarded lookup.
func (c *Checker) lookupOnce(ctx context.Context, fqdn, tld string) model.DomainStatus {
	log := zap.L().With(zap.String("domain", fqdn))
	start := time.Now()

	reg, err := c.guard(ctx, tld, func(ctx context.Context) (Registration, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return Registration{}, eris.Wrap(err, "domaincheck: rate limiter")
		}
		return c.bounded(ctx, fqdn)
	})

	st := Classify(reg, err)
	if st == model.DomainManualCheck {
		log.Warn("domaincheck: lookup failed", zap.Error(err))
	}
	c.metrics.ObserveLookup(tld, string(st), time.Since(start))
	log.Debug("domaincheck: classified", zap.String("status", string(st)))
	return st
}

// guard routes fn through the TLD's circuit breaker when breakers are on.
func (c *Checker) guard(ctx context.Context, tld string, fn func(context.Context) (Registration, error)) (Registration, error) {
	if c.breakers == nil {
		return fn(ctx)
	}
	return resilience.ExecuteVal(ctx, c.breakers.Get(tld), fn)
}

// bounded abandons a lookup that outlives the timeout, even one that
// ignores its context.
func (c *Checker) bounded(ctx context.Context, fqdn string) (Registration, error) {
	lctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ch := make(chan lookupResult, 1)
	go func() {
		reg, err := c.lookup.Lookup(lctx, fqdn)
		ch <- lookupResult{reg: reg, err: err}
	}()

	select {
	case r := <-ch:
		return r.reg, r.err
	case <-lctx.Done():
		return Registration{}, eris.Wrapf(lctx.Err(), "domaincheck: lookup %s", fqdn)
	}
}

// tripsBreaker reports whether a lookup error says the registry is in
// trouble, as opposed to a definitive answer or our own cancellation.
func tripsBreaker(err error) bool {
	return !eris.Is(err, ErrNotFound) && !eris.Is(err, context.Canceled)
}

// Disabled reports NotApplicable for every name without any lookup.
type Disabled struct{}

// CheckAll implements the batch check contract.
func (Disabled) CheckAll(_ context.Context, names []string) ([]Result, error) {
	out := make([]Result, len(names))
	for i := range out {
		out[i] = notApplicable()
	}
	return out, nil
}
