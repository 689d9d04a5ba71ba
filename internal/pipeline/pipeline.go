// Package pipeline qualifies scraped business listings into ranked sales
// leads and hands the projected table to a publisher.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadfinder/internal/domaincheck"
	"github.com/sells-group/leadfinder/internal/metrics"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/templates"
)

// ErrNoLeads is returned when filtering leaves nothing to publish. It marks
// a clean, empty run rather than a failure.
var ErrNoLeads = eris.New("pipeline: no leads found")

// Options tunes filtering and template assignment.
type Options struct {
	MaxReviews     float64
	ForcedTemplate string
	// KeepDuplicates disables link/name deduplication of loaded records.
	KeepDuplicates bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{MaxReviews: DefaultMaxReviews}
}

// Outcome describes where a table was published.
type Outcome struct {
	Target      string
	Destination string
	Rows        int
}

// Publisher writes a projected table to its destination.
type Publisher interface {
	Publish(ctx context.Context, t *Table) (Outcome, error)
}

// Result is the state of a run after its last completed stage.
type Result struct {
	Stage   Stage
	Report  LoadReport
	Leads   []model.QualifiedLead
	Table   *Table
	Outcome Outcome
}

// Pipeline runs the qualification stages.
type Pipeline struct {
	reader  RecordReader
	matcher *templates.Matcher
	domains DomainChecker
	metrics *metrics.Metrics
	opts    Options
}

// New creates a Pipeline. A nil matcher uses the built-in registry and a nil
// domain checker reports every domain as not applicable.
func New(reader RecordReader, matcher *templates.Matcher, domains DomainChecker, m *metrics.Metrics, opts Options) *Pipeline {
	if matcher == nil {
		matcher = templates.NewMatcher(nil)
	}
	if domains == nil {
		domains = domaincheck.Disabled{}
	}
	return &Pipeline{
		reader:  reader,
		matcher: matcher,
		domains: domains,
		metrics: m,
		opts:    opts,
	}
}

// Qualify runs every stage up to and including Projected. Nothing is
// written anywhere. When filtering leaves no records it returns the partial
// result together with ErrNoLeads.
func (p *Pipeline) Qualify(ctx context.Context, sources []Source) (*Result, error) {
	start := time.Now()
	res := &Result{}

	raw, report, err := p.Load(ctx, sources)
	res.Report = report
	if err != nil {
		return res, err
	}
	p.advance(res, StageLoaded, len(raw))

	if !p.opts.KeepDuplicates {
		before := len(raw)
		raw = Dedupe(raw)
		if dropped := before - len(raw); dropped > 0 {
			zap.L().Info("pipeline: dropped duplicate records", zap.Int("dropped", dropped))
		}
	}

	if err := checkpoint(ctx, StageStatusFiltered); err != nil {
		return res, err
	}
	raw = FilterStatus(raw)
	p.advance(res, StageStatusFiltered, len(raw))

	if err := checkpoint(ctx, StageWebsiteFiltered); err != nil {
		return res, err
	}
	raw = FilterWebsite(raw)
	p.advance(res, StageWebsiteFiltered, len(raw))

	if err := checkpoint(ctx, StageReviewFiltered); err != nil {
		return res, err
	}
	raw = FilterReviews(raw, p.opts.MaxReviews)
	p.advance(res, StageReviewFiltered, len(raw))
	if len(raw) == 0 {
		return res, ErrNoLeads
	}

	if err := checkpoint(ctx, StageEnriched); err != nil {
		return res, err
	}
	leads, err := p.Enrich(ctx, raw)
	if err != nil {
		return res, err
	}
	p.advance(res, StageEnriched, len(leads))

	if err := checkpoint(ctx, StageSorted); err != nil {
		return res, err
	}
	SortLeads(leads)
	res.Leads = leads
	p.advance(res, StageSorted, len(leads))

	if err := checkpoint(ctx, StageProjected); err != nil {
		return res, err
	}
	res.Table = Project(leads, report.HasColumn)
	p.advance(res, StageProjected, res.Table.Len())

	zap.L().Info("pipeline: qualification complete",
		zap.Int("sources", report.Loaded),
		zap.Int("raw_records", report.Records),
		zap.Int("leads", len(leads)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// Run qualifies the sources and publishes the table.
func (p *Pipeline) Run(ctx context.Context, sources []Source, pub Publisher) (*Result, error) {
	res, err := p.Qualify(ctx, sources)
	if err != nil {
		return res, err
	}

	if err := checkpoint(ctx, StagePublished); err != nil {
		return res, err
	}
	outcome, err := pub.Publish(ctx, res.Table)
	if err != nil {
		return res, eris.Wrap(err, "pipeline: publish")
	}
	res.Outcome = outcome
	p.advance(res, StagePublished, outcome.Rows)
	return res, nil
}

func (p *Pipeline) advance(res *Result, s Stage, n int) {
	res.Stage = s
	p.metrics.AddLeads(s.String(), n)
	zap.L().Info("pipeline: stage complete", zap.Stringer("stage", s), zap.Int("records", n))
}

func checkpoint(ctx context.Context, next Stage) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrapf(err, "pipeline: canceled before %s", next)
	}
	return nil
}
