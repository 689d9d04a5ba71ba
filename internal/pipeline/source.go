package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadfinder/internal/fetcher"
	"github.com/sells-group/leadfinder/internal/model"
)

// ErrNoSources is returned when not a single input record set could be read.
var ErrNoSources = eris.New("pipeline: no input sources loaded")

// Source is one raw record set. Keyword tags records that carry no
// search_keyword of their own.
type Source struct {
	Path    string
	Keyword string
}

// LoadReport summarizes the Loaded stage.
type LoadReport struct {
	Loaded  int
	Failed  int
	Records int
	// Columns is the union of source headers in first-seen order.
	Columns []string
}

// HasColumn reports whether any loaded source carried col.
func (r LoadReport) HasColumn(col string) bool {
	for _, c := range r.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// RecordReader reads one record set.
type RecordReader interface {
	Read(ctx context.Context, src string) (*fetcher.RecordSet, error)
}

// Load concatenates every readable source into one working set. Sources
// that fail are logged and skipped.
func (p *Pipeline) Load(ctx context.Context, sources []Source) ([]model.RawListing, LoadReport, error) {
	var (
		report   LoadReport
		listings []model.RawListing
		seen     = make(map[string]bool)
	)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, report, eris.Wrap(err, "pipeline: load")
		}

		set, err := p.reader.Read(ctx, src.Path)
		if err != nil {
			report.Failed++
			p.metrics.IncSourceError()
			zap.L().Warn("pipeline: skipping unreadable source",
				zap.String("source", src.Path),
				zap.Error(err),
			)
			continue
		}

		report.Loaded++
		for _, c := range set.Columns {
			if !seen[c] {
				seen[c] = true
				report.Columns = append(report.Columns, c)
			}
		}
		for _, rec := range set.Records {
			l := model.ListingFromRecord(rec.Get)
			if src.Keyword != "" && l.SearchKeyword.Blank() {
				l.SearchKeyword = model.Some(src.Keyword)
			}
			listings = append(listings, l)
		}

		zap.L().Debug("pipeline: source loaded",
			zap.String("source", src.Path),
			zap.Int("records", len(set.Records)),
		)
	}

	report.Records = len(listings)
	if report.Loaded == 0 {
		return nil, report, ErrNoSources
	}
	return listings, report, nil
}
