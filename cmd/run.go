package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadfinder/internal/config"
	"github.com/sells-group/leadfinder/internal/metrics"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/pipeline"
	"github.com/sells-group/leadfinder/internal/scrape"
)

const lockFile = ".leadfinder.lock"

var errRunInProgress = eris.New("another leadfinder run holds the raw data directory")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape, qualify and publish leads",
	Long:  "Scrapes every configured keyword, qualifies the listings, publishes the lead table and records the run in the ledger.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyRunFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		unlock, err := lockRawDir(cfg.Scrape.RawDir)
		if err != nil {
			return err
		}
		defer unlock()

		m := metrics.New()
		p, err := initPipeline(cfg, m)
		if err != nil {
			return err
		}
		pub, err := initPublisher(ctx, cfg, cfg.Publish.Target)
		if err != nil {
			return err
		}
		provider, err := initProvider(cfg)
		if err != nil {
			return err
		}
		extra, _ := cmd.Flags().GetStringSlice("source")

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.CreateRun(ctx, cfg.Query.Keywords)
		if err != nil {
			return err
		}
		log := zap.L().With(zap.String("run_id", run.ID))
		start := time.Now()

		sources := collectSources(ctx, provider, scrapeQuery(cfg), cfg.Query.Keywords, extra)
		res, runErr := p.Run(ctx, sources, pub)

		status, result := runOutcome(res, runErr)
		result.Target = cfg.Publish.Target
		if err := st.FinishRun(context.WithoutCancel(ctx), run.ID, status, result); err != nil {
			log.Error("run: record ledger", zap.Error(err))
		}
		m.ObserveRun(string(status), time.Since(start))
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn("run: write metrics", zap.Error(err))
		}

		if status == model.RunStatusEmpty {
			log.Info("no leads found", zap.Int("sources", result.SourcesLoaded))
			return nil
		}
		if runErr != nil {
			return runErr
		}

		log.Info("run complete",
			zap.Int("published", result.Published),
			zap.String("destination", result.Destination),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.StringSlice("keyword", nil, "search keyword (repeatable, overrides query.keywords)")
	f.StringSlice("source", nil, "extra record set path or URL to include (repeatable)")
	f.String("target", "", "publish target: sheets, csv, xlsx or notion")
	f.String("output", "", "output path for file targets")
	f.String("template", "", "force every lead onto this template slug")
	f.Float64("max-reviews", -1, "keep listings with at most this many reviews")
	f.Bool("skip-scrape", false, "do not scrape, only qualify --source record sets")
	f.Bool("no-domains", false, "skip WHOIS domain checks")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags overrides configuration with explicitly set flags.
func applyRunFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("keyword") {
		kws, _ := f.GetStringSlice("keyword")
		c.Query.Keywords = kws
	}
	if f.Changed("target") {
		c.Publish.Target, _ = f.GetString("target")
	}
	if f.Changed("output") {
		c.Publish.OutputPath, _ = f.GetString("output")
	}
	if f.Changed("template") {
		c.Template.Forced, _ = f.GetString("template")
	}
	if f.Changed("max-reviews") {
		c.Filter.MaxReviews, _ = f.GetFloat64("max-reviews")
	}
	if noDomains, _ := f.GetBool("no-domains"); noDomains {
		c.Domain.Enabled = false
	}
	if skip, _ := f.GetBool("skip-scrape"); skip {
		c.Scrape.Provider = "none"
	}
}

// lockRawDir takes an exclusive lock so concurrent runs cannot overwrite each
// other's scrape output.
func lockRawDir(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "create raw dir %s", dir)
	}
	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, eris.Wrap(err, "acquire run lock")
	}
	if !locked {
		return nil, errRunInProgress
	}
	return func() { _ = lock.Unlock() }, nil
}

func scrapeQuery(c *config.Config) scrape.Query {
	q := scrape.Query{Language: c.Query.Language, Depth: c.Query.Depth}
	geo := &scrape.GeoFence{Lat: c.Query.Geo.Lat, Lon: c.Query.Geo.Lon, RadiusM: c.Query.Geo.RadiusM}
	if geo.Valid() {
		q.Geo = geo
	}
	return q
}

// collectSources scrapes every keyword with provider (when set) and appends
// the extra record sets.
func collectSources(ctx context.Context, provider scrape.Provider, base scrape.Query, keywords, extra []string) []pipeline.Source {
	var sources []pipeline.Source
	if provider != nil {
		for _, out := range scrape.Batch(ctx, provider, base, keywords) {
			sources = append(sources, pipeline.Source{Path: out.Path, Keyword: out.Keyword})
		}
	}
	for _, path := range extra {
		sources = append(sources, pipeline.Source{Path: path})
	}
	return sources
}

// runOutcome maps a pipeline result onto the ledger status and counters.
func runOutcome(res *pipeline.Result, err error) (model.RunStatus, *model.RunResult) {
	result := &model.RunResult{}
	if res != nil {
		result.SourcesLoaded = res.Report.Loaded
		result.SourcesFailed = res.Report.Failed
		result.RawRecords = res.Report.Records
		result.Qualified = len(res.Leads)
		result.Published = res.Outcome.Rows
		result.Destination = res.Outcome.Destination
	}

	switch {
	case err == nil:
		return model.RunStatusComplete, result
	case errors.Is(err, pipeline.ErrNoLeads):
		return model.RunStatusEmpty, result
	default:
		result.Error = err.Error()
		return model.RunStatusFailed, result
	}
}
