package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadfinder/internal/config"
	"github.com/sells-group/leadfinder/internal/domaincheck"
	"github.com/sells-group/leadfinder/internal/fetcher"
	"github.com/sells-group/leadfinder/internal/metrics"
	"github.com/sells-group/leadfinder/internal/pipeline"
	"github.com/sells-group/leadfinder/internal/publish"
	"github.com/sells-group/leadfinder/internal/resilience"
	"github.com/sells-group/leadfinder/internal/scrape"
	"github.com/sells-group/leadfinder/internal/store"
	"github.com/sells-group/leadfinder/internal/templates"
	"github.com/sells-group/leadfinder/pkg/google"
	"github.com/sells-group/leadfinder/pkg/notion"
)

// retryConfig maps the retry section onto the backoff policy. Zero values
// fall back to the policy defaults when the policy runs.
func retryConfig(c *config.Config) resilience.RetryConfig {
	policy := resilience.DefaultRetryConfig()
	policy.MaxAttempts = c.Retry.MaxAttempts
	policy.InitialBackoff = time.Duration(c.Retry.InitialBackoffMs) * time.Millisecond
	policy.MaxBackoff = time.Duration(c.Retry.MaxBackoffMs) * time.Millisecond
	return policy
}

// initMatcher builds the template matcher, loading the registry override
// when one is configured.
func initMatcher(c *config.Config) (*templates.Matcher, error) {
	var reg templates.Registry
	if c.Template.RegistryFile != "" {
		r, err := templates.LoadRegistryFile(c.Template.RegistryFile)
		if err != nil {
			return nil, err
		}
		reg = r
	}
	return templates.NewMatcher(reg,
		templates.WithBaseURL(c.Template.BaseURL),
		templates.WithDefaultSlug(c.Template.DefaultSlug),
	), nil
}

// warnUnknownTemplate logs when a forced template is not in the matcher's
// registry. The slug is still used as given.
func warnUnknownTemplate(m *templates.Matcher, forced string) bool {
	forced = strings.TrimSpace(forced)
	reg := m.Registry()
	if forced == "" || reg.Contains(forced) {
		return false
	}
	zap.L().Warn("template: forced template is not registered",
		zap.String("template", forced),
		zap.Strings("known", reg.Slugs()),
	)
	return true
}

// initDomainChecker returns a WHOIS-backed checker, or one that reports
// every domain as not applicable when checks are disabled.
func initDomainChecker(c *config.Config, m *metrics.Metrics) pipeline.DomainChecker {
	if !c.Domain.Enabled {
		return domaincheck.Disabled{}
	}
	timeout := time.Duration(c.Domain.TimeoutSecs) * time.Second
	return domaincheck.NewChecker(domaincheck.NewWhoisLookup(timeout), domaincheck.Options{
		Pacing:           time.Duration(c.Domain.PacingMs) * time.Millisecond,
		Timeout:          timeout,
		Concurrency:      c.Domain.Concurrency,
		MemoTTL:          time.Duration(c.Domain.MemoTTLSecs) * time.Second,
		Metrics:          m,
		BreakerThreshold: c.Breaker.FailureThreshold,
		BreakerReset:     time.Duration(c.Breaker.ResetTimeoutSecs) * time.Second,
	})
}

// initReader returns a Reader that downloads http(s) and ftp sources.
func initReader(c *config.Config) *fetcher.Reader {
	timeout := time.Duration(c.Fetch.TimeoutSecs) * time.Second
	web := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: c.Fetch.UserAgent,
		Timeout:   timeout,
		Retry:     retryConfig(c),
	})
	return fetcher.NewReader(fetcher.SchemeMux{
		"http":  web,
		"https": web,
		"ftp":   fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: timeout}),
	})
}

func pipelineOptions(c *config.Config) pipeline.Options {
	return pipeline.Options{
		MaxReviews:     c.Filter.MaxReviews,
		ForcedTemplate: c.Template.Forced,
		KeepDuplicates: c.Filter.KeepDuplicates,
	}
}

// initPipeline wires a Pipeline from configuration.
func initPipeline(c *config.Config, m *metrics.Metrics) (*pipeline.Pipeline, error) {
	matcher, err := initMatcher(c)
	if err != nil {
		return nil, err
	}
	warnUnknownTemplate(matcher, c.Template.Forced)
	return pipeline.New(initReader(c), matcher, initDomainChecker(c, m), m, pipelineOptions(c)), nil
}

// initProvider returns the configured scrape provider, or nil for "none".
func initProvider(c *config.Config) (scrape.Provider, error) {
	switch c.Scrape.Provider {
	case "docker":
		return scrape.NewDocker(scrape.DockerOptions{Image: c.Scrape.Image, RawDir: c.Scrape.RawDir})
	case "places":
		client := google.NewClient(c.Google.Key, google.WithBaseURL(c.Google.BaseURL))
		return scrape.NewPlaces(client, scrape.PlacesOptions{
			RawDir:            c.Scrape.RawDir,
			RequestsPerSecond: c.Google.RequestsPerSecond,
			Retry:             retryConfig(c),
		}), nil
	case "none", "":
		return nil, nil
	default:
		return nil, eris.Errorf("unknown scrape provider %q", c.Scrape.Provider)
	}
}

// initPublisher returns the publisher for target.
func initPublisher(ctx context.Context, c *config.Config, target string) (pipeline.Publisher, error) {
	switch target {
	case publish.TargetSheets:
		if c.Publish.SpreadsheetID == "" {
			return nil, eris.New("publish.spreadsheet_id is required for the sheets target")
		}
		api, err := publish.NewSheetsService(ctx, c.Publish.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return publish.NewSheets(api, c.Publish.SpreadsheetID, retryConfig(c)), nil
	case publish.TargetCSV:
		return &publish.CSV{Path: c.Publish.OutputPath}, nil
	case publish.TargetXLSX:
		return &publish.XLSX{Path: c.Publish.OutputPath, SheetName: c.Publish.SheetName}, nil
	case publish.TargetNotion:
		if c.Notion.Token == "" || c.Notion.LeadDB == "" {
			return nil, eris.New("notion.token and notion.lead_db are required for the notion target")
		}
		return publish.NewNotion(notion.NewClient(c.Notion.Token), c.Notion.LeadDB), nil
	default:
		return nil, eris.Errorf("unknown publish target %q (want one of %v)", target, publish.Targets())
	}
}

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	return store.Open(ctx, c.Store.Driver, c.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: c.Store.MaxConns,
		MinConns: c.Store.MinConns,
	})
}
