// Package config loads leadfinder settings from file, environment and
// defaults.
package config

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Query    QueryConfig    `yaml:"query" mapstructure:"query"`
	Filter   FilterConfig   `yaml:"filter" mapstructure:"filter"`
	Template TemplateConfig `yaml:"template" mapstructure:"template"`
	Domain   DomainConfig   `yaml:"domain" mapstructure:"domain"`
	Scrape   ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	Google   GoogleConfig   `yaml:"google" mapstructure:"google"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Publish  PublishConfig  `yaml:"publish" mapstructure:"publish"`
	Notion   NotionConfig   `yaml:"notion" mapstructure:"notion"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Breaker  BreakerConfig  `yaml:"breaker" mapstructure:"breaker"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// QueryConfig describes what to scrape.
type QueryConfig struct {
	Keywords []string  `yaml:"keywords" mapstructure:"keywords"`
	Language string    `yaml:"language" mapstructure:"language"`
	Depth    int       `yaml:"depth" mapstructure:"depth"`
	Geo      GeoConfig `yaml:"geo" mapstructure:"geo"`
}

// GeoConfig is an optional search circle. A zero radius disables it.
type GeoConfig struct {
	Lat     float64 `yaml:"lat" mapstructure:"lat"`
	Lon     float64 `yaml:"lon" mapstructure:"lon"`
	RadiusM float64 `yaml:"radius_m" mapstructure:"radius_m"`
}

// FilterConfig configures listing filters.
type FilterConfig struct {
	MaxReviews     float64 `yaml:"max_reviews" mapstructure:"max_reviews"`
	KeepDuplicates bool    `yaml:"keep_duplicates" mapstructure:"keep_duplicates"`
}

// TemplateConfig configures template matching and magic links.
type TemplateConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	DefaultSlug  string `yaml:"default_slug" mapstructure:"default_slug"`
	Forced       string `yaml:"forced" mapstructure:"forced"`
	RegistryFile string `yaml:"registry_file" mapstructure:"registry_file"`
}

// DomainConfig configures WHOIS availability checks.
type DomainConfig struct {
	Enabled     bool `yaml:"enabled" mapstructure:"enabled"`
	PacingMs    int  `yaml:"pacing_ms" mapstructure:"pacing_ms"`
	TimeoutSecs int  `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Concurrency int  `yaml:"concurrency" mapstructure:"concurrency"`
	// MemoTTLSecs bounds how long a WHOIS answer is reused. Zero keeps
	// answers for the life of the process.
	MemoTTLSecs int `yaml:"memo_ttl_secs" mapstructure:"memo_ttl_secs"`
}

// ScrapeConfig selects and configures the scrape provider.
type ScrapeConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	Image    string `yaml:"image" mapstructure:"image"`
	RawDir   string `yaml:"raw_dir" mapstructure:"raw_dir"`
}

// GoogleConfig holds Places API settings for the places provider.
type GoogleConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// FetchConfig configures downloads of remote input sources.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PublishConfig selects and configures the publish target.
type PublishConfig struct {
	Target          string `yaml:"target" mapstructure:"target"`
	SpreadsheetID   string `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	OutputPath      string `yaml:"output_path" mapstructure:"output_path"`
	SheetName       string `yaml:"sheet_name" mapstructure:"sheet_name"`
}

// NotionConfig holds Notion API credentials and the lead database id.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// StoreConfig configures the run ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// RetryConfig configures retries against external services.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// BreakerConfig configures the per-TLD WHOIS circuit breaker.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MetricsConfig configures metrics export for one-shot runs.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An empty path searches
// for leadfinder.{yaml,json} in "." and "./config"; a missing file is not an
// error then.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("leadfinder")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("LEADFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.Query.Keywords = splitKeywords(cfg.Query.Keywords)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("query.keywords", []string{})
	v.SetDefault("query.language", "pl")
	v.SetDefault("query.depth", 1)
	v.SetDefault("query.geo.lat", 0.0)
	v.SetDefault("query.geo.lon", 0.0)
	v.SetDefault("query.geo.radius_m", 0.0)
	v.SetDefault("filter.max_reviews", 5.0)
	v.SetDefault("filter.keep_duplicates", false)
	v.SetDefault("template.base_url", "https://katalog.czerwinskidawid.pl")
	v.SetDefault("template.default_slug", "agencja-kreatywna")
	v.SetDefault("template.forced", "")
	v.SetDefault("template.registry_file", "")
	v.SetDefault("domain.enabled", true)
	v.SetDefault("domain.pacing_ms", 1000)
	v.SetDefault("domain.timeout_secs", 10)
	v.SetDefault("domain.concurrency", 2)
	v.SetDefault("domain.memo_ttl_secs", 900)
	v.SetDefault("scrape.provider", "docker")
	v.SetDefault("scrape.image", "gosom/google-maps-scraper")
	v.SetDefault("scrape.raw_dir", "raw_data")
	v.SetDefault("google.key", "")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.requests_per_second", 5.0)
	v.SetDefault("fetch.user_agent", "leadfinder/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("publish.target", "sheets")
	v.SetDefault("publish.spreadsheet_id", "")
	v.SetDefault("publish.credentials_file", "config/service_account.json")
	v.SetDefault("publish.output_path", "processed_data/leads.csv")
	v.SetDefault("publish.sheet_name", "Leads")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.lead_db", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadfinder.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.reset_timeout_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// splitKeywords accepts both a list and a single comma separated value, the
// latter being how LEADFINDER_QUERY_KEYWORDS arrives from the environment.
func splitKeywords(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, kw := range strings.Split(item, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				out = append(out, kw)
			}
		}
	}
	return out
}

// Validate checks the settings a run depends on.
func (c *Config) Validate() error {
	switch c.Publish.Target {
	case "sheets":
		if c.Publish.SpreadsheetID == "" {
			return eris.New("config: publish.spreadsheet_id is required for the sheets target")
		}
	case "csv", "xlsx":
		if c.Publish.OutputPath == "" {
			return eris.New("config: publish.output_path is required for file targets")
		}
	case "notion":
		if c.Notion.Token == "" || c.Notion.LeadDB == "" {
			return eris.New("config: notion.token and notion.lead_db are required for the notion target")
		}
	default:
		return eris.Errorf("config: unknown publish target %q", c.Publish.Target)
	}

	switch c.Scrape.Provider {
	case "docker", "none":
	case "places":
		if c.Google.Key == "" {
			return eris.New("config: google.key is required for the places provider")
		}
	default:
		return eris.Errorf("config: unknown scrape provider %q", c.Scrape.Provider)
	}

	if c.Filter.MaxReviews < 0 {
		return eris.New("config: filter.max_reviews must not be negative")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
