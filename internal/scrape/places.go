package scrape

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/resilience"
	"github.com/sells-group/leadfinder/pkg/google"
)

const placesPageSize = 20

// placesColumns mirrors the maps scraper's CSV header for the fields the
// Places API can fill.
var placesColumns = []string{
	model.ColTitle,
	model.ColWebsite,
	model.ColPhone,
	model.ColReviewCount,
	model.ColReviewRating,
	model.ColCompleteAddress,
	model.ColAddress,
	model.ColStatus,
	model.ColLink,
	model.ColSearchKeyword,
}

// PlacesOptions configures the Places provider.
type PlacesOptions struct {
	RawDir string
	// RequestsPerSecond throttles Text Search calls. Default 5.
	RequestsPerSecond float64
	Retry             resilience.RetryConfig
}

// Places scrapes through Google Places Text Search. Depth is the number of
// result pages fetched per keyword.
type Places struct {
	client  google.Client
	rawDir  string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewPlaces creates a Places provider.
func NewPlaces(c google.Client, opts PlacesOptions) *Places {
	if opts.RawDir == "" {
		opts.RawDir = "raw_data"
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("places", "text_search")
	}
	return &Places{
		client:  c,
		rawDir:  opts.RawDir,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		retry:   opts.Retry,
	}
}

// Name implements Provider.
func (p *Places) Name() string { return "places" }

// Scrape implements Provider.
func (p *Places) Scrape(ctx context.Context, q Query) (string, error) {
	if q.Keyword == "" {
		return "", eris.New("scrape: empty keyword")
	}

	req := google.TextSearchRequest{
		TextQuery:    q.Keyword,
		LanguageCode: q.Language,
		PageSize:     placesPageSize,
	}
	if q.Geo.Valid() {
		req.LocationBias = &google.LocationBias{Circle: google.Circle{
			Center: google.LatLng{Latitude: q.Geo.Lat, Longitude: q.Geo.Lon},
			Radius: q.Geo.RadiusM,
		}}
	}

	pages := max(q.Depth, 1)
	var places []google.Place
	for i := 0; i < pages; i++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "scrape: places rate limit")
		}
		resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*google.TextSearchResponse, error) {
			return p.client.TextSearch(ctx, req)
		})
		if err != nil {
			return "", eris.Wrapf(err, "scrape: places search %q page %d", q.Keyword, i+1)
		}
		places = append(places, resp.Places...)
		if resp.NextPageToken == "" {
			break
		}
		req.PageToken = resp.NextPageToken
	}

	if err := os.MkdirAll(p.rawDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "scrape: create raw dir %s", p.rawDir)
	}
	path := filepath.Join(p.rawDir, ResultFileName(q.Keyword))
	if err := writePlaces(path, q.Keyword, places); err != nil {
		return "", err
	}
	return path, nil
}

func writePlaces(path, keyword string, places []google.Place) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "scrape: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(placesColumns); err != nil {
		return eris.Wrap(err, "scrape: write header")
	}
	for _, pl := range places {
		if err := w.Write(placeRecord(pl, keyword)); err != nil {
			return eris.Wrap(err, "scrape: write place")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "scrape: flush places")
	}
	return f.Close()
}

func placeRecord(p google.Place, keyword string) []string {
	var rating string
	if p.UserRatingCount > 0 || p.Rating > 0 {
		rating = strconv.FormatFloat(p.Rating, 'f', -1, 64)
	}
	var completeAddress string
	if city := p.Locality(); city != "" {
		data, _ := json.Marshal(map[string]string{"city": city})
		completeAddress = string(data)
	}

	return []string{
		p.DisplayName.Text,
		p.WebsiteURI,
		p.NationalPhoneNumber,
		strconv.Itoa(p.UserRatingCount),
		rating,
		completeAddress,
		p.FormattedAddress,
		businessStatus(p.BusinessStatus),
		p.GoogleMapsURI,
		keyword,
	}
}

// businessStatus maps Places business statuses onto the scraper's values.
func businessStatus(s string) string {
	switch s {
	case "OPERATIONAL":
		return "operational"
	case "CLOSED_TEMPORARILY":
		return "temporarily_closed"
	case "CLOSED_PERMANENTLY":
		return "permanently_closed"
	default:
		return ""
	}
}
