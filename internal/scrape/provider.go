// Package scrape produces raw listing record sets for search keywords, either
// by running the maps scraper container or through the Places API.
package scrape

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadfinder/internal/domaincheck"
)

// GeoFence is a circular search area.
type GeoFence struct {
	Lat     float64
	Lon     float64
	RadiusM float64
}

// Valid reports whether the fence describes a usable circle.
func (g *GeoFence) Valid() bool {
	return g != nil && g.RadiusM > 0 &&
		g.Lat >= -90 && g.Lat <= 90 && g.Lon >= -180 && g.Lon <= 180
}

// Query is one scrape request.
type Query struct {
	Keyword  string
	Language string
	Depth    int
	Geo      *GeoFence
}

// Provider writes the raw record set for a query and returns its path.
type Provider interface {
	Scrape(ctx context.Context, q Query) (string, error)
	Name() string
}

// Output is a record set produced for one keyword.
type Output struct {
	Keyword string
	Path    string
}

// Batch scrapes every distinct keyword in turn. A failing keyword is logged
// and skipped; the caller decides what zero outputs means.
func Batch(ctx context.Context, p Provider, base Query, keywords []string) []Output {
	var out []Output
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		if ctx.Err() != nil {
			break
		}

		q := base
		q.Keyword = kw
		log := zap.L().With(zap.String("provider", p.Name()), zap.String("keyword", kw))
		log.Info("scrape: starting")

		path, err := p.Scrape(ctx, q)
		if err != nil {
			log.Warn("scrape: keyword failed, skipping", zap.Error(err))
			continue
		}
		log.Info("scrape: complete", zap.String("path", path))
		out = append(out, Output{Keyword: kw, Path: path})
	}
	return out
}

// ResultFileName is the raw file name used for a keyword, e.g.
// "raw_warsztat_samochodowy_1a2b3c4d.csv". The readable slug is lossy, so a
// hash of the trimmed keyword keeps names distinct for keywords that differ
// only in case, punctuation, or non-Latin script.
func ResultFileName(keyword string) string {
	keyword = strings.TrimSpace(keyword)

	var b strings.Builder
	for _, r := range domaincheck.Fold(keyword) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteByte('_')
		}
	}
	slug := strings.TrimSuffix(b.String(), "_")
	if slug == "" {
		slug = "query"
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(keyword))
	return fmt.Sprintf("raw_%s_%08x.csv", slug, h.Sum32())
}
