package pipeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/leadfinder/internal/model"
)

// DefaultMaxReviews is the review threshold used when none is configured.
const DefaultMaxReviews = 5

const permanentlyClosed = "permanently_closed"

// NormalizeStatus lowercases a status and folds spaces and hyphens into
// underscores, so "Permanently Closed" and "PERMANENTLY-CLOSED" compare equal.
func NormalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// FilterStatus drops permanently closed businesses. An absent status or any
// other value, temporarily closed included, is kept.
func FilterStatus(in []model.RawListing) []model.RawListing {
	out := make([]model.RawListing, 0, len(in))
	for _, l := range in {
		if l.Status.Present && NormalizeStatus(l.Status.Value) == permanentlyClosed {
			continue
		}
		out = append(out, l)
	}
	return out
}

// FilterWebsite keeps businesses whose website is absent or blank.
func FilterWebsite(in []model.RawListing) []model.RawListing {
	out := make([]model.RawListing, 0, len(in))
	for _, l := range in {
		if l.Website.Blank() {
			out = append(out, l)
		}
	}
	return out
}

// CoerceReviews parses a review count. Absent, unparseable, negative and
// non-finite values become 0.
func CoerceReviews(f model.Field) float64 {
	v, err := strconv.ParseFloat(f.Trimmed(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// FilterReviews keeps businesses with at most max reviews after coercion.
func FilterReviews(in []model.RawListing, max float64) []model.RawListing {
	out := make([]model.RawListing, 0, len(in))
	for _, l := range in {
		if CoerceReviews(l.ReviewCount) <= max {
			out = append(out, l)
		}
	}
	return out
}

// Dedupe keeps the first of records sharing a maps link, or, for records
// without a link, the same normalized title and address.
func Dedupe(in []model.RawListing) []model.RawListing {
	seen := make(map[string]bool, len(in))
	out := make([]model.RawListing, 0, len(in))
	for _, l := range in {
		key := dedupeKey(l)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, l)
	}
	return out
}

func dedupeKey(l model.RawListing) string {
	if link := l.Link.Trimmed(); link != "" {
		return "link:" + link
	}
	title := foldSpace(l.Title.Trimmed())
	if title == "" {
		return ""
	}
	addr := l.Address.Trimmed()
	if addr == "" {
		addr = l.CompleteAddress.Trimmed()
	}
	return "name:" + title + "|" + foldSpace(addr)
}

func foldSpace(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
