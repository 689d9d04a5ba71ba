package templates

import (
	"net/url"
	"strings"

	"github.com/sells-group/leadfinder/internal/model"
)

// BuildLink returns {base}/templates/{slug}?name=..&city=..&address=..&phone=..
//
// Parameters keep that fixed order. A parameter whose source field is absent
// is left out; a present but empty source is written as "key=".
func (m *Matcher) BuildLink(slug string, in MatchInput) string {
	params := []struct {
		key   string
		field model.Field
	}{
		{"name", in.BusinessName},
		{"city", in.City},
		{"address", in.Address},
		{"phone", in.Phone},
	}

	var q strings.Builder
	for _, p := range params {
		if !p.field.Present {
			continue
		}
		if q.Len() > 0 {
			q.WriteByte('&')
		}
		q.WriteString(p.key)
		q.WriteByte('=')
		q.WriteString(url.QueryEscape(p.field.Value))
	}

	return m.baseURL + "/templates/" + url.PathEscape(slug) + "?" + q.String()
}
