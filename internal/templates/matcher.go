package templates

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/leadfinder/internal/model"
)

const (
	// DefaultBaseURL is the catalog host the magic links point at.
	DefaultBaseURL = "https://katalog.czerwinskidawid.pl"
	// DefaultSlug is used when neither keyword nor name matches anything.
	DefaultSlug = "agencja-kreatywna"
)

// keywordConfidence marks a search-keyword match; it outranks any name score.
const keywordConfidence = 100

// MatchInput carries everything needed to pick a template and build its link.
type MatchInput struct {
	BusinessName   model.Field
	SearchKeyword  string
	ForcedTemplate string
	City           model.Field
	Address        model.Field
	Phone          model.Field
}

// Matcher selects templates from an ordered registry. It is safe for
// concurrent use.
type Matcher struct {
	registry    Registry
	baseURL     string
	defaultSlug string
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithBaseURL overrides the magic link host.
func WithBaseURL(u string) Option {
	return func(m *Matcher) {
		if u = strings.TrimSpace(u); u != "" {
			m.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithDefaultSlug overrides the fallback template.
func WithDefaultSlug(slug string) Option {
	return func(m *Matcher) {
		if slug = strings.TrimSpace(slug); slug != "" {
			m.defaultSlug = slug
		}
	}
}

// NewMatcher creates a Matcher over reg. A nil or empty registry falls back
// to the built-in one.
func NewMatcher(reg Registry, opts ...Option) *Matcher {
	if len(reg) == 0 {
		reg = DefaultRegistry()
	}
	m := &Matcher{
		registry:    reg,
		baseURL:     DefaultBaseURL,
		defaultSlug: DefaultSlug,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Registry returns the matcher's registry.
func (m *Matcher) Registry() Registry { return m.registry }

// Match returns the template slug for in and the magic link for that slug.
func (m *Matcher) Match(in MatchInput) (slug, link string) {
	slug = m.SelectSlug(in.BusinessName.Value, in.SearchKeyword, in.ForcedTemplate)
	return slug, m.BuildLink(slug, in)
}

// SelectSlug picks a template slug.
//
// A non-blank forced template wins outright. Otherwise the first registry
// keyword contained in the normalized search keyword decides. Failing that,
// every template is scored against the normalized business name and the
// strictly highest score wins, earliest template on ties.
func (m *Matcher) SelectSlug(businessName, searchKeyword, forcedTemplate string) string {
	if forced := strings.TrimSpace(forcedTemplate); forced != "" {
		return forced
	}

	best := m.defaultSlug
	bestScore := 0

	if kw := Normalize(searchKeyword); kw != "" {
		if slug, ok := m.matchKeyword(kw); ok {
			best, bestScore = slug, keywordConfidence
		}
	}

	if bestScore < keywordConfidence {
		name := Normalize(businessName)
		for _, e := range m.registry {
			if score := scoreName(name, e.Keywords); score > bestScore {
				best, bestScore = e.Slug, score
			}
		}
	}

	return best
}

// matchKeyword scans the registry in order and stops at the first keyword
// found inside kw.
func (m *Matcher) matchKeyword(kw string) (string, bool) {
	for _, e := range m.registry {
		for _, k := range e.Keywords {
			if strings.Contains(kw, k) {
				return e.Slug, true
			}
		}
	}
	return "", false
}

// scoreName gives +1 for every keyword found in name and +2 more when it
// stands as a whole word. Duplicated keywords score once per occurrence.
func scoreName(name string, keywords []string) int {
	if name == "" {
		return 0
	}
	padded := " " + name + " "
	score := 0
	for _, k := range keywords {
		if !strings.Contains(name, k) {
			continue
		}
		score++
		if strings.Contains(padded, " "+k+" ") {
			score += 2
		}
	}
	return score
}

// Normalize lowercases s and drops every character outside [a-z0-9 ].
// Accented letters are dropped, not transliterated, so registry keywords
// carrying Polish diacritics can only match their ASCII spellings.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(lower))
	for i := 0; i < len(lower); {
		r, size := utf8.DecodeRuneInString(lower[i:])
		i += size
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	return b.String()
}
