// Package domaincheck derives a domain candidate from a business name and
// classifies its registration status under the .pl and .com TLDs.
package domaincheck

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TLDs are checked for every candidate, in this order.
var TLDs = []string{"pl", "com"}

// ł has no decomposition, so Polish letters are mapped explicitly before
// the generic mark removal.
var polishReplacer = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n",
	"ó", "o", "ś", "s", "ź", "z", "ż", "z",
)

// Fold lowercases s and strips diacritics, Polish letters included.
func Fold(s string) string {
	s = polishReplacer.Replace(strings.ToLower(s))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	return s
}

// DeriveCandidate turns a business name into a second-level domain label:
// lowercase, diacritics stripped, only [a-z0-9] kept. The result may be
// empty.
func DeriveCandidate(name string) string {
	s := Fold(name)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
