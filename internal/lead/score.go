package lead

import (
	"strings"

	"github.com/sells-group/leadfinder/internal/model"
)

// MaxDigitalScore is the highest possible digital presence score.
const MaxDigitalScore = 3

// socialChannel describes one social-handle column.
type socialChannel struct {
	platform string
	icon     string
	get      func(model.RawListing) model.Field
}

// socialChannels is checked in this order by both the scorer and the
// contact profile builder.
var socialChannels = []socialChannel{
	{platform: "facebook", icon: "📘", get: func(l model.RawListing) model.Field { return l.Facebook }},
	{platform: "instagram", icon: "📸", get: func(l model.RawListing) model.Field { return l.Instagram }},
	{platform: "linkedin", icon: "💼", get: func(l model.RawListing) model.Field { return l.LinkedIn }},
	{platform: "twitter", icon: "🐦", get: func(l model.RawListing) model.Field { return l.Twitter }},
}

// DigitalScore returns a 0..3 presence score: one point each for a phone
// number, any social handle and a website.
func DigitalScore(l model.RawListing) int {
	score := 0
	if !l.Phone.Blank() {
		score++
	}
	if hasSocial(l) {
		score++
	}
	if !l.Website.Blank() {
		score++
	}
	return score
}

func hasSocial(l model.RawListing) bool {
	for _, ch := range socialChannels {
		if !ch.get(l).Blank() {
			return true
		}
	}
	return false
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
