package lead

import (
	"strings"

	"github.com/sells-group/leadfinder/internal/model"
)

const (
	phoneIcon = "📞"
	emailIcon = "📧"

	profileSeparator = " | "
)

// BuildProfile joins the available contact channels of a listing into one
// line: phone, email, then each social handle labeled with its platform.
// Absent channels are skipped without leaving a separator behind.
func BuildProfile(l model.RawListing) string {
	var parts []string

	if !l.Phone.Blank() {
		parts = append(parts, phoneIcon+" "+l.Phone.Trimmed())
	}
	if !l.Emails.Blank() {
		parts = append(parts, emailIcon+" "+l.Emails.Trimmed())
	}
	for _, ch := range socialChannels {
		f := ch.get(l)
		if f.Blank() {
			continue
		}
		parts = append(parts, ch.icon+" "+capitalize(ch.platform)+": "+f.Trimmed())
	}

	return strings.Join(parts, profileSeparator)
}
