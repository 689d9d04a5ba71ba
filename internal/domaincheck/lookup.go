package domaincheck

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadfinder/internal/model"
)

// ErrNotFound is returned by a Lookup when the registry has no record of
// the domain.
var ErrNotFound = eris.New("domaincheck: domain not found")

// Registration is the subset of registry data the checker cares about.
type Registration struct {
	Domain      string
	Registrar   string
	CreatedDate string
}

// Empty reports whether the registry returned no usable data.
func (r Registration) Empty() bool {
	return r.Domain == "" && r.Registrar == "" && r.CreatedDate == ""
}

// Lookup queries a domain registry for one fully-qualified domain.
type Lookup interface {
	Lookup(ctx context.Context, fqdn string) (Registration, error)
}

// Classify maps a lookup outcome to a DomainStatus. A not-found failure
// means the domain is free; any other failure needs a human to check.
func Classify(reg Registration, err error) model.DomainStatus {
	switch {
	case err == nil && reg.Empty():
		return model.DomainAvailable
	case err == nil:
		return model.DomainRegistered
	case eris.Is(err, ErrNotFound):
		return model.DomainAvailable
	default:
		return model.DomainManualCheck
	}
}

// notFoundMarkers are registry responses that mean "no such domain" but are
// not recognized by the parser.
var notFoundMarkers = []string{
	"no match",
	"not found",
	"no entries found",
	"no data found",
	"no information available",
}

func looksNotFound(s string) bool {
	s = strings.ToLower(s)
	for _, m := range notFoundMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// WhoisLookup implements Lookup over the WHOIS protocol.
type WhoisLookup struct {
	client *whois.Client
}

// NewWhoisLookup creates a WHOIS lookup whose network calls give up after
// timeout.
func NewWhoisLookup(timeout time.Duration) *WhoisLookup {
	c := whois.NewClient()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &WhoisLookup{client: c}
}

// Lookup queries WHOIS for fqdn and parses the response.
func (w *WhoisLookup) Lookup(ctx context.Context, fqdn string) (Registration, error) {
	if err := ctx.Err(); err != nil {
		return Registration{}, eris.Wrap(err, "domaincheck: whois")
	}

	text, err := w.client.Whois(fqdn)
	if err != nil {
		if looksNotFound(err.Error()) {
			return Registration{}, eris.Wrapf(ErrNotFound, "domaincheck: whois %s", fqdn)
		}
		return Registration{}, eris.Wrapf(err, "domaincheck: whois %s", fqdn)
	}

	return parseWhois(fqdn, text)
}

func parseWhois(fqdn, text string) (Registration, error) {
	info, err := whoisparser.Parse(text)
	if err != nil {
		if errors.Is(err, whoisparser.ErrNotFoundDomain) || looksNotFound(text) {
			return Registration{}, eris.Wrapf(ErrNotFound, "domaincheck: whois %s", fqdn)
		}
		return Registration{}, eris.Wrapf(err, "domaincheck: parse whois %s", fqdn)
	}

	var reg Registration
	if info.Domain != nil {
		reg.Domain = info.Domain.Domain
		reg.CreatedDate = info.Domain.CreatedDate
	}
	if info.Registrar != nil {
		reg.Registrar = info.Registrar.Name
	}
	// Some registries answer "no match" in a shape the parser accepts as an
	// empty record.
	if reg.Empty() && looksNotFound(text) {
		return Registration{}, eris.Wrapf(ErrNotFound, "domaincheck: whois %s", fqdn)
	}
	return reg, nil
}
