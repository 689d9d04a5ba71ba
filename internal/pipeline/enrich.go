package pipeline

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadfinder/internal/domaincheck"
	"github.com/sells-group/leadfinder/internal/lead"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/templates"
)

// DomainChecker classifies the domain candidates of many business names.
// Results are index-aligned with names.
type DomainChecker interface {
	CheckAll(ctx context.Context, names []string) ([]domaincheck.Result, error)
}

// Enrich turns filtered listings into qualified leads. Domain checks run as
// one batch; everything else is computed per record.
func (p *Pipeline) Enrich(ctx context.Context, in []model.RawListing) ([]model.QualifiedLead, error) {
	names := make([]string, len(in))
	for i, l := range in {
		names[i] = l.Title.Value
	}

	domains, err := p.domains.CheckAll(ctx, names)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: domain check")
	}
	if len(domains) != len(in) {
		return nil, eris.Errorf("pipeline: domain check returned %d results for %d names", len(domains), len(in))
	}

	out := make([]model.QualifiedLead, len(in))
	for i, l := range in {
		out[i] = p.qualify(l, domains[i])
	}
	return out, nil
}

func (p *Pipeline) qualify(l model.RawListing, d domaincheck.Result) model.QualifiedLead {
	city := lead.ExtractCity(l.CompleteAddress.Value)
	slug, link := p.matcher.Match(templates.MatchInput{
		BusinessName:   l.Title,
		SearchKeyword:  l.SearchKeyword.Value,
		ForcedTemplate: p.opts.ForcedTemplate,
		City:           model.Some(city),
		Address:        l.Address,
		Phone:          l.Phone,
	})

	return model.QualifiedLead{
		RawListing:     l,
		Reviews:        CoerceReviews(l.ReviewCount),
		City:           city,
		DigitalScore:   lead.DigitalScore(l),
		ContactProfile: lead.BuildProfile(l),
		DomainPL:       d.PL,
		DomainCOM:      d.COM,
		TemplateSlug:   slug,
		MagicLink:      link,
	}
}

// SortLeads orders leads by digital score, then review count, both
// ascending. Equal leads keep their relative order.
func SortLeads(leads []model.QualifiedLead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].DigitalScore != leads[j].DigitalScore {
			return leads[i].DigitalScore < leads[j].DigitalScore
		}
		return leads[i].Reviews < leads[j].Reviews
	})
}
