// Package model defines the records that flow through the lead pipeline.
package model

import "strings"

// Source column names as written by the maps scraper.
const (
	ColTitle           = "title"
	ColWebsite         = "website"
	ColPhone           = "phone"
	ColReviewCount     = "review_count"
	ColReviewRating    = "review_rating"
	ColCompleteAddress = "complete_address"
	ColAddress         = "address"
	ColStatus          = "status"
	ColLink            = "link"
	ColFacebook        = "facebook"
	ColInstagram       = "instagram"
	ColLinkedIn        = "linkedin"
	ColTwitter         = "twitter"
	ColEmails          = "emails"
	ColSearchKeyword   = "search_keyword"
)

// Field is an optional column value. Present is false when the column is
// missing from the record set or the cell is null; an empty string that was
// explicitly written is Present with a blank Value.
type Field struct {
	Value   string `json:"value"`
	Present bool   `json:"present"`
}

// Some returns a present field holding v.
func Some(v string) Field {
	return Field{Value: v, Present: true}
}

// None returns an absent field.
func None() Field {
	return Field{}
}

// Blank reports whether the field is absent or whitespace only.
func (f Field) Blank() bool {
	return !f.Present || strings.TrimSpace(f.Value) == ""
}

// Trimmed returns the value with surrounding whitespace removed, or "" when absent.
func (f Field) Trimmed() string {
	if !f.Present {
		return ""
	}
	return strings.TrimSpace(f.Value)
}

// RawListing is one scraped business record.
type RawListing struct {
	Title           Field `json:"title"`
	Website         Field `json:"website"`
	Phone           Field `json:"phone"`
	ReviewCount     Field `json:"review_count"`
	ReviewRating    Field `json:"review_rating"`
	CompleteAddress Field `json:"complete_address"`
	Address         Field `json:"address"`
	Status          Field `json:"status"`
	Link            Field `json:"link"`
	Facebook        Field `json:"facebook"`
	Instagram       Field `json:"instagram"`
	LinkedIn        Field `json:"linkedin"`
	Twitter         Field `json:"twitter"`
	Emails          Field `json:"emails"`
	SearchKeyword   Field `json:"search_keyword"`
}

// ListingFromRecord builds a RawListing from a column lookup. get returns
// the cell value and whether the cell exists and is non-null.
func ListingFromRecord(get func(col string) (string, bool)) RawListing {
	field := func(col string) Field {
		if v, ok := get(col); ok {
			return Some(v)
		}
		return None()
	}
	return RawListing{
		Title:           field(ColTitle),
		Website:         field(ColWebsite),
		Phone:           field(ColPhone),
		ReviewCount:     field(ColReviewCount),
		ReviewRating:    field(ColReviewRating),
		CompleteAddress: field(ColCompleteAddress),
		Address:         field(ColAddress),
		Status:          field(ColStatus),
		Link:            field(ColLink),
		Facebook:        field(ColFacebook),
		Instagram:       field(ColInstagram),
		LinkedIn:        field(ColLinkedIn),
		Twitter:         field(ColTwitter),
		Emails:          field(ColEmails),
		SearchKeyword:   field(ColSearchKeyword),
	}
}

// DomainStatus classifies the availability of a candidate domain.
type DomainStatus string

const (
	DomainAvailable     DomainStatus = "available"
	DomainRegistered    DomainStatus = "registered"
	DomainManualCheck   DomainStatus = "manual_check"
	DomainNotApplicable DomainStatus = "not_applicable"
)

// Label returns the human-readable form written to the output table.
func (s DomainStatus) Label() string {
	switch s {
	case DomainAvailable:
		return "Available"
	case DomainRegistered:
		return "Registered"
	case DomainManualCheck:
		return "Unknown/Manual Check"
	case DomainNotApplicable:
		return "N/A"
	default:
		return string(s)
	}
}

// QualifiedLead is a RawListing that passed filtering, enriched with the
// derived columns. It is not mutated after the enrich stage.
type QualifiedLead struct {
	RawListing

	Reviews        float64      `json:"reviews"`
	City           string       `json:"city"`
	DigitalScore   int          `json:"digital_score"`
	ContactProfile string       `json:"contact_profile"`
	DomainPL       DomainStatus `json:"domain_pl"`
	DomainCOM      DomainStatus `json:"domain_com"`
	TemplateSlug   string       `json:"template_slug"`
	MagicLink      string       `json:"magic_link"`
}
