package pipeline

import (
	"strconv"

	"github.com/sells-group/leadfinder/internal/model"
)

// Output column names.
const (
	OutBusinessName   = "Business Name"
	OutCity           = "City"
	OutAddress        = "Address"
	OutContactProfile = "Contact Profile"
	OutDomainPL       = "Domain .PL"
	OutDomainCOM      = "Domain .COM"
	OutTemplateSlug   = "Template Slug"
	OutMagicLink      = "Magic Link"
	OutDigitalScore   = "Digital Score"
	OutReviews        = "Reviews"
	OutRating         = "Rating"
	OutMapsURL        = "Maps URL"
)

// Table is the projected output: a header and string cells. Missing values
// are empty strings.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of col, or -1.
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

type outputColumn struct {
	name string
	// source is the raw column the output depends on; empty for columns
	// that are always computed.
	source string
	value  func(model.QualifiedLead) string
}

var outputColumns = []outputColumn{
	{OutBusinessName, model.ColTitle, func(l model.QualifiedLead) string { return l.Title.Value }},
	{OutCity, model.ColCompleteAddress, func(l model.QualifiedLead) string { return l.City }},
	{OutAddress, model.ColAddress, func(l model.QualifiedLead) string { return l.Address.Value }},
	{OutContactProfile, "", func(l model.QualifiedLead) string { return l.ContactProfile }},
	{OutDomainPL, "", func(l model.QualifiedLead) string { return l.DomainPL.Label() }},
	{OutDomainCOM, "", func(l model.QualifiedLead) string { return l.DomainCOM.Label() }},
	{OutTemplateSlug, "", func(l model.QualifiedLead) string { return l.TemplateSlug }},
	{OutMagicLink, "", func(l model.QualifiedLead) string { return l.MagicLink }},
	{OutDigitalScore, "", func(l model.QualifiedLead) string { return strconv.Itoa(l.DigitalScore) }},
	{OutReviews, model.ColReviewCount, func(l model.QualifiedLead) string { return strconv.FormatFloat(l.Reviews, 'f', -1, 64) }},
	{OutRating, model.ColReviewRating, func(l model.QualifiedLead) string { return l.ReviewRating.Value }},
	{OutMapsURL, model.ColLink, func(l model.QualifiedLead) string { return l.Link.Value }},
}

// OutputColumns returns the full output header in order.
func OutputColumns() []string {
	cols := make([]string, len(outputColumns))
	for i, c := range outputColumns {
		cols[i] = c.name
	}
	return cols
}

// Project renders leads into the output table. A column whose raw source
// column appeared in no loaded source is omitted entirely.
func Project(leads []model.QualifiedLead, hasColumn func(string) bool) *Table {
	var cols []outputColumn
	for _, c := range outputColumns {
		if c.source == "" || hasColumn(c.source) {
			cols = append(cols, c)
		}
	}

	t := &Table{
		Columns: make([]string, len(cols)),
		Rows:    make([][]string, 0, len(leads)),
	}
	for i, c := range cols {
		t.Columns[i] = c.name
	}
	for _, l := range leads {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = c.value(l)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
