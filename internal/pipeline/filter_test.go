package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadfinder/internal/model"
)

func titles(ls []model.RawListing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Title.Value
	}
	return out
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Permanently_Closed", "permanently_closed"},
		{"PERMANENTLY CLOSED", "permanently_closed"},
		{" permanently-closed ", "permanently_closed"},
		{"Temporarily Closed", "temporarily_closed"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStatus(tt.in), tt.in)
	}
}

func TestFilterStatus(t *testing.T) {
	in := []model.RawListing{
		{Title: model.Some("closed"), Status: model.Some("Permanently_Closed")},
		{Title: model.Some("no status")},
		{Title: model.Some("temporary"), Status: model.Some("Temporarily Closed")},
		{Title: model.Some("shouting"), Status: model.Some("PERMANENTLY CLOSED")},
		{Title: model.Some("open"), Status: model.Some("operational")},
		{Title: model.Some("blank"), Status: model.Some("")},
	}
	assert.Equal(t, []string{"no status", "temporary", "open", "blank"}, titles(FilterStatus(in)))
}

func TestFilterWebsite(t *testing.T) {
	in := []model.RawListing{
		{Title: model.Some("absent")},
		{Title: model.Some("empty"), Website: model.Some("")},
		{Title: model.Some("spaces"), Website: model.Some("   ")},
		{Title: model.Some("site"), Website: model.Some("https://a.example")},
	}
	assert.Equal(t, []string{"absent", "empty", "spaces"}, titles(FilterWebsite(in)))
}

func TestCoerceReviews(t *testing.T) {
	tests := []struct {
		name string
		in   model.Field
		want float64
	}{
		{"absent", model.None(), 0},
		{"empty", model.Some(""), 0},
		{"garbage", model.Some("abc"), 0},
		{"negative", model.Some("-3"), 0},
		{"nan", model.Some("NaN"), 0},
		{"inf", model.Some("+Inf"), 0},
		{"integer", model.Some("4"), 4},
		{"float", model.Some(" 2.5 "), 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceReviews(tt.in))
		})
	}
}

func TestFilterReviews(t *testing.T) {
	in := []model.RawListing{
		{Title: model.Some("zero"), ReviewCount: model.Some("0")},
		{Title: model.Some("ten"), ReviewCount: model.Some("10")},
		{Title: model.Some("garbage"), ReviewCount: model.Some("abc")},
		{Title: model.Some("edge"), ReviewCount: model.Some("5")},
		{Title: model.Some("just over"), ReviewCount: model.Some("5.5")},
		{Title: model.Some("absent")},
	}
	assert.Equal(t, []string{"zero", "garbage", "edge", "absent"}, titles(FilterReviews(in, DefaultMaxReviews)))
	assert.Equal(t, []string{"zero", "garbage", "absent"}, titles(FilterReviews(in, 0)))
}

func TestDedupe(t *testing.T) {
	in := []model.RawListing{
		{Title: model.Some("first"), Link: model.Some("https://maps.example/1")},
		{Title: model.Some("same link"), Link: model.Some(" https://maps.example/1 ")},
		{Title: model.Some("Kwiaciarnia  Róża"), Address: model.Some("ul. Długa 1")},
		{Title: model.Some("kwiaciarnia róża"), Address: model.Some("UL. DŁUGA 1")},
		{Title: model.Some("kwiaciarnia róża"), Address: model.Some("ul. Krótka 2")},
		{Title: model.Some("no key")},
		{},
		{},
	}
	got := Dedupe(in)
	assert.Equal(t, []string{"first", "Kwiaciarnia  Róża", "kwiaciarnia róża", "no key", "", ""}, titles(got))
	assert.Equal(t, "ul. Krótka 2", got[2].Address.Value)
}

func TestSortLeads_Stable(t *testing.T) {
	leads := []model.QualifiedLead{
		{RawListing: model.RawListing{Title: model.Some("a")}, DigitalScore: 1, Reviews: 0},
		{RawListing: model.RawListing{Title: model.Some("b")}, DigitalScore: 0, Reviews: 3},
		{RawListing: model.RawListing{Title: model.Some("c")}, DigitalScore: 1, Reviews: 0},
		{RawListing: model.RawListing{Title: model.Some("d")}, DigitalScore: 0, Reviews: 1},
		{RawListing: model.RawListing{Title: model.Some("e")}, DigitalScore: 0, Reviews: 3},
		{RawListing: model.RawListing{Title: model.Some("f")}, DigitalScore: 2, Reviews: 0},
	}
	SortLeads(leads)

	got := make([]string, len(leads))
	for i, l := range leads {
		got[i] = l.Title.Value
	}
	assert.Equal(t, []string{"d", "b", "e", "a", "c", "f"}, got)
}
