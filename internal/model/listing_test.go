package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestField_Blank(t *testing.T) {
	assert.True(t, None().Blank())
	assert.True(t, Some("").Blank())
	assert.True(t, Some("  \t").Blank())
	assert.False(t, Some("x").Blank())
}

func TestField_Trimmed(t *testing.T) {
	assert.Equal(t, "", None().Trimmed())
	assert.Equal(t, "abc", Some("  abc ").Trimmed())
}

func TestListingFromRecord(t *testing.T) {
	rec := map[string]string{
		ColTitle:   "Auto Serwis",
		ColWebsite: "",
		ColPhone:   "123",
	}
	l := ListingFromRecord(func(col string) (string, bool) {
		v, ok := rec[col]
		return v, ok
	})

	assert.Equal(t, Some("Auto Serwis"), l.Title)
	assert.Equal(t, Some(""), l.Website)
	assert.Equal(t, Some("123"), l.Phone)
	assert.False(t, l.Address.Present)
	assert.False(t, l.Status.Present)
}

func TestDomainStatus_Label(t *testing.T) {
	tests := []struct {
		status DomainStatus
		want   string
	}{
		{DomainAvailable, "Available"},
		{DomainRegistered, "Registered"},
		{DomainManualCheck, "Unknown/Manual Check"},
		{DomainNotApplicable, "N/A"},
		{DomainStatus("other"), "other"},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Label())
		})
	}
}
