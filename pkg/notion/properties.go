package notion

import (
	"strconv"
	"strings"

	"github.com/jomei/notionapi"
)

// Schema maps table columns onto Notion property types. Columns not named
// here become rich text.
type Schema struct {
	Title   string
	URLs    []string
	Numbers []string
}

// Properties converts one table row into page properties. The title column
// is always set; other empty cells are left out, as are number cells that do
// not parse.
func (s Schema) Properties(columns, row []string) notionapi.Properties {
	props := make(notionapi.Properties, len(columns))
	for i, col := range columns {
		v := ""
		if i < len(row) {
			v = strings.TrimSpace(row[i])
		}

		switch {
		case col == s.Title:
			props[col] = notionapi.TitleProperty{
				Type:  notionapi.PropertyTypeTitle,
				Title: richText(v),
			}
		case v == "":
			continue
		case contains(s.URLs, col):
			props[col] = notionapi.URLProperty{
				Type: notionapi.PropertyTypeURL,
				URL:  v,
			}
		case contains(s.Numbers, col):
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			props[col] = notionapi.NumberProperty{
				Type:   notionapi.PropertyTypeNumber,
				Number: n,
			}
		default:
			props[col] = notionapi.RichTextProperty{
				Type:     notionapi.PropertyTypeRichText,
				RichText: richText(v),
			}
		}
	}
	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
