// Package lead derives per-record columns from a scraped listing: city,
// digital presence score and the contact profile line.
package lead

import (
	"encoding/json"
	"strings"
)

// ExtractCity returns the city from a scraper complete_address value.
//
// The scraper writes the address as a JSON object and occasionally doubles
// single quotes inside values; those are collapsed before parsing. Any input
// that is empty, not a JSON object, lacks a "city" key or holds a non-string
// city yields "".
func ExtractCity(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "''", "'")

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return ""
	}

	city, ok := obj["city"].(string)
	if !ok {
		return ""
	}
	return city
}
