package commands

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// label turns stored enum values like "superseded" into display text.
func label(s string) string {
	if s == "" {
		return "-"
	}
	return titleCaser.String(s)
}

// shortID trims uuids to their first group for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
