// Package slug derives URL-safe identifiers from job titles.
package slug

import (
	"regexp"
	"strings"
)

var (
	stripRE    = regexp.MustCompile(`[^a-z0-9\s_-]`)
	collapseRE = regexp.MustCompile(`[\s_-]+`)
)

// Make lowercases the title, strips punctuation (everything outside
// alphanumerics, whitespace, underscore and hyphen), collapses runs of
// whitespace/underscore/hyphen into a single hyphen, and trims hyphens
// from both ends. Deterministic; no uniqueness guarantee against other
// slugs in the catalog.
func Make(title string) string {
	s := strings.ToLower(title)
	s = stripRE.ReplaceAllString(s, "")
	s = collapseRE.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
