package panelstate

import (
	"regexp"
	"strings"
)

var leadingDigits = regexp.MustCompile(`^\d+`)
var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// DeriveID implements spec.md §4.D's zone-id derivation, reused here for
// doors and outputs since the spec gives no separate rule for their ids and
// both are named the same way zones are on the panel's pages: leading
// numeric run of the name; otherwise the name lowercased with
// non-alphanumeric runs collapsed to a single underscore and trimmed; empty
// input yields "unknown".
func DeriveID(name string) string {
	name = strings.TrimSpace(name)
	if m := leadingDigits.FindString(name); m != "" {
		return m
	}
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		return "unknown"
	}
	return slug
}
