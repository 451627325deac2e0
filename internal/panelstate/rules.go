// Package panelstate maps the free-text status labels the panel's HTML
// pages render (French, locale-decorated, case-inconsistent) onto the closed
// integer state codes spec.md §4.D declares, and assembles the final entity
// records (§3) that the snapshot/diff engine and publisher operate on.
//
// Every mapper is an ordered list of (predicate, code) rules evaluated
// top-to-bottom, per spec.md §9's redesign note: a single ordered rule table
// per category instead of the panel-software's original if/elif branches, so
// precedence between overlapping labels (e.g. "MES Partielle B" must win
// over the plainer "MES Partielle") is a property of table order rather than
// branch order buried in a conditional chain.
package panelstate

import "strings"

// Rule is one row of an ordered mapping table: the first rule whose Match
// predicate accepts the lowercased, trimmed input text decides the output
// code. A table with no matching rule yields the sentinel -1 ("unparseable
// -- skip").
type Rule struct {
	Match func(text string) bool
	Code  int
}

// Contains builds a Rule that matches when text contains all of subs.
func Contains(code int, subs ...string) Rule {
	return Rule{
		Code: code,
		Match: func(text string) bool {
			for _, sub := range subs {
				if !strings.Contains(text, sub) {
					return false
				}
			}
			return true
		},
	}
}

// ContainsAny builds a Rule that matches when text contains any of subs.
func ContainsAny(code int, subs ...string) Rule {
	return Rule{
		Code: code,
		Match: func(text string) bool {
			for _, sub := range subs {
				if strings.Contains(text, sub) {
					return true
				}
			}
			return false
		},
	}
}

// apply runs rules in order against text, returning the first match's code
// or -1 if none match.
func apply(rules []Rule, text string) int {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, r := range rules {
		if r.Match(lower) {
			return r.Code
		}
	}
	return -1
}

// ZoneEntreeRules is the zone.entree table, spec.md §4.D.
var ZoneEntreeRules = []Rule{
	Contains(1, "ferm"),
	Contains(0, "ouvert"),
}

// ZoneStateRules is the zone.state table, spec.md §4.D.
var ZoneStateRules = []Rule{
	Contains(0, "normal"),
	Contains(1, "activ"),
}

// SectorStateRules is the sector.state table, spec.md §4.D. "MES Partielle
// B" is listed ahead of the plain "MES Partielle" rule so the more specific
// label always wins -- spec.md §9 fixes this precedence explicitly.
var SectorStateRules = []Rule{
	Contains(1, "mes totale"),
	Contains(3, "mes partiel", "b"),
	Contains(2, "mes partiel"),
	ContainsAny(0, "mhs", "désarm"),
	Contains(4, "alarme"),
}

// OutputStateRules is the output.state table, spec.md §4.D.
var OutputStateRules = []Rule{
	Contains(1, "on"),
	Contains(0, "off"),
}

// DoorStateRules is the door.state table, spec.md §4.D. Door state is a
// three-member set (0, 1, 4); spec.md §9 leaves open whether real firmware
// ever reports 2 or 3, so no rule here produces them.
var DoorStateRules = []Rule{
	ContainsAny(1, "déverrouill", "accès libre"),
	ContainsAny(0, "normal", "verrouill"),
	Contains(4, "alarme"),
}

// MapZoneEntree maps a zone's raw entree label to -1, 0, or 1.
func MapZoneEntree(text string) int { return apply(ZoneEntreeRules, text) }

// MapZoneState maps a zone's raw state label to -1, 0, or 1.
func MapZoneState(text string) int { return apply(ZoneStateRules, text) }

// MapSectorState maps a sector's raw state label to -1..4.
func MapSectorState(text string) int { return apply(SectorStateRules, text) }

// MapOutputState maps an output's raw state label to -1, 0, or 1.
func MapOutputState(text string) int { return apply(OutputStateRules, text) }

// MapDoorState maps a door's raw state label to 0, 1, 4, or -1 if
// unrecognised.
func MapDoorState(text string) int { return apply(DoorStateRules, text) }
