package panelstate

import (
	"strconv"
	"strings"

	"github.com/firasghr/spc2mqtt/internal/panelhtml"
)

// Zone is the normalized record for one intrusion-detection input,
// spec.md §3.
type Zone struct {
	ID     string
	Name   string
	Sector string
	Entree int
	State  int
}

// Sector is the normalized record for one armable grouping of zones,
// spec.md §3. ID 0 is reserved for the synthetic "Tous Secteurs" row.
type Sector struct {
	ID    int
	Name  string
	State int
}

// Door is the normalized record for one access-controlled opening,
// spec.md §3.
type Door struct {
	ID     string
	Name   string
	Zone   string
	Sector string
	State  int
	DRS    int
	DPS    int
}

// Output is the normalized record for one switchable panel output,
// spec.md §3.
type Output struct {
	ID       string
	Name     string
	State    int
	StateTxt string
}

// ControllerStatus is one (section, label) -> value entry from the "État
// Centrale" page, spec.md §3. It carries no mapped integer state: it is
// republished as free text under etat/<section>/<label>.
type ControllerStatus struct {
	Section string
	Label   string
	Value   string
}

// BuildZones maps parsed zone rows into normalized Zone records.
func BuildZones(rows []panelhtml.ZoneRow) []Zone {
	zones := make([]Zone, 0, len(rows))
	for _, r := range rows {
		zones = append(zones, Zone{
			ID:     DeriveID(r.Name),
			Name:   r.Name,
			Sector: r.Sector,
			Entree: MapZoneEntree(r.EntreeText),
			State:  MapZoneState(r.StateText),
		})
	}
	return zones
}

// BuildSectors maps parsed sector rows into normalized Sector records.
func BuildSectors(rows []panelhtml.SectorRow) []Sector {
	sectors := make([]Sector, 0, len(rows))
	for _, r := range rows {
		sectors = append(sectors, Sector{
			ID:    r.ID,
			Name:  r.Name,
			State: MapSectorState(r.StateText),
		})
	}
	return sectors
}

// BuildDoors maps parsed door rows into normalized Door records.
func BuildDoors(rows []panelhtml.DoorRow) []Door {
	doors := make([]Door, 0, len(rows))
	for _, r := range rows {
		doors = append(doors, Door{
			ID:     DeriveID(r.Name),
			Name:   r.Name,
			Zone:   r.Zone,
			Sector: r.Sector,
			State:  MapDoorState(r.StateText),
			DRS:    r.DRS,
			DPS:    r.DPS,
		})
	}
	return doors
}

// BuildOutputs maps parsed output rows into normalized Output records.
func BuildOutputs(rows []panelhtml.OutputRow) []Output {
	outputs := make([]Output, 0, len(rows))
	for _, r := range rows {
		outputs = append(outputs, Output{
			ID:       DeriveID(r.Name),
			Name:     r.Name,
			State:    MapOutputState(r.StateText),
			StateTxt: r.StateText,
		})
	}
	return outputs
}

// BuildControllerStatus maps parsed controller entries into
// ControllerStatus records, normalizing the label into a topic-safe segment
// the publisher can append directly after etat/<section>/.
func BuildControllerStatus(entries []panelhtml.ControllerEntry) []ControllerStatus {
	out := make([]ControllerStatus, 0, len(entries))
	for _, e := range entries {
		out = append(out, ControllerStatus{
			Section: TopicSegment(e.Section),
			Label:   TopicSegment(e.Label),
			Value:   e.Value,
		})
	}
	return out
}

// TopicSegment normalizes free text (a controller-status section or label)
// into an MQTT topic segment: lowercased, non-alphanumerics collapsed to
// underscore, trimmed. Unlike DeriveID this never falls back to "unknown" --
// an empty segment is left empty and the caller decides whether to skip it.
func TopicSegment(text string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), "_")
	return strings.Trim(slug, "_")
}

// SectorIDString renders a sector id the way publisher topics expect it.
func SectorIDString(id int) string { return strconv.Itoa(id) }
