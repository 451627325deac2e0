// Package panelhtml converts the SPC42 panel's HTML pages into typed row
// records. Each parser is a pure function of raw HTML to a slice of rows; none
// of them throws on malformed input (spec.md §4.C) -- an unparseable row is
// simply dropped, and the free-text fields they extract are left for
// internal/panelstate to map onto the closed state-code sets.
//
// Grounded on github.com/PuerkitoBio/goquery, the HTML-parsing library used
// by the scraping repo in the retrieved example pack (Easonliuliang-purify);
// the teacher engine itself has no HTML-parsing concern since it automates
// HTTP sessions against arbitrary targets, not a page it has to read.
package panelhtml

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ZoneRow is one row of the status_zones page, before state mapping.
type ZoneRow struct {
	Name       string
	Sector     string
	EntreeText string
	StateText  string
}

// SectorRow is one row of the spc_home page that matched the "Secteur N:"
// pattern, or the synthetic "Tous Secteurs" row (id 0).
type SectorRow struct {
	ID        int
	Name      string
	StateText string
}

// DoorRow is one row of the doors page.
type DoorRow struct {
	Name      string
	Zone      string
	Sector    string
	StateText string
	DRS       int
	DPS       int
}

// OutputRow is one row of the outputs page.
type OutputRow struct {
	Name      string
	StateText string
}

// ControllerEntry is one (section, label) -> value triple from the "État
// Centrale" page.
type ControllerEntry struct {
	Section string
	Label   string
	Value   string
}

var sectorHeaderPattern = regexp.MustCompile(`(?i)^Secteur\s+(\d+)\s*:\s*(.+)$`)

// ParseZones locates the first table with class "gridtable" and reads rows
// with at least 6 cells: name, sector, entree text (col 4), state text
// (col 5). Rows with an empty name are skipped.
func ParseZones(html string) ([]ZoneRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("panelhtml: parse zones page: %w", err)
	}

	var rows []ZoneRow
	doc.Find("table.gridtable").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 6 {
			return
		}
		name := cellText(cells, 0)
		if name == "" {
			return
		}
		rows = append(rows, ZoneRow{
			Name:       name,
			Sector:     cellText(cells, 1),
			EntreeText: cellText(cells, 3),
			StateText:  cellText(cells, 4),
		})
	})
	return rows, nil
}

// ParseSectors scans every row on the spc_home page for a second cell
// beginning with "Secteur". The implicit "Tous Secteurs" global row is
// always emitted under id 0.
func ParseSectors(html string) ([]SectorRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("panelhtml: parse spc_home page: %w", err)
	}

	rows := []SectorRow{{ID: 0, Name: "Tous Secteurs", StateText: globalSectorState(doc)}}

	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 3 {
			return
		}
		header := cellText(cells, 1)
		m := sectorHeaderPattern.FindStringSubmatch(header)
		if m == nil {
			return
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return
		}
		rows = append(rows, SectorRow{
			ID:        id,
			Name:      strings.TrimSpace(m[2]),
			StateText: cellText(cells, 2),
		})
	})
	return rows, nil
}

// globalSectorState looks for a row whose second cell is exactly "Tous
// Secteurs" (case-insensitive) and returns its state-text cell, or "" if no
// such row exists -- the synthetic global row is still emitted in that case,
// just with an unparseable (sentinel) state.
func globalSectorState(doc *goquery.Document) string {
	var state string
	doc.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() < 3 {
			return true
		}
		if strings.EqualFold(strings.TrimSpace(cellText(cells, 1)), "Tous Secteurs") {
			state = cellText(cells, 2)
			return false
		}
		return true
	})
	return state
}

// ParseDoors scans the doors page for rows with at least 6 cells: name,
// zone, sector, state text, drs button state, dps contact state.
func ParseDoors(html string) ([]DoorRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("panelhtml: parse doors page: %w", err)
	}

	var rows []DoorRow
	doc.Find("table.gridtable").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 6 {
			return
		}
		name := cellText(cells, 0)
		if name == "" {
			return
		}
		rows = append(rows, DoorRow{
			Name:      name,
			Zone:      cellText(cells, 1),
			Sector:    cellText(cells, 2),
			StateText: cellText(cells, 3),
			DRS:       parseSmallInt(cellText(cells, 4)),
			DPS:       parseSmallInt(cellText(cells, 5)),
		})
	})
	return rows, nil
}

// ParseOutputs scans the outputs page for rows with at least 2 cells: name
// and a raw state label.
func ParseOutputs(html string) ([]OutputRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("panelhtml: parse outputs page: %w", err)
	}

	var rows []OutputRow
	doc.Find("table.gridtable").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}
		name := cellText(cells, 0)
		if name == "" {
			return
		}
		rows = append(rows, OutputRow{
			Name:      name,
			StateText: cellText(cells, 1),
		})
	})
	return rows, nil
}

// ParseControllerStatus scans the "État Centrale" page for (section, label,
// value) triples: each section is introduced by a header row (a row with
// exactly one td/th cell, typically spanning the table via colspan), and
// subsequent two-cell rows under it are (label, value) pairs.
func ParseControllerStatus(html string) ([]ControllerEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("panelhtml: parse controller status page: %w", err)
	}

	var entries []ControllerEntry
	section := ""
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td, th")
		switch cells.Length() {
		case 1:
			text := strings.TrimSpace(cells.First().Text())
			if text != "" {
				section = text
			}
		case 2:
			label := cellText(cells, 0)
			value := cellText(cells, 1)
			if label == "" {
				return
			}
			entries = append(entries, ControllerEntry{Section: section, Label: label, Value: value})
		}
	})
	return entries, nil
}

func cellText(cells *goquery.Selection, i int) string {
	cell := cells.Eq(i)
	if cell.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(cell.Text()), " ")
}

func parseSmallInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return -1
	}
	return n
}
