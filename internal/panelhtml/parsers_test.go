package panelhtml_test

import (
	"testing"

	"github.com/firasghr/spc2mqtt/internal/panelhtml"
)

const zonesPage = `
<html><body>
<table class="gridtable">
<tr><th>Zone</th><th>Secteur</th><th>Type</th><th>Entrée</th><th>État</th><th>Action</th></tr>
<tr><td>12 Entrée Hall</td><td>1</td><td>Instantanée</td><td>Fermée</td><td>Repos</td><td></td></tr>
<tr><td>Porte Garage</td><td>1</td><td>Retardée</td><td>Ouverte</td><td>Alarme</td><td></td></tr>
<tr><td></td><td></td><td></td><td></td><td></td><td></td></tr>
</body></html>`

func TestParseZones(t *testing.T) {
	rows, err := panelhtml.ParseZones(zonesPage)
	if err != nil {
		t.Fatalf("ParseZones: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(rows), rows)
	}
	if rows[0].Name != "12 Entrée Hall" || rows[0].EntreeText != "Fermée" || rows[0].StateText != "Repos" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].StateText != "Alarme" {
		t.Errorf("rows[1].StateText = %q, want Alarme", rows[1].StateText)
	}
}

func TestParseZones_EmptyTable(t *testing.T) {
	rows, err := panelhtml.ParseZones("<html><body>no tables here</body></html>")
	if err != nil {
		t.Fatalf("ParseZones: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %+v", rows)
	}
}

const spcHomePage = `
<html><body>
<table>
<tr><td>1</td><td>Tous Secteurs</td><td>MHS</td></tr>
<tr><td>2</td><td>Secteur 1: Rez-de-chaussée</td><td>MES Totale</td></tr>
<tr><td>3</td><td>Secteur 2 : Étage</td><td>MES Partielle B</td></tr>
<tr><td>4</td><td>not a sector row</td><td>ignored</td></tr>
</table>
</body></html>`

func TestParseSectors(t *testing.T) {
	rows, err := panelhtml.ParseSectors(spcHomePage)
	if err != nil {
		t.Fatalf("ParseSectors: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3: %+v", len(rows), rows)
	}
	if rows[0].ID != 0 || rows[0].StateText != "MHS" {
		t.Errorf("global row = %+v", rows[0])
	}
	if rows[1].ID != 1 || rows[1].Name != "Rez-de-chaussée" || rows[1].StateText != "MES Totale" {
		t.Errorf("rows[1] = %+v", rows[1])
	}
	if rows[2].ID != 2 || rows[2].Name != "Étage" || rows[2].StateText != "MES Partielle B" {
		t.Errorf("rows[2] = %+v", rows[2])
	}
}

func TestParseSectors_NoGlobalRowStillEmitsSyntheticEntry(t *testing.T) {
	rows, err := panelhtml.ParseSectors(`<html><body><table>
<tr><td>1</td><td>Secteur 1: A</td><td>MES Totale</td></tr>
</table></body></html>`)
	if err != nil {
		t.Fatalf("ParseSectors: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].ID != 0 || rows[0].StateText != "" {
		t.Errorf("synthetic global row = %+v, want empty state", rows[0])
	}
}

const doorsPage = `
<html><body>
<table class="gridtable">
<tr><th>Porte</th><th>Zone</th><th>Secteur</th><th>État</th><th>DRS</th><th>DPS</th></tr>
<tr><td>Porte Garage</td><td>Garage</td><td>1</td><td>Fermée et verrouillée</td><td>0</td><td>0</td></tr>
<tr><td>Porte Entrée</td><td>Hall</td><td>1</td><td>Ouverte</td><td>1</td><td>1</td></tr>
</table>
</body></html>`

func TestParseDoors(t *testing.T) {
	rows, err := panelhtml.ParseDoors(doorsPage)
	if err != nil {
		t.Fatalf("ParseDoors: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(rows), rows)
	}
	if rows[1].DRS != 1 || rows[1].DPS != 1 {
		t.Errorf("rows[1] drs/dps = %d/%d, want 1/1", rows[1].DRS, rows[1].DPS)
	}
}

const outputsPage = `
<html><body>
<table class="gridtable">
<tr><th>Sortie</th><th>État</th></tr>
<tr><td>Sirène</td><td><input type="submit" value="Activer"></td></tr>
<tr><td>Sortie 2</td><td>Inactif</td></tr>
</table>
</body></html>`

func TestParseOutputs(t *testing.T) {
	rows, err := panelhtml.ParseOutputs(outputsPage)
	if err != nil {
		t.Fatalf("ParseOutputs: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(rows), rows)
	}
	if rows[0].Name != "Sirène" || rows[1].Name != "Sortie 2" {
		t.Errorf("unexpected names: %+v", rows)
	}
	if rows[1].StateText != "Inactif" {
		t.Errorf("rows[1].StateText = %q, want Inactif", rows[1].StateText)
	}
}

const controllerStatusPage = `
<html><body>
<table>
<tr><td colspan="2">Alimentation</td></tr>
<tr><td>Secteur</td><td>OK</td></tr>
<tr><td>Batterie</td><td>12.4V</td></tr>
<tr><td colspan="2">Communication</td></tr>
<tr><td>GPRS</td><td>Connecté</td></tr>
</table>
</body></html>`

func TestParseControllerStatus(t *testing.T) {
	entries, err := panelhtml.ParseControllerStatus(controllerStatusPage)
	if err != nil {
		t.Fatalf("ParseControllerStatus: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(entries), entries)
	}
	if entries[0].Section != "Alimentation" || entries[0].Label != "Secteur" || entries[0].Value != "OK" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[2].Section != "Communication" || entries[2].Label != "GPRS" {
		t.Errorf("entries[2] = %+v", entries[2])
	}
}
