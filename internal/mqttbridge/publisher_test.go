package mqttbridge

import (
	"testing"

	"github.com/firasghr/spc2mqtt/internal/config"
	"github.com/firasghr/spc2mqtt/internal/featuregate"
	"github.com/firasghr/spc2mqtt/internal/panelstate"
)

func TestPublishZones_SentinelSuppressed(t *testing.T) {
	b, fc := newTestBridge(allEnabled(), &fakeSessions{}, &fakeCommander{})
	b.PublishZones([]panelstate.Zone{{ID: "01", Name: "Hall", Sector: "1", Entree: -1, State: -1}})

	for _, msg := range fc.published {
		if msg.payload == "-1" {
			t.Errorf("sentinel value published: %+v", msg)
		}
	}
	// name and sector are metadata, always published; entree/state are
	// suppressed because both mapped to -1.
	if len(fc.published) != 2 {
		t.Fatalf("expected 2 metadata publishes, got %+v", fc.published)
	}
}

func TestPublishZones_GateDisabledPublishesNothing(t *testing.T) {
	flags := config.CategoryFlags{Zones: false}
	gate := featuregate.New(flags, flags)
	b, fc := newTestBridge(gate, &fakeSessions{}, &fakeCommander{})
	b.PublishZones([]panelstate.Zone{{ID: "01", Name: "Hall", State: 0}})
	if len(fc.published) != 0 {
		t.Errorf("expected no publishes when information.zones is disabled, got %+v", fc.published)
	}
}

func TestPublishZones_NoRedundantPublishOnSecondIdenticalScan(t *testing.T) {
	b, fc := newTestBridge(allEnabled(), &fakeSessions{}, &fakeCommander{})
	zones := []panelstate.Zone{{ID: "01", Name: "Hall", Sector: "1", Entree: 1, State: 0}}
	b.PublishZones(zones)
	first := len(fc.published)
	b.PublishZones(zones)
	if len(fc.published) != first {
		t.Errorf("expected no additional publishes on an identical second scan, got %d new", len(fc.published)-first)
	}
}

func TestPublishZones_ChangeDetectionPublishesOnlyChangedField(t *testing.T) {
	b, fc := newTestBridge(allEnabled(), &fakeSessions{}, &fakeCommander{})
	b.PublishZones([]panelstate.Zone{{ID: "01", Name: "Hall", Sector: "1", Entree: 1, State: 0}})
	fc.published = nil
	b.PublishZones([]panelstate.Zone{{ID: "01", Name: "Hall", Sector: "1", Entree: 1, State: 1}})
	if len(fc.published) != 1 {
		t.Fatalf("expected exactly one publish for the changed field, got %+v", fc.published)
	}
	if fc.published[0].topic != "base/zones/01/state" || fc.published[0].payload != "1" {
		t.Errorf("unexpected publish: %+v", fc.published[0])
	}
}

func TestPublishSectors_GlobalSectorUsesIDZero(t *testing.T) {
	b, fc := newTestBridge(allEnabled(), &fakeSessions{}, &fakeCommander{})
	b.PublishSectors([]panelstate.Sector{{ID: 0, Name: "Tous Secteurs", State: 0}})
	found := false
	for _, msg := range fc.published {
		if msg.topic == "base/secteurs/0/state" && msg.payload == "0" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected base/secteurs/0/state publish, got %+v", fc.published)
	}
}

func TestPublishControllerStatus_SkipsEmptySegments(t *testing.T) {
	b, fc := newTestBridge(allEnabled(), &fakeSessions{}, &fakeCommander{})
	b.PublishControllerStatus([]panelstate.ControllerStatus{
		{Section: "", Label: "x", Value: "1"},
		{Section: "alimentation", Label: "batterie", Value: "12.4v"},
	})
	if len(fc.published) != 1 {
		t.Fatalf("expected exactly one publish, got %+v", fc.published)
	}
	if fc.published[0].topic != "base/etat/alimentation/batterie" {
		t.Errorf("unexpected topic %q", fc.published[0].topic)
	}
}
