package snapshot_test

import (
	"testing"

	"github.com/firasghr/spc2mqtt/internal/snapshot"
)

func TestShouldPublish_FirstObservationAlwaysPublishes(t *testing.T) {
	s := snapshot.New()
	if !s.ShouldPublish("zones", "01", "state", "0") {
		t.Error("expected first observation of a field to require publication")
	}
}

func TestShouldPublish_NoRedundantPublishAfterCommit(t *testing.T) {
	s := snapshot.New()
	s.Commit("zones", "01", "state", "0")
	if s.ShouldPublish("zones", "01", "state", "0") {
		t.Error("expected no publish for an unchanged value")
	}
}

func TestShouldPublish_ChangeDetected(t *testing.T) {
	s := snapshot.New()
	s.Commit("zones", "01", "state", "0")
	if !s.ShouldPublish("zones", "01", "state", "1") {
		t.Error("expected publish when the value changes")
	}
}

func TestShouldPublish_UncommittedPublishDoesNotSuppressRetry(t *testing.T) {
	s := snapshot.New()
	// Simulate a failed publish: ShouldPublish was true, but Commit was never
	// called because the MQTT send failed.
	if !s.ShouldPublish("zones", "01", "state", "1") {
		t.Fatal("expected initial ShouldPublish to be true")
	}
	if !s.ShouldPublish("zones", "01", "state", "1") {
		t.Error("expected retry to still require publication since Commit was never called")
	}
}

func TestShouldPublish_CategoriesAreIndependent(t *testing.T) {
	s := snapshot.New()
	s.Commit("zones", "01", "state", "0")
	if !s.ShouldPublish("doors", "01", "state", "0") {
		t.Error("expected a different category with the same id/field to be independent")
	}
}
