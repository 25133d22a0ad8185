package flow

import (
	"testing"
	"time"
)

func TestComputeCycleTime_ObservedEntry(t *testing.T) {
	// Created Jan 1 09:00, To-Do Jan 2 10:00, Done Jan 5 15:00 → 77 hours.
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	entry := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	done := time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC)

	ct := ComputeCycleTime(created, KeyDates{EntryDate: &entry, DoneDate: &done})

	if ct == nil {
		t.Fatal("Expected cycle time")
	}
	if ct.DurationHours != 77 {
		t.Errorf("Expected 77 hours, got %v", ct.DurationHours)
	}
	if ct.DurationDays != 77.0/24 {
		t.Errorf("Expected %v days, got %v", 77.0/24, ct.DurationDays)
	}
	if ct.Provenance != ProvenanceObservedEntry {
		t.Errorf("Expected observed-entry provenance, got %s", ct.Provenance)
	}
	if ct.IsEstimated {
		t.Error("Expected IsEstimated false with explicit entry")
	}
	if !ct.StartDate.Equal(entry) || !ct.EndDate.Equal(done) {
		t.Error("Unexpected start/end dates")
	}
}

func TestComputeCycleTime_CreationFallback(t *testing.T) {
	// Created Jan 1 08:00, only Done Jan 3 16:00 → start is creation date.
	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	done := time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC)

	ct := ComputeCycleTime(created, KeyDates{DoneDate: &done})

	if ct == nil {
		t.Fatal("Expected cycle time")
	}
	if !ct.StartDate.Equal(created) {
		t.Errorf("Expected start at creation date, got %v", ct.StartDate)
	}
	if !ct.IsEstimated {
		t.Error("Expected IsEstimated true without entry date")
	}
	if ct.Provenance != ProvenanceCreationFallback {
		t.Errorf("Expected creation-fallback provenance, got %s", ct.Provenance)
	}
	if ct.DurationHours != 56 {
		t.Errorf("Expected 56 hours, got %v", ct.DurationHours)
	}
}

func TestComputeCycleTime_IncompleteItemIsNil(t *testing.T) {
	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	entry := created.Add(24 * time.Hour)

	if ct := ComputeCycleTime(created, KeyDates{EntryDate: &entry}); ct != nil {
		t.Error("Expected nil cycle time without done date")
	}
	if ct := ComputeCycleTime(created, KeyDates{}); ct != nil {
		t.Error("Expected nil cycle time for empty key dates")
	}
}

func TestComputeCycleTime_NegativeDurationSurfaced(t *testing.T) {
	// Done before entry: inconsistent history must be visible, not clamped.
	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	entry := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	done := time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)

	ct := ComputeCycleTime(created, KeyDates{EntryDate: &entry, DoneDate: &done})

	if ct == nil {
		t.Fatal("Expected cycle time")
	}
	if !ct.IsNegative() {
		t.Error("Expected negative duration to be surfaced")
	}
	if ct.DurationHours != -48 {
		t.Errorf("Expected -48 hours, got %v", ct.DurationHours)
	}
}
