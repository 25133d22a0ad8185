package flow

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
)

func ts(day, hour int) time.Time {
	return time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
}

func statusEvent(day, hour int, from, to string) tracker.ChangeEvent {
	return tracker.ChangeEvent{
		OccurredAt: ts(day, hour),
		Field:      tracker.FieldStatus,
		FromValue:  from,
		ToValue:    to,
	}
}

func TestResolveKeyDates_EarliestAcrossSetMembers(t *testing.T) {
	// The item reached state 3 before state 2; both are entry states, so the
	// earlier arrival wins regardless of declaration order.
	log := tracker.BuildEventLog("PROJ-1", []tracker.ChangeEvent{
		statusEvent(2, 9, "1", "3"),
		statusEvent(4, 9, "3", "2"),
		statusEvent(6, 9, "2", "5"),
	})

	dates := ResolveKeyDates(log, tracker.NewStateSet("2", "3"), tracker.NewStateSet("5"))

	if !dates.HasEntry() {
		t.Fatal("Expected entry date")
	}
	if !dates.EntryDate.Equal(ts(2, 9)) {
		t.Errorf("Expected entry on day 2, got %v", *dates.EntryDate)
	}
	if !dates.IsDone() {
		t.Fatal("Expected done date")
	}
	if !dates.DoneDate.Equal(ts(6, 9)) {
		t.Errorf("Expected done on day 6, got %v", *dates.DoneDate)
	}
}

func TestResolveKeyDates_NoMatchesYieldNil(t *testing.T) {
	log := tracker.BuildEventLog("PROJ-2", []tracker.ChangeEvent{
		statusEvent(1, 9, "1", "2"),
	})

	dates := ResolveKeyDates(log, tracker.NewStateSet("9"), tracker.NewStateSet("8"))

	if dates.HasEntry() {
		t.Error("Expected no entry date")
	}
	if dates.IsDone() {
		t.Error("Expected no done date")
	}
}

func TestResolveKeyDates_EmptyLog(t *testing.T) {
	log := tracker.BuildEventLog("PROJ-3", nil)

	dates := ResolveKeyDates(log, tracker.NewStateSet("1"), tracker.NewStateSet("2"))

	if dates.HasEntry() || dates.IsDone() {
		t.Error("Expected nil key dates for empty log")
	}
}

func TestResolveKeyDates_ReentryDoesNotMoveDate(t *testing.T) {
	log := tracker.BuildEventLog("PROJ-4", []tracker.ChangeEvent{
		statusEvent(1, 9, "1", "2"),
		statusEvent(3, 9, "2", "1"),
		statusEvent(5, 9, "1", "2"),
	})

	dates := ResolveKeyDates(log, tracker.NewStateSet("2"), tracker.NewStateSet("9"))

	if !dates.EntryDate.Equal(ts(1, 9)) {
		t.Errorf("Expected first arrival on day 1, got %v", *dates.EntryDate)
	}
}
