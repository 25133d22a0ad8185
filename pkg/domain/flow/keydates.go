// Package flow implements the lifecycle analytics engine: key-date
// resolution, cycle-time calculation, and status dwell-interval
// reconstruction over an item's event log.
package flow

import (
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
)

// KeyDates holds the two dates that matter for flow metrics: the first entry
// into any "entry" state and the first arrival at any "done" state. A nil
// pointer means the item never reached a state in the respective set.
type KeyDates struct {
	EntryDate *time.Time
	DoneDate  *time.Time
}

// HasEntry reports whether an explicit entry transition was observed.
func (k KeyDates) HasEntry() bool {
	return k.EntryDate != nil
}

// IsDone reports whether the item reached a done state.
func (k KeyDates) IsDone() bool {
	return k.DoneDate != nil
}

// ArrivalLookup answers "when did this item first reach this state". The
// default lookup reads the log's transition index directly; callers that
// memoize lookups (including negative results) substitute their own.
type ArrivalLookup func(log tracker.EventLog, stateID string) (time.Time, bool)

// ResolveKeyDates derives an item's key dates from an already-built event
// log. For each set, the earliest first-arrival across all member states
// wins, so whichever tracked state the item reached first decides the date,
// not the set's declaration order. The function performs no network access;
// one fetched log serves every derived calculation.
func ResolveKeyDates(log tracker.EventLog, entryStates, doneStates tracker.StateSet) KeyDates {
	return ResolveKeyDatesWith(log, entryStates, doneStates, indexLookup)
}

// ResolveKeyDatesWith is ResolveKeyDates with a caller-supplied lookup.
func ResolveKeyDatesWith(log tracker.EventLog, entryStates, doneStates tracker.StateSet, lookup ArrivalLookup) KeyDates {
	if lookup == nil {
		lookup = indexLookup
	}
	return KeyDates{
		EntryDate: earliestArrival(log, entryStates, lookup),
		DoneDate:  earliestArrival(log, doneStates, lookup),
	}
}

func indexLookup(log tracker.EventLog, stateID string) (time.Time, bool) {
	return log.Index.FirstArrival(stateID)
}

func earliestArrival(log tracker.EventLog, states tracker.StateSet, lookup ArrivalLookup) *time.Time {
	var earliest *time.Time
	for id := range states {
		ts, ok := lookup(log, id)
		if !ok {
			continue
		}
		if earliest == nil || ts.Before(*earliest) {
			t := ts
			earliest = &t
		}
	}
	return earliest
}
