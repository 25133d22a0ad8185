package tracker

import (
	"sort"
	"time"
)

// FieldStatus is the change-event field carrying workflow state moves. Other
// fields (assignee, priority, ...) pass through the event log untouched but
// are ignored by flow reconstruction.
const FieldStatus = "status"

// ChangeEvent is one historical field-change record for an item. Values are
// opaque tracker identifiers; labels are display strings for the same values.
type ChangeEvent struct {
	OccurredAt time.Time
	Field      string
	FromValue  string
	ToValue    string
	FromLabel  string
	ToLabel    string
}

// IsStatusChange reports whether the event moved the item's workflow state.
func (e ChangeEvent) IsStatusChange() bool {
	return e.Field == FieldStatus
}

// TransitionIndex maps a state identifier to the timestamp of the first
// historical transition that moved the item into that state. It is a pure
// derived view over a sorted event sequence and is rebuilt whenever the
// EventLog is.
type TransitionIndex map[string]time.Time

// FirstArrival returns the earliest transition into the given state, if any.
func (idx TransitionIndex) FirstArrival(stateID string) (time.Time, bool) {
	ts, ok := idx[stateID]
	return ts, ok
}

// EventLog is an item's full event history, sorted oldest first, plus the
// derived first-arrival index.
type EventLog struct {
	ItemKey string
	Events  []ChangeEvent
	Index   TransitionIndex
}

// IsEmpty reports whether the log holds no events. An empty log is a valid,
// degenerate result (unavailable or eventless history), not an error.
func (l EventLog) IsEmpty() bool {
	return len(l.Events) == 0
}

// StatusEvents returns the sorted subsequence of status-field changes.
func (l EventLog) StatusEvents() []ChangeEvent {
	var out []ChangeEvent
	for _, e := range l.Events {
		if e.IsStatusChange() {
			out = append(out, e)
		}
	}
	return out
}

// BuildEventLog normalizes a raw, unordered event history into an EventLog:
// events sorted ascending by occurrence time and an index recording, for each
// distinct status ToValue, its first occurrence. Later re-entries into the
// same state stay in the event sequence but do not overwrite the index.
func BuildEventLog(itemKey string, raw []ChangeEvent) EventLog {
	events := make([]ChangeEvent, len(raw))
	copy(events, raw)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})

	index := make(TransitionIndex)
	for _, e := range events {
		if !e.IsStatusChange() || e.ToValue == "" {
			continue
		}
		if _, seen := index[e.ToValue]; !seen {
			index[e.ToValue] = e.OccurredAt
		}
	}

	return EventLog{ItemKey: itemKey, Events: events, Index: index}
}
