package flow

import (
	"sort"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
)

// StatusInterval is one sojourn of an item in one tracked state. A nil
// ExitDate means the item was still in the state at calculation time. An item
// that revisits a state produces one interval per visit, ordered by entry.
type StatusInterval struct {
	StateID    string
	StateLabel string
	EntryDate  time.Time
	ExitDate   *time.Time
	HoursSpent float64
	DaysSpent  float64
}

// IsOpen reports whether the item was still in this state when measured.
func (i StatusInterval) IsOpen() bool {
	return i.ExitDate == nil
}

// transition is one entry into a tracked state during replay.
type transition struct {
	stateID string
	label   string
	at      time.Time
}

// CreationState returns the state the item occupied at creation time: the
// FromValue of the earliest status event in the sorted history, or — when the
// history holds no status events at all — the item's present-day state. This
// rule seeds the very first dwell interval and is load-bearing for its
// correctness.
func CreationState(item tracker.Item, log tracker.EventLog) tracker.State {
	for _, e := range log.Events {
		if !e.IsStatusChange() {
			continue
		}
		return tracker.State{ID: e.FromValue, Label: e.FromLabel}
	}
	return item.CurrentState
}

// ReconstructIntervals replays an item's ordered status transitions,
// restricted to the caller's tracked states, and emits one interval per
// sojourn. Transitions into untracked states are transparent: they neither
// close nor open an interval, so time spent in an untracked state accrues to
// whichever tracked state preceded it. Each interval's exit date is the next
// transition's entry date; the final interval stays open and its duration is
// measured against now, floored at zero. Items that never touch a tracked
// state yield an empty list.
func ReconstructIntervals(item tracker.Item, log tracker.EventLog, sets tracker.StateSets, now time.Time) []StatusInterval {
	var transitions []transition

	if initial := CreationState(item, log); !initial.IsZero() && sets.Tracked.Contains(initial.ID) {
		transitions = append(transitions, transition{
			stateID: initial.ID,
			label:   stateLabel(initial.ID, initial.Label, sets),
			at:      item.CreatedAt,
		})
	}

	for _, e := range log.Events {
		if !e.IsStatusChange() || !sets.Tracked.Contains(e.ToValue) {
			continue
		}
		transitions = append(transitions, transition{
			stateID: e.ToValue,
			label:   stateLabel(e.ToValue, e.ToLabel, sets),
			at:      e.OccurredAt,
		})
	}

	if len(transitions) == 0 {
		return nil
	}

	sort.SliceStable(transitions, func(i, j int) bool {
		return transitions[i].at.Before(transitions[j].at)
	})

	intervals := make([]StatusInterval, 0, len(transitions))
	for i, tr := range transitions {
		interval := StatusInterval{
			StateID:    tr.stateID,
			StateLabel: tr.label,
			EntryDate:  tr.at,
		}
		if i+1 < len(transitions) {
			exit := transitions[i+1].at
			interval.ExitDate = &exit
			interval.HoursSpent = exit.Sub(tr.at).Hours()
		} else {
			hours := now.Sub(tr.at).Hours()
			if hours < 0 {
				hours = 0
			}
			interval.HoursSpent = hours
		}
		interval.DaysSpent = interval.HoursSpent / 24
		intervals = append(intervals, interval)
	}

	return intervals
}

func stateLabel(id, eventLabel string, sets tracker.StateSets) string {
	if eventLabel != "" {
		return eventLabel
	}
	return sets.LabelFor(id)
}
