package flow

import (
	"time"
)

// Provenance records where a cycle time's start date came from.
type Provenance string

const (
	// ProvenanceObservedEntry means an explicit entry transition was found.
	ProvenanceObservedEntry Provenance = "observed-entry"
	// ProvenanceCreationFallback means the item's creation time stood in for
	// a missing entry transition.
	ProvenanceCreationFallback Provenance = "creation-fallback"
)

// CycleTime is the elapsed duration from an item's entry into tracked work to
// its completion. It exists only for items that reached a done state.
type CycleTime struct {
	StartDate     time.Time
	EndDate       time.Time
	DurationHours float64
	DurationDays  float64
	IsEstimated   bool
	Provenance    Provenance
}

// IsNegative reports whether the computed duration runs backward. Negative
// durations signal inconsistent upstream history (clock skew, done before
// start) and are surfaced rather than clamped; callers should treat them as a
// data-quality signal.
func (c CycleTime) IsNegative() bool {
	return c.DurationHours < 0
}

// ComputeCycleTime derives an item's cycle time from its creation timestamp
// and resolved key dates. A nil result means the item is incomplete — absence
// is a first-class outcome, not an error. When no explicit entry transition
// exists, the creation timestamp is used and the result is flagged estimated.
func ComputeCycleTime(createdAt time.Time, keyDates KeyDates) *CycleTime {
	if !keyDates.IsDone() {
		return nil
	}

	start := createdAt
	provenance := ProvenanceCreationFallback
	if keyDates.HasEntry() {
		start = *keyDates.EntryDate
		provenance = ProvenanceObservedEntry
	}

	end := *keyDates.DoneDate
	hours := end.Sub(start).Hours()

	return &CycleTime{
		StartDate:     start,
		EndDate:       end,
		DurationHours: hours,
		DurationDays:  hours / 24,
		IsEstimated:   !keyDates.HasEntry(),
		Provenance:    provenance,
	}
}
