// Package tracker defines the canonical shapes the analytics engine receives
// from an external issue-tracking service: states, change events, and the
// collaborator interfaces that supply them.
package tracker

// StateCategory classifies a workflow state for flow analytics.
type StateCategory string

const (
	// CategoryNew marks states an item occupies before work starts.
	CategoryNew StateCategory = "new"
	// CategoryInProgress marks states where work is actively happening.
	CategoryInProgress StateCategory = "in_progress"
	// CategoryDone marks terminal states.
	CategoryDone StateCategory = "done"
	// CategoryUnknown is used when the tracker reports no category.
	CategoryUnknown StateCategory = "unknown"
)

// State is the canonical `{id, label, category}` triple. Tracker payloads are
// normalized into this shape at the collaborator boundary; the engine never
// sees raw tracker fields.
type State struct {
	ID       string
	Label    string
	Category StateCategory
}

// IsZero returns true when the state carries no identifier.
func (s State) IsZero() bool {
	return s.ID == ""
}

// StateSet is a membership set of state identifiers.
type StateSet map[string]struct{}

// NewStateSet builds a StateSet from identifiers, ignoring empty ones.
func NewStateSet(ids ...string) StateSet {
	set := make(StateSet, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is a member of the set.
func (s StateSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// StateSets is the pre-resolved board classification supplied once per
// analytics run: which states count as entry into work, which as completion,
// and the union of all column-mapped states the caller tracks.
type StateSets struct {
	Entry   StateSet
	Done    StateSet
	Tracked StateSet
	// Labels maps state IDs to display labels for reporting.
	Labels map[string]string
	// Categories maps state IDs to their workflow category.
	Categories map[string]StateCategory
}

// CategoryFor returns the category recorded for a state ID, or
// CategoryUnknown when the board configuration carries none.
func (s StateSets) CategoryFor(id string) StateCategory {
	if s.Categories != nil {
		if cat, ok := s.Categories[id]; ok {
			return cat
		}
	}
	return CategoryUnknown
}

// LabelFor returns the display label for a state ID, falling back to the ID
// itself when the board configuration carries none.
func (s StateSets) LabelFor(id string) string {
	if s.Labels != nil {
		if label, ok := s.Labels[id]; ok && label != "" {
			return label
		}
	}
	return id
}
