package flow

import (
	"fmt"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit integration.
// These must remain untyped string constants for statekit.StateID
// compatibility. Values are kept in sync with tracker.StateCategory.
const (
	StateNew        = "new"
	StateInProgress = "in_progress"
	StateDone       = "done"
)

// Lifecycle event names, one per legal category move.
const (
	EventStart    = "start"
	EventPause    = "pause"
	EventComplete = "complete"
	EventReopen   = "reopen"
)

// LifecycleContext carries state data for the category machine.
type LifecycleContext struct {
	ItemKey string
}

// LifecycleMachine validates the category-level moves an item's history
// claims it made. A move the machine rejects is a data-quality anomaly in the
// upstream history, not an engine error.
type LifecycleMachine struct {
	interpreter *statekit.Interpreter[LifecycleContext]
}

// NewLifecycleMachine builds a category machine starting in the given
// category. Unknown categories start the machine in "new".
func NewLifecycleMachine(initial tracker.StateCategory, itemKey string) (*LifecycleMachine, error) {
	start := string(initial)
	switch start {
	case StateNew, StateInProgress, StateDone:
	default:
		start = StateNew
	}

	builder := statekit.NewMachine[LifecycleContext]("lifecycle-machine").
		WithInitial(statekit.StateID(start)).
		WithContext(LifecycleContext{ItemKey: itemKey})

	builder.State(StateNew).
		On(EventStart).Target(StateInProgress).
		Done()

	builder.State(StateInProgress).
		On(EventComplete).Target(StateDone).
		On(EventPause).Target(StateNew).
		Done()

	builder.State(StateDone).
		On(EventReopen).Target(StateInProgress).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build lifecycle machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &LifecycleMachine{interpreter: interpreter}, nil
}

// Transition attempts the named event. It returns an error when the move is
// not legal from the current category.
func (m *LifecycleMachine) Transition(event string) error {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := m.Current()

	if before != after {
		return nil
	}
	return fmt.Errorf("the move '%s' is not allowed from the '%s' category", event, before)
}

// Current returns the machine's current category value.
func (m *LifecycleMachine) Current() string {
	return string(m.interpreter.State().Value)
}

// CategoryEvent names the lifecycle event implied by a move between two
// categories. The boolean is false when no single legal event describes the
// move (e.g. new directly to done, or done back to new) — those moves are the
// anomalies the audit exists to surface.
func CategoryEvent(from, to tracker.StateCategory) (string, bool) {
	switch {
	case from == tracker.CategoryNew && to == tracker.CategoryInProgress:
		return EventStart, true
	case from == tracker.CategoryInProgress && to == tracker.CategoryDone:
		return EventComplete, true
	case from == tracker.CategoryInProgress && to == tracker.CategoryNew:
		return EventPause, true
	case from == tracker.CategoryDone && to == tracker.CategoryInProgress:
		return EventReopen, true
	default:
		return "", false
	}
}
