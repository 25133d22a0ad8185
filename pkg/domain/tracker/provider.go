package tracker

import (
	"context"
	"time"
)

// Item is the minimal view of a trackable unit of work the engine needs:
// identity, creation time, and the present-day state (used to seed interval
// reconstruction when the history holds no status events).
type Item struct {
	Key          string
	CreatedAt    time.Time
	CurrentState State
}

// HistoryProvider fetches the raw, unordered event history for one item.
// Implementations must return an error for unavailable histories rather than
// panic; "no events" is a valid empty slice, not an error.
type HistoryProvider interface {
	FetchEventHistory(ctx context.Context, itemKey string) ([]ChangeEvent, error)
}

// StateResolver supplies the pre-resolved board state classification, once
// per board per analytics run.
type StateResolver interface {
	ResolveTrackedStates(ctx context.Context, boardID string) (StateSets, error)
}

// ItemLister enumerates the items on a board. Listing is a collaborator
// concern; the engine only consumes the result.
type ItemLister interface {
	ListItems(ctx context.Context, boardID string) ([]Item, error)
}
