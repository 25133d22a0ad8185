// Package application orchestrates analytics runs: it drives the flow engine
// over a board's items, owns the run-scoped caches, and aggregates the
// board-level forecast.
package application

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
)

// transitionKey addresses one (item, state) first-arrival lookup.
type transitionKey struct {
	itemKey string
	stateID string
}

// transitionEntry memoizes a lookup result. found=false entries are kept so
// a state the item never reached is not rescanned.
type transitionEntry struct {
	at    time.Time
	found bool
}

// RunCaches holds the two caches scoped to a single analytics run: fetched
// event logs keyed by item, and memoized first-arrival lookups keyed by
// (item, state). Both live exactly as long as the run and carry no eviction
// policy. All methods are safe for concurrent use, and EventLogFor guarantees
// one fetch per item even under concurrent callers.
type RunCaches struct {
	mu          sync.Mutex
	logs        map[string]tracker.EventLog
	transitions map[transitionKey]transitionEntry
	inflight    map[string]chan struct{}
}

// NewRunCaches creates empty caches for one run.
func NewRunCaches() *RunCaches {
	return &RunCaches{
		logs:        make(map[string]tracker.EventLog),
		transitions: make(map[transitionKey]transitionEntry),
		inflight:    make(map[string]chan struct{}),
	}
}

// EventLogFor returns the cached event log for an item, fetching and indexing
// it on first use. Concurrent calls for the same item share a single fetch:
// later callers wait for the first to populate the entry. Fetch errors are
// not cached, so a later call may retry.
func (c *RunCaches) EventLogFor(ctx context.Context, itemKey string, fetch func(context.Context) ([]tracker.ChangeEvent, error)) (tracker.EventLog, error) {
	for {
		c.mu.Lock()
		if log, ok := c.logs[itemKey]; ok {
			c.mu.Unlock()
			return log, nil
		}
		wait, loading := c.inflight[itemKey]
		if !loading {
			done := make(chan struct{})
			c.inflight[itemKey] = done
			c.mu.Unlock()

			raw, err := fetch(ctx)
			c.mu.Lock()
			delete(c.inflight, itemKey)
			if err != nil {
				c.mu.Unlock()
				close(done)
				return tracker.EventLog{}, err
			}
			log := tracker.BuildEventLog(itemKey, raw)
			c.logs[itemKey] = log
			c.mu.Unlock()
			close(done)
			return log, nil
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return tracker.EventLog{}, ctx.Err()
		case <-wait:
		}
	}
}

// FirstArrival memoizes index lookups per (item, state), including negative
// results.
func (c *RunCaches) FirstArrival(log tracker.EventLog, stateID string) (time.Time, bool) {
	key := transitionKey{itemKey: log.ItemKey, stateID: stateID}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.transitions[key]; ok {
		return entry.at, entry.found
	}
	at, found := log.Index.FirstArrival(stateID)
	c.transitions[key] = transitionEntry{at: at, found: found}
	return at, found
}

// Clear disposes all cached entries. Runs call it when they close so no state
// leaks across analytics invocations.
func (c *RunCaches) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = make(map[string]tracker.EventLog)
	c.transitions = make(map[transitionKey]transitionEntry)
}
