package jira

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
)

type flakyTracker struct {
	failures int
	calls    int
}

func (f *flakyTracker) FetchEventHistory(ctx context.Context, itemKey string) ([]tracker.ChangeEvent, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, fmt.Errorf("transient tracker error")
	}
	return []tracker.ChangeEvent{{
		OccurredAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Field:      tracker.FieldStatus,
		ToValue:    "3",
	}}, nil
}

func (f *flakyTracker) ResolveTrackedStates(ctx context.Context, boardID string) (tracker.StateSets, error) {
	f.calls++
	if f.calls <= f.failures {
		return tracker.StateSets{}, fmt.Errorf("transient tracker error")
	}
	return tracker.StateSets{Tracked: tracker.NewStateSet("3")}, nil
}

func (f *flakyTracker) ListItems(ctx context.Context, boardID string) ([]tracker.Item, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, fmt.Errorf("transient tracker error")
	}
	return []tracker.Item{{Key: "FLOW-1"}}, nil
}

func TestResilientProvider_RetriesTransientFailures(t *testing.T) {
	inner := &flakyTracker{failures: 2}
	provider := NewResilientProvider(inner)

	events, err := provider.FetchEventHistory(context.Background(), "FLOW-1")
	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestResilientProvider_ExhaustsRetries(t *testing.T) {
	inner := &flakyTracker{failures: 10}
	provider := NewResilientProvider(inner)

	if _, err := provider.ListItems(context.Background(), "7"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if inner.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", inner.calls)
	}
}
