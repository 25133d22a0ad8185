package jira

import (
	"context"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
)

// ResilientProvider wraps tracker collaborators with retry and timeout
// handling so transient tracker hiccups do not fail a whole analysis run.
type ResilientProvider struct {
	history  tracker.HistoryProvider
	resolver tracker.StateResolver
	lister   tracker.ItemLister
}

// NewResilientProvider wraps a client that serves all three tracker roles.
func NewResilientProvider(client interface {
	tracker.HistoryProvider
	tracker.StateResolver
	tracker.ItemLister
}) *ResilientProvider {
	return &ResilientProvider{history: client, resolver: client, lister: client}
}

func (p *ResilientProvider) FetchEventHistory(ctx context.Context, itemKey string) ([]tracker.ChangeEvent, error) {
	return execute(ctx, func(ctx context.Context) ([]tracker.ChangeEvent, error) {
		return p.history.FetchEventHistory(ctx, itemKey)
	})
}

func (p *ResilientProvider) ResolveTrackedStates(ctx context.Context, boardID string) (tracker.StateSets, error) {
	return execute(ctx, func(ctx context.Context) (tracker.StateSets, error) {
		return p.resolver.ResolveTrackedStates(ctx, boardID)
	})
}

func (p *ResilientProvider) ListItems(ctx context.Context, boardID string) ([]tracker.Item, error) {
	return execute(ctx, func(ctx context.Context) ([]tracker.Item, error) {
		return p.lister.ListItems(ctx, boardID)
	})
}

func execute[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	r := retry.New[T](retry.Config{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		BackoffPolicy: retry.BackoffExponential,
	})

	t := timeout.New[T](timeout.Config{
		DefaultTimeout: 60 * time.Second,
	})

	return t.Execute(ctx, 60*time.Second, func(ctx context.Context) (T, error) {
		return r.Do(ctx, fn)
	})
}
