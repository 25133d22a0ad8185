package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/analytics"
	"github.com/felixgeelhaar/flowmetrics/pkg/domain/flow"
	"github.com/felixgeelhaar/flowmetrics/pkg/domain/stats"
	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
)

// AuditService surfaces data-quality anomalies in upstream histories:
// category moves the lifecycle machine rejects, negative cycle times, and
// distribution self-check failures. Anomalies are findings about the
// tracker's data, not engine errors.
type AuditService struct {
	analytics *AnalyticsService
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuditService creates an audit service sharing the analytics service's
// collaborators and cache behavior.
func NewAuditService(analyticsSvc *AnalyticsService, logger *slog.Logger) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{
		analytics: analyticsSvc,
		logger:    logger,
		now:       time.Now,
	}
}

// AuditBoard replays every item's transitions through the category lifecycle
// machine and checks derived metrics for inconsistencies. Items whose history
// cannot be fetched are skipped with a log entry.
func (s *AuditService) AuditBoard(ctx context.Context, boardID string) (*analytics.AuditReport, error) {
	run, err := s.analytics.StartRun(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("resolve board states: %w", err)
	}
	defer run.Close()

	items, err := s.analytics.lister.ListItems(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("list board items: %w", err)
	}

	report := &analytics.AuditReport{
		RunID:       run.ID,
		BoardID:     boardID,
		GeneratedAt: s.now(),
	}

	var cycleTimes []float64
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		log, err := run.eventLog(ctx, item)
		if err != nil {
			s.logger.Warn("skipping unauditable item",
				"item", item.Key,
				"error", err)
			continue
		}
		report.ItemsScanned++

		report.Anomalies = append(report.Anomalies, s.replayTransitions(item, log, run.Sets)...)

		keyDates := flow.ResolveKeyDatesWith(log, run.Sets.Entry, run.Sets.Done, run.caches.FirstArrival)
		if ct := flow.ComputeCycleTime(item.CreatedAt, keyDates); ct != nil {
			cycleTimes = append(cycleTimes, ct.DurationDays)
			if ct.IsNegative() {
				report.Anomalies = append(report.Anomalies, analytics.Anomaly{
					ItemKey: item.Key,
					Kind:    analytics.AnomalyNegativeCycleTime,
					Detail:  fmt.Sprintf("done %.1f hours before start", -ct.DurationHours),
				})
			}
		}
	}

	if _, err := stats.BuildDistribution(cycleTimes); errors.Is(err, stats.ErrBucketMismatch) {
		report.Anomalies = append(report.Anomalies, analytics.Anomaly{
			Kind:   analytics.AnomalyBucketMismatch,
			Detail: err.Error(),
		})
	}

	return report, nil
}

// replayTransitions walks an item's status changes at category granularity
// and records every move the lifecycle machine rejects. After a rejected
// move the machine is rebuilt in the claimed category so one bad record does
// not cascade into findings for every later event.
func (s *AuditService) replayTransitions(item tracker.Item, log tracker.EventLog, sets tracker.StateSets) []analytics.Anomaly {
	initial := flow.CreationState(item, log)
	machine, err := flow.NewLifecycleMachine(sets.CategoryFor(initial.ID), item.Key)
	if err != nil {
		s.logger.Error("failed to build lifecycle machine",
			"item", item.Key,
			"error", err)
		return nil
	}

	var anomalies []analytics.Anomaly
	for _, e := range log.Events {
		if !e.IsStatusChange() {
			continue
		}
		toCat := sets.CategoryFor(e.ToValue)
		if toCat == tracker.CategoryUnknown {
			continue
		}
		current := tracker.StateCategory(machine.Current())
		if current == toCat {
			continue
		}

		event, legal := flow.CategoryEvent(current, toCat)
		if legal {
			if err := machine.Transition(event); err == nil {
				continue
			}
		}

		anomalies = append(anomalies, analytics.Anomaly{
			ItemKey: item.Key,
			Kind:    analytics.AnomalyIllegalTransition,
			Detail:  fmt.Sprintf("%s -> %s at %s", current, toCat, e.OccurredAt.Format(time.RFC3339)),
		})
		machine, err = flow.NewLifecycleMachine(toCat, item.Key)
		if err != nil {
			s.logger.Error("failed to rebuild lifecycle machine",
				"item", item.Key,
				"error", err)
			return anomalies
		}
	}
	return anomalies
}
