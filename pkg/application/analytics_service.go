package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/analytics"
	"github.com/felixgeelhaar/flowmetrics/pkg/domain/flow"
	"github.com/felixgeelhaar/flowmetrics/pkg/domain/stats"
	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
	"github.com/google/uuid"
)

// AnalyticsService computes flow analytics over a board's items. Items are
// processed sequentially — one history fetch completes before the next begins
// — to bound load on the tracker and keep per-item failures attributable.
type AnalyticsService struct {
	history  tracker.HistoryProvider
	resolver tracker.StateResolver
	lister   tracker.ItemLister
	logger   *slog.Logger
	now      func() time.Time
}

// NewAnalyticsService creates an analytics service over the given
// collaborators.
func NewAnalyticsService(history tracker.HistoryProvider, resolver tracker.StateResolver, lister tracker.ItemLister, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		history:  history,
		resolver: resolver,
		lister:   lister,
		logger:   logger,
		now:      time.Now,
	}
}

// Run scopes one analytics invocation: a board's resolved state sets plus
// fresh caches. Runs are closed when finished so no cache state leaks into
// the next invocation.
type Run struct {
	ID      string
	BoardID string
	Sets    tracker.StateSets

	svc    *AnalyticsService
	caches *RunCaches
}

// StartRun resolves the board's state classification once and opens a run
// with empty caches.
func (s *AnalyticsService) StartRun(ctx context.Context, boardID string) (*Run, error) {
	sets, err := s.resolver.ResolveTrackedStates(ctx, boardID)
	if err != nil {
		return nil, err
	}
	return &Run{
		ID:      uuid.New().String(),
		BoardID: boardID,
		Sets:    sets,
		svc:     s,
		caches:  NewRunCaches(),
	}, nil
}

// Close disposes the run's caches.
func (r *Run) Close() {
	r.caches.Clear()
}

// eventLog returns the item's cached log, fetching it on first use.
func (r *Run) eventLog(ctx context.Context, item tracker.Item) (tracker.EventLog, error) {
	return r.caches.EventLogFor(ctx, item.Key, func(ctx context.Context) ([]tracker.ChangeEvent, error) {
		return r.svc.history.FetchEventHistory(ctx, item.Key)
	})
}

// KeyDates resolves the item's entry and done dates. A failed history fetch
// is logged and yields empty key dates; it never aborts the caller.
func (r *Run) KeyDates(ctx context.Context, item tracker.Item) flow.KeyDates {
	log, err := r.eventLog(ctx, item)
	if err != nil {
		r.svc.logger.Warn("event history unavailable",
			"item", item.Key,
			"error", err)
		return flow.KeyDates{}
	}
	return flow.ResolveKeyDatesWith(log, r.Sets.Entry, r.Sets.Done, r.caches.FirstArrival)
}

// CycleTime derives the item's cycle time, or nil when it has not completed.
func (r *Run) CycleTime(ctx context.Context, item tracker.Item) *flow.CycleTime {
	return flow.ComputeCycleTime(item.CreatedAt, r.KeyDates(ctx, item))
}

// Intervals reconstructs the item's dwell intervals over the run's tracked
// states. A failed fetch is logged and yields an empty list.
func (r *Run) Intervals(ctx context.Context, item tracker.Item) []flow.StatusInterval {
	log, err := r.eventLog(ctx, item)
	if err != nil {
		r.svc.logger.Warn("event history unavailable",
			"item", item.Key,
			"error", err)
		return nil
	}
	return flow.ReconstructIntervals(item, log, r.Sets, r.svc.now())
}

// ListItems returns the board's items as the tracker reports them.
func (s *AnalyticsService) ListItems(ctx context.Context, boardID string) ([]tracker.Item, error) {
	return s.lister.ListItems(ctx, boardID)
}

// AnalyzeBoard runs the full analytics pipeline for one board and always
// returns a well-formed report: when state resolution, listing, or every
// fetch fails, the report is empty (zero items, zero-filled percentiles, no
// distribution) rather than an error. Cancelling the context stops further
// fetches and returns the partial result.
func (s *AnalyticsService) AnalyzeBoard(ctx context.Context, boardID string) *analytics.BoardReport {
	report := &analytics.BoardReport{
		BoardID:     boardID,
		GeneratedAt: s.now(),
		Percentiles: analytics.ZeroPercentiles(),
	}

	run, err := s.StartRun(ctx, boardID)
	if err != nil {
		s.logger.Error("failed to resolve board states",
			"board", boardID,
			"error", err)
		report.RunID = uuid.New().String()
		return report
	}
	defer run.Close()
	report.RunID = run.ID

	items, err := s.lister.ListItems(ctx, boardID)
	if err != nil {
		s.logger.Error("failed to list board items",
			"board", boardID,
			"error", err)
		return report
	}

	now := s.now()
	for _, item := range items {
		if ctx.Err() != nil {
			s.logger.Warn("analytics run cancelled, returning partial results",
				"board", boardID,
				"processed", len(report.Items))
			break
		}

		log, err := run.eventLog(ctx, item)
		if err != nil {
			s.logger.Warn("skipping item after fetch failure",
				"item", item.Key,
				"error", err)
			report.Items = append(report.Items, analytics.ItemResult{ItemKey: item.Key, FetchFailed: true})
			report.FailedCount++
			continue
		}

		keyDates := flow.ResolveKeyDatesWith(log, run.Sets.Entry, run.Sets.Done, run.caches.FirstArrival)
		cycleTime := flow.ComputeCycleTime(item.CreatedAt, keyDates)
		intervals := flow.ReconstructIntervals(item, log, run.Sets, now)

		if cycleTime != nil {
			report.CompletedCount++
			report.CycleTimesDays = append(report.CycleTimesDays, cycleTime.DurationDays)
			if cycleTime.IsNegative() {
				s.logger.Warn("negative cycle time indicates inconsistent history",
					"item", item.Key,
					"hours", cycleTime.DurationHours)
			}
		}

		report.Items = append(report.Items, analytics.ItemResult{
			ItemKey:   item.Key,
			KeyDates:  keyDates,
			CycleTime: cycleTime,
			Intervals: intervals,
		})
	}

	s.aggregate(report)
	return report
}

// aggregate fills the board-level forecast figures from the completed items'
// cycle times.
func (s *AnalyticsService) aggregate(report *analytics.BoardReport) {
	if len(report.CycleTimesDays) == 0 {
		return
	}

	percentiles, err := stats.Percentiles(report.CycleTimesDays, analytics.DefaultPercentiles)
	if err != nil {
		s.logger.Error("percentile computation failed",
			"board", report.BoardID,
			"error", err)
	} else {
		for p, v := range percentiles {
			report.Percentiles[analytics.PercentileKey(p)] = v
		}
	}

	dist, err := stats.BuildDistribution(report.CycleTimesDays)
	if err != nil && errors.Is(err, stats.ErrBucketMismatch) {
		s.logger.Warn("distribution bucket self-check failed",
			"board", report.BoardID,
			"error", err)
	}
	report.Distribution = dist
}
