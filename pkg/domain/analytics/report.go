// Package analytics defines the board-level result types produced by an
// analytics run: per-item flow metrics and the aggregate forecast over them.
package analytics

import (
	"strconv"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/flow"
	"github.com/felixgeelhaar/flowmetrics/pkg/domain/stats"
)

// DefaultPercentiles is the percentile table reported for every board.
var DefaultPercentiles = []float64{50, 75, 85, 95}

// PercentileKey names a percentile in the report table ("p50", "p95").
// Reports key percentiles by name rather than by float so they survive
// JSON encoding, which rejects float-keyed maps.
func PercentileKey(p float64) string {
	return "p" + strconv.FormatFloat(p, 'f', -1, 64)
}

// ItemResult carries one item's derived flow metrics. A nil CycleTime means
// the item has not completed; an empty interval list means it never touched a
// tracked state. FetchFailed marks items whose history could not be
// retrieved — they stay in the result with empty outputs rather than aborting
// the run.
type ItemResult struct {
	ItemKey     string
	KeyDates    flow.KeyDates
	CycleTime   *flow.CycleTime
	Intervals   []flow.StatusInterval
	FetchFailed bool
}

// IsCompleted reports whether the item reached a done state.
func (r ItemResult) IsCompleted() bool {
	return r.CycleTime != nil
}

// BoardReport is the aggregate analytics result for one board. It is always
// well-formed: a run where every fetch failed still yields a report with zero
// items, zero-filled percentiles, and no distribution.
type BoardReport struct {
	RunID       string
	BoardID     string
	GeneratedAt time.Time

	Items          []ItemResult
	CompletedCount int
	FailedCount    int

	// CycleTimesDays is the sample the forecast figures are computed over:
	// one duration per completed item.
	CycleTimesDays []float64
	// Percentiles is keyed by PercentileKey.
	Percentiles  map[string]float64
	Distribution *stats.ProbabilityDistribution
}

// ItemCount returns the number of items the run considered.
func (r BoardReport) ItemCount() int {
	return len(r.Items)
}

// CompletionRate returns the fraction of items that reached a done state.
func (r BoardReport) CompletionRate() float64 {
	if len(r.Items) == 0 {
		return 0
	}
	return float64(r.CompletedCount) / float64(len(r.Items))
}

// ZeroPercentiles returns the default percentile table with every value
// zero-filled, used when no completed items exist to sample.
func ZeroPercentiles() map[string]float64 {
	table := make(map[string]float64, len(DefaultPercentiles))
	for _, p := range DefaultPercentiles {
		table[PercentileKey(p)] = 0
	}
	return table
}

// AnomalyKind classifies a data-quality finding.
type AnomalyKind string

const (
	// AnomalyNegativeCycleTime marks a done date earlier than the start date.
	AnomalyNegativeCycleTime AnomalyKind = "negative_cycle_time"
	// AnomalyIllegalTransition marks a category move the lifecycle machine
	// rejects, such as done straight back to new.
	AnomalyIllegalTransition AnomalyKind = "illegal_transition"
	// AnomalyBucketMismatch marks a distribution whose bucket counts did not
	// sum to the sample size.
	AnomalyBucketMismatch AnomalyKind = "bucket_mismatch"
)

// Anomaly is one data-quality finding. Anomalies indicate corrupt upstream
// history, not engine failures; they are reported, never thrown.
type Anomaly struct {
	ItemKey string
	Kind    AnomalyKind
	Detail  string
}

// AuditReport lists the data-quality findings of one run.
type AuditReport struct {
	RunID        string
	BoardID      string
	GeneratedAt  time.Time
	ItemsScanned int
	Anomalies    []Anomaly
}

// Clean reports whether the audit found nothing wrong.
func (r AuditReport) Clean() bool {
	return len(r.Anomalies) == 0
}
