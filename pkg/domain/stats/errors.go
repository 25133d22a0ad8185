// Package stats provides the percentile and probability-distribution math
// used for flow forecasting.
package stats

import (
	"errors"
	"fmt"
)

// ErrEmptySample is returned when a computation needs at least one value.
var ErrEmptySample = errors.New("cannot compute over an empty sample")

// ErrBucketMismatch signals that the distribution's per-bucket counts do not
// sum to the sample size. It indicates corrupt input rather than a caller
// mistake and is surfaced so data-quality checks can log it.
var ErrBucketMismatch = errors.New("bucket counts do not sum to sample size")

// InvalidPercentileError reports a requested percentile outside [0, 100],
// carrying the offending value.
type InvalidPercentileError struct {
	Value float64
}

func (e InvalidPercentileError) Error() string {
	return fmt.Sprintf("percentile must be between 0 and 100, got %v", e.Value)
}
