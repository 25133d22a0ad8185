package stats

import (
	"math"
	"sort"
)

// Percentile computes the p-th percentile of sample using linear
// interpolation between the two nearest ranks. p=0 and p=100 return the
// minimum and maximum directly.
func Percentile(sample []float64, p float64) (float64, error) {
	if len(sample) == 0 {
		return 0, ErrEmptySample
	}
	if p < 0 || p > 100 {
		return 0, InvalidPercentileError{Value: p}
	}

	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	return interpolate(sorted, p), nil
}

// Percentiles computes several percentiles against one sorted copy of the
// sample. Every requested percentile is validated before any is computed, so
// a single invalid value fails the whole call without partial results.
func Percentiles(sample []float64, ps []float64) (map[float64]float64, error) {
	if len(sample) == 0 {
		return nil, ErrEmptySample
	}
	for _, p := range ps {
		if p < 0 || p > 100 {
			return nil, InvalidPercentileError{Value: p}
		}
	}

	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	results := make(map[float64]float64, len(ps))
	for _, p := range ps {
		results[p] = interpolate(sorted, p)
	}
	return results, nil
}

// interpolate expects sorted ascending input and a valid percentile.
func interpolate(sorted []float64, p float64) float64 {
	n := len(sorted)
	if p == 0 {
		return sorted[0]
	}
	if p == 100 {
		return sorted[n-1]
	}

	idx := (p / 100) * float64(n-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}

	fraction := idx - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*fraction
}
