package stats

import (
	"math"
)

// Bucket widths widen as durations grow: fine-grained for short cycles,
// coarse beyond a month.
const (
	narrowBucketDays = 3
	mediumBucketDays = 5
	wideBucketDays   = 10
	narrowRangeCeil  = 10
	mediumRangeCeil  = 30
)

// Thresholds for marking buckets and deriving the headline recommendation.
const (
	recommendMinConfidence = 0.35
	recommendMaxConfidence = 0.85
	recommendMinShare      = 0.05
	headlineMinConfidence  = 0.70
	headlineMaxConfidence  = 0.85
	fallbackConfidence     = 0.75
)

// DayBucket is one adjacent, non-overlapping day range of the distribution.
// Samples fall in [MinDays, MaxDays).
type DayBucket struct {
	MinDays     int
	MaxDays     int
	Count       int
	Probability float64
	// Confidence is the cumulative probability through this bucket, in
	// ascending day order.
	Confidence  float64
	Recommended bool
}

// CompletionWindow is the single headline forecast: "this item will most
// likely finish within MinDays to MaxDays" at the given confidence level.
type CompletionWindow struct {
	MinDays    int
	MaxDays    int
	Confidence float64
}

// ProbabilityDistribution is a bucketed histogram of cycle-time durations
// with cumulative-confidence annotations, used for percentile-style SLA
// answers.
type ProbabilityDistribution struct {
	Buckets    []DayBucket
	SampleSize int
	// Recommended is nil only when no headline window could be derived.
	Recommended *CompletionWindow
}

// BuildDistribution buckets a sample of durations (in days) into adaptive
// day ranges and derives the recommended completion window. A nil result
// means the sample was empty. ErrBucketMismatch is returned alongside the
// distribution when the partition self-check fails; that is a data-quality
// signal, not a usage error.
func BuildDistribution(sampleDays []float64) (*ProbabilityDistribution, error) {
	if len(sampleDays) == 0 {
		return nil, nil
	}

	maxDay := sampleDays[0]
	for _, d := range sampleDays[1:] {
		if d > maxDay {
			maxDay = d
		}
	}

	buckets := partition(maxDay)
	size := len(sampleDays)
	counted := 0
	cumulative := 0.0
	for i := range buckets {
		b := &buckets[i]
		for _, d := range sampleDays {
			if d >= float64(b.MinDays) && d < float64(b.MaxDays) {
				b.Count++
			}
		}
		counted += b.Count
		b.Probability = float64(b.Count) / float64(size)
		cumulative += b.Probability
		b.Confidence = cumulative
	}

	dist := &ProbabilityDistribution{
		Buckets:    buckets,
		SampleSize: size,
	}
	markRecommended(dist.Buckets)
	dist.Recommended = headlineWindow(dist.Buckets, sampleDays)

	if counted != size {
		return dist, ErrBucketMismatch
	}
	return dist, nil
}

// partition generates adjacent day ranges covering [0, maxDay]: 3-day buckets
// up to day 10, 5-day buckets up to day 30, 10-day buckets beyond.
func partition(maxDay float64) []DayBucket {
	var buckets []DayBucket
	cur := 0
	for float64(cur) <= maxDay {
		width := wideBucketDays
		switch {
		case cur < narrowRangeCeil:
			width = narrowBucketDays
		case cur < mediumRangeCeil:
			width = mediumBucketDays
		}
		buckets = append(buckets, DayBucket{MinDays: cur, MaxDays: cur + width})
		cur += width
	}
	return buckets
}

// markRecommended flags, among the two highest-probability buckets, those
// whose cumulative confidence sits in the recommendation band and whose own
// share of the sample is not negligible.
func markRecommended(buckets []DayBucket) {
	top, second := -1, -1
	for i, b := range buckets {
		switch {
		case top == -1 || b.Probability > buckets[top].Probability:
			second = top
			top = i
		case second == -1 || b.Probability > buckets[second].Probability:
			second = i
		}
	}
	for _, i := range []int{top, second} {
		if i == -1 {
			continue
		}
		b := &buckets[i]
		if b.Confidence >= recommendMinConfidence && b.Confidence <= recommendMaxConfidence &&
			b.Probability > recommendMinShare {
			b.Recommended = true
		}
	}
}

// headlineWindow picks the first bucket whose cumulative confidence lands in
// the headline band. When no bucket qualifies it falls back to a window
// around the sample's 75th percentile.
func headlineWindow(buckets []DayBucket, sampleDays []float64) *CompletionWindow {
	for _, b := range buckets {
		if b.Confidence >= headlineMinConfidence && b.Confidence <= headlineMaxConfidence {
			return &CompletionWindow{
				MinDays:    b.MinDays,
				MaxDays:    b.MaxDays,
				Confidence: b.Confidence,
			}
		}
	}

	p75, err := Percentile(sampleDays, 75)
	if err != nil {
		return nil
	}
	return &CompletionWindow{
		MinDays:    int(p75 / 2),
		MaxDays:    int(math.Ceil(p75)),
		Confidence: fallbackConfidence,
	}
}
