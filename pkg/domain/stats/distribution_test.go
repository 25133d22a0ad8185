package stats

import (
	"testing"
)

func TestBuildDistribution_EmptySampleIsNil(t *testing.T) {
	dist, err := BuildDistribution(nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dist != nil {
		t.Error("Expected nil distribution for empty sample")
	}
}

func TestBuildDistribution_PartitionCoversSample(t *testing.T) {
	sample := []float64{1, 2, 2, 4, 5, 7, 8, 11, 13, 22}

	dist, err := BuildDistribution(sample)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dist == nil {
		t.Fatal("Expected distribution")
	}
	if dist.SampleSize != 10 {
		t.Errorf("Expected sample size 10, got %d", dist.SampleSize)
	}

	total := 0
	for i, b := range dist.Buckets {
		total += b.Count
		if b.MinDays >= b.MaxDays {
			t.Errorf("Bucket %d has empty range [%d, %d)", i, b.MinDays, b.MaxDays)
		}
		if i > 0 && b.MinDays != dist.Buckets[i-1].MaxDays {
			t.Errorf("Bucket %d not contiguous with previous", i)
		}
	}
	if total != dist.SampleSize {
		t.Errorf("Bucket counts sum to %d, expected %d", total, dist.SampleSize)
	}
}

func TestBuildDistribution_AdaptiveWidths(t *testing.T) {
	sample := []float64{1, 12, 35}

	dist, err := BuildDistribution(sample)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	widths := make(map[int]int)
	for _, b := range dist.Buckets {
		width := b.MaxDays - b.MinDays
		switch {
		case b.MinDays < 10 && width != 3:
			t.Errorf("Expected 3-day bucket below day 10, got [%d, %d)", b.MinDays, b.MaxDays)
		case b.MinDays >= 10 && b.MinDays < 30 && width != 5:
			t.Errorf("Expected 5-day bucket between days 10 and 30, got [%d, %d)", b.MinDays, b.MaxDays)
		case b.MinDays >= 30 && width != 10:
			t.Errorf("Expected 10-day bucket beyond day 30, got [%d, %d)", b.MinDays, b.MaxDays)
		}
		widths[width]++
	}
	if len(widths) != 3 {
		t.Errorf("Expected all three bucket widths for this range, got %v", widths)
	}
}

func TestBuildDistribution_CumulativeConfidence(t *testing.T) {
	sample := []float64{1, 2, 2, 4, 5, 7, 8, 11, 13, 22}

	dist, err := BuildDistribution(sample)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	prev := 0.0
	for i, b := range dist.Buckets {
		if b.Confidence < prev {
			t.Errorf("Bucket %d confidence %v decreased from %v", i, b.Confidence, prev)
		}
		prev = b.Confidence
	}
	last := dist.Buckets[len(dist.Buckets)-1]
	if !almostEqual(last.Confidence, 1.0) {
		t.Errorf("Expected final confidence 1.0, got %v", last.Confidence)
	}
}

func TestBuildDistribution_HeadlineWindowFromConfidenceBand(t *testing.T) {
	// Cumulative confidence reaches exactly 0.7 at the [6, 9) bucket.
	sample := []float64{1, 2, 2, 4, 5, 7, 8, 11, 13, 22}

	dist, err := BuildDistribution(sample)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	win := dist.Recommended
	if win == nil {
		t.Fatal("Expected a recommended window")
	}
	if win.MinDays != 6 || win.MaxDays != 9 {
		t.Errorf("Expected [6, 9) window, got [%d, %d)", win.MinDays, win.MaxDays)
	}
	if !almostEqual(win.Confidence, 0.7) {
		t.Errorf("Expected 0.7 confidence, got %v", win.Confidence)
	}
}

func TestBuildDistribution_P75Fallback(t *testing.T) {
	// Every value lands in the first bucket, so cumulative confidence jumps
	// straight to 1.0 and no bucket sits in the headline band.
	sample := []float64{1, 1, 2, 2}

	dist, err := BuildDistribution(sample)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	win := dist.Recommended
	if win == nil {
		t.Fatal("Expected a fallback window")
	}
	if !almostEqual(win.Confidence, 0.75) {
		t.Errorf("Expected fallback confidence 0.75, got %v", win.Confidence)
	}
	// p75 of the sample is 2: window is [p75/2, ceil(p75)].
	if win.MinDays != 1 || win.MaxDays != 2 {
		t.Errorf("Expected [1, 2] fallback window, got [%d, %d]", win.MinDays, win.MaxDays)
	}
}

func TestBuildDistribution_RecommendedBuckets(t *testing.T) {
	sample := []float64{1, 2, 2, 4, 5, 7, 8, 11, 13, 22}

	dist, err := BuildDistribution(sample)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, b := range dist.Buckets {
		if !b.Recommended {
			continue
		}
		if b.Confidence < recommendMinConfidence || b.Confidence > recommendMaxConfidence {
			t.Errorf("Recommended bucket [%d, %d) outside confidence band: %v",
				b.MinDays, b.MaxDays, b.Confidence)
		}
		if b.Probability <= recommendMinShare {
			t.Errorf("Recommended bucket [%d, %d) below probability floor: %v",
				b.MinDays, b.MaxDays, b.Probability)
		}
	}
}
