package util

import (
	"math"
	"testing"
)

func TestNewStats(t *testing.T) {
	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	if s.Mean != 5 || s.Min != 2 || s.Max != 9 {
		t.Fatalf("Unexpected stats %+v", s)
	}
	if s.StdDeviation != 2 {
		t.Fatalf("Expected standard deviation 2, got %f", s.StdDeviation)
	}
	if math.Abs(s.MinMaxRatio-2.0/9.0) > 1e-9 {
		t.Fatalf("Expected min/max ratio 2/9, got %f", s.MinMaxRatio)
	}

	if (NewStats(nil) != Stats{}) {
		t.Fatal("Expected zero stats for no values")
	}
}

func TestDistributionQuality(t *testing.T) {
	even := NewDistributionStats([]float64{3, 3, 3})
	if even.DistributionQuality != 1 {
		t.Fatalf("Expected quality 1 for an even distribution, got %f", even.DistributionQuality)
	}

	skewed := NewDistributionStats([]float64{1, 1, 1, 50})
	if skewed.DistributionQuality >= even.DistributionQuality {
		t.Fatalf("Expected skewed distribution to rate lower, got %f", skewed.DistributionQuality)
	}
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	if (h.Summary() != SizeSummary{}) {
		t.Fatal("Expected empty summary")
	}

	for i := 0; i < 90; i++ {
		h.AddSample(10) // first bucket
	}
	for i := 0; i < 10; i++ {
		h.AddSample(2000) // (1024, 4096]
	}

	s := h.Summary()
	if s.Count != 100 || h.Count() != 100 {
		t.Fatalf("Expected 100 samples, got %d", s.Count)
	}
	if s.Average != (90*10+10*2000)/100 || s.Average != h.Average() {
		t.Fatalf("Unexpected average %d", s.Average)
	}
	if s.Median != 8 {
		t.Fatalf("Expected median estimate 8, got %d", s.Median)
	}
	if s.P95 != (1024+4096)/2 || h.Percentile(95) != s.P95 {
		t.Fatalf("Expected p95 estimate %d, got %d", (1024+4096)/2, s.P95)
	}

	h.AddSample(math.MaxInt32 * 4)
	if got := h.Percentile(100); got != 4294967296*2 {
		t.Fatalf("Expected overflow bucket estimate, got %d", got)
	}
}
