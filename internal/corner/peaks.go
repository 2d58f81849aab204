package corner

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/gridline-data/corner.report/internal/monitoring"
	"github.com/gridline-data/corner.report/internal/telemetry"
)

// ExtractPeaks finds corner-related extrema in one lap's intensity signal.
//
// The lap's series is smoothed, a percentile threshold computed over the
// valid positive intensity values, and local extrema located with a greedy
// scan that enforces the minimum separation and a prominence floor. For
// speed-style signals minima are intense; for brake-style signals maxima
// are. A lap with fewer valid samples than p.MinLapSamples contributes no
// peaks, as does a lap whose signal has no valid values at all; partial
// per-lap failure is tolerated and the engine aggregates over all laps.
func ExtractPeaks(lap telemetry.Lap, p Params) []PeakEvent {
	raw := make([]float64, len(lap.Samples))
	valid := 0
	for i, s := range lap.Samples {
		raw[i] = s.Intensity(p.Signal)
		if !math.IsNaN(raw[i]) {
			valid++
		}
	}
	if valid < p.MinLapSamples {
		monitoring.Logf("corner: skipping lap %d: %d valid %s samples (need %d)",
			lap.Number, valid, p.Signal, p.MinLapSamples)
		return nil
	}

	smoothed := Smooth(raw, p.SmoothingWindow)

	// Work in "intense is up" orientation so one scan handles both signal
	// styles: speed is negated, brake used as-is.
	work := make([]float64, len(smoothed))
	for i, v := range smoothed {
		if p.Signal == telemetry.SignalSpeed {
			work[i] = -v
		} else {
			work[i] = v
		}
	}

	threshold, ok := intensityThreshold(smoothed, work, p)
	if !ok {
		return nil
	}

	candidates := localMaxima(work)
	candidates = filterPeaks(work, candidates, threshold, p)

	peaks := make([]PeakEvent, 0, len(candidates))
	for _, idx := range candidates {
		s := lap.Samples[idx]
		peaks = append(peaks, PeakEvent{
			Lap:         lap.Number,
			SampleIndex: idx,
			Lat:         s.Lat,
			Lon:         s.Lon,
			Distance:    s.Distance,
			Intensity:   smoothed[idx],
		})
	}
	return peaks
}

// intensityThreshold computes the working-orientation threshold a peak must
// exceed: the p.ThresholdPercentile quantile over the valid positive
// intensity values, converted to the working orientation.
func intensityThreshold(smoothed, work []float64, p Params) (float64, bool) {
	vals := make([]float64, 0, len(smoothed))
	for i, v := range smoothed {
		if math.IsNaN(v) || v <= 0 {
			continue
		}
		vals = append(vals, work[i])
	}
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)
	return stat.Quantile(p.ThresholdPercentile/100, stat.Empirical, vals, nil), true
}

// localMaxima returns indices that top their immediate neighborhood in the
// working orientation: strictly above at least one neighbor, below neither.
func localMaxima(work []float64) []int {
	var out []int
	for i := 1; i < len(work)-1; i++ {
		if math.IsNaN(work[i]) || math.IsNaN(work[i-1]) || math.IsNaN(work[i+1]) {
			continue
		}
		if work[i] < work[i-1] || work[i] < work[i+1] {
			continue
		}
		if work[i] > work[i-1] || work[i] > work[i+1] {
			out = append(out, i)
		}
	}
	return out
}

// filterPeaks applies the threshold, prominence and minimum-separation
// rules. Candidates are ranked by working intensity (ties to the earlier
// index, keeping the scan deterministic) and accepted greedily.
func filterPeaks(work []float64, candidates []int, threshold float64, p Params) []int {
	eligible := make([]int, 0, len(candidates))
	for _, idx := range candidates {
		if work[idx] < threshold {
			continue
		}
		if prominence(work, idx, p.MinSeparation) < p.Prominence {
			continue
		}
		eligible = append(eligible, idx)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if work[eligible[i]] != work[eligible[j]] {
			return work[eligible[i]] > work[eligible[j]]
		}
		return eligible[i] < eligible[j]
	})

	var accepted []int
	for _, idx := range eligible {
		ok := true
		for _, a := range accepted {
			if abs(idx-a) < p.MinSeparation {
				ok = false
				break
			}
		}
		if ok {
			accepted = append(accepted, idx)
		}
	}
	sort.Ints(accepted)
	return accepted
}

// prominence measures how far a peak rises above the higher of the lowest
// points within the separation window on each side.
func prominence(work []float64, idx, window int) float64 {
	leftMin := work[idx]
	for i := idx - 1; i >= 0 && i >= idx-window; i-- {
		if !math.IsNaN(work[i]) && work[i] < leftMin {
			leftMin = work[i]
		}
	}
	rightMin := work[idx]
	for i := idx + 1; i < len(work) && i <= idx+window; i++ {
		if !math.IsNaN(work[i]) && work[i] < rightMin {
			rightMin = work[i]
		}
	}
	return work[idx] - math.Max(leftMin, rightMin)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
