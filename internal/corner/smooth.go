package corner

import "math"

// Smooth returns a same-length copy of series with gaps (NaN) linearly
// interpolated and a centered moving average of the given window width
// applied. Edge samples where the window does not fit keep the gap-filled
// original value. Series shorter than the window are returned unchanged
// (no-op): corner detection tolerates some noise but not total data loss,
// so a too-short lap is passed through rather than rejected here.
func Smooth(series []float64, window int) []float64 {
	out := append([]float64(nil), series...)
	if window < 3 || len(series) < window {
		return out
	}

	filled := fillGaps(series)
	copy(out, filled)

	half := window / 2
	for i := half; i < len(filled)-half; i++ {
		sum := 0.0
		n := 0
		for j := i - half; j <= i+half; j++ {
			if math.IsNaN(filled[j]) {
				continue
			}
			sum += filled[j]
			n++
		}
		if n > 0 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// fillGaps linearly interpolates NaN runs between valid neighbors. Leading
// and trailing gaps take the nearest valid value. A series with no valid
// values at all is returned as-is; the peak extractor then skips the lap.
func fillGaps(series []float64) []float64 {
	out := append([]float64(nil), series...)

	firstValid := -1
	for i, v := range out {
		if !math.IsNaN(v) {
			firstValid = i
			break
		}
	}
	if firstValid == -1 {
		return out
	}
	for i := 0; i < firstValid; i++ {
		out[i] = out[firstValid]
	}

	lastValid := firstValid
	for i := firstValid + 1; i < len(out); i++ {
		if math.IsNaN(out[i]) {
			continue
		}
		if gap := i - lastValid; gap > 1 {
			step := (out[i] - out[lastValid]) / float64(gap)
			for j := lastValid + 1; j < i; j++ {
				out[j] = out[lastValid] + step*float64(j-lastValid)
			}
		}
		lastValid = i
	}
	for i := lastValid + 1; i < len(out); i++ {
		out[i] = out[lastValid]
	}
	return out
}
