package corner

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AggregateClusters reduces each non-noise cluster into one Corner record:
// coordinate-wise median position (median, not mean, to resist outlier GPS
// jitter), median intensity, intensity standard deviation, and the cluster
// size as the observation count. Severity is classified from the median
// intensity via the configured scale. Corner IDs are not assigned here;
// that is the sequencer's job.
func AggregateClusters(peaks []PeakEvent, labels []int, scale SeverityScale) []Corner {
	byCluster := make(map[int][]PeakEvent)
	maxID := 0
	for i, l := range labels {
		if l == NoiseLabel || l == 0 {
			continue
		}
		byCluster[l] = append(byCluster[l], peaks[i])
		if l > maxID {
			maxID = l
		}
	}

	corners := make([]Corner, 0, len(byCluster))
	for cid := 1; cid <= maxID; cid++ {
		members := byCluster[cid]
		if len(members) == 0 {
			continue
		}

		lats := make([]float64, 0, len(members))
		lons := make([]float64, 0, len(members))
		dists := make([]float64, 0, len(members))
		intensities := make([]float64, len(members))
		for i, m := range members {
			if !math.IsNaN(m.Lat) && !math.IsNaN(m.Lon) {
				lats = append(lats, m.Lat)
				lons = append(lons, m.Lon)
			}
			if !math.IsNaN(m.Distance) {
				dists = append(dists, m.Distance)
			}
			intensities[i] = m.Intensity
		}

		intensity := median(intensities)
		corners = append(corners, Corner{
			Lat:          median(lats),
			Lon:          median(lons),
			Distance:     median(dists),
			Intensity:    intensity,
			Spread:       spread(intensities),
			Observations: len(members),
			Severity:     scale.Classify(intensity),
		})
	}
	return corners
}

// median returns the sample median, or NaN for an empty slice (e.g. a
// position channel absent from every member). The input is not modified.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// spread returns the population-style standard deviation, 0 for fewer than
// two values.
func spread(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return stat.StdDev(vals, nil)
}
