package corner

import "math"

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two geodetic
// points. Raw coordinate differences distort away from the equator, so all
// 2-D peak distances go through here.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// WrappedDistance returns the 1-D separation of two lap-distance positions,
// wrapping at lapLength when the metric is circular (lapLength > 0).
func WrappedDistance(a, b, lapLength float64) float64 {
	d := math.Abs(a - b)
	if lapLength > 0 && lapLength-d < d {
		d = lapLength - d
	}
	return d
}

// ForwardDistance returns the distance traveled from position a forward to
// position b along a circular lap of lapLength. Unlike WrappedDistance it is
// oriented: a forward gap longer than half the lap is not folded onto its
// short complement. Track-order spacing checks need this orientation;
// clustering keeps the symmetric metric.
func ForwardDistance(a, b, lapLength float64) float64 {
	d := b - a
	if lapLength <= 0 {
		return math.Abs(d)
	}
	d = math.Mod(d, lapLength)
	if d < 0 {
		d += lapLength
	}
	return d
}

// PeakDistance returns the position distance between two peaks under the
// given mode. Peaks with missing position channels compare as infinitely
// far apart and end up as noise.
func PeakDistance(a, b PeakEvent, mode PositionMode, lapLength float64) float64 {
	switch mode {
	case PositionDistance:
		if math.IsNaN(a.Distance) || math.IsNaN(b.Distance) {
			return math.Inf(1)
		}
		return WrappedDistance(a.Distance, b.Distance, lapLength)
	default:
		if math.IsNaN(a.Lat) || math.IsNaN(a.Lon) || math.IsNaN(b.Lat) || math.IsNaN(b.Lon) {
			return math.Inf(1)
		}
		return HaversineMeters(a.Lat, a.Lon, b.Lat, b.Lon)
	}
}

// ClusterPeaks groups pooled peaks by density reachability: two peaks are
// directly reachable when their position distance is <= eps, and a cluster
// is the transitive closure of reachable peaks with at least minSamples
// members. The returned labels parallel the input; NoiseLabel marks peaks
// that reached no cluster. Cluster ids are 1..n in order of discovery, which
// is deterministic for a fixed input order.
func ClusterPeaks(peaks []PeakEvent, eps float64, minSamples int, mode PositionMode, lapLength float64) []int {
	n := len(peaks)
	labels := make([]int, n) // 0=unvisited, NoiseLabel=noise, >0=cluster id
	if n == 0 {
		return labels
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}

		neighbors := regionQuery(peaks, i, eps, mode, lapLength)
		if len(neighbors) < minSamples {
			labels[i] = NoiseLabel
			continue
		}

		clusterID++
		expandCluster(peaks, labels, i, neighbors, clusterID, eps, minSamples, mode, lapLength)
	}
	return labels
}

// regionQuery returns indices of all peaks within eps of peaks[idx],
// including idx itself. Peak pools are small (laps x corners), so a linear
// scan beats maintaining a spatial index here.
func regionQuery(peaks []PeakEvent, idx int, eps float64, mode PositionMode, lapLength float64) []int {
	var neighbors []int
	for j := range peaks {
		if PeakDistance(peaks[idx], peaks[j], mode, lapLength) <= eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

// expandCluster grows a cluster from a core peak with a queue-based sweep.
func expandCluster(peaks []PeakEvent, labels []int, seedIdx int, neighbors []int,
	clusterID int, eps float64, minSamples int, mode PositionMode, lapLength float64) {

	labels[seedIdx] = clusterID

	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]

		if labels[idx] == NoiseLabel {
			labels[idx] = clusterID // noise becomes a border peak
		}
		if labels[idx] != 0 {
			continue
		}

		labels[idx] = clusterID
		newNeighbors := regionQuery(peaks, idx, eps, mode, lapLength)
		if len(newNeighbors) >= minSamples {
			// Core peak: its neighborhood joins the queue.
			neighbors = append(neighbors, newNeighbors...)
		}
	}
}

// clusterCount returns the number of distinct non-noise clusters in labels.
func clusterCount(labels []int) int {
	max := 0
	for _, l := range labels {
		if l > max {
			max = l
		}
	}
	return max
}
