package corner

import (
	"math"
	"sort"
)

// SequenceCorners orders corners into track-traversal order and assigns
// 1-indexed corner IDs. This is the only step allowed to set Corner.ID.
//
// With 1-D lap distance available, sequencing is exact: ascending distance
// from the start/finish line, wrapping once at the lap boundary. With only
// 2-D geodetic positions, the order is approximated by each centroid's polar
// angle around the centroid of all centroids. That approximation only holds
// for roughly convex closed-loop layouts and can mis-order concave sections;
// callers needing exact ordering must supply a distance-along-track channel.
func SequenceCorners(corners []Corner, mode PositionMode) []Corner {
	out := append([]Corner(nil), corners...)

	if mode == PositionDistance {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Distance < out[j].Distance
		})
	} else {
		var cLat, cLon float64
		for _, c := range out {
			cLat += c.Lat
			cLon += c.Lon
		}
		n := float64(len(out))
		if n > 0 {
			cLat /= n
			cLon /= n
		}
		angle := func(c Corner) float64 {
			return math.Atan2(c.Lat-cLat, c.Lon-cLon)
		}
		sort.SliceStable(out, func(i, j int) bool {
			ai, aj := angle(out[i]), angle(out[j])
			if ai != aj {
				return ai < aj
			}
			// Ties broken by distance from the centroid so the order
			// stays deterministic for collinear corners.
			di := math.Hypot(out[i].Lat-cLat, out[i].Lon-cLon)
			dj := math.Hypot(out[j].Lat-cLat, out[j].Lon-cLon)
			return di < dj
		})
	}

	for i := range out {
		out[i].ID = i + 1
	}
	return out
}
