// Package telemetry defines the normalized per-sample telemetry model the
// corner engine consumes, plus lap grouping and a CSV session loader.
//
// Samples arrive already column-normalized: upstream loaders are responsible
// for resolving vendor-specific channel names before values reach this
// package. Missing values are represented as NaN, never as zero.
package telemetry

import (
	"fmt"
	"math"
	"sort"
)

// Signal channel names recognised by the engine.
const (
	SignalSpeed = "speed" // km/h; lower is more intense (corner = speed minimum)
	SignalBrake = "brake" // bar; higher is more intense (corner = pressure maximum)
)

// Sample is one normalized telemetry reading. Position may be geodetic
// (Lat/Lon), a distance along the track (Distance, meters from start/finish),
// or both. Any float field may be NaN when the source channel dropped out.
type Sample struct {
	Lap      int     // 1-indexed lap number
	T        float64 // ordering key within a lap (seconds or sample index)
	Lat      float64 // geodetic latitude, degrees
	Lon      float64 // geodetic longitude, degrees
	Distance float64 // distance along track, meters, >= 0
	Speed    float64 // km/h, >= 0
	Brake    float64 // brake pressure, bar, >= 0
}

// Intensity returns the sample's value for the named signal channel.
// Unknown signals return NaN.
func (s Sample) Intensity(signal string) float64 {
	switch signal {
	case SignalSpeed:
		return s.Speed
	case SignalBrake:
		return s.Brake
	default:
		return math.NaN()
	}
}

// Validate checks the physical constraints a normalized sample must satisfy.
// NaN values are allowed (dropout), negative distance/speed/pressure are not.
func (s Sample) Validate() error {
	if s.Lap < 1 {
		return fmt.Errorf("lap must be >= 1, got %d", s.Lap)
	}
	if s.Distance < 0 {
		return fmt.Errorf("lap %d: negative distance %.2f", s.Lap, s.Distance)
	}
	if s.Speed < 0 {
		return fmt.Errorf("lap %d: negative speed %.2f", s.Lap, s.Speed)
	}
	if s.Brake < 0 {
		return fmt.Errorf("lap %d: negative brake pressure %.2f", s.Lap, s.Brake)
	}
	return nil
}

// Lap is one lap's samples in ascending order of the ordering key.
type Lap struct {
	Number  int
	Samples []Sample
}

// GroupLaps partitions a session into per-lap groups, sorting each lap's
// samples by the ordering key. Lap groups are returned in ascending lap
// number. The input slice is not modified.
func GroupLaps(session []Sample) []Lap {
	byLap := make(map[int][]Sample)
	for _, s := range session {
		byLap[s.Lap] = append(byLap[s.Lap], s)
	}

	numbers := make([]int, 0, len(byLap))
	for n := range byLap {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	laps := make([]Lap, 0, len(numbers))
	for _, n := range numbers {
		samples := append([]Sample(nil), byLap[n]...)
		sort.SliceStable(samples, func(i, j int) bool {
			return samples[i].T < samples[j].T
		})
		laps = append(laps, Lap{Number: n, Samples: samples})
	}
	return laps
}

// MaxDistance returns the largest valid Distance across all samples, or 0 if
// no sample carries a distance channel. Used as the lap length for wraparound
// arithmetic.
func MaxDistance(session []Sample) float64 {
	max := 0.0
	for _, s := range session {
		if !math.IsNaN(s.Distance) && s.Distance > max {
			max = s.Distance
		}
	}
	return max
}
