// Package corner implements the corner identification engine: it recovers
// the physical corner layout of a track from noisy multi-lap telemetry.
//
// The pipeline runs per-lap signal smoothing, per-lap peak extraction,
// cross-lap density clustering of the pooled peaks, cluster aggregation into
// Corner records, track-order sequencing, and a validated parameter search
// that retries with relaxed parameters when a pass under-detects.
//
// The engine holds no state across calls: detection with a fixed input and
// a fixed parameter set is a pure function returning a new CornerSet.
package corner

import (
	"github.com/gridline-data/corner.report/internal/telemetry"
)

// PositionMode selects the coordinate space used for clustering and
// sequencing.
type PositionMode string

const (
	// PositionGeodetic clusters over 2-D lat/lon with haversine distance.
	PositionGeodetic PositionMode = "2d-geodetic"
	// PositionDistance clusters over 1-D lap distance with wraparound.
	PositionDistance PositionMode = "1d-distance"
)

// PeakEvent is one detected extremum in a lap's intensity signal: the raw
// evidence of a corner. Peaks are pooled across laps, labeled by the
// clusterer and discarded after aggregation.
type PeakEvent struct {
	Lap         int
	SampleIndex int // index into the lap's sorted sample slice

	Lat      float64
	Lon      float64
	Distance float64

	// Intensity is the signal value at the extremum in its native unit
	// (km/h for speed, bar for brake pressure).
	Intensity float64
}

// NoiseLabel marks peaks that belong to no cluster and are dropped.
const NoiseLabel = -1

// Corner is the engine's durable output unit: one discrete high-demand zone
// of the track. Corners are immutable once the CornerSet is returned.
type Corner struct {
	// ID is 1-indexed and monotonic in track-traversal order. It is
	// assigned by the sequencer; no other stage mutates it.
	ID int `json:"corner_id"`

	Lat      float64 `json:"latitude"`
	Lon      float64 `json:"longitude"`
	Distance float64 `json:"distance_m"`

	// Intensity is the median intensity of the constituent peaks; Spread
	// is their standard deviation.
	Intensity float64 `json:"intensity"`
	Spread    float64 `json:"intensity_spread"`

	// Observations is the cluster size: the number of pooled peaks that
	// collapsed into this corner. Always >= the clustering floor.
	Observations int `json:"observation_count"`

	Severity string `json:"severity_class"`
}

// Attempt records one parameter-search pass for diagnostics.
type Attempt struct {
	Params  Params `json:"params"`
	Corners int    `json:"corners"`
	// Failure describes why the attempt was rejected; empty on the
	// accepted attempt.
	Failure string `json:"failure,omitempty"`
}

// ValidationReport carries the pass/fail result plus advisory warnings for
// operator-facing diagnostics.
type ValidationReport struct {
	Passed   bool      `json:"passed"`
	Count    int       `json:"count"`
	Warnings []string  `json:"warnings,omitempty"`
	Attempts []Attempt `json:"attempts"`
}

// CornerSet is the validated output of one detection run: the track-ordered
// corners, the parameter set that produced them, and the validation report.
type CornerSet struct {
	RunID   string           `json:"run_id"`
	Corners []Corner         `json:"corners"`
	Params  Params           `json:"params"`
	Report  ValidationReport `json:"report"`
}

// Lap re-exports the telemetry lap grouping for callers that already hold
// grouped laps.
type Lap = telemetry.Lap
