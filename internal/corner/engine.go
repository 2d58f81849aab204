package corner

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gridline-data/corner.report/internal/monitoring"
	"github.com/gridline-data/corner.report/internal/telemetry"
)

// Engine drives the detection pipeline under a parameter search. It owns no
// state across invocations; every DetectCorners call with a fixed input is a
// pure function of the samples and the parameters, plus a fresh run ID.
type Engine struct {
	params Params
}

// New creates an Engine after validating the parameters.
func New(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: params}, nil
}

// DetectCorners recovers the track's corner layout from a session of
// normalized telemetry samples.
//
// Data-availability failures (too few usable laps, zero peaks anywhere)
// surface immediately and are never retried. Parameter-induced failures
// (zero clusters, corner count below the floor) trigger bounded retries
// with relaxed parameters; exhausting the budget returns a
// *DetectionFailedError naming every attempted configuration. A returned
// CornerSet always satisfies the count bounds on the low side; exceeding the
// ceiling still returns the set with the report marked not passed, and
// proximity/gap findings ride along as warnings rather than failing the run.
func (e *Engine) DetectCorners(session []telemetry.Sample) (*CornerSet, error) {
	laps := telemetry.GroupLaps(session)

	usable := usableLaps(laps, e.params)
	if len(usable) < e.params.MinLaps {
		return nil, fmt.Errorf("%w: %d usable laps with >= %d valid %s samples (need %d)",
			ErrInsufficientData, len(usable), e.params.MinLapSamples, e.params.Signal, e.params.MinLaps)
	}

	lapLength := 0.0
	if e.params.PositionMode == PositionDistance {
		lapLength = telemetry.MaxDistance(session)
	}

	p := e.params
	var attempts []Attempt
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		var peaks []PeakEvent
		for _, lap := range usable {
			peaks = append(peaks, ExtractPeaks(lap, p)...)
		}
		if len(peaks) == 0 {
			if attempt == 0 {
				return nil, fmt.Errorf("%w: signal %s over %d laps",
					ErrNoPeaksFound, p.Signal, len(usable))
			}
			// Relaxation only loosens the extraction thresholds, so a
			// later attempt cannot lose all peaks; guard anyway.
			attempts = append(attempts, Attempt{Params: p, Failure: "no peaks"})
			break
		}

		minSamples := p.MinSamples
		if minSamples == 0 {
			// A real corner should appear in most laps.
			minSamples = len(usable)/2 + 1
			if minSamples < 2 {
				minSamples = 2
			}
		}

		labels := ClusterPeaks(peaks, p.Eps, minSamples, p.PositionMode, lapLength)

		if clusterCount(labels) == 0 {
			attempts = append(attempts, Attempt{Params: p, Failure: "no clusters"})
			monitoring.Logf("corner: attempt %d: all %d peaks were noise at eps=%.1f, retrying with larger eps",
				attempt+1, len(peaks), p.Eps)
			p.Eps *= epsGrowFactor
			continue
		}

		corners := AggregateClusters(peaks, labels, p.Severity)
		corners = SequenceCorners(corners, p.PositionMode)

		if len(corners) < p.MinCorners {
			attempts = append(attempts, Attempt{Params: p, Corners: len(corners), Failure: "under-detection"})
			monitoring.Logf("corner: attempt %d: %d corners < floor %d, retrying with relaxed parameters",
				attempt+1, len(corners), p.MinCorners)
			p = relaxForUnderDetection(p)
			continue
		}

		report := validate(corners, p, lapLength)
		attempts = append(attempts, Attempt{Params: p, Corners: len(corners)})
		report.Attempts = attempts
		for _, w := range report.Warnings {
			monitoring.Logf("corner: validation warning: %s", w)
		}

		return &CornerSet{
			RunID:   uuid.NewString(),
			Corners: corners,
			Params:  p,
			Report:  report,
		}, nil
	}

	return nil, &DetectionFailedError{Attempts: attempts}
}

// usableLaps keeps laps with enough valid intensity samples to trust.
func usableLaps(laps []telemetry.Lap, p Params) []telemetry.Lap {
	var out []telemetry.Lap
	for _, lap := range laps {
		valid := 0
		for _, s := range lap.Samples {
			if v := s.Intensity(p.Signal); v == v { // not NaN
				valid++
			}
		}
		if valid >= p.MinLapSamples {
			out = append(out, lap)
		}
	}
	return out
}

// relaxForUnderDetection produces the next, strictly different parameter
// set after a count below the floor: a smaller eps splits merged adjacent
// corners, a lower percentile threshold and prominence floor admit light
// braking zones the first pass missed.
func relaxForUnderDetection(p Params) Params {
	p.Eps *= epsShrinkFactor
	p.Prominence *= prominenceRelaxFactor
	p.ThresholdPercentile -= thresholdRelaxStep
	if p.ThresholdPercentile < minThresholdPct {
		p.ThresholdPercentile = minThresholdPct
	}
	return p
}

// validate runs the count, proximity and gap checks. The low count bound is
// hard and handled by the retry loop before this point. The count ceiling
// clears Passed but still returns the set: over-detection is recoverable by
// the analyst, so it never fails the run. Proximity and gap findings are
// advisory warnings.
func validate(corners []Corner, p Params, lapLength float64) ValidationReport {
	report := ValidationReport{
		Passed: len(corners) <= p.MaxCorners,
		Count:  len(corners),
	}

	if len(corners) > p.MaxCorners {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"over-detection: %d corners exceeds expected maximum %d", len(corners), p.MaxCorners))
	}

	// Adjacent spacing in track order, including the closing pair: the
	// corner set describes one traversal of a closed loop. With two
	// corners under the symmetric geodetic metric the closing pair would
	// repeat the same measurement, so it is skipped; in distance mode the
	// two forward arcs are distinct gaps and both are checked.
	pairs := len(corners)
	if len(corners) < 2 {
		pairs = 0
	} else if len(corners) == 2 && p.PositionMode != PositionDistance {
		pairs = 1
	}
	for i := 0; i < pairs; i++ {
		j := (i + 1) % len(corners)
		d := cornerSpacing(corners[i], corners[j], p.PositionMode, lapLength)
		if d < p.MinCornerSpacing {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"corners %d and %d are %.0fm apart (< %.0fm): likely duplicate or over-split",
				corners[i].ID, corners[j].ID, d, p.MinCornerSpacing))
		}
		if d > p.MaxCornerSpacing {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"corners %d and %d are %.0fm apart (> %.0fm): a corner may have been missed or merged",
				corners[i].ID, corners[j].ID, d, p.MaxCornerSpacing))
		}
	}
	return report
}

// cornerSpacing measures the track-order separation from corner a forward to
// corner b. Distance mode uses the oriented forward arc so that a long gap
// late in the lap is not mistaken for its short complement.
func cornerSpacing(a, b Corner, mode PositionMode, lapLength float64) float64 {
	if mode == PositionDistance {
		return ForwardDistance(a.Distance, b.Distance, lapLength)
	}
	return HaversineMeters(a.Lat, a.Lon, b.Lat, b.Lon)
}
