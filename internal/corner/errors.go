package corner

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned when the session has too few usable
	// laps or samples. Never retried: the input, not the parameters, is
	// inadequate.
	ErrInsufficientData = errors.New("insufficient telemetry data")

	// ErrNoPeaksFound is returned when peak extraction produced zero peaks
	// across all laps. Never retried: relaxing clustering parameters
	// cannot help when there is nothing to cluster.
	ErrNoPeaksFound = errors.New("no intensity peaks found in any lap")
)

// DetectionFailedError is returned when the parameter search exhausted its
// retry budget without producing an acceptable corner count. It names every
// attempted parameter set and the count each produced.
type DetectionFailedError struct {
	Attempts []Attempt
}

func (e *DetectionFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return "corner detection failed: no attempts recorded"
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf(
		"corner detection failed after %d attempts: last eps=%.4g threshold=%.4g prominence=%.4g yielded %d corners (%s)",
		len(e.Attempts), last.Params.Eps, last.Params.ThresholdPercentile,
		last.Params.Prominence, last.Corners, last.Failure)
}
