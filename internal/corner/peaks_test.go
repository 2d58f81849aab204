package corner

import (
	"math"
	"testing"

	"github.com/gridline-data/corner.report/internal/telemetry"
)

// speedLap builds a lap whose speed trace is given per sample, spaced 10m
// apart along the track.
func speedLap(number int, speeds []float64) telemetry.Lap {
	samples := make([]telemetry.Sample, len(speeds))
	for i, v := range speeds {
		samples[i] = telemetry.Sample{
			Lap:      number,
			T:        float64(i),
			Distance: float64(i) * 10,
			Speed:    v,
			Lat:      math.NaN(),
			Lon:      math.NaN(),
		}
	}
	return telemetry.Lap{Number: number, Samples: samples}
}

// dip superimposes a Gaussian speed dip centered at sample index center.
func dip(speeds []float64, center int, apex, width float64) {
	for i := range speeds {
		d := float64(i - center)
		speeds[i] = math.Min(speeds[i], 200-(200-apex)*math.Exp(-d*d/(2*width*width)))
	}
}

func testPeakParams() Params {
	p := DefaultParams(telemetry.SignalSpeed, PositionDistance)
	p.MinSeparation = 10
	p.MinLapSamples = 50
	return p
}

func flatSpeeds(n int, v float64) []float64 {
	speeds := make([]float64, n)
	for i := range speeds {
		speeds[i] = v
	}
	return speeds
}

func TestExtractPeaksFindsSpeedMinima(t *testing.T) {
	speeds := flatSpeeds(200, 200)
	dip(speeds, 50, 60, 5)
	dip(speeds, 140, 80, 5)

	peaks := ExtractPeaks(speedLap(1, speeds), testPeakParams())
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d", len(peaks))
	}
	if peaks[0].SampleIndex < 45 || peaks[0].SampleIndex > 55 {
		t.Errorf("first peak at index %d, expected near 50", peaks[0].SampleIndex)
	}
	if peaks[1].SampleIndex < 135 || peaks[1].SampleIndex > 145 {
		t.Errorf("second peak at index %d, expected near 140", peaks[1].SampleIndex)
	}
	// Intensity is the smoothed speed at the minimum, close to the apex.
	if peaks[0].Intensity > 70 {
		t.Errorf("first peak intensity %v, expected near apex 60", peaks[0].Intensity)
	}
	if peaks[0].Lap != 1 {
		t.Errorf("peak lap = %d, want 1", peaks[0].Lap)
	}
}

func TestExtractPeaksHonorsMinSeparation(t *testing.T) {
	speeds := flatSpeeds(200, 200)
	dip(speeds, 100, 50, 4)
	dip(speeds, 106, 70, 4)

	p := testPeakParams()
	p.MinSeparation = 20
	peaks := ExtractPeaks(speedLap(1, speeds), p)
	if len(peaks) != 1 {
		t.Fatalf("expected the deeper dip only, got %d peaks", len(peaks))
	}
	// The deeper (more intense) dip wins under the greedy ranking.
	if peaks[0].Intensity > 65 {
		t.Errorf("surviving peak intensity %v, expected the deeper dip", peaks[0].Intensity)
	}
}

func TestExtractPeaksSkipsShortLap(t *testing.T) {
	speeds := flatSpeeds(30, 200)
	dip(speeds, 15, 60, 3)
	peaks := ExtractPeaks(speedLap(1, speeds), testPeakParams())
	if peaks != nil {
		t.Errorf("expected no peaks from a %d-sample lap, got %d", len(speeds), len(peaks))
	}
}

func TestExtractPeaksFlatSignalYieldsNothing(t *testing.T) {
	peaks := ExtractPeaks(speedLap(1, flatSpeeds(200, 180)), testPeakParams())
	if len(peaks) != 0 {
		t.Errorf("flat signal produced %d peaks, want 0", len(peaks))
	}
}

func TestExtractPeaksThresholdRejectsShallowDips(t *testing.T) {
	speeds := flatSpeeds(200, 200)
	dip(speeds, 60, 50, 5)
	// A barely-there lift well above the percentile threshold.
	dip(speeds, 150, 195, 5)

	peaks := ExtractPeaks(speedLap(1, speeds), testPeakParams())
	if len(peaks) != 1 {
		t.Fatalf("expected only the deep dip, got %d peaks", len(peaks))
	}
	if peaks[0].SampleIndex < 55 || peaks[0].SampleIndex > 65 {
		t.Errorf("peak at index %d, expected near 60", peaks[0].SampleIndex)
	}
}

func TestExtractPeaksBrakeSignalFindsMaxima(t *testing.T) {
	samples := make([]telemetry.Sample, 200)
	for i := range samples {
		brake := 0.0
		for _, center := range []int{60, 150} {
			d := float64(i - center)
			bump := 40 * math.Exp(-d*d/(2*16))
			if bump > brake {
				brake = bump
			}
		}
		samples[i] = telemetry.Sample{
			Lap: 1, T: float64(i), Distance: float64(i) * 10,
			Brake: brake, Speed: math.NaN(), Lat: math.NaN(), Lon: math.NaN(),
		}
	}
	lap := telemetry.Lap{Number: 1, Samples: samples}

	p := DefaultParams(telemetry.SignalBrake, PositionDistance)
	p.MinSeparation = 10
	peaks := ExtractPeaks(lap, p)
	if len(peaks) != 2 {
		t.Fatalf("expected 2 brake peaks, got %d", len(peaks))
	}
	for _, pk := range peaks {
		if pk.Intensity < 30 {
			t.Errorf("brake peak intensity %v, expected near 40", pk.Intensity)
		}
	}
}

func TestExtractPeaksDropoutLapContributesNothing(t *testing.T) {
	samples := make([]telemetry.Sample, 100)
	for i := range samples {
		samples[i] = telemetry.Sample{
			Lap: 1, T: float64(i), Distance: float64(i) * 10,
			Speed: math.NaN(), Lat: math.NaN(), Lon: math.NaN(),
		}
	}
	lap := telemetry.Lap{Number: 1, Samples: samples}
	peaks := ExtractPeaks(lap, testPeakParams())
	if len(peaks) != 0 {
		t.Errorf("all-dropout lap produced %d peaks", len(peaks))
	}
}
