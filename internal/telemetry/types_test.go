package telemetry

import (
	"math"
	"testing"
)

func TestGroupLapsSortsWithinLap(t *testing.T) {
	session := []Sample{
		{Lap: 2, T: 1.0},
		{Lap: 1, T: 3.0},
		{Lap: 1, T: 1.0},
		{Lap: 1, T: 2.0},
		{Lap: 2, T: 0.5},
	}

	laps := GroupLaps(session)
	if len(laps) != 2 {
		t.Fatalf("expected 2 laps, got %d", len(laps))
	}
	if laps[0].Number != 1 || laps[1].Number != 2 {
		t.Errorf("laps out of order: %d, %d", laps[0].Number, laps[1].Number)
	}
	for i := 1; i < len(laps[0].Samples); i++ {
		if laps[0].Samples[i].T < laps[0].Samples[i-1].T {
			t.Errorf("lap 1 samples not sorted at index %d", i)
		}
	}
	if laps[1].Samples[0].T != 0.5 {
		t.Errorf("lap 2 first sample T = %v, want 0.5", laps[1].Samples[0].T)
	}
}

func TestGroupLapsDoesNotMutateInput(t *testing.T) {
	session := []Sample{
		{Lap: 1, T: 2.0},
		{Lap: 1, T: 1.0},
	}
	GroupLaps(session)
	if session[0].T != 2.0 {
		t.Error("input slice was reordered")
	}
}

func TestSampleIntensity(t *testing.T) {
	s := Sample{Speed: 120, Brake: 18}
	if got := s.Intensity(SignalSpeed); got != 120 {
		t.Errorf("speed intensity = %v, want 120", got)
	}
	if got := s.Intensity(SignalBrake); got != 18 {
		t.Errorf("brake intensity = %v, want 18", got)
	}
	if got := s.Intensity("throttle"); !math.IsNaN(got) {
		t.Errorf("unknown signal intensity = %v, want NaN", got)
	}
}

func TestSampleValidate(t *testing.T) {
	tests := []struct {
		name    string
		sample  Sample
		wantErr bool
	}{
		{"valid", Sample{Lap: 1, Speed: 100, Brake: 5, Distance: 10}, false},
		{"nan dropout ok", Sample{Lap: 1, Speed: math.NaN(), Distance: math.NaN()}, false},
		{"zero lap", Sample{Lap: 0}, true},
		{"negative distance", Sample{Lap: 1, Distance: -1}, true},
		{"negative speed", Sample{Lap: 1, Speed: -3}, true},
		{"negative brake", Sample{Lap: 1, Brake: -0.1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sample.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaxDistance(t *testing.T) {
	session := []Sample{
		{Lap: 1, Distance: 100},
		{Lap: 1, Distance: math.NaN()},
		{Lap: 2, Distance: 4321.5},
	}
	if got := MaxDistance(session); got != 4321.5 {
		t.Errorf("MaxDistance = %v, want 4321.5", got)
	}
	if got := MaxDistance(nil); got != 0 {
		t.Errorf("MaxDistance(nil) = %v, want 0", got)
	}
}
