package corner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridline-data/corner.report/internal/telemetry"
)

func TestDefaultParamsValid(t *testing.T) {
	for _, signal := range []string{telemetry.SignalSpeed, telemetry.SignalBrake} {
		for _, mode := range []PositionMode{PositionGeodetic, PositionDistance} {
			p := DefaultParams(signal, mode)
			if err := p.Validate(); err != nil {
				t.Errorf("DefaultParams(%s, %s) invalid: %v", signal, mode, err)
			}
		}
	}
}

func TestDefaultParamsSeverityFollowsSignal(t *testing.T) {
	speed := DefaultParams(telemetry.SignalSpeed, PositionDistance)
	assert.Equal(t, "slow", speed.Severity.Labels[0])

	brake := DefaultParams(telemetry.SignalBrake, PositionDistance)
	assert.Equal(t, "light", brake.Severity.Labels[0])
}

func TestParamsValidateRejections(t *testing.T) {
	base := DefaultParams(telemetry.SignalSpeed, PositionDistance)

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"unknown signal", func(p *Params) { p.Signal = "yaw" }},
		{"unknown mode", func(p *Params) { p.PositionMode = "3d" }},
		{"zero eps", func(p *Params) { p.Eps = 0 }},
		{"negative min samples", func(p *Params) { p.MinSamples = -1 }},
		{"percentile too high", func(p *Params) { p.ThresholdPercentile = 100 }},
		{"percentile zero", func(p *Params) { p.ThresholdPercentile = 0 }},
		{"negative prominence", func(p *Params) { p.Prominence = -1 }},
		{"zero separation", func(p *Params) { p.MinSeparation = 0 }},
		{"corner bounds inverted", func(p *Params) { p.MinCorners = 10; p.MaxCorners = 5 }},
		{"spacing bounds inverted", func(p *Params) { p.MinCornerSpacing = 500; p.MaxCornerSpacing = 100 }},
		{"severity cuts inverted", func(p *Params) { p.Severity.LowCut = 90; p.Severity.HighCut = 60 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestLoadConfigPartialOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.json")
	content := `{"signal": "brake", "eps": 25.5, "min_corners": 8}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	p, err := cfg.Params()
	require.NoError(t, err)

	assert.Equal(t, telemetry.SignalBrake, p.Signal)
	assert.Equal(t, 25.5, p.Eps)
	assert.Equal(t, 8, p.MinCorners)
	// Unset fields keep their defaults.
	assert.Equal(t, DefaultThresholdPct, p.ThresholdPercentile)
	assert.Equal(t, DefaultMaxRetries, p.MaxRetries)
	// Severity scale follows the configured signal.
	assert.Equal(t, "light", p.Severity.Labels[0])
}

func TestLoadConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadConfig("params.yaml")
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigParamsRejectsInvalidOverride(t *testing.T) {
	bad := -1.0
	cfg := &Config{Eps: &bad}
	_, err := cfg.Params()
	assert.Error(t, err)
}

func TestSeverityCutOverrides(t *testing.T) {
	low, high := 70.0, 110.0
	cfg := &Config{SeverityLowCut: &low, SeverityHighCut: &high}
	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, "medium", p.Severity.Classify(80))
	assert.Equal(t, "fast", p.Severity.Classify(115))
}
