package corner

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gridline-data/corner.report/internal/security"
	"github.com/gridline-data/corner.report/internal/telemetry"
)

// Defaults for the engine parameters. Expected corner counts and clustering
// radii are track-specific; these values are starting points for the
// parameter search, not track knowledge.
const (
	DefaultEpsGeodeticMeters = 40.0
	DefaultEpsDistanceMeters = 35.0
	DefaultThresholdPct      = 50.0
	DefaultProminence        = 5.0
	DefaultMinSeparation     = 25
	DefaultSmoothingWindow   = 5
	DefaultMinLapSamples     = 50
	DefaultMinLaps           = 2
	DefaultMinCorners        = 3
	DefaultMaxCorners        = 25
	DefaultMaxRetries        = 3
	DefaultMinCornerSpacingM = 50.0
	DefaultMaxCornerSpacingM = 1500.0

	minThresholdPct       = 10.0
	epsShrinkFactor       = 0.75
	epsGrowFactor         = 1.5
	prominenceRelaxFactor = 0.8
	thresholdRelaxStep    = 5.0
)

// SeverityScale maps a corner's representative intensity to a categorical
// severity class via two fixed cut points. Cut points are configuration, not
// hard-coded track knowledge.
type SeverityScale struct {
	LowCut  float64 `json:"low_cut"`
	HighCut float64 `json:"high_cut"`
	// Labels are, in order: below LowCut, [LowCut, HighCut), >= HighCut.
	Labels [3]string `json:"labels"`
}

// Classify buckets an intensity value.
func (s SeverityScale) Classify(intensity float64) string {
	switch {
	case intensity < s.LowCut:
		return s.Labels[0]
	case intensity < s.HighCut:
		return s.Labels[1]
	default:
		return s.Labels[2]
	}
}

// SpeedSeverityScale returns the default scale for speed-signal corners:
// apex speed below 60 km/h is slow, 60-90 medium, 90 and above fast.
func SpeedSeverityScale() SeverityScale {
	return SeverityScale{LowCut: 60, HighCut: 90, Labels: [3]string{"slow", "medium", "fast"}}
}

// BrakeSeverityScale returns the default scale for brake-pressure corners.
func BrakeSeverityScale() SeverityScale {
	return SeverityScale{LowCut: 20, HighCut: 35, Labels: [3]string{"light", "medium", "heavy"}}
}

// Params is one concrete parameter set for a detection pass. The parameter
// search mutates its own copies during relaxation; callers' values are never
// modified.
type Params struct {
	// Signal selects the intensity channel: telemetry.SignalSpeed (minima
	// are corners) or telemetry.SignalBrake (maxima are corners).
	Signal string `json:"signal"`

	PositionMode PositionMode `json:"position_mode"`

	// Eps is the clustering neighborhood radius in meters.
	Eps float64 `json:"eps"`
	// MinSamples is the cluster floor: peaks required to form a corner.
	// Zero means "scale to half the usable lap count" at run time.
	MinSamples int `json:"min_samples"`

	// ThresholdPercentile is the percentile of valid intensity values a
	// peak must exceed (in the intense direction) to be significant.
	ThresholdPercentile float64 `json:"threshold_percentile"`
	// Prominence is the minimum rise over the local neighborhood.
	Prominence float64 `json:"prominence"`
	// MinSeparation is the minimum index distance between reported peaks.
	MinSeparation int `json:"min_separation"`

	SmoothingWindow int `json:"smoothing_window"`
	MinLapSamples   int `json:"min_lap_samples"`
	MinLaps         int `json:"min_laps"`

	MinCorners int `json:"min_corners"`
	MaxCorners int `json:"max_corners"`
	MaxRetries int `json:"max_retries"`

	// MinCornerSpacing/MaxCornerSpacing bound realistic adjacent-corner
	// distances (meters) for the proximity and gap checks.
	MinCornerSpacing float64 `json:"min_corner_spacing"`
	MaxCornerSpacing float64 `json:"max_corner_spacing"`

	Severity SeverityScale `json:"severity"`
}

// DefaultParams returns engine parameters suitable as a search starting
// point for the given signal and position mode.
func DefaultParams(signal string, mode PositionMode) Params {
	eps := DefaultEpsGeodeticMeters
	if mode == PositionDistance {
		eps = DefaultEpsDistanceMeters
	}
	scale := SpeedSeverityScale()
	if signal == telemetry.SignalBrake {
		scale = BrakeSeverityScale()
	}
	return Params{
		Signal:              signal,
		PositionMode:        mode,
		Eps:                 eps,
		ThresholdPercentile: DefaultThresholdPct,
		Prominence:          DefaultProminence,
		MinSeparation:       DefaultMinSeparation,
		SmoothingWindow:     DefaultSmoothingWindow,
		MinLapSamples:       DefaultMinLapSamples,
		MinLaps:             DefaultMinLaps,
		MinCorners:          DefaultMinCorners,
		MaxCorners:          DefaultMaxCorners,
		MaxRetries:          DefaultMaxRetries,
		MinCornerSpacing:    DefaultMinCornerSpacingM,
		MaxCornerSpacing:    DefaultMaxCornerSpacingM,
		Severity:            scale,
	}
}

// Validate checks parameter sanity before a run.
func (p Params) Validate() error {
	if p.Signal != telemetry.SignalSpeed && p.Signal != telemetry.SignalBrake {
		return fmt.Errorf("unknown signal %q (want %q or %q)", p.Signal, telemetry.SignalSpeed, telemetry.SignalBrake)
	}
	if p.PositionMode != PositionGeodetic && p.PositionMode != PositionDistance {
		return fmt.Errorf("unknown position mode %q", p.PositionMode)
	}
	if p.Eps <= 0 {
		return fmt.Errorf("eps must be positive, got %g", p.Eps)
	}
	if p.MinSamples < 0 {
		return fmt.Errorf("min_samples must be >= 0, got %d", p.MinSamples)
	}
	if p.ThresholdPercentile <= 0 || p.ThresholdPercentile >= 100 {
		return fmt.Errorf("threshold_percentile must be in (0, 100), got %g", p.ThresholdPercentile)
	}
	if p.Prominence < 0 {
		return fmt.Errorf("prominence must be >= 0, got %g", p.Prominence)
	}
	if p.MinSeparation < 1 {
		return fmt.Errorf("min_separation must be >= 1, got %d", p.MinSeparation)
	}
	if p.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing_window must be >= 1, got %d", p.SmoothingWindow)
	}
	if p.MinCorners < 1 || p.MaxCorners < p.MinCorners {
		return fmt.Errorf("corner bounds invalid: min=%d max=%d", p.MinCorners, p.MaxCorners)
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", p.MaxRetries)
	}
	if p.MinCornerSpacing < 0 || p.MaxCornerSpacing <= p.MinCornerSpacing {
		return fmt.Errorf("spacing bounds invalid: min=%g max=%g", p.MinCornerSpacing, p.MaxCornerSpacing)
	}
	if p.Severity.HighCut <= p.Severity.LowCut {
		return fmt.Errorf("severity cuts invalid: low=%g high=%g", p.Severity.LowCut, p.Severity.HighCut)
	}
	return nil
}

// Config is the JSON-file configuration surface. Pointer fields so partial
// configs are safe: fields omitted from the JSON retain their defaults.
// The schema matches the Params JSON keys.
type Config struct {
	Signal              *string  `json:"signal,omitempty"`
	PositionMode        *string  `json:"position_mode,omitempty"`
	Eps                 *float64 `json:"eps,omitempty"`
	MinSamples          *int     `json:"min_samples,omitempty"`
	ThresholdPercentile *float64 `json:"threshold_percentile,omitempty"`
	Prominence          *float64 `json:"prominence,omitempty"`
	MinSeparation       *int     `json:"min_separation,omitempty"`
	SmoothingWindow     *int     `json:"smoothing_window,omitempty"`
	MinLapSamples       *int     `json:"min_lap_samples,omitempty"`
	MinLaps             *int     `json:"min_laps,omitempty"`
	MinCorners          *int     `json:"min_corners,omitempty"`
	MaxCorners          *int     `json:"max_corners,omitempty"`
	MaxRetries          *int     `json:"max_retries,omitempty"`
	MinCornerSpacing    *float64 `json:"min_corner_spacing,omitempty"`
	MaxCornerSpacing    *float64 `json:"max_corner_spacing,omitempty"`
	SeverityLowCut      *float64 `json:"severity_low_cut,omitempty"`
	SeverityHighCut     *float64 `json:"severity_high_cut,omitempty"`
}

// LoadConfig loads a Config from a JSON file. The file must have a .json
// extension and stay under the max file size.
func LoadConfig(path string) (*Config, error) {
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	cleanPath, err := security.ValidateInputFile(path, ".json", maxFileSize)
	if err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return cfg, nil
}

// Params materializes a full parameter set: defaults for the configured
// signal/mode overlaid with whatever the config specifies.
func (c *Config) Params() (Params, error) {
	signal := telemetry.SignalSpeed
	if c.Signal != nil {
		signal = *c.Signal
	}
	mode := PositionGeodetic
	if c.PositionMode != nil {
		mode = PositionMode(*c.PositionMode)
	}
	p := DefaultParams(signal, mode)

	if c.Eps != nil {
		p.Eps = *c.Eps
	}
	if c.MinSamples != nil {
		p.MinSamples = *c.MinSamples
	}
	if c.ThresholdPercentile != nil {
		p.ThresholdPercentile = *c.ThresholdPercentile
	}
	if c.Prominence != nil {
		p.Prominence = *c.Prominence
	}
	if c.MinSeparation != nil {
		p.MinSeparation = *c.MinSeparation
	}
	if c.SmoothingWindow != nil {
		p.SmoothingWindow = *c.SmoothingWindow
	}
	if c.MinLapSamples != nil {
		p.MinLapSamples = *c.MinLapSamples
	}
	if c.MinLaps != nil {
		p.MinLaps = *c.MinLaps
	}
	if c.MinCorners != nil {
		p.MinCorners = *c.MinCorners
	}
	if c.MaxCorners != nil {
		p.MaxCorners = *c.MaxCorners
	}
	if c.MaxRetries != nil {
		p.MaxRetries = *c.MaxRetries
	}
	if c.MinCornerSpacing != nil {
		p.MinCornerSpacing = *c.MinCornerSpacing
	}
	if c.MaxCornerSpacing != nil {
		p.MaxCornerSpacing = *c.MaxCornerSpacing
	}
	if c.SeverityLowCut != nil {
		p.Severity.LowCut = *c.SeverityLowCut
	}
	if c.SeverityHighCut != nil {
		p.Severity.HighCut = *c.SeverityHighCut
	}

	if err := p.Validate(); err != nil {
		return Params{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return p, nil
}
