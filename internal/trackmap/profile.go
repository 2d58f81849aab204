package trackmap

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gridline-data/corner.report/internal/corner"
	"github.com/gridline-data/corner.report/internal/telemetry"
)

// WriteLapProfilePNG plots one lap's smoothed intensity signal against lap
// distance, with the detected corners marked at their centroid distances.
// Requires a distance channel on the lap's samples. The output format is
// inferred from the file extension (.png, .svg, .pdf).
func WriteLapProfilePNG(path string, lap telemetry.Lap, cs *corner.CornerSet) error {
	p := cs.Params

	raw := make([]float64, len(lap.Samples))
	for i, s := range lap.Samples {
		raw[i] = s.Intensity(p.Signal)
	}
	smoothed := corner.Smooth(raw, p.SmoothingWindow)

	line := make(plotter.XYs, 0, len(lap.Samples))
	for i, s := range lap.Samples {
		if math.IsNaN(s.Distance) || math.IsNaN(smoothed[i]) {
			continue
		}
		line = append(line, plotter.XY{X: s.Distance, Y: smoothed[i]})
	}
	if len(line) == 0 {
		return fmt.Errorf("lap %d has no plottable distance/intensity samples", lap.Number)
	}

	markers := make(plotter.XYs, 0, len(cs.Corners))
	for _, c := range cs.Corners {
		if math.IsNaN(c.Distance) {
			continue
		}
		markers = append(markers, plotter.XY{X: c.Distance, Y: c.Intensity})
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("Lap %d - %s profile", lap.Number, p.Signal)
	pl.X.Label.Text = "Distance (m)"
	pl.Y.Label.Text = signalAxisLabel(p.Signal)

	profileLine, err := plotter.NewLine(line)
	if err != nil {
		return fmt.Errorf("failed to build profile line: %w", err)
	}
	pl.Add(profileLine)
	pl.Legend.Add("smoothed "+p.Signal, profileLine)

	if len(markers) > 0 {
		cornerPoints, err := plotter.NewScatter(markers)
		if err != nil {
			return fmt.Errorf("failed to build corner markers: %w", err)
		}
		cornerPoints.GlyphStyle.Radius = vg.Points(4)
		pl.Add(cornerPoints)
		pl.Legend.Add("corners", cornerPoints)
	}

	if err := pl.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save lap profile: %w", err)
	}
	return nil
}

func signalAxisLabel(signal string) string {
	switch signal {
	case telemetry.SignalSpeed:
		return "Speed (km/h)"
	case telemetry.SignalBrake:
		return "Brake pressure (bar)"
	default:
		return signal
	}
}
