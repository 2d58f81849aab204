// Package trackmap renders operator-facing views of a detection run: an
// HTML scatter of the track outline with detected corners overlaid, and a
// PNG intensity profile for a single lap.
package trackmap

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/gridline-data/corner.report/internal/corner"
	"github.com/gridline-data/corner.report/internal/security"
	"github.com/gridline-data/corner.report/internal/telemetry"
)

// DefaultMaxOutlinePoints bounds the rendered track outline size; sessions
// are downsampled by stride above this.
const DefaultMaxOutlinePoints = 8000

// RenderTrackHTML writes an HTML scatter chart of the session's geodetic
// track outline with the detected corners overlaid and labeled by severity.
// Samples without valid lat/lon are skipped; if none carry a position the
// render fails rather than emitting an empty chart.
func RenderTrackHTML(w io.Writer, session []telemetry.Sample, cs *corner.CornerSet, maxPoints int) error {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxOutlinePoints
	}

	positioned := make([]telemetry.Sample, 0, len(session))
	for _, s := range session {
		if !math.IsNaN(s.Lat) && !math.IsNaN(s.Lon) {
			positioned = append(positioned, s)
		}
	}
	if len(positioned) == 0 {
		return fmt.Errorf("no samples carry geodetic positions")
	}

	stride := 1
	if len(positioned) > maxPoints {
		stride = int(math.Ceil(float64(len(positioned)) / float64(maxPoints)))
	}

	outline := make([]opts.ScatterData, 0, len(positioned)/stride+1)
	for i := 0; i < len(positioned); i += stride {
		s := positioned[i]
		outline = append(outline, opts.ScatterData{Value: []interface{}{s.Lon, s.Lat}})
	}

	cornersData := make([]opts.ScatterData, 0, len(cs.Corners))
	for _, c := range cs.Corners {
		name := fmt.Sprintf("T%d %s (%.0f)", c.ID, c.Severity, c.Intensity)
		cornersData = append(cornersData, opts.ScatterData{
			Name:  name,
			Value: []interface{}{c.Lon, c.Lat},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Corner Map", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Detected corners",
			Subtitle: fmt.Sprintf("run=%s corners=%d stride=%d", cs.RunID, len(cs.Corners), stride),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", Scale: opts.Bool(true)}),
	)
	scatter.AddSeries("track", outline, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
	scatter.AddSeries("corners", cornersData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}))

	return scatter.Render(w)
}

// WriteTrackHTMLFile renders the corner map to a file.
func WriteTrackHTMLFile(path string, session []telemetry.Sample, cs *corner.CornerSet, maxPoints int) error {
	cleanPath, err := security.ValidateOutputPath(path, ".html")
	if err != nil {
		return fmt.Errorf("invalid track map path: %w", err)
	}
	f, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create track map file: %w", err)
	}
	if err := RenderTrackHTML(f, session, cs, maxPoints); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
