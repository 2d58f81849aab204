// Package export serializes a validated CornerSet to a flat tabular file.
// Field order and types are the only compatibility surface; consumers
// regenerate from source telemetry if the schema changes.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gridline-data/corner.report/internal/corner"
	"github.com/gridline-data/corner.report/internal/security"
)

// cornerHeader is the fixed export column order.
var cornerHeader = []string{
	"corner_id", "latitude", "longitude", "distance_m",
	"intensity", "intensity_spread", "observation_count", "severity_class",
}

// WriteCSV writes the corner table to w, one record per corner in track
// order.
func WriteCSV(w io.Writer, cs *corner.CornerSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cornerHeader); err != nil {
		return fmt.Errorf("failed to write corner header: %w", err)
	}
	for _, c := range cs.Corners {
		record := []string{
			strconv.Itoa(c.ID),
			formatFloat(c.Lat, 7),
			formatFloat(c.Lon, 7),
			formatFloat(c.Distance, 1),
			formatFloat(c.Intensity, 2),
			formatFloat(c.Spread, 2),
			strconv.Itoa(c.Observations),
			c.Severity,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write corner %d: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the corner table to a .csv file.
func WriteCSVFile(path string, cs *corner.CornerSet) error {
	cleanPath, err := security.ValidateOutputPath(path, ".csv")
	if err != nil {
		return fmt.Errorf("invalid corner export path: %w", err)
	}
	f, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create corner export: %w", err)
	}
	if err := WriteCSV(f, cs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatFloat renders a float with fixed precision, leaving NaN cells blank
// so dropout stays distinguishable from zero.
func formatFloat(v float64, prec int) string {
	if v != v {
		return ""
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
