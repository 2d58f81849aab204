package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/gridline-data/corner.report/internal/security"
)

// sessionHeader is the fixed column order for normalized session files.
// Blank cells represent dropout and parse to NaN.
var sessionHeader = []string{"lap", "t", "lat", "lon", "dist", "speed_kmh", "brake_bar"}

// ReadSessionFile loads a normalized telemetry session from a CSV file.
func ReadSessionFile(path string) ([]Sample, error) {
	cleanPath, err := security.ValidateInputFile(path, ".csv", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid session file: %w", err)
	}
	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer f.Close()
	return ReadSession(f)
}

// ReadSession parses normalized session CSV from r. The first record must be
// the canonical header; every subsequent record is one sample.
func ReadSession(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(sessionHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read session header: %w", err)
	}
	for i, want := range sessionHeader {
		if header[i] != want {
			return nil, fmt.Errorf("unexpected session column %d: got %q, want %q", i, header[i], want)
		}
	}

	var samples []Sample
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read session record: %w", err)
		}
		line++

		lap, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid lap %q: %w", line, record[0], err)
		}
		s := Sample{
			Lap:      lap,
			T:        parseFloatOrNaN(record[1]),
			Lat:      parseFloatOrNaN(record[2]),
			Lon:      parseFloatOrNaN(record[3]),
			Distance: parseFloatOrNaN(record[4]),
			Speed:    parseFloatOrNaN(record[5]),
			Brake:    parseFloatOrNaN(record[6]),
		}
		if math.IsNaN(s.T) {
			return nil, fmt.Errorf("line %d: missing ordering key", line)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// parseFloatOrNaN parses a float cell; blank cells mean dropout and map to
// NaN. Malformed non-blank cells also map to NaN rather than aborting the
// load, since the engine interpolates over gaps anyway. Note negatives still
// fail later in Sample.Validate where physically invalid.
func parseFloatOrNaN(cell string) float64 {
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
