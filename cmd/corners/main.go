// Command corners runs the corner identification engine over a normalized
// telemetry session and writes the resulting corner table to stdout, with
// optional CSV/HTML/PNG exports and SQLite run history.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/gridline-data/corner.report/internal/corner"
	"github.com/gridline-data/corner.report/internal/cornerdb"
	"github.com/gridline-data/corner.report/internal/export"
	"github.com/gridline-data/corner.report/internal/telemetry"
	"github.com/gridline-data/corner.report/internal/trackmap"
	"github.com/gridline-data/corner.report/internal/units"
	"github.com/gridline-data/corner.report/internal/version"
)

var (
	input        = flag.String("input", "", "Normalized session CSV (lap,t,lat,lon,dist,speed_kmh,brake_bar)")
	configPath   = flag.String("config", "", "Engine config JSON (optional; defaults apply)")
	signal       = flag.String("signal", "", "Intensity channel: speed or brake (overrides config)")
	positionMode = flag.String("position-mode", "", "Clustering space: 2d-geodetic or 1d-distance (overrides config)")
	eps          = flag.Float64("eps", 0, "Clustering radius in meters (overrides config)")
	speedUnits   = flag.String("units", units.KPH, "Display units for speed intensities (mps, mph, kmph, kph)")
	outCSV       = flag.String("out-csv", "", "Write the corner table to this CSV file")
	outHTML      = flag.String("out-html", "", "Write a corner map overlay to this HTML file")
	outPNG       = flag.String("out-png", "", "Write a lap intensity profile to this PNG file")
	dbPath       = flag.String("db", "", "Record the run in this SQLite database")
	migrationsD  = flag.String("migrations", "", "Apply migrations from this directory before recording")
	profileLap   = flag.Int("profile-lap", 0, "Lap number for -out-png (default: first usable lap)")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("corners %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *input == "" {
		flag.Usage()
		log.Fatal("missing required -input")
	}
	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid -units %q, valid values: %s", *speedUnits, units.GetValidUnitsString())
	}

	params, err := loadParams()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	session, err := telemetry.ReadSessionFile(*input)
	if err != nil {
		log.Fatalf("failed to load session: %v", err)
	}

	engine, err := corner.New(params)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	cs, err := engine.DetectCorners(session)
	if err != nil {
		if errors.Is(err, corner.ErrInsufficientData) || errors.Is(err, corner.ErrNoPeaksFound) {
			log.Fatalf("session is unusable: %v", err)
		}
		log.Fatalf("detection failed: %v", err)
	}

	printCornerTable(cs, params.Signal)

	if *outCSV != "" {
		if err := export.WriteCSVFile(*outCSV, cs); err != nil {
			log.Fatalf("failed to export corner table: %v", err)
		}
		log.Printf("wrote corner table to %s", *outCSV)
	}
	if *outHTML != "" {
		if err := trackmap.WriteTrackHTMLFile(*outHTML, session, cs, 0); err != nil {
			log.Fatalf("failed to render corner map: %v", err)
		}
		log.Printf("wrote corner map to %s", *outHTML)
	}
	if *outPNG != "" {
		lap, err := pickProfileLap(session, *profileLap)
		if err != nil {
			log.Fatalf("failed to pick profile lap: %v", err)
		}
		if err := trackmap.WriteLapProfilePNG(*outPNG, lap, cs); err != nil {
			log.Fatalf("failed to render lap profile: %v", err)
		}
		log.Printf("wrote lap %d profile to %s", lap.Number, *outPNG)
	}
	if *dbPath != "" {
		if err := recordRun(*dbPath, *migrationsD, cs); err != nil {
			log.Fatalf("failed to record run: %v", err)
		}
		log.Printf("recorded run %s in %s", cs.RunID, *dbPath)
	}
}

// loadParams materializes engine parameters from the optional config file
// and applies the flag overrides.
func loadParams() (corner.Params, error) {
	cfg := &corner.Config{}
	if *configPath != "" {
		loaded, err := corner.LoadConfig(*configPath)
		if err != nil {
			return corner.Params{}, err
		}
		cfg = loaded
	}
	if *signal != "" {
		cfg.Signal = signal
	}
	if *positionMode != "" {
		cfg.PositionMode = positionMode
	}
	if *eps > 0 {
		cfg.Eps = eps
	}
	return cfg.Params()
}

func printCornerTable(cs *corner.CornerSet, signal string) {
	fmt.Printf("run %s: %d corners\n", cs.RunID, len(cs.Corners))

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDIST (m)\tLAT\tLON\tINTENSITY\tSPREAD\tOBS\tSEVERITY")
	for _, c := range cs.Corners {
		intensity := c.Intensity
		if signal == telemetry.SignalSpeed {
			intensity = units.FromKMH(intensity, *speedUnits)
		}
		fmt.Fprintf(w, "%d\t%.0f\t%.5f\t%.5f\t%.1f\t%.1f\t%d\t%s\n",
			c.ID, c.Distance, c.Lat, c.Lon, intensity, c.Spread, c.Observations, c.Severity)
	}
	w.Flush()

	for _, warning := range cs.Report.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	fmt.Printf("validation: passed=%v after %d attempt(s)\n", cs.Report.Passed, len(cs.Report.Attempts))
}

// pickProfileLap returns the requested lap, or the first lap when lapNumber
// is zero.
func pickProfileLap(session []telemetry.Sample, lapNumber int) (telemetry.Lap, error) {
	laps := telemetry.GroupLaps(session)
	if len(laps) == 0 {
		return telemetry.Lap{}, fmt.Errorf("session has no laps")
	}
	if lapNumber == 0 {
		return laps[0], nil
	}
	for _, lap := range laps {
		if lap.Number == lapNumber {
			return lap, nil
		}
	}
	return telemetry.Lap{}, fmt.Errorf("lap %d not found in session", lapNumber)
}

func recordRun(path, migrationsDir string, cs *corner.CornerSet) error {
	db, err := cornerdb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrationsDir != "" {
		if err := db.MigrateUp(migrationsDir); err != nil {
			return err
		}
	}
	return db.SaveCornerSet(cs)
}
