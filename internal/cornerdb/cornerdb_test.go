package cornerdb

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gridline-data/corner.report/internal/corner"
	"github.com/gridline-data/corner.report/internal/telemetry"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "corners.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleCornerSet(runID string) *corner.CornerSet {
	p := corner.DefaultParams(telemetry.SignalSpeed, corner.PositionDistance)
	return &corner.CornerSet{
		RunID: runID,
		Corners: []corner.Corner{
			{ID: 1, Lat: 52.0712, Lon: -1.0166, Distance: 402.5, Intensity: 56.2,
				Spread: 3.1, Observations: 3, Severity: "slow"},
			{ID: 2, Lat: 52.0698, Lon: -1.0054, Distance: 811.0, Intensity: 121.7,
				Spread: 5.4, Observations: 3, Severity: "fast"},
		},
		Params: p,
		Report: corner.ValidationReport{
			Passed:   true,
			Count:    2,
			Warnings: []string{"corners 1 and 2 are 408m apart"},
		},
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	db := openTestDB(t)

	want := sampleCornerSet("run-roundtrip")
	if err := db.SaveCornerSet(want); err != nil {
		t.Fatalf("SaveCornerSet: %v", err)
	}

	got, err := db.LoadCornerSet("run-roundtrip")
	if err != nil {
		t.Fatalf("LoadCornerSet: %v", err)
	}
	if diff := cmp.Diff(want.Corners, got.Corners); diff != "" {
		t.Errorf("corners mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Params, got.Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	if !got.Report.Passed {
		t.Error("passed flag lost in roundtrip")
	}
	if diff := cmp.Diff(want.Report.Warnings, got.Report.Warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoadNaNPositions(t *testing.T) {
	db := openTestDB(t)

	cs := sampleCornerSet("run-nan")
	cs.Corners[0].Lat = math.NaN()
	cs.Corners[0].Lon = math.NaN()
	if err := db.SaveCornerSet(cs); err != nil {
		t.Fatalf("SaveCornerSet: %v", err)
	}

	got, err := db.LoadCornerSet("run-nan")
	if err != nil {
		t.Fatalf("LoadCornerSet: %v", err)
	}
	if !math.IsNaN(got.Corners[0].Lat) || !math.IsNaN(got.Corners[0].Lon) {
		t.Errorf("missing positions should come back NaN, got lat=%v lon=%v",
			got.Corners[0].Lat, got.Corners[0].Lon)
	}
	if got.Corners[1].Lat != 52.0698 {
		t.Errorf("valid position corrupted: %v", got.Corners[1].Lat)
	}
}

func TestDuplicateRunRejected(t *testing.T) {
	db := openTestDB(t)

	cs := sampleCornerSet("run-dup")
	if err := db.SaveCornerSet(cs); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := db.SaveCornerSet(cs); err == nil {
		t.Fatal("expected duplicate run id to be rejected")
	}
}

func TestLoadUnknownRun(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.LoadCornerSet("no-such-run"); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)

	for _, id := range []string{"run-a", "run-b"} {
		if err := db.SaveCornerSet(sampleCornerSet(id)); err != nil {
			t.Fatalf("SaveCornerSet %s: %v", id, err)
		}
	}

	runs, err := db.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	for _, r := range runs {
		if r.CornerCount != 2 {
			t.Errorf("run %s corner count = %d, want 2", r.RunID, r.CornerCount)
		}
		if !r.Passed {
			t.Errorf("run %s should be marked passed", r.RunID)
		}
		if r.CreatedAt.IsZero() {
			t.Errorf("run %s has zero created_at", r.RunID)
		}
	}
}
