// Package cornerdb persists detection runs and their corner tables to
// SQLite. A run is write-once: re-detection with different parameters
// inserts a wholly new run rather than mutating an existing one.
package cornerdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gridline-data/corner.report/internal/corner"
)

type DB struct {
	*sql.DB
}

// Open opens (creating if needed) a corner database at path. The baseline
// schema is applied with CREATE TABLE IF NOT EXISTS; schema evolution beyond
// the baseline goes through the migration helpers in migrate.go.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS corner_runs (
			run_id            TEXT PRIMARY KEY,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			params_json       TEXT NOT NULL,
			passed            BOOLEAN NOT NULL,
			corner_count      BIGINT NOT NULL,
			warnings_json     TEXT
		);
		CREATE TABLE IF NOT EXISTS corners (
			run_id            TEXT NOT NULL,
			corner_id         BIGINT NOT NULL,
			latitude          DOUBLE,
			longitude         DOUBLE,
			distance_m        DOUBLE,
			intensity         DOUBLE,
			intensity_spread  DOUBLE,
			observation_count BIGINT,
			severity_class    TEXT,
			PRIMARY KEY (run_id, corner_id),
			FOREIGN KEY (run_id) REFERENCES corner_runs(run_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create corner schema: %w", err)
	}

	return &DB{db}, nil
}

// RunSummary is one row of the run history listing.
type RunSummary struct {
	RunID       string
	CreatedAt   time.Time
	Passed      bool
	CornerCount int
}

// SaveCornerSet inserts a detection run and its corners in one transaction.
func (db *DB) SaveCornerSet(cs *corner.CornerSet) error {
	paramsJSON, err := json.Marshal(cs.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal run params: %w", err)
	}
	warningsJSON, err := json.Marshal(cs.Report.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal run warnings: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO corner_runs (run_id, params_json, passed, corner_count, warnings_json)
		 VALUES (?, ?, ?, ?, ?)`,
		cs.RunID, string(paramsJSON), cs.Report.Passed, len(cs.Corners), string(warningsJSON))
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", cs.RunID, err)
	}

	for _, c := range cs.Corners {
		_, err = tx.Exec(
			`INSERT INTO corners (run_id, corner_id, latitude, longitude, distance_m,
			                      intensity, intensity_spread, observation_count, severity_class)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cs.RunID, c.ID, nullFloat(c.Lat), nullFloat(c.Lon), nullFloat(c.Distance),
			c.Intensity, c.Spread, c.Observations, c.Severity)
		if err != nil {
			return fmt.Errorf("failed to insert corner %d of run %s: %w", c.ID, cs.RunID, err)
		}
	}

	return tx.Commit()
}

// LoadCornerSet reads a persisted run back. The validation report's attempt
// history is not persisted; only the accepted parameters and warnings are.
func (db *DB) LoadCornerSet(runID string) (*corner.CornerSet, error) {
	var paramsJSON, warningsJSON sql.NullString
	var passed bool
	err := db.QueryRow(
		`SELECT params_json, passed, warnings_json FROM corner_runs WHERE run_id = ?`,
		runID).Scan(&paramsJSON, &passed, &warningsJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	cs := &corner.CornerSet{RunID: runID}
	cs.Report.Passed = passed
	if paramsJSON.Valid {
		if err := json.Unmarshal([]byte(paramsJSON.String), &cs.Params); err != nil {
			return nil, fmt.Errorf("failed to parse params of run %s: %w", runID, err)
		}
	}
	if warningsJSON.Valid && warningsJSON.String != "null" {
		if err := json.Unmarshal([]byte(warningsJSON.String), &cs.Report.Warnings); err != nil {
			return nil, fmt.Errorf("failed to parse warnings of run %s: %w", runID, err)
		}
	}

	rows, err := db.Query(
		`SELECT corner_id, latitude, longitude, distance_m, intensity,
		        intensity_spread, observation_count, severity_class
		 FROM corners WHERE run_id = ? ORDER BY corner_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load corners of run %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c corner.Corner
		var lat, lon, dist sql.NullFloat64
		if err := rows.Scan(&c.ID, &lat, &lon, &dist, &c.Intensity,
			&c.Spread, &c.Observations, &c.Severity); err != nil {
			return nil, fmt.Errorf("failed to scan corner of run %s: %w", runID, err)
		}
		c.Lat = floatOrNaN(lat)
		c.Lon = floatOrNaN(lon)
		c.Distance = floatOrNaN(dist)
		cs.Corners = append(cs.Corners, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corners of run %s: %w", runID, err)
	}
	cs.Report.Count = len(cs.Corners)
	return cs, nil
}

// ListRuns returns run summaries, most recent first.
func (db *DB) ListRuns() ([]RunSummary, error) {
	rows, err := db.Query(
		`SELECT run_id, created_at, passed, corner_count
		 FROM corner_runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.CreatedAt, &r.Passed, &r.CornerCount); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullFloat(v float64) interface{} {
	if v != v {
		return nil
	}
	return v
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
