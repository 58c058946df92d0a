// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: archive.go — host-side run/stats persistence
//
// Purpose:
//   - A companion to the firmware decode core, not part of it: records
//     completed-run metadata and periodic stats snapshots to a local
//     sqlite3 database for offline trend analysis and replay indexing.
//   - The decode core never imports this package — it is wired in by the
//     host harness around main.go, the same way the teacher's main.go uses
//     sqlite purely for its own startup bookkeeping, not from the router's
//     hot path.
//
// Notes:
//   - Schema is created on demand (CREATE TABLE IF NOT EXISTS) so a fresh
//     archive.db just works on first run.
// ─────────────────────────────────────────────────────────────────────────────

package archive

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"qecd/stats"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	dem_hash    TEXT    NOT NULL,
	num_shots   INTEGER NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER
);

CREATE TABLE IF NOT EXISTS stats_ticks (
	run_id      INTEGER NOT NULL REFERENCES runs(id),
	tick_at     INTEGER NOT NULL,
	shots_done  INTEGER NOT NULL,
	cycles_sum  INTEGER NOT NULL,
	cycles_min  INTEGER NOT NULL,
	cycles_max  INTEGER NOT NULL,
	malformed   INTEGER NOT NULL
);
`

// Archive wraps a sqlite3-backed database connection.
type Archive struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite3 database at path and ensures
// its schema exists.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: create schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// BeginRun records a new run's start and returns its ID for subsequent
// RecordTick/FinishRun calls.
func (a *Archive) BeginRun(demHash string, numShots int, startedAtUnix int64) (int64, error) {
	res, err := a.db.Exec(
		`INSERT INTO runs (dem_hash, num_shots, started_at) VALUES (?, ?, ?)`,
		demHash, numShots, startedAtUnix,
	)
	if err != nil {
		return 0, fmt.Errorf("archive: begin run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun stamps a run's completion time.
func (a *Archive) FinishRun(runID, finishedAtUnix int64) error {
	_, err := a.db.Exec(`UPDATE runs SET finished_at = ? WHERE id = ?`, finishedAtUnix, runID)
	if err != nil {
		return fmt.Errorf("archive: finish run: %w", err)
	}
	return nil
}

// RecordTick persists one stats.Snapshot reading for a run.
func (a *Archive) RecordTick(runID, tickAtUnix int64, snap stats.Snapshot) error {
	_, err := a.db.Exec(
		`INSERT INTO stats_ticks (run_id, tick_at, shots_done, cycles_sum, cycles_min, cycles_max, malformed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, tickAtUnix, snap.ShotsDone, snap.CyclesSum, snap.CyclesMin, snap.CyclesMax, snap.Malformed,
	)
	if err != nil {
		return fmt.Errorf("archive: record tick: %w", err)
	}
	return nil
}

// Tick is one archived stats_ticks row, read back for replay/analysis.
type Tick struct {
	TickAtUnix int64
	Snapshot   stats.Snapshot
}

// Ticks returns every recorded tick for a run, ordered by tick time.
func (a *Archive) Ticks(runID int64) ([]Tick, error) {
	rows, err := a.db.Query(
		`SELECT tick_at, shots_done, cycles_sum, cycles_min, cycles_max, malformed
		 FROM stats_ticks WHERE run_id = ? ORDER BY tick_at ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("archive: query ticks: %w", err)
	}
	defer rows.Close()

	var out []Tick
	for rows.Next() {
		var t Tick
		if err := rows.Scan(&t.TickAtUnix, &t.Snapshot.ShotsDone, &t.Snapshot.CyclesSum,
			&t.Snapshot.CyclesMin, &t.Snapshot.CyclesMax, &t.Snapshot.Malformed); err != nil {
			return nil, fmt.Errorf("archive: scan tick: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
