// Package persistence provides SQLite-based snapshot storage for
// simulation runs.
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/wildfen/ecosim/sim"
)

// Store wraps a SQLite connection for snapshot persistence. Each run
// gets a UUID; snapshots within a run are keyed by tick.
type Store struct {
	conn  *sqlx.DB
	runID string
}

// Open opens or creates a snapshot database at the given path and starts
// a new run.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn, runID: uuid.NewString()}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// RunID returns the identifier of the current run.
func (s *Store) RunID() string {
	return s.runID
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		saved_at INTEGER NOT NULL,
		state_json TEXT NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id, tick);
	`
	if _, err := s.conn.Exec(schema); err != nil {
		return err
	}

	_, err := s.conn.Exec(
		"INSERT OR IGNORE INTO runs (id, started_at) VALUES (?, ?)",
		s.runID, time.Now().Unix(),
	)
	return err
}

// SaveSnapshot stores a snapshot for the current run, replacing any
// earlier snapshot at the same tick.
func (s *Store) SaveSnapshot(snap *sim.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.conn.Exec(
		"INSERT OR REPLACE INTO snapshots (run_id, tick, saved_at, state_json) VALUES (?, ?, ?, ?)",
		s.runID, snap.Tick, time.Now().Unix(), string(data),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadLatest returns the most recent snapshot of the given run, or of
// the latest run when runID is empty. Returns (nil, nil) when the
// database holds no snapshots.
func (s *Store) LoadLatest(runID string) (*sim.Snapshot, error) {
	if runID == "" {
		err := s.conn.Get(&runID,
			"SELECT run_id FROM snapshots ORDER BY saved_at DESC LIMIT 1")
		if err != nil {
			return nil, nil
		}
	}

	var stateJSON string
	err := s.conn.Get(&stateJSON,
		"SELECT state_json FROM snapshots WHERE run_id = ? ORDER BY tick DESC LIMIT 1",
		runID,
	)
	if err != nil {
		return nil, nil
	}

	snap := &sim.Snapshot{}
	if err := json.Unmarshal([]byte(stateJSON), snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Runs lists all stored run IDs, newest first.
func (s *Store) Runs() ([]string, error) {
	var ids []string
	err := s.conn.Select(&ids, "SELECT id FROM runs ORDER BY started_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return ids, nil
}
