// Package runlog persists a history of pipeline invocations to SQLite.
//
// The database is an append-only audit trail for operators: which runs
// happened, what each stage did, how many units failed. It is never read by
// the pipeline itself; completion is inferred exclusively from on-disk
// markers, so deleting the database loses history but changes no behavior.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"armangle/internal/pipeline"
	"armangle/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped on schema changes; old databases are rejected
// rather than migrated since the log is disposable.
const schemaVersion = 1

const dbFileName = "runlog.db"

// StageRecord mirrors one stage's counters from a stored run.
type StageRecord struct {
	Stage        string
	Processed    int
	Skipped      int
	Failed       int
	TimedOut     int
	Deleted      int
	DeleteFailed int
}

// RunRecord is one stored pipeline invocation.
type RunRecord struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Forced   bool
	Units    int
	Failures int
	Stages   []StageRecord
}

// Store appends and reads run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the run log under logDir, creating it if needed.
func Open(logDir string) (*Store, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "runlog", "create log directory", logDir, err)
	}
	dbPath := filepath.Join(logDir, dbFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "runlog", "open database", dbPath, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrConfiguration, "runlog", "apply pragma", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "runlog", "check schema", s.path, err)
	}

	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "runlog", "begin schema tx", s.path, err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return services.Wrap(services.ErrConfiguration, "runlog", "create schema", s.path, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return services.Wrap(services.ErrConfiguration, "runlog", "record schema version", s.path, err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return services.Wrap(services.ErrConfiguration, "runlog", "read schema version", s.path, err)
	}
	if version != schemaVersion {
		return services.Wrap(services.ErrConfiguration, "runlog", "verify schema",
			fmt.Sprintf("database has version %d, expected %d (delete %s to reset)", version, schemaVersion, s.path), nil)
	}
	return nil
}

// RecordRun appends one invocation's report. Called exactly once per
// invocation, after the pipeline finishes.
func (s *Store) RecordRun(ctx context.Context, report *pipeline.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrTransient, "runlog", "begin tx", s.path, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, forced, units, failures)
         VALUES (?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Started.UTC().Format(time.RFC3339Nano),
		report.Finished.UTC().Format(time.RFC3339Nano),
		boolToInt(report.Forced),
		report.Units,
		len(report.Failures),
	)
	if err != nil {
		return services.Wrap(services.ErrTransient, "runlog", "insert run", report.RunID, err)
	}

	for _, sr := range report.Stages {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_stages (run_id, stage, processed, skipped, failed, timed_out, deleted, delete_failed)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, sr.Name,
			sr.Counts.Processed, sr.Counts.Skipped, sr.Counts.Failed,
			sr.Counts.TimedOut, sr.Counts.Deleted, sr.Counts.DeleteFailed,
		)
		if err != nil {
			return services.Wrap(services.ErrTransient, "runlog", "insert run stage", sr.Name, err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns up to limit invocations, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, forced, units, failures
         FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "runlog", "query runs", s.path, err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished string
		var forced int
		if err := rows.Scan(&rec.RunID, &started, &finished, &forced, &rec.Units, &rec.Failures); err != nil {
			return nil, services.Wrap(services.ErrTransient, "runlog", "scan run", s.path, err)
		}
		rec.Started, _ = time.Parse(time.RFC3339Nano, started)
		rec.Finished, _ = time.Parse(time.RFC3339Nano, finished)
		rec.Forced = forced != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "runlog", "iterate runs", s.path, err)
	}

	for i := range records {
		stages, err := s.runStages(ctx, records[i].RunID)
		if err != nil {
			return nil, err
		}
		records[i].Stages = stages
	}
	return records, nil
}

func (s *Store) runStages(ctx context.Context, runID string) ([]StageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, processed, skipped, failed, timed_out, deleted, delete_failed
         FROM run_stages WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "runlog", "query run stages", runID, err)
	}
	defer rows.Close()

	var stages []StageRecord
	for rows.Next() {
		var sr StageRecord
		if err := rows.Scan(&sr.Stage, &sr.Processed, &sr.Skipped, &sr.Failed, &sr.TimedOut, &sr.Deleted, &sr.DeleteFailed); err != nil {
			return nil, services.Wrap(services.ErrTransient, "runlog", "scan run stage", runID, err)
		}
		stages = append(stages, sr)
	}
	return stages, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
