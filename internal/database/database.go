package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SweepDB manages the SQLite database holding sweep history
type SweepDB struct {
	db *sql.DB
}

// SweepRecord summarizes one sweep run
type SweepRecord struct {
	ID                 int64
	StartedAt          time.Time
	FinishedAt         *time.Time
	Root               string
	DryRun             bool
	DirectoriesRemoved int
	FilesRemoved       int
	NotFound           int
	Failed             int
	BytesFreed         int64
}

// ActionRecord is a single reported action within a sweep
type ActionRecord struct {
	ID           int64
	SweepID      int64
	Timestamp    time.Time
	Action       string // DELETE, DRY_RUN, NOT_FOUND, ERROR, BLOCKED
	Path         string
	FileName     string
	ObjectType   string
	Reason       string // target_directory or target_filename
	Size         int64
	ErrorMessage string
}

// NewSweepDB creates a new database connection and initializes schema
func NewSweepDB(dbPath string) (*SweepDB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// file: prefix with _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// Executing a query forces the file to be created
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	sdb := &SweepDB{db: db}
	if err = sdb.initSchema(); err != nil {
		return nil, err
	}

	return sdb, nil
}

// initSchema creates tables and indexes if they don't exist
func (d *SweepDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sweeps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		root TEXT NOT NULL,
		dry_run INTEGER NOT NULL DEFAULT 0,
		directories_removed INTEGER NOT NULL DEFAULT 0,
		files_removed INTEGER NOT NULL DEFAULT 0,
		not_found INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		bytes_freed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sweep_id INTEGER NOT NULL REFERENCES sweeps(id),
		timestamp DATETIME NOT NULL,
		action TEXT NOT NULL,
		path TEXT NOT NULL,
		file_name TEXT,
		object_type TEXT,
		reason TEXT,
		size INTEGER NOT NULL DEFAULT 0,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_actions_sweep ON actions(sweep_id);
	CREATE INDEX IF NOT EXISTS idx_actions_timestamp ON actions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_actions_action ON actions(action);
	CREATE INDEX IF NOT EXISTS idx_actions_path ON actions(path);
	CREATE INDEX IF NOT EXISTS idx_sweeps_started_at ON sweeps(started_at);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := d.db.Exec(schema)
	return err
}

// BeginSweep inserts a sweep row and returns its id
func (d *SweepDB) BeginSweep(root string, dryRun bool, startedAt time.Time) (int64, error) {
	res, err := d.db.Exec(
		`INSERT INTO sweeps (started_at, root, dry_run) VALUES (?, ?, ?)`,
		startedAt, root, dryRun,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordAction inserts one action row for a sweep
func (d *SweepDB) RecordAction(sweepID int64, rec ActionRecord) error {
	query := `
	INSERT INTO actions (
		sweep_id, timestamp, action, path, file_name, object_type, reason, size, error_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errMsg sql.NullString
	if rec.ErrorMessage != "" {
		errMsg = sql.NullString{String: rec.ErrorMessage, Valid: true}
	}

	_, err := d.db.Exec(
		query,
		sweepID,
		rec.Timestamp,
		rec.Action,
		rec.Path,
		filepath.Base(rec.Path),
		rec.ObjectType,
		rec.Reason,
		rec.Size,
		errMsg,
	)
	return err
}

// FinishSweep stores the final counters of a sweep
func (d *SweepDB) FinishSweep(sweepID int64, summary SweepRecord) error {
	finished := time.Now()
	if summary.FinishedAt != nil {
		finished = *summary.FinishedAt
	}
	_, err := d.db.Exec(`
	UPDATE sweeps SET
		finished_at = ?,
		directories_removed = ?,
		files_removed = ?,
		not_found = ?,
		failed = ?,
		bytes_freed = ?
	WHERE id = ?
	`,
		finished,
		summary.DirectoriesRemoved,
		summary.FilesRemoved,
		summary.NotFound,
		summary.Failed,
		summary.BytesFreed,
		sweepID,
	)
	return err
}

// Close closes the database connection
func (d *SweepDB) Close() error {
	return d.db.Close()
}

// Vacuum optimizes the database
func (d *SweepDB) Vacuum() error {
	_, err := d.db.Exec("VACUUM")
	return err
}
