package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/willowgs/viciharvest/internal/model"
)

// StateDB stores crawl state and the raw-markup page cache in SQLite.
type StateDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures StateDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a StateDB in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned; the status command uses this to avoid creating an empty
// database just to report on it.
func Open(dbDir string, opts Options) (*StateDB, error) {
	dbPath := filepath.Join(dbDir, "viciharvest.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer; a single connection avoids
	// SQLITE_BUSY churn under the orchestrator's batch writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &StateDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *StateDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *StateDB) createTables() error {
	schema := `
	-- Per-title crawl outcome. The primary key on title enforces the
	-- completed/failed disjointness invariant at the storage level.
	CREATE TABLE IF NOT EXISTS work_state (
		title TEXT PRIMARY KEY,
		status TEXT NOT NULL CHECK(status IN ('completed', 'failed', 'discovered')),
		error_kind TEXT NOT NULL DEFAULT 'none',
		updated DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_work_state_status ON work_state(status);

	-- Raw page markup cache with passive TTL invalidation on read.
	CREATE TABLE IF NOT EXISTS page_cache (
		title TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		created DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveState persists the crawl state. Every known title is upserted so
// the table reflects the in-memory state exactly for those titles;
// titles from older runs that this run never touched are left alone.
func (sdb *StateDB) SaveState(ctx context.Context, state *model.CrawlState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin state transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	upsert := `
	INSERT INTO work_state (title, status, error_kind)
	VALUES (?, ?, ?)
	ON CONFLICT(title) DO UPDATE SET
		status = excluded.status,
		error_kind = excluded.error_kind,
		updated = CURRENT_TIMESTAMP
	`

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("failed to prepare state upsert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // Statement close on tx path

	failed := state.FailedTitles()
	for _, title := range state.DiscoveredTitles() {
		status := "discovered"
		kind := model.ErrorKindNone
		switch {
		case state.IsCompleted(title):
			status = "completed"
		default:
			if k, ok := failed[title]; ok {
				status = "failed"
				kind = k
			}
		}
		if _, err := stmt.ExecContext(ctx, title, status, kind.String()); err != nil {
			return fmt.Errorf("failed to upsert state for %q: %w", title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

// LoadState reads the persisted crawl state. A missing or empty table
// yields an empty state, not an error; first runs start from nothing.
func (sdb *StateDB) LoadState(ctx context.Context) (*model.CrawlState, error) {
	rows, err := sdb.db.QueryContext(ctx, `SELECT title, status, error_kind FROM work_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to query work state: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows close

	state := model.NewCrawlState()
	for rows.Next() {
		var title, status, kind string
		if err := rows.Scan(&title, &status, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan work state: %w", err)
		}
		switch status {
		case "completed":
			state.MarkCompleted(title)
		case "failed":
			state.MarkFailed(title, model.ParseErrorKind(kind))
		default:
			state.MarkDiscovered(title)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read work state: %w", err)
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}
	return state, nil
}

// StateCounts returns the number of titles per status without loading
// the full state. Used by the status command.
func (sdb *StateDB) StateCounts(ctx context.Context) (map[string]int, error) {
	rows, err := sdb.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM work_state GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count work state: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows close

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan state counts: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// FailedWorks returns the failed titles with their error kinds, ordered
// by title. Used by the status command.
func (sdb *StateDB) FailedWorks(ctx context.Context) (map[string]model.ErrorKind, error) {
	rows, err := sdb.db.QueryContext(ctx,
		`SELECT title, error_kind FROM work_state WHERE status = 'failed' ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed works: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows close

	failed := make(map[string]model.ErrorKind)
	for rows.Next() {
		var title, kind string
		if err := rows.Scan(&title, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan failed work: %w", err)
		}
		failed[title] = model.ParseErrorKind(kind)
	}
	return failed, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending
// on configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
