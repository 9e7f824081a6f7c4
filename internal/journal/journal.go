// Package journal persists every filesystem action jellyrename takes to a
// SQLite database, keyed by batch. The journal is both the audit trail and
// the data the undo command replays in reverse.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// EntryType distinguishes file rows from directory rows.
type EntryType string

const (
	TypeFile EntryType = "file"
	TypeDir  EntryType = "dir"
)

// Status is the lifecycle state of one journal entry.
type Status string

const (
	// StatusPendingFinal means the original has been staged to a temp file
	// in the target directory; the final commit is not yet confirmed.
	StatusPendingFinal Status = "pending_final"
	// StatusRenamed means the file got a new name in the same directory.
	StatusRenamed Status = "renamed"
	// StatusMoved means the file landed in a different directory.
	StatusMoved Status = "moved"
	// StatusTrashed means the original was moved to the trash.
	StatusTrashed Status = "trashed"
	// StatusCreatedDir records a directory created for a batch.
	StatusCreatedDir Status = "created_dir"
	// StatusFailedPending marks a staged file that was rolled back.
	StatusFailedPending Status = "failed_pending"
	// StatusReverted marks an entry undone by the undo command.
	StatusReverted Status = "reverted"
)

// Entry is one row of the rename_log table.
type Entry struct {
	ID            int64
	BatchID       string
	Timestamp     time.Time
	OriginalPath  string
	NewPath       string
	Type          EntryType
	Status        Status
	OriginalSize  sql.NullInt64
	OriginalMtime sql.NullInt64 // unix seconds
}

// BatchSummary aggregates one batch's rows for listings.
type BatchSummary struct {
	BatchID  string
	Started  time.Time
	Entries  int
	Reverted int
}

// Journal is the database handle. Safe for concurrent use; every write is
// its own short transaction.
type Journal struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// OpenPath opens or creates the journal database at a specific path.
func OpenPath(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("unable to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("unable to open journal database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping journal database: %w", err)
	}

	j := &Journal{db: db, path: path}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to migrate journal database: %w", err)
	}

	return j, nil
}

// OpenInMemory opens an in-memory journal for testing.
func OpenInMemory() (*Journal, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("unable to open in-memory journal: %w", err)
	}
	// A single connection keeps the in-memory database alive across calls
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, path: ":memory:"}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to migrate in-memory journal: %w", err)
	}

	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the filesystem path to the journal database.
func (j *Journal) Path() string {
	return j.path
}
