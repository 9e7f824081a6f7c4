package journal

import "database/sql"

type migration struct {
	version int
	up      []string
}

var migrations = []migration{
	{
		version: 1,
		up: []string{
			`CREATE TABLE rename_log (
				id INTEGER PRIMARY KEY AUTOINCREMENT,

				batch_id TEXT NOT NULL,
				timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,

				-- One journal row per source file, ever-pending included.
				-- The uniqueness constraint makes a second attempt to log
				-- the same original fail loudly instead of corrupting the
				-- undo trail.
				original_path TEXT NOT NULL UNIQUE,
				new_path TEXT NOT NULL,

				entry_type TEXT NOT NULL CHECK (entry_type IN ('file', 'dir')),
				status TEXT NOT NULL CHECK (status IN (
					'renamed', 'moved', 'trashed', 'reverted',
					'created_dir', 'pending_final', 'failed_pending'
				)),

				original_size INTEGER,
				original_mtime INTEGER
			)`,

			`CREATE INDEX idx_rename_log_batch ON rename_log(batch_id)`,

			`CREATE TABLE schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`INSERT INTO schema_version (version) VALUES (1)`,
		},
	},
}

// applyMigrations brings the database up to the latest schema version.
// Each migration runs in its own transaction and records its version as
// part of its own statements.
func applyMigrations(db *sql.DB) error {
	var currentVersion int
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&currentVersion)
	if err != nil {
		// schema_version doesn't exist yet - fresh database
		currentVersion = 0
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}

		for _, stmt := range m.up {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return err
			}
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}
