package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// FileStat carries the size and mtime recorded for later integrity checks.
type FileStat struct {
	Size  int64
	Mtime time.Time
}

// LogAction inserts a journal row for an action that is beginning. The
// status reflects intent (usually pending_final); it is updated in place as
// the real-world outcome becomes known.
//
// Returns false on a duplicate original_path or any database error. A
// duplicate means a row for this source file already exists, which a caller
// must treat as a hard stop for that file.
func (j *Journal) LogAction(batchID, originalPath, newPath string, entryType EntryType, status Status, stat *FileStat) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	var size, mtime interface{}
	if stat != nil {
		size = stat.Size
		mtime = stat.Mtime.Unix()
	}

	_, err := j.db.Exec(`
		INSERT INTO rename_log (
			batch_id, original_path, new_path, entry_type, status,
			original_size, original_mtime
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, batchID, originalPath, newPath, string(entryType), string(status), size, mtime)

	return err == nil
}

// UpdateStatus transitions the row for originalPath within batchID to a new
// status. Returns false when no matching non-reverted row exists.
func (j *Journal) UpdateStatus(batchID, originalPath string, status Status) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.Exec(`
		UPDATE rename_log SET status = ?
		WHERE batch_id = ? AND original_path = ? AND status != ?
	`, string(status), batchID, originalPath, string(StatusReverted))
	if err != nil {
		return false
	}

	n, err := res.RowsAffected()
	return err == nil && n > 0
}

// BatchEntries returns every row of a batch in original action order.
func (j *Journal) BatchEntries(batchID string) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.queryEntries(`
		SELECT id, batch_id, timestamp, original_path, new_path,
		       entry_type, status, original_size, original_mtime
		FROM rename_log
		WHERE batch_id = ?
		ORDER BY id ASC
	`, batchID)
}

// EntriesForUndo returns a batch's revertible rows newest-logged-first, so
// later-dependent actions are undone before the actions they depend on.
// Rows already reverted or trashed are excluded.
func (j *Journal) EntriesForUndo(batchID string) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.queryEntries(`
		SELECT id, batch_id, timestamp, original_path, new_path,
		       entry_type, status, original_size, original_mtime
		FROM rename_log
		WHERE batch_id = ? AND status NOT IN (?, ?)
		ORDER BY id DESC
	`, batchID, string(StatusReverted), string(StatusTrashed))
}

// ListBatches summarizes all batches, newest first.
func (j *Journal) ListBatches() ([]BatchSummary, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.Query(`
		SELECT batch_id, MIN(timestamp), COUNT(*),
		       SUM(CASE WHEN status = 'reverted' THEN 1 ELSE 0 END)
		FROM rename_log
		GROUP BY batch_id
		ORDER BY MIN(timestamp) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []BatchSummary
	for rows.Next() {
		var b BatchSummary
		var started string
		if err := rows.Scan(&b.BatchID, &started, &b.Entries, &b.Reverted); err != nil {
			return nil, err
		}
		b.Started = parseTimestamp(started)
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// LatestBatchID returns the most recent batch id, or "" when the journal is
// empty.
func (j *Journal) LatestBatchID() (string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var id string
	err := j.db.QueryRow(`
		SELECT batch_id FROM rename_log ORDER BY id DESC LIMIT 1
	`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// PruneOldBatches deletes rows older than expiryDays. Invalid expiry values
// are rejected; the caller logs the warning and skips the prune.
func (j *Journal) PruneOldBatches(expiryDays int) (int64, error) {
	if expiryDays <= 0 {
		return 0, fmt.Errorf("invalid journal expiry %d days, skipping prune", expiryDays)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -expiryDays).UTC().Format("2006-01-02 15:04:05")
	res, err := j.db.Exec(`DELETE FROM rename_log WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (j *Journal) queryEntries(query string, args ...interface{}) ([]Entry, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts, entryType, status string
		if err := rows.Scan(&e.ID, &e.BatchID, &ts, &e.OriginalPath, &e.NewPath,
			&entryType, &status, &e.OriginalSize, &e.OriginalMtime); err != nil {
			return nil, err
		}
		e.Timestamp = parseTimestamp(ts)
		e.Type = EntryType(entryType)
		e.Status = Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05Z",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
