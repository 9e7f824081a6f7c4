package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpenPathCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "journal.db")

	j, err := OpenPath(path)
	require.NoError(t, err)
	defer j.Close()

	assert.Equal(t, path, j.Path())
	assert.FileExists(t, path)
}

func TestLogActionAndReadBack(t *testing.T) {
	j := setupTestJournal(t)

	stat := &FileStat{Size: 1234, Mtime: time.Unix(1700000000, 0)}
	ok := j.LogAction("batch-1", "/tv/old.mkv", "/tv/new.mkv", TypeFile, StatusRenamed, stat)
	require.True(t, ok)

	entries, err := j.BatchEntries("batch-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "batch-1", e.BatchID)
	assert.Equal(t, "/tv/old.mkv", e.OriginalPath)
	assert.Equal(t, "/tv/new.mkv", e.NewPath)
	assert.Equal(t, TypeFile, e.Type)
	assert.Equal(t, StatusRenamed, e.Status)
	require.True(t, e.OriginalSize.Valid)
	assert.Equal(t, int64(1234), e.OriginalSize.Int64)
	require.True(t, e.OriginalMtime.Valid)
	assert.Equal(t, int64(1700000000), e.OriginalMtime.Int64)
}

func TestLogActionRejectsDuplicateOriginalPath(t *testing.T) {
	j := setupTestJournal(t)

	require.True(t, j.LogAction("batch-1", "/tv/a.mkv", "/tv/b.mkv", TypeFile, StatusRenamed, nil))
	assert.False(t, j.LogAction("batch-1", "/tv/a.mkv", "/tv/c.mkv", TypeFile, StatusRenamed, nil),
		"second insert for the same original_path must fail")
	assert.False(t, j.LogAction("batch-2", "/tv/a.mkv", "/tv/d.mkv", TypeFile, StatusRenamed, nil),
		"original_path is unique across batches")
}

func TestUpdateStatus(t *testing.T) {
	j := setupTestJournal(t)
	require.True(t, j.LogAction("batch-1", "/tv/a.mkv", "/tv/b.mkv", TypeFile, StatusPendingFinal, nil))

	assert.True(t, j.UpdateStatus("batch-1", "/tv/a.mkv", StatusRenamed))

	entries, err := j.BatchEntries("batch-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRenamed, entries[0].Status)

	// Reverted rows are frozen
	require.True(t, j.UpdateStatus("batch-1", "/tv/a.mkv", StatusReverted))
	assert.False(t, j.UpdateStatus("batch-1", "/tv/a.mkv", StatusRenamed))

	assert.False(t, j.UpdateStatus("batch-1", "/tv/missing.mkv", StatusRenamed))
}

func TestEntriesForUndoOrderAndFilter(t *testing.T) {
	j := setupTestJournal(t)

	require.True(t, j.LogAction("batch-1", "/tv/dir", "/tv/dir", TypeDir, StatusCreatedDir, nil))
	require.True(t, j.LogAction("batch-1", "/tv/a.mkv", "/tv/dir/a.mkv", TypeFile, StatusMoved, nil))
	require.True(t, j.LogAction("batch-1", "/tv/b.mkv", "/tv/dir/b.mkv", TypeFile, StatusReverted, nil))
	require.True(t, j.LogAction("batch-1", "/tv/c.mkv", "/tv/dir/c.mkv", TypeFile, StatusTrashed, nil))

	entries, err := j.EntriesForUndo("batch-1")
	require.NoError(t, err)
	require.Len(t, entries, 2, "reverted and trashed rows are excluded")

	// Newest logged first: the file move before the directory creation
	assert.Equal(t, "/tv/a.mkv", entries[0].OriginalPath)
	assert.Equal(t, "/tv/dir", entries[1].OriginalPath)
}

func TestListBatchesAndLatest(t *testing.T) {
	j := setupTestJournal(t)

	latest, err := j.LatestBatchID()
	require.NoError(t, err)
	assert.Empty(t, latest, "empty journal has no latest batch")

	require.True(t, j.LogAction("batch-1", "/tv/a.mkv", "/tv/a2.mkv", TypeFile, StatusRenamed, nil))
	require.True(t, j.LogAction("batch-1", "/tv/b.mkv", "/tv/b2.mkv", TypeFile, StatusReverted, nil))
	require.True(t, j.LogAction("batch-2", "/tv/c.mkv", "/tv/c2.mkv", TypeFile, StatusRenamed, nil))

	batches, err := j.ListBatches()
	require.NoError(t, err)
	require.Len(t, batches, 2)

	byID := make(map[string]BatchSummary)
	for _, b := range batches {
		byID[b.BatchID] = b
	}
	assert.Equal(t, 2, byID["batch-1"].Entries)
	assert.Equal(t, 1, byID["batch-1"].Reverted)
	assert.Equal(t, 1, byID["batch-2"].Entries)

	latest, err = j.LatestBatchID()
	require.NoError(t, err)
	assert.Equal(t, "batch-2", latest)
}

func TestPruneOldBatches(t *testing.T) {
	j := setupTestJournal(t)

	_, err := j.PruneOldBatches(0)
	assert.Error(t, err, "non-positive expiry must be rejected")
	_, err = j.PruneOldBatches(-5)
	assert.Error(t, err)

	require.True(t, j.LogAction("batch-1", "/tv/a.mkv", "/tv/a2.mkv", TypeFile, StatusRenamed, nil))

	// A fresh row survives any sane window
	removed, err := j.PruneOldBatches(30)
	require.NoError(t, err)
	assert.Zero(t, removed)

	entries, err := j.BatchEntries("batch-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")

	j1, err := OpenPath(path)
	require.NoError(t, err)
	require.True(t, j1.LogAction("batch-1", "/tv/a.mkv", "/tv/a2.mkv", TypeFile, StatusRenamed, nil))
	require.NoError(t, j1.Close())

	j2, err := OpenPath(path)
	require.NoError(t, err)
	defer j2.Close()

	entries, err := j2.BatchEntries("batch-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "data survives a reopen")
}
