package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nomadcxx/jellyrename/internal/journal"
)

func TestResolveUndoBatch(t *testing.T) {
	j, err := journal.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	// An empty journal yields an empty ID, not an error; the command
	// reports "nothing to undo" instead of running against a blank batch.
	got, err := resolveUndoBatch(j, "")
	require.NoError(t, err)
	assert.Empty(t, got)

	// An explicit ID passes through untouched.
	got, err = resolveUndoBatch(j, "batch-42")
	require.NoError(t, err)
	assert.Equal(t, "batch-42", got)

	// With history, the newest batch wins.
	require.True(t, j.LogAction("batch-1", "/tv/a.mkv", "/tv/a2.mkv",
		journal.TypeFile, journal.StatusRenamed, nil))
	require.True(t, j.LogAction("batch-2", "/tv/b.mkv", "/tv/b2.mkv",
		journal.TypeFile, journal.StatusRenamed, nil))

	got, err = resolveUndoBatch(j, "")
	require.NoError(t, err)
	assert.Equal(t, "batch-2", got)
}
