package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nomadcxx/jellyrename/internal/journal"
	"github.com/Nomadcxx/jellyrename/internal/logging"
)

func setupServer(t *testing.T, authToken string) (*Server, *journal.Journal) {
	t.Helper()
	j, err := journal.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return NewServer(j, authToken, logging.Nop()), j
}

func get(t *testing.T, handler http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := setupServer(t, "")
	rec := get(t, s.Handler(), "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListBatches(t *testing.T) {
	s, j := setupServer(t, "")
	require.True(t, j.LogAction("batch-1", "/tv/a.mkv", "/tv/a2.mkv",
		journal.TypeFile, journal.StatusRenamed, nil))
	require.True(t, j.LogAction("batch-1", "/tv/b.mkv", "/tv/b2.mkv",
		journal.TypeFile, journal.StatusReverted, nil))

	rec := get(t, s.Handler(), "/api/batches", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var batches []batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batches))
	require.Len(t, batches, 1)
	assert.Equal(t, "batch-1", batches[0].BatchID)
	assert.Equal(t, 2, batches[0].Entries)
	assert.Equal(t, 1, batches[0].Reverted)
}

func TestBatchEntries(t *testing.T) {
	s, j := setupServer(t, "")
	require.True(t, j.LogAction("batch-1", "/tv/a.mkv", "/tv/a2.mkv",
		journal.TypeFile, journal.StatusMoved, nil))

	rec := get(t, s.Handler(), "/api/batches/batch-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []entryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "/tv/a.mkv", entries[0].OriginalPath)
	assert.Equal(t, "/tv/a2.mkv", entries[0].NewPath)
	assert.Equal(t, "moved", entries[0].Status)
	assert.Equal(t, "file", entries[0].Type)
}

func TestBatchEntriesNotFound(t *testing.T) {
	s, _ := setupServer(t, "")
	rec := get(t, s.Handler(), "/api/batches/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthToken(t *testing.T) {
	s, _ := setupServer(t, "secret")
	h := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/batches", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/batches", "wrong").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/batches", "secret").Code)

	// Health stays open for probes
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz", "").Code)
}
