// Package api exposes a read-only HTTP view of the undo journal: batch
// listings and per-batch entries. It never mutates the filesystem or the
// journal.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Nomadcxx/jellyrename/internal/journal"
	"github.com/Nomadcxx/jellyrename/internal/logging"
)

// Server serves journal data over HTTP.
type Server struct {
	journal   *journal.Journal
	authToken string
	log       *logging.ComponentLogger
}

// NewServer builds a Server. An empty authToken disables authentication.
func NewServer(j *journal.Journal, authToken string, logger *logging.Logger) *Server {
	return &Server{
		journal:   j,
		authToken: authToken,
		log:       logger.Component("api"),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if s.authToken != "" {
			r.Use(s.requireToken)
		}
		r.Get("/batches", s.handleBatches)
		r.Get("/batches/{batchID}", s.handleBatchEntries)
	})

	return r
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, listen string) error {
	srv := &http.Server{
		Addr:         listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("listening", logging.F("addr", listen))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// requireToken enforces a constant-time bearer token check.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type batchResponse struct {
	BatchID  string    `json:"batch_id"`
	Started  time.Time `json:"started"`
	Entries  int       `json:"entries"`
	Reverted int       `json:"reverted"`
}

func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.journal.ListBatches()
	if err != nil {
		s.log.Error("list batches failed", err)
		writeError(w, http.StatusInternalServerError, "journal query failed")
		return
	}

	out := make([]batchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, batchResponse{
			BatchID:  b.BatchID,
			Started:  b.Started,
			Entries:  b.Entries,
			Reverted: b.Reverted,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type entryResponse struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	OriginalPath string    `json:"original_path"`
	NewPath      string    `json:"new_path"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
}

func (s *Server) handleBatchEntries(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	entries, err := s.journal.BatchEntries(batchID)
	if err != nil {
		s.log.Error("batch entries failed", err, logging.F("batch", batchID))
		writeError(w, http.StatusInternalServerError, "journal query failed")
		return
	}
	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:           e.ID,
			Timestamp:    e.Timestamp,
			OriginalPath: e.OriginalPath,
			NewPath:      e.NewPath,
			Type:         string(e.Type),
			Status:       string(e.Status),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
