// Package api provides the HTTP API for querying archived runs.
// All endpoints are GET and read-only; writing happens through the batch
// runner, never over HTTP.
// See design doc Section 8.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bknight1/gtpath/internal/persistence"
)

// defaultRateLimit caps run lookups per client per minute. Record payloads
// for grid runs reach tens of thousands of rows.
const defaultRateLimit = 240

// Server serves the run archive over HTTP.
type Server struct {
	DB    *persistence.DB
	Port  int
	Limit *RateLimiter // optional; Handler installs a default when nil
}

// Handler returns the route table. Separate from Start so tests can mount
// it on a test listener.
func (s *Server) Handler() http.Handler {
	if s.Limit == nil {
		s.Limit = NewRateLimiter(defaultRateLimit, time.Minute)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/run/", s.Limit.Wrap(s.handleRunRoutes))
	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.DB.RunCount()
	if err != nil {
		slog.Error("status query failed", "error", err)
		http.Error(w, "status unavailable", http.StatusInternalServerError)
		return
	}

	status := map[string]any{
		"name": "gtpath",
		"runs": count,
	}
	if last, err := s.DB.GetMeta("last_run"); err == nil {
		status["last_run"] = last
	}
	writeJSON(w, status)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	runs, err := s.DB.RecentRuns(limit)
	if err != nil {
		slog.Error("run listing failed", "error", err)
		http.Error(w, "run listing failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// handleRunRoutes dispatches /api/v1/run/:id and /api/v1/run/:id/records.
func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 || parts[4] == "" {
		http.Error(w, "missing run id", http.StatusBadRequest)
		return
	}
	id := parts[4]

	run, err := s.DB.GetRun(id)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("run query failed", "error", err, "id", id)
		http.Error(w, "run query failed", http.StatusInternalServerError)
		return
	}

	if len(parts) >= 6 && parts[5] == "records" {
		records, err := s.DB.Records(id)
		if err != nil {
			slog.Error("records query failed", "error", err, "id", id)
			http.Error(w, "records query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{
			"run":     run,
			"records": records,
		})
		return
	}

	writeJSON(w, run)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
