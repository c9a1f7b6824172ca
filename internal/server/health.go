// Package server exposes the latest health snapshot over HTTP in watch mode.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/clustergate/hostgate/api/v1alpha1"
)

// StatePending is reported by /readyz before the first run has completed.
const StatePending = "PENDING"

// SnapshotState holds the latest snapshot, updated after every scheduled run.
type SnapshotState struct {
	mu     sync.RWMutex
	latest *v1alpha1.HealthSnapshot
	runs   int
}

// NewSnapshotState creates an empty SnapshotState.
func NewSnapshotState() *SnapshotState {
	return &SnapshotState{}
}

// Update replaces the latest snapshot. Snapshots are immutable once built,
// so the pointer is shared rather than copied.
func (s *SnapshotState) Update(snap *v1alpha1.HealthSnapshot) {
	if snap == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = snap
	s.runs++
}

// Latest returns the most recent snapshot, or nil before the first run.
func (s *SnapshotState) Latest() *v1alpha1.HealthSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Runs returns how many snapshots have been recorded.
func (s *SnapshotState) Runs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs
}

// IsReady reports whether the latest verdict is acceptable. WARNING passes
// unless strict is set; CRITICAL and "no run yet" never pass.
func (s *SnapshotState) IsReady(strict bool) bool {
	snap := s.Latest()
	if snap == nil {
		return false
	}
	switch snap.Overall {
	case v1alpha1.SeverityHealthy:
		return true
	case v1alpha1.SeverityWarning:
		return !strict
	case v1alpha1.SeverityCritical:
		return false
	default:
		return false
	}
}

type readyzResponse struct {
	State     string     `json:"state"`
	Ready     bool       `json:"ready"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	RunID     string     `json:"runId,omitempty"`
	Hostname  string     `json:"hostname,omitempty"`

	// Failing lists connectivity entries in FAILED state.
	Failing []string `json:"failing,omitempty"`
}

// ReadyzHandler returns an HTTP handler for the /readyz endpoint.
// Returns 200 if the latest run is HEALTHY or WARNING, 503 otherwise.
// Supports query parameters:
//
//	strict - when true, WARNING is also reported as not ready
func ReadyzHandler(state *SnapshotState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		strict, _ := strconv.ParseBool(r.URL.Query().Get("strict"))

		resp := readyzResponse{State: StatePending}
		if snap := state.Latest(); snap != nil {
			ts := snap.Timestamp
			resp.State = snap.Overall.String()
			resp.Timestamp = &ts
			resp.RunID = snap.RunID
			resp.Hostname = snap.System.Hostname
			for _, c := range snap.Connectivity {
				if c.State == v1alpha1.ConnectionFailed {
					resp.Failing = append(resp.Failing, c.Name)
				}
			}
		}
		resp.Ready = state.IsReady(strict)

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

// ReportHandler serves the latest snapshot, or 404 before the first run.
func ReportHandler(state *SnapshotState) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := state.Latest()
		if snap == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no health report available yet"})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
