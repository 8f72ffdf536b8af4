// Package api implements a read-only REST API over persisted dispatch
// and trading interval results, and the live region/operator state of a
// running simulation.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/nemsim/nemsim/internal/feed"
	"github.com/nemsim/nemsim/internal/operator"
	"github.com/nemsim/nemsim/internal/persist"
)

// Server provides REST API endpoints for the simulator.
type Server struct {
	reader    persist.IntervalReader
	operators map[string]*operator.Operator
	mgr       *feed.Manager
	regionIDs []string
	startAt   time.Time
}

// NewServer creates a new API server.
func NewServer(reader persist.IntervalReader, operators []*operator.Operator, mgr *feed.Manager) *Server {
	byRegion := make(map[string]*operator.Operator, len(operators))
	regionIDs := make([]string, 0, len(operators))
	for _, op := range operators {
		byRegion[op.RegionName()] = op
		regionIDs = append(regionIDs, op.RegionName())
	}
	return &Server{
		reader:    reader,
		operators: byRegion,
		mgr:       mgr,
		regionIDs: regionIDs,
		startAt:   time.Now(),
	}
}

// Register attaches API routes to the given mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/regions", s.handleRegions)
	mux.HandleFunc("GET /api/regions/{regionId}/dispatch-intervals", s.handleDispatchIntervals)
	mux.HandleFunc("GET /api/regions/{regionId}/trading-intervals", s.handleTradingIntervals)
	mux.HandleFunc("GET /api/regions/{regionId}/spot-price-summary", s.handleSpotPriceSummary)
	mux.HandleFunc("GET /api/stats", s.handleStats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// resolveRegion looks up an operator by region id, writing a 404 if not found.
func (s *Server) resolveRegion(w http.ResponseWriter, regionID string) (*operator.Operator, bool) {
	op, ok := s.operators[regionID]
	if !ok {
		writeError(w, http.StatusNotFound, "region not found: "+regionID)
		return nil, false
	}
	return op, true
}

func parseIntParam(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func parseTimeParam(r *http.Request, key string) *time.Time {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &t
}
