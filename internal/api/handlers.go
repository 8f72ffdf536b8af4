package api

import (
	"context"
	"net/http"
	"time"

	"github.com/nemsim/nemsim/internal/persist"
)

type regionInfo struct {
	RegionID string `json:"regionId"`
}

// handleRegions returns every region this operator set knows about.
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	out := make([]regionInfo, 0, len(s.regionIDs))
	for _, id := range s.regionIDs {
		out = append(out, regionInfo{RegionID: id})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDispatchIntervals returns paginated dispatch interval records for a region.
func (s *Server) handleDispatchIntervals(w http.ResponseWriter, r *http.Request) {
	regionID := r.PathValue("regionId")
	if _, ok := s.resolveRegion(w, regionID); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := s.reader.QueryDispatchIntervals(ctx, persist.IntervalFilter{
		RegionID: regionID,
		Limit:    parseIntParam(r, "limit", 100),
		Offset:   parseIntParam(r, "offset", 0),
		From:     parseTimeParam(r, "from"),
		To:       parseTimeParam(r, "to"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleTradingIntervals returns paginated trading interval records for a region.
func (s *Server) handleTradingIntervals(w http.ResponseWriter, r *http.Request) {
	regionID := r.PathValue("regionId")
	if _, ok := s.resolveRegion(w, regionID); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := s.reader.QueryTradingIntervals(ctx, persist.IntervalFilter{
		RegionID: regionID,
		Limit:    parseIntParam(r, "limit", 100),
		Offset:   parseIntParam(r, "offset", 0),
		From:     parseTimeParam(r, "from"),
		To:       parseTimeParam(r, "to"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleSpotPriceSummary returns aggregate spot price statistics for a region.
func (s *Server) handleSpotPriceSummary(w http.ResponseWriter, r *http.Request) {
	regionID := r.PathValue("regionId")
	if _, ok := s.resolveRegion(w, regionID); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	summary, err := s.reader.QuerySpotPriceSummary(ctx, regionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

type statsResponse struct {
	Uptime  string `json:"uptime"`
	Clients int    `json:"clients"`
	Regions int    `json:"regions"`
}

// handleStats returns runtime statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Uptime:  time.Since(s.startAt).Truncate(time.Second).String(),
		Clients: s.mgr.ClientCount(),
		Regions: len(s.regionIDs),
	})
}
