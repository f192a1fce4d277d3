package http

import (
	"net/http"
)

// handleStats serves aggregate figures over an optional date range.
// Results are cached per range until the next write.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	from, to, _, err := dateRange(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	key := from.String() + "|" + to.String()
	if cached, found := s.statsCache.Get(key); found {
		s.logger.DebugContext(r.Context(), "Stats served from cache", "key", key)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	stats, err := s.service.GetStats(r.Context(), from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.statsCache.Set(key, stats)
	writeJSON(w, http.StatusOK, stats)
}
