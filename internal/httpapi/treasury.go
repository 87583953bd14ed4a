package httpapi

import "net/http"

func (s *Server) handleTreasuryStats(w http.ResponseWriter, r *http.Request) {
	if s.treasury == nil {
		writeError(w, http.StatusInternalServerError, "API key not configured")
		return
	}

	stats, err := s.treasury.Stats(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("treasury stats failed")
		writeError(w, http.StatusInternalServerError, "Failed to calculate treasury stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
