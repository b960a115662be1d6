package handlers

import "net/http"

// Root serves the service banner at /.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "Kalshi Radar API",
		"version": "3.0.0",
	})
}

// Health serves the /api/health status payload.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"kalshi_api":     "connected",
		"scoring_engine": "active",
	})
}
