package handlers

import "net/http"

// Scores handles GET /api/scores.
func (h *Handlers) Scores(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	board, err := h.svc.Scores(r.Context(), limit, r.URL.Query().Get("category"))
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, board)
}

// Opportunities handles GET /api/opportunities.
func (h *Handlers) Opportunities(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	list, err := h.svc.Opportunities(r.Context(), limit, r.URL.Query().Get("category"))
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}
