package handlers

import "net/http"

// Series handles GET /api/series.
func (h *Handlers) Series(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 200)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	list, err := h.svc.Series(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}
