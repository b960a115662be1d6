package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kalshiradar/radar/internal/radar"
)

// Markets handles GET /api/markets.
func (h *Handlers) Markets(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	list, err := h.svc.Markets(r.Context(), limit, r.URL.Query().Get("category"))
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// MarketDetail handles GET /api/markets/{ticker}.
func (h *Handlers) MarketDetail(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	detail, err := h.svc.MarketDetail(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, radar.ErrMarketNotFound) {
			h.writeError(w, r, http.StatusNotFound, err)
			return
		}
		h.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}
