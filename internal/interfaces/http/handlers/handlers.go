package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/kalshiradar/radar/internal/radar"
)

// Service is the aggregation surface the HTTP layer exposes.
type Service interface {
	Series(ctx context.Context, limit int) (*radar.SeriesList, error)
	Markets(ctx context.Context, limit int, category string) (*radar.MarketList, error)
	Scores(ctx context.Context, limit int, category string) (*radar.ScoreBoard, error)
	Opportunities(ctx context.Context, limit int, category string) (*radar.OpportunityList, error)
	MarketDetail(ctx context.Context, ticker string) (*radar.MarketDetail, error)
}

// Handlers maps inbound requests onto the aggregation pipeline.
type Handlers struct {
	svc Service
	log zerolog.Logger
}

// NewHandlers creates the handler set around an aggregation service.
func NewHandlers(svc Service, logger zerolog.Logger) *Handlers {
	return &Handlers{svc: svc, log: logger}
}

// errorBody is the uniform failure payload: a message string, nothing more.
type errorBody struct {
	Error string `json:"error"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("response encoding failed")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	h.writeJSON(w, status, errorBody{Error: err.Error()})
}

// NotFound handles unmatched routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, http.StatusNotFound, errorBody{Error: "endpoint not found"})
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent. A present but unparseable value is an error, surfaced
// like any other handler failure.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
