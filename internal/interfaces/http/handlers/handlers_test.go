package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalshiradar/radar/internal/kalshi"
	"github.com/kalshiradar/radar/internal/radar"
	"github.com/kalshiradar/radar/internal/scoring"
)

// fakeService returns canned pipeline results and records the arguments it
// was called with.
type fakeService struct {
	lastLimit    int
	lastCategory string

	seriesList    *radar.SeriesList
	marketList    *radar.MarketList
	scoreBoard    *radar.ScoreBoard
	opportunities *radar.OpportunityList
	detail        *radar.MarketDetail
	err           error
}

func (f *fakeService) Series(_ context.Context, limit int) (*radar.SeriesList, error) {
	f.lastLimit = limit
	return f.seriesList, f.err
}

func (f *fakeService) Markets(_ context.Context, limit int, category string) (*radar.MarketList, error) {
	f.lastLimit, f.lastCategory = limit, category
	return f.marketList, f.err
}

func (f *fakeService) Scores(_ context.Context, limit int, category string) (*radar.ScoreBoard, error) {
	f.lastLimit, f.lastCategory = limit, category
	return f.scoreBoard, f.err
}

func (f *fakeService) Opportunities(_ context.Context, limit int, category string) (*radar.OpportunityList, error) {
	f.lastLimit, f.lastCategory = limit, category
	return f.opportunities, f.err
}

func (f *fakeService) MarketDetail(_ context.Context, ticker string) (*radar.MarketDetail, error) {
	return f.detail, f.err
}

func newTestRouter(svc Service) *mux.Router {
	h := NewHandlers(svc, zerolog.Nop())
	router := mux.NewRouter()
	router.HandleFunc("/", h.Root).Methods("GET")
	router.HandleFunc("/api/health", h.Health).Methods("GET")
	router.HandleFunc("/api/series", h.Series).Methods("GET")
	router.HandleFunc("/api/markets", h.Markets).Methods("GET")
	router.HandleFunc("/api/markets/{ticker}", h.MarketDetail).Methods("GET")
	router.HandleFunc("/api/scores", h.Scores).Methods("GET")
	router.HandleFunc("/api/opportunities", h.Opportunities).Methods("GET")
	return router
}

func doRequest(t *testing.T, router *mux.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRootAndHealth(t *testing.T) {
	router := newTestRouter(&fakeService{})

	rec := doRequest(t, router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	var root map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))
	assert.Equal(t, "healthy", root["status"])
	assert.Equal(t, "Kalshi Radar API", root["service"])

	rec = doRequest(t, router, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "active", health["scoring_engine"])
}

func TestSeries_DefaultLimit(t *testing.T) {
	svc := &fakeService{seriesList: &radar.SeriesList{Series: []kalshi.Series{}, Count: 0}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, "/api/series")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 200, svc.lastLimit)
}

func TestMarkets_PassesLimitAndCategory(t *testing.T) {
	svc := &fakeService{marketList: &radar.MarketList{Markets: []scoring.MarketSnapshot{}}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, "/api/markets?limit=7&category=Politics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, svc.lastLimit)
	assert.Equal(t, "Politics", svc.lastCategory)
}

func TestMarkets_BadLimitFails(t *testing.T) {
	router := newTestRouter(&fakeService{})

	rec := doRequest(t, router, "/api/markets?limit=many")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestScores_UpstreamFailureIs500(t *testing.T) {
	svc := &fakeService{err: &kalshi.UpstreamError{Status: 503, Body: "exchange down"}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, "/api/scores")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "503")
}

func TestOpportunities_ResponseShape(t *testing.T) {
	svc := &fakeService{opportunities: &radar.OpportunityList{
		Opportunities: []scoring.ScoreRecord{{Ticker: "OPP", IsOpportunity: true}},
		Count:         1,
		SeriesChecked: 12,
	}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, "/api/opportunities?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.lastLimit)

	var body struct {
		Opportunities []scoring.ScoreRecord `json:"opportunities"`
		Count         int                   `json:"count"`
		SeriesChecked int                   `json:"series_checked"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, 12, body.SeriesChecked)
	require.Len(t, body.Opportunities, 1)
	assert.True(t, body.Opportunities[0].IsOpportunity)
}

func TestMarketDetail_NotFoundIs404(t *testing.T) {
	svc := &fakeService{err: radar.ErrMarketNotFound}
	router := newTestRouter(svc)

	rec := doRequest(t, router, "/api/markets/MISSING")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarketDetail_OK(t *testing.T) {
	svc := &fakeService{detail: &radar.MarketDetail{
		Market:    scoring.MarketSnapshot{Ticker: "MKT-A"},
		Orderbook: &kalshi.Orderbook{Yes: []kalshi.PriceLevel{{Price: 40, Quantity: 5}}},
		Liquidity: 5,
		History:   []kalshi.Trade{},
	}}
	router := newTestRouter(svc)

	rec := doRequest(t, router, "/api/markets/MKT-A")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "market")
	assert.Contains(t, body, "orderbook")
	assert.Contains(t, body, "liquidity")
	assert.Contains(t, body, "history")
}
