package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalshiradar/radar/internal/kalshi"
	"github.com/kalshiradar/radar/internal/radar"
	"github.com/kalshiradar/radar/internal/scoring"
)

type stubService struct{}

func (stubService) Series(context.Context, int) (*radar.SeriesList, error) {
	return &radar.SeriesList{Series: []kalshi.Series{}}, nil
}
func (stubService) Markets(context.Context, int, string) (*radar.MarketList, error) {
	return &radar.MarketList{Markets: []scoring.MarketSnapshot{}}, nil
}
func (stubService) Scores(context.Context, int, string) (*radar.ScoreBoard, error) {
	return &radar.ScoreBoard{Scores: []scoring.ScoreRecord{}}, nil
}
func (stubService) Opportunities(context.Context, int, string) (*radar.OpportunityList, error) {
	return &radar.OpportunityList{Opportunities: []scoring.ScoreRecord{}}, nil
}
func (stubService) MarketDetail(context.Context, string) (*radar.MarketDetail, error) {
	return nil, radar.ErrMarketNotFound
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer(ServerConfig{
		Host: "127.0.0.1",
		Port: 0, // let the kernel pick during the availability probe
	}, stubService{}, zerolog.Nop())
	require.NoError(t, err)
	return server
}

func TestServer_SetsRequestIDAndCORS(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/series", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 8)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestServer_OptionsPreflight(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/scores", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

// slowService holds every series listing until the request context expires,
// standing in for an aggregation that outlives its caller.
type slowService struct {
	stubService
}

func (slowService) Series(ctx context.Context, _ int) (*radar.SeriesList, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// deadlineRecordingService notes whether the handler-visible context carries
// a deadline.
type deadlineRecordingService struct {
	stubService
	sawDeadline *bool
}

func (s deadlineRecordingService) Series(ctx context.Context, _ int) (*radar.SeriesList, error) {
	_, *s.sawDeadline = ctx.Deadline()
	return &radar.SeriesList{Series: []kalshi.Series{}}, nil
}

func TestServer_RequestContextCarriesDeadline(t *testing.T) {
	sawDeadline := false
	server, err := NewServer(ServerConfig{
		Host: "127.0.0.1",
		Port: 0,
	}, deadlineRecordingService{sawDeadline: &sawDeadline}, zerolog.Nop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/series", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sawDeadline, "handlers see the request deadline")
}

func TestServer_RequestTimeoutStopsSlowHandlers(t *testing.T) {
	server, err := NewServer(ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		RequestTimeout: 20 * time.Millisecond,
	}, slowService{}, zerolog.Nop())
	require.NoError(t, err)

	start := time.Now()
	req := httptest.NewRequest(http.MethodGet, "/api/series", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), context.DeadlineExceeded.Error())
	assert.Less(t, time.Since(start), 5*time.Second, "deadline released the handler")
}

func TestServer_UnknownRouteIsJSON404(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestServer_MetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
