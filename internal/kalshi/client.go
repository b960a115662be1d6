package kalshi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/kalshiradar/radar/internal/metrics"
)

// DefaultBaseURL is the production Kalshi trade API root.
const DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

// Config holds gateway client configuration.
type Config struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
	UserAgent      string        `yaml:"user_agent"`
}

// Client performs authenticated calls against the Kalshi REST API. Every
// request passes a rate limiter and a circuit breaker before reaching the
// network.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pathPrefix string
	auth       Auth
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	userAgent  string
	log        zerolog.Logger
}

// NewClient creates a Kalshi client with the given auth strategy. Zero-value
// config fields fall back to conservative defaults.
func NewClient(cfg Config, auth Auth, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 5.0
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 10
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "KalshiRadar/3.0.0"
	}

	prefix := ""
	if parsed, err := url.Parse(cfg.BaseURL); err == nil {
		prefix = parsed.Path
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "kalshi",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		baseURL:    cfg.BaseURL,
		pathPrefix: prefix,
		auth:       auth,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		breaker:    breaker,
		userAgent:  cfg.UserAgent,
		log:        logger,
	}
}

// ListMarkets returns one page of open markets plus the cursor for the next
// page; the cursor is empty on the last page.
func (c *Client) ListMarkets(ctx context.Context, limit int, cursor string) ([]Market, string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("status", "open")
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	var out struct {
		Markets []Market `json:"markets"`
		Cursor  string   `json:"cursor"`
	}
	if err := c.getJSON(ctx, "markets", "/markets", q, &out); err != nil {
		return nil, "", err
	}
	return out.Markets, out.Cursor, nil
}

// ListSeries returns up to limit series.
func (c *Client) ListSeries(ctx context.Context, limit int) ([]Series, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var out struct {
		Series []Series `json:"series"`
	}
	if err := c.getJSON(ctx, "series", "/series", q, &out); err != nil {
		return nil, err
	}
	return out.Series, nil
}

// ListMarketsForSeries returns the open markets belonging to one series.
func (c *Client) ListMarketsForSeries(ctx context.Context, seriesTicker string) ([]Market, error) {
	q := url.Values{}
	q.Set("series_ticker", seriesTicker)
	q.Set("status", "open")

	var out struct {
		Markets []Market `json:"markets"`
	}
	if err := c.getJSON(ctx, "markets", "/markets", q, &out); err != nil {
		return nil, err
	}
	return out.Markets, nil
}

// GetOrderbook returns both sides of a market's book.
func (c *Client) GetOrderbook(ctx context.Context, ticker string) (*Orderbook, error) {
	var out struct {
		Orderbook Orderbook `json:"orderbook"`
	}
	if err := c.getJSON(ctx, "orderbook", "/markets/"+ticker+"/orderbook", nil, &out); err != nil {
		return nil, err
	}
	return &out.Orderbook, nil
}

// GetHistory returns recent trades for a market. History is advisory: any
// failure degrades to an empty slice instead of propagating, so a missing
// history never blocks the response it decorates.
func (c *Client) GetHistory(ctx context.Context, ticker string, limit int) []Trade {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var out struct {
		Trades []Trade `json:"trades"`
	}
	if err := c.getJSON(ctx, "history", "/markets/"+ticker+"/history", q, &out); err != nil {
		c.log.Debug().Err(err).Str("ticker", ticker).Msg("history unavailable, returning empty")
		return []Trade{}
	}
	if out.Trades == nil {
		return []Trade{}
	}
	return out.Trades
}

// getJSON performs one guarded GET and decodes the 200 body into out.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &UpstreamError{Body: "rate limit wait: " + err.Error()}
	}

	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, endpoint, http.MethodGet, path, query)
	})
	if err != nil {
		var upstream *UpstreamError
		var auth *AuthError
		if errors.As(err, &upstream) || errors.As(err, &auth) {
			return err
		}
		// Breaker rejections and anything else the transport coughed up.
		return &UpstreamError{Body: err.Error()}
	}

	if err := json.Unmarshal(raw.([]byte), out); err != nil {
		return &UpstreamError{Status: http.StatusOK, Body: "unparseable response: " + err.Error()}
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values) ([]byte, error) {
	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, full, nil)
	if err != nil {
		return nil, &UpstreamError{Body: err.Error()}
	}

	// The signature covers the path as the exchange sees it, including the
	// API prefix but never the query string.
	headers, err := c.auth.Headers(ctx, method, c.pathPrefix+path)
	if err != nil {
		return nil, err
	}
	for name, values := range headers {
		for _, v := range values {
			req.Header.Set(name, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveUpstream(endpoint, 0, elapsed)
		c.log.Warn().Err(err).Str("path", path).Msg("upstream request failed")
		return nil, &UpstreamError{Body: err.Error()}
	}
	defer resp.Body.Close()

	metrics.ObserveUpstream(endpoint, resp.StatusCode, elapsed)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: err.Error()}
	}

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("upstream request")

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
