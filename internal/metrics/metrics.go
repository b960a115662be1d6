package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_upstream_requests_total",
		Help: "Requests issued to the Kalshi API, by endpoint and status code (0 = transport failure).",
	}, []string{"endpoint", "status"})

	upstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "radar_upstream_latency_seconds",
		Help:    "Latency of Kalshi API requests, by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	seriesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radar_series_skipped_total",
		Help: "Series dropped from an aggregation because their market fetch failed.",
	})

	marketsScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radar_markets_scored_total",
		Help: "Markets that passed the exclusion filters and received a score.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_http_requests_total",
		Help: "Inbound HTTP requests, by route and status code.",
	}, []string{"route", "status"})
)

// ObserveUpstream records one Kalshi API request. status 0 means the request
// never produced an HTTP response.
func ObserveUpstream(endpoint string, status int, elapsed time.Duration) {
	upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	upstreamLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// SeriesSkipped records a series dropped by the aggregation's failure isolation.
func SeriesSkipped() {
	seriesSkipped.Inc()
}

// MarketsScored records markets that produced a score record.
func MarketsScored(n int) {
	marketsScored.Add(float64(n))
}

// ObserveHTTP records one inbound request against this service's API.
func ObserveHTTP(route string, status int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
