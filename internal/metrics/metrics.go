// Package metrics defines the Prometheus collectors exposed on /metrics.
//
// Usage:
//
//	metrics.MovieWrites.WithLabelValues("create").Inc()
//	metrics.ObserveHTTPRequest("GET", "/api/v1/movies", 200, time.Since(start))
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP

	// HTTPRequestsTotal counts handled requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviedb_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviedb_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Catalog

	// MovieWrites counts committed movie writes by operation.
	MovieWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviedb_movie_writes_total",
			Help: "Total number of committed movie create/update/delete operations",
		},
		[]string{"operation"},
	)

	// Loader

	// LoaderRuns counts bulk loader runs by result (success, failure).
	LoaderRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviedb_loader_runs_total",
			Help: "Total number of IMDB bulk loader runs",
		},
		[]string{"result"},
	)

	// LoaderRows counts rows written by the loader (movie, category, link).
	LoaderRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviedb_loader_rows_total",
			Help: "Total number of rows inserted by the IMDB bulk loader",
		},
		[]string{"kind"},
	)

	// LoaderDuration tracks how long loader runs take.
	LoaderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moviedb_loader_duration_seconds",
			Help:    "Duration of IMDB bulk loader runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		},
	)
)

// ObserveHTTPRequest records one finished request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
