// Package metrics exposes Prometheus instrumentation for the tracker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UploadsTotal counts processed workbook uploads by terminal status.
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracker",
		Name:      "uploads_total",
		Help:      "Workbook uploads by terminal status.",
	}, []string{"status"})

	// IngestedRows counts player rows written to snapshots.
	IngestedRows = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tracker",
		Name:      "ingested_rows_total",
		Help:      "Player snapshot rows ingested.",
	})

	// RowErrors counts rows rejected during ingestion.
	RowErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tracker",
		Name:      "ingest_row_errors_total",
		Help:      "Rows rejected during ingestion.",
	})

	// DeparturesFlagged counts players flagged by the realm sweep.
	DeparturesFlagged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tracker",
		Name:      "departures_flagged_total",
		Help:      "Players flagged as departed by the realm sweep.",
	})

	// IngestDuration observes end-to-end workbook processing time.
	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tracker",
		Name:      "ingest_duration_seconds",
		Help:      "End-to-end workbook ingestion duration.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tracker",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tracker",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
