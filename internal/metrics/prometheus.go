package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedsync_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedsync_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint", "status"},
	)
	importsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedsync_imports_total",
			Help: "Feed imports by format and outcome.",
		},
		[]string{"format", "outcome"},
	)
	importDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedsync_import_duration_seconds",
			Help:    "Duration of a whole import run.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 180, 600},
		},
		[]string{"format"},
	)
	rowsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedsync_rows_written_total",
			Help: "Category and product rows written by imports.",
		},
		[]string{"entity", "op"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(importsTotal)
	prometheus.MustRegister(importDuration)
	prometheus.MustRegister(rowsWritten)
}

// RecordRequest zapisuje metryki dla zapytania HTTP.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordImport: outcome = done | partial | failed | fetch_error | format_error.
func RecordImport(format, outcome string, duration time.Duration) {
	importsTotal.WithLabelValues(format, outcome).Inc()
	if duration > 0 {
		importDuration.WithLabelValues(format).Observe(duration.Seconds())
	}
}

func RecordRows(entity, op string, n int) {
	if n > 0 {
		rowsWritten.WithLabelValues(entity, op).Add(float64(n))
	}
}

func classifyStatus(statusCode int) string {
	if statusCode >= 100 && statusCode < 600 {
		return strconv.Itoa(statusCode/100) + "xx"
	}
	return "unknown"
}

func Handler() http.Handler {
	return promhttp.Handler()
}
