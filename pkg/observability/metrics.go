// Package observability provides Prometheus instrumentation and health
// checks for the reconciliation service.
package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	reconciliationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliation_runs_total",
			Help: "Total number of reconciliation runs by stage and verdict",
		},
		[]string{"stage", "verdict"},
	)

	automationRate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "settlement_automation_rate_percent",
			Help:    "Automation rate reported by settlement apply runs",
			Buckets: []float64{50, 70, 80, 85, 90, 95, 99, 100},
		},
	)

	importParseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_parse_errors_total",
			Help: "Total number of unparseable lines by source file kind",
		},
		[]string{"kind"},
	)
)

// GinMiddleware returns a gin middleware that records Prometheus metrics
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path,
			strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// RecordRun counts a completed reconciliation run
func RecordRun(stage, verdict string) {
	reconciliationRunsTotal.WithLabelValues(stage, verdict).Inc()
}

// RecordAutomationRate records the rate reported by a settlement apply
func RecordAutomationRate(rate float64) {
	automationRate.Observe(rate)
}

// RecordParseErrors counts unparseable lines from an import
func RecordParseErrors(kind string, n int) {
	if n > 0 {
		importParseErrorsTotal.WithLabelValues(kind).Add(float64(n))
	}
}
