// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TestRecordsCreated counts committed submissions by derived status
	TestRecordsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qc_test_records_created_total",
		Help: "Test records created, by evaluated status",
	}, []string{"status"})

	// Signatures counts signing attempts by outcome
	Signatures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qc_signatures_total",
		Help: "Signature attempts, by result",
	}, []string{"result"})

	// AuditEntries counts committed audit entries by action
	AuditEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qc_audit_entries_total",
		Help: "Audit entries appended, by action",
	}, []string{"action"})

	// AnalyticsComputations counts dashboard computations, excluding coalesced callers
	AnalyticsComputations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qc_analytics_computations_total",
		Help: "Dashboard aggregations actually computed",
	})

	// HTTPRequestDuration tracks handler latency per route
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qc_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"method", "route", "status"})
)

// Signature results
const (
	SignSigned        = "signed"
	SignAlreadySigned = "already_signed"
	SignRejected      = "rejected"
	SignError         = "error"
)

// Middleware observes request latency keyed by the registered route, not the raw URL
func Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
