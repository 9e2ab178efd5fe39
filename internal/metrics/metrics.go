// Package metrics exposes prometheus counters and histograms for bus
// activity: invocations, yields, releases, and the admin HTTP surface.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	registerOnce sync.Once

	invocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bus",
			Subsystem: "txn",
			Name:      "invocations_total",
			Help:      "Total Invoke transactions started, by role and outcome.",
		},
		[]string{"role", "object", "method", "outcome"},
	)
	invocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bus",
			Subsystem: "txn",
			Name:      "invocation_duration_seconds",
			Help:      "Invoke transaction duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"role", "object", "method"},
	)
	yields = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bus",
			Subsystem: "txn",
			Name:      "yields_total",
			Help:      "Total Yield messages exchanged.",
		},
		[]string{"role"},
	)
	proxyReleases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bus",
			Subsystem: "proxytable",
			Name:      "releases_total",
			Help:      "Total Release messages emitted by a finalized proxy.",
		},
		[]string{"connection"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bus",
			Subsystem: "admin_http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"server", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bus",
			Subsystem: "admin_http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "method", "path", "status"},
	)
)

// Register is idempotent; call it before serving admin HTTP or invoking.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(invocations, invocationDuration, yields, proxyReleases, httpRequests, httpDuration)
	})
}

// RecordInvocation records one completed Invoke transaction.
func RecordInvocation(role, object, method, outcome string, duration time.Duration) {
	Register()
	invocations.WithLabelValues(role, object, method, outcome).Inc()
	invocationDuration.WithLabelValues(role, object, method).Observe(duration.Seconds())
}

// RecordYield records one Yield message sent or received.
func RecordYield(role string) {
	Register()
	yields.WithLabelValues(role).Inc()
}

// RecordRelease records one Release message emitted by a proxy table.
func RecordRelease(connection string) {
	Register()
	proxyReleases.WithLabelValues(connection).Inc()
}

// RequestLogger logs each admin HTTP request via the given zerolog logger.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("admin_http_request")
	}
}

// RequestMetricsMiddleware records prometheus metrics for each admin HTTP
// request against a given server name.
func RequestMetricsMiddleware(server string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		Register()
		status := strconv.Itoa(c.Writer.Status())
		httpRequests.WithLabelValues(server, c.Request.Method, path, status).Inc()
		httpDuration.WithLabelValues(server, c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
