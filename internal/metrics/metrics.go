package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "invoicer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoicer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invoicer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	invoicesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "invoicer",
			Subsystem: "registry",
			Name:      "invoices_created_total",
			Help:      "Total number of invoices created or overwritten.",
		},
	)

	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "invoicer",
			Subsystem: "settlement",
			Name:      "attempts_total",
			Help:      "Total number of settlement attempts by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	settlementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invoicer",
			Subsystem: "settlement",
			Name:      "duration_seconds",
			Help:      "Duration of settlement attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method"},
	)

	oracleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invoicer",
			Subsystem: "oracle",
			Name:      "request_duration_seconds",
			Help:      "Duration of price feed lookups.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"success"},
	)

	dbQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "invoicer",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of postgres queries.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		invoicesCreated,
		settlements,
		settlementDuration,
		oracleDuration,
		dbQueryDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latencies labelled by route template
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := strings.ToUpper(c.Request.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordInvoiceCreated counts a stored invoice
func RecordInvoiceCreated() {
	invoicesCreated.Inc()
}

// RecordSettlement records the outcome of a payment attempt. outcome is an
// error code, or "settled" on success.
func RecordSettlement(method, outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	settlements.WithLabelValues(method, outcome).Inc()
	settlementDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordOracleLookup records the latency of a price feed call
func RecordOracleLookup(duration time.Duration, success bool) {
	oracleDuration.WithLabelValues(strconv.FormatBool(success)).Observe(duration.Seconds())
}

// RecordDBQuery records the latency of a single postgres statement
func RecordDBQuery(duration time.Duration, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	dbQueryDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
