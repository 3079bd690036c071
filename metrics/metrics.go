package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "microtask",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "microtask",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "microtask",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	workflowTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "microtask",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Workflow operations by workflow, action and outcome.",
		},
		[]string{"workflow", "action", "outcome"},
	)

	coinsMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "microtask",
			Subsystem: "ledger",
			Name:      "coins_total",
			Help:      "Coins credited to or debited from user balances.",
		},
		[]string{"direction"},
	)

	pushFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "microtask",
			Subsystem: "notifications",
			Name:      "push_failures_total",
			Help:      "Notification pushes that failed, by channel.",
		},
		[]string{"channel"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		workflowTransitions,
		coinsMoved,
		pushFailures,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies. Routes are labelled by
// their registered path so ids do not explode cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}

			httpInFlight.Inc()
			start := time.Now()
			err := next(c)
			httpInFlight.Dec()

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RecordTransition counts a workflow operation outcome ("ok" or an error kind).
func RecordTransition(workflow, action, outcome string) {
	workflowTransitions.WithLabelValues(workflow, action, outcome).Inc()
}

// RecordCredit counts coins added to a balance.
func RecordCredit(amount int64) {
	if amount > 0 {
		coinsMoved.WithLabelValues("credit").Add(float64(amount))
	}
}

// RecordDebit counts coins removed from a balance.
func RecordDebit(amount int64) {
	if amount > 0 {
		coinsMoved.WithLabelValues("debit").Add(float64(amount))
	}
}

// RecordPushFailure counts a failed notification push on channel.
func RecordPushFailure(channel string) {
	pushFailures.WithLabelValues(channel).Inc()
}
