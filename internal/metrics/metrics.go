// Package metrics holds the Prometheus collectors of the backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts handled requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pilot_http_requests_total",
		Help: "Total number of HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	// HTTPLatency records request latency by route.
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pilot_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// CompletionLatency records LLM call latency by outcome.
	CompletionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pilot_llm_completion_duration_seconds",
		Help:    "LLM completion latency in seconds",
		Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30},
	}, []string{"outcome"})

	// CommandsGenerated counts generated commands by audience (guest or user).
	CommandsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pilot_commands_generated_total",
		Help: "Total number of generated commands",
	}, []string{"audience"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pilot_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})

	// SideEffectErrors counts failed best-effort publishes and index writes.
	SideEffectErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pilot_side_effect_errors_total",
		Help: "Failed event publishes and search index writes",
	}, []string{"target"})
)

func ObserveCompletion(start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	CompletionLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// Middleware records HTTPRequests and HTTPLatency keyed by the matched route pattern.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			HTTPLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
