// Package metrics holds the prometheus collectors of the portal. Collectors are registered
// with the default registry, which is served on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "menosense"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	credentialFlowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credential_flows_total",
			Help:      "Credential flow outcomes by flow and error kind",
		},
		[]string{"flow", "outcome"},
	)

	profileSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_saves_total",
			Help:      "Profile saves by outcome",
		},
		[]string{"outcome"},
	)

	deviceConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_connections_total",
			Help:      "Total number of simulated device connections",
		},
	)

	sessionSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_subscribers",
			Help:      "Number of open session event streams",
		},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeFailure = "failure"
)

// RecordCredentialFlow counts a credential flow attempt. Outcome is success, invalid or the
// provider error kind.
func RecordCredentialFlow(flow, outcome string) {
	credentialFlowsTotal.WithLabelValues(flow, outcome).Inc()
}

func RecordProfileSave(outcome string) {
	profileSavesTotal.WithLabelValues(outcome).Inc()
}

func RecordDeviceConnection() {
	deviceConnectionsTotal.Inc()
}

func SessionSubscribed() {
	sessionSubscribers.Inc()
}

func SessionUnsubscribed() {
	sessionSubscribers.Dec()
}

// Middleware records the count and latency of requests by route template
func Middleware(skipper middleware.Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}
