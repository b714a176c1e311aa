// Package metrics exposes Prometheus instrumentation for the HTTP surface,
// authentication events and outbound Open Library calls.
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
	// HTTP metrics, labelled by route pattern rather than raw path.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookbuddy_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookbuddy_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookbuddy_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// AuthEvents counts signups, logins, logouts and password resets.
	AuthEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookbuddy_auth_events_total",
			Help: "Total number of authentication events",
		},
		[]string{"event", "result"}, // result: "success", "failure", "rate_limited"
	)

	// OpenLibraryRequests counts outbound lookups by outcome.
	OpenLibraryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookbuddy_openlibrary_requests_total",
			Help: "Total number of Open Library lookups",
		},
		[]string{"outcome"}, // "hit", "miss", "cached", "error", "rejected"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bookbuddy_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookbuddy_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// CleanupDeleted counts rows removed by the housekeeping job.
	CleanupDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookbuddy_cleanup_deleted_total",
			Help: "Total number of rows removed by housekeeping",
		},
		[]string{"kind"}, // "sessions", "password_resets", "users"
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordAuthEvent records an authentication event.
func RecordAuthEvent(event, result string) {
	AuthEvents.WithLabelValues(event, result).Inc()
}

// RecordOpenLibrary records the outcome of a metadata lookup.
func RecordOpenLibrary(outcome string) {
	OpenLibraryRequests.WithLabelValues(outcome).Inc()
}

// RecordCleanup adds n removed rows of kind.
func RecordCleanup(kind string, n int64) {
	if n > 0 {
		CleanupDeleted.WithLabelValues(kind).Add(float64(n))
	}
}

// SetCircuitBreakerState publishes a breaker's state as 0, 1 or 2.
func SetCircuitBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordCircuitBreakerTransition counts a breaker state change.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
