// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"database/sql"
	"github.com/pkg/errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login results.
const (
	LoginSuccess   = "success"
	LoginFailure   = "failure"
	LoginBlocked   = "blocked"
	LoginTwoFactor = "two_factor_required"
)

// AI call outcomes.
const (
	AIOutcomeSuccess     = "success"
	AIOutcomeInvalid     = "invalid_response"
	AIOutcomeError       = "error"
	AIOutcomeCircuitOpen = "circuit_open"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status"},
	)

	// AI gateway metrics
	aiCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_calls_total",
			Help: "Total number of AI provider calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	aiCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_call_duration_seconds",
			Help:    "AI provider call latency in seconds, retries included",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"operation"},
	)

	// Business metrics
	authLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts by result",
		},
		[]string{"result"},
	)

	verificationDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_decisions_total",
			Help: "Total number of completed verifications by final status",
		},
		[]string{"status"},
	)

	verificationSubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "verification_submissions_total",
			Help: "Total number of guest wizard submissions",
		},
	)
)

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordAICall records one AI gateway operation.
func RecordAICall(operation, outcome string, duration time.Duration) {
	aiCallsTotal.WithLabelValues(operation, outcome).Inc()
	aiCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLogin increments the login counter for one of the Login* results.
func RecordLogin(result string) {
	authLoginsTotal.WithLabelValues(result).Inc()
}

// RecordVerificationDecision increments the decision counter.
func RecordVerificationDecision(status string) {
	verificationDecisionsTotal.WithLabelValues(status).Inc()
}

// RecordSubmission increments the guest submission counter.
func RecordSubmission() {
	verificationSubmissionsTotal.Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RegisterDBStats exposes the connection pool statistics of db under dbName.
// Registering the same database twice is a no-op.
func RegisterDBStats(db *sql.DB, dbName string) error {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, dbName))
	if err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return nil
		}

		return err
	}

	return nil
}
