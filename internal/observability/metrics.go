// Package observability provides Prometheus metrics and the endpoint that serves them.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric label values.
const (
	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultDuplicate          = "duplicate"
	ResultInvalid            = "invalid"
	ResultError              = "error"

	TokenValid            = "valid"
	TokenMissing          = "missing"
	TokenMalformed        = "malformed"
	TokenInvalidSignature = "invalid_signature"
	TokenExpired          = "expired"
)

// Metrics contains the service's custom Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	AuthAttemptsTotal       *prometheus.CounterVec
	TokenVerificationsTotal *prometheus.CounterVec
	PasswordHashDuration    *prometheus.HistogramVec
	HTTPRequestsTotal       *prometheus.CounterVec
}

// NewMetrics creates and registers the custom metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultconnect_auth_attempts_total",
				Help: "Total number of credential operations by operation and result",
			},
			[]string{"operation", "result"},
		),
		TokenVerificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultconnect_token_verifications_total",
				Help: "Total number of session token checks on protected routes by result",
			},
			[]string{"result"},
		),
		PasswordHashDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultconnect_password_hash_duration_seconds",
				Help:    "Time spent hashing or verifying passwords",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultconnect_http_requests_total",
				Help: "Total number of HTTP requests by method and status code",
			},
			[]string{"method", "code"},
		),
	}

	reg.MustRegister(
		m.AuthAttemptsTotal,
		m.TokenVerificationsTotal,
		m.PasswordHashDuration,
		m.HTTPRequestsTotal,
	)

	return m
}

// AuthAttempt counts one credential operation.
func (m *Metrics) AuthAttempt(operation, result string) {
	if m == nil {
		return
	}
	m.AuthAttemptsTotal.WithLabelValues(operation, result).Inc()
}

// TokenVerification counts one token check.
func (m *Metrics) TokenVerification(result string) {
	if m == nil {
		return
	}
	m.TokenVerificationsTotal.WithLabelValues(result).Inc()
}

// ObserveHash records the duration of a hash or verify call started at start.
func (m *Metrics) ObserveHash(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.PasswordHashDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// HTTPRequest counts one served request.
func (m *Metrics) HTTPRequest(method string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, statusLabel(code)).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
