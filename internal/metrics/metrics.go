package metrics

import (
	"sync"
	"time"

	"github.com/go-authgate/login/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is an alias for core.Recorder.
type Recorder = core.Recorder

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Login Metrics
	LoginTotal           *prometheus.CounterVec
	LoginDuration        *prometheus.HistogramVec
	UsersReconciledTotal *prometheus.CounterVec
	OAuthCallbackTotal   *prometheus.CounterVec

	// Token Metrics
	TokensIssuedTotal    *prometheus.CounterVec
	TokenValidationTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		LoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Total number of login attempts by provider and result",
			},
			[]string{"provider", "result"},
		),
		LoginDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "login_duration_seconds",
				Help:    "Time taken to complete a login attempt",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		UsersReconciledTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_users_reconciled_total",
				Help: "Total number of local users created or updated on login",
			},
			[]string{"provider", "action"}, // created, updated
		),
		OAuthCallbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_oauth_callbacks_total",
				Help: "Total number of OAuth callbacks",
			},
			[]string{"provider", "result"},
		),

		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_tokens_issued_total",
				Help: "Total number of access tokens issued",
			},
			[]string{"provider"},
		),
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_token_validation_total",
				Help: "Total number of access token validations",
			},
			[]string{"result"}, // valid, invalid, expired
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
	}
}

// RecordLogin records a login attempt and its duration
func (m *Metrics) RecordLogin(provider, result string, duration time.Duration) {
	m.LoginTotal.WithLabelValues(provider, result).Inc()
	m.LoginDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordOAuthCallback records OAuth callback
func (m *Metrics) RecordOAuthCallback(provider string, success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.OAuthCallbackTotal.WithLabelValues(provider, result).Inc()
}

// RecordUserReconciled records a user created or updated during login
func (m *Metrics) RecordUserReconciled(provider, action string) {
	m.UsersReconciledTotal.WithLabelValues(provider, action).Inc()
}

// RecordTokenIssued records token issuance
func (m *Metrics) RecordTokenIssued(provider string) {
	m.TokensIssuedTotal.WithLabelValues(provider).Inc()
}

// RecordTokenValidation records token validation
func (m *Metrics) RecordTokenValidation(result string) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
}
