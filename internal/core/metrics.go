package core

import "time"

// Login result labels used by Recorder.RecordLogin.
const (
	LoginResultSuccess            = "success"
	LoginResultInvalidCredentials = "invalid_credentials"
	LoginResultProviderError      = "provider_error"
	LoginResultStoreError         = "store_error"
	LoginResultResolveError       = "resolve_error"
	LoginResultTokenError         = "token_error"
)

// Reconcile actions used by Recorder.RecordUserReconciled.
const (
	ReconcileActionCreated = "created"
	ReconcileActionUpdated = "updated"
)

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Authentication
	RecordLogin(provider, result string, duration time.Duration)
	RecordOAuthCallback(provider string, success bool)

	// Reconciliation
	RecordUserReconciled(provider, action string)

	// Token Operations
	RecordTokenIssued(provider string)
	RecordTokenValidation(result string)
}
