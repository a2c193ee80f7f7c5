package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordLogin(provider, result string, duration time.Duration) {}
func (n *NoopMetrics) RecordOAuthCallback(provider string, success bool)         {}
func (n *NoopMetrics) RecordUserReconciled(provider, action string)              {}
func (n *NoopMetrics) RecordTokenIssued(provider string)                         {}
func (n *NoopMetrics) RecordTokenValidation(result string)                       {}
