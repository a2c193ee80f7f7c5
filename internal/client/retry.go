package client

import (
	"fmt"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"
)

// DefaultAuthHeader carries the shared secret in "simple" auth mode
const DefaultAuthHeader = "X-API-Secret"

// RetryConfig describes the outbound client used to reach an HTTP API
// identity provider.
type RetryConfig struct {
	AuthMode           string // "none", "simple" or "hmac"
	AuthSecret         string
	AuthHeader         string // defaults to DefaultAuthHeader
	Timeout            time.Duration
	InsecureSkipVerify bool
	MaxRetries         int
	RetryDelay         time.Duration
	MaxRetryDelay      time.Duration
}

// NewRetryClient builds an authenticating HTTP client wrapped with
// exponential-backoff retries.
func NewRetryClient(cfg RetryConfig) (*retry.Client, error) {
	header := cfg.AuthHeader
	if header == "" {
		header = DefaultAuthHeader
	}

	authClient, err := httpclient.NewAuthClient(
		cfg.AuthMode,
		cfg.AuthSecret,
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithHeaderName(header),
		httpclient.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(authClient),
		retry.WithMaxRetries(cfg.MaxRetries),
		retry.WithInitialRetryDelay(cfg.RetryDelay),
		retry.WithMaxRetryDelay(cfg.MaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return retryClient, nil
}
