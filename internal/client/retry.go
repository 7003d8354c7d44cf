package client

import (
	"fmt"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"
)

// Options describes one outbound companion API: how requests are signed and
// how hard to retry before giving up.
type Options struct {
	AuthMode           string // "none", "simple" or "hmac"
	AuthSecret         string
	AuthHeader         string
	Timeout            time.Duration
	InsecureSkipVerify bool
	MaxRetries         int
	RetryDelay         time.Duration
	MaxRetryDelay      time.Duration
}

// NewRetryClient builds a signed HTTP client wrapped with exponential-backoff retries.
// Each attempt is bounded by Timeout, so a dead upstream surfaces as an error
// instead of stalling the request that called it.
func NewRetryClient(opts Options) (*retry.Client, error) {
	authClient, err := httpclient.NewAuthClient(
		opts.AuthMode,
		opts.AuthSecret,
		httpclient.WithTimeout(opts.Timeout),
		httpclient.WithHeaderName(opts.AuthHeader),
		httpclient.WithInsecureSkipVerify(opts.InsecureSkipVerify),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(authClient),
		retry.WithMaxRetries(opts.MaxRetries),
		retry.WithInitialRetryDelay(opts.RetryDelay),
		retry.WithMaxRetryDelay(opts.MaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return retryClient, nil
}
