package confluence

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 200 * time.Millisecond
	defaultRetryMaxDelay = 2 * time.Second
)

// RetryConfig bounds the retries applied to idempotent lookups. Writes are
// never retried.
type RetryConfig struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultRetryConfig returns three attempts with exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: defaultRetryAttempts,
		Delay:    defaultRetryDelay,
		MaxDelay: defaultRetryMaxDelay,
	}
}

func (r RetryConfig) normalized() RetryConfig {
	// retry-go treats zero attempts as unlimited.
	if r.Attempts == 0 {
		r.Attempts = 1
	}
	if r.Delay <= 0 {
		r.Delay = defaultRetryDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = defaultRetryMaxDelay
	}
	return r
}

func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(c.retry.Attempts),
		retry.Delay(c.retry.Delay),
		retry.MaxDelay(c.retry.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("confluence.request.retry",
				"operation", op,
				"attempt", n+1,
				"error", err,
			)
		}),
	)
}
