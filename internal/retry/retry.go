// Package retry waits for backing services that are still starting.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Options configures the connection retry behavior
type Options struct {
	// MaxAttempts is the maximum number of connection attempts (default: 30)
	MaxAttempts int
	// InitialDelay is the delay before the first retry (default: 1s)
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries (default: 10s)
	MaxDelay time.Duration
}

// Default returns defaults suited to waiting on a freshly started container.
func Default() Options {
	return Options{
		MaxAttempts:  30,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
	}
}

// NewBackOff returns the delay policy of opts: doubling from InitialDelay,
// capped at MaxDelay, without jitter.
func NewBackOff(opts Options) backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     opts.InitialDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         opts.MaxDelay,
	}
	b.Reset()
	return b
}

// Do calls fn until it succeeds, the attempts run out or ctx is done. The
// last error of fn is wrapped in the returned error.
func Do(ctx context.Context, opts Options, fn func() error) error {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	_, err := backoff.Retry[struct{}](ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	},
		backoff.WithBackOff(NewBackOff(opts)),
		backoff.WithMaxTries(uint(opts.MaxAttempts)),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("context cancelled: %w", ctxErr)
	}
	return fmt.Errorf("failed after %d attempts: %w", opts.MaxAttempts, err)
}
