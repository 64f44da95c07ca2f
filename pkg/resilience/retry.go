package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/pepoapp/trust-engine/pkg/logger"
	"go.uber.org/zap"
)

// Operation is a retryable unit of work.
type Operation func(ctx context.Context) (interface{}, error)

// RetryConfig tunes the bounded retry loop.
type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	EnableJitter      bool
	// RetryableChecker decides whether an error is worth retrying. When nil,
	// every error except a canceled context is retried.
	RetryableChecker func(err error) bool
}

// DefaultRetryConfig returns the standard retry policy: 3 attempts with
// exponential backoff and jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		EnableJitter:      true,
	}
}

// SignalFetchRetryConfig returns the policy used for signal-store reads:
// short backoffs so a request-path fetch fails fast.
func SignalFetchRetryConfig(maxAttempts int) RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = maxAttempts
	cfg.InitialBackoff = 50 * time.Millisecond
	cfg.MaxBackoff = 500 * time.Millisecond
	return cfg
}

// Retry executes the operation until it succeeds, the attempts are exhausted,
// or the context ends. The last error is returned unchanged so callers can
// classify it.
func Retry(ctx context.Context, config RetryConfig, operation Operation) (interface{}, error) {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		result, err := operation(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !shouldRetry(err, config) {
			return nil, err
		}
		if attempt == config.MaxAttempts {
			break
		}

		backoff := calculateBackoff(attempt, config)
		logger.Debug("retrying operation",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, lastErr
}

func shouldRetry(err error, config RetryConfig) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if config.RetryableChecker != nil {
		return config.RetryableChecker(err)
	}
	return true
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := time.Duration(float64(config.InitialBackoff) *
		math.Pow(config.BackoffMultiplier, float64(attempt-1)))
	if backoff > config.MaxBackoff {
		backoff = config.MaxBackoff
	}
	if config.EnableJitter {
		backoff = addJitter(backoff)
	}
	return backoff
}

func addJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}
