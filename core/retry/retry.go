// Package retry wraps asynchronous operations with bounded exponential
// backoff.
package retry

import (
	"context"
	"time"

	"github.com/fraudops/fieldkit/core/faults"
)

// Config tunes the retry loop.
type Config struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	// Retryable decides whether a failure is worth another attempt. Nil
	// falls back to faults.Retryable.
	Retryable func(error) bool
}

// DefaultConfig is the standard preset: 3 attempts, 1 s initial delay,
// 10 s cap, doubling.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		InitialDelay:      time.Second,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2,
	}
}

// LowPriorityConfig gives up sooner and waits longer between attempts.
func LowPriorityConfig() Config {
	return Config{
		MaxAttempts:       2,
		InitialDelay:      2 * time.Second,
		MaxDelay:          8 * time.Second,
		BackoffMultiplier: 2,
	}
}

// UploadConfig tolerates more attempts with shorter initial waits, tuned
// for evidence file uploads.
func UploadConfig() Config {
	return Config{
		MaxAttempts:       5,
		InitialDelay:      500 * time.Millisecond,
		MaxDelay:          15 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// Result reports the outcome of a retried operation, including the number
// of attempts actually made. Callers keep their own bookkeeping (the action
// queue maintains an independent retry counter); Attempts is diagnostic.
type Result[T any] struct {
	Success  bool
	Value    T
	Err      error
	Attempts int
}

// Do runs op up to cfg.MaxAttempts times. Non-retryable failures return
// immediately without waiting. The backoff sleep is not cancellable
// mid-wait; per-attempt timeouts, if wanted, belong inside op itself.
func Do[T any](ctx context.Context, cfg Config, op func(context.Context) (T, error)) Result[T] {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffMultiplier <= 0 {
		cfg.BackoffMultiplier = 2
	}
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = faults.Retryable
	}

	delay := cfg.InitialDelay
	var res Result[T]
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		res.Attempts = attempt
		v, err := op(ctx)
		if err == nil {
			res.Success = true
			res.Value = v
			res.Err = nil
			return res
		}
		res.Err = err
		if !retryable(err) || attempt == cfg.MaxAttempts {
			return res
		}
		wait := delay
		if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}
		if wait > 0 {
			time.Sleep(wait)
		}
		delay = time.Duration(float64(delay) * cfg.BackoffMultiplier)
	}
	return res
}
