// Package ratelimit tracks per-voter OTP cool-downs and failed verification
// attempts.
package ratelimit

import (
	"context"
	"time"
)

type Config struct {
	// MaxFailures failed verifications within FailureWindow lock the key.
	MaxFailures   int
	FailureWindow time.Duration
}

type Throttle interface {
	// Cooldown claims a cool-down slot for key. It reports false while an
	// earlier claim is still live.
	Cooldown(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Locked reports whether key has reached MaxFailures in the current window.
	Locked(ctx context.Context, key string) (bool, error)
	// Fail records a failed attempt and returns the count in the window.
	Fail(ctx context.Context, key string) (int64, error)
	// Reset clears the failure count for key.
	Reset(ctx context.Context, key string) error
}

const (
	cooldownPrefix = "ballot:cooldown:"
	failurePrefix  = "ballot:failures:"
)
