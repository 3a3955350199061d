// Package retry provides a retry executor with classified failures, pluggable
// backoff strategies and per-operation circuit breaker protection. It helps
// handle transient failures from flaky databases and third-party APIs without
// hammering a dependency that is already down.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Strategy selects how the inter-attempt delay grows.
type Strategy int

const (
	// StrategyExponential grows the delay as initial * multiplier^attempt.
	StrategyExponential Strategy = iota
	// StrategyLinear grows the delay as initial * (attempt + 1).
	StrategyLinear
	// StrategyFixed uses the initial delay for every attempt.
	StrategyFixed
	// StrategyImmediate retries without delay.
	StrategyImmediate
)

// String returns the strategy name used in logs.
func (s Strategy) String() string {
	switch s {
	case StrategyExponential:
		return "exponential"
	case StrategyLinear:
		return "linear"
	case StrategyFixed:
		return "fixed"
	case StrategyImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// Policy holds the configuration for retry logic. A Policy is immutable and
// may be shared read-only across concurrent invocations.
type Policy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int

	// InitialDelay is the base delay fed into the backoff strategy.
	InitialDelay time.Duration

	// MaxDelay caps the computed delay.
	MaxDelay time.Duration

	// Multiplier is the growth factor for exponential backoff.
	Multiplier float64

	// Strategy selects the backoff curve.
	Strategy Strategy

	// Jitter applies a symmetric ±10% perturbation to the computed delay to
	// avoid synchronized retry storms across callers.
	Jitter bool

	// Classifier reports whether an error is worth retrying. When nil,
	// IsRetryable is used.
	Classifier func(error) bool
}

// jitterFraction is the symmetric perturbation applied when Jitter is on.
const jitterFraction = 0.1

// DefaultPolicy returns a general-purpose retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
		Jitter:       true,
	}
}

// DBPolicy returns a policy tuned for database operations.
// Fast retry for transient connection issues.
func DBPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
		Jitter:       true,
	}
}

// JobBoardPolicy returns a policy tuned for job-board API calls.
// Aggressive retry; listings endpoints rate-limit and flake routinely.
func JobBoardPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
		Jitter:       true,
	}
}

// AIPolicy returns a policy tuned for AI scoring API calls.
// Moderate retry due to cost considerations.
func AIPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Strategy:     StrategyExponential,
		Jitter:       true,
	}
}

// Delay computes the un-jittered delay after the given zero-based attempt,
// capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	var d time.Duration
	switch p.Strategy {
	case StrategyExponential:
		d = time.Duration(float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt)))
	case StrategyLinear:
		d = p.InitialDelay * time.Duration(attempt+1)
	case StrategyFixed:
		d = p.InitialDelay
	case StrategyImmediate:
		return 0
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if d < 0 {
		// Overflow from a large attempt count.
		d = p.MaxDelay
	}
	return d
}

// retryable applies the policy's classifier, falling back to IsRetryable.
func (p Policy) retryable(err error) bool {
	if p.Classifier != nil {
		return p.Classifier(err)
	}
	return IsRetryable(err)
}

// addJitter applies a symmetric perturbation of ±fraction to d.
// #nosec G404 -- math/rand is acceptable for backoff jitter; cryptographic
// randomness is not required.
func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || d <= 0 {
		return d
	}
	offset := (rand.Float64()*2 - 1) * fraction * float64(d)
	return d + time.Duration(offset)
}
