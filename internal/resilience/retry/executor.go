package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"applytrack/internal/resilience/circuitbreaker"
)

// Operation is the unit of work run under retry protection. Implementations
// must be safe to invoke more than once.
type Operation func(ctx context.Context) error

// Recorder receives per-attempt outcomes. The operation label is the breaker
// key the caller ran under, the outcome is one of "success", "retry", "abort"
// and "exhausted".
type Recorder interface {
	RecordAttempt(operation, outcome string)
}

// Executor runs operations with classified retries, backoff and optional
// per-operation circuit breaker protection. An Executor is safe for
// concurrent use.
type Executor struct {
	breakers *circuitbreaker.Registry
	sleeper  Sleeper
	logger   *slog.Logger
	recorder Recorder
}

// Option configures an Executor.
type Option func(*Executor)

// WithBreakers installs the breaker registry consulted when Run is given a
// breaker key. Without a registry, breaker keys are ignored.
func WithBreakers(reg *circuitbreaker.Registry) Option {
	return func(e *Executor) { e.breakers = reg }
}

// WithSleeper overrides the suspension primitive. Tests inject a recording
// fake to assert on computed delays without waiting them out.
func WithSleeper(s Sleeper) Option {
	return func(e *Executor) { e.sleeper = s }
}

// WithLogger sets the logger used for per-attempt warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithRecorder installs a recorder for per-attempt outcome metrics.
func WithRecorder(r Recorder) Option {
	return func(e *Executor) { e.recorder = r }
}

// NewExecutor creates an executor with the given options.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		sleeper: timerSleeper{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run invokes op under policy. When breakerKey is non-empty each attempt is
// routed through that key's circuit breaker, so a persistently failing
// dependency fails fast instead of absorbing the full retry budget.
//
// Run returns nil as soon as an attempt succeeds. A non-retryable failure is
// returned immediately with no further attempts. After the attempt budget is
// exhausted, the last failure is returned wrapped with the attempt count.
func (e *Executor) Run(ctx context.Context, policy Policy, breakerKey string, op Operation) error {
	if policy.MaxAttempts <= 0 {
		return fmt.Errorf("retry: max attempts must be positive, got %d", policy.MaxAttempts)
	}

	var breaker *circuitbreaker.Breaker
	if breakerKey != "" && e.breakers != nil {
		breaker = e.breakers.Get(breakerKey)
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		lastErr = e.invoke(ctx, breaker, op)

		if lastErr == nil {
			e.record(breakerKey, "success")
			if attempt > 0 {
				e.logger.Info("operation succeeded after retry",
					slog.String("operation", breakerKey),
					slog.Int("attempt", attempt+1))
			}
			return nil
		}

		if !policy.retryable(lastErr) {
			e.record(breakerKey, "abort")
			e.logger.Warn("non-retryable error, aborting",
				slog.String("operation", breakerKey),
				slog.Int("attempt", attempt+1),
				slog.Any("error", lastErr))
			return lastErr
		}

		if attempt == policy.MaxAttempts-1 {
			break
		}

		e.record(breakerKey, "retry")
		delay := e.nextDelay(policy, attempt, lastErr)
		e.logger.Warn("operation failed, retrying",
			slog.String("operation", breakerKey),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", policy.MaxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		if err := e.sleeper.Sleep(ctx, delay); err != nil {
			return err
		}
	}

	e.record(breakerKey, "exhausted")
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", policy.MaxAttempts, lastErr)
}

func (e *Executor) record(operation, outcome string) {
	if e.recorder != nil {
		e.recorder.RecordAttempt(operation, outcome)
	}
}

// invoke runs one attempt, through the breaker when one is configured.
func (e *Executor) invoke(ctx context.Context, breaker *circuitbreaker.Breaker, op Operation) error {
	if breaker == nil {
		return op(ctx)
	}
	return breaker.Execute(func() error {
		return op(ctx)
	})
}

// nextDelay computes the suspension before the next attempt: the policy's
// backoff curve, capped, jittered, then floored by any wait the failure
// itself suggested.
func (e *Executor) nextDelay(policy Policy, attempt int, err error) time.Duration {
	delay := policy.Delay(attempt)
	if policy.Jitter {
		delay = addJitter(delay, jitterFraction)
	}

	var rle *RateLimitError
	if errors.As(err, &rle) && rle.RetryAfter > delay {
		delay = rle.RetryAfter
	}
	return delay
}

// Do runs op under policy without breaker protection, using a default
// executor. Convenience for call sites that have no registry wired.
func Do(ctx context.Context, policy Policy, op Operation) error {
	return NewExecutor().Run(ctx, policy, "", op)
}
