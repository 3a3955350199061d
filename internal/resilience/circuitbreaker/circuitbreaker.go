// Package circuitbreaker provides keyed circuit breakers for downstream
// dependencies. It uses the github.com/sony/gobreaker library to fail fast
// when a dependency is persistently unhealthy instead of piling retries onto
// it.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned by Execute when the breaker is open and the
// wrapped operation was not invoked.
var ErrCircuitOpen = gobreaker.ErrOpenState

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Name is the breaker's logical operation key, used for logging and metrics.
	Name string

	// FailureThreshold is the number of consecutive failures that opens the
	// circuit.
	FailureThreshold uint32

	// RecoveryTimeout is how long the circuit stays open before a half-open
	// trial call is allowed.
	RecoveryTimeout time.Duration

	// HalfOpenRequests is the number of trial requests allowed in the
	// half-open state. The first failure re-opens the circuit; a success
	// closes it.
	HalfOpenRequests uint32

	// IsFailure classifies which errors count toward the failure threshold.
	// When nil, every error counts, including ones a retry policy would treat
	// as permanent. Callers that want breaker accounting restricted to
	// transient failures inject their retryable classifier here.
	//
	// Note that gobreaker has no neutral outcome: an error IsFailure rejects
	// is recorded as a success and resets the consecutive-failure count, so
	// transient failures interleaved with non-failures will not accumulate
	// toward the threshold.
	IsFailure func(error) bool

	// OnStateChange, when set, is invoked on every state transition after the
	// transition has been logged. Used to export breaker state as a gauge.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns a default configuration for circuit breakers.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// DatabaseConfig returns configuration for the database breaker.
// Trips fast and recovers fast; connection blips are common and short.
func DatabaseConfig() Config {
	return Config{
		Name:             "database",
		FailureThreshold: 5,
		RecoveryTimeout:  15 * time.Second,
		HalfOpenRequests: 1,
	}
}

// JobBoardConfig returns configuration for external job-board API calls.
func JobBoardConfig() Config {
	return Config{
		Name:             "job-board",
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		HalfOpenRequests: 1,
	}
}

// ScoringConfig returns configuration for AI scoring API calls.
// Conservative recovery: scoring is expensive and not latency critical.
func ScoringConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 3,
		RecoveryTimeout:  120 * time.Second,
		HalfOpenRequests: 1,
	}
}

// Breaker guards one downstream dependency. State transitions follow
// Closed -> Open after FailureThreshold consecutive failures, Open -> HalfOpen
// after RecoveryTimeout, HalfOpen -> Closed on a successful trial and
// HalfOpen -> Open on a failed one. A breaker lives for the process lifetime.
type Breaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a breaker with the given configuration.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}
	if cfg.IsFailure != nil {
		isFailure := cfg.IsFailure
		settings.IsSuccessful = func(err error) bool {
			return err == nil || !isFailure(err)
		}
	}

	return &Breaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs fn through the breaker. While the circuit is open it returns
// ErrCircuitOpen immediately without invoking fn; otherwise fn's error is
// passed through unchanged after being counted.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// State returns the current state of the breaker.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}

// Name returns the breaker's operation key.
func (b *Breaker) Name() string {
	return b.name
}

// IsOpen reports whether the breaker is currently rejecting calls.
func (b *Breaker) IsOpen() bool {
	return b.breaker.State() == gobreaker.StateOpen
}
