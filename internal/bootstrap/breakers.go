// Package bootstrap wires resilience building blocks to their deployment
// configuration. Both binaries use it, so YAML overrides behave the same
// in the API and the worker.
package bootstrap

import (
	"github.com/sony/gobreaker"

	"applytrack/internal/config"
	pgRepo "applytrack/internal/infra/adapter/persistence/postgres"
	"applytrack/internal/infra/jobboard"
	"applytrack/internal/infra/scoring"
	"applytrack/internal/observability/metrics"
	"applytrack/internal/resilience/circuitbreaker"
	"applytrack/internal/resilience/retry"
)

// NewBreakerRegistry builds the breaker registry from the per-dependency
// presets, then applies the configured overrides on top. Every breaker,
// preset or overridden, publishes its transitions to the state gauge.
func NewBreakerRegistry(cfg config.Resilience) *circuitbreaker.Registry {
	reg := circuitbreaker.NewRegistry(withStateExport(circuitbreaker.DefaultConfig("default")))
	reg.Configure(pgRepo.BreakerKey, withStateExport(circuitbreaker.DatabaseConfig()))
	reg.Configure(jobboard.BreakerKey, withStateExport(circuitbreaker.JobBoardConfig()))
	reg.Configure(scoring.OpenAIBreakerKey, withStateExport(circuitbreaker.ScoringConfig(scoring.OpenAIBreakerKey)))
	reg.Configure(scoring.ClaudeBreakerKey, withStateExport(circuitbreaker.ScoringConfig(scoring.ClaudeBreakerKey)))

	for name, settings := range cfg.Breakers {
		override := circuitbreaker.Config{
			Name:             name,
			FailureThreshold: settings.FailureThreshold,
			RecoveryTimeout:  settings.RecoveryTimeout.Std(),
			HalfOpenRequests: settings.HalfOpenRequests,
		}
		if !settings.CountsPermanent() {
			override.IsFailure = retry.IsRetryable
		}
		reg.Configure(name, withStateExport(override))
	}
	return reg
}

// withStateExport publishes the breaker's transitions to the state gauge.
func withStateExport(cfg circuitbreaker.Config) circuitbreaker.Config {
	cfg.OnStateChange = func(name string, _, to gobreaker.State) {
		var v float64
		switch to {
		case gobreaker.StateHalfOpen:
			v = 1
		case gobreaker.StateOpen:
			v = 2
		}
		metrics.SetBreakerState(name, v)
	}
	return cfg
}
