// Package observability provides the observability infrastructure for the
// application: structured logging, Prometheus metrics, and OpenTelemetry
// tracing.
//
// Subpackages:
//   - logging: structured logging utilities with slog
//   - metrics: Prometheus metrics for the resilience layer and HTTP surface
//   - tracing: OpenTelemetry tracing integration
package observability
