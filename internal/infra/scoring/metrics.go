package scoring

import (
	"time"

	"applytrack/internal/observability/metrics"
)

// ScoreMetricsRecorder abstracts metrics recording so providers stay
// testable without a live Prometheus registry.
type ScoreMetricsRecorder interface {
	// RecordRequest counts one scoring call with its outcome ("success" or
	// "error").
	RecordRequest(outcome string)

	// RecordDuration records how long a scoring call took.
	RecordDuration(d time.Duration)
}

// PrometheusScoreMetrics records scoring metrics under a provider label.
type PrometheusScoreMetrics struct {
	provider string
}

// NewPrometheusScoreMetrics creates a recorder publishing for the given
// provider ("openai", "claude").
func NewPrometheusScoreMetrics(provider string) *PrometheusScoreMetrics {
	return &PrometheusScoreMetrics{provider: provider}
}

func (m *PrometheusScoreMetrics) RecordRequest(outcome string) {
	metrics.ScoreRequestsTotal.WithLabelValues(m.provider, outcome).Inc()
}

func (m *PrometheusScoreMetrics) RecordDuration(d time.Duration) {
	metrics.ScoreDuration.WithLabelValues(m.provider).Observe(d.Seconds())
}

// NoopScoreMetrics discards all recordings.
type NoopScoreMetrics struct{}

func (NoopScoreMetrics) RecordRequest(string)         {}
func (NoopScoreMetrics) RecordDuration(time.Duration) {}
