package scoring

import (
	"log/slog"
	"os"

	"applytrack/internal/resilience/retry"
)

// NewFromEnv selects a scorer from the environment. Anthropic wins when both
// keys are present; with no key at all scoring degrades to the noop scorer.
//
// Environment variables:
//   - ANTHROPIC_API_KEY: selects the Claude scorer
//   - OPENAI_API_KEY: selects the OpenAI scorer
func NewFromEnv(exec *retry.Executor, logger *slog.Logger) Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		logger.Info("scoring provider selected", slog.String("provider", "claude"))
		return NewClaude(key, DefaultClaudeConfig(), exec, NewPrometheusScoreMetrics("claude"))
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		logger.Info("scoring provider selected", slog.String("provider", "openai"))
		return NewOpenAI(key, DefaultOpenAIConfig(), exec, NewPrometheusScoreMetrics("openai"))
	}
	logger.Warn("no AI provider configured, using noop scorer")
	return NewNoop()
}
