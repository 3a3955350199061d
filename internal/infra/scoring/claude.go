package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"applytrack/internal/domain/entity"
	"applytrack/internal/resilience/retry"
)

// ClaudeBreakerKey names the circuit breaker for Claude scoring calls.
const ClaudeBreakerKey = "claude"

// ClaudeConfig holds configuration parameters for the Claude scorer.
type ClaudeConfig struct {
	// Model is the Claude API model identifier to use for scoring.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// Timeout is the maximum duration for a single scoring API call.
	Timeout time.Duration
}

// DefaultClaudeConfig returns production defaults for the Claude scorer.
func DefaultClaudeConfig() ClaudeConfig {
	return ClaudeConfig{
		Model:     string(anthropic.ModelClaudeSonnet4_5_20250929),
		MaxTokens: 300,
		Timeout:   30 * time.Second,
	}
}

// Claude scores applications via the Anthropic Messages API.
type Claude struct {
	client  anthropic.Client
	config  ClaudeConfig
	exec    *retry.Executor
	metrics ScoreMetricsRecorder
}

// NewClaude creates a Claude-backed scorer.
func NewClaude(apiKey string, cfg ClaudeConfig, exec *retry.Executor, metrics ScoreMetricsRecorder) *Claude {
	if cfg.Model == "" {
		cfg.Model = DefaultClaudeConfig().Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultClaudeConfig().MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultClaudeConfig().Timeout
	}
	if metrics == nil {
		metrics = NoopScoreMetrics{}
	}
	return &Claude{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		config:  cfg,
		exec:    exec,
		metrics: metrics,
	}
}

// Score rates the profile against the posting. API faults are retried with
// backoff under the claude circuit breaker.
func (c *Claude) Score(ctx context.Context, job *entity.JobPosting, profile string) (*entity.MatchScore, error) {
	var result *entity.MatchScore
	err := c.exec.Run(ctx, retry.AIPolicy(), ClaudeBreakerKey, func(ctx context.Context) error {
		scored, err := c.doScore(ctx, job, profile)
		if err != nil {
			return err
		}
		result = scored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Claude) doScore(ctx context.Context, job *entity.JobPosting, profile string) (*entity.MatchScore, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(buildPrompt(job, profile)),
			),
		},
	})
	duration := time.Since(start)
	c.metrics.RecordDuration(duration)

	if err != nil {
		c.metrics.RecordRequest("error")
		slog.ErrorContext(ctx, "Scoring failed",
			slog.String("provider", "claude"),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return nil, retry.Transient(fmt.Errorf("claude api error: %w", err))
	}

	if len(message.Content) == 0 {
		c.metrics.RecordRequest("error")
		return nil, retry.Transient(fmt.Errorf("claude api returned empty response"))
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		c.metrics.RecordRequest("error")
		return nil, fmt.Errorf("claude api returned unexpected response type")
	}

	score, err := parseScore(textBlock.Text)
	if err != nil {
		c.metrics.RecordRequest("error")
		return nil, fmt.Errorf("claude response: %w", err)
	}

	c.metrics.RecordRequest("success")
	slog.InfoContext(ctx, "Scoring completed",
		slog.String("provider", "claude"),
		slog.Int("score", score.Score),
		slog.Duration("duration", duration))
	return score, nil
}
