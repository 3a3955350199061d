package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"applytrack/internal/domain/entity"
	"applytrack/internal/resilience/retry"
)

// OpenAIBreakerKey names the circuit breaker for OpenAI scoring calls.
const OpenAIBreakerKey = "openai"

// OpenAIConfig holds configuration parameters for the OpenAI scorer.
type OpenAIConfig struct {
	// Model is the OpenAI API model identifier to use for scoring.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// Timeout is the maximum duration for a single scoring API call.
	Timeout time.Duration
}

// DefaultOpenAIConfig returns production defaults for the OpenAI scorer.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model:     openai.GPT4oMini,
		MaxTokens: 300,
		Timeout:   30 * time.Second,
	}
}

// OpenAI scores applications via OpenAI chat completions.
type OpenAI struct {
	client  *openai.Client
	config  OpenAIConfig
	exec    *retry.Executor
	metrics ScoreMetricsRecorder
}

// NewOpenAI creates an OpenAI-backed scorer.
func NewOpenAI(apiKey string, cfg OpenAIConfig, exec *retry.Executor, metrics ScoreMetricsRecorder) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIConfig().Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultOpenAIConfig().MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultOpenAIConfig().Timeout
	}
	if metrics == nil {
		metrics = NoopScoreMetrics{}
	}
	return &OpenAI{
		client:  openai.NewClient(apiKey),
		config:  cfg,
		exec:    exec,
		metrics: metrics,
	}
}

// Score rates the profile against the posting. API faults are retried with
// backoff under the openai circuit breaker.
func (o *OpenAI) Score(ctx context.Context, job *entity.JobPosting, profile string) (*entity.MatchScore, error) {
	var result *entity.MatchScore
	err := o.exec.Run(ctx, retry.AIPolicy(), OpenAIBreakerKey, func(ctx context.Context) error {
		scored, err := o.doScore(ctx, job, profile)
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

func (o *OpenAI) doScore(ctx context.Context, job *entity.JobPosting, profile string) (*entity.MatchScore, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: buildPrompt(job, profile),
		}},
	})
	duration := time.Since(start)
	o.metrics.RecordDuration(duration)

	if err != nil {
		o.metrics.RecordRequest("error")
		slog.ErrorContext(ctx, "Scoring failed",
			slog.String("provider", "openai"),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		// SDK errors are opaque; the timeout-bounded call is worth another
		// attempt.
		return nil, retry.Transient(fmt.Errorf("openai api error: %w", err))
	}

	if len(resp.Choices) == 0 {
		o.metrics.RecordRequest("error")
		return nil, retry.Transient(fmt.Errorf("openai api returned empty response"))
	}

	score, err := parseScore(resp.Choices[0].Message.Content)
	if err != nil {
		o.metrics.RecordRequest("error")
		return nil, fmt.Errorf("openai response: %w", err)
	}

	o.metrics.RecordRequest("success")
	slog.InfoContext(ctx, "Scoring completed",
		slog.String("provider", "openai"),
		slog.Int("score", score.Score),
		slog.Duration("duration", duration))
	return score, nil
}
