// Package jobboard implements the HTTP client for the external job-board
// search API. Calls are rate limited for politeness and run through the
// retry executor under the job-board circuit breaker.
package jobboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"applytrack/internal/domain/entity"
	"applytrack/internal/resilience/retry"
)

// BreakerKey names the circuit breaker shared by all job-board calls.
const BreakerKey = "job-board"

// maxErrorBody bounds how much of an error response is read for diagnostics.
const maxErrorBody = 2048

// Query describes one job search request.
type Query struct {
	Keywords string
	Location string
	Remote   bool
}

// Config holds the client's connection settings.
type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// DefaultConfig returns production settings for the hosted board API.
func DefaultConfig() Config {
	return Config{
		Timeout:        15 * time.Second,
		RequestsPerSec: 2,
		Burst:          4,
	}
}

// Client is an HTTP client for the job-board search API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	exec       *retry.Executor
	policy     retry.Policy
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a job-board client. exec may carry a breaker registry;
// when it does, calls fail fast while the board is known-unhealthy.
func NewClient(cfg Config, exec *retry.Executor, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = DefaultConfig().RequestsPerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		exec:       exec,
		policy:     retry.JobBoardPolicy(),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

type jobDTO struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Company  string    `json:"company"`
	Location string    `json:"location"`
	URL      string    `json:"url"`
	PostedAt time.Time `json:"posted_at"`
}

type searchResponse struct {
	Jobs []jobDTO `json:"jobs"`
}

// Search runs a job search against the board. Transient failures and 5xx
// responses are retried with backoff; a 429 push-back floors the next delay
// at the board's Retry-After.
func (c *Client) Search(ctx context.Context, q Query) ([]*entity.JobPosting, error) {
	var jobs []*entity.JobPosting
	err := c.exec.Run(ctx, c.policy, BreakerKey, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("Search: limiter: %w", err)
		}
		found, err := c.doSearch(ctx, q)
		if err != nil {
			return err
		}
		jobs = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *Client) doSearch(ctx context.Context, q Query) ([]*entity.JobPosting, error) {
	endpoint := c.baseURL + "/v1/jobs/search"
	params := url.Values{}
	params.Set("q", q.Keywords)
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if q.Remote {
		params.Set("remote", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("Search: NewRequest: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Search: Do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &retry.RateLimitError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    "job board throttled the request",
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("Search: Decode: %w", err)
	}

	jobs := make([]*entity.JobPosting, 0, len(decoded.Jobs))
	for _, dto := range decoded.Jobs {
		job := &entity.JobPosting{
			Title:    dto.Title,
			Company:  dto.Company,
			Location: dto.Location,
			URL:      dto.URL,
			PostedAt: dto.PostedAt,
		}
		// Board IDs are opaque strings; derive a stable UUID so re-imports
		// of the same posting map to the same row.
		job.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(dto.URL))
		if err := job.Validate(); err != nil {
			c.logger.Warn("skipping malformed posting",
				slog.String("board_id", dto.ID),
				slog.Any("error", err))
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// parseRetryAfter reads a Retry-After header value, either delta-seconds or
// an HTTP date. Zero means the board gave no usable hint.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
